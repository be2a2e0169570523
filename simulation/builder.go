package simulation

import (
	"github.com/rs/xid"

	"github.com/procsim/procsim/datarecording"
	"github.com/procsim/procsim/monitoring"
	"github.com/procsim/procsim/sim"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	openDashboard  bool
	recordingOn    bool
	outputFileName string
}

// MakeBuilder creates a new builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		monitorOn:   true,
		recordingOn: true,
	}
}

// WithoutMonitoring sets the simulation to not start the monitoring server.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithDashboardAutoOpen makes the monitor open the dashboard URL in a
// browser when the server starts.
func (b Builder) WithDashboardAutoOpen() Builder {
	b.openDashboard = true
	return b
}

// WithoutDataRecording sets the simulation to not record data to a database.
func (b Builder) WithoutDataRecording() Builder {
	b.recordingOn = false
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.recordingOn && b.outputFileName != "" {
		panic("output file name cannot be set when recording is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		procNameIndex: make(map[string]int),
		resNameIndex:  make(map[string]int),
	}

	s.id = xid.New().String()
	s.engine = sim.NewSerialEngine()

	if b.recordingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "procsim_" + s.id
		}
		s.dataRecorder = datarecording.New(outputPath)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		if b.openDashboard {
			s.monitor.WithDashboardAutoOpen()
		}
		s.monitor.RegisterEngine(s.engine)
		s.monitor.StartServer()
	}

	return s
}
