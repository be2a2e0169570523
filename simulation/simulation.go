// Package simulation assembles the pieces of one simulation run: the engine,
// the processes and resources, the data recorder, and the optional monitor.
package simulation

import (
	"fmt"
	"strings"

	"github.com/procsim/procsim/datarecording"
	"github.com/procsim/procsim/monitoring"
	"github.com/procsim/procsim/sim"
)

// A Simulation provides the services required to define and run a
// simulation.
type Simulation struct {
	id     string
	engine sim.Engine

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor

	processes     []*sim.Process
	procNameIndex map[string]int
	resources     []sim.AcquirableResource
	resNameIndex  map[string]int
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Engine returns the event-driven simulation engine used.
func (s *Simulation) Engine() sim.Engine {
	return s.engine
}

// DataRecorder returns the data recorder, or nil when recording is disabled.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Monitor returns the monitor, or nil when monitoring is disabled.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// RegisterProcess adds a process to the simulation. Process names must be
// unique.
func (s *Simulation) RegisterProcess(p *sim.Process) {
	if _, ok := s.procNameIndex[p.Name()]; ok {
		panic(fmt.Sprintf("process %s already registered", p.Name()))
	}

	s.processes = append(s.processes, p)
	s.procNameIndex[p.Name()] = len(s.processes) - 1

	if s.monitor != nil {
		s.monitor.RegisterProcess(p)
	}
}

// RegisterResource adds a resource to the simulation. Resource names must be
// unique.
func (s *Simulation) RegisterResource(r sim.AcquirableResource) {
	if _, ok := s.resNameIndex[r.Name()]; ok {
		panic(fmt.Sprintf("resource %s already registered", r.Name()))
	}

	s.resources = append(s.resources, r)
	s.resNameIndex[r.Name()] = len(s.resources) - 1

	if s.monitor != nil {
		s.monitor.RegisterResource(r)
	}
}

// ProcessByName returns the registered process with the given name.
func (s *Simulation) ProcessByName(name string) (*sim.Process, bool) {
	i, ok := s.procNameIndex[name]
	if !ok {
		return nil, false
	}
	return s.processes[i], true
}

// ResourceByName returns the registered resource with the given name.
func (s *Simulation) ResourceByName(name string) (sim.AcquirableResource, bool) {
	i, ok := s.resNameIndex[name]
	if !ok {
		return nil, false
	}
	return s.resources[i], true
}

// Processes returns all the registered processes.
func (s *Simulation) Processes() []*sim.Process {
	return s.processes
}

// A DeadlockError reports that the event queue drained before the horizon
// while some registered processes were still waiting. The kernel reports the
// condition; it does not resolve it.
type DeadlockError struct {
	Time    sim.VTime
	Blocked []string
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("deadlock at %.10f, blocked processes: %s",
		float64(e.Time), strings.Join(e.Blocked, ", "))
}

// Run drives the simulation until the horizon. A timer wait always produces
// a future event, so a drained queue means the remaining suspended processes
// can never run again; Run reports them through a DeadlockError.
func (s *Simulation) Run(horizon sim.VTime) error {
	if err := s.engine.RunUntil(horizon); err != nil {
		return err
	}

	if s.engine.PendingEventCount() > 0 {
		return nil
	}

	var blocked []string
	for _, p := range s.processes {
		if !p.Terminated() && p.Suspended() {
			blocked = append(blocked, p.Name())
		}
	}

	if len(blocked) > 0 {
		return &DeadlockError{
			Time:    s.engine.CurrentTime(),
			Blocked: blocked,
		}
	}

	return nil
}

// Terminate ends the simulation: it invokes the registered simulation-end
// handlers and flushes the data recorder.
func (s *Simulation) Terminate() {
	s.engine.Finished()

	if s.dataRecorder != nil {
		s.dataRecorder.Flush()
	}
}
