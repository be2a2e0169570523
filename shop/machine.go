package shop

import (
	"math"
	"math/rand"

	"github.com/procsim/procsim/sim"
)

const repairPriority = 1

// A Machine produces parts and may get broken every now and then. If it
// breaks, it requests the repairman and continues the production after it is
// repaired.
type Machine struct {
	engine    sim.Engine
	rand      *rand.Rand
	cfg       Config
	repairman *sim.PreemptiveResource

	process *sim.Process
	failure *MachineFailure

	workLeft  sim.VTime
	startedAt sim.VTime
	broken    bool
	grant     *sim.Grant

	partsMade int
}

// NewMachine creates a machine together with its failure process and starts
// both.
func NewMachine(
	engine sim.Engine,
	name string,
	rng *rand.Rand,
	repairman *sim.PreemptiveResource,
	cfg Config,
) *Machine {
	m := &Machine{
		engine:    engine,
		rand:      rng,
		cfg:       cfg,
		repairman: repairman,
	}

	m.workLeft = m.timePerPart()
	m.failure = newMachineFailure(engine, name+" failure", rng, m)

	m.process = sim.NewProcess(engine, name, "start_part",
		map[sim.StateLabel]sim.StateHandler{
			"start_part":     m.startPart,
			"part_done":      m.partDone,
			"request_repair": m.requestRepair,
			"repairing":      m.repairing,
			"repaired":       m.repaired,
		})

	return m
}

// Name returns the name of the machine.
func (m *Machine) Name() string {
	return m.process.Name()
}

// Process returns the machine's kernel process.
func (m *Machine) Process() *sim.Process {
	return m.process
}

// Failure returns the machine's failure process wrapper.
func (m *Machine) Failure() *MachineFailure {
	return m.failure
}

// PartsMade returns the number of parts the machine has finished.
func (m *Machine) PartsMade() int {
	return m.partsMade
}

// Broken reports whether the machine is currently broken, including the time
// it spends waiting for and undergoing repair.
func (m *Machine) Broken() bool {
	return m.broken
}

// timePerPart returns the actual processing time for a concrete part.
func (m *Machine) timePerPart() sim.VTime {
	return sim.VTime(math.Abs(
		m.rand.NormFloat64()*m.cfg.PTSigma + m.cfg.PTMean))
}

func (m *Machine) startPart(sim.ResumeOutcome) sim.Transition {
	m.broken = false
	m.startedAt = m.engine.CurrentTime()

	return sim.WaitFor(sim.Timeout(m.workLeft), "part_done")
}

func (m *Machine) partDone(outcome sim.ResumeOutcome) sim.Transition {
	if outcome.Kind == sim.Interrupted {
		// Record how much work was left, then await the repairman.
		elapsed := m.engine.CurrentTime() - m.startedAt
		m.workLeft -= elapsed

		return sim.Goto("request_repair")
	}

	m.partsMade++
	m.workLeft = m.timePerPart()

	return sim.Goto("start_part")
}

func (m *Machine) requestRepair(sim.ResumeOutcome) sim.Transition {
	// This will preempt the repairman's unimportant work.
	m.broken = true

	return sim.WaitFor(
		sim.Acquire(m.repairman, repairPriority), "repairing")
}

func (m *Machine) repairing(outcome sim.ResumeOutcome) sim.Transition {
	m.grant = outcome.Grant

	return sim.WaitFor(sim.Timeout(sim.VTime(m.cfg.RepairTime)), "repaired")
}

func (m *Machine) repaired(sim.ResumeOutcome) sim.Transition {
	m.grant.Release()
	m.grant = nil

	return sim.Goto("start_part")
}
