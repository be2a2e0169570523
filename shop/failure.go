package shop

import (
	"math/rand"

	"github.com/procsim/procsim/sim"
)

// FailureCause is the interrupt cause a MachineFailure delivers when it breaks
// its machine.
type FailureCause struct {
	Machine string
}

// A MachineFailure breaks its machine every now and then.
type MachineFailure struct {
	engine  sim.Engine
	rand    *rand.Rand
	machine *Machine

	process *sim.Process
}

func newMachineFailure(
	engine sim.Engine,
	name string,
	rng *rand.Rand,
	machine *Machine,
) *MachineFailure {
	f := &MachineFailure{
		engine:  engine,
		rand:    rng,
		machine: machine,
	}

	f.process = sim.NewProcess(engine, name, "schedule_failure",
		map[sim.StateLabel]sim.StateHandler{
			"schedule_failure": f.scheduleFailure,
			"break_machine":    f.breakMachine,
		})

	return f
}

// Process returns the failure's kernel process.
func (f *MachineFailure) Process() *sim.Process {
	return f.process
}

// timeToFailure returns the time until the next failure of the machine.
func (f *MachineFailure) timeToFailure() sim.VTime {
	return sim.VTime(f.rand.ExpFloat64() * f.machine.cfg.MTTF)
}

func (f *MachineFailure) scheduleFailure(sim.ResumeOutcome) sim.Transition {
	return sim.WaitFor(sim.Timeout(f.timeToFailure()), "break_machine")
}

func (f *MachineFailure) breakMachine(sim.ResumeOutcome) sim.Transition {
	// Only break the machine if it is currently working. A machine that is
	// already waiting for or undergoing repair cannot break again.
	if !f.machine.Broken() {
		_ = f.machine.Process().Interrupt(FailureCause{
			Machine: f.machine.Name(),
		})
	}

	return sim.Goto("schedule_failure")
}
