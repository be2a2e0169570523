package shop

import (
	"github.com/procsim/procsim/sim"
)

const unimportantPriority = 2

// UnimportantWork is the repairman's stream of less important jobs. A broken
// machine preempts the repairman; the job resumes, with its remaining
// duration, once the repairman is available again.
type UnimportantWork struct {
	engine    sim.Engine
	cfg       Config
	repairman *sim.PreemptiveResource

	process *sim.Process

	workLeft  sim.VTime
	startedAt sim.VTime
	grant     *sim.Grant

	jobsMade int
}

// NewUnimportantWork creates the repairman's unimportant work process and
// starts it.
func NewUnimportantWork(
	engine sim.Engine,
	repairman *sim.PreemptiveResource,
	cfg Config,
) *UnimportantWork {
	u := &UnimportantWork{
		engine:    engine,
		cfg:       cfg,
		repairman: repairman,
		workLeft:  sim.VTime(cfg.JobDuration),
	}

	u.process = sim.NewProcess(engine, "unimportant work", "request_slot",
		map[sim.StateLabel]sim.StateHandler{
			"request_slot": u.requestSlot,
			"start_job":    u.startJob,
			"job_done":     u.jobDone,
		})

	return u
}

// Process returns the kernel process of the unimportant work.
func (u *UnimportantWork) Process() *sim.Process {
	return u.process
}

// JobsMade returns the number of unimportant jobs completed.
func (u *UnimportantWork) JobsMade() int {
	return u.jobsMade
}

// WorkLeft returns the remaining duration of the current job.
func (u *UnimportantWork) WorkLeft() sim.VTime {
	return u.workLeft
}

func (u *UnimportantWork) requestSlot(sim.ResumeOutcome) sim.Transition {
	return sim.WaitFor(
		sim.Acquire(u.repairman, unimportantPriority), "start_job")
}

func (u *UnimportantWork) startJob(outcome sim.ResumeOutcome) sim.Transition {
	if outcome.Kind == sim.Interrupted {
		// The slot was granted and revoked before delivery. No work got
		// done, so the remaining duration is unchanged.
		return sim.Goto("request_slot")
	}

	u.grant = outcome.Grant
	u.startedAt = u.engine.CurrentTime()

	return sim.WaitFor(sim.Timeout(u.workLeft), "job_done")
}

func (u *UnimportantWork) jobDone(outcome sim.ResumeOutcome) sim.Transition {
	elapsed := u.engine.CurrentTime() - u.startedAt
	u.workLeft -= elapsed

	u.grant.Release()
	u.grant = nil

	if outcome.Kind == sim.Interrupted {
		// Preempted by a machine repair. Try again with what is left; the
		// job resumes when the repairman is free.
		return sim.Goto("request_slot")
	}

	u.jobsMade++
	u.workLeft = sim.VTime(u.cfg.JobDuration)

	return sim.Goto("request_slot")
}
