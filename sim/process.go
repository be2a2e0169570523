package sim

import (
	"errors"
	"fmt"
	"log"
)

// A StateLabel names one state of a Process.
type StateLabel string

// OutcomeKind discriminates how a wait ended.
type OutcomeKind int

const (
	// Completed marks a wait that ended as scheduled.
	Completed OutcomeKind = iota

	// Interrupted marks a wait that was aborted by an Interrupt before it
	// could fire.
	Interrupted
)

// A ResumeOutcome is delivered to a state handler when its process resumes.
// Handlers that wait on timeouts must check Kind: an interrupted wait did not
// run to completion, and treating it as completed corrupts any
// remaining-work accounting built on top of it.
type ResumeOutcome struct {
	Kind OutcomeKind

	// Cause carries the value passed to Interrupt. Nil for completed waits.
	Cause interface{}

	// Grant carries the slot the process now holds, when the ended wait was
	// an Acquire that completed. Nil otherwise.
	Grant *Grant
}

// A StateHandler runs one state of a Process. It receives the outcome of the
// wait that just ended and returns the transition to perform next.
type StateHandler func(outcome ResumeOutcome) Transition

// A Transition tells the kernel what a process does after a state handler
// returns.
type Transition struct {
	wait WaitCondition
	next StateLabel
	stop bool
}

// WaitFor suspends the process on cond and resumes it in state next when the
// wait ends, either completed or interrupted.
func WaitFor(cond WaitCondition, next StateLabel) Transition {
	return Transition{wait: cond, next: next}
}

// Goto enters state next immediately, at the current virtual time, within the
// same resumption.
func Goto(next StateLabel) Transition {
	return Transition{next: next}
}

// Terminate ends the process.
func Terminate() Transition {
	return Transition{stop: true}
}

// ErrInterruptIdle is returned when interrupting a process that has no
// pending wait to abort.
var ErrInterruptIdle = errors.New("process has no pending wait to interrupt")

// A Process is a resumable state machine bound to a named current state. The
// engine resumes it when its pending wait ends; the process advances by
// returning a Transition from the handler of the current state.
//
// Exactly one process runs at any instant. Resource state is only mutated
// inside a resumption, so processes never observe each other mid-update.
type Process struct {
	name   string
	engine Engine

	states  map[StateLabel]StateHandler
	current StateLabel

	pending    pendingWait
	terminated bool
}

// NewProcess creates a process and schedules its first resumption at the
// current virtual time. The initial state's handler runs with a completed
// outcome once the engine reaches that event.
func NewProcess(
	engine Engine,
	name string,
	initial StateLabel,
	states map[StateLabel]StateHandler,
) *Process {
	if _, ok := states[initial]; !ok {
		log.Panicf("process %s: unknown initial state %s", name, initial)
	}

	p := &Process{
		name:    name,
		engine:  engine,
		states:  states,
		current: initial,
	}

	evt := newResumeEvent(engine.CurrentTime(), p, ResumeOutcome{}, resumeKickStart)
	p.pending = &pendingResume{evt: evt}
	engine.Schedule(evt)

	return p
}

// Name returns the name of the process.
func (p *Process) Name() string {
	return p.name
}

// State returns the label of the state the process is currently in.
func (p *Process) State() StateLabel {
	return p.current
}

// Terminated reports whether the process has ended.
func (p *Process) Terminated() bool {
	return p.terminated
}

// Suspended reports whether the process is waiting on a pending wait or
// resumption.
func (p *Process) Suspended() bool {
	return p.pending != nil
}

// Interrupt aborts the process's pending wait. It takes effect at the current
// virtual time: the wait can never fire afterwards, and the process resumes
// immediately with an Interrupted outcome carrying cause.
//
// Interrupting a process that has no pending wait, or that has terminated,
// changes no kernel state and returns ErrInterruptIdle.
func (p *Process) Interrupt(cause interface{}) error {
	if p.terminated || p.pending == nil {
		return ErrInterruptIdle
	}

	p.pending.cancel()

	now := p.engine.CurrentTime()
	evt := newResumeEvent(now, p, ResumeOutcome{
		Kind:  Interrupted,
		Cause: cause,
	}, resumeInterrupt)
	p.pending = &pendingResume{evt: evt}
	p.engine.Schedule(evt)

	return nil
}

// Handle resumes the process. A Process is the Handler of its own resume
// events.
func (p *Process) Handle(e Event) error {
	evt, ok := e.(*ResumeEvent)
	if !ok {
		return fmt.Errorf("process %s cannot handle event of type %T", p.name, e)
	}

	if evt.canceled || p.terminated {
		return nil
	}

	p.pending = nil
	p.resume(evt.outcome)

	return nil
}

// resume runs state handlers until the process suspends or terminates.
// Immediate transitions chain within the same resumption, at the same
// virtual time.
func (p *Process) resume(outcome ResumeOutcome) {
	for {
		handler, ok := p.states[p.current]
		if !ok {
			log.Panicf("process %s: no handler for state %s", p.name, p.current)
		}

		transition := handler(outcome)
		outcome = ResumeOutcome{}

		if transition.stop {
			p.terminated = true
			return
		}

		p.current = transition.next
		if transition.wait == nil {
			continue
		}

		p.suspend(transition.wait)
		return
	}
}

func (p *Process) suspend(cond WaitCondition) {
	now := p.engine.CurrentTime()

	switch c := cond.(type) {
	case TimeoutCondition:
		if c.Duration < 0 {
			log.Panicf("process %s: negative timeout %.10f",
				p.name, float64(c.Duration))
		}

		evt := newResumeEvent(now+c.Duration, p, ResumeOutcome{}, resumeTimeout)
		p.pending = &pendingResume{evt: evt}
		p.engine.Schedule(evt)
	case AcquireCondition:
		c.Resource.submit(p, c.Priority)
	default:
		log.Panicf("process %s: unknown wait condition %T", p.name, cond)
	}
}

// deliverGrant schedules the resumption that hands g to the process at the
// current virtual time.
func (p *Process) deliverGrant(g *Grant) {
	now := p.engine.CurrentTime()
	evt := newResumeEvent(now, p, ResumeOutcome{Grant: g}, resumeGrant)
	p.pending = &pendingGrant{evt: evt, grant: g}
	p.engine.Schedule(evt)
}

// A pendingWait is whatever currently stands between a suspended process and
// its next resumption. The process owns it; canceling it guarantees the
// process is not resumed by the canceled wait.
type pendingWait interface {
	cancel()
}

// pendingResume is a scheduled resume event: a timeout, an interrupt
// delivery, or the kick-start.
type pendingResume struct {
	evt *ResumeEvent
}

func (w *pendingResume) cancel() {
	w.evt.canceled = true
}

// pendingAcquire is a request sitting in a resource waitqueue.
type pendingAcquire struct {
	resource *Resource
	req      *request
}

func (w *pendingAcquire) cancel() {
	w.resource.withdraw(w.req)
}

// pendingGrant is a granted slot whose delivery event has not fired yet.
type pendingGrant struct {
	evt   *ResumeEvent
	grant *Grant
}

func (w *pendingGrant) cancel() {
	w.evt.canceled = true

	// A revoked grant already returned its slot. A live one must go back,
	// or the slot would leak.
	if !w.grant.revoked {
		w.grant.Release()
	}
}

type resumeKind int

const (
	resumeKickStart resumeKind = iota
	resumeTimeout
	resumeGrant
	resumeInterrupt
)

func (k resumeKind) String() string {
	switch k {
	case resumeKickStart:
		return "start"
	case resumeTimeout:
		return "timeout"
	case resumeGrant:
		return "grant"
	case resumeInterrupt:
		return "interrupt"
	}
	return "unknown"
}

// A ResumeEvent resumes a suspended process.
type ResumeEvent struct {
	EventBase

	process  *Process
	outcome  ResumeOutcome
	kind     resumeKind
	canceled bool
}

func newResumeEvent(
	t VTime,
	p *Process,
	outcome ResumeOutcome,
	kind resumeKind,
) *ResumeEvent {
	return &ResumeEvent{
		EventBase: *NewEventBase(t, p),
		process:   p,
		outcome:   outcome,
		kind:      kind,
	}
}

// Process returns the process that the event resumes.
func (e *ResumeEvent) Process() *Process {
	return e.process
}

func (e *ResumeEvent) isCanceled() bool {
	return e.canceled
}
