package sim

import (
	"log"
	"reflect"
)

// EventLogger is a hook that prints the event information.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger returns a new EventLogger which will write into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger
	return h
}

// Func writes the event information into the logger. Process resumptions log
// the process, the resume kind, and the state being entered.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	if resume, ok := evt.(*ResumeEvent); ok {
		h.Logger.Printf("%.10f, %s, %s -> %s",
			evt.Time(), resume.kind,
			resume.process.Name(), resume.process.State())
		return
	}

	h.Logger.Printf("%.10f, %s", evt.Time(), reflect.TypeOf(evt))
}
