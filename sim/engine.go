package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTime
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	Schedule(e Event)
}

// A SimulationEndHandler is a handler that is called after the simulation
// ends.
type SimulationEndHandler interface {
	Handle(now VTime)
}

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run will process all the events until no event is left.
	Run() error

	// RunUntil processes the events that happen strictly before the horizon
	// and then advances the current time to the horizon. Events scheduled at
	// or after the horizon stay in the queue.
	RunUntil(horizon VTime) error

	// PendingEventCount returns the number of events that are scheduled but
	// not yet processed.
	PendingEventCount() int

	// Pause will pause the simulation until Continue is called.
	Pause()

	// Continue will continue the paused simulation.
	Continue()

	// RegisterSimulationEndHandler registers a handler that performs some
	// actions after the simulation is finished.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished invokes all the registered SimulationEndHandler.
	Finished()
}
