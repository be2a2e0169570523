package sim

// A WaitCondition is what a process suspends on: a timer or a resource
// acquisition. The kernel inspects the variant to decide what event to
// enqueue.
type WaitCondition interface {
	isWaitCondition()
}

// TimeoutCondition fires after a virtual-time delay.
type TimeoutCondition struct {
	Duration VTime
}

func (TimeoutCondition) isWaitCondition() {}

// Timeout returns a wait condition that fires after d units of virtual time.
func Timeout(d VTime) WaitCondition {
	return TimeoutCondition{Duration: d}
}

// AcquireCondition requests one slot of a resource. Priority only matters for
// preemptive resources; lower values are more important.
type AcquireCondition struct {
	Resource AcquirableResource
	Priority int
}

func (AcquireCondition) isWaitCondition() {}

// Acquire returns a wait condition that completes when the resource hands the
// process a slot. The delivered outcome carries the Grant.
func Acquire(r AcquirableResource, priority int) WaitCondition {
	return AcquireCondition{Resource: r, Priority: priority}
}
