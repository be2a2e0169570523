package sim

import "log"

// An AcquirableResource is a pool of identical slots that processes acquire
// through an Acquire wait condition and give back by releasing the Grant they
// received.
type AcquirableResource interface {
	Name() string
	Capacity() int
	InUse() int
	Waiting() int

	submit(p *Process, priority int)
	withdraw(req *request)
}

// A Grant is one slot of a resource held by a process.
//
// Acquisition is scoped: the holder must release the grant on every exit
// path, including after an interrupt. A slot that is never released is lost
// for the rest of the run, because capacity never regenerates on its own.
type Grant struct {
	resource *Resource
	process  *Process
	priority int
	seq      uint64
	revoked  bool
	released bool
}

// Holder returns the process holding the slot.
func (g *Grant) Holder() *Process {
	return g.process
}

// Revoked reports whether the slot was taken away by preemption.
func (g *Grant) Revoked() bool {
	return g.revoked
}

// Release returns the slot to the resource and hands it to the next waiting
// request. Releasing a revoked grant is a no-op, so holders can release
// unconditionally on every exit path. Releasing the same live grant twice is
// a bookkeeping error.
func (g *Grant) Release() {
	if g.revoked {
		return
	}

	if g.released {
		log.Panicf("resource %s: grant already released by %s",
			g.resource.name, g.process.name)
	}

	g.released = true
	g.resource.release(g)
}

// A request is one entry of a resource waitqueue.
type request struct {
	process  *Process
	priority int
	seq      uint64
}

// A Resource is a capacity-limited pool of identical slots. Requests that
// cannot be granted immediately wait in arrival order.
//
// Resource state is only mutated inside a single process's resumption, so no
// locking is needed.
type Resource struct {
	name     string
	capacity int
	holders  []*Grant
	queue    []*request
	nextSeq  uint64

	insert  func(queue []*request, req *request) []*request
	preempt func(r *Resource, requester *Process, priority int) bool
}

// NewResource creates a resource with the given number of identical slots.
func NewResource(name string, capacity int) *Resource {
	if capacity <= 0 {
		log.Panicf("resource %s: capacity must be positive, got %d",
			name, capacity)
	}

	return &Resource{
		name:     name,
		capacity: capacity,
		insert:   insertFIFO,
	}
}

func insertFIFO(queue []*request, req *request) []*request {
	return append(queue, req)
}

// Name returns the name of the resource.
func (r *Resource) Name() string {
	return r.name
}

// Capacity returns the total number of slots.
func (r *Resource) Capacity() int {
	return r.capacity
}

// InUse returns the number of slots currently held.
func (r *Resource) InUse() int {
	return len(r.holders)
}

// Waiting returns the number of queued requests.
func (r *Resource) Waiting() int {
	return len(r.queue)
}

// submit processes a new request from p. It either grants a slot right away,
// preempts a holder when the resource's policy allows it, or queues the
// request and leaves p suspended.
func (r *Resource) submit(p *Process, priority int) {
	r.nextSeq++
	seq := r.nextSeq

	if len(r.holders) < r.capacity {
		r.grantTo(p, priority, seq)
		return
	}

	if r.preempt != nil && r.preempt(r, p, priority) {
		r.grantTo(p, priority, seq)
		return
	}

	req := &request{process: p, priority: priority, seq: seq}
	r.queue = r.insert(r.queue, req)
	p.pending = &pendingAcquire{resource: r, req: req}
}

func (r *Resource) grantTo(p *Process, priority int, seq uint64) {
	g := &Grant{
		resource: r,
		process:  p,
		priority: priority,
		seq:      seq,
	}

	r.holders = append(r.holders, g)
	r.holdersMustFit()

	p.deliverGrant(g)
}

func (r *Resource) holdersMustFit() {
	if len(r.holders) > r.capacity {
		log.Panicf("resource %s: %d holders exceed capacity %d",
			r.name, len(r.holders), r.capacity)
	}
}

func (r *Resource) release(g *Grant) {
	r.removeHolder(g)
	r.grantNext()
}

func (r *Resource) removeHolder(g *Grant) {
	for i, h := range r.holders {
		if h == g {
			r.holders = append(r.holders[:i], r.holders[i+1:]...)
			return
		}
	}

	log.Panicf("resource %s: releasing a grant that is not held", r.name)
}

// grantNext hands a freed slot to the head of the waitqueue. The insert
// policy keeps the head the right candidate: arrival order for plain
// resources, priority order for preemptive ones.
func (r *Resource) grantNext() {
	if len(r.queue) == 0 || len(r.holders) >= r.capacity {
		return
	}

	req := r.queue[0]
	r.queue = r.queue[1:]
	r.grantTo(req.process, req.priority, req.seq)
}

// withdraw removes a queued request, used when the requester is interrupted
// while waiting.
func (r *Resource) withdraw(req *request) {
	for i, q := range r.queue {
		if q == req {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return
		}
	}
}
