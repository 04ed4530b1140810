package kernel

import (
	"container/heap"
	"fmt"
)

// request is a pending Acquire call.
type request struct {
	proc     *Process
	priority float64
	seqID    uint64
}

// requestQueue is a min-heap ordered by (priority, seqID): lower priority values
// are granted first and equal priorities are granted in arrival order.
type requestQueue []*request

func (q requestQueue) Len() int { return len(q) }

func (q requestQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seqID < q[j].seqID
}

func (q requestQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *requestQueue) Push(x any) { *q = append(*q, x.(*request)) }

func (q *requestQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Resource is a finite-capacity resource with a priority-ordered wait queue.
type Resource struct {
	env      *Environment
	name     string
	capacity int
	users    int

	queue           requestQueue
	nextSeq         uint64
	dispatchPending bool
}

// NewResource creates a resource with the given number of units.
func NewResource(env *Environment, name string, capacity int) (*Resource, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %s has capacity %d", ErrInvalidCapacity, name, capacity)
	}
	return &Resource{env: env, name: name, capacity: capacity}, nil
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// Capacity returns the number of units.
func (r *Resource) Capacity() int { return r.capacity }

// InUse returns the number of units currently granted.
func (r *Resource) InUse() int { return r.users }

// QueueLen returns the number of processes waiting for a unit.
func (r *Resource) QueueLen() int { return r.queue.Len() }

// Acquire suspends p until a unit is granted. Grants are decided at the end of the
// current instant, so simultaneous requests compete on priority.
func (r *Resource) Acquire(p *Process, priority float64) error {
	if err := p.checkActive(); err != nil {
		return err
	}
	if p.env != r.env {
		return fmt.Errorf("%w: %s belongs to another environment", ErrForeignProcess, r.name)
	}
	r.nextSeq++
	heap.Push(&r.queue, &request{proc: p, priority: priority, seqID: r.nextSeq})
	r.scheduleDispatch()
	p.park()
	return nil
}

// Release returns one unit and lets the best queued request take it.
// Panics if no unit is held.
func (r *Resource) Release() {
	if r.users == 0 {
		panic(fmt.Sprintf("Release: resource %s has no units in use", r.name))
	}
	r.users--
	if r.queue.Len() > 0 {
		r.scheduleDispatch()
	}
}

func (r *Resource) scheduleDispatch() {
	if r.dispatchPending {
		return
	}
	r.dispatchPending = true
	r.env.schedule(r.env.now, priorityGrant, r.dispatch)
}

func (r *Resource) dispatch() {
	r.dispatchPending = false
	for r.users < r.capacity && r.queue.Len() > 0 {
		req := heap.Pop(&r.queue).(*request)
		r.users++
		proc := req.proc
		r.env.schedule(r.env.now, priorityResume, func() { r.env.transfer(proc) })
	}
}
