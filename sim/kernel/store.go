package kernel

// getter is a process parked on Store.Get.
type getter[T any] struct {
	proc *Process
	item T
}

// Store is an unbounded FIFO buffer. Put never blocks; Get blocks until an item
// is available and always returns the oldest item still present.
type Store[T any] struct {
	env     *Environment
	name    string
	items   []T
	getters []*getter[T]
}

// NewStore creates an empty store.
func NewStore[T any](env *Environment, name string) *Store[T] {
	return &Store[T]{env: env, name: name}
}

// Name returns the store name.
func (s *Store[T]) Name() string { return s.name }

// Len returns the number of items in the store.
func (s *Store[T]) Len() int { return len(s.items) }

// Waiting returns the number of processes blocked on Get.
func (s *Store[T]) Waiting() int { return len(s.getters) }

// Items returns a copy of the stored items, oldest first.
func (s *Store[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Put appends item and hands items to blocked getters in arrival order.
// It may be called outside any process (e.g. to pre-stock a store).
func (s *Store[T]) Put(item T) {
	s.items = append(s.items, item)
	for len(s.getters) > 0 && len(s.items) > 0 {
		g := s.getters[0]
		s.getters = s.getters[1:]
		g.item = s.pop()
		proc := g.proc
		s.env.schedule(s.env.now, priorityResume, func() { s.env.transfer(proc) })
	}
}

// Get removes and returns the oldest item, suspending p while the store is empty.
func (s *Store[T]) Get(p *Process) (T, error) {
	var zero T
	if err := p.checkActive(); err != nil {
		return zero, err
	}
	if len(s.getters) == 0 && len(s.items) > 0 {
		return s.pop(), nil
	}
	g := &getter[T]{proc: p}
	s.getters = append(s.getters, g)
	p.park()
	return g.item, nil
}

func (s *Store[T]) pop() T {
	var zero T
	item := s.items[0]
	s.items[0] = zero
	s.items = s.items[1:]
	return item
}
