package kernel

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

var (
	// ErrEmptySchedule is returned by Step when no events remain.
	ErrEmptySchedule = errors.New("kernel: no scheduled events")
	// ErrNegativeDelay is returned by Delay for negative or NaN durations.
	ErrNegativeDelay = errors.New("kernel: negative delay")
	// ErrInvalidCapacity is returned when a resource is built with capacity < 1.
	ErrInvalidCapacity = errors.New("kernel: resource capacity must be positive")
	// ErrForeignProcess is returned when a suspension is requested by a process
	// that is not the one currently running on its environment.
	ErrForeignProcess = errors.New("kernel: process is not the active process")
	// ErrClosed is returned by run control after Close.
	ErrClosed = errors.New("kernel: environment closed")
)

// Environment is the simulation kernel: a virtual clock plus the event heap.
//
// Thread-safety: NOT thread-safe. Step, RunUntil and Run must be called from a
// single goroutine; processes only touch the environment while they hold control.
type Environment struct {
	now     float64
	events  *eventHeap
	nextSeq uint64

	yield  chan struct{}
	active *Process

	live       map[int]*Process
	nextProcID int

	failure error
	closed  bool
}

// NewEnvironment creates an environment with its clock at 0.
func NewEnvironment() *Environment {
	return &Environment{
		events: newEventHeap(),
		yield:  make(chan struct{}),
		live:   make(map[int]*Process),
	}
}

// Now returns the current virtual time in minutes.
func (e *Environment) Now() float64 {
	return e.now
}

// Pending returns the number of scheduled events.
func (e *Environment) Pending() int {
	return e.events.Len()
}

// Peek returns the timestamp of the next event, if any.
func (e *Environment) Peek() (float64, bool) {
	next := e.events.peek()
	if next == nil {
		return 0, false
	}
	return next.time, true
}

// LiveProcesses returns the number of spawned processes that have not finished.
func (e *Environment) LiveProcesses() int {
	return len(e.live)
}

func (e *Environment) schedule(at float64, priority int, fire func()) {
	e.nextSeq++
	e.events.schedule(&event{time: at, priority: priority, seqID: e.nextSeq, fire: fire})
}

// Step executes the next event. It returns ErrEmptySchedule when nothing is
// scheduled, or the first error raised by a process.
func (e *Environment) Step() error {
	if e.closed {
		return ErrClosed
	}
	if e.failure != nil {
		return e.failure
	}
	ev := e.events.popNext()
	if ev == nil {
		return ErrEmptySchedule
	}
	e.now = ev.time
	ev.fire()
	return e.failure
}

// RunUntil executes every event strictly before horizon, then advances the clock
// to horizon. Running out of events before the horizon is not an error.
func (e *Environment) RunUntil(horizon float64) error {
	if horizon < e.now {
		return fmt.Errorf("kernel: horizon %v is before current time %v", horizon, e.now)
	}
	for {
		next, ok := e.Peek()
		if !ok || next >= horizon {
			break
		}
		if err := e.Step(); err != nil {
			return err
		}
	}
	if e.failure != nil {
		return e.failure
	}
	if !math.IsInf(horizon, 1) {
		e.now = horizon
	}
	logrus.Debugf("[t=%.1f] run horizon reached", e.now)
	return nil
}

// Run executes events until stop reports true. A nil stop runs until the
// schedule is empty and returns nil; with a stop predicate, emptying the
// schedule before it holds returns ErrEmptySchedule.
func (e *Environment) Run(stop func() bool) error {
	for stop == nil || !stop() {
		err := e.Step()
		if errors.Is(err, ErrEmptySchedule) {
			if stop == nil {
				return nil
			}
			return fmt.Errorf("%w at t=%v before the stop condition held", ErrEmptySchedule, e.now)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Close terminates every process that is still parked or waiting to start and
// drops all pending events. The environment cannot be stepped afterwards.
func (e *Environment) Close() {
	if e.closed {
		return
	}
	e.closed = true
	for id := 0; id < e.nextProcID; id++ {
		p, ok := e.live[id]
		if !ok {
			continue
		}
		e.active = p
		p.resume <- true
		<-e.yield
		e.active = nil
		delete(e.live, id)
	}
	e.events = newEventHeap()
}

// transfer hands control to p and blocks until p suspends or finishes.
func (e *Environment) transfer(p *Process) {
	if p.finished || e.closed {
		return
	}
	e.active = p
	p.resume <- false
	<-e.yield
	e.active = nil
	if p.finished {
		e.retire(p)
	}
}

func (e *Environment) retire(p *Process) {
	delete(e.live, p.id)
	if p.err != nil && e.failure == nil {
		e.failure = fmt.Errorf("process %s: %w", p.name, p.err)
	}
	for _, j := range p.joiners {
		joiner := j
		e.schedule(e.now, priorityResume, func() { e.transfer(joiner) })
	}
	p.joiners = nil
}
