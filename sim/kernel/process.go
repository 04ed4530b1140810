package kernel

import (
	"fmt"
	"math"
)

// ProcessFunc is the body of a logical process. A non-nil error stops the run.
type ProcessFunc func(p *Process) error

// terminated unwinds a parked process when its environment is closed.
type terminated struct{}

// Process is a logical, independently scheduled unit of work.
type Process struct {
	env  *Environment
	id   int
	name string

	resume   chan bool // true = terminate
	finished bool
	err      error
	joiners  []*Process
}

// Spawn registers fn as a new process. It starts at the current time, after the
// events already scheduled for this instant.
func (e *Environment) Spawn(name string, fn ProcessFunc) *Process {
	p := &Process{
		env:    e,
		id:     e.nextProcID,
		name:   name,
		resume: make(chan bool),
	}
	e.nextProcID++
	e.live[p.id] = p
	go p.run(fn)
	e.schedule(e.now, priorityResume, func() { e.transfer(p) })
	return p
}

func (p *Process) run(fn ProcessFunc) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(terminated); !ok {
				p.err = fmt.Errorf("panic: %v", r)
			}
		}
		p.finished = true
		p.env.yield <- struct{}{}
	}()
	if kill := <-p.resume; kill {
		return
	}
	p.err = fn(p)
}

// park yields control back to the dispatcher and blocks until resumed.
func (p *Process) park() {
	p.env.yield <- struct{}{}
	if kill := <-p.resume; kill {
		panic(terminated{})
	}
}

func (p *Process) checkActive() error {
	if p == nil || p.env.active != p {
		return ErrForeignProcess
	}
	return nil
}

// Name returns the name given at Spawn.
func (p *Process) Name() string { return p.name }

// Now returns the environment's current time.
func (p *Process) Now() float64 { return p.env.now }

// Env returns the environment the process runs on.
func (p *Process) Env() *Environment { return p.env }

// Finished reports whether the process body has returned.
func (p *Process) Finished() bool { return p.finished }

// Err returns the error the process body returned, once finished.
func (p *Process) Err() error { return p.err }

// Delay suspends the process until now+d.
func (p *Process) Delay(d float64) error {
	if d < 0 || math.IsNaN(d) {
		return fmt.Errorf("%w: %v", ErrNegativeDelay, d)
	}
	if err := p.checkActive(); err != nil {
		return err
	}
	p.env.schedule(p.env.now+d, priorityTimeout, func() { p.env.transfer(p) })
	p.park()
	return nil
}

// Join suspends p until other finishes and returns other's error.
func (p *Process) Join(other *Process) error {
	if err := p.checkActive(); err != nil {
		return err
	}
	if !other.finished {
		other.joiners = append(other.joiners, p)
		p.park()
	}
	return other.err
}
