package actor

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// ErrTimeout is returned by Request when no reply arrives in time. A timeout
// is a definite loss: the runtime never retries on the caller's behalf.
var ErrTimeout = fmt.Errorf("actor: request timed out")

// ErrNameInUse is returned by Spawn when the name is already taken within the
// parent scope.
var ErrNameInUse = fmt.Errorf("actor: name already in use")

// envelope pairs a message with the identity that sent it.
type envelope struct {
	msg    any
	sender Ref
}

// receiver is anything registered under a Ref: a process or a one-shot
// request future.
type receiver interface {
	deliver(env envelope) bool
}

// System hosts actors and routes messages between them.
type System struct {
	name     string
	logger   *slog.Logger
	registry *xsync.MapOf[string, receiver]
	futureID atomic.Uint64
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger used for runtime events (spawns, restarts, dead
// letters).
func WithLogger(logger *slog.Logger) Option {
	return func(s *System) {
		s.logger = logger
	}
}

// NewSystem creates an actor system.
func NewSystem(name string, opts ...Option) *System {
	s := &System{
		name:     name,
		logger:   slog.Default(),
		registry: xsync.NewMapOf[string, receiver](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Logger returns the system logger.
func (s *System) Logger() *slog.Logger {
	return s.logger
}

// Spawn starts a root-level actor. The name must be unique among root actors.
func (s *System) Spawn(name string, factory Factory, opts ...SpawnOption) (Ref, error) {
	return s.spawn(nil, name, factory, opts...)
}

// Send delivers msg to ref, fire and forget. Messages to unknown or stopped
// identities go to the dead-letter log.
func (s *System) Send(ref Ref, msg any) {
	s.send(ref, envelope{msg: msg})
}

// Request sends msg to ref and waits up to timeout for a single reply,
// addressed via a one-shot future identity passed as the sender. This is the
// only blocking primitive the runtime offers.
func (s *System) Request(ref Ref, msg any, timeout time.Duration) (any, error) {
	f := &future{
		system: s,
		ref:    Ref{path: fmt.Sprintf("/futures/%d", s.futureID.Add(1))},
		ch:     make(chan any, 1),
	}
	s.registry.Store(f.ref.path, f)
	s.send(ref, envelope{msg: msg, sender: f.ref})

	select {
	case reply := <-f.ch:
		return reply, nil
	case <-time.After(timeout):
		s.registry.Delete(f.ref.path)
		return nil, fmt.Errorf("request to %s: %w", ref, ErrTimeout)
	}
}

// Stop asks ref to stop. The stop is asynchronous and idempotent: the actor
// receives Stopping, its children are stopped first, and Stopped is delivered
// once its mailbox has drained.
func (s *System) Stop(ref Ref) {
	s.send(ref, envelope{msg: stopRequest{}})
}

// AwaitTermination blocks until ref has fully stopped, or until timeout.
func (s *System) AwaitTermination(ref Ref, timeout time.Duration) error {
	r, ok := s.registry.Load(ref.path)
	if !ok {
		return nil
	}
	p, ok := r.(*process)
	if !ok {
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("awaiting termination of %s: %w", ref, ErrTimeout)
	}
}

func (s *System) send(ref Ref, env envelope) {
	if ref.IsZero() {
		s.deadLetter(ref, env.msg)
		return
	}
	r, ok := s.registry.Load(ref.path)
	if !ok {
		s.deadLetter(ref, env.msg)
		return
	}
	if !r.deliver(env) {
		s.deadLetter(ref, env.msg)
	}
}

func (s *System) deadLetter(ref Ref, msg any) {
	s.logger.Debug("dead letter", "system", s.name, "to", ref.String(), "message", fmt.Sprintf("%T", msg))
}

func (s *System) spawn(parent *process, name string, factory Factory, opts ...SpawnOption) (Ref, error) {
	path := "/" + name
	if parent != nil {
		path = parent.ref.path + "/" + name
	}

	p := newProcess(s, Ref{path: path}, parent, factory, opts...)
	if _, loaded := s.registry.LoadOrStore(path, p); loaded {
		return Ref{}, fmt.Errorf("spawn %s: %w", path, ErrNameInUse)
	}
	if parent != nil {
		parent.addChild(name, p)
	}

	go p.run()
	return p.ref, nil
}

// future resolves a single Request. The first reply wins; it unregisters
// itself on resolution so later replies become dead letters.
type future struct {
	system *System
	ref    Ref
	ch     chan any
}

func (f *future) deliver(env envelope) bool {
	f.system.registry.Delete(f.ref.path)
	select {
	case f.ch <- env.msg:
		return true
	default:
		return false
	}
}
