package actor

import (
	"fmt"
	"sync"
	"time"
)

// stopRequest travels through the mailbox so messages sent before the stop
// are still processed. quiet marks stops initiated by the parent itself
// (stop/restart recursion); those never produce watcher notifications.
type stopRequest struct {
	quiet bool
}

const defaultMailboxSize = 1024

// SpawnOption configures a spawned actor.
type SpawnOption func(*process)

// WithSupervisor sets the restart strategy applied when the actor faults.
func WithSupervisor(strategy *OneForOneStrategy) SpawnOption {
	return func(p *process) {
		p.strategy = strategy
	}
}

// WithMailboxSize sets the mailbox capacity.
func WithMailboxSize(size int) SpawnOption {
	return func(p *process) {
		p.mailbox = make(chan envelope, size)
	}
}

// process owns one identity: its mailbox, its actor instance, its children
// and its supervision state. All fields except children are touched only by
// the process goroutine.
type process struct {
	system  *System
	ref     Ref
	name    string
	parent  *process
	factory Factory
	actor   Actor

	mailbox  chan envelope
	done     chan struct{}
	ctx      *Context
	strategy *OneForOneStrategy
	watchers []Ref

	childMu  sync.Mutex
	children map[string]*process

	receiveTimeout time.Duration
	terminated     bool
	failures       int
	firstFailure   time.Time
}

func newProcess(s *System, ref Ref, parent *process, factory Factory, opts ...SpawnOption) *process {
	p := &process{
		system:   s,
		ref:      ref,
		parent:   parent,
		factory:  factory,
		actor:    factory(),
		mailbox:  make(chan envelope, defaultMailboxSize),
		done:     make(chan struct{}),
		children: make(map[string]*process),
		strategy: NewOneForOneStrategy(3, 10*time.Second),
	}
	if parent != nil {
		p.name = ref.path[len(parent.ref.path)+1:]
		p.watchers = []Ref{parent.ref}
	} else {
		p.name = ref.path[1:]
	}
	p.ctx = &Context{p: p}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *process) deliver(env envelope) bool {
	// checked first so a send after termination is refused even when the
	// mailbox still has room
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.mailbox <- env:
		return true
	case <-p.done:
		return false
	}
}

func (p *process) run() {
	p.start()
	for !p.terminated {
		var timeoutCh <-chan time.Time
		var timer *time.Timer
		if p.receiveTimeout > 0 {
			timer = time.NewTimer(p.receiveTimeout)
			timeoutCh = timer.C
		}
		select {
		case env := <-p.mailbox:
			if timer != nil {
				timer.Stop()
			}
			if req, ok := env.msg.(stopRequest); ok {
				p.terminate(true, !req.quiet)
				continue
			}
			p.invoke(env)
		case <-timeoutCh:
			p.invoke(envelope{msg: ReceiveTimeout{}})
		}
	}
}

// start runs the two-phase startup: Init (replay for event-sourced actors),
// then the live Started message.
func (p *process) start() {
	if err := p.initialize(); err != nil {
		p.handleFailure(err)
		return
	}
	p.invoke(envelope{msg: Started{}})
}

func (p *process) initialize() (err error) {
	init, ok := p.actor.(Initializer)
	if !ok {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("init of %s panicked: %v", p.ref, r)
		}
	}()
	return init.Init(p.ctx)
}

func (p *process) invoke(env envelope) {
	defer func() {
		if r := recover(); r != nil {
			p.handleFailure(r)
		}
	}()
	p.ctx.sender = env.sender
	p.actor.Receive(p.ctx, env.msg)
}

// invokeQuiet delivers lifecycle messages during stop and restart sequences.
// Faults here are logged, not supervised, to keep those sequences terminating.
func (p *process) invokeQuiet(msg any) {
	defer func() {
		if r := recover(); r != nil {
			p.system.logger.Warn("fault during lifecycle message",
				"ref", p.ref.String(), "message", fmt.Sprintf("%T", msg), "reason", r)
		}
	}()
	p.ctx.sender = Ref{}
	p.actor.Receive(p.ctx, msg)
}

func (p *process) handleFailure(reason any) {
	if p.terminated {
		return
	}
	switch p.strategy.directive(reason) {
	case DirectiveResume:
		p.system.logger.Warn("actor resumed after fault", "ref", p.ref.String(), "reason", reason)
	case DirectiveRestart:
		if p.allowRestart() {
			p.restart(reason)
			return
		}
		p.system.logger.Warn("restart budget exhausted, stopping actor",
			"ref", p.ref.String(), "failures", p.failures, "reason", reason)
		p.terminate(false, true)
	case DirectiveStop:
		p.system.logger.Warn("stopping actor after fault", "ref", p.ref.String(), "reason", reason)
		p.terminate(false, true)
	}
}

// allowRestart counts a failure against the trailing-window budget.
func (p *process) allowRestart() bool {
	now := time.Now()
	if p.failures == 0 || now.Sub(p.firstFailure) > p.strategy.Window {
		p.failures = 0
		p.firstFailure = now
	}
	p.failures++
	return p.failures <= p.strategy.MaxRestarts
}

// restart reinitializes the identity: the failed instance sees Restarting,
// children are stopped quietly, a fresh instance is built from the factory
// and goes through the same two-phase startup as a first spawn. Watchers are
// not told; restarts are invisible to the outside.
func (p *process) restart(reason any) {
	p.system.logger.Info("restarting actor", "ref", p.ref.String(), "reason", reason)
	p.invokeQuiet(Restarting{})
	p.stopChildren()
	p.receiveTimeout = 0
	p.actor = p.factory()
	p.start()
}

// terminate stops the identity for good. deliberate stops deliver Stopping
// first; crash stops (supervision gave up) skip it so the actor can tell a
// requested shutdown from an unexpected death when Stopped arrives.
func (p *process) terminate(deliberate, notify bool) {
	if p.terminated {
		return
	}
	p.terminated = true
	if deliberate {
		p.invokeQuiet(Stopping{})
	}
	p.stopChildren()
	p.drainMailbox()
	p.invokeQuiet(Stopped{})

	p.system.registry.Delete(p.ref.path)
	if p.parent != nil {
		p.parent.removeChild(p.name)
	}
	close(p.done)
	// a send racing the close can slip into the mailbox after the first
	// drain; route it to the dead-letter log instead of abandoning it
	p.drainMailbox()

	if notify {
		for _, w := range p.watchers {
			p.system.send(w, envelope{msg: Terminated{Ref: p.ref}, sender: p.ref})
		}
	}
}

func (p *process) stopChildren() {
	children := p.childList()
	for _, c := range children {
		c.deliver(envelope{msg: stopRequest{quiet: true}})
	}
	for _, c := range children {
		<-c.done
	}
}

func (p *process) drainMailbox() {
	for {
		select {
		case env := <-p.mailbox:
			if _, ok := env.msg.(stopRequest); ok {
				continue
			}
			p.system.deadLetter(p.ref, env.msg)
		default:
			return
		}
	}
}

func (p *process) addChild(name string, c *process) {
	p.childMu.Lock()
	defer p.childMu.Unlock()
	p.children[name] = c
}

func (p *process) removeChild(name string) {
	p.childMu.Lock()
	defer p.childMu.Unlock()
	delete(p.children, name)
}

func (p *process) childList() []*process {
	p.childMu.Lock()
	defer p.childMu.Unlock()
	children := make([]*process, 0, len(p.children))
	for _, c := range p.children {
		children = append(children, c)
	}
	return children
}
