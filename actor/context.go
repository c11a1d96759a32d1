package actor

import (
	"log/slog"
	"time"
)

// Context is the actor's view of its own process. It is only valid inside
// Receive and Init; the runtime reuses it between invocations.
type Context struct {
	p      *process
	sender Ref
}

// Self returns the identity of the actor being invoked.
func (c *Context) Self() Ref {
	return c.p.ref
}

// Parent returns the identity of the spawning actor, or the zero Ref for
// root actors.
func (c *Context) Parent() Ref {
	if c.p.parent == nil {
		return Ref{}
	}
	return c.p.parent.ref
}

// Sender returns the identity the current message was sent from, or the zero
// Ref for lifecycle messages and anonymous sends.
func (c *Context) Sender() Ref {
	return c.sender
}

// System returns the hosting system.
func (c *Context) System() *System {
	return c.p.system
}

// Logger returns the system logger.
func (c *Context) Logger() *slog.Logger {
	return c.p.system.logger
}

// Spawn starts a child actor. The name must be unique among this actor's
// children; the child's full identity is derived from the parent's. The
// parent is automatically watched onto the child and will receive a
// Terminated signal if the child stops terminally on its own.
func (c *Context) Spawn(name string, factory Factory, opts ...SpawnOption) (Ref, error) {
	return c.p.system.spawn(c.p, name, factory, opts...)
}

// Send delivers msg to ref with this actor as the sender, fire and forget.
func (c *Context) Send(ref Ref, msg any) {
	c.p.system.send(ref, envelope{msg: msg, sender: c.p.ref})
}

// Respond sends msg back to the sender of the current message.
func (c *Context) Respond(msg any) {
	c.p.system.send(c.sender, envelope{msg: msg, sender: c.p.ref})
}

// Request sends msg to ref and blocks the actor until the reply arrives or
// the timeout elapses. This is the actor's only suspension point; use it for
// bounded waits only.
func (c *Context) Request(ref Ref, msg any, timeout time.Duration) (any, error) {
	return c.p.system.Request(ref, msg, timeout)
}

// Stop requests an asynchronous stop of ref. Stopping an already-stopping
// identity is a no-op.
func (c *Context) Stop(ref Ref) {
	c.p.system.Stop(ref)
}

// ArmReceiveTimeout injects a ReceiveTimeout message if no message arrives
// within d of the previous one. Arming replaces any earlier timeout.
func (c *Context) ArmReceiveTimeout(d time.Duration) {
	c.p.receiveTimeout = d
}

// CancelReceiveTimeout disarms the receive timeout.
func (c *Context) CancelReceiveTimeout() {
	c.p.receiveTimeout = 0
}
