// Package actor provides a minimal actor runtime: one mailbox per identity,
// exactly one goroutine draining it, fire-and-forget sends, bounded-wait
// requests, receive timeouts, and one-for-one supervision with restart.
//
// Two ordering rules hold:
//
//  1. The send of a message happens before its receive by the target actor.
//  2. Messages from one sender to one receiver are processed in send order.
//
// There is no cross-sender ordering guarantee.
package actor

// Actor is implemented by every unit of state hosted by the runtime. Receive
// is the actor's single entry point; the runtime never invokes it
// concurrently for the same identity, so implementations need no locking.
//
// Receive is also handed lifecycle messages (Started, Stopping, Stopped,
// Restarting, ReceiveTimeout) and watcher signals (Terminated).
type Actor interface {
	Receive(ctx *Context, msg any)
}

// Factory produces a fresh actor instance. The runtime calls it at spawn and
// again on every restart, so the returned instance must start from the
// actor's configured initial state.
type Factory func() Actor

// Initializer is an optional interface. When implemented, Init runs after
// every instantiation (first spawn and each restart) and before any live
// message is processed. Event-sourced actors replay their persisted log here;
// a non-nil error counts as a failure against the supervision budget.
type Initializer interface {
	Init(ctx *Context) error
}

// Started is delivered once the actor is initialized and live.
type Started struct{}

// Stopping is delivered when a stop has been requested, before children are
// stopped.
type Stopping struct{}

// Stopped is delivered after children are stopped and the mailbox has been
// drained; it is the last message the actor sees.
type Stopped struct{}

// Restarting is delivered to the failed instance just before it is replaced.
type Restarting struct{}

// ReceiveTimeout is injected when no message has arrived within the duration
// armed via Context.ArmReceiveTimeout.
type ReceiveTimeout struct{}

// Terminated notifies a watcher that the named identity stopped terminally.
// Deliberate stops and restarts initiated by the watcher itself do not
// produce a Terminated signal.
type Terminated struct {
	Ref Ref
}
