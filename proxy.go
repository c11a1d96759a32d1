package ledgersaga

import (
	"errors"
	"fmt"
	"time"

	"github.com/fortressi/ledgersaga/actor"
)

// proxyReceiveTimeout bounds the wait for the account's reply.
const proxyReceiveTimeout = 100 * time.Millisecond

// ErrUnexpectedReply is the fault an AccountProxy raises on any reply its
// parent does not model.
var ErrUnexpectedReply = errors.New("account proxy: unexpected reply")

// AccountProxy is a one-shot request/response translator. On start it sends
// one command (built with its own identity as the reply address) to its
// target account and arms a receive timeout. Ok and Refused are forwarded to
// the parent unchanged; anything else, including the timeout, is a protocol
// violation and faults the proxy so its supervisor can retry the attempt
// without involving the parent.
type AccountProxy struct {
	target      actor.Ref
	makeCommand func(replyTo actor.Ref) any
}

// NewAccountProxy creates a proxy for one command attempt against target.
func NewAccountProxy(target actor.Ref, makeCommand func(replyTo actor.Ref) any) *AccountProxy {
	return &AccountProxy{target: target, makeCommand: makeCommand}
}

func (p *AccountProxy) Receive(ctx *actor.Context, msg any) {
	switch msg.(type) {
	case actor.Started:
		ctx.Send(p.target, p.makeCommand(ctx.Self()))
		ctx.ArmReceiveTimeout(proxyReceiveTimeout)
	case Ok, Refused:
		ctx.CancelReceiveTimeout()
		ctx.Send(ctx.Parent(), msg)
	case actor.Stopping, actor.Stopped, actor.Restarting:
		// lifecycle, nothing to clean up
	default:
		panic(fmt.Errorf("%w: %T from %s", ErrUnexpectedReply, msg, p.target))
	}
}
