package ledgersaga

import (
	"github.com/shopspring/decimal"

	"github.com/fortressi/ledgersaga/actor"
)

// startingBalance is every account's opening balance.
var startingBalance = decimal.NewFromInt(10)

// Account is a fault-prone ledger actor. Responses to balance-changing
// commands are cached per ReplyTo identity, so redelivery of an attempt is
// idempotent: the cached response is resent unchanged and the balance
// mutates at most once per attempt.
type Account struct {
	balance   decimal.Decimal
	processed map[string]any
	faults    FaultDecider
}

// NewAccount creates an account with the starting balance and the given
// fault source.
func NewAccount(faults FaultDecider) *Account {
	return &Account{
		balance:   startingBalance,
		processed: make(map[string]any),
		faults:    faults,
	}
}

func (a *Account) Receive(ctx *actor.Context, msg any) {
	switch m := msg.(type) {
	case Debit:
		a.changeBalance(ctx, m.ChangeBalance)
	case Credit:
		a.changeBalance(ctx, m.ChangeBalance)
	case GetBalance:
		ctx.Respond(a.balance)
	}
}

// changeBalance applies the fault-injection ladder in order: cached replay,
// funds check, permanent refusal, transient busy, pre-mutation failure,
// mutation, post-mutation failure. Only the post-mutation path can report a
// failure after the balance has changed.
func (a *Account) changeBalance(ctx *actor.Context, cmd ChangeBalance) {
	key := cmd.ReplyTo.String()
	if cached, ok := a.processed[key]; ok {
		ctx.Send(cmd.ReplyTo, cached)
		return
	}

	if a.balance.Add(cmd.Amount).IsNegative() {
		ctx.Send(cmd.ReplyTo, InsufficientFunds{})
		return
	}

	if a.faults.RefusePermanently() {
		a.processed[key] = Refused{}
		ctx.Send(cmd.ReplyTo, Refused{})
		return
	}

	if a.faults.IsBusy() {
		ctx.Send(cmd.ReplyTo, ServiceUnavailable{})
		return
	}

	if a.faults.FailBeforeProcessing() {
		ctx.Send(cmd.ReplyTo, InternalServerError{})
		return
	}

	a.balance = a.balance.Add(cmd.Amount)
	a.processed[key] = Ok{}

	// The mutation above already happened; this failure leaves the caller
	// unsure whether it did.
	if a.faults.FailAfterProcessing() {
		ctx.Send(cmd.ReplyTo, InternalServerError{})
		return
	}
	ctx.Send(cmd.ReplyTo, Ok{})
}
