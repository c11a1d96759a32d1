package ledgersaga

import (
	"github.com/shopspring/decimal"

	"github.com/fortressi/ledgersaga/actor"
)

// ChangeBalance is the shape shared by both balance-changing commands: a
// signed amount (debits negative, credits positive) and the identity the
// account should reply to. ReplyTo doubles as the idempotency key for the
// account's response cache.
type ChangeBalance struct {
	Amount  decimal.Decimal
	ReplyTo actor.Ref
}

// Debit asks an account to subtract funds; Amount is negative.
type Debit struct {
	ChangeBalance
}

// Credit asks an account to add funds; Amount is positive.
type Credit struct {
	ChangeBalance
}

// GetBalance asks an account for its current balance. Replies with a
// decimal.Decimal, no fault injection, no caching.
type GetBalance struct{}

// Ok reports a completed balance change.
type Ok struct{}

// Refused reports a permanent refusal; retrying the same attempt will be
// refused again.
type Refused struct{}

// InsufficientFunds reports a rejected debit that would overdraw the account.
type InsufficientFunds struct{}

// ServiceUnavailable reports a transient refusal; a fresh attempt may
// succeed.
type ServiceUnavailable struct{}

// InternalServerError reports a failure that may or may not have applied the
// balance change.
type InternalServerError struct{}

// SuccessResult is a transfer's terminal report: both legs applied.
type SuccessResult struct {
	From actor.Ref
}

// FailedButConsistentResult is a transfer's terminal report: the transfer
// failed but both ledgers are consistent (nothing applied, or the debit was
// compensated).
type FailedButConsistentResult struct {
	From actor.Ref
}

// FailedAndInconsistentResult is a transfer's terminal report: the debit
// stuck and compensation failed; the books need operator attention.
type FailedAndInconsistentResult struct {
	From actor.Ref
}

// UnknownResult is a transfer's terminal report: the outcome could not be
// determined.
type UnknownResult struct {
	From actor.Ref
}
