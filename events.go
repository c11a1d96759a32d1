package ledgersaga

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fortressi/ledgersaga/journal"
)

// Event is the closed union of facts a transfer saga persists. The saga's
// state is always derivable by replaying its events in append order.
type Event interface {
	eventType() string
}

// TransferStarted records that the debit leg was initiated.
type TransferStarted struct{}

// AccountDebited records a confirmed debit on the source account.
type AccountDebited struct{}

// CreditRefused records that the destination refused the credit leg.
type CreditRefused struct{}

// AccountCredited records a confirmed credit on the destination account.
type AccountCredited struct{}

// DebitRolledBack records that the compensating credit restored the source
// account.
type DebitRolledBack struct{}

// TransferCompleted records the closing balances observed after a successful
// transfer.
type TransferCompleted struct {
	FromBalance decimal.Decimal `json:"from_balance"`
	ToBalance   decimal.Decimal `json:"to_balance"`
}

// TransferFailed records a terminal failure with its reason.
type TransferFailed struct {
	Reason string `json:"reason"`
}

// EscalateTransfer flags a transfer for manual reconciliation, distinct from
// ordinary failure so it can be prioritized.
type EscalateTransfer struct {
	Reason string `json:"reason"`
}

// StatusUnknown records that a leg's outcome could not be determined.
type StatusUnknown struct{}

const (
	eventTypeTransferStarted   = "transfer_started"
	eventTypeAccountDebited    = "account_debited"
	eventTypeCreditRefused     = "credit_refused"
	eventTypeAccountCredited   = "account_credited"
	eventTypeDebitRolledBack   = "debit_rolled_back"
	eventTypeTransferCompleted = "transfer_completed"
	eventTypeTransferFailed    = "transfer_failed"
	eventTypeEscalateTransfer  = "escalate_transfer"
	eventTypeStatusUnknown     = "status_unknown"
)

func (TransferStarted) eventType() string   { return eventTypeTransferStarted }
func (AccountDebited) eventType() string    { return eventTypeAccountDebited }
func (CreditRefused) eventType() string     { return eventTypeCreditRefused }
func (AccountCredited) eventType() string   { return eventTypeAccountCredited }
func (DebitRolledBack) eventType() string   { return eventTypeDebitRolledBack }
func (TransferCompleted) eventType() string { return eventTypeTransferCompleted }
func (TransferFailed) eventType() string    { return eventTypeTransferFailed }
func (EscalateTransfer) eventType() string  { return eventTypeEscalateTransfer }
func (StatusUnknown) eventType() string     { return eventTypeStatusUnknown }

// EncodeEvent wraps an event in its journal envelope.
func EncodeEvent(event Event) (journal.Entry, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("failed to marshal %T: %w", event, err)
	}
	return journal.Entry{Type: event.eventType(), Data: data}, nil
}

// DecodeEvent restores an event from its journal envelope.
func DecodeEvent(entry journal.Entry) (Event, error) {
	switch entry.Type {
	case eventTypeTransferStarted:
		return TransferStarted{}, nil
	case eventTypeAccountDebited:
		return AccountDebited{}, nil
	case eventTypeCreditRefused:
		return CreditRefused{}, nil
	case eventTypeAccountCredited:
		return AccountCredited{}, nil
	case eventTypeDebitRolledBack:
		return DebitRolledBack{}, nil
	case eventTypeTransferCompleted:
		var event TransferCompleted
		if err := json.Unmarshal(entry.Data, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", entry.Type, err)
		}
		return event, nil
	case eventTypeTransferFailed:
		var event TransferFailed
		if err := json.Unmarshal(entry.Data, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", entry.Type, err)
		}
		return event, nil
	case eventTypeEscalateTransfer:
		var event EscalateTransfer
		if err := json.Unmarshal(entry.Data, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", entry.Type, err)
		}
		return event, nil
	case eventTypeStatusUnknown:
		return StatusUnknown{}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", entry.Type)
	}
}
