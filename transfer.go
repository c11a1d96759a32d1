package ledgersaga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fortressi/ledgersaga/actor"
	"github.com/fortressi/ledgersaga/journal"
)

// supervisionWindow is the trailing window for restart budgets, for both the
// saga itself and the proxies it spawns.
const supervisionWindow = 10 * time.Second

// defaultBalanceTimeout bounds the post-credit balance queries.
const defaultBalanceTimeout = 2 * time.Second

// errInjectedFault is raised by the saga's own fault draw.
var errInjectedFault = errors.New("transfer saga: injected fault")

// transferState names the saga's current behavior. State is never stored
// durably on its own; it is always reproduced by replaying the event log.
type transferState int

const (
	stateStarting transferState = iota
	stateAwaitingDebit
	stateAwaitingCredit
	stateRollingBack
	stateCompleted
)

func (s transferState) String() string {
	switch s {
	case stateStarting:
		return "starting"
	case stateAwaitingDebit:
		return "awaiting_debit"
	case stateAwaitingCredit:
		return "awaiting_credit"
	case stateRollingBack:
		return "rolling_back"
	case stateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("unknown transferState: %d", int(s))
	}
}

// stateHandler processes one message in one state and reports whether it
// matched.
type stateHandler func(ctx *actor.Context, msg any) bool

// TransferConfig wires a transfer saga.
type TransferConfig struct {
	// PersistenceID keys the saga's event log. It must be stable across
	// restarts of the same saga identity.
	PersistenceID string
	From          actor.Ref
	To            actor.Ref
	Amount        decimal.Decimal
	Journal       journal.Journal
	// Faults draws the saga's own fault on unmatched messages. Nil never
	// faults.
	Faults FailDecider
	// RetryAttempts is the restart budget handed to each spawned proxy.
	RetryAttempts int
	// BalanceTimeout bounds the post-credit balance queries. Zero means
	// the default of two seconds.
	BalanceTimeout time.Duration
}

// TransferSaga orchestrates one money transfer: debit the source, credit the
// destination, and on credit refusal compensate the debit. Every transition
// persists its event before performing the externally visible action, and
// the pure apply routine is shared between live processing and replay so a
// restart reconstructs the exact state without re-issuing completed side
// effects.
type TransferSaga struct {
	cfg      TransferConfig
	handlers map[transferState]stateHandler

	state      transferState
	attempt    actor.Ref
	completed  bool
	restarting bool
	stopping   bool
}

// NewTransferSaga creates the saga in its starting state. Its event log, if
// one exists for the persistence ID, is replayed during Init before any live
// message arrives.
func NewTransferSaga(cfg TransferConfig) *TransferSaga {
	if cfg.BalanceTimeout == 0 {
		cfg.BalanceTimeout = defaultBalanceTimeout
	}
	if cfg.Faults == nil {
		cfg.Faults = NoFaults()
	}
	t := &TransferSaga{cfg: cfg, state: stateStarting}
	t.handlers = map[transferState]stateHandler{
		stateStarting:       t.starting,
		stateAwaitingDebit:  t.awaitingDebit,
		stateAwaitingCredit: t.awaitingCredit,
		stateRollingBack:    t.rollingBack,
		stateCompleted:      t.terminal,
	}
	return t
}

// Init replays the persisted log through the pure apply routine. Replay
// advances state unconditionally; the live handlers only ever see the
// post-replay state, and their Started transitions re-create whatever child
// the state is waiting on.
func (t *TransferSaga) Init(ctx *actor.Context) error {
	entries, err := t.cfg.Journal.Load(context.Background(), t.cfg.PersistenceID)
	if err != nil {
		return fmt.Errorf("failed to load journal %s: %w", t.cfg.PersistenceID, err)
	}

	for _, entry := range entries {
		event, err := DecodeEvent(entry)
		if err != nil {
			return fmt.Errorf("failed to replay journal %s: %w", t.cfg.PersistenceID, err)
		}
		t.apply(event)
	}
	return nil
}

func (t *TransferSaga) Receive(ctx *actor.Context, msg any) {
	switch msg.(type) {
	case actor.Stopping:
		t.stopping = true
		return
	case actor.Restarting:
		t.restarting = true
		return
	case actor.Stopped:
		t.handleStopped(ctx)
		return
	}

	if t.handlers[t.state](ctx, msg) {
		return
	}
	if t.cfg.Faults.Fail() {
		panic(errInjectedFault)
	}
}

// apply is the pure state transition shared by live persistence and replay.
// It must not spawn, send, or otherwise act on the outside world; the live
// handlers own all side effects so replay never repeats them.
func (t *TransferSaga) apply(event Event) {
	switch event.(type) {
	case TransferStarted:
		t.state = stateAwaitingDebit
	case AccountDebited:
		t.state = stateAwaitingCredit
	case CreditRefused:
		t.state = stateRollingBack
	case AccountCredited, DebitRolledBack, TransferFailed:
		t.state = stateCompleted
		t.completed = true
	}
}

func (t *TransferSaga) starting(ctx *actor.Context, msg any) bool {
	if _, ok := msg.(actor.Started); !ok {
		return false
	}
	t.persist(TransferStarted{})
	t.spawnDebitProxy(ctx)
	return true
}

func (t *TransferSaga) awaitingDebit(ctx *actor.Context, msg any) bool {
	switch msg.(type) {
	case actor.Started:
		// restart re-entry: the attempt actor is gone, re-create it
		t.spawnDebitProxy(ctx)
	case Ok, Refused, actor.Terminated:
		if !t.fromAttempt(ctx, msg) {
			return true
		}
	default:
		return false
	}

	switch msg.(type) {
	case Ok:
		t.persist(AccountDebited{})
		t.spawnCreditProxy(ctx)
	case Refused:
		t.persist(TransferFailed{Reason: "debit refused"})
		ctx.Send(ctx.Parent(), FailedButConsistentResult{From: ctx.Self()})
		t.stopAll(ctx)
	case actor.Terminated:
		t.persist(StatusUnknown{})
		ctx.Send(ctx.Parent(), UnknownResult{From: ctx.Self()})
		t.stopAll(ctx)
	}
	return true
}

func (t *TransferSaga) awaitingCredit(ctx *actor.Context, msg any) bool {
	switch msg.(type) {
	case actor.Started:
		t.spawnCreditProxy(ctx)
	case Ok, Refused, actor.Terminated:
		if !t.fromAttempt(ctx, msg) {
			return true
		}
	default:
		return false
	}

	switch msg.(type) {
	case Ok:
		fromBalance := t.queryBalance(ctx, t.cfg.From)
		toBalance := t.queryBalance(ctx, t.cfg.To)
		t.persist(AccountCredited{})
		t.persist(TransferCompleted{FromBalance: fromBalance, ToBalance: toBalance})
		ctx.Send(ctx.Parent(), SuccessResult{From: ctx.Self()})
		t.stopAll(ctx)
	case Refused:
		t.persist(CreditRefused{})
		t.spawnRollbackProxy(ctx)
	case actor.Terminated:
		t.persist(StatusUnknown{})
		ctx.Send(ctx.Parent(), UnknownResult{From: ctx.Self()})
		t.stopAll(ctx)
	}
	return true
}

func (t *TransferSaga) rollingBack(ctx *actor.Context, msg any) bool {
	switch msg.(type) {
	case actor.Started:
		t.spawnRollbackProxy(ctx)
	case Ok, Refused, actor.Terminated:
		if !t.fromAttempt(ctx, msg) {
			return true
		}
	default:
		return false
	}

	switch msg.(type) {
	case Ok:
		t.persist(DebitRolledBack{})
		t.persist(TransferFailed{Reason: "transfer rolled back"})
		ctx.Send(ctx.Parent(), FailedButConsistentResult{From: ctx.Self()})
		t.stopAll(ctx)
	case Refused, actor.Terminated:
		reason := fmt.Sprintf("rollback failed, %s is owed %s", t.cfg.To, t.cfg.Amount)
		t.persist(TransferFailed{Reason: reason})
		t.persist(EscalateTransfer{Reason: reason})
		ctx.Send(ctx.Parent(), FailedAndInconsistentResult{From: ctx.Self()})
		t.stopAll(ctx)
	}
	return true
}

// terminal swallows whatever stale chatter arrives after completion.
func (t *TransferSaga) terminal(*actor.Context, any) bool {
	return true
}

// handleStopped distinguishes a requested shutdown from an unexpected death:
// a Stopped without a terminal outcome and without the stopping/restarting
// flags means the saga was crashed out from under its transfer.
func (t *TransferSaga) handleStopped(ctx *actor.Context) {
	if t.completed || t.restarting || t.stopping {
		return
	}
	t.persist(TransferFailed{Reason: "transfer stopped unexpectedly"})
	t.persist(EscalateTransfer{Reason: fmt.Sprintf("unknown failure, %s may be owed %s", t.cfg.To, t.cfg.Amount)})
	ctx.Send(ctx.Parent(), UnknownResult{From: ctx.Self()})
}

// persist appends the event durably, then applies it. In-memory state and
// log never diverge: a failed append faults the saga before any state
// change.
func (t *TransferSaga) persist(event Event) {
	entry, err := EncodeEvent(event)
	if err != nil {
		panic(fmt.Errorf("failed to encode %T: %w", event, err))
	}
	if err := t.cfg.Journal.Append(context.Background(), t.cfg.PersistenceID, entry); err != nil {
		panic(fmt.Errorf("failed to persist %T: %w", event, err))
	}
	t.apply(event)
}

func (t *TransferSaga) queryBalance(ctx *actor.Context, account actor.Ref) decimal.Decimal {
	reply, err := ctx.Request(account, GetBalance{}, t.cfg.BalanceTimeout)
	if err != nil {
		panic(fmt.Errorf("balance query for %s: %w", account, err))
	}
	balance, ok := reply.(decimal.Decimal)
	if !ok {
		panic(fmt.Errorf("balance query for %s: unexpected reply %T", account, reply))
	}
	return balance
}

func (t *TransferSaga) stopAll(ctx *actor.Context) {
	ctx.Stop(t.cfg.From)
	ctx.Stop(t.cfg.To)
	ctx.Stop(ctx.Self())
}

func (t *TransferSaga) spawnDebitProxy(ctx *actor.Context) {
	t.spawnProxy(ctx, "DebitAttempt", t.cfg.From, func(replyTo actor.Ref) any {
		return Debit{ChangeBalance{Amount: t.cfg.Amount.Neg(), ReplyTo: replyTo}}
	})
}

func (t *TransferSaga) spawnCreditProxy(ctx *actor.Context) {
	t.spawnProxy(ctx, "CreditAttempt", t.cfg.To, func(replyTo actor.Ref) any {
		return Credit{ChangeBalance{Amount: t.cfg.Amount, ReplyTo: replyTo}}
	})
}

// spawnRollbackProxy credits the debited amount back to the source account.
func (t *TransferSaga) spawnRollbackProxy(ctx *actor.Context) {
	t.spawnProxy(ctx, "RollbackDebit", t.cfg.From, func(replyTo actor.Ref) any {
		return Credit{ChangeBalance{Amount: t.cfg.Amount, ReplyTo: replyTo}}
	})
}

func (t *TransferSaga) spawnProxy(ctx *actor.Context, name string, target actor.Ref, makeCommand func(actor.Ref) any) {
	factory := func() actor.Actor {
		return NewAccountProxy(target, makeCommand)
	}
	strategy := actor.NewOneForOneStrategy(t.cfg.RetryAttempts, supervisionWindow)
	ref, err := ctx.Spawn(name, factory, actor.WithSupervisor(strategy))
	if err != nil {
		panic(fmt.Errorf("failed to spawn %s: %w", name, err))
	}
	t.attempt = ref
}

// fromAttempt reports whether a reply or termination signal belongs to the
// attempt the saga is currently waiting on. A restarted proxy can forward a
// reply twice, and the duplicate arrives after the saga has moved on; it must
// not drive a transition in the next state.
func (t *TransferSaga) fromAttempt(ctx *actor.Context, msg any) bool {
	if m, ok := msg.(actor.Terminated); ok {
		return m.Ref == t.attempt
	}
	return ctx.Sender() == t.attempt
}
