package ledgersaga

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fortressi/ledgersaga/actor"
	"github.com/fortressi/ledgersaga/journal"
)

// TransferFactory spawns transfer sagas with their supervision and
// persistence wiring. Each saga gets a fresh persistence ID that stays with
// the identity across restarts, because the spawn factory closes over it.
type TransferFactory struct {
	journal       journal.Journal
	availability  float64
	retryAttempts int
	seed          int64
	created       int64
}

// NewTransferFactory creates a factory. availability is a percentage (e.g.
// 99.99) driving each saga's own fault draw; retryAttempts is the restart
// budget for the saga and its proxies. The i-th created saga draws from
// seed+i, so a whole run is reproducible from one seed.
func NewTransferFactory(j journal.Journal, availability float64, retryAttempts int, seed int64) *TransferFactory {
	return &TransferFactory{
		journal:       j,
		availability:  availability,
		retryAttempts: retryAttempts,
		seed:          seed,
	}
}

// CreateTransfer spawns a saga moving amount between the two accounts. The
// caller becomes the saga's parent and receives its terminal result message.
func (f *TransferFactory) CreateTransfer(ctx *actor.Context, name string, from, to actor.Ref, amount decimal.Decimal) (actor.Ref, error) {
	persistenceID := uuid.NewString()
	f.created++
	// shared across restarts of the identity so the draw stream continues
	// instead of replaying
	faults := NewProbabilisticFaults(f.seed+f.created, f.availability, 0, 0)
	factory := func() actor.Actor {
		return NewTransferSaga(TransferConfig{
			PersistenceID: persistenceID,
			From:          from,
			To:            to,
			Amount:        amount,
			Journal:       f.journal,
			Faults:        faults,
			RetryAttempts: f.retryAttempts,
		})
	}
	strategy := actor.NewOneForOneStrategy(f.retryAttempts, supervisionWindow)
	return ctx.Spawn(name, factory, actor.WithSupervisor(strategy))
}
