package ledgersaga

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/fortressi/ledgersaga/actor"
	"github.com/fortressi/ledgersaga/journal"
	"github.com/fortressi/ledgersaga/set"
)

// RunnerConfig configures a transfer run.
type RunnerConfig struct {
	// Transfers is the number of concurrent transfers to start.
	Transfers int
	// ReportInterval emits a progress line every that many completions
	// (and every that many starts). Zero disables progress output.
	ReportInterval int
	// Uptime is the accounts' service uptime percentage, e.g. 99.99. It
	// also drives the sagas' own availability draw.
	Uptime float64
	// RefusalProbability is the accounts' chance of refusing an attempt
	// permanently, as a fraction, e.g. 0.01.
	RefusalProbability float64
	// BusyProbability is the accounts' chance of a transient refusal, as
	// a fraction.
	BusyProbability float64
	// RetryAttempts is the restart budget for sagas and their proxies.
	RetryAttempts int
	// Amount is moved by every transfer. Zero means 10.
	Amount decimal.Decimal
	// Journal stores the sagas' event logs. Nil means a fresh in-memory
	// journal.
	Journal journal.Journal
	// Telemetry receives progress and summary text. Nil discards it.
	Telemetry Telemetry
	// Done, when non-nil, receives the summary once every transfer has
	// reported a terminal outcome.
	Done chan<- Summary
	// Seed makes the account fault draws reproducible. Zero means
	// time-based seeding.
	Seed int64
}

// Summary aggregates the terminal outcomes of a run.
type Summary struct {
	Transfers             int
	Success               int
	FailedButConsistent   int
	FailedAndInconsistent int
	Unknown               int
	MeanDuration          time.Duration
	StdDevDuration        time.Duration
}

// Runner spawns the configured number of transfers, each with a fresh pair
// of accounts, and aggregates their terminal outcomes. Every transfer
// reports exactly one of four results; the runner removes it from the
// outstanding set before counting, so redeliveries cannot double-count, and
// the final report is emitted only once the set is drained.
type Runner struct {
	cfg     RunnerConfig
	factory *TransferFactory

	outstanding set.Set[actor.Ref]
	started     map[actor.Ref]time.Time
	durations   []float64
	seedCounter int64

	summary Summary
}

// NewRunner creates a runner. Defaults: amount 10, in-memory journal, no
// telemetry.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Amount.IsZero() {
		cfg.Amount = decimal.NewFromInt(10)
	}
	if cfg.Journal == nil {
		cfg.Journal = journal.NewMemoryJournal()
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = NopTelemetry{}
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Runner{
		cfg: cfg,
		// accounts draw from the first 2n seed offsets, sagas from the
		// next n, so the streams never collide
		factory: NewTransferFactory(cfg.Journal, cfg.Uptime, cfg.RetryAttempts, cfg.Seed+int64(2*cfg.Transfers)),
		started: make(map[actor.Ref]time.Time),
		summary: Summary{Transfers: cfg.Transfers},
	}
}

func (r *Runner) Receive(ctx *actor.Context, msg any) {
	switch m := msg.(type) {
	case actor.Started:
		r.startTransfers(ctx)
	case SuccessResult:
		r.complete(m.From, &r.summary.Success)
	case FailedButConsistentResult:
		r.complete(m.From, &r.summary.FailedButConsistent)
	case FailedAndInconsistentResult:
		r.complete(m.From, &r.summary.FailedAndInconsistent)
	case UnknownResult:
		r.complete(m.From, &r.summary.Unknown)
	case actor.Terminated:
		// shutdown chatter from accounts and finished sagas, not an outcome
	}
}

func (r *Runner) startTransfers(ctx *actor.Context) {
	for i := 1; i <= r.cfg.Transfers; i++ {
		from := r.spawnAccount(ctx, fmt.Sprintf("FromAccount%d", i))
		to := r.spawnAccount(ctx, fmt.Sprintf("ToAccount%d", i))

		name := fmt.Sprintf("transfer-%d", i)
		ref, err := r.factory.CreateTransfer(ctx, name, from, to, r.cfg.Amount)
		if err != nil {
			panic(fmt.Errorf("failed to start %s: %w", name, err))
		}
		r.outstanding.Insert(ref)
		r.started[ref] = time.Now()

		if r.cfg.ReportInterval > 0 && (i%r.cfg.ReportInterval == 0 || i == r.cfg.Transfers) {
			r.cfg.Telemetry.Emit(fmt.Sprintf("started %d/%d transfers", i, r.cfg.Transfers))
		}
	}
}

func (r *Runner) spawnAccount(ctx *actor.Context, name string) actor.Ref {
	r.seedCounter++
	faults := NewProbabilisticFaults(
		r.cfg.Seed+r.seedCounter,
		r.cfg.Uptime, r.cfg.RefusalProbability, r.cfg.BusyProbability,
	)
	ref, err := ctx.Spawn(name, func() actor.Actor { return NewAccount(faults) })
	if err != nil {
		panic(fmt.Errorf("failed to spawn %s: %w", name, err))
	}
	return ref
}

func (r *Runner) complete(from actor.Ref, counter *int) {
	if !r.outstanding.Contains(from) {
		return
	}
	r.outstanding.Remove(from)
	*counter++

	if startedAt, ok := r.started[from]; ok {
		r.durations = append(r.durations, time.Since(startedAt).Seconds())
		delete(r.started, from)
	}

	remaining := r.outstanding.Len()
	if r.cfg.ReportInterval > 0 && remaining > 0 && remaining%r.cfg.ReportInterval == 0 {
		r.cfg.Telemetry.Emit(fmt.Sprintf("%d transfers remaining", remaining))
	}
	if remaining == 0 {
		r.report()
	}
}

func (r *Runner) report() {
	s := &r.summary
	if len(r.durations) > 0 {
		s.MeanDuration = secondsToDuration(stat.Mean(r.durations, nil))
	}
	if len(r.durations) > 1 {
		s.StdDevDuration = secondsToDuration(stat.StdDev(r.durations, nil))
	}

	emit := r.cfg.Telemetry.Emit
	emit("RESULTS:")
	emit(r.resultLine(s.Success, "successful transfers"))
	emit(r.resultLine(s.FailedButConsistent, "failures leaving a consistent system"))
	emit(r.resultLine(s.FailedAndInconsistent, "failures leaving an inconsistent system"))
	emit(r.resultLine(s.Unknown, "unknown results"))
	if len(r.durations) > 0 {
		emit(fmt.Sprintf("latency mean=%s stddev=%s", s.MeanDuration, s.StdDevDuration))
	}

	if r.cfg.Done != nil {
		r.cfg.Done <- *s
	}
}

func (r *Runner) resultLine(count int, label string) string {
	percentage := float64(count) / float64(r.cfg.Transfers) * 100
	return fmt.Sprintf("%.2f%% (%d/%d) %s", percentage, count, r.cfg.Transfers, label)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
