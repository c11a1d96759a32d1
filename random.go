package ledgersaga

import (
	"math/rand"
	"sync"
)

// FaultDecider decides each of an account's fault-injection draws. The
// default is a seedable PRNG; tests substitute a scripted sequence to force
// any branch deterministically.
type FaultDecider interface {
	// RefusePermanently decides whether to refuse this attempt for good.
	RefusePermanently() bool
	// IsBusy decides whether to report a transient overload.
	IsBusy() bool
	// FailBeforeProcessing decides whether to fail before any mutation.
	FailBeforeProcessing() bool
	// FailAfterProcessing decides whether to fail after the mutation has
	// already been applied.
	FailAfterProcessing() bool
}

// FailDecider decides a saga's own fault draw on unmatched messages.
type FailDecider interface {
	Fail() bool
}

// ProbabilisticFaults draws faults from a seeded PRNG. Uptime is a
// percentage (e.g. 99.99); refusal and busy probabilities are fractions
// (e.g. 0.01). The pre-mutation failure draw compares against half the
// uptime, the post-mutation draw against the full uptime.
type ProbabilisticFaults struct {
	mu                 sync.Mutex
	rng                *rand.Rand
	uptime             float64
	refusalProbability float64
	busyProbability    float64
}

// NewProbabilisticFaults creates a seeded fault source.
func NewProbabilisticFaults(seed int64, uptime, refusalProbability, busyProbability float64) *ProbabilisticFaults {
	return &ProbabilisticFaults{
		rng:                rand.New(rand.NewSource(seed)),
		uptime:             uptime,
		refusalProbability: refusalProbability,
		busyProbability:    busyProbability,
	}
}

func (p *ProbabilisticFaults) draw() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

func (p *ProbabilisticFaults) RefusePermanently() bool {
	return p.draw() <= p.refusalProbability
}

func (p *ProbabilisticFaults) IsBusy() bool {
	return p.draw() <= p.busyProbability
}

func (p *ProbabilisticFaults) FailBeforeProcessing() bool {
	return p.draw()*100 > p.uptime/2
}

func (p *ProbabilisticFaults) FailAfterProcessing() bool {
	return p.draw()*100 > p.uptime
}

// Fail draws the saga-level fault with probability 1 - uptime.
func (p *ProbabilisticFaults) Fail() bool {
	return p.draw()*100 > p.uptime
}

// ScriptedFaults replays fixed answer sequences; draws beyond a sequence's
// end answer false. The zero value never injects a fault.
type ScriptedFaults struct {
	Refusals     []bool
	Busy         []bool
	PreFailures  []bool
	PostFailures []bool
	Failures     []bool
}

func pop(seq *[]bool) bool {
	if len(*seq) == 0 {
		return false
	}
	head := (*seq)[0]
	*seq = (*seq)[1:]
	return head
}

func (s *ScriptedFaults) RefusePermanently() bool    { return pop(&s.Refusals) }
func (s *ScriptedFaults) IsBusy() bool               { return pop(&s.Busy) }
func (s *ScriptedFaults) FailBeforeProcessing() bool { return pop(&s.PreFailures) }
func (s *ScriptedFaults) FailAfterProcessing() bool  { return pop(&s.PostFailures) }
func (s *ScriptedFaults) Fail() bool                 { return pop(&s.Failures) }

// NoFaults returns a decider that never injects anything.
func NoFaults() *ScriptedFaults {
	return &ScriptedFaults{}
}
