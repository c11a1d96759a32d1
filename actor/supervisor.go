package actor

import "time"

// Directive is a supervisor's classification of a fault.
type Directive int

const (
	// DirectiveRestart replaces the failed instance with a fresh one from
	// its factory, keeping identity and mailbox.
	DirectiveRestart Directive = iota
	// DirectiveResume drops the offending message and carries on with the
	// current instance.
	DirectiveResume
	// DirectiveStop stops the actor terminally.
	DirectiveStop
)

// Decider maps a recovered panic value to a Directive.
type Decider func(reason any) Directive

// DefaultDecider restarts on every fault.
func DefaultDecider(any) Directive {
	return DirectiveRestart
}

// OneForOneStrategy restarts a failed actor in isolation, at most MaxRestarts
// times within the trailing Window. Once the budget is exhausted the actor is
// stopped terminally and its watchers receive a Terminated signal.
type OneForOneStrategy struct {
	MaxRestarts int
	Window      time.Duration
	Decider     Decider
}

// NewOneForOneStrategy builds a strategy with the DefaultDecider.
func NewOneForOneStrategy(maxRestarts int, window time.Duration) *OneForOneStrategy {
	return &OneForOneStrategy{
		MaxRestarts: maxRestarts,
		Window:      window,
		Decider:     DefaultDecider,
	}
}

func (s *OneForOneStrategy) directive(reason any) Directive {
	if s.Decider == nil {
		return DefaultDecider(reason)
	}
	return s.Decider(reason)
}
