package ledgersaga

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortressi/ledgersaga/actor"
)

// probe records every non-lifecycle message delivered to it so tests can
// assert on replies.
type probe struct {
	ch chan any
}

func (p *probe) Receive(ctx *actor.Context, msg any) {
	switch msg.(type) {
	case actor.Started, actor.Stopping, actor.Stopped, actor.Restarting:
		return
	}
	p.ch <- msg
}

func newProbe(t *testing.T, system *actor.System, name string) (actor.Ref, chan any) {
	t.Helper()
	ch := make(chan any, 32)
	ref, err := system.Spawn(name, func() actor.Actor { return &probe{ch: ch} })
	require.NoError(t, err)
	return ref, ch
}

func expectMsg(t *testing.T, ch chan any, timeout time.Duration) any {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func expectNoMsg(t *testing.T, ch chan any, within time.Duration) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %#v", msg)
	case <-time.After(within):
	}
}

func spawnAccount(t *testing.T, system *actor.System, name string, faults FaultDecider) actor.Ref {
	t.Helper()
	ref, err := system.Spawn(name, func() actor.Actor { return NewAccount(faults) })
	require.NoError(t, err)
	return ref
}

func balanceOf(t *testing.T, system *actor.System, account actor.Ref) decimal.Decimal {
	t.Helper()
	reply, err := system.Request(account, GetBalance{}, time.Second)
	require.NoError(t, err)
	balance, ok := reply.(decimal.Decimal)
	require.True(t, ok, "unexpected reply %T", reply)
	return balance
}

func assertBalance(t *testing.T, system *actor.System, account actor.Ref, want int64) {
	t.Helper()
	balance := balanceOf(t, system, account)
	assert.True(t, balance.Equal(decimal.NewFromInt(want)), "balance is %s, want %d", balance, want)
}

func TestAccountDebitIsIdempotentPerAttempt(t *testing.T) {
	system := actor.NewSystem("test")
	replyTo, replies := newProbe(t, system, "caller")
	account := spawnAccount(t, system, "account", NoFaults())

	debit := Debit{ChangeBalance{Amount: decimal.NewFromInt(-5), ReplyTo: replyTo}}
	system.Send(account, debit)
	assert.Equal(t, Ok{}, expectMsg(t, replies, time.Second))

	// redelivery of the same attempt replays the cached response and
	// mutates nothing
	system.Send(account, debit)
	assert.Equal(t, Ok{}, expectMsg(t, replies, time.Second))
	assertBalance(t, system, account, 5)
}

func TestAccountRejectsOverdraft(t *testing.T) {
	system := actor.NewSystem("test")
	replyTo, replies := newProbe(t, system, "caller")
	account := spawnAccount(t, system, "account", NoFaults())

	system.Send(account, Debit{ChangeBalance{Amount: decimal.NewFromInt(-20), ReplyTo: replyTo}})
	assert.Equal(t, InsufficientFunds{}, expectMsg(t, replies, time.Second))
	assertBalance(t, system, account, 10)
}

func TestAccountCachesPermanentRefusal(t *testing.T) {
	system := actor.NewSystem("test")
	replyTo, replies := newProbe(t, system, "caller")
	account := spawnAccount(t, system, "account", &ScriptedFaults{Refusals: []bool{true}})

	debit := Debit{ChangeBalance{Amount: decimal.NewFromInt(-5), ReplyTo: replyTo}}
	system.Send(account, debit)
	assert.Equal(t, Refused{}, expectMsg(t, replies, time.Second))

	// the refusal draw is spent, so a second Refused can only come from
	// the response cache
	system.Send(account, debit)
	assert.Equal(t, Refused{}, expectMsg(t, replies, time.Second))
	assertBalance(t, system, account, 10)

	// a distinct attempt is a fresh draw
	otherReplyTo, otherReplies := newProbe(t, system, "retrier")
	system.Send(account, Debit{ChangeBalance{Amount: decimal.NewFromInt(-5), ReplyTo: otherReplyTo}})
	assert.Equal(t, Ok{}, expectMsg(t, otherReplies, time.Second))
	assertBalance(t, system, account, 5)
}

func TestAccountBusyIsTransient(t *testing.T) {
	system := actor.NewSystem("test")
	replyTo, replies := newProbe(t, system, "caller")
	account := spawnAccount(t, system, "account", &ScriptedFaults{Busy: []bool{true}})

	credit := Credit{ChangeBalance{Amount: decimal.NewFromInt(5), ReplyTo: replyTo}}
	system.Send(account, credit)
	assert.Equal(t, ServiceUnavailable{}, expectMsg(t, replies, time.Second))
	assertBalance(t, system, account, 10)

	// busy responses are not cached; the same attempt may succeed later
	system.Send(account, credit)
	assert.Equal(t, Ok{}, expectMsg(t, replies, time.Second))
	assertBalance(t, system, account, 15)
}

func TestAccountFailureBeforeProcessingLeavesBalanceUntouched(t *testing.T) {
	system := actor.NewSystem("test")
	replyTo, replies := newProbe(t, system, "caller")
	account := spawnAccount(t, system, "account", &ScriptedFaults{PreFailures: []bool{true}})

	debit := Debit{ChangeBalance{Amount: decimal.NewFromInt(-5), ReplyTo: replyTo}}
	system.Send(account, debit)
	assert.Equal(t, InternalServerError{}, expectMsg(t, replies, time.Second))
	assertBalance(t, system, account, 10)

	system.Send(account, debit)
	assert.Equal(t, Ok{}, expectMsg(t, replies, time.Second))
	assertBalance(t, system, account, 5)
}

func TestAccountFailureAfterProcessingKeepsTheMutation(t *testing.T) {
	system := actor.NewSystem("test")
	replyTo, replies := newProbe(t, system, "caller")
	account := spawnAccount(t, system, "account", &ScriptedFaults{PostFailures: []bool{true}})

	debit := Debit{ChangeBalance{Amount: decimal.NewFromInt(-5), ReplyTo: replyTo}}
	system.Send(account, debit)
	assert.Equal(t, InternalServerError{}, expectMsg(t, replies, time.Second))

	// the mutation happened before the failure; the retry resolves the
	// ambiguity from the cache without mutating again
	assertBalance(t, system, account, 5)
	system.Send(account, debit)
	assert.Equal(t, Ok{}, expectMsg(t, replies, time.Second))
	assertBalance(t, system, account, 5)
}
