// Package ledgersaga exercises a distributed-transaction saga: a money
// transfer coordinated across two independently fault-prone ledger accounts,
// with automatic compensation when the credit leg fails and escalation when
// the compensation itself fails.
//
// Accounts are actors with idempotent command handling and configurable fault
// injection (permanent refusal, transient busy, failures before and after the
// balance mutation).
//
// A TransferSaga drives each transfer as an event-sourced state machine:
// debit the source, credit the destination, roll the debit back if the credit
// is refused. Every transition persists its event before acting, so a
// supervised restart replays the log and resumes without re-issuing completed
// side effects. AccountProxy actors perform each one-shot attempt under a
// receive timeout; a proxy faults on anything its saga does not model, and
// the supervisor retries the attempt by restarting the proxy.
//
// A Runner spawns the transfers concurrently and aggregates the four terminal
// outcomes: success, failed-but-consistent, failed-and-inconsistent, unknown.
//
// The actor substrate lives in the actor subpackage, the append-only event
// store in the journal subpackage. See examples/transfer for a runnable
// bootstrap.
package ledgersaga
