package ledgersaga

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortressi/ledgersaga/actor"
)

// captureTelemetry collects emitted lines for assertions.
type captureTelemetry struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureTelemetry) Emit(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, text)
}

func (c *captureTelemetry) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func TestRunnerAccountsForEveryTransfer(t *testing.T) {
	system := actor.NewSystem("test")
	done := make(chan Summary, 1)
	telemetry := &captureTelemetry{}
	runner, err := system.Spawn("runner", func() actor.Actor {
		return NewRunner(RunnerConfig{
			Transfers:          10,
			ReportInterval:     1,
			Uptime:             99.99,
			RefusalProbability: 0.01,
			BusyProbability:    0.01,
			RetryAttempts:      3,
			Telemetry:          telemetry,
			Done:               done,
			Seed:               42,
		})
	})
	require.NoError(t, err)

	var summary Summary
	select {
	case summary = <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("runner did not drain its transfers")
	}

	// outcomes vary with the fault draws, but every transfer reports
	// exactly one of them
	total := summary.Success + summary.FailedButConsistent + summary.FailedAndInconsistent + summary.Unknown
	assert.Equal(t, 10, total)
	assert.Equal(t, 10, summary.Transfers)
	assert.Contains(t, telemetry.all(), "RESULTS:")

	system.Stop(runner)
	require.NoError(t, system.AwaitTermination(runner, 5*time.Second))
}

func TestRunnerIgnoresDuplicateResults(t *testing.T) {
	system := actor.NewSystem("test")
	first, _ := newProbe(t, system, "first")
	second, _ := newProbe(t, system, "second")

	r := NewRunner(RunnerConfig{Transfers: 2})
	r.outstanding.Insert(first)
	r.outstanding.Insert(second)
	r.started[first] = time.Now()
	r.started[second] = time.Now()

	r.complete(first, &r.summary.Success)
	r.complete(first, &r.summary.Success)
	assert.Equal(t, 1, r.summary.Success)

	r.complete(second, &r.summary.Unknown)
	assert.Equal(t, 1, r.summary.Unknown)
	assert.Equal(t, 0, r.outstanding.Len())
}

func TestRunnerDerivesFactorySeedFromConfig(t *testing.T) {
	r := NewRunner(RunnerConfig{Transfers: 10, Seed: 7})

	// accounts draw from the first 2n offsets after the seed, sagas from the
	// next n, so the whole run replays from the one configured seed
	assert.Equal(t, int64(27), r.factory.seed)
}

func TestRunnerProgressStopsBeforeResults(t *testing.T) {
	system := actor.NewSystem("test")
	first, _ := newProbe(t, system, "first")
	second, _ := newProbe(t, system, "second")

	telemetry := &captureTelemetry{}
	r := NewRunner(RunnerConfig{Transfers: 2, ReportInterval: 1, Telemetry: telemetry})
	r.outstanding.Insert(first)
	r.outstanding.Insert(second)

	r.complete(first, &r.summary.Success)
	r.complete(second, &r.summary.Success)

	// the last completion goes straight to the report, not a zero-count
	// progress line
	lines := telemetry.all()
	assert.Contains(t, lines, "1 transfers remaining")
	assert.NotContains(t, lines, "0 transfers remaining")
	assert.Contains(t, lines, "RESULTS:")
}

func TestWriterTelemetryEmitsLines(t *testing.T) {
	var buf bytes.Buffer
	telemetry := NewWriterTelemetry(&buf)
	telemetry.Emit("started 1/10 transfers")
	telemetry.Emit("RESULTS:")
	assert.Equal(t, "started 1/10 transfers\nRESULTS:\n", buf.String())
}
