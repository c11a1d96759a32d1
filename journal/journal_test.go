package journal

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJournalKeepsAppendOrder(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, "t-1", Entry{Type: "started"}))
	require.NoError(t, j.Append(ctx, "t-1", Entry{Type: "debited"}))
	require.NoError(t, j.Append(ctx, "t-1", Entry{Type: "completed", Data: json.RawMessage(`{"from_balance":"0"}`)}))

	entries, err := j.Load(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "started", entries[0].Type)
	assert.Equal(t, "debited", entries[1].Type)
	assert.Equal(t, "completed", entries[2].Type)
	assert.JSONEq(t, `{"from_balance":"0"}`, string(entries[2].Data))
}

func TestMemoryJournalIsolatesIdentities(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, "t-b", Entry{Type: "started"}))
	require.NoError(t, j.Append(ctx, "t-a", Entry{Type: "started"}))

	entries, err := j.Load(ctx, "t-missing")
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Equal(t, []string{"t-a", "t-b"}, j.IDs())

	require.NoError(t, j.Delete(ctx, "t-a"))
	entries, err = j.Load(ctx, "t-a")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, []string{"t-b"}, j.IDs())
}

func TestFileJournalRoundTrip(t *testing.T) {
	j, err := NewFileJournal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, "t-1", Entry{Type: "started"}))
	require.NoError(t, j.Append(ctx, "t-1", Entry{Type: "failed", Data: json.RawMessage(`{"reason":"debit refused"}`)}))

	entries, err := j.Load(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "started", entries[0].Type)
	assert.Equal(t, "failed", entries[1].Type)
	assert.JSONEq(t, `{"reason":"debit refused"}`, string(entries[1].Data))
}

func TestFileJournalToleratesMissingLogs(t *testing.T) {
	j, err := NewFileJournal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	entries, err := j.Load(ctx, "never-written")
	require.NoError(t, err)
	assert.Empty(t, entries)

	// deleting a missing log is a no-op, deleting twice too
	require.NoError(t, j.Delete(ctx, "never-written"))

	require.NoError(t, j.Append(ctx, "t-1", Entry{Type: "started"}))
	require.NoError(t, j.Delete(ctx, "t-1"))
	require.NoError(t, j.Delete(ctx, "t-1"))
	entries, err = j.Load(ctx, "t-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
