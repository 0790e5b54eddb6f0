package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insurechain/internal/ledger"
)

func event(eventType ledger.EventType) ledger.Event {
	e := ledger.Event{Type: eventType, Timestamp: time.Now().UTC()}
	return e
}

func TestInMemoryJournalAssignsSequences(t *testing.T) {
	ctx := context.Background()
	j := NewInMemoryJournal()

	seq1, err := j.Append(ctx, event(ledger.EventPolicyRegistered))
	require.NoError(t, err)
	seq2, err := j.Append(ctx, event(ledger.EventClaimSubmitted))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), seq1)
	assert.Equal(t, uint64(2), seq2)

	last, err := j.LastSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last)
}

func TestInMemoryJournalReadFrom(t *testing.T) {
	ctx := context.Background()
	j := NewInMemoryJournal()
	for i := 0; i < 5; i++ {
		_, err := j.Append(ctx, event(ledger.EventClaimSubmitted))
		require.NoError(t, err)
	}

	events, err := j.Read(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, uint64(3), events[0].Sequence)
	assert.Equal(t, uint64(5), events[2].Sequence)

	limited, err := j.Read(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)

	empty, err := j.Read(ctx, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLevelDBJournalRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	j, err := OpenLevelDB(dir)
	require.NoError(t, err)

	seq, err := j.Append(ctx, event(ledger.EventPolicyRegistered))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
	_, err = j.Append(ctx, event(ledger.EventClaimSubmitted))
	require.NoError(t, err)

	events, err := j.Read(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ledger.EventPolicyRegistered, events[0].Type)
	require.NoError(t, j.Close())

	// Sequence survives reopen.
	reopened, err := OpenLevelDB(dir)
	require.NoError(t, err)
	defer reopened.Close()

	last, err := reopened.LastSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last)

	seq, err = reopened.Append(ctx, event(ledger.EventClaimProcessed))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq)
}
