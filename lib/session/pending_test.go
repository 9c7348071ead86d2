package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingTableOrder(t *testing.T) {
	p := NewPendingTable()
	for id := uint64(1); id <= 3; id++ {
		require.True(t, p.Add(&Command{ID: id}))
	}
	assert.False(t, p.Add(&Command{ID: 2}), "duplicate id must be rejected")
	assert.Equal(t, 3, p.Len())

	oldest, ok := p.Oldest()
	require.True(t, ok)
	assert.Equal(t, uint64(1), oldest.ID)

	cmd, ok := p.Take(2)
	require.True(t, ok)
	assert.Equal(t, uint64(2), cmd.ID)

	_, ok = p.Take(2)
	assert.False(t, ok, "lookup must be destructive")

	drained := p.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, uint64(1), drained[0].ID)
	assert.Equal(t, uint64(3), drained[1].ID)
	assert.Equal(t, 0, p.Len())

	_, ok = p.Oldest()
	assert.False(t, ok)
}

func TestFutureResolvesOnce(t *testing.T) {
	f := newFuture()

	_, err := f.Result()
	assert.ErrorIs(t, err, ErrPending)

	assert.True(t, f.resolve(Result{Value: "100", Found: true}, nil))
	assert.False(t, f.resolve(Result{}, ErrSessionClosed))

	res, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, Result{Value: "100", Found: true}, res)

	select {
	case <-f.Done():
	default:
		t.Fatal("Done channel must be closed")
	}
}
