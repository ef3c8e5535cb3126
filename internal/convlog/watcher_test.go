package convlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patheras/prometheus-core/internal/store"
)

func TestWatchReindexesOnFileChange(t *testing.T) {
	l, err := Open(t.TempDir())
	require.NoError(t, err)
	s := openTestStore(t)

	indexed := make(chan IndexStats, 8)
	w, err := l.Watch(context.Background(), s, WatchOptions{
		DebounceMs: 50,
		OnIndexed:  func(st IndexStats) { indexed <- st },
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, l.AppendMessage("c1", Record{Role: store.RoleUser, Content: "hi", Timestamp: 1}))

	select {
	case st := <-indexed:
		assert.Equal(t, 1, st.IndexedFiles)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for debounced reconciliation")
	}
}

func TestWatchCoalescesBurstsIntoOnePass(t *testing.T) {
	l, err := Open(t.TempDir())
	require.NoError(t, err)
	s := openTestStore(t)

	indexed := make(chan IndexStats, 8)
	w, err := l.Watch(context.Background(), s, WatchOptions{
		DebounceMs: 200,
		OnIndexed:  func(st IndexStats) { indexed <- st },
	})
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.AppendMessage("c1", Record{Role: store.RoleUser, Content: "burst", Timestamp: int64(i)}))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-indexed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for debounced reconciliation")
	}

	select {
	case <-indexed:
		t.Fatal("expected burst of writes to coalesce into a single reconciliation pass")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestDebouncerCoalescesTriggers(t *testing.T) {
	calls := make(chan struct{}, 8)
	d := NewDebouncer(50*time.Millisecond, func() { calls <- struct{}{} })

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("expected debounced action to fire")
	}
	select {
	case <-calls:
		t.Fatal("expected only one action call for a burst of triggers")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncerCancelAndWaitStopsPendingFire(t *testing.T) {
	fired := false
	d := NewDebouncer(50*time.Millisecond, func() { fired = true })
	d.Trigger()
	d.CancelAndWait()
	time.Sleep(100 * time.Millisecond)
	assert.False(t, fired)
}
