package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/maitred/internal/docstore"
	"github.com/soyeahso/maitred/internal/domain"
	"github.com/soyeahso/maitred/internal/logging"
)

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := NewMemoryStore()

	id, err := store.Create("alice")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	sess, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.UserID)
	assert.True(t, sess.Active)
	assert.Empty(t, sess.Turns)
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreGetRefreshesLastUsed(t *testing.T) {
	store := NewMemoryStore()
	id, err := store.Create("alice")
	require.NoError(t, err)

	first, err := store.Get(id)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	second, err := store.Get(id)
	require.NoError(t, err)
	assert.True(t, second.LastUsedAt.After(first.LastUsedAt))
}

func TestMemoryStoreWindowEviction(t *testing.T) {
	store := NewMemoryStore(WithWindowSize(3))
	id, err := store.Create("alice")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		err := store.AppendTurn(id, domain.Turn{
			UserText: fmt.Sprintf("message %d", i),
			Response: "ok",
			Handler:  "menu",
		})
		require.NoError(t, err)
	}

	sess, err := store.Get(id)
	require.NoError(t, err)
	require.Len(t, sess.Turns, 3)
	// oldest evicted first
	assert.Equal(t, "message 2", sess.Turns[0].UserText)
	assert.Equal(t, "message 4", sess.Turns[2].UserText)
}

func TestMemoryStoreReset(t *testing.T) {
	store := NewMemoryStore()
	id, err := store.Create("alice")
	require.NoError(t, err)

	fresh, err := store.Reset("alice", id)
	require.NoError(t, err)
	assert.NotEqual(t, id, fresh)

	_, err = store.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)

	sess, err := store.Get(fresh)
	require.NoError(t, err)
	assert.Empty(t, sess.Turns)
}

func TestMemoryStoreResetUnknownCurrent(t *testing.T) {
	store := NewMemoryStore()

	fresh, err := store.Reset("alice", "never-existed")
	require.NoError(t, err)

	sess, err := store.Get(fresh)
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.UserID)
}

func TestMemoryStoreSweepExpired(t *testing.T) {
	store := NewMemoryStore(WithIdleTimeout(30 * time.Minute))

	stale, err := store.Create("alice")
	require.NoError(t, err)
	live, err := store.Create("bob")
	require.NoError(t, err)

	// age only the stale session
	store.mu.Lock()
	store.sessions[stale].LastUsedAt = time.Now().UTC().Add(-time.Hour)
	store.mu.Unlock()

	n, err := store.SweepExpired(time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Get(stale)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(live)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.ActiveCount())
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	store := NewMemoryStore(WithWindowSize(5))
	id, err := store.Create("alice")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.AppendTurn(id, domain.Turn{UserText: fmt.Sprintf("m%d", i)})
		}(i)
	}
	wg.Wait()

	sess, err := store.Get(id)
	require.NoError(t, err)
	assert.Len(t, sess.Turns, 5)
}

func testSQLiteStore(t *testing.T, window int) *SQLiteStore {
	t.Helper()
	db, err := docstore.Open(":memory:", logging.New(nil, "silent"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db, window, 30*time.Minute)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := testSQLiteStore(t, 5)

	id, err := store.Create("alice")
	require.NoError(t, err)

	require.NoError(t, store.AppendTurn(id, domain.Turn{
		UserText: "bonjour",
		Response: "Bonjour ! Comment puis-je vous aider ?",
		Handler:  "general",
	}))

	sess, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.UserID)
	require.Len(t, sess.Turns, 1)
	assert.Equal(t, "bonjour", sess.Turns[0].UserText)
	assert.Equal(t, "general", sess.Turns[0].Handler)
}

func TestSQLiteStoreWindowEviction(t *testing.T) {
	store := testSQLiteStore(t, 2)

	id, err := store.Create("alice")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.AppendTurn(id, domain.Turn{
			UserText: fmt.Sprintf("message %d", i),
		}))
	}

	sess, err := store.Get(id)
	require.NoError(t, err)
	require.Len(t, sess.Turns, 2)
	assert.Equal(t, "message 2", sess.Turns[0].UserText)
	assert.Equal(t, "message 3", sess.Turns[1].UserText)
}

func TestSQLiteStoreResetDeactivates(t *testing.T) {
	store := testSQLiteStore(t, 5)

	id, err := store.Create("alice")
	require.NoError(t, err)

	fresh, err := store.Reset("alice", id)
	require.NoError(t, err)
	assert.NotEqual(t, id, fresh)

	_, err = store.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.AppendTurn(id, domain.Turn{UserText: "late"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreSweepExpired(t *testing.T) {
	store := testSQLiteStore(t, 5)

	id, err := store.Create("alice")
	require.NoError(t, err)

	// nothing idle yet
	n, err := store.SweepExpired(time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, n)

	// everything is idle an hour from now
	n, err = store.SweepExpired(time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
}
