package session

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/job-tracker-web/internal/database"
	"github.com/justsurfingit/job-tracker-web/internal/models"
)

// storeContract runs the behaviour every Store implementation must share.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()
	key := uuid.NewString()

	t.Run("absent before save", func(t *testing.T) {
		sess, err := store.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, Session{}, sess)
		assert.False(t, sess.Valid())
	})

	t.Run("save then read", func(t *testing.T) {
		want := Session{IDToken: "tok-1", Username: "alice@x.com"}
		require.NoError(t, store.Save(ctx, key, want))

		got, err := store.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.True(t, got.Valid())
	})

	t.Run("save overwrites", func(t *testing.T) {
		want := Session{IDToken: "tok-2", Username: "alice@x.com"}
		require.NoError(t, store.Save(ctx, key, want))

		got, err := store.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("keys are isolated", func(t *testing.T) {
		other, err := store.Read(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.False(t, other.Valid())
	})

	t.Run("clear leaves both entries absent", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx, key))

		got, err := store.Read(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, got.IDToken)
		assert.Empty(t, got.Username)

		// Clearing twice is fine.
		assert.NoError(t, store.Clear(ctx, key))
	})

	t.Run("rejects bad keys", func(t *testing.T) {
		for _, bad := range []string{"", "../etc/passwd", "a/b", "with space"} {
			assert.ErrorIs(t, store.Save(ctx, bad, Session{IDToken: "x", Username: "y"}), ErrInvalidKey)
			_, err := store.Read(ctx, bad)
			assert.ErrorIs(t, err, ErrInvalidKey)
		}
	})
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	storeContract(t, store)
}

func TestFileStore_NoResidueAfterClear(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	key := uuid.NewString()
	require.NoError(t, store.Save(ctx, key, Session{IDToken: "t", Username: "u"}))

	info, err := os.Stat(filepath.Join(dir, key+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear(ctx, key))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDBStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Connect(dsn)
	require.NoError(t, err)

	store := NewDBStore(db)
	storeContract(t, store)

	t.Run("prune drops stale sessions only", func(t *testing.T) {
		ctx := context.Background()
		stale, fresh := uuid.NewString(), uuid.NewString()
		require.NoError(t, store.Save(ctx, stale, Session{IDToken: "old", Username: "u"}))
		require.NoError(t, store.Save(ctx, fresh, Session{IDToken: "new", Username: "u"}))
		require.NoError(t, db.Model(&models.SessionEntry{}).
			Where("session_key = ?", stale).
			UpdateColumn("updated_at", time.Now().Add(-2*time.Hour)).Error)

		n, err := store.Prune(ctx, time.Hour)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)

		got, err := store.Read(ctx, stale)
		require.NoError(t, err)
		assert.False(t, got.Valid())
		got, err = store.Read(ctx, fresh)
		require.NoError(t, err)
		assert.True(t, got.Valid())
		require.NoError(t, store.Clear(ctx, fresh))
	})
}

func TestFileStore_Prune(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	stale, fresh := uuid.NewString(), uuid.NewString()
	require.NoError(t, store.Save(ctx, stale, Session{IDToken: "old", Username: "u"}))
	require.NoError(t, store.Save(ctx, fresh, Session{IDToken: "new", Username: "u"}))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, stale+".json"), old, old))

	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("keep"), 0o600))
	require.NoError(t, os.Chtimes(notes, old, old))

	n, err := store.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(filepath.Join(dir, stale+".json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	got, err := store.Read(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, got.Valid())
	assert.FileExists(t, notes)

	n, err = store.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type countingPruner struct {
	calls  atomic.Int32
	maxAge atomic.Int64
}

func (p *countingPruner) Prune(_ context.Context, maxAge time.Duration) (int, error) {
	p.maxAge.Store(int64(maxAge))
	p.calls.Add(1)
	return 0, nil
}

func TestStartPruning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &countingPruner{}

	StartPruning(ctx, p, time.Hour, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, time.Millisecond)
	assert.Equal(t, int64(time.Hour), p.maxAge.Load())

	cancel()
	time.Sleep(20 * time.Millisecond)
	settled := p.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, p.calls.Load())
}
