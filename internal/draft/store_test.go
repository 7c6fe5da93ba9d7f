package draft

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Hour), mr
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	d := &Draft{
		Kind:       SubmissionJournal,
		Date:       "2026-01-15",
		CurrencyID: 1,
		Lines:      NewLineCollection(1),
		Composer:   NewComposer(),
	}
	d.Lines.AddLine(1, 2)
	require.NoError(t, store.Create(ctx, d))
	require.NotEmpty(t, d.ID)
	require.Equal(t, int64(1), d.Version)

	loaded, err := store.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, d.ID, loaded.ID)
	require.Equal(t, 1, loaded.Lines.MinLines)
	require.Len(t, loaded.Lines.Lines, 1)
	require.Len(t, loaded.Lines.Lines[0].Segments, 2)
}

func TestStoreGetMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestStoreSaveBumpsVersion(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	d := &Draft{Kind: SubmissionJournal, Lines: NewLineCollection(1), Composer: NewComposer()}
	require.NoError(t, store.Create(ctx, d))

	d.Memo = "updated"
	require.NoError(t, store.Save(ctx, d))
	require.Equal(t, int64(2), d.Version)

	loaded, err := store.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "updated", loaded.Memo)
}

func TestStoreSaveRejectsStaleVersion(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	d := &Draft{Kind: SubmissionJournal, Lines: NewLineCollection(1), Composer: NewComposer()}
	require.NoError(t, store.Create(ctx, d))

	first, err := store.Get(ctx, d.ID)
	require.NoError(t, err)
	second, err := store.Get(ctx, d.ID)
	require.NoError(t, err)

	first.Memo = "winner"
	require.NoError(t, store.Save(ctx, first))

	second.Memo = "loser"
	require.ErrorIs(t, store.Save(ctx, second), ErrStaleDraft)

	loaded, err := store.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "winner", loaded.Memo)
}

func TestStoreExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	d := &Draft{Kind: SubmissionJournal, Lines: NewLineCollection(1), Composer: NewComposer()}
	require.NoError(t, store.Create(ctx, d))

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, d.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestStoreDeleteIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	d := &Draft{Kind: SubmissionJournal, Lines: NewLineCollection(1), Composer: NewComposer()}
	require.NoError(t, store.Create(ctx, d))
	require.NoError(t, store.Delete(ctx, d.ID))
	require.NoError(t, store.Delete(ctx, d.ID))
}
