package eventlog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"crowdsale/core/events"
	"crowdsale/core/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	store, err := New(db, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAssignsSequence(t *testing.T) {
	store := newTestStore(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.SetNowFunc(func() time.Time { return fixed })
	ctx := context.Background()

	first, err := store.Append(ctx, &types.Event{Type: "sale.contribution", Attributes: map[string]string{"amount": "10"}})
	require.NoError(t, err)
	second, err := store.Append(ctx, &types.Event{Type: "sale.phase.changed"})
	require.NoError(t, err)

	require.Equal(t, uint64(1), first.Seq)
	require.Equal(t, uint64(2), second.Seq)
	require.NotEqual(t, first.ID, second.ID)
	require.True(t, first.RecordedAt.Equal(fixed))

	last, err := store.Last(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), last)
}

func TestAppendRejectsUntypedEvents(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Append(context.Background(), &types.Event{})
	require.Error(t, err)
	_, err = store.Append(context.Background(), nil)
	require.Error(t, err)
}

func TestListPagesAndFilters(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 5; i++ {
		eventType := "sale.contribution"
		if i%2 == 1 {
			eventType = "token.transfer"
		}
		store.Emit(events.Wrap(&types.Event{Type: eventType, Attributes: map[string]string{"i": fmt.Sprint(i)}}))
	}
	ctx := context.Background()

	page, err := store.List(ctx, 0, 2, "")
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, uint64(1), page[0].Seq)

	rest, err := store.List(ctx, page[1].Seq, 0, "")
	require.NoError(t, err)
	require.Len(t, rest, 3)

	transfers, err := store.List(ctx, 0, 10, "token.transfer")
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	evt, err := transfers[1].Event()
	require.NoError(t, err)
	require.Equal(t, "3", evt.Attr("i"))
}

func TestEmitFansOutWithRecorder(t *testing.T) {
	store := newTestStore(t)
	recorder := events.NewRecorder(0)
	fanout := events.Multi{store, nil, recorder}
	fanout.Emit(events.Wrap(&types.Event{Type: "sale.finalized"}))

	entries, err := store.List(context.Background(), 0, 0, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, recorder.Events(), 1)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open("  ", nil)
	require.ErrorIs(t, err, ErrDSNRequired)
}
