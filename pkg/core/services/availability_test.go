package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/teesheet"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/db"
)

// afterListQueries runs afterList once, right after the first date listing returns
type afterListQueries struct {
	db.TeeTimeQueries
	afterList func()
}

func (q *afterListQueries) ListTeeTimesByDate(ctx context.Context, date time.Time) ([]model.TeeTime, error) {
	teeTimes, err := q.TeeTimeQueries.ListTeeTimesByDate(ctx, date)
	if q.afterList != nil {
		hook := q.afterList
		q.afterList = nil
		hook()
	}
	return teeTimes, err
}

func TestIsFree_ExactMatchOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.ledger.Create(ctx, booking(5, model.Clock(8, 0)))
	require.NoError(t, err)

	booked := model.Slot{Start: model.Clock(8, 0), End: model.Clock(8, 8)}

	free, err := f.index.IsFree(ctx, july1(), booked, 0)
	require.NoError(t, err)
	assert.False(t, free)

	free, err = f.index.IsFree(ctx, july1(), booked, result.TeeTimeID)
	require.NoError(t, err)
	assert.True(t, free, "a booking does not conflict with itself")

	free, err = f.index.IsFree(ctx, july1(), model.Slot{Start: model.Clock(8, 4), End: model.Clock(8, 12)}, 0)
	require.NoError(t, err)
	assert.True(t, free, "overlapping but different slots are not compared")

	free, err = f.index.IsFree(ctx, july1().AddDate(0, 0, 1), booked, 0)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestIsFree_StoreFailure(t *testing.T) {
	f := newFixture()
	f.store.FailOn("FindTeeTimeAt", errBoom)

	_, err := f.index.IsFree(context.Background(), july1(), model.Slot{Start: model.Clock(8, 0), End: model.Clock(8, 8)}, 0)
	assert.ErrorIs(t, err, model.ErrOperationFailed)
	assert.ErrorIs(t, err, errBoom)
}

func TestOpenSlots(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.ledger.Create(ctx, booking(5, model.Clock(6, 0)))
	require.NoError(t, err)
	_, err = f.ledger.Create(ctx, booking(9, model.Clock(19, 52)))
	require.NoError(t, err)

	open, err := f.index.OpenSlots(ctx, july1())
	require.NoError(t, err)
	require.Len(t, open, 103)
	assert.Equal(t, "06:08-06:16", open[0].Label())
	assert.Equal(t, "19:44-19:52", open[len(open)-1].Label())

	cached, ok := f.cache.slots["2025-07-01"]
	require.True(t, ok)
	assert.Len(t, cached, 103)
}

func TestOpenSlots_UsesCacheUntilInvalidated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	open, err := f.index.OpenSlots(ctx, july1())
	require.NoError(t, err)
	require.Len(t, open, 105)

	f.store.FailOn("ListTeeTimesByDate", errBoom)
	open, err = f.index.OpenSlots(ctx, july1())
	require.NoError(t, err, "served from cache")
	assert.Len(t, open, 105)
	f.store.FailOn("ListTeeTimesByDate", nil)

	_, err = f.ledger.Create(ctx, booking(5, model.Clock(8, 0)))
	require.NoError(t, err)

	open, err = f.index.OpenSlots(ctx, july1())
	require.NoError(t, err)
	assert.Len(t, open, 104)
}

func TestOpenSlots_BookingDuringListingIsNotCachedStale(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	queries := &afterListQueries{TeeTimeQueries: f.store}
	queries.afterList = func() {
		_, err := f.ledger.Create(ctx, booking(5, model.Clock(8, 0)))
		require.NoError(t, err)
	}
	index := NewAvailabilityIndex(queries, teesheet.DefaultGrid(), f.cache, zap.NewNop())

	open, err := index.OpenSlots(ctx, july1())
	require.NoError(t, err)
	assert.Len(t, open, 105, "listed before the booking committed")

	_, cached := f.cache.slots["2025-07-01"]
	assert.False(t, cached)

	open, err = index.OpenSlots(ctx, july1())
	require.NoError(t, err)
	require.Len(t, open, 104)
	for _, s := range open {
		assert.NotEqual(t, "08:00-08:08", s.Label())
	}
}

func TestOpenSlots_CacheErrorFallsBackToStore(t *testing.T) {
	f := newFixture()
	f.cache.getErr = errBoom

	open, err := f.index.OpenSlots(context.Background(), july1())
	require.NoError(t, err)
	assert.Len(t, open, 105)
}
