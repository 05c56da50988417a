package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/teesheet"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/db"
)

// SlotCache stores the open slots of a date. Get reports false on a miss.
// Every Invalidate advances the date's generation; Set stores nothing when the
// generation differs from gen, so a list read before a booking committed is dropped.
type SlotCache interface {
	Get(ctx context.Context, date time.Time) ([]model.Slot, bool, error)
	Generation(ctx context.Context, date time.Time) (int64, error)
	Set(ctx context.Context, date time.Time, gen int64, slots []model.Slot) (bool, error)
	Invalidate(ctx context.Context, date time.Time) error
}

// AvailabilityIndex answers whether a slot is free. Slots match on the exact
// (date, start, end) triple; partial overlaps are never considered.
type AvailabilityIndex struct {
	store  db.TeeTimeQueries
	grid   teesheet.Grid
	cache  SlotCache
	logger *zap.Logger
}

// NewAvailabilityIndex creates an index over store. cache may be nil.
func NewAvailabilityIndex(store db.TeeTimeQueries, grid teesheet.Grid, cache SlotCache, logger *zap.Logger) *AvailabilityIndex {
	return &AvailabilityIndex{store: store, grid: grid, cache: cache, logger: logger}
}

// IsFree reports whether no booking other than excludeID holds (date, slot)
func (a *AvailabilityIndex) IsFree(ctx context.Context, date time.Time, slot model.Slot, excludeID int) (bool, error) {
	return a.isFreeIn(ctx, a.store, date, slot, excludeID)
}

func (a *AvailabilityIndex) isFreeIn(ctx context.Context, q db.TeeTimeQueries, date time.Time, slot model.Slot, excludeID int) (bool, error) {
	existing, err := q.FindTeeTimeAt(ctx, model.DateOnly(date), slot, excludeID)
	if err != nil {
		return false, model.OperationFailed("check slot availability", err)
	}
	if existing != nil {
		a.logger.Debug("Slot is taken",
			zap.String("date", date.Format(time.DateOnly)),
			zap.String("slot", slot.Label()),
			zap.Int("tee_time_id", existing.ID))
		return false, nil
	}
	return true, nil
}

// OpenSlots returns the canonical slots of date not held by any booking, in order
func (a *AvailabilityIndex) OpenSlots(ctx context.Context, date time.Time) ([]model.Slot, error) {
	date = model.DateOnly(date)
	day := date.Format(time.DateOnly)

	cacheable := false
	var gen int64
	if a.cache != nil {
		slots, ok, err := a.cache.Get(ctx, date)
		if err != nil {
			a.logger.Warn("Failed to read availability cache", zap.String("date", day), zap.Error(err))
		} else if ok {
			a.logger.Debug("Availability cache hit", zap.String("date", day), zap.Int("open", len(slots)))
			return slots, nil
		}

		// The generation must be read before the bookings are listed
		if gen, err = a.cache.Generation(ctx, date); err != nil {
			a.logger.Warn("Failed to read availability cache generation", zap.String("date", day), zap.Error(err))
		} else {
			cacheable = true
		}
	}

	booked, err := a.store.ListTeeTimesByDate(ctx, date)
	if err != nil {
		a.logger.Error("Failed to list tee times", zap.String("date", day), zap.Error(err))
		return nil, model.OperationFailed("list tee times", err)
	}

	taken := make(map[model.Slot]bool, len(booked))
	for i := range booked {
		taken[booked[i].Slot()] = true
	}

	all := a.grid.Slots()
	open := make([]model.Slot, 0, len(all))
	for _, slot := range all {
		if !taken[slot] {
			open = append(open, slot)
		}
	}

	a.logger.Debug("Computed open slots",
		zap.String("date", day),
		zap.Int("booked", len(booked)),
		zap.Int("open", len(open)))

	if cacheable {
		stored, err := a.cache.Set(ctx, date, gen, open)
		switch {
		case err != nil:
			a.logger.Warn("Failed to write availability cache", zap.String("date", day), zap.Error(err))
		case !stored:
			a.logger.Debug("Availability changed while listing, not cached", zap.String("date", day))
		}
	}

	return open, nil
}

// Invalidate drops cached availability for each date
func (a *AvailabilityIndex) Invalidate(ctx context.Context, dates ...time.Time) {
	if a.cache == nil {
		return
	}
	for _, date := range dates {
		if err := a.cache.Invalidate(ctx, model.DateOnly(date)); err != nil {
			a.logger.Warn("Failed to invalidate availability cache",
				zap.String("date", date.Format(time.DateOnly)),
				zap.Error(err))
		}
	}
}
