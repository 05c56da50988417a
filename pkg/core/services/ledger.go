package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/cancellation"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/teesheet"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/db"
)

// BookingResult identifies the rows created for a new booking
type BookingResult struct {
	TeeTimeID int
	ScoreID   int
}

// PlayerName is one position on a tee time as shown to a viewer
type PlayerName struct {
	Position int
	MemberID int
	Name     string
}

// BookingLedger owns the lifecycle of single tee time reservations
type BookingLedger struct {
	store        db.Store
	members      db.MemberDirectory
	validator    *teesheet.Validator
	availability *AvailabilityIndex
	events       EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

// NewBookingLedger creates a ledger. events may be nil.
func NewBookingLedger(
	store db.Store,
	members db.MemberDirectory,
	validator *teesheet.Validator,
	availability *AvailabilityIndex,
	events EventPublisher,
	logger *zap.Logger,
	now func() time.Time,
) *BookingLedger {
	if now == nil {
		now = time.Now
	}
	return &BookingLedger{
		store:        store,
		members:      members,
		validator:    validator,
		availability: availability,
		events:       events,
		logger:       logger,
		now:          now,
	}
}

func teeTimeFields(t *model.TeeTime) []zap.Field {
	return []zap.Field{
		zap.Int("tee_time_id", t.ID),
		zap.String("date", t.Date.Format(time.DateOnly)),
		zap.String("slot", t.Slot().Label()),
	}
}

// Create validates req and books it together with its score placeholder
func (l *BookingLedger) Create(ctx context.Context, req teesheet.BookingRequest) (*BookingResult, error) {
	fields := []zap.Field{
		zap.Int("member_id", req.MemberID),
		zap.String("date", req.Date.Format(time.DateOnly)),
		zap.String("slot", model.Slot{Start: req.StartTime, End: req.EndTime}.Label()),
	}
	l.logger.Debug("Creating tee time", fields...)

	if err := l.validator.Validate(ctx, req); err != nil {
		return nil, failure(l.logger, "create tee time", err, fields...)
	}

	teeTime := &model.TeeTime{
		Date:         model.DateOnly(req.Date),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		MemberID:     req.MemberID,
		Phone:        req.Phone,
		Carts:        req.Carts,
		EmployeeName: req.EmployeeName,
	}
	teeTime.SetAdditional(req.AdditionalMemberIDs)

	var result BookingResult
	err := l.store.WithinTx(ctx, func(tx db.Tx) error {
		free, err := l.availability.isFreeIn(ctx, tx, teeTime.Date, teeTime.Slot(), 0)
		if err != nil {
			return err
		}
		if !free {
			return model.ErrSlotUnavailable
		}

		id, err := tx.InsertTeeTime(ctx, teeTime)
		if err != nil {
			return fmt.Errorf("failed to insert tee time: %w", err)
		}
		teeTime.ID = id

		if err := tx.ReplacePlayers(ctx, id, db.PlayersOf(teeTime)); err != nil {
			return fmt.Errorf("failed to insert players: %w", err)
		}

		scoreID, err := tx.InsertScore(ctx, &model.Score{TeeTimeID: id, MemberID: teeTime.MemberID, Date: teeTime.Date})
		if err != nil {
			return fmt.Errorf("failed to insert score: %w", err)
		}
		teeTime.ScoreID = &scoreID

		result = BookingResult{TeeTimeID: id, ScoreID: scoreID}
		return nil
	})
	if err != nil {
		return nil, failure(l.logger, "create tee time", err, fields...)
	}

	l.logger.Info("Tee time booked", append(teeTimeFields(teeTime), zap.Int("score_id", result.ScoreID), zap.Int("players", teeTime.Players))...)
	l.availability.Invalidate(ctx, teeTime.Date)
	notify(ctx, l.events, l.logger, EventTeeTimeCreated, newTeeTimeEvent(EventTeeTimeCreated, teeTime, req.MemberID, l.now()))

	return &result, nil
}

// Update replaces the details of tee time id. Only its primary member or staff may update it.
func (l *BookingLedger) Update(ctx context.Context, actor model.Actor, id int, req teesheet.BookingRequest) (*model.TeeTime, error) {
	fields := []zap.Field{zap.Int("tee_time_id", id), zap.Int("actor_id", actor.MemberID)}
	l.logger.Debug("Updating tee time", fields...)

	if err := l.validator.Validate(ctx, req); err != nil {
		return nil, failure(l.logger, "update tee time", err, fields...)
	}

	var updated model.TeeTime
	var previousDate time.Time
	err := l.store.WithinTx(ctx, func(tx db.Tx) error {
		existing, err := tx.LockTeeTime(ctx, id)
		if err != nil {
			return err
		}
		if actor.MemberID != existing.MemberID && !actor.IsStaff() {
			return model.ErrUnauthorized
		}
		previousDate = existing.Date

		updated = *existing
		updated.Date = model.DateOnly(req.Date)
		updated.StartTime = req.StartTime
		updated.EndTime = req.EndTime
		updated.MemberID = req.MemberID
		updated.Phone = req.Phone
		updated.Carts = req.Carts
		updated.EmployeeName = req.EmployeeName
		updated.SetAdditional(req.AdditionalMemberIDs)

		free, err := l.availability.isFreeIn(ctx, tx, updated.Date, updated.Slot(), id)
		if err != nil {
			return err
		}
		if !free {
			return model.ErrSlotUnavailable
		}

		if err := tx.UpdateTeeTime(ctx, &updated); err != nil {
			return fmt.Errorf("failed to update tee time: %w", err)
		}
		if err := tx.ReplacePlayers(ctx, id, db.PlayersOf(&updated)); err != nil {
			return fmt.Errorf("failed to update players: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, failure(l.logger, "update tee time", err, fields...)
	}

	l.logger.Info("Tee time updated", teeTimeFields(&updated)...)
	l.availability.Invalidate(ctx, previousDate, updated.Date)
	notify(ctx, l.events, l.logger, EventTeeTimeUpdated, newTeeTimeEvent(EventTeeTimeUpdated, &updated, actor.MemberID, l.now()))

	return &updated, nil
}

// Join places memberID in the first empty companion slot. It returns false without
// changing anything when the tee time is already full. A member already on the
// tee time is not detected and may take a second slot. The member's tier must be
// allowed at the tee time's start.
func (l *BookingLedger) Join(ctx context.Context, id, memberID int) (bool, error) {
	fields := []zap.Field{zap.Int("tee_time_id", id), zap.Int("member_id", memberID)}
	l.logger.Debug("Joining tee time", fields...)

	if memberID <= 0 {
		return false, failure(l.logger, "join tee time", model.Invalid(model.KindInvalidMember, "member id must be positive, got %d", memberID), fields...)
	}
	member, err := l.members.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			err = model.Invalid(model.KindUnknownMember, "member %d not found", memberID)
		}
		return false, failure(l.logger, "join tee time", err, fields...)
	}

	var joined bool
	var teeTime model.TeeTime
	err = l.store.WithinTx(ctx, func(tx db.Tx) error {
		existing, err := tx.LockTeeTime(ctx, id)
		if err != nil {
			return err
		}
		teeTime = *existing
		if err := l.validator.CheckTier(member, teeTime.StartTime); err != nil {
			return err
		}
		if teeTime.IsFull() {
			return nil
		}

		for i, occupant := range teeTime.AdditionalMemberIDs {
			if occupant == 0 {
				teeTime.AdditionalMemberIDs[i] = memberID
				break
			}
		}
		teeTime.RecountPlayers()

		if err := tx.UpdateTeeTime(ctx, &teeTime); err != nil {
			return fmt.Errorf("failed to update tee time: %w", err)
		}
		if err := tx.ReplacePlayers(ctx, id, db.PlayersOf(&teeTime)); err != nil {
			return fmt.Errorf("failed to update players: %w", err)
		}
		joined = true
		return nil
	})
	if err != nil {
		return false, failure(l.logger, "join tee time", err, fields...)
	}

	if !joined {
		l.logger.Info("Tee time is full", fields...)
		return false, nil
	}

	l.logger.Info("Member joined tee time", append(fields, zap.Int("players", teeTime.Players))...)
	notify(ctx, l.events, l.logger, EventTeeTimeJoined, newTeeTimeEvent(EventTeeTimeJoined, &teeTime, memberID, l.now()))
	return true, nil
}

// Leave clears the first companion slot holding memberID. It returns false when
// memberID holds no companion slot; the primary member cannot leave this way.
func (l *BookingLedger) Leave(ctx context.Context, id, memberID int) (bool, error) {
	fields := []zap.Field{zap.Int("tee_time_id", id), zap.Int("member_id", memberID)}
	l.logger.Debug("Leaving tee time", fields...)

	var left bool
	var teeTime model.TeeTime
	err := l.store.WithinTx(ctx, func(tx db.Tx) error {
		existing, err := tx.LockTeeTime(ctx, id)
		if err != nil {
			return err
		}
		teeTime = *existing

		slot := -1
		for i, occupant := range teeTime.AdditionalMemberIDs {
			if occupant == memberID && memberID != 0 {
				slot = i
				break
			}
		}
		if slot < 0 {
			return nil
		}

		teeTime.AdditionalMemberIDs[slot] = 0
		teeTime.RecountPlayers()

		if err := tx.UpdateTeeTime(ctx, &teeTime); err != nil {
			return fmt.Errorf("failed to update tee time: %w", err)
		}
		if err := tx.ReplacePlayers(ctx, id, db.PlayersOf(&teeTime)); err != nil {
			return fmt.Errorf("failed to update players: %w", err)
		}
		left = true
		return nil
	})
	if err != nil {
		return false, failure(l.logger, "leave tee time", err, fields...)
	}

	if !left {
		l.logger.Info("Member holds no companion slot", fields...)
		return false, nil
	}

	l.logger.Info("Member left tee time", append(fields, zap.Int("players", teeTime.Players))...)
	notify(ctx, l.events, l.logger, EventTeeTimeLeft, newTeeTimeEvent(EventTeeTimeLeft, &teeTime, memberID, l.now()))
	return true, nil
}

// transition applies event to tee time id inside one unit of work. authorize runs
// against the locked row before the state check; apply mutates or removes the row.
func (l *BookingLedger) transition(
	ctx context.Context,
	op string,
	id int,
	event cancellation.Event,
	authorize func(t *model.TeeTime) bool,
	apply func(tx db.Tx, t *model.TeeTime) error,
) (*model.TeeTime, error) {
	var teeTime model.TeeTime
	err := l.store.WithinTx(ctx, func(tx db.Tx) error {
		existing, err := tx.LockTeeTime(ctx, id)
		if err != nil {
			return err
		}
		if !authorize(existing) {
			return model.ErrUnauthorized
		}
		if _, err := cancellation.Next(cancellation.OfTeeTime(existing), event); err != nil {
			return err
		}
		teeTime = *existing
		return apply(tx, &teeTime)
	})
	if err != nil {
		return nil, failure(l.logger, op, err, zap.Int("tee_time_id", id))
	}
	return &teeTime, nil
}

func staffOnly(actor model.Actor) func(*model.TeeTime) bool {
	return func(*model.TeeTime) bool { return actor.IsStaff() }
}

func setCancellationFlag(ctx context.Context, flag bool) func(db.Tx, *model.TeeTime) error {
	return func(tx db.Tx, t *model.TeeTime) error {
		t.CancellationRequested = flag
		if err := tx.UpdateTeeTime(ctx, t); err != nil {
			return fmt.Errorf("failed to update tee time: %w", err)
		}
		return nil
	}
}

// removeTeeTime deletes the score, player rows and booking of t
func removeTeeTime(ctx context.Context) func(db.Tx, *model.TeeTime) error {
	return func(tx db.Tx, t *model.TeeTime) error {
		if err := tx.DeleteScores(ctx, t.ID); err != nil {
			return fmt.Errorf("failed to delete scores: %w", err)
		}
		if err := tx.DeletePlayers(ctx, t.ID); err != nil {
			return fmt.Errorf("failed to delete players: %w", err)
		}
		if err := tx.DeleteTeeTime(ctx, t.ID); err != nil {
			return fmt.Errorf("failed to delete tee time: %w", err)
		}
		return nil
	}
}

// RequestCancellation flags tee time id for cancellation. The actor must be on the
// tee time or staff. Requesting again leaves the flag set.
func (l *BookingLedger) RequestCancellation(ctx context.Context, id int, actor model.Actor) error {
	l.logger.Debug("Requesting tee time cancellation", zap.Int("tee_time_id", id), zap.Int("actor_id", actor.MemberID))

	teeTime, err := l.transition(ctx, "request tee time cancellation", id, cancellation.Request,
		func(t *model.TeeTime) bool {
			return actor.IsStaff() || (actor.MemberID > 0 && t.HasParticipant(actor.MemberID))
		},
		setCancellationFlag(ctx, true),
	)
	if err != nil {
		return err
	}

	l.logger.Info("Tee time cancellation requested", teeTimeFields(teeTime)...)
	notify(ctx, l.events, l.logger, EventTeeTimeCancellationRequested,
		newTeeTimeEvent(EventTeeTimeCancellationRequested, teeTime, actor.MemberID, l.now()))
	return nil
}

// ApproveCancellation removes a tee time whose cancellation was requested, together
// with its score and player rows. Nothing is removed if any step fails.
func (l *BookingLedger) ApproveCancellation(ctx context.Context, id int, actor model.Actor) error {
	l.logger.Debug("Approving tee time cancellation", zap.Int("tee_time_id", id), zap.Int("actor_id", actor.MemberID))

	teeTime, err := l.transition(ctx, "approve tee time cancellation", id, cancellation.ApproveCancel,
		staffOnly(actor), removeTeeTime(ctx))
	if err != nil {
		return err
	}

	l.logger.Info("Tee time cancelled", teeTimeFields(teeTime)...)
	l.availability.Invalidate(ctx, teeTime.Date)
	notify(ctx, l.events, l.logger, EventTeeTimeRemoved, newTeeTimeEvent(EventTeeTimeRemoved, teeTime, actor.MemberID, l.now()))
	return nil
}

// DenyCancellation clears the cancellation flag; the booking stays active
func (l *BookingLedger) DenyCancellation(ctx context.Context, id int, actor model.Actor) error {
	l.logger.Debug("Denying tee time cancellation", zap.Int("tee_time_id", id), zap.Int("actor_id", actor.MemberID))

	teeTime, err := l.transition(ctx, "deny tee time cancellation", id, cancellation.DenyCancel,
		staffOnly(actor), setCancellationFlag(ctx, false))
	if err != nil {
		return err
	}

	l.logger.Info("Tee time cancellation denied", teeTimeFields(teeTime)...)
	notify(ctx, l.events, l.logger, EventTeeTimeCancellationDenied,
		newTeeTimeEvent(EventTeeTimeCancellationDenied, teeTime, actor.MemberID, l.now()))
	return nil
}

// Delete is the staff hard delete, with the same fan-out as ApproveCancellation
func (l *BookingLedger) Delete(ctx context.Context, id int, actor model.Actor) error {
	l.logger.Debug("Deleting tee time", zap.Int("tee_time_id", id), zap.Int("actor_id", actor.MemberID))

	teeTime, err := l.transition(ctx, "delete tee time", id, cancellation.StaffDelete,
		staffOnly(actor), removeTeeTime(ctx))
	if err != nil {
		return err
	}

	l.logger.Info("Tee time deleted", teeTimeFields(teeTime)...)
	l.availability.Invalidate(ctx, teeTime.Date)
	notify(ctx, l.events, l.logger, EventTeeTimeRemoved, newTeeTimeEvent(EventTeeTimeRemoved, teeTime, actor.MemberID, l.now()))
	return nil
}

// Get returns tee time id
func (l *BookingLedger) Get(ctx context.Context, id int) (*model.TeeTime, error) {
	teeTime, err := l.store.GetTeeTime(ctx, id)
	if err != nil {
		return nil, failure(l.logger, "get tee time", err, zap.Int("tee_time_id", id))
	}
	return teeTime, nil
}

// ListByDate returns the bookings of a date in slot order
func (l *BookingLedger) ListByDate(ctx context.Context, date time.Time) ([]model.TeeTime, error) {
	teeTimes, err := l.store.ListTeeTimesByDate(ctx, model.DateOnly(date))
	if err != nil {
		return nil, failure(l.logger, "list tee times", err, zap.String("date", date.Format(time.DateOnly)))
	}
	return teeTimes, nil
}

// ListJoinable returns bookings from today onwards with a free companion slot
func (l *BookingLedger) ListJoinable(ctx context.Context) ([]model.TeeTime, error) {
	teeTimes, err := l.store.ListJoinableTeeTimes(ctx, model.DateOnly(l.now()))
	if err != nil {
		return nil, failure(l.logger, "list joinable tee times", err)
	}
	return teeTimes, nil
}

// ListByMember returns bookings where memberID is the primary or a companion
func (l *BookingLedger) ListByMember(ctx context.Context, memberID int) ([]model.TeeTime, error) {
	teeTimes, err := l.store.ListTeeTimesByMember(ctx, memberID)
	if err != nil {
		return nil, failure(l.logger, "list member tee times", err, zap.Int("member_id", memberID))
	}
	return teeTimes, nil
}

// ListCancellationRequests returns bookings awaiting a cancellation decision
func (l *BookingLedger) ListCancellationRequests(ctx context.Context) ([]model.TeeTime, error) {
	teeTimes, err := l.store.ListCancellationRequests(ctx)
	if err != nil {
		return nil, failure(l.logger, "list cancellation requests", err)
	}
	return teeTimes, nil
}

// PlayerNames lists the players of tee time id. Names are replaced by "Member #<id>"
// unless the viewer is staff or plays on the tee time.
func (l *BookingLedger) PlayerNames(ctx context.Context, id int, viewer model.Actor) ([]PlayerName, error) {
	teeTime, err := l.store.GetTeeTime(ctx, id)
	if err != nil {
		return nil, failure(l.logger, "list player names", err, zap.Int("tee_time_id", id))
	}

	players := db.PlayersOf(teeTime)
	reveal := viewer.IsStaff() || (viewer.MemberID > 0 && teeTime.HasParticipant(viewer.MemberID))

	var names map[int]string
	if reveal {
		ids := make([]int, 0, len(players))
		for _, p := range players {
			ids = append(ids, p.MemberID)
		}
		names, err = l.MemberNames(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	out := make([]PlayerName, 0, len(players))
	for _, p := range players {
		name, ok := names[p.MemberID]
		if !ok {
			name = fmt.Sprintf("Member #%d", p.MemberID)
		}
		out = append(out, PlayerName{Position: p.Position, MemberID: p.MemberID, Name: name})
	}
	return out, nil
}

// MemberNames maps ids to display names, omitting unknown ids
func (l *BookingLedger) MemberNames(ctx context.Context, ids []int) (map[int]string, error) {
	names, err := l.members.GetMemberNames(ctx, ids)
	if err != nil {
		return nil, failure(l.logger, "look up member names", err, zap.Ints("member_ids", ids))
	}
	return names, nil
}
