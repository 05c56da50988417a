package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/cancellation"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/db"
)

// StandingRequestInput is a proposed recurring weekly reservation
type StandingRequestInput struct {
	MemberID int
	// DayOfWeek is optional; when set it must name the weekday of StartDate
	DayOfWeek           string
	RequestedStartTime  model.TimeOfDay
	RequestedEndTime    model.TimeOfDay
	StartDate           time.Time
	EndDate             time.Time
	AdditionalPlayerIDs []int
}

// StandingRequestEngine validates recurring requests and runs their approval and
// cancellation workflow. It never creates single tee times.
type StandingRequestEngine struct {
	store    db.Store
	members  db.MemberDirectory
	priority PriorityStrategy
	events   EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewStandingRequestEngine creates an engine. A nil priority assigns 1 to every request.
func NewStandingRequestEngine(
	store db.Store,
	members db.MemberDirectory,
	priority PriorityStrategy,
	events EventPublisher,
	logger *zap.Logger,
	now func() time.Time,
) *StandingRequestEngine {
	if priority == nil {
		priority = ConstantPriority{Value: 1}
	}
	if now == nil {
		now = time.Now
	}
	return &StandingRequestEngine{
		store:    store,
		members:  members,
		priority: priority,
		events:   events,
		logger:   logger,
		now:      now,
	}
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday accepts full or three letter English day names in any case
func ParseWeekday(s string) (time.Weekday, bool) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// Validate checks in and returns the pending request it describes, with its priority assigned
func (e *StandingRequestEngine) Validate(ctx context.Context, in StandingRequestInput) (*model.StandingRequest, error) {
	req, _, err := e.validate(ctx, in)
	if err != nil {
		return nil, failure(e.logger, "validate standing request", err, zap.Int("member_id", in.MemberID))
	}
	return req, nil
}

func (e *StandingRequestEngine) validate(ctx context.Context, in StandingRequestInput) (*model.StandingRequest, *model.Member, error) {
	if len(in.AdditionalPlayerIDs) != model.AdditionalSlots {
		return nil, nil, model.Invalid(model.KindIncompleteFoursome, "standing requests need exactly %d additional players, got %d", model.AdditionalSlots, len(in.AdditionalPlayerIDs))
	}
	for _, id := range in.AdditionalPlayerIDs {
		if id <= 0 {
			return nil, nil, model.Invalid(model.KindIncompleteFoursome, "all %d additional players are required", model.AdditionalSlots)
		}
	}
	if in.MemberID <= 0 {
		return nil, nil, model.Invalid(model.KindInvalidMember, "member id must be positive, got %d", in.MemberID)
	}

	seen := map[int]bool{in.MemberID: true}
	for _, id := range in.AdditionalPlayerIDs {
		if seen[id] {
			return nil, nil, model.Invalid(model.KindDuplicatePlayer, "member %d appears more than once", id)
		}
		seen[id] = true
	}

	startDate := model.DateOnly(in.StartDate)
	endDate := model.DateOnly(in.EndDate)

	day := startDate.Weekday()
	if in.DayOfWeek != "" {
		parsed, ok := ParseWeekday(in.DayOfWeek)
		if !ok {
			return nil, nil, model.Invalid(model.KindInvalidDayOfWeek, "%q is not a day of the week", in.DayOfWeek)
		}
		if parsed != day {
			return nil, nil, model.Invalid(model.KindInvalidDayOfWeek, "start date %s is a %s, not a %s", startDate.Format(time.DateOnly), day, parsed)
		}
	}

	for _, t := range []model.TimeOfDay{in.RequestedStartTime, in.RequestedEndTime} {
		if t < 0 || t >= model.MinutesPerDay {
			return nil, nil, model.Invalid(model.KindInvalidTimeWindow, "time %d minutes is outside the day", t.Minutes())
		}
	}
	if in.RequestedEndTime <= in.RequestedStartTime {
		return nil, nil, model.Invalid(model.KindInvalidTimeWindow, "end time %s must be after start time %s", in.RequestedEndTime, in.RequestedStartTime)
	}

	if startDate.Before(model.DateOnly(e.now())) {
		return nil, nil, model.Invalid(model.KindInvalidDate, "start date %s is in the past", startDate.Format(time.DateOnly))
	}
	if endDate.Before(startDate) {
		return nil, nil, model.Invalid(model.KindInvalidDate, "end date %s is before start date %s", endDate.Format(time.DateOnly), startDate.Format(time.DateOnly))
	}

	var primary *model.Member
	for _, id := range append([]int{in.MemberID}, in.AdditionalPlayerIDs...) {
		member, err := e.members.GetMember(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil, model.Invalid(model.KindUnknownMember, "member %d not found", id)
		}
		if err != nil {
			return nil, nil, model.OperationFailed(fmt.Sprintf("look up member %d", id), err)
		}
		if id == in.MemberID {
			primary = member
		}
	}

	req := &model.StandingRequest{
		MemberID:           in.MemberID,
		DayOfWeek:          day,
		RequestedStartTime: in.RequestedStartTime,
		RequestedEndTime:   in.RequestedEndTime,
		StartDate:          startDate,
		EndDate:            endDate,
	}
	copy(req.AdditionalPlayerIDs[:], in.AdditionalPlayerIDs)
	req.PriorityNumber = e.priority.AssignPriority(req)

	e.logger.Debug("Standing request valid",
		zap.Int("member_id", in.MemberID),
		zap.String("priority_strategy", e.priority.Name()),
		zap.Int("priority", req.PriorityNumber))

	return req, primary, nil
}

// Create validates in and stores it as pending. Only Gold Shareholders hold standing
// tee times, and only the member or staff may submit one for them.
func (e *StandingRequestEngine) Create(ctx context.Context, actor model.Actor, in StandingRequestInput) (*model.StandingRequest, error) {
	fields := []zap.Field{zap.Int("member_id", in.MemberID), zap.Int("actor_id", actor.MemberID)}
	e.logger.Debug("Creating standing request", fields...)

	if actor.MemberID != in.MemberID && !actor.IsStaff() {
		return nil, failure(e.logger, "create standing request", model.ErrUnauthorized, fields...)
	}
	req, primary, err := e.validate(ctx, in)
	if err != nil {
		return nil, failure(e.logger, "create standing request", err, fields...)
	}
	if !primary.Tier.IsShareholder() {
		return nil, failure(e.logger, "create standing request", model.ErrUnauthorized, append(fields, zap.Stringer("tier", primary.Tier))...)
	}

	err = e.store.WithinTx(ctx, func(tx db.Tx) error {
		id, err := tx.InsertStandingRequest(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to insert standing request: %w", err)
		}
		req.ID = id
		return nil
	})
	if err != nil {
		return nil, failure(e.logger, "create standing request", err, fields...)
	}

	e.logger.Info("Standing request created",
		zap.Int("standing_request_id", req.ID),
		zap.Int("member_id", req.MemberID),
		zap.Stringer("day", req.DayOfWeek),
		zap.Stringer("start", req.RequestedStartTime))
	notify(ctx, e.events, e.logger, EventStandingCreated, newStandingEvent(EventStandingCreated, req, actor.MemberID, e.now()))

	return req, nil
}

func (e *StandingRequestEngine) transition(
	ctx context.Context,
	op string,
	id int,
	event cancellation.Event,
	authorize func(r *model.StandingRequest) bool,
	apply func(tx db.Tx, r *model.StandingRequest) error,
) (*model.StandingRequest, error) {
	var req model.StandingRequest
	err := e.store.WithinTx(ctx, func(tx db.Tx) error {
		existing, err := tx.LockStandingRequest(ctx, id)
		if err != nil {
			return err
		}
		if !authorize(existing) {
			return model.ErrUnauthorized
		}
		if _, err := cancellation.Next(cancellation.OfStandingRequest(existing), event); err != nil {
			return err
		}
		req = *existing
		return apply(tx, &req)
	})
	if err != nil {
		return nil, failure(e.logger, op, err, zap.Int("standing_request_id", id))
	}
	return &req, nil
}

func staffOnlyStanding(actor model.Actor) func(*model.StandingRequest) bool {
	return func(*model.StandingRequest) bool { return actor.IsStaff() }
}

func updateStanding(ctx context.Context, mutate func(r *model.StandingRequest)) func(db.Tx, *model.StandingRequest) error {
	return func(tx db.Tx, r *model.StandingRequest) error {
		mutate(r)
		if err := tx.UpdateStandingRequest(ctx, r); err != nil {
			return fmt.Errorf("failed to update standing request: %w", err)
		}
		return nil
	}
}

func deleteStanding(ctx context.Context) func(db.Tx, *model.StandingRequest) error {
	return func(tx db.Tx, r *model.StandingRequest) error {
		if err := tx.DeleteStandingRequest(ctx, r.ID); err != nil {
			return fmt.Errorf("failed to delete standing request: %w", err)
		}
		return nil
	}
}

// approverName is recorded on approval; staff without a display name are recorded by role
func approverName(actor model.Actor) string {
	if actor.Name != "" {
		return actor.Name
	}
	return string(actor.Role)
}

// Approve accepts a pending request at its requested time. No separate approved
// time is recorded; EffectiveTime falls back to the requested start.
func (e *StandingRequestEngine) Approve(ctx context.Context, id int, actor model.Actor) (*model.StandingRequest, error) {
	e.logger.Debug("Approving standing request", zap.Int("standing_request_id", id), zap.Int("actor_id", actor.MemberID))

	approvedAt := e.now()
	req, err := e.transition(ctx, "approve standing request", id, cancellation.Approve, staffOnlyStanding(actor),
		updateStanding(ctx, func(r *model.StandingRequest) {
			r.ApprovedBy = approverName(actor)
			r.ApprovedDate = &approvedAt
		}))
	if err != nil {
		return nil, err
	}

	e.logger.Info("Standing request approved", zap.Int("standing_request_id", id), zap.String("approved_by", req.ApprovedBy))
	notify(ctx, e.events, e.logger, EventStandingApproved, newStandingEvent(EventStandingApproved, req, actor.MemberID, approvedAt))
	return req, nil
}

// Deny removes a pending request
func (e *StandingRequestEngine) Deny(ctx context.Context, id int, actor model.Actor) error {
	e.logger.Debug("Denying standing request", zap.Int("standing_request_id", id), zap.Int("actor_id", actor.MemberID))

	req, err := e.transition(ctx, "deny standing request", id, cancellation.Deny, staffOnlyStanding(actor), deleteStanding(ctx))
	if err != nil {
		return err
	}

	e.logger.Info("Standing request denied", zap.Int("standing_request_id", id))
	notify(ctx, e.events, e.logger, EventStandingDenied, newStandingEvent(EventStandingDenied, req, actor.MemberID, e.now()))
	return nil
}

// RequestCancellation flags an approved request. The actor must own it or be staff.
func (e *StandingRequestEngine) RequestCancellation(ctx context.Context, id int, actor model.Actor) error {
	e.logger.Debug("Requesting standing cancellation", zap.Int("standing_request_id", id), zap.Int("actor_id", actor.MemberID))

	req, err := e.transition(ctx, "request standing cancellation", id, cancellation.Request,
		func(r *model.StandingRequest) bool {
			return actor.IsStaff() || (actor.MemberID > 0 && actor.MemberID == r.MemberID)
		},
		updateStanding(ctx, func(r *model.StandingRequest) { r.CancellationRequested = true }))
	if err != nil {
		return err
	}

	e.logger.Info("Standing cancellation requested", zap.Int("standing_request_id", id))
	notify(ctx, e.events, e.logger, EventStandingCancellationRequested,
		newStandingEvent(EventStandingCancellationRequested, req, actor.MemberID, e.now()))
	return nil
}

// ApproveCancellation removes a request whose cancellation was requested
func (e *StandingRequestEngine) ApproveCancellation(ctx context.Context, id int, actor model.Actor) error {
	e.logger.Debug("Approving standing cancellation", zap.Int("standing_request_id", id), zap.Int("actor_id", actor.MemberID))

	req, err := e.transition(ctx, "approve standing cancellation", id, cancellation.ApproveCancel,
		staffOnlyStanding(actor), deleteStanding(ctx))
	if err != nil {
		return err
	}

	e.logger.Info("Standing request cancelled", zap.Int("standing_request_id", id))
	notify(ctx, e.events, e.logger, EventStandingRemoved, newStandingEvent(EventStandingRemoved, req, actor.MemberID, e.now()))
	return nil
}

// DenyCancellation clears the cancellation flag; the request stays approved
func (e *StandingRequestEngine) DenyCancellation(ctx context.Context, id int, actor model.Actor) error {
	e.logger.Debug("Denying standing cancellation", zap.Int("standing_request_id", id), zap.Int("actor_id", actor.MemberID))

	req, err := e.transition(ctx, "deny standing cancellation", id, cancellation.DenyCancel,
		staffOnlyStanding(actor),
		updateStanding(ctx, func(r *model.StandingRequest) { r.CancellationRequested = false }))
	if err != nil {
		return err
	}

	e.logger.Info("Standing cancellation denied", zap.Int("standing_request_id", id))
	notify(ctx, e.events, e.logger, EventStandingCancellationDenied,
		newStandingEvent(EventStandingCancellationDenied, req, actor.MemberID, e.now()))
	return nil
}

// Delete is the staff hard delete of an approved request
func (e *StandingRequestEngine) Delete(ctx context.Context, id int, actor model.Actor) error {
	e.logger.Debug("Deleting standing request", zap.Int("standing_request_id", id), zap.Int("actor_id", actor.MemberID))

	req, err := e.transition(ctx, "delete standing request", id, cancellation.StaffDelete,
		staffOnlyStanding(actor), deleteStanding(ctx))
	if err != nil {
		return err
	}

	e.logger.Info("Standing request deleted", zap.Int("standing_request_id", id))
	notify(ctx, e.events, e.logger, EventStandingRemoved, newStandingEvent(EventStandingRemoved, req, actor.MemberID, e.now()))
	return nil
}

// Get returns standing request id
func (e *StandingRequestEngine) Get(ctx context.Context, id int) (*model.StandingRequest, error) {
	req, err := e.store.GetStandingRequest(ctx, id)
	if err != nil {
		return nil, failure(e.logger, "get standing request", err, zap.Int("standing_request_id", id))
	}
	return req, nil
}

// ListByMember returns the member's standing requests
func (e *StandingRequestEngine) ListByMember(ctx context.Context, memberID int) ([]model.StandingRequest, error) {
	reqs, err := e.store.ListStandingRequestsByMember(ctx, memberID)
	if err != nil {
		return nil, failure(e.logger, "list member standing requests", err, zap.Int("member_id", memberID))
	}
	return reqs, nil
}

// ListPending returns requests with no approver
func (e *StandingRequestEngine) ListPending(ctx context.Context) ([]model.StandingRequest, error) {
	reqs, err := e.store.ListPendingStandingRequests(ctx)
	if err != nil {
		return nil, failure(e.logger, "list pending standing requests", err)
	}
	return reqs, nil
}

// ListCancellationRequests returns approved requests awaiting a cancellation decision
func (e *StandingRequestEngine) ListCancellationRequests(ctx context.Context) ([]model.StandingRequest, error) {
	reqs, err := e.store.ListStandingCancellationRequests(ctx)
	if err != nil {
		return nil, failure(e.logger, "list standing cancellation requests", err)
	}
	return reqs, nil
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Occurrences returns the calendar dates req resolves to: every DayOfWeek from
// StartDate through EndDate inclusive
func Occurrences(req *model.StandingRequest) ([]time.Time, error) {
	start := model.DateOnly(req.StartDate)
	end := model.DateOnly(req.EndDate)
	if end.Before(start) {
		return nil, nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Until:     end,
		Byweekday: []rrule.Weekday{rruleWeekdays[req.DayOfWeek]},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build recurrence rule: %w", err)
	}

	return rule.All(), nil
}
