package teesheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

var (
	// MinBookingDate and MaxBookingDate bound the dates the members table can store
	MinBookingDate = time.Date(1753, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxBookingDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// MemberLookup resolves member records. GetMember returns model.ErrNotFound for unknown ids.
type MemberLookup interface {
	GetMember(ctx context.Context, id int) (*model.Member, error)
}

// BookingRequest is a proposed single tee time
type BookingRequest struct {
	Date                time.Time
	StartTime           model.TimeOfDay
	EndTime             model.TimeOfDay
	MemberID            int
	AdditionalMemberIDs []int
	Phone               string
	Carts               *int
	EmployeeName        string
}

// Players is the primary member plus companions
func (r BookingRequest) Players() int {
	return 1 + len(r.AdditionalMemberIDs)
}

// Validator checks booking requests. Checks run in a fixed order and stop at the first failure.
type Validator struct {
	grid    Grid
	policy  *AccessPolicy
	members MemberLookup
	now     func() time.Time
}

// NewValidator creates a validator. A nil policy skips tier checks.
func NewValidator(grid Grid, policy *AccessPolicy, members MemberLookup, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{grid: grid, policy: policy, members: members, now: now}
}

// Grid returns the slot grid the validator checks against
func (v *Validator) Grid() Grid {
	return v.grid
}

// Validate returns nil or a *model.ValidationError. Lookup failures other than
// not-found are returned wrapped in model.ErrOperationFailed.
func (v *Validator) Validate(ctx context.Context, req BookingRequest) error {
	if err := v.checkSchedule(req); err != nil {
		return err
	}

	if req.MemberID <= 0 {
		return model.Invalid(model.KindInvalidMember, "member id must be positive, got %d", req.MemberID)
	}

	if players := req.Players(); players < 1 || players > model.MaxPlayers {
		return model.Invalid(model.KindInvalidPlayerCount, "player count must be between 1 and %d, got %d", model.MaxPlayers, players)
	}

	seen := map[int]bool{req.MemberID: true}
	for _, id := range req.AdditionalMemberIDs {
		if id <= 0 {
			return model.Invalid(model.KindInvalidMember, "additional member id must be positive, got %d", id)
		}
		if seen[id] {
			return model.Invalid(model.KindDuplicatePlayer, "member %d appears more than once", id)
		}
		seen[id] = true
	}

	additional := make([]*model.Member, 0, len(req.AdditionalMemberIDs))
	for _, id := range req.AdditionalMemberIDs {
		member, err := v.lookup(ctx, id)
		if err != nil {
			return err
		}
		additional = append(additional, member)
	}

	if v.policy == nil {
		return nil
	}

	primary, err := v.lookup(ctx, req.MemberID)
	if err != nil {
		return err
	}
	for _, member := range append([]*model.Member{primary}, additional...) {
		if err := v.CheckTier(member, req.StartTime); err != nil {
			return err
		}
	}

	return nil
}

// CheckTier rejects member when its tier may not play at start
func (v *Validator) CheckTier(member *model.Member, start model.TimeOfDay) error {
	if v.policy == nil || v.policy.IsAllowed(member.Tier, start) {
		return nil
	}
	return model.Invalid(model.KindTierRestricted, "%s members may not book at %s", member.Tier, start)
}

func (v *Validator) checkSchedule(req BookingRequest) error {
	date := model.DateOnly(req.Date)
	if date.Before(model.DateOnly(v.now())) {
		return model.Invalid(model.KindInvalidDate, "date %s is in the past", date.Format(time.DateOnly))
	}
	if date.Before(MinBookingDate) || date.After(MaxBookingDate) {
		return model.Invalid(model.KindInvalidDate, "date %s is outside the supported range", date.Format(time.DateOnly))
	}

	if !v.grid.InOperatingWindow(req.StartTime) {
		return model.Invalid(model.KindInvalidTimeWindow, "start time %s must be between %s and %s", req.StartTime, v.grid.DayStart, v.grid.DayEnd)
	}
	if req.EndTime <= req.StartTime || req.EndTime.Sub(req.StartTime) != v.grid.Width {
		return model.Invalid(model.KindInvalidTimeWindow, "end time must be exactly %d minutes after start time", v.grid.WidthMinutes())
	}
	if !v.grid.IsAligned(req.StartTime, req.EndTime) {
		return model.Invalid(model.KindMisalignedInterval, "%s-%s is not on the %d minute grid", req.StartTime, req.EndTime, v.grid.WidthMinutes())
	}

	return nil
}

func (v *Validator) lookup(ctx context.Context, id int) (*model.Member, error) {
	member, err := v.members.GetMember(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.Invalid(model.KindUnknownMember, "member %d not found", id)
	}
	if err != nil {
		return nil, model.OperationFailed(fmt.Sprintf("look up member %d", id), err)
	}
	return member, nil
}
