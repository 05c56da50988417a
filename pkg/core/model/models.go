package model

import (
	"slices"
	"strings"
	"time"
)

// MaxPlayers is the size of a full group
const MaxPlayers = 4

// AdditionalSlots is the number of companion positions on a tee time
const AdditionalSlots = MaxPlayers - 1

type Role string

const (
	RoleMember    Role = "member"
	RoleCommittee Role = "committee"
	RoleShopClerk Role = "shopclerk"
	RoleEmployee  Role = "employee"
	RoleAdmin     Role = "admin"
)

// ParseRole normalises a role name; unknown names map to RoleMember
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r.IsValid() {
		return r
	}
	return RoleMember
}

func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleCommittee, RoleShopClerk, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may manage other members' tee times
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleShopClerk || r == RoleEmployee
}

// Actor identifies who is performing an operation
type Actor struct {
	MemberID int
	Role     Role
	Name     string // Display/user name, recorded as approver
}

// IsStaff reports whether the actor holds a staff role
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// Member is the subset of a member record the tee sheet needs
type Member struct {
	ID        int
	FirstName string
	LastName  string
	Phone     string
	Tier      Tier
}

// FullName returns "First Last"
func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Slot is one canonical reservation window of the day
type Slot struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Label formats the slot as "HH:MM-HH:MM"
func (s Slot) Label() string {
	return s.Start.String() + "-" + s.End.String()
}

// TeeTime is a single reservation.
// AdditionalMemberIDs holds companion slots 1-3 in order; zero marks an empty slot.
type TeeTime struct {
	ID                    int
	Date                  time.Time
	StartTime             TimeOfDay
	EndTime               TimeOfDay
	MemberID              int
	AdditionalMemberIDs   [AdditionalSlots]int
	Players               int
	Phone                 string
	Carts                 *int
	EmployeeName          string
	ScoreID               *int
	CancellationRequested bool
}

// Slot returns the reserved window
func (t *TeeTime) Slot() Slot {
	return Slot{Start: t.StartTime, End: t.EndTime}
}

// Additional returns the occupied companion ids in slot order
func (t *TeeTime) Additional() []int {
	ids := make([]int, 0, AdditionalSlots)
	for _, id := range t.AdditionalMemberIDs {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// SetAdditional fills companion slots from ids in order and recounts players
func (t *TeeTime) SetAdditional(ids []int) {
	t.AdditionalMemberIDs = [AdditionalSlots]int{}
	for i, id := range ids {
		if i >= AdditionalSlots {
			break
		}
		t.AdditionalMemberIDs[i] = id
	}
	t.RecountPlayers()
}

// RecountPlayers sets Players to 1 + occupied companion slots
func (t *TeeTime) RecountPlayers() {
	t.Players = 1 + len(t.Additional())
}

// PlayerIDs returns the primary member followed by occupied companion slots
func (t *TeeTime) PlayerIDs() []int {
	return append([]int{t.MemberID}, t.Additional()...)
}

// HasParticipant reports whether memberID is the primary or a companion
func (t *TeeTime) HasParticipant(memberID int) bool {
	return t.MemberID == memberID || slices.Contains(t.AdditionalMemberIDs[:], memberID)
}

// IsFull reports whether no companion slot is free
func (t *TeeTime) IsFull() bool {
	return t.Players >= MaxPlayers
}

// Score is the scorecard placeholder created with every tee time
type Score struct {
	ID        int
	TeeTimeID int
	MemberID  int
	Date      time.Time
}

// Player is one occupied position on a tee time (0 = primary, 1-3 = companions)
type Player struct {
	TeeTimeID int
	MemberID  int
	Position  int
}

// StandingRequest is a recurring weekly reservation request for a foursome
type StandingRequest struct {
	ID                    int
	MemberID              int
	DayOfWeek             time.Weekday
	RequestedStartTime    TimeOfDay
	RequestedEndTime      TimeOfDay
	StartDate             time.Time
	EndDate               time.Time
	AdditionalPlayerIDs   [AdditionalSlots]int
	ApprovedTeeTime       *TimeOfDay
	ApprovedBy            string
	ApprovedDate          *time.Time
	PriorityNumber        int
	CancellationRequested bool
}

// IsApproved reports whether an approver has been recorded
func (r *StandingRequest) IsApproved() bool {
	return r.ApprovedBy != ""
}

// EffectiveTime is the approved tee time if one was set, otherwise the requested start
func (r *StandingRequest) EffectiveTime() TimeOfDay {
	if r.ApprovedTeeTime != nil {
		return *r.ApprovedTeeTime
	}
	return r.RequestedStartTime
}

// PlayerIDs returns the primary member followed by the three additional players
func (r *StandingRequest) PlayerIDs() []int {
	return append([]int{r.MemberID}, r.AdditionalPlayerIDs[:]...)
}
