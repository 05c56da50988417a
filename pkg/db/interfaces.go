package db

import (
	"context"
	"time"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

// TeeTimeQueries are tee time reads. Single-record reads return model.ErrNotFound when absent.
type TeeTimeQueries interface {
	GetTeeTime(ctx context.Context, id int) (*model.TeeTime, error)
	// FindTeeTimeAt returns the booking holding exactly (date, slot), ignoring excludeID.
	// It returns nil and no error when the slot is free.
	FindTeeTimeAt(ctx context.Context, date time.Time, slot model.Slot, excludeID int) (*model.TeeTime, error)
	ListTeeTimesByDate(ctx context.Context, date time.Time) ([]model.TeeTime, error)
	ListJoinableTeeTimes(ctx context.Context, from time.Time) ([]model.TeeTime, error)
	ListTeeTimesByMember(ctx context.Context, memberID int) ([]model.TeeTime, error)
	ListCancellationRequests(ctx context.Context) ([]model.TeeTime, error)
	ListPlayers(ctx context.Context, teeTimeID int) ([]model.Player, error)
}

// StandingRequestQueries are standing request reads
type StandingRequestQueries interface {
	GetStandingRequest(ctx context.Context, id int) (*model.StandingRequest, error)
	ListStandingRequestsByMember(ctx context.Context, memberID int) ([]model.StandingRequest, error)
	ListPendingStandingRequests(ctx context.Context) ([]model.StandingRequest, error)
	ListStandingCancellationRequests(ctx context.Context) ([]model.StandingRequest, error)
}

// Queries is every read the tee sheet performs
type Queries interface {
	TeeTimeQueries
	StandingRequestQueries
}

// Tx is a unit of work. Writes become visible only if the enclosing WithinTx commits.
type Tx interface {
	Queries

	// LockTeeTime reads a tee time and holds it until the unit of work ends
	LockTeeTime(ctx context.Context, id int) (*model.TeeTime, error)
	// InsertTeeTime returns model.ErrSlotUnavailable if (date, start, end) is already booked
	InsertTeeTime(ctx context.Context, t *model.TeeTime) (int, error)
	// UpdateTeeTime returns model.ErrSlotUnavailable if the new slot is held by another booking
	UpdateTeeTime(ctx context.Context, t *model.TeeTime) error
	DeleteTeeTime(ctx context.Context, id int) error

	ReplacePlayers(ctx context.Context, teeTimeID int, players []model.Player) error
	DeletePlayers(ctx context.Context, teeTimeID int) error

	InsertScore(ctx context.Context, s *model.Score) (int, error)
	DeleteScores(ctx context.Context, teeTimeID int) error

	LockStandingRequest(ctx context.Context, id int) (*model.StandingRequest, error)
	InsertStandingRequest(ctx context.Context, r *model.StandingRequest) (int, error)
	UpdateStandingRequest(ctx context.Context, r *model.StandingRequest) error
	DeleteStandingRequest(ctx context.Context, id int) error
}

// Store is the persistence capability handed to every component
type Store interface {
	Queries

	// WithinTx runs fn in a unit of work, committing if fn returns nil and
	// rolling back on any error or panic
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// MemberDirectory is the read-only view of member records owned by the membership system
type MemberDirectory interface {
	// GetMember returns model.ErrNotFound for unknown ids
	GetMember(ctx context.Context, id int) (*model.Member, error)
	// GetMemberNames maps ids to display names, omitting unknown ids
	GetMemberNames(ctx context.Context, ids []int) (map[int]string, error)
}

// PlayersOf lists the occupied positions of t (0 = primary, 1-3 = companions)
func PlayersOf(t *model.TeeTime) []model.Player {
	players := []model.Player{{TeeTimeID: t.ID, MemberID: t.MemberID, Position: 0}}
	for i, id := range t.AdditionalMemberIDs {
		if id != 0 {
			players = append(players, model.Player{TeeTimeID: t.ID, MemberID: id, Position: i + 1})
		}
	}
	return players
}
