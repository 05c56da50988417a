package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/teesheet"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/db/dbtest"
)

var testNow = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

var (
	admin     = model.Actor{MemberID: 900, Role: model.RoleAdmin, Name: "pro shop admin"}
	clerk     = model.Actor{MemberID: 901, Role: model.RoleShopClerk}
	committee = model.Actor{MemberID: 902, Role: model.RoleCommittee}
)

func member(id int) model.Actor {
	return model.Actor{MemberID: id, Role: model.RoleMember}
}

// mockPublisher records published routing keys
type mockPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (m *mockPublisher) PublishJSON(ctx context.Context, routingKey string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.keys = append(m.keys, routingKey)
	return nil
}

func (m *mockPublisher) published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

// mockCache is a map-backed SlotCache
type mockCache struct {
	slots       map[string][]model.Slot
	gens        map[string]int64
	invalidated []string
	getErr      error
}

func newMockCache() *mockCache {
	return &mockCache{slots: map[string][]model.Slot{}, gens: map[string]int64{}}
}

func (m *mockCache) Generation(ctx context.Context, date time.Time) (int64, error) {
	return m.gens[date.Format(time.DateOnly)], nil
}

func (m *mockCache) Get(ctx context.Context, date time.Time) ([]model.Slot, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	slots, ok := m.slots[date.Format(time.DateOnly)]
	return slots, ok, nil
}

func (m *mockCache) Set(ctx context.Context, date time.Time, gen int64, slots []model.Slot) (bool, error) {
	key := date.Format(time.DateOnly)
	if m.gens[key] != gen {
		return false, nil
	}
	m.slots[key] = slots
	return true, nil
}

func (m *mockCache) Invalidate(ctx context.Context, date time.Time) error {
	key := date.Format(time.DateOnly)
	delete(m.slots, key)
	m.gens[key]++
	m.invalidated = append(m.invalidated, key)
	return nil
}

var errBoom = errors.New("connection reset by peer")

type fixture struct {
	store     *dbtest.Store
	cache     *mockCache
	events    *mockPublisher
	index     *AvailabilityIndex
	ledger    *BookingLedger
	standings *StandingRequestEngine
}

func newFixture() *fixture {
	store := dbtest.New()
	store.AddMember(
		model.Member{ID: 5, FirstName: "Ada", LastName: "Park", Tier: model.TierGoldShareholder},
		model.Member{ID: 6, FirstName: "Ben", LastName: "Ng", Tier: model.TierSilverAssociateSpouse},
		model.Member{ID: 7, FirstName: "Cy", LastName: "Ode", Tier: model.TierBronzeJunior},
		model.Member{ID: 8, FirstName: "Di", LastName: "Ray", Tier: model.TierCopperSocial},
		model.Member{ID: 9, FirstName: "Ed", LastName: "Sun", Tier: model.TierGoldAssociate},
		model.Member{ID: 10, FirstName: "Flo", LastName: "Tan", Tier: model.TierGoldAssociate},
		model.Member{ID: 11, FirstName: "Gus", LastName: "Uy", Tier: model.TierGoldShareholder},
		model.Member{ID: 12, FirstName: "Hal", LastName: "Vo", Tier: model.TierGoldAssociate},
	)

	logger := zap.NewNop()
	cache := newMockCache()
	events := &mockPublisher{}
	grid := teesheet.DefaultGrid()
	validator := teesheet.NewValidator(grid, teesheet.DefaultAccessPolicy(), store, fixedNow)
	index := NewAvailabilityIndex(store, grid, cache, logger)

	return &fixture{
		store:     store,
		cache:     cache,
		events:    events,
		index:     index,
		ledger:    NewBookingLedger(store, store, validator, index, events, logger, fixedNow),
		standings: NewStandingRequestEngine(store, store, nil, events, logger, fixedNow),
	}
}

func july1() time.Time {
	return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
}

func booking(memberID int, start model.TimeOfDay, additional ...int) teesheet.BookingRequest {
	return teesheet.BookingRequest{
		Date:                july1(),
		StartTime:           start,
		EndTime:             start.Add(teesheet.DefaultSlotWidth),
		MemberID:            memberID,
		AdditionalMemberIDs: additional,
	}
}
