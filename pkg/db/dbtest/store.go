// Package dbtest provides an in-memory db.Store for tests.
//
// Units of work run one at a time against a private copy of the data, which
// replaces the shared copy only when the unit commits. Failures can be injected
// per operation name to exercise rollback paths.
package dbtest

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/db"
)

type state struct {
	teeTimes       map[int]model.TeeTime
	players        map[int][]model.Player
	scores         map[int]model.Score
	standing       map[int]model.StandingRequest
	nextTeeTimeID  int
	nextScoreID    int
	nextStandingID int
}

func newState() *state {
	return &state{
		teeTimes:       map[int]model.TeeTime{},
		players:        map[int][]model.Player{},
		scores:         map[int]model.Score{},
		standing:       map[int]model.StandingRequest{},
		nextTeeTimeID:  1,
		nextScoreID:    1,
		nextStandingID: 1,
	}
}

func (s *state) clone() *state {
	c := *s
	c.teeTimes = maps.Clone(s.teeTimes)
	c.scores = maps.Clone(s.scores)
	c.standing = maps.Clone(s.standing)
	c.players = make(map[int][]model.Player, len(s.players))
	for id, ps := range s.players {
		c.players[id] = slices.Clone(ps)
	}
	return &c
}

// Store is an in-memory db.Store and db.MemberDirectory
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	state    *state
	members  map[int]model.Member
	failures map[string]error

	Commits   int
	Rollbacks int
}

var (
	_ db.Store           = (*Store)(nil)
	_ db.MemberDirectory = (*Store)(nil)
	_ db.Tx              = (*tx)(nil)
)

// New creates an empty store
func New() *Store {
	return &Store{
		state:    newState(),
		members:  map[int]model.Member{},
		failures: map[string]error{},
	}
}

// AddMember registers members in the directory
func (s *Store) AddMember(members ...model.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		s.members[m.ID] = m
	}
}

// FailOn makes every later call of the named operation (e.g. "DeleteScores") return err.
// A nil err clears the failure.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[op]
}

func (s *Store) snapshot() *state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// WithinTx runs fn against a private copy and publishes it only if fn succeeds
func (s *Store) WithinTx(ctx context.Context, fn func(tx db.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := s.fail("Begin"); err != nil {
		return err
	}

	work := s.snapshot().clone()
	if err := fn(&tx{store: s, st: work}); err != nil {
		s.mu.Lock()
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}

	if err := s.fail("Commit"); err != nil {
		s.mu.Lock()
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.state = work
	s.Commits++
	s.mu.Unlock()
	return nil
}

// TeeTimeCount, ScoreCount, PlayerCount and StandingCount report committed rows

func (s *Store) TeeTimeCount() int { return len(s.snapshot().teeTimes) }

func (s *Store) ScoreCount() int { return len(s.snapshot().scores) }

func (s *Store) PlayerCount() int {
	n := 0
	for _, ps := range s.snapshot().players {
		n += len(ps)
	}
	return n
}

func (s *Store) StandingCount() int { return len(s.snapshot().standing) }

// GetMember implements db.MemberDirectory
func (s *Store) GetMember(ctx context.Context, id int) (*model.Member, error) {
	if err := s.fail("GetMember"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &m, nil
}

// GetMemberNames implements db.MemberDirectory
func (s *Store) GetMemberNames(ctx context.Context, ids []int) (map[int]string, error) {
	if err := s.fail("GetMemberNames"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[int]string, len(ids))
	for _, id := range ids {
		if m, ok := s.members[id]; ok {
			names[id] = m.FullName()
		}
	}
	return names, nil
}

func (s *Store) GetTeeTime(ctx context.Context, id int) (*model.TeeTime, error) {
	return s.reader().GetTeeTime(ctx, id)
}

func (s *Store) FindTeeTimeAt(ctx context.Context, date time.Time, slot model.Slot, excludeID int) (*model.TeeTime, error) {
	return s.reader().FindTeeTimeAt(ctx, date, slot, excludeID)
}

func (s *Store) ListTeeTimesByDate(ctx context.Context, date time.Time) ([]model.TeeTime, error) {
	return s.reader().ListTeeTimesByDate(ctx, date)
}

func (s *Store) ListJoinableTeeTimes(ctx context.Context, from time.Time) ([]model.TeeTime, error) {
	return s.reader().ListJoinableTeeTimes(ctx, from)
}

func (s *Store) ListTeeTimesByMember(ctx context.Context, memberID int) ([]model.TeeTime, error) {
	return s.reader().ListTeeTimesByMember(ctx, memberID)
}

func (s *Store) ListCancellationRequests(ctx context.Context) ([]model.TeeTime, error) {
	return s.reader().ListCancellationRequests(ctx)
}

func (s *Store) ListPlayers(ctx context.Context, teeTimeID int) ([]model.Player, error) {
	return s.reader().ListPlayers(ctx, teeTimeID)
}

func (s *Store) GetStandingRequest(ctx context.Context, id int) (*model.StandingRequest, error) {
	return s.reader().GetStandingRequest(ctx, id)
}

func (s *Store) ListStandingRequestsByMember(ctx context.Context, memberID int) ([]model.StandingRequest, error) {
	return s.reader().ListStandingRequestsByMember(ctx, memberID)
}

func (s *Store) ListPendingStandingRequests(ctx context.Context) ([]model.StandingRequest, error) {
	return s.reader().ListPendingStandingRequests(ctx)
}

func (s *Store) ListStandingCancellationRequests(ctx context.Context) ([]model.StandingRequest, error) {
	return s.reader().ListStandingCancellationRequests(ctx)
}

func (s *Store) reader() *tx {
	return &tx{store: s, st: s.snapshot()}
}

// tx operates on one state copy. Outside a unit of work it is only used for reads.
type tx struct {
	store *Store
	st    *state
}

func (t *tx) teeTime(id int) (model.TeeTime, bool) {
	tt, ok := t.st.teeTimes[id]
	if !ok {
		return tt, false
	}
	tt.ScoreID = nil
	for _, score := range t.st.scores {
		if score.TeeTimeID == id {
			scoreID := score.ID
			tt.ScoreID = &scoreID
			break
		}
	}
	return tt, true
}

func (t *tx) filterTeeTimes(keep func(tt *model.TeeTime) bool) []model.TeeTime {
	var out []model.TeeTime
	for id := range t.st.teeTimes {
		tt, _ := t.teeTime(id)
		if keep(&tt) {
			out = append(out, tt)
		}
	}
	slices.SortFunc(out, func(a, b model.TeeTime) int {
		return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.StartTime, b.StartTime), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (t *tx) filterStanding(keep func(r *model.StandingRequest) bool) []model.StandingRequest {
	var out []model.StandingRequest
	for _, r := range t.st.standing {
		if keep(&r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b model.StandingRequest) int {
		return cmp.Or(a.StartDate.Compare(b.StartDate), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (t *tx) GetTeeTime(ctx context.Context, id int) (*model.TeeTime, error) {
	if err := t.store.fail("GetTeeTime"); err != nil {
		return nil, err
	}
	tt, ok := t.teeTime(id)
	if !ok {
		return nil, model.ErrNotFound
	}
	return &tt, nil
}

func (t *tx) FindTeeTimeAt(ctx context.Context, date time.Time, slot model.Slot, excludeID int) (*model.TeeTime, error) {
	if err := t.store.fail("FindTeeTimeAt"); err != nil {
		return nil, err
	}
	date = model.DateOnly(date)
	matches := t.filterTeeTimes(func(tt *model.TeeTime) bool {
		return tt.ID != excludeID && tt.Date.Equal(date) && tt.StartTime == slot.Start && tt.EndTime == slot.End
	})
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

func (t *tx) ListTeeTimesByDate(ctx context.Context, date time.Time) ([]model.TeeTime, error) {
	if err := t.store.fail("ListTeeTimesByDate"); err != nil {
		return nil, err
	}
	date = model.DateOnly(date)
	return t.filterTeeTimes(func(tt *model.TeeTime) bool { return tt.Date.Equal(date) }), nil
}

func (t *tx) ListJoinableTeeTimes(ctx context.Context, from time.Time) ([]model.TeeTime, error) {
	if err := t.store.fail("ListJoinableTeeTimes"); err != nil {
		return nil, err
	}
	from = model.DateOnly(from)
	return t.filterTeeTimes(func(tt *model.TeeTime) bool {
		return tt.Players < model.MaxPlayers && !tt.Date.Before(from)
	}), nil
}

func (t *tx) ListTeeTimesByMember(ctx context.Context, memberID int) ([]model.TeeTime, error) {
	if err := t.store.fail("ListTeeTimesByMember"); err != nil {
		return nil, err
	}
	return t.filterTeeTimes(func(tt *model.TeeTime) bool { return tt.HasParticipant(memberID) }), nil
}

func (t *tx) ListCancellationRequests(ctx context.Context) ([]model.TeeTime, error) {
	if err := t.store.fail("ListCancellationRequests"); err != nil {
		return nil, err
	}
	return t.filterTeeTimes(func(tt *model.TeeTime) bool { return tt.CancellationRequested }), nil
}

func (t *tx) ListPlayers(ctx context.Context, teeTimeID int) ([]model.Player, error) {
	if err := t.store.fail("ListPlayers"); err != nil {
		return nil, err
	}
	return slices.Clone(t.st.players[teeTimeID]), nil
}

func (t *tx) GetStandingRequest(ctx context.Context, id int) (*model.StandingRequest, error) {
	if err := t.store.fail("GetStandingRequest"); err != nil {
		return nil, err
	}
	r, ok := t.st.standing[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &r, nil
}

func (t *tx) ListStandingRequestsByMember(ctx context.Context, memberID int) ([]model.StandingRequest, error) {
	if err := t.store.fail("ListStandingRequestsByMember"); err != nil {
		return nil, err
	}
	return t.filterStanding(func(r *model.StandingRequest) bool { return r.MemberID == memberID }), nil
}

func (t *tx) ListPendingStandingRequests(ctx context.Context) ([]model.StandingRequest, error) {
	if err := t.store.fail("ListPendingStandingRequests"); err != nil {
		return nil, err
	}
	return t.filterStanding(func(r *model.StandingRequest) bool { return !r.IsApproved() }), nil
}

func (t *tx) ListStandingCancellationRequests(ctx context.Context) ([]model.StandingRequest, error) {
	if err := t.store.fail("ListStandingCancellationRequests"); err != nil {
		return nil, err
	}
	return t.filterStanding(func(r *model.StandingRequest) bool { return r.CancellationRequested }), nil
}

func (t *tx) LockTeeTime(ctx context.Context, id int) (*model.TeeTime, error) {
	if err := t.store.fail("LockTeeTime"); err != nil {
		return nil, err
	}
	return t.GetTeeTime(ctx, id)
}

func (t *tx) slotTaken(tt *model.TeeTime) bool {
	date := model.DateOnly(tt.Date)
	for id, other := range t.st.teeTimes {
		if id != tt.ID && other.Date.Equal(date) && other.StartTime == tt.StartTime && other.EndTime == tt.EndTime {
			return true
		}
	}
	return false
}

func (t *tx) InsertTeeTime(ctx context.Context, tt *model.TeeTime) (int, error) {
	if err := t.store.fail("InsertTeeTime"); err != nil {
		return 0, err
	}
	row := *tt
	row.ID = t.st.nextTeeTimeID
	row.Date = model.DateOnly(row.Date)
	row.ScoreID = nil
	if t.slotTaken(&row) {
		return 0, model.ErrSlotUnavailable
	}
	t.st.nextTeeTimeID++
	t.st.teeTimes[row.ID] = row
	return row.ID, nil
}

func (t *tx) UpdateTeeTime(ctx context.Context, tt *model.TeeTime) error {
	if err := t.store.fail("UpdateTeeTime"); err != nil {
		return err
	}
	if _, ok := t.st.teeTimes[tt.ID]; !ok {
		return model.ErrNotFound
	}
	row := *tt
	row.Date = model.DateOnly(row.Date)
	row.ScoreID = nil
	if t.slotTaken(&row) {
		return model.ErrSlotUnavailable
	}
	t.st.teeTimes[row.ID] = row
	return nil
}

func (t *tx) DeleteTeeTime(ctx context.Context, id int) error {
	if err := t.store.fail("DeleteTeeTime"); err != nil {
		return err
	}
	if _, ok := t.st.teeTimes[id]; !ok {
		return model.ErrNotFound
	}
	delete(t.st.teeTimes, id)
	return nil
}

func (t *tx) ReplacePlayers(ctx context.Context, teeTimeID int, players []model.Player) error {
	if err := t.store.fail("ReplacePlayers"); err != nil {
		return err
	}
	t.st.players[teeTimeID] = slices.Clone(players)
	return nil
}

func (t *tx) DeletePlayers(ctx context.Context, teeTimeID int) error {
	if err := t.store.fail("DeletePlayers"); err != nil {
		return err
	}
	delete(t.st.players, teeTimeID)
	return nil
}

func (t *tx) InsertScore(ctx context.Context, s *model.Score) (int, error) {
	if err := t.store.fail("InsertScore"); err != nil {
		return 0, err
	}
	if _, ok := t.st.teeTimes[s.TeeTimeID]; !ok {
		return 0, fmt.Errorf("score references missing tee time %d", s.TeeTimeID)
	}
	row := *s
	row.ID = t.st.nextScoreID
	t.st.nextScoreID++
	t.st.scores[row.ID] = row
	return row.ID, nil
}

func (t *tx) DeleteScores(ctx context.Context, teeTimeID int) error {
	if err := t.store.fail("DeleteScores"); err != nil {
		return err
	}
	for id, score := range t.st.scores {
		if score.TeeTimeID == teeTimeID {
			delete(t.st.scores, id)
		}
	}
	return nil
}

func (t *tx) LockStandingRequest(ctx context.Context, id int) (*model.StandingRequest, error) {
	if err := t.store.fail("LockStandingRequest"); err != nil {
		return nil, err
	}
	return t.GetStandingRequest(ctx, id)
}

func (t *tx) InsertStandingRequest(ctx context.Context, r *model.StandingRequest) (int, error) {
	if err := t.store.fail("InsertStandingRequest"); err != nil {
		return 0, err
	}
	row := *r
	row.ID = t.st.nextStandingID
	t.st.nextStandingID++
	t.st.standing[row.ID] = row
	return row.ID, nil
}

func (t *tx) UpdateStandingRequest(ctx context.Context, r *model.StandingRequest) error {
	if err := t.store.fail("UpdateStandingRequest"); err != nil {
		return err
	}
	if _, ok := t.st.standing[r.ID]; !ok {
		return model.ErrNotFound
	}
	t.st.standing[r.ID] = *r
	return nil
}

func (t *tx) DeleteStandingRequest(ctx context.Context, id int) error {
	if err := t.store.fail("DeleteStandingRequest"); err != nil {
		return err
	}
	if _, ok := t.st.standing[id]; !ok {
		return model.ErrNotFound
	}
	delete(t.st.standing, id)
	return nil
}
