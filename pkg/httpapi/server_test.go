package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

type mockAvailability struct {
	slots     []model.Slot
	err       error
	requested time.Time
}

func (m *mockAvailability) OpenSlots(ctx context.Context, date time.Time) ([]model.Slot, error) {
	m.requested = date
	return m.slots, m.err
}

type mockTeeTimes struct {
	joinable []model.TeeTime
	names    map[int]string
	err      error
	asked    []int
}

func (m *mockTeeTimes) ListJoinable(ctx context.Context) ([]model.TeeTime, error) {
	return m.joinable, m.err
}

func (m *mockTeeTimes) MemberNames(ctx context.Context, ids []int) (map[int]string, error) {
	m.asked = ids
	return m.names, m.err
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

func do(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestAvailableSlots(t *testing.T) {
	avail := &mockAvailability{slots: []model.Slot{
		{Start: model.Clock(6, 0), End: model.Clock(6, 8)},
		{Start: model.Clock(6, 16), End: model.Clock(6, 24)},
	}}
	s := NewServer(avail, &mockTeeTimes{}, nil, zap.NewNop())

	rec := do(t, s, "/api/teetimes/available?date=2025-07-01")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2025-07-01","slots":["06:00-06:08","06:16-06:24"]}`, rec.Body.String())
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), avail.requested)
}

func TestAvailableSlots_BadDate(t *testing.T) {
	s := NewServer(&mockAvailability{}, &mockTeeTimes{}, nil, zap.NewNop())

	for _, target := range []string{"/api/teetimes/available", "/api/teetimes/available?date=07/01/2025"} {
		rec := do(t, s, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestAvailableSlots_StoreFailureIsHidden(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	s := NewServer(&mockAvailability{err: model.OperationFailed("list tee times", cause)}, &mockTeeTimes{}, nil, zap.NewNop())

	rec := do(t, s, "/api/teetimes/available?date=2025-07-01")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestJoinableTeeTimes(t *testing.T) {
	teeTimes := &mockTeeTimes{joinable: []model.TeeTime{{
		ID:        4,
		Date:      time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		StartTime: model.Clock(8, 0),
		EndTime:   model.Clock(8, 8),
		MemberID:  5,
		Players:   2,
	}}}
	s := NewServer(&mockAvailability{}, teeTimes, nil, zap.NewNop())

	rec := do(t, s, "/api/teetimes/joinable")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "08:00-08:08", body[0]["slot"])
	assert.Equal(t, float64(2), body[0]["openSpots"])
}

func TestMemberNames(t *testing.T) {
	teeTimes := &mockTeeTimes{names: map[int]string{5: "Ada Park"}}
	s := NewServer(&mockAvailability{}, teeTimes, nil, zap.NewNop())

	rec := do(t, s, "/api/members/names?ids=5,%20404")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"5":"Ada Park"}`, rec.Body.String())
	assert.Equal(t, []int{5, 404}, teeTimes.asked)

	rec = do(t, s, "/api/members/names?ids=five")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s := NewServer(&mockAvailability{}, &mockTeeTimes{}, mockPinger{}, zap.NewNop())
	assert.Equal(t, http.StatusOK, do(t, s, "/healthz").Code)

	s = NewServer(&mockAvailability{}, &mockTeeTimes{}, mockPinger{err: errors.New("down")}, zap.NewNop())
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, "/healthz").Code)
}
