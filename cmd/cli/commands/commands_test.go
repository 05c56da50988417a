package commands

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/services"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/teesheet"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/db/dbtest"
)

func testApp(t *testing.T) (*AppContext, *dbtest.Store) {
	t.Helper()

	now := func() time.Time { return time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC) }
	store := dbtest.New()
	store.AddMember(
		model.Member{ID: 5, FirstName: "Ada", LastName: "Park", Tier: model.TierGoldShareholder},
		model.Member{ID: 6, FirstName: "Ben", LastName: "Ng", Tier: model.TierGoldAssociate},
		model.Member{ID: 7, FirstName: "Cy", LastName: "Ode", Tier: model.TierGoldAssociate},
		model.Member{ID: 8, FirstName: "Di", LastName: "Ray", Tier: model.TierGoldAssociate},
		model.Member{ID: 9, FirstName: "Ed", LastName: "Sun", Tier: model.TierGoldAssociate},
	)

	logger := zap.NewNop()
	grid := teesheet.DefaultGrid()
	validator := teesheet.NewValidator(grid, teesheet.DefaultAccessPolicy(), store, now)
	index := services.NewAvailabilityIndex(store, grid, nil, logger)

	return &AppContext{
		Env:          "test",
		Ledger:       services.NewBookingLedger(store, store, validator, index, nil, logger, now),
		Standing:     services.NewStandingRequestEngine(store, store, nil, nil, logger, now),
		Availability: index,
		Grid:         grid,
		Actor:        model.Actor{MemberID: 900, Role: model.RoleAdmin, Name: "pro shop"},
		Logger:       logger,
		Ctx:          context.Background(),
	}, store
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBookTeeTimeCmd(t *testing.T) {
	app, store := testApp(t)

	out, err := run(t, BookTeeTimeCmd(app), "--date", "2025-07-01", "--start", "08:00", "--member", "5", "--with", "6,7", "--carts", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Tee Time ID: 1")
	assert.Equal(t, 1, store.TeeTimeCount())

	booked, err := app.Ledger.Get(app.Ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.Clock(8, 8), booked.EndTime)
	assert.Equal(t, 3, booked.Players)
	require.NotNil(t, booked.Carts)
	assert.Equal(t, 1, *booked.Carts)

	_, err = run(t, BookTeeTimeCmd(app), "--date", "2025-07-01", "--start", "08:00", "--member", "9")
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)
}

func TestBookTeeTimeCmd_RequiresFlags(t *testing.T) {
	app, store := testApp(t)

	_, err := run(t, BookTeeTimeCmd(app), "--date", "2025-07-01")
	assert.Error(t, err)
	assert.Equal(t, 0, store.TeeTimeCount())
}

func TestUpdateTeeTimeCmd_KeepsUnsetFields(t *testing.T) {
	app, _ := testApp(t)
	_, err := run(t, BookTeeTimeCmd(app), "--date", "2025-07-01", "--start", "08:00", "--member", "5", "--with", "6", "--phone", "780-555-0100")
	require.NoError(t, err)

	_, err = run(t, UpdateTeeTimeCmd(app), "1", "--start", "09:04")
	require.NoError(t, err)

	updated, err := app.Ledger.Get(app.Ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "09:04-09:12", updated.Slot().Label())
	assert.Equal(t, "780-555-0100", updated.Phone)
	assert.Equal(t, []int{5, 6}, updated.PlayerIDs())
}

func TestJoinAndLeaveCmd(t *testing.T) {
	app, _ := testApp(t)
	_, err := run(t, BookTeeTimeCmd(app), "--date", "2025-07-01", "--start", "08:00", "--member", "5")
	require.NoError(t, err)

	out, err := run(t, JoinTeeTimeCmd(app), "1", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Member 9 joined tee time 1")

	out, err = run(t, LeaveTeeTimeCmd(app), "1", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Member 9 left tee time 1")

	out, err = run(t, LeaveTeeTimeCmd(app), "1", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "not an additional player")

	_, err = run(t, JoinTeeTimeCmd(app), "one", "9")
	assert.Error(t, err)
}

func TestCancellationCmds(t *testing.T) {
	app, store := testApp(t)
	_, err := run(t, BookTeeTimeCmd(app), "--date", "2025-07-01", "--start", "08:00", "--member", "5")
	require.NoError(t, err)

	memberApp := *app
	memberApp.Actor = model.Actor{MemberID: 5, Role: model.RoleMember}

	_, err = run(t, RequestCancellationCmd(&memberApp), "1")
	require.NoError(t, err)

	_, err = run(t, ApproveCancellationCmd(&memberApp), "1")
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	out, err := run(t, ListTeeTimesCmd(app), "--cancellations")
	require.NoError(t, err)
	assert.Contains(t, out, "[cancellation requested]")

	out, err = run(t, ApproveCancellationCmd(app), "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Tee time 1 removed")
	assert.Equal(t, 0, store.TeeTimeCount())
	assert.Equal(t, 0, store.ScoreCount())
}

func TestListTeeTimesCmd_RequiresFilter(t *testing.T) {
	app, _ := testApp(t)

	_, err := run(t, ListTeeTimesCmd(app))
	assert.Error(t, err)

	out, err := run(t, ListTeeTimesCmd(app), "--date", "2025-07-01")
	require.NoError(t, err)
	assert.Contains(t, out, "No tee times found")
}

func TestAvailableSlotsCmd(t *testing.T) {
	app, _ := testApp(t)
	_, err := run(t, BookTeeTimeCmd(app), "--date", "2025-07-01", "--start", "06:00", "--member", "5")
	require.NoError(t, err)

	out, err := run(t, AvailableSlotsCmd(app), "2025-07-01")
	require.NoError(t, err)
	assert.Contains(t, out, "104 open slots")
	assert.NotContains(t, out, "06:00-06:08")
	assert.Contains(t, out, "06:08-06:16")
}

func TestPlayersCmd_MasksNamesForOutsiders(t *testing.T) {
	app, _ := testApp(t)
	_, err := run(t, BookTeeTimeCmd(app), "--date", "2025-07-01", "--start", "08:00", "--member", "5", "--with", "6")
	require.NoError(t, err)

	out, err := run(t, PlayersCmd(app), "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Park")

	outsider := *app
	outsider.Actor = model.Actor{MemberID: 9, Role: model.RoleMember}
	out, err = run(t, PlayersCmd(&outsider), "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "Ada Park")
	assert.Contains(t, out, "Member #5")
}

func TestStandingCmds(t *testing.T) {
	app, store := testApp(t)
	shareholder := *app
	shareholder.Actor = model.Actor{MemberID: 5, Role: model.RoleMember}

	out, err := run(t, RequestStandingCmd(&shareholder),
		"--member", "5", "--day", "Tuesday", "--start", "07:04",
		"--start-date", "2025-07-01", "--end-date", "2025-07-29", "--with", "6,7,8")
	require.NoError(t, err)
	assert.Contains(t, out, "submitted for approval")
	assert.Equal(t, 1, store.StandingCount())

	out, err = run(t, ListStandingCmd(app), "--pending")
	require.NoError(t, err)
	assert.Contains(t, out, "pending")

	out, err = run(t, ApproveStandingCmd(app), "1")
	require.NoError(t, err)
	assert.Contains(t, out, "approved by pro shop")

	out, err = run(t, StandingDatesCmd(app), "1")
	require.NoError(t, err)
	assert.Contains(t, out, "(5 dates)")
	assert.Contains(t, out, "2025-07-29 (Tuesday)")

	_, err = run(t, RequestStandingCancellationCmd(&shareholder), "1")
	require.NoError(t, err)

	_, err = run(t, ApproveStandingCancellationCmd(app), "1")
	require.NoError(t, err)
	assert.Equal(t, 0, store.StandingCount())
}

func TestRequestStandingCmd_IncompleteFoursome(t *testing.T) {
	app, store := testApp(t)

	_, err := run(t, RequestStandingCmd(app),
		"--member", "5", "--start", "07:04",
		"--start-date", "2025-07-01", "--end-date", "2025-07-29", "--with", "6,7")
	assert.Equal(t, model.KindIncompleteFoursome, model.ValidationKindOf(err))
	assert.Equal(t, 0, store.StandingCount())
}

func TestParseID(t *testing.T) {
	id, err := parseID("tee_time_id", "12")
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	for _, bad := range []string{"0", "-3", "abc"} {
		_, err := parseID("tee_time_id", bad)
		assert.Error(t, err, bad)
	}
}
