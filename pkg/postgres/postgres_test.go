package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/db"
)

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(pgx.ErrNoRows), model.ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), model.ErrNotFound)

	slotTaken := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "tee_times_slot_key"}
	assert.ErrorIs(t, mapError(slotTaken), model.ErrSlotUnavailable)

	otherUnique := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "tee_time_players_pkey"}
	assert.Equal(t, otherUnique, mapError(otherUnique))

	boom := errors.New("boom")
	assert.Equal(t, boom, mapError(boom))
}

func TestPgTimeRoundTrip(t *testing.T) {
	for _, tod := range []model.TimeOfDay{model.Clock(0, 0), model.Clock(6, 0), model.Clock(19, 52), model.Clock(24, 0)} {
		assert.Equal(t, tod, timeOfDay(pgTime(tod)))
	}
	assert.Equal(t, int64(6*time.Hour/time.Microsecond), pgTime(model.Clock(6, 0)).Microseconds)
}

func TestNullableID(t *testing.T) {
	assert.Nil(t, nullableID(0))
	require.NotNil(t, nullableID(7))
	assert.Equal(t, 7, idOrZero(nullableID(7)))
	assert.Equal(t, 0, idOrZero(nil))
}

// openTestDB connects to TEE_SHEET_TEST_DATABASE_URL and migrates it. The database
// should be disposable; every test works on rows it creates itself.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEE_SHEET_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEE_SHEET_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := NewDB(ctx, url)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	_, err = database.RunMigrations(ctx)
	require.NoError(t, err)
	return database
}

func insertTestMember(t *testing.T, d *DB, tier model.Tier) int {
	t.Helper()
	id, err := d.InsertMember(context.Background(), &model.Member{FirstName: "Test", LastName: "Member", Tier: tier})
	require.NoError(t, err)
	return id
}

// farDate picks a date unlikely to collide with other runs
func farDate() time.Time {
	return time.Date(2400+time.Now().Nanosecond()%500, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, time.Now().Nanosecond()%300)
}

func TestIntegration_SlotUniqueness(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	memberID := insertTestMember(t, d, model.TierGoldShareholder)
	date := farDate()

	teeTime := &model.TeeTime{Date: date, StartTime: model.Clock(8, 0), EndTime: model.Clock(8, 8), MemberID: memberID, Players: 1}

	var firstID int
	err := d.WithinTx(ctx, func(tx db.Tx) error {
		id, err := tx.InsertTeeTime(ctx, teeTime)
		firstID = id
		return err
	})
	require.NoError(t, err)

	err = d.WithinTx(ctx, func(tx db.Tx) error {
		_, err := tx.InsertTeeTime(ctx, teeTime)
		return err
	})
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	found, err := d.FindTeeTimeAt(ctx, date, teeTime.Slot(), 0)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, firstID, found.ID)

	found, err = d.FindTeeTimeAt(ctx, date, teeTime.Slot(), firstID)
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, d.WithinTx(ctx, func(tx db.Tx) error {
		return tx.DeleteTeeTime(ctx, firstID)
	}))
}

func TestIntegration_RollbackOnError(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	memberID := insertTestMember(t, d, model.TierGoldShareholder)
	date := farDate()

	boom := errors.New("boom")
	var id int
	err := d.WithinTx(ctx, func(tx db.Tx) error {
		var err error
		teeTime := &model.TeeTime{Date: date, StartTime: model.Clock(9, 0), EndTime: model.Clock(9, 8), MemberID: memberID, Players: 1}
		id, err = tx.InsertTeeTime(ctx, teeTime)
		require.NoError(t, err)
		_, err = tx.InsertScore(ctx, &model.Score{TeeTimeID: id, MemberID: memberID, Date: date})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = d.GetTeeTime(ctx, id)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestIntegration_TeeTimeRoundTrip(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	primary := insertTestMember(t, d, model.TierGoldShareholder)
	companion := insertTestMember(t, d, model.TierSilverAssociateSpouse)
	date := farDate()
	carts := 2

	teeTime := &model.TeeTime{
		Date: date, StartTime: model.Clock(10, 0), EndTime: model.Clock(10, 8),
		MemberID: primary, Phone: "780-555-0101", Carts: &carts,
	}
	teeTime.SetAdditional([]int{0, companion})

	err := d.WithinTx(ctx, func(tx db.Tx) error {
		id, err := tx.InsertTeeTime(ctx, teeTime)
		if err != nil {
			return err
		}
		teeTime.ID = id
		if err := tx.ReplacePlayers(ctx, id, db.PlayersOf(teeTime)); err != nil {
			return err
		}
		_, err = tx.InsertScore(ctx, &model.Score{TeeTimeID: id, MemberID: primary, Date: date})
		return err
	})
	require.NoError(t, err)

	got, err := d.GetTeeTime(ctx, teeTime.ID)
	require.NoError(t, err)
	assert.Equal(t, [3]int{0, companion, 0}, got.AdditionalMemberIDs)
	assert.Equal(t, 2, got.Players)
	assert.Equal(t, "10:00-10:08", got.Slot().Label())
	require.NotNil(t, got.Carts)
	assert.Equal(t, 2, *got.Carts)
	assert.NotNil(t, got.ScoreID)

	players, err := d.ListPlayers(ctx, teeTime.ID)
	require.NoError(t, err)
	assert.Len(t, players, 2)

	require.NoError(t, d.WithinTx(ctx, func(tx db.Tx) error {
		if err := tx.DeleteScores(ctx, teeTime.ID); err != nil {
			return err
		}
		if err := tx.DeletePlayers(ctx, teeTime.ID); err != nil {
			return err
		}
		return tx.DeleteTeeTime(ctx, teeTime.ID)
	}))
}

func TestIntegration_StandingRequestRoundTrip(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	ids := []int{
		insertTestMember(t, d, model.TierGoldShareholder),
		insertTestMember(t, d, model.TierGoldAssociate),
		insertTestMember(t, d, model.TierGoldAssociate),
		insertTestMember(t, d, model.TierGoldAssociate),
	}
	start := farDate()

	req := &model.StandingRequest{
		MemberID:            ids[0],
		DayOfWeek:           start.Weekday(),
		RequestedStartTime:  model.Clock(7, 0),
		RequestedEndTime:    model.Clock(7, 8),
		StartDate:           start,
		EndDate:             start.AddDate(0, 2, 0),
		AdditionalPlayerIDs: [3]int{ids[1], ids[2], ids[3]},
		PriorityNumber:      1,
	}

	err := d.WithinTx(ctx, func(tx db.Tx) error {
		id, err := tx.InsertStandingRequest(ctx, req)
		req.ID = id
		return err
	})
	require.NoError(t, err)

	got, err := d.GetStandingRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, got.IsApproved())
	assert.Equal(t, start.Weekday(), got.DayOfWeek)

	now := time.Now().UTC().Truncate(time.Second)
	got.ApprovedBy = "admin"
	got.ApprovedDate = &now
	require.NoError(t, d.WithinTx(ctx, func(tx db.Tx) error {
		return tx.UpdateStandingRequest(ctx, got)
	}))

	got, err = d.GetStandingRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved())
	assert.Nil(t, got.ApprovedTeeTime)

	require.NoError(t, d.WithinTx(ctx, func(tx db.Tx) error {
		return tx.DeleteStandingRequest(ctx, req.ID)
	}))
}
