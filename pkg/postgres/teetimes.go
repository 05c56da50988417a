package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

const teeTimeColumns = `
	t.id, t.date, t.start_time, t.end_time, t.member_id,
	t.additional_member_1, t.additional_member_2, t.additional_member_3,
	t.players, t.phone, t.carts, t.employee_name, t.cancellation_requested,
	(SELECT s.id FROM scores s WHERE s.tee_time_id = t.id ORDER BY s.id LIMIT 1)
`

func scanTeeTime(row pgx.Row) (*model.TeeTime, error) {
	var t model.TeeTime
	var start, end pgtype.Time
	var additional [model.AdditionalSlots]*int
	if err := row.Scan(
		&t.ID, &t.Date, &start, &end, &t.MemberID,
		&additional[0], &additional[1], &additional[2],
		&t.Players, &t.Phone, &t.Carts, &t.EmployeeName, &t.CancellationRequested,
		&t.ScoreID,
	); err != nil {
		return nil, err
	}
	t.Date = model.DateOnly(t.Date)
	t.StartTime = timeOfDay(start)
	t.EndTime = timeOfDay(end)
	for i, id := range additional {
		t.AdditionalMemberIDs[i] = idOrZero(id)
	}
	return &t, nil
}

func (q *queries) listTeeTimes(ctx context.Context, what string, where string, args ...any) ([]model.TeeTime, error) {
	rows, err := q.q.Query(ctx, `SELECT `+teeTimeColumns+` FROM tee_times t WHERE `+where+`
		ORDER BY t.date, t.start_time, t.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer rows.Close()

	var teeTimes []model.TeeTime
	for rows.Next() {
		t, err := scanTeeTime(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tee time: %w", err)
		}
		teeTimes = append(teeTimes, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", what, err)
	}

	return teeTimes, nil
}

// GetTeeTime retrieves one tee time with its score id
func (q *queries) GetTeeTime(ctx context.Context, id int) (*model.TeeTime, error) {
	t, err := scanTeeTime(q.q.QueryRow(ctx, `SELECT `+teeTimeColumns+` FROM tee_times t WHERE t.id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

// LockTeeTime retrieves a tee time and locks its row until the transaction ends
func (q *queries) LockTeeTime(ctx context.Context, id int) (*model.TeeTime, error) {
	t, err := scanTeeTime(q.q.QueryRow(ctx, `SELECT `+teeTimeColumns+` FROM tee_times t WHERE t.id = $1 FOR UPDATE OF t`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

// FindTeeTimeAt returns the tee time holding exactly (date, slot) other than excludeID, or nil
func (q *queries) FindTeeTimeAt(ctx context.Context, date time.Time, slot model.Slot, excludeID int) (*model.TeeTime, error) {
	teeTimes, err := q.listTeeTimes(ctx, "tee times at slot",
		`t.date = $1 AND t.start_time = $2 AND t.end_time = $3 AND t.id <> $4`,
		model.DateOnly(date), pgTime(slot.Start), pgTime(slot.End), excludeID)
	if err != nil {
		return nil, err
	}
	if len(teeTimes) == 0 {
		return nil, nil
	}
	return &teeTimes[0], nil
}

// ListTeeTimesByDate retrieves the bookings of one date
func (q *queries) ListTeeTimesByDate(ctx context.Context, date time.Time) ([]model.TeeTime, error) {
	return q.listTeeTimes(ctx, "tee times by date", `t.date = $1`, model.DateOnly(date))
}

// ListJoinableTeeTimes retrieves bookings from a date onwards with a free companion slot
func (q *queries) ListJoinableTeeTimes(ctx context.Context, from time.Time) ([]model.TeeTime, error) {
	return q.listTeeTimes(ctx, "joinable tee times", `t.players < $1 AND t.date >= $2`, model.MaxPlayers, model.DateOnly(from))
}

// ListTeeTimesByMember retrieves bookings the member plays in
func (q *queries) ListTeeTimesByMember(ctx context.Context, memberID int) ([]model.TeeTime, error) {
	return q.listTeeTimes(ctx, "member tee times",
		`$1 IN (t.member_id, t.additional_member_1, t.additional_member_2, t.additional_member_3)`, memberID)
}

// ListCancellationRequests retrieves bookings flagged for cancellation
func (q *queries) ListCancellationRequests(ctx context.Context) ([]model.TeeTime, error) {
	return q.listTeeTimes(ctx, "cancellation requests", `t.cancellation_requested`)
}

// InsertTeeTime inserts a booking; a taken slot surfaces as model.ErrSlotUnavailable
func (q *queries) InsertTeeTime(ctx context.Context, t *model.TeeTime) (int, error) {
	var id int
	err := q.q.QueryRow(ctx, `
		INSERT INTO tee_times (
			date, start_time, end_time, member_id,
			additional_member_1, additional_member_2, additional_member_3,
			players, phone, carts, employee_name, cancellation_requested
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, model.DateOnly(t.Date), pgTime(t.StartTime), pgTime(t.EndTime), t.MemberID,
		nullableID(t.AdditionalMemberIDs[0]), nullableID(t.AdditionalMemberIDs[1]), nullableID(t.AdditionalMemberIDs[2]),
		t.Players, t.Phone, t.Carts, t.EmployeeName, t.CancellationRequested,
	).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

// UpdateTeeTime overwrites every column of a booking
func (q *queries) UpdateTeeTime(ctx context.Context, t *model.TeeTime) error {
	tag, err := q.q.Exec(ctx, `
		UPDATE tee_times SET
			date = $2, start_time = $3, end_time = $4, member_id = $5,
			additional_member_1 = $6, additional_member_2 = $7, additional_member_3 = $8,
			players = $9, phone = $10, carts = $11, employee_name = $12, cancellation_requested = $13
		WHERE id = $1
	`, t.ID, model.DateOnly(t.Date), pgTime(t.StartTime), pgTime(t.EndTime), t.MemberID,
		nullableID(t.AdditionalMemberIDs[0]), nullableID(t.AdditionalMemberIDs[1]), nullableID(t.AdditionalMemberIDs[2]),
		t.Players, t.Phone, t.Carts, t.EmployeeName, t.CancellationRequested,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteTeeTime deletes a booking row; scores and players must already be gone
func (q *queries) DeleteTeeTime(ctx context.Context, id int) error {
	tag, err := q.q.Exec(ctx, `DELETE FROM tee_times WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tee time: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListPlayers retrieves the occupied positions of a booking
func (q *queries) ListPlayers(ctx context.Context, teeTimeID int) ([]model.Player, error) {
	rows, err := q.q.Query(ctx, `
		SELECT tee_time_id, member_id, position
		FROM tee_time_players
		WHERE tee_time_id = $1
		ORDER BY position
	`, teeTimeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.TeeTimeID, &p.MemberID, &p.Position); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return players, nil
}

// ReplacePlayers rewrites the player rows of a booking
func (q *queries) ReplacePlayers(ctx context.Context, teeTimeID int, players []model.Player) error {
	if err := q.DeletePlayers(ctx, teeTimeID); err != nil {
		return err
	}

	for _, p := range players {
		_, err := q.q.Exec(ctx, `
			INSERT INTO tee_time_players (tee_time_id, member_id, position)
			VALUES ($1, $2, $3)
		`, teeTimeID, p.MemberID, p.Position)
		if err != nil {
			return fmt.Errorf("failed to insert player: %w", err)
		}
	}

	return nil
}

// DeletePlayers deletes the player rows of a booking
func (q *queries) DeletePlayers(ctx context.Context, teeTimeID int) error {
	if _, err := q.q.Exec(ctx, `DELETE FROM tee_time_players WHERE tee_time_id = $1`, teeTimeID); err != nil {
		return fmt.Errorf("failed to delete players: %w", err)
	}
	return nil
}

// InsertScore inserts the scorecard placeholder of a booking
func (q *queries) InsertScore(ctx context.Context, s *model.Score) (int, error) {
	var id int
	err := q.q.QueryRow(ctx, `
		INSERT INTO scores (tee_time_id, member_id, date)
		VALUES ($1, $2, $3)
		RETURNING id
	`, s.TeeTimeID, s.MemberID, model.DateOnly(s.Date)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert score: %w", err)
	}
	return id, nil
}

// DeleteScores deletes every score linked to a booking
func (q *queries) DeleteScores(ctx context.Context, teeTimeID int) error {
	if _, err := q.q.Exec(ctx, `DELETE FROM scores WHERE tee_time_id = $1`, teeTimeID); err != nil {
		return fmt.Errorf("failed to delete scores: %w", err)
	}
	return nil
}
