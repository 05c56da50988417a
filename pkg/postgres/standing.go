package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

const standingColumns = `
	id, member_id, day_of_week, requested_start_time, requested_end_time,
	start_date, end_date, additional_player_1, additional_player_2, additional_player_3,
	approved_tee_time, approved_by, approved_date, priority_number, cancellation_requested
`

func scanStandingRequest(row pgx.Row) (*model.StandingRequest, error) {
	var r model.StandingRequest
	var day int
	var start, end, approved pgtype.Time
	var approvedBy *string
	if err := row.Scan(
		&r.ID, &r.MemberID, &day, &start, &end,
		&r.StartDate, &r.EndDate,
		&r.AdditionalPlayerIDs[0], &r.AdditionalPlayerIDs[1], &r.AdditionalPlayerIDs[2],
		&approved, &approvedBy, &r.ApprovedDate, &r.PriorityNumber, &r.CancellationRequested,
	); err != nil {
		return nil, err
	}
	r.DayOfWeek = time.Weekday(day)
	r.RequestedStartTime = timeOfDay(start)
	r.RequestedEndTime = timeOfDay(end)
	r.StartDate = model.DateOnly(r.StartDate)
	r.EndDate = model.DateOnly(r.EndDate)
	if approved.Valid {
		t := timeOfDay(approved)
		r.ApprovedTeeTime = &t
	}
	if approvedBy != nil {
		r.ApprovedBy = *approvedBy
	}
	return &r, nil
}

func (q *queries) listStandingRequests(ctx context.Context, what string, where string, args ...any) ([]model.StandingRequest, error) {
	rows, err := q.q.Query(ctx, `SELECT `+standingColumns+` FROM standing_tee_time_requests WHERE `+where+`
		ORDER BY start_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer rows.Close()

	var reqs []model.StandingRequest
	for rows.Next() {
		r, err := scanStandingRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan standing request: %w", err)
		}
		reqs = append(reqs, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", what, err)
	}

	return reqs, nil
}

// GetStandingRequest retrieves one standing request
func (q *queries) GetStandingRequest(ctx context.Context, id int) (*model.StandingRequest, error) {
	r, err := scanStandingRequest(q.q.QueryRow(ctx, `SELECT `+standingColumns+` FROM standing_tee_time_requests WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

// LockStandingRequest retrieves a standing request and locks its row until the transaction ends
func (q *queries) LockStandingRequest(ctx context.Context, id int) (*model.StandingRequest, error) {
	r, err := scanStandingRequest(q.q.QueryRow(ctx, `SELECT `+standingColumns+` FROM standing_tee_time_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

// ListStandingRequestsByMember retrieves the requests a member submitted
func (q *queries) ListStandingRequestsByMember(ctx context.Context, memberID int) ([]model.StandingRequest, error) {
	return q.listStandingRequests(ctx, "member standing requests", `member_id = $1`, memberID)
}

// ListPendingStandingRequests retrieves requests with no approver
func (q *queries) ListPendingStandingRequests(ctx context.Context) ([]model.StandingRequest, error) {
	return q.listStandingRequests(ctx, "pending standing requests", `approved_by IS NULL`)
}

// ListStandingCancellationRequests retrieves requests flagged for cancellation
func (q *queries) ListStandingCancellationRequests(ctx context.Context) ([]model.StandingRequest, error) {
	return q.listStandingRequests(ctx, "standing cancellation requests", `cancellation_requested`)
}

func approvedTime(r *model.StandingRequest) pgtype.Time {
	if r.ApprovedTeeTime == nil {
		return pgtype.Time{}
	}
	return pgTime(*r.ApprovedTeeTime)
}

func approvedBy(r *model.StandingRequest) *string {
	if r.ApprovedBy == "" {
		return nil
	}
	return &r.ApprovedBy
}

// InsertStandingRequest inserts a pending request
func (q *queries) InsertStandingRequest(ctx context.Context, r *model.StandingRequest) (int, error) {
	var id int
	err := q.q.QueryRow(ctx, `
		INSERT INTO standing_tee_time_requests (
			member_id, day_of_week, requested_start_time, requested_end_time,
			start_date, end_date, additional_player_1, additional_player_2, additional_player_3,
			approved_tee_time, approved_by, approved_date, priority_number, cancellation_requested
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, r.MemberID, int(r.DayOfWeek), pgTime(r.RequestedStartTime), pgTime(r.RequestedEndTime),
		model.DateOnly(r.StartDate), model.DateOnly(r.EndDate),
		r.AdditionalPlayerIDs[0], r.AdditionalPlayerIDs[1], r.AdditionalPlayerIDs[2],
		approvedTime(r), approvedBy(r), r.ApprovedDate, r.PriorityNumber, r.CancellationRequested,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert standing request: %w", err)
	}
	return id, nil
}

// UpdateStandingRequest overwrites the approval and cancellation columns
func (q *queries) UpdateStandingRequest(ctx context.Context, r *model.StandingRequest) error {
	tag, err := q.q.Exec(ctx, `
		UPDATE standing_tee_time_requests SET
			approved_tee_time = $2, approved_by = $3, approved_date = $4,
			priority_number = $5, cancellation_requested = $6
		WHERE id = $1
	`, r.ID, approvedTime(r), approvedBy(r), r.ApprovedDate, r.PriorityNumber, r.CancellationRequested)
	if err != nil {
		return fmt.Errorf("failed to update standing request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteStandingRequest deletes a request
func (q *queries) DeleteStandingRequest(ctx context.Context, id int) error {
	tag, err := q.q.Exec(ctx, `DELETE FROM standing_tee_time_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete standing request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
