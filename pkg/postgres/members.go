package postgres

import (
	"context"
	"fmt"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

// GetMember retrieves the tee sheet's view of a member
func (d *DB) GetMember(ctx context.Context, id int) (*model.Member, error) {
	var m model.Member
	var tier int
	err := d.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, phone, membership_tier_id
		FROM members
		WHERE id = $1
	`, id).Scan(&m.ID, &m.FirstName, &m.LastName, &m.Phone, &tier)
	if err != nil {
		return nil, mapError(err)
	}
	m.Tier = model.Tier(tier)
	return &m, nil
}

// GetMemberNames maps ids to "First Last", omitting ids with no member
func (d *DB) GetMemberNames(ctx context.Context, ids []int) (map[int]string, error) {
	names := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := d.pool.Query(ctx, `
		SELECT id, first_name, last_name
		FROM members
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query member names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.FirstName, &m.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan member name: %w", err)
		}
		names[m.ID] = m.FullName()
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member names: %w", err)
	}

	return names, nil
}

// InsertMember adds a member record; used by seeding and integration tests
func (d *DB) InsertMember(ctx context.Context, m *model.Member) (int, error) {
	var id int
	err := d.pool.QueryRow(ctx, `
		INSERT INTO members (first_name, last_name, phone, membership_tier_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, m.FirstName, m.LastName, m.Phone, int(m.Tier)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert member: %w", err)
	}
	return id, nil
}
