package repository

import (
	"context"
	"database/sql"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
)

// ShowRepo reads the show catalog.  Shows carry the default slot
// counts applied to episodes without a materialized inventory row.
//
// Schema: shows(id PK, org_id, name, pre_roll_slots, mid_roll_slots,
// post_roll_slots, active TINYINT(1), created_at, updated_at)
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo returns a ShowRepo bound to the given database.
func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

const showColumns = `id, org_id, name, pre_roll_slots, mid_roll_slots, post_roll_slots,
	active, created_at, updated_at`

func scanShow(row interface{ Scan(...any) error }) (*model.Show, error) {
	var s model.Show
	err := row.Scan(&s.ID, &s.OrgID, &s.Name,
		&s.PreRollSlots, &s.MidRollSlots, &s.PostRollSlots,
		&s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID returns a show or ErrShowNotFound.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	s, err := scanShow(r.db.QueryRowContext(ctx,
		`SELECT `+showColumns+` FROM shows WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrShowNotFound
	}
	return s, err
}

// ListByIDs returns the shows matching the given ids; unknown ids are
// silently absent from the result.
func (r *ShowRepo) ListByIDs(ctx context.Context, ids []uint64) ([]model.Show, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + showColumns + ` FROM shows WHERE id IN (`
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, id)
	}
	q += ")"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Show
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// ListByOrg returns an organization's active shows ordered by name.
func (r *ShowRepo) ListByOrg(ctx context.Context, orgID uint64) ([]model.Show, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+showColumns+` FROM shows WHERE org_id = ? AND active = 1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Show
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
