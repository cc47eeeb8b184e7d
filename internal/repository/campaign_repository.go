package repository

import (
	"context"
	"database/sql"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
)

// CampaignRepo reads campaigns and applies the single status update
// the booking converter performs.  All other campaign mutation lives
// in the surrounding application.
//
// Schema: campaigns(id PK, org_id, advertiser_id, name, status,
// probability, approval_status, start_date DATE, end_date DATE,
// created_at, updated_at)
type CampaignRepo struct {
	db *sql.DB
}

// NewCampaignRepo returns a CampaignRepo bound to the given database.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

// GetByID returns a campaign or ErrCampaignNotFound.
func (r *CampaignRepo) GetByID(ctx context.Context, id uint64) (*model.Campaign, error) {
	const q = `SELECT id, org_id, advertiser_id, name, status, probability,
	                  approval_status, start_date, end_date, created_at, updated_at
	             FROM campaigns WHERE id = ?`
	var c model.Campaign
	var status string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.OrgID, &c.AdvertiserID, &c.Name, &status, &c.Probability,
		&c.ApprovalStatus, &c.StartDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Status = model.CampaignStatus(status)
	return &c, nil
}

// UpdateStatus sets the campaign status.  Returns ErrCampaignNotFound
// when the row does not exist.
func (r *CampaignRepo) UpdateStatus(ctx context.Context, id uint64, status model.CampaignStatus) error {
	return withRetry(ctx, func() error {
		res, err := r.db.ExecContext(ctx,
			`UPDATE campaigns SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
			string(status), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			// Affected can legitimately be 0 when the status is
			// unchanged; only report missing rows.
			var exists int
			if scanErr := r.db.QueryRowContext(ctx,
				`SELECT 1 FROM campaigns WHERE id = ?`, id).Scan(&exists); scanErr == sql.ErrNoRows {
				return ErrCampaignNotFound
			} else if scanErr != nil {
				return scanErr
			}
		}
		return nil
	})
}
