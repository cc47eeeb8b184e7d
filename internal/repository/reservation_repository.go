package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
)

// ReservationRepo persists reservations and their items.  All
// timestamps are stored in UTC.
//
// Schema:
//   reservations(id PK AUTO_INCREMENT, org_id, campaign_id,
//     status ENUM('held','confirmed','expired','cancelled'),
//     hold_token CHAR(64), created_by, expires_at DATETIME,
//     confirmed_at DATETIME NULL, confirmed_by BIGINT NULL,
//     created_at, updated_at)
//   reservation_items(id PK AUTO_INCREMENT, reservation_id FK, show_id,
//     episode_id, slot_type ENUM('preRoll','midRoll','postRoll'),
//     air_date DATE, rate DECIMAL(10,2), quantity INT)
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, org_id, campaign_id, status, hold_token, created_by,
	expires_at, confirmed_at, confirmed_by, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var res model.Reservation
	var status string
	var confirmedAt sql.NullTime
	var confirmedBy sql.NullInt64
	err := row.Scan(&res.ID, &res.OrgID, &res.CampaignID, &status, &res.HoldToken,
		&res.CreatedBy, &res.ExpiresAt, &confirmedAt, &confirmedBy,
		&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	if confirmedAt.Valid {
		t := confirmedAt.Time
		res.ConfirmedAt = &t
	}
	if confirmedBy.Valid {
		u := uint64(confirmedBy.Int64)
		res.ConfirmedBy = &u
	}
	return &res, nil
}

// CreateWithItems inserts a reservation and all of its items in one
// transaction so a hold is either fully persisted or not at all.
// Transient storage failures are retried a bounded number of times;
// the generated IDs and DB timestamps are populated on the passed
// records.
func (r *ReservationRepo) CreateWithItems(ctx context.Context, res *model.Reservation, items []model.ReservationItem) error {
	return withRetry(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()

		const ins = `INSERT INTO reservations
		    (org_id, campaign_id, status, hold_token, created_by, expires_at)
		    VALUES (?, ?, ?, ?, ?, ?)`
		result, err := tx.ExecContext(ctx, ins, res.OrgID, res.CampaignID,
			string(res.Status), res.HoldToken, res.CreatedBy,
			res.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		res.ID = uint64(id)

		if len(items) > 0 {
			q := `INSERT INTO reservation_items
			    (reservation_id, show_id, episode_id, slot_type, air_date, rate, quantity) VALUES `
			args := make([]interface{}, 0, len(items)*7)
			for i := range items {
				if i > 0 {
					q += ","
				}
				q += "(?, ?, ?, ?, ?, ?, ?)"
				it := &items[i]
				it.ReservationID = res.ID
				args = append(args, it.ReservationID, it.ShowID, it.EpisodeID,
					string(it.SlotType), it.AirDate.UTC().Format("2006-01-02"),
					it.Rate.StringFixed(2), it.Quantity)
			}
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return err
			}
			// Read the generated item IDs back; the booking converter
			// keys order items on them.
			loaded, err := loadItemsTx(ctx, tx, res.ID)
			if err != nil {
				return err
			}
			copy(items, loaded)
		}

		// Read back DB-generated timestamps.
		const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
		if err := tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		committed = true
		return nil
	})
}

const itemColumns = `id, reservation_id, show_id, episode_id, slot_type, air_date, rate, quantity`

func loadItemsTx(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, reservationID uint64) ([]model.ReservationItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM reservation_items WHERE reservation_id = ? ORDER BY id`,
		reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.ReservationItem
	for rows.Next() {
		var it model.ReservationItem
		var slot string
		if err := rows.Scan(&it.ID, &it.ReservationID, &it.ShowID, &it.EpisodeID,
			&slot, &it.AirDate, &it.Rate, &it.Quantity); err != nil {
			return nil, err
		}
		it.SlotType = model.SlotType(slot)
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetWithItems loads a reservation and its items.  Returns
// ErrReservationNotFound when no row exists.
func (r *ReservationRepo) GetWithItems(ctx context.Context, id uint64) (*model.Reservation, []model.ReservationItem, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	items, err := loadItemsTx(ctx, r.db, id)
	if err != nil {
		return nil, nil, err
	}
	return res, items, nil
}

// ListByOrg returns an organization's reservations, newest first.
func (r *ReservationRepo) ListByOrg(ctx context.Context, orgID uint64, limit int) ([]model.Reservation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE org_id = ? ORDER BY id DESC LIMIT ?`,
		orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// ListExpiredIDs returns ids of held reservations whose hold lapsed
// before now.  The sweep re-checks each candidate under the row lock,
// so a stale read here is harmless.
func (r *ReservationRepo) ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM reservations
		  WHERE status = 'held' AND expires_at < ?
		  ORDER BY expires_at LIMIT ?`,
		now.UTC().Format("2006-01-02 15:04:05"), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Transition runs fn while holding an exclusive row lock on the
// reservation (SELECT ... FOR UPDATE) and, when fn returns nil,
// commits whatever status/confirmation fields fn set on the record.
// The row lock is the serialization point between Confirm, Cancel and
// the expiry sweep: whichever transition commits first wins and the
// loser observes the terminal status inside its own fn.
func (r *ReservationRepo) Transition(ctx context.Context, id uint64, fn func(res *model.Reservation, items []model.ReservationItem) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return ErrReservationNotFound
	}
	if err != nil {
		return err
	}
	items, err := loadItemsTx(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := fn(res, items); err != nil {
		return err
	}

	var confirmedAt interface{}
	if res.ConfirmedAt != nil {
		confirmedAt = res.ConfirmedAt.UTC().Format("2006-01-02 15:04:05")
	}
	var confirmedBy interface{}
	if res.ConfirmedBy != nil {
		confirmedBy = *res.ConfirmedBy
	}
	const upd = `UPDATE reservations
	    SET status = ?, confirmed_at = ?, confirmed_by = ?, updated_at = UTC_TIMESTAMP()
	  WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, string(res.Status), confirmedAt, confirmedBy, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
