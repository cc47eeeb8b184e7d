package repository

import (
	"context"
	"database/sql"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
)

// OrderRepo persists the orders materialized from confirmed
// reservations.  The reservation_id column is unique, so at most one
// order can ever exist per reservation; converter retries reuse the
// existing row.  The slots_booked flag on each item records that the
// ledger's reserved→booked move for its source reservation item has
// been applied, which makes a retried conversion resume exactly where
// it failed.
//
// Schema:
//   orders(id PK, org_id, campaign_id, reservation_id UNIQUE,
//     gross_amount, discount_amount, net_amount, commission_amount,
//     total_amount DECIMAL(12,2), created_by, created_at)
//   order_items(id PK, order_id FK, reservation_item_id UNIQUE,
//     episode_id, slot_type, air_date DATE, rate DECIMAL(10,2),
//     quantity INT, gross_amount, discount_amount, net_amount,
//     commission_amount, total_amount DECIMAL(12,2),
//     slots_booked TINYINT(1) DEFAULT 0)
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns an OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// GetByReservation loads the order created from a reservation together
// with its items, or ErrOrderNotFound when no conversion has happened.
func (r *OrderRepo) GetByReservation(ctx context.Context, reservationID uint64) (*model.Order, []model.OrderItem, error) {
	const q = `SELECT id, org_id, campaign_id, reservation_id,
	                  gross_amount, discount_amount, net_amount, commission_amount, total_amount,
	                  created_by, created_at
	             FROM orders WHERE reservation_id = ?`
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, reservationID).Scan(
		&o.ID, &o.OrgID, &o.CampaignID, &o.ReservationID,
		&o.Gross, &o.Discount, &o.Net, &o.Commission, &o.Total,
		&o.CreatedBy, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, nil, err
	}
	return &o, items, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	const q = `SELECT id, order_id, reservation_item_id, episode_id, slot_type, air_date,
	                  rate, quantity, gross_amount, discount_amount, net_amount,
	                  commission_amount, total_amount, slots_booked
	             FROM order_items WHERE order_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		var slot string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ReservationItemID, &it.EpisodeID,
			&slot, &it.AirDate, &it.Rate, &it.Quantity,
			&it.Amounts.Gross, &it.Amounts.Discount, &it.Amounts.Net,
			&it.Amounts.Commission, &it.Amounts.Total, &it.SlotsBooked); err != nil {
			return nil, err
		}
		it.SlotType = model.SlotType(slot)
		items = append(items, it)
	}
	return items, rows.Err()
}

// CreateWithItems writes the order and every item in one transaction,
// before any ledger confirmation is attempted, so a crash mid-convert
// leaves a durable, re-checkable record.  Generated IDs are populated
// on the passed records.
func (r *OrderRepo) CreateWithItems(ctx context.Context, o *model.Order, items []model.OrderItem) error {
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

		const ins = `INSERT INTO orders
		    (org_id, campaign_id, reservation_id, gross_amount, discount_amount,
		     net_amount, commission_amount, total_amount, created_by)
		    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		result, err := tx.ExecContext(ctx, ins, o.OrgID, o.CampaignID, o.ReservationID,
			o.Gross.StringFixed(2), o.Discount.StringFixed(2), o.Net.StringFixed(2),
			o.Commission.StringFixed(2), o.Total.StringFixed(2), o.CreatedBy)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		o.ID = uint64(id)

		if len(items) > 0 {
			q := `INSERT INTO order_items
			    (order_id, reservation_item_id, episode_id, slot_type, air_date, rate, quantity,
			     gross_amount, discount_amount, net_amount, commission_amount, total_amount) VALUES `
			args := make([]interface{}, 0, len(items)*12)
			for i := range items {
				if i > 0 {
					q += ","
				}
				q += "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
				it := &items[i]
				it.OrderID = o.ID
				args = append(args, it.OrderID, it.ReservationItemID, it.EpisodeID,
					string(it.SlotType), it.AirDate.UTC().Format("2006-01-02"),
					it.Rate.StringFixed(2), it.Quantity,
					it.Amounts.Gross.StringFixed(2), it.Amounts.Discount.StringFixed(2),
					it.Amounts.Net.StringFixed(2), it.Amounts.Commission.StringFixed(2),
					it.Amounts.Total.StringFixed(2))
			}
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return err
			}
			// Populate generated IDs so the caller can flag items as booked.
			const sel = `SELECT id, reservation_item_id FROM order_items WHERE order_id = ? ORDER BY id`
			rows, err := tx.QueryContext(ctx, sel, o.ID)
			if err != nil {
				return err
			}
			byResItem := make(map[uint64]uint64, len(items))
			for rows.Next() {
				var itemID, resItemID uint64
				if err := rows.Scan(&itemID, &resItemID); err != nil {
					rows.Close()
					return err
				}
				byResItem[resItemID] = itemID
			}
			if err := rows.Close(); err != nil {
				return err
			}
			for i := range items {
				items[i].ID = byResItem[items[i].ReservationItemID]
			}
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT created_at FROM orders WHERE id = ?`, o.ID).Scan(&o.CreatedAt); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		committed = true
		return nil
	})
}

// MarkItemBooked records that the ledger confirmation for an order
// item has been applied.
func (r *OrderRepo) MarkItemBooked(ctx context.Context, orderItemID uint64) error {
	return withRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx,
			`UPDATE order_items SET slots_booked = 1 WHERE id = ?`, orderItemID)
		return err
	})
}
