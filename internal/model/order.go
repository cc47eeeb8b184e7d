package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderAmounts groups the monetary fields computed when a reservation
// is converted: gross is the sum of rates, the configured discount and
// commission percentages derive the remaining values.
type OrderAmounts struct {
	Gross      decimal.Decimal `json:"gross"`
	Discount   decimal.Decimal `json:"discount"`
	Net        decimal.Decimal `json:"net"`
	Commission decimal.Decimal `json:"commission"`
	Total      decimal.Decimal `json:"total"`
}

// Add returns the element-wise sum of two amount sets.
func (a OrderAmounts) Add(b OrderAmounts) OrderAmounts {
	return OrderAmounts{
		Gross:      a.Gross.Add(b.Gross),
		Discount:   a.Discount.Add(b.Discount),
		Net:        a.Net.Add(b.Net),
		Commission: a.Commission.Add(b.Commission),
		Total:      a.Total.Add(b.Total),
	}
}

// Order is created exactly once per confirmed reservation.  Its
// existence implies the source reservation is confirmed; the
// back-reference exists for audit only and is never used to re-derive
// state.
type Order struct {
	ID            uint64          `json:"id"`             // orders.id
	OrgID         uint64          `json:"org_id"`         // orders.org_id
	CampaignID    uint64          `json:"campaign_id"`    // orders.campaign_id
	ReservationID uint64          `json:"reservation_id"` // orders.reservation_id (unique)
	Gross         decimal.Decimal `json:"gross"`          // orders.gross_amount
	Discount      decimal.Decimal `json:"discount"`       // orders.discount_amount
	Net           decimal.Decimal `json:"net"`            // orders.net_amount
	Commission    decimal.Decimal `json:"commission"`     // orders.commission_amount
	Total         decimal.Decimal `json:"total"`          // orders.total_amount
	CreatedBy     uint64          `json:"created_by"`     // orders.created_by
	CreatedAt     time.Time       `json:"created_at"`     // orders.created_at
}

// OrderItem is the near-1:1 projection of a ReservationItem onto a
// confirmed order.  Quantity is fixed at 1 slot by convention; the
// monetary fields cover the full quantity of the source item.
// SlotsBooked records that the ledger's reserved→booked move for the
// source item has been applied, making converter retries idempotent.
type OrderItem struct {
	ID                uint64          `json:"id"`                  // order_items.id
	OrderID           uint64          `json:"order_id"`            // order_items.order_id
	ReservationItemID uint64          `json:"reservation_item_id"` // order_items.reservation_item_id (unique)
	EpisodeID         uint64          `json:"episode_id"`          // order_items.episode_id
	SlotType          SlotType        `json:"slot_type"`           // order_items.slot_type
	AirDate           time.Time       `json:"air_date"`            // order_items.air_date
	Rate              decimal.Decimal `json:"rate"`                // order_items.rate
	Quantity          int             `json:"quantity"`            // order_items.quantity (always 1)
	Amounts           OrderAmounts    `json:"amounts"`             // order_items.{gross,discount,net,commission,total}_amount
	SlotsBooked       bool            `json:"slots_booked"`        // order_items.slots_booked
}
