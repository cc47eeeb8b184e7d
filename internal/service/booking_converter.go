package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/repository"
)

// ConvertOutput is what a successful conversion materialized.
type ConvertOutput struct {
	Campaign *model.Campaign
	Order    *model.Order
	Items    []model.OrderItem
}

// BookingConverter turns a confirmed reservation into a campaign
// status update, an order and one order item per reservation item,
// and reconciles the ledger from reserved to booked.
//
// The step ordering fails safe: the order and its items are written
// durably before any ledger confirmation, so a crash beforehand leaves
// the reservation held and retryable.  Each item's slots_booked flag
// is set only after its ledger move succeeded, so a retried
// conversion re-applies exactly the missing mutations and nothing is
// double-counted.
type BookingConverter struct {
	ledger        Ledger
	orders        OrderStore
	campaigns     CampaignStore
	discountPct   decimal.Decimal
	commissionPct decimal.Decimal
	log           zerolog.Logger
	now           func() time.Time
}

// NewBookingConverter wires a converter.  discountPct defaults to 0
// and commissionPct to 15 when negative values are passed.
func NewBookingConverter(ledger Ledger, orders OrderStore, campaigns CampaignStore,
	discountPct, commissionPct decimal.Decimal, log zerolog.Logger) *BookingConverter {
	if discountPct.IsNegative() {
		discountPct = decimal.Zero
	}
	if commissionPct.IsNegative() {
		commissionPct = decimal.NewFromInt(15)
	}
	return &BookingConverter{
		ledger:        ledger,
		orders:        orders,
		campaigns:     campaigns,
		discountPct:   discountPct,
		commissionPct: commissionPct,
		log:           log,
		now:           time.Now,
	}
}

// lineAmounts computes the monetary fields for one reservation item:
// gross covers the full quantity, discount and commission follow the
// configured percentages, everything rounded to cents.
func lineAmounts(rate decimal.Decimal, qty int, discountPct, commissionPct decimal.Decimal) model.OrderAmounts {
	hundred := decimal.NewFromInt(100)
	gross := rate.Mul(decimal.NewFromInt(int64(qty))).Round(2)
	discount := gross.Mul(discountPct).Div(hundred).Round(2)
	net := gross.Sub(discount)
	commission := net.Mul(commissionPct).Div(hundred).Round(2)
	return model.OrderAmounts{
		Gross:      gross,
		Discount:   discount,
		Net:        net,
		Commission: commission,
		Total:      net.Add(commission),
	}
}

// ComputeOrderAmounts aggregates the per-item amounts for a whole
// reservation (gross = Σ rate·quantity, then discount and commission).
func ComputeOrderAmounts(items []model.ReservationItem, discountPct, commissionPct decimal.Decimal) model.OrderAmounts {
	var total model.OrderAmounts
	total.Gross = decimal.Zero
	total.Discount = decimal.Zero
	total.Net = decimal.Zero
	total.Commission = decimal.Zero
	total.Total = decimal.Zero
	for _, it := range items {
		total = total.Add(lineAmounts(it.Rate, it.Quantity, discountPct, commissionPct))
	}
	return total
}

// Convert performs the multi-entity materialization for a reservation
// the caller has already validated as held and unexpired.  It is
// idempotent: an order that already exists for the reservation is
// reused, and already-booked items are skipped.
func (c *BookingConverter) Convert(ctx context.Context, res *model.Reservation,
	items []model.ReservationItem, actor model.Actor) (*ConvertOutput, error) {

	campaign, err := c.campaigns.GetByID(ctx, res.CampaignID)
	if err != nil {
		return nil, err
	}
	targetStatus := campaign.StatusForFlight(c.now())

	order, orderItems, err := c.orders.GetByReservation(ctx, res.ID)
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		order, orderItems = c.buildOrder(res, items, actor)
		if err := c.orders.CreateWithItems(ctx, order, orderItems); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		c.log.Info().
			Uint64("reservation_id", res.ID).
			Uint64("order_id", order.ID).
			Msg("resuming conversion with existing order")
	}

	qtyByItem := make(map[uint64]int, len(items))
	for _, it := range items {
		qtyByItem[it.ID] = it.Quantity
	}
	for i := range orderItems {
		it := &orderItems[i]
		if it.SlotsBooked {
			continue
		}
		qty := qtyByItem[it.ReservationItemID]
		if qty == 0 {
			qty = 1
		}
		if err := c.ledger.ConfirmBooking(ctx, it.EpisodeID, it.SlotType, qty); err != nil {
			return nil, err
		}
		if err := c.orders.MarkItemBooked(ctx, it.ID); err != nil {
			return nil, err
		}
		it.SlotsBooked = true
	}

	if campaign.Status != targetStatus {
		if err := c.campaigns.UpdateStatus(ctx, campaign.ID, targetStatus); err != nil {
			return nil, err
		}
		campaign.Status = targetStatus
	}
	return &ConvertOutput{Campaign: campaign, Order: order, Items: orderItems}, nil
}

func (c *BookingConverter) buildOrder(res *model.Reservation, items []model.ReservationItem, actor model.Actor) (*model.Order, []model.OrderItem) {
	orderItems := make([]model.OrderItem, 0, len(items))
	var totals model.OrderAmounts
	totals.Gross = decimal.Zero
	totals.Discount = decimal.Zero
	totals.Net = decimal.Zero
	totals.Commission = decimal.Zero
	totals.Total = decimal.Zero
	for _, it := range items {
		amounts := lineAmounts(it.Rate, it.Quantity, c.discountPct, c.commissionPct)
		totals = totals.Add(amounts)
		orderItems = append(orderItems, model.OrderItem{
			ReservationItemID: it.ID,
			EpisodeID:         it.EpisodeID,
			SlotType:          it.SlotType,
			AirDate:           it.AirDate,
			Rate:              it.Rate,
			Quantity:          1, // one projected slot line per reservation item
			Amounts:           amounts,
		})
	}
	order := &model.Order{
		OrgID:         res.OrgID,
		CampaignID:    res.CampaignID,
		ReservationID: res.ID,
		Gross:         totals.Gross,
		Discount:      totals.Discount,
		Net:           totals.Net,
		Commission:    totals.Commission,
		Total:         totals.Total,
		CreatedBy:     actor.UserID,
	}
	return order, orderItems
}
