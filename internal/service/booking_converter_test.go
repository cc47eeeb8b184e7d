package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/repository"
)

func TestComputeOrderAmounts(t *testing.T) {
	items := []model.ReservationItem{
		{Rate: rate("99.99"), Quantity: 3},
		{Rate: rate("250.00"), Quantity: 1},
	}

	// 10% discount, 15% commission, all rounded to cents per line.
	got := ComputeOrderAmounts(items, decimal.NewFromInt(10), decimal.NewFromInt(15))

	// line 1: gross 299.97, discount 30.00, net 269.97, commission 40.50
	// line 2: gross 250.00, discount 25.00, net 225.00, commission 33.75
	assert.True(t, got.Gross.Equal(rate("549.97")), "gross = %s", got.Gross)
	assert.True(t, got.Discount.Equal(rate("55.00")), "discount = %s", got.Discount)
	assert.True(t, got.Net.Equal(rate("494.97")), "net = %s", got.Net)
	assert.True(t, got.Commission.Equal(rate("74.25")), "commission = %s", got.Commission)
	assert.True(t, got.Total.Equal(rate("569.22")), "total = %s", got.Total)
}

func TestComputeOrderAmountsDefaults(t *testing.T) {
	items := []model.ReservationItem{{Rate: rate("200.00"), Quantity: 2}}

	got := ComputeOrderAmounts(items, decimal.Zero, decimal.NewFromInt(15))

	assert.True(t, got.Gross.Equal(rate("400.00")))
	assert.True(t, got.Discount.IsZero())
	assert.True(t, got.Net.Equal(rate("400.00")))
	assert.True(t, got.Commission.Equal(rate("60.00")))
	assert.True(t, got.Total.Equal(rate("460.00")))
}

func TestConvertResumesAfterPartialLedgerFailure(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	actor := salesActor()

	res, _, err := fx.svc.CreateHold(ctx, actor, 10, []HoldItemInput{
		{EpisodeID: 100, SlotType: model.SlotPreRoll, Rate: rate("100.00"), Quantity: 1},
		{EpisodeID: 101, SlotType: model.SlotMidRoll, Rate: rate("150.00"), Quantity: 1},
	}, 0)
	require.NoError(t, err)

	// First attempt fails on the second item's ledger move, after the
	// order was durably written and the first item was booked.
	fx.ledger.confirmErr[slotKey{101, model.SlotMidRoll}] = assert.AnError
	_, err = fx.svc.Confirm(ctx, res.ID, actor)
	require.Error(t, err)

	got, _, err := fx.resStore.GetWithItems(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationHeld, got.Status, "failed confirm leaves the hold retryable")
	assert.Equal(t, 1, fx.orders.orderCount())
	assert.Equal(t, model.SlotCounts{Total: 3, Available: 2, Booked: 1}, fx.ledger.get(100, model.SlotPreRoll))
	assert.Equal(t, model.SlotCounts{Total: 2, Available: 1, Reserved: 1}, fx.ledger.get(101, model.SlotMidRoll))

	// The retry reuses the existing order and applies only the missing
	// ledger move; the already-booked item is not double-counted.
	result, err := fx.svc.Confirm(ctx, res.ID, actor)
	require.NoError(t, err)

	assert.Equal(t, 1, fx.orders.orderCount())
	assert.Equal(t, model.SlotCounts{Total: 3, Available: 2, Booked: 1}, fx.ledger.get(100, model.SlotPreRoll))
	assert.Equal(t, model.SlotCounts{Total: 2, Available: 1, Booked: 1}, fx.ledger.get(101, model.SlotMidRoll))
	assert.Equal(t, model.ReservationConfirmed, result.Reservation.Status)
	for _, it := range result.OrderItems {
		assert.True(t, it.SlotsBooked)
	}
}

func TestConvertSetsCampaignStatusFromFlight(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	actor := salesActor()

	// A campaign whose flight has not started books instead of going active.
	fx.campaigns.byID[11] = &model.Campaign{
		ID:        11,
		OrgID:     1,
		Status:    model.CampaignPending,
		StartDate: fixedNow.Add(10 * 24 * time.Hour),
		EndDate:   fixedNow.Add(40 * 24 * time.Hour),
	}

	res, _, err := fx.svc.CreateHold(ctx, actor, 11, []HoldItemInput{
		{EpisodeID: 100, SlotType: model.SlotPreRoll, Rate: rate("100.00"), Quantity: 1},
	}, 0)
	require.NoError(t, err)

	result, err := fx.svc.Confirm(ctx, res.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignBooked, result.Campaign.Status)

	stored, err := fx.campaigns.GetByID(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignBooked, stored.Status)
}

func TestConvertMissingCampaign(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	res := &model.Reservation{ID: 1, OrgID: 1, CampaignID: 999, Status: model.ReservationHeld}
	_, err := fx.converter.Convert(ctx, res, nil, salesActor())
	require.ErrorIs(t, err, repository.ErrCampaignNotFound)
}
