package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/queue"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/repository"
)

func newExpirerForFixture(fx *fixture) *Expirer {
	return NewExpirer(fx.ledger, fx.resStore, fx.sink, 0, 0, testLogger())
}

func TestExpireDueReleasesLapsedHolds(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	exp := newExpirerForFixture(fx)

	lapsed, _, err := fx.svc.CreateHold(ctx, salesActor(), 10, []HoldItemInput{
		{EpisodeID: 100, SlotType: model.SlotPreRoll, Rate: rate("100.00"), Quantity: 2},
	}, time.Minute)
	require.NoError(t, err)
	fresh, _, err := fx.svc.CreateHold(ctx, salesActor(), 10, []HoldItemInput{
		{EpisodeID: 101, SlotType: model.SlotMidRoll, Rate: rate("150.00"), Quantity: 1},
	}, time.Hour)
	require.NoError(t, err)

	expired, err := exp.ExpireDue(ctx, fixedNow.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got, _, err := fx.resStore.GetWithItems(ctx, lapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationExpired, got.Status)
	assert.Equal(t, model.SlotCounts{Total: 3, Available: 3}, fx.ledger.get(100, model.SlotPreRoll))

	// The unexpired hold keeps its slots.
	got, _, err = fx.resStore.GetWithItems(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationHeld, got.Status)
	assert.Equal(t, model.SlotCounts{Total: 2, Available: 1, Reserved: 1}, fx.ledger.get(101, model.SlotMidRoll))

	events := fx.sink.byType(queue.EventReservationExpired)
	require.Len(t, events, 1)
	assert.Equal(t, lapsed.ID, events[0].ReservationID)
}

func TestExpireDueIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	exp := newExpirerForFixture(fx)

	_, _, err := fx.svc.CreateHold(ctx, salesActor(), 10, []HoldItemInput{
		{EpisodeID: 100, SlotType: model.SlotPreRoll, Rate: rate("100.00"), Quantity: 2},
	}, time.Minute)
	require.NoError(t, err)

	sweepAt := fixedNow.Add(10 * time.Minute)
	expired, err := exp.ExpireDue(ctx, sweepAt)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	// A second pass finds nothing and releases nothing twice.
	expired, err = exp.ExpireDue(ctx, sweepAt)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	counts := fx.ledger.get(100, model.SlotPreRoll)
	assert.Equal(t, model.SlotCounts{Total: 3, Available: 3}, counts)
	assert.True(t, counts.Consistent())
	assert.Len(t, fx.sink.byType(queue.EventReservationExpired), 1)
}

func TestExpireDueIsolatesFailures(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	exp := newExpirerForFixture(fx)

	broken, _, err := fx.svc.CreateHold(ctx, salesActor(), 10, []HoldItemInput{
		{EpisodeID: 100, SlotType: model.SlotPreRoll, Rate: rate("100.00"), Quantity: 2},
	}, time.Minute)
	require.NoError(t, err)
	healthy, _, err := fx.svc.CreateHold(ctx, salesActor(), 10, []HoldItemInput{
		{EpisodeID: 101, SlotType: model.SlotMidRoll, Rate: rate("150.00"), Quantity: 1},
	}, time.Minute)
	require.NoError(t, err)

	// Corrupt the first hold's counters so its release trips the
	// invariant guard; the sweep must still expire the second hold.
	require.NoError(t, fx.ledger.ConfirmBooking(ctx, 100, model.SlotPreRoll, 2))

	expired, err := exp.ExpireDue(ctx, fixedNow.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got, _, err := fx.resStore.GetWithItems(ctx, broken.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationHeld, got.Status, "failed candidate is left for the next sweep")

	got, _, err = fx.resStore.GetWithItems(ctx, healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationExpired, got.Status)
}

func TestExpireDueHonorsBatchSize(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.ledger.seed(100, model.SlotPreRoll, 10)
	exp := NewExpirer(fx.ledger, fx.resStore, fx.sink, 0, 2, testLogger())

	for i := 0; i < 3; i++ {
		_, _, err := fx.svc.CreateHold(ctx, salesActor(), 10, []HoldItemInput{
			{EpisodeID: 100, SlotType: model.SlotPreRoll, Rate: rate("100.00"), Quantity: 1},
		}, time.Minute)
		require.NoError(t, err)
	}

	sweepAt := fixedNow.Add(5 * time.Minute)
	expired, err := exp.ExpireDue(ctx, sweepAt)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	expired, err = exp.ExpireDue(ctx, sweepAt)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, model.SlotCounts{Total: 10, Available: 10}, fx.ledger.get(100, model.SlotPreRoll))
}

func TestExpiredHoldCannotBeConfirmed(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	exp := newExpirerForFixture(fx)
	actor := salesActor()

	res, _, err := fx.svc.CreateHold(ctx, actor, 10, []HoldItemInput{
		{EpisodeID: 100, SlotType: model.SlotPreRoll, Rate: rate("100.00"), Quantity: 1},
	}, time.Minute)
	require.NoError(t, err)

	fx.advance(2 * time.Minute)
	expired, err := exp.ExpireDue(ctx, fx.clock())
	require.NoError(t, err)
	require.Equal(t, 1, expired)

	_, err = fx.svc.Confirm(ctx, res.ID, actor)
	require.ErrorIs(t, err, repository.ErrAlreadyExpired)
	assert.Equal(t, 0, fx.orders.orderCount())
	assert.Equal(t, model.SlotCounts{Total: 3, Available: 3}, fx.ledger.get(100, model.SlotPreRoll))
}
