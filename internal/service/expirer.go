package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/queue"
)

// errSkipReservation marks a sweep candidate that was already
// transitioned by a concurrent run; it is counted as a no-op, never
// as a failure.
var errSkipReservation = errors.New("reservation no longer eligible")

// Expirer sweeps lapsed holds: for each held reservation past its
// expires_at it releases every reserved slot back to the ledger and
// records the expired transition.  The sweep is idempotent and safe to
// run concurrently: each candidate is re-checked under the
// reservation row lock, so a reservation already transitioned by a
// parallel run is skipped, not double-released.  One reservation's
// failure never aborts the sweep for the rest.
type Expirer struct {
	ledger       Ledger
	reservations ReservationStore
	activity     ActivitySink
	interval     time.Duration
	batchSize    int
	log          zerolog.Logger
	now          func() time.Time
}

// NewExpirer wires a sweep.  interval drives Run's ticker; batchSize
// caps how many reservations one pass examines.
func NewExpirer(ledger Ledger, reservations ReservationStore, activity ActivitySink,
	interval time.Duration, batchSize int, log zerolog.Logger) *Expirer {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Expirer{
		ledger:       ledger,
		reservations: reservations,
		activity:     activity,
		interval:     interval,
		batchSize:    batchSize,
		log:          log,
		now:          time.Now,
	}
}

// Run drives ExpireDue on the configured interval until ctx is
// cancelled.  Intended to be started once per process from main.
func (e *Expirer) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := e.ExpireDue(ctx, e.now())
			if err != nil {
				e.log.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if expired > 0 {
				e.log.Info().Int("expired", expired).Msg("expiry sweep")
			}
		}
	}
}

// ExpireDue runs one sweep pass over holds lapsed before now and
// returns how many reservations it transitioned.  Also invoked on
// demand by privileged operators.
func (e *Expirer) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := e.reservations.ListExpiredIDs(ctx, now, e.batchSize)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		var done *model.Reservation
		var doneItems []model.ReservationItem
		err := e.reservations.Transition(ctx, id, func(res *model.Reservation, items []model.ReservationItem) error {
			if res.Status != model.ReservationHeld || !res.ExpiredAt(now) {
				return errSkipReservation
			}
			for _, it := range items {
				if err := e.ledger.ReleaseReservation(ctx, it.EpisodeID, it.SlotType, it.Quantity); err != nil {
					return err
				}
			}
			res.Status = model.ReservationExpired
			done = res
			doneItems = items
			return nil
		})
		if errors.Is(err, errSkipReservation) {
			continue
		}
		if err != nil {
			// Isolate the failure; the remaining candidates still expire.
			e.log.Error().Err(err).Uint64("reservation_id", id).Msg("expire failed")
			continue
		}
		expired++
		e.publish(ctx, done, doneItems)
	}
	return expired, nil
}

func (e *Expirer) publish(ctx context.Context, res *model.Reservation, items []model.ReservationItem) {
	if e.activity == nil {
		return
	}
	ev := queue.NewActivityEvent(queue.EventReservationExpired)
	ev.OrgID = res.OrgID
	ev.ReservationID = res.ID
	ev.CampaignID = res.CampaignID
	for _, it := range items {
		ev.Items = append(ev.Items, queue.ActivityItem{
			EpisodeID: it.EpisodeID,
			SlotType:  string(it.SlotType),
			AirDate:   it.AirDate.UTC().Format("2006-01-02"),
			Quantity:  it.Quantity,
		})
	}
	if err := e.activity.Publish(ctx, ev); err != nil {
		e.log.Warn().Err(err).Msg("activity publish failed")
	}
}
