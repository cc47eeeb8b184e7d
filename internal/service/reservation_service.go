package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/queue"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/repository"
)

// Hold TTL bounds applied to per-request overrides.
const (
	minHoldTTL = time.Minute
	maxHoldTTL = 24 * time.Hour
)

// HoldItemInput is one requested episode/slot-type line of a hold.
type HoldItemInput struct {
	EpisodeID uint64
	SlotType  model.SlotType
	Rate      decimal.Decimal
	Quantity  int
}

// ConfirmResult bundles everything a successful confirmation produced.
type ConfirmResult struct {
	Reservation *model.Reservation `json:"reservation"`
	Campaign    *model.Campaign    `json:"campaign"`
	Order       *model.Order       `json:"order"`
	OrderItems  []model.OrderItem  `json:"order_items"`
}

// ReservationService is the reservation lifecycle manager.  It owns
// every transition of a reservation and funnels all inventory
// mutation through the Ledger.
type ReservationService struct {
	ledger       Ledger
	reservations ReservationStore
	campaigns    CampaignStore
	episodes     EpisodeStore
	converter    *BookingConverter
	activity     ActivitySink
	holdTTL      time.Duration
	log          zerolog.Logger
	now          func() time.Time
}

// NewReservationService wires the lifecycle manager.  defaultTTL is
// the hold duration applied when a request does not override it.
func NewReservationService(ledger Ledger, reservations ReservationStore, campaigns CampaignStore,
	episodes EpisodeStore, converter *BookingConverter, activity ActivitySink,
	defaultTTL time.Duration, log zerolog.Logger) *ReservationService {
	return &ReservationService{
		ledger:       ledger,
		reservations: reservations,
		campaigns:    campaigns,
		episodes:     episodes,
		converter:    converter,
		activity:     activity,
		holdTTL:      defaultTTL,
		log:          log,
		now:          time.Now,
	}
}

type reservedSlot struct {
	episodeID uint64
	slotType  model.SlotType
	quantity  int
}

// CreateHold places a timed hold on every requested item.  Items are
// reserved one at a time against the ledger; if any item cannot be
// satisfied, every slot reserved earlier in this call is released
// again (compensating actions, there is no cross-row transaction
// spanning the ledger) and the failing item is reported.  On success
// the held reservation and its items are persisted in one storage
// transaction.
func (s *ReservationService) CreateHold(ctx context.Context, actor model.Actor, campaignID uint64,
	inputs []HoldItemInput, ttl time.Duration) (*model.Reservation, []model.ReservationItem, error) {

	if len(inputs) == 0 {
		return nil, nil, fmt.Errorf("hold requires at least one item")
	}
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.CanAccessOrg(campaign.OrgID) {
		return nil, nil, repository.ErrForbidden
	}

	// Resolve episodes up front; the episode is authoritative for show
	// and air date.
	items := make([]model.ReservationItem, 0, len(inputs))
	for _, in := range inputs {
		if _, ok := model.ParseSlotType(string(in.SlotType)); !ok {
			return nil, nil, fmt.Errorf("invalid slot type %q", in.SlotType)
		}
		qty := in.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return nil, nil, fmt.Errorf("invalid quantity %d for episode %d", qty, in.EpisodeID)
		}
		ep, err := s.episodes.GetByID(ctx, in.EpisodeID)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, model.ReservationItem{
			ShowID:    ep.ShowID,
			EpisodeID: ep.ID,
			SlotType:  in.SlotType,
			AirDate:   ep.AirDate,
			Rate:      in.Rate,
			Quantity:  qty,
		})
	}

	if ttl <= 0 {
		ttl = s.holdTTL
	}
	if ttl < minHoldTTL {
		ttl = minHoldTTL
	}
	if ttl > maxHoldTTL {
		ttl = maxHoldTTL
	}

	// Reserve item by item, unwinding on the first failure.
	reserved := make([]reservedSlot, 0, len(items))
	for _, it := range items {
		if err := s.ledger.TryReserve(ctx, it.EpisodeID, it.SlotType, it.Quantity); err != nil {
			s.releaseAll(ctx, reserved)
			return nil, nil, err
		}
		reserved = append(reserved, reservedSlot{it.EpisodeID, it.SlotType, it.Quantity})
	}

	token, err := model.NewHoldToken()
	if err != nil {
		s.releaseAll(ctx, reserved)
		return nil, nil, err
	}
	now := s.now()
	res := &model.Reservation{
		OrgID:      campaign.OrgID,
		CampaignID: campaignID,
		Status:     model.ReservationHeld,
		HoldToken:  token,
		CreatedBy:  actor.UserID,
		ExpiresAt:  now.Add(ttl).UTC(),
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	if err := s.reservations.CreateWithItems(ctx, res, items); err != nil {
		// The hold never became durable; hand the slots back.
		s.releaseAll(ctx, reserved)
		return nil, nil, fmt.Errorf("persist hold: %w", err)
	}

	s.publish(ctx, queue.EventReservationHeld, res, items, actor, nil)
	s.log.Info().
		Uint64("reservation_id", res.ID).
		Uint64("campaign_id", campaignID).
		Int("items", len(items)).
		Time("expires_at", res.ExpiresAt).
		Msg("hold created")
	return res, items, nil
}

// releaseAll unwinds prior TryReserve calls of a failed hold.  Release
// failures here are invariant violations and are only logged: the
// original error is what the caller needs to see.
func (s *ReservationService) releaseAll(ctx context.Context, reserved []reservedSlot) {
	for _, r := range reserved {
		if err := s.ledger.ReleaseReservation(ctx, r.episodeID, r.slotType, r.quantity); err != nil {
			s.log.Error().Err(err).
				Uint64("episode_id", r.episodeID).
				Str("slot_type", string(r.slotType)).
				Msg("rollback release failed")
		}
	}
}

// Confirm finalizes a held reservation: under the reservation row lock
// it re-checks the hold (a lapsed hold is rejected even before the
// sweep caught it), delegates to the booking converter and records the
// terminal transition.  If the converter fails partway the reservation
// stays held and the error is surfaced for retry; the converter's own
// idempotence makes the retry resume instead of double-applying.
func (s *ReservationService) Confirm(ctx context.Context, reservationID uint64, actor model.Actor) (*ConfirmResult, error) {
	result := &ConfirmResult{}
	var confirmedItems []model.ReservationItem
	err := s.reservations.Transition(ctx, reservationID, func(res *model.Reservation, items []model.ReservationItem) error {
		if !actor.CanAccessOrg(res.OrgID) {
			return repository.ErrForbidden
		}
		switch res.Status {
		case model.ReservationHeld:
		case model.ReservationConfirmed:
			return repository.ErrAlreadyConfirmed
		case model.ReservationExpired:
			return repository.ErrAlreadyExpired
		default:
			return repository.ErrNotHeld
		}
		now := s.now()
		if res.ExpiredAt(now) {
			return repository.ErrAlreadyExpired
		}

		out, err := s.converter.Convert(ctx, res, items, actor)
		if err != nil {
			return err
		}

		res.Status = model.ReservationConfirmed
		confirmedAt := now.UTC()
		res.ConfirmedAt = &confirmedAt
		res.ConfirmedBy = &actor.UserID

		result.Reservation = res
		result.Campaign = out.Campaign
		result.Order = out.Order
		result.OrderItems = out.Items
		confirmedItems = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Publish the reservation items, not the order items: order lines
	// are fixed at quantity 1 and would understate multi-slot holds.
	s.publish(ctx, queue.EventReservationConfirmed, result.Reservation, confirmedItems, actor, result.Order)
	s.log.Info().
		Uint64("reservation_id", reservationID).
		Uint64("order_id", result.Order.ID).
		Str("total", result.Order.Total.StringFixed(2)).
		Msg("reservation confirmed")
	return result, nil
}

// Cancel manually releases a held reservation.  Like expiry it hands
// every reserved slot back to the ledger before recording the terminal
// transition, all under the reservation row lock.
func (s *ReservationService) Cancel(ctx context.Context, reservationID uint64, actor model.Actor) (*model.Reservation, error) {
	var cancelled *model.Reservation
	var cancelledItems []model.ReservationItem
	err := s.reservations.Transition(ctx, reservationID, func(res *model.Reservation, items []model.ReservationItem) error {
		if !actor.CanAccessOrg(res.OrgID) {
			return repository.ErrForbidden
		}
		switch res.Status {
		case model.ReservationHeld:
		case model.ReservationConfirmed:
			return repository.ErrAlreadyConfirmed
		case model.ReservationExpired:
			return repository.ErrAlreadyExpired
		default:
			return repository.ErrNotHeld
		}
		for _, it := range items {
			if err := s.ledger.ReleaseReservation(ctx, it.EpisodeID, it.SlotType, it.Quantity); err != nil {
				return err
			}
		}
		res.Status = model.ReservationCancelled
		cancelled = res
		cancelledItems = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventReservationCancelled, cancelled, cancelledItems, actor, nil)
	s.log.Info().Uint64("reservation_id", reservationID).Msg("reservation cancelled")
	return cancelled, nil
}

// Get returns a reservation with its items, enforcing org ownership.
func (s *ReservationService) Get(ctx context.Context, reservationID uint64, actor model.Actor) (*model.Reservation, []model.ReservationItem, error) {
	res, items, err := s.reservations.GetWithItems(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.CanAccessOrg(res.OrgID) {
		return nil, nil, repository.ErrForbidden
	}
	return res, items, nil
}

// List returns the actor's organization's reservations, newest first.
func (s *ReservationService) List(ctx context.Context, actor model.Actor, limit int) ([]model.Reservation, error) {
	return s.reservations.ListByOrg(ctx, actor.OrgID, limit)
}

func (s *ReservationService) publish(ctx context.Context, t queue.EventType, res *model.Reservation,
	items []model.ReservationItem, actor model.Actor, order *model.Order) {
	if s.activity == nil {
		return
	}
	ev := queue.NewActivityEvent(t)
	ev.OrgID = res.OrgID
	ev.ReservationID = res.ID
	ev.CampaignID = res.CampaignID
	ev.ActorID = actor.UserID
	if order != nil {
		ev.OrderID = order.ID
		ev.OrderTotal = order.Total.StringFixed(2)
	}
	for _, it := range items {
		ev.Items = append(ev.Items, queue.ActivityItem{
			EpisodeID: it.EpisodeID,
			SlotType:  string(it.SlotType),
			AirDate:   it.AirDate.UTC().Format("2006-01-02"),
			Quantity:  it.Quantity,
		})
	}
	if err := s.activity.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", string(t)).Msg("activity publish failed")
	}
}
