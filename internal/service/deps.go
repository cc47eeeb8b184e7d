// Package service implements the reservation engine: hold creation
// with compensating rollback, the expiry sweep, confirmation and the
// conversion of confirmed holds into orders, plus the read-only
// availability query.  Persistence is consumed through the narrow
// interfaces below; the repository package provides the MySQL
// implementations and tests substitute in-memory fakes.
package service

import (
	"context"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/queue"
)

// Ledger is the single mutation path for the per-episode slot
// counters.  Implementations must make each mutation atomic per
// (episode, slot type) key; contention on one key must not block
// another.
type Ledger interface {
	GetForEpisode(ctx context.Context, episodeID uint64) (model.Inventory, error)
	GetForEpisodes(ctx context.Context, episodeIDs []uint64) (map[uint64]model.Inventory, error)
	TryReserve(ctx context.Context, episodeID uint64, t model.SlotType, qty int) error
	ReleaseReservation(ctx context.Context, episodeID uint64, t model.SlotType, qty int) error
	ConfirmBooking(ctx context.Context, episodeID uint64, t model.SlotType, qty int) error
}

// ReservationStore persists reservations.  Transition must run fn
// under an exclusive per-reservation lock and commit the status fields
// fn sets only when fn returns nil; it is the serialization point
// between confirm, cancel and the expiry sweep.
type ReservationStore interface {
	CreateWithItems(ctx context.Context, res *model.Reservation, items []model.ReservationItem) error
	GetWithItems(ctx context.Context, id uint64) (*model.Reservation, []model.ReservationItem, error)
	ListByOrg(ctx context.Context, orgID uint64, limit int) ([]model.Reservation, error)
	ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error)
	Transition(ctx context.Context, id uint64, fn func(res *model.Reservation, items []model.ReservationItem) error) error
}

// OrderStore persists orders materialized from confirmed reservations.
type OrderStore interface {
	GetByReservation(ctx context.Context, reservationID uint64) (*model.Order, []model.OrderItem, error)
	CreateWithItems(ctx context.Context, o *model.Order, items []model.OrderItem) error
	MarkItemBooked(ctx context.Context, orderItemID uint64) error
}

// CampaignStore reads campaigns and applies the converter's status update.
type CampaignStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Campaign, error)
	UpdateStatus(ctx context.Context, id uint64, status model.CampaignStatus) error
}

// EpisodeStore reads the episode catalog.
type EpisodeStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Episode, error)
	ListForShows(ctx context.Context, showIDs []uint64, from, to time.Time) ([]model.Episode, error)
}

// ShowStore reads the show catalog (default slot counts included).
type ShowStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Show, error)
	ListByIDs(ctx context.Context, ids []uint64) ([]model.Show, error)
}

// ActivitySink receives fire-and-forget lifecycle events.  Publish
// errors are logged by the caller and never fail the operation.
type ActivitySink interface {
	Publish(ctx context.Context, event queue.ActivityEvent) error
}
