// Package queue defines the activity events exchanged over the message
// broker and the publisher/consumer pair that moves them.  Events are
// fire-and-forget: the reservation flow never fails because the broker
// is down.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// EventType names the reservation lifecycle moments that emit an
// activity event.
type EventType string

const (
	EventReservationHeld      EventType = "reservation.held"
	EventReservationConfirmed EventType = "reservation.confirmed"
	EventReservationExpired   EventType = "reservation.expired"
	EventReservationCancelled EventType = "reservation.cancelled"
)

// ActivityEvent is the payload published for every reservation
// lifecycle transition.  It carries enough information for downstream
// consumers (activity log, notifications, analytics) without querying
// the primary database.
type ActivityEvent struct {
	EventID       string         `json:"event_id"`
	Type          EventType      `json:"type"`
	OccurredAt    string         `json:"occurred_at"`
	OrgID         uint64         `json:"org_id"`
	ReservationID uint64         `json:"reservation_id"`
	CampaignID    uint64         `json:"campaign_id"`
	ActorID       uint64         `json:"actor_id,omitempty"`
	OrderID       uint64         `json:"order_id,omitempty"`
	OrderTotal    string         `json:"order_total,omitempty"`
	Items         []ActivityItem `json:"items,omitempty"`
}

// ActivityItem summarizes one reserved episode/slot line.
type ActivityItem struct {
	EpisodeID uint64 `json:"episode_id"`
	SlotType  string `json:"slot_type"`
	AirDate   string `json:"air_date"`
	Quantity  int    `json:"quantity"`
}

// NewActivityEvent stamps a fresh event with id and timestamp.
func NewActivityEvent(t EventType) ActivityEvent {
	return ActivityEvent{
		EventID:    uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
