package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus enumerates the hold lifecycle.  A reservation is
// created as held and makes exactly one terminal transition: confirmed
// (manual success), expired (automatic after the TTL) or cancelled
// (manual).  There are no transitions out of a terminal state.
type ReservationStatus string

const (
	ReservationHeld      ReservationStatus = "held"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationExpired   ReservationStatus = "expired"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Terminal reports whether the status permits no further transition.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationConfirmed || s == ReservationExpired || s == ReservationCancelled
}

// Reservation is a time-bounded claim on ad inventory.  While held it
// keeps the claimed slots in the ledger's reserved column; confirming
// converts them to booked, expiry or cancellation returns them to
// available.
//
// Fields:
//  ID          – primary key identifier.
//  OrgID       – owning organization.
//  CampaignID  – campaign the claimed slots are sold under.
//  Status      – lifecycle state, see ReservationStatus.
//  HoldToken   – opaque token returned to the client for correlation.
//  CreatedBy   – user who placed the hold.
//  ExpiresAt   – when the hold lapses (created as now + TTL).
//  ConfirmedAt – set once, on the held→confirmed transition.
//  ConfirmedBy – user who confirmed, set with ConfirmedAt.
type Reservation struct {
	ID          uint64            `json:"id"`           // reservations.id
	OrgID       uint64            `json:"org_id"`       // reservations.org_id
	CampaignID  uint64            `json:"campaign_id"`  // reservations.campaign_id
	Status      ReservationStatus `json:"status"`       // reservations.status
	HoldToken   string            `json:"hold_token"`   // reservations.hold_token
	CreatedBy   uint64            `json:"created_by"`   // reservations.created_by
	ExpiresAt   time.Time         `json:"expires_at"`   // reservations.expires_at
	ConfirmedAt *time.Time        `json:"confirmed_at,omitempty"` // reservations.confirmed_at
	ConfirmedBy *uint64           `json:"confirmed_by,omitempty"` // reservations.confirmed_by
	CreatedAt   time.Time         `json:"created_at"`   // reservations.created_at
	UpdatedAt   time.Time         `json:"updated_at"`   // reservations.updated_at
}

// ExpiredAt reports whether the hold has lapsed at the given instant.
// A hold that has lapsed but not yet been swept must be rejected at
// confirm time, not silently honored.
func (r *Reservation) ExpiredAt(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// ReservationItem is one claimed episode/slot-type line under a
// reservation.  Items are written atomically with their parent and are
// immutable once the reservation leaves held.  Quantity expresses
// multiple identical slots on the same episode and type.
type ReservationItem struct {
	ID            uint64          `json:"id"`             // reservation_items.id
	ReservationID uint64          `json:"reservation_id"` // reservation_items.reservation_id
	ShowID        uint64          `json:"show_id"`        // reservation_items.show_id
	EpisodeID     uint64          `json:"episode_id"`     // reservation_items.episode_id
	SlotType      SlotType        `json:"slot_type"`      // reservation_items.slot_type
	AirDate       time.Time       `json:"air_date"`       // reservation_items.air_date
	Rate          decimal.Decimal `json:"rate"`           // reservation_items.rate
	Quantity      int             `json:"quantity"`       // reservation_items.quantity
}

// NewHoldToken returns a 64-character random hex token used to
// correlate a hold with the client that placed it.
func NewHoldToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
