// Package repository defines error types that are reused across the
// persistence layer and surfaced to services and handlers.  Sentinel
// values let higher layers distinguish failure scenarios with
// errors.Is, while the struct errors carry enough detail for the
// caller to act (which item, which counter).
package repository

import (
	"errors"
	"fmt"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
)

// ErrShowNotFound is returned when a show lookup matches no row.
var ErrShowNotFound = errors.New("show not found")

// ErrEpisodeNotFound is returned when an episode lookup matches no row.
var ErrEpisodeNotFound = errors.New("episode not found")

// ErrCampaignNotFound is returned when a campaign lookup matches no row.
var ErrCampaignNotFound = errors.New("campaign not found")

// ErrReservationNotFound is returned when a reservation lookup matches
// no row.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrOrderNotFound is returned when no order exists for a reservation.
var ErrOrderNotFound = errors.New("order not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by another organization.  Handlers translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrNotHeld is returned when a lifecycle transition is attempted on a
// reservation that is not in the held state.  The caller must reload
// reservation state; the operation is never retried automatically.
var ErrNotHeld = errors.New("reservation is not held")

// ErrAlreadyConfirmed is returned when confirming a reservation that
// has already been confirmed.  Confirm is idempotent in the sense that
// the caller can treat this as "done", but no second order is created.
var ErrAlreadyConfirmed = errors.New("reservation already confirmed")

// ErrAlreadyExpired is returned when confirming a reservation whose
// hold has lapsed, whether or not the sweep has already transitioned it.
var ErrAlreadyExpired = errors.New("reservation already expired")

// InsufficientInventoryError reports that a TryReserve lost the race
// for the last slots of an episode/slot-type.  The caller must pick
// different slots; the operation is not retried.
type InsufficientInventoryError struct {
	EpisodeID uint64
	SlotType  model.SlotType
	Requested int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory: episode %d %s (requested %d)",
		e.EpisodeID, e.SlotType, e.Requested)
}

// InvariantViolationError reports that a ledger mutation would have
// driven a counter negative.  The operation is aborted and the error
// logged for an operator; counters are never silently corrected.
type InvariantViolationError struct {
	EpisodeID uint64
	SlotType  model.SlotType
	Op        string
	Quantity  int
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("inventory invariant violation: %s of %d on episode %d %s would go negative",
		e.Op, e.Quantity, e.EpisodeID, e.SlotType)
}
