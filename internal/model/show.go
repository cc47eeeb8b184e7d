package model

import "time"

// Show represents a podcast show owned by an organization.  The
// per-type slot counts are the defaults applied to every episode that
// has no materialized inventory row of its own.
//
// Fields:
//  ID            – primary key identifier.
//  OrgID         – owning organization (tenant).
//  Name          – display name of the show.
//  PreRollSlots  – default sellable pre-roll slots per episode.
//  MidRollSlots  – default sellable mid-roll slots per episode.
//  PostRollSlots – default sellable post-roll slots per episode.
//  Active        – whether the show currently accepts bookings.
type Show struct {
	ID            uint64    `json:"id"`             // shows.id
	OrgID         uint64    `json:"org_id"`         // shows.org_id
	Name          string    `json:"name"`           // shows.name
	PreRollSlots  int       `json:"pre_roll_slots"` // shows.pre_roll_slots
	MidRollSlots  int       `json:"mid_roll_slots"` // shows.mid_roll_slots
	PostRollSlots int       `json:"post_roll_slots"`// shows.post_roll_slots
	Active        bool      `json:"active"`         // shows.active
	CreatedAt     time.Time `json:"created_at"`     // shows.created_at
	UpdatedAt     time.Time `json:"updated_at"`     // shows.updated_at
}

// DefaultSlots returns the show-level default slot count for a type.
func (s *Show) DefaultSlots(t SlotType) int {
	switch t {
	case SlotPreRoll:
		return s.PreRollSlots
	case SlotMidRoll:
		return s.MidRollSlots
	case SlotPostRoll:
		return s.PostRollSlots
	}
	return 0
}
