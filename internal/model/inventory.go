package model

// SlotType identifies an ad placement position within an episode.  The
// three positions are sold independently: a pre-roll runs before the
// episode content, mid-rolls inside it and post-rolls after it.
type SlotType string

const (
	SlotPreRoll  SlotType = "preRoll"
	SlotMidRoll  SlotType = "midRoll"
	SlotPostRoll SlotType = "postRoll"
)

// SlotTypes returns all placement positions in canonical order.
func SlotTypes() []SlotType {
	return []SlotType{SlotPreRoll, SlotMidRoll, SlotPostRoll}
}

// ParseSlotType validates a wire value and returns the typed constant.
// The second return value is false for unknown values.
func ParseSlotType(s string) (SlotType, bool) {
	switch SlotType(s) {
	case SlotPreRoll, SlotMidRoll, SlotPostRoll:
		return SlotType(s), true
	}
	return "", false
}

// SlotCounts are the ledger counters for one slot type on one episode.
// At all times Total == Available + Reserved + Booked and every counter
// is non-negative; the repository guards enforce this on every mutation.
type SlotCounts struct {
	Total     int `json:"total"`     // slots that exist for sale
	Available int `json:"available"` // slots free to hold
	Reserved  int `json:"reserved"`  // slots under an active hold
	Booked    int `json:"booked"`    // slots consumed by confirmed orders
}

// Consistent reports whether the counters satisfy the ledger invariant.
func (c SlotCounts) Consistent() bool {
	if c.Total < 0 || c.Available < 0 || c.Reserved < 0 || c.Booked < 0 {
		return false
	}
	return c.Total == c.Available+c.Reserved+c.Booked
}

// Inventory holds the ledger counters for every slot type of one
// episode.  It mirrors a single episode_inventory row.  Episodes
// without a row inherit their show's default slot counts with all
// slots available (lazy materialization: the row is created on first
// mutation, never on read).
type Inventory struct {
	EpisodeID uint64     `json:"episode_id"`
	PreRoll   SlotCounts `json:"preRoll"`
	MidRoll   SlotCounts `json:"midRoll"`
	PostRoll  SlotCounts `json:"postRoll"`
}

// Counts returns the counters for the given slot type.
func (i Inventory) Counts(t SlotType) SlotCounts {
	switch t {
	case SlotPreRoll:
		return i.PreRoll
	case SlotMidRoll:
		return i.MidRoll
	case SlotPostRoll:
		return i.PostRoll
	}
	return SlotCounts{}
}

// SetCounts replaces the counters for the given slot type.
func (i *Inventory) SetCounts(t SlotType, c SlotCounts) {
	switch t {
	case SlotPreRoll:
		i.PreRoll = c
	case SlotMidRoll:
		i.MidRoll = c
	case SlotPostRoll:
		i.PostRoll = c
	}
}

// DefaultInventory derives the ledger view for an episode that has no
// inventory row yet: the show defaults are all available.
func DefaultInventory(episodeID uint64, show *Show) Inventory {
	inv := Inventory{EpisodeID: episodeID}
	for _, t := range SlotTypes() {
		n := show.DefaultSlots(t)
		inv.SetCounts(t, SlotCounts{Total: n, Available: n})
	}
	return inv
}
