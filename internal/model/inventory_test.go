package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSlotType(t *testing.T) {
	for _, valid := range []string{"preRoll", "midRoll", "postRoll"} {
		got, ok := ParseSlotType(valid)
		assert.True(t, ok, valid)
		assert.Equal(t, SlotType(valid), got)
	}
	for _, invalid := range []string{"", "preroll", "PreRoll", "banner"} {
		_, ok := ParseSlotType(invalid)
		assert.False(t, ok, invalid)
	}
}

func TestSlotCountsConsistent(t *testing.T) {
	assert.True(t, SlotCounts{Total: 5, Available: 2, Reserved: 2, Booked: 1}.Consistent())
	assert.True(t, SlotCounts{}.Consistent())
	assert.False(t, SlotCounts{Total: 5, Available: 5, Reserved: 1}.Consistent())
	assert.False(t, SlotCounts{Total: 1, Available: 2, Reserved: -1}.Consistent())
}

func TestDefaultInventory(t *testing.T) {
	show := &Show{ID: 5, PreRollSlots: 3, MidRollSlots: 2, PostRollSlots: 0}

	inv := DefaultInventory(42, show)

	assert.Equal(t, uint64(42), inv.EpisodeID)
	assert.Equal(t, SlotCounts{Total: 3, Available: 3}, inv.PreRoll)
	assert.Equal(t, SlotCounts{Total: 2, Available: 2}, inv.MidRoll)
	assert.Equal(t, SlotCounts{}, inv.PostRoll)
	for _, st := range SlotTypes() {
		assert.True(t, inv.Counts(st).Consistent())
	}
}
