package core

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestTopNHeap_FillsToCapacity(t *testing.T) {
	h := NewTopNHeap(3)

	check.Equal(t, MembershipChange{Joined: true}, h.InsertOrReplace("a", 100))
	check.Equal(t, MembershipChange{Joined: true}, h.InsertOrReplace("b", 50))
	check.Equal(t, MembershipChange{Joined: true}, h.InsertOrReplace("c", 200))

	check.Equal(t, 3, h.Len())
	floor, ok := h.Floor()
	assert.True(t, ok)
	check.Equal(t, HeapEntry{Participant: "b", Amount: 50}, floor)
}

func TestTopNHeap_FullHeapEviction(t *testing.T) {
	h := NewTopNHeap(2)
	h.InsertOrReplace("a", 100)
	h.InsertOrReplace("b", 50)

	// Below the floor: rejected, set unchanged.
	check.Equal(t, MembershipChange{}, h.InsertOrReplace("c", 49))
	check.True(t, h.Contains("b"))

	// Above the floor: joins, floor occupant evicted.
	change := h.InsertOrReplace("d", 60)
	check.Equal(t, MembershipChange{Joined: true, Evicted: "b"}, change)
	check.False(t, h.Contains("b"))
	check.True(t, h.Contains("d"))
	check.Equal(t, 2, h.Len())

	floor, _ := h.Floor()
	check.Equal(t, HeapEntry{Participant: "d", Amount: 60}, floor)
}

func TestTopNHeap_EqualToFloorJoins(t *testing.T) {
	h := NewTopNHeap(2)
	h.InsertOrReplace("a", 100)
	h.InsertOrReplace("b", 50)

	// A bid exactly matching the floor joins and evicts the floor occupant.
	change := h.InsertOrReplace("c", 50)
	check.Equal(t, MembershipChange{Joined: true, Evicted: "b"}, change)

	// Among equal amounts the most recently admitted sits at the floor, so
	// the next equal bid evicts "c", not "a".
	change = h.InsertOrReplace("d", 50)
	check.Equal(t, MembershipChange{Joined: true, Evicted: "c"}, change)
	check.True(t, h.Contains("a"))
	check.True(t, h.Contains("d"))
}

func TestTopNHeap_EqualAmountsEvictNewestFirst(t *testing.T) {
	h := NewTopNHeap(3)
	h.InsertOrReplace("a", 50)
	h.InsertOrReplace("b", 50)
	h.InsertOrReplace("c", 50)

	// All equal: floor is the newest admission.
	floor, _ := h.Floor()
	check.Equal(t, ParticipantID("c"), floor.Participant)

	change := h.InsertOrReplace("d", 50)
	check.Equal(t, ParticipantID("c"), change.Evicted)
	change = h.InsertOrReplace("e", 50)
	check.Equal(t, ParticipantID("d"), change.Evicted)
}

func TestTopNHeap_Increase(t *testing.T) {
	h := NewTopNHeap(2)
	h.InsertOrReplace("a", 100)
	h.InsertOrReplace("b", 50)

	// Raising the floor member moves the floor to the other member.
	check.True(t, h.Increase("b", 150))
	floor, _ := h.Floor()
	check.Equal(t, HeapEntry{Participant: "a", Amount: 100}, floor)

	// Non-members cannot be increased in place.
	check.False(t, h.Increase("z", 999))
	check.Equal(t, 2, h.Len())
}

func TestTopNHeap_ZeroCapacity(t *testing.T) {
	h := NewTopNHeap(0)
	check.Equal(t, MembershipChange{}, h.InsertOrReplace("a", 100))
	check.Equal(t, 0, h.Len())
	_, ok := h.Floor()
	check.False(t, ok)
}

func TestTopNHeap_FloorSequence(t *testing.T) {
	// Ten ascending bids through a capacity-5 heap: the floor climbs as
	// each new bid displaces the lowest remaining one.
	h := NewTopNHeap(5)
	amounts := []uint64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	participants := []ParticipantID{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"}

	wantFloor := []uint64{10, 10, 10, 10, 10, 20, 30, 40, 50, 60}
	for i := range amounts {
		change := h.InsertOrReplace(participants[i], amounts[i])
		check.True(t, change.Joined)
		floor, ok := h.Floor()
		assert.True(t, ok)
		check.Equal(t, wantFloor[i], floor.Amount)
	}

	// The five highest bids remain.
	check.Equal(t, 5, h.Len())
	for _, p := range participants[5:] {
		check.True(t, h.Contains(p))
	}
	for _, p := range participants[:5] {
		check.False(t, h.Contains(p))
	}
}

func TestTopNHeap_EntriesIsACopy(t *testing.T) {
	h := NewTopNHeap(2)
	h.InsertOrReplace("a", 100)

	entries := h.Entries()
	assert.Equal(t, 1, len(entries))
	entries[0].Amount = 1

	floor, _ := h.Floor()
	check.Equal(t, uint64(100), floor.Amount)
}
