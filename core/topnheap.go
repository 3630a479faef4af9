package core

import "container/heap"

// TopNHeap maintains the exact top-capacity active bids as a min-heap keyed
// by amount. The root is the floor: the lowest bid currently in the winning
// set. Mutations are O(log capacity) and independent of the total number of
// participants.
//
// Tie-break: entries are ordered by (amount ascending, admission sequence
// descending), so among equal amounts the most recently admitted occupant
// sits at the root. A new bid equal to the floor of a full heap therefore
// joins and evicts the newest floor-valued occupant, deterministically.
type TopNHeap struct {
	capacity int
	entries  entryHeap
	seq      uint64
}

type heapEntry struct {
	participant ParticipantID
	amount      uint64
	seq         uint64 // admission order, used only to break amount ties
	index       int    // position in the heap array, maintained by Swap
}

type entryHeap struct {
	items []*heapEntry
	byID  map[ParticipantID]*heapEntry
}

func (h *entryHeap) Len() int { return len(h.items) }

func (h *entryHeap) Less(i, j int) bool {
	if h.items[i].amount != h.items[j].amount {
		return h.items[i].amount < h.items[j].amount
	}
	return h.items[i].seq > h.items[j].seq
}

func (h *entryHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*heapEntry)
	e.index = len(h.items)
	h.items = append(h.items, e)
	h.byID[e.participant] = e
}

func (h *entryHeap) Pop() any {
	e := h.items[len(h.items)-1]
	h.items[len(h.items)-1] = nil
	h.items = h.items[:len(h.items)-1]
	delete(h.byID, e.participant)
	return e
}

// NewTopNHeap returns an empty heap bounded at capacity entries.
func NewTopNHeap(capacity int) *TopNHeap {
	return &TopNHeap{
		capacity: capacity,
		entries:  entryHeap{byID: make(map[ParticipantID]*heapEntry)},
	}
}

// InsertOrReplace offers a bid to the winning set.
//
// While the heap is below capacity the bid always joins. Once full, a bid
// greater than or equal to the floor joins and evicts the floor occupant
// (see the tie-break rule above); a bid strictly below the floor is
// rejected and the set is unchanged.
func (t *TopNHeap) InsertOrReplace(p ParticipantID, amount uint64) MembershipChange {
	if t.capacity == 0 {
		return MembershipChange{}
	}

	t.seq++
	if t.entries.Len() < t.capacity {
		heap.Push(&t.entries, &heapEntry{participant: p, amount: amount, seq: t.seq})
		return MembershipChange{Joined: true}
	}

	floor := t.entries.items[0]
	if amount < floor.amount {
		return MembershipChange{}
	}

	evicted := floor.participant
	heap.Pop(&t.entries)
	heap.Push(&t.entries, &heapEntry{participant: p, amount: amount, seq: t.seq})
	return MembershipChange{Joined: true, Evicted: evicted}
}

// Increase raises a current member's amount in place. The member cannot
// leave the heap by growing, but its position among members may shift.
// Returns false if the participant is not a member.
func (t *TopNHeap) Increase(p ParticipantID, newTotal uint64) bool {
	e, ok := t.entries.byID[p]
	if !ok {
		return false
	}
	e.amount = newTotal
	heap.Fix(&t.entries, e.index)
	return true
}

// Floor returns the lowest winning bid. Defined only when the heap is
// non-empty.
func (t *TopNHeap) Floor() (HeapEntry, bool) {
	if t.entries.Len() == 0 {
		return HeapEntry{}, false
	}
	root := t.entries.items[0]
	return HeapEntry{Participant: root.participant, Amount: root.amount}, true
}

// Contains reports winning-set membership.
func (t *TopNHeap) Contains(p ParticipantID) bool {
	_, ok := t.entries.byID[p]
	return ok
}

// Len returns the current number of members.
func (t *TopNHeap) Len() int { return t.entries.Len() }

// Capacity returns the fixed bound on members.
func (t *TopNHeap) Capacity() int { return t.capacity }

// Entries returns a copy of the current members in heap-array order.
func (t *TopNHeap) Entries() []HeapEntry {
	out := make([]HeapEntry, 0, t.entries.Len())
	for _, e := range t.entries.items {
		out = append(out, HeapEntry{Participant: e.participant, Amount: e.amount})
	}
	return out
}
