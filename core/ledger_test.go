package core

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestBidLedger_Lifecycle(t *testing.T) {
	l := NewBidLedger()

	_, ok := l.Get("a")
	check.False(t, ok)
	check.Equal(t, 0, l.Len())

	l.UpsertAmount("a", 100)
	rec, ok := l.Get("a")
	check.True(t, ok)
	check.Equal(t, BidRecord{Amount: 100}, rec)

	l.UpsertAmount("a", 150)
	l.SetInHeap("a", true)
	l.SetClaimed("a", true)
	rec, _ = l.Get("a")
	check.Equal(t, BidRecord{Amount: 150, InHeap: true, Claimed: true}, rec)

	// Rollback path clears the claimed flag again.
	l.SetClaimed("a", false)
	rec, _ = l.Get("a")
	check.False(t, rec.Claimed)

	check.Equal(t, 1, l.Len())
}

func TestBidLedger_GetReturnsCopy(t *testing.T) {
	l := NewBidLedger()
	l.UpsertAmount("a", 100)

	rec, _ := l.Get("a")
	rec.Amount = 1

	rec, _ = l.Get("a")
	check.Equal(t, uint64(100), rec.Amount)
}

func TestBidLedger_FlagsOnUnknownParticipantAreNoOps(t *testing.T) {
	l := NewBidLedger()
	l.SetInHeap("ghost", true)
	l.SetClaimed("ghost", true)
	check.Equal(t, 0, l.Len())
}
