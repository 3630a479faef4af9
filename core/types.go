package core

// ParticipantID identifies a bidder or payout recipient.
type ParticipantID string

// BidRecord is the per-participant ledger entry. One record exists for every
// participant that has ever bid; records are mutated but never deleted.
type BidRecord struct {
	// Amount is the participant's cumulative bid in nanocoins.
	// It is monotonically non-decreasing for the lifetime of the record.
	Amount uint64

	// InHeap reports whether the bid is currently in the winning set.
	InHeap bool

	// Claimed reports whether the participant has settled (prize or refund).
	Claimed bool
}

// HeapEntry is one member of the winning set.
type HeapEntry struct {
	Participant ParticipantID `json:"participant"`
	Amount      uint64        `json:"amount"`
}

// MembershipChange reports how an InsertOrReplace call changed winning-set
// membership. The zero value means the offered bid was rejected.
type MembershipChange struct {
	// Joined is true when the offered bid entered the winning set.
	Joined bool

	// Evicted names the occupant displaced to make room, if any.
	Evicted ParticipantID
}

// UserBid is the public view of a participant's bid.
type UserBid struct {
	Amount uint64 `json:"amount"`
	InHeap bool   `json:"in_heap"`
}

// ClaimInfo describes what settlement will pay a participant.
// Exactly one of MintsPrize / a non-zero RefundAmount holds for any bidder.
type ClaimInfo struct {
	MintsPrize   bool   `json:"mints_prize"`
	RefundAmount uint64 `json:"refund_amount"`
	Claimed      bool   `json:"claimed"`
}

// ClaimOutcome describes a completed settlement for one participant.
type ClaimOutcome struct {
	Participant ParticipantID
	Winner      bool
	Prize       PrizeID // zero unless Winner
	Refund      uint64  // zero when Winner
}
