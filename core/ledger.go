package core

// BidLedger stores one BidRecord per participant that has ever bid.
// Pure storage: no validation, O(1) lookup by participant, records are
// never deleted. The ledger is owned and mutated exclusively by the bid
// and settlement engines.
type BidLedger struct {
	records map[ParticipantID]*BidRecord
}

// NewBidLedger returns an empty ledger.
func NewBidLedger() *BidLedger {
	return &BidLedger{records: make(map[ParticipantID]*BidRecord)}
}

// Get returns a copy of the participant's record.
func (l *BidLedger) Get(p ParticipantID) (BidRecord, bool) {
	rec, ok := l.records[p]
	if !ok {
		return BidRecord{}, false
	}
	return *rec, true
}

// UpsertAmount creates the participant's record on first use and sets its
// cumulative amount.
func (l *BidLedger) UpsertAmount(p ParticipantID, amount uint64) {
	if rec, ok := l.records[p]; ok {
		rec.Amount = amount
		return
	}
	l.records[p] = &BidRecord{Amount: amount}
}

// SetInHeap flips the participant's winning-set membership flag.
func (l *BidLedger) SetInHeap(p ParticipantID, inHeap bool) {
	if rec, ok := l.records[p]; ok {
		rec.InHeap = inHeap
	}
}

// SetClaimed flips the participant's claimed flag. Settlement sets it before
// the external payout and clears it again if the payout fails.
func (l *BidLedger) SetClaimed(p ParticipantID, claimed bool) {
	if rec, ok := l.records[p]; ok {
		rec.Claimed = claimed
	}
}

// Len returns the number of participants that have ever bid.
func (l *BidLedger) Len() int {
	return len(l.records)
}
