package core

import (
	"fmt"
	"sync"
	"time"
)

// Params are the administrator-tunable auction parameters.
type Params struct {
	// ReservePrice is the minimum accepted initial bid, in nanocoins.
	ReservePrice uint64

	// HighestBidPrice is the ceiling any single participant's cumulative
	// bid may reach, in nanocoins.
	HighestBidPrice uint64

	// MinIncrement is the minimum accepted top-up, in nanocoins.
	MinIncrement uint64

	// PrizeCount is the number of prizes, i.e. the winning-set capacity.
	PrizeCount int

	// AuctionEndTime is when bidding closes. Admin-mutable pre-close only.
	AuctionEndTime time.Time

	// ProceedsRecipient receives the one-shot proceeds withdrawal.
	ProceedsRecipient ParticipantID

	// PrizeCollection names the collection the prize issuer mints from.
	PrizeCollection string
}

// auctionState is the mutable state shared by the bid and settlement
// engines. One mutex serializes every state-mutating call; each call reads
// the clock once and is applied fully or not at all.
type auctionState struct {
	mu sync.Mutex

	params Params
	clock  *AuctionClock
	ledger *BidLedger
	heap   *TopNHeap

	// totalLocked is the custodied value still held for active bids.
	totalLocked uint64

	// paymentSent latches after the one-shot proceeds withdrawal.
	paymentSent bool

	nowFn func() time.Time
}

// applyMembership reconciles ledger membership flags with a heap change.
func (s *auctionState) applyMembership(p ParticipantID, change MembershipChange) {
	if change.Evicted != "" {
		s.ledger.SetInHeap(change.Evicted, false)
	}
	if change.Joined {
		s.ledger.SetInHeap(p, true)
	}
}

// Config assembles an auction. Now is optional and defaults to time.Now;
// tests inject a fixed clock the same way the ranking code injects a
// deterministic random source.
type Config struct {
	Params  Params
	Admin   AdminCapability
	Custody FundCustody
	Prizes  PrizeIssuer
	Now     func() time.Time
}

// BidEngine validates and applies bids against the clock and price bounds
// and keeps the winning set exact.
type BidEngine struct {
	st      *auctionState
	admin   AdminCapability
	custody FundCustody
}

// SettlementEngine settles participants after close and performs the
// one-shot proceeds withdrawal.
type SettlementEngine struct {
	st      *auctionState
	admin   AdminCapability
	custody FundCustody
	prizes  PrizeIssuer
}

// NewAuction wires a bid engine and a settlement engine around shared
// ledger/heap state.
func NewAuction(cfg Config) (*BidEngine, *SettlementEngine, error) {
	if cfg.Params.PrizeCount <= 0 {
		return nil, nil, fmt.Errorf("prize count must be positive, got %d", cfg.Params.PrizeCount)
	}
	if cfg.Params.ReservePrice > cfg.Params.HighestBidPrice {
		return nil, nil, fmt.Errorf("reserve price %d exceeds highest bid price %d",
			cfg.Params.ReservePrice, cfg.Params.HighestBidPrice)
	}
	if cfg.Admin == nil {
		return nil, nil, fmt.Errorf("admin capability is required")
	}
	if cfg.Custody == nil {
		return nil, nil, fmt.Errorf("fund custody capability is required")
	}
	if cfg.Prizes == nil {
		return nil, nil, fmt.Errorf("prize issuer capability is required")
	}

	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	st := &auctionState{
		params: cfg.Params,
		clock:  NewAuctionClock(cfg.Params.AuctionEndTime),
		ledger: NewBidLedger(),
		heap:   NewTopNHeap(cfg.Params.PrizeCount),
		nowFn:  nowFn,
	}
	bids := &BidEngine{st: st, admin: cfg.Admin, custody: cfg.Custody}
	settlement := &SettlementEngine{st: st, admin: cfg.Admin, custody: cfg.Custody, prizes: cfg.Prizes}
	return bids, settlement, nil
}

// Bid places a participant's single initial bid. The amount is drawn into
// custody atomically with the call.
func (e *BidEngine) Bid(p ParticipantID, amount uint64) error {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()

	now := e.st.nowFn()
	if !e.st.clock.IsOpen(now) {
		return ErrAuctionClosed
	}
	if _, ok := e.st.ledger.Get(p); ok {
		return ErrAlreadyBid
	}
	if amount < e.st.params.ReservePrice {
		return ErrBelowReserve
	}
	if amount > e.st.params.HighestBidPrice {
		return ErrAboveCeiling
	}
	newLocked, ok := addChecked(e.st.totalLocked, amount)
	if !ok {
		return ErrAmountOverflow
	}

	// Transfer-in first: a failed deposit aborts with no state change.
	if err := e.custody.Deposit(p, amount); err != nil {
		return fmt.Errorf("custody deposit: %w", err)
	}

	e.st.ledger.UpsertAmount(p, amount)
	change := e.st.heap.InsertOrReplace(p, amount)
	e.st.applyMembership(p, change)
	e.st.totalLocked = newLocked
	return nil
}

// IncreaseBid tops up an existing bid by delta. A bid outside the winning
// set re-competes for membership with its new total.
func (e *BidEngine) IncreaseBid(p ParticipantID, delta uint64) error {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()

	now := e.st.nowFn()
	if !e.st.clock.IsOpen(now) {
		return ErrAuctionClosed
	}
	rec, ok := e.st.ledger.Get(p)
	if !ok {
		return ErrNoExistingBid
	}
	if delta < e.st.params.MinIncrement {
		return ErrBelowMinIncrement
	}
	// Checked against the remaining headroom rather than against the sum,
	// which could wrap. The first clause covers a ceiling lowered below an
	// existing bid.
	if rec.Amount > e.st.params.HighestBidPrice || delta > e.st.params.HighestBidPrice-rec.Amount {
		return ErrAboveCeiling
	}
	newTotal := rec.Amount + delta
	newLocked, ok := addChecked(e.st.totalLocked, delta)
	if !ok {
		return ErrAmountOverflow
	}

	if err := e.custody.Deposit(p, delta); err != nil {
		return fmt.Errorf("custody deposit: %w", err)
	}

	e.st.ledger.UpsertAmount(p, newTotal)
	if rec.InHeap {
		e.st.heap.Increase(p, newTotal)
	} else {
		change := e.st.heap.InsertOrReplace(p, newTotal)
		e.st.applyMembership(p, change)
	}
	e.st.totalLocked = newLocked
	return nil
}

// SetReservePrice updates the minimum accepted initial bid.
func (e *BidEngine) SetReservePrice(caller ParticipantID, price uint64) error {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	if !e.admin.IsAdmin(caller) {
		return ErrUnauthorized
	}
	e.st.params.ReservePrice = price
	return nil
}

// SetHighestBidPrice updates the per-participant cumulative bid ceiling.
func (e *BidEngine) SetHighestBidPrice(caller ParticipantID, price uint64) error {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	if !e.admin.IsAdmin(caller) {
		return ErrUnauthorized
	}
	e.st.params.HighestBidPrice = price
	return nil
}

// SetMinIncrement updates the minimum accepted top-up.
func (e *BidEngine) SetMinIncrement(caller ParticipantID, increment uint64) error {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	if !e.admin.IsAdmin(caller) {
		return ErrUnauthorized
	}
	e.st.params.MinIncrement = increment
	return nil
}

// SetPrizeCollection points the auction at a different prize collection.
func (e *BidEngine) SetPrizeCollection(caller ParticipantID, collection string) error {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	if !e.admin.IsAdmin(caller) {
		return ErrUnauthorized
	}
	e.st.params.PrizeCollection = collection
	return nil
}

// SetProceedsRecipient redirects the one-shot proceeds withdrawal.
func (e *BidEngine) SetProceedsRecipient(caller ParticipantID, recipient ParticipantID) error {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	if !e.admin.IsAdmin(caller) {
		return ErrUnauthorized
	}
	e.st.params.ProceedsRecipient = recipient
	return nil
}

// SetAuctionEndTime moves the close. Unlike the other parameters it is
// rejected once the auction has closed, even for administrators.
func (e *BidEngine) SetAuctionEndTime(caller ParticipantID, end time.Time) error {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	if !e.admin.IsAdmin(caller) {
		return ErrUnauthorized
	}
	now := e.st.nowFn()
	if !e.st.clock.IsOpen(now) {
		return ErrAuctionClosed
	}
	e.st.clock.SetEndTime(end)
	e.st.params.AuctionEndTime = end
	return nil
}

// FloorBid returns the lowest winning bid, if any.
func (e *BidEngine) FloorBid() (HeapEntry, bool) {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	return e.st.heap.Floor()
}

// BidAmountOf returns the participant's cumulative bid, zero if absent.
func (e *BidEngine) BidAmountOf(p ParticipantID) uint64 {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	rec, _ := e.st.ledger.Get(p)
	return rec.Amount
}

// TotalBids returns the number of participants that have ever bid.
func (e *BidEngine) TotalBids() int {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	return e.st.ledger.Len()
}

// UserBids returns the public view of each requested participant's bid, in
// request order. Absent participants yield the zero UserBid.
func (e *BidEngine) UserBids(ids []ParticipantID) []UserBid {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	out := make([]UserBid, len(ids))
	for i, id := range ids {
		rec, _ := e.st.ledger.Get(id)
		out[i] = UserBid{Amount: rec.Amount, InHeap: rec.InHeap}
	}
	return out
}

// TotalValueLocked returns the custodied value still held for active bids.
func (e *BidEngine) TotalValueLocked() uint64 {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	return e.st.totalLocked
}

// WinningSet returns a copy of the current winning set.
func (e *BidEngine) WinningSet() []HeapEntry {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	return e.st.heap.Entries()
}

// Params returns a snapshot of the current parameters.
func (e *BidEngine) Params() Params {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	return e.st.params
}

// EndTime returns the current auction end time.
func (e *BidEngine) EndTime() time.Time {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	return e.st.clock.EndTime()
}
