package core

import "fmt"

// Settlement is a per-participant state machine with one terminal state:
//
//	Bid Placed -> {Winner | Loser} -> Claimed
//
// Winning-set membership is frozen at close time (nothing mutates the heap
// after the clock expires), so a record's InHeap flag decides the branch.
// The claimed flag is committed before the external payout capability runs
// and rolled back if it fails, per check-effects-interaction: a reentrant
// callback observes the committed flag and is rejected by the ordinary
// idempotency check.

// ClaimAndRefund settles one participant: winners receive a prize token and
// no refund, losers receive their full bid back and no prize.
func (s *SettlementEngine) ClaimAndRefund(p ParticipantID) (ClaimOutcome, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	now := s.st.nowFn()
	if s.st.clock.IsOpen(now) {
		return ClaimOutcome{}, ErrAuctionStillOpen
	}
	rec, ok := s.st.ledger.Get(p)
	if !ok {
		return ClaimOutcome{}, ErrNoExistingBid
	}
	if rec.Claimed {
		return ClaimOutcome{}, ErrAlreadyClaimed
	}

	return s.settle(p, rec)
}

// settle performs the payout branch for one unclaimed participant.
// Caller holds the state lock.
func (s *SettlementEngine) settle(p ParticipantID, rec BidRecord) (ClaimOutcome, error) {
	s.st.ledger.SetClaimed(p, true)

	if rec.InHeap {
		prize, err := s.prizes.IssuePrize(p)
		if err != nil {
			s.st.ledger.SetClaimed(p, false)
			return ClaimOutcome{}, fmt.Errorf("issue prize for %s: %w", p, err)
		}
		return ClaimOutcome{Participant: p, Winner: true, Prize: prize}, nil
	}

	if err := s.custody.Pay(p, rec.Amount); err != nil {
		s.st.ledger.SetClaimed(p, false)
		return ClaimOutcome{}, fmt.Errorf("refund %s: %w", p, err)
	}
	s.st.totalLocked -= rec.Amount
	return ClaimOutcome{Participant: p, Refund: rec.Amount}, nil
}

// ClaimWinners settles every unclaimed winner on their behalf. Already
// claimed winners are skipped, not an error. On an issuance failure the
// failing participant is rolled back and the outcomes committed so far are
// returned with the error; a retry picks up where it stopped.
func (s *SettlementEngine) ClaimWinners(caller ParticipantID) ([]ClaimOutcome, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if !s.admin.IsAdmin(caller) {
		return nil, ErrUnauthorized
	}
	now := s.st.nowFn()
	if s.st.clock.IsOpen(now) {
		return nil, ErrAuctionStillOpen
	}

	outcomes := make([]ClaimOutcome, 0, s.st.heap.Len())
	for _, entry := range s.st.heap.Entries() {
		rec, ok := s.st.ledger.Get(entry.Participant)
		if !ok || rec.Claimed {
			continue
		}
		outcome, err := s.settle(entry.Participant, rec)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// SendPayment transfers the proceeds — exactly the sum of the frozen
// winning set's amounts — to the proceeds recipient, at most once. The
// amount never includes funds owed to losers, so the call is safe before or
// after any claims.
func (s *SettlementEngine) SendPayment(caller ParticipantID) (uint64, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if !s.admin.IsAdmin(caller) {
		return 0, ErrUnauthorized
	}
	now := s.st.nowFn()
	if s.st.clock.IsOpen(now) {
		return 0, ErrAuctionStillOpen
	}
	if s.st.paymentSent {
		return 0, ErrAlreadyPaid
	}

	var proceeds uint64
	for _, entry := range s.st.heap.Entries() {
		proceeds += entry.Amount
	}

	s.st.paymentSent = true
	if err := s.custody.Pay(s.st.params.ProceedsRecipient, proceeds); err != nil {
		s.st.paymentSent = false
		return 0, fmt.Errorf("proceeds payment: %w", err)
	}
	s.st.totalLocked -= proceeds
	return proceeds, nil
}

// ClaimInfoOf reports what settlement will pay the participant. Callable at
// any time; the zero ClaimInfo is returned for unknown participants.
func (s *SettlementEngine) ClaimInfoOf(p ParticipantID) ClaimInfo {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	rec, ok := s.st.ledger.Get(p)
	if !ok {
		return ClaimInfo{}
	}
	info := ClaimInfo{Claimed: rec.Claimed}
	if rec.InHeap {
		info.MintsPrize = true
	} else {
		info.RefundAmount = rec.Amount
	}
	return info
}

// PaymentSent reports whether the one-shot proceeds withdrawal has run.
func (s *SettlementEngine) PaymentSent() bool {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.paymentSent
}

// WinningSet returns a copy of the (frozen, post-close) winning set.
func (s *SettlementEngine) WinningSet() []HeapEntry {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.heap.Entries()
}
