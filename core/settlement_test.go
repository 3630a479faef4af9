package core

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

// seedClosedAuction places bids 300 (alice), 600 (bob), 500 (carol) into a
// capacity-2 auction and closes it: bob and carol win, alice loses.
func seedClosedAuction(t *testing.T) *testAuction {
	t.Helper()
	a := newTestAuction(t, Params{ReservePrice: 100, HighestBidPrice: 800, MinIncrement: 50, PrizeCount: 2})
	assert.Nil(t, a.bids.Bid("alice", 300))
	assert.Nil(t, a.bids.Bid("bob", 600))
	assert.Nil(t, a.bids.Bid("carol", 500))
	a.close()
	return a
}

func TestClaimAndRefund_RejectedWhileOpen(t *testing.T) {
	a := newTestAuction(t, Params{ReservePrice: 100, HighestBidPrice: 800, PrizeCount: 2})
	assert.Nil(t, a.bids.Bid("alice", 300))

	_, err := a.settlement.ClaimAndRefund("alice")
	checkErrIs(t, ErrAuctionStillOpen, err)
}

func TestClaimAndRefund_WinnerAndLoser(t *testing.T) {
	a := seedClosedAuction(t)

	// Loser gets the full bid back, no prize.
	outcome, err := a.settlement.ClaimAndRefund("alice")
	assert.Nil(t, err)
	check.False(t, outcome.Winner)
	check.Equal(t, uint64(300), outcome.Refund)
	check.Equal(t, uint64(300), a.custody.paidTo("alice"))

	// Winner gets a prize, no refund.
	outcome, err = a.settlement.ClaimAndRefund("bob")
	assert.Nil(t, err)
	check.True(t, outcome.Winner)
	check.Equal(t, uint64(0), outcome.Refund)
	check.NotEqual(t, PrizeID{}, outcome.Prize)
	check.Equal(t, uint64(0), a.custody.paidTo("bob"))
	check.Equal(t, outcome.Prize, a.prizes.issued["bob"])

	// Winner funds stay locked for the proceeds withdrawal; only the
	// loser's refund has left.
	check.Equal(t, uint64(1100), a.bids.TotalValueLocked())
}

func TestClaimAndRefund_Idempotency(t *testing.T) {
	a := seedClosedAuction(t)

	_, err := a.settlement.ClaimAndRefund("alice")
	assert.Nil(t, err)
	_, err = a.settlement.ClaimAndRefund("alice")
	checkErrIs(t, ErrAlreadyClaimed, err)

	// A second claim pays nothing.
	check.Equal(t, uint64(300), a.custody.paidTo("alice"))

	_, err = a.settlement.ClaimAndRefund("ghost")
	checkErrIs(t, ErrNoExistingBid, err)
}

func TestClaimAndRefund_RefundFailureRollsBack(t *testing.T) {
	a := seedClosedAuction(t)
	a.custody.payErr = errCapabilityDown

	_, err := a.settlement.ClaimAndRefund("alice")
	check.NotNil(t, err)

	// The claimed flag was rolled back; the claim can be retried and the
	// locked total is untouched.
	check.Equal(t, uint64(1400), a.bids.TotalValueLocked())
	a.custody.payErr = nil
	outcome, err := a.settlement.ClaimAndRefund("alice")
	assert.Nil(t, err)
	check.Equal(t, uint64(300), outcome.Refund)
	check.Equal(t, uint64(1100), a.bids.TotalValueLocked())
}

func TestClaimAndRefund_PrizeFailureRollsBack(t *testing.T) {
	a := seedClosedAuction(t)
	a.prizes.issueErr = errCapabilityDown

	_, err := a.settlement.ClaimAndRefund("bob")
	check.NotNil(t, err)

	a.prizes.issueErr = nil
	outcome, err := a.settlement.ClaimAndRefund("bob")
	assert.Nil(t, err)
	check.True(t, outcome.Winner)
}

func TestClaimWinners(t *testing.T) {
	a := seedClosedAuction(t)

	_, err := a.settlement.ClaimWinners("mallory")
	checkErrIs(t, ErrUnauthorized, err)

	// Carol claims herself first; the batch then settles only bob.
	_, err = a.settlement.ClaimAndRefund("carol")
	assert.Nil(t, err)

	outcomes, err := a.settlement.ClaimWinners(adminID)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(outcomes))
	check.Equal(t, ParticipantID("bob"), outcomes[0].Participant)
	check.True(t, outcomes[0].Winner)

	// Re-running the batch settles nobody.
	outcomes, err = a.settlement.ClaimWinners(adminID)
	assert.Nil(t, err)
	check.Equal(t, 0, len(outcomes))

	// The loser is untouched by the batch.
	_, err = a.settlement.ClaimAndRefund("alice")
	check.Nil(t, err)
}

func TestClaimWinners_RejectedWhileOpen(t *testing.T) {
	a := newTestAuction(t, Params{ReservePrice: 100, HighestBidPrice: 800, PrizeCount: 2})
	assert.Nil(t, a.bids.Bid("alice", 300))

	_, err := a.settlement.ClaimWinners(adminID)
	checkErrIs(t, ErrAuctionStillOpen, err)
}

func TestSendPayment(t *testing.T) {
	a := seedClosedAuction(t)

	_, err := a.settlement.SendPayment("mallory")
	checkErrIs(t, ErrUnauthorized, err)

	// Proceeds are the frozen winning-set total: 600 + 500.
	proceeds, err := a.settlement.SendPayment(adminID)
	assert.Nil(t, err)
	check.Equal(t, uint64(1100), proceeds)
	check.Equal(t, uint64(1100), a.custody.paidTo("seller"))
	check.True(t, a.settlement.PaymentSent())

	// One-shot: a second withdrawal is refused.
	_, err = a.settlement.SendPayment(adminID)
	checkErrIs(t, ErrAlreadyPaid, err)
	check.Equal(t, uint64(1100), a.custody.paidTo("seller"))

	// The loser's refund is unaffected by the withdrawal.
	outcome, err := a.settlement.ClaimAndRefund("alice")
	assert.Nil(t, err)
	check.Equal(t, uint64(300), outcome.Refund)
	check.Equal(t, uint64(0), a.bids.TotalValueLocked())
}

func TestSendPayment_RejectedWhileOpen(t *testing.T) {
	a := newTestAuction(t, Params{ReservePrice: 100, HighestBidPrice: 800, PrizeCount: 2})
	_, err := a.settlement.SendPayment(adminID)
	checkErrIs(t, ErrAuctionStillOpen, err)
}

func TestSendPayment_FailureRollsBack(t *testing.T) {
	a := seedClosedAuction(t)
	a.custody.payErr = errCapabilityDown

	_, err := a.settlement.SendPayment(adminID)
	check.NotNil(t, err)
	check.False(t, a.settlement.PaymentSent())

	a.custody.payErr = nil
	proceeds, err := a.settlement.SendPayment(adminID)
	assert.Nil(t, err)
	check.Equal(t, uint64(1100), proceeds)
}

func TestSendPayment_OrderIndependentOfClaims(t *testing.T) {
	// Claims first, withdrawal second: the proceeds are identical because
	// they are computed from the frozen winning set, never from balances.
	a := seedClosedAuction(t)

	_, err := a.settlement.ClaimAndRefund("alice")
	assert.Nil(t, err)
	_, err = a.settlement.ClaimAndRefund("bob")
	assert.Nil(t, err)

	proceeds, err := a.settlement.SendPayment(adminID)
	assert.Nil(t, err)
	check.Equal(t, uint64(1100), proceeds)
}

func TestClaimInfoOf(t *testing.T) {
	a := seedClosedAuction(t)

	check.Equal(t, ClaimInfo{}, a.settlement.ClaimInfoOf("ghost"))
	check.Equal(t, ClaimInfo{RefundAmount: 300}, a.settlement.ClaimInfoOf("alice"))
	check.Equal(t, ClaimInfo{MintsPrize: true}, a.settlement.ClaimInfoOf("bob"))

	_, err := a.settlement.ClaimAndRefund("bob")
	assert.Nil(t, err)
	check.Equal(t, ClaimInfo{MintsPrize: true, Claimed: true}, a.settlement.ClaimInfoOf("bob"))
}

func TestSettlement_Conservation(t *testing.T) {
	// Every nanocoin deposited leaves exactly once: as a refund to a loser
	// or as part of the proceeds.
	a := seedClosedAuction(t)

	_, err := a.settlement.ClaimAndRefund("alice")
	assert.Nil(t, err)
	_, err = a.settlement.ClaimWinners(adminID)
	assert.Nil(t, err)
	proceeds, err := a.settlement.SendPayment(adminID)
	assert.Nil(t, err)

	var paidOut uint64
	for _, pm := range a.custody.payments {
		paidOut += pm.Amount
	}
	check.Equal(t, a.custody.deposited, paidOut)
	check.Equal(t, uint64(1100), proceeds)
	check.Equal(t, uint64(0), a.bids.TotalValueLocked())
}
