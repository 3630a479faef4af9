package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
)

// Shared test doubles for the engine and settlement tests. The capabilities
// are deliberately tiny: authorization is a fixed set, custody is a counter
// with injectable failures, and prizes are fresh UUIDs.

type fakeAdmin struct {
	admins map[ParticipantID]bool
}

func newFakeAdmin(admins ...ParticipantID) *fakeAdmin {
	m := make(map[ParticipantID]bool, len(admins))
	for _, a := range admins {
		m[a] = true
	}
	return &fakeAdmin{admins: m}
}

func (f *fakeAdmin) IsAdmin(p ParticipantID) bool { return f.admins[p] }

func (f *fakeAdmin) IsSoleAdmin(p ParticipantID) bool {
	return f.admins[p] && len(f.admins) == 1
}

type payment struct {
	To     ParticipantID
	Amount uint64
}

type fakeCustody struct {
	deposited  uint64
	payments   []payment
	depositErr error
	payErr     error
}

func (f *fakeCustody) Deposit(from ParticipantID, amount uint64) error {
	if f.depositErr != nil {
		return f.depositErr
	}
	f.deposited += amount
	return nil
}

func (f *fakeCustody) Pay(to ParticipantID, amount uint64) error {
	if f.payErr != nil {
		return f.payErr
	}
	f.payments = append(f.payments, payment{To: to, Amount: amount})
	return nil
}

func (f *fakeCustody) paidTo(p ParticipantID) uint64 {
	var total uint64
	for _, pm := range f.payments {
		if pm.To == p {
			total += pm.Amount
		}
	}
	return total
}

type fakePrizes struct {
	issued   map[ParticipantID]PrizeID
	issueErr error
}

func newFakePrizes() *fakePrizes {
	return &fakePrizes{issued: make(map[ParticipantID]PrizeID)}
}

func (f *fakePrizes) IssuePrize(p ParticipantID) (PrizeID, error) {
	if f.issueErr != nil {
		return PrizeID{}, f.issueErr
	}
	id := uuid.New()
	f.issued[p] = id
	return id, nil
}

// fakeTime is an adjustable clock injected through Config.Now.
type fakeTime struct {
	now time.Time
}

func (f *fakeTime) Now() time.Time { return f.now }

func (f *fakeTime) Advance(d time.Duration) { f.now = f.now.Add(d) }

var errCapabilityDown = errors.New("capability unavailable")

// checkErrIs fails unless got matches the wanted sentinel.
func checkErrIs(t *testing.T, want, got error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("expected error %v, got %v", want, got)
	}
}

// testAuction bundles a fully wired auction with handles on its doubles.
type testAuction struct {
	bids       *BidEngine
	settlement *SettlementEngine
	admin      *fakeAdmin
	custody    *fakeCustody
	prizes     *fakePrizes
	clock      *fakeTime
}

const adminID = ParticipantID("admin")

// newTestAuction wires an auction open for one hour from a fixed epoch,
// with "admin" as the sole administrator.
func newTestAuction(t *testing.T, params Params) *testAuction {
	t.Helper()

	clock := &fakeTime{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	if params.AuctionEndTime.IsZero() {
		params.AuctionEndTime = clock.now.Add(time.Hour)
	}
	if params.ProceedsRecipient == "" {
		params.ProceedsRecipient = "seller"
	}

	admin := newFakeAdmin(adminID)
	custody := &fakeCustody{}
	prizes := newFakePrizes()

	bids, settlement, err := NewAuction(Config{
		Params:  params,
		Admin:   admin,
		Custody: custody,
		Prizes:  prizes,
		Now:     clock.Now,
	})
	assert.Nil(t, err)

	return &testAuction{
		bids:       bids,
		settlement: settlement,
		admin:      admin,
		custody:    custody,
		prizes:     prizes,
		clock:      clock,
	}
}

// close advances the clock past the auction end time.
func (a *testAuction) close() {
	a.clock.Advance(2 * time.Hour)
}
