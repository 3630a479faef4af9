package core

import "github.com/google/uuid"

// PrizeID identifies an issued prize token.
type PrizeID = uuid.UUID

// AdminCapability answers authorization queries for admin-gated operations.
// The engine holds no role storage of its own; granting and revocation live
// behind this interface. The engines gate only on IsAdmin; IsSoleAdmin is
// part of the capability surface for role-store implementations, which need
// it for last-admin protection.
type AdminCapability interface {
	IsAdmin(p ParticipantID) bool
	IsSoleAdmin(p ParticipantID) bool
}

// PrizeIssuer mints a prize token for a winning participant.
type PrizeIssuer interface {
	IssuePrize(p ParticipantID) (PrizeID, error)
}

// FundCustody moves value into and out of auction custody.
//
// Deposit is atomic with the enclosing bid call: a failed deposit aborts the
// call before any ledger or heap state changes. Pay moves custodied value to
// a participant or the proceeds recipient; a Pay failure rolls the enclosing
// settlement call back completely so it can be retried.
type FundCustody interface {
	Deposit(from ParticipantID, amount uint64) error
	Pay(to ParticipantID, amount uint64) error
}
