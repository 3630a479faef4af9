package core

import "errors"

// The auction error taxonomy. Every rejected call returns one of these
// (possibly wrapped) and leaves state exactly as it was before the call.
var (
	ErrUnauthorized       = errors.New("caller is not an administrator")
	ErrAuctionClosed      = errors.New("auction has ended")
	ErrAuctionStillOpen   = errors.New("auction is still open")
	ErrAlreadyBid         = errors.New("participant already placed a bid")
	ErrNoExistingBid      = errors.New("participant has no bid")
	ErrBelowReserve       = errors.New("bid below reserve price")
	ErrAboveCeiling       = errors.New("bid above highest bid price")
	ErrBelowMinIncrement  = errors.New("increase below minimum increment")
	ErrAlreadyClaimed     = errors.New("participant already claimed")
	ErrAmountOverflow     = errors.New("custodied value overflow")
	ErrAlreadyPaid        = errors.New("proceeds already sent")
	ErrLastAdminProtected = errors.New("cannot remove the last administrator")
)
