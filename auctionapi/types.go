package auctionapi

import (
	"encoding/base64"
	"time"

	"github.com/cloudx-io/raffleauction/core"
)

// Request type discriminators understood by the auction daemon. Every
// request carries a "type" field; the daemon decodes the base envelope
// first and then the full request.
const (
	TypePing         = "ping"
	TypeBid          = "bid"
	TypeIncreaseBid  = "increase_bid"
	TypeClaim        = "claim"
	TypeClaimWinners = "claim_winners"
	TypeSendPayment  = "send_payment"
	TypeSetParam     = "set_param"
	TypeGrantRole    = "grant_role"
	TypeRevokeRole   = "revoke_role"
	TypeRenounceRole = "renounce_role"
	TypeQuery        = "query"
)

// Settable parameter names for TypeSetParam requests.
const (
	ParamReservePrice      = "reserve_price"
	ParamHighestBidPrice   = "highest_bid_price"
	ParamMinIncrement      = "min_increment"
	ParamPrizeCollection   = "prize_collection"
	ParamProceedsRecipient = "proceeds_recipient"
	ParamAuctionEndTime    = "auction_end_time"
)

// Query names for TypeQuery requests.
const (
	QueryFloorBid    = "floor_bid"
	QueryBidAmount   = "bid_amount"
	QueryTotalBids   = "total_bids"
	QueryUserBids    = "user_bids"
	QueryClaimInfo   = "claim_info"
	QueryValueLocked = "total_value_locked"
	QueryWinningSet  = "winning_set"
)

// BidRequest places a participant's initial bid. Amount is a decimal coin
// string ("0.25"); it represents the value attached to the call, which the
// daemon credits before the engine draws it into custody.
type BidRequest struct {
	Type        string `json:"type"`
	Participant string `json:"participant"`
	Amount      string `json:"amount"`
}

// IncreaseBidRequest tops up an existing bid by Delta (decimal coin string).
type IncreaseBidRequest struct {
	Type        string `json:"type"`
	Participant string `json:"participant"`
	Delta       string `json:"delta"`
}

// ClaimRequest settles one participant after close.
type ClaimRequest struct {
	Type        string `json:"type"`
	Participant string `json:"participant"`
}

// AdminRequest covers the admin-gated calls that need only a caller and an
// optional target: claim_winners, send_payment, grant_role, revoke_role,
// renounce_role.
type AdminRequest struct {
	Type   string `json:"type"`
	Caller string `json:"caller"`
	Target string `json:"target,omitempty"`
}

// SetParamRequest mutates one auction parameter. Value is a decimal coin
// string for monetary parameters, an RFC 3339 timestamp for the end time,
// and a plain string otherwise.
type SetParamRequest struct {
	Type   string `json:"type"`
	Caller string `json:"caller"`
	Param  string `json:"param"`
	Value  string `json:"value"`
}

// QueryRequest reads auction state without mutating it.
type QueryRequest struct {
	Type         string   `json:"type"`
	What         string   `json:"what"`
	Participant  string   `json:"participant,omitempty"`
	Participants []string `json:"participants,omitempty"`
}

// AckResponse acknowledges a mutating call with no payload beyond success.
type AckResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// BidResponse reports the post-bid view of the participant's record.
type BidResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Amount  string `json:"amount,omitempty"`
	InHeap  bool   `json:"in_heap,omitempty"`
}

// ClaimResponse reports one settlement outcome plus its signed receipt.
type ClaimResponse struct {
	Type          string `json:"type"`
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Winner        bool   `json:"winner,omitempty"`
	PrizeID       string `json:"prize_id,omitempty"`
	Refund        string `json:"refund,omitempty"`
	ReceiptBase64 string `json:"receipt_base64,omitempty"`
}

// ClaimWinnersResponse reports a batch settlement.
type ClaimWinnersResponse struct {
	Type           string   `json:"type"`
	Success        bool     `json:"success"`
	Message        string   `json:"message,omitempty"`
	Settled        int      `json:"settled"`
	PrizeIDs       []string `json:"prize_ids,omitempty"`
	ReceiptsBase64 []string `json:"receipts_base64,omitempty"`
}

// SendPaymentResponse reports the one-shot proceeds withdrawal.
type SendPaymentResponse struct {
	Type          string `json:"type"`
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Proceeds      string `json:"proceeds,omitempty"`
	Recipient     string `json:"recipient,omitempty"`
	ReceiptBase64 string `json:"receipt_base64,omitempty"`
}

// QueryResponse carries the answer for any TypeQuery request; only the
// fields relevant to the query are populated.
type QueryResponse struct {
	Type        string           `json:"type"`
	Success     bool             `json:"success"`
	Message     string           `json:"message,omitempty"`
	Floor       *core.HeapEntry  `json:"floor,omitempty"`
	Amount      string           `json:"amount,omitempty"`
	TotalBids   int              `json:"total_bids,omitempty"`
	UserBids    []core.UserBid   `json:"user_bids,omitempty"`
	ClaimInfo   *core.ClaimInfo  `json:"claim_info,omitempty"`
	ValueLocked string           `json:"total_value_locked,omitempty"`
	WinningSet  []core.HeapEntry `json:"winning_set,omitempty"`
}

// Receipt kinds embedded in settlement receipts.
const (
	ReceiptKindPrize    = "prize"
	ReceiptKindRefund   = "refund"
	ReceiptKindProceeds = "proceeds"
)

// SettlementReceipt is the payload signed into a COSE_Sign1 envelope for
// every successful claim and for the proceeds withdrawal. Amount is a
// decimal coin string; WinnerSetHash is nonce-salted so receipts for the
// same winning set are unlinkable without the nonce.
type SettlementReceipt struct {
	ReceiptID     string    `cbor:"receipt_id" json:"receipt_id"`
	Kind          string    `cbor:"kind" json:"kind"`
	Participant   string    `cbor:"participant" json:"participant"`
	Amount        string    `cbor:"amount" json:"amount"`
	PrizeID       string    `cbor:"prize_id,omitempty" json:"prize_id,omitempty"`
	ClaimHash     string    `cbor:"claim_hash,omitempty" json:"claim_hash,omitempty"`
	WinnerSetHash string    `cbor:"winner_set_hash" json:"winner_set_hash"`
	Nonce         string    `cbor:"nonce" json:"nonce"`
	Timestamp     time.Time `cbor:"timestamp" json:"timestamp"`
}

// ReceiptBase64 is a base64-encoded COSE_Sign1 settlement receipt.
type ReceiptBase64 string

// Decode returns the raw COSE_Sign1 bytes.
func (r ReceiptBase64) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(string(r))
}

// EncodeReceipt wraps raw COSE_Sign1 bytes for JSON transport.
func EncodeReceipt(raw []byte) ReceiptBase64 {
	return ReceiptBase64(base64.StdEncoding.EncodeToString(raw))
}
