package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/raffleauction/auctionapi"
	"github.com/cloudx-io/raffleauction/core"
)

// generateSecureRandomBytes generates cryptographically secure random bytes.
func generateSecureRandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("entropy generation failed: %w", err)
	}
	return randomBytes, nil
}

func generateNonce() (string, error) {
	randomBytes, err := generateSecureRandomBytes(32) // 256 bits of entropy
	if err != nil {
		return "", fmt.Errorf("failed to generate secure nonce - %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}

// buildClaimReceipt assembles the receipt payload for one settlement
// outcome. The winning set passed in is the frozen post-close set; its
// nonce-salted hash binds the receipt to that exact set.
func buildClaimReceipt(outcome core.ClaimOutcome, winnerSet []core.HeapEntry) (*auctionapi.SettlementReceipt, error) {
	nonce, err := generateNonce()
	if err != nil {
		return nil, err
	}

	receipt := &auctionapi.SettlementReceipt{
		ReceiptID:     uuid.New().String(),
		Participant:   string(outcome.Participant),
		ClaimHash:     core.ComputeClaimHash(outcome.Participant, outcome.Refund, nonce),
		WinnerSetHash: core.ComputeWinnerSetHash(winnerSet, nonce),
		Nonce:         nonce,
		Timestamp:     time.Now(),
	}
	if outcome.Winner {
		receipt.Kind = auctionapi.ReceiptKindPrize
		receipt.Amount = core.FormatAmount(0)
		receipt.PrizeID = outcome.Prize.String()
	} else {
		receipt.Kind = auctionapi.ReceiptKindRefund
		receipt.Amount = core.FormatAmount(outcome.Refund)
	}
	return receipt, nil
}

// buildProceedsReceipt assembles the receipt payload for the one-shot
// proceeds withdrawal.
func buildProceedsReceipt(recipient core.ParticipantID, proceeds uint64, winnerSet []core.HeapEntry) (*auctionapi.SettlementReceipt, error) {
	nonce, err := generateNonce()
	if err != nil {
		return nil, err
	}

	return &auctionapi.SettlementReceipt{
		ReceiptID:     uuid.New().String(),
		Kind:          auctionapi.ReceiptKindProceeds,
		Participant:   string(recipient),
		Amount:        core.FormatAmount(proceeds),
		WinnerSetHash: core.ComputeWinnerSetHash(winnerSet, nonce),
		Nonce:         nonce,
		Timestamp:     time.Now(),
	}, nil
}

// SignReceipt encodes the receipt as CBOR and wraps it in a COSE_Sign1
// envelope signed with the daemon's receipt key.
func (rs *ReceiptSigner) SignReceipt(receipt *auctionapi.SettlementReceipt) ([]byte, error) {
	payload, err := cbor.Marshal(receipt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt payload: %w", err)
	}

	msg := &cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: cose.AlgorithmES384,
			},
		},
		Payload: payload,
	}
	if err := msg.Sign(rand.Reader, nil, rs.signer); err != nil {
		return nil, fmt.Errorf("failed to sign receipt: %w", err)
	}

	envelope, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt envelope: %w", err)
	}
	return envelope, nil
}

// signClaimReceipt is the build+sign path used by the claim handlers.
func (s *AuctionServer) signClaimReceipt(outcome core.ClaimOutcome) (auctionapi.ReceiptBase64, error) {
	receipt, err := buildClaimReceipt(outcome, s.settlement.WinningSet())
	if err != nil {
		return "", err
	}
	envelope, err := s.signer.SignReceipt(receipt)
	if err != nil {
		return "", err
	}
	return auctionapi.EncodeReceipt(envelope), nil
}
