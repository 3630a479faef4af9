// Package validation verifies settlement receipts offline: anyone holding
// the daemon's published verification key can check that a receipt was
// signed by the daemon and inspect its payload.
package validation

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/raffleauction/auctionapi"
)

// ParsePublicKeyPEM parses the daemon's PEM-encoded receipt verification key.
func ParsePublicKeyPEM(pemData []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("no PUBLIC KEY block found in PEM data")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	ecdsaKey, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ECDSA")
	}
	return ecdsaKey, nil
}

// ExtractReceiptPayload decodes the receipt payload WITHOUT verifying the
// signature. Useful for inspection; callers deciding anything based on the
// contents must use VerifyReceipt instead.
func ExtractReceiptPayload(envelope []byte) (*auctionapi.SettlementReceipt, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(envelope); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1 envelope: %w", err)
	}

	var receipt auctionapi.SettlementReceipt
	if err := cbor.Unmarshal(msg.Payload, &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt payload: %w", err)
	}
	return &receipt, nil
}

// VerifyReceipt checks the COSE_Sign1 ES384 signature over the envelope
// against the daemon's verification key and returns the decoded payload.
func VerifyReceipt(envelope []byte, key *ecdsa.PublicKey) (*auctionapi.SettlementReceipt, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(envelope); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1 envelope: %w", err)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES384, key)
	if err != nil {
		return nil, fmt.Errorf("create verifier: %w", err)
	}

	if err := msg.Verify(nil, verifier); err != nil {
		return nil, fmt.Errorf("receipt signature verification failed: %w", err)
	}

	var receipt auctionapi.SettlementReceipt
	if err := cbor.Unmarshal(msg.Payload, &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt payload: %w", err)
	}
	return &receipt, nil
}

// VerifyReceiptBase64 is the transport-level convenience wrapper for
// receipts lifted straight out of a daemon response.
func VerifyReceiptBase64(receipt auctionapi.ReceiptBase64, key *ecdsa.PublicKey) (*auctionapi.SettlementReceipt, error) {
	envelope, err := receipt.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode receipt base64: %w", err)
	}
	return VerifyReceipt(envelope, key)
}
