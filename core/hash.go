package core

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ComputeWinnerSetHash computes a nonce-salted digest of the frozen winning
// set. This is used by both the daemon (to embed in settlement receipts)
// and validation (to verify a receipt belongs to a given winning set).
//
// Formula: SHA256(nonce + "|" + "p1:amt1|p2:amt2|...") with entries sorted
// by participant so the digest is independent of heap order.
func ComputeWinnerSetHash(entries []HeapEntry, nonce string) string {
	sorted := make([]HeapEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Participant < sorted[j].Participant
	})

	data := nonce
	for _, e := range sorted {
		data += fmt.Sprintf("|%s:%d", e.Participant, e.Amount)
	}
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeClaimHash computes the digest binding one settlement payout to a
// participant and amount.
//
// Formula: SHA256(participant + "|" + amount + "|" + nonce)
func ComputeClaimHash(p ParticipantID, amount uint64, nonce string) string {
	data := fmt.Sprintf("%s|%d|%s", p, amount, nonce)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
