// Package mint implements the prize-issuance capability: a lazy minter
// that produces one prize token per winning participant.
package mint

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cloudx-io/raffleauction/core"
)

// Minter issues prize tokens for a named collection. Implements
// core.PrizeIssuer. Double issuance to the same participant is refused;
// the settlement engine's claimed flag makes that unreachable in practice,
// but the minter guards its own invariant.
type Minter struct {
	mu         sync.Mutex
	collection string
	issued     map[core.ParticipantID]core.PrizeID
}

// New returns a minter for the given collection.
func New(collection string) *Minter {
	return &Minter{
		collection: collection,
		issued:     make(map[core.ParticipantID]core.PrizeID),
	}
}

// IssuePrize mints a fresh prize token for the participant.
func (m *Minter) IssuePrize(p core.ParticipantID) (core.PrizeID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issued[p]; ok {
		return core.PrizeID{}, fmt.Errorf("prize already issued to %s", p)
	}
	id := uuid.New()
	m.issued[p] = id
	return id, nil
}

// Issued returns the prize token minted for the participant, if any.
func (m *Minter) Issued(p core.ParticipantID) (core.PrizeID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.issued[p]
	return id, ok
}

// Collection returns the collection this minter mints from.
func (m *Minter) Collection() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collection
}

// Count returns the number of prizes issued so far.
func (m *Minter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.issued)
}
