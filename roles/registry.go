// Package roles implements the administrator capability consumed by the
// auction engines: a flat set of grants with last-admin protection. The
// engine core never sees this storage, only the core.AdminCapability view.
package roles

import (
	"errors"
	"sync"

	"github.com/cloudx-io/raffleauction/core"
)

var (
	// ErrAlreadyAdmin is returned when granting a participant that already
	// holds the role.
	ErrAlreadyAdmin = errors.New("participant is already an administrator")

	// ErrNotAdmin is returned when revoking a participant that does not
	// hold the role.
	ErrNotAdmin = errors.New("participant is not an administrator")
)

// Registry stores administrator grants. The sole remaining administrator
// can neither be revoked nor renounce, so the set can never become empty.
type Registry struct {
	mu     sync.Mutex
	admins map[core.ParticipantID]struct{}
}

// NewRegistry returns a registry seeded with the given administrators.
func NewRegistry(initial ...core.ParticipantID) *Registry {
	admins := make(map[core.ParticipantID]struct{}, len(initial))
	for _, p := range initial {
		admins[p] = struct{}{}
	}
	return &Registry{admins: admins}
}

// IsAdmin implements core.AdminCapability.
func (r *Registry) IsAdmin(p core.ParticipantID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.admins[p]
	return ok
}

// IsSoleAdmin implements core.AdminCapability.
func (r *Registry) IsSoleAdmin(p core.ParticipantID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.admins[p]
	return ok && len(r.admins) == 1
}

// MemberCount returns the number of administrators.
func (r *Registry) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.admins)
}

// Grant adds grantee to the administrator set. Fails for non-admin callers
// and for grantees that already hold the role.
func (r *Registry) Grant(caller, grantee core.ParticipantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[caller]; !ok {
		return core.ErrUnauthorized
	}
	if _, ok := r.admins[grantee]; ok {
		return ErrAlreadyAdmin
	}
	r.admins[grantee] = struct{}{}
	return nil
}

// Revoke removes target from the administrator set. Any administrator may
// revoke any other (or themselves), except that the last remaining
// administrator is protected.
func (r *Registry) Revoke(caller, target core.ParticipantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[caller]; !ok {
		return core.ErrUnauthorized
	}
	if _, ok := r.admins[target]; !ok {
		return ErrNotAdmin
	}
	if len(r.admins) == 1 {
		return core.ErrLastAdminProtected
	}
	delete(r.admins, target)
	return nil
}

// Renounce removes the caller's own grant. Only self-renunciation exists;
// the last remaining administrator cannot renounce.
func (r *Registry) Renounce(caller core.ParticipantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[caller]; !ok {
		return ErrNotAdmin
	}
	if len(r.admins) == 1 {
		return core.ErrLastAdminProtected
	}
	delete(r.admins, caller)
	return nil
}
