/*
Package chat contains the core logic of the broadcast hub: sessions, the
session registry, validation, and the dispatch of packets to all participants.

This file defines the Registry, the authoritative set of live sessions.
Membership reflects exactly the connections whose receive loop has not exited.
*/
package chat

import (
	"sync"

	"relayhub/internal/app/user"
)

// Registry is a thread-safe, insertion-ordered collection of active sessions.
// Mutations and snapshots are mutually exclusive, so a broadcast iterating a
// snapshot never observes a half-applied add or remove. A session removed
// mid-broadcast may still receive that broadcast's packet; delivery is best
// effort by contract.
type Registry struct {
	mu       sync.RWMutex
	sessions []*Session
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends s to the registry.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = append(r.sessions, s)
}

// Remove deletes s, preserving the order of the remaining sessions.
// It reports whether s was present.
func (r *Registry) Remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, candidate := range r.sessions {
		if candidate == s {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return true
		}
	}

	return false
}

// Snapshot returns a consistent point-in-time copy of the session list in
// insertion order, safe to iterate while the registry keeps changing.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]*Session, len(r.sessions))
	copy(snapshot, r.sessions)
	return snapshot
}

// FindByID returns the session whose registered user carries the given id.
func (r *Registry) FindByID(userID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if u, registered := s.RegisteredUser(); registered && u.ID == userID {
			return s, true
		}
	}

	return nil, false
}

// Len returns the number of live sessions, identified or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// RegisteredUsers returns the users of all registered sessions in insertion order.
func (r *Registry) RegisteredUsers() []user.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]user.User, 0, len(r.sessions))
	for _, s := range r.sessions {
		if u, registered := s.RegisteredUser(); registered {
			users = append(users, u)
		}
	}

	return users
}
