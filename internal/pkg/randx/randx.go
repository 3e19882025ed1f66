/*
Package randx provides generation of unique identifiers.

It contains the IDGenerator used by the hub to issue 10-digit numeric ids for
users and messages, and a UUID helper for per-connection session ids used in
logs. Generated numeric ids are tracked for the process lifetime so the same
value is never issued twice.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/google/uuid"
)

const (
	// idMin is the smallest issuable id (inclusive): the first 10-digit number.
	idMin = 1_000_000_000

	// idSpan is the size of the issuable range [idMin, idMin+idSpan).
	idSpan = 9_000_000_000
)

// IDGenerator issues process-lifetime-unique numeric identifiers drawn from a
// sparse 10-digit range. Collisions against previously issued ids are resolved
// by redrawing. Safe for concurrent use.
type IDGenerator struct {
	mu     sync.Mutex
	issued map[int64]struct{}
}

// NewIDGenerator returns an IDGenerator with an empty issued set.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		issued: make(map[int64]struct{}),
	}
}

// NextID draws a fresh identifier using a cryptographically secure random
// source. The returned value has never been returned by this generator before.
func (g *IDGenerator) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		num, err := rand.Int(rand.Reader, big.NewInt(idSpan))
		if err != nil {
			return 0, fmt.Errorf("failed to generate random number for id: %w", err)
		}

		id := idMin + num.Int64()

		if _, taken := g.issued[id]; taken {
			continue
		}

		g.issued[id] = struct{}{}
		return id, nil
	}
}

// Issued reports whether the generator has already handed out the given id.
func (g *IDGenerator) Issued(id int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.issued[id]
	return ok
}

// SessionID generates a UUID v4 string identifying one connection in logs.
func SessionID() string {
	return uuid.New().String()
}
