// Package oracle provides OwnershipOracle implementations: a static
// in-memory oracle for development and tests, and an HTTP client for a
// deployed ownership service.
package oracle

import (
	"context"
	"sync"
)

// StaticOracle is an in-memory ownership table. Thread-safe via RWMutex.
// Items it does not know about report an empty owner, which the registry
// surfaces as an ownership mismatch.
type StaticOracle struct {
	mu     sync.RWMutex
	owners map[ownerKey]string
}

type ownerKey struct {
	collection string
	item       uint64
}

// NewStaticOracle creates an empty StaticOracle.
func NewStaticOracle() *StaticOracle {
	return &StaticOracle{owners: make(map[ownerKey]string)}
}

// SetOwner records the current owner of an item.
func (o *StaticOracle) SetOwner(collection string, item uint64, owner string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.owners[ownerKey{collection, item}] = owner
}

// OwnerOf returns the recorded owner, or empty when the item is unknown.
func (o *StaticOracle) OwnerOf(_ context.Context, collection string, item uint64) (string, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.owners[ownerKey{collection, item}], nil
}
