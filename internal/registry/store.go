package registry

import (
	"context"
	"sync"

	"github.com/onnwee/palette/internal/color"
)

// Store defines the data operations for palette attributes. It carries no
// authorization; the Registry gates every mutating call before it reaches
// the store. Read methods return nil for values that were never set.
type Store interface {
	// AddressColor returns one channel of an address's global defaults.
	AddressColor(ctx context.Context, address string, ch Channel) (*string, error)

	// ItemColor returns one channel of an item's override set.
	ItemColor(ctx context.Context, collection string, item uint64, ch Channel) (*string, error)

	// TopAffiliate returns an item's top affiliate color.
	TopAffiliate(ctx context.Context, collection string, item uint64) (*string, error)

	// TrophyOuter returns an item's trophy outer percentage.
	TrophyOuter(ctx context.Context, collection string, item uint64) (*uint32, error)

	// SetAddressColors stores an address's four channel defaults. A nil
	// field clears that channel.
	SetAddressColors(ctx context.Context, address string, colors ColorSet) error

	// SetItemAttributes applies the same color decisions and trophy
	// outcome to every item in the list. Implementations must apply the
	// batch all-or-nothing.
	SetItemAttributes(ctx context.Context, collection string, items []uint64, colors ColorSet, trophy color.PercentOutcome) error

	// SetTopAffiliate stores or clears (nil) an item's affiliate color.
	SetTopAffiliate(ctx context.Context, collection string, item uint64, c *string) error
}

// MemoryStore is an in-memory implementation of Store.
// Thread-safe via RWMutex.
type MemoryStore struct {
	mu         sync.RWMutex
	addresses  map[string]ColorSet
	items      map[itemKey]ColorSet
	affiliates map[itemKey]string
	trophies   map[itemKey]uint32
}

// NewMemoryStore creates a new in-memory attribute store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		addresses:  make(map[string]ColorSet),
		items:      make(map[itemKey]ColorSet),
		affiliates: make(map[itemKey]string),
		trophies:   make(map[itemKey]uint32),
	}
}

// cloneString copies an optional string so callers cannot alias the
// store's internal state.
func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// cloneSet deep-copies a ColorSet.
func cloneSet(cs ColorSet) ColorSet {
	return ColorSet{
		Outline: cloneString(cs.Outline),
		Flame:   cloneString(cs.Flame),
		Diamond: cloneString(cs.Diamond),
		Square:  cloneString(cs.Square),
	}
}

// AddressColor returns one channel of an address's global defaults.
func (s *MemoryStore) AddressColor(_ context.Context, address string, ch Channel) (*string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, ok := s.addresses[address]
	if !ok {
		return nil, nil
	}
	return cloneString(cs.Channel(ch)), nil
}

// ItemColor returns one channel of an item's override set.
func (s *MemoryStore) ItemColor(_ context.Context, collection string, item uint64, ch Channel) (*string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, ok := s.items[itemKey{collection, item}]
	if !ok {
		return nil, nil
	}
	return cloneString(cs.Channel(ch)), nil
}

// TopAffiliate returns an item's top affiliate color.
func (s *MemoryStore) TopAffiliate(_ context.Context, collection string, item uint64) (*string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.affiliates[itemKey{collection, item}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// TrophyOuter returns an item's trophy outer percentage.
func (s *MemoryStore) TrophyOuter(_ context.Context, collection string, item uint64) (*uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.trophies[itemKey{collection, item}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SetAddressColors stores an address's four channel defaults.
func (s *MemoryStore) SetAddressColors(_ context.Context, address string, colors ColorSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addresses[address] = cloneSet(colors)
	return nil
}

// SetItemAttributes applies the same decisions to every item in the list.
// The map writes cannot fail, so the batch is trivially all-or-nothing.
func (s *MemoryStore) SetItemAttributes(_ context.Context, collection string, items []uint64, colors ColorSet, trophy color.PercentOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		key := itemKey{collection, item}
		s.items[key] = cloneSet(colors)

		switch trophy.Action {
		case color.PercentClear:
			delete(s.trophies, key)
		case color.PercentSet:
			s.trophies[key] = trophy.Value
		}
	}
	return nil
}

// SetTopAffiliate stores or clears an item's affiliate color.
func (s *MemoryStore) SetTopAffiliate(_ context.Context, collection string, item uint64, c *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := itemKey{collection, item}
	if c == nil {
		delete(s.affiliates, key)
		return nil
	}
	s.affiliates[key] = *c
	return nil
}
