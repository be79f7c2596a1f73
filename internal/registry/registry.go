package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/onnwee/palette/internal/color"
)

// OwnershipOracle answers who currently owns an item. It is authoritative;
// the registry treats any returned identity other than the claimed owner as
// a hard mismatch and does not distinguish "item does not exist" from
// "wrong owner".
type OwnershipOracle interface {
	OwnerOf(ctx context.Context, collection string, item uint64) (string, error)
}

// Registry composes access control, validation, the attribute store, and
// the ownership oracle behind the public read/write surface. Mutations are
// serialized: a call either fully applies or has no effect, and no call
// observes another call's partial state.
type Registry struct {
	mu     sync.Mutex // serializes all mutating operations
	access *AccessControl
	store  Store
	oracle OwnershipOracle
	logger *slog.Logger
}

// New creates a Registry.
func New(access *AccessControl, store Store, oracle OwnershipOracle, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		access: access,
		store:  store,
		oracle: oracle,
		logger: logger,
	}
}

// Access exposes the authorization state for read-only inspection.
func (r *Registry) Access() *AccessControl {
	return r.access
}

// SetRenderer assigns the renderer identity. Administrator only, one time.
func (r *Registry) SetRenderer(caller, renderer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.access.SetRenderer(caller, renderer); err != nil {
		return err
	}
	r.logger.Info("renderer assigned", "renderer", renderer)
	return nil
}

// AddAllowedCollection extends the collection allow-list. Administrator or
// renderer.
func (r *Registry) AddAllowedCollection(caller, collection string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.access.AddCollection(caller, collection); err != nil {
		return err
	}
	r.logger.Info("collection allow-listed", "collection", collection)
	return nil
}

// decideColor turns one channel input into a store decision: empty input
// clears the channel, anything else must be a valid hex color.
func decideColor(input string) (*string, error) {
	if input == "" {
		return nil, nil
	}
	if err := color.ValidateHexColor(input); err != nil {
		return nil, err
	}
	return &input, nil
}

// decideColors validates all four channel inputs up front so one malformed
// input rejects the whole call before anything is written.
func decideColors(outline, flame, diamond, square string) (ColorSet, error) {
	var cs ColorSet
	var err error
	if cs.Outline, err = decideColor(outline); err != nil {
		return ColorSet{}, err
	}
	if cs.Flame, err = decideColor(flame); err != nil {
		return ColorSet{}, err
	}
	if cs.Diamond, err = decideColor(diamond); err != nil {
		return ColorSet{}, err
	}
	if cs.Square, err = decideColor(square); err != nil {
		return ColorSet{}, err
	}
	return cs, nil
}

// SetAddressColors sets or clears an address's global channel defaults.
// Renderer-gated; no ownership check because the record is not tied to a
// specific item.
func (r *Registry) SetAddressColors(ctx context.Context, caller, address, outline, flame, diamond, square string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.access.RequireRenderer(caller); err != nil {
		return err
	}
	colors, err := decideColors(outline, flame, diamond, square)
	if err != nil {
		return err
	}
	return r.store.SetAddressColors(ctx, address, colors)
}

// SetItemColors applies the same four color decisions and trophy outcome to
// every item in the batch. Renderer-gated and allow-list-gated; ownership
// of every item is confirmed before any write so a single mismatch leaves
// all items untouched.
func (r *Registry) SetItemColors(ctx context.Context, caller, owner, collection string, items []uint64, outline, flame, diamond, square string, trophyRaw uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.access.RequireRenderer(caller); err != nil {
		return err
	}
	if !r.access.CollectionAllowed(collection) {
		return ErrUnknownCollection
	}

	colors, err := decideColors(outline, flame, diamond, square)
	if err != nil {
		return err
	}
	trophy, err := color.ValidatePercent(trophyRaw)
	if err != nil {
		return err
	}

	if err := r.verifyOwnership(ctx, owner, collection, items); err != nil {
		return err
	}
	return r.store.SetItemAttributes(ctx, collection, items, colors, trophy)
}

// SetTopAffiliateColor sets or clears one item's affiliate color.
// Renderer-gated, allow-list-gated, ownership-gated.
func (r *Registry) SetTopAffiliateColor(ctx context.Context, caller, owner, collection string, item uint64, input string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.access.RequireRenderer(caller); err != nil {
		return err
	}
	if !r.access.CollectionAllowed(collection) {
		return ErrUnknownCollection
	}
	c, err := decideColor(input)
	if err != nil {
		return err
	}
	if err := r.verifyOwnership(ctx, owner, collection, []uint64{item}); err != nil {
		return err
	}
	return r.store.SetTopAffiliate(ctx, collection, item, c)
}

// verifyOwnership confirms the claimed owner holds every item per the
// oracle at call time.
func (r *Registry) verifyOwnership(ctx context.Context, owner, collection string, items []uint64) error {
	for _, item := range items {
		current, err := r.oracle.OwnerOf(ctx, collection, item)
		if err != nil {
			return fmt.Errorf("ownership lookup for item %d: %w", item, err)
		}
		if current != owner {
			return fmt.Errorf("%w: collection %s item %d", ErrOwnershipMismatch, collection, item)
		}
	}
	return nil
}

// TokenColor returns one channel of an item's override set. Unrecognized
// collections silently read as absent; reads never fail on access grounds.
func (r *Registry) TokenColor(ctx context.Context, collection string, item uint64, ch Channel) (*string, error) {
	if !r.access.CollectionAllowed(collection) {
		return nil, nil
	}
	return r.store.ItemColor(ctx, collection, item, ch)
}

// AddressColor returns one channel of an address's global defaults.
// Address-scoped reads are never allow-list-gated.
func (r *Registry) AddressColor(ctx context.Context, address string, ch Channel) (*string, error) {
	return r.store.AddressColor(ctx, address, ch)
}

// TopAffiliateColor returns an item's affiliate color, or nil when absent
// or the collection is unrecognized.
func (r *Registry) TopAffiliateColor(ctx context.Context, collection string, item uint64) (*string, error) {
	if !r.access.CollectionAllowed(collection) {
		return nil, nil
	}
	return r.store.TopAffiliate(ctx, collection, item)
}

// TrophyOuter returns an item's trophy outer percentage, or nil when absent
// or the collection is unrecognized.
func (r *Registry) TrophyOuter(ctx context.Context, collection string, item uint64) (*uint32, error) {
	if !r.access.CollectionAllowed(collection) {
		return nil, nil
	}
	return r.store.TrophyOuter(ctx, collection, item)
}
