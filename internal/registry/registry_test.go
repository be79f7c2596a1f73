package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/onnwee/palette/internal/color"
	"github.com/onnwee/palette/internal/oracle"
)

const testUser = "addr:user"

// newTestRegistry builds a registry with a memory store, an assigned
// renderer, and a static oracle the caller can seed.
func newTestRegistry(t *testing.T) (*Registry, *oracle.StaticOracle, *MemoryStore) {
	t.Helper()

	access := NewAccessControl(testAdmin, testCollection)
	if err := access.SetRenderer(testAdmin, testRenderer); err != nil {
		t.Fatalf("SetRenderer() error = %v", err)
	}

	store := NewMemoryStore()
	owners := oracle.NewStaticOracle()
	return New(access, store, owners, nil), owners, store
}

func TestSetAddressColors(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	// Mirrors the deploy scenario: set outline and diamond, leave flame
	// and square cleared.
	if err := reg.SetAddressColors(ctx, testRenderer, testUser, "#aabbcc", "", "#112233", ""); err != nil {
		t.Fatalf("SetAddressColors() error = %v", err)
	}

	tests := []struct {
		ch   Channel
		want string // empty means absent
	}{
		{ChannelOutline, "#aabbcc"},
		{ChannelFlame, ""},
		{ChannelDiamond, "#112233"},
		{ChannelSquare, ""},
	}
	for _, tt := range tests {
		got, err := reg.AddressColor(ctx, testUser, tt.ch)
		if err != nil {
			t.Fatalf("AddressColor(%v) error = %v", tt.ch, err)
		}
		if tt.want == "" {
			if got != nil {
				t.Errorf("AddressColor(%v) = %q, want absent", tt.ch, *got)
			}
		} else if got == nil || *got != tt.want {
			t.Errorf("AddressColor(%v) = %v, want %q", tt.ch, got, tt.want)
		}
	}
}

func TestSetAddressColorsIdempotent(t *testing.T) {
	reg, _, store := newTestRegistry(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := reg.SetAddressColors(ctx, testRenderer, testUser, "#aabbcc", "", "#112233", ""); err != nil {
			t.Fatalf("SetAddressColors() call %d error = %v", i+1, err)
		}
	}

	got, err := store.AddressColor(ctx, testUser, ChannelOutline)
	if err != nil {
		t.Fatalf("AddressColor() error = %v", err)
	}
	if got == nil || *got != "#aabbcc" {
		t.Errorf("outline after repeated call = %v, want #aabbcc", got)
	}
}

func TestSetAddressColorsRejections(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		outline string
		wantErr error
	}{
		{
			name:    "non-renderer rejected",
			caller:  testAdmin,
			outline: "#aabbcc",
			wantErr: ErrNotRenderer,
		},
		{
			name:    "uppercase color rejected",
			caller:  testRenderer,
			outline: "#AABBCC",
			wantErr: color.ErrInvalidHexColor,
		},
		{
			name:    "short color rejected",
			caller:  testRenderer,
			outline: "#abc",
			wantErr: color.ErrInvalidHexColor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _, store := newTestRegistry(t)
			ctx := context.Background()

			err := reg.SetAddressColors(ctx, tt.caller, testUser, tt.outline, "", "", "")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetAddressColors() error = %v, want %v", err, tt.wantErr)
			}

			got, err := store.AddressColor(ctx, testUser, ChannelOutline)
			if err != nil {
				t.Fatalf("AddressColor() error = %v", err)
			}
			if got != nil {
				t.Errorf("rejected call stored %q", *got)
			}
		})
	}
}

func TestSetItemColors(t *testing.T) {
	reg, owners, _ := newTestRegistry(t)
	ctx := context.Background()

	owners.SetOwner(testCollection, 7, testUser)

	err := reg.SetItemColors(ctx, testRenderer, testUser, testCollection, []uint64{7},
		"#ffffff", "", "", "", 75000)
	if err != nil {
		t.Fatalf("SetItemColors() error = %v", err)
	}

	got, err := reg.TokenColor(ctx, testCollection, 7, ChannelOutline)
	if err != nil {
		t.Fatalf("TokenColor() error = %v", err)
	}
	if got == nil || *got != "#ffffff" {
		t.Errorf("TokenColor() = %v, want #ffffff", got)
	}

	pct, err := reg.TrophyOuter(ctx, testCollection, 7)
	if err != nil {
		t.Fatalf("TrophyOuter() error = %v", err)
	}
	if pct == nil || *pct != 75000 {
		t.Errorf("TrophyOuter() = %v, want 75000", pct)
	}
}

func TestSetItemColorsBatchAllOrNothing(t *testing.T) {
	reg, owners, store := newTestRegistry(t)
	ctx := context.Background()

	// Caller owns A and C but not B; the whole batch must be discarded.
	owners.SetOwner(testCollection, 1, testUser)
	owners.SetOwner(testCollection, 2, "addr:someone-else")
	owners.SetOwner(testCollection, 3, testUser)

	err := reg.SetItemColors(ctx, testRenderer, testUser, testCollection, []uint64{1, 2, 3},
		"#ffffff", "", "", "", 75000)
	if !errors.Is(err, ErrOwnershipMismatch) {
		t.Fatalf("SetItemColors() error = %v, want ErrOwnershipMismatch", err)
	}

	for _, item := range []uint64{1, 2, 3} {
		got, err := store.ItemColor(ctx, testCollection, item, ChannelOutline)
		if err != nil {
			t.Fatalf("ItemColor() error = %v", err)
		}
		if got != nil {
			t.Errorf("item %d was written despite batch failure: %q", item, *got)
		}
		pct, err := store.TrophyOuter(ctx, testCollection, item)
		if err != nil {
			t.Fatalf("TrophyOuter() error = %v", err)
		}
		if pct != nil {
			t.Errorf("item %d trophy was written despite batch failure: %d", item, *pct)
		}
	}
}

func TestSetItemColorsValidatedBeforeOwnership(t *testing.T) {
	reg, owners, store := newTestRegistry(t)
	ctx := context.Background()

	owners.SetOwner(testCollection, 7, testUser)

	// A malformed percentage rejects the batch before any mutation.
	err := reg.SetItemColors(ctx, testRenderer, testUser, testCollection, []uint64{7},
		"#ffffff", "", "", "", 49999)
	if !errors.Is(err, color.ErrInvalidPercentage) {
		t.Fatalf("SetItemColors() error = %v, want ErrInvalidPercentage", err)
	}

	got, err := store.ItemColor(ctx, testCollection, 7, ChannelOutline)
	if err != nil {
		t.Fatalf("ItemColor() error = %v", err)
	}
	if got != nil {
		t.Errorf("item was written despite validation failure: %q", *got)
	}
}

func TestSetItemColorsUnknownCollection(t *testing.T) {
	reg, owners, _ := newTestRegistry(t)
	ctx := context.Background()

	owners.SetOwner("col:other", 7, testUser)

	err := reg.SetItemColors(ctx, testRenderer, testUser, "col:other", []uint64{7},
		"#ffffff", "", "", "", 0)
	if !errors.Is(err, ErrUnknownCollection) {
		t.Fatalf("SetItemColors() error = %v, want ErrUnknownCollection", err)
	}
}

type failingOracle struct{}

func (failingOracle) OwnerOf(context.Context, string, uint64) (string, error) {
	return "", errors.New("oracle offline")
}

func TestSetItemColorsOracleFailure(t *testing.T) {
	access := NewAccessControl(testAdmin, testCollection)
	if err := access.SetRenderer(testAdmin, testRenderer); err != nil {
		t.Fatalf("SetRenderer() error = %v", err)
	}
	store := NewMemoryStore()
	reg := New(access, store, failingOracle{}, nil)
	ctx := context.Background()

	err := reg.SetItemColors(ctx, testRenderer, testUser, testCollection, []uint64{7},
		"#ffffff", "", "", "", 0)
	if err == nil {
		t.Fatal("SetItemColors() error = nil, want oracle failure")
	}

	got, serr := store.ItemColor(ctx, testCollection, 7, ChannelOutline)
	if serr != nil {
		t.Fatalf("ItemColor() error = %v", serr)
	}
	if got != nil {
		t.Errorf("item was written despite oracle failure: %q", *got)
	}
}

func TestSetTopAffiliateColor(t *testing.T) {
	reg, owners, _ := newTestRegistry(t)
	ctx := context.Background()

	owners.SetOwner(testCollection, 9, testUser)

	if err := reg.SetTopAffiliateColor(ctx, testRenderer, testUser, testCollection, 9, "#00ff00"); err != nil {
		t.Fatalf("SetTopAffiliateColor() error = %v", err)
	}
	got, err := reg.TopAffiliateColor(ctx, testCollection, 9)
	if err != nil {
		t.Fatalf("TopAffiliateColor() error = %v", err)
	}
	if got == nil || *got != "#00ff00" {
		t.Errorf("TopAffiliateColor() = %v, want #00ff00", got)
	}

	// Empty input clears.
	if err := reg.SetTopAffiliateColor(ctx, testRenderer, testUser, testCollection, 9, ""); err != nil {
		t.Fatalf("SetTopAffiliateColor(clear) error = %v", err)
	}
	got, err = reg.TopAffiliateColor(ctx, testCollection, 9)
	if err != nil {
		t.Fatalf("TopAffiliateColor() error = %v", err)
	}
	if got != nil {
		t.Errorf("TopAffiliateColor() after clear = %q, want absent", *got)
	}
}

func TestSetTopAffiliateColorNotRenderer(t *testing.T) {
	reg, owners, store := newTestRegistry(t)
	ctx := context.Background()

	owners.SetOwner(testCollection, 9, testUser)

	err := reg.SetTopAffiliateColor(ctx, "addr:stranger", testUser, testCollection, 9, "#00ff00")
	if !errors.Is(err, ErrNotRenderer) {
		t.Fatalf("SetTopAffiliateColor() error = %v, want ErrNotRenderer", err)
	}

	got, serr := store.TopAffiliate(ctx, testCollection, 9)
	if serr != nil {
		t.Fatalf("TopAffiliate() error = %v", serr)
	}
	if got != nil {
		t.Errorf("affiliate color written by non-renderer: %q", *got)
	}
}

func TestSetTopAffiliateColorOwnershipMismatch(t *testing.T) {
	reg, owners, _ := newTestRegistry(t)
	ctx := context.Background()

	owners.SetOwner(testCollection, 9, "addr:someone-else")

	err := reg.SetTopAffiliateColor(ctx, testRenderer, testUser, testCollection, 9, "#00ff00")
	if !errors.Is(err, ErrOwnershipMismatch) {
		t.Errorf("SetTopAffiliateColor() error = %v, want ErrOwnershipMismatch", err)
	}
}

func TestReadsNeverFailOnUnknownCollection(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	got, err := reg.TokenColor(ctx, "col:unknown", 1, ChannelOutline)
	if err != nil {
		t.Errorf("TokenColor(unknown collection) error = %v, want nil", err)
	}
	if got != nil {
		t.Errorf("TokenColor(unknown collection) = %q, want absent", *got)
	}

	aff, err := reg.TopAffiliateColor(ctx, "col:unknown", 1)
	if err != nil || aff != nil {
		t.Errorf("TopAffiliateColor(unknown collection) = %v, %v; want nil, nil", aff, err)
	}

	pct, err := reg.TrophyOuter(ctx, "col:unknown", 1)
	if err != nil || pct != nil {
		t.Errorf("TrophyOuter(unknown collection) = %v, %v; want nil, nil", pct, err)
	}
}

func TestChannelRoundTrip(t *testing.T) {
	for ch := ChannelOutline; ch <= ChannelSquare; ch++ {
		parsed, err := ParseChannel(ch.String())
		if err != nil {
			t.Fatalf("ParseChannel(%q) error = %v", ch.String(), err)
		}
		if parsed != ch {
			t.Errorf("ParseChannel(%q) = %v, want %v", ch.String(), parsed, ch)
		}
	}

	if _, err := ParseChannel("sparkle"); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("ParseChannel(sparkle) error = %v, want ErrUnknownChannel", err)
	}
}
