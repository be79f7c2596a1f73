package color

import "fmt"

// Trophy percentage bounds, scaled by 1e6. The stored value represents
// 5%-100% of the default trophy outer dimension.
const (
	MinTrophyPercent = 50000
	MaxTrophyPercent = 1000000
)

// PercentAction describes what a percentage input asks the store to do.
type PercentAction uint8

const (
	// PercentKeep leaves the stored value untouched.
	PercentKeep PercentAction = iota
	// PercentClear removes the stored value, falling back to the default.
	PercentClear
	// PercentSet stores a new value.
	PercentSet
)

// PercentOutcome is the decoded result of a raw percentage input.
type PercentOutcome struct {
	Action PercentAction
	Value  uint32 // meaningful only when Action == PercentSet
}

// ValidatePercent decodes the tri-state percentage wire contract:
// 0 requests no change, 1 clears the stored value, and any other input
// must lie in [MinTrophyPercent, MaxTrophyPercent] to be stored.
// The dense 0/1/range encoding is kept for compatibility with existing
// callers.
func ValidatePercent(raw uint32) (PercentOutcome, error) {
	switch {
	case raw == 0:
		return PercentOutcome{Action: PercentKeep}, nil
	case raw == 1:
		return PercentOutcome{Action: PercentClear}, nil
	case raw >= MinTrophyPercent && raw <= MaxTrophyPercent:
		return PercentOutcome{Action: PercentSet, Value: raw}, nil
	default:
		return PercentOutcome{}, fmt.Errorf("%w: got %d, want 0, 1, or [%d, %d]",
			ErrInvalidPercentage, raw, MinTrophyPercent, MaxTrophyPercent)
	}
}
