// Package color provides validation for the hex color values and the
// scaled trophy percentage accepted by the palette registry.
package color

import (
	"errors"
	"fmt"
	"regexp"
)

// hexColorPattern matches stored hex color codes in format #rrggbb.
// Only lowercase digits are accepted so every stored value is already
// normalized; readers never need to lowercase.
var hexColorPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// Common validation errors.
var (
	ErrInvalidHexColor   = errors.New("invalid hex color, expected #rrggbb with lowercase digits")
	ErrInvalidPercentage = errors.New("percentage out of range")
)

// IsValidHexColor reports whether color is in valid #rrggbb format.
func IsValidHexColor(color string) bool {
	return hexColorPattern.MatchString(color)
}

// ValidateHexColor validates a hex color and returns an error if invalid.
// The empty string never reaches this function; callers treat empty input
// as a field clear.
func ValidateHexColor(color string) error {
	if !IsValidHexColor(color) {
		return fmt.Errorf("%w: got %q", ErrInvalidHexColor, color)
	}
	return nil
}
