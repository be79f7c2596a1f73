// Package validate provides input validation for the identifiers the
// registry accepts: account addresses, collection identities, and item ids.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Identifier validation errors.
var (
	ErrEmpty             = errors.New("identifier is empty")
	ErrTooLong           = errors.New("identifier is too long")
	ErrInvalidCharacters = errors.New("identifier contains invalid characters")
)

// MaxIdentifierLength bounds every identity string accepted over the API.
// Addresses and collection ids in every supported source environment fit
// well under this.
const MaxIdentifierLength = 128

// identifierPattern restricts identities to printable, URL-safe characters.
var identifierPattern = regexp.MustCompile(`^[0-9A-Za-z:._-]+$`)

// Identifier validates an address or collection identity string.
func Identifier(s string) error {
	if s == "" {
		return ErrEmpty
	}
	if utf8.RuneCountInString(s) > MaxIdentifierLength {
		return fmt.Errorf("%w: maximum is %d chars", ErrTooLong, MaxIdentifierLength)
	}
	if !identifierPattern.MatchString(s) {
		return fmt.Errorf("%w: got %q", ErrInvalidCharacters, s)
	}
	return nil
}
