// Package codec converts persisted object identifiers (24-char hex, the
// document store's native format) to the decimal tokens used in URLs and
// back. The mapping is a deterministic bijection and trivially invertible;
// it keeps raw storage ids out of links but is NOT an access control.
package codec

import (
	"math/big"
	"strings"

	"pollup/internal/apperr"
)

// HexWidth is the fixed width of a persisted identifier.
const HexWidth = 24

// Encode reinterprets a 24-char hex identifier as a base-16 integer and
// renders it in base 10.
func Encode(id string) (string, error) {
	if len(id) != HexWidth {
		return "", apperr.InvalidIdentifier("identifier must be %d hex chars, got %d", HexWidth, len(id))
	}
	// big.Int.SetString tolerates a leading sign, which is not hex.
	for _, c := range id {
		if !isHexDigit(c) {
			return "", apperr.InvalidIdentifier("identifier is not valid hex: %q", id)
		}
	}
	n, ok := new(big.Int).SetString(id, 16)
	if !ok {
		return "", apperr.InvalidIdentifier("identifier is not valid hex: %q", id)
	}
	return n.String(), nil
}

func isHexDigit(c rune) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f':
		return true
	case c >= 'A' && c <= 'F':
		return true
	}
	return false
}

// Decode reverses Encode, left-padding the hex result back to the fixed
// width. Tokens must be non-negative decimal integers.
func Decode(token string) (string, error) {
	if token == "" || strings.HasPrefix(token, "-") || strings.HasPrefix(token, "+") {
		return "", apperr.InvalidIdentifier("token is not a non-negative integer: %q", token)
	}
	n, ok := new(big.Int).SetString(token, 10)
	if !ok {
		return "", apperr.InvalidIdentifier("token is not a non-negative integer: %q", token)
	}
	hex := n.Text(16)
	if len(hex) > HexWidth {
		return "", apperr.InvalidIdentifier("token out of identifier range: %q", token)
	}
	return strings.Repeat("0", HexWidth-len(hex)) + hex, nil
}
