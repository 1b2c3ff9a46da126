package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidToken is returned when a token symbol fails normalisation.
var ErrInvalidToken = errors.New("token: invalid symbol")

// NormalizeToken canonicalises a token symbol to trimmed uppercase and
// validates its shape: 2 to 8 characters from [A-Z0-9]. The engines treat the
// symbol as opaque beyond this check.
func NormalizeToken(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if len(trimmed) < 2 || len(trimmed) > 8 {
		return "", fmt.Errorf("%w: %q", ErrInvalidToken, symbol)
	}
	for _, r := range trimmed {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("%w: %q", ErrInvalidToken, symbol)
		}
	}
	return trimmed, nil
}
