package report

import (
	"errors"
	"fmt"
	"strings"
)

const maxItemIDLength = 200

var ErrInvalidItemID = errors.New("invalid item id")

// ValidateItemID checks that an item id can be used verbatim as a queue file
// name on any shared filesystem: non-empty, bounded, and restricted to
// alphanumerics plus '.', '_', '-'. Leading dots are rejected so descriptor
// files are never hidden or confused with temp files.
func ValidateItemID(itemID string) error {
	if itemID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidItemID)
	}
	if len(itemID) > maxItemIDLength {
		return fmt.Errorf("%w: %q exceeds %d bytes", ErrInvalidItemID, itemID, maxItemIDLength)
	}
	if strings.HasPrefix(itemID, ".") {
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidItemID, itemID)
	}

	for _, r := range itemID {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidItemID, itemID, r)
		}
	}
	return nil
}
