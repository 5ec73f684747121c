package ports

import "context"

// Manifest records every item id ever scheduled, across concurrent producers.
type Manifest interface {
	// Merge unions ids into the manifest and persists it atomically.
	Merge(ctx context.Context, itemIDs []string) error
	// Read returns the last durably merged id set, sorted.
	Read(ctx context.Context) ([]string, error)
}
