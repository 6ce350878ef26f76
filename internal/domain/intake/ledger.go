package intake

import "context"

// Ledger tracks which intake files have already been ingested, so workers
// can re-scan a drop directory without duplicating work.
type Ledger interface {
	// MarkProcessed records a file as ingested
	MarkProcessed(ctx context.Context, name string) error

	// IsProcessed reports whether a file was already ingested
	IsProcessed(ctx context.Context, name string) (bool, error)
}
