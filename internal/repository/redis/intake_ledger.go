package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"asclepius/internal/domain/intake"
	"asclepius/pkg/errors"
)

var _ intake.Ledger = (*IntakeLedger)(nil)

// Key shared with the metrics collector, which exports the set's cardinality.
const processedIntakeKey = "asclepius:intake:processed"

// IntakeLedger implements intake.Ledger using a Redis set
type IntakeLedger struct {
	client *redis.Client
}

// NewIntakeLedger creates a new intake ledger
func NewIntakeLedger(client *redis.Client) *IntakeLedger {
	return &IntakeLedger{
		client: client,
	}
}

// MarkProcessed records a file as ingested
func (l *IntakeLedger) MarkProcessed(ctx context.Context, name string) error {
	if err := l.client.SAdd(ctx, processedIntakeKey, name).Err(); err != nil {
		return errors.Wrapf(err, "failed to mark intake file as processed: %s", name)
	}

	return nil
}

// IsProcessed reports whether a file was already ingested
func (l *IntakeLedger) IsProcessed(ctx context.Context, name string) (bool, error) {
	processed, err := l.client.SIsMember(ctx, processedIntakeKey, name).Result()
	if err != nil {
		return false, errors.Wrapf(err, "failed to check intake file: %s", name)
	}

	return processed, nil
}
