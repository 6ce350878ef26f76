package cardio

import (
	"context"
	"time"
)

// SampleRepository stores and retrieves raw treadmill samples
type SampleRepository interface {
	// InsertSamples writes raw samples in one batch
	InsertSamples(ctx context.Context, samples []Sample) error

	// GetSessionSamples returns all samples of a session ordered by elapsed time
	GetSessionSamples(ctx context.Context, sessionID string) ([]Sample, error)

	// ListSessionIDs returns all session IDs with stored samples
	ListSessionIDs(ctx context.Context) ([]string, error)
}

// MarkerRepository stores and retrieves derived recovery markers
type MarkerRepository interface {
	// Store writes marker rows in one batch
	Store(ctx context.Context, markers []RecoveryMarkers) error

	// LatestBySubject returns the most recently extracted markers per subject
	LatestBySubject(ctx context.Context) (map[string]RecoveryMarkers, error)

	// ListSince returns markers extracted at or after the given time
	ListSince(ctx context.Context, since time.Time) ([]RecoveryMarkers, error)
}
