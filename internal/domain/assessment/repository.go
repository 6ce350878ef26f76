package assessment

import (
	"context"
)

// Repository persists scored assessments
type Repository interface {
	// Store writes one assessment
	Store(ctx context.Context, a *Assessment) error

	// GetBySubject returns a subject's assessments, newest first
	GetBySubject(ctx context.Context, subjectID string) ([]Assessment, error)

	// ListRecent returns the most recent assessments across subjects
	ListRecent(ctx context.Context, limit int) ([]Assessment, error)

	// FilterUnassessed returns the subset of session IDs with no stored
	// assessment yet
	FilterUnassessed(ctx context.Context, sessionIDs []string) ([]string, error)
}
