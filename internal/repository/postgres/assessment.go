package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"asclepius/internal/domain/assessment"
	pkgerrors "asclepius/pkg/errors"
)

// Compile-time check
var _ assessment.Repository = (*AssessmentRepository)(nil)

// AssessmentRepository implements assessment.Repository using sqlx
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// scanAssessment scans a single assessment from a database row
func scanAssessment(row interface {
	Scan(dest ...interface{}) error
}) (*assessment.Assessment, error) {
	a := &assessment.Assessment{}

	err := row.Scan(
		&a.ID, &a.SubjectID, &a.SessionID,
		&a.CardiacScore, &a.MobilityScore, &a.FinalScore,
		&a.RecoveryDays, pq.Array(&a.Recommendations),
		&a.Policy, &a.Mode,
		&a.CardiacPercentile, &a.MobilityPercentile,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return a, nil
}

const assessmentColumns = `
	id, subject_id, session_id,
	cardiac_score, mobility_score, final_score,
	recovery_days, recommendations, policy, mode,
	cardiac_percentile, mobility_percentile, created_at`

// Store writes one assessment
func (r *AssessmentRepository) Store(ctx context.Context, a *assessment.Assessment) error {
	query := `
		INSERT INTO assessments (
			id, subject_id, session_id,
			cardiac_score, mobility_score, final_score,
			recovery_days, recommendations, policy, mode,
			cardiac_percentile, mobility_percentile, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.SubjectID, a.SessionID,
		a.CardiacScore, a.MobilityScore, a.FinalScore,
		a.RecoveryDays, pq.Array(a.Recommendations), a.Policy, a.Mode,
		a.CardiacPercentile, a.MobilityPercentile, a.CreatedAt,
	)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to store assessment")
	}

	return nil
}

// GetBySubject retrieves a subject's assessments, newest first
func (r *AssessmentRepository) GetBySubject(ctx context.Context, subjectID string) ([]assessment.Assessment, error) {
	query := `
		SELECT` + assessmentColumns + `
		FROM assessments
		WHERE subject_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query assessments")
	}
	defer rows.Close()

	return collectAssessments(rows)
}

// ListRecent retrieves the most recent assessments across subjects
func (r *AssessmentRepository) ListRecent(ctx context.Context, limit int) ([]assessment.Assessment, error) {
	query := `
		SELECT` + assessmentColumns + `
		FROM assessments
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query recent assessments")
	}
	defer rows.Close()

	return collectAssessments(rows)
}

// FilterUnassessed returns the subset of session IDs with no stored
// assessment yet, preserving input order
func (r *AssessmentRepository) FilterUnassessed(ctx context.Context, sessionIDs []string) ([]string, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}

	query := `SELECT DISTINCT session_id FROM assessments WHERE session_id = ANY($1)`

	var assessed []string
	if err := r.db.SelectContext(ctx, &assessed, query, pq.Array(sessionIDs)); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query assessed sessions")
	}

	seen := make(map[string]struct{}, len(assessed))
	for _, id := range assessed {
		seen[id] = struct{}{}
	}

	var unassessed []string
	for _, id := range sessionIDs {
		if _, ok := seen[id]; !ok {
			unassessed = append(unassessed, id)
		}
	}

	return unassessed, nil
}

// GetLatestBySubject retrieves a subject's newest assessment
func (r *AssessmentRepository) GetLatestBySubject(ctx context.Context, subjectID string) (*assessment.Assessment, error) {
	query := `
		SELECT` + assessmentColumns + `
		FROM assessments
		WHERE subject_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, subjectID)
	a, err := scanAssessment(row)
	if err == sql.ErrNoRows {
		return nil, pkgerrors.Wrap(pkgerrors.ErrNotFound, "assessment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get assessment")
	}

	return a, nil
}

func collectAssessments(rows *sql.Rows) ([]assessment.Assessment, error) {
	var out []assessment.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to scan assessment")
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to iterate assessments")
	}

	return out, nil
}
