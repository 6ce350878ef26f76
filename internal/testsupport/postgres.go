package testsupport

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"asclepius/internal/adapters/config"
	"asclepius/internal/adapters/postgres"
)

// assessmentsSchema mirrors the production table. Integration environments
// are created empty, so tests provision what they touch.
const assessmentsSchema = `
	CREATE TABLE IF NOT EXISTS assessments (
		id UUID PRIMARY KEY,
		subject_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		cardiac_score DOUBLE PRECISION NOT NULL,
		mobility_score DOUBLE PRECISION NOT NULL,
		final_score DOUBLE PRECISION NOT NULL,
		recovery_days INTEGER NOT NULL,
		recommendations TEXT[] NOT NULL DEFAULT '{}',
		policy TEXT NOT NULL,
		mode TEXT NOT NULL,
		cardiac_percentile INTEGER,
		mobility_percentile INTEGER,
		created_at TIMESTAMPTZ NOT NULL
	)`

// PostgresTestHelper manages a connection for integration tests.
type PostgresTestHelper struct {
	client *postgres.Client
}

// NewPostgresTestHelper opens a connection and provisions the schema.
func NewPostgresTestHelper(t *testing.T, cfg config.PostgresConfig) *PostgresTestHelper {
	t.Helper()

	client, err := postgres.NewClient(cfg)
	if err != nil {
		t.Fatalf("failed to create postgres client: %v", err)
	}

	if _, err := client.DB().ExecContext(context.Background(), assessmentsSchema); err != nil {
		_ = client.Close()
		t.Fatalf("failed to ensure assessments table: %v", err)
	}

	helper := &PostgresTestHelper{client: client}
	t.Cleanup(func() {
		_ = client.Close()
	})

	return helper
}

// DB returns the underlying database handle.
func (h *PostgresTestHelper) DB() *sqlx.DB {
	return h.client.DB()
}

// CleanupSubject removes all rows created for a test subject.
func (h *PostgresTestHelper) CleanupSubject(t *testing.T, subjectID string) {
	t.Helper()
	t.Cleanup(func() {
		_, _ = h.client.DB().ExecContext(context.Background(),
			"DELETE FROM assessments WHERE subject_id = $1", subjectID)
	})
}

// NewTestPostgres creates a test postgres helper with config loaded from the
// environment. The test is skipped when the environment is not provisioned.
func NewTestPostgres(t *testing.T) *PostgresTestHelper {
	t.Helper()

	dbConfigs := LoadDatabaseConfigsFromEnv(t)

	return NewPostgresTestHelper(t, dbConfigs.Postgres)
}
