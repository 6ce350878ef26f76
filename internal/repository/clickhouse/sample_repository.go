package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"asclepius/internal/domain/cardio"
	"asclepius/internal/metrics"
	"asclepius/pkg/errors"
)

// Compile-time check
var _ cardio.SampleRepository = (*SampleRepository)(nil)

// SampleRepository implements cardio.SampleRepository using ClickHouse
type SampleRepository struct {
	conn driver.Conn
}

// NewSampleRepository creates a new treadmill sample repository
func NewSampleRepository(conn driver.Conn) *SampleRepository {
	return &SampleRepository{conn: conn}
}

// InsertSamples inserts treadmill samples in batch
func (r *SampleRepository) InsertSamples(ctx context.Context, samples []cardio.Sample) (err error) {
	if len(samples) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("clickhouse", "insert_samples", time.Since(start), err) }()

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO treadmill_samples (
			session_id, subject_id, elapsed_seconds,
			vo2, heart_rate, ventilation, recorded_at
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, sample := range samples {
		err := batch.Append(
			sample.SessionID, sample.SubjectID, sample.ElapsedSeconds,
			sample.VO2, sample.HeartRate, sample.Ventilation, sample.RecordedAt,
		)
		if err != nil {
			return errors.Wrap(err, "failed to append sample")
		}
	}

	return batch.Send()
}

// GetSessionSamples retrieves all samples of a session ordered by elapsed time
func (r *SampleRepository) GetSessionSamples(ctx context.Context, sessionID string) (_ []cardio.Sample, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("clickhouse", "get_session_samples", time.Since(start), err) }()

	var samples []cardio.Sample

	query := `
		SELECT session_id, subject_id, elapsed_seconds, vo2, heart_rate, ventilation, recorded_at
		FROM treadmill_samples
		WHERE session_id = $1
		ORDER BY elapsed_seconds ASC`

	err = r.conn.Select(ctx, &samples, query, sessionID)
	return samples, err
}

// ListSessionIDs retrieves all session IDs with stored samples
func (r *SampleRepository) ListSessionIDs(ctx context.Context) (_ []string, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("clickhouse", "list_session_ids", time.Since(start), err) }()

	query := `
		SELECT DISTINCT session_id
		FROM treadmill_samples
		ORDER BY session_id ASC`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "query session ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan session id")
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
