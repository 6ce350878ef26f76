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
var _ cardio.MarkerRepository = (*MarkerRepository)(nil)

// MarkerRepository implements cardio.MarkerRepository using ClickHouse
type MarkerRepository struct {
	conn driver.Conn
}

// NewMarkerRepository creates a new recovery marker repository
func NewMarkerRepository(conn driver.Conn) *MarkerRepository {
	return &MarkerRepository{conn: conn}
}

// Store inserts marker rows in batch. The table replaces rows by session,
// keeping the newest extraction, so re-running a backfill is safe.
func (r *MarkerRepository) Store(ctx context.Context, markers []cardio.RecoveryMarkers) (err error) {
	if len(markers) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("clickhouse", "store_markers", time.Since(start), err) }()

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO recovery_markers (
			session_id, subject_id, peak_vo2, hr_recovery_1min, ve_vo2_ratio, extracted_at
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, m := range markers {
		err := batch.Append(
			m.SessionID, m.SubjectID, m.PeakVO2,
			m.HeartRateRecovery1Min, m.VentilationToVO2, m.ExtractedAt,
		)
		if err != nil {
			return errors.Wrap(err, "failed to append markers")
		}
	}

	return batch.Send()
}

// LatestBySubject retrieves the most recently extracted markers per subject
func (r *MarkerRepository) LatestBySubject(ctx context.Context) (_ map[string]cardio.RecoveryMarkers, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("clickhouse", "latest_by_subject", time.Since(start), err) }()

	var rows []cardio.RecoveryMarkers

	query := `
		SELECT
			subject_id,
			argMax(session_id, extracted_at) AS session_id,
			argMax(peak_vo2, extracted_at) AS peak_vo2,
			argMax(hr_recovery_1min, extracted_at) AS hr_recovery_1min,
			argMax(ve_vo2_ratio, extracted_at) AS ve_vo2_ratio,
			max(extracted_at) AS extracted_at
		FROM recovery_markers
		GROUP BY subject_id`

	if err = r.conn.Select(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "query latest markers")
	}

	latest := make(map[string]cardio.RecoveryMarkers, len(rows))
	for _, m := range rows {
		latest[m.SubjectID] = m
	}

	return latest, nil
}

// ListSince retrieves markers extracted at or after the given time
func (r *MarkerRepository) ListSince(ctx context.Context, since time.Time) (_ []cardio.RecoveryMarkers, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("clickhouse", "list_since", time.Since(start), err) }()

	var markers []cardio.RecoveryMarkers

	query := `
		SELECT session_id, subject_id, peak_vo2, hr_recovery_1min, ve_vo2_ratio, extracted_at
		FROM recovery_markers FINAL
		WHERE extracted_at >= $1
		ORDER BY extracted_at ASC`

	err = r.conn.Select(ctx, &markers, query, since)
	return markers, err
}
