package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"asclepius/internal/adapters/clickhouse"
	"asclepius/internal/adapters/config"
	"asclepius/internal/domain/cardio"
)

// Table schemas for the intake pipeline. Integration environments are
// created empty, so tests provision what they touch.
const (
	treadmillSamplesSchema = `
		CREATE TABLE IF NOT EXISTS treadmill_samples (
			session_id String,
			subject_id String,
			elapsed_seconds Float64,
			vo2 Nullable(Float64),
			heart_rate Nullable(Float64),
			ventilation Nullable(Float64),
			recorded_at DateTime64(3)
		) ENGINE = MergeTree()
		ORDER BY (session_id, elapsed_seconds)`

	recoveryMarkersSchema = `
		CREATE TABLE IF NOT EXISTS recovery_markers (
			session_id String,
			subject_id String,
			peak_vo2 Float64,
			hr_recovery_1min Float64,
			ve_vo2_ratio Float64,
			extracted_at DateTime64(3)
		) ENGINE = ReplacingMergeTree(extracted_at)
		ORDER BY session_id`
)

// ClickHouseTestHelper manages cleanup for ClickHouse integration tests.
type ClickHouseTestHelper struct {
	client *clickhouse.Client
}

// NewClickHouseTestHelper creates a ClickHouse client for tests and ensures
// the pipeline tables exist.
func NewClickHouseTestHelper(t *testing.T, cfg config.ClickHouseConfig) *ClickHouseTestHelper {
	t.Helper()

	client, err := clickhouse.NewClient(cfg)
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}

	for _, schema := range []string{treadmillSamplesSchema, recoveryMarkersSchema} {
		if err := client.Exec(context.Background(), schema); err != nil {
			_ = client.Close()
			t.Fatalf("failed to ensure clickhouse table: %v", err)
		}
	}

	helper := &ClickHouseTestHelper{client: client}
	t.Cleanup(func() { _ = client.Close() })
	return helper
}

// NewTestClickHouse creates a helper with config loaded from the environment.
func NewTestClickHouse(t *testing.T) *ClickHouseTestHelper {
	t.Helper()

	dbConfigs := LoadDatabaseConfigsFromEnv(t)

	return NewClickHouseTestHelper(t, dbConfigs.ClickHouse)
}

// Client exposes the raw ClickHouse client for queries.
func (h *ClickHouseTestHelper) Client() *clickhouse.Client {
	return h.client
}

// RegisterSessionCleanup schedules removal of a test session's rows after
// the test completes.
func (h *ClickHouseTestHelper) RegisterSessionCleanup(t *testing.T, sessionID string) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, table := range []string{"treadmill_samples", "recovery_markers"} {
			query := fmt.Sprintf("DELETE FROM %s WHERE session_id = '%s'", table, sessionID)
			_ = h.client.Exec(ctx, query)
		}
	})
}

// SampleFixture provides a builder for treadmill sample rows
type SampleFixture struct {
	sample cardio.Sample
}

// NewSampleFixture creates a complete sample with realistic mid-test values
func NewSampleFixture(sessionID, subjectID string) *SampleFixture {
	vo2 := 2.1
	hr := 132.0
	ve := 58.0
	return &SampleFixture{
		sample: cardio.Sample{
			SessionID:      sessionID,
			SubjectID:      subjectID,
			ElapsedSeconds: 0,
			VO2:            &vo2,
			HeartRate:      &hr,
			Ventilation:    &ve,
			RecordedAt:     time.Now().UTC().Truncate(time.Millisecond),
		},
	}
}

// At sets the elapsed time
func (f *SampleFixture) At(elapsed float64) *SampleFixture {
	f.sample.ElapsedSeconds = elapsed
	return f
}

// WithReadings sets all three channels
func (f *SampleFixture) WithReadings(vo2, hr, ve float64) *SampleFixture {
	f.sample.VO2 = &vo2
	f.sample.HeartRate = &hr
	f.sample.Ventilation = &ve
	return f
}

// Incomplete drops the VO2 channel, making the row incomplete
func (f *SampleFixture) Incomplete() *SampleFixture {
	f.sample.VO2 = nil
	return f
}

// Build returns the constructed sample
func (f *SampleFixture) Build() cardio.Sample {
	return f.sample
}

// RampSession builds a plausible incremental test: rising VO2 and heart
// rate to a peak, then a recovery tail long enough for the 60s marker.
func RampSession(sessionID, subjectID string) []cardio.Sample {
	points := []struct {
		elapsed, vo2, hr, ve float64
	}{
		{0, 0.9, 88, 24},
		{60, 1.6, 118, 38},
		{120, 2.4, 146, 55},
		{180, 3.1, 167, 74},
		{240, 3.5, 181, 92}, // peak
		{300, 2.2, 158, 66},
		{330, 1.7, 139, 51},
	}

	samples := make([]cardio.Sample, 0, len(points))
	for _, p := range points {
		samples = append(samples,
			NewSampleFixture(sessionID, subjectID).At(p.elapsed).WithReadings(p.vo2, p.hr, p.ve).Build())
	}
	return samples
}

// MarkerFixture provides a builder for recovery marker rows
type MarkerFixture struct {
	markers cardio.RecoveryMarkers
}

// NewMarkerFixture creates markers with plausible post-test values
func NewMarkerFixture(sessionID, subjectID string) *MarkerFixture {
	return &MarkerFixture{
		markers: cardio.RecoveryMarkers{
			SessionID:             sessionID,
			SubjectID:             subjectID,
			PeakVO2:               3.5,
			HeartRateRecovery1Min: 23,
			VentilationToVO2:      26.3,
			ExtractedAt:           time.Now().UTC().Truncate(time.Millisecond),
		},
	}
}

// WithMarkers sets the three marker values
func (f *MarkerFixture) WithMarkers(peakVO2, hrr, veVO2 float64) *MarkerFixture {
	f.markers.PeakVO2 = peakVO2
	f.markers.HeartRateRecovery1Min = hrr
	f.markers.VentilationToVO2 = veVO2
	return f
}

// ExtractedAt sets the extraction timestamp
func (f *MarkerFixture) ExtractedAt(ts time.Time) *MarkerFixture {
	f.markers.ExtractedAt = ts
	return f
}

// Build returns the constructed markers
func (f *MarkerFixture) Build() cardio.RecoveryMarkers {
	return f.markers
}
