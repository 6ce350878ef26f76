package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asclepius/internal/domain/cardio"
	"asclepius/internal/testsupport"
)

func TestMarkerRepository_StoreAndQuery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := testsupport.LoadDatabaseConfigsFromEnv(t)
	helper := testsupport.NewClickHouseTestHelper(t, cfg.ClickHouse)

	repo := NewMarkerRepository(helper.Client().Conn())
	ctx := context.Background()

	t.Run("Store_Success", func(t *testing.T) {
		sessionID := testsupport.UniqueSessionID()
		subjectID := testsupport.UniqueSubjectID()
		helper.RegisterSessionCleanup(t, sessionID)

		markers := testsupport.NewMarkerFixture(sessionID, subjectID).
			WithMarkers(3.5, 23, 26.3).
			Build()

		err := repo.Store(ctx, []cardio.RecoveryMarkers{markers})
		require.NoError(t, err)

		var count uint64
		err = helper.Client().Conn().QueryRow(ctx,
			"SELECT count() FROM recovery_markers WHERE session_id = $1", sessionID).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), count)
	})

	t.Run("Store_EmptySlice", func(t *testing.T) {
		err := repo.Store(ctx, []cardio.RecoveryMarkers{})
		require.NoError(t, err)
	})

	t.Run("LatestBySubject_PicksNewestExtraction", func(t *testing.T) {
		subjectID := testsupport.UniqueSubjectID()
		oldSession := testsupport.UniqueSessionID()
		newSession := testsupport.UniqueSessionID()
		helper.RegisterSessionCleanup(t, oldSession)
		helper.RegisterSessionCleanup(t, newSession)

		now := time.Now().UTC().Truncate(time.Millisecond)

		markers := []cardio.RecoveryMarkers{
			testsupport.NewMarkerFixture(oldSession, subjectID).
				WithMarkers(2.8, 15, 31.0).
				ExtractedAt(now.Add(-48 * time.Hour)).
				Build(),
			testsupport.NewMarkerFixture(newSession, subjectID).
				WithMarkers(3.4, 24, 27.5).
				ExtractedAt(now).
				Build(),
		}

		err := repo.Store(ctx, markers)
		require.NoError(t, err)

		latest, err := repo.LatestBySubject(ctx)
		require.NoError(t, err)

		got, ok := latest[subjectID]
		require.True(t, ok, "subject should appear in latest map")
		assert.Equal(t, newSession, got.SessionID)
		assert.Equal(t, 3.4, got.PeakVO2)
		assert.Equal(t, 24.0, got.HeartRateRecovery1Min)
		assert.Equal(t, 27.5, got.VentilationToVO2)
		assert.WithinDuration(t, now, got.ExtractedAt, time.Second)
	})

	t.Run("ListSince_FiltersByExtractionTime", func(t *testing.T) {
		subjectID := testsupport.UniqueSubjectID()
		oldSession := testsupport.UniqueSessionID()
		newSession := testsupport.UniqueSessionID()
		helper.RegisterSessionCleanup(t, oldSession)
		helper.RegisterSessionCleanup(t, newSession)

		now := time.Now().UTC().Truncate(time.Millisecond)

		markers := []cardio.RecoveryMarkers{
			testsupport.NewMarkerFixture(oldSession, subjectID).
				ExtractedAt(now.Add(-2 * time.Hour)).
				Build(),
			testsupport.NewMarkerFixture(newSession, subjectID).
				ExtractedAt(now).
				Build(),
		}

		err := repo.Store(ctx, markers)
		require.NoError(t, err)

		result, err := repo.ListSince(ctx, now.Add(-1*time.Hour))
		require.NoError(t, err)

		sessions := make(map[string]bool, len(result))
		for _, m := range result {
			sessions[m.SessionID] = true
		}

		assert.True(t, sessions[newSession], "recent extraction should be listed")
		assert.False(t, sessions[oldSession], "extraction before cutoff should be excluded")
	})

	t.Run("Store_ReplacesBySession", func(t *testing.T) {
		sessionID := testsupport.UniqueSessionID()
		subjectID := testsupport.UniqueSubjectID()
		helper.RegisterSessionCleanup(t, sessionID)

		now := time.Now().UTC().Truncate(time.Millisecond)

		first := testsupport.NewMarkerFixture(sessionID, subjectID).
			WithMarkers(3.0, 18, 29.0).
			ExtractedAt(now.Add(-time.Minute)).
			Build()
		second := testsupport.NewMarkerFixture(sessionID, subjectID).
			WithMarkers(3.2, 21, 28.1).
			ExtractedAt(now).
			Build()

		require.NoError(t, repo.Store(ctx, []cardio.RecoveryMarkers{first}))
		require.NoError(t, repo.Store(ctx, []cardio.RecoveryMarkers{second}))

		// FINAL collapses the replaced row regardless of background merges
		result, err := repo.ListSince(ctx, now.Add(-time.Hour))
		require.NoError(t, err)

		var got *cardio.RecoveryMarkers
		for i := range result {
			if result[i].SessionID == sessionID {
				require.Nil(t, got, "replaced session should surface once")
				got = &result[i]
			}
		}
		require.NotNil(t, got)
		assert.Equal(t, 3.2, got.PeakVO2)
	})
}
