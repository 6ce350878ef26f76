package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asclepius/internal/domain/cardio"
	"asclepius/internal/testsupport"
)

func TestSampleRepository_InsertAndGetSamples(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := testsupport.LoadDatabaseConfigsFromEnv(t)
	helper := testsupport.NewClickHouseTestHelper(t, cfg.ClickHouse)

	repo := NewSampleRepository(helper.Client().Conn())
	ctx := context.Background()

	t.Run("InsertSamples_Success", func(t *testing.T) {
		sessionID := testsupport.UniqueSessionID()
		subjectID := testsupport.UniqueSubjectID()
		helper.RegisterSessionCleanup(t, sessionID)

		samples := testsupport.RampSession(sessionID, subjectID)

		err := repo.InsertSamples(ctx, samples)
		require.NoError(t, err)

		var count uint64
		err = helper.Client().Conn().QueryRow(ctx,
			"SELECT count() FROM treadmill_samples WHERE session_id = $1", sessionID).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, uint64(len(samples)), count)
	})

	t.Run("InsertSamples_EmptySlice", func(t *testing.T) {
		err := repo.InsertSamples(ctx, []cardio.Sample{})
		require.NoError(t, err)
	})

	t.Run("GetSessionSamples_OrderedByElapsedTime", func(t *testing.T) {
		sessionID := testsupport.UniqueSessionID()
		subjectID := testsupport.UniqueSubjectID()
		helper.RegisterSessionCleanup(t, sessionID)

		// Insert out of order; reads must come back sorted
		samples := []cardio.Sample{
			testsupport.NewSampleFixture(sessionID, subjectID).At(120).WithReadings(2.4, 146, 55).Build(),
			testsupport.NewSampleFixture(sessionID, subjectID).At(0).WithReadings(0.9, 88, 24).Build(),
			testsupport.NewSampleFixture(sessionID, subjectID).At(60).WithReadings(1.6, 118, 38).Build(),
		}

		err := repo.InsertSamples(ctx, samples)
		require.NoError(t, err)

		result, err := repo.GetSessionSamples(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, result, 3)

		assert.Equal(t, []float64{0, 60, 120}, []float64{
			result[0].ElapsedSeconds, result[1].ElapsedSeconds, result[2].ElapsedSeconds,
		})
		assert.Equal(t, subjectID, result[0].SubjectID)
		require.NotNil(t, result[1].VO2)
		assert.Equal(t, 1.6, *result[1].VO2)
	})

	t.Run("GetSessionSamples_PreservesMissingChannels", func(t *testing.T) {
		sessionID := testsupport.UniqueSessionID()
		subjectID := testsupport.UniqueSubjectID()
		helper.RegisterSessionCleanup(t, sessionID)

		samples := []cardio.Sample{
			testsupport.NewSampleFixture(sessionID, subjectID).At(0).Build(),
			testsupport.NewSampleFixture(sessionID, subjectID).At(30).Incomplete().Build(),
		}

		err := repo.InsertSamples(ctx, samples)
		require.NoError(t, err)

		result, err := repo.GetSessionSamples(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, result, 2)

		assert.NotNil(t, result[0].VO2)
		assert.Nil(t, result[1].VO2, "dropped channel should round-trip as missing")
		assert.NotNil(t, result[1].HeartRate)
	})

	t.Run("GetSessionSamples_UnknownSession", func(t *testing.T) {
		result, err := repo.GetSessionSamples(ctx, "session_does_not_exist")
		require.NoError(t, err)
		assert.Empty(t, result)
	})
}

func TestSampleRepository_ListSessionIDs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := testsupport.LoadDatabaseConfigsFromEnv(t)
	helper := testsupport.NewClickHouseTestHelper(t, cfg.ClickHouse)

	repo := NewSampleRepository(helper.Client().Conn())
	ctx := context.Background()

	sessionA := testsupport.UniqueSessionID()
	sessionB := testsupport.UniqueSessionID()
	subjectID := testsupport.UniqueSubjectID()
	helper.RegisterSessionCleanup(t, sessionA)
	helper.RegisterSessionCleanup(t, sessionB)

	for _, sessionID := range []string{sessionA, sessionB} {
		err := repo.InsertSamples(ctx, []cardio.Sample{
			testsupport.NewSampleFixture(sessionID, subjectID).Build(),
			testsupport.NewSampleFixture(sessionID, subjectID).At(30).Build(),
		})
		require.NoError(t, err)
	}

	ids, err := repo.ListSessionIDs(ctx)
	require.NoError(t, err)

	assert.Contains(t, ids, sessionA)
	assert.Contains(t, ids, sessionB)

	// DISTINCT: two rows per session must not produce duplicate IDs
	occurrences := 0
	for _, id := range ids {
		if id == sessionA {
			occurrences++
		}
	}
	assert.Equal(t, 1, occurrences)
}
