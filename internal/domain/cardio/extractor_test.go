package cardio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func sample(session string, elapsed, vo2, hr, ve float64) Sample {
	return Sample{
		SessionID:      session,
		SubjectID:      "P1",
		ElapsedSeconds: elapsed,
		VO2:            fptr(vo2),
		HeartRate:      fptr(hr),
		Ventilation:    fptr(ve),
	}
}

func rampSession(session string) []Sample {
	return []Sample{
		sample(session, 0, 1.0, 90, 30),
		sample(session, 30, 2.0, 120, 50),
		sample(session, 60, 3.5, 160, 80),
		sample(session, 90, 3.0, 150, 70),
		sample(session, 120, 2.0, 110, 55),
		sample(session, 150, 1.8, 100, 50),
	}
}

func TestExtract_RampSession(t *testing.T) {
	markers := NewExtractor().Extract(rampSession("S1"))
	require.Len(t, markers, 1)

	m := markers[0]
	assert.Equal(t, "S1", m.SessionID)
	assert.Equal(t, "P1", m.SubjectID)
	assert.Equal(t, 3.5, m.PeakVO2)
	// HR peaks at t=60 (160 bpm); first row at t >= 120 has 110 bpm
	assert.Equal(t, 50.0, m.HeartRateRecovery1Min)
	// Ventilation on the peak-VO2 row divided by peak VO2
	assert.InDelta(t, 80.0/3.5, m.VentilationToVO2, 1e-9)
}

func TestExtract_UnsortedInput(t *testing.T) {
	rows := rampSession("S1")
	// Reverse the rows; extraction sorts by elapsed time
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	markers := NewExtractor().Extract(rows)
	require.Len(t, markers, 1)
	assert.Equal(t, 50.0, markers[0].HeartRateRecovery1Min)
}

func TestExtract_HeartRateTieTakesFirstPeak(t *testing.T) {
	rows := []Sample{
		sample("S1", 0, 1.0, 100, 30),
		sample("S1", 50, 2.0, 150, 60),
		sample("S1", 70, 2.2, 150, 65),
		sample("S1", 110, 1.5, 100, 40),
	}

	markers := NewExtractor().Extract(rows)
	require.Len(t, markers, 1)
	// t_peak = 50 (first 150 bpm row); recovery row is t=110 with 100 bpm
	assert.Equal(t, 50.0, markers[0].HeartRateRecovery1Min)
}

func TestExtract_SkipsSessionWithoutRecoveryRow(t *testing.T) {
	rows := []Sample{
		sample("S1", 0, 1.0, 100, 30),
		sample("S1", 30, 2.0, 150, 60),
		sample("S1", 55, 1.8, 140, 55),
	}

	markers, skipped := NewExtractor().ExtractWithSkips(rows)
	assert.Empty(t, markers)
	require.Len(t, skipped, 1)
	assert.Equal(t, "S1", skipped[0].SessionID)
	assert.Equal(t, SkipNoRecoverySample, skipped[0].Reason)
}

func TestExtract_SkipsZeroPeakVO2(t *testing.T) {
	rows := []Sample{
		sample("S1", 0, 0, 100, 20),
		sample("S1", 10, 0, 140, 30),
		sample("S1", 80, 0, 120, 25),
	}

	markers, skipped := NewExtractor().ExtractWithSkips(rows)
	assert.Empty(t, markers)
	require.Len(t, skipped, 1)
	assert.Equal(t, SkipZeroPeakVO2, skipped[0].Reason)
}

func TestExtract_DropsIncompleteRows(t *testing.T) {
	rows := rampSession("S1")
	rows = append(rows,
		Sample{SessionID: "S1", SubjectID: "P1", ElapsedSeconds: 45, VO2: fptr(9.9), HeartRate: fptr(200)},
		Sample{SessionID: "S1", SubjectID: "P1", ElapsedSeconds: 75},
	)

	markers := NewExtractor().Extract(rows)
	require.Len(t, markers, 1)
	// The incomplete 200 bpm / 9.9 L/min row must not influence the peaks
	assert.Equal(t, 3.5, markers[0].PeakVO2)
	assert.Equal(t, 50.0, markers[0].HeartRateRecovery1Min)
}

func TestExtract_SessionWithOnlyIncompleteRows(t *testing.T) {
	rows := []Sample{
		{SessionID: "S1", ElapsedSeconds: 0, VO2: fptr(1)},
		{SessionID: "S1", ElapsedSeconds: 30, HeartRate: fptr(120)},
	}

	markers, skipped := NewExtractor().ExtractWithSkips(rows)
	assert.Empty(t, markers)
	require.Len(t, skipped, 1)
	assert.Equal(t, SkipNoCompleteRows, skipped[0].Reason)
}

func TestExtract_MalformedSessionDoesNotPoisonOthers(t *testing.T) {
	rows := rampSession("GOOD")
	rows = append(rows,
		sample("BAD", 0, 1.0, 100, 30),
		sample("BAD", 20, 2.0, 150, 50),
	)

	markers, skipped := NewExtractor().ExtractWithSkips(rows)
	require.Len(t, markers, 1)
	assert.Equal(t, "GOOD", markers[0].SessionID)
	require.Len(t, skipped, 1)
	assert.Equal(t, "BAD", skipped[0].SessionID)
}

func TestExtract_OutputBoundedByDistinctSessions(t *testing.T) {
	rows := append(rampSession("S1"), rampSession("S2")...)
	rows = append(rows, rampSession("S1")...) // duplicate session rows

	markers := NewExtractor().Extract(rows)
	assert.LessOrEqual(t, len(markers), 2)
}

func TestExtract_FirstAppearanceOrder(t *testing.T) {
	rows := append(rampSession("S2"), rampSession("S1")...)

	markers := NewExtractor().Extract(rows)
	require.Len(t, markers, 2)
	assert.Equal(t, "S2", markers[0].SessionID)
	assert.Equal(t, "S1", markers[1].SessionID)
}

func TestExtract_EmptyInput(t *testing.T) {
	markers, skipped := NewExtractor().ExtractWithSkips(nil)
	assert.Empty(t, markers)
	assert.Empty(t, skipped)
}

func TestMarkers_Features(t *testing.T) {
	m := RecoveryMarkers{PeakVO2: 3.2, HeartRateRecovery1Min: 28, VentilationToVO2: 24.5}
	vec := m.Features()
	assert.Equal(t, 3.2, vec["VO2_max"])
	assert.Equal(t, 28.0, vec["HR_recovery_1min"])
	assert.Equal(t, 24.5, vec["VE_VO2_ratio"])
}
