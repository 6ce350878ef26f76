package cardio

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asclepius/pkg/errors"
)

const treadmillLog = `Session_ID,Patient_ID,Time_s,VO2,HR,VE
S1,P1,0,1.2,95,32
S1,P1,30,2.4,130,55
S1,P1,90,1.8,105,44
`

func TestLoadSamples_ParsesLog(t *testing.T) {
	recordedAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	samples, err := LoadSamples(strings.NewReader(treadmillLog), recordedAt)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	first := samples[0]
	assert.Equal(t, "S1", first.SessionID)
	assert.Equal(t, "P1", first.SubjectID)
	assert.Equal(t, 0.0, first.ElapsedSeconds)
	require.NotNil(t, first.VO2)
	assert.Equal(t, 1.2, *first.VO2)
	require.NotNil(t, first.HeartRate)
	assert.Equal(t, 95.0, *first.HeartRate)
	require.NotNil(t, first.Ventilation)
	assert.Equal(t, 32.0, *first.Ventilation)
	assert.Equal(t, recordedAt, first.RecordedAt)

	assert.Equal(t, 130.0, *samples[1].HeartRate)
	assert.Equal(t, 90.0, samples[2].ElapsedSeconds)
}

func TestLoadSamples_DroppedChannelBecomesNil(t *testing.T) {
	// The VO2 cell is blank on one row and an error marker on another; the
	// rows themselves survive with a missing channel.
	log := `Session_ID,Patient_ID,Time_s,VO2,HR,VE
S1,P1,0,,95,32
S1,P1,30,ERR,130,55
S1,P1,60,2.1,140,60
`

	samples, err := LoadSamples(strings.NewReader(log), time.Now())
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Nil(t, samples[0].VO2)
	assert.NotNil(t, samples[0].HeartRate)
	assert.Nil(t, samples[1].VO2)
	require.NotNil(t, samples[2].VO2)
	assert.Equal(t, 2.1, *samples[2].VO2)
}

func TestLoadSamples_DropsUnattributableRows(t *testing.T) {
	log := `Session_ID,Patient_ID,Time_s,VO2,HR,VE
,P1,0,1.2,95,32
S1,P1,bad,1.4,100,35
S1,P1,30,1.6,110,40
`

	samples, err := LoadSamples(strings.NewReader(log), time.Now())
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 30.0, samples[0].ElapsedSeconds)
}

func TestLoadSamples_MissingSessionColumn(t *testing.T) {
	log := `Patient_ID,Time_s,VO2,HR,VE
P1,0,1.2,95,32
`

	_, err := LoadSamples(strings.NewReader(log), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Session_ID")
}

func TestLoadSamples_MissingReadingColumnsYieldNilChannels(t *testing.T) {
	// A log exported without a ventilation column still loads; the channel is
	// simply absent and the extractor drops those rows later.
	log := `Session_ID,Patient_ID,Time_s,VO2,HR
S1,P1,0,1.2,95
`

	samples, err := LoadSamples(strings.NewReader(log), time.Now())
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Nil(t, samples[0].Ventilation)
	assert.False(t, samples[0].Complete())
}

func TestLoadSamples_FeedsExtractor(t *testing.T) {
	log := `Session_ID,Patient_ID,Time_s,VO2,HR,VE
S1,P1,0,1.0,90,30
S1,P1,30,2.0,120,50
S1,P1,60,3.5,160,80
S1,P1,120,2.0,110,55
`

	samples, err := LoadSamples(strings.NewReader(log), time.Now())
	require.NoError(t, err)

	markers := NewExtractor().Extract(samples)
	require.Len(t, markers, 1)
	assert.Equal(t, 3.5, markers[0].PeakVO2)
	assert.Equal(t, 50.0, markers[0].HeartRateRecovery1Min)
}
