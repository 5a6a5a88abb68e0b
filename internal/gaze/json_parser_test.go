package gaze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/fixationlens/internal/fixation"
)

func TestParseRecordJSON(t *testing.T) {
	rec, err := ParseRecordJSON([]byte(`{"stream":"s1","task":"large_grid","t":1200.5,"x":0.41,"y":0.52,"c":0.9,"calibration_error":0.8}`))
	require.NoError(t, err)
	assert.Equal(t, Record{
		Stream:           "s1",
		Task:             "large_grid",
		CalibrationError: 0.8,
		Sample:           fixation.Sample{T: 1200.5, X: 0.41, Y: 0.52, C: 0.9},
	}, rec)
}

func TestParseRecordJSON_AlternateKeys(t *testing.T) {
	rec, err := ParseRecordJSON([]byte(`{"stream":17,"timestamp":5,"x":1,"y":2,"confidence":0.5}`))
	require.NoError(t, err)
	assert.Equal(t, "17", rec.Stream)
	assert.Equal(t, fixation.Sample{T: 5, X: 1, Y: 2, C: 0.5}, rec.Sample)
	assert.Zero(t, rec.CalibrationError)
}

func TestParseRecordJSON_TaskAsStream(t *testing.T) {
	rec, err := ParseRecordJSON([]byte(`{"task":"free_view","t":1,"x":1,"y":2}`))
	require.NoError(t, err)
	assert.Equal(t, "free_view", rec.Stream)
}

func TestParseRecordJSON_Errors(t *testing.T) {
	_, err := ParseRecordJSON([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrJSONUnmarshalFailed)

	_, err = ParseRecordJSON([]byte(`{"t":1,"x":"left","y":2}`))
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = ParseRecordJSON([]byte(`{"t":1,"x":null,"y":2}`))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestGetFieldSnippet(t *testing.T) {
	msg := DynamicMessage{"x": "abcdefghij"}
	assert.Equal(t, "abcde...", msg.GetFieldSnippet("x", 5))
	assert.Equal(t, "<missing>", msg.GetFieldSnippet("y", 5))
	assert.Equal(t, "...", msg.GetFieldSnippet("x", 0))
}
