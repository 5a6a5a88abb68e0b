package gaze

import (
	"encoding/json"
	"fmt"

	"github.com/sanspareilsmyn/fixationlens/internal/fixation"
)

// ParseDynamicJSON parses JSON data into a DynamicMessage map.
func ParseDynamicJSON(data []byte) (DynamicMessage, error) {
	var msg DynamicMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}
	return msg, nil
}

// ParseRecordJSON decodes a gaze message such as
//
//	{"stream":"s1","task":"large_grid","t":1200.5,"x":0.41,"y":0.52,"c":0.9,"calibration_error":0.8}
//
// The time key may also be spelled "timestamp" and the confidence key
// "confidence". Messages lacking t, x or y are rejected with ErrMissingField;
// a missing confidence is treated as 0.
func ParseRecordJSON(data []byte) (Record, error) {
	msg, err := ParseDynamicJSON(data)
	if err != nil {
		return Record{}, err
	}

	t, okT := msg.GetFloat64("t", "timestamp")
	x, okX := msg.GetFloat64("x")
	y, okY := msg.GetFloat64("y")
	if !okT || !okX || !okY {
		return Record{}, fmt.Errorf("%w: t=%s x=%s y=%s", ErrMissingField,
			msg.GetFieldSnippet("t", 20), msg.GetFieldSnippet("x", 20), msg.GetFieldSnippet("y", 20))
	}
	c, _ := msg.GetFloat64("c", "confidence")
	calib, _ := msg.GetFloat64("calibration_error")
	stream, _ := msg.GetString("stream")
	task, _ := msg.GetString("task")

	return Record{
		Stream:           StreamKey(stream, task),
		Task:             task,
		CalibrationError: calib,
		Sample:           fixation.Sample{T: t, X: x, Y: y, C: c},
	}, nil
}
