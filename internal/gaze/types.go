package gaze

import (
	"fmt"

	"github.com/sanspareilsmyn/fixationlens/internal/fixation"
)

// DefaultStream is the stream key used when a record names neither a stream
// nor a task.
const DefaultStream = "default"

// Record is one gaze sample together with the stream it belongs to.
type Record struct {
	Stream string
	Task   string
	// CalibrationError is the per-record calibration error, 0 when absent.
	CalibrationError float64
	Sample           fixation.Sample
}

// DynamicMessage represents a message with arbitrary key-value pairs,
// typically parsed from JSON.
type DynamicMessage map[string]interface{}

// GetFloat64 retrieves a float64 value for the first key present.
// Integer types are converted; anything else reports false.
func (dm DynamicMessage) GetFloat64(keys ...string) (float64, bool) {
	for _, key := range keys {
		val, exists := dm[key]
		if !exists || val == nil {
			continue
		}
		switch v := val.(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
		return 0, false
	}
	return 0, false
}

// GetString retrieves a string value for the first key present. Numbers are
// formatted so numeric stream ids work.
func (dm DynamicMessage) GetString(keys ...string) (string, bool) {
	for _, key := range keys {
		val, exists := dm[key]
		if !exists || val == nil {
			continue
		}
		switch v := val.(type) {
		case string:
			return v, true
		case float64, int, int64:
			return fmt.Sprintf("%v", v), true
		}
		return "", false
	}
	return "", false
}

// GetFieldSnippet returns a string snippet of a field's value, useful for logging.
func (dm DynamicMessage) GetFieldSnippet(fieldName string, maxLength int) string {
	value, exists := dm[fieldName]
	if !exists {
		return "<missing>"
	}
	strValue := fmt.Sprintf("%v", value)
	if maxLength <= 0 {
		return "..."
	}
	if len(strValue) > maxLength {
		return strValue[:maxLength] + "..."
	}
	return strValue
}

// StreamKey picks the stream identifier: the explicit stream, else the task,
// else DefaultStream.
func StreamKey(stream, task string) string {
	switch {
	case stream != "":
		return stream
	case task != "":
		return task
	default:
		return DefaultStream
	}
}
