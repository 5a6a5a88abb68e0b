package gaze

import "errors"

var (
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal gaze JSON")
	ErrMissingField        = errors.New("gaze message is missing a numeric field")
	ErrMissingColumn       = errors.New("required column not found in CSV header")
	ErrEmptyCSV            = errors.New("csv input has no header row")
	ErrCSVReadFailed       = errors.New("failed to read csv row")
)
