package pipeline

import "errors"

var (
	ErrInvalidKafkaConfig     = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed       = errors.New("failed to fetch message from Kafka")
	ErrKafkaCommitFailed      = errors.New("failed to commit Kafka message")
	ErrSourceCreationFailed   = errors.New("failed to create source")
	ErrSourceRunFailed        = errors.New("source component failed")
	ErrSinkCreationFailed     = errors.New("failed to create sink")
	ErrSinkWriteFailed        = errors.New("failed to write fixation to sink")
	ErrRecorderRunFailed      = errors.New("recorder component failed")
	ErrDetectorCreationFailed = errors.New("failed to create fixation detector")
	ErrMetricsServerFailed    = errors.New("metrics server failed")
)
