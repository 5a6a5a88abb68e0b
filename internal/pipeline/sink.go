package pipeline

import (
	"context"
)

// Sink persists fixation events. Implementations are used from a single
// goroutine.
type Sink interface {
	Name() string
	Write(ctx context.Context, event FixationEvent) error
	Close() error
}
