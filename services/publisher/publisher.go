package publisher

import "context"

// Publisher fans newly discovered codes out to downstream consumers
type Publisher interface {
	// Publish appends message under field to one of the streams
	Publish(ctx context.Context, field string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
