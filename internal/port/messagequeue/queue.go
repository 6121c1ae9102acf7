// Package messagequeue defines the outbound message queue port.
package messagequeue

import "context"

// Publisher fans dispatch results out to downstream consumers.
type Publisher interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close shuts down the underlying connection.
	Close() error
}
