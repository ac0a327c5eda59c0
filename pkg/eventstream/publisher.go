// Package eventstream publishes index lifecycle events to an event stream backend.
package eventstream

import "context"

// Publisher publishes index events to an event stream backend.
type Publisher interface {
	PublishIndexRebuilt(ctx context.Context, event *IndexRebuiltEvent) error
	Close() error
}
