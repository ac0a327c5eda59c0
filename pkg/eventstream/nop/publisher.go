// Package nop provides the disabled-mode eventstream publisher.
package nop

import (
	"context"

	"github.com/papercomputeco/marquee/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishIndexRebuilt validates input and otherwise does nothing.
func (p *Publisher) PublishIndexRebuilt(_ context.Context, event *eventstream.IndexRebuiltEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
