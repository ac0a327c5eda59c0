package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeIndexRebuilt is emitted after the movie index is rebuilt or reset.
	EventTypeIndexRebuilt = "marquee.index.rebuilt"
)

// Rebuild reasons.
const (
	ReasonBuild = "build"
	ReasonReset = "reset"
)

// IndexRebuiltEvent is a transport-neutral event payload describing a
// completed index rebuild.
type IndexRebuiltEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	BuildID       string    `json:"build_id"`
	Reason        string    `json:"reason"`
	Count         int       `json:"count"`
	Dimensions    int       `json:"dimensions"`
	DurationMs    int64     `json:"duration_ms"`
}

// NewIndexRebuiltEvent stamps a new event id and emission time.
func NewIndexRebuiltEvent(buildID, reason string, count, dimensions int, took time.Duration) *IndexRebuiltEvent {
	return &IndexRebuiltEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeIndexRebuilt,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		BuildID:       buildID,
		Reason:        reason,
		Count:         count,
		Dimensions:    dimensions,
		DurationMs:    took.Milliseconds(),
	}
}
