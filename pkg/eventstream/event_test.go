package eventstream_test

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals IndexRebuiltEvent with expected top-level keys", func() {
		event := eventstream.NewIndexRebuiltEvent("build-1", eventstream.ReasonBuild, 42, 384, 1500*time.Millisecond)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		for _, key := range []string{
			"schema_version", "event_type", "event_id", "emitted_at",
			"build_id", "reason", "count", "dimensions", "duration_ms",
		} {
			Expect(got).To(HaveKey(key))
		}
		Expect(got["duration_ms"]).To(BeNumerically("==", 1500))
	})

	It("stamps a fresh uuid per event", func() {
		a := eventstream.NewIndexRebuiltEvent("b", eventstream.ReasonReset, 0, 384, 0)
		b := eventstream.NewIndexRebuiltEvent("b", eventstream.ReasonReset, 0, 384, 0)

		_, err := uuid.Parse(a.EventID)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(a.EmittedAt.Location()).To(Equal(time.UTC))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeIndexRebuilt).To(Equal("marquee.index.rebuilt"))
	})

	It("provides ErrNilEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilEvent).To(MatchError("nil event"))
	})
})
