package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/pkg/cliui"
)

var _ = Describe("Step", func() {
	It("returns the function's error and marks the line as failed", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")

		err := cliui.Step(&buf, "Embedding catalog", func() error { return boom })
		Expect(err).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring("Embedding catalog"))
		Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
	})

	It("marks successful steps", func() {
		var buf bytes.Buffer
		Expect(cliui.Step(&buf, "Writing side table", func() error { return nil })).To(Succeed())
		Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
	})
})

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds below a second", func() {
		Expect(cliui.FormatDuration(250 * time.Millisecond)).To(Equal("250ms"))
	})

	It("uses seconds with one decimal above a second", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("Truncate", func() {
	It("leaves short strings alone", func() {
		Expect(cliui.Truncate("Heat", 10)).To(Equal("Heat"))
	})

	It("cuts on rune boundaries", func() {
		Expect(cliui.Truncate("Amélie Poulain", 8)).To(Equal("Améli..."))
	})
})
