package qdrant

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseTarget", func() {
	DescribeTable("valid targets",
		func(target, wantHost string, wantPort int) {
			host, port, err := parseTarget(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(host).To(Equal(wantHost))
			Expect(port).To(Equal(wantPort))
		},
		Entry("host and port", "qdrant.internal:7000", "qdrant.internal", 7000),
		Entry("host only", "qdrant.internal", "qdrant.internal", 6334),
		Entry("port only", ":6335", "localhost", 6335),
	)

	DescribeTable("invalid targets",
		func(target string) {
			_, _, err := parseTarget(target)
			Expect(err).To(HaveOccurred())
		},
		Entry("empty", ""),
		Entry("non-numeric port", "localhost:grpc"),
		Entry("port out of range", "localhost:70000"),
	)
})
