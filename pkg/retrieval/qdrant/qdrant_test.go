package qdrant_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/raglinehq/ragline/pkg/logger"
	"github.com/raglinehq/ragline/pkg/retrieval/qdrant"
	testutils "github.com/raglinehq/ragline/pkg/utils/test"
)

var _ = Describe("NewRetriever", func() {
	var embedder *testutils.MockEmbedder

	BeforeEach(func() {
		embedder = &testutils.MockEmbedder{}
	})

	It("creates a retriever with a valid config", func() {
		retriever, err := qdrant.NewRetriever(qdrant.Config{
			Host:       "localhost",
			Collection: "documents",
		}, embedder, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(retriever).NotTo(BeNil())
		Expect(retriever.Close()).To(Succeed())
	})

	It("rejects an empty host", func() {
		_, err := qdrant.NewRetriever(qdrant.Config{
			Collection: "documents",
		}, embedder, logger.Nop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("host"))
	})

	It("rejects an empty collection name", func() {
		_, err := qdrant.NewRetriever(qdrant.Config{
			Host: "localhost",
		}, embedder, logger.Nop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("collection"))
	})

	It("rejects a nil embedder", func() {
		_, err := qdrant.NewRetriever(qdrant.Config{
			Host:       "localhost",
			Collection: "documents",
		}, nil, logger.Nop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("embedder"))
	})
})
