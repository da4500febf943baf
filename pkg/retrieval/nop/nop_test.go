package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/raglinehq/ragline/pkg/retrieval/nop"
)

var _ = Describe("Retriever", func() {
	It("returns no results for any query", func() {
		retriever := nop.NewRetriever()
		results, err := retriever.Search(context.Background(), "anything", 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("closes cleanly", func() {
		Expect(nop.NewRetriever().Close()).To(Succeed())
	})
})
