package azsearch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/raglinehq/ragline/pkg/logger"
	"github.com/raglinehq/ragline/pkg/retrieval/azsearch"
	testutils "github.com/raglinehq/ragline/pkg/utils/test"
)

var _ = Describe("Retriever", func() {
	var (
		embedder *testutils.MockEmbedder
		ctx      context.Context
	)

	BeforeEach(func() {
		embedder = testutils.NewMockEmbedder()
		ctx = context.Background()
	})

	It("requires an endpoint, index, and embedder", func() {
		_, err := azsearch.NewRetriever(azsearch.Config{Index: "docs"}, embedder, logger.Nop())
		Expect(err).To(HaveOccurred())

		_, err = azsearch.NewRetriever(azsearch.Config{Endpoint: "http://x"}, embedder, logger.Nop())
		Expect(err).To(HaveOccurred())

		_, err = azsearch.NewRetriever(azsearch.Config{Endpoint: "http://x", Index: "docs"}, nil, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("issues a vector-only query with the fixed projection", func() {
		var gotPath string
		var gotReq map[string]any

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path + "?" + r.URL.RawQuery
			Expect(json.NewDecoder(r.Body).Decode(&gotReq)).To(Succeed())

			_ = json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{
					{"title": "Refunds", "chunk": "Refunds are honored for 30 days.", "parent_id": "doc-1"},
					{"title": "Digital", "chunk": "Digital goods are final sale.", "parent_id": "doc-2"},
				},
			})
		}))
		defer server.Close()

		retriever, err := azsearch.NewRetriever(azsearch.Config{
			Endpoint:    server.URL,
			APIKey:      "secret",
			Index:       "kb",
			VectorField: "content_vector",
		}, embedder, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		results, err := retriever.Search(ctx, "refund policy", 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].Title).To(Equal("Refunds"))
		Expect(results[0].Chunk).To(Equal("Refunds are honored for 30 days."))
		Expect(results[0].ParentID).To(Equal("doc-1"))

		Expect(gotPath).To(Equal("/indexes/kb/docs/search?api-version=2023-11-01"))
		Expect(gotReq["select"]).To(Equal("title,chunk,parent_id"))

		vectorQueries := gotReq["vectorQueries"].([]any)
		Expect(vectorQueries).To(HaveLen(1))
		vq := vectorQueries[0].(map[string]any)
		Expect(vq["kind"]).To(Equal("vector"))
		Expect(vq["fields"]).To(Equal("content_vector"))
		Expect(vq["k"]).To(BeNumerically("==", 2))
	})

	It("defaults topK to 3", func() {
		var gotReq map[string]any

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(json.NewDecoder(r.Body).Decode(&gotReq)).To(Succeed())
			_, _ = w.Write([]byte(`{"value":[]}`))
		}))
		defer server.Close()

		retriever, err := azsearch.NewRetriever(azsearch.Config{
			Endpoint: server.URL,
			Index:    "kb",
		}, embedder, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		results, err := retriever.Search(ctx, "anything", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
		Expect(gotReq["top"]).To(BeNumerically("==", 3))
	})

	It("propagates embedding failures", func() {
		embedder.FailOn = "bad query"

		retriever, err := azsearch.NewRetriever(azsearch.Config{
			Endpoint: "http://127.0.0.1:0",
			Index:    "kb",
		}, embedder, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = retriever.Search(ctx, "bad query", 3)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("embedding query"))
	})

	It("propagates search service failures", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "index offline", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		retriever, err := azsearch.NewRetriever(azsearch.Config{
			Endpoint: server.URL,
			Index:    "kb",
		}, embedder, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = retriever.Search(ctx, "anything", 3)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("503"))
	})
})
