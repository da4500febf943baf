package azure_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/raglinehq/ragline/pkg/embeddings/azure"
)

var _ = Describe("Embedder", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("requires an endpoint and deployment", func() {
		_, err := azure.NewEmbedder(azure.EmbedderConfig{Deployment: "ada"})
		Expect(err).To(HaveOccurred())

		_, err = azure.NewEmbedder(azure.EmbedderConfig{Endpoint: "http://x"})
		Expect(err).To(HaveOccurred())
	})

	It("posts to the deployment path with the api-key header", func() {
		var gotPath, gotKey, gotInput string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path + "?" + r.URL.RawQuery
			gotKey = r.Header.Get("api-key")

			var body struct {
				Input string `json:"input"`
			}
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			gotInput = body.Input

			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"embedding": []float32{0.1, 0.2, 0.3}},
				},
			})
		}))
		defer server.Close()

		embedder, err := azure.NewEmbedder(azure.EmbedderConfig{
			Endpoint:   server.URL,
			APIKey:     "secret",
			Deployment: "text-embedding-ada-002",
			APIVersion: "2024-02-01",
		})
		Expect(err).NotTo(HaveOccurred())

		vec, err := embedder.Embed(ctx, "refund policy")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{0.1, 0.2, 0.3}))

		Expect(gotPath).To(Equal("/openai/deployments/text-embedding-ada-002/embeddings?api-version=2024-02-01"))
		Expect(gotKey).To(Equal("secret"))
		Expect(gotInput).To(Equal("refund policy"))
	})

	It("returns an error on provider failure", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "throttled", http.StatusTooManyRequests)
		}))
		defer server.Close()

		embedder, err := azure.NewEmbedder(azure.EmbedderConfig{
			Endpoint:   server.URL,
			Deployment: "ada",
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = embedder.Embed(ctx, "text")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("429"))
	})

	It("returns an error when no embeddings come back", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		}))
		defer server.Close()

		embedder, err := azure.NewEmbedder(azure.EmbedderConfig{
			Endpoint:   server.URL,
			Deployment: "ada",
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = embedder.Embed(ctx, "text")
		Expect(err).To(MatchError("no embeddings returned"))
	})
})
