package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/raglinehq/ragline/pkg/chat"
	"github.com/raglinehq/ragline/pkg/conversation"
	"github.com/raglinehq/ragline/pkg/logger"
	testutils "github.com/raglinehq/ragline/pkg/utils/test"
)

var _ = Describe("Server", func() {
	var (
		server    *Server
		storer    *testutils.MockStoreDriver
		completer *testutils.MockCompleter
	)

	postJSON := func(path string, body any) *http.Response {
		payload, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())

		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, into any) {
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(raw, into)).To(Succeed())
	}

	BeforeEach(func() {
		storer = testutils.NewMockStoreDriver()
		completer = testutils.NewMockCompleter("the refund window is 30 days")

		orchestrator, err := chat.NewOrchestrator(
			storer,
			testutils.NewMockRetriever(),
			completer,
			testutils.NewMockPublisher(),
			logger.Nop(),
		)
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{ListenAddr: ":0"}, orchestrator, storer, nil, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("liveness", func() {
		It("answers on / and /health", func() {
			for _, path := range []string{"/", "/health"} {
				req := httptest.NewRequest(http.MethodGet, path, nil)
				resp, err := server.app.Test(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var body MessageResponse
				decode(resp, &body)
				Expect(body.Message).NotTo(BeEmpty())
			}
		})
	})

	Describe("POST /api/openai", func() {
		It("rejects requests without a user id", func() {
			resp := postJSON("/api/openai", ChatRequest{Prompt: "hello"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			var body map[string]string
			decode(resp, &body)
			Expect(body["detail"]).To(Equal("user_id is required"))
		})

		It("handles a chat turn and returns the effective conversation id", func() {
			resp := postJSON("/api/openai", ChatRequest{
				Prompt: "What is the refund policy?",
				UserID: "u1",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body ChatResponse
			decode(resp, &body)
			Expect(body.Response).To(Equal("the refund window is 30 days"))
			Expect(body.ConversationID).NotTo(BeEmpty())

			stored := storer.Conversations[body.ConversationID]
			Expect(stored).NotTo(BeNil())
			Expect(stored.Messages).To(HaveLen(2))
		})

		It("continues an existing conversation", func() {
			storer.Conversations["conv-1"] = &conversation.Conversation{
				ID:     "conv-1",
				UserID: "u1",
				Messages: []conversation.Message{
					{Role: conversation.RoleUser, Content: "What is the refund policy?"},
					{Role: conversation.RoleAssistant, Content: "30 days"},
				},
			}

			resp := postJSON("/api/openai", ChatRequest{
				Prompt:         "And for digital goods?",
				UserID:         "u1",
				ConversationID: "conv-1",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body ChatResponse
			decode(resp, &body)
			Expect(body.ConversationID).To(Equal("conv-1"))
			Expect(storer.Conversations["conv-1"].Messages).To(HaveLen(4))
		})

		It("maps persistence failures to 500 with the error detail", func() {
			storer.FailUpsert = true

			resp := postJSON("/api/openai", ChatRequest{Prompt: "hello", UserID: "u1"})
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))

			var body map[string]string
			decode(resp, &body)
			Expect(body["detail"]).To(ContainSubstring("saving conversation"))
		})
	})

	Describe("GET /api/conversations", func() {
		It("rejects requests without a user id", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("lists conversations for the user", func() {
			storer.Conversations["conv-1"] = &conversation.Conversation{ID: "conv-1", UserID: "u1"}
			storer.Conversations["conv-2"] = &conversation.Conversation{ID: "conv-2", UserID: "someone-else"}

			req := httptest.NewRequest(http.MethodGet, "/api/conversations?user_id=u1", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body ConversationsResponse
			decode(resp, &body)
			Expect(body.Conversations).To(HaveLen(1))
			Expect(body.Conversations[0].ID).To(Equal("conv-1"))
		})

		It("degrades to an empty list when the store fails", func() {
			storer.FailList = true

			req := httptest.NewRequest(http.MethodGet, "/api/conversations?user_id=u1", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body ConversationsResponse
			decode(resp, &body)
			Expect(body.Conversations).To(BeEmpty())
		})
	})
})
