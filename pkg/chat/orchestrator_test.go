package chat_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/raglinehq/ragline/pkg/chat"
	"github.com/raglinehq/ragline/pkg/conversation"
	"github.com/raglinehq/ragline/pkg/logger"
	"github.com/raglinehq/ragline/pkg/retrieval"
	testutils "github.com/raglinehq/ragline/pkg/utils/test"
)

var _ = Describe("Orchestrator", func() {
	var (
		storer       *testutils.MockStoreDriver
		retriever    *testutils.MockRetriever
		completer    *testutils.MockCompleter
		publisher    *testutils.MockPublisher
		orchestrator *chat.Orchestrator
		ctx          context.Context
	)

	BeforeEach(func() {
		storer = testutils.NewMockStoreDriver()
		retriever = testutils.NewMockRetriever()
		completer = testutils.NewMockCompleter("the refund window is 30 days")
		publisher = testutils.NewMockPublisher()
		ctx = context.Background()

		var err error
		orchestrator, err = chat.NewOrchestrator(storer, retriever, completer, publisher, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects requests without a user id", func() {
		_, err := orchestrator.HandleChat(ctx, "hello", "", "")
		Expect(err).To(MatchError(chat.ErrMissingUserID))
		Expect(storer.Upserted).To(BeEmpty())
	})

	Describe("retrieval depth", func() {
		It("retrieves the default number of chunks", func() {
			_, err := orchestrator.HandleChat(ctx, "hello", "u1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(retriever.TopKs).To(Equal([]int{retrieval.DefaultTopK}))
		})

		It("honors an overridden chunk count", func() {
			orchestrator.SetTopK(7)
			_, err := orchestrator.HandleChat(ctx, "hello", "u1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(retriever.TopKs).To(Equal([]int{7}))
		})

		It("ignores non-positive overrides", func() {
			orchestrator.SetTopK(0)
			_, err := orchestrator.HandleChat(ctx, "hello", "u1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(retriever.TopKs).To(Equal([]int{retrieval.DefaultTopK}))
		})
	})

	Describe("starting a new conversation", func() {
		It("mints an id and persists exactly one turn", func() {
			result, err := orchestrator.HandleChat(ctx, "What is the refund policy?", "u1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Response).To(Equal("the refund window is 30 days"))
			Expect(result.ConversationID).NotTo(BeEmpty())

			stored, err := storer.Get(ctx, result.ConversationID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.UserID).To(Equal("u1"))
			Expect(stored.Messages).To(HaveLen(2))
			Expect(stored.Messages[0].Role).To(Equal(conversation.RoleUser))
			Expect(stored.Messages[0].Content).To(Equal("What is the refund policy?"))
			Expect(stored.Messages[1].Role).To(Equal(conversation.RoleAssistant))
			Expect(stored.Messages[1].Content).To(Equal("the refund window is 30 days"))
			Expect(stored.Messages[0].Timestamp).To(Equal(stored.Messages[1].Timestamp))
		})

		It("keeps a requested id that does not exist yet", func() {
			result, err := orchestrator.HandleChat(ctx, "hello", "u1", "client-chosen-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ConversationID).To(Equal("client-chosen-id"))

			stored, err := storer.Get(ctx, "client-chosen-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Messages).To(HaveLen(2))
		})
	})

	Describe("continuing an owned conversation", func() {
		BeforeEach(func() {
			storer.Conversations["conv-1"] = &conversation.Conversation{
				ID:     "conv-1",
				UserID: "u1",
				Messages: []conversation.Message{
					{Role: conversation.RoleUser, Content: "What is the refund policy?", Timestamp: "2026-01-01T00:00:00Z"},
					{Role: conversation.RoleAssistant, Content: "30 days", Timestamp: "2026-01-01T00:00:00Z"},
				},
			}
		})

		It("appends one turn and leaves prior messages unchanged", func() {
			result, err := orchestrator.HandleChat(ctx, "And for digital goods?", "u1", "conv-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ConversationID).To(Equal("conv-1"))

			stored := storer.Conversations["conv-1"]
			Expect(stored.Messages).To(HaveLen(4))
			Expect(stored.Messages[0].Content).To(Equal("What is the refund policy?"))
			Expect(stored.Messages[1].Content).To(Equal("30 days"))
			Expect(stored.Messages[2].Role).To(Equal(conversation.RoleUser))
			Expect(stored.Messages[3].Role).To(Equal(conversation.RoleAssistant))
		})

		It("replays prior history to the completer after the system message", func() {
			_, err := orchestrator.HandleChat(ctx, "And for digital goods?", "u1", "conv-1")
			Expect(err).NotTo(HaveOccurred())

			Expect(completer.Calls).To(HaveLen(1))
			messages := completer.Calls[0]
			Expect(messages).To(HaveLen(4))
			Expect(messages[0].Role).To(Equal(conversation.RoleSystem))
			Expect(messages[1].Content).To(Equal("What is the refund policy?"))
			Expect(messages[2].Content).To(Equal("30 days"))
			Expect(messages[3].Role).To(Equal(conversation.RoleUser))
			Expect(messages[3].Content).To(Equal("And for digital goods?"))
		})
	})

	Describe("ownership mismatch", func() {
		BeforeEach(func() {
			storer.Conversations["conv-other"] = &conversation.Conversation{
				ID:     "conv-other",
				UserID: "someone-else",
				Messages: []conversation.Message{
					{Role: conversation.RoleUser, Content: "private", Timestamp: "2026-01-01T00:00:00Z"},
				},
			}
		})

		It("forks under a fresh id without touching the original", func() {
			result, err := orchestrator.HandleChat(ctx, "hello", "u1", "conv-other")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ConversationID).NotTo(Equal("conv-other"))

			forked := storer.Conversations[result.ConversationID]
			Expect(forked.UserID).To(Equal("u1"))
			Expect(forked.Messages).To(HaveLen(2))

			original := storer.Conversations["conv-other"]
			Expect(original.UserID).To(Equal("someone-else"))
			Expect(original.Messages).To(HaveLen(1))
		})
	})

	Describe("degraded dependencies", func() {
		It("continues with empty history when loading fails", func() {
			storer.FailGet = true

			result, err := orchestrator.HandleChat(ctx, "hello", "u1", "conv-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ConversationID).To(Equal("conv-1"))
			Expect(completer.Calls[0]).To(HaveLen(2))
		})

		It("continues without context when retrieval fails", func() {
			retriever.FailSearch = true

			result, err := orchestrator.HandleChat(ctx, "hello", "u1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Response).To(Equal("the refund window is 30 days"))
			Expect(result.ContextDegraded).To(BeTrue())
		})
	})

	Describe("context assembly", func() {
		It("joins retrieved chunks with a blank line in the system message", func() {
			retriever.Results = []retrieval.SearchResult{
				{Title: "Refunds", Chunk: "Refunds are honored for 30 days.", ParentID: "doc-1"},
				{Title: "Digital", Chunk: "Digital goods are final sale.", ParentID: "doc-2"},
			}

			_, err := orchestrator.HandleChat(ctx, "refund policy?", "u1", "")
			Expect(err).NotTo(HaveOccurred())

			system := completer.Calls[0][0]
			Expect(system.Role).To(Equal(conversation.RoleSystem))
			Expect(system.Content).To(ContainSubstring("Refunds are honored for 30 days.\n\nDigital goods are final sale."))
		})

		It("never persists the system message", func() {
			retriever.Results = []retrieval.SearchResult{
				{Title: "Refunds", Chunk: "Refunds are honored for 30 days.", ParentID: "doc-1"},
			}

			result, err := orchestrator.HandleChat(ctx, "refund policy?", "u1", "")
			Expect(err).NotTo(HaveOccurred())

			stored := storer.Conversations[result.ConversationID]
			for _, msg := range stored.Messages {
				Expect(msg.Role).NotTo(Equal(conversation.RoleSystem))
			}
		})
	})

	Describe("persistence failures", func() {
		It("propagates upsert errors", func() {
			storer.FailUpsert = true

			_, err := orchestrator.HandleChat(ctx, "hello", "u1", "")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("saving conversation"))
		})
	})

	Describe("turn events", func() {
		It("publishes one event per persisted turn", func() {
			result, err := orchestrator.HandleChat(ctx, "hello", "u1", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(publisher.Events).To(HaveLen(1))
			event := publisher.Events[0]
			Expect(event.UserID).To(Equal("u1"))
			Expect(event.ConversationID).To(Equal(result.ConversationID))
			Expect(event.MessageCount).To(Equal(2))
			Expect(event.EventID).NotTo(BeEmpty())
		})

		It("does not fail the request when publishing fails", func() {
			publisher.FailPublish = true

			result, err := orchestrator.HandleChat(ctx, "hello", "u1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Response).NotTo(BeEmpty())
		})
	})
})
