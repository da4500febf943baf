package conversation_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/raglinehq/ragline/pkg/conversation"
)

var _ = Describe("Conversation", func() {
	Describe("AppendTurn", func() {
		It("appends a user message then an assistant message", func() {
			conv := &conversation.Conversation{ID: "c1", UserID: "u1"}
			at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

			conv.AppendTurn("hello", "hi there", at)

			Expect(conv.Messages).To(HaveLen(2))
			Expect(conv.Messages[0].Role).To(Equal(conversation.RoleUser))
			Expect(conv.Messages[0].Content).To(Equal("hello"))
			Expect(conv.Messages[1].Role).To(Equal(conversation.RoleAssistant))
			Expect(conv.Messages[1].Content).To(Equal("hi there"))
		})

		It("stamps both messages with the same UTC RFC3339 timestamp", func() {
			conv := &conversation.Conversation{ID: "c1", UserID: "u1"}
			at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

			conv.AppendTurn("q", "a", at)

			Expect(conv.Messages[0].Timestamp).To(Equal("2025-06-01T12:00:00Z"))
			Expect(conv.Messages[1].Timestamp).To(Equal(conv.Messages[0].Timestamp))
		})

		It("preserves prior messages in order", func() {
			conv := &conversation.Conversation{ID: "c1", UserID: "u1"}
			now := time.Now()
			conv.AppendTurn("first", "first reply", now)
			conv.AppendTurn("second", "second reply", now)

			Expect(conv.Messages).To(HaveLen(4))
			Expect(conv.Messages[0].Content).To(Equal("first"))
			Expect(conv.Messages[2].Content).To(Equal("second"))
		})
	})

	Describe("History", func() {
		It("excludes system messages", func() {
			conv := &conversation.Conversation{
				ID:     "c1",
				UserID: "u1",
				Messages: []conversation.Message{
					{Role: conversation.RoleSystem, Content: "instructions"},
					{Role: conversation.RoleUser, Content: "question"},
					{Role: conversation.RoleAssistant, Content: "answer"},
				},
			}

			history := conv.History()
			Expect(history).To(HaveLen(2))
			Expect(history[0].Role).To(Equal(conversation.RoleUser))
			Expect(history[1].Role).To(Equal(conversation.RoleAssistant))
		})

		It("returns an empty slice for an empty conversation", func() {
			conv := &conversation.Conversation{ID: "c1", UserID: "u1"}
			Expect(conv.History()).To(BeEmpty())
		})
	})
})
