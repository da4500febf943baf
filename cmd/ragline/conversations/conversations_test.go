package conversationscmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	conversationscmder "github.com/raglinehq/ragline/cmd/ragline/conversations"
)

var _ = Describe("NewConversationsCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := conversationscmder.NewConversationsCmd()
		Expect(cmd.Use).To(Equal("conversations"))
	})

	It("has --api-target flag with the standard default", func() {
		cmd := conversationscmder.NewConversationsCmd()
		flag := cmd.Flags().Lookup("api-target")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("http://localhost:8000"))
	})

	It("has --user-id flag with a shorthand", func() {
		cmd := conversationscmder.NewConversationsCmd()
		flag := cmd.Flags().Lookup("user-id")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("u"))
	})
})
