package chatcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/raglinehq/ragline/cmd/ragline/chat"
)

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has --api-target flag with the standard default", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("api-target")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("t"))
		Expect(flag.DefValue).To(Equal("http://localhost:8000"))
	})

	It("has --user-id flag with a shorthand", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("user-id")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("u"))
	})

	It("has a --new flag defaulting to false", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("new")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("false"))
	})
})
