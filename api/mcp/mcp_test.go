package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/raglinehq/ragline/api/mcp"
	raglinelogger "github.com/raglinehq/ragline/pkg/logger"
	testutils "github.com/raglinehq/ragline/pkg/utils/test"
)

var _ = Describe("MCP Server", func() {
	var (
		server    *mcp.Server
		retriever *testutils.MockRetriever
	)

	BeforeEach(func() {
		logger := raglinelogger.Nop()
		retriever = testutils.NewMockRetriever()

		var err error
		server, err = mcp.NewServer(mcp.Config{
			Retriever: retriever,
			Logger:    logger,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when retriever is nil", func() {
			logger := raglinelogger.Nop()
			_, err := mcp.NewServer(mcp.Config{
				Logger: logger,
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("retriever is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Retriever: retriever,
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates a server with valid config", func() {
			Expect(server).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			handler := server.Handler()
			Expect(handler).NotTo(BeNil())
		})

		It("creates a noop server without a retriever", func() {
			noop, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(noop).NotTo(BeNil())
		})
	})
})
