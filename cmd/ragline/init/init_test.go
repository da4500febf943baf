package initcmder_test

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/raglinehq/ragline/cmd/ragline/init"
	"github.com/raglinehq/ragline/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("accepts zero arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "ragline-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	It("creates a .ragline directory in the current directory", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{})
		err := cmd.Execute()
		Expect(err).NotTo(HaveOccurred())

		info, err := os.Stat(filepath.Join(tmpDir, ".ragline"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("succeeds when the directory already exists", func() {
		first := initcmder.NewInitCmd()
		first.SetArgs([]string{})
		Expect(first.Execute()).To(Succeed())

		second := initcmder.NewInitCmd()
		second.SetArgs([]string{})
		Expect(second.Execute()).To(Succeed())
	})

	It("does not write a config.toml without a preset", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).To(Succeed())

		_, err := os.Stat(filepath.Join(tmpDir, ".ragline", "config.toml"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("writes a preset config.toml with --preset local", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"--preset", "local"})
		Expect(cmd.Execute()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(tmpDir, ".ragline", "config.toml"))
		Expect(err).NotTo(HaveOccurred())

		var cfg config.Config
		err = toml.Unmarshal(data, &cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Store.Provider).To(Equal("sqlite"))
		Expect(cfg.Search.Provider).To(Equal("qdrant"))
	})

	It("writes a preset into an already-initialized directory", func() {
		plain := initcmder.NewInitCmd()
		plain.SetArgs([]string{})
		Expect(plain.Execute()).To(Succeed())

		withPreset := initcmder.NewInitCmd()
		withPreset.SetArgs([]string{"--preset", "memory"})
		Expect(withPreset.Execute()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(tmpDir, ".ragline", "config.toml"))
		Expect(err).NotTo(HaveOccurred())

		var cfg config.Config
		Expect(toml.Unmarshal(data, &cfg)).To(Succeed())
		Expect(cfg.Store.Provider).To(Equal("inmemory"))
	})

	It("rejects an unknown preset", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"--preset", "nonsense"})
		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unknown preset"))
	})
})
