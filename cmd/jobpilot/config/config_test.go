package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/jobpilot/cmd/jobpilot/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		subcommands := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".jobpilot"), 0o755)).To(Succeed())
	})

	execute := func(args ...string) (string, error) {
		cmd := configcmder.NewConfigCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .jobpilot/ config directory")
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(args, "--config-dir", filepath.Join(tmpDir, ".jobpilot")))
		err := cmd.Execute()
		return out.String(), err
	}

	Describe("set subcommand", func() {
		It("writes the config file", func() {
			out, err := execute("set", "client.api_target", "https://assistant.example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("client.api_target"))

			_, err = os.Stat(filepath.Join(tmpDir, ".jobpilot", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects unknown keys", func() {
			_, err := execute("set", "proxy.provider", "anthropic")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			_, err := execute("set", "client.api_target")
			Expect(err).To(HaveOccurred())
		})

		It("rejects invalid uint values", func() {
			_, err := execute("set", "replay.delay_ms", "not-a-number")
			Expect(err).To(HaveOccurred())
		})

		It("rejects invalid durations", func() {
			_, err := execute("set", "client.timeout", "forever")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			_, err := execute("set", "eventstream.topic", "jobpilot.sessions")
			Expect(err).NotTo(HaveOccurred())

			out, err := execute("get", "eventstream.topic")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("jobpilot.sessions"))
		})

		It("rejects unknown keys", func() {
			_, err := execute("get", "invalid_key")
			Expect(err).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			_, err := execute("get")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			out, err := execute("list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("client.api_target"))
			Expect(out).To(ContainSubstring("replay.delay_ms"))
		})

		It("shows set values", func() {
			_, err := execute("set", "client.chat_path", "/v2/chat")
			Expect(err).NotTo(HaveOccurred())

			out, err := execute("list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring(`"/v2/chat"`))
		})

		It("rejects any arguments", func() {
			_, err := execute("list", "extra")
			Expect(err).To(HaveOccurred())
		})
	})
})
