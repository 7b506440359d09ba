package conversationcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	conversationcmder "github.com/papercomputeco/jobpilot/cmd/jobpilot/conversation"
	"github.com/papercomputeco/jobpilot/pkg/dotdir"
)

var _ = Describe("Conversation command", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	execute := func(args ...string) (string, error) {
		cmd := conversationcmder.NewConversationCmd()
		cmd.PersistentFlags().String("config-dir", "", "")
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetArgs(append(args, "--config-dir", tmpDir))
		err := cmd.Execute()
		return out.String(), err
	}

	It("has show and clear subcommands", func() {
		cmd := conversationcmder.NewConversationCmd()
		names := make([]string, 0, 2)
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ConsistOf("show", "clear"))
	})

	It("reports when there is no conversation", func() {
		out, err := execute("show")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No conversation yet"))
	})

	It("shows the stored conversation id", func() {
		Expect(dotdir.NewManager().SaveConversationID("conv-123", tmpDir)).To(Succeed())

		out, err := execute("show")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("conv-123"))
	})

	It("clears the stored conversation id", func() {
		Expect(dotdir.NewManager().SaveConversationID("conv-123", tmpDir)).To(Succeed())

		_, err := execute("clear")
		Expect(err).NotTo(HaveOccurred())

		id, err := dotdir.NewManager().LoadConversationID(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(BeEmpty())
	})
})
