package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/jobpilot/pkg/assistant"
	"github.com/papercomputeco/jobpilot/pkg/cliui"
)

var _ = Describe("Step", func() {
	It("returns the step error and marks the line", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")

		err := cliui.Step(&buf, "polling", func() error { return boom })
		Expect(err).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring("polling"))
		Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
	})

	It("marks success", func() {
		var buf bytes.Buffer
		Expect(cliui.Step(&buf, "ok", func() error { return nil })).To(Succeed())
		Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
	})
})

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds below one second", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("uses seconds with one decimal above", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("RenderMarkdown", func() {
	It("keeps the text content", func() {
		out, err := cliui.RenderMarkdown("# Offers\n\nYou have **two** offers.", 60)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Offers"))
		Expect(out).To(ContainSubstring("two"))
	})
})

var _ = Describe("RenderToolResult", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("lists search results", func() {
		cliui.RenderToolResult(buf, assistant.ToolSearchJobs, map[string]any{
			"query": "golang",
			"jobs": []any{
				map[string]any{"title": "Go Engineer", "company": "Acme", "location": "Berlin", "remote": true, "url": "https://acme.example/jobs/1"},
				"not a job",
			},
		})

		out := buf.String()
		Expect(out).To(ContainSubstring(`2 jobs for "golang"`))
		Expect(out).To(ContainSubstring("Go Engineer"))
		Expect(out).To(ContainSubstring("Acme"))
		Expect(out).To(ContainSubstring("Berlin, remote"))
		Expect(out).To(ContainSubstring("https://acme.example/jobs/1"))
	})

	It("summarizes applications by status bucket", func() {
		cliui.RenderToolResult(buf, assistant.ToolTrackApplications, map[string]any{
			"applications": []any{
				map[string]any{"title": "SRE", "company": "Initech", "status": assistant.StatusRejected},
				map[string]any{"title": "Go Dev", "company": "Acme", "status": assistant.StatusOffer},
				map[string]any{"title": "Platform", "company": "Globex", "status": assistant.StatusOffer},
			},
		})

		out := buf.String()
		Expect(out).To(ContainSubstring("3 applications"))
		Expect(out).To(ContainSubstring("offer 2"))
		Expect(out).To(ContainSubstring("rejected 1"))
		Expect(out).To(ContainSubstring("Initech"))
	})

	It("lists the keys of unknown tools", func() {
		cliui.RenderToolResult(buf, "upload_resume", map[string]any{"fileId": "f1", "tool": "upload_resume"})
		Expect(buf.String()).To(ContainSubstring("upload_resume (fileId)"))
	})
})
