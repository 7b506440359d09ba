package cliui

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/papercomputeco/jobpilot/pkg/assistant"
)

// statusOrder is the display order of application status buckets.
var statusOrder = []string{
	assistant.StatusOffer,
	assistant.StatusInterviewing,
	assistant.StatusApplied,
	assistant.StatusPending,
	assistant.StatusRejected,
}

// RenderToolResult writes a short human-readable summary of a tool result.
// Tools without a dedicated layout get their top-level keys listed.
func RenderToolResult(w io.Writer, name string, result map[string]any) {
	switch name {
	case assistant.ToolSearchJobs:
		renderJobs(w, result)
	case assistant.ToolTrackApplications:
		renderApplications(w, result)
	case assistant.ToolApplyToJob, assistant.ToolSaveJob:
		// Confirmation text arrives as a text delta.
		fmt.Fprintf(w, "  %s %s\n", SuccessMark, NameStyle.Render(name))
	default:
		renderGeneric(w, name, result)
	}
}

func renderJobs(w io.Writer, result map[string]any) {
	jobs, _ := result["jobs"].([]any)
	header := fmt.Sprintf("%d jobs", len(jobs))
	if q := stringField(result, "query"); q != "" {
		header += fmt.Sprintf(" for %q", q)
	}
	fmt.Fprintf(w, "\n  %s\n", HeaderStyle.Render(header))

	for _, entry := range jobs {
		job, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		line := NameStyle.Render(orDash(stringField(job, "title")))
		if company := stringField(job, "company"); company != "" {
			line += " " + DimStyle.Render("at") + " " + ValueStyle.Render(company)
		}

		var extras []string
		if loc := stringField(job, "location"); loc != "" {
			extras = append(extras, loc)
		}
		if remote, _ := job["remote"].(bool); remote {
			extras = append(extras, "remote")
		}
		if salary := stringField(job, "salary"); salary != "" {
			extras = append(extras, salary)
		}
		if len(extras) > 0 {
			line += " " + DimStyle.Render("("+strings.Join(extras, ", ")+")")
		}

		fmt.Fprintf(w, "  • %s\n", line)
		if url := stringField(job, "url"); url != "" {
			fmt.Fprintf(w, "    %s\n", DimStyle.Render(url))
		}
	}
	fmt.Fprintln(w)
}

func renderApplications(w io.Writer, result map[string]any) {
	apps, _ := result["applications"].([]any)

	counts := make(map[string]int)
	for _, entry := range apps {
		app, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		counts[stringField(app, "status")]++
	}

	fmt.Fprintf(w, "\n  %s\n", HeaderStyle.Render(fmt.Sprintf("%d applications", len(apps))))

	summary := make([]string, 0, len(statusOrder))
	for _, status := range statusOrder {
		if n := counts[status]; n > 0 {
			summary = append(summary, fmt.Sprintf("%s %d", KeyStyle.Render(status), n))
		}
	}
	if len(summary) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(summary, DimStyle.Render(" · ")))
	}

	for _, entry := range apps {
		app, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		fmt.Fprintf(w, "  %-13s %s %s\n",
			statusLabel(stringField(app, "status")),
			NameStyle.Render(orDash(stringField(app, "title"))),
			DimStyle.Render(stringField(app, "company")),
		)
	}
	fmt.Fprintln(w)
}

func renderGeneric(w io.Writer, name string, result map[string]any) {
	keys := slices.Sorted(maps.Keys(result))
	keys = slices.DeleteFunc(keys, func(k string) bool { return k == assistant.ToolNameField })

	fmt.Fprintf(w, "  %s %s", DimStyle.Render("●"), NameStyle.Render(name))
	if len(keys) > 0 {
		fmt.Fprintf(w, " %s", DimStyle.Render("("+strings.Join(keys, ", ")+")"))
	}
	fmt.Fprintln(w)
}

func statusLabel(status string) string {
	switch status {
	case assistant.StatusOffer, assistant.StatusApplied:
		return SuccessMark + " " + status
	case assistant.StatusRejected:
		return FailMark + " " + status
	case assistant.StatusInterviewing:
		return WarnStyle.Render("!") + " " + status
	default:
		return DimStyle.Render("●") + " " + status
	}
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
