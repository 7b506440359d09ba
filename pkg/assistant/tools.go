package assistant

import (
	"fmt"
	"maps"
	"strings"
)

// Tool names with a registered normalizer.
const (
	ToolSearchJobs        = "search_jobs"
	ToolTrackApplications = "track_applications"
	ToolApplyToJob        = "apply_to_job"
	ToolSaveJob           = "save_job"
)

// ToolNameField is the key injected into every tool result with the tool's
// name.
const ToolNameField = "tool"

// Application status buckets shown to the user.
const (
	StatusApplied      = "applied"
	StatusInterviewing = "interviewing"
	StatusOffer        = "offer"
	StatusRejected     = "rejected"
	StatusPending      = "pending"
)

// applicationStatuses maps raw backend statuses to the status buckets.
// Lookups are case-insensitive. Anything missing lands in StatusPending.
var applicationStatuses = map[string]string{
	"APPLIED":   StatusApplied,
	"SUBMITTED": StatusApplied,
	"SENT":      StatusApplied,
	"COMPLETED": StatusApplied,
	"SUCCESS":   StatusApplied,

	"QUEUED":      StatusPending,
	"PENDING":     StatusPending,
	"PROCESSING":  StatusPending,
	"IN_PROGRESS": StatusPending,
	"DRAFT":       StatusPending,

	"INTERVIEW":           StatusInterviewing,
	"INTERVIEWING":        StatusInterviewing,
	"INTERVIEW_SCHEDULED": StatusInterviewing,
	"SCREENING":           StatusInterviewing,
	"PHONE_SCREEN":        StatusInterviewing,
	"ASSESSMENT":          StatusInterviewing,

	"OFFER":    StatusOffer,
	"OFFERED":  StatusOffer,
	"ACCEPTED": StatusOffer,
	"HIRED":    StatusOffer,

	"REJECTED":  StatusRejected,
	"FAILED":    StatusRejected,
	"DECLINED":  StatusRejected,
	"ERROR":     StatusRejected,
	"WITHDRAWN": StatusRejected,
	"EXPIRED":   StatusRejected,
	"CLOSED":    StatusRejected,
}

// MapApplicationStatus returns the bucket for a raw application status.
func MapApplicationStatus(raw string) string {
	if bucket, ok := applicationStatuses[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return bucket
	}
	return StatusPending
}

// jobFields is the fixed projection of a search result. Each output key is
// filled from the first source key present in the raw job.
var jobFields = []struct {
	key     string
	sources []string
}{
	{key: "id", sources: []string{"id", "job_id", "jobId"}},
	{key: "title", sources: []string{"title", "job_title"}},
	{key: "company", sources: []string{"company", "company_name", "companyName"}},
	{key: "location", sources: []string{"location"}},
	{key: "salary", sources: []string{"salary", "salary_range", "salaryRange"}},
	{key: "url", sources: []string{"url", "job_url", "applyUrl"}},
	{key: "postedAt", sources: []string{"postedAt", "posted_at", "datePosted"}},
	{key: "remote", sources: []string{"remote", "is_remote", "isRemote"}},
}

// ToolSpec declares how a tool's result is shaped before it reaches the
// caller.
type ToolSpec struct {
	// Normalize returns the caller-facing result. It receives a fresh map it
	// may modify. Nil means the result is forwarded as is.
	Normalize func(result map[string]any) map[string]any

	// Confirm returns human-readable confirmation text for the normalized
	// result. The text is sent as a text delta next to the tool result.
	Confirm func(result map[string]any) (string, bool)
}

// ToolRegistry maps tool names to their specs. Register every tool before
// the registry is shared with a Dispatcher.
type ToolRegistry struct {
	specs map[string]ToolSpec
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{specs: make(map[string]ToolSpec)}
}

// Register adds or replaces the spec for name.
func (r *ToolRegistry) Register(name string, spec ToolSpec) {
	r.specs[name] = spec
}

// Lookup returns the spec registered for name.
func (r *ToolRegistry) Lookup(name string) (ToolSpec, bool) {
	if r == nil {
		return ToolSpec{}, false
	}
	spec, ok := r.specs[name]
	return spec, ok
}

// DefaultToolRegistry returns a registry with the job-search tools.
func DefaultToolRegistry() *ToolRegistry {
	r := NewToolRegistry()

	r.Register(ToolSearchJobs, ToolSpec{Normalize: normalizeSearchJobs})
	r.Register(ToolTrackApplications, ToolSpec{Normalize: normalizeTrackApplications})
	r.Register(ToolApplyToJob, ToolSpec{Confirm: confirmApplyToJob})
	r.Register(ToolSaveJob, ToolSpec{Confirm: confirmSaveJob})

	return r
}

// normalizeSearchJobs projects every entry of "jobs" onto jobFields. Entries
// that are not objects are dropped.
func normalizeSearchJobs(result map[string]any) map[string]any {
	raw, ok := result["jobs"].([]any)
	if !ok {
		return result
	}

	jobs := make([]any, 0, len(raw))
	for _, entry := range raw {
		job, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		projected := make(map[string]any, len(jobFields))
		for _, f := range jobFields {
			projected[f.key] = firstPresent(job, f.sources)
		}
		jobs = append(jobs, projected)
	}

	result["jobs"] = jobs
	return result
}

// normalizeTrackApplications maps the status of every entry of
// "applications" to a status bucket and keeps the raw value in "rawStatus".
func normalizeTrackApplications(result map[string]any) map[string]any {
	raw, ok := result["applications"].([]any)
	if !ok {
		return result
	}

	apps := make([]any, 0, len(raw))
	for _, entry := range raw {
		app, ok := entry.(map[string]any)
		if !ok {
			apps = append(apps, entry)
			continue
		}

		mapped := maps.Clone(app)
		status, _ := app["status"].(string)
		mapped["rawStatus"] = status
		mapped["status"] = MapApplicationStatus(status)
		apps = append(apps, mapped)
	}

	result["applications"] = apps
	return result
}

func confirmApplyToJob(result map[string]any) (string, bool) {
	title := stringField(result, "title")
	company := stringField(result, "company")

	switch {
	case title != "" && company != "":
		return fmt.Sprintf("Applied to %s at %s.", title, company), true
	case title != "":
		return fmt.Sprintf("Applied to %s.", title), true
	}

	if msg := stringField(result, "message"); msg != "" {
		return msg, true
	}
	return "", false
}

func confirmSaveJob(result map[string]any) (string, bool) {
	if title := stringField(result, "title"); title != "" {
		return fmt.Sprintf("Saved %s to your job list.", title), true
	}

	if msg := stringField(result, "message"); msg != "" {
		return msg, true
	}
	return "", false
}

func firstPresent(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}
