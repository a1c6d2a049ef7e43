package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

// Outcome is the final build result state.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeWarning Outcome = "warning"
	OutcomeFailed  Outcome = "failed"
)

// IssueCode enumerates machine-parseable issue identifiers.
// These codes are a stable contract and should only be appended.
type IssueCode string

const (
	IssueConfig             IssueCode = "CONFIG"
	IssueDocumentParse      IssueCode = "DOCUMENT_PARSE"
	IssueLayoutNotFound     IssueCode = "LAYOUT_NOT_FOUND"
	IssueLayoutCycle        IssueCode = "LAYOUT_CYCLE"
	IssueOutputCollision    IssueCode = "OUTPUT_COLLISION"
	IssueInvalidPermalink   IssueCode = "INVALID_PERMALINK"
	IssueRender             IssueCode = "RENDER_FAILURE"
	IssueIO                 IssueCode = "IO_FAILURE"
	IssuePassthroughMissing IssueCode = "PASSTHROUGH_MISSING"
	IssueUnknownCollection  IssueCode = "UNKNOWN_COLLECTION"
	IssueCanceled           IssueCode = "BUILD_CANCELED"
	IssueGeneric            IssueCode = "GENERIC_STAGE_ERROR"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a structured entry describing a discrete problem encountered.
type Issue struct {
	Code     IssueCode     `json:"code"`
	Stage    StageName     `json:"stage"`
	Severity IssueSeverity `json:"severity"`
	Path     string        `json:"path,omitempty"`
	Message  string        `json:"message"`
}

// ManifestEntry records one written document.
type ManifestEntry struct {
	Source      string `json:"source"`
	Output      string `json:"output"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Report captures the result of a build. It is safe for concurrent use while
// the build runs and must be treated as read-only once Build returns.
type Report struct {
	SchemaVersion  int
	BuildID        string
	Start          time.Time
	End            time.Time
	Outcome        Outcome
	Documents      int // discovered
	Rendered       int
	Skipped        int
	FilesWritten   int
	BytesWritten   int64
	AssetsCopied   int
	BytesCopied    int64
	Feeds          int
	StageDurations map[StageName]time.Duration
	Issues         []Issue
	Errors         []error
	Warnings       []error
	Manifest       []ManifestEntry

	mu sync.Mutex
}

func newReport() *Report {
	return &Report{
		SchemaVersion:  1,
		BuildID:        uuid.NewString(),
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
	}
}

// AddIssue records err under stage. The issue code, path and severity are
// derived from the error classification.
func (r *Report) AddIssue(stage StageName, err error) {
	issue := issueFor(stage, err)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityWarning {
		r.Warnings = append(r.Warnings, err)
	} else {
		r.Errors = append(r.Errors, err)
	}
}

func (r *Report) recordStage(stage StageName, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StageDurations[stage] = d
}

func (r *Report) update(fn func(r *Report)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r)
}

// issueCount returns the number of issues recorded for stage.
func (r *Report) issueCount(stage StageName) (errs, warns int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, is := range r.Issues {
		if is.Stage != stage {
			continue
		}
		if is.Severity == SeverityWarning {
			warns++
		} else {
			errs++
		}
	}
	return errs, warns
}

func (r *Report) finish(fatal error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.End = time.Now()
	slices.SortStableFunc(r.Manifest, func(a, b ManifestEntry) int { return strings.Compare(a.Source, b.Source) })
	switch {
	case fatal != nil:
		r.Outcome = OutcomeFailed
	case len(r.Errors) > 0 || len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Duration returns the wall time of the build.
func (r *Report) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("documents=%d rendered=%d skipped=%d files=%d written=%s assets=%d copied=%s feeds=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Documents, r.Rendered, r.Skipped, r.FilesWritten, humanize.Bytes(uint64(max(r.BytesWritten, 0))),
		r.AssetsCopied, humanize.Bytes(uint64(max(r.BytesCopied, 0))), r.Feeds,
		r.Duration().Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

// Persist writes the report as JSON to path atomically. Best effort; errors
// are returned for caller logging but do not change the build outcome.
func (r *Report) Persist(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapError(err, errors.CategoryIO, "failed to create report directory").
				WithContext("path", dir).Build()
		}
	}
	jb, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal report").Build()
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(jb, '\n'), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to write report").
			WithContext("path", tmp).Build()
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to rename report").
			WithContext("path", path).Build()
	}
	return nil
}

// ReportSerializable mirrors Report with string errors for JSON output.
type ReportSerializable struct {
	SchemaVersion  int              `json:"schema_version"`
	BuildID        string           `json:"build_id"`
	Start          time.Time        `json:"start"`
	End            time.Time        `json:"end"`
	DurationMS     int64            `json:"duration_ms"`
	Outcome        Outcome          `json:"outcome"`
	Summary        string           `json:"summary"`
	Documents      int              `json:"documents"`
	Rendered       int              `json:"rendered"`
	Skipped        int              `json:"skipped"`
	FilesWritten   int              `json:"files_written"`
	BytesWritten   int64            `json:"bytes_written"`
	AssetsCopied   int              `json:"assets_copied"`
	BytesCopied    int64            `json:"bytes_copied"`
	Feeds          int              `json:"feeds"`
	StageDurations map[string]int64 `json:"stage_durations_ms"`
	Issues         []Issue          `json:"issues"`
	Errors         []string         `json:"errors"`
	Warnings       []string         `json:"warnings"`
	Manifest       []ManifestEntry  `json:"manifest"`
}

func (r *Report) serializable() *ReportSerializable {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &ReportSerializable{
		SchemaVersion:  r.SchemaVersion,
		BuildID:        r.BuildID,
		Start:          r.Start,
		End:            r.End,
		DurationMS:     r.End.Sub(r.Start).Milliseconds(),
		Outcome:        r.Outcome,
		Documents:      r.Documents,
		Rendered:       r.Rendered,
		Skipped:        r.Skipped,
		FilesWritten:   r.FilesWritten,
		BytesWritten:   r.BytesWritten,
		AssetsCopied:   r.AssetsCopied,
		BytesCopied:    r.BytesCopied,
		Feeds:          r.Feeds,
		StageDurations: make(map[string]int64, len(r.StageDurations)),
		Issues:         slices.Clone(r.Issues),
		Errors:         make([]string, len(r.Errors)),
		Warnings:       make([]string, len(r.Warnings)),
		Manifest:       slices.Clone(r.Manifest),
	}
	for k, v := range r.StageDurations {
		s.StageDurations[string(k)] = v.Milliseconds()
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	if s.Issues == nil {
		s.Issues = []Issue{}
	}
	if s.Manifest == nil {
		s.Manifest = []ManifestEntry{}
	}
	s.Summary = r.Summary()
	return s
}

func issueFor(stage StageName, err error) Issue {
	issue := Issue{Code: IssueGeneric, Stage: stage, Severity: SeverityError, Message: err.Error()}
	ce, ok := errors.AsClassified(err)
	if !ok {
		return issue
	}
	if p, ok := ce.Context().GetString("path"); ok {
		issue.Path = p
	}
	if ce.Severity() == errors.SeverityWarning || ce.Severity() == errors.SeverityInfo {
		issue.Severity = SeverityWarning
	}
	switch ce.Category() {
	case errors.CategoryConfig:
		issue.Code = IssueConfig
	case errors.CategoryDocumentParse:
		issue.Code = IssueDocumentParse
	case errors.CategoryLayoutNotFound:
		issue.Code = IssueLayoutNotFound
	case errors.CategoryLayoutCycle:
		issue.Code = IssueLayoutCycle
	case errors.CategoryOutputCollision:
		issue.Code = IssueOutputCollision
	case errors.CategoryValidation:
		issue.Code = IssueInvalidPermalink
		if _, ok := ce.Context().GetString("collection"); ok {
			issue.Code = IssueUnknownCollection
		}
	case errors.CategoryRender:
		issue.Code = IssueRender
	case errors.CategoryIO:
		issue.Code = IssueIO
	case errors.CategoryNotFound:
		issue.Code = IssuePassthroughMissing
	case errors.CategoryRuntime:
		issue.Code = IssueCanceled
	}
	return issue
}
