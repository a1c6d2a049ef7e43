package output

import (
	"slices"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

// Entry is one document scheduled for writing.
type Entry struct {
	Doc        *content.Document
	OutputPath string // slash-separated, relative to the output root
}

// Plan is the complete, collision-free set of output paths for a build.
type Plan struct {
	Entries []Entry
	// Skipped holds per-document errors for documents left out of the plan.
	Skipped []error

	owners map[string]string
}

// Owner returns the source that claimed an output path.
func (p *Plan) Owner(outputPath string) (string, bool) {
	o, ok := p.owners[outputPath]
	return o, ok
}

// Planner assigns output paths.
type Planner struct {
	pattern  string
	reserved map[string]string
}

// NewPlanner returns a planner using the default permalink pattern.
func NewPlanner(pattern string) *Planner {
	return &Planner{pattern: pattern, reserved: map[string]string{}}
}

// Reserve claims an output path for a non-document producer such as a feed
// or a passthrough file. Claiming a path twice is an output collision.
func (p *Planner) Reserve(outputPath, owner string) error {
	if prev, taken := p.reserved[outputPath]; taken && prev != owner {
		return collision(outputPath, prev, owner)
	}
	p.reserved[outputPath] = owner
	return nil
}

func collision(out, a, b string) error {
	sources := []string{a, b}
	slices.Sort(sources)
	return errors.OutputCollision("two sources resolve to the same output path").
		WithContext("output", out).
		WithContext("sources", sources).
		Build()
}

// Plan computes the URL and output path of every document and verifies that
// no two producers share an output path. It runs before anything is written;
// a collision is fatal and names both sources. Documents marked permalink:
// false get no URL and are not part of the plan.
func (p *Planner) Plan(docs []*content.Document) (*Plan, error) {
	plan := &Plan{owners: make(map[string]string, len(docs)+len(p.reserved))}
	for path, owner := range p.reserved {
		plan.owners[path] = owner
	}

	for _, doc := range docs {
		if doc.NoOutput {
			doc.URL = ""
			doc.OutputPath = ""
			continue
		}
		url, err := Permalink(p.pattern, doc)
		if err != nil {
			plan.Skipped = append(plan.Skipped, errors.ValidationError("invalid permalink").
				WithSeverity(errors.SeverityError).
				WithContext("path", doc.SourcePath).
				WithCause(err).
				Build())
			continue
		}
		out := FilePath(url)

		if prev, taken := plan.owners[out]; taken {
			return nil, collision(out, prev, doc.SourcePath)
		}
		plan.owners[out] = doc.SourcePath
		doc.URL = url
		doc.OutputPath = out
		plan.Entries = append(plan.Entries, Entry{Doc: doc, OutputPath: out})
	}
	return plan, nil
}
