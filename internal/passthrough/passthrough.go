// Package passthrough copies asset directories from the input root to the
// output filesystem without transformation.
package passthrough

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// Result reports the outcome of one rule.
type Result struct {
	Rule    config.PassthroughRule
	Files   int
	Bytes   int64
	Missing bool  // source directory does not exist
	Err     error // IOError with path context; nil on success
}

// Copier executes passthrough rules. Rules are independent: a failing rule
// never affects files written by another.
type Copier struct {
	inputRoot string
	dst       billy.Filesystem
	workers   int
}

// Option configures a Copier.
type Option func(*Copier)

// WithWorkers bounds the number of rules copied concurrently.
func WithWorkers(n int) Option {
	return func(c *Copier) {
		if n > 0 {
			c.workers = n
		}
	}
}

// NewCopier returns a Copier reading below inputRoot and writing into dst.
// Rules are copied concurrently, so dst must be safe for concurrent use
// (osfs is; memfs is not).
func NewCopier(inputRoot string, dst billy.Filesystem, opts ...Option) *Copier {
	c := &Copier{inputRoot: inputRoot, dst: dst, workers: 4}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Copy runs every rule and returns one Result per rule in rule order. The
// returned error is non-nil only when ctx ends before all rules ran.
func (c *Copier) Copy(ctx context.Context, rules []config.PassthroughRule) ([]Result, error) {
	results := make([]Result, len(rules))
	g := new(errgroup.Group)
	g.SetLimit(c.workers)
	for i, rule := range rules {
		g.Go(func() error {
			results[i] = c.copyRule(ctx, rule)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (c *Copier) copyRule(ctx context.Context, rule config.PassthroughRule) Result {
	res := Result{Rule: rule}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	src := filepath.Join(c.inputRoot, filepath.FromSlash(rule.From))
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			res.Missing = true
			slog.Warn("Passthrough source missing", logfields.Rule(rule.From), logfields.Path(src))
			return res
		}
		res.Err = errors.WrapError(err, errors.CategoryIO, "failed to stat passthrough source").
			WithContext("rule", rule.From).WithContext("path", src).Build()
		return res
	}
	if !info.IsDir() {
		// A single file rule copies the file itself.
		n, err := c.copyFile(src, rule.To)
		if err != nil {
			res.Err = err
			return res
		}
		res.Files, res.Bytes = 1, n
		return res
	}

	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return errors.WrapError(walkErr, errors.CategoryIO, "failed to read passthrough source").
				WithContext("rule", rule.From).WithContext("path", p).Build()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		n, err := c.copyFile(p, path.Join(rule.To, filepath.ToSlash(rel)))
		if err != nil {
			return err
		}
		res.Files++
		res.Bytes += n
		return nil
	})
	if err != nil {
		res.Err = err
		slog.Error("Passthrough rule failed", logfields.Rule(rule.From), logfields.Error(err))
		return res
	}
	slog.Debug("Passthrough rule copied", logfields.Rule(rule.From), logfields.Count(res.Files))
	return res
}

func (c *Copier) copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryIO, "failed to open passthrough file").
			WithContext("path", src).Build()
	}
	defer in.Close()

	if dir := path.Dir(dst); dir != "." {
		if err := c.dst.MkdirAll(dir, 0o755); err != nil {
			return 0, errors.WrapError(err, errors.CategoryIO, "failed to create passthrough directory").
				WithContext("output", dir).Build()
		}
	}
	out, err := c.dst.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryIO, "failed to create passthrough file").
			WithContext("output", dst).Build()
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, errors.WrapError(err, errors.CategoryIO, "failed to copy passthrough file").
			WithContext("path", src).WithContext("output", dst).Build()
	}
	return n, nil
}
