package output

import (
	"context"
	"path"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

// Writer persists files below the root of a billy filesystem.
type Writer struct {
	fs      billy.Filesystem
	files   atomic.Int64
	written atomic.Int64
}

// NewWriter returns a Writer over fs.
func NewWriter(fs billy.Filesystem) *Writer {
	return &Writer{fs: fs}
}

// WriteFile writes data to the slash-separated path p, creating parent
// directories. It is safe for concurrent use with distinct paths.
func (w *Writer) WriteFile(p string, data []byte) error {
	if dir := path.Dir(p); dir != "." {
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapError(err, errors.CategoryIO, "failed to create output directory").
				WithContext("output", p).Build()
		}
	}
	if err := util.WriteFile(w.fs, p, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to write output file").
			WithContext("output", p).Build()
	}
	w.files.Add(1)
	w.written.Add(int64(len(data)))
	return nil
}

// Write persists the final page of every entry, stopping at the first error
// or when ctx is done.
func (w *Writer) Write(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.WriteFile(e.OutputPath, []byte(e.Doc.Page)); err != nil {
			return err
		}
	}
	return nil
}

// Files returns the number of files written.
func (w *Writer) Files() int64 { return w.files.Load() }

// Bytes returns the number of bytes written.
func (w *Writer) Bytes() int64 { return w.written.Load() }
