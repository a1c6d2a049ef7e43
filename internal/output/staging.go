package output

import (
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// rename is swapped in tests to simulate a failed promotion.
var rename = os.Rename

// Stage is a sibling directory of the output root that receives all writes of
// a build. Promote swaps it into place; Abort discards it, leaving the
// previous output untouched.
type Stage struct {
	output string
	dir    string
	fs     billy.Filesystem
}

// NewStage creates a fresh <output>_stage directory.
func NewStage(output string) (*Stage, error) {
	dir := output + "_stage"
	if err := os.RemoveAll(dir); err != nil {
		return nil, errors.WrapError(err, errors.CategoryIO, "failed to clear staging directory").
			WithContext("path", dir).Fatal().Build()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapError(err, errors.CategoryIO, "failed to create staging directory").
			WithContext("path", dir).Fatal().Build()
	}
	slog.Debug("Initialized staging directory", logfields.Path(dir), logfields.Output(output))
	return &Stage{output: output, dir: dir, fs: osfs.New(dir)}, nil
}

// Dir returns the staging directory path.
func (s *Stage) Dir() string { return s.dir }

// FS returns the staging filesystem.
func (s *Stage) FS() billy.Filesystem { return s.fs }

// Promote replaces the output root with the staging directory. The previous
// output is moved to <output>.prev first and removed afterwards.
func (s *Stage) Promote() error {
	if s.dir == "" {
		return errors.InternalError("no staging directory initialized").Build()
	}
	if _, err := os.Stat(s.dir); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "staging directory missing").
			WithContext("path", s.dir).Fatal().Build()
	}

	prev := s.output + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	backedUp := false
	if _, err := os.Stat(s.output); err == nil {
		if err := rename(s.output, prev); err != nil {
			return errors.WrapError(err, errors.CategoryIO, "failed to back up existing output").
				WithContext("path", s.output).Fatal().Build()
		}
		backedUp = true
	}
	if err := rename(s.dir, s.output); err != nil {
		if backedUp {
			if rerr := rename(prev, s.output); rerr != nil {
				slog.Error("Failed to restore previous output", logfields.Path(prev), logfields.Error(rerr))
			}
		}
		return errors.WrapError(err, errors.CategoryIO, "failed to promote staging directory").
			WithContext("path", s.output).Fatal().Build()
	}
	s.dir = ""
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Info("Promoted staging directory", logfields.Output(s.output))
	return nil
}

// Abort removes the staging directory. It is safe to call after Promote.
func (s *Stage) Abort() {
	if s.dir == "" {
		return
	}
	dir := s.dir
	s.dir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", logfields.Path(dir), logfields.Error(err))
		return
	}
	slog.Debug("Removed staging directory after abort", logfields.Path(dir))
}
