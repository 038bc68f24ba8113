package pipeline

import (
	"log/slog"

	"roamexport/internal/export"
	"roamexport/internal/fsys"
)

// Option is a functional option for configuring a run.
type Option func(*runner)

// WithFS sets the file system used for patching and existence checks.
func WithFS(fs fsys.FS) Option {
	return func(r *runner) {
		r.fs = fs
	}
}

// WithConverter sets the converter used by the export pass.
func WithConverter(c export.Converter) Option {
	return func(r *runner) {
		r.converter = c
	}
}

// WithTargetDir sets the export directory.
func WithTargetDir(dir string) Option {
	return func(r *runner) {
		r.targetDir = dir
	}
}

// WithReporter sets the progress reporter.
func WithReporter(rep Reporter) Option {
	return func(r *runner) {
		r.reporter = rep
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) {
		r.logger = l
	}
}

// WithWorkers sets how many files or nodes are processed at once. Values
// below one mean one.
func WithWorkers(n int) Option {
	return func(r *runner) {
		r.workers = n
	}
}

// WithSkipPatch disables the patch pass.
func WithSkipPatch() Option {
	return func(r *runner) {
		r.skipPatch = true
	}
}

// WithSkipExport disables the export pass.
func WithSkipExport() Option {
	return func(r *runner) {
		r.skipExport = true
	}
}
