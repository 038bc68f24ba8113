// Package export materializes org-roam nodes as Markdown files by handing
// each node to an external converter.
package export

import (
	"context"
	"log/slog"
	"path/filepath"

	"roamexport/internal/apperr"
	"roamexport/internal/fsys"
	"roamexport/internal/index"
)

// Job is everything a converter needs to export one node.
type Job struct {
	NodeID      string
	Title       string // for progress messages only
	SubtreeOnly bool   // export the heading subtree instead of the whole file
	Target      string // destination path
}

// JobFor builds the job exporting node into targetDir.
func JobFor(node index.Node, targetDir string) Job {
	return Job{
		NodeID:      node.ID,
		Title:       node.Title,
		SubtreeOnly: node.SubtreeOnly(),
		Target:      filepath.Join(targetDir, node.FileName()),
	}
}

// Converter produces the file at job.Target. Implementations resolve the
// node id to its (already link-patched) source themselves.
type Converter interface {
	Convert(ctx context.Context, job Job) error
}

// Outcome of exporting one node.
type Outcome int

const (
	OutcomeExported Outcome = iota
	OutcomeSkipped          // destination already existed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExported:
		return "exported"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Driver exports nodes into a target directory, never overwriting files
// that are already there.
type Driver struct {
	fs        fsys.FS
	converter Converter
	targetDir string
	logger    *slog.Logger
}

// NewDriver returns a Driver. A nil logger discards output.
func NewDriver(fs fsys.FS, c Converter, targetDir string, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{fs: fs, converter: c, targetDir: targetDir, logger: logger}
}

// Prepare makes the target directory absolute and creates it if needed.
// Converters may run with a different working directory than the existence
// check, so every Target handed out afterwards is absolute.
func (d *Driver) Prepare() error {
	abs, err := filepath.Abs(d.targetDir)
	if err != nil {
		return &apperr.FileIOError{Op: "mkdir", Path: d.targetDir, Err: err}
	}
	d.targetDir = abs
	if err := d.fs.MkdirAll(d.targetDir, 0o755); err != nil {
		return &apperr.FileIOError{Op: "mkdir", Path: d.targetDir, Err: err}
	}
	return nil
}

// Export converts node unless its destination file already exists.
func (d *Driver) Export(ctx context.Context, node index.Node) (Outcome, error) {
	job := JobFor(node, d.targetDir)

	exists, err := d.fs.Exists(job.Target)
	if err != nil {
		return OutcomeExported, &apperr.FileIOError{Op: "stat", Path: job.Target, Err: err}
	}
	if exists {
		d.logger.Debug("export: destination exists, skipping",
			slog.String("node", node.ID),
			slog.String("target", job.Target))
		return OutcomeSkipped, nil
	}

	if err := d.converter.Convert(ctx, job); err != nil {
		return OutcomeExported, err
	}
	d.logger.Debug("export: converted",
		slog.String("node", node.ID),
		slog.String("title", node.Title),
		slog.Bool("subtree", job.SubtreeOnly),
		slog.String("target", job.Target))
	return OutcomeExported, nil
}
