// Package patch makes link rewrites durable: it reads a note's backing file,
// rewrites its id links and writes the result back to the same path.
package patch

import (
	"log/slog"

	"roamexport/internal/apperr"
	"roamexport/internal/fsys"
	"roamexport/internal/index"
	"roamexport/internal/links"
)

// Result describes one patched file.
type Result struct {
	Path    string
	Links   int  // id links rewritten
	Changed bool // false when the file had nothing to rewrite and was left untouched
}

// Patcher rewrites backing files in place.
type Patcher struct {
	fs       fsys.FS
	resolver links.Resolver
	logger   *slog.Logger
}

// New returns a Patcher resolving links through r. A nil logger discards output.
func New(fs fsys.FS, r links.Resolver, logger *slog.Logger) *Patcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Patcher{fs: fs, resolver: r, logger: logger}
}

// PatchFile rewrites every id link in the file at path. The whole file is
// read, rewritten in memory and written back with a single replace; files
// without id links are not written at all.
func (p *Patcher) PatchFile(path string) (Result, error) {
	data, err := p.fs.ReadFile(path)
	if err != nil {
		return Result{}, &apperr.FileIOError{Op: "read", Path: path, Err: err}
	}

	patched, n, err := links.Rewrite(string(data), path, p.resolver)
	if err != nil {
		return Result{}, err
	}
	if n == 0 {
		p.logger.Debug("patch: no id links", slog.String("file", path))
		return Result{Path: path}, nil
	}

	if err := p.fs.WriteFile(path, []byte(patched)); err != nil {
		return Result{}, &apperr.FileIOError{Op: "write", Path: path, Err: err}
	}
	p.logger.Debug("patch: rewrote links", slog.String("file", path), slog.Int("links", n))
	return Result{Path: path, Links: n, Changed: true}, nil
}

// PatchNode patches the backing file of node, for callers that work node by
// node. The pipeline patches each distinct file once through PatchFile
// instead, since nested nodes share a file.
func (p *Patcher) PatchNode(node index.Node) (Result, error) {
	return p.PatchFile(node.File)
}
