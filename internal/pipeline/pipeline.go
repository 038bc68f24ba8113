// Package pipeline runs the export: build the node index, patch every
// backing file, then export every node.
//
// The patch pass always finishes for every file before the export pass
// starts, because several nodes can share one backing file and the converter
// reads that file itself.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"roamexport/internal/db"
	"roamexport/internal/export"
	"roamexport/internal/fsys"
	"roamexport/internal/index"
	"roamexport/internal/patch"
)

// Loader provides the raw node rows.
type Loader interface {
	AllNodes(ctx context.Context) ([]db.Node, error)
}

// Result summarizes a run.
type Result struct {
	Nodes          int `json:"nodes"`
	FilesPatched   int `json:"files_patched"`
	FilesUnchanged int `json:"files_unchanged"`
	LinksRewritten int `json:"links_rewritten"`
	Exported       int `json:"exported"`
	Skipped        int `json:"skipped"`
}

// RunFromStore loads the rows from l and runs the pipeline on them.
func RunFromStore(ctx context.Context, l Loader, opts ...Option) (*Result, error) {
	rows, err := l.AllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load org-roam nodes: %w", err)
	}
	return Run(ctx, rows, opts...)
}

// Run builds the index from rows and runs the patch and export passes.
func Run(ctx context.Context, rows []db.Node, opts ...Option) (*Result, error) {
	r := newRunner(opts...)
	if r.converter == nil && !r.skipExport {
		return nil, fmt.Errorf("converter is required")
	}

	idx := index.Build(rows)
	r.logger.Info("Collected nodes",
		slog.Int("nodes", idx.Len()),
		slog.Int("files", len(idx.Files())))

	res := &Result{Nodes: idx.Len()}

	if !r.skipPatch {
		if err := r.patchPass(ctx, idx, res); err != nil {
			return res, err
		}
	}
	if !r.skipExport {
		if err := r.exportPass(ctx, idx, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

type runner struct {
	fs         fsys.FS
	converter  export.Converter
	targetDir  string
	reporter   Reporter
	logger     *slog.Logger
	workers    int
	skipPatch  bool
	skipExport bool
}

func newRunner(opts ...Option) *runner {
	r := &runner{
		fs:       fsys.NewReal(),
		reporter: NopReporter{},
		logger:   slog.New(slog.DiscardHandler),
		workers:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = 1
	}
	return r
}

// patchPass patches each distinct backing file once. Files are the unit of
// work, so no two workers ever write the same file.
func (r *runner) patchPass(ctx context.Context, idx *index.Index, res *Result) error {
	files := idx.Files()
	titles := titlesByFile(idx.Nodes())
	p := patch.New(r.fs, idx, r.logger)

	r.reporter.Start(PhasePatch, len(files))
	results := make([]patch.Result, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			pr, err := p.PatchFile(file)
			if err != nil {
				return fmt.Errorf("failed to patch links in %s (nodes %s): %w",
					file, strings.Join(titles[file], ", "), err)
			}
			results[i] = pr
			r.reporter.Advance(PhasePatch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.reporter.Abort(PhasePatch)
		return err
	}
	r.reporter.Finish(PhasePatch)

	for _, pr := range results {
		if pr.Changed {
			res.FilesPatched++
		} else {
			res.FilesUnchanged++
		}
		res.LinksRewritten += pr.Links
	}
	r.logger.Info("Patched node links",
		slog.Int("files_patched", res.FilesPatched),
		slog.Int("files_unchanged", res.FilesUnchanged),
		slog.Int("links", res.LinksRewritten))
	return nil
}

// exportPass exports every node. Nodes sharing a destination file name are
// exported by the same worker in index order, so the skip-if-exists check
// sees the earlier node's output.
func (r *runner) exportPass(ctx context.Context, idx *index.Index, res *Result) error {
	d := export.NewDriver(r.fs, r.converter, r.targetDir, r.logger)
	if err := d.Prepare(); err != nil {
		return fmt.Errorf("failed to prepare export directory: %w", err)
	}

	r.warnCollisions(idx)

	groups := groupByFileName(idx.Nodes())
	r.reporter.Start(PhaseExport, idx.Len())
	outcomes := make([][]export.Outcome, len(groups))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, group := range groups {
		g.Go(func() error {
			for _, node := range group {
				if err := gCtx.Err(); err != nil {
					return err
				}
				outcome, err := d.Export(gCtx, node)
				if err != nil {
					return fmt.Errorf("failed to export node %q: %w", node.Title, err)
				}
				outcomes[i] = append(outcomes[i], outcome)
				r.reporter.Advance(PhaseExport)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.reporter.Abort(PhaseExport)
		return err
	}
	r.reporter.Finish(PhaseExport)

	for _, group := range outcomes {
		for _, o := range group {
			if o == export.OutcomeSkipped {
				res.Skipped++
			} else {
				res.Exported++
			}
		}
	}
	r.logger.Info("Exported nodes",
		slog.Int("exported", res.Exported),
		slog.Int("skipped", res.Skipped),
		slog.String("target_dir", r.targetDir))
	return nil
}

func (r *runner) warnCollisions(idx *index.Index) {
	collisions := idx.Collisions()
	names := make([]string, 0, len(collisions))
	for name := range collisions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ids := make([]string, len(collisions[name]))
		for i, n := range collisions[name] {
			ids[i] = n.ID
		}
		r.logger.Warn("Nodes share an export file name; only the first is exported",
			slog.String("file", name),
			slog.Any("node_ids", ids))
	}
}

// titlesByFile lists the quoted titles of the nodes stored in each backing
// file, in index order.
func titlesByFile(nodes []index.Node) map[string][]string {
	titles := make(map[string][]string)
	for _, n := range nodes {
		titles[n.File] = append(titles[n.File], strconv.Quote(n.Title))
	}
	return titles
}

// groupByFileName splits nodes into groups sharing an export file name,
// keeping index order both across and within groups.
func groupByFileName(nodes []index.Node) [][]index.Node {
	pos := make(map[string]int)
	var groups [][]index.Node
	for _, n := range nodes {
		i, ok := pos[n.FileName()]
		if !ok {
			i = len(groups)
			pos[n.FileName()] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], n)
	}
	return groups
}
