package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"roamexport/internal/apperr"
	"roamexport/internal/db"
	"roamexport/internal/fsys"
	"roamexport/internal/index"
	"roamexport/internal/links"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "List id links that point at no known node",
	Long: `check resolves every id link in every backing org file without writing
anything. It exits non-zero when at least one link is dangling, which is
exactly the condition that would abort a full run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(configPath, os.Getenv, currentOverrides())
		if err != nil {
			return err
		}
		store, err := OpenDatabase(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		rows, err := store.AllNodes(cmd.Context())
		if err != nil {
			return err
		}
		return runCheck(cmd.Context(), cmd.OutOrStdout(), fsys.NewReal(), rows)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// danglingLink is an id link whose target is missing from the index.
type danglingLink struct {
	File  string
	Line  int
	Token links.Token
}

// findDangling scans every distinct backing file once.
func findDangling(ctx context.Context, fs fsys.FS, idx *index.Index) ([]danglingLink, error) {
	var out []danglingLink
	for _, file := range idx.Files() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(file)
		if err != nil {
			return nil, &apperr.FileIOError{Op: "read", Path: file, Err: err}
		}
		text := string(data)
		for _, tok := range links.Dangling(text, file, idx) {
			line := 1 + strings.Count(text[:tok.Start], "\n")
			out = append(out, danglingLink{File: file, Line: line, Token: tok})
		}
	}
	return out, nil
}

func runCheck(ctx context.Context, w io.Writer, fs fsys.FS, rows []db.Node) error {
	idx := index.Build(rows)
	dangling, err := findDangling(ctx, fs, idx)
	if err != nil {
		return err
	}

	for _, d := range dangling {
		fmt.Fprintf(w, "%s:%d: [[id:%s][%s]]\n", d.File, d.Line, d.Token.ID, d.Token.Display)
	}
	if len(dangling) > 0 {
		return fmt.Errorf("%d dangling link(s) in %d file(s): %w",
			len(dangling), countFiles(dangling), apperr.ErrDanglingLink)
	}
	fmt.Fprintf(w, "All links resolve (%d nodes, %d files).\n", idx.Len(), len(idx.Files()))
	return nil
}

func countFiles(ds []danglingLink) int {
	seen := make(map[string]bool)
	for _, d := range ds {
		seen[d.File] = true
	}
	return len(seen)
}
