package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"roamexport/internal/db"
	"roamexport/internal/index"
)

var nodesJSON bool

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Print the sanitized node index",
	Args:  cobra.NoArgs,
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
		return printNodes(cmd.OutOrStdout(), rows, nodesJSON)
	},
}

func init() {
	nodesCmd.Flags().BoolVar(&nodesJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(nodesCmd)
}

type nodeRow struct {
	index.Node
	Export string `json:"export"`
}

func printNodes(w io.Writer, rows []db.Node, asJSON bool) error {
	idx := index.Build(rows)
	nodes := idx.Nodes()

	out := make([]nodeRow, len(nodes))
	for i, n := range nodes {
		out[i] = nodeRow{Node: n, Export: n.FileName()}
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLEVEL\tTITLE\tEXPORT")
	for _, r := range out {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.ID, r.Level, r.Title, r.Export)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	collisions := idx.Collisions()
	for _, name := range slices.Sorted(maps.Keys(collisions)) {
		fmt.Fprintf(w, "warning: %d nodes export to %q\n", len(collisions[name]), name)
	}
	return nil
}
