package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"roamexport/internal/apperr"
	"roamexport/internal/config"
	"roamexport/internal/db"
	"roamexport/internal/export"
	"roamexport/internal/fsys"
	"roamexport/internal/pipeline"
)

var (
	dbPath        string
	targetDir     string
	configPath    string
	converterKind string
	workers       int
	assumeYes     bool
	quiet         bool
)

var rootCmd = &cobra.Command{
	Use:   "roamexport",
	Short: "Rewrite org-roam id links and export every node to Markdown",
	Long: `roamexport reads the node table of an org-roam database, rewrites every
[[id:...][...]] link in the backing org files into a relative Markdown link,
then exports each node to <target-dir>/<title>.md through Emacs.

The org files are modified in place. Keep a backup.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context())
	},
}

// Execute runs the root command, cancelling the run on interrupt.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbPath, "db", "", "Path to org-roam.db (env "+config.EnvDB+")")
	pf.StringVar(&configPath, "config", "", "Config file (env "+config.EnvConfig+", default "+config.DefaultPath()+")")
	pf.IntVar(&workers, "workers", 0, "Files or nodes processed at once (default 1)")
	pf.BoolVarP(&assumeYes, "yes", "y", false, "Skip the backup confirmation")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress progress lines")

	f := rootCmd.Flags()
	f.StringVar(&targetDir, "target-dir", "", "Directory receiving the exported Markdown (env "+config.EnvTargetDir+")")
	f.StringVar(&converterKind, "converter", "", "Converter: emacs or copy")
}

// overrides carries command-line values that win over config and environment.
type overrides struct {
	DB        string
	TargetDir string
	Converter string
	Workers   int
}

func currentOverrides() overrides {
	return overrides{DB: dbPath, TargetDir: targetDir, Converter: converterKind, Workers: workers}
}

// resolveConfig builds the effective configuration: defaults, then the config
// file, then the environment, then flags.
func resolveConfig(file string, getenv func(string) string, ov overrides) (*config.Config, error) {
	cfg := config.NewDefaultConfig()

	if file == "" {
		file = getenv(config.EnvConfig)
	}
	if file != "" {
		if err := config.Load(file, cfg); err != nil {
			return nil, err
		}
	} else if err := config.LoadOptional(config.DefaultPath(), cfg); err != nil {
		return nil, err
	}

	cfg.ApplyEnv(getenv)

	if ov.DB != "" {
		cfg.DB = ov.DB
	}
	if ov.TargetDir != "" {
		cfg.TargetDir = ov.TargetDir
	}
	if ov.Converter != "" {
		cfg.Converter.Kind = ov.Converter
	}
	if ov.Workers != 0 {
		cfg.Workers = ov.Workers
	}

	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DiscoverDB checks that the configured database exists before it is opened.
func DiscoverDB(cfg *config.Config) (string, error) {
	if _, err := os.Stat(cfg.DB); err != nil {
		return "", fmt.Errorf("org-roam database not found at %s (use --db or set %s)", cfg.DB, config.EnvDB)
	}
	return cfg.DB, nil
}

// OpenDatabase discovers and opens the database.
func OpenDatabase(cfg *config.Config) (*db.DB, error) {
	path, err := DiscoverDB(cfg)
	if err != nil {
		return nil, err
	}
	return db.OpenDB(path)
}

func newConverter(cfg *config.Config, fs fsys.FS) (export.Converter, error) {
	switch cfg.Converter.Kind {
	case config.ConverterEmacs:
		return export.NewEmacs(cfg.Converter.EmacsConfig()), nil
	case config.ConverterCopy:
		return export.Copy{FS: fs}, nil
	default:
		return nil, fmt.Errorf("unknown converter %q", cfg.Converter.Kind)
	}
}

func newReporter() pipeline.Reporter {
	if quiet {
		return pipeline.NopReporter{}
	}
	return pipeline.NewLineReporter(os.Stderr)
}

func runPipeline(ctx context.Context, extra ...pipeline.Option) error {
	cfg, err := resolveConfig(configPath, os.Getenv, currentOverrides())
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stderr)

	if !assumeYes {
		ok, err := confirm()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	store, err := OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fs := fsys.NewReal()
	conv, err := newConverter(cfg, fs)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithFS(fs),
		pipeline.WithConverter(conv),
		pipeline.WithTargetDir(cfg.TargetDir),
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithLogger(logger),
		pipeline.WithReporter(newReporter()),
	}
	res, err := pipeline.RunFromStore(ctx, store, append(opts, extra...)...)
	if err != nil {
		return err
	}

	logger.Info("run complete",
		slog.Int("nodes", res.Nodes),
		slog.Int("files_patched", res.FilesPatched),
		slog.Int("links_rewritten", res.LinksRewritten),
		slog.Int("exported", res.Exported),
		slog.Int("skipped", res.Skipped))
	return nil
}

// reportError prints err, followed by the converter's stderr when the
// converter exited non-zero.
func reportError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)

	var failErr *apperr.ConverterFailureError
	if errors.As(err, &failErr) && failErr.Stderr != "" {
		fmt.Fprintln(os.Stderr, "[converter] stderr:")
		fmt.Fprintln(os.Stderr, strings.TrimRight(failErr.Stderr, "\n"))
	}
}
