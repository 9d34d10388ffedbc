package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"findidentical/config"
	"findidentical/database"
	"findidentical/export"
	"findidentical/finder"
	"findidentical/imageprocessor"
	"findidentical/logging"
	"findidentical/signalhandler"
	"findidentical/types"
	"findidentical/utils"
)

var version = "0.1.0"

// exportToCache is the value of a bare --export flag
const exportToCache = "-"

type options struct {
	configPath string
	home       string
	exportDir  string
	exportFile string
	nthread    string
	exhaustive bool
	decoder    string
	histogram  bool
	debug      bool
	logFile    string
	noHistory  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "findidentical [flags] CHECK_DIR1 [CHECK_DIR2]",
		Short: "Find images with identical pixel values",
		Long: `Find sets of images whose decoded pixels are identical, either within
one folder or between two folders. Images are first grouped by dimension,
then compared on a sparse 15x15 sample grid; --check-every-px confirms every
match byte by byte.

Supported formats: jpg, jpeg, png, bmp, pnm, tif.`,
		Example: `  findidentical ~/photos
  findidentical --export ~/photos ~/backup/photos
  findidentical --export-file=dups.json --check-every-px ~/photos`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, opts, args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.fii/config.yaml)")
	flags.StringVar(&opts.home, "home", "", "directory for cache, history and config (default ~/.fii)")
	flags.BoolVar(&opts.debug, "debug", false, "write a debug log")
	flags.StringVar(&opts.logFile, "logfile", "", "debug log path (default findidentical.log)")

	local := cmd.Flags()
	local.StringVar(&opts.exportDir, "export", "", "write json, csv, html and file lists to DIR (default: the cache directory of CHECK_DIR1)")
	local.Lookup("export").NoOptDefVal = exportToCache
	local.StringVar(&opts.exportFile, "export-file", "", "write results to one file; format from extension (.json, .csv, .html, .txt)")
	local.StringVar(&opts.nthread, "nthread", "", "number of worker threads (default: all cores)")
	local.BoolVar(&opts.exhaustive, "check-every-px", false, "confirm matches by comparing every pixel")
	local.StringVar(&opts.decoder, "decoder", "", "image decoder backend: go or opencv")
	local.BoolVar(&opts.histogram, "histogram", false, "print and save the image dimension histogram")
	local.BoolVar(&opts.noHistory, "no-history", false, "do not record this run in the history database")

	cmd.AddCommand(newHistoryCmd(opts), newClearCacheCmd(opts), newVersionCmd())
	return cmd
}

// loadConfig merges defaults, the config file and any flags the user set
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("home") {
		cfg.SetHome(utils.ExpandHome(opts.home))
	}
	if changed("nthread") {
		n, err := utils.ParseThreadCount(opts.nthread)
		if err != nil {
			return nil, err
		}
		cfg.Threads = n
	}
	if changed("check-every-px") {
		cfg.Exhaustive = opts.exhaustive
	}
	if changed("decoder") {
		cfg.Decoder = opts.decoder
	}
	if changed("export") {
		cfg.ExportDir = opts.exportDir
	}
	if changed("export-file") {
		cfg.ExportFile = opts.exportFile
	}
	if changed("histogram") {
		cfg.Histogram = opts.histogram
	}
	if changed("debug") {
		cfg.Debug = opts.debug
	}
	if changed("logfile") {
		cfg.LogFile = opts.logFile
	}
	if changed("no-history") {
		cfg.NoHistory = opts.noHistory
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Debug {
		if err := logging.SetupLogger(cfg.LogFile); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Failed to setup logging: %v\n", err)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Debug mode enabled. Logging to: %s\n", cfg.LogFile)
		}
	}
	return cfg, nil
}

func runFind(cmd *cobra.Command, opts *options, dirs []string) error {
	if err := finder.ValidateDirs(dirs); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	defer logging.CloseLogger()

	out := cmd.OutOrStdout()
	backend, _ := cfg.Backend()
	threads := cfg.Threads
	if threads == 0 {
		threads = signalhandler.GetOptimalProcs(backend == imageprocessor.BackendOpenCV)
	}

	ctx, stop := signalhandler.SetupHandler(cmd.Context())
	defer stop()

	db := openDatabase(cmd.ErrOrStderr(), cfg.DatabasePath)
	if db != nil {
		defer db.Close()
	}

	finderOpts := finder.Options{
		Threads:    threads,
		Exhaustive: cfg.Exhaustive,
		Loader:     imageprocessor.NewImageLoaderRegistry(backend),
		Progress:   cmd.ErrOrStderr(),
	}
	if db != nil {
		finderOpts.Cache = database.NewDimensionCache(db)
	}

	logging.LogInfo("Comparing %v with %d threads (decoder %s, exhaustive %v)", dirs, threads, backend, cfg.Exhaustive)
	startedAt := time.Now()
	result, err := finder.New(finderOpts).Run(ctx, dirs...)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted")
		}
		return err
	}

	printReport(out, result, cfg.Histogram)

	if cfg.Histogram {
		if err := saveHistograms(out, cfg, result); err != nil {
			return err
		}
	}
	if err := exportResult(out, cfg, result); err != nil {
		return err
	}

	if db != nil && !cfg.NoHistory {
		runID, err := database.RecordRun(db, result, startedAt)
		if err != nil {
			logging.LogError("Cannot record run: %v", err)
		} else {
			logging.LogInfo("Recorded run %d", runID)
		}
	}
	return nil
}

// openDatabase opens the history and cache database. The search still works
// without it, so failures only produce a warning.
func openDatabase(warn io.Writer, path string) *sql.DB {
	var db *sql.DB
	var err error
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		db, err = database.InitDatabase(path)
		if err == nil {
			return db
		}
		if i < maxRetries-1 {
			logging.LogWarning("Error initializing database (attempt %d/%d): %v - retrying...", i+1, maxRetries, err)
			time.Sleep(100 * time.Millisecond * time.Duration(i+1))
		}
	}
	fmt.Fprintf(warn, "Warning: database unavailable, running without cache and history: %v\n", err)
	return nil
}

func saveHistograms(out io.Writer, cfg *config.Config, result *types.Result) error {
	for _, c := range result.Collections {
		dir, err := utils.CreateCacheDir(cfg.CacheDir, c.Root)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, c.Name+"-img-dimension-histogram.csv")
		if err := export.WriteHistogram(c.Histogram, path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Histogram of %s written to %s\n", c.Name, path)
	}
	return nil
}

func exportResult(out io.Writer, cfg *config.Config, result *types.Result) error {
	switch {
	case cfg.ExportFile != "":
		format, err := export.WriteFile(result, cfg.ExportFile)
		if err == nil {
			fmt.Fprintf(out, "Results written to %s file %s\n", format, cfg.ExportFile)
			return nil
		}
		if !errors.Is(err, export.ErrUnknownFormat) {
			return err
		}
		fmt.Fprintf(out, "%v, exporting all formats to the current directory\n", err)
		return exportAll(out, result, ".")

	case cfg.ExportDir == exportToCache:
		dir, err := utils.CreateCacheDir(cfg.CacheDir, result.Collections[0].Root)
		if err != nil {
			return err
		}
		return exportAll(out, result, dir)

	case cfg.ExportDir != "":
		return exportAll(out, result, cfg.ExportDir)
	}
	return nil
}

func exportAll(out io.Writer, result *types.Result, dir string) error {
	if _, err := export.WriteAll(result, dir); err != nil {
		return err
	}
	fmt.Fprintf(out, "Results in %s\n", dir)
	return nil
}
