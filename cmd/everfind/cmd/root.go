// Package cmd provides the CLI commands for everfind.
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/everfind/everfind/internal/config"
	"github.com/everfind/everfind/internal/engine"
	"github.com/everfind/everfind/internal/errors"
	"github.com/everfind/everfind/internal/logging"
	"github.com/everfind/everfind/internal/monitor"
	"github.com/everfind/everfind/internal/output"
	"github.com/everfind/everfind/internal/pattern"
	"github.com/everfind/everfind/internal/profiling"
	"github.com/everfind/everfind/internal/search"
	"github.com/everfind/everfind/pkg/version"
)

// rootFlags holds the flag values of one invocation.
type rootFlags struct {
	regex       bool
	hex         bool
	minSize     string
	maxSize     string
	noParallel  bool
	workers     int
	context     int
	logEnabled  bool
	logFile     string
	excludeDirs []string
	excludeFile string
	noGitignore bool

	profileCPU   string
	profileMem   string
	profileTrace string
}

// NewRootCmd creates the root command for the everfind CLI.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "everfind <pattern> [path]",
		Short: "Fast concurrent content search with CPU throttling",
		Long: `everfind searches file contents under a directory tree.

Patterns are literal text by default; --regex and --hex switch the
interpretation. The scan runs in parallel, honors gitignore rules, and
backs off automatically when the system CPU is busy.`,
		Version:       version.Version,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, flags)
		},
	}

	cmd.SetVersionTemplate("everfind version {{.Version}}\n")

	cmd.Flags().BoolVarP(&flags.regex, "regex", "r", false, "Interpret the pattern as a regular expression")
	cmd.Flags().BoolVarP(&flags.hex, "hex", "x", false, "Interpret the pattern as hex bytes (e.g. \"48 65 6c\")")
	cmd.Flags().StringVar(&flags.minSize, "min-size", "", "Skip files smaller than this (e.g. 512, 10KB)")
	cmd.Flags().StringVar(&flags.maxSize, "max-size", "", "Skip files larger than this (e.g. 1.5MB)")
	cmd.Flags().BoolVar(&flags.noParallel, "no-parallel", false, "Scan with a single worker")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Number of scan workers (default: one per CPU)")
	cmd.Flags().IntVarP(&flags.context, "context", "C", 0, "Lines of context around each match")
	cmd.Flags().BoolVar(&flags.logEnabled, "log", false, "Write a scan log to ~/.everfind/logs/")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Write the scan log to this file instead")
	cmd.Flags().StringSliceVar(&flags.excludeDirs, "exclude-dir", nil, "Directory names to skip (repeatable)")
	cmd.Flags().StringVar(&flags.excludeFile, "exclude-file", "", "File listing paths to skip, one per line")
	cmd.Flags().BoolVar(&flags.noGitignore, "no-gitignore", false, "Ignore gitignore rules")

	cmd.PersistentFlags().StringVar(&flags.profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&flags.profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&flags.profileTrace, "profile-trace", "", "Write execution trace to file")

	cmd.MarkFlagsMutuallyExclusive("regex", "hex")
	cmd.MarkFlagsMutuallyExclusive("no-parallel", "workers")

	var profile *profiling.Session
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		s, err := profiling.Start(profiling.Options{
			CPUPath:   flags.profileCPU,
			HeapPath:  flags.profileMem,
			TracePath: flags.profileTrace,
		})
		profile = s
		return err
	}
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		return profile.Stop()
	}

	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the everfind CLI.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
	}
	return err
}

func runSearch(cmd *cobra.Command, args []string, flags *rootFlags) error {
	if path, created, err := config.EnsureUserConfig(); err == nil && created {
		fmt.Fprintf(cmd.ErrOrStderr(), "created default config at %s\n", path)
	}

	searchPath := "."
	if len(args) > 1 {
		searchPath = args[1]
	}

	cfg, err := config.Load(searchPath)
	if err != nil {
		return errors.ConfigError("failed to load configuration", err)
	}
	if len(args) < 2 {
		searchPath = cfg.Search.DefaultPath
	}

	opts, err := buildOptions(cmd, args[0], searchPath, cfg, flags)
	if err != nil {
		return err
	}

	// Scan logging is opt-in; recovered errors are always counted.
	collector := logging.NewErrorCollector(logging.Nop())
	var cleanup func()
	if flags.logEnabled || flags.logFile != "" {
		logPath := flags.logFile
		if logPath == "" {
			logPath = logging.DefaultLogPath()
		}
		logger, stop, err := logging.Setup(logging.Config{
			Level:     cfg.Logging.Level,
			FilePath:  logPath,
			MaxSizeMB: cfg.Logging.MaxSizeMB,
			MaxFiles:  cfg.Logging.MaxFiles,
		})
		if err != nil {
			return errors.ConfigError("failed to open scan log", err)
		}
		cleanup = stop
		collector = logging.NewErrorCollector(logging.NewScanLogger(logger))
	}
	if cleanup != nil {
		defer cleanup()
	}
	opts.Log = collector

	printer := output.NewPrinter(cmd.OutOrStdout(), output.Options{
		MaxLineLength: cfg.Display.MaxLineLength,
		Highlight:     cfg.HighlightEnabled(),
	})
	opts.OnResult = func(r search.Result) {
		printer.Result(r)
	}

	// Live counter on stderr; a no-op unless stderr is a terminal.
	progress := output.NewProgress(cmd.ErrOrStderr())
	opts.OnProgress = progress.Update

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := engine.Run(ctx, opts)
	progress.Done()
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "search interrupted")
		}
		return err
	}

	printer.Summary(summary)
	printer.ErrorSummary(collector.Summary())
	return nil
}

// buildOptions merges config defaults with command-line flags.
func buildOptions(cmd *cobra.Command, patternArg, searchPath string, cfg *config.Config, flags *rootFlags) (engine.Options, error) {
	minSize, err := config.ParseSize(flags.minSize)
	if err != nil {
		return engine.Options{}, errors.New(errors.ErrCodeInvalidSize, err.Error(), err)
	}
	maxSize, err := config.ParseSize(flags.maxSize)
	if err != nil {
		return engine.Options{}, errors.New(errors.ErrCodeInvalidSize, err.Error(), err)
	}
	if minSize != nil && maxSize != nil && *minSize > *maxSize {
		return engine.Options{}, errors.New(errors.ErrCodeInvalidSize,
			"min-size is larger than max-size", nil).
			WithSuggestion("swap the --min-size and --max-size values")
	}

	excludedPaths := append([]string(nil), cfg.Exclude.Files...)
	if flags.excludeFile != "" {
		fromFile, err := readExcludeFile(flags.excludeFile)
		if err != nil {
			return engine.Options{}, err
		}
		excludedPaths = append(excludedPaths, fromFile...)
	}

	contextLines := cfg.Search.ContextLines
	if cmd.Flags().Changed("context") {
		contextLines = flags.context
	}

	workers := cfg.Performance.Workers
	if flags.noParallel {
		workers = 1
	} else if flags.workers > 0 {
		workers = flags.workers
	}

	return engine.Options{
		Root:             searchPath,
		Pattern:          patternArg,
		Kind:             pattern.KindOf(flags.regex, flags.hex),
		MinSize:          minSize,
		MaxSize:          maxSize,
		ExcludedDirs:     append(append([]string(nil), cfg.Exclude.Dirs...), flags.excludeDirs...),
		ExcludedPaths:    excludedPaths,
		HonorIgnoreRules: cfg.GitignoreEnabled() && !flags.noGitignore,
		Workers:          workers,
		ContextLines:     contextLines,
		ResultBuffer:     cfg.Performance.ResultBuffer,
		Monitor: monitor.Config{
			Threshold: cfg.Performance.CPUThreshold,
			Delay:     time.Duration(cfg.Performance.ThrottleDelayMS) * time.Millisecond,
			Interval:  monitor.DefaultInterval,
		},
	}, nil
}

// readExcludeFile reads one exclusion per line; blank lines and lines
// starting with '#' are skipped.
func readExcludeFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfigNotFound,
			fmt.Sprintf("cannot read exclude file %s", path), err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.ErrCodeConfigNotFound,
			fmt.Sprintf("cannot read exclude file %s", path), err)
	}
	return out, nil
}
