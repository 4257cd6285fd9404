package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/torsel/internal/config"
	"github.com/nao1215/torsel/internal/history"
	tlog "github.com/nao1215/torsel/internal/log"
	"github.com/nao1215/torsel/internal/model"
	"github.com/nao1215/torsel/internal/pool"
	"github.com/nao1215/torsel/internal/report"
	"github.com/nao1215/torsel/internal/session"
)

// defaultCheckURL is fetched by the built-in action. The Tor Project's
// check page reports the exit identity, which makes rotation visible.
const defaultCheckURL = "https://check.torproject.org/"

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run actions across the Tor instance pool",
		Long: `Run cleans up leftovers from previous runs, seeds a queue with action
indices, and drains it with a bounded worker pool. Each action fetches
the configured URL through its instance's SOCKS proxy; failed attempts
rotate the instance's identity and retry up to the attempt budget.

Examples:
  # Fetch the check page 10 times across 3 instances
  torsel run --actions 10 --instances 3

  # Use embedded Tor daemons instead of an external tor binary
  torsel run --actions 5 --embedded

  # Render a Markdown report to a file
  torsel run --actions 10 --markdown -o run.md

  # Use a custom configuration file
  torsel run -c mypool.yaml --actions 20`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	// Pool shape flags
	cmd.Flags().IntP("instances", "i", config.DefaultTotalInstances,
		"Number of Tor instances in the pool")
	cmd.Flags().IntP("workers", "w", config.DefaultMaxWorkers,
		"Maximum number of concurrent workers")
	cmd.Flags().IntP("actions", "n", 0,
		"Number of actions to run (required)")

	// Port derivation flags
	cmd.Flags().Int("socks-base", config.DefaultSocksBasePort,
		"SOCKS port of instance 0")
	cmd.Flags().Int("control-base", config.DefaultControlBasePort,
		"Control port of instance 0")
	cmd.Flags().Int("stride", config.DefaultPortStride,
		"Port spacing between instances (minimum 2)")

	// Instance flags
	cmd.Flags().String("tor-path", config.DefaultTorPath,
		"Path to the tor executable")
	cmd.Flags().String("data-dir", "",
		"Per-run data root for instance profiles (default /tmp/tor_profiles)")
	cmd.Flags().Bool("embedded", false,
		"Launch embedded Tor daemons instead of an external binary")
	cmd.Flags().Bool("headless", true,
		"Run driver-backed session factories headless")

	// Action flags
	cmd.Flags().StringP("url", "u", defaultCheckURL,
		"URL fetched by the built-in action")
	cmd.Flags().DurationP("timeout", "t", config.DefaultSessionTimeout,
		"Per-request timeout for each session")
	cmd.Flags().Int("max-attempts", config.DefaultMaxAttempts,
		"Retry budget per action")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .torsel in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a Markdown report instead of the text summary")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the given file path")
	cmd.Flags().Bool("no-history", false,
		"Skip saving the run to the history database")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	numActions, err := cmd.Flags().GetInt("actions")
	if err != nil {
		return err
	}
	if numActions < 1 {
		return fmt.Errorf("--actions must be at least 1")
	}

	logger := tlog.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// Context cancelled on interrupt; workers observe it between actions.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping after current actions")
		cancel()
	}()

	url, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}

	p, err := pool.New(cfg, pool.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Shutdown(); err != nil {
			logger.Warn("pool shutdown incomplete", "error", err)
		}
	}()

	// Embedded instances get OS-assigned ports the reset cannot derive,
	// so only exec-launched pools reset port state up front.
	var runOpts []pool.RunOption
	if cfg.Embedded {
		runOpts = append(runOpts, pool.WithoutReset())
	}

	runReport, err := p.Run(ctx, numActions, fetchAction(url), runOpts...)
	if err != nil {
		return err
	}

	if err := writeReport(cmd, runReport); err != nil {
		return err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return err
	}
	if !noHistory {
		if err := saveHistory(ctx, runReport, logger); err != nil {
			// History is bookkeeping, not the run's outcome.
			logger.Warn("failed to save run history", "error", err)
		}
	}

	return nil
}

// fetchAction returns the built-in action: fetch url through the
// session's proxied client and fail on transport errors or HTTP 5xx.
func fetchAction(url string) session.ActionFunc {
	return func(ctx context.Context, sess session.Session, actionIndex, instanceIndex int, logger *slog.Logger) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := sess.HTTPClient().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck // Read side drained below

		// Drain so the connection is reusable within the session.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // Best effort

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("server error: %s", resp.Status)
		}

		logger.Info("action completed",
			"action", actionIndex,
			"instance", instanceIndex,
			"status", resp.StatusCode,
		)
		return nil
	}
}

// buildConfig assembles the pool configuration with precedence
// defaults < config file < explicitly set flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	explicitConfigPath := configPath != ""

	if found := config.FindConfigFile(configPath); found != "" {
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	// Only explicitly set flags override the file.
	flags := cmd.Flags()
	if flags.Changed("instances") {
		cfg.TotalInstances, _ = flags.GetInt("instances") //nolint:errcheck // Flag exists
	}
	if flags.Changed("workers") {
		cfg.MaxWorkers, _ = flags.GetInt("workers") //nolint:errcheck // Flag exists
	}
	if flags.Changed("socks-base") {
		cfg.SocksBasePort, _ = flags.GetInt("socks-base") //nolint:errcheck // Flag exists
	}
	if flags.Changed("control-base") {
		cfg.ControlBasePort, _ = flags.GetInt("control-base") //nolint:errcheck // Flag exists
	}
	if flags.Changed("stride") {
		cfg.PortStride, _ = flags.GetInt("stride") //nolint:errcheck // Flag exists
	}
	if flags.Changed("tor-path") {
		cfg.TorPath, _ = flags.GetString("tor-path") //nolint:errcheck // Flag exists
	}
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir") //nolint:errcheck // Flag exists
	}
	if flags.Changed("embedded") {
		cfg.Embedded, _ = flags.GetBool("embedded") //nolint:errcheck // Flag exists
	}
	if flags.Changed("headless") {
		cfg.Headless, _ = flags.GetBool("headless") //nolint:errcheck // Flag exists
	}
	if flags.Changed("timeout") {
		cfg.SessionTimeout, _ = flags.GetDuration("timeout") //nolint:errcheck // Flag exists
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts, _ = flags.GetInt("max-attempts") //nolint:errcheck // Flag exists
	}

	return cfg, nil
}

// writeReport renders the run report to stdout or the --output file.
func writeReport(cmd *cobra.Command, runReport *model.RunReport) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(filepath.Clean(outputPath))
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // Read-only after writes complete
		out = f
	}

	useMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	var writer report.Writer
	if useMarkdown {
		writer = report.NewMarkdownWriter(out)
	} else {
		writer = report.NewSimpleWriter(out, report.WithVerbose(getVerboseFlag(cmd)))
	}

	if _, err := writer.Write(runReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// saveHistory persists the report to the history database under the
// XDG data directory.
func saveHistory(ctx context.Context, runReport *model.RunReport, logger *slog.Logger) error {
	db, err := history.Open(config.XDGDataDir(), history.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Close error is not actionable here

	id, err := db.SaveRun(ctx, runReport)
	if err != nil {
		return err
	}
	logger.Debug("run saved to history", "run_id", id, "db", db.Path())
	return nil
}
