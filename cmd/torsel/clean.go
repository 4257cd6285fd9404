package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/torsel/internal/config"
	tlog "github.com/nao1215/torsel/internal/log"
	"github.com/nao1215/torsel/internal/pool"
)

// NewCleanCmd creates the clean command.
func NewCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Kill leftover Tor processes and remove stale instance data",
		Long: `Clean performs the environment reset that run executes before each
run: it kills any leftover Tor processes, frees ports still held in the
pool's derived port range, and removes the instance data directory.

All steps are best effort. Clean never fails because a process or
directory was already gone, so it is safe to run repeatedly.

Examples:
  # Reset the default pool layout
  torsel clean

  # Reset a pool with a custom port layout
  torsel clean --instances 20 --socks-base 19050 --control-base 19151`,
		Args: cobra.NoArgs,
		RunE: runCleanCmd,
	}

	cmd.Flags().IntP("instances", "i", config.DefaultTotalInstances,
		"Number of Tor instances whose ports are freed")
	cmd.Flags().Int("socks-base", config.DefaultSocksBasePort,
		"SOCKS port of instance 0")
	cmd.Flags().Int("control-base", config.DefaultControlBasePort,
		"Control port of instance 0")
	cmd.Flags().Int("stride", config.DefaultPortStride,
		"Port spacing between instances (minimum 2)")
	cmd.Flags().String("tor-path", config.DefaultTorPath,
		"Path to the tor executable (its name selects processes to kill)")
	cmd.Flags().String("data-dir", "",
		"Instance data root to remove (default /tmp/tor_profiles)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .torsel in current or home directory)")

	return cmd
}

// runCleanCmd executes the clean command.
func runCleanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := tlog.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	p, err := pool.New(cfg, pool.WithLogger(logger))
	if err != nil {
		return err
	}
	p.Reset(ctx)

	fmt.Fprintln(cmd.OutOrStdout(), "Environment reset complete.")
	return nil
}
