package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloo-solutions/pageoracle/internal/config"
	"github.com/cloo-solutions/pageoracle/internal/telemetry"
	"github.com/spf13/cobra"
)

// IndexCmd returns the index command
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the stored document index",
		Long: `Load, chunk and embed the configured document into the pgvector index ahead
of serving. An up-to-date index for the same document and settings is reused
unless --force is given.`,
		RunE: runIndex,
	}

	cmd.Flags().Bool("force", false, "Re-embed even when a complete index exists")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.IndexBackend != config.IndexBackendPgvector {
		return fmt.Errorf("index requires ORACLE_INDEX_BACKEND=%s (the %s backend is rebuilt at startup)",
			config.IndexBackendPgvector, config.IndexBackendMemory)
	}

	shutdownTelemetry := initTelemetry(cfg.Debug)
	defer shutdownTelemetry()

	force, _ := cmd.Flags().GetBool("force")
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")

	ctx, span := telemetry.StartTransaction(context.Background(), "oracled index", "cli.index")
	defer span.End()

	setup, err := newEngineSetup(ctx, cfg, engineOptions{migrate: !noMigrate, forceReindex: force})
	if err != nil {
		span.SetError(err)
		return err
	}
	defer setup.Close()

	engine, err := setup.factory.Build(ctx)
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("failed to build index: %w", err)
	}

	outputJSON, _ := cmd.Flags().GetBool("output")
	if outputJSON {
		output, _ := json.MarshalIndent(engine.Stats, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(output))
		return nil
	}

	stats := engine.Stats
	action := "built"
	if stats.Reused {
		action = "reused"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Index %s for %s\n", action, stats.DocumentURI)
	fmt.Fprintf(cmd.OutOrStdout(), "  fingerprint: %s\n", stats.Fingerprint)
	fmt.Fprintf(cmd.OutOrStdout(), "  pages:       %d\n", stats.Pages)
	fmt.Fprintf(cmd.OutOrStdout(), "  segments:    %d\n", stats.Segments)
	fmt.Fprintf(cmd.OutOrStdout(), "  duration:    %s\n", stats.Duration.Round(time.Millisecond))
	return nil
}
