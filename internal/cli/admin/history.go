package admin

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/pageoracle/internal/config"
	"github.com/cloo-solutions/pageoracle/internal/domain"
	"github.com/cloo-solutions/pageoracle/internal/repository"
	"github.com/cloo-solutions/pageoracle/internal/service"
	"github.com/spf13/cobra"
)

// HistoryCmd returns the history command group
func HistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the chat history store",
	}

	cmd.AddCommand(historyPingCmd())
	return cmd
}

func historyPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the history store is reachable",
		Long:  "Runs the same reachability check as server startup. Exits 1 when the store cannot be reached.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cfg.HasHistory() {
				return fmt.Errorf("no history store configured (set ORACLE_HISTORY_URI or MONGO_URI)")
			}

			kind, err := repository.HistoryKind(cfg.HistoryURI)
			if err != nil {
				return err
			}

			ctx := context.Background()
			logger := newHistoryLogger(ctx, cfg, false)
			defer logger.Close(ctx)

			status := logger.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "%s history store: %s\n", kind, status)
			if status != service.HistoryAvailable {
				return fmt.Errorf("%w: status %s", domain.ErrHistoryUnavailable, status)
			}
			return nil
		},
	}
}
