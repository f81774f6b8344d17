package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/pageoracle/internal/api/handlers"
	"github.com/cloo-solutions/pageoracle/internal/config"
	"github.com/cloo-solutions/pageoracle/internal/server"
	"github.com/cloo-solutions/pageoracle/internal/service"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Index the configured document and serve the chat page and /ask endpoint",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides ORACLE_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTelemetry := initTelemetry(cfg.Debug)
	defer shutdownTelemetry()

	if portFlag, _ := cmd.Flags().GetString("port"); portFlag != "" {
		cfg.Port = portFlag
	}
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")

	setup, err := newEngineSetup(ctx, cfg, engineOptions{migrate: !noMigrate})
	if err != nil {
		return err
	}
	defer setup.Close()

	var engines service.EngineProvider
	switch cfg.Lifecycle {
	case config.LifecycleOnDemand:
		log.Println("engine: on-demand lifecycle, indexing on every request")
		engines = service.NewOnDemandProvider(setup.factory)
	default:
		log.Printf("engine: indexing %s", cfg.PDFPath)
		preloaded, err := service.NewPreloadedProvider(ctx, setup.factory)
		if err != nil {
			return fmt.Errorf("failed to build engine: %w", err)
		}
		engines = preloaded
	}
	defer engines.Close()

	history := newHistoryLogger(ctx, cfg, !noMigrate)
	defer history.Close(context.Background())

	querySvc := service.NewQueryService(engines, history, service.QueryConfig{
		Persona:   setup.persona,
		TopK:      cfg.TopK,
		Label:     cfg.HistoryLabel,
		Lifecycle: cfg.Lifecycle,
	})

	uiHandler, err := handlers.NewUIHandler(setup.persona.UI)
	if err != nil {
		return err
	}

	router := server.NewRouter(server.RouterConfig{
		UIHandler: uiHandler,
		AskHandler: handlers.NewAskHandler(querySvc, handlers.AskOptions{
			IncludeSources: cfg.IncludeSources,
			SecureErrors:   cfg.IsSecureErrors(),
		}),
		HealthHandler: handlers.NewHealthHandler(history, cfg.Lifecycle),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Printf("starting server on port %s (persona: %s, lifecycle: %s, index: %s)",
			cfg.Port, cfg.Persona, cfg.Lifecycle, cfg.IndexBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
