package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/skill-gap-analyzer/internal/analytics"
	"github.com/jonathan/skill-gap-analyzer/internal/config"
	"github.com/jonathan/skill-gap-analyzer/internal/prompts"
	"github.com/jonathan/skill-gap-analyzer/internal/scheduler"
	"github.com/jonathan/skill-gap-analyzer/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the authentication, analysis, catalog and admin analytics endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	if servePort != 0 {
		cfg.Port = servePort
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}
	if _, err := prompts.AnalysisTemplate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}()
	if m, ok := store.(migrator); ok {
		applied, err := m.Migrate(ctx)
		if err != nil {
			return err
		}
		if len(applied) > 0 {
			log.Info().Strs("versions", applied).Msg("Applied migrations")
		}
	}

	roles, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	memo, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = memo.Close() }()

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	if client != nil {
		defer func() { _ = client.Close() }()
	}

	campus := analytics.NewService(store, memo, cfg.Analytics.CacheTTL)

	refresher, err := scheduler.New(cfg.Analytics.RefreshCron, campus)
	switch {
	case errors.Is(err, scheduler.ErrDisabled):
		log.Info().Msg("Analytics refresh disabled")
	case err != nil:
		return err
	default:
		refresher.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := refresher.Stop(stopCtx); err != nil {
				log.Warn().Err(err).Msg("Analytics refresh did not stop cleanly")
			}
		}()
	}

	srv, err := server.New(server.Config{
		Port:       cfg.Port,
		CORSOrigin: cfg.CORSOrigin,
	}, server.Deps{
		Store:        store,
		Catalog:      roles,
		Analyzer:     newAnalyzer(client, memo, cfg),
		Analytics:    campus,
		JWT:          jwtConfig,
		Passwords:    passwordConfig,
		IsAdminEmail: cfg.IsAdminEmail,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	return srv.Start(ctx)
}
