package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/tumcps/tupli/internal/config"
	"github.com/tumcps/tupli/internal/repository"
	"github.com/tumcps/tupli/internal/server"
	"github.com/tumcps/tupli/internal/service/iam"
	"github.com/tumcps/tupli/internal/service/registry"
)

// buildServices wires the repositories into the two service layers.
func buildServices(db *bun.DB, cfg *config.Config) (iam.Service, registry.Service, error) {
	benchmarkRepo := repository.NewBunBenchmarkRepository(db)
	artifactRepo := repository.NewBunArtifactRepository(db)
	episodeRepo := repository.NewBunEpisodeRepository(db)

	iamService, err := iam.NewService(iam.Dependencies{
		Users:      repository.NewBunUserRepository(db),
		Roles:      repository.NewBunRoleRepository(db),
		Groups:     repository.NewBunGroupRepository(db),
		Benchmarks: benchmarkRepo,
		Artifacts:  artifactRepo,
		Episodes:   episodeRepo,
	}, iam.Config{
		JWTSecret:       []byte(cfg.JWTSecret),
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create IAM service: %w", err)
	}

	registryService, err := registry.NewService(registry.Dependencies{
		Benchmarks: benchmarkRepo,
		Artifacts:  artifactRepo,
		Episodes:   episodeRepo,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create registry service: %w", err)
	}
	return iamService, registryService, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the registry server",
	Long:  `Starts the HTTP server. Migrations must have been applied (see "tuplid db migrate").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireJWTSecret(); err != nil {
			return err
		}

		db, err := connectDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		log.Printf("Connected to database")

		iamService, registryService, err := buildServices(db, cfg)
		if err != nil {
			return err
		}

		// Provision the initial admin when credentials are configured.
		if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
			if err := iamService.EnsureAdmin(cmd.Context(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
				return fmt.Errorf("provision admin user: %w", err)
			}
			log.Printf("Admin user %q provisioned", cfg.AdminUsername)
		}

		handler := server.NewH2CHandler(server.RouterOptions{
			IAM:      iamService,
			Registry: registryService,
		})

		httpServer := &http.Server{
			Addr:              cfg.ServerAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Printf("Listening on %s", cfg.ServerAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Printf("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
