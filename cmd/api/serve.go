package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"LinkHub_Backend/internal/auth"
	"LinkHub_Backend/internal/config"
	"LinkHub_Backend/internal/handler"
	"LinkHub_Backend/internal/middleware"
	"LinkHub_Backend/internal/service"
	"LinkHub_Backend/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  serve,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := storage.OpenDB(cmd.Context(), cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Info("database schema is up to date", "path", cfg.Database.Path)
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if rootCmdPersistentFlags.LogLevel == "" {
		setLogLevel(cfg.Log.Level)
	}
	return cfg, nil
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenDB(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	routerCfg := handler.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		InviteCode:     cfg.Auth.InviteCode,
		MaxUploadBytes: cfg.Avatar.MaxBytes,
		Health:         db,
	}

	var avatars service.AvatarStore
	switch cfg.Storage.Avatar.Backend {
	case config.AvatarBackendS3:
		s3cfg := cfg.Storage.Avatar.S3
		avatars, err = storage.NewS3AvatarStore(ctx, storage.S3Config{
			Bucket:    s3cfg.Bucket,
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			AccessKey: s3cfg.AccessKey,
			SecretKey: s3cfg.SecretKey,
			PublicURL: s3cfg.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to create s3 avatar store: %w", err)
		}
	default:
		local, err := storage.NewLocalAvatarStore(cfg.Storage.Avatar.Local.Dir, cfg.Storage.Avatar.Local.PublicPrefix)
		if err != nil {
			return fmt.Errorf("failed to create avatar store: %w", err)
		}
		avatars = local
		routerCfg.AvatarDir = local.Dir()
		routerCfg.AvatarPrefix = local.PublicPrefix()
	}

	users := storage.NewSQLiteUserStore(db)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	accounts := service.NewAccountService(users, hasher, tokens)
	profiles := service.NewProfileService(users, avatars, service.AvatarOptions{
		MaxBytes:  cfg.Avatar.MaxBytes,
		Size:      cfg.Avatar.Size,
		MaxPixels: cfg.Avatar.MaxPixels,
	})

	routerCfg.Auth = handler.NewAuthHandler(accounts)
	routerCfg.Users = handler.NewUserHandler(profiles)
	routerCfg.Gate = middleware.AuthMiddleware(tokens, users)

	if log.GetLevel() != log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting API server", "listen", cfg.Listen, "avatar_backend", cfg.Storage.Avatar.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
