package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/qrprint/kiosk/internal/api/handlers"
	"github.com/qrprint/kiosk/internal/api/middleware"
	"github.com/qrprint/kiosk/internal/config"
	"github.com/qrprint/kiosk/internal/core"
	"github.com/qrprint/kiosk/internal/db"
	"github.com/qrprint/kiosk/internal/storage"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the kiosk HTTP server (uploads, payment hooks, lifecycle API)",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Usage:   "HTTP listen port",
				Sources: cli.EnvVars("KIOSK_PORT"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if v := cmd.Int("port"); v != 0 {
				cfg.Server.Port = int(v)
			}

			if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
				return fmt.Errorf("init database: %w", err)
			}
			defer db.Close()

			store, err := storage.New(cfg.Uploads.Dir)
			if err != nil {
				return err
			}

			auth, err := middleware.NewAuthMiddleware(cfg.Server.SessionSecret)
			if err != nil {
				return fmt.Errorf("init auth: %w", err)
			}

			svc := core.NewService(cfg.Jobs.TokenTTL)

			engine := newEngine(cfg, svc, store, auth)

			srv := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      engine,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info().Int("port", cfg.Server.Port).Bool("simulate_payment", cfg.Jobs.SimulatePayment).Msg("kiosk server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newEngine(cfg *config.Config, svc *core.Service, store *storage.Store, auth *middleware.AuthMiddleware) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.MaxMultipartMemory = cfg.Uploads.MaxUploadBytes

	jobs := handlers.NewJobHandler(cfg, svc, store)
	jobs.RegisterRoutes(&engine.RouterGroup, auth)

	return engine
}
