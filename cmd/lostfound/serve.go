package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/lostfound/internal/config"
	"github.com/vbonduro/lostfound/internal/db"
	"github.com/vbonduro/lostfound/internal/logging"
	"github.com/vbonduro/lostfound/internal/metrics"
	"github.com/vbonduro/lostfound/internal/notify"
	"github.com/vbonduro/lostfound/internal/photostore/local"
	"github.com/vbonduro/lostfound/internal/service"
	"github.com/vbonduro/lostfound/internal/store"
	"github.com/vbonduro/lostfound/internal/vision"
	claudevision "github.com/vbonduro/lostfound/internal/vision/claude"
	ollamavision "github.com/vbonduro/lostfound/internal/vision/ollama"
	"github.com/vbonduro/lostfound/internal/web"
	"github.com/vbonduro/lostfound/internal/web/templates"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, cleanup, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	photoStg, err := local.NewLocalPhotoStore(cfg.PhotoPath, cfg.PhotoPublicBase)
	if err != nil {
		return fmt.Errorf("failed to initialize photo store: %w", err)
	}

	m := metrics.New()
	itemService := service.NewItemService(
		store.NewItemStore(database),
		photoStg,
		newNotifier(cfg, logger),
		newSuggester(cfg, logger),
		m,
		logger,
	)
	server := web.NewServer(itemService, store.NewAdminStore(database), templates.FS, photoStg, m, web.Options{
		JWTSecret:           cfg.JWTSecret,
		SecureCookies:       cfg.SecureCookies,
		SubmitRatePerMinute: cfg.SubmitRatePerMinute,
		PhotoPublicBase:     cfg.PhotoPublicBase,
	}, logger)
	httpServer := server.HTTPServer(cfg.ListenAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newNotifier(cfg *config.Config, logger *slog.Logger) notify.Notifier {
	if cfg.SendGridAPIKey == "" {
		logger.Info("claim notifications disabled")
		return notify.Noop{}
	}
	logger.Info("using SendGrid claim notifications", "from", cfg.SendGridFromEmail)
	return notify.NewSendGrid(cfg.SendGridAPIKey, cfg.SendGridFromName, cfg.SendGridFromEmail, logger)
}

// newSuggester returns nil when photo suggestions are disabled.
func newSuggester(cfg *config.Config, logger *slog.Logger) vision.Suggester {
	switch cfg.VisionBackend {
	case "claude":
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeSuggester(cfg.ClaudeAPIKey, cfg.ClaudeModel, anthropic.WithHTTPClient(&http.Client{Timeout: time.Minute}))
	case "ollama":
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaSuggester(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("photo suggestions disabled")
		return nil
	}
}
