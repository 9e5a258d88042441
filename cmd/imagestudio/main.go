package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/gemini-image-studio/internal/config"
	"github.com/shouni/gemini-image-studio/internal/metrics"
	"github.com/shouni/gemini-image-studio/internal/server"
	"github.com/shouni/gemini-image-studio/pkg/assets"
	"github.com/shouni/gemini-image-studio/pkg/credential"
	"github.com/shouni/gemini-image-studio/pkg/genaiclient"
	"github.com/shouni/gemini-image-studio/pkg/generator"
	"github.com/shouni/gemini-image-studio/pkg/notify"
	"github.com/shouni/gemini-image-studio/pkg/session"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("起動に失敗しました", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg.Log))

	credPath := cfg.Credentials.Path
	if credPath == "" {
		if credPath, err = credential.DefaultPath(); err != nil {
			return err
		}
	}
	creds := credential.NewStore(credPath)
	if err := creds.Load(); err != nil {
		return err
	}
	creds.UseFallback(cfg.Gemini.APIKey)
	if !creds.HasKey() {
		slog.Warn("API キーが未設定です。PUT /apikey で設定するまで AI 機能は利用できません")
	}

	aiClient, err := genaiclient.New(creds, genaiclient.Config{
		HTTPClient: &http.Client{Timeout: cfg.Gemini.Timeout},
		BaseURL:    cfg.Gemini.BaseURL,
	})
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	cache := metrics.NewInstrumentedCache(cfg.Gemini.CacheTTL, collector)

	core, err := generator.NewGeminiImageCore(aiClient, generator.Models{
		Text:  cfg.Gemini.TextModel,
		Image: cfg.Gemini.ImageModel,
		Edit:  cfg.Gemini.EditModel,
	}, cache, cfg.Gemini.CacheTTL)
	if err != nil {
		return err
	}
	gen, err := generator.NewGeminiGenerator(core)
	if err != nil {
		return err
	}

	// gs:// の読み込みは未構成（reader なし）
	loader, err := assets.NewLoader(httpkit.New(cfg.Assets.FetchTimeout), nil)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Deps{
		Generator:   gen,
		Sessions:    session.NewStore(gen),
		Loader:      loader,
		Credentials: creds,
		Toaster:     notify.NewToaster(),
		Metrics:     collector,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("サーバーを起動します", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("サーバーが停止しました: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("シャットダウンしています")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
