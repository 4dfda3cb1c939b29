package main

import (
	"context"
	"errors"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/clicafe/clicafe/internal/config"
	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/internal/metrics"
	"github.com/clicafe/clicafe/pkg/cache"
	"github.com/clicafe/clicafe/pkg/gateway"
	"github.com/clicafe/clicafe/pkg/retry"
)

// initLogging starts zap. defaultOutput is used when nothing is configured.
func initLogging(cfg *config.Config, defaultOutput string) error {
	output := cfg.LogOutput
	if output == "" {
		output = defaultOutput
	}
	return logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputPath: output,
	})
}

// newGateway builds the API client with the on-disk catalog cache.
func newGateway(cfg *config.Config, onExpired func()) *gateway.Client {
	var respCache *cache.Cache
	if cfg.CacheDir != "" && cfg.CacheTTL > 0 {
		c, err := cache.New(cfg.CacheDir, cfg.CacheMaxBytes, cfg.CacheTTL)
		if err != nil {
			logging.Warn("catalog cache disabled", zap.String("dir", cfg.CacheDir), zap.Error(err))
		} else {
			respCache = c
		}
	}

	login := retry.DefaultConfig()
	login.MaxAttempts = cfg.LoginAttempts

	return gateway.New(gateway.Config{
		BaseURL:          cfg.APIURL,
		Timeout:          cfg.Timeout,
		LoginRetry:       login,
		Cache:            respCache,
		OnSessionExpired: onExpired,
	})
}

// serveMetrics serves Prometheus metrics on addr until ctx ends.
func serveMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
}

// openBrowser opens url with the platform's default handler.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
