package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clicafe/clicafe/internal/callback"
	"github.com/clicafe/clicafe/internal/logging"
)

func newCallbackCommand(f *flags) *cobra.Command {
	var listen, home string
	cmd := &cobra.Command{
		Use:   "callback",
		Short: "Serve the payment outcome pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.CallbackListenAddr = listen
			}
			if cmd.Flags().Changed("home") {
				cfg.CallbackHomeURL = home
			}
			if err := initLogging(cfg, "stdout"); err != nil {
				return err
			}
			defer logging.Sync()

			if cfg.Offline {
				logging.Warn("no API configured; payment reports will fail")
			}
			if cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			client := newGateway(cfg, nil)
			if cfg.CallbackAPIToken != "" {
				client.SetTokens(cfg.CallbackAPIToken, "")
			}

			logging.Info("CLIcafe callback server starting",
				zap.String("api", cfg.APIURL),
				zap.String("home", cfg.CallbackHomeURL))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if cfg.MetricsAddr != "" && cfg.MetricsAddr != cfg.CallbackListenAddr {
				serveMetrics(ctx, cfg.MetricsAddr)
			}

			srv := callback.New(client, callback.Config{HomeURL: cfg.CallbackHomeURL})
			return srv.Run(ctx, cfg.CallbackListenAddr)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from CALLBACK_LISTEN_ADDR)")
	cmd.Flags().StringVar(&home, "home", "", "Where buyers are sent after paying")
	return cmd
}
