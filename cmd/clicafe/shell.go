package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clicafe/clicafe/internal/catalog"
	"github.com/clicafe/clicafe/internal/config"
	"github.com/clicafe/clicafe/internal/console"
	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/internal/session"
	"github.com/clicafe/clicafe/internal/shell"
	"github.com/clicafe/clicafe/pkg/gateway"
	"github.com/clicafe/clicafe/pkg/protocol"
)

func runShell(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	if err := initLogging(cfg, config.DefaultShellLog()); err != nil {
		return err
	}
	defer logging.Sync()

	cat, err := catalog.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	serveMetrics(ctx, cfg.MetricsAddr)

	sess := session.New(cfg.Color)
	hostname, _ := os.Hostname()
	opts := shell.Options{Catalog: cat, Hostname: hostname}

	expired := make(chan struct{}, 1)
	onExit := func() {}

	if !cfg.Offline {
		client := newGateway(cfg, func() {
			select {
			case expired <- struct{}{}:
			default:
			}
		})
		if err := client.Ping(ctx); err != nil {
			logging.Warn("API health check failed", zap.String("url", cfg.APIURL), zap.Error(err))
		}

		opts.Gateway = client
		opts.Products = client
		opts.OnLogin = func(email string, resp *protocol.LoginResponse) {
			tf := &gateway.TokenFile{
				Access:    resp.Access,
				Refresh:   resp.Refresh,
				ExpiresAt: gateway.TokenExpiry(resp.Access),
				Server:    cfg.APIURL,
				Email:     email,
				Name:      resp.UserProfile.Name,
				LastLogin: time.Now(),
			}
			if err := gateway.SaveToken(cfg.TokenFile, tf); err != nil {
				logging.Warn("could not save session", zap.Error(err))
			}
		}
		forget := func() {
			client.Logout()
			if err := gateway.DeleteToken(cfg.TokenFile); err != nil {
				logging.Warn("could not remove session file", zap.Error(err))
			}
		}
		opts.OnLogout = forget
		onExit = forget

		resume(ctx, client, cfg, sess)
		client.StartRefreshLoop(ctx, cfg.RefreshInterval, func(r *protocol.RefreshResponse) {
			tf, err := gateway.LoadToken(cfg.TokenFile)
			if err != nil {
				return
			}
			tf.Access = r.Access
			if r.Refresh != "" {
				tf.Refresh = r.Refresh
			}
			tf.ExpiresAt = gateway.TokenExpiry(r.Access)
			if err := gateway.SaveToken(cfg.TokenFile, tf); err != nil {
				logging.Warn("could not save refreshed session", zap.Error(err))
			}
		})
	}

	d := shell.New(opts)
	if sess.LoggedIn() {
		if err := d.SyncCart(ctx, sess); err != nil {
			logging.Warn("cart sync failed", zap.Error(err))
		}
	}

	logging.Info("shell started", zap.Bool("online", d.Online()), zap.String("api", cfg.APIURL))
	return console.New(console.Config{
		In:         os.Stdin,
		Out:        os.Stdout,
		Dispatcher: d,
		Session:    sess,
		Expired:    expired,
		OpenURL:    openBrowser,
		OnExit:     onExit,
	}).Run(ctx)
}

// resume signs the session in from the saved token file when it belongs to
// the configured server. Stale access tokens are refreshed first.
func resume(ctx context.Context, client *gateway.Client, cfg *config.Config, sess *session.Session) {
	tf, err := gateway.LoadToken(cfg.TokenFile)
	if err != nil || tf.Server != cfg.APIURL || tf.Access == "" {
		return
	}
	client.SetTokens(tf.Access, tf.Refresh)

	if tf.IsExpired(30 * time.Second) {
		resp, err := client.Refresh(ctx)
		if err != nil {
			logging.Info("saved session could not be refreshed", zap.Error(err))
			client.ClearTokens()
			gateway.DeleteToken(cfg.TokenFile)
			return
		}
		tf.Access = resp.Access
		if resp.Refresh != "" {
			tf.Refresh = resp.Refresh
		}
		tf.ExpiresAt = gateway.TokenExpiry(resp.Access)
		if err := gateway.SaveToken(cfg.TokenFile, tf); err != nil {
			logging.Warn("could not save refreshed session", zap.Error(err))
		}
	}

	sess.SignIn(&protocol.UserProfile{Email: tf.Email, Name: tf.Name}, tf.LastLogin)
	logging.Info("session resumed", zap.String("email", tf.Email))
}
