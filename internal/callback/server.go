// Package callback serves the pages the payment provider redirects buyers
// to. Each page reports the outcome to the CLIcafe API and sends the buyer
// back to the shop.
package callback

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/internal/metrics"
	"github.com/clicafe/clicafe/pkg/protocol"
)

// Reporter forwards a payment outcome to the API. *gateway.Client
// implements it.
type Reporter interface {
	ReportPayment(ctx context.Context, outcome string, report protocol.PaymentReport) error
}

// Routes maps provider redirect paths to outcomes.
var Routes = map[string]string{
	"/pago-exitoso":   protocol.OutcomeSuccess,
	"/pago-fallido":   protocol.OutcomeFailure,
	"/pago-pendiente": protocol.OutcomePending,
}

// Config configures the server.
type Config struct {
	// HomeURL is where buyers are sent after the report.
	HomeURL string

	// ReportTimeout bounds the call to the API.
	ReportTimeout time.Duration
}

// Server is the payment callback HTTP server.
type Server struct {
	cfg      Config
	reporter Reporter
	engine   *gin.Engine
}

// New builds the server and its routes.
func New(reporter Reporter, cfg Config) *Server {
	if cfg.HomeURL == "" {
		cfg.HomeURL = "/"
	}
	if cfg.ReportTimeout <= 0 {
		cfg.ReportTimeout = 30 * time.Second
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Accept", "X-Request-ID"},
		ExposeHeaders:   []string{"X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))

	s := &Server{cfg: cfg, reporter: reporter, engine: engine}
	for path, outcome := range Routes {
		engine.GET(path, s.handleOutcome(outcome))
	}
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("callback server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("callback server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleOutcome(outcome string) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := protocol.PaymentReport{
			PaymentID:         c.Query("payment_id"),
			Status:            c.Query("status"),
			ExternalReference: c.Query("external_reference"),
			MerchantOrderID:   c.Query("merchant_order_id"),
		}
		logger := logging.WithContext(c.Request.Context()).With(
			zap.String("outcome", outcome),
			zap.String("payment_id", report.PaymentID),
			zap.String("external_reference", report.ExternalReference),
		)

		reported := false
		if report.PaymentID == "" && report.ExternalReference == "" {
			logger.Warn("payment callback without payment details")
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.ReportTimeout)
			err := s.reporter.ReportPayment(ctx, outcome, report)
			cancel()
			if err != nil {
				logger.Error("payment report failed", zap.Error(err))
			} else {
				reported = true
				logger.Info("payment reported")
			}
		}
		metrics.RecordPaymentCallback(outcome, reported)

		// The buyer always goes home; a lost report is only logged.
		c.Redirect(http.StatusFound, homeWithOutcome(s.cfg.HomeURL, outcome))
	}
}

// homeWithOutcome appends ?payment=<outcome> to the home URL.
func homeWithOutcome(home, outcome string) string {
	u, err := url.Parse(home)
	if err != nil {
		return home
	}
	q := u.Query()
	q.Set("payment", outcome)
	u.RawQuery = q.Encode()
	return u.String()
}
