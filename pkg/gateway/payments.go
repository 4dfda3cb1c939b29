package gateway

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/pkg/protocol"
	"github.com/clicafe/clicafe/pkg/retry"
)

// ReportPayment forwards a provider outcome to POST /payments/{outcome}/.
// Transient failures are retried. The call is authenticated only when the
// client holds a token (the callback server uses a service token).
func (c *Client) ReportPayment(ctx context.Context, outcome string, report protocol.PaymentReport) error {
	switch outcome {
	case protocol.OutcomeSuccess, protocol.OutcomeFailure, protocol.OutcomePending:
	default:
		return fmt.Errorf("report payment: unknown outcome %q", outcome)
	}

	cfg := c.reportRetry
	cfg.OnRetry = func(attempt int, err error) {
		logging.Warn("payment report failed, retrying",
			zap.String("outcome", outcome),
			zap.String("payment_id", report.PaymentID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	err := retry.Do(ctx, cfg, func() error {
		err := c.do(ctx, call{
			method:   http.MethodPost,
			path:     "/payments/" + outcome + "/",
			body:     report,
			auth:     c.IsAuthenticated(),
			endpoint: "payment_report",
		})
		if transient(err) {
			return retry.Retryable(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("report payment: %w", retry.Unwrap(err))
	}
	return nil
}
