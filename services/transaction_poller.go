// services/transaction_poller.go
package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"nft-mint-service/metrics"
	"nft-mint-service/models"
)

// TransactionQuerier is the status slice of the sponsorship API.
// *SponsorshipClient satisfies it.
type TransactionQuerier interface {
	GetTransaction(ctx context.Context, transactionID string) (*models.TransactionResult, error)
}

// PollOptions override the poller defaults for a single Await call. Zero
// fields keep the default.
type PollOptions struct {
	MaxWait      time.Duration
	PollInterval time.Duration
}

// TransactionPoller waits for a sponsored transaction to reach a terminal
// state. It does not enforce ordering between intermediate states: anything
// non-terminal means keep waiting, and a provider that jumps straight to
// CONFIRMED is valid.
type TransactionPoller struct {
	api      TransactionQuerier
	defaults PollOptions
	log      *logrus.Logger
}

func NewTransactionPoller(api TransactionQuerier, defaults PollOptions, log *logrus.Logger) *TransactionPoller {
	if defaults.MaxWait <= 0 {
		defaults.MaxWait = 120 * time.Second
	}
	if defaults.PollInterval <= 0 {
		defaults.PollInterval = 3 * time.Second
	}
	return &TransactionPoller{
		api:      api,
		defaults: defaults,
		log:      log,
	}
}

// Await polls until the transaction confirms, fails, or the wait budget runs
// out.
//
// CONFIRMED returns immediately. FAILED, DENIED and CANCELLED raise
// *models.TransactionFailedError immediately, without waiting out the budget.
// A query error is swallowed and retried on the next interval: a network blip
// against the status endpoint is not a FAILED blockchain state, it just
// consumes time from the budget. Cancelling ctx releases the loop promptly.
func (p *TransactionPoller) Await(ctx context.Context, transactionID string, opts *PollOptions) (*models.TransactionResult, error) {
	maxWait := p.defaults.MaxWait
	interval := p.defaults.PollInterval
	if opts != nil {
		if opts.MaxWait > 0 {
			maxWait = opts.MaxWait
		}
		if opts.PollInterval > 0 {
			interval = opts.PollInterval
		}
	}

	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for time.Since(start) < maxWait {
		result, err := p.api.GetTransaction(ctx, transactionID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.TransactionPolls.WithLabelValues("query_error").Inc()
			p.log.WithError(err).WithField("transaction_id", transactionID).
				Debug("transaction state query failed, retrying")

		case result.State == models.TxStateConfirmed:
			metrics.TransactionPolls.WithLabelValues(strings.ToLower(result.State)).Inc()
			p.log.WithFields(logrus.Fields{
				"transaction_id": transactionID,
				"tx_hash":        result.TxHash,
				"waited":         time.Since(start).Round(time.Millisecond).String(),
			}).Info("transaction confirmed")
			return result, nil

		case models.IsFailureTxState(result.State):
			metrics.TransactionPolls.WithLabelValues(strings.ToLower(result.State)).Inc()
			return nil, &models.TransactionFailedError{
				TransactionID: transactionID,
				State:         result.State,
				Reason:        result.ErrorReason,
			}

		default:
			metrics.TransactionPolls.WithLabelValues(strings.ToLower(result.State)).Inc()
			p.log.WithFields(logrus.Fields{
				"transaction_id": transactionID,
				"state":          result.State,
			}).Debug("transaction not terminal yet")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return nil, &models.TransactionTimeoutError{TransactionID: transactionID, MaxWait: maxWait}
}
