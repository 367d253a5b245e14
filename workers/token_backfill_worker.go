// workers/token_backfill_worker.go
package workers

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"nft-mint-service/metrics"
	"nft-mint-service/models"
	"nft-mint-service/services"
	"nft-mint-service/store"
)

const backfillBatchSize = 50

// TokenBackfillWorker retries token ID extraction for confirmed mints whose
// receipt was not readable at mint time. It only re-reads receipts; it never
// re-polls transaction state, which is always driven synchronously by the
// mint workflow itself.
type TokenBackfillWorker struct {
	tasks  store.MintTaskStore
	parser *services.ReceiptParser
	log    *logrus.Logger

	scheduler gocron.Scheduler
}

func NewTokenBackfillWorker(tasks store.MintTaskStore, parser *services.ReceiptParser, log *logrus.Logger) *TokenBackfillWorker {
	return &TokenBackfillWorker{
		tasks:  tasks,
		parser: parser,
		log:    log,
	}
}

// Start schedules the backfill at the given interval until Stop is called or
// ctx is cancelled.
func (w *TokenBackfillWorker) Start(ctx context.Context, interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			w.RunOnce(ctx)
		}),
	)
	if err != nil {
		return err
	}

	sched.Start()
	w.scheduler = sched
	w.log.WithField("interval", interval.String()).Info("token backfill worker started")
	return nil
}

func (w *TokenBackfillWorker) Stop() {
	if w.scheduler != nil {
		_ = w.scheduler.Shutdown()
	}
}

// RunOnce scans one batch of confirmed tasks still marked pending and tries
// to recover their token IDs from the chain.
func (w *TokenBackfillWorker) RunOnce(ctx context.Context) {
	tasks, err := w.tasks.ListAwaitingTokenID(ctx, backfillBatchSize)
	if err != nil {
		w.log.WithError(err).Warn("token backfill scan failed")
		return
	}
	if len(tasks) == 0 {
		return
	}

	recovered := 0
	for i := range tasks {
		task := &tasks[i]
		if task.TxHash == "" {
			continue
		}

		tokenID := w.parser.ExtractTokenID(ctx, task.TxHash, task.Blockchain)
		if tokenID == models.TokenIDPending {
			metrics.TokenBackfills.WithLabelValues("still_pending").Inc()
			continue
		}

		task.TokenID = tokenID
		if err := w.tasks.Save(ctx, task); err != nil {
			w.log.WithError(err).WithField("task_id", task.ID).Warn("could not persist recovered token id")
			continue
		}
		metrics.TokenBackfills.WithLabelValues("recovered").Inc()
		recovered++
		w.log.WithFields(logrus.Fields{
			"task_id":  task.ID,
			"token_id": tokenID,
		}).Info("token id recovered from receipt")
	}

	if recovered > 0 {
		w.log.WithFields(logrus.Fields{
			"scanned":   len(tasks),
			"recovered": recovered,
		}).Info("token backfill pass complete")
	}
}
