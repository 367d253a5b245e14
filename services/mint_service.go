// services/mint_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"nft-mint-service/metrics"
	"nft-mint-service/models"
	"nft-mint-service/store"
)

// mintFunctionSignature is the contract entrypoint invoked for every single
// mint: recipient address plus metadata URI.
const mintFunctionSignature = "mintNFT(address,string)"

// MintServiceConfig carries the orchestration settings that are data, not
// collaborators.
type MintServiceConfig struct {
	ContractAddresses map[string]string
	StorageCostUSDC   decimal.Decimal
	BatchItemDelay    time.Duration
}

// MintService sequences the full gasless mint workflow: resolve user, ensure
// wallet, publish metadata, optionally check the stablecoin balance, submit
// the sponsored transaction, poll it to a terminal state and extract the
// token ID. Stages run strictly in order; any failure aborts the remainder
// and surfaces as a single *models.MintFailedError. Side effects already
// committed (a created wallet, pinned metadata) are not rolled back; both
// are harmless to retry against.
type MintService struct {
	wallets   *WalletService
	metadata  *MetadataService
	submitter *TransactionSubmitter
	poller    *TransactionPoller
	parser    *ReceiptParser
	tasks     store.MintTaskStore
	notifier  *MintNotifier
	cfg       MintServiceConfig
	log       *logrus.Logger
}

func NewMintService(
	wallets *WalletService,
	metadata *MetadataService,
	submitter *TransactionSubmitter,
	poller *TransactionPoller,
	parser *ReceiptParser,
	tasks store.MintTaskStore,
	notifier *MintNotifier,
	cfg MintServiceConfig,
	log *logrus.Logger,
) *MintService {
	if cfg.BatchItemDelay <= 0 {
		cfg.BatchItemDelay = time.Second
	}
	return &MintService{
		wallets:   wallets,
		metadata:  metadata,
		submitter: submitter,
		poller:    poller,
		parser:    parser,
		tasks:     tasks,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
	}
}

// Mint runs one end-to-end gasless mint. The returned result always carries
// GasSponsored=true: this workflow only ever submits through the sponsorship
// path.
func (s *MintService) Mint(ctx context.Context, req models.MintRequest) (*models.MintResult, error) {
	start := time.Now()

	task := &models.MintTask{
		ID:                uuid.NewString(),
		Email:             store.NormalizeEmail(req.Email),
		Blockchain:        req.Blockchain,
		Status:            models.MintStatusPending,
		Stage:             models.StageResolveUser,
		PayWithStablecoin: req.PayWithStablecoin,
	}
	s.createTask(ctx, task)

	result, err := s.run(ctx, req, task)
	if err != nil {
		stage := task.Stage
		var failed *models.MintFailedError
		if errors.As(err, &failed) {
			stage = failed.Stage
		}

		task.Status = models.MintStatusFailed
		task.Error = err.Error()
		s.saveTask(ctx, task)

		metrics.MintsTotal.WithLabelValues("failed", stage).Inc()
		s.log.WithError(err).WithFields(logrus.Fields{
			"task_id": task.ID,
			"email":   task.Email,
			"stage":   stage,
		}).Error("mint failed")
		return nil, err
	}

	metrics.MintsTotal.WithLabelValues("confirmed", models.StageDone).Inc()
	metrics.MintDuration.WithLabelValues(req.Blockchain).Observe(time.Since(start).Seconds())
	s.log.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"email":    task.Email,
		"token_id": result.TokenID,
		"tx_hash":  result.TxHash,
	}).Info("mint confirmed")

	go s.notifier.NotifyMinted(req.Email, result)

	return result, nil
}

func (s *MintService) run(ctx context.Context, req models.MintRequest, task *models.MintTask) (*models.MintResult, error) {
	user, err := s.wallets.ResolveUser(ctx, req.Email)
	if err != nil {
		return nil, stageErr(task, models.StageResolveUser, err)
	}
	task.UserID = user.ID
	s.advance(ctx, task, models.StageEnsureWallet)

	wallet, err := s.wallets.EnsureWallet(ctx, user, req.Blockchain)
	if err != nil {
		return nil, stageErr(task, models.StageEnsureWallet, err)
	}
	task.WalletAddress = wallet.Address
	s.advance(ctx, task, models.StagePublishMetadata)

	uri := s.metadata.Publish(ctx, req.Metadata)
	task.MetadataURI = uri

	if req.PayWithStablecoin {
		s.advance(ctx, task, models.StageValidateBalance)
		chain, err := models.ChainByName(req.Blockchain)
		if err != nil {
			return nil, stageErr(task, models.StageValidateBalance, err)
		}
		if err := s.wallets.CheckStablecoinBalance(ctx, wallet.ID, chain.StablecoinSymbol, s.cfg.StorageCostUSDC); err != nil {
			return nil, stageErr(task, models.StageValidateBalance, err)
		}
	}

	s.advance(ctx, task, models.StageSubmitTransaction)
	contract := s.cfg.ContractAddresses[req.Blockchain]
	if contract == "" {
		return nil, stageErr(task, models.StageSubmitTransaction,
			fmt.Errorf("no mint contract configured for blockchain %s", req.Blockchain))
	}
	task.ContractAddress = contract

	pending, err := s.submitter.Submit(ctx, wallet.ID, contract, mintFunctionSignature,
		[]any{wallet.Address, uri}, req.Blockchain)
	if err != nil {
		return nil, stageErr(task, models.StageSubmitTransaction, err)
	}
	task.TransactionID = pending.TransactionID
	task.Status = models.MintStatusSubmitted
	s.advance(ctx, task, models.StagePollTransaction)

	txResult, err := s.poller.Await(ctx, pending.TransactionID, nil)
	if err != nil {
		return nil, stageErr(task, models.StagePollTransaction, err)
	}
	task.TxHash = txResult.TxHash
	task.GasUsed = txResult.GasUsed
	task.BlockHeight = txResult.BlockHeight
	s.advance(ctx, task, models.StageExtractTokenID)

	tokenID := s.parser.ExtractTokenID(ctx, txResult.TxHash, req.Blockchain)
	task.TokenID = tokenID
	task.Status = models.MintStatusConfirmed
	task.Stage = models.StageDone
	s.saveTask(ctx, task)

	return &models.MintResult{
		TaskID:            task.ID,
		TokenID:           tokenID,
		TxHash:            txResult.TxHash,
		ContractAddress:   contract,
		WalletAddress:     wallet.Address,
		Blockchain:        req.Blockchain,
		MetadataURI:       uri,
		GasSponsored:      true,
		WalletAccountType: wallet.AccountType,
	}, nil
}

// MintBatch runs the items serially with a fixed pause between them. One
// item failing never aborts the rest; the caller gets per-item outcomes.
// Serial execution is a deliberate throughput throttle against the
// sponsorship provider.
func (s *MintService) MintBatch(ctx context.Context, req models.BatchMintRequest) *models.BatchMintResult {
	out := &models.BatchMintResult{
		Results: make([]models.BatchItemResult, 0, len(req.Items)),
	}

	for i, md := range req.Items {
		if i > 0 {
			select {
			case <-ctx.Done():
				for j := i; j < len(req.Items); j++ {
					out.Results = append(out.Results, models.BatchItemResult{Index: j, Error: ctx.Err().Error()})
					out.TotalFailed++
				}
				return out
			case <-time.After(s.cfg.BatchItemDelay):
			}
		}

		single := models.MintRequest{
			Email:             req.Email,
			Metadata:          md,
			Blockchain:        req.Blockchain,
			PayWithStablecoin: req.PayWithStablecoin,
		}

		item := models.BatchItemResult{Index: i}
		result, err := s.Mint(ctx, single)
		if err != nil {
			var failed *models.MintFailedError
			if errors.As(err, &failed) {
				item.TaskID = failed.TaskID
				item.Stage = failed.Stage
			}
			item.Error = err.Error()
			out.TotalFailed++
		} else {
			item.TaskID = result.TaskID
			item.Result = result
			out.TotalSuccessful++
		}
		out.Results = append(out.Results, item)
	}

	return out
}

// GetTask returns a persisted mint attempt for the status endpoint.
func (s *MintService) GetTask(ctx context.Context, id string) (*models.MintTask, error) {
	return s.tasks.GetByID(ctx, id)
}

func stageErr(task *models.MintTask, stage string, err error) error {
	task.Stage = stage
	return &models.MintFailedError{TaskID: task.ID, Stage: stage, Err: err}
}

// advance moves the task to the next stage. Persistence is best effort: a
// storage hiccup must not fail a mint that the chain will happily confirm.
func (s *MintService) advance(ctx context.Context, task *models.MintTask, stage string) {
	task.Stage = stage
	s.saveTask(ctx, task)
}

func (s *MintService) createTask(ctx context.Context, task *models.MintTask) {
	if err := s.tasks.Create(ctx, task); err != nil {
		s.log.WithError(err).WithField("task_id", task.ID).Warn("could not record mint task")
	}
}

func (s *MintService) saveTask(ctx context.Context, task *models.MintTask) {
	if err := s.tasks.Save(ctx, task); err != nil {
		s.log.WithError(err).WithField("task_id", task.ID).Warn("could not update mint task")
	}
}
