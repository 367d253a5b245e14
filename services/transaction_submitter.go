// services/transaction_submitter.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"nft-mint-service/models"
)

// TransactionCreator is the submission slice of the sponsorship API.
// *SponsorshipClient satisfies it.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*TransactionResponse, error)
}

// TransactionSubmitter turns a contract call into a sponsored transaction.
// Every call generates a fresh idempotency key: a retry is a new transaction,
// never a replay of an old one. The gas ceiling is a fixed setting passed to
// the provider, not computed locally.
type TransactionSubmitter struct {
	api      TransactionCreator
	feeLevel string
	gasLimit string
	log      *logrus.Logger
}

func NewTransactionSubmitter(api TransactionCreator, feeLevel, gasLimit string, log *logrus.Logger) *TransactionSubmitter {
	return &TransactionSubmitter{
		api:      api,
		feeLevel: feeLevel,
		gasLimit: gasLimit,
		log:      log,
	}
}

// Submit requests execution of contractAddress.functionSignature(parameters)
// from walletID with sponsored gas. Fatal on any provider rejection; the
// caller decides whether to retry.
func (s *TransactionSubmitter) Submit(ctx context.Context, walletID, contractAddress, functionSignature string, parameters []any, blockchain string) (*models.PendingTransaction, error) {
	req := CreateTransactionRequest{
		IdempotencyKey:       uuid.NewString(),
		WalletID:             walletID,
		ContractAddress:      contractAddress,
		ABIFunctionSignature: functionSignature,
		ABIParameters:        parameters,
		Blockchain:           blockchain,
		FeeLevel:             s.feeLevel,
		GasLimit:             s.gasLimit,
		Amount:               "0",
	}

	resp, err := s.api.CreateTransaction(ctx, req)
	if err != nil {
		return nil, err
	}

	pending := &models.PendingTransaction{
		TransactionID:     resp.ID,
		WalletID:          walletID,
		ContractAddress:   contractAddress,
		FunctionSignature: functionSignature,
		Parameters:        parameters,
		Blockchain:        blockchain,
		SubmittedAt:       time.Now().UTC(),
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": pending.TransactionID,
		"wallet_id":      walletID,
		"blockchain":     blockchain,
		"state":          resp.State,
	}).Info("sponsored transaction submitted")

	return pending, nil
}
