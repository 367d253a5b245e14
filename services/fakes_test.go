// services/fakes_test.go
package services

import (
	"context"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"nft-mint-service/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// scriptedQuerier returns whatever the script says for the Nth call,
// starting at 1.
type scriptedQuerier struct {
	mu     sync.Mutex
	calls  int
	script func(call int) (*models.TransactionResult, error)
}

func (q *scriptedQuerier) GetTransaction(_ context.Context, transactionID string) (*models.TransactionResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	result, err := q.script(q.calls)
	if result != nil && result.TransactionID == "" {
		result.TransactionID = transactionID
	}
	return result, err
}

func (q *scriptedQuerier) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

func stateResult(state string) func(int) (*models.TransactionResult, error) {
	return func(int) (*models.TransactionResult, error) {
		return &models.TransactionResult{State: state}, nil
	}
}

// fakeWalletProvider counts create calls and hands out a fixed wallet.
type fakeWalletProvider struct {
	mu          sync.Mutex
	createCalls int
	wallet      *models.Wallet
	createErr   error
	balances    []models.TokenBalance
	balancesErr error
}

func (p *fakeWalletProvider) CreateWallet(_ context.Context, blockchain string) (*models.Wallet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCalls++
	if p.createErr != nil {
		return nil, p.createErr
	}
	w := *p.wallet
	w.Blockchain = blockchain
	return &w, nil
}

func (p *fakeWalletProvider) GetWallet(_ context.Context, walletID string) (*models.Wallet, error) {
	w := *p.wallet
	w.ID = walletID
	return &w, nil
}

func (p *fakeWalletProvider) GetBalances(_ context.Context, _ string) ([]models.TokenBalance, error) {
	if p.balancesErr != nil {
		return nil, p.balancesErr
	}
	return p.balances, nil
}

func (p *fakeWalletProvider) creates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createCalls
}

// fakePinner is a configurable MetadataPinner.
type fakePinner struct {
	configured bool
	hash       string
	err        error
	pins       int
}

func (p *fakePinner) Configured() bool { return p.configured }

func (p *fakePinner) PinJSON(_ context.Context, _ string, _ any) (string, error) {
	p.pins++
	if p.err != nil {
		return "", p.err
	}
	return p.hash, nil
}

// fakeCreator scripts transaction submissions by call number, starting at 1.
type fakeCreator struct {
	mu     sync.Mutex
	calls  int
	script func(call int, req CreateTransactionRequest) (*TransactionResponse, error)

	requests []CreateTransactionRequest
}

func (c *fakeCreator) CreateTransaction(_ context.Context, req CreateTransactionRequest) (*TransactionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.requests = append(c.requests, req)
	return c.script(c.calls, req)
}

// fakeReceiptReader serves one canned receipt.
type fakeReceiptReader struct {
	receipt *types.Receipt
	err     error
}

func (r *fakeReceiptReader) TransactionReceipt(_ context.Context, _ common.Hash) (*types.Receipt, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.receipt, nil
}
