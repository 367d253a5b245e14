// services/wallet_service_test.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"nft-mint-service/models"
	"nft-mint-service/store"
)

func newWalletFixture(provider *fakeWalletProvider) (*WalletService, *store.MemoryUserStore) {
	users := store.NewMemoryUserStore()
	return NewWalletService(users, provider, testLogger()), users
}

func TestEnsureWalletReusesAttachedWallet(t *testing.T) {
	provider := &fakeWalletProvider{wallet: &models.Wallet{ID: "w-new", Address: "0xnew", AccountType: models.AccountTypeSCA}}
	svc, users := newWalletFixture(provider)

	ctx := context.Background()
	user, err := users.GetOrCreateByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	cached := &models.Wallet{ID: "w-cached", Address: "0xcached", AccountType: models.AccountTypeSCA}
	if err := users.AttachWallet(ctx, user.ID, cached); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	user, _ = users.GetByID(ctx, user.ID)

	wallet, err := svc.EnsureWallet(ctx, user, "ETH-SEPOLIA")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	if wallet.ID != "w-cached" || wallet.Address != "0xcached" {
		t.Fatalf("expected cached wallet, got %+v", wallet)
	}
	if wallet.AccountType != models.AccountTypeSCA {
		t.Fatalf("cached wallet must keep its recorded account type, got %q", wallet.AccountType)
	}
	if provider.creates() != 0 {
		t.Fatalf("cached reuse must not call the provider, got %d create calls", provider.creates())
	}
}

func TestEnsureWalletProvisionsAndPersists(t *testing.T) {
	provider := &fakeWalletProvider{wallet: &models.Wallet{ID: "w-1", Address: "0xabc", AccountType: models.AccountTypeSCA, State: models.WalletStateLive}}
	svc, users := newWalletFixture(provider)

	ctx := context.Background()
	user, _ := users.GetOrCreateByEmail(ctx, "a@x.com")

	wallet, err := svc.EnsureWallet(ctx, user, "ETH-SEPOLIA")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	if wallet.ID != "w-1" {
		t.Fatalf("expected provisioned wallet, got %+v", wallet)
	}
	if provider.creates() != 1 {
		t.Fatalf("expected one create call, got %d", provider.creates())
	}

	persisted, _ := users.GetByEmail(ctx, "a@x.com")
	if !persisted.HasWallet() || *persisted.WalletID != "w-1" {
		t.Fatalf("wallet not persisted onto user: %+v", persisted)
	}

	// Second call, even with the stale pre-provisioning user object, must
	// not create another wallet.
	again, err := svc.EnsureWallet(ctx, user, "ETH-SEPOLIA")
	if err != nil {
		t.Fatalf("second EnsureWallet: %v", err)
	}
	if again.ID != "w-1" {
		t.Fatalf("expected the same wallet on reuse, got %+v", again)
	}
	if provider.creates() != 1 {
		t.Fatalf("provider called again on reuse: %d creates", provider.creates())
	}
}

func TestEnsureWalletSerializesConcurrentRequests(t *testing.T) {
	provider := &fakeWalletProvider{wallet: &models.Wallet{ID: "w-race", Address: "0xrace", AccountType: models.AccountTypeSCA}}
	svc, users := newWalletFixture(provider)

	ctx := context.Background()
	user, _ := users.GetOrCreateByEmail(ctx, "race@x.com")

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*models.Wallet, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.EnsureWallet(ctx, user, "ETH-SEPOLIA")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i].ID != "w-race" {
			t.Fatalf("caller %d got wallet %q", i, results[i].ID)
		}
	}
	if provider.creates() != 1 {
		t.Fatalf("concurrent callers provisioned %d wallets for one user", provider.creates())
	}
}

func TestEnsureWalletProviderFailureIsFatal(t *testing.T) {
	provider := &fakeWalletProvider{
		wallet:    &models.Wallet{},
		createErr: &models.WalletProviderError{Op: "create wallet", Err: fmt.Errorf("provider returned no wallet entries")},
	}
	svc, users := newWalletFixture(provider)

	ctx := context.Background()
	user, _ := users.GetOrCreateByEmail(ctx, "a@x.com")

	_, err := svc.EnsureWallet(ctx, user, "ETH-SEPOLIA")
	var provErr *models.WalletProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected WalletProviderError, got %v", err)
	}

	persisted, _ := users.GetByEmail(ctx, "a@x.com")
	if persisted.HasWallet() {
		t.Fatalf("failed provisioning must not attach a wallet: %+v", persisted)
	}
}

func TestEnsureWalletAcceptsEOAWithWarning(t *testing.T) {
	provider := &fakeWalletProvider{wallet: &models.Wallet{ID: "w-eoa", Address: "0xeoa", AccountType: models.AccountTypeEOA}}
	svc, users := newWalletFixture(provider)

	ctx := context.Background()
	user, _ := users.GetOrCreateByEmail(ctx, "a@x.com")

	wallet, err := svc.EnsureWallet(ctx, user, "ETH-SEPOLIA")
	if err != nil {
		t.Fatalf("EOA wallets must not hard-fail: %v", err)
	}
	if wallet.AccountType != models.AccountTypeEOA {
		t.Fatalf("account type must be surfaced for caller inspection, got %q", wallet.AccountType)
	}
}

// raceUserStore simulates losing the attach race to another process: the
// first read sees no wallet, the attach is rejected, subsequent reads return
// the winner's wallet.
type raceUserStore struct {
	*store.MemoryUserStore
	mu    sync.Mutex
	reads int
	user  models.User
}

func (s *raceUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	u := s.user
	if s.reads > 1 {
		winnerID, winnerAddr := "w-winner", "0xwinner"
		u.WalletID = &winnerID
		u.WalletAddress = &winnerAddr
		u.WalletAccountType = models.AccountTypeSCA
	}
	return &u, nil
}

func (s *raceUserStore) AttachWallet(ctx context.Context, userID string, wallet *models.Wallet) error {
	return models.ErrWalletAlreadyAttached
}

func TestEnsureWalletLosesCrossProcessRace(t *testing.T) {
	users := &raceUserStore{
		MemoryUserStore: store.NewMemoryUserStore(),
		user:            models.User{ID: "u-1", Email: "race@x.com"},
	}
	provider := &fakeWalletProvider{wallet: &models.Wallet{ID: "w-loser", Address: "0xloser", AccountType: models.AccountTypeSCA}}
	svc := NewWalletService(users, provider, testLogger())

	wallet, err := svc.EnsureWallet(context.Background(), &users.user, "ETH-SEPOLIA")
	if err != nil {
		t.Fatalf("losing the race must not fail the mint: %v", err)
	}
	if wallet.ID != "w-winner" {
		t.Fatalf("expected the winner's wallet, got %q", wallet.ID)
	}
}

func TestCheckStablecoinBalance(t *testing.T) {
	min := decimal.RequireFromString("0.25")

	cases := []struct {
		name     string
		balances []models.TokenBalance
		wantErr  error
	}{
		{name: "sufficient", balances: []models.TokenBalance{{Token: "USDC", Amount: "10.50"}}},
		{name: "exact", balances: []models.TokenBalance{{Token: "USDC", Amount: "0.25"}}},
		{name: "insufficient", balances: []models.TokenBalance{{Token: "USDC", Amount: "0.10"}}, wantErr: models.ErrInsufficientBalance},
		{name: "token missing", balances: []models.TokenBalance{{Token: "EURC", Amount: "99"}}, wantErr: models.ErrInsufficientBalance},
		{name: "no balances", balances: nil, wantErr: models.ErrInsufficientBalance},
		{name: "malformed amount", balances: []models.TokenBalance{{Token: "USDC", Amount: "lots"}}, wantErr: models.ErrMalformedResponse},
	}

	for _, tc := range cases {
		provider := &fakeWalletProvider{wallet: &models.Wallet{}, balances: tc.balances}
		svc, _ := newWalletFixture(provider)

		err := svc.CheckStablecoinBalance(context.Background(), "w-1", "USDC", min)
		if tc.wantErr == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}
