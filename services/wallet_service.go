// services/wallet_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"nft-mint-service/models"
	"nft-mint-service/store"
)

// WalletProvider is the slice of the custodial provider API the wallet
// service needs. *WalletProviderClient satisfies it.
type WalletProvider interface {
	CreateWallet(ctx context.Context, blockchain string) (*models.Wallet, error)
	GetWallet(ctx context.Context, walletID string) (*models.Wallet, error)
	GetBalances(ctx context.Context, walletID string) ([]models.TokenBalance, error)
}

// WalletService owns the user → wallet mapping. Wallet creation is
// serialized per email: concurrent first-mint requests for one address must
// not provision two wallets.
type WalletService struct {
	users    store.UserStore
	provider WalletProvider
	log      *logrus.Logger

	group singleflight.Group
}

func NewWalletService(users store.UserStore, provider WalletProvider, log *logrus.Logger) *WalletService {
	return &WalletService{
		users:    users,
		provider: provider,
		log:      log,
	}
}

// ResolveUser loads or creates the user row for an email.
func (s *WalletService) ResolveUser(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetOrCreateByEmail(ctx, email)
}

// EnsureWallet returns the user's wallet, provisioning one if none is
// attached yet. A user that already carries a walletId gets it back without
// any provider call and without re-validating the account type.
func (s *WalletService) EnsureWallet(ctx context.Context, user *models.User, blockchain string) (*models.Wallet, error) {
	if user.HasWallet() {
		return walletFromUser(user, blockchain), nil
	}

	// Callers racing on the same email share one provisioning attempt in
	// this process; the store's compare-and-set covers races across
	// processes.
	v, err, _ := s.group.Do(store.NormalizeEmail(user.Email), func() (interface{}, error) {
		return s.provisionWallet(ctx, user.ID, blockchain)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Wallet), nil
}

func (s *WalletService) provisionWallet(ctx context.Context, userID, blockchain string) (*models.Wallet, error) {
	// Re-read: another request may have attached a wallet between the
	// caller's read and our turn inside the singleflight group.
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.HasWallet() {
		return walletFromUser(user, blockchain), nil
	}

	wallet, err := s.provider.CreateWallet(ctx, blockchain)
	if err != nil {
		return nil, err
	}

	if wallet.AccountType == models.AccountTypeEOA {
		s.log.WithFields(logrus.Fields{
			"wallet_id": wallet.ID,
			"user_id":   userID,
		}).Warn("provider returned an EOA wallet; sponsored gas may be rejected")
	}

	if err := s.users.AttachWallet(ctx, userID, wallet); err != nil {
		if errors.Is(err, models.ErrWalletAlreadyAttached) {
			// Lost the cross-process race. The winner's wallet is the
			// user's wallet; ours is orphaned at the provider.
			s.log.WithFields(logrus.Fields{
				"user_id":         userID,
				"orphaned_wallet": wallet.ID,
			}).Warn("wallet already attached by a concurrent request, using existing")
			current, err := s.users.GetByID(ctx, userID)
			if err != nil {
				return nil, err
			}
			return walletFromUser(current, blockchain), nil
		}
		return nil, fmt.Errorf("persist wallet for user %s: %w", userID, err)
	}
	return wallet, nil
}

// walletFromUser rebuilds the provider wallet handle from what the user row
// recorded at attach time.
func walletFromUser(user *models.User, blockchain string) *models.Wallet {
	wallet := &models.Wallet{
		ID:          *user.WalletID,
		Blockchain:  blockchain,
		AccountType: user.WalletAccountType,
	}
	if user.WalletAddress != nil {
		wallet.Address = *user.WalletAddress
	}
	return wallet
}

// CheckStablecoinBalance verifies the wallet can cover the metadata storage
// fee in the chain's stablecoin. Called before submission, never after.
func (s *WalletService) CheckStablecoinBalance(ctx context.Context, walletID, symbol string, minAmount decimal.Decimal) error {
	balances, err := s.provider.GetBalances(ctx, walletID)
	if err != nil {
		return err
	}

	for _, b := range balances {
		if b.Token != symbol {
			continue
		}
		amount, err := decimal.NewFromString(b.Amount)
		if err != nil {
			return fmt.Errorf("balance %q for %s: %w", b.Amount, symbol, models.ErrMalformedResponse)
		}
		if amount.GreaterThanOrEqual(minAmount) {
			return nil
		}
		return fmt.Errorf("wallet %s holds %s %s, needs %s: %w",
			walletID, amount.String(), symbol, minAmount.String(), models.ErrInsufficientBalance)
	}
	return fmt.Errorf("wallet %s holds no %s: %w", walletID, symbol, models.ErrInsufficientBalance)
}
