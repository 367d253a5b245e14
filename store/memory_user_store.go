// store/memory_user_store.go
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"nft-mint-service/models"
)

// MemoryUserStore keeps users in a map. Used by tests and by local runs
// without a database; same CAS semantics as the GORM store.
type MemoryUserStore struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	byEmail map[string]string
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

func (s *MemoryUserStore) GetOrCreateByEmail(_ context.Context, email string) (*models.User, error) {
	email = NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byEmail[email]; ok {
		clone := *s.byID[id]
		return &clone, nil
	}
	user := &models.User{ID: uuid.NewString(), Email: email}
	s.byID[user.ID] = user
	s.byEmail[email] = user.ID
	clone := *user
	return &clone, nil
}

func (s *MemoryUserStore) AttachWallet(_ context.Context, userID string, wallet *models.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	if user.HasWallet() {
		return models.ErrWalletAlreadyAttached
	}
	walletID, walletAddress := wallet.ID, wallet.Address
	user.WalletID = &walletID
	user.WalletAddress = &walletAddress
	user.WalletAccountType = wallet.AccountType
	return nil
}
