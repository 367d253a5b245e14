// store/user_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nft-mint-service/models"
)

// UserStore persists the email → wallet mapping. AttachWallet is
// compare-and-set: it only writes when no wallet is attached yet, so two
// racing mint requests cannot both persist a wallet for one user.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetOrCreateByEmail(ctx context.Context, email string) (*models.User, error)
	AttachWallet(ctx context.Context, userID string, wallet *models.Wallet) error
}

// NormalizeEmail is applied before every lookup and insert so the unique
// index on users.email holds regardless of caller casing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &user, nil
}

func (s *GormUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", NormalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

func (s *GormUserStore) GetOrCreateByEmail(ctx context.Context, email string) (*models.User, error) {
	email = NormalizeEmail(email)
	user := models.User{ID: uuid.NewString(), Email: email}
	// DoNothing keeps the existing row when a concurrent request inserted
	// first; the follow-up select returns whichever row won.
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.GetByEmail(ctx, email)
}

func (s *GormUserStore) AttachWallet(ctx context.Context, userID string, wallet *models.Wallet) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND wallet_id IS NULL", userID).
		Updates(map[string]any{
			"wallet_id":           wallet.ID,
			"wallet_address":      wallet.Address,
			"wallet_account_type": wallet.AccountType,
		})
	if res.Error != nil {
		return fmt.Errorf("attach wallet to user %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		var user models.User
		if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrUserNotFound
			}
			return fmt.Errorf("attach wallet to user %s: %w", userID, err)
		}
		return models.ErrWalletAlreadyAttached
	}
	return nil
}
