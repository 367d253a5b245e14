// models/user.go
package models

import (
	"time"
)

// Wallet account types as reported by the custodial provider.
// Only smart contract accounts can receive sponsored gas.
const (
	AccountTypeSCA = "SCA"
	AccountTypeEOA = "EOA"
)

// Wallet states as reported by the custodial provider.
const (
	WalletStateLive   = "LIVE"
	WalletStateFrozen = "FROZEN"
)

// User maps an email to its custodial wallet. A row is created on the first
// mint request for an email and never deleted; the wallet fields are written
// at most once (see store.UserStore.AttachWallet).
type User struct {
	ID                string    `gorm:"primaryKey;type:uuid" json:"id"`
	Email             string    `gorm:"type:varchar(320);not null;uniqueIndex" json:"email"`
	WalletID          *string   `gorm:"type:varchar(64);index" json:"wallet_id,omitempty"`
	WalletAddress     *string   `gorm:"type:varchar(64)" json:"wallet_address,omitempty"`
	WalletAccountType string    `gorm:"type:varchar(8)" json:"wallet_account_type,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) HasWallet() bool {
	return u != nil && u.WalletID != nil && *u.WalletID != ""
}

// Wallet is a custodial wallet as the provider returns it. Not persisted as
// its own table; user rows cache the id, address and account type.
type Wallet struct {
	ID          string `json:"id"`
	Address     string `json:"address"`
	Blockchain  string `json:"blockchain"`
	AccountType string `json:"accountType"`
	State       string `json:"state"`
}

// TokenBalance is one entry of a wallet balance listing.
type TokenBalance struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}
