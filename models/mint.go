// models/mint.go
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gorm.io/gorm"
)

// TokenIDPending marks a confirmed mint whose token ID could not be read
// from the receipt yet. The backfill worker retries extraction later.
const TokenIDPending = "pending"

// Mint task lifecycle states persisted alongside each request.
const (
	MintStatusPending   = "pending"
	MintStatusSubmitted = "submitted"
	MintStatusConfirmed = "confirmed"
	MintStatusFailed    = "failed"
)

type NFTAttribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// NFTMetadata is the document pinned to IPFS before minting. Image is free
// form here; marketplaces expect an ipfs:// or https:// URI but the chain
// does not care.
type NFTMetadata struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Image       string         `json:"image,omitempty"`
	ExternalURL string         `json:"external_url,omitempty"`
	Attributes  []NFTAttribute `json:"attributes,omitempty"`
}

func (m NFTMetadata) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 256)),
		validation.Field(&m.Description, validation.Length(0, 4096)),
		validation.Field(&m.ExternalURL, is.URL),
	)
}

type MintRequest struct {
	Email             string      `json:"email"`
	Metadata          NFTMetadata `json:"metadata"`
	Blockchain        string      `json:"blockchain"`
	PayWithStablecoin bool        `json:"pay_with_stablecoin"`
}

func (r MintRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Metadata),
		validation.Field(&r.Blockchain, validation.Required),
	)
}

type BatchMintRequest struct {
	Email             string        `json:"email"`
	Blockchain        string        `json:"blockchain"`
	PayWithStablecoin bool          `json:"pay_with_stablecoin"`
	Items             []NFTMetadata `json:"items"`
}

func (r BatchMintRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Blockchain, validation.Required),
		validation.Field(&r.Items, validation.Required, validation.Length(1, 50)),
	)
}

// MintResult is what a caller gets back after a successful single mint.
// TaskID keys the persisted record served by the mint status endpoint.
type MintResult struct {
	TaskID            string `json:"task_id"`
	TokenID           string `json:"token_id"`
	TxHash            string `json:"tx_hash"`
	ContractAddress   string `json:"contract_address"`
	WalletAddress     string `json:"wallet_address"`
	Blockchain        string `json:"blockchain"`
	MetadataURI       string `json:"metadata_uri"`
	GasSponsored      bool   `json:"gas_sponsored"`
	WalletAccountType string `json:"wallet_account_type"`
}

// BatchItemResult carries the per-item outcome of a batch mint. Exactly one
// of Result and Error is set. TaskID is empty only for items never attempted
// because the batch context was cancelled.
type BatchItemResult struct {
	Index  int         `json:"index"`
	TaskID string      `json:"task_id,omitempty"`
	Result *MintResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	Stage  string      `json:"stage,omitempty"`
}

type BatchMintResult struct {
	Results         []BatchItemResult `json:"results"`
	TotalSuccessful int               `json:"total_successful"`
	TotalFailed     int               `json:"total_failed"`
}

// MintTask is the persisted record of one mint attempt, written as the
// orchestrator advances through stages.
type MintTask struct {
	ID                string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID            string         `gorm:"type:uuid;index" json:"user_id"`
	Email             string         `gorm:"type:varchar(320);index" json:"email"`
	Blockchain        string         `gorm:"type:varchar(32)" json:"blockchain"`
	Status            string         `gorm:"type:varchar(16);index" json:"status"`
	Stage             string         `gorm:"type:varchar(40)" json:"stage"`
	MetadataURI       string         `json:"metadata_uri"`
	TransactionID     string         `gorm:"type:varchar(64);index" json:"transaction_id"`
	TxHash            string         `gorm:"type:varchar(80)" json:"tx_hash"`
	TokenID           string         `gorm:"type:varchar(80)" json:"token_id"`
	ContractAddress   string         `gorm:"type:varchar(64)" json:"contract_address"`
	WalletAddress     string         `gorm:"type:varchar(64)" json:"wallet_address"`
	GasUsed           string         `gorm:"type:varchar(40)" json:"gas_used,omitempty"`
	BlockHeight       int64          `json:"block_height,omitempty"`
	Error             string         `gorm:"type:text" json:"error,omitempty"`
	PayWithStablecoin bool           `json:"pay_with_stablecoin"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}
