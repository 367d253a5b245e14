// services/sponsorship_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"nft-mint-service/models"
)

// SponsorshipClient talks to the gas-sponsorship transaction API: it submits
// contract executions on behalf of custodial wallets and reports their state.
// The provider pays gas; callers never hold native tokens.
type SponsorshipClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	log *logrus.Logger
}

func NewSponsorshipClient(baseURL, apiKey string, log *logrus.Logger) *SponsorshipClient {
	return &SponsorshipClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type CreateTransactionRequest struct {
	IdempotencyKey       string `json:"idempotencyKey"`
	WalletID             string `json:"walletId"`
	ContractAddress      string `json:"contractAddress"`
	ABIFunctionSignature string `json:"abiFunctionSignature"`
	ABIParameters        []any  `json:"abiParameters"`
	Blockchain           string `json:"blockchain"`
	FeeLevel             string `json:"feeLevel"`
	GasLimit             string `json:"gasLimit,omitempty"`
	Amount               string `json:"amount,omitempty"`
}

type TransactionResponse struct {
	ID          string `json:"id"`
	State       string `json:"state"`
	TxHash      string `json:"txHash,omitempty"`
	BlockHash   string `json:"blockHash,omitempty"`
	BlockHeight int64  `json:"blockHeight,omitempty"`
	GasUsed     string `json:"gasUsed,omitempty"`
	ErrorReason string `json:"errorReason,omitempty"`
}

// CreateTransaction submits a contract execution. Non-2xx responses become
// *models.SponsorshipAPIError carrying the provider's message verbatim.
func (c *SponsorshipClient) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*TransactionResponse, error) {
	url := fmt.Sprintf("%s/transactions", c.BaseURL)

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.WithFields(logrus.Fields{
			"status":    resp.StatusCode,
			"wallet_id": req.WalletID,
		}).Warn("sponsorship api rejected transaction")
		return nil, &models.SponsorshipAPIError{
			HTTPStatus:      resp.StatusCode,
			ProviderMessage: providerMessage(raw),
		}
	}

	var out TransactionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode transaction response: %w", models.ErrMalformedResponse)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("transaction response missing id: %w", models.ErrMalformedResponse)
	}
	return &out, nil
}

// GetTransaction queries current transaction state. Transport and decode
// errors are returned as-is; the poller decides whether they are transient.
func (c *SponsorshipClient) GetTransaction(ctx context.Context, transactionID string) (*models.TransactionResult, error) {
	url := fmt.Sprintf("%s/transactions/%s", c.BaseURL, transactionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.SponsorshipAPIError{
			HTTPStatus:      resp.StatusCode,
			ProviderMessage: providerMessage(raw),
		}
	}

	var out TransactionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode transaction %s state: %w", transactionID, models.ErrMalformedResponse)
	}
	if out.State == "" {
		return nil, fmt.Errorf("transaction %s state missing: %w", transactionID, models.ErrMalformedResponse)
	}

	result := &models.TransactionResult{
		TransactionID: transactionID,
		State:         out.State,
		TxHash:        out.TxHash,
		BlockHash:     out.BlockHash,
		BlockHeight:   out.BlockHeight,
		GasUsed:       out.GasUsed,
		ErrorReason:   out.ErrorReason,
	}
	return result, nil
}

// providerMessage pulls a human-readable message out of an error body,
// falling back to the raw payload.
func providerMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return string(raw)
}
