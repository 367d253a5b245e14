// services/wallet_provider_client.go
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

// WalletProviderClient wraps the custodial wallet provider's REST API.
// Every failure is reported as *models.WalletProviderError because the mint
// workflow has no fallback wallet path.
type WalletProviderClient struct {
	BaseURL     string
	APIKey      string
	WalletSetID string
	AccountType string
	Client      *http.Client

	log *logrus.Logger
}

func NewWalletProviderClient(baseURL, apiKey, walletSetID, accountType string, log *logrus.Logger) *WalletProviderClient {
	return &WalletProviderClient{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		WalletSetID: walletSetID,
		AccountType: accountType,
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type createWalletsRequest struct {
	Count       int      `json:"count"`
	AccountType string   `json:"accountType"`
	Blockchains []string `json:"blockchains"`
	WalletSetID string   `json:"walletSetId"`
}

// CreateWallet provisions exactly one wallet on the given chain. The provider
// replies with the array of wallets it created; an empty array is an error.
func (c *WalletProviderClient) CreateWallet(ctx context.Context, blockchain string) (*models.Wallet, error) {
	reqBody := createWalletsRequest{
		Count:       1,
		AccountType: c.AccountType,
		Blockchains: []string{blockchain},
		WalletSetID: c.WalletSetID,
	}

	var wallets []models.Wallet
	if err := c.doJSON(ctx, http.MethodPost, "/wallets", reqBody, &wallets); err != nil {
		return nil, &models.WalletProviderError{Op: "create wallet", Err: err}
	}
	if len(wallets) == 0 {
		return nil, &models.WalletProviderError{Op: "create wallet", Err: fmt.Errorf("provider returned no wallet entries")}
	}

	wallet := wallets[0]
	c.log.WithFields(logrus.Fields{
		"wallet_id":    wallet.ID,
		"blockchain":   wallet.Blockchain,
		"account_type": wallet.AccountType,
	}).Info("wallet created")

	return &wallet, nil
}

func (c *WalletProviderClient) GetWallet(ctx context.Context, walletID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := c.doJSON(ctx, http.MethodGet, "/wallets/"+walletID, nil, &wallet); err != nil {
		return nil, &models.WalletProviderError{Op: "get wallet", Err: err}
	}
	return &wallet, nil
}

// GetBalances returns the token balances the provider tracks for a wallet.
func (c *WalletProviderClient) GetBalances(ctx context.Context, walletID string) ([]models.TokenBalance, error) {
	var balances []models.TokenBalance
	if err := c.doJSON(ctx, http.MethodGet, "/wallets/"+walletID+"/balances", nil, &balances); err != nil {
		return nil, &models.WalletProviderError{Op: "get balances", Err: err}
	}
	return balances, nil
}

func (c *WalletProviderClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	url := fmt.Sprintf("%s%s", c.BaseURL, path)

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"path":   path,
		}).Warn("wallet provider returned non-2xx")
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, models.ErrMalformedResponse)
	}
	return nil
}
