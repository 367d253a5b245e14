// handlers/mint_test.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"nft-mint-service/models"
	"nft-mint-service/services"
	"nft-mint-service/store"
)

const testChain = "ETH-SEPOLIA"

type stubProvider struct {
	balances []models.TokenBalance
}

func (p *stubProvider) CreateWallet(_ context.Context, blockchain string) (*models.Wallet, error) {
	return &models.Wallet{
		ID:          "w-1",
		Address:     "0xwallet",
		Blockchain:  blockchain,
		AccountType: models.AccountTypeSCA,
		State:       models.WalletStateLive,
	}, nil
}

func (p *stubProvider) GetWallet(_ context.Context, walletID string) (*models.Wallet, error) {
	return &models.Wallet{ID: walletID, Address: "0xwallet", AccountType: models.AccountTypeSCA}, nil
}

func (p *stubProvider) GetBalances(_ context.Context, _ string) ([]models.TokenBalance, error) {
	return p.balances, nil
}

type stubPinner struct{}

func (stubPinner) Configured() bool { return true }

func (stubPinner) PinJSON(_ context.Context, _ string, _ any) (string, error) {
	return "bafyTEST", nil
}

type stubCreator struct{ calls int }

func (c *stubCreator) CreateTransaction(_ context.Context, _ services.CreateTransactionRequest) (*services.TransactionResponse, error) {
	c.calls++
	return &services.TransactionResponse{ID: fmt.Sprintf("tx-%d", c.calls), State: models.TxStateInitiated}, nil
}

type stubQuerier struct{}

func (stubQuerier) GetTransaction(_ context.Context, transactionID string) (*models.TransactionResult, error) {
	return &models.TransactionResult{
		TransactionID: transactionID,
		State:         models.TxStateConfirmed,
		TxHash:        "0xfeed",
	}, nil
}

type stubChainReader struct{ tokenID int64 }

func (r *stubChainReader) TransactionReceipt(_ context.Context, _ common.Hash) (*types.Receipt, error) {
	return &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs: []*types.Log{{
			Topics: []common.Hash{
				crypto.Keccak256Hash([]byte("NFTMinted(address,uint256)")),
				common.HexToHash("0x000000000000000000000000000000000000beef"),
			},
			Data: common.LeftPadBytes(big.NewInt(r.tokenID).Bytes(), 32),
		}},
	}, nil
}

type apiFixture struct {
	app      *fiber.App
	tasks    *store.MemoryMintTaskStore
	provider *stubProvider
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	users := store.NewMemoryUserStore()
	tasks := store.NewMemoryMintTaskStore()
	provider := &stubProvider{}

	parser, err := services.NewReceiptParser(
		map[string]services.ChainReceiptReader{testChain: &stubChainReader{tokenID: 5}}, log)
	if err != nil {
		t.Fatalf("NewReceiptParser: %v", err)
	}

	mints := services.NewMintService(
		services.NewWalletService(users, provider, log),
		services.NewMetadataService(stubPinner{}, "https://gw.test/ipfs", log),
		services.NewTransactionSubmitter(&stubCreator{}, "MEDIUM", "300000", log),
		services.NewTransactionPoller(stubQuerier{}, services.PollOptions{MaxWait: time.Second, PollInterval: time.Millisecond}, log),
		parser,
		tasks,
		services.NewMintNotifier("", "Mint Service", "no-reply@test", log),
		services.MintServiceConfig{
			ContractAddresses: map[string]string{testChain: "0xc0ffee"},
			StorageCostUSDC:   decimal.RequireFromString("0.25"),
			BatchItemDelay:    time.Millisecond,
		},
		log,
	)

	app := fiber.New()
	api := app.Group("/api/v1")
	SetupMintRoutes(api, NewMintHandler(mints, parser, testChain, log))
	SetupMediaRoutes(api, NewMediaHandler(nil, log))

	return &apiFixture{app: app, tasks: tasks, provider: provider}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestMintEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	var result models.MintResult
	status := doJSON(t, f.app, "POST", "/api/v1/nfts/mint",
		`{"email":"a@x.com","metadata":{"name":"Test NFT"}}`, &result)

	if status != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	if result.TokenID != "5" {
		t.Fatalf("token_id = %q, want 5", result.TokenID)
	}
	if !result.GasSponsored {
		t.Fatal("gas_sponsored must be true")
	}
	if result.Blockchain != testChain {
		t.Fatalf("default blockchain not applied, got %q", result.Blockchain)
	}
	if result.MetadataURI != "https://gw.test/ipfs/bafyTEST" {
		t.Fatalf("metadata_uri = %q", result.MetadataURI)
	}

	// The task id in the response resolves on the status endpoint.
	var task models.MintTask
	status = doJSON(t, f.app, "GET", "/api/v1/mints/"+result.TaskID, "", &task)
	if status != fiber.StatusOK {
		t.Fatalf("status lookup = %d, want 200", status)
	}
	if task.Status != models.MintStatusConfirmed || task.TokenID != "5" {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestMintEndpointValidation(t *testing.T) {
	f := newAPIFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"missing email", `{"metadata":{"name":"N"}}`},
		{"bad email", `{"email":"nope","metadata":{"name":"N"}}`},
		{"missing metadata name", `{"email":"a@x.com","metadata":{}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status := doJSON(t, f.app, "POST", "/api/v1/nfts/mint", tc.body, nil)
			if status != fiber.StatusBadRequest {
				t.Fatalf("status = %d, want 400", status)
			}
		})
	}
}

func TestMintEndpointRejectsUnknownChain(t *testing.T) {
	f := newAPIFixture(t)

	var body struct {
		Error     string   `json:"error"`
		Supported []string `json:"supported"`
	}
	status := doJSON(t, f.app, "POST", "/api/v1/nfts/mint",
		`{"email":"a@x.com","metadata":{"name":"N"},"blockchain":"DOGE"}`, &body)

	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if len(body.Supported) == 0 {
		t.Fatal("error must list supported chains")
	}
}

func TestMintEndpointInsufficientBalance(t *testing.T) {
	f := newAPIFixture(t)
	f.provider.balances = []models.TokenBalance{{Token: "USDC", Amount: "0.01"}}

	var body struct {
		Error  string `json:"error"`
		Stage  string `json:"stage"`
		TaskID string `json:"task_id"`
	}
	status := doJSON(t, f.app, "POST", "/api/v1/nfts/mint",
		`{"email":"a@x.com","metadata":{"name":"N"},"pay_with_stablecoin":true}`, &body)

	if status != fiber.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", status)
	}
	if body.Stage != models.StageValidateBalance {
		t.Fatalf("stage = %q, want %q", body.Stage, models.StageValidateBalance)
	}
	if body.TaskID == "" {
		t.Fatal("failed mints must still reference their task")
	}
}

func TestGetMintNotFound(t *testing.T) {
	f := newAPIFixture(t)
	status := doJSON(t, f.app, "GET", "/api/v1/mints/unknown-id", "", nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestBatchMintEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	var out models.BatchMintResult
	status := doJSON(t, f.app, "POST", "/api/v1/nfts/mint/batch",
		`{"email":"a@x.com","items":[{"name":"N1"},{"name":"N2"}]}`, &out)

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if out.TotalSuccessful != 2 || out.TotalFailed != 0 {
		t.Fatalf("totals = %d/%d, want 2/0", out.TotalSuccessful, out.TotalFailed)
	}
	if len(out.Results) != 2 || out.Results[1].Result == nil {
		t.Fatalf("unexpected results: %+v", out.Results)
	}
}

func TestReceiptTokensEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	var body struct {
		TokenID  string   `json:"token_id"`
		TokenIDs []string `json:"token_ids"`
	}

	// Chain with a reader: the single-mint event resolves.
	status := doJSON(t, f.app, "GET", "/api/v1/receipts/0xfeed/tokens?blockchain="+testChain, "", &body)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body.TokenID != "5" {
		t.Fatalf("token_id = %q, want 5", body.TokenID)
	}
	if body.TokenIDs == nil || len(body.TokenIDs) != 0 {
		t.Fatalf("single-mint receipt must yield an empty batch list, got %v", body.TokenIDs)
	}

	// Supported chain without an RPC client degrades to pending.
	status = doJSON(t, f.app, "GET", "/api/v1/receipts/0xfeed/tokens?blockchain=MATIC", "", &body)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body.TokenID != models.TokenIDPending {
		t.Fatalf("token_id = %q, want pending", body.TokenID)
	}

	// Unsupported chain is a caller error.
	status = doJSON(t, f.app, "GET", "/api/v1/receipts/0xfeed/tokens?blockchain=DOGE", "", nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestMediaUploadUnconfigured(t *testing.T) {
	f := newAPIFixture(t)
	status := doJSON(t, f.app, "POST", "/api/v1/nfts/media", "", nil)
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", status)
	}
}
