// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every externally tunable setting. It is loaded once in main
// and handed to constructors; nothing below main reads the environment.
type Config struct {
	ListenAddr string
	Env        string
	LogLevel   string

	DatabaseURL string

	// Custodial wallet provider (Circle-compatible API).
	WalletProviderBaseURL string
	WalletProviderAPIKey  string
	WalletSetID           string
	WalletAccountType     string

	// Gas sponsorship API. Usually the same host as the wallet provider but
	// kept separate so staging setups can split them.
	SponsorshipBaseURL string
	SponsorshipAPIKey  string
	FeeLevel           string
	GasLimit           string

	// Metadata pinning (Pinata-compatible API).
	PinningBaseURL string
	PinningJWT     string
	IPFSGatewayURL string

	// Per-blockchain settings, keyed by provider chain identifier
	// (ETH-SEPOLIA, MATIC-AMOY, ...).
	RPCURLs           map[string]string
	ContractAddresses map[string]string
	DefaultBlockchain string

	// Polling behaviour for sponsored transactions.
	PollInterval time.Duration
	PollMaxWait  time.Duration

	// Serial batch minting pause between items.
	BatchItemDelay time.Duration

	// Minimum USDC balance required when a request pays with stablecoin.
	MintStorageCostUSDC string

	// Cloudflare R2 for media uploads.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
	R2PublicBaseURL   string

	// Optional SendGrid notifications. Disabled when the key is empty.
	SendgridAPIKey    string
	NotifyFromName    string
	NotifyFromAddress string

	GatewayToken string
}

// Load reads the environment into a Config, applying defaults for everything
// that has a sane one and erroring on required keys.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:            getEnv("LISTEN_ADDR", ":5300"),
		Env:                   getEnv("ENVIRONMENT", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		WalletProviderBaseURL: getEnv("WALLET_PROVIDER_URL", "https://api.circle.com/v1/w3s"),
		WalletProviderAPIKey:  os.Getenv("WALLET_PROVIDER_API_KEY"),
		WalletSetID:           os.Getenv("WALLET_SET_ID"),
		WalletAccountType:     getEnv("WALLET_ACCOUNT_TYPE", "SCA"),
		SponsorshipBaseURL:    getEnv("SPONSORSHIP_API_URL", getEnv("WALLET_PROVIDER_URL", "https://api.circle.com/v1/w3s")),
		SponsorshipAPIKey:     getEnv("SPONSORSHIP_API_KEY", os.Getenv("WALLET_PROVIDER_API_KEY")),
		FeeLevel:              getEnv("SPONSORSHIP_FEE_LEVEL", "MEDIUM"),
		GasLimit:              getEnv("SPONSORSHIP_GAS_LIMIT", "300000"),
		PinningBaseURL:        getEnv("PINNING_API_URL", "https://api.pinata.cloud"),
		PinningJWT:            os.Getenv("PINNING_JWT"),
		IPFSGatewayURL:        getEnv("IPFS_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs"),
		DefaultBlockchain:     getEnv("DEFAULT_BLOCKCHAIN", "ETH-SEPOLIA"),
		MintStorageCostUSDC:   getEnv("MINT_STORAGE_COST_USDC", "0.25"),
		R2AccountID:           os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:         os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:     os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2Bucket:              getEnv("R2_BUCKET", "nft-media"),
		R2PublicBaseURL:       os.Getenv("R2_PUBLIC_BASE_URL"),
		SendgridAPIKey:        os.Getenv("SENDGRID_API_KEY"),
		NotifyFromName:        getEnv("NOTIFY_FROM_NAME", "NFT Mint Service"),
		NotifyFromAddress:     getEnv("NOTIFY_FROM_ADDRESS", "no-reply@example.com"),
		GatewayToken:          os.Getenv("GATEWAY_SHARED_TOKEN"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.WalletProviderAPIKey == "" {
		return nil, fmt.Errorf("WALLET_PROVIDER_API_KEY environment variable is required")
	}
	if cfg.WalletSetID == "" {
		return nil, fmt.Errorf("WALLET_SET_ID environment variable is required")
	}

	var err error
	if cfg.PollInterval, err = getDurationMs("TX_POLL_INTERVAL_MS", 3000); err != nil {
		return nil, err
	}
	if cfg.PollMaxWait, err = getDurationMs("TX_POLL_MAX_WAIT_MS", 120000); err != nil {
		return nil, err
	}
	if cfg.BatchItemDelay, err = getDurationMs("BATCH_ITEM_DELAY_MS", 1000); err != nil {
		return nil, err
	}

	cfg.RPCURLs = chainEnvMap("RPC_URL")
	cfg.ContractAddresses = chainEnvMap("NFT_CONTRACT")

	return cfg, nil
}

func (c *Config) NotificationsEnabled() bool {
	return c.SendgridAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationMs(key string, fallback int64) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallback) * time.Millisecond, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer of milliseconds, got %q", key, raw)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// chainEnvMap collects variables of the form <prefix>_<CHAIN> where the chain
// identifier uses underscores instead of dashes, e.g. RPC_URL_ETH_SEPOLIA
// maps to ETH-SEPOLIA.
func chainEnvMap(prefix string) map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[1] == "" {
			continue
		}
		if !strings.HasPrefix(parts[0], prefix+"_") {
			continue
		}
		chain := strings.ReplaceAll(strings.TrimPrefix(parts[0], prefix+"_"), "_", "-")
		out[chain] = parts[1]
	}
	return out
}
