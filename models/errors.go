package models

import (
	"errors"
	"fmt"
	"time"
)

// Orchestration stages. Recorded on mint tasks as the workflow advances and
// carried by MintFailedError so callers can tell which step went wrong.
const (
	StageResolveUser       = "resolve_user"
	StageEnsureWallet      = "ensure_wallet"
	StagePublishMetadata   = "publish_metadata"
	StageValidateBalance   = "validate_stablecoin_balance"
	StageSubmitTransaction = "submit_transaction"
	StagePollTransaction   = "poll_transaction"
	StageExtractTokenID    = "extract_token_id"
	StageDone              = "done"
)

var (
	ErrUserNotFound = errors.New("user not found")

	// ErrWalletAlreadyAttached is returned by the store's compare-and-set when
	// another request already persisted a wallet for the same user.
	ErrWalletAlreadyAttached = errors.New("wallet already attached to user")

	ErrUnsupportedChain = errors.New("unsupported blockchain")

	// ErrMalformedResponse marks a provider reply that decoded into something
	// other than its documented shape. Distinct from a provider-reported error.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrInsufficientBalance is raised by the pre-submission stablecoin check.
	ErrInsufficientBalance = errors.New("insufficient stablecoin balance for storage fee")
)

// WalletProviderError is fatal for the mint workflow: there is no fallback
// wallet path when the custodial provider cannot create or return a wallet.
type WalletProviderError struct {
	Op  string
	Err error
}

func (e *WalletProviderError) Error() string {
	return fmt.Sprintf("wallet provider: %s: %v", e.Op, e.Err)
}

func (e *WalletProviderError) Unwrap() error { return e.Err }

// SponsorshipAPIError carries the gas-sponsorship provider's response to a
// rejected call. Fatal for the current attempt; resubmission is the caller's
// decision and always uses a fresh idempotency key.
type SponsorshipAPIError struct {
	HTTPStatus      int
	ProviderMessage string
}

func (e *SponsorshipAPIError) Error() string {
	return fmt.Sprintf("sponsorship api: status %d: %s", e.HTTPStatus, e.ProviderMessage)
}

// TransactionFailedError reports an explicit failure-terminal transaction
// state (FAILED, DENIED or CANCELLED). Raised immediately on observation,
// never after waiting out the poll budget.
type TransactionFailedError struct {
	TransactionID string
	State         string
	Reason        string
}

func (e *TransactionFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("transaction %s reached terminal state %s", e.TransactionID, e.State)
	}
	return fmt.Sprintf("transaction %s reached terminal state %s: %s", e.TransactionID, e.State, e.Reason)
}

// TransactionTimeoutError reports a poll budget exhausted without the
// transaction reaching any terminal state.
type TransactionTimeoutError struct {
	TransactionID string
	MaxWait       time.Duration
}

func (e *TransactionTimeoutError) Error() string {
	return fmt.Sprintf("transaction %s not terminal after %s", e.TransactionID, e.MaxWait)
}

// MintFailedError is the orchestrator's uniform wrapper: the underlying
// error untouched, plus the stage that raised it and the persisted task so
// the caller can look the attempt up later.
type MintFailedError struct {
	TaskID string
	Stage  string
	Err    error
}

func (e *MintFailedError) Error() string {
	return fmt.Sprintf("mint failed at stage %s: %v", e.Stage, e.Err)
}

func (e *MintFailedError) Unwrap() error { return e.Err }
