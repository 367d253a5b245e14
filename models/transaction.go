// models/transaction.go
package models

import "time"

// Transaction states reported by the sponsorship provider. Any state not
// terminal keeps a poll loop waiting; ordering between intermediate states is
// not enforced; a provider that jumps straight from INITIATED to CONFIRMED
// is valid.
const (
	TxStateInitiated            = "INITIATED"
	TxStatePendingRiskScreening = "PENDING_RISK_SCREENING"
	TxStateDenied               = "DENIED"
	TxStateQueued               = "QUEUED"
	TxStateSent                 = "SENT"
	TxStateConfirmed            = "CONFIRMED"
	TxStateFailed               = "FAILED"
	TxStateCancelled            = "CANCELLED"
)

func IsTerminalTxState(state string) bool {
	switch state {
	case TxStateConfirmed, TxStateFailed, TxStateDenied, TxStateCancelled:
		return true
	}
	return false
}

// IsFailureTxState reports whether state is terminal without a confirmation.
func IsFailureTxState(state string) bool {
	switch state {
	case TxStateFailed, TxStateDenied, TxStateCancelled:
		return true
	}
	return false
}

// PendingTransaction is the handle returned by the submitter once the
// sponsorship provider accepted a contract execution. Immutable after
// creation; superseded by a TransactionResult when polling terminates.
type PendingTransaction struct {
	TransactionID     string    `json:"transaction_id"`
	WalletID          string    `json:"wallet_id"`
	ContractAddress   string    `json:"contract_address"`
	FunctionSignature string    `json:"function_signature"`
	Parameters        []any     `json:"parameters"`
	Blockchain        string    `json:"blockchain"`
	SubmittedAt       time.Time `json:"submitted_at"`
}

// TransactionResult is the provider's view of a transaction at query time.
// TxHash is populated together with CONFIRMED.
type TransactionResult struct {
	TransactionID string `json:"transaction_id"`
	State         string `json:"state"`
	TxHash        string `json:"tx_hash,omitempty"`
	BlockHash     string `json:"block_hash,omitempty"`
	BlockHeight   int64  `json:"block_height,omitempty"`
	GasUsed       string `json:"gas_used,omitempty"`
	ErrorReason   string `json:"error_reason,omitempty"`
}
