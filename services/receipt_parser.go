// services/receipt_parser.go
package services

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"nft-mint-service/models"
)

// mintContractABI covers the two events the mint contract emits. Logs from
// other contracts (token transfers, approvals) simply fail to match and are
// skipped.
const mintContractABI = `[
  {"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"to","type":"address"},{"indexed":false,"internalType":"uint256","name":"tokenId","type":"uint256"}],"name":"NFTMinted","type":"event"},
  {"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"to","type":"address"},{"indexed":false,"internalType":"uint256[]","name":"tokenIds","type":"uint256[]"}],"name":"BatchNFTMinted","type":"event"}
]`

// ChainReceiptReader is the slice of the chain RPC client the parser needs.
// *ethclient.Client satisfies it.
type ChainReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ReceiptParser recovers minted token IDs from confirmed transactions.
// Extraction is best-effort telemetry: a missing receipt, an undecodable log
// or an unconfigured chain degrades to the "pending" sentinel (or an empty
// list for batches), never to an error. The mint itself already succeeded by
// the time this runs.
type ReceiptParser struct {
	readers map[string]ChainReceiptReader
	abi     abi.ABI
	log     *logrus.Logger
}

func NewReceiptParser(readers map[string]ChainReceiptReader, log *logrus.Logger) (*ReceiptParser, error) {
	parsed, err := abi.JSON(strings.NewReader(mintContractABI))
	if err != nil {
		return nil, err
	}
	return &ReceiptParser{
		readers: readers,
		abi:     parsed,
		log:     log,
	}, nil
}

// DialChainClients connects an RPC client per configured chain. Chains whose
// endpoint cannot be dialed are skipped with a warning; receipt parsing for
// them degrades to "pending".
func DialChainClients(rpcURLs map[string]string, log *logrus.Logger) map[string]ChainReceiptReader {
	readers := make(map[string]ChainReceiptReader, len(rpcURLs))
	for chain, url := range rpcURLs {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.WithError(err).WithField("blockchain", chain).Warn("chain RPC unreachable, token extraction disabled")
			continue
		}
		readers[chain] = client
	}
	return readers
}

// ExtractTokenID reads the receipt for txHash and returns the token ID from
// the mint event, or "pending" when it cannot be determined.
func (p *ReceiptParser) ExtractTokenID(ctx context.Context, txHash, blockchain string) string {
	receipt, ok := p.fetchReceipt(ctx, txHash, blockchain)
	if !ok {
		return models.TokenIDPending
	}

	mintedID := p.abi.Events["NFTMinted"].ID
	for _, entry := range receipt.Logs {
		if len(entry.Topics) == 0 || entry.Topics[0] != mintedID {
			continue
		}
		vals, err := p.abi.Unpack("NFTMinted", entry.Data)
		if err != nil || len(vals) == 0 {
			continue
		}
		tokenID, ok := vals[0].(*big.Int)
		if !ok {
			continue
		}
		return tokenID.String()
	}

	p.log.WithFields(logrus.Fields{
		"tx_hash":    txHash,
		"blockchain": blockchain,
	}).Info("no mint event in receipt, token id pending")
	return models.TokenIDPending
}

// ExtractTokenIDs is the batch variant: it decodes the batch mint event's
// token ID array. Misses return an empty list, not "pending".
func (p *ReceiptParser) ExtractTokenIDs(ctx context.Context, txHash, blockchain string) []string {
	receipt, ok := p.fetchReceipt(ctx, txHash, blockchain)
	if !ok {
		return nil
	}

	batchID := p.abi.Events["BatchNFTMinted"].ID
	for _, entry := range receipt.Logs {
		if len(entry.Topics) == 0 || entry.Topics[0] != batchID {
			continue
		}
		vals, err := p.abi.Unpack("BatchNFTMinted", entry.Data)
		if err != nil || len(vals) == 0 {
			continue
		}
		ids, ok := vals[0].([]*big.Int)
		if !ok {
			continue
		}
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			out = append(out, id.String())
		}
		return out
	}
	return nil
}

func (p *ReceiptParser) fetchReceipt(ctx context.Context, txHash, blockchain string) (*types.Receipt, bool) {
	reader, ok := p.readers[blockchain]
	if !ok {
		p.log.WithField("blockchain", blockchain).Debug("no RPC client for chain, skipping receipt lookup")
		return nil, false
	}

	receipt, err := reader.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil || receipt == nil {
		p.log.WithFields(logrus.Fields{
			"tx_hash":    txHash,
			"blockchain": blockchain,
		}).Info("receipt not available yet")
		return nil, false
	}
	if receipt.Status == types.ReceiptStatusFailed {
		p.log.WithField("tx_hash", txHash).Warn("receipt reports reverted execution")
		return nil, false
	}
	return receipt, true
}
