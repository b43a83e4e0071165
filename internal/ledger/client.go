// Package ledger builds, signs and broadcasts reading transactions and
// owns the signing account's nonce sequencing.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/sensorledger/relay-backend/internal/clock"
	"github.com/sensorledger/relay-backend/internal/model"
)

const (
	// gasLimit is sized for the fixed shape of the storeReading call.
	gasLimit = 300_000

	receiptPollInterval     = 2 * time.Second
	defaultConfirmationWait = 90 * time.Second
)

// storeReadingABI is the minimal ABI for the contract's write entry point.
const storeReadingABI = `[{"inputs":[{"internalType":"string","name":"deviceId","type":"string"},{"internalType":"int16","name":"temperatureTimes10","type":"int16"},{"internalType":"uint16","name":"humidityTimes10","type":"uint16"},{"internalType":"uint256","name":"timestampMs","type":"uint256"},{"internalType":"string","name":"cid","type":"string"}],"name":"storeReading","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// Client commits readings to the ledger contract.
type Client struct {
	backend  Backend
	account  *Account
	contract common.Address
	signer   types.Signer
	abi      abi.ABI
	metrics  RPCMetrics
	logger   *zap.Logger

	sleep            func(context.Context, time.Duration) error
	confirmationWait time.Duration
}

// NewClient constructs a ledger client for one signing account.
func NewClient(
	backend Backend,
	account *Account,
	contract common.Address,
	chainID *big.Int,
	metrics RPCMetrics,
	logger *zap.Logger,
) (*Client, error) {
	if metrics == nil {
		return nil, errors.New("rpc metrics is required")
	}
	parsed, err := abi.JSON(strings.NewReader(storeReadingABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}

	return &Client{
		backend:          backend,
		account:          account,
		contract:         contract,
		signer:           types.LatestSignerForChainID(chainID),
		abi:              parsed,
		metrics:          metrics,
		logger:           logger,
		sleep:            clock.SleepWithContext,
		confirmationWait: defaultConfirmationWait,
	}, nil
}

// Submit signs, broadcasts and confirms one reading transaction. Nonce
// acquisition through broadcast runs under the account lock so concurrent
// submissions cannot reuse a nonce; receipt polling runs outside it.
func (c *Client) Submit(ctx context.Context, reading model.Reading, cid string) (model.Receipt, error) {
	txHash, err := c.broadcast(ctx, reading, cid)
	if err != nil {
		return model.Receipt{}, err
	}
	return c.waitMined(ctx, txHash)
}

func (c *Client) broadcast(ctx context.Context, reading model.Reading, cid string) (common.Hash, error) {
	tempScaled, err := reading.TempScaled()
	if err != nil {
		return common.Hash{}, fmt.Errorf("scale temperature: %w", err)
	}
	humidityScaled, err := reading.HumidityScaled()
	if err != nil {
		return common.Hash{}, fmt.Errorf("scale humidity: %w", err)
	}

	data, err := c.abi.Pack(
		"storeReading",
		reading.DeviceID,
		tempScaled,
		humidityScaled,
		new(big.Int).SetInt64(reading.TimestampMs),
		cid,
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack calldata: %w", err)
	}

	a := c.account
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.synced {
		started := time.Now()
		nonce, nonceErr := c.backend.PendingNonceAt(ctx, a.address)
		c.metrics.Observe("pending_nonce_at", nonceErr, started)
		if nonceErr != nil {
			return common.Hash{}, fmt.Errorf("%w: fetch nonce: %v", ErrRPCUnavailable, nonceErr)
		}
		a.nonce = nonce
		a.synced = true
	}

	started := time.Now()
	gasPrice, gasErr := c.backend.SuggestGasPrice(ctx)
	c.metrics.Observe("suggest_gas_price", gasErr, started)
	if gasErr != nil {
		return common.Hash{}, fmt.Errorf("%w: fetch gas price: %v", ErrRPCUnavailable, gasErr)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    a.nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &c.contract,
		Data:     data,
	})
	signed, err := types.SignTx(tx, c.signer, a.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	started = time.Now()
	sendErr := c.backend.SendTransaction(ctx, signed)
	c.metrics.Observe("send_transaction", sendErr, started)
	if sendErr != nil {
		classified := classifyBroadcastErr(sendErr)
		if errors.Is(classified, ErrNonceConflict) {
			// The cached counter no longer matches the chain; re-sync
			// on the next submission.
			a.synced = false
		}
		return common.Hash{}, classified
	}

	a.nonce++
	c.logger.Info("transaction broadcast",
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.Uint64("nonce", signed.Nonce()),
		zap.String("device_id", reading.DeviceID),
	)
	return signed.Hash(), nil
}

func (c *Client) waitMined(ctx context.Context, txHash common.Hash) (model.Receipt, error) {
	deadline := time.Now().Add(c.confirmationWait)
	for {
		started := time.Now()
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if errors.Is(err, ethereum.NotFound) {
			receipt, err = nil, nil
		}
		c.metrics.Observe("transaction_receipt", err, started)

		if err != nil {
			c.logger.Warn("receipt query failed", zap.String("tx_hash", txHash.Hex()), zap.Error(err))
		}
		if receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return model.Receipt{}, fmt.Errorf("%w: tx %s", ErrReverted, txHash.Hex())
			}
			c.logger.Info("transaction mined",
				zap.String("tx_hash", txHash.Hex()),
				zap.Uint64("block", receipt.BlockNumber.Uint64()),
			)
			return model.Receipt{
				TxHash:      txHash.Hex(),
				BlockNumber: receipt.BlockNumber.Uint64(),
				Status:      receipt.Status,
			}, nil
		}

		if time.Now().After(deadline) {
			return model.Receipt{}, fmt.Errorf("%w: tx %s not mined within %s", ErrConfirmationTimeout, txHash.Hex(), c.confirmationWait)
		}
		if sleepErr := c.sleep(ctx, receiptPollInterval); sleepErr != nil {
			return model.Receipt{}, fmt.Errorf("wait for receipt: %w", sleepErr)
		}
	}
}
