package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/golang/glog"
	"github.com/wordchain/wordreward/common"
	"github.com/wordchain/wordreward/eth/contracts"
)

var (
	maxRemoteCallRetries = 4
	remoteCallRetrySleep = 1 * time.Second
)

// Backend is the node connection used by the contract binding and for receipts.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// remoteClient is the part of *ethclient.Client that backend decorates.
type remoteClient interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

type backend struct {
	remoteClient
	abi          *abi.ABI
	nonceManager *NonceManager
	signer       types.Signer
}

func NewBackend(client *ethclient.Client, chainID *big.Int) (Backend, error) {
	return newBackend(client, types.LatestSignerForChainID(chainID))
}

func newBackend(client remoteClient, signer types.Signer) (*backend, error) {
	parsed, err := contracts.WordBankMetaData.GetAbi()
	if err != nil {
		return nil, err
	}

	return &backend{
		remoteClient: client,
		abi:          parsed,
		nonceManager: NewNonceManager(client),
		signer:       signer,
	}, nil
}

func (b *backend) PendingNonceAt(ctx context.Context, account ethcommon.Address) (uint64, error) {
	b.nonceManager.Lock(account)
	defer b.nonceManager.Unlock(account)

	return b.nonceManager.Next(ctx, account)
}

func (b *backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	sendErr := b.remoteClient.SendTransaction(ctx, tx)

	txLog, err := b.newTxLog(tx)
	if err != nil {
		txLog.method = "unknown"
	}

	if sendErr != nil {
		glog.Infof("\n%vEth Transaction%v\n\nInvoking transaction: \"%v\". Inputs: \"%v\"   \nTransaction Failed: %v\n\n%v\n", strings.Repeat("*", 30), strings.Repeat("*", 30), txLog.method, txLog.inputs, sendErr, strings.Repeat("*", 75))
		return sendErr
	}

	// only a transaction the node accepted consumes a nonce
	sender, err := types.Sender(b.signer, tx)
	if err != nil {
		return err
	}
	b.nonceManager.Lock(sender)
	b.nonceManager.Update(sender, tx.Nonce())
	b.nonceManager.Unlock(sender)

	glog.Infof("\n%vEth Transaction%v\n\nInvoking transaction: \"%v\". Inputs: \"%v\"  Hash: \"%v\". \n\n%v\n", strings.Repeat("*", 30), strings.Repeat("*", 30), txLog.method, txLog.inputs, tx.Hash().String(), strings.Repeat("*", 75))

	return nil
}

type txLog struct {
	method string
	inputs string
}

func (b *backend) newTxLog(tx *types.Transaction) (txLog, error) {
	data := tx.Data()
	if len(data) < 4 {
		return txLog{}, errors.New("no method signature")
	}
	method, err := b.abi.MethodById(data[:4])
	if err != nil {
		return txLog{}, errors.New("unknown ABI")
	}
	txParams := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(txParams, data[4:]); err != nil {
		return txLog{}, err
	}

	var txParamsString string
	for _, arg := range method.Inputs {
		txParamsString += fmt.Sprintf("%v: %v  ", arg.Name, txParams[arg.Name])
	}
	return txLog{
		method: method.Name,
		inputs: strings.TrimSpace(txParamsString),
	}, nil
}

func (b *backend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return b.retryRemoteCall(func() ([]byte, error) {
		return b.remoteClient.CallContract(ctx, msg, blockNumber)
	})
}

func (b *backend) TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	_, err := b.retryRemoteCall(func() ([]byte, error) {
		var err error
		receipt, err = b.remoteClient.TransactionReceipt(ctx, txHash)
		return nil, err
	})
	return receipt, err
}

// retryRemoteCall retries transport level failures with a linearly growing pause.
func (b *backend) retryRemoteCall(remoteCall func() ([]byte, error)) (out []byte, err error) {
	policy := &linearBackOff{step: remoteCallRetrySleep}
	op := func() error {
		out, err = remoteCall()
		if err != nil && !isRetryableRemoteCallError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		glog.V(common.SHORT).Infof("Retrying call to remote ethereum node in %v err=%q", next, err)
	}

	if retryErr := backoff.RetryNotify(op, backoff.WithMaxRetries(policy, uint64(maxRemoteCallRetries-1)), notify); retryErr != nil {
		return nil, retryErr
	}

	return out, nil
}

func isRetryableRemoteCallError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "EOF") ||
		strings.HasPrefix(msg, "tls: use of closed connection") ||
		strings.HasPrefix(msg, "unsupported block number")
}

// linearBackOff waits step, 2*step, 3*step ... between attempts.
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.attempt++
	return time.Duration(l.attempt) * l.step
}

func (l *linearBackOff) Reset() {
	l.attempt = 0
}
