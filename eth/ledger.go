package eth

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/glog"
	"github.com/wordchain/wordreward/clog"
	"github.com/wordchain/wordreward/common"
	"github.com/wordchain/wordreward/monitor"
)

// DefaultRewardGasLimit is the gas limit attached to every rewardWinner call.
const DefaultRewardGasLimit uint64 = 2000000

// WalletState reports the connected player account.
type WalletState interface {
	Address() (ethcommon.Address, bool)
}

// WordBank is the subset of the reward contract used by Ledger.
// *contracts.WordBank satisfies it.
type WordBank interface {
	BalanceOf(opts *bind.CallOpts, account ethcommon.Address) (*big.Int, error)
	BankBalance(opts *bind.CallOpts) (*big.Int, error)
	RewardWinner(opts *bind.TransactOpts, winner ethcommon.Address, amount *big.Int) (*types.Transaction, error)
}

type LedgerConfig struct {
	Wallet         WalletState
	Bank           WordBank
	Receipts       bind.DeployBackend
	AccountManager AccountManager
	// GasLimit defaults to DefaultRewardGasLimit
	GasLimit uint64
	// GasPrice nil lets the node suggest one
	GasPrice *big.Int
}

// Ledger reads balances from the reward contract and pays rewards out of it.
// It holds no state of its own; balances are fetched on every call.
type Ledger struct {
	wallet         WalletState
	bank           WordBank
	receipts       bind.DeployBackend
	accountManager AccountManager
	gasLimit       uint64
	gasPrice       *big.Int
}

func NewLedger(cfg LedgerConfig) *Ledger {
	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = DefaultRewardGasLimit
	}
	return &Ledger{
		wallet:         cfg.Wallet,
		bank:           cfg.Bank,
		receipts:       cfg.Receipts,
		accountManager: cfg.AccountManager,
		gasLimit:       gasLimit,
		gasPrice:       cfg.GasPrice,
	}
}

func (l *Ledger) connected() bool {
	if l.wallet == nil {
		return false
	}
	_, ok := l.wallet.Address()
	return ok
}

// BalanceOf returns the token balance of addr. Read failures are logged and
// reported as a zero balance.
func (l *Ledger) BalanceOf(ctx context.Context, addr ethcommon.Address) (*big.Int, error) {
	if !l.connected() {
		return big.NewInt(0), ErrNotConnected
	}

	balance, err := l.bank.BalanceOf(&bind.CallOpts{Context: ctx}, addr)
	if err != nil {
		clog.Warningf(clog.AddAccount(ctx, addr.Hex()), "Error fetching token balance err=%q", err)
		return big.NewInt(0), nil
	}
	if balance == nil {
		return big.NewInt(0), nil
	}

	return balance, nil
}

// BankReserve returns the amount the contract can still pay out.
func (l *Ledger) BankReserve(ctx context.Context) (*big.Int, error) {
	if !l.connected() {
		return nil, ErrNotConnected
	}

	reserve, err := l.bank.BankBalance(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, err
	}

	if monitor.Enabled {
		monitor.BankReserve(reserve, common.TokenDecimals)
	}

	return reserve, nil
}

// SubmitReward sends rewardWinner(recipient, amount) signed by the operator
// account and returns the pending transaction.
//
// The reserve is checked right before sending. Another payout can still drain
// it in between; the contract has the final word and may revert.
func (l *Ledger) SubmitReward(ctx context.Context, recipient ethcommon.Address, amount *big.Int) (*types.Transaction, error) {
	if !l.connected() {
		return nil, ErrNotConnected
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, &SubmissionError{Recipient: recipient, Err: ErrInvalidAmount}
	}

	ctx = clog.AddAccount(ctx, recipient.Hex())

	reserve, err := l.BankReserve(ctx)
	if err != nil {
		return nil, &SubmissionError{Recipient: recipient, Err: err}
	}
	if amount.Cmp(reserve) > 0 {
		clog.Warningf(ctx, "Reward reserve too low amount=%v reserve=%v", amount, reserve)
		return nil, &InsufficientReserveError{Amount: new(big.Int).Set(amount), Reserve: reserve}
	}

	opts, err := l.accountManager.CreateTransactOpts(l.gasLimit, l.gasPrice)
	if err != nil {
		return nil, &SubmissionError{Recipient: recipient, Err: err}
	}
	opts.Context = ctx

	tx, err := l.bank.RewardWinner(opts, recipient, amount)
	if err != nil {
		clog.Errorf(ctx, "Error submitting reward amount=%v err=%q", amount, err)
		return nil, &SubmissionError{Recipient: recipient, Err: err}
	}

	clog.Infof(clog.AddTxHash(ctx, tx.Hash().Hex()), "Submitted reward amount=%v gasLimit=%v", amount, l.gasLimit)

	return tx, nil
}

// AwaitConfirmation blocks until tx is mined. ctx is the only bound on the wait.
// A transaction already sent is followed even if the wallet disconnects meanwhile.
func (l *Ledger) AwaitConfirmation(ctx context.Context, tx *types.Transaction) error {
	receipt, err := bind.WaitMined(ctx, l.receipts, tx)
	if err != nil {
		return &ConfirmationError{TxHash: tx.Hash(), Err: err}
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return &ConfirmationError{TxHash: tx.Hash(), Err: ErrTxReverted}
	}

	glog.V(common.DEBUG).Infof("Reward transaction mined tx=%v block=%v gasUsed=%v", tx.Hash().Hex(), receipt.BlockNumber, receipt.GasUsed)

	return nil
}
