package eth

import (
	"context"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

func mockTransaction(args mock.Arguments, idx int) *types.Transaction {
	arg := args.Get(idx)

	if arg == nil {
		return nil
	}

	return arg.(*types.Transaction)
}

func mockBigInt(args mock.Arguments, idx int) *big.Int {
	arg := args.Get(idx)

	if arg == nil {
		return nil
	}

	return arg.(*big.Int)
}

// MockLedger stands in for Ledger in reward flow tests.
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) BalanceOf(ctx context.Context, addr ethcommon.Address) (*big.Int, error) {
	args := m.Called(ctx, addr)
	return mockBigInt(args, 0), args.Error(1)
}

func (m *MockLedger) BankReserve(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	return mockBigInt(args, 0), args.Error(1)
}

func (m *MockLedger) SubmitReward(ctx context.Context, recipient ethcommon.Address, amount *big.Int) (*types.Transaction, error) {
	args := m.Called(ctx, recipient, amount)
	return mockTransaction(args, 0), args.Error(1)
}

func (m *MockLedger) AwaitConfirmation(ctx context.Context, tx *types.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// MockWordBank stands in for the contract binding.
type MockWordBank struct {
	mock.Mock
}

func (m *MockWordBank) BalanceOf(opts *bind.CallOpts, account ethcommon.Address) (*big.Int, error) {
	args := m.Called(account)
	return mockBigInt(args, 0), args.Error(1)
}

func (m *MockWordBank) BankBalance(opts *bind.CallOpts) (*big.Int, error) {
	args := m.Called()
	return mockBigInt(args, 0), args.Error(1)
}

func (m *MockWordBank) RewardWinner(opts *bind.TransactOpts, winner ethcommon.Address, amount *big.Int) (*types.Transaction, error) {
	args := m.Called(opts, winner, amount)
	return mockTransaction(args, 0), args.Error(1)
}

// StubWallet is a fixed WalletState.
type StubWallet struct {
	mu        sync.Mutex
	addr      ethcommon.Address
	connected bool
}

func NewStubWallet(addr ethcommon.Address) *StubWallet {
	return &StubWallet{addr: addr, connected: addr != ethcommon.Address{}}
}

func (w *StubWallet) Address() (ethcommon.Address, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addr, w.connected
}

func (w *StubWallet) Set(addr ethcommon.Address, connected bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.addr = addr
	w.connected = connected
}

type stubAccountManager struct {
	account accounts.Account
	err     error
}

func (am *stubAccountManager) Unlock(passphrase string) error { return nil }

func (am *stubAccountManager) Lock() error { return nil }

func (am *stubAccountManager) CreateTransactOpts(gasLimit uint64, gasPrice *big.Int) (*bind.TransactOpts, error) {
	if am.err != nil {
		return nil, am.err
	}
	return &bind.TransactOpts{
		From:     am.account.Address,
		GasLimit: gasLimit,
		GasPrice: gasPrice,
	}, nil
}

func (am *stubAccountManager) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	return tx, am.err
}

func (am *stubAccountManager) Account() accounts.Account {
	return am.account
}

// StubReceipts serves receipts for bind.WaitMined.
type StubReceipts struct {
	mu       sync.Mutex
	receipts map[ethcommon.Hash]*types.Receipt
}

func NewStubReceipts() *StubReceipts {
	return &StubReceipts{receipts: make(map[ethcommon.Hash]*types.Receipt)}
}

func (s *StubReceipts) Mine(hash ethcommon.Hash, status uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[hash] = &types.Receipt{TxHash: hash, Status: status, BlockNumber: big.NewInt(1)}
}

func (s *StubReceipts) TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (s *StubReceipts) CodeAt(ctx context.Context, account ethcommon.Address, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}

// NewStubTransaction returns an unsigned rewardWinner-shaped transaction with a
// distinct hash per nonce.
func NewStubTransaction(nonce uint64) *types.Transaction {
	return types.NewTransaction(nonce, ethcommon.Address{}, big.NewInt(0), DefaultRewardGasLimit, big.NewInt(1), nil)
}
