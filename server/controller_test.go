package server

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wordchain/wordreward/common"
	"github.com/wordchain/wordreward/eth"
	"github.com/wordchain/wordreward/game"
	"github.com/wordchain/wordreward/notify"
	"github.com/wordchain/wordreward/reward"
	"github.com/wordchain/wordreward/wallet"
	"go.uber.org/goleak"
)

var player = ethcommon.HexToAddress("0x00000000000000000000000000000000000000a1")

var blockchainLetters = []string{"B", "L", "O", "C", "K", "H", "A", "I", "N"}

type pushRecorder struct {
	ch chan string
}

func (p *pushRecorder) Push(typ string, data any) {
	select {
	case p.ch <- typ:
	default:
	}
}

type testController struct {
	ctrl     *Controller
	ledger   *eth.MockLedger
	provider *wallet.StubProvider
	session  *wallet.Session
	rewards  *reward.Coordinator
	notes    *notify.Recorder
	pushes   *pushRecorder
}

func newTestController(t *testing.T, provider wallet.Provider) *testController {
	g, err := game.NewSession(game.DefaultWord)
	require.Nil(t, err)

	tc := &testController{
		ledger: &eth.MockLedger{},
		notes:  &notify.Recorder{},
		pushes: &pushRecorder{ch: make(chan string, 64)},
	}
	if stub, ok := provider.(*wallet.StubProvider); ok {
		tc.provider = stub
	}
	tc.session = wallet.NewSession(provider, &wallet.MemoryStore{})
	tc.rewards = reward.NewCoordinator(tc.ledger, tc.notes, reward.Config{})
	tc.ctrl = NewController(ControllerConfig{
		Game:           g,
		Wallet:         tc.session,
		Ledger:         tc.ledger,
		Rewards:        tc.rewards,
		Notifier:       tc.notes,
		Pusher:         tc.pushes,
		ConnectTimeout: time.Second,
	})
	return tc
}

func (tc *testController) expectPayout() {
	amount := reward.DefaultRewardAmount()
	tx := eth.NewStubTransaction(1)
	tc.ledger.On("BankReserve", mock.Anything).Return(new(big.Int).Mul(amount, big.NewInt(10)), nil)
	tc.ledger.On("SubmitReward", mock.Anything, player, amount).Return(tx, nil).Once()
	tc.ledger.On("AwaitConfirmation", mock.Anything, tx).Return(nil).Once()
	tc.ledger.On("BalanceOf", mock.Anything, player).Return(amount, nil)
}

func waitPush(t *testing.T, p *pushRecorder, typ string) {
	timeout := time.After(time.Second)
	for {
		select {
		case got := <-p.ch:
			if got == typ {
				return
			}
		case <-timeout:
			t.Fatalf("no %q update pushed", typ)
		}
	}
}

func solve(t *testing.T, c *Controller) string {
	var snap game.Snapshot
	var err error
	for _, l := range blockchainLetters {
		snap, err = c.Guess(l)
		require.Nil(t, err)
	}
	require.True(t, snap.Solved)
	return snap.ID
}

func ticketStatus(rewards *reward.Coordinator, gameID string) reward.Status {
	t, ok := rewards.Ticket(gameID)
	if !ok {
		return -1
	}
	return t.Status
}

func TestController_SolveWhileConnected(t *testing.T) {
	defer goleak.VerifyNone(t, common.IgnoreRoutines()...)
	assert := assert.New(t)
	require := require.New(t)

	tc := newTestController(t, wallet.NewStubProvider(player))
	tc.expectPayout()
	require.Nil(tc.ctrl.Start())
	defer tc.ctrl.Stop()

	status, err := tc.ctrl.Connect(context.Background())
	require.Nil(err)
	assert.Equal(player.Hex(), status.Address)

	gameID := solve(t, tc.ctrl)
	assert.Eventually(func() bool { return ticketStatus(tc.rewards, gameID) == reward.Confirmed }, time.Second, 5*time.Millisecond)

	// More moves on a solved game never pay again
	_, err = tc.ctrl.Guess("Z")
	assert.Nil(err)
	waitPush(t, tc.pushes, "balance")

	tc.ctrl.Stop()
	tc.ledger.AssertNumberOfCalls(t, "SubmitReward", 1)
	assert.Equal([]string{"Wallet Connected", "Congratulations!", "Reward Sent"}, tc.notes.Titles(notify.Success))
}

func TestController_SolveThenConnect(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	tc := newTestController(t, wallet.NewStubProvider(player))
	require.Nil(tc.ctrl.Start())
	defer tc.ctrl.Stop()

	gameID := solve(t, tc.ctrl)
	msgs := tc.notes.Messages()
	require.Len(msgs, 1)
	assert.Equal("Congratulations!", msgs[0].Title)
	assert.Contains(msgs[0].Message, "Connect your wallet")

	// Nothing is paid without a wallet
	time.Sleep(20 * time.Millisecond)
	_, ok := tc.rewards.Ticket(gameID)
	assert.False(ok)
	tc.ledger.AssertNotCalled(t, "SubmitReward", mock.Anything, mock.Anything, mock.Anything)

	tc.expectPayout()
	_, err := tc.ctrl.Connect(context.Background())
	require.Nil(err)
	assert.Eventually(func() bool { return ticketStatus(tc.rewards, gameID) == reward.Confirmed }, time.Second, 5*time.Millisecond)

	// A new game needs a new win
	snap := tc.ctrl.Reset()
	assert.NotEqual(gameID, snap.ID)
	assert.False(snap.Solved)
}

func TestController_ConnectNotifications(t *testing.T) {
	assert := assert.New(t)

	// No provider at all
	tc := newTestController(t, nil)
	_, err := tc.ctrl.Connect(context.Background())
	assert.ErrorIs(err, wallet.ErrProviderAbsent)
	assert.Equal([]string{"MetaMask not installed"}, tc.notes.Titles(notify.Error))

	// Player declines
	tc = newTestController(t, wallet.NewStubProvider(player))
	tc.provider.SetRequestErr(errors.New("denied"))
	_, err = tc.ctrl.Connect(context.Background())
	assert.ErrorIs(err, wallet.ErrUserRejected)
	msgs := tc.notes.Messages()
	assert.Len(msgs, 1)
	assert.Equal("Connection Failed", msgs[0].Title)
	assert.Equal("Could not connect to MetaMask.", msgs[0].Message)
	assert.False(tc.ctrl.WalletStatus().Connected)

	// Connect then disconnect
	tc.provider.SetRequestErr(nil)
	_, err = tc.ctrl.Connect(context.Background())
	assert.Nil(err)
	msgs = tc.notes.Messages()
	assert.Equal("Connected with 0x000...00a1", msgs[len(msgs)-1].Message)

	tc.ctrl.Disconnect()
	assert.Equal([]string{"Wallet Disconnected"}, tc.notes.Titles(notify.Warning))
	assert.Equal(WalletStatus{}, tc.ctrl.WalletStatus())
}

func TestController_Balance(t *testing.T) {
	assert := assert.New(t)

	tc := newTestController(t, wallet.NewStubProvider(player))
	bal, err := tc.ctrl.Balance(context.Background())
	assert.Equal(eth.ErrNotConnected, err)
	assert.Equal("0", bal.Balance)

	_, err = tc.ctrl.Connect(context.Background())
	assert.Nil(err)
	tc.ledger.On("BalanceOf", mock.Anything, player).Return(big.NewInt(2500000000000000000), nil)
	bal, err = tc.ctrl.Balance(context.Background())
	assert.Nil(err)
	assert.Equal(Balance{Account: player.Hex(), Balance: "2500000000000000000", Formatted: "2.5"}, bal)
}

func TestController_RetryReward(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	tc := newTestController(t, wallet.NewStubProvider(player))
	require.Nil(tc.ctrl.Start())
	defer tc.ctrl.Stop()

	assert.Equal(reward.ErrTicketNotFound, tc.ctrl.RetryReward("missing"))

	tc.ledger.On("BankReserve", mock.Anything).Return(big.NewInt(0), nil).Once()
	_, err := tc.ctrl.Connect(context.Background())
	require.Nil(err)
	gameID := solve(t, tc.ctrl)
	assert.Eventually(func() bool { return ticketStatus(tc.rewards, gameID) == reward.Failed }, time.Second, 5*time.Millisecond)
	assert.Equal([]string{"Reward Unavailable"}, tc.notes.Titles(notify.Error))

	// The bank was topped up
	tc.expectPayout()
	require.Nil(tc.ctrl.RetryReward(gameID))
	assert.Eventually(func() bool { return ticketStatus(tc.rewards, gameID) == reward.Confirmed }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(tc.ctrl.RetryReward(gameID), reward.ErrTicketConfirmed)
}

func TestController_ReserveCache(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	tc := newTestController(t, wallet.NewStubProvider(player))
	tc.ledger.On("BankReserve", mock.Anything).Return(big.NewInt(5), nil).Once()
	tc.ledger.On("BankReserve", mock.Anything).Return(big.NewInt(4), nil).Once()

	first, err := tc.ctrl.Reserve(context.Background())
	require.Nil(err)
	assert.Equal("5", first.Balance)
	second, err := tc.ctrl.Reserve(context.Background())
	require.Nil(err)
	assert.Equal("5", second.Balance)
	tc.ledger.AssertNumberOfCalls(t, "BankReserve", 1)

	// a payout moving tokens drops the cached value
	tc.ctrl.onTicket(reward.Ticket{GameID: "g1", Recipient: player, Status: reward.Submitted})
	third, err := tc.ctrl.Reserve(context.Background())
	require.Nil(err)
	assert.Equal("4", third.Balance)
	tc.ledger.AssertNumberOfCalls(t, "BankReserve", 2)
}

func TestController_RevokeDuringPayout(t *testing.T) {
	defer goleak.VerifyNone(t, common.IgnoreRoutines()...)
	assert := assert.New(t)
	require := require.New(t)

	tc := newTestController(t, wallet.NewStubProvider(player))
	amount := reward.DefaultRewardAmount()
	tx := eth.NewStubTransaction(1)
	mining := make(chan struct{})
	mined := make(chan struct{})
	tc.ledger.On("BankReserve", mock.Anything).Return(new(big.Int).Mul(amount, big.NewInt(10)), nil)
	tc.ledger.On("SubmitReward", mock.Anything, player, amount).Return(tx, nil).Once()
	tc.ledger.On("AwaitConfirmation", mock.Anything, tx).Run(func(args mock.Arguments) {
		close(mining)
		<-mined
	}).Return(nil).Once()

	require.Nil(tc.ctrl.Start())
	defer tc.ctrl.Stop()
	require.Nil(tc.session.Start(context.Background()))
	defer tc.session.Stop()

	_, err := tc.ctrl.Connect(context.Background())
	require.Nil(err)
	gameID := solve(t, tc.ctrl)

	select {
	case <-mining:
	case <-time.After(time.Second):
		t.Fatal("payout never reached confirmation")
	}
	assert.Equal(reward.Submitted, ticketStatus(tc.rewards, gameID))

	// The player revokes access in the wallet while the payout is being mined
	assert.Equal(1, tc.provider.Emit(wallet.ProviderEvent{Kind: wallet.AccountsChanged}))
	assert.Eventually(func() bool { return !tc.session.State().Connected }, time.Second, 5*time.Millisecond)
	assert.Equal(reward.Submitted, ticketStatus(tc.rewards, gameID))

	close(mined)
	assert.Eventually(func() bool { return ticketStatus(tc.rewards, gameID) == reward.Confirmed }, time.Second, 5*time.Millisecond)
	tc.ledger.AssertNumberOfCalls(t, "SubmitReward", 1)
	tc.ledger.AssertNotCalled(t, "BalanceOf", mock.Anything, mock.Anything)
}

// silentProvider never answers an account request.
type silentProvider struct {
	feed event.Feed
}

func (p *silentProvider) RequestAccounts(ctx context.Context) ([]ethcommon.Address, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (p *silentProvider) Accounts(ctx context.Context) ([]ethcommon.Address, error) {
	return nil, nil
}

func (p *silentProvider) Subscribe(kind wallet.ProviderEventKind, sink chan<- wallet.ProviderEvent) event.Subscription {
	return p.feed.Subscribe(sink)
}

func TestController_ConnectTimeout(t *testing.T) {
	assert := assert.New(t)

	tc := newTestController(t, &silentProvider{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tc.ctrl.Connect(ctx)
	assert.ErrorIs(err, context.DeadlineExceeded)
	assert.NotErrorIs(err, wallet.ErrUserRejected)
	msgs := tc.notes.Messages()
	require.Len(t, msgs, 1)
	assert.Equal("Connection Failed", msgs[0].Title)
	assert.Equal("MetaMask did not answer in time.", msgs[0].Message)
	assert.False(tc.ctrl.WalletStatus().Connected)
}
