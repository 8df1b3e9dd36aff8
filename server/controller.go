package server

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/golang/glog"
	gocache "github.com/patrickmn/go-cache"
	"github.com/wordchain/wordreward/clog"
	"github.com/wordchain/wordreward/common"
	"github.com/wordchain/wordreward/eth"
	"github.com/wordchain/wordreward/game"
	"github.com/wordchain/wordreward/monitor"
	"github.com/wordchain/wordreward/notify"
	"github.com/wordchain/wordreward/reward"
	"github.com/wordchain/wordreward/wallet"
)

const (
	DefaultConnectTimeout = 2 * time.Minute
	DefaultReserveTTL     = 5 * time.Second

	reserveKey = "reserve"
)

var ErrControllerStarted = fmt.Errorf("controller already started")

// LedgerReader is the read side of the ledger shown to the player.
type LedgerReader interface {
	BalanceOf(ctx context.Context, addr ethcommon.Address) (*big.Int, error)
	BankReserve(ctx context.Context) (*big.Int, error)
}

// Pusher sends unsolicited updates to the page.
type Pusher interface {
	Push(typ string, data any)
}

type ControllerConfig struct {
	Game     *game.Session
	Wallet   *wallet.Session
	Ledger   LedgerReader
	Rewards  *reward.Coordinator
	Notifier notify.Notifier
	Pusher   Pusher
	// ConnectTimeout bounds the wait for the player to answer the wallet prompt.
	ConnectTimeout time.Duration
	// ReserveTTL is how long a bank reserve read is served from memory.
	ReserveTTL time.Duration
}

type WalletStatus struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
}

type Balance struct {
	Account   string `json:"account,omitempty"`
	Balance   string `json:"balance"`
	Formatted string `json:"formatted"`
}

// Controller is the page logic: it applies game moves and wallet actions,
// shows their outcome to the player and hands solved games to the reward
// coordinator once a wallet is connected.
type Controller struct {
	game           *game.Session
	wallet         *wallet.Session
	ledger         LedgerReader
	rewards        *reward.Coordinator
	notifier       notify.Notifier
	pusher         Pusher
	connectTimeout time.Duration
	reads          *gocache.Cache

	mu sync.Mutex
	// game ids already handed to the coordinator
	triggered map[string]bool
	// game ids the player was congratulated for
	congratulated map[string]bool
	started       bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewController(cfg ControllerConfig) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		game:           cfg.Game,
		wallet:         cfg.Wallet,
		ledger:         cfg.Ledger,
		rewards:        cfg.Rewards,
		notifier:       cfg.Notifier,
		pusher:         cfg.Pusher,
		connectTimeout: cfg.ConnectTimeout,
		triggered:      make(map[string]bool),
		congratulated:  make(map[string]bool),
		ctx:            ctx,
		cancel:         cancel,
	}
	if c.notifier == nil {
		c.notifier = notify.LogNotifier{}
	}
	if c.connectTimeout == 0 {
		c.connectTimeout = DefaultConnectTimeout
	}
	ttl := cfg.ReserveTTL
	if ttl == 0 {
		ttl = DefaultReserveTTL
	}
	// no janitor: expired entries are skipped by Get and overwritten on the next read
	c.reads = gocache.New(ttl, 0)
	return c
}

// Start follows wallet transitions and reward tickets until Stop.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrControllerStarted
	}
	c.started = true
	c.mu.Unlock()

	walletEvents := make(chan wallet.Event, 16)
	tickets := make(chan reward.Ticket, 16)
	var scope event.SubscriptionScope
	scope.Track(c.wallet.SubscribeEvents(walletEvents))
	scope.Track(c.rewards.SubscribeTickets(tickets))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer scope.Close()
		for {
			select {
			case ev := <-walletEvents:
				c.onWalletEvent(ev)
			case t := <-tickets:
				c.onTicket(t)
			case <-c.ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop abandons the payouts still in flight and waits for them to return.
func (c *Controller) Stop() {
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) onWalletEvent(ev wallet.Event) {
	status := WalletStatus{Connected: ev.Kind == wallet.Connected}
	if status.Connected {
		status.Address = ev.Address.Hex()
	}
	c.push("wallet", status)

	if ev.Kind == wallet.Connected {
		// A player who solved the word before connecting is paid now.
		c.maybeReward()
	}
}

func (c *Controller) onTicket(t reward.Ticket) {
	c.push("reward", t)

	if t.Status == reward.Submitted || t.Status == reward.Confirmed {
		c.reads.Delete(reserveKey)
	}
	if t.Status != reward.Confirmed {
		return
	}
	addr, ok := c.wallet.Address()
	if !ok || addr != t.Recipient {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		bal, err := c.Balance(c.ctx)
		if err != nil {
			glog.Errorf("Error refreshing balance account=%v err=%q", addr.Hex(), err)
			return
		}
		c.push("balance", bal)
	}()
}

func (c *Controller) push(typ string, data any) {
	if c.pusher != nil {
		c.pusher.Push(typ, data)
	}
}

func (c *Controller) WalletStatus() WalletStatus {
	addr, ok := c.wallet.Address()
	if !ok {
		return WalletStatus{}
	}
	return WalletStatus{Connected: true, Address: addr.Hex()}
}

// Connect asks the player's wallet for an account and reports the outcome to the player.
func (c *Controller) Connect(ctx context.Context) (WalletStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	addr, err := c.wallet.Connect(ctx)
	switch {
	case errors.Is(err, wallet.ErrProviderAbsent):
		c.notifier.Notify(notify.Error, "MetaMask not installed", "Please install MetaMask to use this feature")
		return WalletStatus{}, err
	case errors.Is(err, context.DeadlineExceeded):
		c.notifier.Notify(notify.Error, "Connection Failed", "MetaMask did not answer in time.")
		return WalletStatus{}, err
	case err != nil:
		c.notifier.Notify(notify.Error, "Connection Failed", "Could not connect to MetaMask.")
		return WalletStatus{}, err
	}

	c.notifier.Notify(notify.Success, "Wallet Connected", fmt.Sprintf("Connected with %v", common.ShortenAccount(addr.Hex())))
	return WalletStatus{Connected: true, Address: addr.Hex()}, nil
}

func (c *Controller) Disconnect() {
	c.wallet.Disconnect()
	c.notifier.Notify(notify.Warning, "Wallet Disconnected", "You have disconnected your wallet")
}

// Balance reads the connected player's token balance.
func (c *Controller) Balance(ctx context.Context) (Balance, error) {
	addr, ok := c.wallet.Address()
	if !ok {
		return Balance{Balance: "0", Formatted: "0"}, eth.ErrNotConnected
	}
	bal, err := c.ledger.BalanceOf(ctx, addr)
	if err != nil {
		return Balance{Balance: "0", Formatted: "0"}, err
	}
	return Balance{
		Account:   addr.Hex(),
		Balance:   bal.String(),
		Formatted: common.FormatTokenAmount(bal, common.TokenDecimals),
	}, nil
}

// Reserve reads the reward contract reserve. Reads are cached for a few seconds
// and dropped whenever a payout moves tokens.
func (c *Controller) Reserve(ctx context.Context) (Balance, error) {
	var reserve *big.Int
	if cached, ok := c.reads.Get(reserveKey); ok {
		reserve = cached.(*big.Int)
	} else {
		var err error
		reserve, err = c.ledger.BankReserve(ctx)
		if err != nil {
			return Balance{Balance: "0", Formatted: "0"}, err
		}
		c.reads.SetDefault(reserveKey, reserve)
	}
	return Balance{
		Balance:   reserve.String(),
		Formatted: common.FormatTokenAmount(reserve, common.TokenDecimals),
	}, nil
}

func (c *Controller) Game() game.Snapshot {
	return c.game.Snapshot()
}

// Guess applies a letter. Solving the word congratulates the player and
// starts the payout when a wallet is connected.
func (c *Controller) Guess(letter string) (game.Snapshot, error) {
	solved, err := c.game.Guess(letter)
	if err != nil {
		return c.game.Snapshot(), err
	}
	if solved {
		c.onSolved()
	}
	return c.game.Snapshot(), nil
}

func (c *Controller) Remove(letter string) (game.Snapshot, error) {
	err := c.game.Remove(letter)
	return c.game.Snapshot(), err
}

// Reset starts a new game. A reward already in flight for the previous game
// is not affected.
func (c *Controller) Reset() game.Snapshot {
	id := c.game.Reset()
	glog.V(common.DEBUG).Infof("New game gameID=%v", id)
	return c.game.Snapshot()
}

func (c *Controller) onSolved() {
	id := c.game.ID()

	c.mu.Lock()
	first := !c.congratulated[id]
	c.congratulated[id] = true
	c.mu.Unlock()

	if first {
		if monitor.Enabled {
			monitor.GameSolved()
		}
		msg := fmt.Sprintf("You guessed the word correctly! You will be rewarded with %v token.",
			common.FormatTokenAmount(c.rewards.Amount(), common.TokenDecimals))
		if _, ok := c.wallet.Address(); !ok {
			msg = "You guessed the word correctly! Connect your wallet to receive your reward."
		}
		c.notifier.Notify(notify.Success, "Congratulations!", msg)
	}

	c.maybeReward()
}

// maybeReward hands the current game to the coordinator if it is solved, a
// wallet is connected and it was not handed over before.
func (c *Controller) maybeReward() {
	if !c.game.Solved() {
		return
	}
	id := c.game.ID()
	recipient, ok := c.wallet.Address()
	if !ok {
		return
	}

	c.mu.Lock()
	if c.triggered[id] {
		c.mu.Unlock()
		return
	}
	c.triggered[id] = true
	c.mu.Unlock()

	c.payout(id, recipient)
}

func (c *Controller) payout(gameID string, recipient ethcommon.Address) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		t, created := c.rewards.OnWordSolved(c.ctx, gameID, recipient)
		if !created {
			clog.V(common.DEBUG).Infof(clog.AddGameID(c.ctx, gameID), "Reward already handled status=%v", t.Status)
		}
	}()
}

// RetryReward clears a failed ticket and pays its recipient again.
func (c *Controller) RetryReward(gameID string) error {
	t, ok := c.rewards.Ticket(gameID)
	if !ok {
		return reward.ErrTicketNotFound
	}
	if err := c.rewards.Reset(gameID); err != nil {
		return err
	}
	c.payout(gameID, t.Recipient)
	return nil
}
