package reward

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/wordchain/wordreward/clog"
	"github.com/wordchain/wordreward/common"
	"github.com/wordchain/wordreward/eth"
	"github.com/wordchain/wordreward/monitor"
	"github.com/wordchain/wordreward/notify"
)

var (
	ErrTicketNotFound  = errors.New("no reward ticket for game")
	ErrTicketInFlight  = errors.New("reward ticket still in flight")
	ErrTicketConfirmed = errors.New("reward ticket already confirmed")
	ErrNoRecipient     = errors.New("no reward recipient")
)

// Ledger is what the coordinator needs from the reward contract.
type Ledger interface {
	BankReserve(ctx context.Context) (*big.Int, error)
	SubmitReward(ctx context.Context, recipient ethcommon.Address, amount *big.Int) (*types.Transaction, error)
	AwaitConfirmation(ctx context.Context, tx *types.Transaction) error
}

type Config struct {
	// Amount paid per solved word, in base units. Defaults to one whole token.
	Amount *big.Int
	// ConfirmTimeout bounds the wait for the payout to be mined. Zero waits
	// as long as the caller's context allows.
	ConfirmTimeout time.Duration
}

// DefaultRewardAmount is one token at 18 decimals.
func DefaultRewardAmount() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(common.TokenDecimals), nil)
}

// Coordinator pays at most one reward per game.
//
// A game id gets a ticket the first time it is seen and keeps it; later calls
// for the same id are no-ops whatever the ticket status. Failed payouts are not
// retried unless an operator clears the ticket with Reset.
type Coordinator struct {
	ledger         Ledger
	notifier       notify.Notifier
	amount         *big.Int
	confirmTimeout time.Duration

	mu      sync.Mutex
	tickets map[string]*Ticket

	feed event.Feed
	now  func() time.Time
}

func NewCoordinator(ledger Ledger, notifier notify.Notifier, cfg Config) *Coordinator {
	amount := cfg.Amount
	if amount == nil || amount.Sign() <= 0 {
		amount = DefaultRewardAmount()
	}
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Coordinator{
		ledger:         ledger,
		notifier:       notifier,
		amount:         new(big.Int).Set(amount),
		confirmTimeout: cfg.ConfirmTimeout,
		tickets:        make(map[string]*Ticket),
		now:            time.Now,
	}
}

// Amount is the reward paid per game.
func (c *Coordinator) Amount() *big.Int {
	return new(big.Int).Set(c.amount)
}

// OnWordSolved pays recipient for gameID unless a ticket for gameID already
// exists. It blocks until the payout is confirmed or failed and returns the
// final ticket; created is false when the call was a no-op.
func (c *Coordinator) OnWordSolved(ctx context.Context, gameID string, recipient ethcommon.Address) (ticket Ticket, created bool) {
	if recipient == (ethcommon.Address{}) {
		return Ticket{GameID: gameID, Status: Failed, Err: ErrNoRecipient}, false
	}

	c.mu.Lock()
	if existing, ok := c.tickets[gameID]; ok {
		t := existing.clone()
		c.mu.Unlock()
		return t, false
	}
	now := c.now()
	t := &Ticket{
		GameID:    gameID,
		Recipient: recipient,
		Amount:    new(big.Int).Set(c.amount),
		Status:    Pending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.tickets[gameID] = t
	snapshot := t.clone()
	c.mu.Unlock()

	ctx = clog.AddAccount(clog.AddGameID(ctx, gameID), recipient.Hex())
	clog.Infof(ctx, "Reward ticket created amount=%v", c.amount)
	c.publish(snapshot)

	return c.pay(ctx, gameID, recipient), true
}

func (c *Coordinator) pay(ctx context.Context, gameID string, recipient ethcommon.Address) Ticket {
	reserve, err := c.ledger.BankReserve(ctx)
	if err != nil {
		return c.fail(ctx, gameID, err)
	}
	// Best effort: the reserve can still drop before the transaction lands.
	if c.amount.Cmp(reserve) > 0 {
		return c.fail(ctx, gameID, &eth.InsufficientReserveError{Amount: c.Amount(), Reserve: reserve})
	}

	tx, err := c.ledger.SubmitReward(ctx, recipient, c.amount)
	if err != nil {
		return c.fail(ctx, gameID, err)
	}
	submittedAt := c.now()
	ctx = clog.AddTxHash(ctx, tx.Hash().Hex())
	c.transition(gameID, func(t *Ticket) {
		t.Status = Submitted
		t.TxHash = tx.Hash()
	})

	confirmCtx := ctx
	if c.confirmTimeout > 0 {
		var cancel context.CancelFunc
		confirmCtx, cancel = context.WithTimeout(ctx, c.confirmTimeout)
		defer cancel()
	}
	if err := c.ledger.AwaitConfirmation(confirmCtx, tx); err != nil {
		return c.fail(ctx, gameID, err)
	}

	final := c.transition(gameID, func(t *Ticket) {
		t.Status = Confirmed
	})
	clog.Infof(ctx, "Reward confirmed amount=%v", c.amount)
	if monitor.Enabled {
		monitor.RewardConfirmed(c.amount, common.TokenDecimals, c.now().Sub(submittedAt))
	}
	c.notifier.Notify(notify.Success, "Reward Sent",
		fmt.Sprintf("%v tokens were sent to %v.", common.FormatTokenAmount(c.amount, common.TokenDecimals), common.ShortenAccount(recipient.Hex())))

	return final
}

func (c *Coordinator) fail(ctx context.Context, gameID string, err error) Ticket {
	final := c.transition(gameID, func(t *Ticket) {
		t.Status = Failed
		t.Err = err
	})

	code := errorCode(err)
	clog.Errorf(ctx, "Reward failed code=%v err=%q", code, err)
	if monitor.Enabled {
		monitor.RewardFailed(code)
	}

	if code == monitor.RewardErrorInsufficientReserve {
		c.notifier.Notify(notify.Error, "Reward Unavailable", "The reward bank does not have enough tokens to pay this win.")
	} else {
		c.notifier.Notify(notify.Error, "Reward Failed", fmt.Sprintf("Could not send your reward: %v", err))
	}

	return final
}

func errorCode(err error) monitor.RewardError {
	var subErr *eth.SubmissionError
	var confErr *eth.ConfirmationError
	switch {
	case errors.Is(err, eth.ErrNotConnected):
		return monitor.RewardErrorNotConnected
	case errors.Is(err, eth.ErrInsufficientReserve):
		return monitor.RewardErrorInsufficientReserve
	case errors.As(err, &subErr):
		return monitor.RewardErrorSubmission
	case errors.As(err, &confErr):
		return monitor.RewardErrorConfirmation
	default:
		return monitor.RewardErrorUnknown
	}
}

// transition applies f to the ticket and publishes the result. Terminal tickets
// never change.
func (c *Coordinator) transition(gameID string, f func(t *Ticket)) Ticket {
	c.mu.Lock()
	t, ok := c.tickets[gameID]
	if !ok || t.Status.Terminal() {
		var snapshot Ticket
		if ok {
			snapshot = t.clone()
		}
		c.mu.Unlock()
		return snapshot
	}
	f(t)
	t.UpdatedAt = c.now()
	snapshot := t.clone()
	c.mu.Unlock()

	c.publish(snapshot)

	return snapshot
}

func (c *Coordinator) publish(t Ticket) {
	if monitor.Enabled {
		monitor.RewardTicket(t.Status.String())
	}
	monitor.SendRewardEventAsync("reward_"+t.Status.String(), t)
	c.feed.Send(t)
}

// Ticket returns the ticket for gameID.
func (c *Coordinator) Ticket(gameID string) (Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tickets[gameID]
	if !ok {
		return Ticket{}, false
	}
	return t.clone(), true
}

// Tickets returns every ticket, oldest first.
func (c *Coordinator) Tickets() []Ticket {
	c.mu.Lock()
	tickets := make([]Ticket, 0, len(c.tickets))
	for _, t := range c.tickets {
		tickets = append(tickets, t.clone())
	}
	c.mu.Unlock()

	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].GameID < tickets[j].GameID
		}
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
	return tickets
}

// SubscribeTickets delivers a copy of the ticket on every transition.
func (c *Coordinator) SubscribeTickets(ch chan<- Ticket) event.Subscription {
	return c.feed.Subscribe(ch)
}

// Reset forgets a failed ticket so that the next OnWordSolved for gameID pays again.
// Only failed tickets can be reset.
func (c *Coordinator) Reset(gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tickets[gameID]
	if !ok {
		return ErrTicketNotFound
	}
	switch t.Status {
	case Confirmed:
		return ErrTicketConfirmed
	case Failed:
		delete(c.tickets, gameID)
		clog.Infof(clog.AddGameID(context.Background(), gameID), "Reward ticket reset err=%q", t.Err)
		return nil
	default:
		return ErrTicketInFlight
	}
}
