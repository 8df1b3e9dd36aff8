package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/golang/glog"
	"github.com/wordchain/wordreward/common"
	"github.com/wordchain/wordreward/monitor"
)

// providerEventBuffer bounds how many provider notifications can queue up
// before the provider blocks on delivery.
const providerEventBuffer = 16

// Session owns the wallet connection state. It is the only writer of State.
//
// Transitions happen through Connect, Disconnect and the three provider
// notifications; nothing is polled. Notifications from the provider are applied
// in the order they were emitted, one at a time.
type Session struct {
	provider Provider
	store    Store

	// transitionMu is held across a state change, its persistence and its
	// event, so concurrent transitions never interleave.
	transitionMu sync.Mutex

	mu    sync.Mutex
	state State

	feed event.Feed

	working bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewSession(provider Provider, store Store) *Session {
	return &Session{
		provider: provider,
		store:    store,
		state:    disconnectedState(),
	}
}

// Start subscribes to the provider's notification channels, restores the
// persisted address and begins applying notifications. Every subscription made
// here is released by Stop or when ctx is done.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.working {
		s.mu.Unlock()
		return ErrSessionStarted
	}
	cancelCtx, cancel := context.WithCancel(ctx)
	s.working = true
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	sink := make(chan ProviderEvent, providerEventBuffer)
	var scope event.SubscriptionScope
	subs := make(map[ProviderEventKind]event.Subscription, len(ProviderEventKinds))
	if s.provider != nil {
		for _, kind := range ProviderEventKinds {
			subs[kind] = scope.Track(s.provider.Subscribe(kind, sink))
		}
	}

	s.Restore()

	go s.loop(cancelCtx, sink, &scope, subs, done)

	return nil
}

// Stop releases the provider subscriptions and waits for pending notifications
// handling to finish. The session keeps its current state.
func (s *Session) Stop() error {
	s.mu.Lock()
	if !s.working {
		s.mu.Unlock()
		return ErrSessionStopped
	}
	s.working = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	return nil
}

func (s *Session) IsWorking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working
}

func (s *Session) loop(ctx context.Context, sink <-chan ProviderEvent, scope *event.SubscriptionScope, subs map[ProviderEventKind]event.Subscription, done chan struct{}) {
	defer close(done)
	defer scope.Close()

	accountsErr := subErr(subs[AccountsChanged])
	chainErr := subErr(subs[ChainChanged])
	disconnectErr := subErr(subs[Disconnect])

	for {
		select {
		case ev := <-sink:
			s.handle(ev)
		case err, ok := <-accountsErr:
			if !ok {
				accountsErr = nil
				continue
			}
			glog.Errorf("Wallet subscription error channel=%v err=%q", AccountsChanged, err)
		case err, ok := <-chainErr:
			if !ok {
				chainErr = nil
				continue
			}
			glog.Errorf("Wallet subscription error channel=%v err=%q", ChainChanged, err)
		case err, ok := <-disconnectErr:
			if !ok {
				disconnectErr = nil
				continue
			}
			glog.Errorf("Wallet subscription error channel=%v err=%q", Disconnect, err)
		case <-ctx.Done():
			glog.V(common.DEBUG).Infof("Wallet session done")
			return
		}
	}
}

func subErr(sub event.Subscription) <-chan error {
	if sub == nil {
		return nil
	}
	return sub.Err()
}

func (s *Session) handle(ev ProviderEvent) {
	glog.V(common.VERBOSE).Infof("Wallet provider event=%v", ev.Kind)
	switch ev.Kind {
	case AccountsChanged:
		s.OnAccountsChanged(ev.Accounts)
	case ChainChanged:
		s.OnChainChanged(ev.ChainID)
	case Disconnect:
		s.OnDisconnect()
	}
}

// SubscribeEvents delivers every Connected / Disconnected transition to ch.
// Delivery is synchronous: a slow reader delays the next transition.
func (s *Session) SubscribeEvents(ch chan<- Event) event.Subscription {
	return s.feed.Subscribe(ch)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Address returns the connected address, if any.
func (s *Session) Address() (ethcommon.Address, bool) {
	st := s.State()
	return st.Address, st.Connected
}

// Restore marks the session connected with the persisted address, if there is one.
// The address is trusted as stored; the provider is not consulted.
func (s *Session) Restore() State {
	if s.store == nil {
		return s.State()
	}

	stored, err := s.store.LastAccount()
	if err != nil {
		glog.Errorf("Error reading persisted wallet account err=%q", err)
		return s.State()
	}
	if stored == "" {
		return s.State()
	}
	if !ethcommon.IsHexAddress(stored) {
		glog.Warningf("Ignoring invalid persisted wallet account=%q", stored)
		return s.State()
	}
	addr := ethcommon.HexToAddress(stored)
	if addr == (ethcommon.Address{}) {
		return s.State()
	}

	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	if s.setConnected(addr) {
		glog.Infof("Restored wallet account=%v", addr.Hex())
		s.emit(Event{Kind: Connected, Address: addr})
	}

	return s.State()
}

// Connect asks the provider for account access and connects the first account.
// ctx bounds the wait for the user's answer.
func (s *Session) Connect(ctx context.Context) (ethcommon.Address, error) {
	if s.provider == nil {
		return ethcommon.Address{}, ErrProviderAbsent
	}

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		if errors.Is(err, ErrProviderAbsent) {
			return ethcommon.Address{}, ErrProviderAbsent
		}
		glog.Errorf("Error requesting wallet accounts err=%q", err)
		return ethcommon.Address{}, &ConnectionError{err: err}
	}
	if len(accounts) == 0 || accounts[0] == (ethcommon.Address{}) {
		return ethcommon.Address{}, &ConnectionError{err: errNoAccounts}
	}

	addr := accounts[0]

	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	// the provider may already have reported addr through accountsChanged
	changed := s.setConnected(addr)

	if s.store != nil {
		if err := s.store.SetLastAccount(addr.Hex()); err != nil {
			glog.Errorf("Error persisting wallet account=%v err=%q", addr.Hex(), err)
		}
	}

	glog.Infof("Connected wallet account=%v", addr.Hex())
	if changed {
		s.emit(Event{Kind: Connected, Address: addr})
	}

	return addr, nil
}

// Disconnect forgets the connected account, including the persisted one.
func (s *Session) Disconnect() {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	changed := s.setDisconnected()

	if s.store != nil {
		if err := s.store.ClearLastAccount(); err != nil {
			glog.Errorf("Error clearing persisted wallet account err=%q", err)
		}
	}

	glog.Infof("Disconnected wallet")
	if changed {
		s.emit(Event{Kind: Disconnected})
	}
}

// OnAccountsChanged follows the provider's active account. An empty list means
// the user revoked access.
func (s *Session) OnAccountsChanged(accounts []ethcommon.Address) {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	if len(accounts) > 0 && accounts[0] != (ethcommon.Address{}) {
		addr := accounts[0]
		if !s.setConnected(addr) {
			return
		}
		glog.Infof("Wallet account changed account=%v", addr.Hex())
		s.emit(Event{Kind: Connected, Address: addr})
		return
	}

	if !s.setDisconnected() {
		return
	}
	glog.Infof("Wallet accounts revoked")
	s.emit(Event{Kind: Disconnected})
}

// OnChainChanged drops the connection: a session never survives a network switch.
func (s *Session) OnChainChanged(chainID *big.Int) {
	glog.Infof("Wallet chain changed chainID=%v", chainID)
	s.dropConnection()
}

func (s *Session) OnDisconnect() {
	glog.Infof("Wallet provider disconnected")
	s.dropConnection()
}

func (s *Session) dropConnection() {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	if s.setDisconnected() {
		s.emit(Event{Kind: Disconnected})
	}
}

// setConnected returns false if the session was already connected to addr.
func (s *Session) setConnected(addr ethcommon.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Connected && s.state.Address == addr {
		return false
	}
	s.state = connectedState(addr, s.provider)

	return true
}

// setDisconnected returns false if the session was already disconnected.
func (s *Session) setDisconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Connected {
		return false
	}
	s.state = disconnectedState()

	return true
}

func (s *Session) emit(ev Event) {
	if monitor.Enabled {
		monitor.WalletTransition(ev.Kind.String())
	}
	s.feed.Send(ev)
}
