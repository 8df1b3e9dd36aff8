package wallet

import (
	"context"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// StubProvider is a scriptable Provider for tests.
type StubProvider struct {
	mu            sync.Mutex
	accounts      []ethcommon.Address
	requestErr    error
	requestCalls  int
	accountsCalls int

	feeds [3]event.Feed
}

func NewStubProvider(accounts ...ethcommon.Address) *StubProvider {
	return &StubProvider{accounts: accounts}
}

func (p *StubProvider) SetAccounts(accounts ...ethcommon.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts = accounts
}

func (p *StubProvider) SetRequestErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestErr = err
}

func (p *StubProvider) RequestAccounts(ctx context.Context) ([]ethcommon.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestCalls++
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	return append([]ethcommon.Address(nil), p.accounts...), nil
}

func (p *StubProvider) Accounts(ctx context.Context) ([]ethcommon.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accountsCalls++
	return append([]ethcommon.Address(nil), p.accounts...), nil
}

// Calls returns how many times the provider was contacted.
func (p *StubProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requestCalls + p.accountsCalls
}

func (p *StubProvider) Subscribe(kind ProviderEventKind, sink chan<- ProviderEvent) event.Subscription {
	return p.feeds[kind].Subscribe(sink)
}

// Emit delivers ev to its channel's subscribers and returns how many received it.
func (p *StubProvider) Emit(ev ProviderEvent) int {
	return p.feeds[ev.Kind].Send(ev)
}
