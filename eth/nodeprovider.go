package eth

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/golang/glog"
	"github.com/wordchain/wordreward/common"
	"github.com/wordchain/wordreward/wallet"
)

// userRejectedCode is the EIP-1193 error code for a denied request.
const userRejectedCode = 4001

// rpcCaller is the part of *rpc.Client used by NodeProvider.
type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	Close()
}

// NodeProvider is a wallet.Provider backed by the accounts an Ethereum node manages.
// A node never pushes account or chain notifications, so Watch polls for them.
type NodeProvider struct {
	client rpcCaller

	feeds [3]event.Feed

	mu       sync.Mutex
	accounts []ethcommon.Address
	chainID  *big.Int
	closed   bool
	cancel   context.CancelFunc
	done     chan struct{}
}

func DialNodeProvider(ctx context.Context, url string) (*NodeProvider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewNodeProvider(client), nil
}

func NewNodeProvider(client rpcCaller) *NodeProvider {
	return &NodeProvider{client: client}
}

func (p *NodeProvider) RequestAccounts(ctx context.Context) ([]ethcommon.Address, error) {
	if p.isClosed() {
		return nil, wallet.ErrProviderAbsent
	}

	var accounts []ethcommon.Address
	err := p.client.CallContext(ctx, &accounts, "eth_requestAccounts")
	if isMethodNotFound(err) {
		// plain nodes expose their unlocked accounts without a prompt
		return p.Accounts(ctx)
	}
	if err != nil {
		return nil, providerError(err)
	}

	p.remember(accounts)

	return accounts, nil
}

func (p *NodeProvider) Accounts(ctx context.Context) ([]ethcommon.Address, error) {
	if p.isClosed() {
		return nil, wallet.ErrProviderAbsent
	}

	var accounts []ethcommon.Address
	if err := p.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, providerError(err)
	}

	p.remember(accounts)

	return accounts, nil
}

func (p *NodeProvider) Subscribe(kind wallet.ProviderEventKind, sink chan<- wallet.ProviderEvent) event.Subscription {
	return p.feeds[kind].Subscribe(sink)
}

// Watch polls the node every interval and emits AccountsChanged and
// ChainChanged when the answers change. The first poll runs before Watch
// returns and sets the baseline.
func (p *NodeProvider) Watch(ctx context.Context, interval time.Duration) {
	p.mu.Lock()
	if p.cancel != nil || p.closed {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	p.poll(ctx)

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.poll(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (p *NodeProvider) poll(ctx context.Context) {
	var accounts []ethcommon.Address
	if err := p.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		glog.V(common.DEBUG).Infof("Error polling node accounts err=%q", err)
		return
	}
	if p.remember(accounts) {
		p.feeds[wallet.AccountsChanged].Send(wallet.ProviderEvent{Kind: wallet.AccountsChanged, Accounts: accounts})
	}

	var chainID hexutil.Big
	if err := p.client.CallContext(ctx, &chainID, "eth_chainId"); err != nil {
		glog.V(common.DEBUG).Infof("Error polling node chain id err=%q", err)
		return
	}
	id := (*big.Int)(&chainID)

	p.mu.Lock()
	prev := p.chainID
	p.chainID = id
	p.mu.Unlock()

	if prev != nil && prev.Cmp(id) != 0 {
		p.feeds[wallet.ChainChanged].Send(wallet.ProviderEvent{Kind: wallet.ChainChanged, ChainID: id})
	}
}

// remember stores the latest account list and reports whether it changed.
// The first list seen is not a change.
func (p *NodeProvider) remember(accounts []ethcommon.Address) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	known := p.accounts != nil
	changed := known && !sameAccounts(p.accounts, accounts)
	p.accounts = append([]ethcommon.Address{}, accounts...)

	return changed
}

// Close stops polling, closes the node connection and emits Disconnect.
func (p *NodeProvider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	p.client.Close()

	p.feeds[wallet.Disconnect].Send(wallet.ProviderEvent{Kind: wallet.Disconnect})
}

func (p *NodeProvider) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func sameAccounts(a, b []ethcommon.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isMethodNotFound(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == -32601
}

func providerError(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return wallet.ErrUserRejected
	}
	return err
}
