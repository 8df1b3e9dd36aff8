package eth

import (
	"context"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// RemoteNonceReader reads the node's view of an account's next nonce.
type RemoteNonceReader interface {
	PendingNonceAt(ctx context.Context, addr ethcommon.Address) (uint64, error)
}

type nonceLock struct {
	nonce uint64
	mu    sync.Mutex
}

// NonceManager hands out nonces for accounts that send several payouts before
// the node has seen the previous ones.
type NonceManager struct {
	nonces map[ethcommon.Address]*nonceLock
	mu     sync.Mutex

	remoteReader RemoteNonceReader
}

func NewNonceManager(remoteReader RemoteNonceReader) *NonceManager {
	return &NonceManager{
		nonces:       make(map[ethcommon.Address]*nonceLock),
		remoteReader: remoteReader,
	}
}

// Lock must be held around Next and Update for addr.
func (m *NonceManager) Lock(addr ethcommon.Address) {
	m.getNonceLock(addr).mu.Lock()
}

func (m *NonceManager) Unlock(addr ethcommon.Address) {
	m.getNonceLock(addr).mu.Unlock()
}

// Next returns the larger of the locally tracked nonce and the node's pending nonce.
func (m *NonceManager) Next(ctx context.Context, addr ethcommon.Address) (uint64, error) {
	local := m.getNonceLock(addr).nonce

	remote, err := m.remoteReader.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, err
	}

	// transactions sent by another client sharing the operator key
	if remote > local {
		return remote, nil
	}

	return local, nil
}

// Update records lastNonce as used.
func (m *NonceManager) Update(addr ethcommon.Address, lastNonce uint64) {
	m.getNonceLock(addr).nonce = lastNonce + 1
}

func (m *NonceManager) getNonceLock(addr ethcommon.Address) *nonceLock {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.nonces[addr]
	if !ok {
		l = new(nonceLock)
		m.nonces[addr] = l
	}

	return l
}
