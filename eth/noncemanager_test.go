package eth

import (
	"context"
	"errors"
	"sync"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRemoteNonceReader struct {
	mock.Mock
}

func (m *mockRemoteNonceReader) PendingNonceAt(ctx context.Context, addr ethcommon.Address) (uint64, error) {
	args := m.Called(ctx, addr)

	return args.Get(0).(uint64), args.Error(1)
}

func randAddress(t *testing.T) ethcommon.Address {
	key, err := crypto.GenerateKey()
	require.Nil(t, err)
	return crypto.PubkeyToAddress(key.PublicKey)
}

func TestNonceManager_Next(t *testing.T) {
	tests := []struct {
		name    string
		remote  uint64
		updated []uint64
		want    uint64
	}{
		{name: "fresh account", remote: 0, want: 0},
		{name: "remote ahead", remote: 10, want: 10},
		{name: "local ahead", remote: 0, updated: []uint64{0}, want: 1},
		{name: "local skipped", remote: 3, updated: []uint64{10}, want: 11},
		{name: "sequential", remote: 0, updated: []uint64{0, 1, 2}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &mockRemoteNonceReader{}
			nm := NewNonceManager(r)
			addr := randAddress(t)
			r.On("PendingNonceAt", mock.Anything, addr).Return(tt.remote, nil)

			for _, n := range tt.updated {
				nm.Update(addr, n)
			}

			nonce, err := nm.Next(context.Background(), addr)
			assert.Nil(t, err)
			assert.Equal(t, tt.want, nonce)
		})
	}
}

func TestNonceManager_NextRemoteError(t *testing.T) {
	r := &mockRemoteNonceReader{}
	nm := NewNonceManager(r)
	addr := randAddress(t)
	r.On("PendingNonceAt", mock.Anything, addr).Return(uint64(0), errors.New("PendingNonceAt error"))

	_, err := nm.Next(context.Background(), addr)
	assert.EqualError(t, err, "PendingNonceAt error")
}

func TestNonceManager_ConcurrentSingleAddr(t *testing.T) {
	r := &mockRemoteNonceReader{}
	nm := NewNonceManager(r)
	addr := randAddress(t)
	r.On("PendingNonceAt", mock.Anything, addr).Return(uint64(0), nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	used := make(map[uint64]bool)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			nm.Lock(addr)
			defer nm.Unlock(addr)

			nonce, err := nm.Next(context.Background(), addr)
			if err != nil {
				return
			}
			mu.Lock()
			used[nonce] = true
			mu.Unlock()
			nm.Update(addr, nonce)
		}()
	}
	wg.Wait()

	assert.Len(t, used, 50)
	nonce, err := nm.Next(context.Background(), addr)
	assert.Nil(t, err)
	assert.Equal(t, uint64(50), nonce)
}
