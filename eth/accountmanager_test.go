package eth

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tmpKeyStore(t *testing.T) *keystore.KeyStore {
	return keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
}

func TestAccountManager_Unlock(t *testing.T) {
	ks := tmpKeyStore(t)
	a, err := ks.NewAccount("foo")
	require.Nil(t, err)

	am, err := newAccountManager(a.Address, ks, big.NewInt(1337), false, "")
	require.Nil(t, err)
	assert.Equal(t, a.Address, am.Account().Address)

	// Wrong non-empty passphrase does not prompt
	assert.Equal(t, keystore.ErrDecrypt, am.Unlock("foo!"))

	_, err = am.CreateTransactOpts(DefaultRewardGasLimit, nil)
	assert.Equal(t, ErrLocked, err)

	assert.Nil(t, am.Unlock("foo"))
	opts, err := am.CreateTransactOpts(DefaultRewardGasLimit, big.NewInt(7))
	require.Nil(t, err)
	assert.Equal(t, a.Address, opts.From)
	assert.Equal(t, DefaultRewardGasLimit, opts.GasLimit)
	assert.Equal(t, big.NewInt(7), opts.GasPrice)

	assert.Nil(t, am.Lock())
	_, err = am.CreateTransactOpts(DefaultRewardGasLimit, nil)
	assert.Equal(t, ErrLocked, err)
}

func TestAccountManager_Lookup(t *testing.T) {
	ks := tmpKeyStore(t)

	_, err := newAccountManager(ethcommon.Address{}, ks, big.NewInt(1337), false, "")
	assert.Equal(t, ErrNoAccounts, err)

	// Created with the supplied password, no prompt
	am, err := newAccountManager(ethcommon.Address{}, ks, big.NewInt(1337), true, "secret")
	require.Nil(t, err)
	assert.Len(t, ks.Accounts(), 1)
	assert.Nil(t, am.Unlock("secret"))

	_, err = newAccountManager(ethcommon.HexToAddress("0x1234"), ks, big.NewInt(1337), false, "")
	assert.Equal(t, ErrAccountNotFound, err)

	// Zero address defaults to the first account
	am2, err := newAccountManager(ethcommon.Address{}, ks, big.NewInt(1337), false, "")
	require.Nil(t, err)
	assert.Equal(t, am.Account().Address, am2.Account().Address)
}

func TestAccountManager_SignTx(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ks := tmpKeyStore(t)
	a, err := ks.NewAccount("")
	require.Nil(err)

	chainID := big.NewInt(1337)
	am, err := newAccountManager(a.Address, ks, chainID, false, "")
	require.Nil(err)

	tx := NewStubTransaction(0)
	_, err = am.SignTx(tx)
	assert.NotNil(err)

	require.Nil(am.Unlock(""))

	opts, err := am.CreateTransactOpts(DefaultRewardGasLimit, nil)
	require.Nil(err)

	signed, err := opts.Signer(a.Address, tx)
	require.Nil(err)
	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.Nil(err)
	assert.Equal(a.Address, sender)

	_, err = opts.Signer(ethcommon.HexToAddress("0x1234"), tx)
	assert.EqualError(err, "not authorized to sign this account")
}
