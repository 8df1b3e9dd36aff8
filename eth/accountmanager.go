package eth

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/console/prompt"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/glog"
	"github.com/wordchain/wordreward/common"
)

var (
	ErrAccountNotFound    = fmt.Errorf("ETH account not found")
	ErrLocked             = fmt.Errorf("account locked")
	ErrPassphraseMismatch = fmt.Errorf("passphrases do not match")
	ErrNoAccounts         = fmt.Errorf("no ETH accounts in keystore")
)

// AccountManager holds the operator account that signs reward payouts.
type AccountManager interface {
	Unlock(passphrase string) error
	Lock() error
	CreateTransactOpts(gasLimit uint64, gasPrice *big.Int) (*bind.TransactOpts, error)
	SignTx(tx *types.Transaction) (*types.Transaction, error)
	Account() accounts.Account
}

type DefaultAccountManager struct {
	account accounts.Account
	signer  types.Signer

	mu       sync.RWMutex
	unlocked bool
	keyStore *keystore.KeyStore
}

// NewAccountManager loads accountAddr from keystoreDir, or the first account
// there when accountAddr is zero. With create set, an empty keystore gets a new
// account encrypted with password, prompting for one if password is empty.
func NewAccountManager(accountAddr ethcommon.Address, keystoreDir string, chainID *big.Int, create bool, password string) (AccountManager, error) {
	keyStore := keystore.NewKeyStore(keystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
	return newAccountManager(accountAddr, keyStore, chainID, create, password)
}

func newAccountManager(accountAddr ethcommon.Address, keyStore *keystore.KeyStore, chainID *big.Int, create bool, password string) (AccountManager, error) {
	acctExists := keyStore.HasAddress(accountAddr)
	numAccounts := len(keyStore.Accounts())

	var acct accounts.Account
	var err error
	if numAccounts == 0 || ((accountAddr != ethcommon.Address{}) && !acctExists) {
		if !create {
			if numAccounts == 0 {
				return nil, ErrNoAccounts
			}
			return nil, ErrAccountNotFound
		}

		glog.Infof("No operator account found. Creating a new account")
		glog.Infof("This account signs every reward payout and must be allowed to call rewardWinner")

		acct, err = createAccount(keyStore, password)
		if err != nil {
			return nil, err
		}
	} else {
		glog.V(common.SHORT).Infof("Found existing ETH account")

		acct, err = getAccount(accountAddr, keyStore)
		if err != nil {
			return nil, err
		}
	}

	glog.Infof("Using operator account: %v", acct.Address.Hex())

	return &DefaultAccountManager{
		account:  acct,
		signer:   types.LatestSignerForChainID(chainID),
		keyStore: keyStore,
	}, nil
}

// Unlock account indefinitely using underlying keystore. An empty passphrase
// that does not decrypt the key falls back to an interactive prompt.
func (am *DefaultAccountManager) Unlock(passphrase string) error {
	err := am.keyStore.Unlock(am.account, passphrase)
	if err != nil {
		if passphrase != "" {
			return err
		}
		glog.Infof("Please enter the passphrase to unlock operator account %v", am.account.Address.Hex())

		passphrase, err = getPassphrase(false)
		if err != nil {
			return err
		}
		if err = am.keyStore.Unlock(am.account, passphrase); err != nil {
			return err
		}
	}

	am.mu.Lock()
	am.unlocked = true
	am.mu.Unlock()

	glog.Infof("Unlocked operator account: %v", am.account.Address.Hex())

	return nil
}

// Lock account using underlying keystore and remove associated private key from memory
func (am *DefaultAccountManager) Lock() error {
	if err := am.keyStore.Lock(am.account.Address); err != nil {
		return err
	}

	am.mu.Lock()
	am.unlocked = false
	am.mu.Unlock()

	return nil
}

// CreateTransactOpts builds options for a transaction from the operator account.
// The account must be unlocked.
func (am *DefaultAccountManager) CreateTransactOpts(gasLimit uint64, gasPrice *big.Int) (*bind.TransactOpts, error) {
	am.mu.RLock()
	unlocked := am.unlocked
	am.mu.RUnlock()
	if !unlocked {
		return nil, ErrLocked
	}

	return &bind.TransactOpts{
		From:     am.account.Address,
		GasLimit: gasLimit,
		GasPrice: gasPrice,
		Signer: func(address ethcommon.Address, tx *types.Transaction) (*types.Transaction, error) {
			if address != am.account.Address {
				return nil, errors.New("not authorized to sign this account")
			}

			return am.SignTx(tx)
		},
	}, nil
}

// Sign a transaction. Account must be unlocked
func (am *DefaultAccountManager) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	signature, err := am.keyStore.SignHash(am.account, am.signer.Hash(tx).Bytes())
	if err != nil {
		return nil, err
	}

	return tx.WithSignature(am.signer, signature)
}

func (am *DefaultAccountManager) Account() accounts.Account {
	return am.account
}

// Get account from keystore using hex address
// If no hex address is provided, default to the first account
func getAccount(accountAddr ethcommon.Address, keyStore *keystore.KeyStore) (accounts.Account, error) {
	accts := keyStore.Accounts()

	if (accountAddr != ethcommon.Address{}) {
		for _, acct := range accts {
			if acct.Address == accountAddr {
				return acct, nil
			}
		}

		return accounts.Account{}, ErrAccountNotFound
	}

	glog.V(common.SHORT).Infof("Defaulting to first ETH account in keystore %v", accts[0].Address.Hex())

	return accts[0], nil
}

func createAccount(keyStore *keystore.KeyStore, password string) (accounts.Account, error) {
	if password == "" {
		glog.Infof("Please enter a passphrase to encrypt the keystore file for the operator account")
		glog.Infof("(no characters will appear in Terminal when the passphrase is entered)")

		var err error
		password, err = getPassphrase(true)
		if err != nil {
			return accounts.Account{}, err
		}
	}

	return keyStore.NewAccount(password)
}

// Prompt for passphrase
func getPassphrase(shouldConfirm bool) (string, error) {
	passphrase, err := prompt.Stdin.PromptPassword("Passphrase: ")
	if err != nil {
		return "", err
	}

	if shouldConfirm {
		confirmation, err := prompt.Stdin.PromptPassword("Repeat passphrase: ")
		if err != nil {
			return "", err
		}

		if passphrase != confirmation {
			return "", ErrPassphraseMismatch
		}
	}

	return passphrase, nil
}
