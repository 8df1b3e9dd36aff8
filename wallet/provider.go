package wallet

import (
	"context"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// ProviderEventKind identifies one of the wallet provider notification channels.
type ProviderEventKind int

const (
	AccountsChanged ProviderEventKind = iota
	ChainChanged
	Disconnect
)

// ProviderEventKinds lists every notification channel a Session subscribes to.
var ProviderEventKinds = []ProviderEventKind{AccountsChanged, ChainChanged, Disconnect}

func (k ProviderEventKind) String() string {
	switch k {
	case AccountsChanged:
		return "accountsChanged"
	case ChainChanged:
		return "chainChanged"
	case Disconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// ProviderEvent is a notification pushed by the wallet provider.
// Accounts is set for AccountsChanged, ChainID for ChainChanged.
type ProviderEvent struct {
	Kind     ProviderEventKind
	Accounts []ethcommon.Address
	ChainID  *big.Int
}

// Provider is the wallet that holds the player's keys: a browser extension relayed
// over the page bridge, or an Ethereum node with managed accounts.
type Provider interface {
	// RequestAccounts asks the user for account access. It may block on user interaction.
	RequestAccounts(ctx context.Context) ([]ethcommon.Address, error)
	// Accounts returns the accounts already exposed to us without prompting.
	Accounts(ctx context.Context) ([]ethcommon.Address, error)
	// Subscribe registers sink for one notification channel.
	Subscribe(kind ProviderEventKind, sink chan<- ProviderEvent) event.Subscription
}
