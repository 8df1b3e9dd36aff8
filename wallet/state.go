package wallet

import (
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// State is the wallet connection as seen by the rest of the application.
// Connected is true iff Address is set.
type State struct {
	Connected bool
	Address   ethcommon.Address
	Provider  Provider
}

func connectedState(addr ethcommon.Address, provider Provider) State {
	return State{Connected: true, Address: addr, Provider: provider}
}

func disconnectedState() State {
	return State{}
}

type EventKind int

const (
	Connected EventKind = iota
	Disconnected
)

func (k EventKind) String() string {
	if k == Connected {
		return "connected"
	}
	return "disconnected"
}

// Event is published on every session transition.
type Event struct {
	Kind    EventKind
	Address ethcommon.Address
}
