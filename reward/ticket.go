package reward

import (
	"encoding/json"
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

type Status int

const (
	Pending Status = iota
	Submitted
	Confirmed
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Submitted:
		return "submitted"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the ticket can no longer change.
func (s Status) Terminal() bool {
	return s == Confirmed || s == Failed
}

// Ticket tracks the single reward payout for one game.
type Ticket struct {
	GameID    string
	Recipient ethcommon.Address
	Amount    *big.Int
	Status    Status
	TxHash    ethcommon.Hash
	Err       error
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Ticket) clone() Ticket {
	c := t
	if t.Amount != nil {
		c.Amount = new(big.Int).Set(t.Amount)
	}
	return c
}

type ticketJSON struct {
	GameID    string    `json:"gameID"`
	Recipient string    `json:"recipient"`
	Amount    string    `json:"amount"`
	Status    Status    `json:"status"`
	TxHash    string    `json:"txHash,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t Ticket) MarshalJSON() ([]byte, error) {
	out := ticketJSON{
		GameID:    t.GameID,
		Recipient: t.Recipient.Hex(),
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.Amount != nil {
		out.Amount = t.Amount.String()
	}
	if t.TxHash != (ethcommon.Hash{}) {
		out.TxHash = t.TxHash.Hex()
	}
	if t.Err != nil {
		out.Error = t.Err.Error()
	}
	return json.Marshal(out)
}
