package eth

import (
	"errors"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

var (
	ErrNotConnected        = errors.New("wallet not connected")
	ErrInsufficientReserve = errors.New("insufficient reward reserve")
	ErrTxReverted          = errors.New("transaction reverted")
	ErrInvalidAmount       = errors.New("reward amount must be positive")
)

// InsufficientReserveError is returned by SubmitReward when the contract
// reserve cannot cover the reward. Nothing was sent.
type InsufficientReserveError struct {
	Amount  *big.Int
	Reserve *big.Int
}

func (e *InsufficientReserveError) Error() string {
	return fmt.Sprintf("%v: amount=%v reserve=%v", ErrInsufficientReserve, e.Amount, e.Reserve)
}

func (e *InsufficientReserveError) Is(target error) bool {
	return target == ErrInsufficientReserve
}

// SubmissionError is returned when the reward transaction could not be dispatched.
type SubmissionError struct {
	Recipient ethcommon.Address
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("reward submission to %v failed: %v", e.Recipient.Hex(), e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ConfirmationError is returned when a dispatched transaction reverted or the
// wait for its receipt was abandoned.
type ConfirmationError struct {
	TxHash ethcommon.Hash
	Err    error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("reward transaction %v not confirmed: %v", e.TxHash.Hex(), e.Err)
}

func (e *ConfirmationError) Unwrap() error {
	return e.Err
}
