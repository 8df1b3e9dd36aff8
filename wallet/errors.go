package wallet

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrProviderAbsent = errors.New("no wallet provider available")
	ErrUserRejected   = errors.New("wallet connection rejected")

	ErrSessionStarted = fmt.Errorf("wallet session already started")
	ErrSessionStopped = fmt.Errorf("wallet session already stopped")

	errNoAccounts = errors.New("wallet returned no accounts")
)

// ConnectionError is returned by Connect when the provider denied or failed the
// account request. It matches ErrUserRejected with errors.Is, unless the request
// was abandoned because the caller's context ended.
type ConnectionError struct {
	err error
}

func (e *ConnectionError) Error() string {
	if e.abandoned() {
		return fmt.Sprintf("wallet connection abandoned: %v", e.err)
	}
	return fmt.Sprintf("%v: %v", ErrUserRejected, e.err)
}

func (e *ConnectionError) abandoned() bool {
	return errors.Is(e.err, context.Canceled) || errors.Is(e.err, context.DeadlineExceeded)
}

func (e *ConnectionError) Unwrap() error {
	return e.err
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrUserRejected && !e.abandoned()
}
