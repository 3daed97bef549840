package game

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotInitialized     = errors.New("contract not initialized")
	ErrAlreadyInitialized = errors.New("contract already initialized")
	ErrInvalidPayment     = errors.New("invalid payment")
	ErrPlayerNotJoined    = errors.New("player not joined")
	ErrDeadlinePassed     = errors.New("shoot deadline passed")
	ErrDeadlineNotPassed  = errors.New("shoot deadline not passed")
	ErrDeadlineNotFound   = errors.New("no shoot deadline recorded")
)

// PaymentError reports a ticket payment that does not match the configured
// price, echoing what was expected against what was sent.
type PaymentError struct {
	ExpectedDenom  string
	ExpectedAmount uint64
	ActualDenom    string
	ActualAmount   uint64
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("invalid payment: expected %d%s, got %d%s",
		e.ExpectedAmount, e.ExpectedDenom, e.ActualAmount, e.ActualDenom)
}

// Unwrap lets callers match PaymentError against ErrInvalidPayment.
func (e *PaymentError) Unwrap() error { return ErrInvalidPayment }
