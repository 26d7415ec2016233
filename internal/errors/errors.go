// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares to sell")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrDataUnavailable    = errors.New("market data unavailable")
	ErrMalformedOutput    = errors.New("malformed delegate output")
	ErrPersistenceFailed  = errors.New("ledger persistence failed")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrStoreNotConfigured = errors.New("trade store not configured")
	ErrStrategyNotFound   = errors.New("strategy not found")
)

// OrderError represents a rejected or failed order operation.
type OrderError struct {
	Symbol string
	Side   string
	Reason string
	Err    error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error %s %s: %s: %v", e.Side, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error %s %s: %s", e.Side, e.Symbol, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(symbol, side, reason string, err error) *OrderError {
	return &OrderError{
		Symbol: symbol,
		Side:   side,
		Reason: reason,
		Err:    err,
	}
}

// DataError represents a market data fetch failure.
type DataError struct {
	Symbol    string
	Timeframe string
	Message   string
	Err       error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error %s/%s: %s: %v", e.Symbol, e.Timeframe, e.Message, e.Err)
	}
	return fmt.Sprintf("data error %s/%s: %s", e.Symbol, e.Timeframe, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(symbol, timeframe, message string, err error) *DataError {
	return &DataError{
		Symbol:    symbol,
		Timeframe: timeframe,
		Message:   message,
		Err:       err,
	}
}

// DelegateError represents a failure of the external predictive model
// process. Callers treat it as a missed signal, not a crash; RawOutput
// carries whatever the process printed for diagnostics.
type DelegateError struct {
	Stage     string // "exec", "timeout", "parse"
	RawOutput string
	Err       error
}

func (e *DelegateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model delegate error [%s]: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("model delegate error [%s]", e.Stage)
}

func (e *DelegateError) Unwrap() error {
	return e.Err
}

// NewDelegateError creates a new DelegateError.
func NewDelegateError(stage, rawOutput string, err error) *DelegateError {
	return &DelegateError{
		Stage:     stage,
		RawOutput: rawOutput,
		Err:       err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
