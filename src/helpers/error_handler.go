package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yield-dashboard/src/logger"
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

var (
	ErrEmptySeries          = errors.New("empty series")
	ErrDivisionByZero       = errors.New("division by zero")
	ErrNoDividendData       = errors.New("no dividend data")
	ErrDataUnavailable      = errors.New("data unavailable")
	ErrUnknownSymbol        = errors.New("unknown symbol")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrNegativeContribution = errors.New("negative contribution")
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type DashboardError struct {
	Message string
	Cause   error
}

func (e *DashboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DashboardError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As
type ConfigurationError struct{ DashboardError }
type NetworkError struct{ DashboardError }
type DataSourceError struct {
	DashboardError
	Source string
	Symbol string
}
type DatabaseError struct{ DashboardError }
type ValidationError struct{ DashboardError }

// NewDataSourceError wraps a provider failure so that it matches ErrDataUnavailable.
func NewDataSourceError(source, symbol string, cause error) *DataSourceError {
	if cause == nil {
		cause = ErrDataUnavailable
	} else if !errors.Is(cause, ErrDataUnavailable) {
		cause = fmt.Errorf("%w: %w", ErrDataUnavailable, cause)
	}
	return &DataSourceError{
		DashboardError: DashboardError{Message: fmt.Sprintf("%s: fetch %s failed", source, symbol), Cause: cause},
		Source:         source,
		Symbol:         symbol,
	}
}

// NewValidationError wraps a request problem so that it matches ErrInvalidRequest.
func NewValidationError(cause error) *ValidationError {
	if cause == nil {
		cause = ErrInvalidRequest
	} else if !errors.Is(cause, ErrInvalidRequest) {
		cause = fmt.Errorf("%w: %w", ErrInvalidRequest, cause)
	}
	return &ValidationError{DashboardError{Message: "validation failed", Cause: cause}}
}

// NewNetworkError wraps a transport failure so that it matches ErrDataUnavailable.
func NewNetworkError(target string, cause error) *NetworkError {
	if cause == nil {
		cause = ErrDataUnavailable
	} else if !errors.Is(cause, ErrDataUnavailable) {
		cause = fmt.Errorf("%w: %w", ErrDataUnavailable, cause)
	}
	return &NetworkError{DashboardError{Message: fmt.Sprintf("request %s failed", target), Cause: cause}}
}

// NewDatabaseError wraps a storage failure for the given operation.
func NewDatabaseError(operation string, cause error) *DatabaseError {
	return &DatabaseError{DashboardError{Message: fmt.Sprintf("%s failed", operation), Cause: cause}}
}

// -----------------------------------------------------------------------------

// ErrorCode maps an error to the short code sent to clients.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptySeries):
		return "empty_series"
	case errors.Is(err, ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, ErrNoDividendData):
		return "no_dividend_data"
	case errors.Is(err, ErrUnknownSymbol):
		return "unknown_symbol"
	case errors.Is(err, ErrNegativeContribution), errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	default:
		return "internal"
	}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times with exponential backoff.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, maxRetries, lastErr)
}
