package accrual

import (
	"errors"
	"fmt"

	"github.com/xraph/accrual/rate"
	"github.com/xraph/accrual/types"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound        = errors.New("accrual: not found")
	ErrAccountNotFound = errors.New("accrual: account not found")
	ErrInvalidInput    = errors.New("accrual: invalid input")

	// Validation errors
	ErrZeroAddress = errors.New("accrual: empty address")
	ErrZeroAmount  = errors.New("accrual: amount must be positive")

	// Authorization errors
	ErrUnauthorized     = errors.New("accrual: caller lacks mint/burn capability")
	ErrNotAdministrator = errors.New("accrual: caller is not the administrator")
	ErrPaused           = errors.New("accrual: system is paused")

	// Concurrency errors
	ErrReentrantCall = errors.New("accrual: reentrant call rejected")

	// Vault errors
	ErrPayoutFailed   = errors.New("accrual: asset payout failed")
	ErrExcessExceeded = errors.New("accrual: withdrawal exceeds excess reserve")

	// Store errors
	ErrStoreNotReady     = errors.New("accrual: store not ready")
	ErrStoreClosed       = errors.New("accrual: store is closed")
	ErrTransactionFailed = errors.New("accrual: transaction failed")
	ErrMigrationFailed   = errors.New("accrual: migration failed")
)

// Rate errors are defined next to the governor; re-exported here so callers
// matching on failure kinds only need this package.
var (
	ErrRateIncrease    = rate.ErrRateIncrease
	ErrRateOutOfBounds = rate.ErrRateOutOfBounds
)

// InsufficientBalanceError reports a redemption, burn, or transfer that
// asked for more units than the holder has. Available is the
// interest-inclusive balance at call time, so the condition is diagnosable
// without replaying state.
type InsufficientBalanceError struct {
	Address   string
	Requested types.Units
	Available types.Units
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("accrual: insufficient balance for %s: requested %s, available %s",
		e.Address, e.Requested, e.Available)
}

// InsufficientReserveError reports a redemption the vault's reserve cannot
// cover. This is the central solvency gate.
type InsufficientReserveError struct {
	Requested types.Units
	Available types.Units
}

func (e *InsufficientReserveError) Error() string {
	return fmt.Sprintf("accrual: insufficient vault reserve: requested %s, available %s",
		e.Requested, e.Available)
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("accrual: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound)
}

// IsValidation returns true if the error is an input validation failure.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.Is(err, ErrZeroAddress) ||
		errors.Is(err, ErrZeroAmount) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.As(err, &ve)
}

// IsAuthorization returns true if the error is an authorization failure,
// including the pause gate.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotAdministrator) ||
		errors.Is(err, ErrPaused)
}

// IsInsufficient returns true if the error reports an insufficient holder
// balance or vault reserve.
func IsInsufficient(err error) bool {
	var balErr *InsufficientBalanceError
	var resErr *InsufficientReserveError
	return errors.As(err, &balErr) || errors.As(err, &resErr)
}

// IsRetryable returns true if the error is temporary and the operation can
// be retried by the caller. The engines never retry internally.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, ErrReentrantCall)
}
