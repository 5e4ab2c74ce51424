package ledger

import "errors"

// Every error here is user-facing and recoverable by retrying with corrected
// input. None is fatal to the process.
var (
	ErrMissingField         = errors.New("all fields must be filled")
	ErrConfirmationMismatch = errors.New("passwords do not match")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrPasswordMismatch     = errors.New("current password is incorrect")
	ErrInvalidShareCount    = errors.New("shares must be a positive whole number")
	ErrSymbolNotFound       = errors.New("stock symbol not valid")
	ErrQuoteUnavailable     = errors.New("quote lookup failed")
	ErrInsufficientFunds    = errors.New("not enough cash")
	ErrNoHolding            = errors.New("no shares of this stock held")
	ErrInsufficientShares   = errors.New("not enough shares to sell")
	ErrPricingUnavailable   = errors.New("portfolio pricing unavailable")
)
