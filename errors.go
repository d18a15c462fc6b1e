package ghappauth

import (
	"fmt"
)

// ExchangeError indicates that exchanging for a new installation token failed.
// It exposes the installation the token was requested for, as well as the
// original error
type ExchangeError struct {
	InstallationID int64
	Cause          error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchanging token for installation %d: %v", e.InstallationID, e.Cause)
}

func (e *ExchangeError) Unwrap() error {
	return e.Cause
}
