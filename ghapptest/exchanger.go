// Package ghapptest provides helpers for testing code that obtains
// installation tokens.
package ghapptest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lstoll/ghappauth"
)

var _ ghappauth.Exchanger = (*Exchanger)(nil)

// Exchanger is a fake ghappauth.Exchanger that issues a new, unique token on
// every call and records the scopes it was called with. It is safe for
// concurrent use.
type Exchanger struct {
	// Err, if set, is returned from every exchange.
	Err error
	// Permissions are granted when the scope requests none.
	Permissions ghappauth.Permissions
	// Delay pauses each exchange before returning, to widen race windows in
	// tests.
	Delay time.Duration

	mu     sync.Mutex
	scopes []ghappauth.Scope
}

func (e *Exchanger) Exchange(ctx context.Context, scope ghappauth.Scope) (*ghappauth.InstallationToken, error) {
	e.mu.Lock()
	e.scopes = append(e.scopes, scope)
	n := len(e.scopes)
	e.mu.Unlock()

	if e.Delay > 0 {
		select {
		case <-time.After(e.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.Err != nil {
		return nil, e.Err
	}

	perms := scope.Permissions.Clone()
	if len(perms) == 0 {
		perms = e.Permissions.Clone()
	}
	sel := ghappauth.RepositorySelectionAll
	if len(scope.RepositoryIDs) > 0 || len(scope.RepositoryNames) > 0 {
		sel = ghappauth.RepositorySelectionSelected
	}

	return NewToken(fmt.Sprintf("ghs_%d_%d", scope.InstallationID, n), sel, perms), nil
}

// Calls returns the number of exchanges performed.
func (e *Exchanger) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.scopes)
}

// Scopes returns the scopes exchanges were performed for, in call order.
func (e *Exchanger) Scopes() []ghappauth.Scope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ghappauth.Scope(nil), e.scopes...)
}

// NewToken returns a token created now, that expires in an hour.
func NewToken(token string, sel ghappauth.RepositorySelection, perms ghappauth.Permissions) *ghappauth.InstallationToken {
	now := time.Now().UTC().Truncate(time.Second)
	return &ghappauth.InstallationToken{
		Token:               token,
		CreatedAt:           now.Format(time.RFC3339),
		ExpiresAt:           now.Add(time.Hour).Format(time.RFC3339),
		RepositorySelection: sel,
		Permissions:         perms,
	}
}
