package ghappauth

import "context"

// Exchanger obtains a new installation access token from the authorization
// server for the given scope. It is called on every cache miss; callers that
// wrap it must be prepared for concurrent duplicate calls for the same scope.
type Exchanger interface {
	Exchange(ctx context.Context, scope Scope) (*InstallationToken, error)
}

// ExchangerFunc adapts a function to an Exchanger.
type ExchangerFunc func(ctx context.Context, scope Scope) (*InstallationToken, error)

func (f ExchangerFunc) Exchange(ctx context.Context, scope Scope) (*InstallationToken, error) {
	return f(ctx, scope)
}
