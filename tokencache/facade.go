package tokencache

import (
	"context"
	"fmt"

	"github.com/lstoll/ghappauth"
)

// Lookup returns the token cached for scope. If scope has permissions they are
// trusted as the granted permissions, otherwise the cached permissions are
// used. The scope's repositories are set on the returned token. A miss is
// returned as (nil, false, nil).
func Lookup(ctx context.Context, cache CredentialCache, scope ghappauth.Scope) (*ghappauth.InstallationToken, bool, error) {
	raw, ok, err := cache.Get(ctx, Key(scope))
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	if !ok || raw == "" {
		return nil, false, nil
	}

	tok := DecodeRecord(raw, scope.Permissions)
	tok.RepositoryIDs = scope.RepositoryIDs
	tok.RepositoryNames = scope.RepositoryNames
	return tok, true, nil
}

// Store caches tok under the key for scope, replacing any existing token. The
// key is derived from the requested scope, not the token. When scope requests
// explicit permissions they are not stored, as Lookup will be called with the
// same permissions.
func Store(ctx context.Context, cache CredentialCache, scope ghappauth.Scope, tok *ghappauth.InstallationToken) error {
	v := EncodeRecord(tok, len(scope.Permissions) > 0)
	if err := cache.Set(ctx, Key(scope), v); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
