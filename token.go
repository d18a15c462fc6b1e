// Package ghappauth models GitHub App installation access tokens, and the
// authorization scope they are requested for. Caching and exchanging tokens
// is handled by the tokencache and ghexchange packages.
package ghappauth

import (
	"maps"
	"time"

	"golang.org/x/oauth2"
)

// Access is the level of access granted for a single permission.
type Access string

const (
	Read  Access = "read"
	Write Access = "write"
)

// Permissions maps a permission name (e.g "issues", "contents") to the access
// level requested or granted.
type Permissions map[string]Access

// Clone returns a copy of p. A nil map clones to nil.
func (p Permissions) Clone() Permissions {
	return maps.Clone(p)
}

// RepositorySelection reports whether a token spans all repositories of the
// installation, or an explicit subset.
type RepositorySelection string

const (
	RepositorySelectionAll      RepositorySelection = "all"
	RepositorySelectionSelected RepositorySelection = "selected"
)

// Scope describes what an installation token is requested for. Two scopes that
// only differ in the iteration order of Permissions or the order of
// RepositoryIDs are equivalent. RepositoryNames order is significant.
type Scope struct {
	// InstallationID identifies the target installation. Required.
	InstallationID int64
	// Permissions optionally narrows the token to the given permissions.
	Permissions Permissions
	// RepositoryIDs optionally restricts the token to the given repositories.
	RepositoryIDs []int64
	// RepositoryNames optionally restricts the token to the given repositories,
	// by name.
	RepositoryNames []string
}

// InstallationToken is an issued installation access token.
type InstallationToken struct {
	Token string `json:"token"`
	// CreatedAt and ExpiresAt are ISO-8601 timestamps, as returned by the
	// exchange. They are carried as-is.
	CreatedAt           string              `json:"createdAt"`
	ExpiresAt           string              `json:"expiresAt"`
	RepositorySelection RepositorySelection `json:"repositorySelection"`
	// Permissions are the permissions actually granted, which may differ from
	// the ones requested.
	Permissions Permissions `json:"permissions"`
	// SingleFileName is set for legacy single file scoped tokens.
	SingleFileName string `json:"singleFileName,omitempty"`

	// RepositoryIDs and RepositoryNames echo the scope the token was requested
	// for.
	RepositoryIDs   []int64  `json:"repositoryIds,omitempty"`
	RepositoryNames []string `json:"repositoryNames,omitempty"`
}

// Expiry parses ExpiresAt. A zero time is returned if it can not be parsed.
func (t *InstallationToken) Expiry() time.Time {
	exp, err := time.Parse(time.RFC3339, t.ExpiresAt)
	if err != nil {
		return time.Time{}
	}
	return exp
}

// OAuth2Token converts the installation token in to an oauth2 token, suitable
// for use with an oauth2.Transport. GitHub accepts installation tokens with the
// "token" auth scheme.
func (t *InstallationToken) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: t.Token,
		TokenType:   "token",
		Expiry:      t.Expiry(),
	}
}
