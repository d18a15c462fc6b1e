// Package ghexchange exchanges a GitHub App JWT for installation access
// tokens, using the go-github client.
//
// Signing the app JWT is left to the caller. It is provided as an
// oauth2.TokenSource, so it can be re-signed as it expires:
//
//	client, err := ghexchange.NewClient(ctx, appJWTSource, "")
//	src, err := (&tokencache.Config{Exchanger: ghexchange.New(client)}).Source()
package ghexchange

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v67/github"
	"github.com/lstoll/ghappauth"
	"golang.org/x/oauth2"
)

// NewClient returns a GitHub client that authenticates as the app, using JWTs
// from appJWT. An empty baseURL uses github.com, otherwise it is treated as a
// GitHub Enterprise Server URL.
func NewClient(ctx context.Context, appJWT oauth2.TokenSource, baseURL string) (*github.Client, error) {
	client := github.NewClient(oauth2.NewClient(ctx, appJWT))
	if baseURL == "" {
		return client, nil
	}
	client, err := client.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("setting enterprise URL %q: %w", baseURL, err)
	}
	return client, nil
}

var _ ghappauth.Exchanger = (*Exchanger)(nil)

// Exchanger creates installation access tokens via the GitHub API.
type Exchanger struct {
	client *github.Client
	// now is overridden in tests
	now func() time.Time
}

// New returns an Exchanger using client, which must be authenticated as the
// app.
func New(client *github.Client) *Exchanger {
	return &Exchanger{client: client, now: time.Now}
}

type createTokenRequest struct {
	RepositoryIDs []int64               `json:"repository_ids,omitempty"`
	Repositories  []string              `json:"repositories,omitempty"`
	Permissions   ghappauth.Permissions `json:"permissions,omitempty"`
}

type createTokenResponse struct {
	Token               string                        `json:"token"`
	ExpiresAt           string                        `json:"expires_at"`
	Permissions         ghappauth.Permissions         `json:"permissions"`
	RepositorySelection ghappauth.RepositorySelection `json:"repository_selection"`
	SingleFile          string                        `json:"single_file"`
}

// Exchange creates a new installation access token for scope.
func (e *Exchanger) Exchange(ctx context.Context, scope ghappauth.Scope) (*ghappauth.InstallationToken, error) {
	body := &createTokenRequest{
		RepositoryIDs: scope.RepositoryIDs,
		Repositories:  scope.RepositoryNames,
		Permissions:   scope.Permissions,
	}

	u := fmt.Sprintf("app/installations/%d/access_tokens", scope.InstallationID)
	req, err := e.client.NewRequest(http.MethodPost, u, body)
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}

	createdAt := e.now().UTC().Format(time.RFC3339)

	var resp createTokenResponse
	if _, err := e.client.Do(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("creating installation token: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("response contains no token")
	}

	return &ghappauth.InstallationToken{
		Token:               resp.Token,
		CreatedAt:           createdAt,
		ExpiresAt:           resp.ExpiresAt,
		RepositorySelection: resp.RepositorySelection,
		Permissions:         resp.Permissions,
		SingleFileName:      resp.SingleFile,
		RepositoryIDs:       scope.RepositoryIDs,
		RepositoryNames:     scope.RepositoryNames,
	}, nil
}
