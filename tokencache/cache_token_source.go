package tokencache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lstoll/ghappauth"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

var baseLogAttr = slog.String("component", "ghappauth-tokencache")

func errAttr(err error) slog.Attr { return slog.String("err", err.Error()) }

type Config struct {
	// Exchanger is used to obtain new tokens on a cache miss.
	Exchanger ghappauth.Exchanger
	// Cache to use for caching the retrieved tokens. If nil, a new Cache is
	// created for this source. Each Cache runs a sweep goroutine for its
	// lifetime, so build one Source and reuse it, or share a Cache.
	Cache CredentialCache
	// Logger is used to log cache activity. If nil, slog.Default() is used.
	Logger *slog.Logger
	// SingleFlight coalesces concurrent cache misses for the same key in to a
	// single exchange. By default every miss results in an exchange. The
	// shared exchange is not cancelled when one of its callers is.
	SingleFlight bool
}

// Source returns installation tokens, from the cache where possible.
type Source struct {
	exchanger ghappauth.Exchanger
	cache     CredentialCache
	log       *slog.Logger

	sf *singleflight.Group
}

// Source validates the config, and builds a Source from it.
func (c *Config) Source() (*Source, error) {
	var validErr error
	if c.Exchanger == nil {
		validErr = errors.Join(validErr, fmt.Errorf("an exchanger must be provided"))
	}
	if validErr != nil {
		return nil, fmt.Errorf("invalid config: %w", validErr)
	}

	s := &Source{
		exchanger: c.Exchanger,
		cache:     c.Cache,
		log:       c.Logger,
	}
	if s.cache == nil {
		s.cache = New()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if c.SingleFlight {
		s.sf = new(singleflight.Group)
	}
	return s, nil
}

// InstallationToken checks the cache for a token matching scope, and returns it
// if present. Otherwise a new token is exchanged for and cached, before
// returning it.
func (s *Source) InstallationToken(ctx context.Context, scope ghappauth.Scope) (*ghappauth.InstallationToken, error) {
	if scope.InstallationID == 0 {
		return nil, fmt.Errorf("installation ID must be specified")
	}

	tok, ok, err := Lookup(ctx, s.cache, scope)
	if err != nil {
		// a broken cache shouldn't stop us getting a token
		s.log.WarnContext(ctx, "Failed to look up cached token", baseLogAttr, errAttr(err))
	}
	if ok {
		s.log.DebugContext(ctx, "Using cached token", baseLogAttr, slog.Int64("installation_id", scope.InstallationID))
		return tok, nil
	}

	if s.sf == nil {
		return s.exchange(ctx, scope)
	}
	// the flight outlives any single caller, so it must not inherit their
	// cancellation. Each caller still stops waiting when its own ctx is done.
	fctx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(Key(scope), func() (any, error) {
		// a flight for this key may have completed since our lookup
		if tok, ok, _ := Lookup(fctx, s.cache, scope); ok {
			return tok, nil
		}
		return s.exchange(fctx, scope)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*ghappauth.InstallationToken), nil
	}
}

// Refresh exchanges for a new token for scope, ignoring any cached token. The
// new token replaces the cached one.
func (s *Source) Refresh(ctx context.Context, scope ghappauth.Scope) (*ghappauth.InstallationToken, error) {
	if scope.InstallationID == 0 {
		return nil, fmt.Errorf("installation ID must be specified")
	}
	return s.exchange(ctx, scope)
}

func (s *Source) exchange(ctx context.Context, scope ghappauth.Scope) (*ghappauth.InstallationToken, error) {
	s.log.DebugContext(ctx, "Exchanging for new token", baseLogAttr, slog.Int64("installation_id", scope.InstallationID))

	tok, err := s.exchanger.Exchange(ctx, scope)
	if err != nil {
		var eerr *ghappauth.ExchangeError
		if errors.As(err, &eerr) {
			return nil, err
		}
		return nil, &ghappauth.ExchangeError{InstallationID: scope.InstallationID, Cause: err}
	}
	if tok == nil {
		return nil, &ghappauth.ExchangeError{InstallationID: scope.InstallationID, Cause: errors.New("exchanger returned no token")}
	}

	if err := Store(ctx, s.cache, scope, tok); err != nil {
		s.log.WarnContext(ctx, "Failed to cache token", baseLogAttr, errAttr(err))
	}

	ret := *tok
	ret.RepositoryIDs = scope.RepositoryIDs
	ret.RepositoryNames = scope.RepositoryNames
	return &ret, nil
}

// TokenSource returns an oauth2.TokenSource for installation tokens matching
// scope. The returned token uses the "token" type, as GitHub expects.
func (s *Source) TokenSource(ctx context.Context, scope ghappauth.Scope) oauth2.TokenSource {
	return &installationTokenSource{ctx: ctx, src: s, scope: scope}
}

type installationTokenSource struct {
	ctx   context.Context
	src   *Source
	scope ghappauth.Scope
}

func (i *installationTokenSource) Token() (*oauth2.Token, error) {
	tok, err := i.src.InstallationToken(i.ctx, i.scope)
	if err != nil {
		return nil, fmt.Errorf("getting installation token: %w", err)
	}
	return tok.OAuth2Token(), nil
}
