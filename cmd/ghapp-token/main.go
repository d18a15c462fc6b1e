package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lstoll/ghappauth"
	"github.com/lstoll/ghappauth/ghexchange"
	"github.com/lstoll/ghappauth/tokencache"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

const defaultJWTEnv = "GITHUB_APP_JWT"

var osExit = os.Exit // For testing purposes

type options struct {
	installationID  int64
	permissions     []string
	repositoryIDs   []int64
	repositoryNames []string
	baseURL         string
	jwtEnv          string
	verbose         bool
}

func main() {
	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		osExit(1)
	}
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "ghapp-token",
		Short: "Print a GitHub App installation access token",
		Long: `Exchanges a pre-signed GitHub App JWT for an installation access token,
and prints it as JSON. The token can be narrowed to specific permissions and
repositories.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), getenv, opts)
		},
	}

	cmd.Flags().Int64VarP(&opts.installationID, "installation-id", "i", 0, "Installation ID to issue the token for")
	cmd.Flags().StringArrayVarP(&opts.permissions, "permission", "p", nil, "Permission to request, as name=read or name=write (repeatable)")
	cmd.Flags().Int64SliceVar(&opts.repositoryIDs, "repository-id", nil, "Repository ID to restrict the token to (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.repositoryNames, "repository", "r", nil, "Repository name to restrict the token to (repeatable)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "GitHub Enterprise Server URL, defaults to github.com")
	cmd.Flags().StringVar(&opts.jwtEnv, "jwt-env", defaultJWTEnv, "Environment variable holding the signed app JWT")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("installation-id")

	return cmd
}

func run(ctx context.Context, stdout, stderr io.Writer, getenv func(string) string, opts options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	jwt := getenv(opts.jwtEnv)
	if jwt == "" {
		return fmt.Errorf("%s must be set to a signed app JWT", opts.jwtEnv)
	}

	perms, err := parsePermissions(opts.permissions)
	if err != nil {
		return err
	}

	client, err := ghexchange.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: jwt}), opts.baseURL)
	if err != nil {
		return err
	}

	cfg := tokencache.Config{
		Exchanger: ghexchange.New(client),
		Logger:    logger,
	}
	src, err := cfg.Source()
	if err != nil {
		return err
	}

	tok, err := src.InstallationToken(ctx, ghappauth.Scope{
		InstallationID:  opts.installationID,
		Permissions:     perms,
		RepositoryIDs:   opts.repositoryIDs,
		RepositoryNames: opts.repositoryNames,
	})
	if err != nil {
		logger.ErrorContext(ctx, "getting installation token", "err", err)
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(tok)
}

// parsePermissions parses name=access flag values.
func parsePermissions(flags []string) (ghappauth.Permissions, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	perms := make(ghappauth.Permissions, len(flags))
	for _, f := range flags {
		name, access, ok := strings.Cut(f, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid permission %q, want name=read or name=write", f)
		}
		switch a := ghappauth.Access(access); a {
		case ghappauth.Read, ghappauth.Write:
			perms[name] = a
		default:
			return nil, fmt.Errorf("invalid access %q for permission %s, want read or write", access, name)
		}
	}
	return perms, nil
}
