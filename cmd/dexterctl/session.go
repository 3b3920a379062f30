package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"dexter/internal/config"
	"dexter/pkg/auth"
	"dexter/pkg/store"
)

var (
	errNoSessionSecret = errors.New("sessionSecret is not configured")
	errNoRevoker       = errors.New("revoking sessions requires redisAddr")
)

func init() {
	sessionCmd.AddCommand(sessionIssueCmd, sessionVerifyCmd, sessionRevokeCmd)
	rootCmd.AddCommand(sessionCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Issue, verify and revoke user session tokens",
}

var sessionIssueCmd = &cobra.Command{
	Use:   "issue <email>",
	Short: "Sign a session token for the user with this email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessionAdapter(cmd, func(ctx context.Context, a *auth.Adapter, _ bool) error {
			return issueSession(ctx, cmd.OutOrStdout(), a, args[0])
		})
	},
}

var sessionVerifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Print the user a session token belongs to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessionAdapter(cmd, func(ctx context.Context, a *auth.Adapter, _ bool) error {
			return verifySession(ctx, cmd.OutOrStdout(), a, args[0])
		})
	},
}

var sessionRevokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Revoke a session token until it expires",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessionAdapter(cmd, func(ctx context.Context, a *auth.Adapter, shared bool) error {
			if !shared {
				return errNoRevoker
			}
			return revokeSession(ctx, cmd.OutOrStdout(), a, args[0])
		})
	},
}

// newSessionCodec builds the session codec from config. Revocations are shared
// through Redis when a client is given.
func newSessionCodec(c config.FileConfig, client *redis.Client) (*auth.SessionCodec, error) {
	if c.SessionSecret == "" {
		return nil, errNoSessionSecret
	}
	var opts auth.SessionOptions
	if client != nil {
		opts.Revoker = auth.NewRedisRevoker(client)
	}
	return auth.NewSessionCodec(c.SessionSecret, c.SessionTTLDuration(), opts)
}

func withSessionAdapter(cmd *cobra.Command, fn func(ctx context.Context, a *auth.Adapter, shared bool) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	var client *redis.Client
	if cfg.RedisAddr != "" {
		client = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()
	}
	codec, err := newSessionCodec(cfg, client)
	if err != nil {
		return err
	}
	s, err := openStore(store.WithoutMigrate())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, auth.NewAdapter(s, codec), client != nil)
}

func issueSession(ctx context.Context, w io.Writer, a *auth.Adapter, email string) error {
	u, err := a.UserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find user %s: %w", email, err)
	}
	token, err := a.IssueSession(u.ID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

func verifySession(ctx context.Context, w io.Writer, a *auth.Adapter, token string) error {
	u, err := a.CurrentUser(ctx, token)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\t%s\n", u.ID, u.Email)
	return err
}

func revokeSession(ctx context.Context, w io.Writer, a *auth.Adapter, token string) error {
	if _, err := a.CurrentUser(ctx, token); err != nil {
		return err
	}
	if err := a.SignOut(ctx, token); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "revoked")
	return err
}
