package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dexter/pkg/domain"
	"dexter/pkg/store"
)

// Profile is the identity an OAuth provider reports at sign-in.
type Profile struct {
	Email         string
	Name          *string
	Image         *string
	EmailVerified *time.Time
}

// Adapter resolves provider sign-ins to users and maps sessions back to them.
type Adapter struct {
	store    store.Store
	sessions *SessionCodec
}

func NewAdapter(s store.Store, sessions *SessionCodec) *Adapter {
	return &Adapter{store: s, sessions: sessions}
}

// SignIn returns the user behind account. An account seen before refreshes
// its tokens. An unseen account is linked to the user with the same email,
// which is created first when missing.
func (a *Adapter) SignIn(ctx context.Context, profile Profile, account domain.Account) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return domain.User{}, fmt.Errorf("%w: email required", store.ErrInvalidInput)
	}

	u, err := a.store.GetUserByAccount(ctx, account.Provider, account.ProviderAccountID)
	if err == nil {
		account.UserID = u.ID
		if err := a.store.UpdateAccountTokens(ctx, account); err != nil {
			return domain.User{}, fmt.Errorf("refresh account tokens: %w", err)
		}
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	err = a.store.WithTx(ctx, func(tx store.Store) error {
		existing, err := tx.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			u = existing
			slog.Info("auth: linking account to existing user", "user_id", u.ID, "provider", account.Provider)
		case errors.Is(err, store.ErrNotFound):
			u, err = tx.CreateUser(ctx, domain.User{
				Email:         email,
				Name:          profile.Name,
				Image:         profile.Image,
				EmailVerified: profile.EmailVerified,
			})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
		default:
			return err
		}
		account.UserID = u.ID
		if err := tx.LinkAccount(ctx, account); err != nil {
			return fmt.Errorf("link account: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// IssueSession signs a session token for userID.
func (a *Adapter) IssueSession(userID string) (string, error) {
	if a.sessions == nil {
		return "", errors.New("sessions not configured")
	}
	return a.sessions.Issue(userID)
}

// CurrentUser loads the user a session token belongs to.
func (a *Adapter) CurrentUser(ctx context.Context, token string) (domain.User, error) {
	if a.sessions == nil {
		return domain.User{}, errors.New("sessions not configured")
	}
	id, err := a.sessions.UserID(ctx, token)
	if err != nil {
		return domain.User{}, err
	}
	return a.store.GetUser(ctx, id)
}

// SignOut revokes the session token.
func (a *Adapter) SignOut(ctx context.Context, token string) error {
	if a.sessions == nil {
		return nil
	}
	return a.sessions.Revoke(ctx, token)
}

func (a *Adapter) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return a.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (a *Adapter) UserByAccount(ctx context.Context, provider, providerAccountID string) (domain.User, error) {
	return a.store.GetUserByAccount(ctx, provider, providerAccountID)
}

func (a *Adapter) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	return a.store.UnlinkAccount(ctx, provider, providerAccountID)
}
