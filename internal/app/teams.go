package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"

	"dexter/internal/util"
	"dexter/pkg/domain"
	"dexter/pkg/store"
)

// CreateTeam creates a team with its creator as owner.
func (a *App) CreateTeam(ctx context.Context, creatorID, name string) (domain.Team, error) {
	var team domain.Team
	err := a.inTx(ctx, func(tx store.Store, _ *outbox) error {
		var err error
		team, err = tx.CreateTeam(ctx, domain.Team{Name: strings.TrimSpace(name), CreatedBy: creatorID})
		if err != nil {
			return fmt.Errorf("create team: %w", err)
		}
		return tx.AddTeamMember(ctx, domain.TeamMember{UserID: creatorID, TeamID: team.ID, Role: domain.RoleOwner})
	})
	if err != nil {
		return domain.Team{}, err
	}
	return team, nil
}

// InviteMember issues an invite token for email. Only owners and admins
// may invite, and never with a role above their own.
func (a *App) InviteMember(ctx context.Context, inviterID, teamID, email string, role domain.TeamRole) (domain.TeamInvite, error) {
	m, ok, err := teamMember(ctx, a.store, teamID, inviterID)
	if err != nil {
		return domain.TeamInvite{}, err
	}
	if !ok || m.Role == domain.RoleMember {
		return domain.TeamInvite{}, ErrForbidden
	}
	if role == "" {
		role = domain.RoleMember
	}
	if teamRoleRank[role] > teamRoleRank[m.Role] {
		return domain.TeamInvite{}, fmt.Errorf("%w: cannot invite as %s", ErrForbidden, role)
	}
	if a.limiter != nil {
		allowed, err := a.limiter.Allow(ctx, "invite:"+inviterID)
		if err != nil {
			return domain.TeamInvite{}, err
		}
		if !allowed {
			return domain.TeamInvite{}, ErrRateLimited
		}
	}
	return a.store.CreateTeamInvite(ctx, domain.TeamInvite{
		TeamID:    teamID,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		InvitedBy: inviterID,
		Role:      role,
		Status:    domain.InvitePending,
		Token:     util.NewID(),
		ExpiresAt: a.now().Add(a.inviteTTL),
	})
}

// AcceptInvite joins userID to the invite's team with the invite's role.
func (a *App) AcceptInvite(ctx context.Context, userID, token string) (domain.TeamMember, error) {
	var member domain.TeamMember
	err := a.resolveInvite(ctx, userID, token, func(tx store.Store, inv domain.TeamInvite) error {
		member = domain.TeamMember{UserID: userID, TeamID: inv.TeamID, Role: inv.Role}
		if err := tx.AddTeamMember(ctx, member); err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		return tx.SetInviteStatus(ctx, inv.ID, domain.InviteAccepted)
	})
	if err != nil {
		return domain.TeamMember{}, err
	}
	return member, nil
}

// DeclineInvite closes the invite without joining.
func (a *App) DeclineInvite(ctx context.Context, userID, token string) error {
	return a.resolveInvite(ctx, userID, token, func(tx store.Store, inv domain.TeamInvite) error {
		return tx.SetInviteStatus(ctx, inv.ID, domain.InviteDeclined)
	})
}

func (a *App) resolveInvite(ctx context.Context, userID, token string, fn func(store.Store, domain.TeamInvite) error) error {
	var expired bool
	err := a.inTx(ctx, func(tx store.Store, _ *outbox) error {
		inv, err := tx.GetTeamInviteByToken(ctx, token)
		if err != nil {
			return err
		}
		if inv.Status != domain.InvitePending {
			return ErrInviteNotActive
		}
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if !strings.EqualFold(u.Email, inv.Email) {
			return ErrInviteEmail
		}
		if !inv.ExpiresAt.After(a.now()) {
			expired = true
			return tx.SetInviteStatus(ctx, inv.ID, domain.InviteExpired)
		}
		return fn(tx, inv)
	})
	if err != nil {
		return err
	}
	if expired {
		return ErrInviteExpired
	}
	return nil
}

// ExpireInvites marks overdue pending invites expired.
func (a *App) ExpireInvites(ctx context.Context) (int64, error) {
	return a.store.ExpireInvites(ctx, a.now())
}

// ScheduleInviteExpiry registers ExpireInvites on c with a cron spec.
func (a *App) ScheduleInviteExpiry(ctx context.Context, c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		n, err := a.ExpireInvites(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Error("app: expire invites failed", "err", err)
			}
			return
		}
		if n > 0 {
			slog.Info("app: expired invites", "count", n)
		}
	})
}
