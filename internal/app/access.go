package app

import (
	"context"

	"dexter/pkg/domain"
	"dexter/pkg/store"
)

var accessRank = map[domain.AccessLevel]int{
	domain.AccessRead:  1,
	domain.AccessWrite: 2,
	domain.AccessAdmin: 3,
}

var teamRoleRank = map[domain.TeamRole]int{
	domain.RoleMember: 1,
	domain.RoleAdmin:  2,
	domain.RoleOwner:  3,
}

// effectiveAccess returns the strongest rank userID holds on doc. Owners
// hold admin.
func effectiveAccess(ctx context.Context, s store.Store, userID string, doc domain.Document) (int, error) {
	if doc.OwnerID == userID {
		return accessRank[domain.AccessAdmin], nil
	}
	grants, err := s.ListDocumentAccess(ctx, doc.ID)
	if err != nil {
		return 0, err
	}
	best := 0
	for _, g := range grants {
		rank := accessRank[g.AccessLevel]
		if rank <= best {
			continue
		}
		switch {
		case g.UserID == userID:
			best = rank
		case g.TeamID != "":
			ok, err := isTeamMember(ctx, s, g.TeamID, userID)
			if err != nil {
				return 0, err
			}
			if ok {
				best = rank
			}
		}
	}
	return best, nil
}

func requireAccess(ctx context.Context, s store.Store, userID string, doc domain.Document, level domain.AccessLevel) error {
	rank, err := effectiveAccess(ctx, s, userID, doc)
	if err != nil {
		return err
	}
	if rank < accessRank[level] {
		return ErrForbidden
	}
	return nil
}

func isTeamMember(ctx context.Context, s store.Store, teamID, userID string) (bool, error) {
	_, ok, err := teamMember(ctx, s, teamID, userID)
	return ok, err
}

func teamMember(ctx context.Context, s store.Store, teamID, userID string) (domain.TeamMember, bool, error) {
	members, err := s.ListTeamMembers(ctx, teamID)
	if err != nil {
		return domain.TeamMember{}, false, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return m, true, nil
		}
	}
	return domain.TeamMember{}, false, nil
}

func memberIDs(members []domain.TeamMember) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.UserID)
	}
	return out
}
