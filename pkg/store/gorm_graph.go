package store

import (
	"context"
	"errors"
	"fmt"

	"dexter/pkg/domain"
	"dexter/pkg/schema"
)

// loadMany walks a one-to-many relation from the row identified by id and
// converts every target model, oldest first.
func loadMany[M any, T any](ctx context.Context, s *GormStore, relation, id string, conv func(M) T) ([]T, error) {
	rel := schema.MustRelation(relation)
	if rel.Kind != schema.Many {
		return nil, fmt.Errorf("relation %s is not one-to-many", relation)
	}
	q := s.conn(ctx).Where(fmt.Sprintf("%q = ?", rel.TargetColumn), id)
	if t, ok := schema.Lookup(rel.Target); ok {
		if col := t.OrderColumn(); col != "" {
			q = q.Order(fmt.Sprintf("%q", col))
		}
		for _, pk := range t.PrimaryKey {
			q = q.Order(fmt.Sprintf("%q", pk))
		}
	}
	var models []M
	if err := q.Find(&models).Error; err != nil {
		return nil, s.fail(err)
	}
	out := make([]T, 0, len(models))
	for _, m := range models {
		out = append(out, conv(m))
	}
	return out, nil
}

func (s *GormStore) loadNotifications(ctx context.Context, relation, userID string) ([]domain.Notification, error) {
	models, err := loadMany(ctx, s, relation, userID, func(m NotificationModel) NotificationModel { return m })
	if err != nil {
		return nil, err
	}
	return notificationsFromModels(models)
}

func (s *GormStore) LoadUserGraph(ctx context.Context, id string) (domain.UserGraph, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return domain.UserGraph{}, err
	}
	g := domain.UserGraph{User: u}
	steps := []func() error{
		func() (err error) {
			g.Accounts, err = loadMany(ctx, s, schema.RelUserAccounts, id, accountFromModel)
			return err
		},
		func() (err error) {
			g.CreatedTeams, err = loadMany(ctx, s, schema.RelUserCreatedTeams, id, teamFromModel)
			return err
		},
		func() (err error) {
			g.TeamMemberships, err = loadMany(ctx, s, schema.RelUserTeamMemberships, id, memberFromModel)
			return err
		},
		func() (err error) {
			g.SentInvites, err = loadMany(ctx, s, schema.RelUserSentInvites, id, inviteFromModel)
			return err
		},
		func() (err error) {
			g.SentMessages, err = loadMany(ctx, s, schema.RelUserSentMessages, id, messageFromModel)
			return err
		},
		func() (err error) {
			g.OwnedDocuments, err = loadMany(ctx, s, schema.RelUserOwnedDocuments, id, documentFromModel)
			return err
		},
		func() (err error) {
			g.AssignedReviews, err = loadMany(ctx, s, schema.RelUserAssignedReviews, id, reviewerFromModel)
			return err
		},
		func() (err error) {
			g.AssignedReviewers, err = loadMany(ctx, s, schema.RelUserAssignedReviewers, id, reviewerFromModel)
			return err
		},
		func() (err error) {
			g.SubmittedReviews, err = loadMany(ctx, s, schema.RelUserSubmittedReviews, id, reviewFromModel)
			return err
		},
		func() (err error) {
			g.SentNotifications, err = s.loadNotifications(ctx, schema.RelUserSentNotifications, id)
			return err
		},
		func() (err error) {
			g.ReceivedNotifications, err = s.loadNotifications(ctx, schema.RelUserReceivedNotifications, id)
			return err
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return domain.UserGraph{}, err
		}
	}
	return g, nil
}

func (s *GormStore) LoadDocumentGraph(ctx context.Context, id string) (domain.DocumentGraph, error) {
	d, err := s.GetDocument(ctx, id)
	if err != nil {
		return domain.DocumentGraph{}, err
	}
	g := domain.DocumentGraph{Document: d}
	if g.Owner, err = s.GetUser(ctx, d.OwnerID); err != nil {
		return domain.DocumentGraph{}, err
	}
	if g.CurrentVersion, err = s.GetDocumentVersion(ctx, d.CurrentVersionID); err != nil {
		return domain.DocumentGraph{}, err
	}
	if g.Versions, err = s.ListDocumentVersions(ctx, id); err != nil {
		return domain.DocumentGraph{}, err
	}
	if g.Access, err = loadMany(ctx, s, schema.RelDocumentAccess, id, accessFromModel); err != nil {
		return domain.DocumentGraph{}, err
	}
	if g.Reviewers, err = loadMany(ctx, s, schema.RelDocumentReviewers, id, reviewerFromModel); err != nil {
		return domain.DocumentGraph{}, err
	}
	if g.Reviews, err = loadMany(ctx, s, schema.RelDocumentReviews, id, reviewFromModel); err != nil {
		return domain.DocumentGraph{}, err
	}
	if g.Mentions, err = loadMany(ctx, s, schema.RelDocumentMentions, id, documentMentionFromModel); err != nil {
		return domain.DocumentGraph{}, err
	}
	return g, nil
}

func (s *GormStore) LoadConversationGraph(ctx context.Context, id string) (domain.ConversationGraph, error) {
	c, err := s.GetConversation(ctx, id)
	if err != nil {
		return domain.ConversationGraph{}, err
	}
	g := domain.ConversationGraph{Conversation: c}
	if c.TeamID != "" {
		team, err := s.GetTeam(ctx, c.TeamID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return domain.ConversationGraph{}, err
		}
		if err == nil {
			g.Team = &team
		}
	}
	if g.Participants, err = s.ListParticipants(ctx, id); err != nil {
		return domain.ConversationGraph{}, err
	}
	if g.Messages, err = loadMany(ctx, s, schema.RelConversationMessages, id, messageFromModel); err != nil {
		return domain.ConversationGraph{}, err
	}
	if g.MentionedIn, err = loadMany(ctx, s, schema.RelConversationMentionedIn, id, conversationMentionFromModel); err != nil {
		return domain.ConversationGraph{}, err
	}
	return g, nil
}

// Audit counts rows breaking each schema invariant.
func (s *GormStore) Audit(ctx context.Context) (AuditReport, error) {
	report := AuditReport{Checks: make([]AuditCheck, 0, len(schema.Invariants))}
	for _, inv := range schema.Invariants {
		var count int64
		if err := s.conn(ctx).Raw(inv.Query).Scan(&count).Error; err != nil {
			return AuditReport{}, fmt.Errorf("audit %s: %w", inv.Name, err)
		}
		report.Checks = append(report.Checks, AuditCheck{Name: inv.Name, Violations: count})
	}
	return report, nil
}
