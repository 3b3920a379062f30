package app

import (
	"context"
	"fmt"
	"strings"

	"dexter/pkg/domain"
	"dexter/pkg/store"
)

// Mentions lists what a message refers to.
type Mentions struct {
	Users         []string
	Conversations []string
	Documents     []string
}

// StartTeamConversation opens a team conversation with every current member
// as a participant. The starter must belong to the team.
func (a *App) StartTeamConversation(ctx context.Context, starterID, teamID string) (domain.Conversation, error) {
	var conv domain.Conversation
	err := a.inTx(ctx, func(tx store.Store, _ *outbox) error {
		members, err := tx.ListTeamMembers(ctx, teamID)
		if err != nil {
			return err
		}
		ids := memberIDs(members)
		if !contains(ids, starterID) {
			return ErrForbidden
		}
		conv, err = tx.CreateConversation(ctx, domain.Conversation{Type: domain.ConversationTeam, TeamID: teamID})
		if err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		return addParticipants(ctx, tx, conv.ID, ids)
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return conv, nil
}

// StartPrivateConversation opens a private conversation between the starter
// and others.
func (a *App) StartPrivateConversation(ctx context.Context, starterID string, others ...string) (domain.Conversation, error) {
	return a.startConversation(ctx, domain.ConversationPrivate, append([]string{starterID}, others...))
}

// StartAIConversation opens an assistant conversation for userID.
func (a *App) StartAIConversation(ctx context.Context, userID string) (domain.Conversation, error) {
	return a.startConversation(ctx, domain.ConversationAI, []string{userID})
}

func (a *App) startConversation(ctx context.Context, kind domain.ConversationType, users []string) (domain.Conversation, error) {
	var conv domain.Conversation
	err := a.inTx(ctx, func(tx store.Store, _ *outbox) error {
		var err error
		conv, err = tx.CreateConversation(ctx, domain.Conversation{Type: kind})
		if err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		return addParticipants(ctx, tx, conv.ID, users)
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return conv, nil
}

// PostMessage stores a message with its mentions. Mentioned users get a
// mention notification, other participants a new_message one.
func (a *App) PostMessage(ctx context.Context, senderID, conversationID, content string, m Mentions) (domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, ErrContentRequired
	}
	var msg domain.Message
	err := a.inTx(ctx, func(tx store.Store, out *outbox) error {
		participants, err := tx.ListParticipants(ctx, conversationID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(participants))
		for _, p := range participants {
			ids = append(ids, p.ID)
		}
		if !contains(ids, senderID) {
			return ErrNotParticipant
		}
		msg, err = tx.CreateMessage(ctx, domain.Message{ConversationID: conversationID, SenderID: senderID, Content: content})
		if err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		for _, u := range dedupe(m.Users) {
			if err := tx.AddMessageMention(ctx, domain.MessageMention{MessageID: msg.ID, MentionedUserID: u}); err != nil {
				return fmt.Errorf("mention user: %w", err)
			}
		}
		for _, c := range dedupe(m.Conversations) {
			if err := tx.AddConversationMention(ctx, domain.ConversationMention{MessageID: msg.ID, MentionedConversationID: c}); err != nil {
				return fmt.Errorf("mention conversation: %w", err)
			}
		}
		for _, d := range dedupe(m.Documents) {
			if err := tx.AddDocumentMention(ctx, domain.DocumentMention{MessageID: msg.ID, DocumentID: d}); err != nil {
				return fmt.Errorf("mention document: %w", err)
			}
		}

		res := domain.MessageResource{MessageID: msg.ID}
		mentioned := dedupe(m.Users)
		if err := out.notify(ctx, tx, senderID, mentioned, domain.EventMention, res); err != nil {
			return err
		}
		rest := make([]string, 0, len(ids))
		for _, id := range ids {
			if !contains(mentioned, id) {
				rest = append(rest, id)
			}
		}
		return out.notify(ctx, tx, senderID, rest, domain.EventNewMessage, res)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// History returns the latest limit messages, oldest first, to a participant.
func (a *App) History(ctx context.Context, userID, conversationID string, limit int) ([]domain.Message, error) {
	participants, err := a.store.ListParticipants(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		if p.ID == userID {
			return a.store.ListMessages(ctx, conversationID, limit)
		}
	}
	return nil, ErrNotParticipant
}

func addParticipants(ctx context.Context, tx store.Store, conversationID string, users []string) error {
	for _, u := range dedupe(users) {
		if err := tx.AddParticipant(ctx, conversationID, u); err != nil {
			return fmt.Errorf("add participant: %w", err)
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
