package store

import (
	"context"
	"fmt"

	"dexter/pkg/domain"
	"dexter/pkg/schema"
)

// CreateConversation inserts a conversation. A team id on a private or AI
// conversation, or a team conversation without one, is a check violation.
func (s *GormStore) CreateConversation(ctx context.Context, c domain.Conversation) (domain.Conversation, error) {
	if err := validate(c); err != nil {
		return domain.Conversation{}, s.metrics.reject(err)
	}
	c.ID = ensureID(c.ID)
	c.CreatedAt = stamp(c.CreatedAt)
	model := conversationToModel(c)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return domain.Conversation{}, s.fail(err)
	}
	return conversationFromModel(model), nil
}

func (s *GormStore) GetConversation(ctx context.Context, id string) (domain.Conversation, error) {
	var model ConversationModel
	if err := s.first(ctx, &model, "id = ?", id); err != nil {
		return domain.Conversation{}, err
	}
	return conversationFromModel(model), nil
}

func (s *GormStore) AddParticipant(ctx context.Context, conversationID, userID string) error {
	p := domain.ConversationParticipant{ConversationID: conversationID, UserID: userID}
	if err := validate(p); err != nil {
		return s.metrics.reject(err)
	}
	model := ParticipantModel(p)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return s.fail(err)
	}
	return nil
}

// ListParticipants returns the users taking part in a conversation.
func (s *GormStore) ListParticipants(ctx context.Context, conversationID string) ([]domain.User, error) {
	rel := schema.MustRelation(schema.RelParticipantUser)
	var models []UserModel
	err := s.conn(ctx).
		Joins(fmt.Sprintf("JOIN %q ON %s", schema.TableName(rel.Source), rel.JoinClause())).
		Where(fmt.Sprintf("%q.conversation_id = ?", schema.TableName(rel.Source)), conversationID).
		Order(fmt.Sprintf("%q.created_at ASC", schema.TableName(rel.Target))).
		Find(&models).Error
	if err != nil {
		return nil, s.fail(err)
	}
	users := make([]domain.User, 0, len(models))
	for _, m := range models {
		users = append(users, userFromModel(m))
	}
	return users, nil
}

func (s *GormStore) DeleteConversation(ctx context.Context, id string) error {
	return s.affected(s.conn(ctx).Delete(&ConversationModel{}, "id = ?", id))
}

func (s *GormStore) CreateMessage(ctx context.Context, m domain.Message) (domain.Message, error) {
	if err := validate(m); err != nil {
		return domain.Message{}, s.metrics.reject(err)
	}
	m.ID = ensureID(m.ID)
	m.CreatedAt = stamp(m.CreatedAt)
	model := messageToModel(m)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return domain.Message{}, s.fail(err)
	}
	return messageFromModel(model), nil
}

// ListMessages returns recent messages for a conversation (newest first, then
// reversed to chronological).
func (s *GormStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return []domain.Message{}, nil
	}
	var models []MessageModel
	if err := s.conn(ctx).Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, s.fail(err)
	}
	msgs := make([]domain.Message, 0, len(models))
	for i := len(models) - 1; i >= 0; i-- {
		msgs = append(msgs, messageFromModel(models[i]))
	}
	return msgs, nil
}

func (s *GormStore) AddMessageMention(ctx context.Context, m domain.MessageMention) error {
	if err := validate(m); err != nil {
		return s.metrics.reject(err)
	}
	model := MessageMentionModel(m)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *GormStore) AddConversationMention(ctx context.Context, m domain.ConversationMention) error {
	if err := validate(m); err != nil {
		return s.metrics.reject(err)
	}
	m.CreatedAt = stamp(m.CreatedAt)
	model := ConversationMentionModel(m)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *GormStore) AddDocumentMention(ctx context.Context, m domain.DocumentMention) error {
	if err := validate(m); err != nil {
		return s.metrics.reject(err)
	}
	m.CreatedAt = stamp(m.CreatedAt)
	model := DocumentMentionModel(m)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *GormStore) ListMessageMentions(ctx context.Context, messageID string) ([]domain.MessageMention, error) {
	var models []MessageMentionModel
	if err := s.conn(ctx).Where("message_id = ?", messageID).Find(&models).Error; err != nil {
		return nil, s.fail(err)
	}
	out := make([]domain.MessageMention, 0, len(models))
	for _, m := range models {
		out = append(out, messageMentionFromModel(m))
	}
	return out, nil
}

func (s *GormStore) DeleteMessage(ctx context.Context, id string) error {
	return s.affected(s.conn(ctx).Delete(&MessageModel{}, "id = ?", id))
}
