package store

import (
	"strings"
	"time"

	"dexter/internal/util"
	"dexter/pkg/domain"
	"dexter/pkg/schema"
)

// GORM models used for persistence. Tables are created from pkg/schema, not
// AutoMigrate, so tags only carry keys and column names.
type UserModel struct {
	ID            string `gorm:"primaryKey"`
	Name          *string
	Email         string
	EmailVerified *time.Time
	Image         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (UserModel) TableName() string { return schema.TableName(schema.Users) }

type AccountModel struct {
	UserID            string
	Type              string
	Provider          string `gorm:"primaryKey"`
	ProviderAccountID string `gorm:"primaryKey;column:provider_account_id"`
	RefreshToken      *string
	AccessToken       *string
	ExpiresAt         *int64
	TokenType         *string
	Scope             *string
	IDToken           *string `gorm:"column:id_token"`
	SessionState      *string
}

func (AccountModel) TableName() string { return schema.TableName(schema.Accounts) }

type TeamModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

func (TeamModel) TableName() string { return schema.TableName(schema.Teams) }

type TeamMemberModel struct {
	UserID   string `gorm:"primaryKey"`
	TeamID   string `gorm:"primaryKey"`
	Role     string
	JoinedAt time.Time
}

func (TeamMemberModel) TableName() string { return schema.TableName(schema.TeamMembers) }

type TeamInviteModel struct {
	ID        string `gorm:"primaryKey"`
	TeamID    string
	Email     string
	InvitedBy string
	Role      string
	Status    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (TeamInviteModel) TableName() string { return schema.TableName(schema.TeamInvites) }

type ConversationModel struct {
	ID        string `gorm:"primaryKey"`
	Type      string
	TeamID    *string
	CreatedAt time.Time
}

func (ConversationModel) TableName() string { return schema.TableName(schema.Conversations) }

type ParticipantModel struct {
	ConversationID string `gorm:"primaryKey"`
	UserID         string `gorm:"primaryKey"`
}

func (ParticipantModel) TableName() string {
	return schema.TableName(schema.ConversationParticipants)
}

type MessageModel struct {
	ID             string `gorm:"primaryKey"`
	ConversationID string
	SenderID       string
	Content        string
	CreatedAt      time.Time
}

func (MessageModel) TableName() string { return schema.TableName(schema.Messages) }

type MessageMentionModel struct {
	MessageID       string `gorm:"primaryKey"`
	MentionedUserID string `gorm:"primaryKey"`
}

func (MessageMentionModel) TableName() string { return schema.TableName(schema.MessageMentions) }

type ConversationMentionModel struct {
	MessageID               string `gorm:"primaryKey"`
	MentionedConversationID string `gorm:"primaryKey"`
	CreatedAt               time.Time
}

func (ConversationMentionModel) TableName() string {
	return schema.TableName(schema.ConversationMentions)
}

type DocumentMentionModel struct {
	MessageID  string `gorm:"primaryKey"`
	DocumentID string `gorm:"primaryKey"`
	CreatedAt  time.Time
}

func (DocumentMentionModel) TableName() string { return schema.TableName(schema.DocumentMentions) }

type DocumentModel struct {
	ID               string `gorm:"primaryKey"`
	Title            string
	OwnerID          string
	CurrentVersionID string
	IsAIGenerated    bool `gorm:"column:is_ai_generated"`
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (DocumentModel) TableName() string { return schema.TableName(schema.Documents) }

type DocumentVersionModel struct {
	ID            string `gorm:"primaryKey"`
	DocumentID    string
	Version       string
	FilePath      string
	FileType      string
	FileSizeBytes int64
	CreatedBy     string
	CreatedAt     time.Time
}

func (DocumentVersionModel) TableName() string { return schema.TableName(schema.DocumentVersions) }

type DocumentAccessModel struct {
	ID          string `gorm:"primaryKey"`
	DocumentID  string
	UserID      *string
	TeamID      *string
	AccessLevel string
	GrantedAt   time.Time
}

func (DocumentAccessModel) TableName() string { return schema.TableName(schema.DocumentAccess) }

type DocumentReviewerModel struct {
	ID         string `gorm:"primaryKey"`
	DocumentID string
	ReviewerID string
	Status     string
	AssignedAt time.Time
	AssignedBy string
}

func (DocumentReviewerModel) TableName() string { return schema.TableName(schema.DocumentReviewers) }

type DocumentReviewModel struct {
	ID         string `gorm:"primaryKey"`
	DocumentID string
	ReviewerID string
	VersionID  string
	Comments   string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (DocumentReviewModel) TableName() string { return schema.TableName(schema.DocumentReviews) }

type NotificationModel struct {
	ID               string `gorm:"primaryKey"`
	SenderID         string
	RecipientID      string
	EventType        string
	ResourceType     string
	MessageID        *string
	DocumentID       *string
	ConversationID   *string
	DocumentReviewID *string
	IsRead           bool
	CreatedAt        time.Time
}

func (NotificationModel) TableName() string { return schema.TableName(schema.Notifications) }

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ensureID(id string) string {
	if id == "" {
		return util.NewID()
	}
	return id
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Image:         u.Image,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		EmailVerified: m.EmailVerified,
		Image:         m.Image,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func accountToModel(a domain.Account) AccountModel {
	return AccountModel(a)
}

func accountFromModel(m AccountModel) domain.Account {
	return domain.Account(m)
}

func teamToModel(t domain.Team) TeamModel { return TeamModel(t) }

func teamFromModel(m TeamModel) domain.Team { return domain.Team(m) }

func memberToModel(m domain.TeamMember) TeamMemberModel {
	return TeamMemberModel{UserID: m.UserID, TeamID: m.TeamID, Role: string(m.Role), JoinedAt: m.JoinedAt}
}

func memberFromModel(m TeamMemberModel) domain.TeamMember {
	return domain.TeamMember{UserID: m.UserID, TeamID: m.TeamID, Role: domain.TeamRole(m.Role), JoinedAt: m.JoinedAt}
}

func inviteToModel(inv domain.TeamInvite) TeamInviteModel {
	return TeamInviteModel{
		ID:        inv.ID,
		TeamID:    inv.TeamID,
		Email:     inv.Email,
		InvitedBy: inv.InvitedBy,
		Role:      string(inv.Role),
		Status:    string(inv.Status),
		Token:     inv.Token,
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}

func inviteFromModel(m TeamInviteModel) domain.TeamInvite {
	return domain.TeamInvite{
		ID:        m.ID,
		TeamID:    m.TeamID,
		Email:     m.Email,
		InvitedBy: m.InvitedBy,
		Role:      domain.TeamRole(m.Role),
		Status:    domain.InviteStatus(m.Status),
		Token:     m.Token,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
}

func conversationToModel(c domain.Conversation) ConversationModel {
	return ConversationModel{ID: c.ID, Type: string(c.Type), TeamID: optional(c.TeamID), CreatedAt: c.CreatedAt}
}

func conversationFromModel(m ConversationModel) domain.Conversation {
	return domain.Conversation{ID: m.ID, Type: domain.ConversationType(m.Type), TeamID: deref(m.TeamID), CreatedAt: m.CreatedAt}
}

func messageToModel(m domain.Message) MessageModel { return MessageModel(m) }

func messageFromModel(m MessageModel) domain.Message { return domain.Message(m) }

func messageMentionFromModel(m MessageMentionModel) domain.MessageMention {
	return domain.MessageMention(m)
}

func conversationMentionFromModel(m ConversationMentionModel) domain.ConversationMention {
	return domain.ConversationMention(m)
}

func documentMentionFromModel(m DocumentMentionModel) domain.DocumentMention {
	return domain.DocumentMention(m)
}

func documentToModel(d domain.Document) DocumentModel {
	return DocumentModel{
		ID:               d.ID,
		Title:            d.Title,
		OwnerID:          d.OwnerID,
		CurrentVersionID: d.CurrentVersionID,
		IsAIGenerated:    d.IsAIGenerated,
		Status:           string(d.Status),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func documentFromModel(m DocumentModel) domain.Document {
	return domain.Document{
		ID:               m.ID,
		Title:            m.Title,
		OwnerID:          m.OwnerID,
		CurrentVersionID: m.CurrentVersionID,
		IsAIGenerated:    m.IsAIGenerated,
		Status:           domain.DocumentStatus(m.Status),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func versionToModel(v domain.DocumentVersion) DocumentVersionModel {
	return DocumentVersionModel{
		ID:            v.ID,
		DocumentID:    v.DocumentID,
		Version:       v.Version,
		FilePath:      v.FilePath,
		FileType:      string(v.FileType),
		FileSizeBytes: v.FileSizeBytes,
		CreatedBy:     v.CreatedBy,
		CreatedAt:     v.CreatedAt,
	}
}

func versionFromModel(m DocumentVersionModel) domain.DocumentVersion {
	return domain.DocumentVersion{
		ID:            m.ID,
		DocumentID:    m.DocumentID,
		Version:       m.Version,
		FilePath:      m.FilePath,
		FileType:      domain.FileType(m.FileType),
		FileSizeBytes: m.FileSizeBytes,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

func accessToModel(a domain.DocumentAccess) DocumentAccessModel {
	return DocumentAccessModel{
		ID:          a.ID,
		DocumentID:  a.DocumentID,
		UserID:      optional(a.UserID),
		TeamID:      optional(a.TeamID),
		AccessLevel: string(a.AccessLevel),
		GrantedAt:   a.GrantedAt,
	}
}

func accessFromModel(m DocumentAccessModel) domain.DocumentAccess {
	return domain.DocumentAccess{
		ID:          m.ID,
		DocumentID:  m.DocumentID,
		UserID:      deref(m.UserID),
		TeamID:      deref(m.TeamID),
		AccessLevel: domain.AccessLevel(m.AccessLevel),
		GrantedAt:   m.GrantedAt,
	}
}

func reviewerToModel(r domain.DocumentReviewer) DocumentReviewerModel {
	return DocumentReviewerModel{
		ID:         r.ID,
		DocumentID: r.DocumentID,
		ReviewerID: r.ReviewerID,
		Status:     string(r.Status),
		AssignedAt: r.AssignedAt,
		AssignedBy: r.AssignedBy,
	}
}

func reviewerFromModel(m DocumentReviewerModel) domain.DocumentReviewer {
	return domain.DocumentReviewer{
		ID:         m.ID,
		DocumentID: m.DocumentID,
		ReviewerID: m.ReviewerID,
		Status:     domain.ReviewerStatus(m.Status),
		AssignedAt: m.AssignedAt,
		AssignedBy: m.AssignedBy,
	}
}

func reviewToModel(r domain.DocumentReview) DocumentReviewModel {
	return DocumentReviewModel{
		ID:         r.ID,
		DocumentID: r.DocumentID,
		ReviewerID: r.ReviewerID,
		VersionID:  r.VersionID,
		Comments:   r.Comments,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func reviewFromModel(m DocumentReviewModel) domain.DocumentReview {
	return domain.DocumentReview{
		ID:         m.ID,
		DocumentID: m.DocumentID,
		ReviewerID: m.ReviewerID,
		VersionID:  m.VersionID,
		Comments:   m.Comments,
		Status:     domain.ReviewStatus(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func notificationToModel(n domain.Notification) (NotificationModel, error) {
	cols, err := domain.FlattenResource(n.Resource)
	if err != nil {
		return NotificationModel{}, err
	}
	return NotificationModel{
		ID:               n.ID,
		SenderID:         n.SenderID,
		RecipientID:      n.RecipientID,
		EventType:        string(n.EventType),
		ResourceType:     string(cols.ResourceType),
		MessageID:        cols.MessageID,
		DocumentID:       cols.DocumentID,
		ConversationID:   cols.ConversationID,
		DocumentReviewID: cols.DocumentReviewID,
		IsRead:           n.IsRead,
		CreatedAt:        n.CreatedAt,
	}, nil
}

func notificationFromModel(m NotificationModel) (domain.Notification, error) {
	res, err := domain.ResourceColumns{
		ResourceType:     domain.ResourceType(m.ResourceType),
		MessageID:        m.MessageID,
		DocumentID:       m.DocumentID,
		ConversationID:   m.ConversationID,
		DocumentReviewID: m.DocumentReviewID,
	}.Resource()
	if err != nil {
		return domain.Notification{}, err
	}
	return domain.Notification{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		EventType:   domain.EventType(m.EventType),
		Resource:    res,
		IsRead:      m.IsRead,
		CreatedAt:   m.CreatedAt,
	}, nil
}
