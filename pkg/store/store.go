package store

import (
	"context"
	"time"

	"dexter/pkg/domain"
)

// Store defines persistence operations over the dexter schema. Every write is
// checked by the same uniqueness, check and foreign key rules in all
// implementations, and rejections surface as the sentinel errors in errors.go.
type Store interface {
	// users
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateUser(ctx context.Context, u domain.User) (domain.User, error)
	DeleteUser(ctx context.Context, id string) error

	// accounts
	LinkAccount(ctx context.Context, a domain.Account) error
	UpdateAccountTokens(ctx context.Context, a domain.Account) error
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (domain.User, error)
	UnlinkAccount(ctx context.Context, provider, providerAccountID string) error
	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)

	// teams
	CreateTeam(ctx context.Context, t domain.Team) (domain.Team, error)
	GetTeam(ctx context.Context, id string) (domain.Team, error)
	RenameTeam(ctx context.Context, id, name string) error
	DeleteTeam(ctx context.Context, id string) error
	AddTeamMember(ctx context.Context, m domain.TeamMember) error
	ListTeamMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error)
	CreateTeamInvite(ctx context.Context, inv domain.TeamInvite) (domain.TeamInvite, error)
	GetTeamInviteByToken(ctx context.Context, token string) (domain.TeamInvite, error)
	SetInviteStatus(ctx context.Context, id string, status domain.InviteStatus) error
	ExpireInvites(ctx context.Context, now time.Time) (int64, error)

	// conversations
	CreateConversation(ctx context.Context, c domain.Conversation) (domain.Conversation, error)
	GetConversation(ctx context.Context, id string) (domain.Conversation, error)
	AddParticipant(ctx context.Context, conversationID, userID string) error
	ListParticipants(ctx context.Context, conversationID string) ([]domain.User, error)
	DeleteConversation(ctx context.Context, id string) error

	// messages
	CreateMessage(ctx context.Context, m domain.Message) (domain.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
	AddMessageMention(ctx context.Context, m domain.MessageMention) error
	AddConversationMention(ctx context.Context, m domain.ConversationMention) error
	AddDocumentMention(ctx context.Context, m domain.DocumentMention) error
	ListMessageMentions(ctx context.Context, messageID string) ([]domain.MessageMention, error)
	DeleteMessage(ctx context.Context, id string) error

	// documents
	CreateDocumentVersion(ctx context.Context, v domain.DocumentVersion) (domain.DocumentVersion, error)
	CreateDocument(ctx context.Context, d domain.Document) (domain.Document, error)
	GetDocument(ctx context.Context, id string) (domain.Document, error)
	SetCurrentVersion(ctx context.Context, documentID, versionID string) error
	SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus) error
	ListDocumentVersions(ctx context.Context, documentID string) ([]domain.DocumentVersion, error)
	GetDocumentVersion(ctx context.Context, id string) (domain.DocumentVersion, error)
	DeleteDocument(ctx context.Context, id string) error

	// access and reviews
	GrantAccess(ctx context.Context, a domain.DocumentAccess) (domain.DocumentAccess, error)
	ListDocumentAccess(ctx context.Context, documentID string) ([]domain.DocumentAccess, error)
	AssignReviewer(ctx context.Context, r domain.DocumentReviewer) (domain.DocumentReviewer, error)
	SetReviewerStatus(ctx context.Context, documentID, reviewerID string, status domain.ReviewerStatus) error
	CreateReview(ctx context.Context, r domain.DocumentReview) (domain.DocumentReview, error)
	GetReview(ctx context.Context, id string) (domain.DocumentReview, error)
	SetReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) error

	// notifications
	CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error)
	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	// graph reads
	LoadUserGraph(ctx context.Context, id string) (domain.UserGraph, error)
	LoadDocumentGraph(ctx context.Context, id string) (domain.DocumentGraph, error)
	LoadConversationGraph(ctx context.Context, id string) (domain.ConversationGraph, error)

	// WithTx runs fn against a transactional Store. The transaction commits
	// when fn returns nil and rolls back otherwise; deferred constraints are
	// checked at commit.
	WithTx(ctx context.Context, fn func(Store) error) error
	Audit(ctx context.Context) (AuditReport, error)
	Close() error
}

// AuditCheck counts rows violating one invariant.
type AuditCheck struct {
	Name       string `json:"name"`
	Violations int64  `json:"violations"`
}

type AuditReport struct {
	Checks []AuditCheck `json:"checks"`
}

// OK reports whether no invariant has violating rows.
func (r AuditReport) OK() bool {
	for _, c := range r.Checks {
		if c.Violations != 0 {
			return false
		}
	}
	return true
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
