package domain

import "time"

type TeamRole string

const (
	RoleOwner  TeamRole = "owner"
	RoleAdmin  TeamRole = "admin"
	RoleMember TeamRole = "member"
)

type DocumentStatus string

const (
	DocumentDraft     DocumentStatus = "draft"
	DocumentPublished DocumentStatus = "published"
	DocumentArchived  DocumentStatus = "archived"
)

type ReviewerStatus string

const (
	ReviewerPending    ReviewerStatus = "pending"
	ReviewerInProgress ReviewerStatus = "in_progress"
	ReviewerCompleted  ReviewerStatus = "completed"
	ReviewerDeclined   ReviewerStatus = "declined"
)

type ReviewStatus string

const (
	ReviewSubmitted ReviewStatus = "submitted"
	ReviewAccepted  ReviewStatus = "accepted"
	ReviewRejected  ReviewStatus = "rejected"
)

type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
	AccessAdmin AccessLevel = "admin"
)

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
	InviteExpired  InviteStatus = "expired"
)

type ConversationType string

const (
	ConversationPrivate ConversationType = "private"
	ConversationTeam    ConversationType = "team"
	ConversationAI      ConversationType = "ai"
)

type FileType string

const (
	FilePDF   FileType = "pdf"
	FileDOCX  FileType = "docx"
	FileXLSX  FileType = "xlsx"
	FilePPTX  FileType = "pptx"
	FileTXT   FileType = "txt"
	FileMD    FileType = "md"
	FileJSON  FileType = "json"
	FileCSV   FileType = "csv"
	FileImage FileType = "image"
)

// User is the root identity. Name, Image and EmailVerified are optional.
type User struct {
	ID            string     `json:"id"`
	Name          *string    `json:"name,omitempty"`
	Email         string     `json:"email" validate:"required"`
	EmailVerified *time.Time `json:"emailVerified,omitempty"`
	Image         *string    `json:"image,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Account is an external OAuth identity keyed by (Provider, ProviderAccountID).
type Account struct {
	UserID            string  `json:"userId" validate:"required"`
	Type              string  `json:"type" validate:"required"`
	Provider          string  `json:"provider" validate:"required"`
	ProviderAccountID string  `json:"providerAccountId" validate:"required"`
	RefreshToken      *string `json:"-"`
	AccessToken       *string `json:"-"`
	ExpiresAt         *int64  `json:"expiresAt,omitempty"`
	TokenType         *string `json:"tokenType,omitempty"`
	Scope             *string `json:"scope,omitempty"`
	IDToken           *string `json:"-"`
	SessionState      *string `json:"sessionState,omitempty"`
}

type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required"`
	CreatedBy string    `json:"createdBy" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
}

type TeamMember struct {
	UserID   string    `json:"userId" validate:"required"`
	TeamID   string    `json:"teamId" validate:"required"`
	Role     TeamRole  `json:"role" validate:"oneof=owner admin member"`
	JoinedAt time.Time `json:"joinedAt"`
}

type TeamInvite struct {
	ID        string       `json:"id"`
	TeamID    string       `json:"teamId" validate:"required"`
	Email     string       `json:"email" validate:"required"`
	InvitedBy string       `json:"invitedBy" validate:"required"`
	Role      TeamRole     `json:"role" validate:"oneof=owner admin member"`
	Status    InviteStatus `json:"status" validate:"oneof=pending accepted declined expired"`
	Token     string       `json:"-" validate:"required"`
	ExpiresAt time.Time    `json:"expiresAt" validate:"required"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Conversation carries a TeamID only when Type is ConversationTeam.
type Conversation struct {
	ID        string           `json:"id"`
	Type      ConversationType `json:"type" validate:"oneof=private team ai"`
	TeamID    string           `json:"teamId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

type ConversationParticipant struct {
	ConversationID string `json:"conversationId" validate:"required"`
	UserID         string `json:"userId" validate:"required"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId" validate:"required"`
	SenderID       string    `json:"senderId" validate:"required"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type MessageMention struct {
	MessageID       string `json:"messageId" validate:"required"`
	MentionedUserID string `json:"mentionedUserId" validate:"required"`
}

type ConversationMention struct {
	MessageID               string    `json:"messageId" validate:"required"`
	MentionedConversationID string    `json:"mentionedConversationId" validate:"required"`
	CreatedAt               time.Time `json:"createdAt"`
}

type DocumentMention struct {
	MessageID  string    `json:"messageId" validate:"required"`
	DocumentID string    `json:"documentId" validate:"required"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Document points at exactly one current DocumentVersion.
type Document struct {
	ID               string         `json:"id"`
	Title            string         `json:"title" validate:"required"`
	OwnerID          string         `json:"ownerId" validate:"required"`
	CurrentVersionID string         `json:"currentVersionId" validate:"required"`
	IsAIGenerated    bool           `json:"isAiGenerated"`
	Status           DocumentStatus `json:"status" validate:"oneof=draft published archived"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// DocumentVersion is immutable once created.
type DocumentVersion struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"documentId" validate:"required"`
	Version       string    `json:"version" validate:"required"`
	FilePath      string    `json:"filePath" validate:"required"`
	FileType      FileType  `json:"fileType" validate:"oneof=pdf docx xlsx pptx txt md json csv image"`
	FileSizeBytes int64     `json:"fileSizeBytes"`
	CreatedBy     string    `json:"createdBy" validate:"required"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DocumentAccess targets exactly one of UserID or TeamID.
type DocumentAccess struct {
	ID          string      `json:"id"`
	DocumentID  string      `json:"documentId" validate:"required"`
	UserID      string      `json:"userId,omitempty"`
	TeamID      string      `json:"teamId,omitempty"`
	AccessLevel AccessLevel `json:"accessLevel" validate:"oneof=read write admin"`
	GrantedAt   time.Time   `json:"grantedAt"`
}

type DocumentReviewer struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"documentId" validate:"required"`
	ReviewerID string         `json:"reviewerId" validate:"required"`
	Status     ReviewerStatus `json:"status" validate:"oneof=pending in_progress completed declined"`
	AssignedAt time.Time      `json:"assignedAt"`
	AssignedBy string         `json:"assignedBy" validate:"required"`
}

type DocumentReview struct {
	ID         string       `json:"id"`
	DocumentID string       `json:"documentId" validate:"required"`
	ReviewerID string       `json:"reviewerId" validate:"required"`
	VersionID  string       `json:"versionId" validate:"required"`
	Comments   string       `json:"comments"`
	Status     ReviewStatus `json:"status" validate:"oneof=submitted accepted rejected"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func (s InviteStatus) Valid() bool {
	switch s {
	case InvitePending, InviteAccepted, InviteDeclined, InviteExpired:
		return true
	}
	return false
}

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentDraft, DocumentPublished, DocumentArchived:
		return true
	}
	return false
}

func (s ReviewerStatus) Valid() bool {
	switch s {
	case ReviewerPending, ReviewerInProgress, ReviewerCompleted, ReviewerDeclined:
		return true
	}
	return false
}

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewSubmitted, ReviewAccepted, ReviewRejected:
		return true
	}
	return false
}

func (f FileType) Valid() bool {
	switch f {
	case FilePDF, FileDOCX, FileXLSX, FilePPTX, FileTXT, FileMD, FileJSON, FileCSV, FileImage:
		return true
	}
	return false
}
