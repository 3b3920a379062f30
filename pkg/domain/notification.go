package domain

import (
	"errors"
	"fmt"
	"time"
)

type EventType string

const (
	EventMention           EventType = "mention"
	EventReviewRequest     EventType = "review_request"
	EventReviewSubmitted   EventType = "review_submitted"
	EventReviewAccepted    EventType = "review_accepted"
	EventReviewRejected    EventType = "review_rejected"
	EventDocumentShare     EventType = "document_share"
	EventConversationShare EventType = "conversation_share"
	EventAccessGranted     EventType = "access_granted"
	EventNewMessage        EventType = "new_message"
)

type ResourceType string

const (
	ResourceMessage        ResourceType = "message"
	ResourceDocument       ResourceType = "document"
	ResourceConversation   ResourceType = "conversation"
	ResourceDocumentReview ResourceType = "document_review"
)

// Resource is the entity a notification points at. Exactly one of the
// concrete types below is stored per notification.
type Resource interface {
	Type() ResourceType
	ID() string
}

type MessageResource struct{ MessageID string }

func (r MessageResource) Type() ResourceType { return ResourceMessage }
func (r MessageResource) ID() string         { return r.MessageID }

type DocumentResource struct{ DocumentID string }

func (r DocumentResource) Type() ResourceType { return ResourceDocument }
func (r DocumentResource) ID() string         { return r.DocumentID }

type ConversationResource struct{ ConversationID string }

func (r ConversationResource) Type() ResourceType { return ResourceConversation }
func (r ConversationResource) ID() string         { return r.ConversationID }

type DocumentReviewResource struct{ DocumentReviewID string }

func (r DocumentReviewResource) Type() ResourceType { return ResourceDocumentReview }
func (r DocumentReviewResource) ID() string         { return r.DocumentReviewID }

// Notification is a fan-out event record. Only IsRead changes after creation.
type Notification struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId" validate:"required"`
	RecipientID string    `json:"recipientId" validate:"required"`
	EventType   EventType `json:"eventType" validate:"oneof=mention review_request review_submitted review_accepted review_rejected document_share conversation_share access_granted new_message"`
	Resource    Resource  `json:"-"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ResourceColumns is the flattened storage form of a Resource: the
// discriminant plus four nullable foreign keys.
type ResourceColumns struct {
	ResourceType     ResourceType
	MessageID        *string
	DocumentID       *string
	ConversationID   *string
	DocumentReviewID *string
}

var ErrUnknownResource = errors.New("unknown notification resource")

// FlattenResource spreads r over the sidecar columns. A nil resource yields
// ErrUnknownResource.
func FlattenResource(r Resource) (ResourceColumns, error) {
	if r == nil {
		return ResourceColumns{}, ErrUnknownResource
	}
	id := r.ID()
	cols := ResourceColumns{ResourceType: r.Type()}
	switch r.(type) {
	case MessageResource:
		cols.MessageID = &id
	case DocumentResource:
		cols.DocumentID = &id
	case ConversationResource:
		cols.ConversationID = &id
	case DocumentReviewResource:
		cols.DocumentReviewID = &id
	default:
		return ResourceColumns{}, fmt.Errorf("%w: %T", ErrUnknownResource, r)
	}
	return cols, nil
}

// Resource rebuilds the tagged value. It fails when the populated column does
// not match the discriminant, which the storage check constraint rules out.
func (c ResourceColumns) Resource() (Resource, error) {
	set := 0
	for _, v := range []*string{c.MessageID, c.DocumentID, c.ConversationID, c.DocumentReviewID} {
		if v != nil {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: %d resource columns set", ErrUnknownResource, set)
	}
	switch {
	case c.ResourceType == ResourceMessage && c.MessageID != nil:
		return MessageResource{MessageID: *c.MessageID}, nil
	case c.ResourceType == ResourceDocument && c.DocumentID != nil:
		return DocumentResource{DocumentID: *c.DocumentID}, nil
	case c.ResourceType == ResourceConversation && c.ConversationID != nil:
		return ConversationResource{ConversationID: *c.ConversationID}, nil
	case c.ResourceType == ResourceDocumentReview && c.DocumentReviewID != nil:
		return DocumentReviewResource{DocumentReviewID: *c.DocumentReviewID}, nil
	}
	return nil, fmt.Errorf("%w: %s does not match populated column", ErrUnknownResource, c.ResourceType)
}
