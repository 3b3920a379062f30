package schema

import (
	"fmt"
	"sort"
)

type Kind string

const (
	One  Kind = "one"
	Many Kind = "many"
)

// Relation is a named, directed edge between two tables. SourceColumn on the
// source table equals TargetColumn on the target table.
type Relation struct {
	Name         string
	Source       string
	Target       string
	Kind         Kind
	SourceColumn string
	TargetColumn string
	// Inverse names the edge walked in the opposite direction, if declared.
	Inverse string
}

// JoinClause renders the join predicate between the physical tables.
func (r Relation) JoinClause() string {
	return fmt.Sprintf("%q.%q = %q.%q",
		TableName(r.Source), r.SourceColumn, TableName(r.Target), r.TargetColumn)
}

// Relations maps every relation name ("<table>.<field>") to its edge.
var Relations = buildRelations()

// Relation names used by the graph loaders.
const (
	RelAccountUser               = "account.user"
	RelUserAccounts              = "user.accounts"
	RelUserCreatedTeams          = "user.createdTeams"
	RelUserTeamMemberships       = "user.teamMemberships"
	RelUserSentInvites           = "user.sentInvites"
	RelUserSentMessages          = "user.sentMessages"
	RelUserOwnedDocuments        = "user.ownedDocuments"
	RelUserAssignedReviews       = "user.assignedReviews"
	RelUserAssignedReviewers     = "user.assignedReviewers"
	RelUserSubmittedReviews      = "user.submittedReviews"
	RelUserSentNotifications     = "user.sentNotifications"
	RelUserReceivedNotifications = "user.receivedNotifications"

	RelDocumentOwner          = "documents.owner"
	RelDocumentCurrentVersion = "documents.currentVersion"
	RelDocumentVersions       = "documents.versions"
	RelDocumentAccess         = "documents.access"
	RelDocumentReviewers      = "documents.reviewers"
	RelDocumentReviews        = "documents.reviews"
	RelDocumentMentions       = "documents.mentions"

	RelConversationTeam         = "conversations.team"
	RelConversationParticipants = "conversations.participants"
	RelConversationMessages     = "conversations.messages"
	RelConversationMentionedIn  = "conversations.mentionedIn"
	RelParticipantUser          = "conversation_participants.user"
)

func buildRelations() map[string]Relation {
	rels := make(map[string]Relation)
	// link registers child.field -> parent through fk, and the inverse
	// many edge parent.inverse when inverse is non-empty.
	link := func(child, field, fk, parent, inverse string) {
		one := Relation{
			Name:         child + "." + field,
			Source:       child,
			Target:       parent,
			Kind:         One,
			SourceColumn: fk,
			TargetColumn: "id",
		}
		if inverse != "" {
			many := Relation{
				Name:         parent + "." + inverse,
				Source:       parent,
				Target:       child,
				Kind:         Many,
				SourceColumn: "id",
				TargetColumn: fk,
				Inverse:      one.Name,
			}
			one.Inverse = many.Name
			rels[many.Name] = many
		}
		rels[one.Name] = one
	}

	link(Accounts, "user", "user_id", Users, "accounts")

	link(Teams, "creator", "created_by", Users, "createdTeams")
	link(TeamMembers, "user", "user_id", Users, "teamMemberships")
	link(TeamMembers, "team", "team_id", Teams, "members")
	link(TeamInvites, "team", "team_id", Teams, "invites")
	link(TeamInvites, "inviter", "invited_by", Users, "sentInvites")

	link(Conversations, "team", "team_id", Teams, "conversations")
	link(ConversationParticipants, "conversation", "conversation_id", Conversations, "participants")
	link(ConversationParticipants, "user", "user_id", Users, "conversationParticipations")
	link(Messages, "conversation", "conversation_id", Conversations, "messages")
	link(Messages, "sender", "sender_id", Users, "sentMessages")
	link(MessageMentions, "message", "message_id", Messages, "userMentions")
	link(MessageMentions, "mentionedUser", "mentioned_user_id", Users, "messageMentions")
	link(ConversationMentions, "message", "message_id", Messages, "conversationMentions")
	link(ConversationMentions, "mentionedConversation", "mentioned_conversation_id", Conversations, "mentionedIn")

	link(Documents, "owner", "owner_id", Users, "ownedDocuments")
	link(Documents, "currentVersion", "current_version_id", DocumentVersions, "")
	link(DocumentVersions, "document", "document_id", Documents, "versions")
	link(DocumentVersions, "creator", "created_by", Users, "")
	link(DocumentAccess, "document", "document_id", Documents, "access")
	link(DocumentAccess, "user", "user_id", Users, "documentAccess")
	link(DocumentAccess, "team", "team_id", Teams, "")
	link(DocumentReviewers, "document", "document_id", Documents, "reviewers")
	link(DocumentReviewers, "reviewer", "reviewer_id", Users, "assignedReviews")
	link(DocumentReviewers, "assigner", "assigned_by", Users, "assignedReviewers")
	link(DocumentReviews, "document", "document_id", Documents, "reviews")
	link(DocumentReviews, "reviewer", "reviewer_id", Users, "submittedReviews")
	link(DocumentReviews, "version", "version_id", DocumentVersions, "")
	link(DocumentMentions, "message", "message_id", Messages, "documentMentions")
	link(DocumentMentions, "document", "document_id", Documents, "mentions")

	link(Notifications, "sender", "sender_id", Users, "sentNotifications")
	link(Notifications, "recipient", "recipient_id", Users, "receivedNotifications")
	link(Notifications, "message", "message_id", Messages, "")
	link(Notifications, "document", "document_id", Documents, "")
	link(Notifications, "conversation", "conversation_id", Conversations, "")
	link(Notifications, "documentReview", "document_review_id", DocumentReviews, "")

	return rels
}

// MustRelation returns the named relation and panics when it is not declared.
func MustRelation(name string) Relation {
	r, ok := Relations[name]
	if !ok {
		panic("schema: unknown relation " + name)
	}
	return r
}

// From lists the relations leaving a table, sorted by name.
func From(table string) []Relation {
	out := make([]Relation, 0, 8)
	for _, r := range Relations {
		if r.Source == table {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
