package domain

// UserGraph is a user with the rows reachable over its named relations.
type UserGraph struct {
	User                  User               `json:"user"`
	Accounts              []Account          `json:"accounts"`
	CreatedTeams          []Team             `json:"createdTeams"`
	TeamMemberships       []TeamMember       `json:"teamMemberships"`
	SentInvites           []TeamInvite       `json:"sentInvites"`
	SentMessages          []Message          `json:"sentMessages"`
	OwnedDocuments        []Document         `json:"ownedDocuments"`
	AssignedReviews       []DocumentReviewer `json:"assignedReviews"`
	AssignedReviewers     []DocumentReviewer `json:"assignedReviewers"`
	SubmittedReviews      []DocumentReview   `json:"submittedReviews"`
	SentNotifications     []Notification     `json:"sentNotifications"`
	ReceivedNotifications []Notification     `json:"receivedNotifications"`
}

type DocumentGraph struct {
	Document       Document           `json:"document"`
	Owner          User               `json:"owner"`
	CurrentVersion DocumentVersion    `json:"currentVersion"`
	Versions       []DocumentVersion  `json:"versions"`
	Access         []DocumentAccess   `json:"access"`
	Reviewers      []DocumentReviewer `json:"reviewers"`
	Reviews        []DocumentReview   `json:"reviews"`
	Mentions       []DocumentMention  `json:"mentions"`
}

type ConversationGraph struct {
	Conversation Conversation          `json:"conversation"`
	Team         *Team                 `json:"team,omitempty"`
	Participants []User                `json:"participants"`
	Messages     []Message             `json:"messages"`
	MentionedIn  []ConversationMention `json:"mentionedIn"`
}
