package store

import (
	"context"

	"dexter/pkg/domain"
	"dexter/pkg/schema"
)

// The delete helpers mirror ON DELETE CASCADE on every foreign key. Each one
// removes its own row before cascading, so the document/version cycle
// terminates.

func (d *memData) deleteUser(id string) {
	if _, ok := d.users[id]; !ok {
		return
	}
	delete(d.users, id)
	for k, a := range d.accounts {
		if a.UserID == id {
			delete(d.accounts, k)
		}
	}
	for tid, t := range d.teams {
		if t.CreatedBy == id {
			d.deleteTeam(tid)
		}
	}
	for k, m := range d.members {
		if m.UserID == id {
			delete(d.members, k)
		}
	}
	for iid, inv := range d.invites {
		if inv.InvitedBy == id {
			delete(d.invites, iid)
		}
	}
	for k, p := range d.participants {
		if p.UserID == id {
			delete(d.participants, k)
		}
	}
	for mid, m := range d.messages {
		if m.SenderID == id {
			d.deleteMessage(mid)
		}
	}
	for k, m := range d.messageMentions {
		if m.MentionedUserID == id {
			delete(d.messageMentions, k)
		}
	}
	for did, doc := range d.documents {
		if doc.OwnerID == id {
			d.deleteDocument(did)
		}
	}
	for vid, v := range d.versions {
		if v.CreatedBy == id {
			d.deleteVersion(vid)
		}
	}
	for aid, a := range d.access {
		if a.UserID == id {
			delete(d.access, aid)
		}
	}
	for rid, r := range d.reviewers {
		if r.ReviewerID == id || r.AssignedBy == id {
			delete(d.reviewers, rid)
		}
	}
	for rid, r := range d.reviews {
		if r.ReviewerID == id {
			d.deleteReview(rid)
		}
	}
	for nid, n := range d.notifications {
		if n.SenderID == id || n.RecipientID == id {
			delete(d.notifications, nid)
		}
	}
}

func (d *memData) deleteTeam(id string) {
	if _, ok := d.teams[id]; !ok {
		return
	}
	delete(d.teams, id)
	for k, m := range d.members {
		if m.TeamID == id {
			delete(d.members, k)
		}
	}
	for iid, inv := range d.invites {
		if inv.TeamID == id {
			delete(d.invites, iid)
		}
	}
	for cid, c := range d.conversations {
		if c.TeamID == id {
			d.deleteConversation(cid)
		}
	}
	for aid, a := range d.access {
		if a.TeamID == id {
			delete(d.access, aid)
		}
	}
}

func (d *memData) deleteConversation(id string) {
	if _, ok := d.conversations[id]; !ok {
		return
	}
	delete(d.conversations, id)
	for k, p := range d.participants {
		if p.ConversationID == id {
			delete(d.participants, k)
		}
	}
	for mid, m := range d.messages {
		if m.ConversationID == id {
			d.deleteMessage(mid)
		}
	}
	for k, m := range d.conversationMentions {
		if m.MentionedConversationID == id {
			delete(d.conversationMentions, k)
		}
	}
	d.deleteNotifications(func(c domain.ResourceColumns) *string { return c.ConversationID }, id)
}

func (d *memData) deleteMessage(id string) {
	if _, ok := d.messages[id]; !ok {
		return
	}
	delete(d.messages, id)
	for k, m := range d.messageMentions {
		if m.MessageID == id {
			delete(d.messageMentions, k)
		}
	}
	for k, m := range d.conversationMentions {
		if m.MessageID == id {
			delete(d.conversationMentions, k)
		}
	}
	for k, m := range d.documentMentions {
		if m.MessageID == id {
			delete(d.documentMentions, k)
		}
	}
	d.deleteNotifications(func(c domain.ResourceColumns) *string { return c.MessageID }, id)
}

func (d *memData) deleteDocument(id string) {
	if _, ok := d.documents[id]; !ok {
		return
	}
	delete(d.documents, id)
	for vid, v := range d.versions {
		if v.DocumentID == id {
			d.deleteVersion(vid)
		}
	}
	for aid, a := range d.access {
		if a.DocumentID == id {
			delete(d.access, aid)
		}
	}
	for rid, r := range d.reviewers {
		if r.DocumentID == id {
			delete(d.reviewers, rid)
		}
	}
	for rid, r := range d.reviews {
		if r.DocumentID == id {
			d.deleteReview(rid)
		}
	}
	for k, m := range d.documentMentions {
		if m.DocumentID == id {
			delete(d.documentMentions, k)
		}
	}
	d.deleteNotifications(func(c domain.ResourceColumns) *string { return c.DocumentID }, id)
}

func (d *memData) deleteVersion(id string) {
	if _, ok := d.versions[id]; !ok {
		return
	}
	delete(d.versions, id)
	for did, doc := range d.documents {
		if doc.CurrentVersionID == id {
			d.deleteDocument(did)
		}
	}
	for rid, r := range d.reviews {
		if r.VersionID == id {
			d.deleteReview(rid)
		}
	}
}

func (d *memData) deleteReview(id string) {
	if _, ok := d.reviews[id]; !ok {
		return
	}
	delete(d.reviews, id)
	d.deleteNotifications(func(c domain.ResourceColumns) *string { return c.DocumentReviewID }, id)
}

func (d *memData) deleteNotifications(column func(domain.ResourceColumns) *string, id string) {
	for nid, n := range d.notifications {
		cols, err := domain.FlattenResource(n.Resource)
		if err != nil {
			continue
		}
		if ref := column(cols); ref != nil && *ref == id {
			delete(d.notifications, nid)
		}
	}
}

// graph reads

func (s *MemoryStore) LoadUserGraph(ctx context.Context, id string) (domain.UserGraph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data
	u, ok := d.users[id]
	if !ok {
		return domain.UserGraph{}, ErrNotFound
	}
	g := domain.UserGraph{User: u, Accounts: d.accountsOf(id)}
	for _, t := range d.teams {
		if t.CreatedBy == id {
			g.CreatedTeams = append(g.CreatedTeams, t)
		}
	}
	sortRows(d, schema.Teams, g.CreatedTeams, func(t domain.Team) string { return t.ID })
	for _, m := range d.members {
		if m.UserID == id {
			g.TeamMemberships = append(g.TeamMemberships, m)
		}
	}
	sortRows(d, schema.TeamMembers, g.TeamMemberships, memberKey)
	for _, inv := range d.invites {
		if inv.InvitedBy == id {
			g.SentInvites = append(g.SentInvites, inv)
		}
	}
	sortRows(d, schema.TeamInvites, g.SentInvites, func(inv domain.TeamInvite) string { return inv.ID })
	g.SentMessages = d.messagesWhere(func(m domain.Message) bool { return m.SenderID == id })
	for _, doc := range d.documents {
		if doc.OwnerID == id {
			g.OwnedDocuments = append(g.OwnedDocuments, doc)
		}
	}
	sortRows(d, schema.Documents, g.OwnedDocuments, func(doc domain.Document) string { return doc.ID })
	for _, r := range d.reviewers {
		if r.ReviewerID == id {
			g.AssignedReviews = append(g.AssignedReviews, r)
		}
		if r.AssignedBy == id {
			g.AssignedReviewers = append(g.AssignedReviewers, r)
		}
	}
	reviewerID := func(r domain.DocumentReviewer) string { return r.ID }
	sortRows(d, schema.DocumentReviewers, g.AssignedReviews, reviewerID)
	sortRows(d, schema.DocumentReviewers, g.AssignedReviewers, reviewerID)
	for _, r := range d.reviews {
		if r.ReviewerID == id {
			g.SubmittedReviews = append(g.SubmittedReviews, r)
		}
	}
	sortRows(d, schema.DocumentReviews, g.SubmittedReviews, func(r domain.DocumentReview) string { return r.ID })
	g.SentNotifications = d.notificationsWhere(func(n domain.Notification) bool { return n.SenderID == id })
	g.ReceivedNotifications = d.notificationsWhere(func(n domain.Notification) bool { return n.RecipientID == id })
	return g, nil
}

func (s *MemoryStore) LoadDocumentGraph(ctx context.Context, id string) (domain.DocumentGraph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data
	doc, ok := d.documents[id]
	if !ok {
		return domain.DocumentGraph{}, ErrNotFound
	}
	g := domain.DocumentGraph{
		Document:       doc,
		Owner:          d.users[doc.OwnerID],
		CurrentVersion: d.versions[doc.CurrentVersionID],
		Versions:       d.versionsOf(id),
		Access:         d.accessOf(id),
	}
	for _, r := range d.reviewers {
		if r.DocumentID == id {
			g.Reviewers = append(g.Reviewers, r)
		}
	}
	sortRows(d, schema.DocumentReviewers, g.Reviewers, func(r domain.DocumentReviewer) string { return r.ID })
	for _, r := range d.reviews {
		if r.DocumentID == id {
			g.Reviews = append(g.Reviews, r)
		}
	}
	sortRows(d, schema.DocumentReviews, g.Reviews, func(r domain.DocumentReview) string { return r.ID })
	for _, m := range d.documentMentions {
		if m.DocumentID == id {
			g.Mentions = append(g.Mentions, m)
		}
	}
	sortRows(d, schema.DocumentMentions, g.Mentions, func(m domain.DocumentMention) string {
		return m.MessageID + "/" + m.DocumentID
	})
	return g, nil
}

func (s *MemoryStore) LoadConversationGraph(ctx context.Context, id string) (domain.ConversationGraph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data
	c, ok := d.conversations[id]
	if !ok {
		return domain.ConversationGraph{}, ErrNotFound
	}
	g := domain.ConversationGraph{
		Conversation: c,
		Participants: d.participantsOf(id),
		Messages:     d.messagesWhere(func(m domain.Message) bool { return m.ConversationID == id }),
	}
	if t, ok := d.teams[c.TeamID]; ok {
		g.Team = &t
	}
	for _, m := range d.conversationMentions {
		if m.MentionedConversationID == id {
			g.MentionedIn = append(g.MentionedIn, m)
		}
	}
	sortRows(d, schema.ConversationMentions, g.MentionedIn, func(m domain.ConversationMention) string {
		return m.MessageID + "/" + m.MentionedConversationID
	})
	return g, nil
}
