package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"dexter/internal/util"
	"dexter/pkg/domain"
)

func mustUser(t *testing.T, s Store, email string) domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), domain.User{Email: email})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustTeam(t *testing.T, s Store, name, owner string) domain.Team {
	t.Helper()
	team, err := s.CreateTeam(context.Background(), domain.Team{Name: name, CreatedBy: owner})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	return team
}

func mustDocument(t *testing.T, s Store, owner, version string) (domain.Document, domain.DocumentVersion) {
	t.Helper()
	ctx := context.Background()
	docID := util.NewID()
	var doc domain.Document
	var ver domain.DocumentVersion
	err := s.WithTx(ctx, func(tx Store) error {
		var err error
		ver, err = tx.CreateDocumentVersion(ctx, domain.DocumentVersion{
			DocumentID:    docID,
			Version:       version,
			FilePath:      "documents/" + docID + "/" + version,
			FileType:      domain.FilePDF,
			FileSizeBytes: 1024,
			CreatedBy:     owner,
		})
		if err != nil {
			return err
		}
		doc, err = tx.CreateDocument(ctx, domain.Document{ID: docID, Title: "Roadmap", OwnerID: owner, CurrentVersionID: ver.ID})
		return err
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc, ver
}

func TestConversationTeamPairing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	team := mustTeam(t, s, "core", a.ID)

	if _, err := s.CreateConversation(ctx, domain.Conversation{Type: domain.ConversationTeam}); !errors.Is(err, ErrCheckViolation) {
		t.Fatalf("team conversation without team: expected check violation, got %v", err)
	}
	if _, err := s.CreateConversation(ctx, domain.Conversation{Type: domain.ConversationPrivate, TeamID: team.ID}); !errors.Is(err, ErrCheckViolation) {
		t.Fatalf("private conversation with team: expected check violation, got %v", err)
	}
	if _, err := s.CreateConversation(ctx, domain.Conversation{Type: domain.ConversationAI, TeamID: team.ID}); !errors.Is(err, ErrCheckViolation) {
		t.Fatalf("ai conversation with team: expected check violation, got %v", err)
	}
	if _, err := s.CreateConversation(ctx, domain.Conversation{Type: domain.ConversationTeam, TeamID: "missing"}); !errors.Is(err, ErrForeignKey) {
		t.Fatalf("team conversation with unknown team: expected foreign key error, got %v", err)
	}
	if _, err := s.CreateConversation(ctx, domain.Conversation{Type: "group"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown conversation type: expected invalid input, got %v", err)
	}
	c, err := s.CreateConversation(ctx, domain.Conversation{Type: domain.ConversationTeam, TeamID: team.ID})
	if err != nil {
		t.Fatalf("create team conversation: %v", err)
	}
	if c.TeamID != team.ID {
		t.Fatalf("team id = %q, want %q", c.TeamID, team.ID)
	}
}

func TestDocumentAccessTargetsExactlyOne(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	team := mustTeam(t, s, "core", a.ID)
	doc, _ := mustDocument(t, s, a.ID, "1.0.0")

	cases := map[string]domain.DocumentAccess{
		"both":    {DocumentID: doc.ID, UserID: a.ID, TeamID: team.ID, AccessLevel: domain.AccessRead},
		"neither": {DocumentID: doc.ID, AccessLevel: domain.AccessRead},
	}
	for name, grant := range cases {
		if _, err := s.GrantAccess(ctx, grant); !errors.Is(err, ErrCheckViolation) {
			t.Fatalf("%s: expected check violation, got %v", name, err)
		}
	}
	if _, err := s.GrantAccess(ctx, domain.DocumentAccess{DocumentID: doc.ID, TeamID: team.ID, AccessLevel: domain.AccessWrite}); err != nil {
		t.Fatalf("grant team access: %v", err)
	}
	rows, err := s.ListDocumentAccess(ctx, doc.ID)
	if err != nil {
		t.Fatalf("list access: %v", err)
	}
	if len(rows) != 1 || rows[0].TeamID != team.ID || rows[0].UserID != "" {
		t.Fatalf("unexpected access rows: %+v", rows)
	}
}

func TestNotificationResource(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	b := mustUser(t, s, "b@example.com")
	doc, _ := mustDocument(t, s, a.ID, "1.0.0")

	base := domain.Notification{SenderID: a.ID, RecipientID: b.ID, EventType: domain.EventDocumentShare}
	if _, err := s.CreateNotification(ctx, base); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing resource: expected invalid input, got %v", err)
	}
	dangling := base
	dangling.Resource = domain.MessageResource{MessageID: "missing"}
	if _, err := s.CreateNotification(ctx, dangling); !errors.Is(err, ErrForeignKey) {
		t.Fatalf("dangling resource: expected foreign key error, got %v", err)
	}
	ok := base
	ok.Resource = domain.DocumentResource{DocumentID: doc.ID}
	n, err := s.CreateNotification(ctx, ok)
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if n.IsRead {
		t.Fatalf("new notification should be unread")
	}
	if err := s.MarkNotificationRead(ctx, n.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err := s.ListNotifications(ctx, b.ID, true)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected no unread notifications, got %d", len(unread))
	}
	all, err := s.ListNotifications(ctx, b.ID, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 || all[0].Resource != (domain.DocumentResource{DocumentID: doc.ID}) {
		t.Fatalf("unexpected notifications: %+v", all)
	}
}

func TestVersionFormatRejected(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	doc, _ := mustDocument(t, s, a.ID, "1.0.0")

	for _, bad := range []string{"1.0", "v1.0.0", "1.0.0-beta"} {
		_, err := s.CreateDocumentVersion(ctx, domain.DocumentVersion{
			DocumentID: doc.ID, Version: bad, FilePath: "x", FileType: domain.FileMD, CreatedBy: a.ID,
		})
		if !errors.Is(err, ErrCheckViolation) {
			t.Fatalf("version %q: expected check violation, got %v", bad, err)
		}
	}
}

func TestDuplicateAccountRejected(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	b := mustUser(t, s, "b@example.com")

	acct := domain.Account{UserID: a.ID, Type: "oauth", Provider: "google", ProviderAccountID: "g-1"}
	if err := s.LinkAccount(ctx, acct); err != nil {
		t.Fatalf("link account: %v", err)
	}
	acct.UserID = b.ID
	if err := s.LinkAccount(ctx, acct); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDuplicateTeamMemberRejected(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	team := mustTeam(t, s, "core", a.ID)

	m := domain.TeamMember{UserID: a.ID, TeamID: team.ID, Role: domain.RoleOwner}
	if err := s.AddTeamMember(ctx, m); err != nil {
		t.Fatalf("add member: %v", err)
	}
	m.Role = domain.RoleAdmin
	if err := s.AddTeamMember(ctx, m); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	b := mustUser(t, s, "b@example.com")
	team := mustTeam(t, s, "core", a.ID)
	doc, _ := mustDocument(t, s, a.ID, "1.0.0")

	if _, err := s.CreateUser(ctx, domain.User{Email: "a@example.com"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email: expected conflict, got %v", err)
	}
	if _, err := s.CreateTeam(ctx, domain.Team{Name: "core", CreatedBy: a.ID}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate team name: expected conflict, got %v", err)
	}
	if _, err := s.CreateTeam(ctx, domain.Team{Name: "core", CreatedBy: b.ID}); err != nil {
		t.Fatalf("same team name for another creator: %v", err)
	}

	expires := time.Now().Add(time.Hour)
	inv := domain.TeamInvite{TeamID: team.ID, Email: "c@example.com", InvitedBy: a.ID, Token: "tok-1", ExpiresAt: expires}
	if _, err := s.CreateTeamInvite(ctx, inv); err != nil {
		t.Fatalf("create invite: %v", err)
	}
	sameToken := inv
	sameToken.Email = "d@example.com"
	if _, err := s.CreateTeamInvite(ctx, sameToken); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate token: expected conflict, got %v", err)
	}
	sameEmail := inv
	sameEmail.Token = "tok-2"
	if _, err := s.CreateTeamInvite(ctx, sameEmail); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate invite email: expected conflict, got %v", err)
	}

	r := domain.DocumentReviewer{DocumentID: doc.ID, ReviewerID: b.ID, AssignedBy: a.ID}
	if _, err := s.AssignReviewer(ctx, r); err != nil {
		t.Fatalf("assign reviewer: %v", err)
	}
	if _, err := s.AssignReviewer(ctx, r); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate reviewer: expected conflict, got %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	b := mustUser(t, s, "b@example.com")

	if err := s.LinkAccount(ctx, domain.Account{UserID: a.ID, Type: "oauth", Provider: "github", ProviderAccountID: "gh-1"}); err != nil {
		t.Fatalf("link account: %v", err)
	}
	team := mustTeam(t, s, "bteam", b.ID)
	if err := s.AddTeamMember(ctx, domain.TeamMember{UserID: a.ID, TeamID: team.ID}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	doc, ver := mustDocument(t, s, a.ID, "1.0.0")
	conv, err := s.CreateConversation(ctx, domain.Conversation{Type: domain.ConversationTeam, TeamID: team.ID})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	msg, err := s.CreateMessage(ctx, domain.Message{ConversationID: conv.ID, SenderID: a.ID, Content: "hello"})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	kept, err := s.CreateMessage(ctx, domain.Message{ConversationID: conv.ID, SenderID: b.ID, Content: "hi"})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if _, err := s.CreateNotification(ctx, domain.Notification{
		SenderID: b.ID, RecipientID: a.ID, EventType: domain.EventNewMessage,
		Resource: domain.MessageResource{MessageID: kept.ID},
	}); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	if err := s.DeleteUser(ctx, a.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if _, err := s.GetUserByAccount(ctx, "github", "gh-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("account should be gone, got %v", err)
	}
	if _, err := s.GetDocument(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("owned document should be gone, got %v", err)
	}
	if _, err := s.GetDocumentVersion(ctx, ver.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("document version should be gone, got %v", err)
	}
	msgs, err := s.ListMessages(ctx, conv.ID, 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != kept.ID {
		t.Fatalf("expected only %s to remain, got %+v", kept.ID, msgs)
	}
	if msgs[0].ID == msg.ID {
		t.Fatalf("sent message should be gone")
	}
	members, err := s.ListTeamMembers(ctx, team.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("membership should be gone, got %+v", members)
	}
	notes, err := s.ListNotifications(ctx, a.ID, false)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("received notifications should be gone, got %d", len(notes))
	}
	if _, err := s.GetUser(ctx, b.ID); err != nil {
		t.Fatalf("other user should remain: %v", err)
	}
}

func TestTeamConversationMentionScenario(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	b := mustUser(t, s, "b@example.com")
	team := mustTeam(t, s, "core", a.ID)
	if err := s.AddTeamMember(ctx, domain.TeamMember{UserID: a.ID, TeamID: team.ID, Role: domain.RoleOwner}); err != nil {
		t.Fatalf("add owner: %v", err)
	}
	if err := s.AddTeamMember(ctx, domain.TeamMember{UserID: b.ID, TeamID: team.ID, Role: domain.RoleMember}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	conv, err := s.CreateConversation(ctx, domain.Conversation{Type: domain.ConversationTeam, TeamID: team.ID})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	for _, u := range []domain.User{a, b} {
		if err := s.AddParticipant(ctx, conv.ID, u.ID); err != nil {
			t.Fatalf("add participant: %v", err)
		}
	}
	msg, err := s.CreateMessage(ctx, domain.Message{ConversationID: conv.ID, SenderID: b.ID, Content: "@a please look"})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if err := s.AddMessageMention(ctx, domain.MessageMention{MessageID: msg.ID, MentionedUserID: a.ID}); err != nil {
		t.Fatalf("add mention: %v", err)
	}

	mentions, err := s.ListMessageMentions(ctx, msg.ID)
	if err != nil {
		t.Fatalf("list mentions: %v", err)
	}
	if len(mentions) != 1 || mentions[0].MentionedUserID != a.ID {
		t.Fatalf("unexpected mentions: %+v", mentions)
	}
	g, err := s.LoadConversationGraph(ctx, conv.ID)
	if err != nil {
		t.Fatalf("load conversation graph: %v", err)
	}
	ids := map[string]bool{}
	for _, p := range g.Participants {
		ids[p.ID] = true
	}
	if !ids[a.ID] || !ids[b.ID] || len(ids) != 2 {
		t.Fatalf("participants = %+v", g.Participants)
	}
	if g.Team == nil || g.Team.ID != team.ID {
		t.Fatalf("expected team %s on graph, got %+v", team.ID, g.Team)
	}
	if len(g.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(g.Messages))
	}
}

func TestVersionPromotionScenario(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	doc, v1 := mustDocument(t, s, a.ID, "1.0.0")
	if doc.CurrentVersionID != v1.ID {
		t.Fatalf("current version = %s, want %s", doc.CurrentVersionID, v1.ID)
	}
	if doc.Status != domain.DocumentDraft {
		t.Fatalf("status = %s, want draft", doc.Status)
	}

	var v2 domain.DocumentVersion
	err := s.WithTx(ctx, func(tx Store) error {
		var err error
		v2, err = tx.CreateDocumentVersion(ctx, domain.DocumentVersion{
			DocumentID: doc.ID, Version: "1.1.0", FilePath: "documents/v2", FileType: domain.FilePDF, CreatedBy: a.ID,
		})
		if err != nil {
			return err
		}
		return tx.SetCurrentVersion(ctx, doc.ID, v2.ID)
	})
	if err != nil {
		t.Fatalf("promote version: %v", err)
	}

	got, err := s.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if got.CurrentVersionID != v2.ID {
		t.Fatalf("current version = %s, want %s", got.CurrentVersionID, v2.ID)
	}
	if _, err := s.GetDocumentVersion(ctx, v1.ID); err != nil {
		t.Fatalf("v1 should remain as history: %v", err)
	}
	versions, err := s.ListDocumentVersions(ctx, doc.ID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 2 || versions[0].ID != v1.ID || versions[1].ID != v2.ID {
		t.Fatalf("unexpected history: %+v", versions)
	}
}

func TestSetCurrentVersionRejectsForeignVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	doc1, _ := mustDocument(t, s, a.ID, "1.0.0")
	_, other := mustDocument(t, s, a.ID, "2.0.0")

	if err := s.SetCurrentVersion(ctx, doc1.ID, other.ID); !errors.Is(err, ErrCheckViolation) {
		t.Fatalf("expected check violation, got %v", err)
	}
}

func TestDeferredDocumentReference(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	orphan := domain.DocumentVersion{
		DocumentID: "missing", Version: "1.0.0", FilePath: "x", FileType: domain.FileTXT, CreatedBy: a.ID,
	}

	if _, err := s.CreateDocumentVersion(ctx, orphan); !errors.Is(err, ErrForeignKey) {
		t.Fatalf("outside tx: expected foreign key error, got %v", err)
	}

	var created domain.DocumentVersion
	err := s.WithTx(ctx, func(tx Store) error {
		var err error
		created, err = tx.CreateDocumentVersion(ctx, orphan)
		return err
	})
	if !errors.Is(err, ErrForeignKey) {
		t.Fatalf("at commit: expected foreign key error, got %v", err)
	}
	if _, err := s.GetDocumentVersion(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("orphan version should be rolled back, got %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx Store) error {
		if _, err := tx.CreateUser(ctx, domain.User{Email: "tx@example.com"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := s.GetUserByEmail(ctx, "tx@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("user should be rolled back, got %v", err)
	}
}

func TestListMessagesChronological(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	conv, err := s.CreateConversation(ctx, domain.Conversation{Type: domain.ConversationAI})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, content := range []string{"one", "two", "three"} {
		if _, err := s.CreateMessage(ctx, domain.Message{
			ConversationID: conv.ID, SenderID: a.ID, Content: content, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("create message %s: %v", content, err)
		}
	}
	msgs, err := s.ListMessages(ctx, conv.ID, 2)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "two" || msgs[1].Content != "three" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestExpireInvites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	team := mustTeam(t, s, "core", a.ID)
	now := time.Now().UTC()

	old, err := s.CreateTeamInvite(ctx, domain.TeamInvite{TeamID: team.ID, Email: "old@example.com", InvitedBy: a.ID, Token: "t-old", ExpiresAt: now.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("create old invite: %v", err)
	}
	if _, err := s.CreateTeamInvite(ctx, domain.TeamInvite{TeamID: team.ID, Email: "new@example.com", InvitedBy: a.ID, Token: "t-new", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("create new invite: %v", err)
	}
	n, err := s.ExpireInvites(ctx, now)
	if err != nil {
		t.Fatalf("expire invites: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired %d invites, want 1", n)
	}
	got, err := s.GetTeamInviteByToken(ctx, old.Token)
	if err != nil {
		t.Fatalf("get invite: %v", err)
	}
	if got.Status != domain.InviteExpired {
		t.Fatalf("status = %s, want expired", got.Status)
	}
}

func TestUserGraphDisambiguatesReviewerRoles(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	b := mustUser(t, s, "b@example.com")
	doc, _ := mustDocument(t, s, a.ID, "1.0.0")
	if _, err := s.AssignReviewer(ctx, domain.DocumentReviewer{DocumentID: doc.ID, ReviewerID: b.ID, AssignedBy: a.ID}); err != nil {
		t.Fatalf("assign reviewer: %v", err)
	}

	ga, err := s.LoadUserGraph(ctx, a.ID)
	if err != nil {
		t.Fatalf("load graph a: %v", err)
	}
	gb, err := s.LoadUserGraph(ctx, b.ID)
	if err != nil {
		t.Fatalf("load graph b: %v", err)
	}
	if len(ga.AssignedReviewers) != 1 || len(ga.AssignedReviews) != 0 {
		t.Fatalf("assigner graph: reviewers=%d reviews=%d", len(ga.AssignedReviewers), len(ga.AssignedReviews))
	}
	if len(gb.AssignedReviews) != 1 || len(gb.AssignedReviewers) != 0 {
		t.Fatalf("reviewer graph: reviews=%d reviewers=%d", len(gb.AssignedReviews), len(gb.AssignedReviewers))
	}
	if len(ga.OwnedDocuments) != 1 || ga.OwnedDocuments[0].ID != doc.ID {
		t.Fatalf("owned documents = %+v", ga.OwnedDocuments)
	}
}

func TestDeleteDocumentCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	b := mustUser(t, s, "b@example.com")
	doc, ver := mustDocument(t, s, a.ID, "1.0.0")
	review, err := s.CreateReview(ctx, domain.DocumentReview{DocumentID: doc.ID, ReviewerID: b.ID, VersionID: ver.ID, Comments: "ok"})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	if _, err := s.CreateNotification(ctx, domain.Notification{
		SenderID: b.ID, RecipientID: a.ID, EventType: domain.EventReviewSubmitted,
		Resource: domain.DocumentReviewResource{DocumentReviewID: review.ID},
	}); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	if err := s.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("delete document: %v", err)
	}
	if _, err := s.GetReview(ctx, review.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("review should be gone, got %v", err)
	}
	notes, err := s.ListNotifications(ctx, a.ID, false)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("review notification should be gone, got %d", len(notes))
	}
	if err := s.DeleteDocument(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

func TestAuditClean(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := mustUser(t, s, "a@example.com")
	mustDocument(t, s, a.ID, "1.0.0")

	report, err := s.Audit(ctx)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected clean audit, got %+v", report)
	}
	if len(report.Checks) != 5 {
		t.Fatalf("checks = %d, want 5", len(report.Checks))
	}
}
