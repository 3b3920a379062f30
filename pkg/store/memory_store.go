package store

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"dexter/pkg/domain"
	"dexter/pkg/schema"
)

var versionFormat = regexp.MustCompile(schema.VersionPattern)

type pair [2]string

// memData holds every table. Rows are values, so a shallow map copy is a
// full snapshot.
type memData struct {
	users                map[string]domain.User
	accounts             map[pair]domain.Account
	teams                map[string]domain.Team
	members              map[pair]domain.TeamMember
	invites              map[string]domain.TeamInvite
	conversations        map[string]domain.Conversation
	participants         map[pair]domain.ConversationParticipant
	messages             map[string]domain.Message
	messageMentions      map[pair]domain.MessageMention
	conversationMentions map[pair]domain.ConversationMention
	documentMentions     map[pair]domain.DocumentMention
	documents            map[string]domain.Document
	versions             map[string]domain.DocumentVersion
	access               map[string]domain.DocumentAccess
	reviewers            map[string]domain.DocumentReviewer
	reviews              map[string]domain.DocumentReview
	notifications        map[string]domain.Notification

	// insertion order, used to break created_at ties
	seq   int64
	order map[string]int64
}

func newMemData() *memData {
	return &memData{
		users:                map[string]domain.User{},
		accounts:             map[pair]domain.Account{},
		teams:                map[string]domain.Team{},
		members:              map[pair]domain.TeamMember{},
		invites:              map[string]domain.TeamInvite{},
		conversations:        map[string]domain.Conversation{},
		participants:         map[pair]domain.ConversationParticipant{},
		messages:             map[string]domain.Message{},
		messageMentions:      map[pair]domain.MessageMention{},
		conversationMentions: map[pair]domain.ConversationMention{},
		documentMentions:     map[pair]domain.DocumentMention{},
		documents:            map[string]domain.Document{},
		versions:             map[string]domain.DocumentVersion{},
		access:               map[string]domain.DocumentAccess{},
		reviewers:            map[string]domain.DocumentReviewer{},
		reviews:              map[string]domain.DocumentReview{},
		notifications:        map[string]domain.Notification{},
		order:                map[string]int64{},
	}
}

func (d *memData) clone() *memData {
	return &memData{
		users:                maps.Clone(d.users),
		accounts:             maps.Clone(d.accounts),
		teams:                maps.Clone(d.teams),
		members:              maps.Clone(d.members),
		invites:              maps.Clone(d.invites),
		conversations:        maps.Clone(d.conversations),
		participants:         maps.Clone(d.participants),
		messages:             maps.Clone(d.messages),
		messageMentions:      maps.Clone(d.messageMentions),
		conversationMentions: maps.Clone(d.conversationMentions),
		documentMentions:     maps.Clone(d.documentMentions),
		documents:            maps.Clone(d.documents),
		versions:             maps.Clone(d.versions),
		access:               maps.Clone(d.access),
		reviewers:            maps.Clone(d.reviewers),
		reviews:              maps.Clone(d.reviews),
		notifications:        maps.Clone(d.notifications),
		seq:                  d.seq,
		order:                maps.Clone(d.order),
	}
}

func (d *memData) touch(table, key string) {
	d.seq++
	d.order[table+":"+key] = d.seq
}

func sortRows[T any](d *memData, table string, rows []T, key func(T) string) {
	sort.SliceStable(rows, func(i, j int) bool {
		return d.order[table+":"+key(rows[i])] < d.order[table+":"+key(rows[j])]
	})
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// MemoryStore is an in-process Store with the same constraint behaviour as
// the Postgres schema: unique keys, check constraints, foreign keys, delete
// cascades and the deferred document reference on versions. It is used in
// tests and local tooling.
type MemoryStore struct {
	mu   sync.Locker
	data *memData
	inTx bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mu: &sync.Mutex{}, data: newMemData()}
}

func (s *MemoryStore) Close() error { return nil }

// WithTx runs fn against a handle sharing this store's data. The store stays
// locked until fn returns, so fn must use the handle it is given. On error,
// or when a deferred reference is dangling at commit, the data is restored.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	tx := &MemoryStore{mu: nopLocker{}, data: s.data, inTx: true}
	err := fn(tx)
	if err == nil && !s.inTx {
		err = s.data.checkDeferred()
	}
	if err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

// checkDeferred verifies the references that are only enforced at commit.
func (d *memData) checkDeferred() error {
	for _, v := range d.versions {
		if _, ok := d.documents[v.DocumentID]; !ok {
			return fkError(schema.DocumentVersions, "document_id")
		}
	}
	return nil
}

func fkError(table, column string) error {
	t, _ := schema.Lookup(table)
	return fmt.Errorf("%w: %s", ErrForeignKey, schema.ForeignKeyName(t, column))
}

func uniqueError(index string) error {
	return fmt.Errorf("%w: %s", ErrConflict, schema.Prefix+index)
}

func pkeyError(table string) error {
	return fmt.Errorf("%w: %s_pkey", ErrConflict, schema.TableName(table))
}

func checkError(name string) error {
	return fmt.Errorf("%w: %s", ErrCheckViolation, schema.CheckName(schema.Check{Name: name}))
}

// users

func (s *MemoryStore) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.TrimSpace(u.Email)
	if err := validate(u); err != nil {
		return domain.User{}, err
	}
	u.ID = ensureID(u.ID)
	if _, ok := s.data.users[u.ID]; ok {
		return domain.User{}, pkeyError(schema.Users)
	}
	if s.emailTaken(u.Email, "") {
		return domain.User{}, uniqueError("user_email_unique")
	}
	u.CreatedAt = stamp(u.CreatedAt)
	u.UpdatedAt = stamp(u.UpdatedAt)
	s.data.users[u.ID] = u
	s.data.touch(schema.Users, u.ID)
	return u, nil
}

func (s *MemoryStore) emailTaken(email, exceptID string) bool {
	for id, u := range s.data.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.TrimSpace(email)
	for _, u := range s.data.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, ErrNotFound
}

func (s *MemoryStore) UpdateUser(ctx context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validate(u); err != nil {
		return domain.User{}, err
	}
	cur, ok := s.data.users[u.ID]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	email := strings.TrimSpace(u.Email)
	if s.emailTaken(email, u.ID) {
		return domain.User{}, uniqueError("user_email_unique")
	}
	cur.Name = u.Name
	cur.Email = email
	cur.EmailVerified = u.EmailVerified
	cur.Image = u.Image
	cur.UpdatedAt = time.Now().UTC()
	s.data.users[u.ID] = cur
	return cur, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.users[id]; !ok {
		return ErrNotFound
	}
	s.data.deleteUser(id)
	return nil
}

// accounts

func (s *MemoryStore) LinkAccount(ctx context.Context, a domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validate(a); err != nil {
		return err
	}
	key := pair{a.Provider, a.ProviderAccountID}
	if _, ok := s.data.accounts[key]; ok {
		return pkeyError(schema.Accounts)
	}
	if _, ok := s.data.users[a.UserID]; !ok {
		return fkError(schema.Accounts, "user_id")
	}
	s.data.accounts[key] = a
	s.data.touch(schema.Accounts, key[0]+"/"+key[1])
	return nil
}

func (s *MemoryStore) UpdateAccountTokens(ctx context.Context, a domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pair{a.Provider, a.ProviderAccountID}
	cur, ok := s.data.accounts[key]
	if !ok {
		return ErrNotFound
	}
	cur.RefreshToken = a.RefreshToken
	cur.AccessToken = a.AccessToken
	cur.ExpiresAt = a.ExpiresAt
	cur.TokenType = a.TokenType
	cur.Scope = a.Scope
	cur.IDToken = a.IDToken
	cur.SessionState = a.SessionState
	s.data.accounts[key] = cur
	return nil
}

func (s *MemoryStore) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data.accounts[pair{provider, providerAccountID}]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	u, ok := s.data.users[a.UserID]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pair{provider, providerAccountID}
	if _, ok := s.data.accounts[key]; !ok {
		return ErrNotFound
	}
	delete(s.data.accounts, key)
	return nil
}

func (s *MemoryStore) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.accountsOf(userID), nil
}

func (d *memData) accountsOf(userID string) []domain.Account {
	out := make([]domain.Account, 0)
	for _, a := range d.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sortRows(d, schema.Accounts, out, func(a domain.Account) string { return a.Provider + "/" + a.ProviderAccountID })
	return out
}

// teams

func (s *MemoryStore) CreateTeam(ctx context.Context, t domain.Team) (domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Name = strings.TrimSpace(t.Name)
	if err := validate(t); err != nil {
		return domain.Team{}, err
	}
	t.ID = ensureID(t.ID)
	if _, ok := s.data.teams[t.ID]; ok {
		return domain.Team{}, pkeyError(schema.Teams)
	}
	for _, other := range s.data.teams {
		if other.Name == t.Name && other.CreatedBy == t.CreatedBy {
			return domain.Team{}, uniqueError("unique_team_name_per_user")
		}
	}
	if _, ok := s.data.users[t.CreatedBy]; !ok {
		return domain.Team{}, fkError(schema.Teams, "created_by")
	}
	t.CreatedAt = stamp(t.CreatedAt)
	s.data.teams[t.ID] = t
	s.data.touch(schema.Teams, t.ID)
	return t, nil
}

func (s *MemoryStore) GetTeam(ctx context.Context, id string) (domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.data.teams[id]
	if !ok {
		return domain.Team{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) RenameTeam(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	t, ok := s.data.teams[id]
	if !ok {
		return ErrNotFound
	}
	for otherID, other := range s.data.teams {
		if otherID != id && other.Name == name && other.CreatedBy == t.CreatedBy {
			return uniqueError("unique_team_name_per_user")
		}
	}
	t.Name = name
	s.data.teams[id] = t
	return nil
}

func (s *MemoryStore) DeleteTeam(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.teams[id]; !ok {
		return ErrNotFound
	}
	s.data.deleteTeam(id)
	return nil
}

func (s *MemoryStore) AddTeamMember(ctx context.Context, m domain.TeamMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Role == "" {
		m.Role = domain.RoleMember
	}
	if err := validate(m); err != nil {
		return err
	}
	key := pair{m.UserID, m.TeamID}
	if _, ok := s.data.members[key]; ok {
		return pkeyError(schema.TeamMembers)
	}
	if _, ok := s.data.users[m.UserID]; !ok {
		return fkError(schema.TeamMembers, "user_id")
	}
	if _, ok := s.data.teams[m.TeamID]; !ok {
		return fkError(schema.TeamMembers, "team_id")
	}
	m.JoinedAt = stamp(m.JoinedAt)
	s.data.members[key] = m
	s.data.touch(schema.TeamMembers, key[0]+"/"+key[1])
	return nil
}

func memberKey(m domain.TeamMember) string { return m.UserID + "/" + m.TeamID }

func (s *MemoryStore) ListTeamMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TeamMember, 0)
	for _, m := range s.data.members {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	sortRows(s.data, schema.TeamMembers, out, memberKey)
	return out, nil
}

func (s *MemoryStore) CreateTeamInvite(ctx context.Context, inv domain.TeamInvite) (domain.TeamInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.Role == "" {
		inv.Role = domain.RoleMember
	}
	if inv.Status == "" {
		inv.Status = domain.InvitePending
	}
	inv.Email = strings.TrimSpace(inv.Email)
	if err := validate(inv); err != nil {
		return domain.TeamInvite{}, err
	}
	inv.ID = ensureID(inv.ID)
	if _, ok := s.data.invites[inv.ID]; ok {
		return domain.TeamInvite{}, pkeyError(schema.TeamInvites)
	}
	for _, other := range s.data.invites {
		if other.Token == inv.Token {
			return domain.TeamInvite{}, uniqueError("team_invites_token_unique")
		}
		if other.TeamID == inv.TeamID && other.Email == inv.Email {
			return domain.TeamInvite{}, uniqueError("unique_team_invite")
		}
	}
	if _, ok := s.data.teams[inv.TeamID]; !ok {
		return domain.TeamInvite{}, fkError(schema.TeamInvites, "team_id")
	}
	if _, ok := s.data.users[inv.InvitedBy]; !ok {
		return domain.TeamInvite{}, fkError(schema.TeamInvites, "invited_by")
	}
	inv.CreatedAt = stamp(inv.CreatedAt)
	s.data.invites[inv.ID] = inv
	s.data.touch(schema.TeamInvites, inv.ID)
	return inv, nil
}

func (s *MemoryStore) GetTeamInviteByToken(ctx context.Context, token string) (domain.TeamInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.data.invites {
		if inv.Token == token {
			return inv, nil
		}
	}
	return domain.TeamInvite{}, ErrNotFound
}

func (s *MemoryStore) SetInviteStatus(ctx context.Context, id string, status domain.InviteStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !status.Valid() {
		return invalidEnum("invite status", status)
	}
	inv, ok := s.data.invites[id]
	if !ok {
		return ErrNotFound
	}
	inv.Status = status
	s.data.invites[id] = inv
	return nil
}

func (s *MemoryStore) ExpireInvites(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, inv := range s.data.invites {
		if inv.Status == domain.InvitePending && inv.ExpiresAt.Before(now) {
			inv.Status = domain.InviteExpired
			s.data.invites[id] = inv
			n++
		}
	}
	return n, nil
}

// conversations

func conversationTeamOK(c domain.Conversation) bool {
	switch c.Type {
	case domain.ConversationTeam:
		return c.TeamID != ""
	case domain.ConversationPrivate, domain.ConversationAI:
		return c.TeamID == ""
	}
	return false
}

func (s *MemoryStore) CreateConversation(ctx context.Context, c domain.Conversation) (domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.TeamID = strings.TrimSpace(c.TeamID)
	if err := validate(c); err != nil {
		return domain.Conversation{}, err
	}
	c.ID = ensureID(c.ID)
	if _, ok := s.data.conversations[c.ID]; ok {
		return domain.Conversation{}, pkeyError(schema.Conversations)
	}
	if !conversationTeamOK(c) {
		return domain.Conversation{}, checkError("conversation_team_check")
	}
	if c.TeamID != "" {
		if _, ok := s.data.teams[c.TeamID]; !ok {
			return domain.Conversation{}, fkError(schema.Conversations, "team_id")
		}
	}
	c.CreatedAt = stamp(c.CreatedAt)
	s.data.conversations[c.ID] = c
	s.data.touch(schema.Conversations, c.ID)
	return c, nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id string) (domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.conversations[id]
	if !ok {
		return domain.Conversation{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) AddParticipant(ctx context.Context, conversationID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := domain.ConversationParticipant{ConversationID: conversationID, UserID: userID}
	if err := validate(p); err != nil {
		return err
	}
	key := pair{conversationID, userID}
	if _, ok := s.data.participants[key]; ok {
		return pkeyError(schema.ConversationParticipants)
	}
	if _, ok := s.data.conversations[conversationID]; !ok {
		return fkError(schema.ConversationParticipants, "conversation_id")
	}
	if _, ok := s.data.users[userID]; !ok {
		return fkError(schema.ConversationParticipants, "user_id")
	}
	s.data.participants[key] = p
	s.data.touch(schema.ConversationParticipants, conversationID+"/"+userID)
	return nil
}

func (s *MemoryStore) ListParticipants(ctx context.Context, conversationID string) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.participantsOf(conversationID), nil
}

func (d *memData) participantsOf(conversationID string) []domain.User {
	out := make([]domain.User, 0)
	for _, p := range d.participants {
		if p.ConversationID != conversationID {
			continue
		}
		if u, ok := d.users[p.UserID]; ok {
			out = append(out, u)
		}
	}
	sortRows(d, schema.Users, out, func(u domain.User) string { return u.ID })
	return out
}

func (s *MemoryStore) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.conversations[id]; !ok {
		return ErrNotFound
	}
	s.data.deleteConversation(id)
	return nil
}

// messages

func (s *MemoryStore) CreateMessage(ctx context.Context, m domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validate(m); err != nil {
		return domain.Message{}, err
	}
	m.ID = ensureID(m.ID)
	if _, ok := s.data.messages[m.ID]; ok {
		return domain.Message{}, pkeyError(schema.Messages)
	}
	if _, ok := s.data.conversations[m.ConversationID]; !ok {
		return domain.Message{}, fkError(schema.Messages, "conversation_id")
	}
	if _, ok := s.data.users[m.SenderID]; !ok {
		return domain.Message{}, fkError(schema.Messages, "sender_id")
	}
	m.CreatedAt = stamp(m.CreatedAt)
	s.data.messages[m.ID] = m
	s.data.touch(schema.Messages, m.ID)
	return m, nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		return []domain.Message{}, nil
	}
	msgs := s.data.messagesWhere(func(m domain.Message) bool { return m.ConversationID == conversationID })
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// messagesWhere returns matching messages in chronological order.
func (d *memData) messagesWhere(match func(domain.Message) bool) []domain.Message {
	out := make([]domain.Message, 0)
	for _, m := range d.messages {
		if match(m) {
			out = append(out, m)
		}
	}
	sortRows(d, schema.Messages, out, func(m domain.Message) string { return m.ID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) AddMessageMention(ctx context.Context, m domain.MessageMention) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validate(m); err != nil {
		return err
	}
	key := pair{m.MessageID, m.MentionedUserID}
	if _, ok := s.data.messageMentions[key]; ok {
		return pkeyError(schema.MessageMentions)
	}
	if _, ok := s.data.messages[m.MessageID]; !ok {
		return fkError(schema.MessageMentions, "message_id")
	}
	if _, ok := s.data.users[m.MentionedUserID]; !ok {
		return fkError(schema.MessageMentions, "mentioned_user_id")
	}
	s.data.messageMentions[key] = m
	s.data.touch(schema.MessageMentions, key[0]+"/"+key[1])
	return nil
}

func (s *MemoryStore) AddConversationMention(ctx context.Context, m domain.ConversationMention) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validate(m); err != nil {
		return err
	}
	key := pair{m.MessageID, m.MentionedConversationID}
	if _, ok := s.data.conversationMentions[key]; ok {
		return pkeyError(schema.ConversationMentions)
	}
	if _, ok := s.data.messages[m.MessageID]; !ok {
		return fkError(schema.ConversationMentions, "message_id")
	}
	if _, ok := s.data.conversations[m.MentionedConversationID]; !ok {
		return fkError(schema.ConversationMentions, "mentioned_conversation_id")
	}
	m.CreatedAt = stamp(m.CreatedAt)
	s.data.conversationMentions[key] = m
	s.data.touch(schema.ConversationMentions, key[0]+"/"+key[1])
	return nil
}

func (s *MemoryStore) AddDocumentMention(ctx context.Context, m domain.DocumentMention) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validate(m); err != nil {
		return err
	}
	key := pair{m.MessageID, m.DocumentID}
	if _, ok := s.data.documentMentions[key]; ok {
		return pkeyError(schema.DocumentMentions)
	}
	if _, ok := s.data.messages[m.MessageID]; !ok {
		return fkError(schema.DocumentMentions, "message_id")
	}
	if _, ok := s.data.documents[m.DocumentID]; !ok {
		return fkError(schema.DocumentMentions, "document_id")
	}
	m.CreatedAt = stamp(m.CreatedAt)
	s.data.documentMentions[key] = m
	s.data.touch(schema.DocumentMentions, key[0]+"/"+key[1])
	return nil
}

func (s *MemoryStore) ListMessageMentions(ctx context.Context, messageID string) ([]domain.MessageMention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MessageMention, 0)
	for _, m := range s.data.messageMentions {
		if m.MessageID == messageID {
			out = append(out, m)
		}
	}
	sortRows(s.data, schema.MessageMentions, out, func(m domain.MessageMention) string {
		return m.MessageID + "/" + m.MentionedUserID
	})
	return out, nil
}

func (s *MemoryStore) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.messages[id]; !ok {
		return ErrNotFound
	}
	s.data.deleteMessage(id)
	return nil
}

// notifications

func (s *MemoryStore) CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validate(n); err != nil {
		return domain.Notification{}, err
	}
	cols, err := domain.FlattenResource(n.Resource)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	n.ID = ensureID(n.ID)
	if _, ok := s.data.notifications[n.ID]; ok {
		return domain.Notification{}, pkeyError(schema.Notifications)
	}
	if _, ok := s.data.users[n.SenderID]; !ok {
		return domain.Notification{}, fkError(schema.Notifications, "sender_id")
	}
	if _, ok := s.data.users[n.RecipientID]; !ok {
		return domain.Notification{}, fkError(schema.Notifications, "recipient_id")
	}
	if err := s.data.resourceExists(cols); err != nil {
		return domain.Notification{}, err
	}
	n.CreatedAt = stamp(n.CreatedAt)
	s.data.notifications[n.ID] = n
	s.data.touch(schema.Notifications, n.ID)
	return n, nil
}

func (d *memData) resourceExists(cols domain.ResourceColumns) error {
	var ok bool
	switch {
	case cols.MessageID != nil:
		if _, ok = d.messages[*cols.MessageID]; !ok {
			return fkError(schema.Notifications, "message_id")
		}
	case cols.DocumentID != nil:
		if _, ok = d.documents[*cols.DocumentID]; !ok {
			return fkError(schema.Notifications, "document_id")
		}
	case cols.ConversationID != nil:
		if _, ok = d.conversations[*cols.ConversationID]; !ok {
			return fkError(schema.Notifications, "conversation_id")
		}
	case cols.DocumentReviewID != nil:
		if _, ok = d.reviews[*cols.DocumentReviewID]; !ok {
			return fkError(schema.Notifications, "document_review_id")
		}
	}
	return nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.data.notificationsWhere(func(n domain.Notification) bool {
		return n.RecipientID == recipientID && (!unreadOnly || !n.IsRead)
	})
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// notificationsWhere returns matching notifications oldest first.
func (d *memData) notificationsWhere(match func(domain.Notification) bool) []domain.Notification {
	out := make([]domain.Notification, 0)
	for _, n := range d.notifications {
		if match(n) {
			out = append(out, n)
		}
	}
	sortRows(d, schema.Notifications, out, func(n domain.Notification) string { return n.ID })
	return out
}

func (s *MemoryStore) MarkNotificationRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.data.notifications[id]
	if !ok {
		return ErrNotFound
	}
	n.IsRead = true
	s.data.notifications[id] = n
	return nil
}
