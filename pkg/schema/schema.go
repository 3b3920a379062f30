// Package schema declares the dexter tables, enums, constraints and indices
// as data and renders them as idempotent Postgres DDL.
package schema

import (
	"fmt"
	"strings"

	"dexter/pkg/domain"
)

// Prefix is applied to every physical table, enum, index and constraint name.
const Prefix = "dexter_"

// Logical table names.
const (
	Users                    = "user"
	Accounts                 = "account"
	Teams                    = "teams"
	TeamMembers              = "team_members"
	TeamInvites              = "team_invites"
	Conversations            = "conversations"
	ConversationParticipants = "conversation_participants"
	Messages                 = "messages"
	MessageMentions          = "message_mentions"
	ConversationMentions     = "conversation_mentions"
	DocumentVersions         = "document_versions"
	Documents                = "documents"
	DocumentAccess           = "document_access"
	DocumentReviewers        = "document_reviewers"
	DocumentReviews          = "document_reviews"
	DocumentMentions         = "document_mentions"
	Notifications            = "notification"
)

// TableName returns the physical name for a logical table name.
func TableName(logical string) string {
	return Prefix + logical
}

type Enum struct {
	Name   string
	Values []string
}

func (e Enum) Physical() string { return Prefix + e.Name }

// ForeignKey always cascades on delete.
type ForeignKey struct {
	Table  string
	Column string
	// Deferrable constraints are checked at commit, which lets two rows that
	// reference each other be inserted in one transaction.
	Deferrable bool
}

type Column struct {
	Name       string
	Type       string
	NotNull    bool
	Default    string
	References *ForeignKey
}

type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

type Check struct {
	Name string
	Expr string
}

type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
	Indexes    []Index
	Checks     []Check
}

func (t Table) Physical() string { return TableName(t.Name) }

// orderColumns lists the timestamp columns that record when a row was added.
var orderColumns = []string{"created_at", "joined_at", "granted_at", "assigned_at"}

// OrderColumn is the column that orders the table's rows chronologically, or
// "" when it has none.
func (t Table) OrderColumn() string {
	for _, name := range orderColumns {
		for _, c := range t.Columns {
			if c.Name == name {
				return name
			}
		}
	}
	return ""
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func enumOf[T ~string](name string, values ...T) Enum {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return Enum{Name: name, Values: out}
}

var (
	TeamRole       = enumOf("team_role", domain.RoleOwner, domain.RoleAdmin, domain.RoleMember)
	DocumentStatus = enumOf("document_status", domain.DocumentDraft, domain.DocumentPublished, domain.DocumentArchived)
	ReviewerStatus = enumOf("reviewer_status", domain.ReviewerPending, domain.ReviewerInProgress, domain.ReviewerCompleted, domain.ReviewerDeclined)
	ReviewStatus   = enumOf("review_status", domain.ReviewSubmitted, domain.ReviewAccepted, domain.ReviewRejected)
	AccessLevel    = enumOf("access_level", domain.AccessRead, domain.AccessWrite, domain.AccessAdmin)
	InviteStatus   = enumOf("invite_status", domain.InvitePending, domain.InviteAccepted, domain.InviteDeclined, domain.InviteExpired)
	ConversationT  = enumOf("conversation_type", domain.ConversationPrivate, domain.ConversationTeam, domain.ConversationAI)
	ResourceType   = enumOf("resource_type", domain.ResourceMessage, domain.ResourceDocument, domain.ResourceConversation, domain.ResourceDocumentReview)
	EventType      = enumOf("notification_event_type",
		domain.EventMention, domain.EventReviewRequest, domain.EventReviewSubmitted,
		domain.EventReviewAccepted, domain.EventReviewRejected, domain.EventDocumentShare,
		domain.EventConversationShare, domain.EventAccessGranted, domain.EventNewMessage)
	FileType = enumOf("file_type",
		domain.FilePDF, domain.FileDOCX, domain.FileXLSX, domain.FilePPTX, domain.FileTXT,
		domain.FileMD, domain.FileJSON, domain.FileCSV, domain.FileImage)
)

// Enums lists every enum in creation order.
var Enums = []Enum{
	TeamRole, DocumentStatus, ReviewerStatus, ReviewStatus, AccessLevel,
	InviteStatus, ConversationT, ResourceType, EventType, FileType,
}

const idType = "varchar(255)"

func idCol() Column {
	return Column{Name: "id", Type: idType, NotNull: true}
}

func refCol(name, table string) Column {
	return Column{Name: name, Type: idType, NotNull: true, References: &ForeignKey{Table: table, Column: "id"}}
}

func optRefCol(name, table string) Column {
	return Column{Name: name, Type: idType, References: &ForeignKey{Table: table, Column: "id"}}
}

func textCol(name string) Column {
	return Column{Name: name, Type: "text", NotNull: true}
}

func optCol(name, typ string) Column {
	return Column{Name: name, Type: typ}
}

func enumCol(name string, e Enum, def string) Column {
	return Column{Name: name, Type: e.Physical(), NotNull: true, Default: def}
}

func timeCol(name string) Column {
	return Column{Name: name, Type: "timestamptz", NotNull: true, Default: "CURRENT_TIMESTAMP"}
}

const (
	versionPattern = `^[0-9]+\.[0-9]+\.[0-9]+$`

	conversationTeamExpr = `(type = 'team' AND team_id IS NOT NULL) OR (type IN ('private', 'ai') AND team_id IS NULL)`
	versionFormatExpr    = `version ~ '` + versionPattern + `'`
	accessTargetExpr     = `(user_id IS NOT NULL AND team_id IS NULL) OR (user_id IS NULL AND team_id IS NOT NULL)`
	notificationExpr     = `(resource_type = 'message' AND message_id IS NOT NULL AND document_id IS NULL AND conversation_id IS NULL AND document_review_id IS NULL) OR ` +
		`(resource_type = 'document' AND message_id IS NULL AND document_id IS NOT NULL AND conversation_id IS NULL AND document_review_id IS NULL) OR ` +
		`(resource_type = 'conversation' AND message_id IS NULL AND document_id IS NULL AND conversation_id IS NOT NULL AND document_review_id IS NULL) OR ` +
		`(resource_type = 'document_review' AND message_id IS NULL AND document_id IS NULL AND conversation_id IS NULL AND document_review_id IS NOT NULL)`
)

// VersionPattern is the accepted DocumentVersion.version format.
const VersionPattern = versionPattern

// Tables lists every table. Foreign keys are added after all tables exist,
// so order only matters for readability.
var Tables = []Table{
	{
		Name: Users,
		Columns: []Column{
			idCol(),
			optCol("name", "varchar(255)"),
			{Name: "email", Type: "varchar(255)", NotNull: true},
			optCol("email_verified", "timestamptz"),
			optCol("image", "varchar(255)"),
			timeCol("created_at"),
			timeCol("updated_at"),
		},
		PrimaryKey: []string{"id"},
		Indexes:    []Index{{Name: "user_email_unique", Columns: []string{"email"}, Unique: true}},
	},
	{
		Name: Accounts,
		Columns: []Column{
			refCol("user_id", Users),
			{Name: "type", Type: "varchar(255)", NotNull: true},
			{Name: "provider", Type: "varchar(255)", NotNull: true},
			{Name: "provider_account_id", Type: "varchar(255)", NotNull: true},
			optCol("refresh_token", "text"),
			optCol("access_token", "text"),
			optCol("expires_at", "bigint"),
			optCol("token_type", "varchar(255)"),
			optCol("scope", "varchar(255)"),
			optCol("id_token", "text"),
			optCol("session_state", "varchar(255)"),
		},
		PrimaryKey: []string{"provider", "provider_account_id"},
		Indexes:    []Index{{Name: "account_user_id_idx", Columns: []string{"user_id"}}},
	},
	{
		Name: Teams,
		Columns: []Column{
			idCol(),
			textCol("name"),
			refCol("created_by", Users),
			timeCol("created_at"),
		},
		PrimaryKey: []string{"id"},
		Indexes:    []Index{{Name: "unique_team_name_per_user", Columns: []string{"name", "created_by"}, Unique: true}},
	},
	{
		Name: TeamMembers,
		Columns: []Column{
			refCol("user_id", Users),
			refCol("team_id", Teams),
			enumCol("role", TeamRole, "'member'"),
			timeCol("joined_at"),
		},
		PrimaryKey: []string{"user_id", "team_id"},
	},
	{
		Name: TeamInvites,
		Columns: []Column{
			idCol(),
			refCol("team_id", Teams),
			textCol("email"),
			refCol("invited_by", Users),
			enumCol("role", TeamRole, "'member'"),
			enumCol("status", InviteStatus, "'pending'"),
			textCol("token"),
			{Name: "expires_at", Type: "timestamptz", NotNull: true},
			timeCol("created_at"),
		},
		PrimaryKey: []string{"id"},
		Indexes: []Index{
			{Name: "team_invites_token_unique", Columns: []string{"token"}, Unique: true},
			{Name: "unique_team_invite", Columns: []string{"team_id", "email"}, Unique: true},
		},
	},
	{
		Name: Conversations,
		Columns: []Column{
			idCol(),
			enumCol("type", ConversationT, ""),
			optRefCol("team_id", Teams),
			timeCol("created_at"),
		},
		PrimaryKey: []string{"id"},
		Checks:     []Check{{Name: "conversation_team_check", Expr: conversationTeamExpr}},
	},
	{
		Name: ConversationParticipants,
		Columns: []Column{
			refCol("conversation_id", Conversations),
			refCol("user_id", Users),
		},
		PrimaryKey: []string{"conversation_id", "user_id"},
	},
	{
		Name: Messages,
		Columns: []Column{
			idCol(),
			refCol("conversation_id", Conversations),
			refCol("sender_id", Users),
			textCol("content"),
			timeCol("created_at"),
		},
		PrimaryKey: []string{"id"},
		Indexes: []Index{
			{Name: "messages_conversation_id_idx", Columns: []string{"conversation_id"}},
			{Name: "messages_sender_id_idx", Columns: []string{"sender_id"}},
			{Name: "messages_created_at_idx", Columns: []string{"created_at"}},
		},
	},
	{
		Name: MessageMentions,
		Columns: []Column{
			refCol("message_id", Messages),
			refCol("mentioned_user_id", Users),
		},
		PrimaryKey: []string{"message_id", "mentioned_user_id"},
	},
	{
		Name: ConversationMentions,
		Columns: []Column{
			refCol("message_id", Messages),
			refCol("mentioned_conversation_id", Conversations),
			timeCol("created_at"),
		},
		PrimaryKey: []string{"message_id", "mentioned_conversation_id"},
	},
	{
		Name: DocumentVersions,
		Columns: []Column{
			idCol(),
			{Name: "document_id", Type: idType, NotNull: true, References: &ForeignKey{Table: Documents, Column: "id", Deferrable: true}},
			textCol("version"),
			textCol("file_path"),
			enumCol("file_type", FileType, ""),
			{Name: "file_size_bytes", Type: "bigint", NotNull: true},
			refCol("created_by", Users),
			timeCol("created_at"),
		},
		PrimaryKey: []string{"id"},
		Indexes:    []Index{{Name: "document_versions_document_id_idx", Columns: []string{"document_id"}}},
		Checks:     []Check{{Name: "document_version_format_check", Expr: versionFormatExpr}},
	},
	{
		Name: Documents,
		Columns: []Column{
			idCol(),
			textCol("title"),
			refCol("owner_id", Users),
			refCol("current_version_id", DocumentVersions),
			{Name: "is_ai_generated", Type: "boolean", NotNull: true, Default: "false"},
			enumCol("status", DocumentStatus, "'draft'"),
			timeCol("created_at"),
			timeCol("updated_at"),
		},
		PrimaryKey: []string{"id"},
	},
	{
		Name: DocumentAccess,
		Columns: []Column{
			idCol(),
			refCol("document_id", Documents),
			optRefCol("user_id", Users),
			optRefCol("team_id", Teams),
			enumCol("access_level", AccessLevel, ""),
			timeCol("granted_at"),
		},
		PrimaryKey: []string{"id"},
		Indexes: []Index{
			{Name: "document_access_level_check", Columns: []string{"access_level"}},
			{Name: "document_access_document_id_idx", Columns: []string{"document_id"}},
			{Name: "document_access_user_id_idx", Columns: []string{"user_id"}},
			{Name: "document_access_team_id_idx", Columns: []string{"team_id"}},
		},
		Checks: []Check{{Name: "document_access_target_check", Expr: accessTargetExpr}},
	},
	{
		Name: DocumentReviewers,
		Columns: []Column{
			idCol(),
			refCol("document_id", Documents),
			refCol("reviewer_id", Users),
			enumCol("status", ReviewerStatus, "'pending'"),
			timeCol("assigned_at"),
			refCol("assigned_by", Users),
		},
		PrimaryKey: []string{"id"},
		Indexes:    []Index{{Name: "unique_document_reviewer", Columns: []string{"document_id", "reviewer_id"}, Unique: true}},
	},
	{
		Name: DocumentReviews,
		Columns: []Column{
			idCol(),
			refCol("document_id", Documents),
			refCol("reviewer_id", Users),
			refCol("version_id", DocumentVersions),
			textCol("comments"),
			enumCol("status", ReviewStatus, "'submitted'"),
			timeCol("created_at"),
			timeCol("updated_at"),
		},
		PrimaryKey: []string{"id"},
	},
	{
		Name: DocumentMentions,
		Columns: []Column{
			refCol("message_id", Messages),
			refCol("document_id", Documents),
			timeCol("created_at"),
		},
		PrimaryKey: []string{"message_id", "document_id"},
	},
	{
		Name: Notifications,
		Columns: []Column{
			idCol(),
			refCol("sender_id", Users),
			refCol("recipient_id", Users),
			enumCol("event_type", EventType, ""),
			enumCol("resource_type", ResourceType, ""),
			optRefCol("message_id", Messages),
			optRefCol("document_id", Documents),
			optRefCol("conversation_id", Conversations),
			optRefCol("document_review_id", DocumentReviews),
			{Name: "is_read", Type: "boolean", NotNull: true, Default: "false"},
			timeCol("created_at"),
		},
		PrimaryKey: []string{"id"},
		Indexes:    []Index{{Name: "notification_recipient_id_idx", Columns: []string{"recipient_id"}}},
		Checks:     []Check{{Name: "notification_resource_check", Expr: notificationExpr}},
	},
}

// Lookup returns the table with the given logical name.
func Lookup(logical string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == logical {
			return t, true
		}
	}
	return Table{}, false
}

// DDL renders the full schema as an ordered list of idempotent statements:
// enums, tables, foreign keys, checks, then indexes.
func DDL() []string {
	stmts := make([]string, 0, 64)
	for _, e := range Enums {
		stmts = append(stmts, enumDDL(e))
	}
	for _, t := range Tables {
		stmts = append(stmts, tableDDL(t))
	}
	for _, t := range Tables {
		for _, c := range t.Columns {
			if c.References != nil {
				stmts = append(stmts, foreignKeyDDL(t, c))
			}
		}
	}
	for _, t := range Tables {
		for _, ck := range t.Checks {
			stmts = append(stmts, checkDDL(t, ck))
		}
	}
	for _, t := range Tables {
		for _, idx := range t.Indexes {
			stmts = append(stmts, indexDDL(t, idx))
		}
	}
	return stmts
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func enumDDL(e Enum) string {
	values := make([]string, 0, len(e.Values))
	for _, v := range e.Values {
		values = append(values, quoteLiteral(v))
	}
	return fmt.Sprintf(`DO $$
BEGIN
	CREATE TYPE %s AS ENUM (%s);
EXCEPTION
	WHEN duplicate_object THEN NULL;
END $$;`, e.Physical(), strings.Join(values, ", "))
}

func tableDDL(t Table) string {
	lines := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		def := fmt.Sprintf("\t%q %s", c.Name, c.Type)
		if c.NotNull {
			def += " NOT NULL"
		}
		if c.Default != "" {
			def += " DEFAULT " + c.Default
		}
		lines = append(lines, def)
	}
	lines = append(lines, fmt.Sprintf("\tPRIMARY KEY (%s)", quoteIdents(t.PrimaryKey)))
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (\n%s\n);", t.Physical(), strings.Join(lines, ",\n"))
}

// ForeignKeyName is the constraint name used for a column's foreign key.
func ForeignKeyName(t Table, column string) string {
	return fmt.Sprintf("%s_%s_fkey", t.Physical(), column)
}

// CheckName is the physical name of a check constraint.
func CheckName(ck Check) string {
	return Prefix + ck.Name
}

func foreignKeyDDL(t Table, c Column) string {
	deferrable := ""
	if c.References.Deferrable {
		deferrable = " DEFERRABLE INITIALLY DEFERRED"
	}
	return addConstraintDDL(t, ForeignKeyName(t, c.Name), fmt.Sprintf(
		"FOREIGN KEY (%q) REFERENCES %q (%q) ON DELETE CASCADE%s",
		c.Name, TableName(c.References.Table), c.References.Column, deferrable,
	))
}

func checkDDL(t Table, ck Check) string {
	return addConstraintDDL(t, CheckName(ck), fmt.Sprintf("CHECK (%s)", ck.Expr))
}

func addConstraintDDL(t Table, name, body string) string {
	return fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint WHERE conname = %s
	) THEN
		ALTER TABLE %q ADD CONSTRAINT %q %s;
	END IF;
END $$;`, quoteLiteral(name), t.Physical(), name, body)
}

func indexDDL(t Table, idx Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %q ON %q (%s);",
		unique, Prefix+idx.Name, t.Physical(), quoteIdents(idx.Columns))
}

func quoteIdents(cols []string) string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, fmt.Sprintf("%q", c))
	}
	return strings.Join(out, ", ")
}
