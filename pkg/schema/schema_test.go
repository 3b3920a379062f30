package schema

import (
	"regexp"
	"strings"
	"testing"
)

func TestTableNameAppliesPrefix(t *testing.T) {
	if got := TableName(Users); got != "dexter_user" {
		t.Fatalf("users table = %q", got)
	}
	if got := TableName(Notifications); got != "dexter_notification" {
		t.Fatalf("notification table = %q", got)
	}
}

func TestEveryForeignKeyTargetsDeclaredTable(t *testing.T) {
	for _, tbl := range Tables {
		for _, pk := range tbl.PrimaryKey {
			if _, ok := tbl.Column(pk); !ok {
				t.Fatalf("%s: primary key column %q missing", tbl.Name, pk)
			}
		}
		for _, c := range tbl.Columns {
			if c.References == nil {
				continue
			}
			parent, ok := Lookup(c.References.Table)
			if !ok {
				t.Fatalf("%s.%s references unknown table %q", tbl.Name, c.Name, c.References.Table)
			}
			if _, ok := parent.Column(c.References.Column); !ok {
				t.Fatalf("%s.%s references unknown column %q", tbl.Name, c.Name, c.References.Column)
			}
		}
	}
}

func TestDDLOrderAndCascade(t *testing.T) {
	stmts := DDL()
	firstTable, firstFK := -1, -1
	for i, s := range stmts {
		if firstTable < 0 && strings.HasPrefix(s, "CREATE TABLE") {
			firstTable = i
		}
		if firstFK < 0 && strings.Contains(s, "FOREIGN KEY") {
			firstFK = i
		}
		if strings.Contains(s, "CREATE TABLE") && strings.Contains(s, "CREATE TYPE") {
			t.Fatalf("statement mixes type and table creation: %s", s)
		}
		if strings.Contains(s, "FOREIGN KEY") && !strings.Contains(s, "ON DELETE CASCADE") {
			t.Fatalf("foreign key without cascade: %s", s)
		}
	}
	if firstTable < len(Enums) {
		t.Fatalf("tables created before enums: first table at %d", firstTable)
	}
	if firstFK < firstTable+len(Tables) {
		t.Fatalf("foreign keys added before all tables exist: first fk at %d", firstFK)
	}

	var deferred int
	for _, s := range stmts {
		if strings.Contains(s, "DEFERRABLE INITIALLY DEFERRED") {
			deferred++
			if !strings.Contains(s, `"dexter_document_versions_document_id_fkey"`) {
				t.Fatalf("unexpected deferred constraint: %s", s)
			}
		}
	}
	if deferred != 1 {
		t.Fatalf("deferred constraints = %d, want 1", deferred)
	}
}

func TestEnumDDLIsGuarded(t *testing.T) {
	s := enumDDL(TeamRole)
	for _, want := range []string{"CREATE TYPE dexter_team_role AS ENUM ('owner', 'admin', 'member')", "duplicate_object"} {
		if !strings.Contains(s, want) {
			t.Fatalf("enum ddl missing %q:\n%s", want, s)
		}
	}
}

func TestRequiredConstraintsDeclared(t *testing.T) {
	cases := []struct {
		table   string
		columns string
	}{
		{Users, "email"},
		{Teams, "name,created_by"},
		{TeamInvites, "token"},
		{TeamInvites, "team_id,email"},
		{DocumentReviewers, "document_id,reviewer_id"},
	}
	for _, tc := range cases {
		tbl, _ := Lookup(tc.table)
		found := false
		for _, idx := range tbl.Indexes {
			if idx.Unique && strings.Join(idx.Columns, ",") == tc.columns {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: no unique index on (%s)", tc.table, tc.columns)
		}
	}
	acc, _ := Lookup(Accounts)
	if strings.Join(acc.PrimaryKey, ",") != "provider,provider_account_id" {
		t.Fatalf("account primary key = %v", acc.PrimaryKey)
	}
}

func TestVersionPattern(t *testing.T) {
	re := regexp.MustCompile(VersionPattern)
	for _, ok := range []string{"1.0.0", "10.20.30"} {
		if !re.MatchString(ok) {
			t.Fatalf("%q should match", ok)
		}
	}
	for _, bad := range []string{"1.0", "v1.0.0", "1.0.0-rc1", ""} {
		if re.MatchString(bad) {
			t.Fatalf("%q should not match", bad)
		}
	}
}

func TestInvariantsCoverChecks(t *testing.T) {
	names := map[string]bool{}
	for _, inv := range Invariants {
		names[inv.Name] = true
		if !strings.HasPrefix(inv.Query, "SELECT count(*)") {
			t.Fatalf("%s: query must count rows: %s", inv.Name, inv.Query)
		}
	}
	for _, want := range []string{
		"conversation_team_check",
		"document_version_format_check",
		"document_access_target_check",
		"notification_resource_check",
		"document_current_version_owned",
	} {
		if !names[want] {
			t.Fatalf("missing invariant %s", want)
		}
	}
}

func TestOrderColumn(t *testing.T) {
	cases := map[string]string{
		Messages:          "created_at",
		TeamMembers:       "joined_at",
		DocumentAccess:    "granted_at",
		DocumentReviewers: "assigned_at",
		Accounts:          "",
	}
	for name, want := range cases {
		tbl, ok := Lookup(name)
		if !ok {
			t.Fatalf("table %s not declared", name)
		}
		if got := tbl.OrderColumn(); got != want {
			t.Fatalf("%s order column = %q, want %q", name, got, want)
		}
	}
}
