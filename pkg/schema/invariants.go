package schema

import "fmt"

// Invariant is a query counting rows that break a cross-column rule.
// A healthy database returns zero for every invariant.
type Invariant struct {
	Name  string
	Query string
}

// Invariants are derived from the check constraints plus the rules the
// engine cannot express as a single-row check.
var Invariants = buildInvariants()

func buildInvariants() []Invariant {
	out := make([]Invariant, 0, 8)
	for _, t := range Tables {
		for _, ck := range t.Checks {
			out = append(out, Invariant{
				Name:  ck.Name,
				Query: fmt.Sprintf("SELECT count(*) FROM %q WHERE NOT (%s)", t.Physical(), ck.Expr),
			})
		}
	}
	out = append(out, Invariant{
		Name: "document_current_version_owned",
		Query: fmt.Sprintf(
			"SELECT count(*) FROM %q d JOIN %q v ON v.id = d.current_version_id WHERE v.document_id <> d.id",
			TableName(Documents), TableName(DocumentVersions),
		),
	})
	return out
}
