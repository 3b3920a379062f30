package domain

import (
	"errors"
	"testing"
)

func TestFlattenResourceRoundTrip(t *testing.T) {
	cases := []Resource{
		MessageResource{MessageID: "m1"},
		DocumentResource{DocumentID: "d1"},
		ConversationResource{ConversationID: "c1"},
		DocumentReviewResource{DocumentReviewID: "r1"},
	}
	for _, want := range cases {
		cols, err := FlattenResource(want)
		if err != nil {
			t.Fatalf("flatten %T: %v", want, err)
		}
		if cols.ResourceType != want.Type() {
			t.Fatalf("resource type = %q, want %q", cols.ResourceType, want.Type())
		}
		got, err := cols.Resource()
		if err != nil {
			t.Fatalf("rebuild %T: %v", want, err)
		}
		if got != want {
			t.Fatalf("rebuilt %+v, want %+v", got, want)
		}
	}
}

func TestFlattenResourceNil(t *testing.T) {
	if _, err := FlattenResource(nil); !errors.Is(err, ErrUnknownResource) {
		t.Fatalf("expected ErrUnknownResource, got %v", err)
	}
}

func TestResourceColumnsRejectMismatch(t *testing.T) {
	id := "d1"
	other := "m1"
	cases := map[string]ResourceColumns{
		"none set":       {ResourceType: ResourceDocument},
		"wrong column":   {ResourceType: ResourceMessage, DocumentID: &id},
		"two columns":    {ResourceType: ResourceDocument, DocumentID: &id, MessageID: &other},
		"unknown marker": {ResourceType: "team", DocumentID: &id},
	}
	for name, cols := range cases {
		if _, err := cols.Resource(); !errors.Is(err, ErrUnknownResource) {
			t.Fatalf("%s: expected ErrUnknownResource, got %v", name, err)
		}
	}
}

func TestValidateEnumMembership(t *testing.T) {
	ok := DocumentAccess{DocumentID: "d1", UserID: "u1", AccessLevel: AccessWrite}
	if err := Validate(ok); err != nil {
		t.Fatalf("validate access: %v", err)
	}
	bad := ok
	bad.AccessLevel = "owner"
	if err := Validate(bad); err == nil {
		t.Fatalf("expected invalid access level to fail")
	}
	missing := ok
	missing.DocumentID = ""
	if err := Validate(missing); err == nil {
		t.Fatalf("expected missing document id to fail")
	}
}
