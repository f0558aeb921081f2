package pgx

import (
	"reflect"
	"testing"

	"github.com/mindvault/backend/pkg/common"
)

func TestMergeEntity_UnionsIdentifierSets(t *testing.T) {
	existing := common.Entity{
		ID: 1, PublicID: "ent_1", Name: "Jane Doe", Kind: "person",
		Emails:  []string{"jane@acme.com"},
		Phones:  []string{"+491510000000"},
		Domains: []string{"acme.com"},
	}
	incoming := common.Entity{
		Name: "Jane Doe", Kind: "person",
		Emails: []string{"jane@acme.com", "jane.doe@gmail.com"},
		Phones: []string{"+491510000000"},
	}

	merged := mergeEntity(existing, incoming)
	if !reflect.DeepEqual(merged.Emails, []string{"jane@acme.com", "jane.doe@gmail.com"}) {
		t.Fatalf("unexpected emails: %v", merged.Emails)
	}
	if !reflect.DeepEqual(merged.Phones, []string{"+491510000000"}) {
		t.Fatalf("unexpected phones: %v", merged.Phones)
	}
	if merged.PublicID != "ent_1" {
		t.Fatalf("merge must keep the existing identity, got %q", merged.PublicID)
	}
}

func TestMergeEntity_DifferingNameBecomesAlias(t *testing.T) {
	existing := common.Entity{ID: 1, Name: "Dr. Jane Doe", Kind: "person"}
	incoming := common.Entity{Name: "Jane Doe", Kind: "person"}

	merged := mergeEntity(existing, incoming)
	if merged.Name != "Dr. Jane Doe" {
		t.Fatalf("existing name must survive, got %q", merged.Name)
	}
	if !reflect.DeepEqual(merged.Aliases, []string{"Jane Doe"}) {
		t.Fatalf("incoming name must become an alias, got %v", merged.Aliases)
	}
}

func TestMergeEntity_SameNameDifferentCaseIsNoAlias(t *testing.T) {
	existing := common.Entity{ID: 1, Name: "ACME", Kind: "org"}
	incoming := common.Entity{Name: "acme", Kind: "org"}

	merged := mergeEntity(existing, incoming)
	if len(merged.Aliases) != 0 {
		t.Fatalf("case variants must not pile up as aliases, got %v", merged.Aliases)
	}
}

func TestMergeEntity_IncomingAttributesWin(t *testing.T) {
	existing := common.Entity{
		ID: 1, Name: "Jane", Kind: "person",
		Attributes: map[string]string{"city": "Berlin", "team": "infra"},
	}
	incoming := common.Entity{
		Name: "Jane", Kind: "person",
		Attributes: map[string]string{"city": "Hamburg"},
	}

	merged := mergeEntity(existing, incoming)
	if merged.Attributes["city"] != "Hamburg" {
		t.Fatalf("incoming attribute value must win, got %q", merged.Attributes["city"])
	}
	if merged.Attributes["team"] != "infra" {
		t.Fatalf("untouched attributes must survive, got %q", merged.Attributes["team"])
	}
}
