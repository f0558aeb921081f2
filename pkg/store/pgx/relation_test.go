package pgx

import (
	"errors"
	"testing"
	"time"

	"github.com/mindvault/backend/pkg/common"
)

func strPtr(s string) *string  { return &s }
func i64Ptr(v int64) *int64    { return &v }

func TestPlanMirror_SymmetricSwapsEndpoints(t *testing.T) {
	pred := common.Predicate{ID: 1, Code: "married_to", Symmetric: true}
	relation := common.Relation{
		SubjectID: 10, SubjectPublicID: "ent_a",
		ObjectID: 20, ObjectPublicID: "ent_b",
		PredicateCode: "married_to",
		Confidence:    0.9,
	}

	mirror, err := planMirror(pred, relation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mirror == nil {
		t.Fatal("expected a mirror for a symmetric predicate")
	}
	if mirror.SubjectID != 20 || mirror.ObjectID != 10 {
		t.Fatalf("expected swapped endpoints, got subject=%d object=%d", mirror.SubjectID, mirror.ObjectID)
	}
	if mirror.PredicateCode != "married_to" {
		t.Fatalf("symmetric mirror must keep the predicate, got %q", mirror.PredicateCode)
	}
	if !mirror.SystemGenerated {
		t.Fatal("mirror must be system generated")
	}
	if mirror.Confidence != 0.9 {
		t.Fatalf("mirror must inherit confidence, got %v", mirror.Confidence)
	}
}

func TestPlanMirror_InversePredicate(t *testing.T) {
	pred := common.Predicate{
		ID: 1, Code: "parent_of",
		InverseID:   i64Ptr(2),
		InverseCode: strPtr("child_of"),
	}
	relation := common.Relation{
		SubjectID: 10, SubjectPublicID: "ent_parent",
		ObjectID: 20, ObjectPublicID: "ent_child",
		PredicateCode: "parent_of",
	}

	mirror, err := planMirror(pred, relation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mirror == nil {
		t.Fatal("expected a mirror for a predicate with an inverse")
	}
	if mirror.PredicateCode != "child_of" {
		t.Fatalf("expected inverse predicate, got %q", mirror.PredicateCode)
	}
	if mirror.SubjectPublicID != "ent_child" || mirror.ObjectPublicID != "ent_parent" {
		t.Fatalf("expected swapped endpoints, got %s -> %s", mirror.SubjectPublicID, mirror.ObjectPublicID)
	}
}

func TestPlanMirror_AsymmetricWithoutInverse(t *testing.T) {
	pred := common.Predicate{ID: 1, Code: "mentions"}
	relation := common.Relation{SubjectID: 10, ObjectID: 20, PredicateCode: "mentions"}

	mirror, err := planMirror(pred, relation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mirror != nil {
		t.Fatalf("expected no mirror without an inverse, got %+v", mirror)
	}
}

func TestPlanMirror_SystemGeneratedNeverRemirrors(t *testing.T) {
	pred := common.Predicate{ID: 1, Code: "married_to", Symmetric: true}
	relation := common.Relation{
		SubjectID: 10, ObjectID: 20,
		PredicateCode:   "married_to",
		SystemGenerated: true,
	}

	mirror, err := planMirror(pred, relation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mirror != nil {
		t.Fatal("a system-generated edge must never produce another mirror")
	}
}

func TestPlanMirror_SymmetricSelfRelation(t *testing.T) {
	pred := common.Predicate{ID: 1, Code: "same_as", Symmetric: true}
	relation := common.Relation{SubjectID: 10, ObjectID: 10, PredicateCode: "same_as"}

	mirror, err := planMirror(pred, relation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mirror != nil {
		t.Fatal("a symmetric self-relation has no distinct mirror")
	}
}

func TestPlanMirror_MissingInverseCode(t *testing.T) {
	pred := common.Predicate{ID: 1, Code: "parent_of", InverseID: i64Ptr(2)}
	relation := common.Relation{SubjectID: 10, ObjectID: 20, PredicateCode: "parent_of"}

	_, err := planMirror(pred, relation)
	var consistency *common.ConsistencyError
	if !errors.As(err, &consistency) {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}
}

func TestPlanMirror_CarriesRoleAndQualifiers(t *testing.T) {
	pred := common.Predicate{ID: 1, Code: "service_provider_of", InverseID: i64Ptr(2), InverseCode: strPtr("client_of")}
	relation := common.Relation{
		SubjectID: 10, ObjectID: 20,
		PredicateCode: "service_provider_of",
		Role:          strPtr("agent"),
		Qualifiers:    map[string]string{"firm": "Davis Tate"},
	}

	mirror, err := planMirror(pred, relation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mirror == nil {
		t.Fatal("expected a mirror")
	}
	if mirror.Role == nil || *mirror.Role != "agent" {
		t.Fatalf("mirror must keep the role, got %v", mirror.Role)
	}
	if mirror.Qualifiers["firm"] != "Davis Tate" {
		t.Fatalf("mirror must keep the qualifiers, got %v", mirror.Qualifiers)
	}
}

func TestValidateQualifiers(t *testing.T) {
	cases := []struct {
		name       string
		qualifiers map[string]string
		wantErr    bool
	}{
		{"nil map", nil, false},
		{"well formed", map[string]string{"firm": "Davis Tate", "city": "Reading"}, false},
		{"empty key", map[string]string{"": "x"}, true},
		{"uppercase key", map[string]string{"Firm": "x"}, true},
		{"spaced key", map[string]string{"home town": "x"}, true},
		{"blank value", map[string]string{"firm": "  "}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateQualifiers(tc.qualifiers)
			if tc.wantErr && err == nil {
				t.Fatal("expected a validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRelationActiveAt_EndBoundaryExclusive(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	before := at.Add(-24 * time.Hour)
	after := at.Add(24 * time.Hour)

	open := common.Relation{}
	if !open.ActiveAt(at) {
		t.Fatal("an edge without bounds is always active")
	}

	running := common.Relation{StartAt: &before, EndAt: &after}
	if !running.ActiveAt(at) {
		t.Fatal("an edge spanning the instant is active")
	}

	endingNow := common.Relation{StartAt: &before, EndAt: &at}
	if endingNow.ActiveAt(at) {
		t.Fatal("an edge ending exactly at the instant is no longer active")
	}

	ended := common.Relation{EndAt: &before}
	if ended.ActiveAt(at) {
		t.Fatal("an ended edge is inactive")
	}

	notStarted := common.Relation{StartAt: &after}
	if notStarted.ActiveAt(at) {
		t.Fatal("a future edge is inactive")
	}

	startingNow := common.Relation{StartAt: &at}
	if !startingNow.ActiveAt(at) {
		t.Fatal("an edge starting exactly at the instant is active")
	}
}
