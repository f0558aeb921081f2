package pgx

import (
	"errors"
	"testing"

	"github.com/mindvault/backend/pkg/common"
)

func TestValidatePredicateCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{name: "snake case", code: "works_at"},
		{name: "mixed case allowed", code: "Works_At"},
		{name: "digits after first letter", code: "rel2_of"},
		{name: "empty", code: "", wantErr: true},
		{name: "leading digit", code: "2works", wantErr: true},
		{name: "leading underscore", code: "_works", wantErr: true},
		{name: "spaces", code: "works at", wantErr: true},
		{name: "punctuation", code: "works-at", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePredicateCode(tt.code)
			if tt.wantErr {
				var validation *common.ValidationError
				if !errors.As(err, &validation) {
					t.Fatalf("expected ValidationError for %q, got %v", tt.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected %q to be valid, got %v", tt.code, err)
			}
		})
	}
}

func TestCardinalityValid(t *testing.T) {
	for _, c := range []common.Cardinality{
		common.CardinalityOneToOne,
		common.CardinalityOneToMany,
		common.CardinalityManyToMany,
	} {
		if !c.Valid() {
			t.Fatalf("%q must be a valid cardinality", c)
		}
	}
	for _, c := range []common.Cardinality{"", "one_to_none", "MANY_TO_MANY"} {
		if c.Valid() {
			t.Fatalf("%q must not be a valid cardinality", c)
		}
	}
}

func TestCheckInverseLink(t *testing.T) {
	id := func(v int64) *int64 { return &v }

	a := common.Predicate{ID: 1, Code: "employee_of"}
	b := common.Predicate{ID: 2, Code: "employs"}
	if err := checkInverseLink(a, b); err != nil {
		t.Fatalf("fresh asymmetric pair must link, got %v", err)
	}

	linkedA := a
	linkedA.InverseID = id(2)
	linkedB := b
	linkedB.InverseID = id(1)
	if err := checkInverseLink(linkedA, linkedB); err != nil {
		t.Fatalf("re-linking the same pair must be a no-op, got %v", err)
	}

	if err := checkInverseLink(a, a); err == nil {
		t.Fatal("a predicate cannot be its own inverse")
	}

	sym := common.Predicate{ID: 3, Code: "married_to", Symmetric: true}
	var validation *common.ValidationError
	if err := checkInverseLink(sym, b); !errors.As(err, &validation) {
		t.Fatalf("symmetric predicates take no inverse, got %v", err)
	}

	elsewhere := a
	elsewhere.InverseID = id(9)
	var conflict *common.ConflictError
	if err := checkInverseLink(elsewhere, b); !errors.As(err, &conflict) {
		t.Fatalf("a predicate linked elsewhere must conflict, got %v", err)
	}
	if err := checkInverseLink(b, elsewhere); !errors.As(err, &conflict) {
		t.Fatalf("the check must look at both sides, got %v", err)
	}
}
