package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorTaxonomy_ErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("save chunk: %w", NewConflictError("chunk", "ord 3 already taken"))

	var conflict *ConflictError
	if !errors.As(wrapped, &conflict) {
		t.Fatalf("expected wrapped error to match *ConflictError")
	}
	if conflict.Resource != "chunk" {
		t.Fatalf("expected resource chunk, got %q", conflict.Resource)
	}

	var validation *ValidationError
	if errors.As(wrapped, &validation) {
		t.Fatalf("conflict error must not match *ValidationError")
	}
}

func TestErrorTaxonomy_Messages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{NewValidationError("code", "must match [a-z0-9_]+"), "validation: code: must match [a-z0-9_]+"},
		{&ValidationError{Reason: "embedding or text required"}, "validation: embedding or text required"},
		{NewNotFoundError("entity", "ent_abc"), `not found: entity "ent_abc"`},
		{NewConsistencyError("predicate %s has no inverse", "parent_of"), "consistency: predicate parent_of has no inverse"},
	}

	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
