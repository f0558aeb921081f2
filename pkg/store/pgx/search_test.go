package pgx

import (
	"strings"
	"testing"
	"time"
)

func TestAppendCandidateFilters_NoFiltersLeaveQueryAlone(t *testing.T) {
	query, args := appendCandidateFilters("WHERE i.deleted_at IS NULL\n", []any{"signal"}, candidateFilter{})
	if query != "WHERE i.deleted_at IS NULL\n" {
		t.Fatalf("empty filter must not add conditions, got %q", query)
	}
	if len(args) != 1 {
		t.Fatalf("empty filter must not add arguments, got %d", len(args))
	}
}

func TestAppendCandidateFilters_PlaceholderNumbering(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	filter := candidateFilter{
		tags:        []string{"work"},
		domains:     []string{"acme.com"},
		dateFrom:    &from,
		dateTo:      &to,
		entityIDs:   []int64{7},
		entityNames: []string{"Bruce"},
	}

	query, args := appendCandidateFilters("", []any{"signal"}, filter)
	if len(args) != 7 {
		t.Fatalf("expected 7 bound arguments, got %d", len(args))
	}
	for _, want := range []string{
		"t.name = ANY($2)",
		"i.domains && $3",
		"i.event_at >= $4",
		"i.event_at < $5",
		"i.people && $6 OR i.orgs && $6",
		"r.subject_id = ANY($7) OR r.object_id = ANY($7)",
		"f.entity_id = ANY($7)",
	} {
		if !strings.Contains(query, want) {
			t.Fatalf("expected %q in rendered filter:\n%s", want, query)
		}
	}
}

func TestAppendCandidateFilters_DateRangeHalfOpen(t *testing.T) {
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	query, args := appendCandidateFilters("", []any{"signal"}, candidateFilter{dateTo: &to})
	if !strings.Contains(query, "i.event_at < $2") {
		t.Fatalf("upper bound must be exclusive, got %q", query)
	}
	if strings.Contains(query, "event_at >=") {
		t.Fatalf("open lower bound must add no condition, got %q", query)
	}
	if len(args) != 2 || args[1] != to {
		t.Fatalf("expected the bound as the second argument, got %v", args)
	}
}

func TestAppendCandidateFilters_EntityFilterNeedsResolvedIDs(t *testing.T) {
	// Names alone never render the entity clause; the filter only fires
	// once the public ids were resolved.
	query, args := appendCandidateFilters("", []any{"signal"}, candidateFilter{entityNames: []string{"Bruce"}})
	if strings.Contains(query, "i.people") {
		t.Fatalf("unresolved entity filter must not render, got %q", query)
	}
	if len(args) != 1 {
		t.Fatalf("expected no extra arguments, got %d", len(args))
	}
}
