package pgx

import (
	"testing"
	"time"

	"github.com/mindvault/backend/pkg/common"
)

func TestPickCurrentFact_LatestWins(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	facts := []common.Fact{
		{ID: 1, Value: "Acme GmbH", Confidence: 0.95, CreatedAt: base},
		{ID: 2, Value: "Initech", Confidence: 0.60, CreatedAt: base.Add(48 * time.Hour)},
	}

	current, ok := pickCurrentFact(facts)
	if !ok {
		t.Fatal("expected a current fact")
	}
	if current.Value != "Initech" {
		t.Fatalf("newer fact must win regardless of confidence, got %q", current.Value)
	}
}

func TestPickCurrentFact_TieFallsToConfidence(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	facts := []common.Fact{
		{ID: 1, Value: "low", Confidence: 0.4, CreatedAt: at},
		{ID: 2, Value: "high", Confidence: 0.8, CreatedAt: at},
	}

	current, _ := pickCurrentFact(facts)
	if current.Value != "high" {
		t.Fatalf("confidence must break created_at ties, got %q", current.Value)
	}
}

func TestPickCurrentFact_FullTieFallsToID(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	facts := []common.Fact{
		{ID: 7, Value: "older row", Confidence: 0.5, CreatedAt: at},
		{ID: 9, Value: "newer row", Confidence: 0.5, CreatedAt: at},
	}

	current, _ := pickCurrentFact(facts)
	if current.ID != 9 {
		t.Fatalf("highest id must break full ties, got %d", current.ID)
	}
}

func TestPickCurrentFact_Empty(t *testing.T) {
	if _, ok := pickCurrentFact(nil); ok {
		t.Fatal("expected no current fact for an empty history")
	}
}

func TestPickCurrentFact_OrderIndependent(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	facts := []common.Fact{
		{ID: 3, Value: "newest", Confidence: 0.1, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 1, Value: "oldest", Confidence: 0.9, CreatedAt: base},
		{ID: 2, Value: "middle", Confidence: 0.9, CreatedAt: base.Add(time.Hour)},
	}

	current, _ := pickCurrentFact(facts)
	if current.Value != "newest" {
		t.Fatalf("expected newest fact regardless of slice order, got %q", current.Value)
	}
}

func TestValidateFactSpan(t *testing.T) {
	cases := []struct {
		name    string
		span    *common.Span
		wantErr bool
	}{
		{"nil span", nil, false},
		{"well formed", &common.Span{Start: 120, End: 148}, false},
		{"empty span", &common.Span{Start: 10, End: 10}, false},
		{"negative start", &common.Span{Start: -1, End: 5}, true},
		{"end before start", &common.Span{Start: 20, End: 4}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateFactSpan(tc.span)
			if tc.wantErr && err == nil {
				t.Fatal("expected a validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
