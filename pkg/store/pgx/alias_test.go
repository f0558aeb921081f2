package pgx

import (
	"testing"
	"time"

	"github.com/mindvault/backend/pkg/common"
)

var aliasNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func aliasCand(id int64, name string, start, end *time.Time) aliasCandidate {
	return aliasCandidate{
		entity:  common.Entity{ID: id, PublicID: "ent_" + name, Name: name},
		startAt: start,
		endAt:   end,
	}
}

func TestActiveAliasTargets_ReturnsAllCurrentHolders(t *testing.T) {
	// Two agents hold the role at once; both must come back, in the
	// relation order the query produced.
	candidates := []aliasCandidate{
		aliasCand(1, "bruce", nil, nil),
		aliasCand(2, "helen", nil, nil),
	}

	targets := activeAliasTargets(candidates, aliasNow)
	if len(targets) != 2 {
		t.Fatalf("expected both holders, got %d", len(targets))
	}
	if targets[0].Name != "bruce" || targets[1].Name != "helen" {
		t.Fatalf("expected candidate order preserved, got %v", targets)
	}
}

func TestActiveAliasTargets_SkipsInactiveRelations(t *testing.T) {
	past := aliasNow.Add(-30 * 24 * time.Hour)
	future := aliasNow.Add(30 * 24 * time.Hour)

	candidates := []aliasCandidate{
		aliasCand(1, "former", nil, &past),
		aliasCand(2, "current", &past, nil),
		aliasCand(3, "upcoming", &future, nil),
	}

	targets := activeAliasTargets(candidates, aliasNow)
	if len(targets) != 1 || targets[0].Name != "current" {
		t.Fatalf("expected only the current holder, got %v", targets)
	}
}

func TestActiveAliasTargets_EndBoundaryExclusive(t *testing.T) {
	candidates := []aliasCandidate{
		aliasCand(1, "ending", nil, &aliasNow),
	}

	targets := activeAliasTargets(candidates, aliasNow)
	if len(targets) != 0 {
		t.Fatalf("a relation ending exactly now must not resolve, got %v", targets)
	}
}

func TestActiveAliasTargets_EmptySetIsLegitimate(t *testing.T) {
	past := aliasNow.Add(-24 * time.Hour)
	candidates := []aliasCandidate{
		aliasCand(1, "former", nil, &past),
	}

	if targets := activeAliasTargets(candidates, aliasNow); len(targets) != 0 {
		t.Fatalf("between holders the phrase resolves to nobody, got %v", targets)
	}
	if targets := activeAliasTargets(nil, aliasNow); len(targets) != 0 {
		t.Fatalf("no relations at all resolves to nobody, got %v", targets)
	}
}

func TestActiveAliasTargets_DropsRepeatedEntities(t *testing.T) {
	candidates := []aliasCandidate{
		aliasCand(1, "bruce", nil, nil),
		aliasCand(1, "bruce", nil, nil),
	}

	targets := activeAliasTargets(candidates, aliasNow)
	if len(targets) != 1 {
		t.Fatalf("expected one entity after dedup, got %d", len(targets))
	}
}
