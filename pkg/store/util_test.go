package store

import (
	"errors"
	"reflect"
	"testing"
)

func TestChunkRange(t *testing.T) {
	var spans [][2]int
	err := ChunkRange(10, 4, func(start, end int) error {
		spans = append(spans, [2]int{start, end})
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][2]int{{0, 4}, {4, 8}, {8, 10}}
	if !reflect.DeepEqual(spans, want) {
		t.Fatalf("unexpected spans: got %v, want %v", spans, want)
	}
}

func TestChunkRange_EmptyAndErrors(t *testing.T) {
	calls := 0
	if err := ChunkRange(0, 4, func(start, end int) error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no calls for empty range, got %d", calls)
	}

	boom := errors.New("boom")
	err := ChunkRange(10, 4, func(start, end int) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected propagated error, got %v", err)
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"a", "", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected result: got %v, want %v", got, want)
	}
	if DedupeStrings(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}
