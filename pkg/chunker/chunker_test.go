package chunker

import (
	"strings"
	"testing"
)

func TestSplit_TitleAlwaysOrdZero(t *testing.T) {
	segments, err := Split("Quarterly review", "Short body.", Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Ord != 0 || segments[0].Text != "Quarterly review" {
		t.Fatalf("unexpected title segment: %+v", segments[0])
	}
	if segments[1].Ord != 1 || segments[1].Text != "Short body." {
		t.Fatalf("unexpected body segment: %+v", segments[1])
	}
}

func TestSplit_EmptyBodyKeepsTitleOnly(t *testing.T) {
	segments, err := Split("Receipt", "", Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected only the title segment, got %d", len(segments))
	}
}

func TestSplit_EmptyTitleKeepsOrdsStable(t *testing.T) {
	segments, err := Split("", "Body text.", Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Text != "" {
		t.Fatalf("expected empty ord 0, got %q", segments[0].Text)
	}
	if segments[1].Ord != 1 {
		t.Fatalf("expected body at ord 1, got %d", segments[1].Ord)
	}
}

func TestSplit_TitleTruncatedToLimit(t *testing.T) {
	long := strings.Repeat("x", 500)
	segments, err := Split(long, "", Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len([]rune(segments[0].Text)); got != DefaultTitleLimit {
		t.Fatalf("expected title capped at %d runes, got %d", DefaultTitleLimit, got)
	}
}

func TestSplit_WindowsOverlap(t *testing.T) {
	body := strings.Repeat("abcdefghij", 300) // 3000 chars
	segments, err := Split("t", body, Params{WindowSize: 1000, Overlap: 100, MinTail: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bodySegments := segments[1:]
	if len(bodySegments) < 3 {
		t.Fatalf("expected at least 3 body windows, got %d", len(bodySegments))
	}
	for i, segment := range bodySegments {
		if segment.Ord != i+1 {
			t.Fatalf("expected ord %d, got %d", i+1, segment.Ord)
		}
	}

	// Consecutive windows share their overlap region.
	first := bodySegments[0].Text
	second := bodySegments[1].Text
	if !strings.HasPrefix(second, first[len(first)-100:]) {
		t.Fatalf("expected second window to start with the overlap tail of the first")
	}
}

func TestWindowBody_ShortTailMergesIntoPrevious(t *testing.T) {
	// Steps of 900 leave a 50 char tail at 1800, below the 80 char floor.
	text := strings.Repeat("a", 1850)
	windows := windowBody(text, 1000, 100, 80)
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows after tail merge, got %d", len(windows))
	}
	if got := len(windows[1]); got != 950 {
		t.Fatalf("expected merged final window of 950 chars, got %d", got)
	}
}

func TestWindowBody_SingleWindowWhenShort(t *testing.T) {
	windows := windowBody("short text", 1200, 160, 80)
	if len(windows) != 1 || windows[0] != "short text" {
		t.Fatalf("unexpected windows: %v", windows)
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "basic terminators",
			input: "First point. Second point! Third point?",
			want:  []string{"First point.", "Second point!", "Third point?"},
		},
		{
			name:  "closing quote stays attached",
			input: `She said "done." Then left.`,
			want:  []string{`She said "done."`, "Then left."},
		},
		{
			name:  "numbered list does not split",
			input: "Step 1. gather input and continue.",
			want:  []string{"Step 1. gather input and continue."},
		},
		{
			name:  "blank line forces boundary",
			input: "no terminator here\n\nnext paragraph.",
			want:  []string{"no terminator here", "next paragraph."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d sentences, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("sentence %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}
