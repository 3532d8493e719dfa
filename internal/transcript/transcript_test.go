// ABOUTME: Tests for transcript timing estimates
// ABOUTME: Covers sentence splitting, scaling, and offset lookup
package transcript

import (
	"math"
	"testing"
)

func TestBuildSplitsSentences(t *testing.T) {
	tl := Build("First sentence. Second one! A third?\nFourth on its own line", 0)
	if tl.Len() != 4 {
		t.Fatalf("expected 4 sentences, got %d", tl.Len())
	}
	lines := tl.Lines()
	if lines[0].Text != "First sentence." {
		t.Errorf("unexpected first sentence: %q", lines[0].Text)
	}
	if lines[3].Text != "Fourth on its own line" {
		t.Errorf("unexpected last sentence: %q", lines[3].Text)
	}
}

func TestBuildScalesToKnownDuration(t *testing.T) {
	// Two sentences of equal word count over a 60s chunk split it evenly.
	tl := Build("one two three four. five six seven eight.", 60)
	lines := tl.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(lines))
	}
	if math.Abs(lines[0].End-30) > 1e-9 {
		t.Errorf("expected first sentence to end at 30, got %v", lines[0].End)
	}
	if math.Abs(lines[1].End-60) > 1e-9 {
		t.Errorf("expected last sentence to end at 60, got %v", lines[1].End)
	}
}

func TestBuildUnknownDurationUsesRate(t *testing.T) {
	// Five words at 2.5 words/sec is a 2s estimate.
	tl := Build("one two three four five.", 0)
	lines := tl.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(lines))
	}
	if math.Abs(lines[0].End-2) > 1e-9 {
		t.Errorf("expected 2s estimate, got %v", lines[0].End)
	}
}

func TestAtFindsSentence(t *testing.T) {
	tl := Build("one two three four. five six seven eight.", 60)

	line, ok := tl.At(10)
	if !ok || line.Start != 0 {
		t.Errorf("expected first sentence at 10s, got %+v ok=%v", line, ok)
	}
	line, ok = tl.At(45)
	if !ok || line.Start != 30 {
		t.Errorf("expected second sentence at 45s, got %+v ok=%v", line, ok)
	}
	// Past the end sticks to the final sentence.
	line, ok = tl.At(500)
	if !ok || line.Start != 30 {
		t.Errorf("expected last sentence past the end, got %+v ok=%v", line, ok)
	}
}

func TestAtEmptyTimeline(t *testing.T) {
	tl := Build("", 10)
	if _, ok := tl.At(0); ok {
		t.Error("empty text should produce no sentences")
	}
}
