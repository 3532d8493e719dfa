// ABOUTME: Tests for sequence timeline math
// ABOUTME: Covers prefix sums, time-to-chunk mapping, and edge clamping
package playback

import (
	"errors"
	"math"
	"testing"
)

func threeChunks() []Chunk {
	return []Chunk{
		{Index: 0, Duration: 100, Ready: true},
		{Index: 1, Duration: 50, Ready: true},
		{Index: 2, Duration: 30, Ready: true},
	}
}

func TestNewSequenceFiltersAndSorts(t *testing.T) {
	seq, err := NewSequence([]Chunk{
		{Index: 2, Duration: 30, Ready: true},
		{Index: 0, Duration: 100, Ready: true},
		{Index: 1, Duration: 50, Ready: false},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq.Len() != 2 {
		t.Fatalf("expected 2 playable chunks, got %d", seq.Len())
	}
	if seq.First().Index != 0 || seq.Last().Index != 2 {
		t.Errorf("expected chunks 0 and 2, got %d and %d", seq.First().Index, seq.Last().Index)
	}
	if seq.Contains(1) {
		t.Error("chunk 1 is not ready and should not be playable")
	}
}

func TestNewSequenceEmpty(t *testing.T) {
	if _, err := NewSequence(nil); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("expected ErrEmptySequence, got %v", err)
	}
	if _, err := NewSequence([]Chunk{{Index: 0, Ready: false}}); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("expected ErrEmptySequence for all-pending list, got %v", err)
	}
}

func TestPrefixTimeAndTotal(t *testing.T) {
	seq, _ := NewSequence(threeChunks())

	cases := []struct {
		index int
		want  float64
	}{
		{0, 0},
		{1, 100},
		{2, 150},
	}
	for _, c := range cases {
		got, err := seq.PrefixTime(c.index)
		if err != nil {
			t.Fatalf("PrefixTime(%d): %v", c.index, err)
		}
		if got != c.want {
			t.Errorf("PrefixTime(%d) = %v, want %v", c.index, got, c.want)
		}
	}

	// Prefix of the last chunk plus its duration equals the total.
	last, _ := seq.PrefixTime(2)
	if total := seq.TotalDuration(); last+30 != total {
		t.Errorf("prefix(last)+duration = %v, total = %v", last+30, total)
	}
}

func TestPrefixTimeUnknownChunk(t *testing.T) {
	seq, _ := NewSequence(threeChunks())
	if _, err := seq.PrefixTime(7); !errors.Is(err, ErrUnknownChunk) {
		t.Errorf("expected ErrUnknownChunk, got %v", err)
	}
}

func TestChunkAtMidEpisode(t *testing.T) {
	seq, _ := NewSequence(threeChunks())

	// 120s into a 100+50+30 episode lands 20s into chunk 1.
	chunk, offset := seq.ChunkAt(120)
	if chunk.Index != 1 {
		t.Errorf("expected chunk 1, got %d", chunk.Index)
	}
	if offset != 20 {
		t.Errorf("expected offset 20, got %v", offset)
	}
}

func TestChunkAtBoundaryBelongsToLaterChunk(t *testing.T) {
	seq, _ := NewSequence(threeChunks())

	chunk, offset := seq.ChunkAt(100)
	if chunk.Index != 1 || offset != 0 {
		t.Errorf("boundary at 100 should open chunk 1, got chunk %d offset %v", chunk.Index, offset)
	}
	chunk, offset = seq.ChunkAt(150)
	if chunk.Index != 2 || offset != 0 {
		t.Errorf("boundary at 150 should open chunk 2, got chunk %d offset %v", chunk.Index, offset)
	}
}

func TestChunkAtClampsOutOfRange(t *testing.T) {
	seq, _ := NewSequence(threeChunks())

	chunk, offset := seq.ChunkAt(1000)
	if chunk.Index != 2 || offset != 30 {
		t.Errorf("past-the-end should clamp into chunk 2 at 30, got chunk %d offset %v", chunk.Index, offset)
	}
	chunk, offset = seq.ChunkAt(-5)
	if chunk.Index != 0 || offset != 0 {
		t.Errorf("negative time should clamp to chunk 0 at 0, got chunk %d offset %v", chunk.Index, offset)
	}
}

func TestChunkAtSkipsUnknownDurations(t *testing.T) {
	seq, _ := NewSequence([]Chunk{
		{Index: 0, Duration: 10, Ready: true},
		{Index: 1, Duration: 0, Ready: true},
		{Index: 2, Duration: 10, Ready: true},
	})

	chunk, offset := seq.ChunkAt(10)
	if chunk.Index != 2 || offset != 0 {
		t.Errorf("zero-duration chunk should never be selected, got chunk %d offset %v", chunk.Index, offset)
	}
	if seq.UnknownDurations() != 1 {
		t.Errorf("expected 1 unknown duration, got %d", seq.UnknownDurations())
	}
}

func TestChunkAtAllUnknownDurations(t *testing.T) {
	seq, _ := NewSequence([]Chunk{
		{Index: 0, Ready: true},
		{Index: 1, Ready: true},
	})
	chunk, offset := seq.ChunkAt(42)
	if chunk.Index != 0 || offset != 0 {
		t.Errorf("empty timeline should map to the first chunk, got chunk %d offset %v", chunk.Index, offset)
	}
}

func TestChunkAtMonotonic(t *testing.T) {
	seq, _ := NewSequence(threeChunks())

	prevTime := math.Inf(-1)
	for ts := 0.0; ts <= 200; ts += 2.5 {
		chunk, offset := seq.ChunkAt(ts)
		prefix, err := seq.PrefixTime(chunk.Index)
		if err != nil {
			t.Fatalf("PrefixTime(%d): %v", chunk.Index, err)
		}
		at := prefix + offset
		if at < prevTime {
			t.Fatalf("ChunkAt not monotonic: t=%v mapped to %v after %v", ts, at, prevTime)
		}
		prevTime = at
	}
}

func TestNextWalksToEnd(t *testing.T) {
	seq, _ := NewSequence(threeChunks())

	c, err := seq.Next(0)
	if err != nil || c.Index != 1 {
		t.Fatalf("Next(0) = %d, %v", c.Index, err)
	}
	c, err = seq.Next(1)
	if err != nil || c.Index != 2 {
		t.Fatalf("Next(1) = %d, %v", c.Index, err)
	}
	if _, err = seq.Next(2); !errors.Is(err, ErrEndOfSequence) {
		t.Errorf("expected ErrEndOfSequence after final chunk, got %v", err)
	}
	if _, err = seq.Next(9); !errors.Is(err, ErrUnknownChunk) {
		t.Errorf("expected ErrUnknownChunk, got %v", err)
	}
}

func TestIndexGaps(t *testing.T) {
	seq, _ := NewSequence([]Chunk{
		{Index: 0, Duration: 10, Ready: true},
		{Index: 4, Duration: 10, Ready: true},
		{Index: 9, Duration: 10, Ready: true},
	})

	c, err := seq.Next(4)
	if err != nil || c.Index != 9 {
		t.Errorf("Next across a gap should find chunk 9, got %d, %v", c.Index, err)
	}
	prefix, _ := seq.PrefixTime(9)
	if prefix != 20 {
		t.Errorf("PrefixTime(9) = %v, want 20", prefix)
	}
}
