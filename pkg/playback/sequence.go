// ABOUTME: Ordered chunk sequence with prefix-sum timeline math
// ABOUTME: Maps episode time to (chunk, offset) and back
package playback

import (
	"fmt"
	"sort"
)

// Chunk is one generated audio segment of an episode. Index is the
// server-assigned position in the episode; gaps are allowed. Duration is in
// seconds, 0 while the server has not reported one yet. Ready marks chunks
// whose audio exists and can be fetched.
type Chunk struct {
	Index    int
	Duration float64
	Ready    bool
	Text     string
}

// Sequence is the playable subset of an episode's chunks in ascending index
// order. It is immutable; a changed chunk list is loaded as a new Sequence.
type Sequence struct {
	chunks []Chunk
	prefix []float64 // prefix[i] = seconds before chunks[i]; prefix[len] = total
	pos    map[int]int
}

// NewSequence builds a Sequence from a raw chunk list. Chunks that are not
// ready are dropped; the rest are sorted by index. Returns ErrEmptySequence
// when nothing playable remains.
func NewSequence(raw []Chunk) (*Sequence, error) {
	chunks := make([]Chunk, 0, len(raw))
	seen := make(map[int]bool, len(raw))
	for _, c := range raw {
		if !c.Ready || seen[c.Index] {
			continue
		}
		seen[c.Index] = true
		chunks = append(chunks, c)
	}
	if len(chunks) == 0 {
		return nil, ErrEmptySequence
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })

	prefix := make([]float64, len(chunks)+1)
	pos := make(map[int]int, len(chunks))
	for i, c := range chunks {
		prefix[i+1] = prefix[i] + c.Duration
		pos[c.Index] = i
	}

	return &Sequence{chunks: chunks, prefix: prefix, pos: pos}, nil
}

// Len returns the number of playable chunks.
func (s *Sequence) Len() int { return len(s.chunks) }

// Chunks returns the playable chunks in order. The slice is shared; callers
// must not modify it.
func (s *Sequence) Chunks() []Chunk { return s.chunks }

// First returns the first playable chunk.
func (s *Sequence) First() Chunk { return s.chunks[0] }

// Last returns the final playable chunk.
func (s *Sequence) Last() Chunk { return s.chunks[len(s.chunks)-1] }

// Contains reports whether the given chunk index is playable.
func (s *Sequence) Contains(index int) bool {
	_, ok := s.pos[index]
	return ok
}

// Chunk returns the chunk with the given index.
func (s *Sequence) Chunk(index int) (Chunk, error) {
	i, ok := s.pos[index]
	if !ok {
		return Chunk{}, fmt.Errorf("chunk %d: %w", index, ErrUnknownChunk)
	}
	return s.chunks[i], nil
}

// Next returns the chunk after the given index, or ErrEndOfSequence when the
// index is the final chunk.
func (s *Sequence) Next(index int) (Chunk, error) {
	i, ok := s.pos[index]
	if !ok {
		return Chunk{}, fmt.Errorf("chunk %d: %w", index, ErrUnknownChunk)
	}
	if i == len(s.chunks)-1 {
		return Chunk{}, ErrEndOfSequence
	}
	return s.chunks[i+1], nil
}

// PrefixTime returns the summed duration of all chunks before the given
// index. Unknown durations contribute zero, so the result is a lower bound
// until every chunk has reported.
func (s *Sequence) PrefixTime(index int) (float64, error) {
	i, ok := s.pos[index]
	if !ok {
		return 0, fmt.Errorf("chunk %d: %w", index, ErrUnknownChunk)
	}
	return s.prefix[i], nil
}

// TotalDuration returns the summed duration of every playable chunk.
func (s *Sequence) TotalDuration() float64 { return s.prefix[len(s.chunks)] }

// UnknownDurations returns how many playable chunks have not reported a
// duration. Timeline math undercounts by their eventual length until then.
func (s *Sequence) UnknownDurations() int {
	n := 0
	for _, c := range s.chunks {
		if c.Duration <= 0 {
			n++
		}
	}
	return n
}

// ChunkAt maps an episode time to the chunk playing at that time and the
// offset within it. A time on a chunk boundary belongs to the later chunk,
// which also keeps zero-duration chunks from ever being selected. Times
// past the end clamp into the final chunk; negative times clamp to zero.
func (s *Sequence) ChunkAt(t float64) (Chunk, float64) {
	if t < 0 {
		t = 0
	}
	n := len(s.chunks)
	if s.prefix[n] == 0 {
		// No durations known yet; the timeline has no width to search.
		return s.chunks[0], 0
	}
	if t >= s.prefix[n] {
		last := s.chunks[n-1]
		off := t - s.prefix[n-1]
		if off > last.Duration {
			off = last.Duration
		}
		return last, off
	}
	i := sort.Search(n, func(i int) bool { return t < s.prefix[i+1] })
	return s.chunks[i], t - s.prefix[i]
}
