// ABOUTME: Sentence-level timing estimates for chunk text
// ABOUTME: Drives the transcript highlight in the player view
package transcript

import "strings"

// wordsPerSecond is a rough spoken-English rate (150 words per minute).
// The synthesizer reports no per-sentence timestamps, so all timing here is
// a heuristic; when the chunk's real duration is known the estimates are
// scaled to fit it.
const wordsPerSecond = 2.5

// Line is one sentence of a chunk with its estimated time window.
type Line struct {
	Text  string
	Start float64
	End   float64
}

// Timeline holds the estimated sentence windows for one chunk.
type Timeline struct {
	lines []Line
}

// Build splits chunk text into sentences and estimates a window for each.
// duration is the chunk's known length in seconds, or 0 to rely on the
// words-per-second estimate alone.
func Build(text string, duration float64) Timeline {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return Timeline{}
	}

	lines := make([]Line, 0, len(sentences))
	at := 0.0
	for _, s := range sentences {
		est := float64(len(strings.Fields(s))) / wordsPerSecond
		lines = append(lines, Line{Text: s, Start: at, End: at + est})
		at += est
	}

	// Scale estimates onto the real duration when we have one.
	if duration > 0 && at > 0 {
		factor := duration / at
		for i := range lines {
			lines[i].Start *= factor
			lines[i].End *= factor
		}
	}
	return Timeline{lines: lines}
}

// Lines returns every sentence window in order.
func (t Timeline) Lines() []Line { return t.lines }

// Len returns the number of sentences.
func (t Timeline) Len() int { return len(t.lines) }

// At returns the sentence under the given chunk offset. Offsets past the
// final window stick to the last sentence.
func (t Timeline) At(offset float64) (Line, bool) {
	if len(t.lines) == 0 {
		return Line{}, false
	}
	for _, l := range t.lines {
		if offset < l.End {
			return l, true
		}
	}
	return t.lines[len(t.lines)-1], true
}

// splitSentences cuts text on sentence punctuation and newlines. It keeps
// the terminator with the sentence and drops empty fragments.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder

	flush := func() {
		s := strings.TrimSpace(b.String())
		b.Reset()
		if s != "" {
			out = append(out, s)
		}
	}

	for _, r := range text {
		switch r {
		case '.', '!', '?':
			b.WriteRune(r)
			flush()
		case '\n':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}
