// ABOUTME: Sentinel errors for the playback model
// ABOUTME: Callers branch on these with errors.Is
package playback

import "errors"

var (
	// ErrEmptySequence is returned when an operation needs a sequence and
	// none is loaded, or when a load produced zero playable chunks.
	ErrEmptySequence = errors.New("no playable chunks")

	// ErrUnknownChunk is returned when a chunk index is not part of the
	// loaded sequence. Wrapped errors carry the offending index.
	ErrUnknownChunk = errors.New("unknown chunk")

	// ErrEndOfSequence is returned by advance operations on the final
	// chunk. It marks the expected end of an episode, not a failure.
	ErrEndOfSequence = errors.New("end of sequence")
)
