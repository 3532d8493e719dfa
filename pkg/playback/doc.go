// ABOUTME: Chunked playback position model
// ABOUTME: Sequence timeline math plus a cursor tracker and state machine
// Package playback models listening position across an episode whose audio
// is generated as an ordered list of chunks.
//
// A Sequence holds the playable chunks and answers timeline questions:
// total duration, time before a chunk, and which chunk covers a given
// episode time. A Tracker owns the single mutable cursor (current chunk,
// offset within it), the session state machine, and the media side effects
// of moving between chunks.
//
// The package performs no audio I/O itself. A Tracker drives any
// MediaSurface implementation and stays fully usable without one:
//
//	tracker := playback.NewTracker(playback.Config{
//	    Surface:  element,
//	    ChunkURL: func(c playback.Chunk) string { return client.ChunkAudioURL(episodeID, c.Index) },
//	})
//	tracker.LoadSequence(chunks)
//	tracker.ResumeAt(saved.ChunkIndex, saved.Offset)
//	tracker.SeekEpisodeTime(120)
//
// Durations may be unknown (zero) while the server is still generating
// audio; timeline math then undercounts and corrects itself as chunk lists
// are reloaded.
package playback
