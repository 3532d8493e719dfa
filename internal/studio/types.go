// ABOUTME: Wire types for the studio backend API
// ABOUTME: Mirrors the server's folder, episode, chunk, and playback records
package studio

import "github.com/theepicsaxguy/OpenVox/pkg/playback"

// Chunk statuses as reported by the server. Audio exists only for ready
// chunks.
const (
	ChunkPending    = "pending"
	ChunkGenerating = "generating"
	ChunkReady      = "ready"
	ChunkFailed     = "failed"
)

// Episode statuses.
const (
	EpisodeQueued     = "queued"
	EpisodeGenerating = "generating"
	EpisodeReady      = "ready"
	EpisodeFailed     = "failed"
)

// Chunk is one generated segment of an episode.
type Chunk struct {
	Index    int     `json:"chunk_index"`
	Text     string  `json:"text"`
	Duration float64 `json:"duration_secs"`
	Status   string  `json:"status"`
	Error    string  `json:"error_message,omitempty"`
}

// Playable reports whether the chunk's audio can be fetched.
func (c Chunk) Playable() bool { return c.Status == ChunkReady }

// ResumeState is the server-persisted listening position for an episode.
type ResumeState struct {
	ChunkIndex   int     `json:"current_chunk_index"`
	PositionSecs float64 `json:"position_secs"`
	Percent      float64 `json:"percent_listened"`
	LastPlayedAt string  `json:"last_played_at,omitempty"`
}

// Episode is a generated audio rendition of a source document.
type Episode struct {
	ID            int64        `json:"id"`
	SourceID      int64        `json:"source_id"`
	FolderID      *int64       `json:"folder_id,omitempty"`
	Title         string       `json:"title"`
	Status        string       `json:"status"`
	VoiceID       string       `json:"voice_id"`
	OutputFormat  string       `json:"output_format"`
	TotalDuration float64      `json:"total_duration_secs"`
	CreatedAt     string       `json:"created_at,omitempty"`
	Chunks        []Chunk      `json:"chunks,omitempty"`
	Resume        *ResumeState `json:"playback,omitempty"`
}

// Source is an imported text document episodes are generated from.
type Source struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Folder is a node in the library tree.
type Folder struct {
	ID       int64     `json:"id"`
	ParentID *int64    `json:"parent_id,omitempty"`
	Name     string    `json:"name"`
	Folders  []*Folder `json:"folders,omitempty"`
	Episodes []Episode `json:"episodes,omitempty"`
}

// LibraryTree is the full library listing: nested folders plus episodes
// that live outside any folder.
type LibraryTree struct {
	Folders  []*Folder `json:"folders"`
	Episodes []Episode `json:"episodes"`
}

// CreateEpisodeRequest asks the server to generate an episode from a
// source. Chunking and text normalization happen server-side; the options
// here mirror the server's generation settings.
type CreateEpisodeRequest struct {
	SourceID       int64  `json:"source_id"`
	Title          string `json:"title,omitempty"`
	VoiceID        string `json:"voice_id,omitempty"`
	OutputFormat   string `json:"output_format,omitempty"`
	ChunkStrategy  string `json:"chunk_strategy,omitempty"`
	ChunkMaxLength int    `json:"chunk_max_length,omitempty"`
	CodeBlockRule  string `json:"code_block_rule,omitempty"`
}

// PlaybackChunks converts server chunk records into the playback model's
// chunks. Only ready chunks become playable.
func PlaybackChunks(chunks []Chunk) []playback.Chunk {
	out := make([]playback.Chunk, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, playback.Chunk{
			Index:    c.Index,
			Duration: c.Duration,
			Ready:    c.Playable(),
			Text:     c.Text,
		})
	}
	return out
}
