// ABOUTME: Tests for session orchestration
// ABOUTME: Runs open, refresh, and save flows against a fake studio server
package app

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/theepicsaxguy/OpenVox/internal/config"
	"github.com/theepicsaxguy/OpenVox/internal/studio"
	"github.com/theepicsaxguy/OpenVox/internal/ui"
	"github.com/theepicsaxguy/OpenVox/pkg/playback"
)

// fakeStudio is a minimal studio backend: one episode, canned audio, and a
// record of playback saves.
type fakeStudio struct {
	mu      sync.Mutex
	episode studio.Episode
	saves   []studio.ResumeState
}

func (f *fakeStudio) setEpisode(ep studio.Episode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.episode = ep
}

func (f *fakeStudio) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeStudio) lastSave(t *testing.T) studio.ResumeState {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		t.Fatal("expected at least one playback save")
	}
	return f.saves[len(f.saves)-1]
}

func (f *fakeStudio) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/studio/episodes/7", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		ep := f.episode
		f.mu.Unlock()
		json.NewEncoder(w).Encode(ep)
	})
	mux.HandleFunc("/studio/episodes/7/playback", func(w http.ResponseWriter, r *http.Request) {
		var state studio.ResumeState
		if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
			t.Errorf("bad save payload: %v", err)
		}
		f.mu.Lock()
		f.saves = append(f.saves, state)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	audio := testWAV(8000, 1)
	mux.HandleFunc("/studio/episodes/7/chunks/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(audio)
	})
	return mux
}

// testWAV builds a one-second 16-bit mono RIFF file.
func testWAV(sampleRate, channels int) []byte {
	samples := sampleRate
	dataLen := samples * channels * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for i := 0; i < samples*channels; i++ {
		binary.Write(&buf, binary.LittleEndian, int16(i%256))
	}
	return buf.Bytes()
}

func readyChunk(index int, duration float64) studio.Chunk {
	return studio.Chunk{Index: index, Duration: duration, Status: studio.ChunkReady, Text: "Sentence one. Sentence two."}
}

// newTestSession builds a session wired to the fake server, without a TUI.
func newTestSession(t *testing.T, f *fakeStudio, autoplay bool) *Session {
	t.Helper()

	ts := httptest.NewServer(f.handler(t))
	t.Cleanup(ts.Close)

	cfg := config.Default()
	cfg.Server.URL = ts.URL
	cfg.Server.Discover = false
	cfg.Playback.Autoplay = autoplay
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()

	s := New(Config{Settings: &cfg, NoAudio: true})
	if err := s.connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	s.buildPlayer()
	t.Cleanup(func() {
		s.cancel()
		s.element.Close()
	})
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNewSessionDefaults(t *testing.T) {
	cfg := config.Default()
	s := New(Config{Settings: &cfg})

	if s.logger == nil {
		t.Error("expected a default logger")
	}
	if s.ctx == nil || s.cancel == nil {
		t.Fatal("expected context to be initialized")
	}
	if s.saveLimit == nil {
		t.Error("expected save limiter to be initialized")
	}

	s.Stop()
	select {
	case <-s.ctx.Done():
	default:
		t.Error("context should be cancelled after Stop")
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	cfg := config.Default()
	s1 := New(Config{Settings: &cfg})
	s2 := New(Config{Settings: &cfg})

	s1.Stop()
	select {
	case <-s2.ctx.Done():
		t.Error("stopping one session must not stop another")
	default:
	}
	s2.Stop()
}

func TestOpenEpisodeResumesPaused(t *testing.T) {
	f := &fakeStudio{}
	f.setEpisode(studio.Episode{
		ID:     7,
		Title:  "Chapter One",
		Status: studio.EpisodeReady,
		Chunks: []studio.Chunk{readyChunk(0, 1), readyChunk(1, 1)},
		Resume: &studio.ResumeState{ChunkIndex: 1, PositionSecs: 0.5, Percent: 75},
	})
	s := newTestSession(t, f, false)

	s.openEpisode(7)

	waitFor(t, "paused at resume point", func() bool {
		return s.tracker.State() == playback.StatePaused
	})
	if cur := s.tracker.Cursor(); cur.ChunkIndex != 1 || cur.Offset != 0.5 {
		t.Errorf("expected cursor chunk 1 offset 0.5, got %+v", cur)
	}
	if got := s.episodeID.Load(); got != 7 {
		t.Errorf("expected open episode 7, got %d", got)
	}
}

func TestOpenEpisodeFinishedBeforeStartsOver(t *testing.T) {
	f := &fakeStudio{}
	f.setEpisode(studio.Episode{
		ID:     7,
		Title:  "Chapter One",
		Status: studio.EpisodeReady,
		Chunks: []studio.Chunk{readyChunk(0, 1), readyChunk(1, 1)},
		Resume: &studio.ResumeState{ChunkIndex: 1, PositionSecs: 1, Percent: 100},
	})
	s := newTestSession(t, f, false)

	s.openEpisode(7)

	// A 100% resume point is discarded; without autoplay the tracker just
	// sits idle on the first chunk.
	if s.tracker.State() != playback.StateIdle {
		t.Errorf("expected idle, got %v", s.tracker.State())
	}
	if cur := s.tracker.Cursor(); cur.ChunkIndex != 0 {
		t.Errorf("expected cursor on chunk 0, got %+v", cur)
	}
}

func TestOpenEpisodeWithoutReadyChunks(t *testing.T) {
	f := &fakeStudio{}
	f.setEpisode(studio.Episode{
		ID:     7,
		Title:  "Chapter One",
		Status: studio.EpisodeGenerating,
		Chunks: []studio.Chunk{{Index: 0, Status: studio.ChunkPending}},
	})
	s := newTestSession(t, f, true)

	s.openEpisode(7)

	if s.tracker.Sequence() != nil {
		t.Error("expected no sequence for an episode with no ready chunks")
	}
	if s.tracker.State() != playback.StateIdle {
		t.Errorf("expected idle, got %v", s.tracker.State())
	}
}

func TestSaveProgressReportsPosition(t *testing.T) {
	f := &fakeStudio{}
	f.setEpisode(studio.Episode{
		ID:     7,
		Title:  "Chapter One",
		Status: studio.EpisodeReady,
		Chunks: []studio.Chunk{readyChunk(0, 1), readyChunk(1, 1)},
		Resume: &studio.ResumeState{ChunkIndex: 1, PositionSecs: 0.5},
	})
	s := newTestSession(t, f, false)

	s.openEpisode(7)
	waitFor(t, "paused at resume point", func() bool {
		return s.tracker.State() == playback.StatePaused
	})

	s.saveProgress(true)

	save := f.lastSave(t)
	if save.ChunkIndex != 1 || save.PositionSecs != 0.5 {
		t.Errorf("expected save at chunk 1 offset 0.5, got %+v", save)
	}
	if save.Percent != 75 {
		t.Errorf("expected 75%% saved, got %v", save.Percent)
	}
}

func TestSaveProgressSkipsIdle(t *testing.T) {
	f := &fakeStudio{}
	s := newTestSession(t, f, false)

	s.saveProgress(true)
	if n := f.savedCount(); n != 0 {
		t.Errorf("expected no saves with nothing open, got %d", n)
	}
}

func TestRefreshContinuesAfterComplete(t *testing.T) {
	f := &fakeStudio{}
	f.setEpisode(studio.Episode{
		ID:     7,
		Title:  "Chapter One",
		Status: studio.EpisodeGenerating,
		Chunks: []studio.Chunk{readyChunk(0, 1)},
	})
	s := newTestSession(t, f, true)

	s.openEpisode(7)
	waitFor(t, "autoplay start", func() bool {
		return s.tracker.State() == playback.StatePlaying
	})

	// The listener runs out of ready audio.
	s.tracker.ChunkEnded()
	if s.tracker.State() != playback.StateComplete {
		t.Fatalf("expected complete, got %v", s.tracker.State())
	}

	// Generation finishes another chunk; the refresh must pick playback
	// back up at the fresh chunk.
	f.setEpisode(studio.Episode{
		ID:     7,
		Title:  "Chapter One",
		Status: studio.EpisodeGenerating,
		Chunks: []studio.Chunk{readyChunk(0, 1), readyChunk(1, 1)},
	})
	s.refreshEpisode()

	waitFor(t, "playback to continue", func() bool {
		return s.tracker.State() == playback.StatePlaying
	})
	if cur := s.tracker.Cursor(); cur.ChunkIndex != 1 {
		t.Errorf("expected playback on chunk 1, got %+v", cur)
	}
}

func TestRefreshKeepsPausedPosition(t *testing.T) {
	f := &fakeStudio{}
	f.setEpisode(studio.Episode{
		ID:     7,
		Title:  "Chapter One",
		Status: studio.EpisodeGenerating,
		Chunks: []studio.Chunk{readyChunk(0, 1), readyChunk(1, 1)},
		Resume: &studio.ResumeState{ChunkIndex: 1, PositionSecs: 0.25},
	})
	s := newTestSession(t, f, false)

	s.openEpisode(7)
	waitFor(t, "paused at resume point", func() bool {
		return s.tracker.State() == playback.StatePaused
	})

	f.setEpisode(studio.Episode{
		ID:     7,
		Title:  "Chapter One",
		Status: studio.EpisodeGenerating,
		Chunks: []studio.Chunk{readyChunk(0, 1), readyChunk(1, 1), readyChunk(2, 1)},
	})
	s.refreshEpisode()

	if cur := s.tracker.Cursor(); cur.ChunkIndex != 1 || cur.Offset != 0.25 {
		t.Errorf("expected position untouched by refresh, got %+v", cur)
	}
	if s.tracker.State() != playback.StatePaused {
		t.Errorf("expected still paused, got %v", s.tracker.State())
	}
	if total := s.tracker.Progress().Total; total != 3 {
		t.Errorf("expected total 3s after refresh, got %v", total)
	}
}

func TestHandleCommandVolumeAndMute(t *testing.T) {
	f := &fakeStudio{}
	s := newTestSession(t, f, false)

	s.handleCommand(ui.Command{Kind: ui.CmdSetVolume, Volume: 30})
	if got := s.element.Volume(); got != 30 {
		t.Errorf("expected volume 30, got %d", got)
	}

	s.handleCommand(ui.Command{Kind: ui.CmdToggleMute})
	if !s.element.Muted() {
		t.Error("expected muted after toggle")
	}
	s.handleCommand(ui.Command{Kind: ui.CmdToggleMute})
	if s.element.Muted() {
		t.Error("expected unmuted after second toggle")
	}
}

func TestSnapshotCarriesTranscriptLine(t *testing.T) {
	f := &fakeStudio{}
	f.setEpisode(studio.Episode{
		ID:     7,
		Title:  "Chapter One",
		Status: studio.EpisodeReady,
		Chunks: []studio.Chunk{readyChunk(0, 1), readyChunk(1, 1)},
	})
	s := newTestSession(t, f, false)

	s.openEpisode(7)

	msg := s.snapshot()
	if msg.EpisodeID != 7 || msg.Title != "Chapter One" {
		t.Errorf("expected episode metadata in snapshot, got %+v", msg)
	}
	if msg.ChunkOrdinal != 1 || msg.ChunkCount != 2 {
		t.Errorf("expected chunk 1/2, got %d/%d", msg.ChunkOrdinal, msg.ChunkCount)
	}
	if msg.Line != "Sentence one." {
		t.Errorf("expected first transcript sentence, got %q", msg.Line)
	}
}
