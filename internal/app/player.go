// ABOUTME: Player application orchestration for one TUI session
// ABOUTME: Wires the studio client, tracker, media element, history, and UI
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/theepicsaxguy/OpenVox/internal/config"
	"github.com/theepicsaxguy/OpenVox/internal/discovery"
	"github.com/theepicsaxguy/OpenVox/internal/history"
	"github.com/theepicsaxguy/OpenVox/internal/library"
	"github.com/theepicsaxguy/OpenVox/internal/logging"
	"github.com/theepicsaxguy/OpenVox/internal/media"
	"github.com/theepicsaxguy/OpenVox/internal/studio"
	"github.com/theepicsaxguy/OpenVox/internal/transcript"
	"github.com/theepicsaxguy/OpenVox/internal/ui"
	"github.com/theepicsaxguy/OpenVox/pkg/playback"
)

const (
	tickInterval    = 500 * time.Millisecond
	minSaveGap      = 5 * time.Second
	historyLimit    = 20
	feedBackoffMin  = 2 * time.Second
	feedBackoffMax  = time.Minute
	refreshDebounce = 2 * time.Second
	waveformBuckets = 40

	volumeSetting = "player_volume"
)

// Config holds session configuration.
type Config struct {
	Settings *config.Config
	Logger   *slog.Logger

	// EpisodeID opens this episode as soon as the session is up, 0 for none.
	EpisodeID int64

	// NoAudio swaps the audio device for a silent sink. Playback timing
	// still advances, so positions keep being tracked and saved.
	NoAudio bool
}

// Session is one run of the player application: a TUI, a studio server
// connection, and a tracker driving the audio element.
type Session struct {
	cfg    *config.Config
	logger *slog.Logger

	startEpisode int64
	noAudio      bool

	client   *studio.Client
	store    *history.Store
	element  *media.Element
	tracker  *playback.Tracker
	controls *ui.Controls
	tuiProg  *tea.Program
	lock     *flock.Flock

	saveLimit *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	// episodeID is read by the tracker's URL hook under its own lock, so it
	// must not require s.mu.
	episodeID atomic.Int64

	loadMu sync.Mutex // serializes episode opens and refreshes

	mu          sync.Mutex
	episode     *studio.Episode
	timelines   map[int]transcript.Timeline
	waveChunk   int
	wave        []float64
	lastRefresh time.Time
}

// New creates a session. Nothing touches the network or the terminal until
// Start.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:          cfg.Settings,
		logger:       logger,
		startEpisode: cfg.EpisodeID,
		noAudio:      cfg.NoAudio,
		saveLimit:    rate.NewLimiter(rate.Every(minSaveGap), 1),
		ctx:          ctx,
		cancel:       cancel,
		waveChunk:    -1,
	}
}

// Start runs the session until the user quits or Stop is called. It owns
// the terminal for its whole lifetime.
func (s *Session) Start() error {
	if err := s.cfg.EnsureDirectories(); err != nil {
		return err
	}

	s.lock = flock.New(s.cfg.LockPath())
	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("instance lock: %w", err)
	}
	if !locked {
		return errors.New("another voxplay instance is already running")
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Debug("instance unlock failed", logging.Error(err))
		}
	}()

	if err := s.connect(); err != nil {
		return err
	}
	s.openHistory()
	s.buildPlayer()

	s.controls = ui.NewControls()
	s.tuiProg = ui.NewProgram(s.controls, float64(s.cfg.Playback.SkipSeconds))

	go s.handleCommands()
	go s.handleTicks()
	go s.handleSaves()
	go s.handleEvents()
	go s.bootstrap()

	_, runErr := s.tuiProg.Run()
	s.shutdown()
	if runErr != nil {
		return fmt.Errorf("terminal interface: %w", runErr)
	}
	return nil
}

// Stop ends the session from outside the TUI, typically on a signal.
func (s *Session) Stop() {
	if s.tuiProg != nil {
		s.tuiProg.Quit()
	}
	s.cancel()
}

// connect resolves the server URL, from config or mDNS, and builds the
// studio client.
func (s *Session) connect() error {
	clientID := uuid.New().String()
	probe := func(ctx context.Context, baseURL string) error {
		c, err := studio.New(studio.Config{
			BaseURL: baseURL,
			Token:   s.cfg.Server.Token,
			Timeout: s.cfg.Timeout(),
		})
		if err != nil {
			return err
		}
		return c.Health(ctx)
	}

	baseURL := s.cfg.Server.URL
	if baseURL == "" {
		found, err := discovery.Find(s.ctx, logging.NewComponentLogger(s.logger, "discovery"), probe)
		if err != nil {
			return fmt.Errorf("discover server: %w", err)
		}
		baseURL = found
	}

	client, err := studio.New(studio.Config{
		BaseURL:  baseURL,
		Token:    s.cfg.Server.Token,
		ClientID: clientID,
		Timeout:  s.cfg.Timeout(),
	})
	if err != nil {
		return err
	}
	s.client = client
	s.logger.Info("studio server selected", "url", client.BaseURL(), "client_id", clientID)
	return nil
}

// openHistory opens the local cache, recreating it on schema mismatch. The
// session runs without history rather than failing.
func (s *Session) openHistory() {
	path := s.cfg.HistoryDBPath()
	store, err := history.Open(path)
	if errors.Is(err, history.ErrSchemaMismatch) {
		s.logger.Warn("history schema changed, recreating cache", "path", path)
		if rmErr := os.Remove(path); rmErr == nil {
			store, err = history.Open(path)
		}
	}
	if err != nil {
		s.logger.Warn("history unavailable", logging.Error(err))
		return
	}
	s.store = store
}

// buildPlayer wires the media element to the tracker. Element callbacks
// feed the tracker; tracker events feed the UI and the save path.
func (s *Session) buildPlayer() {
	mediaLog := logging.NewComponentLogger(s.logger, "media")
	var device media.Device
	if s.noAudio {
		device = media.NewNullDevice()
	} else {
		device = media.NewOtoDevice(mediaLog)
	}

	s.element = media.NewElement(media.ElementConfig{
		Fetch:   s.client.OpenAudio,
		Device:  device,
		Volume:  s.cfg.Playback.Volume,
		Logger:  mediaLog,
		OnReady: func() { s.tracker.MediaReady() },
		OnEnded: func() { s.tracker.ChunkEnded() },
		OnError: func(err error) { s.tracker.MediaFailed(err) },
	})

	s.tracker = playback.NewTracker(playback.Config{
		Surface: s.element,
		ChunkURL: func(c playback.Chunk) string {
			return s.client.ChunkAudioURL(s.episodeID.Load(), c.Index)
		},
	})

	s.tracker.OnStateChanged(func(old, next playback.State) {
		s.logger.Debug("playback state", "from", old.String(), "to", next.String())
		if old == playback.StatePlaying && next == playback.StatePaused {
			go s.saveProgress(true)
		}
		s.pushSnapshot()
	})
	s.tracker.OnComplete(func() {
		s.setStatus("Episode finished")
		go s.saveProgress(true)
	})
	s.tracker.OnResumeFallback(func(f playback.ResumeFallback) {
		s.logger.Info("resume position no longer playable",
			"requested_chunk", f.Requested.ChunkIndex, "fallback_chunk", f.Cursor.ChunkIndex)
		s.setStatus(fmt.Sprintf("Saved position lost; starting from chunk %d", f.Cursor.ChunkIndex+1))
	})
	s.tracker.OnError(func(err error) {
		s.logger.Warn("playback error", logging.Error(err))
		s.setStatus("Playback error: " + err.Error())
	})
}

// bootstrap fills the UI with initial data once the program is running.
func (s *Session) bootstrap() {
	if err := s.client.Health(s.ctx); err != nil {
		s.logger.Warn("server not answering", logging.Error(err))
		s.send(ui.ConnectionMsg{Connected: false, ServerURL: s.client.BaseURL()})
		s.setStatus("Server unreachable: " + err.Error())
	} else {
		s.send(ui.ConnectionMsg{Connected: true, ServerURL: s.client.BaseURL()})
	}

	if settings, err := s.client.Settings(s.ctx); err != nil {
		s.logger.Debug("settings fetch failed", logging.Error(err))
	} else if raw, ok := settings[volumeSetting]; ok {
		if vol, err := strconv.Atoi(raw); err == nil {
			s.element.SetVolume(vol)
		}
	}

	s.refreshLibrary()
	s.refreshHistory()

	if s.startEpisode != 0 {
		s.openEpisode(s.startEpisode)
	} else {
		s.pushSnapshot()
	}
}

// handleCommands consumes user intents from the TUI.
func (s *Session) handleCommands() {
	for {
		select {
		case cmd := <-s.controls.Commands:
			s.handleCommand(cmd)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) handleCommand(cmd ui.Command) {
	switch cmd.Kind {
	case ui.CmdTogglePlay:
		if s.tracker.State() == playback.StatePlaying {
			s.tracker.Pause()
		} else if err := s.tracker.Play(); err != nil {
			s.setStatus("Nothing to play")
		}
	case ui.CmdSeekBy:
		if err := s.tracker.SkipRelative(cmd.Seconds); err != nil && !errors.Is(err, playback.ErrEmptySequence) {
			s.setStatus("Seek failed: " + err.Error())
		}
	case ui.CmdNextChunk:
		if s.tracker.Sequence() == nil {
			return
		}
		if err := s.tracker.AdvanceToNextChunk(); errors.Is(err, playback.ErrEndOfSequence) {
			s.setStatus("End of episode")
		}
	case ui.CmdPrevChunk:
		if err := s.tracker.PreviousChunk(); err != nil && !errors.Is(err, playback.ErrEmptySequence) {
			s.setStatus("Seek failed: " + err.Error())
		}
	case ui.CmdSelectEpisode:
		go s.openEpisode(cmd.EpisodeID)
		return
	case ui.CmdReloadLibrary:
		go s.refreshLibrary()
		return
	case ui.CmdSetVolume:
		s.element.SetVolume(cmd.Volume)
	case ui.CmdToggleMute:
		s.element.SetMuted(!s.element.Muted())
	case ui.CmdQuit:
		// The model quits the program itself; shutdown runs after Run
		// returns.
		return
	}
	s.pushSnapshot()
}

// handleTicks advances the cursor from the media position and repaints the
// player pane while audio runs.
func (s *Session) handleTicks() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tracker.Tick()
			if s.tracker.State() == playback.StatePlaying {
				s.pushSnapshot()
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// handleSaves persists the position on the configured interval while
// playing. Pause, completion, episode switches, and quit save on their own.
func (s *Session) handleSaves() {
	ticker := time.NewTicker(s.cfg.SaveInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.tracker.State() == playback.StatePlaying {
				s.saveProgress(false)
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// handleEvents keeps a feed open to the server and reloads the chunk list
// when generation makes progress. Redials with doubling backoff.
func (s *Session) handleEvents() {
	backoff := feedBackoffMin
	for {
		feed, err := s.client.DialEvents(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Debug("event feed dial failed", logging.Error(err))
			s.send(ui.ConnectionMsg{Connected: false, ServerURL: s.client.BaseURL()})
			select {
			case <-time.After(backoff):
			case <-s.ctx.Done():
				return
			}
			backoff = min(backoff*2, feedBackoffMax)
			continue
		}
		backoff = feedBackoffMin
		s.send(ui.ConnectionMsg{Connected: true, ServerURL: s.client.BaseURL()})

		s.consumeFeed(feed)
		if s.ctx.Err() != nil {
			return
		}
		if err := feed.Err(); err != nil {
			s.logger.Debug("event feed dropped", logging.Error(err))
		}
	}
}

func (s *Session) consumeFeed(feed *studio.EventFeed) {
	defer feed.Close()
	for {
		select {
		case ev, ok := <-feed.Events():
			if !ok {
				return
			}
			s.handleEvent(ev)
		case <-s.ctx.Done():
			return
		}
	}
}

// handleEvent reacts to one server notification. Chunk progress on the open
// episode refreshes its sequence; episode status changes refresh the
// library.
func (s *Session) handleEvent(ev studio.Event) {
	switch ev.Type {
	case studio.EventChunk:
		if ev.EpisodeID != s.episodeID.Load() {
			return
		}
		if ev.Status != studio.ChunkReady && ev.Status != studio.ChunkFailed {
			return
		}
		// Chunk events storm while an episode generates; batch them. A
		// completed session skips the debounce so fresh audio continues
		// playback promptly.
		s.mu.Lock()
		recent := time.Since(s.lastRefresh) < refreshDebounce
		if !recent {
			s.lastRefresh = time.Now()
		}
		s.mu.Unlock()
		if recent && s.tracker.State() != playback.StateComplete {
			return
		}
		s.refreshEpisode()
	case studio.EventEpisode:
		s.refreshLibrary()
		if ev.EpisodeID == s.episodeID.Load() {
			s.refreshEpisode()
		}
	}
}

// openEpisode switches the player to an episode, resuming at the server's
// saved position.
func (s *Session) openEpisode(id int64) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if prev := s.episodeID.Load(); prev != 0 && prev != id {
		s.saveProgress(true)
	}

	s.setStatus("Opening episode...")
	ep, err := s.client.Episode(s.ctx, id)
	if err != nil {
		s.logger.Warn("episode fetch failed", "episode", id, logging.Error(err))
		s.setStatus("Episode fetch failed: " + err.Error())
		return
	}

	s.installMeta(ep)

	if err := s.tracker.LoadSequence(studio.PlaybackChunks(ep.Chunks)); err != nil {
		if errors.Is(err, playback.ErrEmptySequence) {
			s.setStatus("No audio is ready for this episode yet")
		} else {
			s.setStatus("Episode not playable: " + err.Error())
		}
		s.pushSnapshot()
		return
	}

	resume := ep.Resume
	if resume != nil && resume.Percent >= 100 {
		// Finished before; open from the top rather than the last second.
		resume = nil
	}
	if resume != nil {
		s.tracker.ResumeAt(resume.ChunkIndex, resume.PositionSecs)
		if !s.cfg.Playback.Autoplay {
			s.tracker.Pause()
		}
	} else if s.cfg.Playback.Autoplay {
		s.tracker.Play()
	}

	s.setStatus("")
	s.pushSnapshot()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout())
	s.touchHistory(ctx, s.tracker.ResumePoint())
	cancel()
	s.refreshHistory()
}

// refreshEpisode refetches the open episode and swaps the refreshed chunk
// list in without interrupting playback. When the listener had run out of
// ready chunks, fresh audio past the completed cursor continues playback.
func (s *Session) refreshEpisode() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	id := s.episodeID.Load()
	if id == 0 {
		return
	}
	ep, err := s.client.Episode(s.ctx, id)
	if err != nil {
		s.logger.Warn("episode refresh failed", "episode", id, logging.Error(err))
		return
	}

	completedAt := playback.Cursor{ChunkIndex: -1}
	if s.tracker.State() == playback.StateComplete {
		completedAt = s.tracker.Cursor()
	}

	s.installMeta(ep)

	if err := s.tracker.ReplaceSequence(studio.PlaybackChunks(ep.Chunks)); err != nil {
		if errors.Is(err, playback.ErrEmptySequence) {
			s.logger.Warn("refreshed episode has no playable chunks", "episode", id)
		}
		s.pushSnapshot()
		return
	}

	if completedAt.ChunkIndex >= 0 {
		if seq := s.tracker.Sequence(); seq != nil {
			if next, err := seq.Next(completedAt.ChunkIndex); err == nil {
				s.setStatus("More audio is ready; continuing")
				s.tracker.ResumeAt(next.Index, 0)
			}
		}
	}
	s.pushSnapshot()
}

// installMeta records the episode and rebuilds the transcript timelines.
func (s *Session) installMeta(ep *studio.Episode) {
	timelines := make(map[int]transcript.Timeline, len(ep.Chunks))
	for _, c := range ep.Chunks {
		if c.Playable() {
			timelines[c.Index] = transcript.Build(c.Text, c.Duration)
		}
	}
	s.mu.Lock()
	s.episode = ep
	s.timelines = timelines
	s.waveChunk = -1
	s.wave = nil
	s.mu.Unlock()
	s.episodeID.Store(ep.ID)
}

func (s *Session) refreshLibrary() {
	tree, err := s.client.Library(s.ctx)
	if err != nil {
		s.logger.Warn("library fetch failed", logging.Error(err))
		s.setStatus("Library fetch failed: " + err.Error())
		return
	}
	s.send(ui.LibraryMsg{Tree: tree})

	// Listening percents live on the episode detail records; fetch them
	// after the tree has painted.
	details := library.PrefetchDetails(s.ctx, s.client, library.AllEpisodes(tree))
	if progress := library.ProgressByEpisode(details); len(progress) > 0 {
		s.send(ui.LibraryMsg{Tree: tree, Progress: progress})
	}
}

func (s *Session) refreshHistory() {
	if s.store == nil {
		return
	}
	entries, err := s.store.Recent(s.ctx, historyLimit)
	if err != nil {
		s.logger.Warn("history read failed", logging.Error(err))
		return
	}
	s.send(ui.HistoryMsg{Entries: entries})
}

// saveProgress pushes the current position to the server and the local
// history. Best effort on both; a dead server must never break playback.
func (s *Session) saveProgress(forced bool) {
	id := s.episodeID.Load()
	if id == 0 || s.tracker.State() == playback.StateIdle {
		return
	}
	if !forced && !s.saveLimit.Allow() {
		return
	}

	rp := s.tracker.ResumePoint()
	if s.tracker.State() == playback.StateComplete {
		rp.Percent = 100
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout())
	defer cancel()

	err := s.client.SavePlayback(ctx, id, studio.ResumeState{
		ChunkIndex:   rp.ChunkIndex,
		PositionSecs: rp.Offset,
		Percent:      rp.Percent,
	})
	if err != nil {
		s.logger.Debug("position save failed", "episode", id, logging.Error(err))
	}

	s.touchHistory(ctx, rp)
}

func (s *Session) touchHistory(ctx context.Context, rp playback.ResumePoint) {
	if s.store == nil {
		return
	}
	s.mu.Lock()
	ep := s.episode
	s.mu.Unlock()
	if ep == nil {
		return
	}
	entry := history.Entry{
		ServerURL:  s.client.BaseURL(),
		EpisodeID:  ep.ID,
		Title:      ep.Title,
		ChunkIndex: rp.ChunkIndex,
		Position:   rp.Offset,
		Percent:    rp.Percent,
		Duration:   s.tracker.Progress().Total,
	}
	if err := s.store.Touch(ctx, entry); err != nil {
		s.logger.Debug("history write failed", logging.Error(err))
	}
}

// pushSnapshot repaints the player pane from current tracker and element
// state.
func (s *Session) pushSnapshot() {
	s.send(s.snapshot())
}

func (s *Session) snapshot() ui.PlayerMsg {
	s.mu.Lock()
	ep := s.episode
	timelines := s.timelines
	s.mu.Unlock()

	msg := ui.PlayerMsg{Volume: s.element.Volume(), Muted: s.element.Muted()}
	if ep == nil {
		return msg
	}
	msg.EpisodeID = ep.ID
	msg.Title = ep.Title
	msg.State = s.tracker.State()

	prog := s.tracker.Progress()
	msg.Elapsed = prog.Elapsed
	msg.Total = prog.Total
	msg.Percent = prog.Percent
	msg.Unknown = prog.Unknown

	cursor := s.tracker.Cursor()
	if seq := s.tracker.Sequence(); seq != nil {
		msg.ChunkCount = seq.Len()
		for i, c := range seq.Chunks() {
			if c.Index == cursor.ChunkIndex {
				msg.ChunkOrdinal = i + 1
				break
			}
		}
	}

	if tl, ok := timelines[cursor.ChunkIndex]; ok {
		if line, ok := tl.At(cursor.Offset); ok {
			msg.Line = line.Text
		}
	}

	msg.Waveform = s.waveform(cursor.ChunkIndex)
	return msg
}

// waveform returns the peaks strip for the chunk, computed once per loaded
// chunk. While a load is in flight the element has no track and the strip
// is empty, which also keeps stale peaks from being cached under the new
// chunk's index.
func (s *Session) waveform(chunkIndex int) []float64 {
	s.mu.Lock()
	if s.waveChunk == chunkIndex && s.wave != nil {
		cached := s.wave
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	peaks := s.element.Waveform(waveformBuckets)
	if peaks == nil {
		return nil
	}
	s.mu.Lock()
	s.waveChunk = chunkIndex
	s.wave = peaks
	s.mu.Unlock()
	return peaks
}

// shutdown runs after the TUI exits: final saves, then teardown.
func (s *Session) shutdown() {
	s.saveProgress(true)

	if vol := s.element.Volume(); vol != s.cfg.Playback.Volume {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout())
		if err := s.client.SaveSetting(ctx, volumeSetting, strconv.Itoa(vol)); err != nil {
			s.logger.Debug("volume save failed", logging.Error(err))
		}
		cancel()
	}

	s.cancel()
	if err := s.element.Close(); err != nil {
		s.logger.Debug("element close failed", logging.Error(err))
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Debug("history close failed", logging.Error(err))
		}
	}
	s.logger.Info("session ended")
}

func (s *Session) setStatus(text string) {
	s.send(ui.StatusMsg{Text: text})
}

// send forwards a message to the TUI. Safe from any goroutine; bubbletea
// queues it.
func (s *Session) send(msg tea.Msg) {
	if s.tuiProg != nil {
		s.tuiProg.Send(msg)
	}
}
