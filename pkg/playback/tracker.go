// ABOUTME: Position tracker owning the playback cursor and state machine
// ABOUTME: Coordinates seeks, chunk transitions, and media side effects
package playback

import "sync"

// MediaSurface is the audio element the tracker drives. Load begins fetching
// a new source and must not block on the network; readiness and natural end
// come back through Tracker.MediaReady and Tracker.ChunkEnded. Position and
// Duration report seconds within the loaded source and must be cheap reads
// that never call back into the tracker.
type MediaSurface interface {
	Load(url string) error
	Play() error
	Pause()
	Seek(seconds float64) error
	Position() float64
	Duration() float64
}

// Cursor is the single authoritative playback position: which chunk is
// current and how far into it playback sits.
type Cursor struct {
	ChunkIndex int
	Offset     float64
}

// Progress is the derived whole-episode view of the cursor.
type Progress struct {
	Elapsed float64
	Total   float64
	Percent float64
	// Unknown counts chunks with unreported durations; while nonzero the
	// other fields undercount.
	Unknown int
}

// ResumePoint is the persistence payload for a listening position.
type ResumePoint struct {
	ChunkIndex int
	Offset     float64
	Percent    float64
}

// ResumeFallback reports a resume request that named a chunk no longer in
// the sequence. Playback restarted from the chunk in Cursor instead.
type ResumeFallback struct {
	Requested Cursor
	Cursor    Cursor
}

// Config configures a Tracker. Surface and ChunkURL together enable media
// side effects; leave both nil for a pure position model (tests, dry runs).
type Config struct {
	Surface  MediaSurface
	ChunkURL func(Chunk) string
}

// Tracker owns the playback cursor for one episode session. All operations
// are safe for concurrent use and atomic with respect to each other; event
// callbacks run after the triggering operation has released the lock.
type Tracker struct {
	mu        sync.Mutex
	seq       *Sequence
	cursor    Cursor
	state     State
	autoplay  bool // play as soon as the loading chunk is ready
	mediaLost bool // last load failed, the surface holds no media

	surface  MediaSurface
	chunkURL func(Chunk) string

	onSequenceLoaded []func(*Sequence)
	onCursorChanged  []func(Cursor)
	onStateChanged   []func(old, new State)
	onResumeFallback []func(ResumeFallback)
	onComplete       []func()
	onError          []func(error)

	pending []func()
}

// NewTracker creates a tracker with no sequence loaded.
func NewTracker(cfg Config) *Tracker {
	t := &Tracker{
		state:    StateIdle,
		chunkURL: cfg.ChunkURL,
	}
	if cfg.Surface != nil && cfg.ChunkURL != nil {
		t.surface = cfg.Surface
	}
	return t
}

// OnSequenceLoaded registers a callback for sequence replacement.
func (t *Tracker) OnSequenceLoaded(cb func(*Sequence)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSequenceLoaded = append(t.onSequenceLoaded, cb)
}

// OnCursorChanged registers a callback for cursor movement.
func (t *Tracker) OnCursorChanged(cb func(Cursor)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCursorChanged = append(t.onCursorChanged, cb)
}

// OnStateChanged registers a callback for state transitions.
func (t *Tracker) OnStateChanged(cb func(old, new State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStateChanged = append(t.onStateChanged, cb)
}

// OnResumeFallback registers a callback for resume requests that fell back
// to the start of the sequence.
func (t *Tracker) OnResumeFallback(cb func(ResumeFallback)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onResumeFallback = append(t.onResumeFallback, cb)
}

// OnComplete registers a callback for the end of the final chunk.
func (t *Tracker) OnComplete(cb func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onComplete = append(t.onComplete, cb)
}

// OnError registers a callback for non-fatal media errors, such as an audio
// output that refuses to start.
func (t *Tracker) OnError(cb func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onError = append(t.onError, cb)
}

// LoadSequence replaces the chunk list wholesale and resets the cursor to
// the first playable chunk and the state to Idle. An empty playable set
// returns ErrEmptySequence and leaves the tracker idle with no sequence.
func (t *Tracker) LoadSequence(chunks []Chunk) error {
	t.mu.Lock()
	seq, err := NewSequence(chunks)
	if err != nil {
		t.seq = nil
		t.cursor = Cursor{}
		t.setStateLocked(StateIdle)
		t.finish()
		return err
	}
	t.seq = seq
	t.cursor = Cursor{ChunkIndex: seq.First().Index}
	t.setStateLocked(StateIdle)
	for _, cb := range t.onSequenceLoaded {
		cb := cb
		t.pending = append(t.pending, func() { cb(seq) })
	}
	t.emitCursorLocked()
	t.finish()
	return nil
}

// ReplaceSequence swaps in a refreshed chunk list without restarting the
// session. The server pushes chunk lists while an episode is still
// generating; unlike LoadSequence this keeps the cursor and state when the
// current chunk survives the swap, so playback continues uninterrupted and
// only the timeline math changes. When the current chunk is gone mid-play
// the tracker restarts from the first playable chunk, keeps playing only
// if it was playing, and reports a ResumeFallback. An empty playable set
// returns ErrEmptySequence and leaves the previous sequence in place. From
// Complete the state stays Complete; whether fresh chunks past the end
// mean playback should continue is the caller's call.
func (t *Tracker) ReplaceSequence(chunks []Chunk) error {
	t.mu.Lock()
	seq, err := NewSequence(chunks)
	if err != nil {
		t.finish()
		return err
	}
	if t.seq == nil {
		t.mu.Unlock()
		return t.LoadSequence(chunks)
	}
	t.seq = seq
	for _, cb := range t.onSequenceLoaded {
		cb := cb
		t.pending = append(t.pending, func() { cb(seq) })
	}

	switch t.state {
	case StateIdle, StateComplete:
		if t.state == StateIdle && !seq.Contains(t.cursor.ChunkIndex) {
			t.cursor = Cursor{ChunkIndex: seq.First().Index}
			t.emitCursorLocked()
		}
	default:
		if !seq.Contains(t.cursor.ChunkIndex) {
			requested := t.cursor
			first := seq.First()
			t.cursor = Cursor{ChunkIndex: first.Index}
			fb := ResumeFallback{Requested: requested, Cursor: t.cursor}
			for _, cb := range t.onResumeFallback {
				cb := cb
				t.pending = append(t.pending, func() { cb(fb) })
			}
			t.autoplay = t.autoplay || t.state == StatePlaying
			t.beginLoadLocked(first, 0)
			t.emitCursorLocked()
		}
	}
	t.finish()
	return nil
}

// ResumeAt starts playback at a saved position. A chunk index that is no
// longer playable falls back to the first playable chunk at offset zero and
// reports a ResumeFallback event; the stale position is never an error.
func (t *Tracker) ResumeAt(chunkIndex int, offset float64) error {
	t.mu.Lock()
	if t.seq == nil {
		t.finish()
		return ErrEmptySequence
	}
	requested := Cursor{ChunkIndex: chunkIndex, Offset: offset}
	chunk, err := t.seq.Chunk(chunkIndex)
	if err != nil {
		chunk = t.seq.First()
		offset = 0
		t.cursor = Cursor{ChunkIndex: chunk.Index}
		fb := ResumeFallback{Requested: requested, Cursor: t.cursor}
		for _, cb := range t.onResumeFallback {
			cb := cb
			t.pending = append(t.pending, func() { cb(fb) })
		}
	} else {
		if chunk.Duration > 0 && offset > chunk.Duration {
			offset = chunk.Duration
		}
		if offset < 0 {
			offset = 0
		}
		t.cursor = Cursor{ChunkIndex: chunk.Index, Offset: offset}
	}
	t.autoplay = true
	t.beginLoadLocked(chunk, offset)
	t.emitCursorLocked()
	t.finish()
	return nil
}

// SeekEpisodeTime moves the cursor to an absolute episode time, clamped to
// [0, total]. A seek landing in another chunk loads that chunk's media; a
// seek within the current chunk only repositions it.
func (t *Tracker) SeekEpisodeTime(target float64) error {
	t.mu.Lock()
	err := t.seekLocked(target)
	t.finish()
	return err
}

// SkipRelative seeks by a signed number of seconds from the current episode
// time. The result clamps at the episode edges; skipping past the end does
// not wrap or complete the episode.
func (t *Tracker) SkipRelative(delta float64) error {
	t.mu.Lock()
	err := t.seekLocked(t.episodeTimeLocked() + delta)
	t.finish()
	return err
}

func (t *Tracker) seekLocked(target float64) error {
	if t.seq == nil {
		return ErrEmptySequence
	}
	if target < 0 {
		target = 0
	}
	if total := t.seq.TotalDuration(); target > total {
		target = total
	}
	chunk, offset := t.seq.ChunkAt(target)
	if chunk.Index == t.cursor.ChunkIndex && t.state != StateComplete {
		t.cursor.Offset = offset
		if t.surface != nil {
			t.pending = append(t.pending, func() {
				if err := t.surface.Seek(offset); err != nil {
					t.reportError(err)
				}
			})
		}
		t.emitCursorLocked()
		return nil
	}
	t.cursor = Cursor{ChunkIndex: chunk.Index, Offset: offset}
	t.autoplay = t.state == StatePlaying
	t.beginLoadLocked(chunk, offset)
	t.emitCursorLocked()
	return nil
}

// AdvanceToNextChunk moves to the next chunk in the sequence. On the final
// chunk it transitions to Complete and returns ErrEndOfSequence, the
// expected signal that the episode is over.
func (t *Tracker) AdvanceToNextChunk() error {
	t.mu.Lock()
	err := t.advanceLocked()
	t.finish()
	return err
}

func (t *Tracker) advanceLocked() error {
	if t.seq == nil {
		return ErrEndOfSequence
	}
	next, err := t.seq.Next(t.cursor.ChunkIndex)
	if err != nil {
		t.setStateLocked(StateComplete)
		for _, cb := range t.onComplete {
			cb := cb
			t.pending = append(t.pending, func() { cb() })
		}
		return err
	}
	t.autoplay = t.autoplay || t.state == StatePlaying
	t.cursor = Cursor{ChunkIndex: next.Index}
	t.beginLoadLocked(next, 0)
	t.emitCursorLocked()
	return nil
}

// PreviousChunk moves to the chunk before the current one, or restarts the
// first chunk when already on it.
func (t *Tracker) PreviousChunk() error {
	t.mu.Lock()
	if t.seq == nil {
		t.finish()
		return ErrEmptySequence
	}
	prev := t.seq.First()
	for _, c := range t.seq.Chunks() {
		if c.Index >= t.cursor.ChunkIndex {
			break
		}
		prev = c
	}
	start, _ := t.seq.PrefixTime(prev.Index)
	err := t.seekLocked(start)
	t.finish()
	return err
}

// Play starts or resumes playback. From Complete it restarts the episode
// from the beginning.
func (t *Tracker) Play() error {
	t.mu.Lock()
	if t.seq == nil {
		t.finish()
		return ErrEmptySequence
	}
	switch t.state {
	case StatePaused:
		if t.mediaLost {
			// The last load never delivered media, so resuming means
			// requesting the cursor's chunk again.
			if chunk, err := t.seq.Chunk(t.cursor.ChunkIndex); err == nil {
				t.autoplay = true
				t.beginLoadLocked(chunk, t.cursor.Offset)
				break
			}
		}
		t.playLocked()
	case StateIdle:
		chunk, err := t.seq.Chunk(t.cursor.ChunkIndex)
		if err != nil {
			chunk = t.seq.First()
			t.cursor = Cursor{ChunkIndex: chunk.Index}
		}
		t.autoplay = true
		t.beginLoadLocked(chunk, t.cursor.Offset)
	case StateComplete:
		first := t.seq.First()
		t.cursor = Cursor{ChunkIndex: first.Index}
		t.autoplay = true
		t.beginLoadLocked(first, 0)
		t.emitCursorLocked()
	case StateLoading:
		t.autoplay = true
	}
	t.finish()
	return nil
}

// Pause halts playback in place.
func (t *Tracker) Pause() {
	t.mu.Lock()
	if t.state == StatePlaying {
		t.setStateLocked(StatePaused)
		if t.surface != nil {
			t.pending = append(t.pending, t.surface.Pause)
		}
	}
	t.autoplay = false
	t.finish()
}

// MediaReady reports that the loading chunk's media is playable. While
// Loading it either starts playback or parks in Paused, depending on
// whether the load was meant to autoplay.
func (t *Tracker) MediaReady() {
	t.mu.Lock()
	if t.state != StateLoading {
		t.finish()
		return
	}
	if !t.autoplay {
		t.setStateLocked(StatePaused)
		t.finish()
		return
	}
	t.playLocked()
	t.finish()
}

// MediaFailed reports that the loading chunk's media could not be fetched
// or decoded. The failure is non-fatal: the tracker parks in Paused with
// the cursor intact and surfaces the error through OnError.
func (t *Tracker) MediaFailed(err error) {
	t.mu.Lock()
	t.mediaLost = true
	if t.state == StateLoading {
		t.setStateLocked(StatePaused)
	}
	t.finish()
	if err != nil {
		t.reportError(err)
	}
}

// ChunkEnded reports that the current chunk played to its natural end. The
// tracker advances, and on the final chunk completes the episode.
func (t *Tracker) ChunkEnded() {
	t.mu.Lock()
	if t.state != StatePlaying && t.state != StateLoading {
		t.finish()
		return
	}
	t.advanceLocked()
	t.finish()
}

// Tick pulls the current position from the media surface into the cursor.
// Call it on a UI or save timer while playing.
func (t *Tracker) Tick() {
	t.mu.Lock()
	if t.state != StatePlaying || t.surface == nil {
		t.finish()
		return
	}
	pos := t.surface.Position()
	if pos != t.cursor.Offset {
		t.cursor.Offset = pos
		t.emitCursorLocked()
	}
	t.finish()
}

// CurrentEpisodeTime returns the cursor as absolute episode seconds.
func (t *Tracker) CurrentEpisodeTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.episodeTimeLocked()
}

// Cursor returns the current cursor.
func (t *Tracker) Cursor() Cursor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

// State returns the current session state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Sequence returns the loaded sequence, or nil.
func (t *Tracker) Sequence() *Sequence {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// Progress returns the derived whole-episode progress. Without a sequence
// every field is zero.
func (t *Tracker) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seq == nil {
		return Progress{}
	}
	p := Progress{
		Elapsed: t.episodeTimeLocked(),
		Total:   t.seq.TotalDuration(),
		Unknown: t.seq.UnknownDurations(),
	}
	if p.Total > 0 {
		p.Percent = p.Elapsed / p.Total * 100
		if p.Percent > 100 {
			p.Percent = 100
		}
	}
	return p
}

// ResumePoint returns the persistence payload for the current position.
func (t *Tracker) ResumePoint() ResumePoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seq == nil {
		return ResumePoint{}
	}
	rp := ResumePoint{ChunkIndex: t.cursor.ChunkIndex, Offset: t.cursor.Offset}
	if total := t.seq.TotalDuration(); total > 0 {
		rp.Percent = t.episodeTimeLocked() / total * 100
		if rp.Percent > 100 {
			rp.Percent = 100
		}
	}
	return rp
}

func (t *Tracker) episodeTimeLocked() float64 {
	if t.seq == nil {
		return 0
	}
	prefix, err := t.seq.PrefixTime(t.cursor.ChunkIndex)
	if err != nil {
		return 0
	}
	return prefix + t.cursor.Offset
}

// beginLoadLocked transitions to Loading and schedules the media load for
// the given chunk. With no surface configured the state still advances so
// the model remains testable without audio.
func (t *Tracker) beginLoadLocked(chunk Chunk, offset float64) {
	t.mediaLost = false
	t.setStateLocked(StateLoading)
	if t.surface == nil {
		return
	}
	url := t.chunkURL(chunk)
	t.pending = append(t.pending, func() {
		if err := t.surface.Load(url); err != nil {
			t.reportError(err)
			t.loadFailed()
			return
		}
		if offset > 0 {
			if err := t.surface.Seek(offset); err != nil {
				t.reportError(err)
			}
		}
	})
}

// playLocked schedules the surface play attempt. A refusal, the terminal
// analog of blocked autoplay, parks the session in Paused instead of
// failing.
func (t *Tracker) playLocked() {
	if t.surface == nil {
		t.setStateLocked(StatePlaying)
		return
	}
	t.pending = append(t.pending, func() {
		err := t.surface.Play()
		t.playResult(err)
	})
}

func (t *Tracker) playResult(err error) {
	t.mu.Lock()
	if err != nil {
		t.setStateLocked(StatePaused)
		t.finish()
		t.reportError(err)
		return
	}
	t.setStateLocked(StatePlaying)
	t.finish()
}

func (t *Tracker) loadFailed() {
	t.mu.Lock()
	t.mediaLost = true
	if t.state == StateLoading {
		t.setStateLocked(StatePaused)
	}
	t.finish()
}

func (t *Tracker) reportError(err error) {
	t.mu.Lock()
	cbs := t.onError
	t.mu.Unlock()
	for _, cb := range cbs {
		cb(err)
	}
}

func (t *Tracker) setStateLocked(next State) {
	if t.state == next || !t.state.canTransition(next) {
		return
	}
	old := t.state
	t.state = next
	for _, cb := range t.onStateChanged {
		cb := cb
		t.pending = append(t.pending, func() { cb(old, next) })
	}
}

func (t *Tracker) emitCursorLocked() {
	cur := t.cursor
	for _, cb := range t.onCursorChanged {
		cb := cb
		t.pending = append(t.pending, func() { cb(cur) })
	}
}

// finish releases the lock and runs callbacks and media side effects queued
// by the operation. Keeping them outside the lock lets callbacks call back
// into the tracker.
func (t *Tracker) finish() {
	fns := t.pending
	t.pending = nil
	t.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
