// ABOUTME: Media element implementing the tracker's playback surface
// ABOUTME: Fetches chunk audio, decodes it, and plays it through a Device
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/theepicsaxguy/OpenVox/internal/logging"
)

const (
	loadTimeout     = 60 * time.Second
	endPollInterval = 100 * time.Millisecond
)

// ElementConfig wires an Element to its collaborators.
type ElementConfig struct {
	// Fetch opens the audio bytes behind a chunk URL. Required.
	Fetch func(ctx context.Context, url string) (io.ReadCloser, error)
	// Device receives the decoded PCM. Defaults to a NullDevice.
	Device Device
	// Volume is the initial volume, 0-100.
	Volume int
	Logger *slog.Logger

	// OnReady fires when a loaded chunk is decoded and playable.
	OnReady func()
	// OnEnded fires when the current chunk plays to its end.
	OnEnded func()
	// OnError fires when a load fails. The element stays usable.
	OnError func(err error)
}

// Element downloads one chunk at a time, decodes it whole, and plays it.
// Loads are asynchronous; readiness and failure arrive through the
// configured callbacks. Callbacks are never invoked with the element's
// lock held, so they may call straight back into whatever drives it.
type Element struct {
	fetch  func(ctx context.Context, url string) (io.ReadCloser, error)
	device Device
	logger *slog.Logger

	onReady func()
	onEnded func()
	onError func(error)

	mu          sync.Mutex
	track       *Track
	reader      *trackReader
	voice       Voice
	playing     bool
	volume      int
	muted       bool
	pendingSeek float64
	hasPending  bool
	loadGen     int
	cancelLoad  context.CancelFunc
	watchGen    int
	closed      bool
}

// NewElement creates an element from the config.
func NewElement(cfg ElementConfig) *Element {
	device := cfg.Device
	if device == nil {
		device = NewNullDevice()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	volume := cfg.Volume
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return &Element{
		fetch:   cfg.Fetch,
		device:  device,
		logger:  logger,
		onReady: cfg.OnReady,
		onEnded: cfg.OnEnded,
		onError: cfg.OnError,
		volume:  volume,
	}
}

// Load starts fetching and decoding the chunk at url, replacing whatever
// is loaded now. Completion arrives through OnReady or OnError; a newer
// Load silently supersedes an unfinished one.
func (e *Element) Load(url string) error {
	if url == "" {
		return errors.New("media: empty chunk url")
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.New("media: element closed")
	}
	if e.fetch == nil {
		e.mu.Unlock()
		return errors.New("media: no fetcher configured")
	}
	e.loadGen++
	gen := e.loadGen
	if e.cancelLoad != nil {
		e.cancelLoad()
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	e.cancelLoad = cancel
	e.dropVoiceLocked()
	e.track = nil
	e.reader = nil
	e.hasPending = false
	e.mu.Unlock()

	go e.runLoad(ctx, gen, url)
	return nil
}

func (e *Element) runLoad(ctx context.Context, gen int, url string) {
	track, err := e.fetchTrack(ctx, url)
	if err == nil {
		track = e.matchDeviceFormat(track)
	}

	e.mu.Lock()
	if e.closed || gen != e.loadGen {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.mu.Unlock()
		e.logger.Warn("chunk load failed", "url", url, logging.Error(err))
		e.emitError(fmt.Errorf("load %s: %w", url, err))
		return
	}
	e.track = track
	e.reader = newTrackReader(track.PCM)
	if e.hasPending {
		e.reader.seekTo(track.offsetForTime(e.pendingSeek))
		e.hasPending = false
	}
	e.mu.Unlock()

	e.logger.Debug("chunk ready",
		"url", url,
		"seconds", track.Duration(),
		"sample_rate", track.SampleRate,
		"channels", track.Channels)
	e.emitReady()
}

func (e *Element) fetchTrack(ctx context.Context, url string) (*Track, error) {
	body, err := e.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// matchDeviceFormat remixes the track's channels to an already-open
// device. A sample rate difference cannot be fixed without reopening the
// output, so it only gets a warning.
func (e *Element) matchDeviceFormat(track *Track) *Track {
	rate, ch := e.device.Format()
	if ch > 0 && ch != track.Channels {
		remixed, err := track.withChannels(ch)
		if err != nil {
			e.logger.Warn("channel remix failed", logging.Error(err))
		} else {
			track = remixed
		}
	}
	if rate > 0 && rate != track.SampleRate {
		e.logger.Warn("track sample rate differs from open output",
			"track_rate", track.SampleRate, "output_rate", rate)
	}
	return track
}

// Play starts or resumes the loaded chunk. The first play after a load
// opens the device and creates the voice, so an unavailable output
// surfaces here as an error and playback stays stopped.
func (e *Element) Play() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.New("media: element closed")
	}
	if e.track == nil {
		e.mu.Unlock()
		return errors.New("media: no chunk loaded")
	}
	if e.voice == nil {
		if err := e.startVoiceLocked(); err != nil {
			e.mu.Unlock()
			return err
		}
	}
	e.voice.Play()
	e.playing = true
	e.mu.Unlock()
	return nil
}

// Pause halts playback, keeping the position.
func (e *Element) Pause() {
	e.mu.Lock()
	if e.voice != nil {
		e.voice.Pause()
	}
	e.playing = false
	e.mu.Unlock()
}

// Seek moves within the loaded chunk. Before the load finishes the
// request is remembered and applied when the track arrives.
func (e *Element) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errors.New("media: element closed")
	}
	if e.track == nil {
		e.pendingSeek = seconds
		e.hasPending = true
		return nil
	}
	off := e.track.offsetForTime(seconds)
	if e.voice == nil {
		e.reader.seekTo(off)
		return nil
	}
	// The voice buffers ahead, so rebuild it at the new position.
	wasPlaying := e.playing
	e.dropVoiceLocked()
	e.reader.seekTo(off)
	if err := e.startVoiceLocked(); err != nil {
		return err
	}
	if wasPlaying {
		e.voice.Play()
		e.playing = true
	}
	return nil
}

// Position returns the playback position in seconds within the chunk.
func (e *Element) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.track == nil || e.reader == nil {
		return 0
	}
	off := e.reader.position()
	if e.voice != nil {
		off -= e.voice.Unplayed()
		if off < 0 {
			off = 0
		}
	}
	return e.track.timeForOffset(off)
}

// Duration returns the loaded chunk's decoded length, 0 when nothing is
// loaded.
func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.track.Duration()
}

// Waveform reduces the loaded chunk to n peak buckets for rendering.
func (e *Element) Waveform(n int) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Peaks(e.track, n)
}

// SetVolume sets the volume (0-100).
func (e *Element) SetVolume(volume int) {
	e.mu.Lock()
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	e.volume = volume
	if e.voice != nil {
		e.voice.SetVolume(e.volumeMultiplierLocked())
	}
	e.mu.Unlock()
}

// Volume returns the current volume (0-100).
func (e *Element) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// SetMuted sets the mute state without touching the volume.
func (e *Element) SetMuted(muted bool) {
	e.mu.Lock()
	e.muted = muted
	if e.voice != nil {
		e.voice.SetVolume(e.volumeMultiplierLocked())
	}
	e.mu.Unlock()
}

// Muted returns the mute state.
func (e *Element) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// Close stops playback and releases the device.
func (e *Element) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if e.cancelLoad != nil {
		e.cancelLoad()
	}
	e.dropVoiceLocked()
	e.track = nil
	e.reader = nil
	e.mu.Unlock()
	return e.device.Close()
}

func (e *Element) startVoiceLocked() error {
	if err := e.device.Open(e.track.SampleRate, e.track.Channels); err != nil {
		return fmt.Errorf("audio output unavailable: %w", err)
	}
	voice, err := e.device.Start(e.reader, e.volumeMultiplierLocked())
	if err != nil {
		return err
	}
	e.voice = voice
	e.watchGen++
	go e.watchEnd(e.watchGen, voice, e.reader)
	return nil
}

func (e *Element) dropVoiceLocked() {
	e.watchGen++ // invalidates the end watcher
	if e.voice != nil {
		e.voice.Close()
		e.voice = nil
	}
	e.playing = false
}

// watchEnd fires the ended callback once the reader is drained and the
// device has played out its buffer.
func (e *Element) watchEnd(gen int, voice Voice, reader *trackReader) {
	tick := time.NewTicker(endPollInterval)
	defer tick.Stop()
	for range tick.C {
		e.mu.Lock()
		if e.closed || gen != e.watchGen {
			e.mu.Unlock()
			return
		}
		if !e.playing {
			e.mu.Unlock()
			continue
		}
		if reader.drained() && voice.Unplayed() == 0 {
			e.playing = false
			e.mu.Unlock()
			e.emitEnded()
			return
		}
		e.mu.Unlock()
	}
}

func (e *Element) volumeMultiplierLocked() float64 {
	if e.muted {
		return 0
	}
	return float64(e.volume) / 100
}

func (e *Element) emitReady() {
	if e.onReady != nil {
		e.onReady()
	}
}

func (e *Element) emitEnded() {
	if e.onEnded != nil {
		e.onEnded()
	}
}

func (e *Element) emitError(err error) {
	if e.onError != nil {
		e.onError(err)
	}
}

// trackReader reads a track's PCM through a seekable cursor. It returns
// io.EOF at the end, which lets the device drain naturally.
type trackReader struct {
	mu   sync.Mutex
	data []byte
	pos  int
}

func newTrackReader(data []byte) *trackReader {
	return &trackReader{data: data}
}

func (r *trackReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (r *trackReader) seekTo(off int) {
	r.mu.Lock()
	if off < 0 {
		off = 0
	}
	if off > len(r.data) {
		off = len(r.data)
	}
	r.pos = off
	r.mu.Unlock()
}

func (r *trackReader) position() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

func (r *trackReader) drained() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos >= len(r.data)
}
