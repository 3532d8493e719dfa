// ABOUTME: Audio device abstraction over oto with a silent fallback
// ABOUTME: Opens the output context and plays PCM readers as voices
package media

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/theepicsaxguy/OpenVox/internal/logging"
)

// Device turns PCM readers into audible voices. Implementations decide
// where the samples go; the element only schedules them.
type Device interface {
	// Open prepares the device for the given format. Opening an already
	// open device is a no-op.
	Open(sampleRate, channels int) error
	// Format reports the format the device is open with, zeros before
	// the first Open.
	Format() (sampleRate, channels int)
	// Start creates a paused voice consuming src until it returns io.EOF.
	Start(src io.Reader, volume float64) (Voice, error)
	Close() error
}

// Voice is one stream playing on a device.
type Voice interface {
	Play()
	Pause()
	SetVolume(v float64)
	// Unplayed reports bytes handed to the device but not yet audible.
	Unplayed() int
	Close() error
}

// OtoDevice plays through the system output via oto. oto allows one
// context per process, so the first Open fixes the sample rate and a
// later rate change plays through the existing context unchanged.
type OtoDevice struct {
	logger     *slog.Logger
	otoCtx     *oto.Context
	sampleRate int
	channels   int
}

// NewOtoDevice creates an unopened system output device.
func NewOtoDevice(logger *slog.Logger) *OtoDevice {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &OtoDevice{logger: logger}
}

func (d *OtoDevice) Open(sampleRate, channels int) error {
	if d.otoCtx != nil {
		if d.sampleRate != sampleRate || d.channels != channels {
			d.logger.Warn("audio format changed after output init, playing as-is",
				"open_rate", d.sampleRate, "open_channels", d.channels,
				"track_rate", sampleRate, "track_channels", channels)
		}
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("open audio output: %w", err)
	}
	<-ready

	d.otoCtx = ctx
	d.sampleRate = sampleRate
	d.channels = channels
	d.logger.Info("audio output initialized", "sample_rate", sampleRate, "channels", channels)
	return nil
}

func (d *OtoDevice) Format() (int, int) {
	return d.sampleRate, d.channels
}

func (d *OtoDevice) Start(src io.Reader, volume float64) (Voice, error) {
	if d.otoCtx == nil {
		return nil, fmt.Errorf("audio output not initialized")
	}
	p := d.otoCtx.NewPlayer(src)
	p.SetVolume(volume)
	return &otoVoice{player: p}, nil
}

func (d *OtoDevice) Close() error {
	if d.otoCtx != nil {
		d.otoCtx.Suspend()
	}
	return nil
}

type otoVoice struct {
	player *oto.Player
}

func (v *otoVoice) Play()                { v.player.Play() }
func (v *otoVoice) Pause()               { v.player.Pause() }
func (v *otoVoice) SetVolume(vol float64) { v.player.SetVolume(vol) }
func (v *otoVoice) Unplayed() int        { return int(v.player.BufferedSize()) }
func (v *otoVoice) Close() error         { return v.player.Close() }

// NullDevice discards audio while keeping real-time pacing. It stands in
// for the system output under --no-audio.
type NullDevice struct {
	sampleRate int
	channels   int
}

// NewNullDevice creates a silent device.
func NewNullDevice() *NullDevice { return &NullDevice{} }

func (d *NullDevice) Open(sampleRate, channels int) error {
	d.sampleRate = sampleRate
	d.channels = channels
	return nil
}

func (d *NullDevice) Format() (int, int) {
	return d.sampleRate, d.channels
}

func (d *NullDevice) Start(src io.Reader, volume float64) (Voice, error) {
	perTick := int64(d.sampleRate*d.channels*2) / 20
	if perTick < 1 {
		perTick = 1
	}
	v := &nullVoice{
		src:     src,
		perTick: perTick,
		stop:    make(chan struct{}),
	}
	go v.run()
	return v, nil
}

func (d *NullDevice) Close() error { return nil }

// nullVoice consumes its source at wall-clock speed and throws it away.
type nullVoice struct {
	src     io.Reader
	perTick int64

	mu      sync.Mutex
	playing bool
	stopped bool
	stop    chan struct{}
}

func (v *nullVoice) run() {
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-v.stop:
			return
		case <-tick.C:
			v.mu.Lock()
			playing := v.playing
			v.mu.Unlock()
			if !playing {
				continue
			}
			if _, err := io.CopyN(io.Discard, v.src, v.perTick); err != nil {
				return
			}
		}
	}
}

func (v *nullVoice) Play() {
	v.mu.Lock()
	v.playing = true
	v.mu.Unlock()
}

func (v *nullVoice) Pause() {
	v.mu.Lock()
	v.playing = false
	v.mu.Unlock()
}

func (v *nullVoice) SetVolume(float64) {}

func (v *nullVoice) Unplayed() int { return 0 }

func (v *nullVoice) Close() error {
	v.mu.Lock()
	if !v.stopped {
		v.stopped = true
		close(v.stop)
	}
	v.mu.Unlock()
	return nil
}
