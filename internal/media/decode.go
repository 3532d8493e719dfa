// ABOUTME: Audio container sniffing and whole-chunk decoding
// ABOUTME: Turns downloaded chunk bytes into in-memory 16-bit PCM tracks
package media

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnknownFormat reports bytes that match none of the supported containers.
var ErrUnknownFormat = errors.New("unrecognized audio format")

// Track is a fully decoded chunk held in memory as interleaved signed
// 16-bit little-endian PCM. Chunks are short enough that decoding them
// whole keeps seeking and position math sample-exact.
type Track struct {
	SampleRate int
	Channels   int
	PCM        []byte
}

// Duration returns the track length in seconds.
func (t *Track) Duration() float64 {
	if t == nil || t.SampleRate <= 0 || t.Channels <= 0 {
		return 0
	}
	return float64(len(t.PCM)) / float64(2*t.Channels*t.SampleRate)
}

// frameBytes is the size of one interleaved sample frame.
func (t *Track) frameBytes() int { return 2 * t.Channels }

// offsetForTime converts seconds into a frame-aligned byte offset,
// clamped to the track.
func (t *Track) offsetForTime(seconds float64) int {
	if t == nil || t.SampleRate <= 0 || t.Channels <= 0 {
		return 0
	}
	if seconds < 0 {
		seconds = 0
	}
	off := int(seconds*float64(t.SampleRate)) * t.frameBytes()
	if off > len(t.PCM) {
		off = len(t.PCM)
	}
	return off
}

// timeForOffset converts a byte offset back into seconds.
func (t *Track) timeForOffset(off int) float64 {
	if t == nil || t.SampleRate <= 0 || t.Channels <= 0 {
		return 0
	}
	if off < 0 {
		off = 0
	}
	return float64(off/t.frameBytes()) / float64(t.SampleRate)
}

// withChannels returns the track remixed to n channels. Only mono and
// stereo occur in practice; other conversions are refused.
func (t *Track) withChannels(n int) (*Track, error) {
	if n == t.Channels {
		return t, nil
	}
	switch {
	case t.Channels == 1 && n == 2:
		out := make([]byte, 2*len(t.PCM))
		for i := 0; i+1 < len(t.PCM); i += 2 {
			out[2*i] = t.PCM[i]
			out[2*i+1] = t.PCM[i+1]
			out[2*i+2] = t.PCM[i]
			out[2*i+3] = t.PCM[i+1]
		}
		return &Track{SampleRate: t.SampleRate, Channels: 2, PCM: out}, nil
	case t.Channels == 2 && n == 1:
		frames := len(t.PCM) / 4
		out := make([]byte, 2*frames)
		for f := 0; f < frames; f++ {
			l := int16(binary.LittleEndian.Uint16(t.PCM[4*f:]))
			r := int16(binary.LittleEndian.Uint16(t.PCM[4*f+2:]))
			m := int16((int32(l) + int32(r)) / 2)
			binary.LittleEndian.PutUint16(out[2*f:], uint16(m))
		}
		return &Track{SampleRate: t.SampleRate, Channels: 1, PCM: out}, nil
	}
	return nil, fmt.Errorf("cannot remix %d channels to %d", t.Channels, n)
}

const (
	formatWAV  = "wav"
	formatMP3  = "mp3"
	formatFLAC = "flac"
	formatOgg  = "ogg"
)

// sniff identifies the container from the first bytes of a chunk. Chunk
// URLs carry no extension, so the magic bytes are the source of truth.
func sniff(data []byte) (string, error) {
	if len(data) < 4 {
		return "", ErrUnknownFormat
	}
	switch {
	case string(data[:4]) == "RIFF":
		return formatWAV, nil
	case string(data[:4]) == "fLaC":
		return formatFLAC, nil
	case string(data[:4]) == "OggS":
		return formatOgg, nil
	case string(data[:3]) == "ID3":
		return formatMP3, nil
	case data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// Bare MPEG frame sync, an MP3 without an ID3 tag.
		return formatMP3, nil
	}
	return "", ErrUnknownFormat
}

// Decode sniffs the container and decodes the whole chunk to PCM.
func Decode(data []byte) (*Track, error) {
	format, err := sniff(data)
	if err != nil {
		return nil, err
	}
	switch format {
	case formatWAV:
		return decodeWAV(data)
	case formatMP3:
		return decodeMP3(data)
	case formatFLAC:
		return decodeFLAC(data)
	case formatOgg:
		return decodeOpus(data)
	}
	return nil, ErrUnknownFormat
}
