// ABOUTME: FLAC chunk decoding via mewkiz/flac
// ABOUTME: Decodes whole FLAC chunks to interleaved 16-bit PCM
package media

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// decodeFLAC decodes a whole FLAC chunk, interleaving the per-channel
// subframes and rescaling to 16-bit.
func decodeFLAC(data []byte) (*Track, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("flac: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	if channels < 1 {
		return nil, fmt.Errorf("flac: invalid channel count %d", channels)
	}
	shift := int(info.BitsPerSample) - 16

	var pcm bytes.Buffer
	if info.NSamples > 0 {
		pcm.Grow(int(info.NSamples) * 2 * channels)
	}
	for {
		fr, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac: decode: %w", err)
		}
		if len(fr.Subframes) != channels {
			return nil, fmt.Errorf("flac: frame has %d subframes, want %d", len(fr.Subframes), channels)
		}
		n := int(fr.BlockSize)
		var b [2]byte
		for i := 0; i < n; i++ {
			for _, sub := range fr.Subframes {
				s := sub.Samples[i]
				if shift > 0 {
					s >>= shift
				} else if shift < 0 {
					s <<= -shift
				}
				binary.LittleEndian.PutUint16(b[:], uint16(int16(s)))
				pcm.Write(b[:])
			}
		}
	}

	return &Track{SampleRate: int(info.SampleRate), Channels: channels, PCM: pcm.Bytes()}, nil
}
