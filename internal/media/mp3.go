// ABOUTME: MP3 chunk decoding via go-mp3
// ABOUTME: Decodes whole MP3 chunks to 16-bit stereo PCM
package media

import (
	"bytes"
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// decodeMP3 decodes a whole MP3 chunk. go-mp3 always emits 16-bit
// little-endian stereo at the file's sample rate.
func decodeMP3(data []byte) (*Track, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3: decode: %w", err)
	}
	return &Track{SampleRate: dec.SampleRate(), Channels: 2, PCM: pcm}, nil
}
