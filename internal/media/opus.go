// ABOUTME: Ogg Opus chunk decoding via hraban/opus
// ABOUTME: Decodes whole Opus chunks to interleaved 16-bit PCM at 48kHz
package media

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"
)

// opusSampleRate is fixed: libopusfile always decodes to 48kHz.
const opusSampleRate = 48000

// opusMaxFrame is the largest opus frame, 120ms at 48kHz.
const opusMaxFrame = 5760

// opusChannels reads the channel count from the OpusHead ID header, the
// payload of the first Ogg page.
func opusChannels(data []byte) (int, error) {
	if len(data) < 28 || string(data[:4]) != "OggS" {
		return 0, fmt.Errorf("opus: not an Ogg stream")
	}
	nsegs := int(data[26])
	head := 27 + nsegs
	if len(data) < head+10 || string(data[head:head+8]) != "OpusHead" {
		return 0, fmt.Errorf("opus: missing OpusHead header")
	}
	ch := int(data[head+9])
	if ch < 1 {
		return 0, fmt.Errorf("opus: invalid channel count %d", ch)
	}
	return ch, nil
}

// decodeOpus decodes a whole Ogg Opus chunk.
func decodeOpus(data []byte) (*Track, error) {
	channels, err := opusChannels(data)
	if err != nil {
		return nil, err
	}
	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opus: %w", err)
	}
	defer stream.Close()

	var pcm bytes.Buffer
	buf := make([]int16, opusMaxFrame*channels)
	var b [2]byte
	for {
		n, err := stream.Read(buf)
		if err == io.EOF || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("opus: decode: %w", err)
		}
		for _, s := range buf[:n*channels] {
			binary.LittleEndian.PutUint16(b[:], uint16(s))
			pcm.Write(b[:])
		}
	}

	return &Track{SampleRate: opusSampleRate, Channels: channels, PCM: pcm.Bytes()}, nil
}
