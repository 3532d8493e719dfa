// ABOUTME: WAV (RIFF) chunk decoding
// ABOUTME: Extracts 16-bit PCM and format info from RIFF containers
package media

import (
	"encoding/binary"
	"fmt"
)

// decodeWAV parses a RIFF container and returns its PCM data. The studio
// emits canonical 16-bit PCM, so only format tag 1 and the extensible
// wrapper around it are accepted.
func decodeWAV(data []byte) (*Track, error) {
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("wav: not a RIFF/WAVE container")
	}

	var (
		sampleRate int
		channels   int
		bits       int
		pcm        []byte
		haveFmt    bool
	)

	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			// Truncated final chunk; take what is there.
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("wav: fmt chunk too short")
			}
			tag := binary.LittleEndian.Uint16(data[body : body+2])
			if tag != 1 && tag != 0xFFFE {
				return nil, fmt.Errorf("wav: unsupported format tag %d", tag)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}
		off = body + size
		if size%2 == 1 {
			off++ // chunks are word aligned
		}
	}

	if !haveFmt {
		return nil, fmt.Errorf("wav: missing fmt chunk")
	}
	if pcm == nil {
		return nil, fmt.Errorf("wav: missing data chunk")
	}
	if bits != 16 {
		return nil, fmt.Errorf("wav: %d-bit samples not supported", bits)
	}
	if channels < 1 || sampleRate <= 0 {
		return nil, fmt.Errorf("wav: invalid format %dch %dHz", channels, sampleRate)
	}
	if rem := len(pcm) % (2 * channels); rem != 0 {
		pcm = pcm[:len(pcm)-rem]
	}

	return &Track{SampleRate: sampleRate, Channels: channels, PCM: pcm}, nil
}
