// ABOUTME: Waveform peak extraction from decoded tracks
// ABOUTME: Reduces PCM to per-bucket peaks for terminal rendering
package media

import "encoding/binary"

// Peaks reduces a track to n normalized peak amplitudes, one per equal
// slice of the track's duration.
func Peaks(t *Track, n int) []float64 {
	if t == nil || n <= 0 || t.Channels < 1 {
		return nil
	}
	frames := len(t.PCM) / t.frameBytes()
	if frames == 0 {
		return nil
	}
	if n > frames {
		n = frames
	}
	peaks := make([]float64, n)
	for b := 0; b < n; b++ {
		start := b * frames / n
		end := (b + 1) * frames / n
		var peak int
		for f := start; f < end; f++ {
			base := f * t.frameBytes()
			for c := 0; c < t.Channels; c++ {
				s := int(int16(binary.LittleEndian.Uint16(t.PCM[base+2*c:])))
				if s < 0 {
					s = -s
				}
				if s > peak {
					peak = s
				}
			}
		}
		peaks[b] = float64(peak) / 32768.0
	}
	return peaks
}
