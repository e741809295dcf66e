// SPDX-License-Identifier: MIT
/*
Package audio turns audio files into mono PCM signals for beat analysis.

Decoding is an injected capability: the analysis engine only ever sees a
Signal, and the catalog talks to a Decoder interface so tests can swap in
in-memory signals without touching files or spawning ffmpeg.
*/
package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrDecode marks any failure to turn a file into PCM (unsupported
// container, corrupt data, missing ffmpeg).
var ErrDecode = errors.New("audio decode failed")

// ErrUnsupportedFormat is returned for files whose extension no decoder
// handles. It wraps ErrDecode.
var ErrUnsupportedFormat = fmt.Errorf("%w: unsupported audio format", ErrDecode)

// SupportedExtensions lists the recognised audio file extensions.
var SupportedExtensions = []string{".mp3", ".wav", ".flac", ".ogg"}

// Signal is a mono PCM signal in the range [-1, 1]. It is produced once by
// a Decoder and treated as immutable afterwards.
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length in seconds.
func (s Signal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// Scaled returns a copy of the signal with every sample multiplied by gain.
func (s Signal) Scaled(gain float64) Signal {
	out := make([]float64, len(s.Samples))
	for i, v := range s.Samples {
		out[i] = v * gain
	}
	return Signal{Samples: out, SampleRate: s.SampleRate}
}

// IsAudioFile reports whether name carries one of the SupportedExtensions
// (case-insensitive).
func IsAudioFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// downmix averages interleaved frames into a mono signal.
func downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
