// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strings"
)

const (
	DefaultFFmpegPath = "ffmpeg"
	DefaultSampleRate = 22050 // Matches the rate the beat tracker was tuned on.
)

// FFmpegDecoder decodes compressed formats (mp3, flac, ogg) by piping them
// through ffmpeg as mono 32-bit float PCM.
type FFmpegDecoder struct {
	binary     string
	sampleRate int
}

// NewFFmpegDecoder creates a decoder that runs binary (default "ffmpeg")
// and resamples to sampleRate (default 22050 Hz).
func NewFFmpegDecoder(binary string, sampleRate int) *FFmpegDecoder {
	if binary == "" {
		binary = DefaultFFmpegPath
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &FFmpegDecoder{binary: binary, sampleRate: sampleRate}
}

// Decode runs ffmpeg to completion and parses its stdout.
func (d *FFmpegDecoder) Decode(path string) (Signal, error) {
	cmd := exec.Command(d.binary,
		"-v", "error",
		"-nostdin",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", d.sampleRate),
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Signal{}, fmt.Errorf("%w: ffmpeg %s: %v (%s)", ErrDecode, path, err, strings.TrimSpace(stderr.String()))
	}

	samples := parseFloat32LE(stdout.Bytes())
	if len(samples) == 0 {
		return Signal{}, fmt.Errorf("%w: no audio data decoded from %s", ErrDecode, path)
	}
	return Signal{Samples: samples, SampleRate: d.sampleRate}, nil
}

// parseFloat32LE converts little-endian f32 PCM into float64 samples. A
// trailing partial sample is dropped.
func parseFloat32LE(data []byte) []float64 {
	n := len(data) / 4
	samples := make([]float64, n)
	for i := range n {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		samples[i] = float64(math.Float32frombits(bits))
	}
	return samples
}
