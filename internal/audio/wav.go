// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// WAV format tags from the fmt chunk.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder reads PCM WAV files with go-audio/wav and downmixes them to
// mono at their native sample rate.
type WAVDecoder struct{}

// Decode reads the whole file into memory.
func (WAVDecoder) Decode(path string) (Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signal{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Signal{}, fmt.Errorf("%w: %s is not a valid WAV file", ErrDecode, path)
	}
	// go-audio hands every format back as integers, so IEEE float and
	// compressed payloads would decode to noise.
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return Signal{}, fmt.Errorf("%w: %s uses WAV format %d, only integer PCM is supported", ErrDecode, path, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Signal{}, fmt.Errorf("%w: reading %s: %v", ErrDecode, path, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return Signal{}, fmt.Errorf("%w: %s has no usable format header", ErrDecode, path)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(dec.BitDepth)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return Signal{}, fmt.Errorf("%w: %s has unsupported bit depth %d", ErrDecode, path, bitDepth)
	}

	// 8-bit WAV samples are unsigned with silence at 128.
	bias := 0
	if bitDepth == 8 {
		bias = 128
	}
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	interleaved := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		interleaved[i] = float64(v-bias) * scale
	}

	return Signal{
		Samples:    downmix(interleaved, buf.Format.NumChannels),
		SampleRate: buf.Format.SampleRate,
	}, nil
}
