// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Decoder turns an audio file into a mono Signal. Implementations must be
// safe for concurrent use; batch export decodes several songs at once.
type Decoder interface {
	Decode(path string) (Signal, error)
}

// DecoderOptions configures the default file decoder.
type DecoderOptions struct {
	FFmpegPath string // ffmpeg binary used for compressed formats.
	SampleRate int    // Target sample rate for ffmpeg output (Hz).
}

// FormatDecoder routes files to a decoder by extension: WAV is read natively,
// everything else is handed to ffmpeg.
type FormatDecoder struct {
	byExt map[string]Decoder
}

// Compile-time checks for interface implementations.
var _ Decoder = (*FormatDecoder)(nil)
var _ Decoder = (*WAVDecoder)(nil)
var _ Decoder = (*FFmpegDecoder)(nil)

// NewFormatDecoder builds the default decoder set for SupportedExtensions.
func NewFormatDecoder(opts DecoderOptions) *FormatDecoder {
	ff := NewFFmpegDecoder(opts.FFmpegPath, opts.SampleRate)
	return &FormatDecoder{
		byExt: map[string]Decoder{
			".wav":  &WAVDecoder{},
			".mp3":  ff,
			".flac": ff,
			".ogg":  ff,
		},
	}
}

// Register overrides the decoder used for ext (".wav", ".mp3", ...).
func (d *FormatDecoder) Register(ext string, dec Decoder) {
	d.byExt[strings.ToLower(ext)] = dec
}

// Decode dispatches on the file extension.
func (d *FormatDecoder) Decode(path string) (Signal, error) {
	ext := strings.ToLower(filepath.Ext(path))
	dec, ok := d.byExt[ext]
	if !ok {
		return Signal{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return dec.Decode(path)
}
