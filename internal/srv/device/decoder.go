package device

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/ik5/audpbx/audio"
	"github.com/ik5/audpbx/formats/aiff"
)

const (
	WAV_FORMAT    = "wav"
	MP3_FORMAT    = "mp3"
	VORBIS_FORMAT = "ogg vorbis"
	FLAC_FORMAT   = "flac"
	AIFF_FORMAT   = "aiff"
)

var extensionFormats = map[string]string{
	".wav":  WAV_FORMAT,
	".wave": WAV_FORMAT,
	".mp3":  MP3_FORMAT,
	".ogg":  VORBIS_FORMAT,
	".oga":  VORBIS_FORMAT,
	".flac": FLAC_FORMAT,
	".aif":  AIFF_FORMAT,
	".aiff": AIFF_FORMAT,
	".aifc": AIFF_FORMAT,
}

// SniffFormat detects the audio container from the first bytes of a stream, then from the name extension
func SniffFormat(header []byte, name string) (string, bool) {
	switch {
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return WAV_FORMAT, true
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("FORM")) &&
		(bytes.Equal(header[8:12], []byte("AIFF")) || bytes.Equal(header[8:12], []byte("AIFC"))):
		return AIFF_FORMAT, true
	case bytes.HasPrefix(header, []byte("OggS")):
		return VORBIS_FORMAT, true
	case bytes.HasPrefix(header, []byte("fLaC")):
		return FLAC_FORMAT, true
	case bytes.HasPrefix(header, []byte("ID3")):
		return MP3_FORMAT, true
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return MP3_FORMAT, true
	}

	format, ok := extensionFormats[strings.ToLower(filepath.Ext(name))]
	return format, ok
}

// Decoder turns an encoded byte stream into a beep streamer at its native sample rate,
// except AIFF which is resampled to the output rate by audpbx.
type Decoder struct {
	sampleRate   beep.SampleRate
	aiffRegistry *audio.Registry
}

func NewDecoder(sampleRate beep.SampleRate) *Decoder {
	registry := audio.NewRegistry()
	registry.Register(AIFF_FORMAT, aiff.Decoder{})
	return &Decoder{
		sampleRate:   sampleRate,
		aiffRegistry: registry,
	}
}

// Decode takes ownership of content: it is closed with the returned streamer, or right away on error.
func (d *Decoder) Decode(content io.ReadCloser, name string) (beep.StreamCloser, beep.Format, error) {
	reader := bufio.NewReader(content)
	header, err := reader.Peek(12)
	if err != nil && !errors.Is(err, io.EOF) {
		content.Close()
		return nil, beep.Format{}, fmt.Errorf("unable to read %s: %w", name, err)
	}

	format, ok := SniffFormat(header, name)
	if !ok {
		content.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	body := readCloser{Reader: reader, Closer: content}

	var streamer beep.StreamCloser
	var streamFormat beep.Format
	switch format {
	case WAV_FORMAT:
		streamer, streamFormat, err = wav.Decode(body)
	case MP3_FORMAT:
		streamer, streamFormat, err = mp3.Decode(body)
	case VORBIS_FORMAT:
		streamer, streamFormat, err = vorbis.Decode(body)
	case FLAC_FORMAT:
		streamer, streamFormat, err = flac.Decode(body)
	default:
		streamer, streamFormat, err = d.decodeSource(format, body)
	}
	if err != nil {
		content.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s (%s): %v", ErrUnsupportedFormat, name, format, err)
	}

	return streamer, streamFormat, nil
}

func (d *Decoder) decodeSource(format string, body io.ReadCloser) (beep.StreamCloser, beep.Format, error) {
	decoder, ok := d.aiffRegistry.Get(format)
	if !ok {
		return nil, beep.Format{}, fmt.Errorf("no decoder for %s", format)
	}
	source, err := decoder.Decode(body)
	if err != nil {
		return nil, beep.Format{}, err
	}
	if source.Channels() < 1 {
		source.Close()
		return nil, beep.Format{}, fmt.Errorf("invalid channel count %d", source.Channels())
	}

	var resampled audio.Source = source
	if source.SampleRate() != int(d.sampleRate) {
		resampled = audio.NewResampler(source, int(d.sampleRate))
	}

	return newSourceStreamer(resampled, body), beep.Format{SampleRate: d.sampleRate, NumChannels: 2, Precision: 2}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// sourceStreamer adapts an audpbx source to beep.Streamer
type sourceStreamer struct {
	source   audio.Source
	closer   io.Closer
	channels int
	buf      []float32
	done     bool
	err      error
}

func newSourceStreamer(source audio.Source, closer io.Closer) *sourceStreamer {
	return &sourceStreamer{
		source:   source,
		closer:   closer,
		channels: source.Channels(),
	}
}

func (s *sourceStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.done || len(samples) == 0 {
		return 0, !s.done
	}

	need := len(samples) * s.channels
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	buf := s.buf[:need]

	filled := 0
	for filled < len(samples) && !s.done {
		read, err := s.source.ReadSamples(buf[filled*s.channels:])
		frames := read / s.channels
		for i := 0; i < frames; i++ {
			frame := buf[(filled+i)*s.channels:]
			left := float64(frame[0])
			right := left
			if s.channels > 1 {
				right = float64(frame[1])
			}
			samples[filled+i] = [2]float64{left, right}
		}
		filled += frames

		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			s.done = true
		} else if read == 0 {
			s.done = true
		}
	}

	return filled, filled > 0
}

func (s *sourceStreamer) Err() error {
	return s.err
}

func (s *sourceStreamer) Close() error {
	sourceErr := s.source.Close()
	closeErr := s.closer.Close()
	if sourceErr != nil {
		return sourceErr
	}
	return closeErr
}
