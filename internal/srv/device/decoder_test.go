package device

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantStreamer(frames int) beep.Streamer {
	played := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if played >= frames {
			return 0, false
		}
		n := len(samples)
		if n > frames-played {
			n = frames - played
		}
		for i := range samples[:n] {
			samples[i] = [2]float64{0.25, -0.25}
		}
		played += n
		return n, true
	})
}

// writeWav writes a 16 bits stereo WAV file of frames samples
func writeWav(t *testing.T, dir string, name string, sampleRate beep.SampleRate, frames int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	format := beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(file, constantStreamer(frames), format))
	return path
}

func countFrames(streamer beep.Streamer) int {
	total := 0
	buf := make([][2]float64, 512)
	for {
		n, ok := streamer.Stream(buf)
		total += n
		if !ok {
			return total
		}
	}
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		file   string
		format string
		ok     bool
	}{
		{"wav", []byte("RIFF\x00\x00\x00\x00WAVEfmt "), "sound", WAV_FORMAT, true},
		{"aiff", []byte("FORM\x00\x00\x00\x00AIFFCOMM"), "sound", AIFF_FORMAT, true},
		{"aifc", []byte("FORM\x00\x00\x00\x00AIFCFVER"), "sound", AIFF_FORMAT, true},
		{"ogg", []byte("OggS\x00\x02"), "sound", VORBIS_FORMAT, true},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), "sound", FLAC_FORMAT, true},
		{"id3", []byte("ID3\x03\x00"), "sound", MP3_FORMAT, true},
		{"mpeg frame", []byte{0xFF, 0xFB, 0x90, 0x64}, "sound", MP3_FORMAT, true},
		{"extension fallback", []byte("garbage"), "/music/Kick.MP3", MP3_FORMAT, true},
		{"aif extension", nil, "snare.aif", AIFF_FORMAT, true},
		{"unknown", []byte("garbage"), "notes.txt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, ok := SniffFormat(tt.header, tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.format, format)
		})
	}
}

func TestDecoder_DecodeWav(t *testing.T) {
	path := writeWav(t, t.TempDir(), "kick.wav", 22050, 2205)
	file, err := os.Open(path)
	require.NoError(t, err)

	streamer, format, err := NewDecoder(44100).Decode(file, path)
	require.NoError(t, err)
	defer streamer.Close()

	assert.Equal(t, beep.SampleRate(22050), format.SampleRate)
	assert.Equal(t, 2, format.NumChannels)
	assert.Equal(t, 2205, countFrames(streamer))
	assert.NoError(t, streamer.Err())
}

func TestDecoder_DecodeWavWithoutExtension(t *testing.T) {
	path := writeWav(t, t.TempDir(), "kick", 44100, 100)
	file, err := os.Open(path)
	require.NoError(t, err)

	streamer, _, err := NewDecoder(44100).Decode(file, path)
	require.NoError(t, err)
	defer streamer.Close()
	assert.Equal(t, 100, countFrames(streamer))
}

func TestDecoder_Unsupported(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"notes.txt", "broken.wav", "empty.flac"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			content := []byte("this is not an audio file at all")
			if name == "empty.flac" {
				content = nil
			}
			require.NoError(t, os.WriteFile(path, content, 0644))
			file, err := os.Open(path)
			require.NoError(t, err)

			_, _, err = NewDecoder(44100).Decode(file, path)
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
		})
	}
}

type fakeSource struct {
	sampleRate int
	channels   int
	samples    []float32
	closed     bool
}

func (s *fakeSource) SampleRate() int { return s.sampleRate }
func (s *fakeSource) Channels() int   { return s.channels }
func (s *fakeSource) BufSize() int    { return 4096 }
func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

func (s *fakeSource) ReadSamples(dst []float32) (int, error) {
	if len(s.samples) == 0 {
		return 0, io.EOF
	}
	n := copy(dst, s.samples)
	s.samples = s.samples[n:]
	return n, nil
}

type closeRecorder struct {
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestSourceStreamer_Mono(t *testing.T) {
	source := &fakeSource{sampleRate: 44100, channels: 1, samples: []float32{0.5, -0.5, 0.25}}
	closer := &closeRecorder{}
	streamer := newSourceStreamer(source, closer)

	samples := make([][2]float64, 8)
	n, ok := streamer.Stream(samples)
	require.True(t, ok)
	require.Equal(t, 3, n)
	assert.Equal(t, [2]float64{0.5, 0.5}, samples[0])
	assert.Equal(t, [2]float64{-0.5, -0.5}, samples[1])
	assert.Equal(t, [2]float64{0.25, 0.25}, samples[2])

	n, ok = streamer.Stream(samples)
	assert.Zero(t, n)
	assert.False(t, ok)
	assert.NoError(t, streamer.Err())

	require.NoError(t, streamer.Close())
	assert.True(t, source.closed)
	assert.True(t, closer.closed)
}

func TestSourceStreamer_DropsExtraChannels(t *testing.T) {
	source := &fakeSource{sampleRate: 44100, channels: 3, samples: []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}}
	streamer := newSourceStreamer(source, &closeRecorder{})

	samples := make([][2]float64, 4)
	n, _ := streamer.Stream(samples)
	require.Equal(t, 2, n)
	assert.InDelta(t, 0.1, samples[0][0], 1e-6)
	assert.InDelta(t, 0.2, samples[0][1], 1e-6)
	assert.InDelta(t, 0.4, samples[1][0], 1e-6)
	assert.InDelta(t, 0.5, samples[1][1], 1e-6)
}
