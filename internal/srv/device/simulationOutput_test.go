package device

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jypelle/vekipad/internal/srv/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOutputParam = config.OutputParam{SampleRate: 44100, BufferMs: 100, ResampleQuality: 2}

func newTestSimulationOutput(cacheParam config.CacheParam) *SimulationOutput {
	output := NewSimulationOutput(testOutputParam, NewResourceResolver(nil), NewSampleCache(cacheParam))
	output.tick = 5 * time.Millisecond
	return output
}

func waitDone(t *testing.T, voice Voice) {
	t.Helper()
	select {
	case <-voice.Done():
	case <-time.After(5 * time.Second):
		require.FailNow(t, "voice never ended")
	}
}

func TestSimulationOutput_OpenMissingFile(t *testing.T) {
	output := newTestSimulationOutput(config.CacheParam{})

	_, err := output.Open(filepath.Join(t.TempDir(), "missing.wav"))

	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.ErrorIs(t, err, ErrResourceNotFound)
	assert.Equal(t, "File not found", openErr.Reason())
}

func TestSimulationOutput_OpenDirectory(t *testing.T) {
	output := newTestSimulationOutput(config.CacheParam{})

	_, err := output.Open(t.TempDir())
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestSimulationOutput_PlaysToEnd(t *testing.T) {
	path := writeWav(t, t.TempDir(), "kick.wav", 44100, 4410)
	output := newTestSimulationOutput(config.CacheParam{})

	voice, err := output.Open(path)
	require.NoError(t, err)
	assert.NotEmpty(t, voice.Id())

	select {
	case <-voice.Done():
		require.FailNow(t, "voice ended before start")
	default:
	}

	voice.SetVolume(0.3)
	require.NoError(t, voice.Start())
	waitDone(t, voice)
	assert.NoError(t, voice.Dispose())
	assert.NoError(t, voice.Dispose())
}

func TestSimulationOutput_Resamples(t *testing.T) {
	path := writeWav(t, t.TempDir(), "snare.wav", 22050, 2205)
	output := newTestSimulationOutput(config.CacheParam{})

	voice, err := output.Open(path)
	require.NoError(t, err)
	require.NoError(t, voice.Start())
	waitDone(t, voice)

	played := voice.(*simulationVoice).played
	assert.InDelta(t, 4410, played, 50)
	require.NoError(t, voice.Dispose())
}

func TestSimulationOutput_StopEndsVoice(t *testing.T) {
	path := writeWav(t, t.TempDir(), "long.wav", 44100, 44100*10)
	output := newTestSimulationOutput(config.CacheParam{})

	voice, err := output.Open(path)
	require.NoError(t, err)
	require.NoError(t, voice.Start())

	voice.Stop()
	waitDone(t, voice)
	require.NoError(t, voice.Dispose())
	assert.Error(t, voice.Start())
}

func TestSimulationOutput_DisposeWithoutStart(t *testing.T) {
	path := writeWav(t, t.TempDir(), "kick.wav", 44100, 441)
	output := newTestSimulationOutput(config.CacheParam{})

	voice, err := output.Open(path)
	require.NoError(t, err)
	require.NoError(t, voice.Dispose())
	waitDone(t, voice)
}

func TestSimulationOutput_CachesShortSounds(t *testing.T) {
	dir := t.TempDir()
	short := writeWav(t, dir, "short.wav", 44100, 4410)
	long := writeWav(t, dir, "long.wav", 44100, 44100*2)
	cacheParam := config.CacheParam{Enabled: true, MaxDurationMs: 1000, TtlS: 60}
	output := newTestSimulationOutput(cacheParam)

	for i := 0; i < 2; i++ {
		voice, err := output.Open(short)
		require.NoError(t, err)
		require.NoError(t, voice.Start())
		waitDone(t, voice)
		assert.InDelta(t, 4410, voice.(*simulationVoice).played, 1)
		require.NoError(t, voice.Dispose())
	}
	voice, err := output.Open(long)
	require.NoError(t, err)
	require.NoError(t, voice.Dispose())

	assert.Equal(t, 1, output.source.sampleCache.ItemCount())
}

func TestSimulationOutput_WithPlaybackEngine(t *testing.T) {
	path := writeWav(t, t.TempDir(), "kick.wav", 44100, 2205)
	listener := &recordingListener{}
	engine := NewPlaybackEngine(newTestSimulationOutput(config.CacheParam{}), &fakeVolumeSetting{volume: 0.5}, listener)
	defer engine.StopSendingEvent()

	require.NoError(t, engine.Trigger(path, 12))
	assert.Equal(t, PLAYING_STATE, engine.State())

	engine.HandleEvent(nextEvent(t, engine))

	assert.Equal(t, IDLE_STATE, engine.State())
	assert.Equal(t, []string{"started:12", "stopped"}, listener.events)
}
