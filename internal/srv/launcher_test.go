package srv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/wav"
	"github.com/jypelle/vekipad/apimodel"
	"github.com/jypelle/vekipad/internal/srv/config"
	"github.com/jypelle/vekipad/internal/srv/device"
	"github.com/jypelle/vekipad/internal/srv/pad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trigger struct {
	locator string
	padId   apimodel.PadId
}

type fakePlayer struct {
	triggers []trigger
	err      error
}

func (p *fakePlayer) Trigger(locator string, padId apimodel.PadId) error {
	p.triggers = append(p.triggers, trigger{locator: locator, padId: padId})
	return p.err
}

type fakePicker struct {
	path    string
	ok      bool
	err     error
	prompts []apimodel.PadId
}

func (p *fakePicker) PromptForResource(padId apimodel.PadId) (string, bool, error) {
	p.prompts = append(p.prompts, padId)
	return p.path, p.ok, p.err
}

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) NotifyError(title string, message string) {
	n.messages = append(n.messages, title+": "+message)
}

type launcherFixture struct {
	registry *pad.Registry
	player   *fakePlayer
	picker   *fakePicker
	notifier *fakeNotifier
	existing map[string]bool
	launcher *Launcher
}

func newLauncherFixture() *launcherFixture {
	f := &launcherFixture{
		registry: pad.NewRegistry(81),
		player:   &fakePlayer{},
		picker:   &fakePicker{},
		notifier: &fakeNotifier{},
		existing: map[string]bool{},
	}
	f.launcher = NewLauncher(f.registry, f.player, f.picker, f.notifier, func(locator string) bool {
		return f.existing[locator]
	})
	return f
}

func TestLauncher_UnboundPadPromptsAndBinds(t *testing.T) {
	f := newLauncherFixture()
	f.picker.path, f.picker.ok = "/music/kick.wav", true

	outcome, err := f.launcher.Activate(5)

	require.NoError(t, err)
	assert.Equal(t, BOUND_ACTIVATION, outcome)
	assert.Equal(t, []apimodel.PadId{5}, f.picker.prompts)
	path, ok := f.registry.LookupBinding(5)
	assert.True(t, ok)
	assert.Equal(t, "/music/kick.wav", path)
	assert.Empty(t, f.player.triggers, "binding doesn't play")
}

func TestLauncher_PromptCancelled(t *testing.T) {
	f := newLauncherFixture()

	outcome, err := f.launcher.Activate(5)

	require.NoError(t, err)
	assert.Equal(t, UNBOUND_ACTIVATION, outcome)
	assert.False(t, f.registry.IsBound(5))
}

func TestLauncher_PromptFailure(t *testing.T) {
	f := newLauncherFixture()
	f.picker.err = errors.New("no display")

	outcome, err := f.launcher.Activate(5)

	require.NoError(t, err)
	assert.Equal(t, UNBOUND_ACTIVATION, outcome)
	assert.False(t, f.registry.IsBound(5))
}

func TestLauncher_BoundPadPlays(t *testing.T) {
	f := newLauncherFixture()
	f.registry.Bind(7, "/music/snare.wav")
	f.existing["/music/snare.wav"] = true

	outcome, err := f.launcher.Activate(7)

	require.NoError(t, err)
	assert.Equal(t, PLAYED_ACTIVATION, outcome)
	assert.Equal(t, []trigger{{locator: "/music/snare.wav", padId: 7}}, f.player.triggers)
	assert.Empty(t, f.picker.prompts)
}

func TestLauncher_VanishedFilePromptsAgain(t *testing.T) {
	f := newLauncherFixture()
	f.registry.Bind(7, "/music/gone.wav")
	f.picker.path, f.picker.ok = "/music/new.wav", true

	outcome, err := f.launcher.Activate(7)

	require.NoError(t, err)
	assert.Equal(t, BOUND_ACTIVATION, outcome)
	path, _ := f.registry.LookupBinding(7)
	assert.Equal(t, "/music/new.wav", path)
	assert.Empty(t, f.player.triggers)
}

func TestLauncher_PlaybackFailureNotifies(t *testing.T) {
	f := newLauncherFixture()
	f.registry.Bind(3, "/music/broken.wav")
	f.existing["/music/broken.wav"] = true
	f.player.err = &device.OpenError{Locator: "/music/broken.wav", Err: device.ErrUnsupportedFormat}

	outcome, err := f.launcher.Activate(3)

	assert.Equal(t, FAILED_ACTIVATION, outcome)
	assert.ErrorIs(t, err, device.ErrUnsupportedFormat)
	require.Len(t, f.notifier.messages, 1)
	assert.Contains(t, f.notifier.messages[0], device.PlaybackErrorTitle)
	assert.Contains(t, f.notifier.messages[0], "Unsupported format")
	path, _ := f.registry.LookupBinding(3)
	assert.Equal(t, "/music/broken.wav", path, "a failure keeps the binding")
}

func writeTestWav(t *testing.T, name string, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	format := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(file, generators.Silence(frames), format))
	return path
}

func TestLauncher_WithPlaybackEngine(t *testing.T) {
	registry := pad.NewRegistry(81)
	resolver := device.NewResourceResolver(nil)
	output := device.NewSimulationOutput(config.OutputParam{SampleRate: 44100, BufferMs: 100, ResampleQuality: 2}, resolver, nil)
	engine := device.NewPlaybackEngine(output, &config.ServerState{}, padHighlighter{registry: registry})
	defer engine.Shutdown()
	notifier := &fakeNotifier{}
	launcher := NewLauncher(registry, engine, &fakePicker{}, notifier, resolver.Exists)

	kick := writeTestWav(t, "kick.wav", 44100*5)
	snare := writeTestWav(t, "snare.wav", 44100*5)
	registry.Bind(1, kick)
	registry.Bind(2, snare)
	registry.Bind(3, filepath.Join(filepath.Dir(snare), "gone.wav"))

	outcome, err := launcher.Activate(1)
	require.NoError(t, err)
	assert.Equal(t, PLAYED_ACTIVATION, outcome)
	assert.Equal(t, []apimodel.PadId{1}, registry.PlayingPads())

	outcome, err = launcher.Activate(2)
	require.NoError(t, err)
	assert.Equal(t, PLAYED_ACTIVATION, outcome)
	assert.Equal(t, []apimodel.PadId{2}, registry.PlayingPads())

	outcome, err = launcher.Activate(3)
	require.NoError(t, err)
	assert.Equal(t, UNBOUND_ACTIVATION, outcome)
	assert.Equal(t, []apimodel.PadId{2}, registry.PlayingPads(), "prompting keeps the current sound")

	engine.Stop()
	assert.Empty(t, registry.PlayingPads())
	assert.Empty(t, notifier.messages)
}
