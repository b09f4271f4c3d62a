package audio

import (
	"testing"
)

type playerFixture struct {
	p       *Player
	clk     *fakeClock
	outputs []*fakeOutput // 0: primary, 1: ambient, then soundboard slots
}

func newTestPlayer(t *testing.T, s Settings) *playerFixture {
	t.Helper()
	f := &playerFixture{clk: newFakeClock()}
	f.p = NewPlayer(Config{
		Resolver: fakeResolver{},
		Clock:    f.clk,
		NewOutput: func() Output {
			o := newFakeOutput()
			f.outputs = append(f.outputs, o)
			return o
		},
		Settings: s,
	})
	t.Cleanup(func() { _ = f.p.Close() })
	return f
}

func (f *playerFixture) primaryOut() *fakeOutput { return f.outputs[0] }
func (f *playerFixture) ambientOut() *fakeOutput { return f.outputs[1] }

func testSettings() Settings {
	return Settings{
		Playlists: []Playlist{
			{ID: "battle", Name: "Battle", Mood: "tense",
				TrackPaths: []string{"battle/a.mp3", "battle/b.mp3"}},
			{ID: "tavern", Name: "Tavern", Mood: "cheerful",
				TrackPaths: []string{"tavern/a.mp3"}},
		},
		SceneMoods:       map[string]string{"combat": "tense"},
		PrimaryVolume:    80,
		AmbientVolume:    40,
		SoundboardVolume: 90,
	}
}

func TestNewPlayer_AppliesConfiguredVolumes(t *testing.T) {
	f := newTestPlayer(t, testSettings())

	if got := f.p.Primary.State().Volume; got != 80 {
		t.Errorf("primary volume = %v, want 80", got)
	}
	if got := f.p.Ambient.State().Volume; got != 40 {
		t.Errorf("ambient volume = %v, want 40", got)
	}
}

func TestPlayMood_CrossfadesPrimary(t *testing.T) {
	f := newTestPlayer(t, testSettings())

	f.p.PlayMood("tense")

	if got := f.primaryOut().loadedPath(); got != "battle/a.mp3" {
		t.Errorf("primary loaded = %q, want battle/a.mp3", got)
	}
	if !f.p.Primary.State().IsPlaying {
		t.Error("primary should be playing")
	}
	if f.ambientOut().loadCount() != 0 {
		t.Error("mood playback must not touch the ambient layer")
	}
}

func TestPlayMood_UnknownMoodIsNoop(t *testing.T) {
	f := newTestPlayer(t, testSettings())

	f.p.PlayMood("melancholy")

	if f.primaryOut().loadCount() != 0 {
		t.Error("unknown mood should not load anything")
	}
}

func TestPlayForSceneType_GatedOnAutoplay(t *testing.T) {
	f := newTestPlayer(t, testSettings())

	f.p.PlayForSceneType("combat")
	if f.primaryOut().loadCount() != 0 {
		t.Fatal("autoplay disabled: scene type must not start playback")
	}

	s := testSettings()
	s.AutoplayOnSceneChange = true
	f.p.ReloadSettings(s)

	f.p.PlayForSceneType("combat")
	if got := f.primaryOut().loadedPath(); got != "battle/a.mp3" {
		t.Errorf("primary loaded = %q, want battle/a.mp3", got)
	}
}

func TestLoadSceneMusic_LoadsBothLayersAndAutoplays(t *testing.T) {
	f := newTestPlayer(t, testSettings())
	cfg := SceneConfig{
		PrimaryPlaylistID: strPtr("battle"),
		PrimaryTrackPath:  strPtr("battle/b.mp3"),
		AmbientPlaylistID: strPtr("tavern"),
	}

	f.p.LoadSceneMusic(cfg, true)

	if got := f.primaryOut().loadedPath(); got != "battle/b.mp3" {
		t.Errorf("primary loaded = %q, want the scene's selected track", got)
	}
	if got := f.ambientOut().loadedPath(); got != "tavern/a.mp3" {
		t.Errorf("ambient loaded = %q, want tavern/a.mp3", got)
	}
	if !f.p.Primary.State().IsPlaying || !f.p.Ambient.State().IsPlaying {
		t.Error("both configured layers should be playing")
	}
	active, ok := f.p.ActiveScene()
	if !ok || !active.SameSceneAs(cfg) {
		t.Error("scene should be retained as active")
	}
}

func TestLoadSceneMusic_NoAutoplayLeavesLayersIdle(t *testing.T) {
	f := newTestPlayer(t, testSettings())
	cfg := SceneConfig{
		PrimaryPlaylistID: strPtr("battle"),
		PrimaryTrackPath:  strPtr("battle/b.mp3"),
	}

	f.p.LoadSceneMusic(cfg, false)

	state := f.p.Primary.State()
	if state.CurrentPlaylistID != "battle" || state.CurrentTrackIndex != 1 {
		t.Errorf("state = playlist:%q index:%d, want battle/1 selected",
			state.CurrentPlaylistID, state.CurrentTrackIndex)
	}
	if state.IsPlaying || f.primaryOut().isPlaying() {
		t.Error("layers must stay idle without autoplay")
	}
}

func TestLoadSceneMusic_UnknownPlaylistDegrades(t *testing.T) {
	f := newTestPlayer(t, testSettings())
	cfg := SceneConfig{PrimaryPlaylistID: strPtr("nope")}

	f.p.LoadSceneMusic(cfg, true)

	if f.primaryOut().loadCount() != 0 || f.p.Primary.State().IsPlaying {
		t.Error("unknown playlist should leave the layer idle")
	}
	if _, ok := f.p.ActiveScene(); !ok {
		t.Error("the scene is still retained as active")
	}
}

func TestLoadSceneMusic_AnnouncesBeforeAudioSettles(t *testing.T) {
	s := testSettings()
	s.FadeDurationMs = 500
	f := newTestPlayer(t, s)
	f.p.PlayMood("tense")
	f.clk.driveUntil(t, func() bool {
		return f.primaryOut().currentLevel() == 80
	})

	observed := make(chan string, 1)
	f.p.OnSceneChange(func() {
		select {
		case observed <- f.p.Primary.State().CurrentPlaylistID:
		default:
		}
	})

	cfg := SceneConfig{PrimaryPlaylistID: strPtr("tavern")}
	done := make(chan struct{})
	go func() {
		f.p.LoadSceneMusic(cfg, true)
		close(done)
	}()
	f.clk.drive(t, done)

	if got := <-observed; got != "battle" {
		t.Errorf("playlist at announcement = %q, want battle (old material still loaded)", got)
	}
	state := f.p.Primary.State()
	if state.CurrentPlaylistID != "tavern" || !state.IsPlaying {
		t.Errorf("state = playlist:%q playing:%v, want tavern playing",
			state.CurrentPlaylistID, state.IsPlaying)
	}
}

func TestIsScenePlaying_IgnoresAutoPlay(t *testing.T) {
	f := newTestPlayer(t, testSettings())
	cfg := SceneConfig{PrimaryPlaylistID: strPtr("battle")}
	f.p.LoadSceneMusic(cfg, false)

	same := cfg
	same.AutoPlay = true
	if !f.p.IsScenePlaying(same) {
		t.Error("autoPlay must not affect scene identity")
	}

	other := SceneConfig{PrimaryPlaylistID: strPtr("tavern")}
	if f.p.IsScenePlaying(other) {
		t.Error("a different selection is a different scene")
	}
}

func TestStopAll_ClearsSceneAndNotifies(t *testing.T) {
	f := newTestPlayer(t, testSettings())
	f.p.LoadSceneMusic(SceneConfig{PrimaryPlaylistID: strPtr("battle")}, true)
	notified := 0
	f.p.OnSceneChange(func() { notified++ })

	f.p.StopAll()

	if _, ok := f.p.ActiveScene(); ok {
		t.Error("active scene should be cleared")
	}
	if f.p.Primary.State().IsPlaying {
		t.Error("primary should be stopped")
	}
	if notified != 1 {
		t.Errorf("notifications = %d, want 1", notified)
	}
}

func TestOnSceneChange_PanicContainedAndUnsubscribeWorks(t *testing.T) {
	f := newTestPlayer(t, testSettings())
	calls := 0
	f.p.OnSceneChange(func() { panic("listener bug") })
	unsub := f.p.OnSceneChange(func() { calls++ })

	f.p.LoadSceneMusic(SceneConfig{PrimaryPlaylistID: strPtr("battle")}, false)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 despite the panicking sibling", calls)
	}

	unsub()
	f.p.StopAll()
	if calls != 1 {
		t.Errorf("calls = %d, want 1 after unsubscribe", calls)
	}
}

func TestReloadSettings_RepointsSurvivingPlaylist(t *testing.T) {
	f := newTestPlayer(t, testSettings())
	f.p.PlayMood("tense") // playing battle/a.mp3
	before := f.primaryOut().loadCount()

	s := testSettings()
	s.Playlists[0].TrackPaths = []string{"battle/x.mp3", "battle/a.mp3"}
	f.p.ReloadSettings(s)

	state := f.p.Primary.State()
	if state.CurrentTrackIndex != 1 {
		t.Errorf("index = %d, want 1 (current track re-pointed)", state.CurrentTrackIndex)
	}
	if !state.IsPlaying {
		t.Error("playback should continue")
	}
	if f.primaryOut().loadCount() != before {
		t.Error("surviving track must not be reloaded")
	}
}

func TestReloadSettings_StopsLayerOnDeletedPlaylist(t *testing.T) {
	f := newTestPlayer(t, testSettings())
	f.p.PlayMood("tense")

	s := testSettings()
	s.Playlists = s.Playlists[1:] // battle removed
	f.p.ReloadSettings(s)

	if f.p.Primary.State().IsPlaying {
		t.Error("layer whose playlist vanished should stop")
	}
	if f.primaryOut().isPlaying() {
		t.Error("output should be stopped")
	}
}

func TestPlaySoundEffect_UsesSoundboardMasterVolume(t *testing.T) {
	f := newTestPlayer(t, testSettings())

	f.p.PlaySoundEffect(SoundEffect{Name: "thunder", FilePath: "sfx/thunder.wav"})

	if len(f.outputs) != 3 {
		t.Fatalf("outputs = %d, want 3 (one soundboard slot)", len(f.outputs))
	}
	slot := f.outputs[2]
	if got := slot.loadedPath(); got != "sfx/thunder.wav" {
		t.Errorf("loaded = %q, want sfx/thunder.wav", got)
	}
	if got := slot.currentLevel(); got != 90 {
		t.Errorf("level = %v, want the soundboard master 90", got)
	}
}

func TestPlaySoundEffect_SilencedWhilePrimaryMuted(t *testing.T) {
	f := newTestPlayer(t, testSettings())
	f.p.Primary.ToggleMute()

	f.p.PlaySoundEffect(SoundEffect{Name: "thunder", FilePath: "sfx/thunder.wav"})

	if got := f.outputs[2].currentLevel(); got != 0 {
		t.Errorf("level = %v, want 0 while the primary layer is muted", got)
	}
}

func TestSettings_SnapshotReplacedByReload(t *testing.T) {
	f := newTestPlayer(t, testSettings())

	s := testSettings()
	s.SoundboardVolume = 10
	f.p.ReloadSettings(s)

	if got := f.p.Settings().SoundboardVolume; got != 10 {
		t.Errorf("snapshot soundboard volume = %v, want 10", got)
	}
	f.p.PlaySoundEffect(SoundEffect{Name: "a", FilePath: "a.wav"})
	if got := f.outputs[2].currentLevel(); got != 10 {
		t.Errorf("effect level = %v, want the reloaded master 10", got)
	}
}

func TestLoadScene_HonorsSceneAutoPlayFlag(t *testing.T) {
	f := newTestPlayer(t, testSettings())
	scene := Scene{
		ID: "s1", Name: "Ambush", SceneType: "combat",
		Music: SceneConfig{PrimaryPlaylistID: strPtr("battle"), AutoPlay: true},
	}

	f.p.LoadScene(scene)

	state := f.p.Primary.State()
	if !state.IsPlaying {
		t.Error("scene with autoPlay should start playback")
	}
	if state.Position != 0 {
		t.Error("playback should start from the top")
	}
}
