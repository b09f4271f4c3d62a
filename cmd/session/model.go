package session

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/greyveil/bard/cmd/audio"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("238"))
	playingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
	pausedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	idleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type tickMsg time.Time
type reloadMsg audio.Settings

// layerView is the per-render snapshot of one layer.
type layerView struct {
	state audio.PlaybackState
	track *audio.Track
}

type model struct {
	player       *audio.Player
	settings     audio.Settings
	settingsPath string
	reloads      <-chan audio.Settings

	primary layerView
	ambient layerView

	focusAmbient bool
	cursor       int // scene list cursor

	width     int
	height    int
	statusMsg string
	helpView  bool
}

func initialModel(player *audio.Player, s audio.Settings, path string, reloads <-chan audio.Settings) model {
	m := model{
		player:       player,
		settings:     s,
		settingsPath: path,
		reloads:      reloads,
	}
	return m.refresh()
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitForReloadCmd(), tea.EnterAltScreen)
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForReloadCmd blocks on the settings watcher channel and surfaces the
// edited settings as a message.
func (m model) waitForReloadCmd() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.reloads
		if !ok {
			return nil
		}
		return reloadMsg(s)
	}
}

// refresh snapshots both layers for the next render.
func (m model) refresh() model {
	m.primary = snapshotLayer(m.player.Primary)
	m.ambient = snapshotLayer(m.player.Ambient)
	return m
}

func snapshotLayer(l *audio.Layer) layerView {
	v := layerView{state: l.State()}
	if t, ok := l.CurrentTrack(); ok {
		v.track = &t
	}
	return v
}

func (m model) focusedLayer() *audio.Layer {
	if m.focusAmbient {
		return m.player.Ambient
	}
	return m.player.Primary
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.helpView {
			m.helpView = false
			return m, nil
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m = m.refresh()
		return m, tickCmd()

	case reloadMsg:
		m.settings = audio.Settings(msg)
		m.player.ReloadSettings(audio.Settings(msg))
		if m.cursor >= len(m.settings.Scenes) {
			m.cursor = max(0, len(m.settings.Scenes)-1)
		}
		m.statusMsg = "Settings reloaded"
		m = m.refresh()
		return m, m.waitForReloadCmd()
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	layer := m.focusedLayer()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "h", "?":
		m.helpView = true
	case "tab":
		m.focusAmbient = !m.focusAmbient
	case " ":
		go layer.TogglePlayPause()
	case "n":
		go layer.Next()
	case "b":
		go layer.Previous()
	case "m":
		layer.ToggleMute()
	case "S":
		layer.ToggleShuffle()
	case "r":
		layer.CycleRepeatMode()
	case "+", "=":
		layer.SetVolume(layer.State().Volume + 5)
	case "-":
		layer.SetVolume(layer.State().Volume - 5)
	case "left":
		layer.Seek(layer.State().Position - 10*time.Second)
	case "right":
		layer.Seek(layer.State().Position + 10*time.Second)
	case "x":
		go m.player.StopAll()
		m.statusMsg = "Stopping everything"
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.settings.Scenes)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.settings.Scenes) {
			scene := m.settings.Scenes[m.cursor]
			go m.player.LoadSceneMusic(scene.Music, true)
			m.statusMsg = "Scene: " + scene.Name
		}
	default:
		// digits fire soundboard effects
		if n, ok := digitKey(msg.String()); ok && n <= len(m.settings.SoundEffects) {
			effect := m.settings.SoundEffects[n-1]
			m.player.PlaySoundEffect(effect)
			m.statusMsg = "♦ " + effect.Name
		}
	}

	m = m.refresh()
	return m, nil
}

func digitKey(s string) (int, bool) {
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		return int(s[0] - '0'), true
	}
	return 0, false
}

func (m model) View() string {
	if m.helpView {
		return m.renderHelpView()
	}

	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(titleStyle.Render("bard"))
	b.WriteString(helpStyle.Render("  " + m.settingsPath))
	b.WriteString("\n\n")

	b.WriteString(m.renderLayer("primary", m.primary, !m.focusAmbient))
	b.WriteString(m.renderLayer("ambient", m.ambient, m.focusAmbient))
	b.WriteString("\n")

	b.WriteString(m.renderScenes())
	b.WriteString(m.renderEffects())

	b.WriteString("\n")
	if m.statusMsg != "" {
		b.WriteString(statusStyle.Render("  " + m.statusMsg))
	} else {
		b.WriteString(helpStyle.Render("  h help • space play/pause • enter scene • 1-9 sfx • q quit"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m model) renderLayer(name string, v layerView, focused bool) string {
	marker := "  "
	if focused {
		marker = "» "
	}

	var status string
	switch {
	case v.state.IsPlaying:
		status = playingStyle.Render("playing")
	case v.state.CurrentTrackIndex >= 0:
		status = pausedStyle.Render("paused ")
	default:
		status = idleStyle.Render("idle   ")
	}

	title := "-"
	if v.track != nil {
		title = v.track.Title
	}

	line := fmt.Sprintf("%s%-7s %s  %-30s %s/%s  vol %3.0f",
		marker, name, status, truncate(title, 30),
		formatDuration(v.state.Position), formatDuration(v.state.Duration),
		v.state.Volume)

	var flags []string
	if v.state.IsMuted {
		flags = append(flags, "muted")
	}
	if v.state.IsShuffled {
		flags = append(flags, "shuffle")
	}
	if v.state.RepeatMode != audio.RepeatNone {
		flags = append(flags, "repeat:"+string(v.state.RepeatMode))
	}
	if len(flags) > 0 {
		line += "  " + helpStyle.Render(strings.Join(flags, " "))
	}

	return "  " + line + "\n"
}

func (m model) renderScenes() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("  Scenes"))
	b.WriteString("\n")
	if len(m.settings.Scenes) == 0 {
		b.WriteString(helpStyle.Render("    none configured (run: bard init)"))
		b.WriteString("\n")
		return b.String()
	}

	for i, scene := range m.settings.Scenes {
		line := fmt.Sprintf("    %s (%s)", scene.Name, scene.SceneType)
		if m.player.IsScenePlaying(scene.Music) {
			line += " ♪"
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderEffects() string {
	if len(m.settings.SoundEffects) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("  Soundboard"))
	b.WriteString("\n    ")
	for i, e := range m.settings.SoundEffects {
		if i >= 9 {
			break
		}
		if i > 0 {
			b.WriteString("  ")
		}
		label := e.Name
		if e.Icon != "" {
			label = e.Icon + " " + label
		}
		b.WriteString(fmt.Sprintf("%d %s", i+1, label))
	}
	b.WriteString("\n")
	return b.String()
}

func (m model) renderHelpView() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  bard session - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("  Transport (focused layer)"))
	b.WriteString("\n")
	b.WriteString("    space     Play / pause\n")
	b.WriteString("    n         Next track\n")
	b.WriteString("    b         Previous track (restarts when just started)\n")
	b.WriteString("    ←/→       Seek 10s\n")
	b.WriteString("    +/-       Volume up / down\n")
	b.WriteString("    m         Mute\n")
	b.WriteString("    S         Shuffle\n")
	b.WriteString("    r         Cycle repeat mode\n")
	b.WriteString("    tab       Switch focus primary/ambient\n")
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("  Scenes and soundboard"))
	b.WriteString("\n")
	b.WriteString("    ↑/↓       Select scene\n")
	b.WriteString("    enter     Load selected scene\n")
	b.WriteString("    1-9       Fire sound effect\n")
	b.WriteString("    x         Stop everything\n")
	b.WriteString("\n")

	b.WriteString(helpStyle.Render("  Press any key to close"))
	b.WriteString("\n")
	return b.String()
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-1] + "…"
}
