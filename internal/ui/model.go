// ABOUTME: Bubbletea model for the voxplay TUI
// ABOUTME: Holds view state and routes key presses to session commands
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/theepicsaxguy/OpenVox/internal/history"
	"github.com/theepicsaxguy/OpenVox/internal/library"
	"github.com/theepicsaxguy/OpenVox/internal/studio"
	"github.com/theepicsaxguy/OpenVox/pkg/playback"
)

type view int

const (
	viewLibrary view = iota
	viewPlayer
	viewHistory
	viewCount
)

// CommandKind enumerates the user intents the session executes.
type CommandKind int

const (
	CmdTogglePlay CommandKind = iota
	CmdSeekBy
	CmdNextChunk
	CmdPrevChunk
	CmdSelectEpisode
	CmdReloadLibrary
	CmdSetVolume
	CmdToggleMute
	CmdQuit
)

// Command is one user intent sent from the TUI to the session.
type Command struct {
	Kind      CommandKind
	EpisodeID int64
	Seconds   float64
	Volume    int
}

// Controls carries commands from the TUI to the session loop.
type Controls struct {
	Commands chan Command
}

// NewControls creates the command channel the session consumes.
func NewControls() *Controls {
	return &Controls{Commands: make(chan Command, 16)}
}

// ConnectionMsg updates the header's server status.
type ConnectionMsg struct {
	Connected bool
	ServerURL string
}

// LibraryMsg replaces the library contents, keeping navigation state.
// Progress maps episode IDs to server-side listened percent; a nil map
// keeps what the pane already shows.
type LibraryMsg struct {
	Tree     *studio.LibraryTree
	Progress map[int64]float64
}

// HistoryMsg replaces the continue-listening list.
type HistoryMsg struct {
	Entries []history.Entry
}

// PlayerMsg is a whole snapshot of the player pane. ChunkOrdinal is
// 1-based display position, not the chunk's index, which may have gaps.
type PlayerMsg struct {
	EpisodeID    int64
	Title        string
	State        playback.State
	ChunkOrdinal int
	ChunkCount   int
	Elapsed      float64
	Total        float64
	Percent      float64
	Unknown      int
	Line         string
	Waveform     []float64
	Volume       int
	Muted        bool
}

// StatusMsg sets the transient status line at the bottom.
type StatusMsg struct {
	Text string
}

// Model is the TUI state. Values flow in as messages from the session;
// key presses flow out as Commands.
type Model struct {
	controls *Controls

	view      view
	connected bool
	serverURL string

	lib         *library.Tree
	libProgress map[int64]float64
	entries     []history.Entry
	histSel     int

	player    PlayerMsg
	hasPlayer bool

	status string

	skipSeconds float64

	width  int
	height int
}

// NewModel creates the initial TUI state.
func NewModel(controls *Controls, skipSeconds float64) Model {
	if skipSeconds <= 0 {
		skipSeconds = 15
	}
	return Model{
		controls:    controls,
		view:        viewLibrary,
		skipSeconds: skipSeconds,
		player:      PlayerMsg{Volume: 100},
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case ConnectionMsg:
		m.connected = msg.Connected
		if msg.ServerURL != "" {
			m.serverURL = msg.ServerURL
		}
	case LibraryMsg:
		if m.lib == nil {
			m.lib = library.New(msg.Tree)
		} else {
			m.lib.Replace(msg.Tree)
		}
		if msg.Progress != nil {
			m.libProgress = msg.Progress
		}
	case HistoryMsg:
		m.entries = msg.Entries
		if m.histSel >= len(m.entries) {
			m.histSel = len(m.entries) - 1
		}
		if m.histSel < 0 {
			m.histSel = 0
		}
	case PlayerMsg:
		m.player = msg
		m.hasPlayer = msg.EpisodeID != 0
	case StatusMsg:
		m.status = msg.Text
	}
	return m, nil
}

// handleKey routes keys: global first, then the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.send(Command{Kind: CmdQuit})
		return m, tea.Quit
	case "tab":
		m.view = (m.view + 1) % viewCount
		return m, nil
	}

	switch m.view {
	case viewLibrary:
		return m.handleLibraryKey(msg)
	case viewPlayer:
		return m.handlePlayerKey(msg)
	case viewHistory:
		return m.handleHistoryKey(msg)
	}
	return m, nil
}

func (m Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "r" {
		m.send(Command{Kind: CmdReloadLibrary})
		m.status = "Reloading library..."
		return m, nil
	}
	if m.lib == nil {
		return m, nil
	}
	switch msg.String() {
	case "up", "k":
		m.lib.MoveUp()
	case "down", "j":
		m.lib.MoveDown()
	case "left", "h":
		if row, ok := m.lib.Selected(); ok && row.Kind == library.RowFolder && row.Expanded {
			m.lib.Toggle()
		}
	case "right", "l":
		if row, ok := m.lib.Selected(); ok && row.Kind == library.RowFolder && !row.Expanded {
			m.lib.Toggle()
		}
	case "enter":
		row, ok := m.lib.Selected()
		if !ok {
			break
		}
		switch {
		case row.Kind == library.RowFolder:
			m.lib.Toggle()
		case row.Episode != nil:
			m.send(Command{Kind: CmdSelectEpisode, EpisodeID: row.Episode.ID})
			m.view = viewPlayer
		}
	}
	return m, nil
}

func (m Model) handlePlayerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ", "space":
		m.send(Command{Kind: CmdTogglePlay})
	case "left":
		m.send(Command{Kind: CmdSeekBy, Seconds: -m.skipSeconds})
	case "right":
		m.send(Command{Kind: CmdSeekBy, Seconds: m.skipSeconds})
	case "n":
		m.send(Command{Kind: CmdNextChunk})
	case "p":
		m.send(Command{Kind: CmdPrevChunk})
	case "up", "+", "=":
		m.player.Volume = clampVolume(m.player.Volume + 5)
		m.send(Command{Kind: CmdSetVolume, Volume: m.player.Volume})
	case "down", "-":
		m.player.Volume = clampVolume(m.player.Volume - 5)
		m.send(Command{Kind: CmdSetVolume, Volume: m.player.Volume})
	case "m":
		m.player.Muted = !m.player.Muted
		m.send(Command{Kind: CmdToggleMute})
	}
	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.histSel > 0 {
			m.histSel--
		}
	case "down", "j":
		if m.histSel < len(m.entries)-1 {
			m.histSel++
		}
	case "enter":
		if m.histSel >= 0 && m.histSel < len(m.entries) {
			m.send(Command{Kind: CmdSelectEpisode, EpisodeID: m.entries[m.histSel].EpisodeID})
			m.view = viewPlayer
		}
	}
	return m, nil
}

// send pushes a command without ever blocking the render loop.
func (m Model) send(cmd Command) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Commands <- cmd:
	default:
	}
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
