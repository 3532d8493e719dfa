// ABOUTME: Rendering for the TUI's library, player, and history views
// ABOUTME: Pure string builders over the model state
package ui

import (
	"fmt"
	"strings"

	"github.com/theepicsaxguy/OpenVox/internal/library"
	"github.com/theepicsaxguy/OpenVox/internal/studio"
	"github.com/theepicsaxguy/OpenVox/pkg/playback"
)

// View renders the active view between a shared header and footer.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	switch m.view {
	case viewLibrary:
		b.WriteString(m.renderLibrary())
	case viewPlayer:
		b.WriteString(m.renderPlayer())
	case viewHistory:
		b.WriteString(m.renderHistory())
	}
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	conn := warnStyle.Render("offline")
	if m.connected {
		conn = valueStyle.Render(m.serverURL)
	}

	names := [...]string{"Library", "Player", "History"}
	tabs := make([]string, len(names))
	for i, name := range names {
		if view(i) == m.view {
			tabs[i] = selectedStyle.Render(name)
		} else {
			tabs[i] = faintStyle.Render(name)
		}
	}

	return titleStyle.Render("voxplay") + "  " + conn + "\n" +
		strings.Join(tabs[:], "  ") + "\n\n"
}

func (m Model) renderLibrary() string {
	if m.lib == nil || m.lib.Len() == 0 {
		return faintStyle.Render("No episodes yet. Press r to reload.") + "\n"
	}

	rows := m.lib.Rows()
	sel := m.lib.SelectedIndex()
	start, end := window(len(rows), sel, m.contentHeight())

	var b strings.Builder
	for i := start; i < end; i++ {
		line := truncate(renderRow(rows[i], m.libProgress), m.width-2)
		if i == sel {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderRow(row library.Row, progress map[int64]float64) string {
	indent := strings.Repeat("  ", row.Depth)
	if row.Kind == library.RowFolder {
		arrow := "▸"
		if row.Expanded {
			arrow = "▾"
		}
		return fmt.Sprintf("%s%s %s", indent, arrow, row.Name)
	}

	ep := row.Episode
	dur := ""
	if ep.TotalDuration > 0 {
		dur = "  " + fmtTime(ep.TotalDuration)
	}
	heard := ""
	if pct, ok := progress[ep.ID]; ok {
		if pct >= 100 {
			heard = "  ✓"
		} else {
			heard = fmt.Sprintf("  %.0f%%", pct)
		}
	}
	note := ""
	switch ep.Status {
	case studio.EpisodeQueued:
		note = "  (queued)"
	case studio.EpisodeGenerating:
		note = "  (generating)"
	case studio.EpisodeFailed:
		note = "  (failed)"
	}
	return fmt.Sprintf("%s• %s%s%s%s", indent, row.Name, dur, heard, note)
}

func (m Model) renderPlayer() string {
	if !m.hasPlayer {
		return faintStyle.Render("Nothing playing. Pick an episode from the library.") + "\n"
	}
	p := m.player

	var b strings.Builder
	b.WriteString(headerStyle.Render(truncate(p.Title, m.width-2)) + "\n\n")

	stateLine := fmt.Sprintf("%s %s", stateIcon(p.State), p.State)
	if p.ChunkCount > 0 {
		stateLine += fmt.Sprintf("   chunk %d/%d", p.ChunkOrdinal, p.ChunkCount)
	}
	b.WriteString(valueStyle.Render(stateLine) + "\n\n")

	approx := ""
	if p.Unknown > 0 {
		approx = "~"
	}
	times := fmt.Sprintf("%s / %s%s", fmtTime(p.Elapsed), fmtTime(p.Total), approx)
	barWidth := m.width - len(times) - 4
	if barWidth > 50 {
		barWidth = 50
	}
	if barWidth > 0 {
		b.WriteString(renderBar(int(p.Percent), 100, barWidth) + " " + times + "\n")
	} else {
		b.WriteString(times + "\n")
	}

	if wave := renderWaveform(p.Waveform); wave != "" {
		b.WriteString(faintStyle.Render(wave) + "\n")
	}
	b.WriteString("\n")

	if p.Line != "" {
		b.WriteString(valueStyle.Render(truncate(p.Line, m.width-2)) + "\n\n")
	}

	muteIcon := ""
	if p.Muted {
		muteIcon = " muted"
	}
	b.WriteString(fmt.Sprintf("vol [%s] %d%%%s\n", renderBar(p.Volume, 100, 10), p.Volume, muteIcon))

	return b.String()
}

func (m Model) renderHistory() string {
	if len(m.entries) == 0 {
		return faintStyle.Render("No listening history yet.") + "\n"
	}

	start, end := window(len(m.entries), m.histSel, m.contentHeight())

	var b strings.Builder
	for i := start; i < end; i++ {
		e := m.entries[i]
		line := truncate(fmt.Sprintf("%s  %3.0f%%  %s",
			e.Title, e.Percent, e.LastPlayed.Format("Jan 02 15:04")), m.width-2)
		if i == m.histSel {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFooter() string {
	var help string
	switch m.view {
	case viewLibrary:
		help = "↑/↓ move  enter open  r reload  tab switch  q quit"
	case viewPlayer:
		help = "space play/pause  ←/→ seek  n/p chunk  ↑/↓ vol  m mute  tab switch  q quit"
	case viewHistory:
		help = "↑/↓ move  enter resume  tab switch  q quit"
	}

	s := "\n"
	if m.status != "" {
		s += valueStyle.Render(truncate(m.status, m.width)) + "\n"
	}
	return s + faintStyle.Render(help) + "\n"
}

// contentHeight is the line budget between header and footer.
func (m Model) contentHeight() int {
	h := m.height - 7
	if h < 3 {
		h = 3
	}
	return h
}

// window slides a fixed-size view over n rows keeping sel visible.
func window(n, sel, size int) (start, end int) {
	if sel >= size {
		start = sel - size + 1
	}
	end = start + size
	if end > n {
		end = n
	}
	return start, end
}

func stateIcon(s playback.State) string {
	switch s {
	case playback.StatePlaying:
		return "▶"
	case playback.StatePaused:
		return "⏸"
	case playback.StateLoading:
		return "…"
	case playback.StateComplete:
		return "✓"
	default:
		return "·"
	}
}

var waveRunes = []rune(" ▁▂▃▄▅▆▇█")

func renderWaveform(peaks []float64) string {
	if len(peaks) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range peaks {
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		b.WriteRune(waveRunes[int(p*float64(len(waveRunes)-1))])
	}
	return b.String()
}

func renderBar(value, max, width int) string {
	if max <= 0 || width <= 0 {
		return ""
	}
	filled := value * width / max
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func fmtTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds + 0.5)
	h := total / 3600
	mnt := (total % 3600) / 60
	sec := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mnt, sec)
	}
	return fmt.Sprintf("%d:%02d", mnt, sec)
}

func truncate(s string, length int) string {
	if length <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	if length <= 3 {
		return string(r[:length])
	}
	return string(r[:length-3]) + "..."
}
