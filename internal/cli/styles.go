package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cwbudde/algo-entrain/graph"
	"github.com/cwbudde/algo-entrain/session"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
	meterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff9f"))
	hotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
)

// meterBar renders db in [floor, ceiling] as a bar of width cells.
func meterBar(db, floor, ceiling float64, width int) string {
	frac := (db - floor) / (ceiling - floor)
	if math.IsNaN(frac) {
		frac = 0
	}

	n := int(math.Round(math.Max(0, math.Min(1, frac)) * float64(width)))
	bar := strings.Repeat("█", n)

	style := meterStyle
	if frac > 0.9 {
		style = hotStyle
	}

	return style.Render(bar) + dimStyle.Render(strings.Repeat("·", width-n))
}

// statusLine renders the play status: transport, elapsed time and level.
func statusLine(st session.AudioState, m graph.MeterData, floor, ceiling float64) string {
	state := "stopped"
	if st.IsPlaying {
		state = "playing"
	}

	length := "∞"
	if st.SessionMinutes > 0 {
		length = fmt.Sprintf("%dm", st.SessionMinutes)
	}

	return fmt.Sprintf("%s %s/%s %s %s",
		labelStyle.Render(state),
		st.Elapsed.Truncate(time.Second),
		length,
		meterBar(m.RMS, floor, ceiling, 30),
		dimStyle.Render(fmt.Sprintf("%6.1f dB", m.RMS)),
	)
}
