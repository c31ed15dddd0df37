// Package render draws boards and action logs for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/rules"
)

var (
	// Colors
	robotColor    = lipgloss.Color("#06B6D4")
	princessColor = lipgloss.Color("#F472B6")
	flowerColor   = lipgloss.Color("#10B981")
	obstacleColor = lipgloss.Color("#6B7280")
	mutedColor    = lipgloss.Color("#374151")
	errorColor    = lipgloss.Color("#EF4444")
	successColor  = lipgloss.Color("#10B981")

	// Styles
	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	cellStyles = map[grid.CellType]lipgloss.Style{
		grid.CellRobot:    lipgloss.NewStyle().Bold(true).Foreground(robotColor),
		grid.CellPrincess: lipgloss.NewStyle().Bold(true).Foreground(princessColor),
		grid.CellFlower:   lipgloss.NewStyle().Foreground(flowerColor),
		grid.CellObstacle: lipgloss.NewStyle().Foreground(obstacleColor),
		grid.CellEmpty:    lipgloss.NewStyle().Foreground(mutedColor),
	}
	okStyle   = lipgloss.NewStyle().Foreground(successColor)
	failStyle = lipgloss.NewStyle().Foreground(errorColor)
)

// Glyph returns the plain character for a cell.
func Glyph(w *grid.World, p grid.Position) string {
	switch w.CellAt(p) {
	case grid.CellRobot:
		return w.Orientation().Arrow()
	case grid.CellPrincess:
		return "P"
	case grid.CellFlower:
		return "*"
	case grid.CellObstacle:
		return "#"
	case grid.CellEmpty:
		return "."
	}
	return " "
}

// Plain draws the board as rows of space-separated glyphs.
func Plain(w *grid.World) string {
	var b strings.Builder
	for r := 0; r < w.Rows(); r++ {
		cells := make([]string, 0, w.Cols())
		for c := 0; c < w.Cols(); c++ {
			cells = append(cells, Glyph(w, grid.Pos(r, c)))
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// Board draws a coloured, bordered board with a summary line.
func Board(w *grid.World, title string) string {
	rows := make([]string, 0, w.Rows())
	for r := 0; r < w.Rows(); r++ {
		cells := make([]string, 0, w.Cols())
		for c := 0; c < w.Cols(); c++ {
			p := grid.Pos(r, c)
			cells = append(cells, cellStyles[w.CellAt(p)].Render(Glyph(w, p)))
		}
		rows = append(rows, strings.Join(cells, " "))
	}

	parts := []string{}
	if title != "" {
		parts = append(parts, titleStyle.Render(title))
	}
	parts = append(parts,
		boardStyle.Render(strings.Join(rows, "\n")),
		Summary(w),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Summary is the one-line status under a board.
func Summary(w *grid.World) string {
	princess := w.Princess()
	return strings.Join([]string{
		labelStyle.Render("status:") + " " + string(w.Status()),
		labelStyle.Render("held:") + fmt.Sprintf(" %d/%d", w.HeldCount(), w.Capacity()),
		labelStyle.Render("delivered:") + fmt.Sprintf(" %d/%d", w.Delivered(), w.InitialFlowers()),
		labelStyle.Render("princess:") + " " + princess.Mood(w.InitialFlowers()),
	}, "  ")
}

// Log draws an action log, one numbered line per record.
func Log(log []rules.Record) string {
	var b strings.Builder
	for i, r := range log {
		mark := okStyle.Render("ok ")
		if !r.OK {
			mark = failStyle.Render("err")
		}
		fmt.Fprintf(&b, "%4d  %s  %-12s %s\n", i+1, mark, r.Action.String(), r.Message)
	}
	return b.String()
}
