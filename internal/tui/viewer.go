// Package tui is an interactive terminal viewer for generated scenes:
// a pannable ASCII heat map of the canvas with optional ground-truth
// source markers.
package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/psfsim/internal/grid"
	"github.com/san-kum/psfsim/internal/scene"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// shades orders display characters by intensity.
var shades = []rune(" .:-=+*#%@")

const panStep = 4

type viewer struct {
	runID   string
	canvas  *grid.Grid
	sources []scene.Source

	offX, offY  int
	showSources bool
	logScale    bool
	maxValue    float64

	width  int
	height int
}

// NewViewer builds the viewer model. Sources may be nil.
func NewViewer(runID string, canvas *grid.Grid, sources []scene.Source) viewer {
	return viewer{
		runID:       runID,
		canvas:      canvas,
		sources:     sources,
		showSources: true,
		maxValue:    canvas.Max(),
		width:       80,
		height:      24,
	}
}

func (v viewer) Init() tea.Cmd { return nil }

func (v viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v = v.clampPan()
		return v, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "escape":
			return v, tea.Quit
		case "left", "h":
			v.offX -= panStep
		case "right", "l":
			v.offX += panStep
		case "up", "k":
			v.offY -= panStep
		case "down", "j":
			v.offY += panStep
		case "0", "g":
			v.offX, v.offY = 0, 0
		case "s":
			v.showSources = !v.showSources
		case "L":
			v.logScale = !v.logScale
		}
		v = v.clampPan()
		return v, nil
	}
	return v, nil
}

func (v viewer) viewport() (w, h int) {
	w = v.width - 4
	h = v.height - 6
	if w < 20 {
		w = 20
	}
	if h < 8 {
		h = 8
	}
	if w > v.canvas.NX() {
		w = v.canvas.NX()
	}
	if h > v.canvas.NY() {
		h = v.canvas.NY()
	}
	return w, h
}

func (v viewer) clampPan() viewer {
	w, h := v.viewport()
	maxX := v.canvas.NX() - w
	maxY := v.canvas.NY() - h
	if v.offX > maxX {
		v.offX = maxX
	}
	if v.offY > maxY {
		v.offY = maxY
	}
	if v.offX < 0 {
		v.offX = 0
	}
	if v.offY < 0 {
		v.offY = 0
	}
	return v
}

func (v viewer) shade(val float64) rune {
	if v.maxValue <= 0 || val <= 0 {
		return shades[0]
	}
	var t float64
	if v.logScale {
		t = math.Log1p(val) / math.Log1p(v.maxValue)
	} else {
		t = val / v.maxValue
	}
	idx := int(t * float64(len(shades)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(shades) {
		idx = len(shades) - 1
	}
	return shades[idx]
}

func (v viewer) View() string {
	w, h := v.viewport()

	rows := make([][]rune, h)
	for ry := 0; ry < h; ry++ {
		rows[ry] = make([]rune, w)
		for rx := 0; rx < w; rx++ {
			rows[ry][rx] = v.shade(v.canvas.At(v.offY+ry, v.offX+rx))
		}
	}

	marked := map[[2]int]bool{}
	if v.showSources {
		for _, s := range v.sources {
			rx := int(math.Round(s.X)) - v.offX
			ry := int(math.Round(s.Y)) - v.offY
			if rx >= 0 && rx < w && ry >= 0 && ry < h {
				rows[ry][rx] = '+'
				marked[[2]int{ry, rx}] = true
			}
		}
	}

	var b strings.Builder
	scale := "linear"
	if v.logScale {
		scale = "log"
	}
	b.WriteString(fmt.Sprintf("\n  %s  %s  %s\n",
		cyan.Render(v.runID),
		dim.Render(fmt.Sprintf("%dx%d  offset (%d,%d)  %s", v.canvas.NX(), v.canvas.NY(), v.offX, v.offY, scale)),
		white.Render(fmt.Sprintf("peak %.3g", v.maxValue))))

	for ry, row := range rows {
		b.WriteString("  ")
		if len(marked) == 0 {
			b.WriteString(string(row))
		} else {
			for rx, c := range row {
				if marked[[2]int{ry, rx}] {
					b.WriteString(yellow.Render(string(c)))
				} else {
					b.WriteRune(c)
				}
			}
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n" + dim.Render("  ←↓↑→ pan   s sources   L log scale   0 reset   q quit") + "\n")
	return b.String()
}

// Run opens the viewer in the alternate screen.
func Run(runID string, canvas *grid.Grid, sources []scene.Source) error {
	p := tea.NewProgram(NewViewer(runID, canvas, sources), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
