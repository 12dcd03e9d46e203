package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/psfsim/internal/scene"
)

// SourceTable renders the ground-truth table with a styled header and
// one line per source.
func SourceTable(t *scene.Table) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%4s %10s %10s %12s", "id", "x", "y", "flux")))
	b.WriteByte('\n')
	for _, r := range t.Rows() {
		b.WriteString(fmt.Sprintf("%4d %10.3f %10.3f %12.3f", r.ID, r.X, r.Y, r.Flux))
		b.WriteByte('\n')
	}

	mean, std := t.FluxStats()
	summary := fmt.Sprintf("%d sources, flux mean %.1f +/- %.1f", t.Len(), mean, std)
	b.WriteString(subtleStyle.Render(summary))
	b.WriteByte('\n')
	return b.String()
}

// RunSummary renders a one-line styled description of a stored run.
func RunSummary(id string, width, height, accepted int, totalFlux float64) string {
	line := fmt.Sprintf("%s  %s  %s",
		valueStyle.Render(id),
		subtleStyle.Render(fmt.Sprintf("%dx%d", width, height)),
		fmt.Sprintf("%d sources, total flux %.1f", accepted, totalFlux))
	return panelStyle.Render(line)
}
