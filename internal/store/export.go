package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/psfsim/internal/scene"
)

// ExportData is the single-document JSON form of a scene, convenient
// for piping into external analysis tools.
type ExportData struct {
	Meta    RunMetadata    `json:"meta"`
	Sources []scene.Source `json:"sources"`
	Canvas  [][]float64    `json:"canvas"`
}

func ExportJSON(path string, sc *scene.Scene, meta RunMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return exportJSON(file, sc, meta)
}

func ExportJSONStdout(sc *scene.Scene, meta RunMetadata) error {
	return exportJSON(os.Stdout, sc, meta)
}

func exportJSON(w io.Writer, sc *scene.Scene, meta RunMetadata) error {
	meta.Width = sc.Canvas.NX()
	meta.Height = sc.Canvas.NY()
	meta.Accepted = sc.Sources.Len()
	meta.TotalFlux = sc.Sources.TotalFlux()

	canvas := make([][]float64, sc.Canvas.NY())
	for iy := range canvas {
		canvas[iy] = sc.Canvas.Row(iy)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{
		Meta:    meta,
		Sources: sc.Sources.Rows(),
		Canvas:  canvas,
	})
}
