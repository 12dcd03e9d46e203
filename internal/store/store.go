package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/psfsim/internal/grid"
	"github.com/san-kum/psfsim/internal/scene"
)

// Store persists generated scenes, one directory per run holding
// metadata.json, sources.csv and canvas.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Seed      int64     `json:"seed"`
	Policy    string    `json:"policy"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Requested int       `json:"requested"`
	Accepted  int       `json:"accepted"`
	TotalFlux float64   `json:"total_flux"`
}

// Save writes the scene under a new run directory and returns the run
// id. An empty meta.ID gets a timestamp-derived id.
func (s *Store) Save(sc *scene.Scene, meta RunMetadata) (string, error) {
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("scene_%d", time.Now().Unix())
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Width = sc.Canvas.NX()
	meta.Height = sc.Canvas.NY()
	meta.Accepted = sc.Sources.Len()
	meta.TotalFlux = sc.Sources.TotalFlux()

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	srcFile, err := os.Create(filepath.Join(runDir, "sources.csv"))
	if err != nil {
		return "", err
	}
	defer srcFile.Close()
	if err := sc.Sources.WriteCSV(srcFile); err != nil {
		return "", err
	}

	if err := writeCanvas(filepath.Join(runDir, "canvas.csv"), sc.Canvas); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeCanvas(path string, g *grid.Grid) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	row := make([]string, g.NX())
	for iy := 0; iy < g.NY(); iy++ {
		for ix := range row {
			row[ix] = strconv.FormatFloat(g.At(iy, ix), 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns metadata for every run directory, skipping entries that
// do not parse.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadCanvas reads a run's canvas back into a grid.
func (s *Store) LoadCanvas(runID string) (*grid.Grid, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "canvas.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("store: empty canvas in run %s", runID)
	}

	rows := make([][]float64, len(records))
	for iy, rec := range records {
		rows[iy] = make([]float64, len(rec))
		for ix, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("store: canvas cell (%d,%d): %w", iy, ix, err)
			}
			rows[iy][ix] = v
		}
	}
	return grid.New(rows)
}

// LoadSources reads a run's source table. Columns beyond id/x/y/flux
// come back as extra parameters.
func (s *Store) LoadSources(runID string) ([]scene.Source, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "sources.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("store: empty source table in run %s", runID)
	}

	header := records[0]
	if len(header) < 4 {
		return nil, fmt.Errorf("store: malformed source header %v", header)
	}

	sources := make([]scene.Source, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("store: ragged source row %v", rec)
		}
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, err
		}
		src := scene.Source{ID: id}
		if src.X, err = strconv.ParseFloat(rec[1], 64); err != nil {
			return nil, err
		}
		if src.Y, err = strconv.ParseFloat(rec[2], 64); err != nil {
			return nil, err
		}
		if src.Flux, err = strconv.ParseFloat(rec[3], 64); err != nil {
			return nil, err
		}
		if len(header) > 4 {
			src.Extra = make(map[string]float64, len(header)-4)
			for i, name := range header[4:] {
				v, err := strconv.ParseFloat(rec[4+i], 64)
				if err != nil {
					return nil, err
				}
				src.Extra[name] = v
			}
		}
		sources = append(sources, src)
	}
	return sources, nil
}
