package scene

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/san-kum/psfsim/internal/grid"
	"github.com/san-kum/psfsim/internal/psf"
)

var (
	ErrNilModel     = errors.New("scene: nil model")
	ErrNoPatchShape = errors.New("scene: no patch shape given and model has no bounding box")
)

// DefaultFluxRange is the uniform flux range used when the caller does
// not provide one for the model's flux parameter.
var DefaultFluxRange = [2]float64{100, 1000}

// attemptsPerSource bounds the placement loop: a shortfall returns the
// sources accepted so far instead of looping forever.
const attemptsPerSource = 1000

// Model is the evaluation contract the generator needs. EvalWith must
// be safe for concurrent callers.
type Model interface {
	EvalWith(x, y, flux, x0, y0 float64) float64
}

// boundedModel supplies a default patch shape.
type boundedModel interface {
	BoundingBox() grid.Pair
}

// namedParams exposes custom fit-parameter names.
type namedParams interface {
	XName() string
	YName() string
	FluxName() string
}

// paramSetter accepts sampled extra-parameter values. Unknown names
// must return an error, which the generator ignores.
type paramSetter interface {
	SetParam(name string, v float64) error
}

// cloner yields an independent model copy whose parameters can be set
// without affecting the original. The parallel path requires it when
// extra parameters are in play.
type cloner interface {
	Clone() *psf.Model
}

// resolveNames returns the model's (x, y, flux) parameter names,
// falling back to the conventional defaults.
func resolveNames(m Model) (x, y, flux string) {
	if n, ok := m.(namedParams); ok {
		return n.XName(), n.YName(), n.FluxName()
	}
	return psf.DefaultXName, psf.DefaultYName, psf.DefaultFluxName
}

// Config tunes [Generate]. The zero value derives the patch shape from
// the model's bounding box, the border from the patch shape, and runs
// sequentially with seed 0.
type Config struct {
	// PatchShape is the (ny, nx) evaluation window around each source.
	// Zero means derive it from the model's bounding box.
	PatchShape grid.Pair

	// Border excludes source centers within the margin. Nil means
	// (patch-1)/2 per axis; an explicit zero pair allows centers
	// anywhere on the canvas.
	Border *grid.Pair

	// MinSeparation is the minimum pairwise center distance, in
	// pixels. Zero disables the constraint.
	MinSeparation float64

	Seed int64

	// ParamRanges maps parameter names to uniform sampling ranges.
	// The flux-name entry drives per-source flux (DefaultFluxRange
	// when absent); position-name entries are ignored since placement
	// owns positions. Remaining names are sampled in sorted order,
	// recorded in the table, and pushed into the model right before
	// each source's patch is evaluated.
	ParamRanges map[string][2]float64

	// Workers caps concurrent patch evaluations. Values below 2 run
	// sequentially. With extra parameters in play the parallel path
	// additionally needs a cloneable model; otherwise generation falls
	// back to the sequential path.
	Workers int

	// Progress, when non-nil, is called after each source is
	// accumulated.
	Progress func(done, total int)
}

// Scene is a generated canvas with its ground-truth source table.
type Scene struct {
	Canvas  *grid.Grid
	Sources *Table
}

// Generate places up to nSources sources on a shape-sized canvas and
// accumulates the model's patch evaluations. A placement shortfall is
// not an error; the table length reports the achieved count. The same
// seed and inputs produce an identical scene at any worker count.
func Generate(ctx context.Context, shape grid.Pair, m Model, nSources int, cfg Config) (*Scene, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	if err := shape.Validate("shape", 1); err != nil {
		return nil, err
	}
	if nSources < 0 {
		return nil, fmt.Errorf("scene: negative source count %d", nSources)
	}
	if cfg.MinSeparation < 0 {
		return nil, fmt.Errorf("scene: negative min separation %v", cfg.MinSeparation)
	}

	patch := cfg.PatchShape
	if patch.IsZero() {
		b, ok := m.(boundedModel)
		if !ok {
			return nil, ErrNoPatchShape
		}
		patch = b.BoundingBox()
	}
	if err := patch.Validate("patch shape", 1); err != nil {
		return nil, err
	}

	border := grid.Pair{Y: (patch.Y - 1) / 2, X: (patch.X - 1) / 2}
	if cfg.Border != nil {
		border = *cfg.Border
		if err := border.Validate("border", 0); err != nil {
			return nil, err
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	xs, ys, err := place(ctx, rng, shape, border, cfg.MinSeparation, nSources)
	if err != nil {
		return nil, err
	}

	xName, yName, fluxName := resolveNames(m)
	sources := sampleParams(rng, xs, ys, xName, yName, fluxName, cfg.ParamRanges)

	canvas := grid.Zeros(shape.Y, shape.X)
	hasExtras := false
	for _, s := range sources {
		if len(s.Extra) > 0 {
			hasExtras = true
			break
		}
	}
	if cfg.Workers > 1 && parallelSafe(m, hasExtras) {
		accumulateParallel(canvas, m, sources, patch, cfg.Workers, cfg.Progress)
	} else {
		accumulate(canvas, m, sources, patch, cfg.Progress)
	}

	return &Scene{Canvas: canvas, Sources: NewTable(sources)}, nil
}

// place draws candidate centers uniformly inside the border margin,
// rejecting any closer than minSep to an accepted center. The attempt
// budget bounds the loop; an empty admissible region yields no sources.
func place(ctx context.Context, rng *rand.Rand, shape, border grid.Pair, minSep float64, n int) (xs, ys []float64, err error) {
	xmin, xmax := float64(border.X), float64(shape.X-1-border.X)
	ymin, ymax := float64(border.Y), float64(shape.Y-1-border.Y)
	if xmax < xmin || ymax < ymin {
		return nil, nil, nil
	}

	budget := attemptsPerSource * n
	minSq := minSep * minSep
	for attempt := 0; attempt < budget && len(xs) < n; attempt++ {
		if attempt%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		x := xmin + rng.Float64()*(xmax-xmin)
		y := ymin + rng.Float64()*(ymax-ymin)
		ok := true
		for i := range xs {
			dx, dy := x-xs[i], y-ys[i]
			if dx*dx+dy*dy < minSq {
				ok = false
				break
			}
		}
		if ok {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys, nil
}

// parallelSafe reports whether patch evaluation may fan out. Extra
// parameters mutate the model per source, so the parallel path then
// needs a settable clone per worker.
func parallelSafe(m Model, hasExtras bool) bool {
	if !hasExtras {
		return true
	}
	if _, ok := m.(paramSetter); !ok {
		return true
	}
	_, ok := m.(cloner)
	return ok
}

// sampleParams draws flux and extra parameters per accepted source in
// sorted name order. Extra values are only recorded here; they are
// applied to the model when the source's patch is evaluated.
func sampleParams(rng *rand.Rand, xs, ys []float64, xName, yName, fluxName string, ranges map[string][2]float64) []Source {
	fluxRange := DefaultFluxRange
	if r, ok := ranges[fluxName]; ok {
		fluxRange = r
	}

	var extraNames []string
	for name := range ranges {
		if name == xName || name == yName || name == fluxName {
			continue
		}
		extraNames = append(extraNames, name)
	}
	sort.Strings(extraNames)

	sources := make([]Source, len(xs))
	for i := range xs {
		s := Source{
			ID:   i + 1,
			X:    xs[i],
			Y:    ys[i],
			Flux: uniform(rng, fluxRange),
		}
		if len(extraNames) > 0 {
			s.Extra = make(map[string]float64, len(extraNames))
			for _, name := range extraNames {
				s.Extra[name] = uniform(rng, ranges[name])
			}
		}
		sources[i] = s
	}
	return sources
}

// applyExtras pushes a source's sampled extra parameters into the
// model before its patch is evaluated. Names the model does not expose
// are ignored.
func applyExtras(m Model, s Source) {
	if len(s.Extra) == 0 {
		return
	}
	setter, ok := m.(paramSetter)
	if !ok {
		return
	}
	for name, v := range s.Extra {
		_ = setter.SetParam(name, v)
	}
}

func uniform(rng *rand.Rand, r [2]float64) float64 {
	return r[0] + rng.Float64()*(r[1]-r[0])
}

// patchWindow is the canvas-clipped pixel window of a patch centered
// on the rounded source position.
func patchWindow(canvas *grid.Grid, patch grid.Pair, s Source) (top, left, bottom, right int) {
	top = int(math.Round(s.Y)) - patch.Y/2
	left = int(math.Round(s.X)) - patch.X/2
	bottom = top + patch.Y
	right = left + patch.X
	if top < 0 {
		top = 0
	}
	if left < 0 {
		left = 0
	}
	if bottom > canvas.NY() {
		bottom = canvas.NY()
	}
	if right > canvas.NX() {
		right = canvas.NX()
	}
	return top, left, bottom, right
}

func accumulate(canvas *grid.Grid, m Model, sources []Source, patch grid.Pair, progress func(done, total int)) {
	for i, s := range sources {
		applyExtras(m, s)
		top, left, bottom, right := patchWindow(canvas, patch, s)
		for cy := top; cy < bottom; cy++ {
			for cx := left; cx < right; cx++ {
				canvas.Add(cy, cx, m.EvalWith(float64(cx), float64(cy), s.Flux, s.X, s.Y))
			}
		}
		if progress != nil {
			progress(i+1, len(sources))
		}
	}
}

// accumulateParallel evaluates patches on a pool of workers and
// reduces them onto the canvas in source order, so the result is
// bit-identical to the sequential path. Each worker evaluates through
// its own model clone when one is available, so per-source extra
// parameters never leak between concurrent patches.
func accumulateParallel(canvas *grid.Grid, m Model, sources []Source, patch grid.Pair, workers int, progress func(done, total int)) {
	patches := make([][]float64, len(sources))
	if workers > len(sources) {
		workers = len(sources)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker := m
			if c, ok := m.(cloner); ok {
				worker = c.Clone()
			}
			for idx := range jobs {
				s := sources[idx]
				applyExtras(worker, s)
				top, left, bottom, right := patchWindow(canvas, patch, s)
				buf := make([]float64, (bottom-top)*(right-left))
				k := 0
				for cy := top; cy < bottom; cy++ {
					for cx := left; cx < right; cx++ {
						buf[k] = worker.EvalWith(float64(cx), float64(cy), s.Flux, s.X, s.Y)
						k++
					}
				}
				patches[idx] = buf
			}
		}()
	}
	for i := range sources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, s := range sources {
		top, left, bottom, right := patchWindow(canvas, patch, s)
		k := 0
		for cy := top; cy < bottom; cy++ {
			for cx := left; cx < right; cx++ {
				canvas.Add(cy, cx, patches[i][k])
				k++
			}
		}
		if progress != nil {
			progress(i+1, len(sources))
		}
	}
}
