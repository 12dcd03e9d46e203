package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/psfsim/internal/grid"
	"github.com/san-kum/psfsim/internal/psf"
	"github.com/san-kum/psfsim/internal/scene"
)

const (
	DefaultFWHM          = 3.0
	DefaultPSFSize       = 25
	DefaultOversampling  = 4
	DefaultWidth         = 200
	DefaultHeight        = 150
	DefaultSources       = 10
	DefaultMinSeparation = 10.0
	DefaultFluxMin       = 100.0
	DefaultFluxMax       = 1000.0
)

type Config struct {
	PSF     PSFConfig   `yaml:"psf"`
	Scene   SceneConfig `yaml:"scene"`
	Seed    int64       `yaml:"seed"`
	Workers int         `yaml:"workers"`
}

type PSFConfig struct {
	FWHM         float64 `yaml:"fwhm"`
	Size         int     `yaml:"size"`
	Oversampling int     `yaml:"oversampling"`
	Policy       string  `yaml:"policy"`
	NormRadius   float64 `yaml:"norm_radius"`
	Degree       int     `yaml:"degree"`
	Smoothing    float64 `yaml:"smoothing"`
}

type SceneConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Sources       int     `yaml:"sources"`
	MinSeparation float64 `yaml:"min_separation"`
	Border        *int    `yaml:"border,omitempty"`
	PatchSize     int     `yaml:"patch_size,omitempty"`
	FluxMin       float64 `yaml:"flux_min"`
	FluxMax       float64 `yaml:"flux_max"`
}

func DefaultConfig() *Config {
	return &Config{
		PSF: PSFConfig{
			FWHM:         DefaultFWHM,
			Size:         DefaultPSFSize,
			Oversampling: DefaultOversampling,
			Policy:       "global-flux",
			Degree:       3,
		},
		Scene: SceneConfig{
			Width:         DefaultWidth,
			Height:        DefaultHeight,
			Sources:       DefaultSources,
			MinSeparation: DefaultMinSeparation,
			FluxMin:       DefaultFluxMin,
			FluxMax:       DefaultFluxMax,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BuildModel synthesizes the configured Gaussian sample grid and wraps
// it in a model under the configured normalization policy.
func (c *Config) BuildModel() (*psf.Model, error) {
	over := grid.PairOf(c.PSF.Oversampling)
	g, err := psf.GaussianGrid(c.PSF.FWHM, c.PSF.Size, over)
	if err != nil {
		return nil, err
	}

	var policy psf.Policy
	switch c.PSF.Policy {
	case "", "global-flux":
		policy = psf.GlobalFlux{}
	case "aperture":
		policy = psf.Aperture{Radius: c.PSF.NormRadius}
	default:
		return nil, fmt.Errorf("config: unknown normalization policy %q", c.PSF.Policy)
	}

	return psf.New(g, policy,
		psf.WithNormalization(true),
		psf.WithOversampling(over),
		psf.WithDegree(grid.PairOf(c.PSF.Degree)),
		psf.WithSmoothing(c.PSF.Smoothing),
	)
}

// SceneShape returns the configured (height, width) canvas shape.
func (c *Config) SceneShape() grid.Pair {
	return grid.Pair{Y: c.Scene.Height, X: c.Scene.Width}
}

// SceneConfig maps the run configuration onto generator options.
func (c *Config) SceneConfig() scene.Config {
	sc := scene.Config{
		MinSeparation: c.Scene.MinSeparation,
		Seed:          c.Seed,
		Workers:       c.Workers,
		ParamRanges: map[string][2]float64{
			psf.DefaultFluxName: {c.Scene.FluxMin, c.Scene.FluxMax},
		},
	}
	if c.Scene.PatchSize > 0 {
		sc.PatchShape = grid.PairOf(c.Scene.PatchSize)
	}
	if c.Scene.Border != nil {
		b := grid.PairOf(*c.Scene.Border)
		sc.Border = &b
	}
	return sc
}
