package config

var Presets = map[string]*Config{
	"sparse": {
		PSF: PSFConfig{FWHM: 3, Size: 25, Oversampling: 4, Policy: "global-flux", Degree: 3},
		Scene: SceneConfig{
			Width: 400, Height: 300, Sources: 15,
			MinSeparation: 25, FluxMin: 100, FluxMax: 1000,
		},
	},
	"crowded": {
		PSF: PSFConfig{FWHM: 3, Size: 25, Oversampling: 4, Policy: "global-flux", Degree: 3},
		Scene: SceneConfig{
			Width: 200, Height: 200, Sources: 120,
			MinSeparation: 4, FluxMin: 50, FluxMax: 500,
		},
	},
	"wide": {
		PSF: PSFConfig{FWHM: 6, Size: 35, Oversampling: 2, Policy: "global-flux", Degree: 3},
		Scene: SceneConfig{
			Width: 300, Height: 300, Sources: 20,
			MinSeparation: 20, FluxMin: 200, FluxMax: 2000,
		},
	},
	"effective": {
		PSF: PSFConfig{FWHM: 3, Size: 25, Oversampling: 4, Policy: "aperture", NormRadius: 5.5, Degree: 3},
		Scene: SceneConfig{
			Width: 200, Height: 150, Sources: 10,
			MinSeparation: 10, FluxMin: 100, FluxMax: 1000,
		},
	},
}

func GetPreset(name string) *Config {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
