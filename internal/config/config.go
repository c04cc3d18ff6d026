// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics    GraphicsConfig    `yaml:"graphics"`
	Scene       SceneConfig       `yaml:"scene"`
	Environment EnvironmentConfig `yaml:"environment"`
	Debug       DebugConfig       `yaml:"debug"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Wireframe  bool `yaml:"wireframe"`
}

// ModelConfig describes one model instance to load and place.
type ModelConfig struct {
	Path     string     `yaml:"path"`
	Position [3]float32 `yaml:"position"`
	Scale    float32    `yaml:"scale"`
	Movable  bool       `yaml:"movable"`
}

// SceneConfig holds the model list and framing settings.
type SceneConfig struct {
	Models    []ModelConfig `yaml:"models"`
	AutoFrame bool          `yaml:"auto_frame"`
}

// SkyConfig holds procedural sky parameters.
type SkyConfig struct {
	SunDirection [3]float32 `yaml:"sun_direction"`
	SunIntensity float32    `yaml:"sun_intensity"`
	SunPower     float32    `yaml:"sun_power"`
	HorizonColor [3]float32 `yaml:"horizon_color"`
	ZenithColor  [3]float32 `yaml:"zenith_color"`
}

// EnvironmentConfig holds image-based lighting settings. Panorama is a
// Radiance .hdr equirectangular image; when empty, or when Procedural is
// set, the environment comes from the procedural sky instead.
type EnvironmentConfig struct {
	Panorama       string    `yaml:"panorama"`
	Procedural     bool      `yaml:"procedural"`
	Sky            SkyConfig `yaml:"sky"`
	SkyFaceSize    int       `yaml:"sky_face_size"`
	CubemapSize    int       `yaml:"cubemap_size"`
	IrradianceSize int       `yaml:"irradiance_size"`
	PrefilterSize  int       `yaml:"prefilter_size"`
	PrefilterMips  int       `yaml:"prefilter_mips"`
	BRDFSize       int       `yaml:"brdf_size"`
}

// DebugConfig holds debugging toggles.
type DebugConfig struct {
	// CapturePath, when set, saves the first rendered frame as a PNG to
	// this path and exits.
	CapturePath string `yaml:"capture_path"`
	// PauseBeforeRender waits for input after setup, before the first
	// frame. Useful when attaching a GPU debugger.
	PauseBeforeRender bool `yaml:"pause_before_render"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Wireframe:  false,
		},
		Scene: SceneConfig{
			Models:    nil,
			AutoFrame: false,
		},
		Environment: EnvironmentConfig{
			Panorama:   "",
			Procedural: false,
			Sky: SkyConfig{
				SunDirection: [3]float32{0.5, 0.8, 0.3},
				SunIntensity: 6.0,
				SunPower:     64.0,
				HorizonColor: [3]float32{0.02, 0.02, 0.02},
				ZenithColor:  [3]float32{0.6, 0.7, 0.9},
			},
			SkyFaceSize:    128,
			CubemapSize:    512,
			IrradianceSize: 32,
			PrefilterSize:  128,
			PrefilterMips:  5,
			BRDFSize:       512,
		},
		Debug: DebugConfig{
			CapturePath:       "",
			PauseBeforeRender: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
