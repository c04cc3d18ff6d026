package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagModel      = flag.String("model", "", "Path to a glTF model to view")
	flagEnv        = flag.String("env", "", "Path to an equirectangular .hdr panorama")
	flagProcedural = flag.Bool("procedural", false, "Use the procedural sky even when a panorama is configured")
	flagWireframe  = flag.Bool("wireframe", false, "Render in wireframe mode")
	flagAutoFrame  = flag.Bool("autoframe", false, "Fit the camera to the combined scene bounds")
	flagCapture    = flag.String("capture", "", "Save the first frame as PNG to this path and exit")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagSaveConfig = flag.Bool("save-config", false, "Write the resolved config to the user config directory")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveRequested reports whether --save-config was passed.
func SaveRequested() bool {
	return *flagSaveConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagModel != "" {
		cfg.Scene.Models = append(cfg.Scene.Models, ModelConfig{
			Path:  *flagModel,
			Scale: 1,
		})
	}
	if *flagEnv != "" {
		cfg.Environment.Panorama = *flagEnv
	}
	if *flagProcedural {
		cfg.Environment.Procedural = true
	}
	if *flagWireframe {
		cfg.Graphics.Wireframe = true
	}
	if *flagAutoFrame {
		cfg.Scene.AutoFrame = true
	}
	if *flagCapture != "" {
		cfg.Debug.CapturePath = *flagCapture
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
}
