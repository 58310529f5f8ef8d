package config

const (
	defaultConfigPath        = "~/.config/nvrgraph/config.toml"
	defaultLogDir            = "~/.local/share/nvrgraph/logs"
	defaultHistoryDB         = "~/.local/share/nvrgraph/history.db"
	defaultVideoOutputPath   = "/tmp/smartnvr-output.mp4"
	defaultRecordingDir      = "/tmp"
	defaultInferenceChannels = 1
	defaultMaxChannels       = 64
	defaultDevice            = "CPU"
	defaultBatchSize         = 1
	defaultInferenceInterval = 1
	defaultReclassify        = 1
	defaultTemplate          = "smartnvr"
	defaultLauncher          = "gst-launch-1.0"
	defaultInspector         = "gst-inspect-1.0"
	defaultCacheTTLSeconds   = 3600
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Catalog sources.
const (
	CatalogSourceInspect  = "inspect"
	CatalogSourceRegistry = "registry"
	CatalogSourceStatic   = "static"
)

// Disabled is the sentinel that turns the classification stage off.
const Disabled = "Disabled"

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:       defaultLogDir,
			HistoryDB:    defaultHistoryDB,
			CatalogCache: defaultCatalogCache(),
		},
		Output: Output{
			VideoOutputPath: defaultVideoOutputPath,
			RecordingDir:    defaultRecordingDir,
		},
		Channels: Channels{
			Inference: defaultInferenceChannels,
			Max:       defaultMaxChannels,
		},
		Detection: Detection{
			Device:            defaultDevice,
			BatchSize:         defaultBatchSize,
			InferenceInterval: defaultInferenceInterval,
		},
		Classification: Classification{
			ModelPath:          Disabled,
			Device:             defaultDevice,
			BatchSize:          defaultBatchSize,
			InferenceInterval:  defaultInferenceInterval,
			ReclassifyInterval: defaultReclassify,
		},
		Pipeline: Pipeline{
			Template: defaultTemplate,
			Launcher: defaultLauncher,
		},
		Catalog: Catalog{
			Source:          CatalogSourceInspect,
			Inspector:       defaultInspector,
			CacheTTLSeconds: defaultCacheTTLSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
