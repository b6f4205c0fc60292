package config

const (
	defaultConfigPath        = "~/.config/photodistributor/config.toml"
	defaultStateDir          = "~/.local/share/photodistributor"
	defaultLogDir            = "~/.local/share/photodistributor/logs"
	defaultThreshold         = 50
	defaultQuarantineDir     = "WeirdFiles"
	defaultMaxRenameAttempts = 1000
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// defaultExtensions covers common camera, RAW, and phone video formats.
var defaultExtensions = []string{
	"JPG", "JPEG", "PNG", "GIF", "BMP", "TIF", "TIFF", "HEIC", "HEIF", "WEBP",
	"DNG", "CR2", "CR3", "NEF", "ARW", "RAF", "ORF", "RW2",
	"MP4", "MOV", "AVI", "MKV", "3GP", "M4V", "MTS", "M2TS", "WMV", "MPG",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Organize: Organize{
			Threshold:         defaultThreshold,
			QuarantineDir:     defaultQuarantineDir,
			Extensions:        append([]string(nil), defaultExtensions...),
			MaxRenameAttempts: defaultMaxRenameAttempts,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
