package config

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains source, destination, and state directory configuration.
type Paths struct {
	Sources     []string `toml:"sources"`
	Destination string   `toml:"destination"`
	StateDir    string   `toml:"state_dir"`
	LogDir      string   `toml:"log_dir"`
}

// Organize contains the knobs of the job planner.
type Organize struct {
	// Threshold controls month merging: consecutive months share a directory
	// while together they hold at most 2*Threshold files.
	Threshold int `toml:"threshold"`
	// QuarantineDir is the directory name (relative to the destination) that
	// receives ambiguous duplicates. Its presence marks a destination as ours.
	QuarantineDir string `toml:"quarantine_dir"`
	// Extensions lists recognized media extensions, compared case-insensitively.
	Extensions []string `toml:"extensions"`
	// FormatsFile optionally points at a formats.conf style list (one extension
	// per line, '#' starts a comment) merged into Extensions.
	FormatsFile        string `toml:"formats_file"`
	MaxRenameAttempts  int    `toml:"max_rename_attempts"`
	IncludeDestination bool   `toml:"include_destination"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for photodistributor.
//
// Configuration sections:
//   - Paths: source trees, destination root, and local state
//   - Organize: merge threshold, quarantine name, recognized formats
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Organize Organize `toml:"organize"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("photodistributor.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the local state and log directories. The
// destination is deliberately left alone: it is created by a run only after
// the destination safety check passed.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.LockDir()} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the SQLite run journal location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LockDir returns the directory holding per-destination run locks.
func (c *Config) LockDir() string {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.StateDir, "locks")
}

// ExtensionSet returns the recognized extensions keyed in upper case without
// the leading dot, the form used when matching files during a scan.
func (c *Config) ExtensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Organize.Extensions))
	for _, ext := range c.Organize.Extensions {
		if key := NormalizeExtension(ext); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// NormalizeExtension upper-cases an extension and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ReadFormatsFile parses a formats.conf style list: one extension per line,
// everything after '#' ignored, blank lines skipped.
func ReadFormatsFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open formats file: %w", err)
	}
	defer file.Close()

	var formats []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")
		if ext := NormalizeExtension(line); ext != "" {
			formats = append(formats, ext)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read formats file: %w", err)
	}
	return formats, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
