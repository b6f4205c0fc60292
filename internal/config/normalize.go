package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeOrganize(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	sources := make([]string, 0, len(c.Paths.Sources))
	seen := make(map[string]struct{}, len(c.Paths.Sources))
	for i, source := range c.Paths.Sources {
		if strings.TrimSpace(source) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(source))
		if err != nil {
			return fmt.Errorf("paths.sources[%d]: %w", i, err)
		}
		if _, dup := seen[expanded]; dup {
			continue
		}
		seen[expanded] = struct{}{}
		sources = append(sources, expanded)
	}
	c.Paths.Sources = sources

	if c.Paths.Destination, err = expandPath(strings.TrimSpace(c.Paths.Destination)); err != nil {
		return fmt.Errorf("paths.destination: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOrganize() error {
	c.Organize.QuarantineDir = strings.TrimSpace(c.Organize.QuarantineDir)
	if c.Organize.QuarantineDir == "" {
		c.Organize.QuarantineDir = defaultQuarantineDir
	}
	if c.Organize.MaxRenameAttempts == 0 {
		c.Organize.MaxRenameAttempts = defaultMaxRenameAttempts
	}

	extensions := append([]string(nil), c.Organize.Extensions...)
	if path := strings.TrimSpace(c.Organize.FormatsFile); path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return fmt.Errorf("organize.formats_file: %w", err)
		}
		c.Organize.FormatsFile = expanded
		formats, err := ReadFormatsFile(expanded)
		if err != nil {
			return fmt.Errorf("organize.formats_file: %w", err)
		}
		extensions = append(extensions, formats...)
	}

	normalized := make([]string, 0, len(extensions))
	seen := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		key := NormalizeExtension(ext)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, key)
	}
	c.Organize.Extensions = normalized
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
