package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateRun checks the settings only a plan or run needs: a destination and
// at least one source, none of which lives inside the destination.
func (c *Config) ValidateRun() error {
	if strings.TrimSpace(c.Paths.Destination) == "" {
		return errors.New("paths.destination must be set (or pass --dest)")
	}
	if len(c.Paths.Sources) == 0 && !c.Organize.IncludeDestination {
		return errors.New("paths.sources must list at least one directory (or pass --source)")
	}
	quarantine := filepath.Join(c.Paths.Destination, c.Organize.QuarantineDir)
	for _, source := range c.Paths.Sources {
		if isWithin(source, quarantine) {
			return fmt.Errorf("source %q lies inside the quarantine directory %q", source, quarantine)
		}
		if isWithin(source, c.Paths.Destination) {
			return fmt.Errorf("source %q lies inside the destination %q; set organize.include_destination to reorganize it", source, c.Paths.Destination)
		}
	}
	return nil
}

func (c *Config) validateOrganize() error {
	if c.Organize.Threshold < 1 {
		return errors.New("organize.threshold must be at least 1")
	}
	if c.Organize.MaxRenameAttempts < 1 {
		return errors.New("organize.max_rename_attempts must be at least 1")
	}
	if len(c.Organize.Extensions) == 0 {
		return errors.New("organize.extensions must list at least one extension")
	}
	name := c.Organize.QuarantineDir
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("organize.quarantine_dir must be a plain directory name, got %q", name)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
