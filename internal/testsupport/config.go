package testsupport

import (
	"path/filepath"
	"testing"

	"photodistributor/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test:
// one source tree, a destination that does not exist yet, and private state
// and log directories. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.Sources = []string{filepath.Join(base, "source")}
	cfgVal.Paths.Destination = filepath.Join(base, "library")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithThreshold overrides the merge threshold.
func WithThreshold(threshold int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.Threshold = threshold
	}
}

// WithSources replaces the source list with directories below the base dir.
func WithSources(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.Sources = b.cfg.Paths.Sources[:0]
		for _, name := range names {
			b.cfg.Paths.Sources = append(b.cfg.Paths.Sources, filepath.Join(b.baseDir, name))
		}
	}
}

// WithIncludeDestination makes runs re-organize the destination itself.
func WithIncludeDestination() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.IncludeDestination = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
