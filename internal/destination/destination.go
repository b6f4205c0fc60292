package destination

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"photodistributor/internal/logging"
	"photodistributor/internal/media"
	"photodistributor/internal/metadata"
	"photodistributor/internal/planner"
	"photodistributor/internal/services"
)

// ErrUnrecognizedDestination reports a populated destination that was not
// produced by this tool.
var ErrUnrecognizedDestination = errors.New("destination is not empty and was not organized by photodistributor")

// Check refuses root when it is a non-empty directory that lacks the
// quarantine directory, unless known says an earlier run organized it. A
// missing root is accepted; it is created by the run.
func Check(root, quarantineDir string, known bool) error {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return services.Wrap(services.ErrValidation, "safety", "stat destination", root, err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrValidation, "safety", "stat destination", root, errors.New("not a directory"))
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return services.Wrap(services.ErrValidation, "safety", "list destination", root, err)
	}
	if len(entries) == 0 || known {
		return nil
	}
	for _, entry := range entries {
		if entry.Name() == quarantineDir && entry.IsDir() {
			return nil
		}
	}
	return services.Wrap(
		services.ErrValidation,
		"safety",
		"check destination",
		fmt.Sprintf("%s has %d entries and no %s directory", root, len(entries), quarantineDir),
		ErrUnrecognizedDestination,
	)
}

// NextCollisionIndex returns one past the highest collision index found in
// the quarantine directory, or 1 when there is none.
func NextCollisionIndex(quarantineRoot string) (int, error) {
	entries, err := os.ReadDir(quarantineRoot)
	if errors.Is(err, fs.ErrNotExist) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read quarantine: %w", err)
	}
	highest := 0
	for _, entry := range entries {
		if idx, _, ok := planner.ParseQuarantineName(entry.Name()); ok && idx > highest {
			highest = idx
		}
	}
	return highest + 1, nil
}

// Inventory lists files already present in destination directories. It
// satisfies planner.Inventory.
type Inventory struct {
	resolver *metadata.Resolver
	logger   *slog.Logger
}

// NewInventory builds an inventory that timestamps files with resolver.
func NewInventory(resolver *metadata.Resolver, logger *slog.Logger) *Inventory {
	return &Inventory{resolver: resolver, logger: logging.NewComponentLogger(logger, "inventory")}
}

// Existing returns the regular files directly inside dir. Every file is
// marked as originated from an earlier run.
func (inv *Inventory) Existing(dir string) ([]*media.File, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	files := make([]*media.File, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		ts, err := inv.resolver.Resolve(path)
		if err != nil {
			return nil, err
		}
		f, err := media.NewFile(path, ts.Time, media.WithSize(info.Size()), media.Originated())
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	inv.logger.Debug("inventoried directory", logging.String("dir", dir), logging.Int("files", len(files)))
	return files, nil
}

// Organized returns every regular file below root except those under skip.
// Files are marked as originated. A missing root yields no files.
func (inv *Inventory) Organized(root, skip string) ([]*media.File, error) {
	var files []*media.File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root && errors.Is(walkErr, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return walkErr
		}
		if d.IsDir() {
			if path == skip {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		ts, err := inv.resolver.Resolve(path)
		if err != nil {
			return err
		}
		f, err := media.NewFile(path, ts.Time, media.WithSize(info.Size()), media.Originated())
		if err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	inv.logger.Debug("inventoried destination", logging.String("root", root), logging.Int("files", len(files)))
	return files, nil
}
