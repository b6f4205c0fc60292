package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"

	"photodistributor/internal/jobs"
	"photodistributor/internal/logging"
	"photodistributor/internal/media"
)

// Inventory reports the files physically present in the destination.
// Directories that do not exist yield no files and no error.
type Inventory interface {
	// Existing lists the regular files directly inside dir.
	Existing(dir string) ([]*media.File, error)
	// Organized lists every regular file below root, skipping the skip
	// directory and everything under it.
	Organized(root, skip string) ([]*media.File, error)
}

// Options configures a Planner.
type Options struct {
	// Root is the destination directory.
	Root string
	// QuarantineDir is the quarantine directory name below Root.
	QuarantineDir string
	// Threshold is the merge threshold; buckets hold at most twice as many
	// files unless a single month is larger.
	Threshold int
	// MaxRenameAttempts bounds enumerated renaming per file.
	MaxRenameAttempts int
}

// Stats counts planning outcomes.
type Stats struct {
	Files              int
	Buckets            int
	Directories        int
	Adopted            int
	Renamed            int
	Duplicates         int
	Quarantined        int
	AlreadyQuarantined int
	// Relocated counts organized files moved to a new bucket in place of an
	// identical source file.
	Relocated          int
	Copies             int
	Moves              int
	Bytes              int64
}

// Result is the outcome of planning.
type Result struct {
	Jobs    []jobs.Job
	Buckets []Bucket
	// Counter is the next unused collision index.
	Counter int
	Stats   Stats
}

// Planner builds job lists. It holds no state between calls.
type Planner struct {
	opts      Options
	inventory Inventory
	logger    *slog.Logger
}

// New validates opts and returns a planner.
func New(opts Options, inventory Inventory, logger *slog.Logger) (*Planner, error) {
	if opts.Root == "" {
		return nil, errors.New("planner: destination root is required")
	}
	if opts.QuarantineDir == "" {
		return nil, errors.New("planner: quarantine directory name is required")
	}
	if opts.Threshold < 1 {
		return nil, fmt.Errorf("planner: threshold must be positive, got %d", opts.Threshold)
	}
	if opts.MaxRenameAttempts < 1 {
		return nil, fmt.Errorf("planner: max rename attempts must be positive, got %d", opts.MaxRenameAttempts)
	}
	if inventory == nil {
		return nil, errors.New("planner: inventory is required")
	}
	return &Planner{
		opts:      opts,
		inventory: inventory,
		logger:    logging.NewComponentLogger(logger, "planner"),
	}, nil
}

// QuarantineRoot returns the absolute quarantine directory.
func (p *Planner) QuarantineRoot() string {
	return filepath.Join(p.opts.Root, p.opts.QuarantineDir)
}

type quarantineKey struct {
	captured int64
	size     int64
}

// Plan sorts files and produces the ordered job list. counter is the first
// free collision index. The input slice is not modified, but descriptors are
// shared with the returned jobs.
func (p *Planner) Plan(ctx context.Context, files []*media.File, counter int) (Result, error) {
	logger := logging.WithContext(ctx, p.logger)
	if counter < 1 {
		counter = 1
	}

	sorted := slices.Clone(files)
	media.Sort(sorted)
	buckets := PlanBuckets(sorted, p.opts.Threshold)

	result := Result{Buckets: buckets, Counter: counter}
	result.Stats.Files = len(sorted)
	result.Stats.Buckets = len(buckets)

	quarantined, err := p.quarantinedKeys()
	if err != nil {
		return Result{}, err
	}
	organized, err := p.organizedIndex(sorted)
	if err != nil {
		return Result{}, err
	}

	qroot := p.QuarantineRoot()
	result.Jobs = append(result.Jobs, jobs.CreateDirectory(qroot))
	for _, year := range distinctYears(buckets) {
		result.Jobs = append(result.Jobs, jobs.CreateDirectory(filepath.Join(p.opts.Root, strconv.Itoa(year))))
	}

	for _, bucket := range buckets {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		dir := bucket.Dir(p.opts.Root)
		result.Jobs = append(result.Jobs, jobs.CreateDirectory(dir))

		claims := NewClaims()
		existing, err := p.inventory.Existing(dir)
		if err != nil {
			return Result{}, fmt.Errorf("inventory %s: %w", dir, err)
		}
		for _, f := range existing {
			if organized.relocated(f.Path) {
				continue
			}
			claims.Claim(f.Name(), f)
		}

		for _, file := range bucket.Files {
			source := file
			match := organized.find(file, dir)
			if match != nil {
				file = match
			}
			res, err := Resolve(file, claims, p.opts.MaxRenameAttempts)
			if err != nil {
				return Result{}, fmt.Errorf("bucket %s: %w", bucket.Label(), err)
			}
			switch res.Outcome {
			case OutcomeAdopt:
				if err := p.place(&result, file, filepath.Join(dir, res.Name)); err != nil {
					return Result{}, err
				}
				result.Stats.Adopted++
				if res.Renames > 0 {
					result.Stats.Renamed++
				}
				if match != nil {
					organized.consume(match)
					result.Stats.Relocated++
					logger.Debug("relocating organized copy",
						logging.String("path", source.Path),
						logging.String("organized", match.Path),
					)
				}
			case OutcomeDuplicate:
				result.Stats.Duplicates++
				logger.Debug("skipping exact duplicate",
					logging.String("path", file.Path),
					logging.String("existing", res.Claimant.Path),
				)
			case OutcomeQuarantine:
				key, err := keyFor(file)
				if err != nil {
					return Result{}, err
				}
				if entry, done := quarantined[key]; done {
					result.Stats.AlreadyQuarantined++
					logger.Info("conflict already quarantined, skipping",
						logging.String("path", file.Path),
						logging.String("quarantined_as", entry),
						logging.String(logging.FieldEventType, "quarantine_skipped"),
					)
					continue
				}
				chosen, candidate := QuarantineNames(result.Counter, file.Ext())
				quarantined[key] = filepath.Join(qroot, candidate)
				result.Jobs = append(result.Jobs,
					jobs.CopyFile(res.Claimant, filepath.Join(qroot, chosen)),
					jobs.CopyFile(file, filepath.Join(qroot, candidate)),
				)
				result.Stats.Copies += 2
				result.Stats.Quarantined++
				logger.Info("quarantining ambiguous duplicate",
					logging.String("path", file.Path),
					logging.String("existing", res.Claimant.Path),
					logging.Int("collision", result.Counter),
				)
				result.Counter++
			}
		}
		logger.Debug("bucket planned",
			logging.String("bucket", bucket.Label()),
			logging.Int("files", len(bucket.Files)),
			logging.Int("existing", len(existing)),
		)
	}

	for _, job := range result.Jobs {
		if job.Kind == jobs.KindCreateDirectory {
			result.Stats.Directories++
		}
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		for i, job := range result.Jobs {
			logger.Debug("jobs created", logging.Int("index", i), logging.String("job", job.String()))
		}
	}
	return result, nil
}

func (p *Planner) place(result *Result, file *media.File, target string) error {
	size, err := file.Size()
	if err != nil {
		return err
	}
	result.Stats.Bytes += size
	if file.Originated {
		result.Jobs = append(result.Jobs, jobs.MoveFile(file, target))
		result.Stats.Moves++
		return nil
	}
	result.Jobs = append(result.Jobs, jobs.CopyFile(file, target))
	result.Stats.Copies++
	return nil
}

// quarantinedKeys maps newcomer entries already in quarantine to their paths
// so a re-run does not quarantine the same conflict twice.
func (p *Planner) quarantinedKeys() (map[quarantineKey]string, error) {
	keys := make(map[quarantineKey]string)
	existing, err := p.inventory.Existing(p.QuarantineRoot())
	if err != nil {
		return nil, fmt.Errorf("inventory quarantine: %w", err)
	}
	for _, f := range existing {
		if _, chosen, ok := ParseQuarantineName(f.Name()); !ok || chosen {
			continue
		}
		key, err := keyFor(f)
		if err != nil {
			return nil, err
		}
		keys[key] = f.Path
	}
	return keys, nil
}

// organizedIndex holds files already organized anywhere in the destination,
// keyed by capture time and size. Files that are part of the planned input
// are left out; they are placed like any other input file.
type organizedIndex struct {
	byKey map[quarantineKey][]*media.File
	moved map[string]struct{}
}

func (p *Planner) organizedIndex(input []*media.File) (*organizedIndex, error) {
	idx := &organizedIndex{
		byKey: make(map[quarantineKey][]*media.File),
		moved: make(map[string]struct{}),
	}
	planned := make(map[string]struct{}, len(input))
	for _, f := range input {
		planned[f.Path] = struct{}{}
	}
	files, err := p.inventory.Organized(p.opts.Root, p.QuarantineRoot())
	if err != nil {
		return nil, fmt.Errorf("inventory destination: %w", err)
	}
	for _, f := range files {
		if _, ok := planned[f.Path]; ok {
			continue
		}
		key, err := keyFor(f)
		if err != nil {
			return nil, err
		}
		idx.byKey[key] = append(idx.byKey[key], f)
	}
	return idx, nil
}

// find returns an organized copy of file that lives outside dir. A copy must
// match capture time and size, and its name must be the file's name or an
// enumerated form of it. Copies already inside dir are left to the claims of
// that directory.
func (idx *organizedIndex) find(file *media.File, dir string) *media.File {
	if file.Originated {
		return nil
	}
	key, err := keyFor(file)
	if err != nil {
		return nil
	}
	for _, c := range idx.byKey[key] {
		if !EnumeratedFrom(c.Name(), file.Name()) {
			continue
		}
		if filepath.Dir(c.Path) == dir {
			return nil
		}
		if _, moved := idx.moved[c.Path]; moved {
			continue
		}
		return c
	}
	return nil
}

// consume marks c as moved out of its directory.
func (idx *organizedIndex) consume(c *media.File) {
	idx.moved[c.Path] = struct{}{}
}

func (idx *organizedIndex) relocated(path string) bool {
	_, ok := idx.moved[path]
	return ok
}

func keyFor(f *media.File) (quarantineKey, error) {
	size, err := f.Size()
	if err != nil {
		return quarantineKey{}, err
	}
	return quarantineKey{captured: f.Captured.UnixNano(), size: size}, nil
}

func distinctYears(buckets []Bucket) []int {
	var years []int
	for _, b := range buckets {
		if len(years) == 0 || years[len(years)-1] != b.Year {
			years = append(years, b.Year)
		}
	}
	return years
}
