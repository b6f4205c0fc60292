// Package scan walks source trees and produces timestamped media descriptors.
package scan

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"photodistributor/internal/logging"
	"photodistributor/internal/media"
	"photodistributor/internal/metadata"
)

// Options selects what a scan visits.
type Options struct {
	Sources     []string
	Destination string
	// QuarantineDir is skipped wherever it appears directly below
	// Destination.
	QuarantineDir string
	// Extensions holds upper-case extensions without the leading dot.
	Extensions map[string]struct{}
	// IncludeDestination walks Destination as well; its files are marked
	// originated and get moved instead of copied.
	IncludeDestination bool
}

// Stats counts scan outcomes.
type Stats struct {
	Files       int
	Ignored     int
	Unreadable  int
	Fallbacks   int
	Originated  int
	TotalBytes  int64
	SourceRoots int
}

// Result is the outcome of a scan.
type Result struct {
	Files []*media.File
	Stats Stats
}

// Scanner walks configured roots.
type Scanner struct {
	opts     Options
	resolver *metadata.Resolver
	logger   *slog.Logger
}

// New builds a scanner. A nil resolver means EXIF with the modification-time
// fallback.
func New(opts Options, resolver *metadata.Resolver, logger *slog.Logger) *Scanner {
	if resolver == nil {
		resolver = metadata.NewResolver(nil, logger)
	}
	return &Scanner{opts: opts, resolver: resolver, logger: logging.NewComponentLogger(logger, "scan")}
}

type root struct {
	path       string
	originated bool
}

// Scan walks every root and returns descriptors for recognized files.
// Unreadable entries are logged and skipped; a missing source root is an error.
func (s *Scanner) Scan(ctx context.Context) (Result, error) {
	logger := logging.WithContext(ctx, s.logger)
	var roots []root
	for _, src := range s.opts.Sources {
		roots = append(roots, root{path: src})
	}
	if s.opts.IncludeDestination && s.opts.Destination != "" {
		roots = append(roots, root{path: s.opts.Destination, originated: true})
	}

	var result Result
	seen := make(map[string]struct{})
	quarantine := ""
	if s.opts.Destination != "" && s.opts.QuarantineDir != "" {
		quarantine = filepath.Join(s.opts.Destination, s.opts.QuarantineDir)
	}

	for _, r := range roots {
		result.Stats.SourceRoots++
		err := filepath.WalkDir(r.path, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				if path == r.path {
					// A destination that does not exist yet has nothing to reorganize.
					if r.originated && errors.Is(walkErr, fs.ErrNotExist) {
						return fs.SkipAll
					}
					return walkErr
				}
				result.Stats.Unreadable++
				logging.WarnWithContext(logger, "skipping unreadable entry", "scan_unreadable",
					logging.String("path", path),
					logging.Error(walkErr),
					logging.String(logging.FieldErrorHint, "check permissions on the source tree"),
					logging.String(logging.FieldImpact, "file left out of this run"),
				)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path == quarantine {
					return fs.SkipDir
				}
				if !r.originated && s.opts.Destination != "" && path == s.opts.Destination && path != r.path {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !s.recognized(d.Name()) {
				result.Stats.Ignored++
				return nil
			}
			if _, dup := seen[path]; dup {
				return nil
			}
			seen[path] = struct{}{}

			f, err := s.describe(path, d, r.originated)
			if err != nil {
				result.Stats.Unreadable++
				logging.WarnWithContext(logger, "skipping file without timestamp", "scan_unreadable",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check permissions on the file"),
					logging.String(logging.FieldImpact, "file left out of this run"),
				)
				return nil
			}
			if f.ts.Source == metadata.SourceModTime {
				result.Stats.Fallbacks++
			}
			if r.originated {
				result.Stats.Originated++
			}
			size, _ := f.file.Size()
			result.Stats.TotalBytes += size
			result.Files = append(result.Files, f.file)
			return nil
		})
		if err != nil {
			return Result{}, err
		}
	}

	result.Stats.Files = len(result.Files)
	logger.Info("scan complete",
		logging.Int("files", result.Stats.Files),
		logging.Int("ignored", result.Stats.Ignored),
		logging.Int("unreadable", result.Stats.Unreadable),
		logging.Int("timestamp_fallbacks", result.Stats.Fallbacks),
		logging.Int("originated", result.Stats.Originated),
	)
	return result, nil
}

type described struct {
	file *media.File
	ts   metadata.Timestamp
}

func (s *Scanner) describe(path string, d fs.DirEntry, originated bool) (described, error) {
	info, err := d.Info()
	if err != nil {
		return described{}, err
	}
	ts, err := s.resolver.Resolve(path)
	if err != nil {
		return described{}, err
	}
	opts := []media.Option{media.WithSize(info.Size())}
	if originated {
		opts = append(opts, media.Originated())
	}
	f, err := media.NewFile(path, ts.Time, opts...)
	if err != nil {
		return described{}, err
	}
	return described{file: f, ts: ts}, nil
}

func (s *Scanner) recognized(name string) bool {
	ext := strings.ToUpper(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	_, ok := s.opts.Extensions[ext]
	return ok
}
