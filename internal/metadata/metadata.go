package metadata

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"photodistributor/internal/logging"
)

// Source records where a capture timestamp came from.
type Source string

const (
	SourceEXIF    Source = "exif"
	SourceModTime Source = "mtime"
)

// earliestPlausible rejects zeroed or garbage EXIF dates.
var earliestPlausible = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Unavailable reports that embedded metadata could not provide a timestamp.
type Unavailable struct {
	Path   string
	Reason error
}

func (e *Unavailable) Error() string {
	return fmt.Sprintf("capture time unavailable for %s: %v", e.Path, e.Reason)
}

func (e *Unavailable) Unwrap() error { return e.Reason }

// Extractor reads a capture timestamp from a file's embedded metadata.
// Failures are returned as *Unavailable.
type Extractor interface {
	CaptureTime(path string) (time.Time, error)
}

// EXIF extracts DateTimeOriginal/DateTime tags with goexif.
type EXIF struct{}

// CaptureTime implements Extractor.
func (EXIF) CaptureTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, &Unavailable{Path: path, Reason: err}
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, &Unavailable{Path: path, Reason: err}
	}
	ts, err := x.DateTime()
	if err != nil {
		return time.Time{}, &Unavailable{Path: path, Reason: err}
	}
	if ts.Before(earliestPlausible) {
		return time.Time{}, &Unavailable{Path: path, Reason: fmt.Errorf("implausible date %s", ts.Format(time.DateTime))}
	}
	return ts, nil
}

// Timestamp is a resolved capture time and its provenance.
type Timestamp struct {
	Time   time.Time
	Source Source
}

// Resolver combines an Extractor with the filesystem fallback.
type Resolver struct {
	extractor Extractor
	logger    *slog.Logger
	stat      func(string) (os.FileInfo, error)
}

// NewResolver builds a resolver. A nil extractor means EXIF.
func NewResolver(extractor Extractor, logger *slog.Logger) *Resolver {
	if extractor == nil {
		extractor = EXIF{}
	}
	return &Resolver{
		extractor: extractor,
		logger:    logging.NewComponentLogger(logger, "metadata"),
		stat:      os.Stat,
	}
}

// Resolve returns the capture timestamp for path. Metadata failures are logged
// and recovered with the modification time; an error is returned only when the
// file itself cannot be stat-ed.
func (r *Resolver) Resolve(path string) (Timestamp, error) {
	ts, err := r.extractor.CaptureTime(path)
	if err == nil {
		return Timestamp{Time: ts, Source: SourceEXIF}, nil
	}

	var unavailable *Unavailable
	if !errors.As(err, &unavailable) {
		unavailable = &Unavailable{Path: path, Reason: err}
	}
	r.logger.Debug("embedded capture time unavailable, using modification time",
		logging.String("path", path),
		logging.String("reason", unavailable.Reason.Error()),
		logging.String(logging.FieldEventType, "metadata_fallback"),
	)

	info, statErr := r.stat(path)
	if statErr != nil {
		return Timestamp{}, fmt.Errorf("resolve capture time: %w", statErr)
	}
	return Timestamp{Time: info.ModTime().Truncate(time.Second), Source: SourceModTime}, nil
}
