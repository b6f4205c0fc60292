package planner

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"photodistributor/internal/media"
)

// Bucket is one destination directory: a contiguous span of months within a
// single year.
type Bucket struct {
	Year       int
	FirstMonth time.Month
	LastMonth  time.Month
	Files      []*media.File
}

// Label renders "YYYY/MM" or, for a span, "YYYY/MM - MM".
func (b Bucket) Label() string {
	return fmt.Sprintf("%04d/%s", b.Year, b.monthDir())
}

// Dir returns the bucket directory below root.
func (b Bucket) Dir(root string) string {
	return filepath.Join(root, strconv.Itoa(b.Year), b.monthDir())
}

func (b Bucket) monthDir() string {
	if b.FirstMonth == b.LastMonth {
		return fmt.Sprintf("%02d", int(b.FirstMonth))
	}
	return fmt.Sprintf("%02d - %02d", int(b.FirstMonth), int(b.LastMonth))
}

type monthKey struct {
	year  int
	month time.Month
}

// PlanBuckets partitions files, which must already be in media.Compare order,
// into buckets. Consecutive months of the same year are merged while the
// running total stays at or below twice the threshold; a month that would push
// the total past that limit starts a new bucket, and a year change always
// does. A single month above the limit forms its own bucket. Months with no
// files never appear, so a span label can cover them.
func PlanBuckets(files []*media.File, threshold int) []Bucket {
	if len(files) == 0 {
		return nil
	}
	if threshold < 1 {
		threshold = 1
	}
	limit := 2 * threshold

	var buckets []Bucket
	var current *Bucket
	i := 0
	for i < len(files) {
		key := keyOf(files[i])
		j := i + 1
		for j < len(files) && keyOf(files[j]) == key {
			j++
		}
		month := files[i:j]

		switch {
		case current == nil:
		case current.Year != key.year, len(current.Files)+len(month) > limit:
			buckets = append(buckets, *current)
			current = nil
		}
		if current == nil {
			current = &Bucket{Year: key.year, FirstMonth: key.month}
		}
		current.LastMonth = key.month
		current.Files = append(current.Files, month...)
		i = j
	}
	buckets = append(buckets, *current)
	return buckets
}

func keyOf(f *media.File) monthKey {
	return monthKey{year: f.Captured.Year(), month: f.Captured.Month()}
}
