package jobs

import (
	"context"
	"fmt"

	"photodistributor/internal/media"
)

// Kind enumerates the job variants.
type Kind int

const (
	KindCreateDirectory Kind = iota + 1
	KindCopyFile
	KindMoveFile
)

func (k Kind) String() string {
	switch k {
	case KindCreateDirectory:
		return "mkdir"
	case KindCopyFile:
		return "copy"
	case KindMoveFile:
		return "move"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FS is the filesystem collaborator a job executes against.
type FS interface {
	// Mkdir creates a single directory; an existing directory is not an error.
	Mkdir(path string) error
	// Copy copies src to dst preserving timestamps; dst must not exist.
	Copy(src, dst string) error
	// Move relocates src to dst; dst must not exist.
	Move(src, dst string) error
}

// Job is one unit of filesystem work. Target is the directory to create or the
// destination file path. Source is nil for directory jobs.
type Job struct {
	Kind   Kind
	Target string
	Source *media.File
}

// CreateDirectory builds a directory creation job.
func CreateDirectory(path string) Job {
	return Job{Kind: KindCreateDirectory, Target: path}
}

// CopyFile builds a copy job. The source path is read when the job executes,
// so an earlier move of the same file is honored.
func CopyFile(source *media.File, dest string) Job {
	return Job{Kind: KindCopyFile, Target: dest, Source: source}
}

// MoveFile builds a move job.
func MoveFile(source *media.File, dest string) Job {
	return Job{Kind: KindMoveFile, Target: dest, Source: source}
}

// SourcePath returns the current location of the job's source file, or "".
func (j Job) SourcePath() string {
	if j.Source == nil {
		return ""
	}
	return j.Source.Path
}

// Execute applies the job. A successful move rewrites the source descriptor's
// path to the new location.
func (j Job) Execute(ctx context.Context, fsys FS) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch j.Kind {
	case KindCreateDirectory:
		return fsys.Mkdir(j.Target)
	case KindCopyFile:
		if j.Source == nil {
			return fmt.Errorf("copy to %s: missing source", j.Target)
		}
		return fsys.Copy(j.Source.Path, j.Target)
	case KindMoveFile:
		if j.Source == nil {
			return fmt.Errorf("move to %s: missing source", j.Target)
		}
		if err := fsys.Move(j.Source.Path, j.Target); err != nil {
			return err
		}
		j.Source.Path = j.Target
		return nil
	default:
		return fmt.Errorf("unknown job kind %s", j.Kind)
	}
}

func (j Job) String() string {
	switch j.Kind {
	case KindCreateDirectory:
		return "Create directory " + j.Target
	case KindCopyFile:
		return fmt.Sprintf("Copy %s -> %s", j.SourcePath(), j.Target)
	case KindMoveFile:
		return fmt.Sprintf("Move %s -> %s", j.SourcePath(), j.Target)
	default:
		return fmt.Sprintf("%s %s", j.Kind, j.Target)
	}
}
