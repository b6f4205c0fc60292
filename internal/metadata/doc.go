// Package metadata resolves capture timestamps for media files.
//
// Extraction reads EXIF DateTimeOriginal (falling back to the EXIF DateTime
// tag) through goexif and reports failures as *Unavailable values instead of
// panicking or guessing. Resolver applies the filesystem fallback explicitly:
// the modification time truncated to whole seconds, which copy jobs preserve so
// re-runs see identical timestamps for organized files.
package metadata
