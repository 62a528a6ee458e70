// Package d64 implements a 1541 disk drive and its D64 disk image
// format: geometry, the BAM free-space allocator, directory chain
// management, and a 16-channel IEC-level command/data interface.
package d64

import "fmt"

// InvalidSize is returned when a raw image's length doesn't match a
// known D64 layout.
type InvalidSize struct {
	Expected []int
	Got      int
}

func (e *InvalidSize) Error() string {
	return fmt.Sprintf("d64: invalid image size %d, expected one of %v", e.Got, e.Expected)
}

// InvalidTrack is returned for a track number outside 1..35.
type InvalidTrack struct{ Track int }

func (e *InvalidTrack) Error() string {
	return fmt.Sprintf("d64: invalid track %d", e.Track)
}

// InvalidSector is returned for a sector number outside the range valid
// for its track.
type InvalidSector struct{ Track, Sector int }

func (e *InvalidSector) Error() string {
	return fmt.Sprintf("d64: invalid sector %d on track %d", e.Sector, e.Track)
}

// FileNotFound is returned when a named file isn't present in the
// directory.
type FileNotFound struct{ Name string }

func (e *FileNotFound) Error() string {
	return fmt.Sprintf("d64: file not found: %q", e.Name)
}

// DirectoryFull is returned when the directory chain cannot grow any
// further (would exceed the 144-entry limit).
type DirectoryFull struct{}

func (e *DirectoryFull) Error() string { return "d64: directory full" }

// DiskFull is returned when no free sector remains for an allocation.
type DiskFull struct{}

func (e *DiskFull) Error() string { return "d64: disk full" }

// FileExists is returned when opening a file for write that is already
// present in the directory.
type FileExists struct{ Name string }

func (e *FileExists) Error() string { return fmt.Sprintf("d64: file exists: %q", e.Name) }

// CorruptedImage is returned for directory-chain cycles, out-of-range
// links, or chains that run away.
type CorruptedImage struct{ Message string }

func (e *CorruptedImage) Error() string { return "d64: corrupted image: " + e.Message }
