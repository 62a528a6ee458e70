package d64

import "strings"

// DirEntry is one resolved directory slot.
type DirEntry struct {
	Name        string
	FileType    byte
	FirstTrack  int
	FirstSector int
	Blocks      int

	dirTrack, dirSector, slot int
}

func entryFileType(buf *[256]byte, slot int) byte { return buf[slot*32+2] }

func entryFirstTS(buf *[256]byte, slot int) (int, int) {
	base := slot * 32
	return int(buf[base+3]), int(buf[base+4])
}

func entryName(buf *[256]byte, slot int) string {
	base := slot * 32
	return petsciiName(buf[base+5 : base+21])
}

func entryBlocks(buf *[256]byte, slot int) int {
	base := slot * 32
	return int(buf[base+30]) | int(buf[base+31])<<8
}

// walkDirectory calls visit for every occupied (track, sector) in the
// directory chain, stopping early if visit returns false.
func (d *Disk) walkDirectory(visit func(track, sector int, buf *[256]byte) bool) error {
	track, sector := DirTrack, DirFirstSector
	for i := 0; i < maxDirectoryEntries/8; i++ {
		buf, err := d.readSector(track, sector)
		if err != nil {
			return err
		}
		if !visit(track, sector, &buf) {
			return nil
		}
		next, nextSector := int(buf[0]), int(buf[1])
		if next == 0 {
			return nil
		}
		track, sector = next, nextSector
	}
	return &CorruptedImage{Message: "directory chain exceeds 144 entries"}
}

// FindFile resolves a name against the directory. Trailing '*' matches
// any suffix, and '?' matches a single character, matching 1541
// wildcard conventions.
func (d *Disk) FindFile(name string) (*DirEntry, error) {
	var found *DirEntry
	err := d.walkDirectory(func(track, sector int, buf *[256]byte) bool {
		for slot := 0; slot < 8; slot++ {
			if entryFileType(buf, slot) == 0 {
				continue
			}
			candidate := entryName(buf, slot)
			if !wildcardMatch(name, candidate) {
				continue
			}
			ft, fs := entryFirstTS(buf, slot)
			found = &DirEntry{
				Name: candidate, FileType: entryFileType(buf, slot),
				FirstTrack: ft, FirstSector: fs, Blocks: entryBlocks(buf, slot),
				dirTrack: track, dirSector: sector, slot: slot,
			}
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, &FileNotFound{Name: name}
	}
	return found, nil
}

func wildcardMatch(pattern, name string) bool {
	if !strings.ContainsAny(pattern, "*?") {
		return pattern == name
	}
	pi, ni := 0, 0
	for pi < len(pattern) {
		switch pattern[pi] {
		case '*':
			return true // '*' matches the remainder of the name
		case '?':
			if ni >= len(name) {
				return false
			}
			pi++
			ni++
		default:
			if ni >= len(name) || pattern[pi] != name[ni] {
				return false
			}
			pi++
			ni++
		}
	}
	return ni == len(name)
}

// findFreeDirectorySlot returns the first free 32-byte entry in the
// chain, growing the chain by one sector if none is free.
func (d *Disk) findFreeDirectorySlot() (track, sector, slot int, err error) {
	found := false
	lastTrack, lastSector := DirTrack, DirFirstSector
	var lastBuf [256]byte

	werr := d.walkDirectory(func(t, s int, buf *[256]byte) bool {
		lastTrack, lastSector, lastBuf = t, s, *buf
		for k := 0; k < 8; k++ {
			if entryFileType(buf, k) == 0 {
				track, sector, slot = t, s, k
				found = true
				return false
			}
		}
		return true
	})
	if werr != nil {
		return 0, 0, 0, werr
	}
	if found {
		return track, sector, slot, nil
	}

	newSector, aerr := d.allocateDirectorySector()
	if aerr != nil {
		return 0, 0, 0, aerr
	}
	var fresh [256]byte
	fresh[0] = 0
	fresh[1] = 0xFF
	if werr := d.writeSector(DirTrack, newSector, fresh); werr != nil {
		return 0, 0, 0, werr
	}
	lastBuf[0] = byte(DirTrack)
	lastBuf[1] = byte(newSector)
	if werr := d.writeSector(lastTrack, lastSector, lastBuf); werr != nil {
		return 0, 0, 0, werr
	}
	return DirTrack, newSector, 0, nil
}

// CreateDirectoryEntry allocates (or reuses) a free directory slot and
// fills it in. fileType should already carry bit 7 ("properly closed").
func (d *Disk) CreateDirectoryEntry(name string, fileType byte, firstTrack, firstSector, blocks int) error {
	track, sector, slot, err := d.findFreeDirectorySlot()
	if err != nil {
		return err
	}
	buf, err := d.readSector(track, sector)
	if err != nil {
		return err
	}
	base := slot * 32
	for i := 2; i < 32; i++ {
		buf[base+i] = 0
	}
	buf[base+2] = fileType
	buf[base+3] = byte(firstTrack)
	buf[base+4] = byte(firstSector)
	copy(buf[base+5:base+21], petsciiPad(name, 16))
	buf[base+30] = byte(blocks)
	buf[base+31] = byte(blocks >> 8)
	return d.writeSector(track, sector, buf)
}

const maxChainWalk = 768

// DeleteFile frees a file's entire sector chain and zeroes its
// directory entry's file-type byte.
func (d *Disk) DeleteFile(name string) error {
	entry, err := d.FindFile(name)
	if err != nil {
		return err
	}

	track, sector := entry.FirstTrack, entry.FirstSector
	for i := 0; i < maxChainWalk && track != 0; i++ {
		buf, rerr := d.readSector(track, sector)
		if rerr != nil {
			break
		}
		next, nextSector := int(buf[0]), int(buf[1])
		if ferr := d.freeSector(track, sector); ferr != nil {
			return ferr
		}
		track, sector = next, nextSector
	}

	buf, err := d.readSector(entry.dirTrack, entry.dirSector)
	if err != nil {
		return err
	}
	buf[entry.slot*32+2] = 0
	return d.writeSector(entry.dirTrack, entry.dirSector, buf)
}
