package d64

// BAM entries live at track 18 sector 0, offset 0x04 + 4*(track-1):
// one free-count byte followed by a 3-byte bitmap, bit i of which is
// set when sector i of that track is free.
func bamEntryOffset(track int) int { return 0x04 + 4*(track-1) }

func setBAMEntry(bam *[256]byte, track int) {
	off := bamEntryOffset(track)
	n := SectorsPerTrack[track-1]
	bam[off] = byte(n)
	bam[off+1], bam[off+2], bam[off+3] = 0, 0, 0
	for s := 0; s < n; s++ {
		bam[off+1+s/8] |= 1 << uint(s%8)
	}
}

func isBAMSectorFree(bam *[256]byte, track, sector int) bool {
	off := bamEntryOffset(track)
	return bam[off+1+sector/8]&(1<<uint(sector%8)) != 0
}

// markBAMSectorUsed clears a sector's free bit and decrements the
// track's free count. Marking an already-used sector is a no-op.
func markBAMSectorUsed(bam *[256]byte, track, sector int) {
	if !isBAMSectorFree(bam, track, sector) {
		return
	}
	off := bamEntryOffset(track)
	bam[off+1+sector/8] &^= 1 << uint(sector%8)
	if bam[off] > 0 {
		bam[off]--
	}
}

// markBAMSectorFree sets a sector's free bit and increments the
// track's free count, clamped to the track's sector capacity.
func markBAMSectorFree(bam *[256]byte, track, sector int) {
	if isBAMSectorFree(bam, track, sector) {
		return
	}
	off := bamEntryOffset(track)
	bam[off+1+sector/8] |= 1 << uint(sector%8)
	if int(bam[off]) < SectorsPerTrack[track-1] {
		bam[off]++
	}
}

// allocationOrder interleaves outward from track 18 — 17, 19, 16, 20,
// 15, 21, … — skipping track 18 itself, which never holds file data.
func allocationOrder() []int {
	order := make([]int, 0, NumTracks-1)
	for offset := 1; offset <= NumTracks; offset++ {
		lower := DirTrack - offset
		upper := DirTrack + offset
		if lower >= 1 {
			order = append(order, lower)
		}
		if upper <= NumTracks {
			order = append(order, upper)
		}
	}
	return order
}

// allocateSector picks the lowest-numbered free sector on the first
// track with room, walking the interleave order and never touching
// track 18.
func (d *Disk) allocateSector() (int, int, error) {
	bam, err := d.readSector(DirTrack, BAMSector)
	if err != nil {
		return 0, 0, err
	}
	for _, track := range allocationOrder() {
		for s := 0; s < SectorsPerTrack[track-1]; s++ {
			if isBAMSectorFree(&bam, track, s) {
				markBAMSectorUsed(&bam, track, s)
				if err := d.writeSector(DirTrack, BAMSector, bam); err != nil {
					return 0, 0, err
				}
				return track, s, nil
			}
		}
	}
	return 0, 0, &DiskFull{}
}

// allocateDirectorySector grows the directory chain using track 18's
// own bitmap, restricted to that track and never touching sector 0.
func (d *Disk) allocateDirectorySector() (int, error) {
	bam, err := d.readSector(DirTrack, BAMSector)
	if err != nil {
		return 0, err
	}
	for s := 1; s < SectorsPerTrack[DirTrack-1]; s++ {
		if isBAMSectorFree(&bam, DirTrack, s) {
			markBAMSectorUsed(&bam, DirTrack, s)
			if err := d.writeSector(DirTrack, BAMSector, bam); err != nil {
				return 0, err
			}
			return s, nil
		}
	}
	return 0, &DirectoryFull{}
}

func (d *Disk) freeSector(track, sector int) error {
	bam, err := d.readSector(DirTrack, BAMSector)
	if err != nil {
		return err
	}
	markBAMSectorFree(&bam, track, sector)
	return d.writeSector(DirTrack, BAMSector, bam)
}

// FreeBlocks sums free counts across every track except 18, matching
// CBM DOS convention.
func (d *Disk) FreeBlocks() (int, error) {
	bam, err := d.readSector(DirTrack, BAMSector)
	if err != nil {
		return 0, err
	}
	total := 0
	for t := 1; t <= NumTracks; t++ {
		if t == DirTrack {
			continue
		}
		total += int(bam[bamEntryOffset(t)])
	}
	return total, nil
}
