package d64

// Disk is a mounted D64 image: a flat 174,848-byte buffer addressed
// through the (track, sector) geometry in geometry.go.
type Disk struct {
	Data [ImageSize]byte
}

// Mount validates and wraps a raw D64 image. Images carrying the
// optional per-sector error-info block (175,531 bytes) have that tail
// stripped; anything else is rejected by size.
func Mount(raw []byte) (*Disk, error) {
	switch len(raw) {
	case ImageSize:
	case ImageSizeWithErrors:
		raw = raw[:ImageSize]
	default:
		return nil, &InvalidSize{Expected: []int{ImageSize, ImageSizeWithErrors}, Got: len(raw)}
	}

	d := &Disk{}
	copy(d.Data[:], raw)
	if err := d.validateDirectoryChain(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Disk) readSector(track, sector int) ([256]byte, error) {
	var buf [256]byte
	off, err := Offset(track, sector)
	if err != nil {
		return buf, err
	}
	copy(buf[:], d.Data[off:off+256])
	return buf, nil
}

func (d *Disk) writeSector(track, sector int, buf [256]byte) error {
	off, err := Offset(track, sector)
	if err != nil {
		return err
	}
	copy(d.Data[off:off+256], buf[:])
	return nil
}

const maxDirectoryEntries = 144

// validateDirectoryChain walks the directory chain from track 18
// sector 1, rejecting cycles, out-of-range links, and chains that grow
// past the drive's 144-entry capacity.
func (d *Disk) validateDirectoryChain() error {
	visited := make(map[[2]int]bool)
	track, sector := DirTrack, DirFirstSector
	entries := 0
	for {
		key := [2]int{track, sector}
		if visited[key] {
			return &CorruptedImage{Message: "directory chain cycle"}
		}
		visited[key] = true

		buf, err := d.readSector(track, sector)
		if err != nil {
			return &CorruptedImage{Message: err.Error()}
		}
		entries += 8
		if entries > maxDirectoryEntries {
			return &CorruptedImage{Message: "directory chain exceeds 144 entries"}
		}

		nextTrack, nextSector := int(buf[0]), int(buf[1])
		if nextTrack == 0 {
			return nil
		}
		if nextTrack < 1 || nextTrack > NumTracks {
			return &CorruptedImage{Message: "directory link to invalid track"}
		}
		track, sector = nextTrack, nextSector
	}
}

// CreateBlank formats a fresh disk image: BAM fully free except the BAM
// sector 18/0 and the first directory sector 18/1, a one-sector
// directory chain, and the disk name/ID recorded in
// the BAM header.
func CreateBlank(name, id string) *Disk {
	d := &Disk{}

	var bam [256]byte
	bam[0] = DirTrack
	bam[1] = DirFirstSector
	bam[2] = 0x41 // DOS type 'A'
	for t := 1; t <= NumTracks; t++ {
		setBAMEntry(&bam, t)
	}
	markBAMSectorUsed(&bam, DirTrack, BAMSector)
	markBAMSectorUsed(&bam, DirTrack, DirFirstSector)

	copy(bam[0x90:0xA0], petsciiPad(name, 16))
	copy(bam[0xA2:0xA4], petsciiPad(id, 2))
	copy(bam[0xA5:0xA7], []byte("2A"))
	_ = d.writeSector(DirTrack, BAMSector, bam)

	var dir [256]byte
	dir[0] = 0
	dir[1] = 0xFF
	_ = d.writeSector(DirTrack, DirFirstSector, dir)

	return d
}
