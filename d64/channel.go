package d64

import (
	"fmt"
	"log"
	"strings"
)

// ChannelMode is the state of one of the drive's 16 IEC channels.
type ChannelMode int

const (
	ModeClosed ChannelMode = iota
	ModeRead
	ModeWrite
)

const fileTypePRG = 0x82 // bit 7: properly closed; low nibble: PRG

// Channel is one secondary-address channel on the drive. Channels 0-14
// carry file data, channel 15 is the command/status channel handled
// separately by Drive.
type Channel struct {
	Mode ChannelMode

	name string

	track, sector int
	buf           [256]byte
	pos           int
	validLen      int

	virtualData []byte
	virtualPos  int

	writeBuf                []byte
	firstTrack, firstSector int
	prevTrack, prevSector   int
	blocks                  int
}

func (c *Channel) computeValidLen() {
	if c.buf[0] == 0 {
		c.validLen = int(c.buf[1]) + 1
	} else {
		c.validLen = 256
	}
}

// Drive is the 1541 IEC-level interface to a mounted Disk: 16 data
// channels plus the command/status channel.
type Drive struct {
	Disk     *Disk
	channels [16]Channel

	// Logger receives one line per command and per file open/close. A
	// nil Logger means silent operation.
	Logger *log.Logger

	status    string
	statusPos int
}

// NewDrive wraps a mounted disk with a fresh set of closed channels and
// an "OK" status.
func NewDrive(disk *Disk) *Drive {
	d := &Drive{Disk: disk}
	d.resetStatus()
	return d
}

func (d *Drive) logf(format string, args ...any) {
	if d.Logger != nil {
		d.Logger.Printf(format, args...)
	}
}

func (d *Drive) resetStatus() {
	d.status = "00, OK, 00, 00\r"
	d.statusPos = 0
}

func (d *Drive) setStatus(code int, msg string, track, sector int) {
	d.status = fmt.Sprintf("%02d, %s, %02d, %02d\r", code, msg, track, sector)
	d.statusPos = 0
}

// OpenRead opens a channel for reading a file, resolving name against
// the directory (name may use '*' and '?' wildcards).
func (d *Drive) OpenRead(channel int, name string) error {
	entry, err := d.Disk.FindFile(name)
	if err != nil {
		d.logf("d64: open read %q on channel %d: %v", name, channel, err)
		return err
	}
	buf, err := d.Disk.readSector(entry.FirstTrack, entry.FirstSector)
	if err != nil {
		return err
	}
	c := &d.channels[channel]
	*c = Channel{Mode: ModeRead, track: entry.FirstTrack, sector: entry.FirstSector, buf: buf, pos: 2}
	c.computeValidLen()
	d.logf("d64: opened %q for read on channel %d", name, channel)
	return nil
}

// OpenDirectoryListing opens a channel streaming a BASIC-format
// directory listing, as produced by OPEN 1,8,0,"$".
func (d *Drive) OpenDirectoryListing(channel int) error {
	data, err := d.buildDirectoryListing()
	if err != nil {
		return err
	}
	d.channels[channel] = Channel{Mode: ModeRead, virtualData: data}
	return nil
}

// OpenWrite opens a channel for writing a new file. Allocation is
// deferred to the first flush; it is an error if the name already
// exists.
func (d *Drive) OpenWrite(channel int, name string) error {
	if _, err := d.Disk.FindFile(name); err == nil {
		d.logf("d64: open write %q on channel %d: file exists", name, channel)
		return &FileExists{Name: name}
	}
	d.channels[channel] = Channel{Mode: ModeWrite, name: name}
	d.logf("d64: opened %q for write on channel %d", name, channel)
	return nil
}

// ReadByte returns the next byte from an open read channel and whether
// it was the last byte of the file.
func (d *Drive) ReadByte(channel int) (byte, bool, error) {
	c := &d.channels[channel]
	if c.Mode != ModeRead {
		return 0, true, &CorruptedImage{Message: "channel not open for read"}
	}

	if c.virtualData != nil {
		if c.virtualPos >= len(c.virtualData) {
			return 0, true, nil
		}
		b := c.virtualData[c.virtualPos]
		c.virtualPos++
		return b, c.virtualPos >= len(c.virtualData), nil
	}

	if c.pos >= c.validLen {
		if c.buf[0] == 0 {
			return 0, true, nil
		}
		nt, ns := int(c.buf[0]), int(c.buf[1])
		buf, err := d.Disk.readSector(nt, ns)
		if err != nil {
			return 0, true, err
		}
		c.track, c.sector, c.buf, c.pos = nt, ns, buf, 2
		c.computeValidLen()
	}

	b := c.buf[c.pos]
	c.pos++
	eof := c.pos >= c.validLen && c.buf[0] == 0
	return b, eof, nil
}

// WriteByte buffers a byte for an open write channel, flushing a full
// 254-byte sector's worth of data as the chain grows.
func (d *Drive) WriteByte(channel int, b byte) error {
	c := &d.channels[channel]
	if c.Mode != ModeWrite {
		return &CorruptedImage{Message: "channel not open for write"}
	}
	c.writeBuf = append(c.writeBuf, b)
	if len(c.writeBuf) == 254 {
		return d.flushSector(c, false)
	}
	return nil
}

func (d *Drive) flushSector(c *Channel, final bool) error {
	track, sector, err := d.Disk.allocateSector()
	if err != nil {
		return err
	}

	var buf [256]byte
	n := copy(buf[2:], c.writeBuf)
	if final {
		buf[0], buf[1] = 0, byte(n+1)
	}

	if c.firstTrack == 0 {
		c.firstTrack, c.firstSector = track, sector
	} else {
		prevBuf, err := d.Disk.readSector(c.prevTrack, c.prevSector)
		if err != nil {
			return err
		}
		prevBuf[0], prevBuf[1] = byte(track), byte(sector)
		if err := d.Disk.writeSector(c.prevTrack, c.prevSector, prevBuf); err != nil {
			return err
		}
	}

	if err := d.Disk.writeSector(track, sector, buf); err != nil {
		return err
	}
	c.prevTrack, c.prevSector = track, sector
	c.blocks++
	c.writeBuf = c.writeBuf[n:]
	return nil
}

// Close finalizes a channel: a read channel simply closes, a write
// channel flushes its last sector and creates its directory entry.
func (d *Drive) Close(channel int) error {
	c := &d.channels[channel]
	defer func() { c.Mode = ModeClosed }()

	if c.Mode != ModeWrite {
		if c.Mode == ModeRead {
			d.logf("d64: closed read on channel %d", channel)
		}
		return nil
	}
	if err := d.flushSector(c, true); err != nil {
		return err
	}
	err := d.Disk.CreateDirectoryEntry(c.name, fileTypePRG, c.firstTrack, c.firstSector, c.blocks)
	d.logf("d64: closed write %q on channel %d (%d blocks), err=%v", c.name, channel, c.blocks, err)
	return err
}

func (d *Drive) buildDirectoryListing() ([]byte, error) {
	bam, err := d.Disk.readSector(DirTrack, BAMSector)
	if err != nil {
		return nil, err
	}
	name := petsciiName(bam[0x90:0xA0])
	id := petsciiName(bam[0xA2:0xA4])

	out := []byte{0x01, 0x04}
	addr := uint16(0x0401)

	writeLine := func(lineNum uint16, text string) {
		body := append([]byte(text), 0x00)
		next := addr + uint16(4+len(body))
		out = append(out, byte(next), byte(next>>8))
		out = append(out, byte(lineNum), byte(lineNum>>8))
		out = append(out, body...)
		addr = next
	}

	writeLine(0, fmt.Sprintf("\"%-16s\" %s 2A", name, id))

	err = d.Disk.walkDirectory(func(track, sector int, buf *[256]byte) bool {
		for slot := 0; slot < 8; slot++ {
			if entryFileType(buf, slot) == 0 {
				continue
			}
			writeLine(uint16(entryBlocks(buf, slot)), fmt.Sprintf("\"%-16s\" PRG", entryName(buf, slot)))
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	free, err := d.Disk.FreeBlocks()
	if err != nil {
		return nil, err
	}
	writeLine(uint16(free), "BLOCKS FREE.")
	out = append(out, 0x00, 0x00)
	return out, nil
}

// ExecuteCommand parses and runs a command written to channel 15:
// I(nitialise), V(alidate), N:name,id (format), S:name (scratch).
func (d *Drive) ExecuteCommand(cmd string) {
	cmd = strings.TrimRight(cmd, "\r\n")
	switch {
	case cmd == "I":
		d.setStatus(0, "OK", 0, 0)
		d.logf("d64: initialise")
	case cmd == "V":
		d.setStatus(0, "OK", 0, 0)
		d.logf("d64: validate")
	case strings.HasPrefix(cmd, "N:") || strings.HasPrefix(cmd, "N0:"):
		rest := strings.TrimPrefix(strings.TrimPrefix(cmd, "N0:"), "N:")
		parts := strings.SplitN(rest, ",", 2)
		id := ""
		if len(parts) > 1 {
			id = parts[1]
		}
		*d.Disk = *CreateBlank(parts[0], id)
		d.setStatus(0, "OK", 0, 0)
		d.logf("d64: formatted disk %q id %q", parts[0], id)
	case strings.HasPrefix(cmd, "S:") || strings.HasPrefix(cmd, "S0:"):
		rest := strings.TrimPrefix(strings.TrimPrefix(cmd, "S0:"), "S:")
		name := strings.SplitN(rest, ",", 2)[0]
		if err := d.Disk.DeleteFile(name); err != nil {
			d.setStatus(62, "FILE NOT FOUND", 0, 0)
		} else {
			d.setStatus(1, "FILES SCRATCHED", 1, 0)
		}
		d.logf("d64: scratch %q", name)
	default:
		d.setStatus(30, "SYNTAX ERROR", 0, 0)
		d.logf("d64: unrecognized command %q", cmd)
	}
}

// ReadStatus returns the next byte of the channel-15 status message,
// resetting to "00, OK, 00, 00" once the message has been read in full.
func (d *Drive) ReadStatus() (byte, bool) {
	b := d.status[d.statusPos]
	d.statusPos++
	done := d.statusPos >= len(d.status)
	if done {
		d.resetStatus()
	}
	return b, done
}
