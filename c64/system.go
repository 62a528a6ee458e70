package c64

import (
	"log"

	"github.com/go-retro/c64core/cpu"
	"github.com/go-retro/c64core/sid"
	"github.com/go-retro/c64core/vicii"
)

// Whole-frame CPU cycle budgets: PAL is 63 cycles per line x 312 lines;
// NTSC is ~1022727Hz/60Hz rounded down.
const (
	cyclesPerFramePAL  = 19656
	cyclesPerFrameNTSC = 17045

	clockHzPAL  = 985248.0
	clockHzNTSC = 1022727.0
	sampleHz    = 44100.0

	todTenthsPerFrame = 6 // a 50/60Hz field rate against a 10Hz TOD tick is approximated as one tenth every 6 frames
)

// System is the top-level owner of every piece of C64 state: the CPU,
// the composite bus, and the frame/instruction scheduler that drives
// them. It is single-threaded and cooperative; nothing here introduces
// concurrency of its own.
type System struct {
	CPU *cpu.CPU
	Bus *Bus

	Region     string // "PAL" or "NTSC"
	FrameCount uint64
	Running    bool

	// BreakOnUnimplementedOpcode stops RunFrame at the instruction that
	// hit an unimplemented opcode instead of pressing on silently. It
	// mirrors Config.BreakOnUnimplementedOpcode but lives here so a
	// System can be driven without going through LoadConfig.
	BreakOnUnimplementedOpcode bool

	// Logger receives one line per frame boundary and per unimplemented
	// opcode encountered. A nil Logger means silent operation.
	Logger *log.Logger

	todDivider int
}

func (s *System) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

// NewSystem constructs a System for the given region ("PAL" or "NTSC",
// defaulting to PAL for any other value).
func NewSystem(region string) *System {
	var vic *vicii.Chip
	clockHz := clockHzPAL
	if region == "NTSC" {
		vic = vicii.NewNTSC()
		clockHz = clockHzNTSC
	} else {
		region = "PAL"
		vic = vicii.NewPAL()
	}

	sidChip := sid.New(clockHz, sampleHz)
	cia1, cia2 := NewCIA(), NewCIA()
	bus := NewBus(vic, sidChip, cia1, cia2)

	return &System{
		CPU:    cpu.New(bus),
		Bus:    bus,
		Region: region,
	}
}

func (s *System) cyclesPerFrame() uint64 {
	if s.Region == "NTSC" {
		return cyclesPerFrameNTSC
	}
	return cyclesPerFramePAL
}

// Step executes one CPU instruction, then ticks the SID once per cycle
// it consumed, ticks both CIAs by the same amount, and re-evaluates the
// NMI line from CIA2's interrupt output.
func (s *System) Step() error {
	before := s.CPU.Cycles
	err := s.CPU.Step()
	delta := int(s.CPU.Cycles - before)

	for i := 0; i < delta; i++ {
		s.Bus.SID.Clock()
	}
	s.Bus.CIA1.Tick(delta)
	s.Bus.CIA2.Tick(delta)
	s.CPU.SetNMILine(s.Bus.CIA2.IRQActive())

	if err != nil {
		s.logf("c64: %v", err)
	}
	return err
}

// runCycles executes whole instructions via Step until at least budget
// cycles have been consumed, returning the actual total (bounded
// overshoot, same as cpu.CPU.RunForCycles) and whether it stopped early
// on an unimplemented opcode with BreakOnUnimplementedOpcode set.
func (s *System) runCycles(budget uint64) (uint64, bool) {
	var consumed uint64
	for consumed < budget {
		before := s.CPU.Cycles
		err := s.Step()
		consumed += s.CPU.Cycles - before
		if err != nil && s.BreakOnUnimplementedOpcode {
			return consumed, true
		}
	}
	return consumed, false
}

// RunFrame advances the system by one video field: for every scanline
// it runs the CPU up to that scanline's share of the frame's cycle
// budget, then steps the VIC-II (character/bitmap + sprite rendering,
// raster advance) before moving to the next line.
func (s *System) RunFrame() {
	budget := s.cyclesPerFrame()
	totalLines := int(s.Bus.VIC.TotalLines)
	var consumed uint64

	for line := 0; line < totalLines; line++ {
		target := budget * uint64(line+1) / uint64(totalLines)
		if target > consumed {
			var n uint64
			var stop bool
			n, stop = s.runCycles(target - consumed)
			consumed += n
			if stop {
				break
			}
		}

		charOrBitmap, screenRAM, colorRAM := s.fetchVideo()
		s.Bus.VIC.StepScanline(charOrBitmap, screenRAM, colorRAM)
		s.Bus.VIC.RenderSpritesScanline(s.fetchSprites())
		s.Bus.VIC.AdvanceScanline()
	}

	s.todDivider++
	if s.todDivider >= todTenthsPerFrame {
		s.todDivider = 0
		s.Bus.CIA1.TickTOD()
		s.Bus.CIA2.TickTOD()
	}

	s.FrameCount++
	s.logf("c64: frame %d complete (%s, %d cycles consumed)", s.FrameCount, s.Region, consumed)
}

// vicBank returns the base address of the VIC-II's current 16K bank,
// selected by CIA2 port A bits 0-1 (active low: 0 selects that bank).
func (s *System) vicBank() uint16 {
	return uint16(^s.Bus.CIA2.outputA()&0x03) * 0x4000
}

func (s *System) fetchVideo() (charOrBitmap, screenRAM, colorRAM []byte) {
	bank := s.vicBank()
	ptr := s.Bus.VIC.Registers[vicii.RegMemPointers]
	screenBase := bank + (uint16(ptr)>>4)*0x0400

	bmm := s.Bus.VIC.Registers[vicii.RegControl1]&0x20 != 0
	var dataBase uint16
	var dataLen int
	if bmm {
		dataBase = bank + (uint16(ptr&0x08)>>3)*0x2000
		dataLen = 8000
	} else {
		dataBase = bank + (uint16(ptr&0x0E)>>1)*0x0800
		dataLen = 2048
	}

	return s.Bus.ramSlice(dataBase, dataLen), s.Bus.ramSlice(screenBase, 1000), s.Bus.ColorRAM[:]
}

func (s *System) fetchSprites() [8][]byte {
	bank := s.vicBank()
	ptr := s.Bus.VIC.Registers[vicii.RegMemPointers]
	screenBase := bank + (uint16(ptr)>>4)*0x0400

	var out [8][]byte
	for n := 0; n < 8; n++ {
		ptrAddr := screenBase + 0x3F8 + uint16(n)
		spritePtr := s.Bus.ramSlice(ptrAddr, 1)[0]
		out[n] = s.Bus.ramSlice(bank+uint16(spritePtr)*64, 63)
	}
	return out
}
