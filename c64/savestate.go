package c64

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-retro/c64core/sid"
)

const (
	saveStateMagic   = "C64S"
	saveStateVersion = uint32(1)
)

// SaveState is a complete structural snapshot of a System, per the
// documented record: CPU registers, the full 64K RAM, VIC-II registers
// and runtime flags, all three SID voices plus the filter, both CIAs,
// colour RAM, the keyboard matrix, region and frame count.
type SaveState struct {
	Version   uint32
	Timestamp uint64

	A, X, Y byte
	PC      uint16
	SP      byte
	N, V, D, I, Z, C bool
	Cycles  uint64

	RAM [65536]byte

	VICRegisters [64]byte
	VICRaster    uint16
	VICTotalLines uint16

	SIDRegisters [32]byte
	SIDState     sid.ChipState

	CIA1 ciaState
	CIA2 ciaState

	ColorRAM  [1024]byte
	KeyMatrix [8]byte

	Region     string
	FrameCount uint64
	Running    bool
}

// ciaState mirrors every exported CIA field except the externally
// driven PortAIn/PortBIn inputs, which are not saved; kept distinct from CIA
// itself so the wire layout doesn't silently change if CIA grows
// unrelated helper fields later.
type ciaState struct {
	PortA, PortB, DDRA, DDRB byte
	TimerA, TimerB           uint16
	LatchA, LatchB           uint16
	RunningA, RunningB       bool
	OneShotA, OneShotB       bool
	TODTenths, TODSeconds, TODMinutes, TODHours         byte
	AlarmTenths, AlarmSeconds, AlarmMinutes, AlarmHours byte
	SDR              byte
	ICRFlags, ICRMask byte
	CRA, CRB          byte
}

func captureCIA(c *CIA) ciaState {
	return ciaState{
		PortA: c.PortA, PortB: c.PortB, DDRA: c.DDRA, DDRB: c.DDRB,
		TimerA: c.TimerA, TimerB: c.TimerB, LatchA: c.LatchA, LatchB: c.LatchB,
		RunningA: c.RunningA, RunningB: c.RunningB, OneShotA: c.OneShotA, OneShotB: c.OneShotB,
		TODTenths: c.TODTenths, TODSeconds: c.TODSeconds, TODMinutes: c.TODMinutes, TODHours: c.TODHours,
		AlarmTenths: c.AlarmTenths, AlarmSeconds: c.AlarmSeconds, AlarmMinutes: c.AlarmMinutes, AlarmHours: c.AlarmHours,
		SDR: c.SDR, ICRFlags: c.ICRFlags, ICRMask: c.ICRMask, CRA: c.CRA, CRB: c.CRB,
	}
}

func restoreCIA(c *CIA, s ciaState) {
	c.PortA, c.PortB, c.DDRA, c.DDRB = s.PortA, s.PortB, s.DDRA, s.DDRB
	c.TimerA, c.TimerB, c.LatchA, c.LatchB = s.TimerA, s.TimerB, s.LatchA, s.LatchB
	c.RunningA, c.RunningB, c.OneShotA, c.OneShotB = s.RunningA, s.RunningB, s.OneShotA, s.OneShotB
	c.TODTenths, c.TODSeconds, c.TODMinutes, c.TODHours = s.TODTenths, s.TODSeconds, s.TODMinutes, s.TODHours
	c.AlarmTenths, c.AlarmSeconds, c.AlarmMinutes, c.AlarmHours = s.AlarmTenths, s.AlarmSeconds, s.AlarmMinutes, s.AlarmHours
	c.SDR, c.ICRFlags, c.ICRMask, c.CRA, c.CRB = s.SDR, s.ICRFlags, s.ICRMask, s.CRA, s.CRB
}

// Capture reads the live system coherently into a SaveState. The
// scheduler must not be running concurrently; this package has no
// concurrency of its own, so that's simply "don't call this from two
// goroutines at once".
func (s *System) Capture(timestamp uint64) SaveState {
	st := SaveState{
		Version:   saveStateVersion,
		Timestamp: timestamp,

		A: s.CPU.A, X: s.CPU.X, Y: s.CPU.Y, PC: s.CPU.PC, SP: s.CPU.SP,
		N: s.CPU.N, V: s.CPU.V, D: s.CPU.D, I: s.CPU.I, Z: s.CPU.Z, C: s.CPU.C,
		Cycles: s.CPU.Cycles,

		RAM: s.Bus.ram,

		VICRegisters:  s.Bus.VIC.Registers,
		VICRaster:     s.Bus.VIC.Raster,
		VICTotalLines: s.Bus.VIC.TotalLines,

		SIDRegisters: s.Bus.SID.Registers,
		SIDState:     s.Bus.SID.Snapshot(),

		CIA1: captureCIA(s.Bus.CIA1),
		CIA2: captureCIA(s.Bus.CIA2),

		ColorRAM:  s.Bus.ColorRAM,
		KeyMatrix: s.Bus.KeyMatrix,

		Region:     s.Region,
		FrameCount: s.FrameCount,
		Running:    s.Running,
	}
	return st
}

// Restore overwrites every field of the system from a captured
// SaveState before the scheduler resumes; partial restores are not
// permitted, so this always assigns every field, never a subset.
func (s *System) Restore(st SaveState) {
	s.CPU.A, s.CPU.X, s.CPU.Y, s.CPU.PC, s.CPU.SP = st.A, st.X, st.Y, st.PC, st.SP
	s.CPU.N, s.CPU.V, s.CPU.D, s.CPU.I, s.CPU.Z, s.CPU.C = st.N, st.V, st.D, st.I, st.Z, st.C
	s.CPU.Cycles = st.Cycles

	s.Bus.ram = st.RAM

	s.Bus.VIC.Registers = st.VICRegisters
	s.Bus.VIC.Raster = st.VICRaster
	s.Bus.VIC.TotalLines = st.VICTotalLines

	s.Bus.SID.Registers = st.SIDRegisters
	s.Bus.SID.Restore(st.SIDState)

	restoreCIA(s.Bus.CIA1, st.CIA1)
	restoreCIA(s.Bus.CIA2, st.CIA2)

	s.Bus.ColorRAM = st.ColorRAM
	s.Bus.KeyMatrix = st.KeyMatrix

	s.Region = st.Region
	s.FrameCount = st.FrameCount
	s.Running = st.Running
}

// Encode serializes a SaveState to its on-disk form: magic "C64S",
// little-endian version and timestamp, then every field in the order
// declared on SaveState.
func Encode(st SaveState) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteString(saveStateMagic)
	if err := binary.Write(buf, binary.LittleEndian, st.Version); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.Timestamp); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.A); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.X); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.Y); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.PC); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.SP); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, packFlags(st)); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.Cycles); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.RAM); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.VICRegisters); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.VICRaster); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.VICTotalLines); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.SIDRegisters); err != nil {
		return nil, err
	}
	if err := encodeSIDState(buf, st.SIDState); err != nil {
		return nil, err
	}
	if err := encodeCIAState(buf, st.CIA1); err != nil {
		return nil, err
	}
	if err := encodeCIAState(buf, st.CIA2); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.ColorRAM); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, packKeyMatrix(st.KeyMatrix)); err != nil {
		return nil, err
	}
	regionByte := byte(0)
	if st.Region == "NTSC" {
		regionByte = 1
	}
	if err := binary.Write(buf, binary.LittleEndian, regionByte); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, st.FrameCount); err != nil {
		return nil, err
	}
	running := byte(0)
	if st.Running {
		running = 1
	}
	if err := binary.Write(buf, binary.LittleEndian, running); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a save-state buffer produced by Encode, rejecting
// mismatched magic or version and truncated data.
func Decode(data []byte) (SaveState, error) {
	if len(data) < 4 {
		return SaveState{}, fmt.Errorf("c64: save state truncated: no magic")
	}
	if string(data[:4]) != saveStateMagic {
		return SaveState{}, fmt.Errorf("c64: bad save state magic %q", data[:4])
	}
	r := bytes.NewReader(data[4:])

	var st SaveState
	if err := binary.Read(r, binary.LittleEndian, &st.Version); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	if st.Version != saveStateVersion {
		return SaveState{}, fmt.Errorf("c64: unsupported save state version %d", st.Version)
	}
	if err := binary.Read(r, binary.LittleEndian, &st.Timestamp); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}

	fields := []any{
		&st.A, &st.X, &st.Y, &st.PC, &st.SP,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
		}
	}

	var flags byte
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	unpackFlags(&st, flags)

	if err := binary.Read(r, binary.LittleEndian, &st.Cycles); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &st.RAM); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &st.VICRegisters); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &st.VICRaster); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &st.VICTotalLines); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &st.SIDRegisters); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	sidState, err := decodeSIDState(r)
	if err != nil {
		return SaveState{}, err
	}
	st.SIDState = sidState

	cia1, err := decodeCIAState(r)
	if err != nil {
		return SaveState{}, err
	}
	st.CIA1 = cia1
	cia2, err := decodeCIAState(r)
	if err != nil {
		return SaveState{}, err
	}
	st.CIA2 = cia2

	if err := binary.Read(r, binary.LittleEndian, &st.ColorRAM); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	var packedKeys uint64
	if err := binary.Read(r, binary.LittleEndian, &packedKeys); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	st.KeyMatrix = unpackKeyMatrix(packedKeys)

	var regionByte byte
	if err := binary.Read(r, binary.LittleEndian, &regionByte); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	if regionByte == 1 {
		st.Region = "NTSC"
	} else {
		st.Region = "PAL"
	}

	if err := binary.Read(r, binary.LittleEndian, &st.FrameCount); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	var running byte
	if err := binary.Read(r, binary.LittleEndian, &running); err != nil {
		return SaveState{}, fmt.Errorf("c64: save state truncated: %w", err)
	}
	st.Running = running != 0

	return st, nil
}

const (
	flagN = 1 << iota
	flagV
	flagD
	flagI
	flagZ
	flagC
)

func packFlags(st SaveState) byte {
	var f byte
	if st.N {
		f |= flagN
	}
	if st.V {
		f |= flagV
	}
	if st.D {
		f |= flagD
	}
	if st.I {
		f |= flagI
	}
	if st.Z {
		f |= flagZ
	}
	if st.C {
		f |= flagC
	}
	return f
}

func unpackFlags(st *SaveState, f byte) {
	st.N = f&flagN != 0
	st.V = f&flagV != 0
	st.D = f&flagD != 0
	st.I = f&flagI != 0
	st.Z = f&flagZ != 0
	st.C = f&flagC != 0
}

func packKeyMatrix(m [8]byte) uint64 {
	var v uint64
	for i, b := range m {
		v |= uint64(b) << (8 * i)
	}
	return v
}

func unpackKeyMatrix(v uint64) [8]byte {
	var m [8]byte
	for i := range m {
		m[i] = byte(v >> (8 * i))
	}
	return m
}

func encodeSIDState(buf *bytes.Buffer, s sid.ChipState) error {
	for _, v := range s.Voices {
		if err := binary.Write(buf, binary.LittleEndian, v.Accumulator); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, v.PrevMSB); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, v.LFSR); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, v.EnvCounter); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, int32(v.Stage)); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, int32(v.ExpCounter)); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, v.GateOn); err != nil {
			return err
		}
	}
	if err := binary.Write(buf, binary.LittleEndian, s.FilterLo); err != nil {
		return err
	}
	return binary.Write(buf, binary.LittleEndian, s.FilterBand)
}

func decodeSIDState(r *bytes.Reader) (sid.ChipState, error) {
	var s sid.ChipState
	for i := range s.Voices {
		var stage, expCounter int32
		v := &s.Voices[i]
		for _, f := range []any{&v.Accumulator, &v.PrevMSB, &v.LFSR, &v.EnvCounter, &stage, &expCounter, &v.GateOn} {
			if err := binary.Read(r, binary.LittleEndian, f); err != nil {
				return s, fmt.Errorf("c64: save state truncated: %w", err)
			}
		}
		v.Stage = int(stage)
		v.ExpCounter = int(expCounter)
	}
	if err := binary.Read(r, binary.LittleEndian, &s.FilterLo); err != nil {
		return s, fmt.Errorf("c64: save state truncated: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &s.FilterBand); err != nil {
		return s, fmt.Errorf("c64: save state truncated: %w", err)
	}
	return s, nil
}

func encodeCIAState(buf *bytes.Buffer, s ciaState) error {
	fields := []any{
		s.PortA, s.PortB, s.DDRA, s.DDRB,
		s.TimerA, s.TimerB, s.LatchA, s.LatchB,
		s.RunningA, s.RunningB, s.OneShotA, s.OneShotB,
		s.TODTenths, s.TODSeconds, s.TODMinutes, s.TODHours,
		s.AlarmTenths, s.AlarmSeconds, s.AlarmMinutes, s.AlarmHours,
		s.SDR, s.ICRFlags, s.ICRMask, s.CRA, s.CRB,
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func decodeCIAState(r *bytes.Reader) (ciaState, error) {
	var s ciaState
	fields := []any{
		&s.PortA, &s.PortB, &s.DDRA, &s.DDRB,
		&s.TimerA, &s.TimerB, &s.LatchA, &s.LatchB,
		&s.RunningA, &s.RunningB, &s.OneShotA, &s.OneShotB,
		&s.TODTenths, &s.TODSeconds, &s.TODMinutes, &s.TODHours,
		&s.AlarmTenths, &s.AlarmSeconds, &s.AlarmMinutes, &s.AlarmHours,
		&s.SDR, &s.ICRFlags, &s.ICRMask, &s.CRA, &s.CRB,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return s, fmt.Errorf("c64: save state truncated: %w", err)
		}
	}
	return s, nil
}
