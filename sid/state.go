package sid

// VoiceState is the externally visible snapshot of one voice's DSP
// state, for save-state capture/restore. Register contents are covered
// separately by Chip.Registers.
type VoiceState struct {
	Accumulator uint32
	PrevMSB     bool
	LFSR        uint32
	EnvCounter  byte
	Stage       int
	ExpCounter  int
	GateOn      bool
}

// ChipState is the full DSP state of a Chip beyond its register file:
// three voices plus the filter's two integrator state variables.
type ChipState struct {
	Voices     [numVoices]VoiceState
	FilterLo   float64
	FilterBand float64
}

// Snapshot captures the chip's DSP state for inclusion in a save state.
func (c *Chip) Snapshot() ChipState {
	var s ChipState
	for i, v := range c.voices {
		s.Voices[i] = VoiceState{
			Accumulator: v.accumulator,
			PrevMSB:     v.prevMSB,
			LFSR:        v.lfsr,
			EnvCounter:  v.envCounter,
			Stage:       int(v.stage),
			ExpCounter:  v.expCounter,
			GateOn:      v.gateOn,
		}
	}
	s.FilterLo = c.filterLo
	s.FilterBand = c.filterBand
	return s
}

// Restore overwrites the chip's DSP state from a captured snapshot. The
// register file must be restored separately (it's a plain [32]byte
// array the caller can assign directly).
func (c *Chip) Restore(s ChipState) {
	for i, v := range s.Voices {
		c.voices[i] = voice{
			accumulator: v.Accumulator,
			prevMSB:     v.PrevMSB,
			lfsr:        v.LFSR,
			envCounter:  v.EnvCounter,
			stage:       envelopeStage(v.Stage),
			expCounter:  v.ExpCounter,
			gateOn:      v.GateOn,
		}
	}
	c.filterLo = s.FilterLo
	c.filterBand = s.FilterBand
}
