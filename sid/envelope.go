package sid

// adsrRateTable maps the 4-bit attack/decay/release rate nibble to the
// number of clock() calls between envelope-counter steps, following the
// widely published SID rate-counter periods (reSID/resid-fp derived).
var adsrRateTable = [16]int{
	9, 32, 63, 95, 149, 220, 267, 313,
	392, 977, 1954, 3126, 3907, 11720, 19532, 31251,
}

// exponential decay/release step multipliers: the envelope's decay and
// release stages slow down as the counter crosses these thresholds,
// approximating the SID's analogue exponential curve.
var expThresholds = [6]byte{0xFF, 0x5D, 0x36, 0x1A, 0x0E, 0x06}
var expDivisors = [6]int{1, 2, 4, 8, 16, 30}

func expDivisorFor(counter byte) int {
	for i := len(expThresholds) - 1; i >= 1; i-- {
		if counter <= expThresholds[i] {
			return expDivisors[i]
		}
	}
	return expDivisors[0]
}

// stepEnvelope advances voice n's envelope state machine by one SID
// clock cycle.
func (c *Chip) stepEnvelope(n int) {
	v := &c.voices[n]
	regs := c.voiceRegs(n)
	attack := regs[regAttackDecay] >> 4
	decay := regs[regAttackDecay] & 0x0F
	sustain := regs[regSustainRelease] >> 4
	release := regs[regSustainRelease] & 0x0F

	switch v.stage {
	case stageAttack:
		period := adsrRateTable[attack]
		v.expCounter++
		if v.expCounter >= period {
			v.expCounter = 0
			if v.envCounter < 0xFF {
				v.envCounter++
			} else {
				v.stage = stageDecay
			}
		}
	case stageDecay:
		target := sustain<<4 | sustain
		if v.envCounter <= target {
			v.stage = stageSustain
			return
		}
		period := adsrRateTable[decay] * expDivisorFor(v.envCounter)
		v.expCounter++
		if v.expCounter >= period {
			v.expCounter = 0
			if v.envCounter > 0 {
				v.envCounter--
			}
		}
	case stageSustain:
		target := sustain<<4 | sustain
		if v.envCounter != target {
			v.stage = stageDecay
		}
	case stageRelease:
		if v.envCounter == 0 {
			return
		}
		period := adsrRateTable[release] * expDivisorFor(v.envCounter)
		v.expCounter++
		if v.expCounter >= period {
			v.expCounter = 0
			v.envCounter--
		}
	}
}
