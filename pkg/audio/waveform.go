package audio

import (
	"math"
)

// Built-in waveform selectors. The waveform byte is signed: non-negative
// values pick a generator, negative values encode a sample number, and
// WaveformSample selects a sample by an explicit buffer ID.
const (
	WaveformSquare   = 0
	WaveformTriangle = 1
	WaveformSawtooth = 2
	WaveformSine     = 3
	WaveformNoise    = 4
	WaveformVICNoise = 5
	WaveformSample   = 8
)

// oscillator tracks generator phase between frames. Phase runs 0..1 per
// waveform period; noise uses a 16-bit LFSR instead.
type oscillator struct {
	phase float64
	lfsr  uint16
	last  int16
}

func newOscillator() oscillator {
	return oscillator{lfsr: 0xACE1}
}

// next produces one output level and advances phase by freq/rate.
func (o *oscillator) next(waveform int8, freq float64, rate int, duty float64) int16 {
	if freq <= 0 || rate <= 0 {
		return 0
	}
	step := freq / float64(rate)
	var v int16
	switch waveform {
	case WaveformSquare:
		if o.phase < duty {
			v = math.MaxInt16
		} else {
			v = math.MinInt16 + 1
		}
	case WaveformTriangle:
		p := o.phase
		if p < 0.5 {
			v = int16((p*4 - 1) * 32767)
		} else {
			v = int16((3 - p*4) * 32767)
		}
	case WaveformSawtooth:
		v = int16((o.phase*2 - 1) * 32767)
	case WaveformSine:
		v = int16(math.Sin(o.phase*2*math.Pi) * 32767)
	case WaveformNoise:
		v = o.clockNoise()
	case WaveformVICNoise:
		// coarser gated noise: the LFSR is clocked at the oscillator
		// frequency rather than per output sample
		o.phase += step
		if o.phase >= 1 {
			o.phase -= math.Floor(o.phase)
			o.last = o.clockNoise()
		}
		return o.last
	default:
		return 0
	}
	o.phase += step
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return v
}

func (o *oscillator) clockNoise() int16 {
	// 16-bit Fibonacci LFSR, taps 16,14,13,11
	bit := (o.lfsr ^ (o.lfsr >> 2) ^ (o.lfsr >> 3) ^ (o.lfsr >> 5)) & 1
	o.lfsr = (o.lfsr >> 1) | (bit << 15)
	return int16(o.lfsr)
}
