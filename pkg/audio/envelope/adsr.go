package envelope

import "time"

// ADSR is a four-phase volume envelope: linear attack to the note's base
// volume, linear decay to the sustain level, hold until the note's scheduled
// off, then linear release to silence.
type ADSR struct {
	Attack  time.Duration
	Decay   time.Duration
	Sustain uint8 // 0-127, scaled against the note's base volume
	Release time.Duration
}

// VolumeAt implements Volume.
func (e *ADSR) VolumeAt(elapsed time.Duration, baseVolume uint8, noteDuration time.Duration) uint8 {
	base := int(baseVolume)
	sustain := int(e.Sustain) * base / 127
	switch {
	case elapsed < e.Attack:
		return uint8(lerp(0, base, int64(elapsed), int64(e.Attack)))
	case elapsed < e.Attack+e.Decay:
		return uint8(lerp(base, sustain, int64(elapsed-e.Attack), int64(e.Decay)))
	case elapsed < noteDuration:
		return uint8(sustain)
	case elapsed < noteDuration+e.Release:
		return uint8(lerp(sustain, 0, int64(elapsed-noteDuration), int64(e.Release)))
	default:
		return 0
	}
}

// Released implements Volume.
func (e *ADSR) Released(elapsed, noteDuration time.Duration) bool {
	return elapsed >= noteDuration+e.Release
}
