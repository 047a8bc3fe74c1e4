package envelope

import "time"

// VolumePhase is one sub-phase of a multi-phase envelope: interpolate from
// the previous level to Level over Duration.
type VolumePhase struct {
	Level    uint8 // 0-127, scaled against the note's base volume
	Duration time.Duration
}

// MultiphaseADSR generalizes ADSR to arbitrary phase lists. The attack list
// plays once from silence, the sustain list loops while the note is held,
// and the release list plays once down to silence.
type MultiphaseADSR struct {
	Attack  []VolumePhase
	Sustain []VolumePhase
	Release []VolumePhase
}

func phasesTotal(phases []VolumePhase) time.Duration {
	var total time.Duration
	for _, p := range phases {
		total += p.Duration
	}
	return total
}

// levelAt walks phases from the given starting level, interpolating within
// the phase that pos falls into. The second return reports whether pos lies
// within the list; when it does not, the level returned is the list's final
// level, for chaining.
func levelAt(phases []VolumePhase, start uint8, pos time.Duration) (uint8, bool) {
	level := int(start)
	for _, p := range phases {
		if pos < p.Duration {
			return uint8(lerp(level, int(p.Level), int64(pos), int64(p.Duration))), true
		}
		pos -= p.Duration
		level = int(p.Level)
	}
	return uint8(level), false
}

func lastLevel(phases []VolumePhase, fallback uint8) uint8 {
	if len(phases) == 0 {
		return fallback
	}
	return phases[len(phases)-1].Level
}

// VolumeAt implements Volume.
func (e *MultiphaseADSR) VolumeAt(elapsed time.Duration, baseVolume uint8, noteDuration time.Duration) uint8 {
	attackTotal := phasesTotal(e.Attack)
	scale := func(level uint8) uint8 {
		return uint8(int(level) * int(baseVolume) / 127)
	}

	if elapsed < attackTotal {
		level, _ := levelAt(e.Attack, 0, elapsed)
		return scale(level)
	}

	attackEnd := lastLevel(e.Attack, 127)
	if elapsed < noteDuration {
		sustainTotal := phasesTotal(e.Sustain)
		if sustainTotal <= 0 {
			return scale(attackEnd)
		}
		pos := (elapsed - attackTotal) % sustainTotal
		start := attackEnd
		if elapsed-attackTotal >= sustainTotal {
			// loop iterations after the first chain from the final level
			start = lastLevel(e.Sustain, attackEnd)
		}
		level, _ := levelAt(e.Sustain, start, pos)
		return scale(level)
	}

	held := lastLevel(e.Sustain, attackEnd)
	level, in := levelAt(e.Release, held, elapsed-noteDuration)
	if !in {
		return 0
	}
	return scale(level)
}

// Released implements Volume.
func (e *MultiphaseADSR) Released(elapsed, noteDuration time.Duration) bool {
	return elapsed >= noteDuration+phasesTotal(e.Release)
}
