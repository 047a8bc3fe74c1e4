package envelope

import "time"

// StepPhase applies Adjustment for Count consecutive steps.
type StepPhase struct {
	Adjustment int16
	Count      uint16
}

// SteppedFrequency is a stepped frequency envelope: every StepLength the
// envelope advances one step through its phase list. A cumulative phase adds
// its adjustment to the running frequency per step; an absolute phase
// replaces the frequency with base+adjustment. Restrict clamps the result to
// the audio range, otherwise arithmetic wraps at the 16-bit boundary.
type SteppedFrequency struct {
	Phases     []StepPhase
	StepLength time.Duration
	Repeats    bool
	Cumulative bool
	Restrict   bool
}

func (e *SteppedFrequency) totalSteps() int {
	total := 0
	for _, p := range e.Phases {
		total += int(p.Count)
	}
	return total
}

// FrequencyAt implements Frequency.
func (e *SteppedFrequency) FrequencyAt(elapsed time.Duration, baseFrequency uint16) uint16 {
	if e.StepLength <= 0 || len(e.Phases) == 0 {
		return baseFrequency
	}
	total := e.totalSteps()
	if total == 0 {
		return baseFrequency
	}
	step := int(elapsed / e.StepLength)
	if e.Repeats {
		step %= total
	} else if step > total {
		step = total
	}

	freq := int(baseFrequency)
	remaining := step
	for _, p := range e.Phases {
		n := int(p.Count)
		if n > remaining {
			n = remaining
		}
		if e.Cumulative {
			freq += int(p.Adjustment) * n
		} else if n > 0 {
			freq = int(baseFrequency) + int(p.Adjustment)
		}
		remaining -= n
		if remaining <= 0 {
			break
		}
	}

	if e.Restrict {
		if freq < MinFrequency {
			freq = MinFrequency
		}
		if freq > MaxFrequency {
			freq = MaxFrequency
		}
	}
	return uint16(freq)
}
