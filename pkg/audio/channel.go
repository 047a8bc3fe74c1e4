package audio

import (
	"math"
	"sync"
	"time"

	"github.com/govdp/vdp/pkg/audio/envelope"
)

// State represents a channel's playback state.
type State string

const (
	// StateDisabled means the channel has no worker and refuses commands.
	StateDisabled State = "disabled"
	// StateIdle means the channel is enabled and ready to play a note.
	StateIdle = "idle"
	// StatePlaying means a note is sounding within its scheduled duration.
	StatePlaying = "playing"
	// StateReleasing means the note is past its scheduled duration and the
	// volume envelope's release phase is still playing out.
	StateReleasing = "releasing"
)

// frameInterval is the channel worker's tick period. Commands issued to a
// channel take effect no later than one frame after acceptance.
const frameInterval = 5 * time.Millisecond

// indefiniteDuration stands in for "play until told otherwise".
const indefiniteDuration = time.Duration(math.MaxInt64)

// Channel is one voice of the audio engine: a state machine driven by a
// worker goroutine that applies envelopes once per frame, and a generator
// mixed by the engine on demand.
type Channel struct {
	num  uint8
	rate int // engine output rate in Hz

	mu         sync.Mutex
	state      State
	waveform   int8
	sample     *Sample
	volume     uint8
	frequency  uint16
	duration   time.Duration
	indefinite bool
	duty       float64
	sampleRate uint32 // per-channel override for sample playback, 0 = native
	volEnv     envelope.Volume
	freqEnv    envelope.Frequency

	startedAt time.Time
	now       func() time.Time

	// frame-computed output values read by the generator
	outVolume    uint8
	outFrequency uint16

	osc       oscillator
	samplePos float64

	quit chan struct{}
	done chan struct{}
}

func newChannel(num uint8, rate int) *Channel {
	return &Channel{
		num:       num,
		rate:      rate,
		state:     StateDisabled,
		frequency: DefaultFrequency,
		duty:      0.5,
		osc:       newOscillator(),
		now:       time.Now,
	}
}

// Num returns the channel number.
func (c *Channel) Num() uint8 {
	return c.num
}

// State returns the current playback state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Enable starts the channel worker. Enabling an enabled channel is a no-op
// success.
func (c *Channel) Enable() uint8 {
	c.mu.Lock()
	if c.state != StateDisabled {
		c.mu.Unlock()
		return 1
	}
	c.state = StateIdle
	c.quit = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(c.quit, c.done)
	c.mu.Unlock()
	// yield so the worker can reach its loop before the next command
	time.Sleep(time.Millisecond)
	return 1
}

// Disable cancels any note and stops the worker, waiting for quiescence.
func (c *Channel) Disable() uint8 {
	c.mu.Lock()
	if c.state == StateDisabled {
		c.mu.Unlock()
		return 1
	}
	quit, done := c.quit, c.done
	c.state = StateDisabled
	c.outVolume = 0
	c.mu.Unlock()
	close(quit)
	<-done
	return 1
}

// Reset disables the channel, clears note state, envelopes and waveform
// back to defaults, and re-enables it. Refused while disabled.
func (c *Channel) Reset() uint8 {
	c.mu.Lock()
	disabled := c.state == StateDisabled
	c.mu.Unlock()
	if disabled {
		return 0
	}
	c.Disable()
	c.mu.Lock()
	c.waveform = WaveformSquare
	c.sample = nil
	c.volume = 0
	c.frequency = DefaultFrequency
	c.duration = 0
	c.indefinite = false
	c.duty = 0.5
	c.sampleRate = 0
	c.volEnv = nil
	c.freqEnv = nil
	c.samplePos = 0
	c.osc = newOscillator()
	c.mu.Unlock()
	return c.Enable()
}

func (c *Channel) run(quit, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.tick(c.now())
			c.mu.Unlock()
		}
	}
}

// tick advances the state machine one audio frame. Called with mu held.
func (c *Channel) tick(now time.Time) {
	if c.state != StatePlaying && c.state != StateReleasing {
		return
	}
	elapsed := now.Sub(c.startedAt)
	dur := c.duration
	if c.indefinite {
		dur = indefiniteDuration
	}

	if c.volEnv != nil {
		c.outVolume = c.volEnv.VolumeAt(elapsed, c.volume, dur)
	} else {
		c.outVolume = c.volume
	}
	if c.freqEnv != nil {
		c.outFrequency = c.freqEnv.FrequencyAt(elapsed, c.frequency)
	} else {
		c.outFrequency = c.frequency
	}

	if c.indefinite {
		return
	}
	switch {
	case c.state == StatePlaying && elapsed >= c.duration:
		if c.volEnv != nil && !c.volEnv.Released(elapsed, c.duration) {
			c.state = StateReleasing
		} else {
			c.stopNote()
		}
	case c.state == StateReleasing:
		if c.volEnv == nil || c.volEnv.Released(elapsed, c.duration) {
			c.stopNote()
		}
	}
}

// stopNote returns the channel to idle. Called with mu held.
func (c *Channel) stopNote() {
	c.state = StateIdle
	c.outVolume = 0
}

// Play begins a note. Duration is in milliseconds; 65535 plays
// indefinitely. Refused unless the channel is idle.
func (c *Channel) Play(volume uint8, frequency uint16, durationMS uint32) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return 0
	}
	if volume > 127 {
		volume = 127
	}
	c.volume = volume
	c.frequency = frequency
	c.indefinite = durationMS == 0xFFFF
	c.duration = time.Duration(durationMS) * time.Millisecond
	c.startedAt = c.now()
	c.samplePos = 0
	c.outVolume = volume
	c.outFrequency = frequency
	c.state = StatePlaying
	logger.Debugf("channel %d: playing note v=%d f=%d d=%dms", c.num, volume, frequency, durationMS)
	return 1
}

// Status packs the channel state into a status byte.
func (c *Channel) Status() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var status uint8
	if c.state == StatePlaying || c.state == StateReleasing {
		status |= StatusActive
	}
	if c.state == StatePlaying {
		status |= StatusPlaying
	}
	if c.indefinite && status&StatusActive != 0 {
		status |= StatusIndefinite
	}
	if c.volEnv != nil {
		status |= StatusHasVolumeEnvelope
	}
	if c.freqEnv != nil {
		status |= StatusHasFrequencyEnvelope
	}
	return status
}

// SetVolume sets the note volume (0-127, clamped).
func (c *Channel) SetVolume(volume uint8) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisabled {
		return 0
	}
	if volume > 127 {
		volume = 127
	}
	c.volume = volume
	if c.volEnv == nil {
		c.outVolume = volume
	}
	return 1
}

// SetFrequency sets the note frequency in Hz.
func (c *Channel) SetFrequency(frequency uint16) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisabled {
		return 0
	}
	c.frequency = frequency
	if c.freqEnv == nil {
		c.outFrequency = frequency
	}
	return 1
}

// SetWaveform selects a generator or a sample. Negative waveform values and
// WaveformSample both select samples; the caller resolves the sample.
func (c *Channel) SetWaveform(waveform int8, sample *Sample) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisabled {
		return 0
	}
	if waveform < 0 || waveform == WaveformSample {
		if sample == nil {
			return 0
		}
		c.waveform = WaveformSample
		c.sample = sample
		c.samplePos = 0
		return 1
	}
	if waveform > WaveformVICNoise {
		return 0
	}
	c.waveform = waveform
	c.sample = nil
	return 1
}

// SetSampleRate overrides the rate sample playback is stepped at; 0 returns
// to the sample's native rate.
func (c *Channel) SetSampleRate(rate uint16) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisabled {
		return 0
	}
	c.sampleRate = uint32(rate)
	return 1
}

// SetDuration rewrites the current note's scheduled duration in
// milliseconds. 0xFFFFFF plays indefinitely.
func (c *Channel) SetDuration(durationMS uint32) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisabled {
		return 0
	}
	c.indefinite = durationMS == 0xFFFFFF
	c.duration = time.Duration(durationMS) * time.Millisecond
	return 1
}

// Seek positions sample playback at the given byte offset. Refused when the
// channel is disabled or has no sample selected.
func (c *Channel) Seek(position uint32) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisabled || c.sample == nil {
		return 0
	}
	c.samplePos = float64(position)
	return 1
}

// SetParameter adjusts a per-waveform parameter.
func (c *Channel) SetParameter(param uint8, value uint16) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisabled {
		return 0
	}
	switch param & ParamMask {
	case ParamDuty:
		c.duty = float64(value&0xFF) / 255
	case ParamVolume:
		v := uint8(value & 0xFF)
		if v > 127 {
			v = 127
		}
		c.volume = v
		if c.volEnv == nil {
			c.outVolume = v
		}
	case ParamFrequency:
		c.frequency = value
		if c.freqEnv == nil {
			c.outFrequency = value
		}
	default:
		return 0
	}
	return 1
}

// SetVolumeEnvelope installs or removes the volume envelope.
func (c *Channel) SetVolumeEnvelope(env envelope.Volume) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisabled {
		return 0
	}
	c.volEnv = env
	return 1
}

// SetFrequencyEnvelope installs or removes the frequency envelope.
func (c *Channel) SetFrequencyEnvelope(env envelope.Frequency) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisabled {
		return 0
	}
	c.freqEnv = env
	return 1
}

// generate mixes one frame of output into acc at the engine rate. Called by
// the engine's render path.
func (c *Channel) generate(acc []int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePlaying && c.state != StateReleasing {
		return
	}
	vol := int32(c.outVolume)
	if vol == 0 {
		return
	}
	if c.sample != nil && c.waveform == WaveformSample {
		c.generateSample(acc, vol)
		return
	}
	for i := range acc {
		v := c.osc.next(c.waveform, float64(c.outFrequency), c.rate, c.duty)
		acc[i] += int32(v) * vol / 127
	}
}

func (c *Channel) generateSample(acc []int32, vol int32) {
	s := c.sample
	step := float64(s.SampleRate())
	if c.sampleRate != 0 {
		step = float64(c.sampleRate)
	}
	step /= float64(c.rate)
	if base := s.BaseFrequency(); base != 0 && c.outFrequency != 0 {
		step *= float64(c.outFrequency) / float64(base)
	}

	size := s.Size()
	loopStart := int(s.RepeatStart())
	loopEnd := size
	if l := s.RepeatLength(); l != RepeatToEnd && loopStart+int(l) < size {
		loopEnd = loopStart + int(l)
	}

	for i := range acc {
		pos := int(c.samplePos)
		if pos >= loopEnd || pos >= size {
			if loopStart >= size {
				c.stopNote()
				return
			}
			c.samplePos = float64(loopStart)
			pos = loopStart
		}
		level, ok := s.level(pos)
		if !ok {
			c.stopNote()
			return
		}
		acc[i] += int32(level) * vol / 127
		c.samplePos += step
	}
}
