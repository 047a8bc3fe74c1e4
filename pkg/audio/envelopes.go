package audio

import (
	"time"

	"github.com/govdp/vdp/pkg/audio/envelope"
	"github.com/govdp/vdp/pkg/stream"
)

// dispatchVolumeEnvelope parses an ENV_VOLUME payload and installs the
// envelope on the channel. The payload must be consumed even when the
// channel cannot accept it, to keep the stream in sync.
func (d *Dispatcher) dispatchVolumeEnvelope(src stream.ByteSource, c *Channel, haveChannel bool, sendStatus func(uint8)) {
	envType, err := src.ReadByte()
	if err != nil {
		return
	}
	accept := func(env envelope.Volume) {
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(c.SetVolumeEnvelope(env))
	}

	switch envType {
	case envelopeNone:
		accept(nil)

	case envelopeADSR:
		attack, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		decay, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		sustain, err := src.ReadByte()
		if err != nil {
			return
		}
		release, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		accept(&envelope.ADSR{
			Attack:  time.Duration(attack) * time.Millisecond,
			Decay:   time.Duration(decay) * time.Millisecond,
			Sustain: sustain,
			Release: time.Duration(release) * time.Millisecond,
		})

	case envelopeMultiphaseADSR:
		attack, err := readVolumePhases(src)
		if err != nil {
			return
		}
		sustain, err := readVolumePhases(src)
		if err != nil {
			return
		}
		release, err := readVolumePhases(src)
		if err != nil {
			return
		}
		accept(&envelope.MultiphaseADSR{Attack: attack, Sustain: sustain, Release: release})

	default:
		logger.Debugf("unknown volume envelope type %d", envType)
		sendStatus(0)
	}
}

func readVolumePhases(src stream.ByteSource) ([]envelope.VolumePhase, error) {
	count, err := src.ReadByte()
	if err != nil {
		return nil, err
	}
	phases := make([]envelope.VolumePhase, 0, count)
	for n := 0; n < int(count); n++ {
		level, err := src.ReadByte()
		if err != nil {
			return nil, err
		}
		duration, err := stream.ReadWord(src)
		if err != nil {
			return nil, err
		}
		phases = append(phases, envelope.VolumePhase{
			Level:    level,
			Duration: time.Duration(duration) * time.Millisecond,
		})
	}
	return phases, nil
}

// dispatchFrequencyEnvelope parses an ENV_FREQUENCY payload.
func (d *Dispatcher) dispatchFrequencyEnvelope(src stream.ByteSource, c *Channel, haveChannel bool, sendStatus func(uint8)) {
	envType, err := src.ReadByte()
	if err != nil {
		return
	}

	switch envType {
	case envelopeNone:
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(c.SetFrequencyEnvelope(nil))

	case envelopeStepped:
		phaseCount, err := src.ReadByte()
		if err != nil {
			return
		}
		control, err := src.ReadByte()
		if err != nil {
			return
		}
		stepLength, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		phases := make([]envelope.StepPhase, 0, phaseCount)
		for n := 0; n < int(phaseCount); n++ {
			adjustment, err := stream.ReadWord(src)
			if err != nil {
				return
			}
			number, err := stream.ReadWord(src)
			if err != nil {
				return
			}
			phases = append(phases, envelope.StepPhase{
				Adjustment: int16(adjustment),
				Count:      number,
			})
		}
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(c.SetFrequencyEnvelope(&envelope.SteppedFrequency{
			Phases:     phases,
			StepLength: time.Duration(stepLength) * time.Millisecond,
			Repeats:    control&freqControlRepeats != 0,
			Cumulative: control&freqControlCumulative != 0,
			Restrict:   control&freqControlRestrict != 0,
		}))

	default:
		logger.Debugf("unknown frequency envelope type %d", envType)
		sendStatus(0)
	}
}
