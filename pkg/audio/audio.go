// Package audio implements the audio command channel: per-channel playback
// state machines, waveform and sample management, envelope application and
// the VDU command dispatcher. Channels run as independent workers; commands
// take effect no later than the next audio frame.
package audio

import (
	"github.com/govdp/vdp/internal/logging"
)

var logger = logging.NewLogger("vdp/audio")

// Engine defaults.
const (
	MaxChannels     = 32
	DefaultChannels = 3

	// DefaultSampleRate is the native rate samples are assumed to use when
	// none is given.
	DefaultSampleRate = 16384

	// DefaultFrequency is the base frequency assigned to tuneable samples.
	DefaultFrequency = 523

	// SampleBaseID is where negative sample numbers land in the shared
	// buffer/sample ID space: sample -1 is buffer SampleBaseID, sample -2
	// is SampleBaseID+1, and so on.
	SampleBaseID = 64256
)

// Channel status byte bits.
const (
	StatusActive               = 1 << 0
	StatusPlaying              = 1 << 1
	StatusIndefinite           = 1 << 2
	StatusHasVolumeEnvelope    = 1 << 3
	StatusHasFrequencyEnvelope = 1 << 4
)

// Channel parameters settable via SET_PARAM. Bit 7 of the parameter byte
// selects a 16-bit value.
const (
	ParamDuty      = 0
	ParamVolume    = 2
	ParamFrequency = 3
	Param16Bit     = 0x80
	ParamMask      = 0x0F
)
