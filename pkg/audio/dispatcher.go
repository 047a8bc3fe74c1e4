package audio

import (
	"github.com/govdp/vdp/pkg/buffer"
	"github.com/govdp/vdp/pkg/stream"
)

// Audio command codes (the byte after the channel number).
const (
	cmdPlay       = 0
	cmdStatus     = 1
	cmdVolume     = 2
	cmdFrequency  = 3
	cmdWaveform   = 4
	cmdSample     = 5
	cmdEnvVolume  = 6
	cmdEnvFreq    = 7
	cmdEnable     = 8
	cmdDisable    = 9
	cmdReset      = 10
	cmdSeek       = 11
	cmdDuration   = 12
	cmdSampleRate = 13
	cmdSetParam   = 14
)

// Sample sub-actions.
const (
	sampleLoad               = 0
	sampleClear              = 1
	sampleFromBuffer         = 2
	sampleSetFrequency       = 3
	sampleBufSetFrequency    = 4
	sampleSetRepeatStart     = 5
	sampleBufSetRepeatStart  = 6
	sampleSetRepeatLength    = 7
	sampleBufSetRepeatLength = 8
	sampleDebugInfo          = 16
)

// Envelope type selectors.
const (
	envelopeNone           = 0
	envelopeADSR           = 1
	envelopeMultiphaseADSR = 2
	envelopeStepped        = 1

	freqControlRepeats    = 0x01
	freqControlCumulative = 0x02
	freqControlRestrict   = 0x04
)

// Dispatcher decodes audio VDU command payloads and routes them to channels
// and the sample store. Every command that gets as far as its command byte
// answers with exactly one status packet; a short read inside the payload
// aborts without status, leaving the input stream abandoned mid-frame.
type Dispatcher struct {
	engine  *Engine
	store   *buffer.Store
	samples *SampleStore
}

// NewDispatcher wires a dispatcher to its engine and stores.
func NewDispatcher(engine *Engine, store *buffer.Store, samples *SampleStore) *Dispatcher {
	return &Dispatcher{engine: engine, store: store, samples: samples}
}

// Dispatch consumes one audio command from src, replying on out.
func (d *Dispatcher) Dispatch(src stream.ByteSource, out stream.PacketWriter) {
	channelNum, err := src.ReadByte()
	if err != nil {
		return
	}
	command, err := src.ReadByte()
	if err != nil {
		return
	}

	sendStatus := func(status uint8) {
		if out == nil {
			return
		}
		if err := out.SendPacket(stream.PacketAudio, []byte{channelNum, status}); err != nil {
			logger.Warnf("failed to send audio status: %v", err)
		}
	}

	channel, haveChannel := d.engine.Channel(channelNum)

	switch command {
	case cmdPlay:
		volume, err := src.ReadByte()
		if err != nil {
			return
		}
		frequency, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		duration, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(channel.Play(volume, frequency, uint32(duration)))

	case cmdStatus:
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(channel.Status())

	case cmdVolume:
		volume, err := src.ReadByte()
		if err != nil {
			return
		}
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(channel.SetVolume(volume))

	case cmdFrequency:
		frequency, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(channel.SetFrequency(frequency))

	case cmdWaveform:
		waveform, err := src.ReadByte()
		if err != nil {
			return
		}
		w := int8(waveform)
		sampleID := uint16(0)
		if w == WaveformSample {
			// explicit buffer number for the sample
			sampleID, err = stream.ReadWord(src)
			if err != nil {
				return
			}
		} else if w < 0 {
			sampleID = sampleIDForNum(uint8(waveform))
		}
		if !haveChannel {
			sendStatus(0)
			return
		}
		var sample *Sample
		if w < 0 || w == WaveformSample {
			var ok bool
			sample, ok = d.samples.Get(sampleID)
			if !ok {
				logger.Debugf("waveform: sample %d not found", sampleID)
				sendStatus(0)
				return
			}
		}
		sendStatus(channel.SetWaveform(w, sample))

	case cmdSample:
		d.dispatchSample(src, channelNum, sendStatus)

	case cmdEnvVolume:
		d.dispatchVolumeEnvelope(src, channel, haveChannel, sendStatus)

	case cmdEnvFreq:
		d.dispatchFrequencyEnvelope(src, channel, haveChannel, sendStatus)

	case cmdEnable:
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(channel.Enable())

	case cmdDisable:
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(channel.Disable())

	case cmdReset:
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(channel.Reset())

	case cmdSeek:
		position, err := stream.Read24(src)
		if err != nil {
			return
		}
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(channel.Seek(position))

	case cmdDuration:
		duration, err := stream.Read24(src)
		if err != nil {
			return
		}
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(channel.SetDuration(duration))

	case cmdSampleRate:
		rate, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(channel.SetSampleRate(rate))

	case cmdSetParam:
		param, err := src.ReadByte()
		if err != nil {
			return
		}
		var value uint16
		if param&Param16Bit != 0 {
			value, err = stream.ReadWord(src)
		} else {
			var c byte
			c, err = src.ReadByte()
			value = uint16(c)
		}
		if err != nil {
			return
		}
		if !haveChannel {
			sendStatus(0)
			return
		}
		sendStatus(channel.SetParameter(param, value))

	default:
		logger.Debugf("unknown audio command %d, channel %d", command, channelNum)
		sendStatus(0)
	}
}

// sampleIDForNum converts a negative 8-bit sample number into its slot in
// the shared buffer/sample ID space.
func sampleIDForNum(num uint8) uint16 {
	return uint16(SampleBaseID + int(-int8(num)) - 1)
}

func (d *Dispatcher) dispatchSample(src stream.ByteSource, channelNum uint8, sendStatus func(uint8)) {
	action, err := src.ReadByte()
	if err != nil {
		return
	}
	// the channel byte carries the (negative) sample number for most actions
	sampleID := sampleIDForNum(channelNum)

	switch action {
	case sampleLoad:
		length, err := stream.Read24(src)
		if err != nil {
			return
		}
		sendStatus(d.loadSample(src, sampleID, int(length)))

	case sampleClear:
		logger.Debugf("clear sample %d", sampleID)
		if d.samples.Clear(sampleID) {
			sendStatus(1)
		} else {
			sendStatus(0)
		}

	case sampleFromBuffer:
		bufferID, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		format, err := src.ReadByte()
		if err != nil {
			return
		}
		sampleRate := uint32(DefaultSampleRate)
		if format&FormatWithRate != 0 {
			rate, err := stream.ReadWord(src)
			if err != nil {
				return
			}
			sampleRate = uint32(rate)
		}
		sendStatus(d.createSampleFromBuffer(bufferID, format, sampleRate))

	case sampleSetFrequency:
		frequency, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		sendStatus(d.setSampleFrequency(sampleID, uint32(frequency)))

	case sampleBufSetFrequency:
		bufferID, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		frequency, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		sendStatus(d.setSampleFrequency(bufferID, uint32(frequency)))

	case sampleSetRepeatStart:
		start, err := stream.Read24(src)
		if err != nil {
			return
		}
		sendStatus(d.setSampleRepeatStart(sampleID, start))

	case sampleBufSetRepeatStart:
		bufferID, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		start, err := stream.Read24(src)
		if err != nil {
			return
		}
		sendStatus(d.setSampleRepeatStart(bufferID, start))

	case sampleSetRepeatLength:
		length, err := stream.Read24(src)
		if err != nil {
			return
		}
		sendStatus(d.setSampleRepeatLength(sampleID, length))

	case sampleBufSetRepeatLength:
		bufferID, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		length, err := stream.Read24(src)
		if err != nil {
			return
		}
		sendStatus(d.setSampleRepeatLength(bufferID, length))

	case sampleDebugInfo:
		bufferID, err := stream.ReadWord(src)
		if err != nil {
			return
		}
		if s, ok := d.samples.Get(bufferID); ok {
			logger.Debugf("sample %d: %d blocks, %d bytes, format %d, rate %d, baseFreq %d, repeat %d+%d",
				bufferID, len(s.Blocks()), s.Size(), s.Format(), s.SampleRate(),
				s.BaseFrequency(), s.RepeatStart(), s.RepeatLength())
			sendStatus(1)
		} else {
			logger.Debugf("sample %d: not found", bufferID)
			sendStatus(0)
		}

	default:
		logger.Debugf("unknown sample action %d", action)
		sendStatus(0)
	}
}

// loadSample replaces buffer sampleID with the stream payload and installs
// a default-format sample over it.
func (d *Dispatcher) loadSample(src stream.ByteSource, sampleID uint16, length int) uint8 {
	d.store.Clear(sampleID)
	if d.store.Write(sampleID, length, src) != 0 {
		return 0
	}
	return d.createSampleFromBuffer(sampleID, 0, DefaultSampleRate)
}

func (d *Dispatcher) createSampleFromBuffer(bufferID uint16, format uint8, sampleRate uint32) uint8 {
	blocks, ok := d.store.Blocks(bufferID)
	if !ok || len(blocks) == 0 {
		logger.Debugf("sample: buffer %d not found", bufferID)
		return 0
	}
	d.samples.Clear(bufferID)
	d.samples.Create(bufferID, blocks, format, sampleRate)
	return 1
}

func (d *Dispatcher) setSampleFrequency(sampleID uint16, frequency uint32) uint8 {
	s, ok := d.samples.Get(sampleID)
	if !ok {
		logger.Debugf("sample %d not found", sampleID)
		return 0
	}
	s.SetBaseFrequency(frequency)
	return 1
}

func (d *Dispatcher) setSampleRepeatStart(sampleID uint16, start uint32) uint8 {
	s, ok := d.samples.Get(sampleID)
	if !ok {
		logger.Debugf("sample %d not found", sampleID)
		return 0
	}
	s.SetRepeatStart(start)
	return 1
}

func (d *Dispatcher) setSampleRepeatLength(sampleID uint16, length uint32) uint8 {
	s, ok := d.samples.Get(sampleID)
	if !ok {
		logger.Debugf("sample %d not found", sampleID)
		return 0
	}
	s.SetRepeatLength(length)
	return 1
}
