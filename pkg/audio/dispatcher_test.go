package audio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govdp/vdp/pkg/buffer"
	"github.com/govdp/vdp/pkg/stream"
)

type packetRecorder struct {
	mu      sync.Mutex
	packets [][]byte
}

func (r *packetRecorder) SendPacket(kind byte, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := append([]byte{kind}, payload...)
	r.packets = append(r.packets, p)
	return nil
}

func (r *packetRecorder) last(t *testing.T) []byte {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.packets, "expected a status packet")
	return r.packets[len(r.packets)-1]
}

func (r *packetRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.packets)
}

type dispatcherFixture struct {
	store    *buffer.Store
	samples  *SampleStore
	engine   *Engine
	d        *Dispatcher
	recorder *packetRecorder
}

func newFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	f := &dispatcherFixture{
		store:    buffer.NewStore(),
		samples:  NewSampleStore(),
		engine:   NewEngine(DefaultSampleRate, 1),
		recorder: &packetRecorder{},
	}
	f.store.AddCollaborator(f.samples)
	f.store.AddCollaborator(f.engine)
	f.d = NewDispatcher(f.engine, f.store, f.samples)
	t.Cleanup(f.engine.Shutdown)
	return f
}

// dispatch feeds one audio command payload (channel byte onwards).
func (f *dispatcherFixture) dispatch(payload ...byte) {
	f.d.Dispatch(stream.NewQueueSource(payload), f.recorder)
}

func TestDispatchPlayEmitsStatus(t *testing.T) {
	f := newFixture(t)
	f.dispatch(0, cmdPlay, 64, 0xB8, 0x01, 0xE8, 0x03) // v=64 f=440 d=1000
	pkt := f.recorder.last(t)
	assert.Equal(t, []byte{stream.PacketAudio, 0, 1}, pkt)

	ch, _ := f.engine.Channel(0)
	assert.Equal(t, State(StatePlaying), ch.State())
}

func TestDispatchPlayDisabledChannel(t *testing.T) {
	f := newFixture(t)
	// channel 1 was not enabled at startup
	f.dispatch(1, cmdPlay, 64, 0xB8, 0x01, 0xE8, 0x03)
	assert.Equal(t, []byte{stream.PacketAudio, 1, 0}, f.recorder.last(t))
}

func TestDispatchInvalidChannelStatusZero(t *testing.T) {
	f := newFixture(t)
	f.dispatch(200, cmdStatus)
	assert.Equal(t, []byte{stream.PacketAudio, 200, 0}, f.recorder.last(t))
}

func TestDispatchTruncatedPayloadNoStatus(t *testing.T) {
	f := newFixture(t)
	f.dispatch(0, cmdPlay, 64) // frequency and duration missing
	assert.Zero(t, f.recorder.count(), "truncated command must not answer")
}

func TestDispatchUnknownCommandStatusZero(t *testing.T) {
	f := newFixture(t)
	f.dispatch(0, 99)
	assert.Equal(t, []byte{stream.PacketAudio, 0, 0}, f.recorder.last(t))
}

func TestDispatchEnableDisableReset(t *testing.T) {
	f := newFixture(t)
	f.dispatch(1, cmdEnable)
	assert.Equal(t, []byte{stream.PacketAudio, 1, 1}, f.recorder.last(t))
	ch, _ := f.engine.Channel(1)
	assert.Equal(t, State(StateIdle), ch.State())

	f.dispatch(1, cmdReset)
	assert.Equal(t, []byte{stream.PacketAudio, 1, 1}, f.recorder.last(t))

	f.dispatch(1, cmdDisable)
	assert.Equal(t, []byte{stream.PacketAudio, 1, 1}, f.recorder.last(t))
	assert.Equal(t, State(StateDisabled), ch.State())
}

func TestDispatchVolumeFrequencyParams(t *testing.T) {
	f := newFixture(t)
	f.dispatch(0, cmdVolume, 100)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])

	f.dispatch(0, cmdFrequency, 0xB8, 0x01)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])

	// duty cycle, 8-bit value
	f.dispatch(0, cmdSetParam, ParamDuty, 128)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])

	// frequency, 16-bit value
	f.dispatch(0, cmdSetParam, ParamFrequency|Param16Bit, 0xB8, 0x01)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])
}

func TestDispatchSampleFromBuffer(t *testing.T) {
	f := newFixture(t)
	f.store.Replace(7, []*buffer.Block{buffer.BlockFrom([]byte{1, 2, 3})})

	f.dispatch(0, cmdSample, sampleFromBuffer, 7, 0, FormatUnsigned8)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])

	s, ok := f.samples.Get(7)
	require.True(t, ok)
	assert.Equal(t, 3, s.Size())
	assert.Equal(t, uint32(DefaultSampleRate), s.SampleRate())
}

func TestDispatchSampleFromBufferWithRate(t *testing.T) {
	f := newFixture(t)
	f.store.Replace(7, []*buffer.Block{buffer.BlockFrom([]byte{1})})

	f.dispatch(0, cmdSample, sampleFromBuffer, 7, 0, FormatSigned8|FormatWithRate, 0x22, 0x56) // 22050
	require.Equal(t, byte(1), f.recorder.last(t)[2])

	s, _ := f.samples.Get(7)
	assert.Equal(t, uint32(0x5622), s.SampleRate())
}

func TestDispatchSampleFromMissingBuffer(t *testing.T) {
	f := newFixture(t)
	f.dispatch(0, cmdSample, sampleFromBuffer, 7, 0, FormatUnsigned8)
	assert.Equal(t, byte(0), f.recorder.last(t)[2])
}

func TestDispatchSampleLoadAndClear(t *testing.T) {
	f := newFixture(t)
	// channel byte 0xFF encodes sample number -1
	f.dispatch(0xFF, cmdSample, sampleLoad, 3, 0, 0, 0x10, 0x20, 0x30)
	require.Equal(t, byte(1), f.recorder.last(t)[2])

	id := sampleIDForNum(0xFF)
	assert.Equal(t, uint16(SampleBaseID), id)
	s, ok := f.samples.Get(id)
	require.True(t, ok)
	assert.Equal(t, 3, s.Size())

	f.dispatch(0xFF, cmdSample, sampleClear)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])
	_, ok = f.samples.Get(id)
	assert.False(t, ok)
}

func TestDispatchSampleMetadata(t *testing.T) {
	f := newFixture(t)
	f.store.Replace(7, []*buffer.Block{buffer.BlockFrom([]byte{1, 2, 3, 4})})
	f.dispatch(0, cmdSample, sampleFromBuffer, 7, 0, 0)

	f.dispatch(0, cmdSample, sampleBufSetFrequency, 7, 0, 0xB8, 0x01)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])
	f.dispatch(0, cmdSample, sampleBufSetRepeatStart, 7, 0, 2, 0, 0)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])
	f.dispatch(0, cmdSample, sampleBufSetRepeatLength, 7, 0, 0xFF, 0xFF, 0xFF)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])

	s, _ := f.samples.Get(7)
	assert.Equal(t, uint32(440), s.BaseFrequency())
	assert.Equal(t, uint32(2), s.RepeatStart())
	assert.Equal(t, uint32(RepeatToEnd), s.RepeatLength())

	// metadata on a missing sample refuses
	f.dispatch(0, cmdSample, sampleBufSetFrequency, 9, 0, 0xB8, 0x01)
	assert.Equal(t, byte(0), f.recorder.last(t)[2])
}

func TestDispatchWaveformWithSample(t *testing.T) {
	f := newFixture(t)
	f.store.Replace(7, []*buffer.Block{buffer.BlockFrom([]byte{1, 2})})
	f.dispatch(0, cmdSample, sampleFromBuffer, 7, 0, 0)

	// explicit sample selection by buffer ID
	f.dispatch(0, cmdWaveform, WaveformSample, 7, 0)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])

	// missing sample refuses
	f.dispatch(0, cmdWaveform, WaveformSample, 8, 0)
	assert.Equal(t, byte(0), f.recorder.last(t)[2])

	// built-in waveform
	f.dispatch(0, cmdWaveform, WaveformTriangle)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])
}

func TestDispatchVolumeEnvelope(t *testing.T) {
	f := newFixture(t)
	// ADSR: attack 100, decay 50, sustain 64, release 200
	f.dispatch(0, cmdEnvVolume, envelopeADSR, 100, 0, 50, 0, 64, 200, 0)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])
	ch, _ := f.engine.Channel(0)
	assert.NotZero(t, ch.Status()&StatusHasVolumeEnvelope)

	f.dispatch(0, cmdEnvVolume, envelopeNone)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])
	assert.Zero(t, ch.Status()&StatusHasVolumeEnvelope)
}

func TestDispatchMultiphaseEnvelope(t *testing.T) {
	f := newFixture(t)
	f.dispatch(0, cmdEnvVolume, envelopeMultiphaseADSR,
		1, 127, 100, 0, // attack: one phase to 127 over 100ms
		2, 100, 50, 0, 80, 50, 0, // sustain: two phases
		1, 0, 200, 0, // release: one phase to silence
	)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])
	ch, _ := f.engine.Channel(0)
	assert.NotZero(t, ch.Status()&StatusHasVolumeEnvelope)
}

func TestDispatchFrequencyEnvelope(t *testing.T) {
	f := newFixture(t)
	f.dispatch(0, cmdEnvFreq, envelopeStepped,
		2, // phase count
		freqControlRepeats|freqControlCumulative,
		10, 0, // step length
		5, 0, 4, 0, // +5 for 4 steps
		0xFB, 0xFF, 4, 0, // -5 for 4 steps
	)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])
	ch, _ := f.engine.Channel(0)
	assert.NotZero(t, ch.Status()&StatusHasFrequencyEnvelope)

	f.dispatch(0, cmdEnvFreq, envelopeNone)
	assert.Zero(t, ch.Status()&StatusHasFrequencyEnvelope)
}

func TestDispatchSeekDurationSampleRate(t *testing.T) {
	f := newFixture(t)
	f.store.Replace(7, []*buffer.Block{buffer.BlockFrom([]byte{1, 2, 3})})
	f.dispatch(0, cmdSample, sampleFromBuffer, 7, 0, 0)
	f.dispatch(0, cmdWaveform, WaveformSample, 7, 0)

	f.dispatch(0, cmdSeek, 2, 0, 0)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])

	f.dispatch(0, cmdDuration, 0xE8, 0x03, 0)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])

	f.dispatch(0, cmdSampleRate, 0x22, 0x56)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])
}

func TestSampleSharingScenario(t *testing.T) {
	// create a buffer, build a sample over it, clear the buffer: the sample
	// must stay playable until its own clear
	f := newFixture(t)
	f.store.Replace(7, []*buffer.Block{buffer.BlockFrom([]byte{0x10, 0x20})})
	f.dispatch(0, cmdSample, sampleFromBuffer, 7, 0, 0)

	f.store.Clear(7)
	s, ok := f.samples.Get(7)
	require.True(t, ok, "sample must survive buffer clear")
	got, ok := s.ByteAt(1)
	require.True(t, ok)
	assert.Equal(t, byte(0x20), got)

	f.dispatch(0, cmdWaveform, WaveformSample, 7, 0)
	assert.Equal(t, byte(1), f.recorder.last(t)[2])
}
