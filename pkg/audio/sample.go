package audio

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/govdp/vdp/pkg/buffer"
)

// Sample format flag byte: low bits select the PCM encoding, the upper bits
// modify construction.
const (
	FormatUnsigned8 = 0
	FormatSigned8   = 1

	FormatDataMask = 0x07
	FormatWithRate = 0x08 // an explicit sample rate follows
	FormatTuneable = 0x10 // base frequency defaults, enabling pitch shifts
)

// RepeatToEnd is the logical repeat length meaning "to the end of the
// sample". The wire encodes it as 0xFFFFFF.
const RepeatToEnd = math.MaxUint32

// Sample is an immutable audio payload view onto shared blocks, plus
// playback metadata. The block list is frozen at creation; clearing the
// originating buffer afterwards does not disturb playback, because the
// sample keeps its own references to the blocks.
//
// The scalar metadata fields are atomics: the dispatcher mutates them while
// channel workers read them once per audio frame.
type Sample struct {
	format     uint8
	sampleRate uint32
	size       int
	blocks     []*buffer.Block

	baseFrequency atomic.Uint32
	repeatStart   atomic.Uint32
	repeatLength  atomic.Uint32
}

// NewSample builds a sample over blocks with the engine's default rate.
func NewSample(blocks []*buffer.Block, format uint8) *Sample {
	return NewSampleWithRate(blocks, format, DefaultSampleRate)
}

// NewSampleWithRate builds a sample over blocks at an explicit rate.
func NewSampleWithRate(blocks []*buffer.Block, format uint8, sampleRate uint32) *Sample {
	frozen := make([]*buffer.Block, len(blocks))
	copy(frozen, blocks)
	size := 0
	for _, b := range frozen {
		size += b.Size()
	}
	s := &Sample{
		format:     format & FormatDataMask,
		sampleRate: sampleRate,
		size:       size,
		blocks:     frozen,
	}
	if format&FormatTuneable != 0 {
		s.baseFrequency.Store(DefaultFrequency)
	}
	s.repeatLength.Store(RepeatToEnd)
	return s
}

// Format returns the PCM encoding bits.
func (s *Sample) Format() uint8 { return s.format }

// SampleRate returns the sample's native rate in Hz.
func (s *Sample) SampleRate() uint32 { return s.sampleRate }

// Size returns the total payload size in bytes.
func (s *Sample) Size() int { return s.size }

// Blocks returns the frozen block list.
func (s *Sample) Blocks() []*buffer.Block { return s.blocks }

// BaseFrequency returns the frequency the payload is considered to be
// pitched at; 0 means untuned, played at its native rate.
func (s *Sample) BaseFrequency() uint32 { return s.baseFrequency.Load() }

// SetBaseFrequency sets the tuning reference frequency in Hz.
func (s *Sample) SetBaseFrequency(hz uint32) { s.baseFrequency.Store(hz) }

// RepeatStart returns the loop start in bytes from the logical start.
func (s *Sample) RepeatStart() uint32 { return s.repeatStart.Load() }

// SetRepeatStart sets the loop start in bytes.
func (s *Sample) SetRepeatStart(bytes uint32) { s.repeatStart.Store(bytes) }

// RepeatLength returns the loop length in bytes, RepeatToEnd for "rest of
// the sample".
func (s *Sample) RepeatLength() uint32 { return s.repeatLength.Load() }

// SetRepeatLength sets the loop length. The 24-bit sentinel 0xFFFFFF maps
// to RepeatToEnd.
func (s *Sample) SetRepeatLength(bytes uint32) {
	if bytes == 0xFFFFFF {
		bytes = RepeatToEnd
	}
	s.repeatLength.Store(bytes)
}

// ByteAt returns the payload byte at pos, walking the segmented blocks.
func (s *Sample) ByteAt(pos int) (byte, bool) {
	if pos < 0 {
		return 0, false
	}
	for _, b := range s.blocks {
		if pos < b.Size() {
			return b.Data()[pos], true
		}
		pos -= b.Size()
	}
	return 0, false
}

// level converts the payload byte at pos to a signed 16-bit level per the
// sample's PCM format.
func (s *Sample) level(pos int) (int16, bool) {
	c, ok := s.ByteAt(pos)
	if !ok {
		return 0, false
	}
	switch s.format {
	case FormatSigned8:
		return int16(int8(c)) << 8, true
	default: // FormatUnsigned8
		return (int16(c) - 128) << 8, true
	}
}

// SampleStore holds one sample per ID. Samples and buffers share the 16-bit
// ID space. It implements buffer.Collaborator so that, once registered with
// the block store, clearing all buffers also drops the sample records; individual buffer
// clears leave samples alone, since they carry their own block references.
type SampleStore struct {
	mu      sync.Mutex
	samples map[uint16]*Sample
}

// NewSampleStore returns an empty sample store.
func NewSampleStore() *SampleStore {
	return &SampleStore{samples: make(map[uint16]*Sample)}
}

// Create installs a sample built over blocks under id, removing any prior
// sample at that id first.
func (ss *SampleStore) Create(id uint16, blocks []*buffer.Block, format uint8, sampleRate uint32) *Sample {
	var s *Sample
	if format&FormatWithRate != 0 {
		s = NewSampleWithRate(blocks, format, sampleRate)
	} else {
		s = NewSample(blocks, format)
	}
	if format&FormatTuneable != 0 {
		s.SetBaseFrequency(DefaultFrequency)
	}
	ss.mu.Lock()
	ss.samples[id] = s
	ss.mu.Unlock()
	return s
}

// Get returns the sample stored under id.
func (ss *SampleStore) Get(id uint16) (*Sample, bool) {
	ss.mu.Lock()
	s, ok := ss.samples[id]
	ss.mu.Unlock()
	return s, ok
}

// Clear removes the sample at id, reporting whether one existed. A channel
// still holding the sample keeps playing from its own reference.
func (ss *SampleStore) Clear(id uint16) bool {
	ss.mu.Lock()
	_, ok := ss.samples[id]
	delete(ss.samples, id)
	ss.mu.Unlock()
	return ok
}

// Len returns the number of stored samples.
func (ss *SampleStore) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.samples)
}

// BufferCleared implements buffer.Collaborator. The sample's own block
// references keep the payload alive, so a buffer clear does not invalidate
// the sample.
func (ss *SampleStore) BufferCleared(id uint16) {
	logger.Debugf("sample store: buffer %d cleared, sample retained", id)
}

// AllCleared implements buffer.Collaborator. Clearing the whole block store
// drops all sample records; samples already held by channels stay readable.
func (ss *SampleStore) AllCleared() {
	ss.mu.Lock()
	ss.samples = make(map[uint16]*Sample)
	ss.mu.Unlock()
}
