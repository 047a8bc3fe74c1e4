package audio

import (
	"bytes"
	"testing"

	"github.com/govdp/vdp/pkg/buffer"
)

func sampleBlocks(data ...byte) []*buffer.Block {
	return []*buffer.Block{buffer.BlockFrom(data)}
}

func TestSampleDefaults(t *testing.T) {
	s := NewSample(sampleBlocks(1, 2, 3), FormatUnsigned8)
	if s.SampleRate() != DefaultSampleRate {
		t.Fatalf("SampleRate() = %d, want %d", s.SampleRate(), DefaultSampleRate)
	}
	if s.BaseFrequency() != 0 {
		t.Fatalf("BaseFrequency() = %d, want 0 (untuned)", s.BaseFrequency())
	}
	if s.RepeatLength() != RepeatToEnd {
		t.Fatalf("RepeatLength() = %d, want RepeatToEnd", s.RepeatLength())
	}
	if s.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", s.Size())
	}
}

func TestSampleTuneable(t *testing.T) {
	s := NewSample(sampleBlocks(1), FormatTuneable|FormatSigned8)
	if s.BaseFrequency() != DefaultFrequency {
		t.Fatalf("BaseFrequency() = %d, want %d", s.BaseFrequency(), DefaultFrequency)
	}
	if s.Format() != FormatSigned8 {
		t.Fatalf("Format() = %d, want signed 8", s.Format())
	}
}

func TestSampleRepeatLengthSentinel(t *testing.T) {
	s := NewSample(sampleBlocks(1, 2), FormatUnsigned8)
	s.SetRepeatLength(100)
	if s.RepeatLength() != 100 {
		t.Fatalf("RepeatLength() = %d, want 100", s.RepeatLength())
	}
	s.SetRepeatLength(0xFFFFFF)
	if s.RepeatLength() != RepeatToEnd {
		t.Fatalf("RepeatLength() = %d, want RepeatToEnd after sentinel", s.RepeatLength())
	}
}

func TestSampleByteAtWalksBlocks(t *testing.T) {
	blocks := []*buffer.Block{
		buffer.BlockFrom([]byte{10, 11}),
		buffer.BlockFrom([]byte{12}),
	}
	s := NewSample(blocks, FormatUnsigned8)
	for i, want := range []byte{10, 11, 12} {
		got, ok := s.ByteAt(i)
		if !ok || got != want {
			t.Fatalf("ByteAt(%d) = %d, %t, want %d", i, got, ok, want)
		}
	}
	if _, ok := s.ByteAt(3); ok {
		t.Fatal("ByteAt past end must fail")
	}
}

func TestSampleLevelFormats(t *testing.T) {
	s := NewSample(sampleBlocks(0x80), FormatUnsigned8)
	if level, _ := s.level(0); level != 0 {
		t.Fatalf("unsigned midpoint level = %d, want 0", level)
	}
	s = NewSample(sampleBlocks(0x80), FormatSigned8)
	if level, _ := s.level(0); level != -32768 {
		t.Fatalf("signed -128 level = %d, want -32768", level)
	}
}

func TestSampleStoreReplaces(t *testing.T) {
	ss := NewSampleStore()
	first := ss.Create(7, sampleBlocks(1), FormatUnsigned8, 0)
	second := ss.Create(7, sampleBlocks(2), FormatUnsigned8, 0)
	if first == second {
		t.Fatal("Create must build a fresh sample")
	}
	got, ok := ss.Get(7)
	if !ok || got != second {
		t.Fatal("Create must replace the prior sample at the same ID")
	}
	if ss.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", ss.Len())
	}
}

func TestSampleSurvivesBufferClear(t *testing.T) {
	store := buffer.NewStore()
	ss := NewSampleStore()
	store.AddCollaborator(ss)

	store.Write(7, 3, bytes.NewReader([]byte{0x10, 0x20, 0x30}))
	blocks, _ := store.Blocks(7)
	ss.Create(7, blocks, FormatUnsigned8, 0)

	store.Clear(7)
	s, ok := ss.Get(7)
	if !ok {
		t.Fatal("sample must survive clearing its source buffer")
	}
	if got, ok := s.ByteAt(2); !ok || got != 0x30 {
		t.Fatalf("ByteAt(2) = %d, %t, want 0x30", got, ok)
	}

	if !ss.Clear(7) {
		t.Fatal("Clear(7) must report the sample existed")
	}
	if _, ok := ss.Get(7); ok {
		t.Fatal("sample cleared explicitly must be gone")
	}
}

func TestSampleStoreAllCleared(t *testing.T) {
	store := buffer.NewStore()
	ss := NewSampleStore()
	store.AddCollaborator(ss)

	store.Write(7, 1, bytes.NewReader([]byte{0x10}))
	blocks, _ := store.Blocks(7)
	s := ss.Create(7, blocks, FormatUnsigned8, 0)

	store.Clear(buffer.ReservedID)
	if ss.Len() != 0 {
		t.Fatal("global clear must drop all sample records")
	}
	// the sample object itself stays readable for a channel still holding it
	if got, ok := s.ByteAt(0); !ok || got != 0x10 {
		t.Fatalf("ByteAt(0) = %d, %t, want 0x10", got, ok)
	}
}
