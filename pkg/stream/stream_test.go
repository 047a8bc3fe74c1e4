package stream

import (
	"testing"
	"time"

	"github.com/govdp/vdp/pkg/buffer"
)

func TestReadWordLittleEndian(t *testing.T) {
	src := NewQueueSource([]byte{0x34, 0x12})
	got, err := ReadWord(src)
	if err != nil || got != 0x1234 {
		t.Fatalf("ReadWord() = %#x, %v, want 0x1234", got, err)
	}
}

func TestRead24LittleEndian(t *testing.T) {
	src := NewQueueSource([]byte{0x56, 0x34, 0x12})
	got, err := Read24(src)
	if err != nil || got != 0x123456 {
		t.Fatalf("Read24() = %#x, %v, want 0x123456", got, err)
	}
}

func TestReadWordShort(t *testing.T) {
	src := NewQueueSource([]byte{0x34})
	if _, err := ReadWord(src); err != ErrShortRead {
		t.Fatalf("ReadWord() err = %v, want ErrShortRead", err)
	}
}

func TestOffsetFromStreamPlain(t *testing.T) {
	src := NewQueueSource([]byte{0x10, 0x00})
	off, err := OffsetFromStream(src, false)
	if err != nil || off.BlockOffset != 0x10 || off.BlockIndex != 0 {
		t.Fatalf("OffsetFromStream() = %+v, %v", off, err)
	}
}

func TestOffsetFromStreamAdvanced(t *testing.T) {
	// bit 23 clear: no block index follows
	src := NewQueueSource([]byte{0x01, 0x02, 0x03})
	off, err := OffsetFromStream(src, true)
	if err != nil || off.BlockOffset != 0x030201 || off.BlockIndex != 0 {
		t.Fatalf("OffsetFromStream() = %+v, %v", off, err)
	}

	// bit 23 set: 16-bit block index follows, bit masked off
	src = NewQueueSource([]byte{0x01, 0x02, 0x83, 0x05, 0x00})
	off, err = OffsetFromStream(src, true)
	if err != nil {
		t.Fatalf("OffsetFromStream() err = %v", err)
	}
	if off.BlockOffset != 0x030201 {
		t.Fatalf("BlockOffset = %#x, want 0x030201", off.BlockOffset)
	}
	if off.BlockIndex != 5 {
		t.Fatalf("BlockIndex = %d, want 5", off.BlockIndex)
	}
}

func TestBufferIDsFromStream(t *testing.T) {
	src := NewQueueSource([]byte{0x01, 0x00, 0x02, 0x00, 0xFF, 0xFF})
	ids, err := BufferIDsFromStream(src)
	if err != nil {
		t.Fatalf("BufferIDsFromStream() err = %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("ids = %v, want [1 2]", ids)
	}
}

func TestBufferIDsFromStreamTimeout(t *testing.T) {
	src := NewQueueSource([]byte{0x01, 0x00, 0x02})
	if _, err := BufferIDsFromStream(src); err != ErrShortRead {
		t.Fatalf("err = %v, want ErrShortRead", err)
	}
}

func TestMultiBlockStream(t *testing.T) {
	blocks := []*buffer.Block{
		buffer.BlockFrom([]byte{1, 2}),
		buffer.BlockFrom([]byte{3}),
	}
	s := NewMultiBlockStream(blocks)
	if got := s.Available(); got != 3 {
		t.Fatalf("Available() = %d, want 3", got)
	}
	for want := byte(1); want <= 3; want++ {
		got, err := s.ReadByte()
		if err != nil || got != want {
			t.Fatalf("ReadByte() = %d, %v, want %d", got, err, want)
		}
	}
	if _, err := s.ReadByte(); err != ErrShortRead {
		t.Fatalf("err = %v, want ErrShortRead", err)
	}
}

func TestMultiBlockStreamSeek(t *testing.T) {
	blocks := []*buffer.Block{
		buffer.BlockFrom([]byte{1, 2}),
		buffer.BlockFrom([]byte{3, 4}),
	}
	s := NewMultiBlockStream(blocks)
	s.SeekTo(1, 1)
	got, err := s.ReadByte()
	if err != nil || got != 4 {
		t.Fatalf("ReadByte() after seek = %d, %v, want 4", got, err)
	}

	s.SeekTo(0, buffer.PastEnd)
	if got := s.Available(); got != 0 {
		t.Fatalf("Available() after past-end seek = %d, want 0", got)
	}
	if _, err := s.ReadByte(); err != ErrShortRead {
		t.Fatalf("err = %v, want ErrShortRead", err)
	}
}

func TestTimedSourceTimeout(t *testing.T) {
	src := NewTimedSource(4, 10*time.Millisecond)
	if _, err := src.Write([]byte{7}); err != nil {
		t.Fatalf("Write() err = %v", err)
	}
	got, err := src.ReadByte()
	if err != nil || got != 7 {
		t.Fatalf("ReadByte() = %d, %v, want 7", got, err)
	}
	if _, err := src.ReadByte(); err != ErrShortRead {
		t.Fatalf("empty read err = %v, want ErrShortRead", err)
	}
}

func TestOutputRedirect(t *testing.T) {
	sink := buffer.NewWritableBlock(4)
	out := NewOutput(nil)
	out.Redirect(sink)
	if err := out.SendPacket(PacketAudio, []byte{1, 2}); err != nil {
		t.Fatalf("SendPacket() err = %v", err)
	}
	if sink.Data()[0] != 1 || sink.Data()[1] != 2 {
		t.Fatalf("sink = %v, want payload bytes at front", sink.Data())
	}
}
