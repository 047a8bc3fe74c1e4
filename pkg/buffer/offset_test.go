package buffer

import "testing"

func segmented() []*Block {
	return []*Block{
		BlockFrom([]byte{0, 1, 2}),
		BlockFrom([]byte{3, 4}),
		BlockFrom([]byte{5}),
	}
}

func TestGetByteNormalizes(t *testing.T) {
	blocks := segmented()
	for want := byte(0); want < 6; want++ {
		off := AdvancedOffset{BlockOffset: uint32(want)}
		got, ok := GetByte(blocks, &off, false)
		if !ok || got != want {
			t.Fatalf("GetByte(offset %d) = %d, %t, want %d", want, got, ok, want)
		}
	}
}

func TestGetByteIterates(t *testing.T) {
	blocks := segmented()
	off := AdvancedOffset{}
	for want := byte(0); want < 6; want++ {
		got, ok := GetByte(blocks, &off, true)
		if !ok || got != want {
			t.Fatalf("GetByte() = %d, %t, want %d", got, ok, want)
		}
	}
	if _, ok := GetByte(blocks, &off, true); ok {
		t.Fatal("read past end must fail")
	}
}

func TestGetBytePastEnd(t *testing.T) {
	blocks := segmented()
	off := AdvancedOffset{BlockOffset: 6}
	if _, ok := GetByte(blocks, &off, false); ok {
		t.Fatal("offset 6 in a 6-byte buffer must be invalid")
	}
	off = AdvancedOffset{BlockIndex: PastEnd}
	if _, ok := GetByte(blocks, &off, false); ok {
		t.Fatal("PastEnd index must be invalid")
	}
}

func TestSetByteWithBlockIndex(t *testing.T) {
	blocks := segmented()
	off := AdvancedOffset{BlockIndex: 1, BlockOffset: 1}
	if !SetByte(blocks, 0xAA, &off, false) {
		t.Fatal("SetByte failed")
	}
	if got := blocks[1].Data()[1]; got != 0xAA {
		t.Fatalf("block[1][1] = %#x, want 0xAA", got)
	}
}
