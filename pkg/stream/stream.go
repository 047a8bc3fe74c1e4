// Package stream provides the byte-stream plumbing between the serial input,
// the command interpreter and the packet output transport. Multi-byte
// integers on the wire are little-endian.
package stream

import (
	"errors"

	"github.com/govdp/vdp/pkg/buffer"
)

// ErrShortRead reports that the input stream ended, or timed out, before the
// current command had read everything it committed to reading.
var ErrShortRead = errors.New("stream: short read")

// ByteSource supplies command bytes. ReadByte returns ErrShortRead on
// exhaustion or timeout; the current opcode is then abandoned.
type ByteSource interface {
	ReadByte() (byte, error)
}

// ReadWord reads a little-endian 16-bit value.
func ReadWord(src ByteSource) (uint16, error) {
	lo, err := src.ReadByte()
	if err != nil {
		return 0, err
	}
	hi, err := src.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// Read24 reads a little-endian 24-bit value.
func Read24(src ByteSource) (uint32, error) {
	var v uint32
	for shift := 0; shift < 24; shift += 8 {
		c, err := src.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint32(c) << shift
	}
	return v, nil
}

// ReadInto fills dst from src, returning the number of bytes still
// outstanding after a short read (0 on success).
func ReadInto(src ByteSource, dst []byte) int {
	for i := range dst {
		c, err := src.ReadByte()
		if err != nil {
			return len(dst) - i
		}
		dst[i] = c
	}
	return 0
}

// OffsetFromStream reads a buffer offset. Plain offsets are 16-bit. Advanced
// offsets are 24-bit; if bit 23 is set a 16-bit block index follows and the
// bit is masked off the offset.
func OffsetFromStream(src ByteSource, advanced bool) (buffer.AdvancedOffset, error) {
	var off buffer.AdvancedOffset
	if !advanced {
		v, err := ReadWord(src)
		if err != nil {
			return off, err
		}
		off.BlockOffset = uint32(v)
		return off, nil
	}
	v, err := Read24(src)
	if err != nil {
		return off, err
	}
	if v&0x800000 != 0 {
		index, err := ReadWord(src)
		if err != nil {
			return off, err
		}
		v &= 0x7FFFFF
		off.BlockIndex = uint32(index)
	}
	off.BlockOffset = v
	return off, nil
}

// BufferIDsFromStream reads 16-bit buffer IDs until the 65535 terminator.
// A short read discards the partially read list and returns ErrShortRead.
func BufferIDsFromStream(src ByteSource) ([]uint16, error) {
	var ids []uint16
	for {
		id, err := ReadWord(src)
		if err != nil {
			return nil, ErrShortRead
		}
		if id == buffer.ReservedID {
			return ids, nil
		}
		ids = append(ids, id)
	}
}
