package stream

import (
	"github.com/govdp/vdp/pkg/buffer"
)

// MultiBlockStream is a read cursor over a buffer's segmented blocks. It is
// the interpreter's input when a stored buffer is called or jumped to.
type MultiBlockStream struct {
	blocks []*buffer.Block
	index  int
	offset int
}

// NewMultiBlockStream returns a stream positioned at the first byte of the
// first block.
func NewMultiBlockStream(blocks []*buffer.Block) *MultiBlockStream {
	return &MultiBlockStream{blocks: blocks}
}

func (s *MultiBlockStream) skipEmpty() {
	for s.index < len(s.blocks) && s.offset >= s.blocks[s.index].Size() {
		s.offset -= s.blocks[s.index].Size()
		s.index++
	}
}

// ReadByte returns the next byte, or ErrShortRead once the final block is
// exhausted.
func (s *MultiBlockStream) ReadByte() (byte, error) {
	s.skipEmpty()
	if s.index >= len(s.blocks) {
		return 0, ErrShortRead
	}
	c := s.blocks[s.index].Data()[s.offset]
	s.offset++
	return c, nil
}

// Available returns the number of unread bytes.
func (s *MultiBlockStream) Available() int {
	if s.index >= len(s.blocks) {
		return 0
	}
	n := s.blocks[s.index].Size() - s.offset
	if n < 0 {
		n = 0
	}
	for i := s.index + 1; i < len(s.blocks); i++ {
		n += s.blocks[i].Size()
	}
	return n
}

// SeekTo positions the cursor at the given block index and offset within it.
// An index of buffer.PastEnd (or any index beyond the final block) leaves
// the stream exhausted.
func (s *MultiBlockStream) SeekTo(offset, index uint32) {
	if index >= uint32(len(s.blocks)) {
		s.index = len(s.blocks)
		s.offset = 0
		return
	}
	s.index = int(index)
	s.offset = int(offset)
}
