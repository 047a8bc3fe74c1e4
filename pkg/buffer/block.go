// Package buffer implements the content-addressable block store shared by the
// command interpreter and the audio engine. A buffer is an ordered list of
// blocks keyed by a 16-bit ID; blocks are shared by reference, so the same
// physical block may belong to several buffers and to audio samples at once.
package buffer

// ReservedID is the buffer ID 65535. It is never stored as a key; depending
// on context it means "no buffer", "current buffer" or "end of list".
const ReservedID uint16 = 0xFFFF

// Block is a contiguous, fixed-size byte region, mutable in place. Blocks are
// shared by pointer; the garbage collector keeps a block alive for as long as
// any buffer or sample still references it.
type Block struct {
	data     []byte
	writable bool
	wpos     int
}

// NewBlock allocates a zero-filled block of the given size.
func NewBlock(size int) *Block {
	return &Block{data: make([]byte, size)}
}

// NewWritableBlock allocates a zero-filled block that may be used as an
// output redirection target. The write cursor starts at zero.
func NewWritableBlock(size int) *Block {
	return &Block{data: make([]byte, size), writable: true}
}

// BlockFrom wraps data in a block without copying.
func BlockFrom(data []byte) *Block {
	return &Block{data: data}
}

// Data returns the block's backing bytes for in-place reads and writes.
func (b *Block) Data() []byte {
	return b.data
}

// Size returns the block size in bytes.
func (b *Block) Size() int {
	return len(b.data)
}

// Writable reports whether the block was created as an output target.
func (b *Block) Writable() bool {
	return b.writable
}

// WriteByte appends one byte at the block's write cursor. Returns false once
// the block is full. Only meaningful for writable blocks.
func (b *Block) WriteByte(c byte) bool {
	if !b.writable || b.wpos >= len(b.data) {
		return false
	}
	b.data[b.wpos] = c
	b.wpos++
	return true
}

// Clone returns a deep copy of the block's contents.
func (b *Block) Clone() *Block {
	data := make([]byte, len(b.data))
	copy(data, b.data)
	return &Block{data: data}
}
