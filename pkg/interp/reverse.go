package interp

import (
	"github.com/govdp/vdp/pkg/buffer"
	"github.com/govdp/vdp/pkg/stream"
)

// reverseBlocks reverses the order of a buffer's blocks in place.
func (i *Interpreter) reverseBlocks(bufferID uint16) {
	blocks, ok := i.store.Blocks(bufferID)
	if !ok {
		return
	}
	reversed := make([]*buffer.Block, len(blocks))
	for n, b := range blocks {
		reversed[len(blocks)-1-n] = b
	}
	i.store.Replace(bufferID, reversed)
	logger.Debugf("reverse: reversed blocks in buffer %d", bufferID)
}

// reverseValues reverses the order of valueSize-sized units within data.
func reverseValues(data []byte, valueSize int) {
	n := len(data) / valueSize
	tmp := make([]byte, valueSize)
	for a, b := 0, n-1; a < b; a, b = a+1, b-1 {
		lo := data[a*valueSize : (a+1)*valueSize]
		hi := data[b*valueSize : (b+1)*valueSize]
		copy(tmp, lo)
		copy(lo, hi)
		copy(hi, tmp)
	}
}

// reverse reverses the bytes of every block in a buffer. The options byte
// selects the value size (8/16/32-bit, or an explicit 16-bit size when both
// size bits are set), an optional chunk size to reverse within, and whether
// to also reverse the block order. Every block must divide evenly by the
// value size and the chunk size; a mismatch aborts without touching any
// block.
func (i *Interpreter) reverse(bufferID uint16, options byte) {
	blocks, ok := i.store.Blocks(bufferID)
	if !ok {
		logger.Debugf("reverse: buffer %d not found", bufferID)
		return
	}

	use16Bit := options&reverse16Bit != 0
	use32Bit := options&reverse32Bit != 0
	useSize := options&reverseSize == reverseSize
	useChunks := options&reverseChunked != 0
	doBlocks := options&reverseBlock != 0
	if options&reverseUnused != 0 {
		logger.Debugf("reverse: unused bits set in options byte")
	}

	valueSize := 1
	chunkSize := 0

	if useSize {
		v, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		valueSize = int(v)
	} else if use32Bit {
		valueSize = 4
	} else if use16Bit {
		valueSize = 2
	}

	if useChunks {
		v, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		chunkSize = int(v)
	}

	if valueSize <= 0 {
		logger.Debugf("reverse: invalid value size %d", valueSize)
		return
	}
	for _, b := range blocks {
		size := b.Size()
		if size%valueSize != 0 || (chunkSize != 0 && size%chunkSize != 0) {
			logger.Debugf("reverse: buffer %d contains block not a multiple of value/chunk size", bufferID)
			return
		}
	}

	for _, b := range blocks {
		if chunkSize == 0 {
			reverseValues(b.Data(), valueSize)
			continue
		}
		data := b.Data()
		for start := 0; start < len(data); start += chunkSize {
			reverseValues(data[start:start+chunkSize], valueSize)
		}
	}

	if doBlocks {
		i.reverseBlocks(bufferID)
	}
	logger.Debugf("reverse: reversed buffer %d", bufferID)
}
