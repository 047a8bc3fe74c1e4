package interp

import (
	"github.com/govdp/vdp/pkg/buffer"
)

// targetCursor walks the target IDs a split or spread distributes into.
// Explicit lists are walked round-robin and are cleared up front; an
// auto-numbered range increments from its start ID, clearing each target
// lazily as it is first written, and stops incrementing at 65534 rather
// than wrap into the reserved ID.
type targetCursor struct {
	ids  []uint16
	pos  int
	auto bool
}

func (t *targetCursor) current() uint16 {
	if t.auto {
		return t.ids[0]
	}
	return t.ids[t.pos]
}

func (t *targetCursor) advance() {
	if t.auto {
		if t.ids[0] == buffer.ReservedID-1 {
			logger.Warnf("split: target ID range reached %d, not wrapping", t.ids[0])
			return
		}
		t.ids[0]++
		return
	}
	t.pos++
	if t.pos >= len(t.ids) {
		t.pos = 0
	}
}

// clearTargets empties every target's block list, keeping the keys. Samples
// are left untouched; they hold their own block references.
func (i *Interpreter) clearTargets(targets []uint16) {
	for _, id := range targets {
		i.store.Reset(id)
	}
}

// splitBlock slices a block's content into chunks of the given length, the
// last possibly short. Chunks own their bytes.
func splitBlock(b *buffer.Block, length int) []*buffer.Block {
	data := b.Data()
	chunks := make([]*buffer.Block, 0, (len(data)+length-1)/length)
	for start := 0; start < len(data); start += length {
		end := start + length
		if end > len(data) {
			end = len(data)
		}
		chunk := make([]byte, end-start)
		copy(chunk, data[start:end])
		chunks = append(chunks, buffer.BlockFrom(chunk))
	}
	return chunks
}

// splitInto splits the source buffer into blocks of the given length and
// distributes them across the targets.
func (i *Interpreter) splitInto(bufferID uint16, length int, targets []uint16, auto bool) {
	if length <= 0 {
		logger.Debugf("split: invalid length %d", length)
		return
	}
	blocks, ok := i.store.Blocks(bufferID)
	if !ok {
		logger.Debugf("split: buffer %d not found", bufferID)
		return
	}
	consolidated := consolidateBlocks(blocks)
	if !auto {
		i.clearTargets(targets)
	}

	chunks := splitBlock(consolidated, length)
	cursor := &targetCursor{ids: targets, auto: auto}
	for _, chunk := range chunks {
		target := cursor.current()
		if auto {
			i.store.Reset(target)
		}
		i.store.Append(target, chunk)
		cursor.advance()
	}
	logger.Debugf("split: split buffer %d into %d blocks of length %d", bufferID, len(chunks), length)
}

// splitByInto splits the source into chunkCount interleaved streams of the
// given width, consolidates each stream, and distributes the results.
func (i *Interpreter) splitByInto(bufferID uint16, width, chunkCount int, targets []uint16, auto bool) {
	if width <= 0 || chunkCount <= 0 {
		logger.Debugf("split: invalid width %d or chunk count %d", width, chunkCount)
		return
	}
	blocks, ok := i.store.Blocks(bufferID)
	if !ok {
		logger.Debugf("split: buffer %d not found", bufferID)
		return
	}
	consolidated := consolidateBlocks(blocks)
	if !auto {
		i.clearTargets(targets)
	}

	raw := splitBlock(consolidated, width)
	streams := make([][]*buffer.Block, chunkCount)
	index := 0
	for _, chunk := range raw {
		streams[index] = append(streams[index], chunk)
		index++
		if index >= chunkCount {
			index = 0
		}
	}

	cursor := &targetCursor{ids: targets, auto: auto}
	for _, s := range streams {
		target := cursor.current()
		if auto {
			i.store.Reset(target)
		}
		i.store.Append(target, consolidateBlocks(s))
		cursor.advance()
	}
	logger.Debugf("split: split buffer %d into %d chunks of width %d", bufferID, chunkCount, width)
}

// spreadInto distributes the source buffer's existing blocks across the
// targets by reference, without consolidating.
func (i *Interpreter) spreadInto(bufferID uint16, targets []uint16, auto bool) {
	if !i.store.Exists(bufferID) {
		logger.Debugf("spread: buffer %d not found", bufferID)
		return
	}
	if !auto {
		i.clearTargets(targets)
	}
	blocks, _ := i.store.Blocks(bufferID)
	cursor := &targetCursor{ids: targets, auto: auto}
	for _, b := range blocks {
		target := cursor.current()
		if auto {
			i.store.Reset(target)
		}
		i.store.Append(target, b)
		cursor.advance()
	}
}
