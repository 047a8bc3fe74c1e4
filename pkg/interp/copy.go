package interp

import (
	"github.com/govdp/vdp/pkg/buffer"
)

// copy deep-copies the blocks of the source buffers, in list order, into the
// target. Sources are read in full before the target is replaced, so the
// target may appear in its own source list. A reserved target drops the
// command.
func (i *Interpreter) copy(bufferID uint16, sourceIDs []uint16) {
	if bufferID == buffer.ReservedID {
		logger.Debugf("copy: ignoring buffer %d", bufferID)
		return
	}
	var staged []*buffer.Block
	for _, sourceID := range sourceIDs {
		blocks, ok := i.store.Blocks(sourceID)
		if !ok {
			logger.Debugf("copy: buffer %d not found", sourceID)
			continue
		}
		for _, b := range blocks {
			staged = append(staged, b.Clone())
		}
	}
	i.store.Replace(bufferID, staged)
	logger.Debugf("copy: copied %d blocks into buffer %d", len(staged), bufferID)
}

// copyRef replaces the target with shared references to the source buffers'
// blocks. The target is skipped when it appears in the source list, so a
// buffer can never come to reference itself.
func (i *Interpreter) copyRef(bufferID uint16, sourceIDs []uint16) {
	if bufferID == buffer.ReservedID {
		logger.Debugf("copyRef: ignoring buffer %d", bufferID)
		return
	}
	var refs []*buffer.Block
	for _, sourceID := range sourceIDs {
		if sourceID == bufferID {
			logger.Debugf("copyRef: skipping buffer %d as it's the target", sourceID)
			continue
		}
		blocks, ok := i.store.Blocks(sourceID)
		if !ok {
			logger.Debugf("copyRef: buffer %d not found", sourceID)
			continue
		}
		refs = append(refs, blocks...)
	}
	i.store.Replace(bufferID, refs)
	logger.Debugf("copyRef: copied %d block references into buffer %d", len(refs), bufferID)
}

// copyAndConsolidate concatenates the source buffers' bytes into a single
// block under the target, reusing the target's existing block when it is
// already a lone block of the right size. Self-references are skipped.
func (i *Interpreter) copyAndConsolidate(bufferID uint16, sourceIDs []uint16) {
	if bufferID == buffer.ReservedID {
		logger.Debugf("copyAndConsolidate: ignoring buffer %d", bufferID)
		return
	}

	length := 0
	for _, sourceID := range sourceIDs {
		if sourceID == bufferID {
			continue
		}
		blocks, _ := i.store.Blocks(sourceID)
		for _, b := range blocks {
			length += b.Size()
		}
	}

	existing, _ := i.store.Blocks(bufferID)
	var dest *buffer.Block
	if len(existing) == 1 && existing[0].Size() == length {
		dest = existing[0]
	} else {
		dest = buffer.NewBlock(length)
		i.store.Replace(bufferID, []*buffer.Block{dest})
	}

	pos := 0
	for _, sourceID := range sourceIDs {
		if sourceID == bufferID {
			logger.Debugf("copyAndConsolidate: skipping buffer %d as it's the target", sourceID)
			continue
		}
		blocks, ok := i.store.Blocks(sourceID)
		if !ok {
			logger.Debugf("copyAndConsolidate: buffer %d not found", sourceID)
			continue
		}
		for _, b := range blocks {
			pos += copy(dest.Data()[pos:], b.Data())
		}
	}
	logger.Debugf("copyAndConsolidate: copied %d bytes into buffer %d", length, bufferID)
}
