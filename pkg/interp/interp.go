// Package interp executes the buffered command set: byte streams stored in
// the block store double as sub-programs that can be called, jumped to,
// transformed and arithmetically adjusted in place.
package interp

import (
	"github.com/govdp/vdp/internal/logging"
	"github.com/govdp/vdp/pkg/buffer"
	"github.com/govdp/vdp/pkg/stream"
)

var logger = logging.NewLogger("vdp/interp")

// AudioHandler consumes the payload of a VDU audio system command. It is
// wired to the audio dispatcher; the interpreter itself knows nothing about
// channels or samples.
type AudioHandler interface {
	Dispatch(src stream.ByteSource, out stream.PacketWriter)
}

// Interpreter processes VDU system command frames from a byte source. The
// top-level interpreter runs with id 65535; calling a stored buffer nests a
// fresh interpreter whose id is the buffer being executed.
//
// The interpreter tier is single-threaded and cooperative: CALL nests
// synchronously, JUMP replaces the input stream, and the only suspension
// points are blocking reads from the input source.
type Interpreter struct {
	store *buffer.Store
	audio AudioHandler
	in    stream.ByteSource
	out   *stream.Output
	id    uint16
}

// New returns a top-level interpreter reading from src.
func New(store *buffer.Store, audio AudioHandler, src stream.ByteSource, out *stream.Output) *Interpreter {
	if out == nil {
		out = stream.NewOutput(nil)
	}
	return &Interpreter{
		store: store,
		audio: audio,
		in:    src,
		out:   out,
		id:    buffer.ReservedID,
	}
}

// ProcessAll drains the input source, executing every command frame found.
// Malformed or truncated frames abort only the command in progress.
func (i *Interpreter) ProcessAll() {
	for {
		c, err := i.in.ReadByte()
		if err != nil {
			return
		}
		if c != vduEscape {
			logger.Tracef("skipping non-command byte %d", c)
			continue
		}
		c, err = i.in.ReadByte()
		if err != nil {
			return
		}
		if c != vduSystem {
			logger.Tracef("skipping VDU 23,%d sequence", c)
			continue
		}
		c, err = i.in.ReadByte()
		if err != nil {
			return
		}
		switch c {
		case sysCmdBuffered:
			i.execBuffered()
		case sysCmdAudio:
			if i.audio == nil {
				logger.Warnf("no audio handler installed, aborting frame")
				continue
			}
			i.audio.Dispatch(i.in, i.out)
		default:
			logger.Tracef("skipping system command %d", c)
		}
	}
}

// execBuffered reads one buffered command (buffer ID, opcode, arguments) and
// executes it. A short read mid-command abandons the command; state already
// mutated stays mutated.
func (i *Interpreter) execBuffered() {
	bufferID, err := stream.ReadWord(i.in)
	if err != nil {
		return
	}
	cmd, err := i.in.ReadByte()
	if err != nil {
		return
	}

	switch cmd {
	case cmdWrite:
		length, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		i.store.Write(bufferID, int(length), i.in)
	case cmdCall:
		i.call(bufferID, buffer.AdvancedOffset{})
	case cmdClear:
		i.store.Clear(bufferID)
	case cmdCreate:
		size, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		i.store.Create(bufferID, int(size))
	case cmdSetOutput:
		i.setOutput(bufferID)
	case cmdAdjust:
		i.adjust(bufferID)
	case cmdCondCall:
		if i.conditional() {
			i.call(bufferID, buffer.AdvancedOffset{})
		}
	case cmdJump:
		i.jump(bufferID, jumpEntryOffset(bufferID))
	case cmdCondJump:
		if i.conditional() {
			i.jump(bufferID, jumpEntryOffset(bufferID))
		}
	case cmdOffsetJump:
		off, err := stream.OffsetFromStream(i.in, true)
		if err != nil {
			return
		}
		i.jump(bufferID, off)
	case cmdOffsetCondJump:
		off, err := stream.OffsetFromStream(i.in, true)
		if err != nil {
			return
		}
		if i.conditional() {
			i.jump(bufferID, off)
		}
	case cmdOffsetCall:
		off, err := stream.OffsetFromStream(i.in, true)
		if err != nil {
			return
		}
		i.call(bufferID, off)
	case cmdOffsetCondCall:
		off, err := stream.OffsetFromStream(i.in, true)
		if err != nil {
			return
		}
		if i.conditional() {
			i.call(bufferID, off)
		}
	case cmdCopy:
		ids, err := stream.BufferIDsFromStream(i.in)
		if err != nil || len(ids) == 0 {
			logger.Debugf("copy: no source buffer IDs")
			return
		}
		i.copy(bufferID, ids)
	case cmdConsolidate:
		i.consolidate(bufferID)
	case cmdSplit:
		length, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		i.splitInto(bufferID, int(length), []uint16{bufferID}, false)
	case cmdSplitInto:
		length, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		targets, err := stream.BufferIDsFromStream(i.in)
		if err != nil || len(targets) == 0 {
			logger.Debugf("split: no target buffer IDs")
			return
		}
		i.splitInto(bufferID, int(length), targets, false)
	case cmdSplitFrom:
		length, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		start, err := stream.ReadWord(i.in)
		if err != nil || start == buffer.ReservedID {
			return
		}
		i.splitInto(bufferID, int(length), []uint16{start}, true)
	case cmdSplitBy:
		width, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		chunks, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		i.splitByInto(bufferID, int(width), int(chunks), []uint16{bufferID}, false)
	case cmdSplitByInto:
		width, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		targets, err := stream.BufferIDsFromStream(i.in)
		if err != nil || len(targets) == 0 {
			logger.Debugf("split: no target buffer IDs")
			return
		}
		i.splitByInto(bufferID, int(width), len(targets), targets, false)
	case cmdSplitByFrom:
		width, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		chunks, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		start, err := stream.ReadWord(i.in)
		if err != nil || start == buffer.ReservedID {
			return
		}
		i.splitByInto(bufferID, int(width), int(chunks), []uint16{start}, true)
	case cmdSpreadInto:
		targets, err := stream.BufferIDsFromStream(i.in)
		if err != nil || len(targets) == 0 {
			logger.Debugf("spread: no target buffer IDs")
			return
		}
		i.spreadInto(bufferID, targets, false)
	case cmdSpreadFrom:
		start, err := stream.ReadWord(i.in)
		if err != nil || start == buffer.ReservedID {
			return
		}
		i.spreadInto(bufferID, []uint16{start}, true)
	case cmdReverseBlocks:
		i.reverseBlocks(bufferID)
	case cmdReverse:
		options, err := i.in.ReadByte()
		if err != nil {
			return
		}
		i.reverse(bufferID, options)
	case cmdCopyRef:
		ids, err := stream.BufferIDsFromStream(i.in)
		if err != nil || len(ids) == 0 {
			logger.Debugf("copyRef: no source buffer IDs")
			return
		}
		i.copyRef(bufferID, ids)
	case cmdCopyAndConsolidate:
		ids, err := stream.BufferIDsFromStream(i.in)
		if err != nil || len(ids) == 0 {
			logger.Debugf("copyAndConsolidate: no source buffer IDs")
			return
		}
		i.copyAndConsolidate(bufferID, ids)
	case cmdDebugInfo:
		i.debugInfo(bufferID)
	default:
		logger.Debugf("unknown buffered command %d, buffer %d", cmd, bufferID)
	}
}

// jumpEntryOffset returns the entry offset for an offset-less jump. A jump
// to buffer 65535 without an offset means "jump past end".
func jumpEntryOffset(bufferID uint16) buffer.AdvancedOffset {
	var off buffer.AdvancedOffset
	if bufferID == buffer.ReservedID {
		off.BlockIndex = buffer.PastEnd
	}
	return off
}

// resolveID maps the reserved ID to the buffer currently being executed.
func resolveID(id, current uint16) uint16 {
	if id == buffer.ReservedID {
		return current
	}
	return id
}

// available reports how many input bytes remain without consuming any.
// Only block-backed streams can answer; other sources never tail-call.
func (i *Interpreter) available() (int, bool) {
	type sizer interface{ Available() int }
	if s, ok := i.in.(sizer); ok {
		return s.Available(), true
	}
	return 0, false
}

// call executes buffers[target] to completion with the same output
// transport. When the current input stream is already exhausted the call is
// promoted to a jump, so chained interpretive programs do not nest.
func (i *Interpreter) call(target uint16, off buffer.AdvancedOffset) {
	id := resolveID(target, i.id)
	if id == buffer.ReservedID {
		logger.Debugf("call: no buffer ID")
		return
	}
	blocks, ok := i.store.Blocks(id)
	if !ok {
		logger.Debugf("call: buffer %d not found", id)
		return
	}
	if i.id != buffer.ReservedID {
		if n, ok := i.available(); ok && n == 0 {
			i.jump(id, off)
			return
		}
	}
	ms := stream.NewMultiBlockStream(blocks)
	if !off.IsZero() {
		ms.SeekTo(off.BlockOffset, off.BlockIndex)
	}
	sub := &Interpreter{
		store: i.store,
		audio: i.audio,
		in:    ms,
		out:   i.out.Clone(),
		id:    id,
	}
	sub.ProcessAll()
}

// jump replaces the input stream. From the top level it degrades to a call;
// a jump to the current buffer (or to 65535) seeks the existing stream.
func (i *Interpreter) jump(target uint16, off buffer.AdvancedOffset) {
	if i.id == buffer.ReservedID {
		i.call(target, off)
		return
	}
	if target == buffer.ReservedID || target == i.id {
		if ms, ok := i.in.(*stream.MultiBlockStream); ok {
			ms.SeekTo(off.BlockOffset, off.BlockIndex)
		}
		return
	}
	blocks, ok := i.store.Blocks(target)
	if !ok {
		logger.Debugf("jump: buffer %d not found", target)
		return
	}
	ms := stream.NewMultiBlockStream(blocks)
	if !off.IsZero() {
		ms.SeekTo(off.BlockOffset, off.BlockIndex)
	}
	i.in = ms
}

// setOutput redirects the output transport. 65535 discards output, 0
// restores the original transport, anything else must name a buffer whose
// first block was allocated writable via CREATE.
func (i *Interpreter) setOutput(bufferID uint16) {
	switch bufferID {
	case buffer.ReservedID:
		i.out.Discard()
	case 0:
		i.out.Restore()
	default:
		blocks, ok := i.store.Blocks(bufferID)
		if !ok || len(blocks) == 0 {
			logger.Debugf("setOutput: buffer %d not found", bufferID)
			return
		}
		if !blocks[0].Writable() {
			logger.Debugf("setOutput: buffer %d is not writable", bufferID)
			return
		}
		i.out.Redirect(blocks[0])
	}
}

// consolidate merges all of a buffer's blocks into one.
func (i *Interpreter) consolidate(bufferID uint16) {
	blocks, ok := i.store.Blocks(bufferID)
	if !ok {
		logger.Debugf("consolidate: buffer %d not found", bufferID)
		return
	}
	if len(blocks) == 1 {
		return
	}
	i.store.Replace(bufferID, []*buffer.Block{consolidateBlocks(blocks)})
	logger.Debugf("consolidate: consolidated %d blocks into buffer %d", len(blocks), bufferID)
}

// consolidateBlocks concatenates blocks into a single block. A lone block is
// returned as-is; the caller must not mutate the result in that case.
func consolidateBlocks(blocks []*buffer.Block) *buffer.Block {
	if len(blocks) == 1 {
		return blocks[0]
	}
	total := 0
	for _, b := range blocks {
		total += b.Size()
	}
	data := make([]byte, 0, total)
	for _, b := range blocks {
		data = append(data, b.Data()...)
	}
	return buffer.BlockFrom(data)
}

func (i *Interpreter) debugInfo(bufferID uint16) {
	blocks, ok := i.store.Blocks(bufferID)
	logger.Debugf("buffer %d, %d blocks stored", bufferID, len(blocks))
	if !ok || len(blocks) == 0 {
		return
	}
	logger.Debugf("buffer %d block 0: % 02X", bufferID, blocks[0].Data())
}
