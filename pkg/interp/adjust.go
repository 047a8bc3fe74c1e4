package interp

import (
	"github.com/govdp/vdp/pkg/buffer"
	"github.com/govdp/vdp/pkg/stream"
)

// adjust performs in-place byte arithmetic on a buffer. The command byte
// packs the operation in its low bits; the upper bits select 24-bit
// addressing, a buffer-sourced operand, multiple targets and multiple
// operands. Multi-byte spans are treated as little-endian, so add-with-carry
// propagates towards higher offsets and writes its final carry byte one past
// the last target.
func (i *Interpreter) adjust(adjustBufferID uint16) {
	command, err := i.in.ReadByte()
	if err != nil {
		return
	}

	useAdvancedOffsets := command&adjustAdvancedOffsets != 0
	useBufferValue := command&adjustBufferValue != 0
	useMultiTarget := command&adjustMultiTarget != 0
	useMultiOperand := command&adjustMultiOperand != 0
	op := command & adjustOpMask
	// operations above NEG take an operand
	hasOperand := op > adjustNeg

	offset, err := stream.OffsetFromStream(i.in, useAdvancedOffsets)
	if err != nil {
		return
	}

	count := 1
	if useMultiTarget || useMultiOperand {
		if useAdvancedOffsets {
			v, err := stream.Read24(i.in)
			if err != nil {
				return
			}
			count = int(v)
		} else {
			v, err := stream.ReadWord(i.in)
			if err != nil {
				return
			}
			count = int(v)
		}
	}

	var operandBlocks []*buffer.Block
	var operandOffset buffer.AdvancedOffset
	if useBufferValue && hasOperand {
		rawID, err := stream.ReadWord(i.in)
		if err != nil {
			return
		}
		operandBufferID := resolveID(rawID, i.id)
		operandOffset, err = stream.OffsetFromStream(i.in, useAdvancedOffsets)
		if err != nil {
			return
		}
		if operandBufferID == buffer.ReservedID {
			logger.Debugf("adjust: no operand buffer ID")
			return
		}
		var ok bool
		operandBlocks, ok = i.store.Blocks(operandBufferID)
		if !ok {
			logger.Debugf("adjust: buffer %d not found", operandBufferID)
			return
		}
	}

	bufferID := resolveID(adjustBufferID, i.id)
	if bufferID == buffer.ReservedID {
		logger.Debugf("adjust: no target buffer ID")
		return
	}
	blocks, ok := i.store.Blocks(bufferID)
	if !ok {
		logger.Debugf("adjust: buffer %d not found", bufferID)
		return
	}

	readOperand := func() (int, bool) {
		if operandBlocks != nil {
			v, ok := buffer.GetByte(operandBlocks, &operandOffset, useMultiOperand)
			return int(v), ok
		}
		c, err := i.in.ReadByte()
		if err != nil {
			return 0, false
		}
		return int(c), true
	}

	sourceValue := 0
	operandValue := 0
	carryValue := 0
	usingCarry := false

	if !useMultiTarget {
		v, ok := buffer.GetByte(blocks, &offset, false)
		if !ok {
			logger.Debugf("adjust: invalid source offset")
			return
		}
		sourceValue = int(v)
	}
	if hasOperand && !useMultiOperand {
		v, ok := readOperand()
		if !ok {
			logger.Debugf("adjust: invalid operand value")
			return
		}
		operandValue = v
	}

	for n := 0; n < count; n++ {
		if useMultiTarget {
			v, ok := buffer.GetByte(blocks, &offset, false)
			if !ok {
				logger.Debugf("adjust: invalid source offset")
				return
			}
			sourceValue = int(v)
		}
		if hasOperand && useMultiOperand {
			v, ok := readOperand()
			if !ok {
				logger.Debugf("adjust: invalid operand value")
				return
			}
			operandValue = v
		}

		switch op {
		case adjustNot:
			sourceValue = ^sourceValue & 0xFF
		case adjustNeg:
			sourceValue = -sourceValue & 0xFF
		case adjustSet:
			sourceValue = operandValue
		case adjustAdd:
			// byte-wise add, no carry, so bytes may overflow
			sourceValue = (sourceValue + operandValue) & 0xFF
		case adjustAddCarry:
			// byte-wise add with carry, bytes in little-endian order; a
			// singular operand is a scalar added at the lowest byte, with
			// carry alone propagating through the remaining bytes
			usingCarry = true
			sourceValue = sourceValue + operandValue + carryValue
			if sourceValue > 255 {
				carryValue = 1
				sourceValue -= 256
			} else {
				carryValue = 0
			}
			if !useMultiOperand {
				operandValue = 0
			}
		case adjustAnd:
			sourceValue = sourceValue & operandValue
		case adjustOr:
			sourceValue = sourceValue | operandValue
		case adjustXor:
			sourceValue = sourceValue ^ operandValue
		}

		if useMultiTarget {
			if !buffer.SetByte(blocks, byte(sourceValue), &offset, true) {
				logger.Debugf("adjust: failed to set result at offset %d:%d", offset.BlockIndex, offset.BlockOffset)
				return
			}
		}
	}
	if !useMultiTarget {
		// single target stores once after the loop, advancing the offset so
		// a final carry lands at the next position
		if !buffer.SetByte(blocks, byte(sourceValue), &offset, true) {
			logger.Debugf("adjust: failed to set result at offset %d:%d", offset.BlockIndex, offset.BlockOffset)
			return
		}
	}
	if usingCarry {
		if !buffer.SetByte(blocks, byte(carryValue), &offset, false) {
			logger.Debugf("adjust: failed to set carry at offset %d:%d", offset.BlockIndex, offset.BlockOffset)
			return
		}
	}
}
