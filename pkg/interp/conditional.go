package interp

import (
	"github.com/govdp/vdp/pkg/buffer"
	"github.com/govdp/vdp/pkg/stream"
)

// conditional reads and evaluates the conditional argument block shared by
// the COND_* commands: a command byte, a buffer to check, an offset, and for
// comparison operators an operand (inline or buffer-sourced). Any value that
// cannot be read (missing buffer, offset past end, truncated stream)
// evaluates the conditional to false.
func (i *Interpreter) conditional() bool {
	command, err := i.in.ReadByte()
	if err != nil {
		return false
	}
	rawID, err := stream.ReadWord(i.in)
	if err != nil {
		return false
	}
	checkBufferID := resolveID(rawID, i.id)

	useAdvancedOffsets := command&condAdvancedOffsets != 0
	useBufferValue := command&condBufferValue != 0
	op := command & condOpMask
	// operators above NOT_EXISTS require an operand
	hasOperand := op > condNotExists

	offset, err := stream.OffsetFromStream(i.in, useAdvancedOffsets)
	if err != nil {
		return false
	}

	var operandBlocks []*buffer.Block
	var operandOffset buffer.AdvancedOffset
	if useBufferValue && hasOperand {
		rawID, err := stream.ReadWord(i.in)
		if err != nil {
			return false
		}
		operandBufferID := resolveID(rawID, i.id)
		operandOffset, err = stream.OffsetFromStream(i.in, useAdvancedOffsets)
		if err != nil {
			return false
		}
		if operandBufferID == buffer.ReservedID {
			logger.Debugf("conditional: no operand buffer ID")
			return false
		}
		var ok bool
		operandBlocks, ok = i.store.Blocks(operandBufferID)
		if !ok {
			logger.Debugf("conditional: buffer %d not found", operandBufferID)
			return false
		}
	}

	if checkBufferID == buffer.ReservedID {
		logger.Debugf("conditional: no check buffer ID")
		return false
	}
	checkBlocks, ok := i.store.Blocks(checkBufferID)
	if !ok {
		logger.Debugf("conditional: buffer %d not found", checkBufferID)
		return false
	}
	source, ok := buffer.GetByte(checkBlocks, &offset, false)
	if !ok {
		logger.Debugf("conditional: invalid source offset")
		return false
	}

	operand := byte(0)
	if hasOperand {
		if operandBlocks != nil {
			operand, ok = buffer.GetByte(operandBlocks, &operandOffset, false)
			if !ok {
				logger.Debugf("conditional: invalid operand offset")
				return false
			}
		} else {
			operand, err = i.in.ReadByte()
			if err != nil {
				return false
			}
		}
	}

	result := false
	switch op {
	case condExists:
		result = source != 0
	case condNotExists:
		result = source == 0
	case condEqual:
		result = source == operand
	case condNotEqual:
		result = source != operand
	case condLess:
		result = source < operand
	case condGreater:
		result = source > operand
	case condLessEqual:
		result = source <= operand
	case condGreaterEqual:
		result = source >= operand
	case condAnd:
		result = source != 0 && operand != 0
	case condOr:
		result = source != 0 || operand != 0
	}

	logger.Debugf("conditional: op %d buffer %d evaluated as %t", op, checkBufferID, result)
	return result
}
