package interp

// Buffered command opcodes (the byte following the buffer ID).
const (
	cmdWrite              = 0
	cmdCall               = 1
	cmdClear              = 2
	cmdCreate             = 3
	cmdSetOutput          = 4
	cmdAdjust             = 5
	cmdCondCall           = 6
	cmdJump               = 7
	cmdCondJump           = 8
	cmdOffsetJump         = 9
	cmdOffsetCondJump     = 10
	cmdOffsetCall         = 11
	cmdOffsetCondCall     = 12
	cmdCopy               = 13
	cmdConsolidate        = 14
	cmdSplit              = 15
	cmdSplitInto          = 16
	cmdSplitFrom          = 17
	cmdSplitBy            = 18
	cmdSplitByInto        = 19
	cmdSplitByFrom        = 20
	cmdSpreadInto         = 21
	cmdSpreadFrom         = 22
	cmdReverseBlocks      = 23
	cmdReverse            = 24
	cmdCopyRef            = 25
	cmdCopyAndConsolidate = 26
	cmdDebugInfo          = 32
)

// Adjust command byte layout: the low nibble selects the operation (0-7 are
// defined), upper bits modify addressing and operand sourcing.
const (
	adjustNot      = 0
	adjustNeg      = 1
	adjustSet      = 2
	adjustAdd      = 3
	adjustAddCarry = 4
	adjustAnd      = 5
	adjustOr       = 6
	adjustXor      = 7

	adjustOpMask          = 0x0F
	adjustAdvancedOffsets = 0x10
	adjustBufferValue     = 0x20
	adjustMultiTarget     = 0x40
	adjustMultiOperand    = 0x80
)

// Conditional command byte layout.
const (
	condExists       = 0
	condNotExists    = 1
	condEqual        = 2
	condNotEqual     = 3
	condLess         = 4
	condGreater      = 5
	condLessEqual    = 6
	condGreaterEqual = 7
	condAnd          = 8
	condOr           = 9

	condOpMask          = 0x0F
	condAdvancedOffsets = 0x10
	condBufferValue     = 0x20
)

// Reverse options byte.
const (
	reverse16Bit   = 0x01
	reverse32Bit   = 0x02
	reverseSize    = 0x03
	reverseChunked = 0x04
	reverseBlock   = 0x08
	reverseUnused  = 0xF0
)

// VDU system command framing.
const (
	vduEscape      = 23
	vduSystem      = 0
	sysCmdAudio    = 0x85
	sysCmdBuffered = 0xA0
)
