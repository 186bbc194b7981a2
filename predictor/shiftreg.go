package predictor

import (
	"fmt"

	"lukechampine.com/uint128"
)

// MaxHistoryWidth is the widest supported history register.
const MaxHistoryWidth = 127

// ShiftRegister is a fixed-width FIFO of branch outcome bits. The newest
// outcome is bit 0.
type ShiftRegister struct {
	width uint
	value uint128.Uint128
}

// NewShiftRegister creates an all-zero register of the given width. It
// panics if width is outside [1, MaxHistoryWidth].
func NewShiftRegister(width uint) *ShiftRegister {
	if width == 0 || width > MaxHistoryWidth {
		panic(fmt.Sprintf("shift register width %d out of range [1, %d]",
			width, MaxHistoryWidth))
	}

	return &ShiftRegister{width: width}
}

// ShiftIn inserts bit at the bottom and returns the bit that fell off the top.
func (r *ShiftRegister) ShiftIn(bit bool) bool {
	evicted := r.value.Rsh(r.width-1).Lo&1 == 1

	in := uint64(0)
	if bit {
		in = 1
	}
	r.value = Truncate(r.value.Lsh(1).Or64(in), r.width)

	return evicted
}

// Value returns the register contents.
func (r *ShiftRegister) Value() uint128.Uint128 {
	return r.value
}

// Width returns the register width in bits.
func (r *ShiftRegister) Width() uint {
	return r.width
}
