package predictor

import "fmt"

// MaxCounterWidth is the widest supported saturating counter.
const MaxCounterWidth = 63

// SaturatingCounter is an n-bit up/down counter that clamps at both ends.
// A fresh counter sits at 2^(n-1), the weakest "taken" state.
//
// For the common 2-bit case the states are:
// 0=Strongly Not Taken, 1=Weakly Not Taken, 2=Weakly Taken, 3=Strongly Taken.
type SaturatingCounter struct {
	width uint
	value uint64
}

// NewSaturatingCounter creates a counter of the given width in bits.
// It panics if width is outside [1, MaxCounterWidth].
func NewSaturatingCounter(width uint) SaturatingCounter {
	if width == 0 || width > MaxCounterWidth {
		panic(fmt.Sprintf("saturating counter width %d out of range [1, %d]",
			width, MaxCounterWidth))
	}

	c := SaturatingCounter{width: width}
	c.value = c.initial()
	return c
}

func (c SaturatingCounter) initial() uint64 {
	return uint64(1) << (c.width - 1)
}

func (c SaturatingCounter) max() uint64 {
	return uint64(1)<<c.width - 1
}

// Increase moves the counter one step towards taken.
func (c *SaturatingCounter) Increase() {
	if c.value < c.max() {
		c.value++
	}
}

// Decrease moves the counter one step towards not taken.
func (c *SaturatingCounter) Decrease() {
	if c.value > 0 {
		c.value--
	}
}

// Train increases the counter on a taken outcome and decreases it otherwise.
func (c *SaturatingCounter) Train(taken bool) {
	if taken {
		c.Increase()
	} else {
		c.Decrease()
	}
}

// Reset returns the counter to its weakly-taken initial value.
func (c *SaturatingCounter) Reset() {
	c.value = c.initial()
}

// IsTaken reports whether the counter is in the upper half of its range.
func (c SaturatingCounter) IsTaken() bool {
	return c.value > c.initial()-1
}

// Value returns the raw counter value.
func (c SaturatingCounter) Value() uint64 {
	return c.value
}

// Width returns the counter width in bits.
func (c SaturatingCounter) Width() uint {
	return c.width
}

// newCounterTable allocates a table of weakly-taken counters.
func newCounterTable(entries int, width uint) []SaturatingCounter {
	table := make([]SaturatingCounter, entries)
	proto := NewSaturatingCounter(width)
	for i := range table {
		table[i] = proto
	}
	return table
}
