package predictor

import (
	"fmt"
	"strings"

	"lukechampine.com/uint128"
)

// AddressWidth is the bit length of a branch address fed to Fold.
const AddressWidth = 64

// HashFunc combines a chunk into a running fold accumulator.
type HashFunc func(chunk, acc uint128.Uint128) uint128.Uint128

// XOR is the bitwise exclusive-or hash.
func XOR(chunk, acc uint128.Uint128) uint128.Uint128 {
	return chunk.Xor(acc)
}

// XNOR is the complement of XOR.
func XNOR(chunk, acc uint128.Uint128) uint128.Uint128 {
	return chunk.Xor(acc).Xor(uint128.Max)
}

// HashByName maps a configuration name to a hash function.
func HashByName(name string) (HashFunc, error) {
	switch strings.ToLower(name) {
	case "xor":
		return XOR, nil
	case "xnor":
		return XNOR, nil
	default:
		return nil, fmt.Errorf("unknown hash function %q", name)
	}
}

// Fold compresses a (alen bits) and b (blen bits) into an flen-bit-chunked
// accumulator. The accumulator starts as the low flen bits of a; every
// following flen-bit chunk of a, then of b, is merged in with hash. A stream
// stops as soon as fewer than flen bits would remain after the chunk.
//
// The result is not truncated; callers mask it to the width they need.
// Fold panics if flen is zero.
func Fold(
	a uint128.Uint128, alen uint,
	b uint128.Uint128, blen uint,
	flen uint,
	hash HashFunc,
) uint128.Uint128 {
	if flen == 0 {
		panic("fold width must be positive")
	}

	acc := Truncate(a, flen)
	for i := flen; i+flen < alen; i += flen {
		acc = hash(Truncate(a.Rsh(i), flen), acc)
	}

	for i := uint(0); i+flen < blen; i += flen {
		acc = hash(Truncate(b.Rsh(i), flen), acc)
	}

	return acc
}
