// Package predictor provides branch direction predictors built from
// saturating counters, history shift registers and folded hashes.
//
// Every predictor is driven by the same two calls, issued once per dynamic
// branch in program order: Predict(pc) to obtain a guess, then
// Update(taken, predicted, pc) once the real outcome is known. Predict never
// mutates table state, so composite predictors may query a component more
// than once for the same event.
package predictor

import "lukechampine.com/uint128"

// Mask returns a value with the low bits set. Bits of 128 or more yield an
// all-ones value.
func Mask(bits uint) uint128.Uint128 {
	switch {
	case bits == 0:
		return uint128.Zero
	case bits >= 128:
		return uint128.Max
	default:
		return uint128.Max.Rsh(128 - bits)
	}
}

// Truncate keeps only the low bits of v, i.e. v & (2^bits - 1).
func Truncate(v uint128.Uint128, bits uint) uint128.Uint128 {
	return v.And(Mask(bits))
}

// truncate64 is Truncate for plain addresses.
func truncate64(v uint64, bits uint) uint64 {
	if bits >= 64 {
		return v
	}
	return v & (uint64(1)<<bits - 1)
}
