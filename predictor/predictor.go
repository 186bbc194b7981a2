package predictor

import "fmt"

// MaxIndexBits bounds the size of any single counter table (2^30 entries).
const MaxIndexBits = 30

// Predictor is a branch direction predictor.
//
// Predict must not change any state a later Predict or Update can observe.
// Update must be called once per Predict, in program order, with the value
// that Predict returned for the same address.
type Predictor interface {
	// Predict returns true if the branch at addr is predicted taken.
	Predict(addr uint64) bool
	// Update trains the predictor with the actual outcome of the branch.
	Update(taken, predicted bool, addr uint64)
}

func checkIndexBits(name string, bits uint) error {
	if bits == 0 || bits > MaxIndexBits {
		return fmt.Errorf("%s must be in [1, %d], got %d", name, MaxIndexBits, bits)
	}
	return nil
}

func checkCounterWidth(name string, width uint) error {
	if width == 0 || width > MaxCounterWidth {
		return fmt.Errorf("%s must be in [1, %d], got %d",
			name, MaxCounterWidth, width)
	}
	return nil
}

func checkHistoryWidth(name string, width uint) error {
	if width == 0 || width > MaxHistoryWidth {
		return fmt.Errorf("%s must be in [1, %d], got %d",
			name, MaxHistoryWidth, width)
	}
	return nil
}

func checkTagBits(name string, bits uint) error {
	if bits == 0 || bits > 127 {
		return fmt.Errorf("%s must be in [1, 127], got %d", name, bits)
	}
	return nil
}
