package predictor

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultTAGECounterWidth is the counter width of tagged components.
	DefaultTAGECounterWidth = 3
	// DefaultResetPeriod is the number of updates between usefulness resets.
	DefaultResetPeriod = 256 * 1024

	maxUsefulness = 3
)

// TAGEConfig holds the geometry of a TAGE predictor.
type TAGEConfig struct {
	// NumTables is the number of tables including the bimodal base T[0].
	NumTables uint
	// BaseIndexBits is log2 of the number of entries in T[0].
	BaseIndexBits uint
	// BaseCounterWidth is the counter width of T[0]. Default: 2.
	BaseCounterWidth uint
	// HistoryLength is the GHR width of T[1].
	HistoryLength uint
	// Alpha is the geometric growth factor between consecutive histories.
	Alpha float64
	// IndexBits is log2 of the number of entries in each of T[1:].
	IndexBits uint
	// TagBits is the tag width of T[1:].
	TagBits uint
	// CounterWidth is the counter width of T[1:]. Default: 3.
	CounterWidth uint
	// ResetPeriod is the number of updates between usefulness resets.
	// Default: 262144.
	ResetPeriod uint64
	// IndexHash and TagHash default to XOR and XNOR.
	IndexHash HashFunc
	TagHash   HashFunc
}

// WithDefaults fills zero-valued optional fields.
func (c TAGEConfig) WithDefaults() TAGEConfig {
	if c.BaseCounterWidth == 0 {
		c.BaseCounterWidth = DefaultCounterWidth
	}
	if c.CounterWidth == 0 {
		c.CounterWidth = DefaultTAGECounterWidth
	}
	if c.ResetPeriod == 0 {
		c.ResetPeriod = DefaultResetPeriod
	}
	if c.IndexHash == nil {
		c.IndexHash = XOR
	}
	if c.TagHash == nil {
		c.TagHash = XNOR
	}
	return c
}

// HistoryLengths returns the GHR width of T[1] through T[NumTables-1]. Each
// length is floor(previous * Alpha).
func (c TAGEConfig) HistoryLengths() []uint {
	if c.NumTables < 2 {
		return nil
	}

	lengths := make([]uint, 0, c.NumTables-1)
	length := float64(c.HistoryLength)
	for i := uint(1); i < c.NumTables; i++ {
		lengths = append(lengths, uint(length))
		length = math.Floor(length * c.Alpha)
	}
	return lengths
}

// Validate checks the configuration after defaults are applied.
func (c TAGEConfig) Validate() error {
	c = c.WithDefaults()
	if c.NumTables == 0 {
		return errors.New("num_tables must be at least 1")
	}
	if err := checkIndexBits("base_index_bits", c.BaseIndexBits); err != nil {
		return err
	}
	if err := checkCounterWidth("base_counter_width", c.BaseCounterWidth); err != nil {
		return err
	}
	if c.NumTables == 1 {
		return nil
	}

	if err := checkIndexBits("index_bits", c.IndexBits); err != nil {
		return err
	}
	if err := checkTagBits("tag_bits", c.TagBits); err != nil {
		return err
	}
	if err := checkCounterWidth("counter_width", c.CounterWidth); err != nil {
		return err
	}
	if c.NumTables > 2 && !(c.Alpha > 0) {
		return fmt.Errorf("alpha must be positive, got %v", c.Alpha)
	}
	for i, length := range c.HistoryLengths() {
		if err := checkHistoryWidth(fmt.Sprintf("history length of T[%d]", i+1),
			length); err != nil {
			return err
		}
	}
	return nil
}

// TAGE is a TAgged GEometric history length predictor. T[0] is a bimodal
// base table; T[1:] are tagged global-history tables whose history lengths
// grow geometrically. The longest-history table whose stored tag matches
// provides the prediction; the next hit is the alternate.
type TAGE struct {
	base Predictor
	// components[0] is unused; T[0] is base.
	components []*GlobalHistory
	// useful[i][idx] is the 2-bit usefulness of entry idx in T[i], i >= 1.
	useful [][]uint8

	provider       int
	alt            int
	lastPrediction []bool

	resetPeriod uint64
	resetCount  uint64
}

// NewTAGE creates a TAGE predictor.
func NewTAGE(config TAGEConfig) (*TAGE, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.WithDefaults()

	base, err := NewBimodal(BimodalConfig{
		IndexBits:    config.BaseIndexBits,
		CounterWidth: config.BaseCounterWidth,
	})
	if err != nil {
		return nil, err
	}

	n := int(config.NumTables)
	t := &TAGE{
		base:           base,
		components:     make([]*GlobalHistory, n),
		useful:         make([][]uint8, n),
		lastPrediction: make([]bool, n),
		resetPeriod:    config.ResetPeriod,
	}

	for i, length := range config.HistoryLengths() {
		table, err := NewGlobalHistory(GlobalHistoryConfig{
			HistoryWidth: length,
			IndexBits:    config.IndexBits,
			TagBits:      config.TagBits,
			CounterWidth: config.CounterWidth,
			IndexHash:    config.IndexHash,
			TagHash:      config.TagHash,
		})
		if err != nil {
			return nil, fmt.Errorf("T[%d]: %w", i+1, err)
		}

		t.components[i+1] = table
		t.useful[i+1] = make([]uint8, table.Entries())
	}

	return t, nil
}

func (t *TAGE) predictWith(i int, addr uint64) bool {
	if i == 0 {
		return t.base.Predict(addr)
	}
	return t.components[i].Predict(addr)
}

func (t *TAGE) updateWith(i int, taken, predicted bool, addr uint64) {
	if i == 0 {
		t.base.Update(taken, predicted, addr)
		return
	}
	t.components[i].Update(taken, predicted, addr)
}

// Predict selects provider and alternate tables for addr and returns the
// provider's prediction.
func (t *TAGE) Predict(addr uint64) bool {
	t.provider = 0
	t.alt = 0

	for i := len(t.components) - 1; i > 0; i-- {
		if !t.components[i].Hit(addr) {
			continue
		}

		if t.provider == 0 {
			t.provider = i
		} else {
			t.alt = i
			break
		}
	}

	t.lastPrediction[t.provider] = t.predictWith(t.provider, addr)
	t.lastPrediction[t.alt] = t.predictWith(t.alt, addr)

	return t.lastPrediction[t.provider]
}

// Update trains the provider, keeps every component history in step with
// the real outcome, allocates a new entry on a misprediction and
// periodically clears usefulness.
func (t *TAGE) Update(taken, predicted bool, addr uint64) {
	if t.lastPrediction[t.provider] != t.lastPrediction[t.alt] {
		t.updateUsefulness(taken, predicted, addr)
	}

	t.updateWith(t.provider, taken, predicted, addr)

	// Tables above the provider still hold the history the misprediction
	// was made under.
	if predicted != taken {
		t.allocate(addr)
	}

	for i := 1; i < len(t.components); i++ {
		if i == t.provider {
			continue
		}
		t.components[i].ShiftHistory(taken)
	}

	t.resetCount++
	if t.resetCount >= t.resetPeriod {
		t.resetCount = 0
		t.clearUsefulness()
	}
}

func (t *TAGE) updateUsefulness(taken, predicted bool, addr uint64) {
	u := t.useful[t.provider]
	idx := t.components[t.provider].Index(addr)

	if predicted == taken {
		if u[idx] < maxUsefulness {
			u[idx]++
		}
	} else if u[idx] > 0 {
		u[idx]--
	}
}

// allocate steals the first not-useful entry in a table with a longer
// history than the provider. If every candidate is useful, all of them age
// by one instead.
func (t *TAGE) allocate(addr uint64) {
	for i := t.provider + 1; i < len(t.components); i++ {
		table := t.components[i]
		if t.useful[i][table.Index(addr)] == 0 {
			table.AllocateTag(addr)
			table.ResetCounter(addr)
			return
		}
	}

	for i := t.provider + 1; i < len(t.components); i++ {
		idx := t.components[i].Index(addr)
		if t.useful[i][idx] > 0 {
			t.useful[i][idx]--
		}
	}
}

func (t *TAGE) clearUsefulness() {
	for i := 1; i < len(t.useful); i++ {
		clear(t.useful[i])
	}
}

// NumTables returns the number of tables including the base.
func (t *TAGE) NumTables() int {
	return len(t.components)
}

// Base returns T[0].
func (t *TAGE) Base() Predictor {
	return t.base
}

// Component returns tagged table T[i] for i in [1, NumTables).
func (t *TAGE) Component(i int) *GlobalHistory {
	return t.components[i]
}

// Provider returns the provider index chosen by the last Predict.
func (t *TAGE) Provider() int {
	return t.provider
}

// Alternate returns the alternate index chosen by the last Predict.
func (t *TAGE) Alternate() int {
	return t.alt
}

// Usefulness returns the usefulness counter of entry idx in T[table].
func (t *TAGE) Usefulness(table, idx int) uint8 {
	return t.useful[table][idx]
}

// HistoryLengths returns the GHR widths of T[1:].
func (t *TAGE) HistoryLengths() []uint {
	lengths := make([]uint, 0, len(t.components))
	for _, c := range t.components[1:] {
		lengths = append(lengths, c.HistoryWidth())
	}
	return lengths
}
