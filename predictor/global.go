package predictor

import "lukechampine.com/uint128"

// GlobalHistoryConfig holds the geometry of a global-history predictor.
type GlobalHistoryConfig struct {
	// HistoryWidth is the number of past outcomes kept in the GHR.
	HistoryWidth uint
	// IndexBits is log2 of the number of PHT entries.
	IndexBits uint
	// TagBits is the width of the tag stored alongside each entry.
	TagBits uint
	// CounterWidth is the width of each saturating counter. Default: 2.
	CounterWidth uint
	// IndexHash folds history and address into an index. Default: XOR.
	IndexHash HashFunc
	// TagHash folds history and address into a tag. Default: XNOR.
	TagHash HashFunc
}

// WithDefaults fills zero-valued optional fields.
func (c GlobalHistoryConfig) WithDefaults() GlobalHistoryConfig {
	if c.CounterWidth == 0 {
		c.CounterWidth = DefaultCounterWidth
	}
	if c.IndexHash == nil {
		c.IndexHash = XOR
	}
	if c.TagHash == nil {
		c.TagHash = XNOR
	}
	return c
}

// Validate checks the configuration after defaults are applied.
func (c GlobalHistoryConfig) Validate() error {
	c = c.WithDefaults()
	if err := checkHistoryWidth("history_width", c.HistoryWidth); err != nil {
		return err
	}
	if err := checkIndexBits("index_bits", c.IndexBits); err != nil {
		return err
	}
	if err := checkTagBits("tag_bits", c.TagBits); err != nil {
		return err
	}
	return checkCounterWidth("counter_width", c.CounterWidth)
}

// GlobalHistory is a PHT of saturating counters indexed by a fold of its own
// global history register and the branch address. A parallel tag store lets
// the same structure serve as a tagged TAGE component; a stored tag of zero
// means the entry was never allocated.
type GlobalHistory struct {
	ghr       *ShiftRegister
	indexBits uint
	tagBits   uint
	counters  []SaturatingCounter
	tags      []uint128.Uint128
	indexHash HashFunc
	tagHash   HashFunc
}

// NewGlobalHistory creates a global-history predictor.
func NewGlobalHistory(config GlobalHistoryConfig) (*GlobalHistory, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.WithDefaults()

	entries := 1 << config.IndexBits
	return &GlobalHistory{
		ghr:       NewShiftRegister(config.HistoryWidth),
		indexBits: config.IndexBits,
		tagBits:   config.TagBits,
		counters:  newCounterTable(entries, config.CounterWidth),
		tags:      make([]uint128.Uint128, entries),
		indexHash: config.IndexHash,
		tagHash:   config.TagHash,
	}, nil
}

// Index returns the PHT entry addr maps to under the current history.
func (g *GlobalHistory) Index(addr uint64) int {
	folded := Fold(g.ghr.Value(), g.ghr.Width(),
		uint128.From64(addr), AddressWidth, g.indexBits, g.indexHash)
	return int(Truncate(folded, g.indexBits).Lo)
}

// ComputeTag returns the tag addr has under the current history.
func (g *GlobalHistory) ComputeTag(addr uint64) uint128.Uint128 {
	folded := Fold(g.ghr.Value(), g.ghr.Width(),
		uint128.From64(addr), AddressWidth, g.tagBits, g.tagHash)
	return Truncate(folded, g.tagBits)
}

// Tag returns the tag stored in the entry addr maps to.
func (g *GlobalHistory) Tag(addr uint64) uint128.Uint128 {
	return g.tags[g.Index(addr)]
}

// TagAt returns the tag stored at idx.
func (g *GlobalHistory) TagAt(idx int) uint128.Uint128 {
	return g.tags[idx]
}

// Hit reports whether the stored tag for addr matches its current tag.
func (g *GlobalHistory) Hit(addr uint64) bool {
	return g.Tag(addr).Equals(g.ComputeTag(addr))
}

// AllocateTag stores the current tag of addr into its entry.
func (g *GlobalHistory) AllocateTag(addr uint64) {
	g.tags[g.Index(addr)] = g.ComputeTag(addr)
}

// ResetCounter puts the counter for addr back to weakly taken.
func (g *GlobalHistory) ResetCounter(addr uint64) {
	g.counters[g.Index(addr)].Reset()
}

// Counter returns a copy of the counter at idx.
func (g *GlobalHistory) Counter(idx int) SaturatingCounter {
	return g.counters[idx]
}

// Entries returns the number of PHT entries.
func (g *GlobalHistory) Entries() int {
	return len(g.counters)
}

// ShiftHistory records an outcome in the GHR without training any counter.
func (g *GlobalHistory) ShiftHistory(taken bool) {
	g.ghr.ShiftIn(taken)
}

// History returns the GHR contents.
func (g *GlobalHistory) History() uint128.Uint128 {
	return g.ghr.Value()
}

// HistoryWidth returns the GHR width.
func (g *GlobalHistory) HistoryWidth() uint {
	return g.ghr.Width()
}

// Predict returns the direction held by the counter for addr.
func (g *GlobalHistory) Predict(addr uint64) bool {
	return g.counters[g.Index(addr)].IsTaken()
}

// Update trains the counter for addr, then shifts the outcome into the GHR.
func (g *GlobalHistory) Update(taken, _ bool, addr uint64) {
	g.counters[g.Index(addr)].Train(taken)
	g.ghr.ShiftIn(taken)
}
