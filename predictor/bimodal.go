package predictor

// DefaultCounterWidth is the counter width used when none is configured.
const DefaultCounterWidth = 2

// BimodalConfig holds the geometry of a bimodal predictor.
type BimodalConfig struct {
	// IndexBits is log2 of the number of table entries.
	IndexBits uint
	// CounterWidth is the width of each saturating counter. Default: 2.
	CounterWidth uint
}

// WithDefaults fills zero-valued optional fields.
func (c BimodalConfig) WithDefaults() BimodalConfig {
	if c.CounterWidth == 0 {
		c.CounterWidth = DefaultCounterWidth
	}
	return c
}

// Validate checks the configuration after defaults are applied.
func (c BimodalConfig) Validate() error {
	c = c.WithDefaults()
	if err := checkIndexBits("index_bits", c.IndexBits); err != nil {
		return err
	}
	return checkCounterWidth("counter_width", c.CounterWidth)
}

// Bimodal is a direct-mapped table of saturating counters (a BHT) indexed
// by the low bits of the branch address.
type Bimodal struct {
	indexBits uint
	counters  []SaturatingCounter
}

// NewBimodal creates a bimodal predictor.
func NewBimodal(config BimodalConfig) (*Bimodal, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.WithDefaults()

	return &Bimodal{
		indexBits: config.IndexBits,
		counters:  newCounterTable(1<<config.IndexBits, config.CounterWidth),
	}, nil
}

// Index returns the table entry used for addr.
func (b *Bimodal) Index(addr uint64) int {
	return int(truncate64(addr, b.indexBits))
}

// Predict returns the direction held by the counter for addr.
func (b *Bimodal) Predict(addr uint64) bool {
	return b.counters[b.Index(addr)].IsTaken()
}

// Update trains the counter for addr with the actual outcome.
func (b *Bimodal) Update(taken, _ bool, addr uint64) {
	b.counters[b.Index(addr)].Train(taken)
}

// Counter returns a copy of the counter at idx.
func (b *Bimodal) Counter(idx int) SaturatingCounter {
	return b.counters[idx]
}

// Entries returns the number of table entries.
func (b *Bimodal) Entries() int {
	return len(b.counters)
}
