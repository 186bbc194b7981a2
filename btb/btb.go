// Package btb models a set-associative branch target buffer on top of the
// Akita cache directory.
package btb

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// InstructionSize is the granularity of branch addresses. PCs that share an
// aligned InstructionSize block share an entry.
const InstructionSize = 4

// Config holds BTB geometry.
type Config struct {
	// Sets is the number of sets.
	Sets int
	// Ways is the associativity.
	Ways int
}

// DefaultConfig returns a 1024-entry, 4-way BTB.
func DefaultConfig() Config {
	return Config{Sets: 256, Ways: 4}
}

// Validate checks the geometry.
func (c Config) Validate() error {
	if c.Sets <= 0 || c.Sets&(c.Sets-1) != 0 {
		return fmt.Errorf("btb sets must be a positive power of two, got %d", c.Sets)
	}
	if c.Ways <= 0 {
		return fmt.Errorf("btb ways must be positive, got %d", c.Ways)
	}
	return nil
}

// Stats holds BTB statistics.
type Stats struct {
	Lookups   uint64
	Hits      uint64
	Misses    uint64
	Updates   uint64
	Evictions uint64
}

// HitRate returns hits over lookups, or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups)
}

// BTB maps branch addresses to their last taken target with LRU
// replacement.
type BTB struct {
	config    Config
	directory *akitacache.DirectoryImpl

	// indexed by (setID * ways + wayID)
	targets []uint64

	stats Stats
}

// New creates a BTB.
func New(config Config) (*BTB, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &BTB{
		config: config,
		directory: akitacache.NewDirectory(
			config.Sets,
			config.Ways,
			InstructionSize,
			akitacache.NewLRUVictimFinder(),
		),
		targets: make([]uint64, config.Sets*config.Ways),
	}, nil
}

// Config returns the BTB geometry.
func (b *BTB) Config() Config {
	return b.config
}

// Stats returns BTB statistics.
func (b *BTB) Stats() Stats {
	return b.stats
}

func (b *BTB) slot(block *akitacache.Block) int {
	return block.SetID*b.config.Ways + block.WayID
}

func blockAddr(pc uint64) uint64 {
	return pc &^ (InstructionSize - 1)
}

// Lookup returns the stored target for pc.
func (b *BTB) Lookup(pc uint64) (uint64, bool) {
	b.stats.Lookups++

	block := b.directory.Lookup(0, blockAddr(pc))
	if block == nil || !block.IsValid {
		b.stats.Misses++
		return 0, false
	}

	b.stats.Hits++
	b.directory.Visit(block)
	return b.targets[b.slot(block)], true
}

// Update records target as the taken target of pc, allocating an entry if
// pc is not present.
func (b *BTB) Update(pc, target uint64) {
	b.stats.Updates++

	addr := blockAddr(pc)
	block := b.directory.Lookup(0, addr)
	if block == nil || !block.IsValid {
		block = b.directory.FindVictim(addr)
		if block == nil {
			return
		}
		if block.IsValid {
			b.stats.Evictions++
		}
		block.Tag = addr
		block.IsValid = true
	}

	b.targets[b.slot(block)] = target
	b.directory.Visit(block)
}

// Reset invalidates every entry and clears statistics.
func (b *BTB) Reset() {
	b.directory.Reset()
	clear(b.targets)
	b.stats = Stats{}
}
