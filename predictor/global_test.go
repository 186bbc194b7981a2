package predictor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"lukechampine.com/uint128"

	"github.com/sarchlab/bpsim/predictor"
)

var _ = Describe("GlobalHistory", func() {
	var g *predictor.GlobalHistory

	newGlobal := func(history, index, tag uint) *predictor.GlobalHistory {
		p, err := predictor.NewGlobalHistory(predictor.GlobalHistoryConfig{
			HistoryWidth: history,
			IndexBits:    index,
			TagBits:      tag,
		})
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	counters := func(p *predictor.GlobalHistory) []predictor.SaturatingCounter {
		out := make([]predictor.SaturatingCounter, p.Entries())
		for i := range out {
			out[i] = p.Counter(i)
		}
		return out
	}

	BeforeEach(func() {
		g = newGlobal(4, 6, 8)
	})

	It("should start with an empty history and unallocated tags", func() {
		Expect(g.History()).To(Equal(uint128.Zero))
		Expect(g.HistoryWidth()).To(Equal(uint(4)))
		Expect(g.Entries()).To(Equal(64))
		for i := 0; i < g.Entries(); i++ {
			Expect(g.TagAt(i)).To(Equal(uint128.Zero))
		}
		Expect(g.Predict(0x1000)).To(BeTrue())
	})

	It("should shift the outcome into its history on update", func() {
		g.Update(true, true, 0x1000)
		g.Update(false, true, 0x1000)
		g.Update(true, true, 0x1000)
		Expect(g.History()).To(Equal(uint128.From64(0b101)))
	})

	It("should index by history as well as address", func() {
		pc := uint64(0x1000)
		before := g.Index(pc)
		g.ShiftHistory(true)
		Expect(g.Index(pc)).NotTo(Equal(before))
	})

	It("should shift history without touching counters", func() {
		before := counters(g)
		g.ShiftHistory(true)
		g.ShiftHistory(false)
		Expect(g.History()).To(Equal(uint128.From64(0b10)))
		Expect(counters(g)).To(Equal(before))
	})

	It("should learn an alternating pattern", func() {
		g = newGlobal(2, 6, 8)
		pc := uint64(0x1000)

		correct := 0
		for i := 0; i < 200; i++ {
			taken := i%2 == 0
			p := g.Predict(pc)
			if i >= 180 && p == taken {
				correct++
			}
			g.Update(taken, p, pc)
		}
		Expect(correct).To(Equal(20))
	})

	It("should allocate a tag for the current history", func() {
		pc := uint64(0x400123)
		g.ShiftHistory(true)

		g.AllocateTag(pc)
		Expect(g.Tag(pc)).To(Equal(g.ComputeTag(pc)))
		Expect(g.TagAt(g.Index(pc))).To(Equal(g.ComputeTag(pc)))
		Expect(g.Hit(pc)).To(BeTrue())
	})

	It("should keep tags within the configured width", func() {
		for pc := uint64(0); pc < 0x10000; pc += 0x123 {
			Expect(g.ComputeTag(pc).Cmp(uint128.From64(1 << 8))).To(Equal(-1))
			Expect(g.Index(pc)).To(BeNumerically("<", 64))
		}
	})

	It("should reset a counter to weakly taken", func() {
		pc := uint64(0x40)
		// A not-taken stream keeps an all-zero history, so the index is stable.
		for i := 0; i < 3; i++ {
			g.Update(false, true, pc)
		}
		idx := g.Index(pc)
		Expect(g.Counter(idx).Value()).To(Equal(uint64(0)))
		Expect(g.Predict(pc)).To(BeFalse())

		g.ResetCounter(pc)
		Expect(g.Counter(idx).Value()).To(Equal(uint64(2)))
		Expect(g.Predict(pc)).To(BeTrue())
	})

	It("should use distinct hashes for index and tag", func() {
		wide := newGlobal(16, 8, 8)
		wide.ShiftHistory(true)
		wide.ShiftHistory(true)

		differs := false
		for pc := uint64(0x1000); pc < 0x1100; pc += 4 {
			if uint64(wide.Index(pc)) != wide.ComputeTag(pc).Lo {
				differs = true
			}
		}
		Expect(differs).To(BeTrue())
	})

	It("should reject invalid geometry", func() {
		bad := []predictor.GlobalHistoryConfig{
			{HistoryWidth: 0, IndexBits: 4, TagBits: 4},
			{HistoryWidth: 128, IndexBits: 4, TagBits: 4},
			{HistoryWidth: 4, IndexBits: 0, TagBits: 4},
			{HistoryWidth: 4, IndexBits: 4, TagBits: 0},
			{HistoryWidth: 4, IndexBits: 4, TagBits: 4, CounterWidth: 64},
		}
		for _, config := range bad {
			_, err := predictor.NewGlobalHistory(config)
			Expect(err).To(HaveOccurred())
		}
	})
})
