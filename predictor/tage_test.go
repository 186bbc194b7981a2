package predictor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"lukechampine.com/uint128"

	"github.com/sarchlab/bpsim/predictor"
)

var _ = Describe("TAGE", func() {
	var (
		config predictor.TAGEConfig
		tage   *predictor.TAGE
	)

	// coldAddress finds an address that no tagged table hits under the
	// current histories.
	coldAddress := func() uint64 {
		for pc := uint64(0x400000); ; pc += 4 {
			cold := true
			for i := 1; i < tage.NumTables(); i++ {
				if tage.Component(i).Hit(pc) {
					cold = false
				}
			}
			if cold {
				return pc
			}
		}
	}

	allocatedTags := func(table *predictor.GlobalHistory) int {
		n := 0
		for i := 0; i < table.Entries(); i++ {
			if !table.TagAt(i).IsZero() {
				n++
			}
		}
		return n
	}

	BeforeEach(func() {
		config = predictor.TAGEConfig{
			NumTables:     4,
			BaseIndexBits: 4,
			HistoryLength: 2,
			Alpha:         2,
			IndexBits:     4,
			TagBits:       8,
		}
	})

	JustBeforeEach(func() {
		var err error
		tage, err = predictor.NewTAGE(config)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Construction", func() {
		It("should grow history lengths geometrically", func() {
			Expect(tage.NumTables()).To(Equal(4))
			Expect(tage.HistoryLengths()).To(Equal([]uint{2, 4, 8}))
		})

		It("should floor fractional growth", func() {
			config.NumTables = 5
			config.HistoryLength = 3
			config.Alpha = 1.5
			Expect(config.HistoryLengths()).To(Equal([]uint{3, 4, 6, 9}))
		})

		It("should reject histories wider than 127 bits", func() {
			config.NumTables = 8
			Expect(config.Validate()).To(HaveOccurred())

			config.NumTables = 7
			Expect(config.Validate()).To(Succeed())
		})

		It("should reject an empty ensemble", func() {
			config.NumTables = 0
			_, err := predictor.NewTAGE(config)
			Expect(err).To(HaveOccurred())
		})

		It("should reject a shrinking history", func() {
			config.Alpha = 0.25
			_, err := predictor.NewTAGE(config)
			Expect(err).To(HaveOccurred())
		})

		It("should start with all usefulness cleared", func() {
			for i := 1; i < tage.NumTables(); i++ {
				for idx := 0; idx < tage.Component(i).Entries(); idx++ {
					Expect(tage.Usefulness(i, idx)).To(Equal(uint8(0)))
				}
			}
		})
	})

	Describe("Base-only ensemble", func() {
		BeforeEach(func() {
			config = predictor.TAGEConfig{NumTables: 1, BaseIndexBits: 4}
		})

		It("should behave like a bimodal table", func() {
			pc := uint64(0x1000)
			Expect(tage.Predict(pc)).To(BeTrue())

			tage.Update(true, true, pc)
			tage.Update(false, true, pc)
			Expect(tage.Predict(pc)).To(BeTrue())
			tage.Update(false, true, pc)
			Expect(tage.Predict(pc)).To(BeFalse())
			Expect(tage.Provider()).To(Equal(0))
		})
	})

	Describe("Provider selection and allocation", func() {
		It("should fall back to the base table when nothing hits", func() {
			pc := coldAddress()
			Expect(tage.Predict(pc)).To(BeTrue())
			Expect(tage.Provider()).To(Equal(0))
			Expect(tage.Alternate()).To(Equal(0))
		})

		It("should allocate exactly one longer entry on a misprediction", func() {
			// Taken outcomes are always predicted correctly by fresh tables,
			// so this only fills the histories with ones.
			warm := coldAddress()
			for i := 0; i < 2; i++ {
				tage.Update(true, tage.Predict(warm), warm)
			}
			for i := 1; i < tage.NumTables(); i++ {
				Expect(allocatedTags(tage.Component(i))).To(Equal(0))
			}

			pc := coldAddress()
			t1 := tage.Component(1)
			wantIdx := t1.Index(pc)
			wantTag := t1.ComputeTag(pc)

			p := tage.Predict(pc)
			Expect(tage.Provider()).To(Equal(0))
			tage.Update(!p, p, pc)

			// The entry belongs to the history the branch was predicted under.
			Expect(t1.TagAt(wantIdx)).To(Equal(wantTag))
			Expect(t1.Counter(wantIdx).Value()).To(Equal(uint64(4)))
			Expect(allocatedTags(t1)).To(Equal(1))

			for i := 2; i < tage.NumTables(); i++ {
				Expect(allocatedTags(tage.Component(i))).To(Equal(0))
			}
		})

		It("should pick the longest hit as provider and the next as alternate", func() {
			pc := coldAddress()

			// Cold: base mispredicts, T[1] gets an entry.
			tage.Update(false, tage.Predict(pc), pc)

			// T[1] provides (weakly taken) and mispredicts, T[2] gets an entry.
			Expect(tage.Predict(pc)).To(BeTrue())
			Expect(tage.Provider()).To(Equal(1))
			Expect(tage.Alternate()).To(Equal(0))
			tage.Update(false, true, pc)
			Expect(tage.Component(1).Counter(tage.Component(1).Index(pc)).Value()).
				To(Equal(uint64(3)))

			Expect(tage.Predict(pc)).To(BeTrue())
			Expect(tage.Provider()).To(Equal(2))
			Expect(tage.Alternate()).To(Equal(1))
			Expect(allocatedTags(tage.Component(3))).To(Equal(0))
		})

		It("should reward a decisive correct provider", func() {
			pc := coldAddress()
			tage.Update(false, tage.Predict(pc), pc)
			tage.Update(false, tage.Predict(pc), pc)

			// T[2] says taken, T[1] says not taken, outcome taken.
			Expect(tage.Predict(pc)).To(BeTrue())
			idx := tage.Component(2).Index(pc)
			tage.Update(true, true, pc)

			Expect(tage.Usefulness(2, idx)).To(Equal(uint8(1)))
		})

		It("should not touch usefulness when the provider is the base", func() {
			pc := coldAddress()
			for i := 0; i < 5; i++ {
				p := tage.Predict(pc)
				Expect(tage.Provider()).To(Equal(0))
				tage.Update(p, p, pc)
			}
			for i := 1; i < tage.NumTables(); i++ {
				Expect(tage.Usefulness(i, tage.Component(i).Index(pc))).To(Equal(uint8(0)))
			}
		})
	})

	Describe("History propagation", func() {
		It("should shift every tagged history once per update", func() {
			pc := coldAddress()
			outcomes := []bool{true, true, false, true}
			for _, taken := range outcomes {
				tage.Update(taken, tage.Predict(pc), pc)
			}

			want := []uint64{0b01, 0b1101, 0b1101}
			for i := 1; i < tage.NumTables(); i++ {
				Expect(tage.Component(i).History()).To(Equal(uint128.From64(want[i-1])))
			}
		})
	})

	Describe("Usefulness aging", func() {
		BeforeEach(func() {
			config.ResetPeriod = 4
		})

		It("should clear every usefulness counter after the reset period", func() {
			pc := coldAddress()
			tage.Update(false, tage.Predict(pc), pc)
			tage.Update(false, tage.Predict(pc), pc)

			Expect(tage.Predict(pc)).To(BeTrue())
			idx := tage.Component(2).Index(pc)
			tage.Update(true, true, pc)
			Expect(tage.Usefulness(2, idx)).To(Equal(uint8(1)))

			tage.Update(true, tage.Predict(pc), pc)

			for i := 1; i < tage.NumTables(); i++ {
				for e := 0; e < tage.Component(i).Entries(); e++ {
					Expect(tage.Usefulness(i, e)).To(Equal(uint8(0)))
				}
			}
		})
	})

	Describe("Accuracy", func() {
		run := func(p predictor.Predictor, pattern []bool, iterations int) int {
			pc := uint64(0x400a2c)
			correct := 0
			for i := 0; i < iterations; i++ {
				for _, taken := range pattern {
					guess := p.Predict(pc)
					if i >= iterations-100 && guess == taken {
						correct++
					}
					p.Update(taken, guess, pc)
				}
			}
			return correct
		}

		DescribeTable("periodic patterns shorter than the longest history",
			func(pattern string) {
				config = predictor.TAGEConfig{
					NumTables:     5,
					BaseIndexBits: 10,
					HistoryLength: 2,
					Alpha:         2,
					IndexBits:     10,
					TagBits:       8,
				}
				t, err := predictor.NewTAGE(config)
				Expect(err).NotTo(HaveOccurred())
				base, err := predictor.NewBimodal(predictor.BimodalConfig{IndexBits: 10})
				Expect(err).NotTo(HaveOccurred())

				outcomes := make([]bool, len(pattern))
				for i, c := range pattern {
					outcomes[i] = c == 'T'
				}

				tageCorrect := run(t, outcomes, 400)
				baseCorrect := run(base, outcomes, 400)

				Expect(tageCorrect).To(BeNumerically(">", baseCorrect))
				Expect(tageCorrect).To(Equal(100 * len(pattern)))
			},
			Entry("loop of five", "TTTTN"),
			Entry("loop of three", "TTN"),
			Entry("loop of eight", "TTTTTTTN"),
			Entry("irregular period seven", "TTNTNNT"),
			Entry("period six", "TNTTNN"),
		)
	})
})
