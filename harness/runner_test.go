package harness_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/btb"
	"github.com/sarchlab/bpsim/config"
	"github.com/sarchlab/bpsim/harness"
	"github.com/sarchlab/bpsim/trace"
)

type call struct {
	op        string
	addr      uint64
	taken     bool
	predicted bool
}

// recordingPredictor always predicts taken and logs every call.
type recordingPredictor struct {
	calls []call
}

func (p *recordingPredictor) Predict(addr uint64) bool {
	p.calls = append(p.calls, call{op: "predict", addr: addr})
	return true
}

func (p *recordingPredictor) Update(taken, predicted bool, addr uint64) {
	p.calls = append(p.calls, call{op: "update", addr: addr, taken: taken, predicted: predicted})
}

func directions(s string) []trace.Record {
	records := make([]trace.Record, len(s))
	for i, c := range s {
		records[i] = trace.Record{PC: 0x1000, Taken: c == 'T'}
	}
	return records
}

var _ = Describe("Runner", func() {
	var p *recordingPredictor

	BeforeEach(func() {
		p = &recordingPredictor{}
	})

	It("should pair every prediction with its update", func() {
		r := harness.NewRunner("rec", p)
		Expect(r.Step(trace.Record{PC: 0x10, Taken: false})).To(BeFalse())
		Expect(r.Step(trace.Record{PC: 0x20, Taken: true})).To(BeTrue())

		Expect(p.calls).To(Equal([]call{
			{op: "predict", addr: 0x10},
			{op: "update", addr: 0x10, taken: false, predicted: true},
			{op: "predict", addr: 0x20},
			{op: "update", addr: 0x20, taken: true, predicted: true},
		}))
	})

	It("should classify by predicted direction", func() {
		c, err := config.Preset("bimodal")
		Expect(err).NotTo(HaveOccurred())
		bimodal, err := c.Build()
		Expect(err).NotTo(HaveOccurred())

		r := harness.NewRunner("bimodal", bimodal)
		// Counter starts at 2: T (2->3), N (3->2), N (2->1), N (1->0), T.
		for _, rec := range directions("TNNNT") {
			r.Step(rec)
		}

		stats := r.Stats()
		Expect(stats.TakenCorrect).To(Equal(uint64(1)))
		Expect(stats.TakenIncorrect).To(Equal(uint64(2)))
		Expect(stats.NotTakenCorrect).To(Equal(uint64(1)))
		Expect(stats.NotTakenIncorrect).To(Equal(uint64(1)))
		Expect(stats.Total()).To(Equal(uint64(5)))
		Expect(stats.Accuracy()).To(BeNumerically("~", 40.0))
		Expect(stats.MispredictionRate()).To(BeNumerically("~", 60.0))
	})

	It("should split accuracy into windows", func() {
		r := harness.NewRunner("rec", p, harness.WithWindowSize(4))
		res, err := r.Run(context.Background(), trace.NewSliceSource(directions("TTNTTN")))
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Name).To(Equal("rec"))
		Expect(res.Windows).To(Equal([]float64{75, 50}))
		Expect(res.Summary.Windows).To(Equal(2))
		Expect(res.Summary.Mean).To(BeNumerically("~", 62.5))
		Expect(res.Summary.Min).To(BeNumerically("~", 50.0))
		Expect(res.Summary.Max).To(BeNumerically("~", 75.0))
		Expect(res.Summary.StdDev).To(BeNumerically("~", 12.5))
		Expect(res.Summary.P10).To(BeNumerically("~", 50.0))
	})

	It("should stop on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := harness.NewRunner("rec", p)
		_, err := r.Run(ctx, trace.NewSliceSource(directions("TTTT")))
		Expect(err).To(MatchError(context.Canceled))
		Expect(p.calls).To(BeEmpty())
	})

	It("should account for branch targets", func() {
		b, err := btb.New(btb.Config{Sets: 16, Ways: 2})
		Expect(err).NotTo(HaveOccurred())

		r := harness.NewRunner("rec", p, harness.WithBTB(b))
		for _, rec := range trace.Loop(0x1000, 0xff0, 3, 2) {
			r.Step(rec)
		}

		stats := r.Stats()
		Expect(stats.BTBLookups).To(Equal(uint64(6)))
		Expect(stats.BTBHits).To(Equal(uint64(5)))
		Expect(stats.TargetMispredictions).To(Equal(uint64(1)))
		Expect(stats.BTBHitRate()).To(BeNumerically("~", 500.0/6))
	})
})

var _ = Describe("Summarize", func() {
	It("should return a zero summary for no windows", func() {
		s, err := harness.Summarize(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(harness.Summary{}))
	})

	It("should compute a low percentile", func() {
		windows := make([]float64, 20)
		for i := range windows {
			windows[i] = float64(i + 1)
		}
		s, err := harness.Summarize(windows)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.P10).To(BeNumerically("~", 2.0))
		Expect(s.Mean).To(BeNumerically("~", 10.5))
	})
})
