// Package harness drives predictors over branch traces: it pairs every
// prediction with its update in program order and accounts for the
// outcomes.
package harness

import (
	"context"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/bpsim/btb"
	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

// DefaultWindowSize is the number of records per accuracy window.
const DefaultWindowSize = 10000

// Result is the outcome of one run.
type Result struct {
	Name    string
	Stats   Stats
	Windows []float64
	Summary Summary
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBTB attaches a branch target buffer.
func WithBTB(b *btb.BTB) RunnerOption {
	return func(r *Runner) {
		r.btb = b
	}
}

// WithWindowSize sets the number of records per accuracy window.
func WithWindowSize(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.windowSize = n
		}
	}
}

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *log.Entry) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// Runner feeds records to a single predictor. It is not safe for
// concurrent use.
type Runner struct {
	name      string
	predictor predictor.Predictor
	btb       *btb.BTB
	logger    *log.Entry

	windowSize    int
	windowCount   int
	windowCorrect int
	windows       []float64

	stats Stats
}

// NewRunner creates a Runner for p.
func NewRunner(name string, p predictor.Predictor, opts ...RunnerOption) *Runner {
	r := &Runner{
		name:       name,
		predictor:  p,
		windowSize: DefaultWindowSize,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = log.WithFields(log.Fields{"predictor": name})
	}

	return r
}

// Step processes one record and reports whether the direction was
// predicted correctly.
func (r *Runner) Step(rec trace.Record) bool {
	predicted := r.predictor.Predict(rec.PC)
	r.predictor.Update(rec.Taken, predicted, rec.PC)

	r.stats.record(predicted, rec.Taken)
	if r.btb != nil {
		r.stepBTB(rec)
	}

	correct := predicted == rec.Taken
	r.windowCount++
	if correct {
		r.windowCorrect++
	}
	if r.windowCount == r.windowSize {
		r.closeWindow()
	}

	return correct
}

func (r *Runner) stepBTB(rec trace.Record) {
	target, hit := r.btb.Lookup(rec.PC)
	r.stats.BTBLookups++
	if hit {
		r.stats.BTBHits++
	}

	if !rec.Taken {
		return
	}
	if !hit || target != rec.Target {
		r.stats.TargetMispredictions++
	}
	if rec.Target != 0 {
		r.btb.Update(rec.PC, rec.Target)
	}
}

func (r *Runner) closeWindow() {
	if r.windowCount == 0 {
		return
	}

	accuracy := float64(r.windowCorrect) / float64(r.windowCount) * 100
	r.windows = append(r.windows, accuracy)
	r.logger.WithFields(log.Fields{
		"window":   len(r.windows) - 1,
		"accuracy": accuracy,
	}).Debug("window closed")

	r.windowCount = 0
	r.windowCorrect = 0
}

// Stats returns the counters accumulated so far.
func (r *Runner) Stats() Stats {
	return r.stats
}

// Run drains src through the predictor. The context is checked once per
// window; a final partial window is kept.
func (r *Runner) Run(ctx context.Context, src trace.Source) (*Result, error) {
	for n := 0; ; n++ {
		if n%r.windowSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		r.Step(rec)
	}

	return r.Result()
}

// Result closes the current window and returns the run result.
func (r *Runner) Result() (*Result, error) {
	r.closeWindow()

	summary, err := Summarize(r.windows)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(log.Fields{
		"records":  r.stats.Total(),
		"accuracy": r.stats.Accuracy(),
	}).Info("run finished")

	return &Result{
		Name:    r.name,
		Stats:   r.stats,
		Windows: append([]float64(nil), r.windows...),
		Summary: summary,
	}, nil
}
