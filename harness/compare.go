package harness

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/bpsim/btb"
	"github.com/sarchlab/bpsim/config"
	"github.com/sarchlab/bpsim/trace"
)

// CompareOptions controls a comparison.
type CompareOptions struct {
	WindowSize int
	// BTB attaches a fresh BTB with this geometry to every run.
	BTB *btb.Config
}

// Compare runs every configuration over the same records concurrently.
// Each run owns its predictor; results are returned in the order of
// configs.
func Compare(
	ctx context.Context,
	configs []*config.Config,
	records []trace.Record,
	opts CompareOptions,
) ([]*Result, error) {
	for i, c := range configs {
		if c == nil {
			return nil, errors.Errorf("config %d is nil", i)
		}
	}

	results := make([]*Result, len(configs))
	g, ctx := errgroup.WithContext(ctx)

	for i, c := range configs {
		g.Go(func() error {
			p, err := c.Build()
			if err != nil {
				return errors.Wrapf(err, "config %q", c.Label())
			}

			runnerOpts := []RunnerOption{WithWindowSize(opts.WindowSize)}
			if opts.BTB != nil {
				b, err := btb.New(*opts.BTB)
				if err != nil {
					return err
				}
				runnerOpts = append(runnerOpts, WithBTB(b))
			}

			r := NewRunner(c.Label(), p, runnerOpts...)
			res, err := r.Run(ctx, trace.NewSliceSource(records))
			if err != nil {
				return errors.Wrapf(err, "run %q", c.Label())
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
