// Package main provides the bpsim command line tool. It runs one or more
// branch predictor configurations over a branch trace and reports their
// accuracy.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/bpsim/btb"
	"github.com/sarchlab/bpsim/config"
	"github.com/sarchlab/bpsim/harness"
	"github.com/sarchlab/bpsim/report"
	"github.com/sarchlab/bpsim/trace"
)

var (
	configList = flag.String("config", "",
		"Comma separated predictor config JSON files or preset names "+
			"("+strings.Join(config.PresetNames(), ", ")+"); default TAGE if empty")
	tracePath  = flag.String("trace", "", "Branch trace file")
	workload   = flag.String("workload", "", "Synthetic workload to run instead of a trace file")
	outputPath = flag.String("o", report.DefaultOutputFile, "Report output file")
	plotPath   = flag.String("plot", "", "Write an accuracy-per-window chart to this file")
	windowSize = flag.Int("window", harness.DefaultWindowSize, "Records per accuracy window")
	withBTB    = flag.Bool("btb", false, "Model a branch target buffer")
	btbSets    = flag.Int("btb-sets", btb.DefaultConfig().Sets, "BTB sets")
	btbWays    = flag.Int("btb-ways", btb.DefaultConfig().Ways, "BTB ways")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.RFC3339Nano,
		FullTimestamp:   true,
	})
	log.SetOutput(os.Stdout)

	if *verbose {
		log.SetLevel(log.DebugLevel)
		log.Debug("Debug logging is enabled")
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if (*tracePath == "") == (*workload == "") {
		fmt.Fprintf(os.Stderr, "Usage: bpsim [options] (-trace <file> | -workload <name>)\n")
		fmt.Fprintf(os.Stderr, "\nWorkloads:\n")
		for _, w := range trace.GetWorkloads() {
			fmt.Fprintf(os.Stderr, "  %-8s %s\n", w.Name, w.Description)
		}
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("bpsim failed: %v", err)
	}
}

func run(ctx context.Context) error {
	configs, err := loadConfigs(*configList)
	if err != nil {
		return err
	}

	records, err := loadRecords()
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"records": len(records),
		"configs": len(configs),
	}).Info("Starting simulation")

	opts := harness.CompareOptions{WindowSize: *windowSize}
	if *withBTB {
		opts.BTB = &btb.Config{Sets: *btbSets, Ways: *btbWays}
	}

	start := time.Now()
	results, err := harness.Compare(ctx, configs, records, opts)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"elapsed": time.Since(start)}).Info("Simulation finished")

	if err := report.WriteTable(os.Stdout, results); err != nil {
		return err
	}

	if err := writeReport(*outputPath, results); err != nil {
		return err
	}

	if *plotPath != "" {
		if err := report.PlotAccuracy(results, *plotPath); err != nil {
			return err
		}
		log.WithFields(log.Fields{"path": *plotPath}).Info("Accuracy chart written")
	}

	return nil
}

func loadConfigs(list string) ([]*config.Config, error) {
	if list == "" {
		return []*config.Config{config.DefaultConfig()}, nil
	}

	var configs []*config.Config
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		var (
			c   *config.Config
			err error
		)
		if strings.HasSuffix(entry, ".json") {
			c, err = config.LoadConfig(entry)
		} else {
			c, err = config.Preset(entry)
		}
		if err != nil {
			return nil, err
		}

		log.WithFields(log.Fields{"predictor": c.Label(), "kind": c.Kind}).
			Debug("Loaded predictor config")
		configs = append(configs, c)
	}

	return configs, nil
}

func loadRecords() ([]trace.Record, error) {
	if *workload != "" {
		w, ok := trace.GetWorkload(*workload)
		if !ok {
			return nil, fmt.Errorf("unknown workload %q", *workload)
		}
		return w.Generate(), nil
	}

	f, err := os.Open(*tracePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open trace %q", *tracePath)
	}
	defer f.Close()

	records, err := trace.ReadAll(trace.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read trace %q", *tracePath)
	}
	return records, nil
}

func writeReport(path string, results []*harness.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create report %q", path)
	}
	defer f.Close()

	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(f)
		}
		if err := report.WriteText(f, res); err != nil {
			return errors.Wrapf(err, "failed to write report %q", path)
		}
	}

	log.WithFields(log.Fields{"path": path}).Info("Report written")
	return nil
}
