// Package main provides tracegen, which writes synthetic branch traces in
// the text format bpsim reads.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/bpsim/trace"
)

var (
	workload   = flag.String("workload", "", "Workload to generate")
	outputPath = flag.String("o", "", "Output file (default stdout)")
	pattern    = flag.String("pattern", "", "Outcome pattern such as TTNTN; overrides -workload")
	pc         = flag.Uint64("pc", 0x400000, "Branch address for -pattern")
	repeats    = flag.Int("repeats", 1000, "Repetitions of -pattern")
)

func main() {
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	records, err := generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "Usage: tracegen (-workload <name> | -pattern <TN...>) [-o file]\n")
		fmt.Fprintf(os.Stderr, "\nWorkloads:\n")
		for _, w := range trace.GetWorkloads() {
			fmt.Fprintf(os.Stderr, "  %-8s %s\n", w.Name, w.Description)
		}
		os.Exit(1)
	}

	out := os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			log.Fatalf("Failed creating %q: %v", *outputPath, err)
		}
		defer f.Close()
		out = f
	}

	if err := trace.NewWriter(out).WriteAll(records); err != nil {
		log.Fatalf("Failed writing trace: %v", err)
	}

	log.WithFields(log.Fields{"records": len(records)}).Info("Trace written")
}

func generate() ([]trace.Record, error) {
	if *pattern != "" {
		outcomes := make([]bool, 0, len(*pattern))
		for _, c := range strings.ToUpper(*pattern) {
			switch c {
			case 'T', '1':
				outcomes = append(outcomes, true)
			case 'N', '0':
				outcomes = append(outcomes, false)
			default:
				return nil, fmt.Errorf("bad outcome %q in pattern", c)
			}
		}
		return trace.Pattern(*pc, *pc+0x40, outcomes, *repeats), nil
	}

	if *workload == "" {
		return nil, fmt.Errorf("no workload given")
	}
	w, ok := trace.GetWorkload(*workload)
	if !ok {
		return nil, fmt.Errorf("unknown workload %q", *workload)
	}
	return w.Generate(), nil
}
