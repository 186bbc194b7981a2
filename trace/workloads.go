package trace

import "math/rand"

// Workload is a named synthetic trace generator.
type Workload struct {
	Name        string
	Description string
	Generate    func() []Record
}

// GetWorkloads returns the standard set of synthetic workloads. Each one
// stresses a different kind of predictor memory.
func GetWorkloads() []Workload {
	return []Workload{
		{
			Name:        "loop",
			Description: "inner loop of 8 iterations - bimodal mispredicts every exit",
			Generate:    func() []Record { return Loop(0x400a2c, 0x400a00, 8, 2000) },
		},
		{
			Name:        "pattern",
			Description: "period-7 pattern - needs more than 4 bits of history",
			Generate: func() []Record {
				return Pattern(0x401100, 0x401000,
					[]bool{true, true, false, true, false, false, true}, 2000)
			},
		},
		{
			Name:        "nested",
			Description: "two nested loops interleaved with a correlated guard branch",
			Generate:    nested,
		},
		{
			Name:        "random",
			Description: "70% taken coin flips - no predictor should beat the bias",
			Generate:    func() []Record { return Random(0x402000, 0.7, 10000, 1) },
		},
	}
}

// GetWorkload looks up a workload by name.
func GetWorkload(name string) (Workload, bool) {
	for _, w := range GetWorkloads() {
		if w.Name == name {
			return w, true
		}
	}
	return Workload{}, false
}

// Loop emits the back edge of a loop with trip iterations, executed
// iterations times: taken trip-1 times, then not taken once.
func Loop(pc, target uint64, trip, iterations int) []Record {
	records := make([]Record, 0, trip*iterations)
	for i := 0; i < iterations; i++ {
		for j := 0; j < trip; j++ {
			records = append(records, Record{
				PC:     pc,
				Taken:  j < trip-1,
				Target: target,
			})
		}
	}
	return records
}

// Pattern repeats a fixed outcome pattern for a single branch.
func Pattern(pc, target uint64, pattern []bool, repeats int) []Record {
	records := make([]Record, 0, len(pattern)*repeats)
	for i := 0; i < repeats; i++ {
		for _, taken := range pattern {
			records = append(records, Record{PC: pc, Taken: taken, Target: target})
		}
	}
	return records
}

// Random emits n outcomes of a branch taken with probability bias. The
// sequence depends only on seed.
func Random(pc uint64, bias float64, n int, seed int64) []Record {
	rng := rand.New(rand.NewSource(seed))
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{PC: pc, Taken: rng.Float64() < bias, Target: pc + 0x40}
	}
	return records
}

// Interleave merges traces round robin until all are exhausted.
func Interleave(traces ...[]Record) []Record {
	total := 0
	for _, t := range traces {
		total += len(t)
	}

	records := make([]Record, 0, total)
	for i := 0; len(records) < total; i++ {
		for _, t := range traces {
			if i < len(t) {
				records = append(records, t[i])
			}
		}
	}
	return records
}

func nested() []Record {
	const (
		outerPC = 0x403040
		innerPC = 0x403020
		guardPC = 0x403030
	)

	var records []Record
	for i := 0; i < 500; i++ {
		for j := 0; j < 4; j++ {
			records = append(records, Record{PC: innerPC, Taken: j < 3, Target: 0x403000})
		}
		// The guard follows the parity of the outer iteration.
		records = append(records, Record{PC: guardPC, Taken: i%2 == 0, Target: 0x403038})
		records = append(records, Record{PC: outerPC, Taken: i < 499, Target: 0x402ff0})
	}
	return records
}
