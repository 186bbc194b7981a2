package harness

import (
	"github.com/montanaflynn/stats"
)

// Stats holds outcome counters. Records are classified by the predicted
// direction: TakenIncorrect counts branches predicted taken that were not
// taken.
type Stats struct {
	TakenCorrect      uint64
	TakenIncorrect    uint64
	NotTakenCorrect   uint64
	NotTakenIncorrect uint64

	// BTB statistics, zero unless the runner has a BTB.
	BTBLookups uint64
	BTBHits    uint64
	// TargetMispredictions counts taken branches whose target the BTB
	// did not supply correctly.
	TargetMispredictions uint64
}

// Total returns the number of classified records.
func (s Stats) Total() uint64 {
	return s.TakenCorrect + s.TakenIncorrect + s.NotTakenCorrect + s.NotTakenIncorrect
}

// Correct returns the number of correctly predicted records.
func (s Stats) Correct() uint64 {
	return s.TakenCorrect + s.NotTakenCorrect
}

// Accuracy returns the percentage of correct predictions, or 0 for an
// empty run.
func (s Stats) Accuracy() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Correct()) / float64(total) * 100
}

// MispredictionRate returns the percentage of wrong predictions.
func (s Stats) MispredictionRate() float64 {
	if s.Total() == 0 {
		return 0
	}
	return 100 - s.Accuracy()
}

// BTBHitRate returns the BTB hit rate as a percentage.
func (s Stats) BTBHitRate() float64 {
	if s.BTBLookups == 0 {
		return 0
	}
	return float64(s.BTBHits) / float64(s.BTBLookups) * 100
}

func (s *Stats) record(predicted, taken bool) {
	correct := predicted == taken
	switch {
	case predicted && correct:
		s.TakenCorrect++
	case predicted:
		s.TakenIncorrect++
	case correct:
		s.NotTakenCorrect++
	default:
		s.NotTakenIncorrect++
	}
}

// Summary describes the distribution of per-window accuracies.
type Summary struct {
	Windows int
	Mean    float64
	Min     float64
	Max     float64
	StdDev  float64
	// P10 is the 10th percentile, the accuracy of a bad phase.
	P10 float64
}

// Summarize computes a Summary. An empty input yields a zero Summary.
func Summarize(windows []float64) (Summary, error) {
	if len(windows) == 0 {
		return Summary{}, nil
	}

	data := stats.LoadRawData(windows)
	s := Summary{Windows: len(windows)}

	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return Summary{}, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return Summary{}, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return Summary{}, err
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return Summary{}, err
	}

	// Percentile is undefined for fewer than ten samples.
	if s.P10, err = stats.Percentile(data, 10); err != nil {
		s.P10 = s.Min
	}

	return s, nil
}
