package predictor

import "errors"

// DefaultSelectorWidth is the width of the tournament meta counter.
const DefaultSelectorWidth = 2

// Tournament picks between two sub-predictors with a meta counter that
// tracks which of them has been right more recently. The selector leans
// towards sub-predictor 1 when taken and sub-predictor 0 otherwise.
type Tournament struct {
	sub      [2]Predictor
	selector SaturatingCounter
}

// NewTournament creates a tournament over p0 and p1, which it owns from now
// on. A zero selectorWidth selects DefaultSelectorWidth.
func NewTournament(p0, p1 Predictor, selectorWidth uint) (*Tournament, error) {
	if p0 == nil || p1 == nil {
		return nil, errors.New("tournament requires two sub-predictors")
	}
	if selectorWidth == 0 {
		selectorWidth = DefaultSelectorWidth
	}
	if err := checkCounterWidth("selector_width", selectorWidth); err != nil {
		return nil, err
	}

	return &Tournament{
		sub:      [2]Predictor{p0, p1},
		selector: NewSaturatingCounter(selectorWidth),
	}, nil
}

// Predict returns the prediction of the currently selected sub-predictor.
func (t *Tournament) Predict(addr uint64) bool {
	if t.selector.IsTaken() {
		return t.sub[1].Predict(addr)
	}
	return t.sub[0].Predict(addr)
}

// Update moves the selector towards whichever sub-predictor alone was right,
// then trains both sub-predictors.
func (t *Tournament) Update(taken, predicted bool, addr uint64) {
	p0 := t.sub[0].Predict(addr)
	p1 := t.sub[1].Predict(addr)

	switch {
	case p1 == taken && p0 != taken:
		t.selector.Increase()
	case p1 != taken && p0 == taken:
		t.selector.Decrease()
	}

	t.sub[0].Update(taken, predicted, addr)
	t.sub[1].Update(taken, predicted, addr)
}

// Selector returns a copy of the meta counter.
func (t *Tournament) Selector() SaturatingCounter {
	return t.selector
}

// Sub returns sub-predictor i (0 or 1).
func (t *Tournament) Sub(i int) Predictor {
	return t.sub[i]
}
