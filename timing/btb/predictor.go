package btb

// Two-bit counter states.
const (
	StronglyNotTaken uint8 = iota
	WeaklyNotTaken
	WeaklyTaken
	StronglyTaken
)

// TwoBitPredictor is a 2-bit saturating counter. It starts weakly taken, so
// a fresh entry predicts taken.
type TwoBitPredictor struct {
	counter uint8
}

// NewTwoBitPredictor returns a predictor in the weakly taken state.
func NewTwoBitPredictor() TwoBitPredictor {
	return TwoBitPredictor{counter: WeaklyTaken}
}

// Predict returns true if the branch is predicted taken.
func (p TwoBitPredictor) Predict() bool {
	return p.counter >= WeaklyTaken
}

// Update moves the counter toward the actual outcome.
func (p *TwoBitPredictor) Update(taken bool) {
	if taken {
		if p.counter < StronglyTaken {
			p.counter++
		}
	} else {
		if p.counter > StronglyNotTaken {
			p.counter--
		}
	}
}

// Counter returns the raw counter state.
func (p TwoBitPredictor) Counter() uint8 {
	return p.counter
}

// Reset puts the predictor back to weakly taken.
func (p *TwoBitPredictor) Reset() {
	p.counter = WeaklyTaken
}
