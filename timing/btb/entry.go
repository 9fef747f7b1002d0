package btb

// Entry is one slot of a bank.
//
// When valid is false, tag and target may hold stale values and are never
// used for a lookup.
type Entry struct {
	valid     bool
	tag       uint32
	target    uint32
	predictor TwoBitPredictor
}

// Allocate puts the entry in the invalid state with a fresh predictor.
func (e *Entry) Allocate() {
	e.valid = false
	e.target = 0
	e.predictor = NewTwoBitPredictor()
}

// SetEntry makes the entry valid for tag with the given target. The
// predictor keeps its state.
func (e *Entry) SetEntry(tag, target uint32) {
	e.valid = true
	e.tag = tag
	e.target = target
}

// Invalidate drops the entry without touching the predictor.
func (e *Entry) Invalidate() {
	e.valid = false
}

// IsValid returns true if the entry holds a registered block.
func (e Entry) IsValid() bool {
	return e.valid
}

// Matches returns true if the entry is valid and belongs to tag.
func (e Entry) Matches(tag uint32) bool {
	return e.valid && e.tag == tag
}

// Tag returns the stored tag.
func (e Entry) Tag() uint32 {
	return e.tag
}

// Target returns the stored target address.
func (e Entry) Target() uint32 {
	return e.target
}

// Prediction returns the predictor's current taken/not-taken guess.
func (e Entry) Prediction() bool {
	return e.predictor.Predict()
}

// Counter returns the predictor's counter state.
func (e Entry) Counter() uint8 {
	return e.predictor.Counter()
}

// UpdatePrediction trains the predictor with the actual outcome.
func (e *Entry) UpdatePrediction(taken bool) {
	e.predictor.Update(taken)
}
