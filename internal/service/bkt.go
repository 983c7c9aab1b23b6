package service

// BKT holds the parameters of a Bayesian Knowledge Tracing model.
type BKT struct {
	// Init is the prior probability that a skill is known before any exposure.
	Init float64
	// Transit is the probability of learning the skill at each opportunity.
	Transit float64
	// Slip is the probability of a wrong answer when the skill is known.
	Slip float64
	// Guess is the probability of a right answer when it is not.
	Guess float64
}

// DefaultBKT are the parameters used by the development API.
var DefaultBKT = BKT{Init: 0.2, Transit: 0.15, Slip: 0.1, Guess: 0.2}

// Update returns the probability that the skill is known after observing one
// answer, given the probability pKnow before it.
func (b BKT) Update(pKnow float64, correct bool) float64 {
	var posterior float64
	if correct {
		known := pKnow * (1 - b.Slip)
		posterior = known / (known + (1-pKnow)*b.Guess)
	} else {
		known := pKnow * b.Slip
		posterior = known / (known + (1-pKnow)*(1-b.Guess))
	}
	return posterior + (1-posterior)*b.Transit
}
