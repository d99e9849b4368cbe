// Package policy holds the rate-negotiation business rules as a pure,
// configured function of (listed rate, carrier offer, round). Tolerance and
// concession come from configuration, never from hidden constants.
package policy

import "math"

type Action string

const (
	Accept  Action = "accept"
	Counter Action = "counter"
	Reject  Action = "reject"
)

type Decision struct {
	Action       Action
	CounterOffer int
}

// RatePolicy accepts any offer within Tolerance of the listed rate. Outside
// the band it concedes toward the carrier by Concession of the listed rate
// per round, clamped at the carrier's own offer, and gives up after MaxRounds.
type RatePolicy struct {
	Tolerance  float64
	Concession float64
	MaxRounds  int
}

func New(tolerance, concession float64, maxRounds int) RatePolicy {
	return RatePolicy{Tolerance: tolerance, Concession: concession, MaxRounds: maxRounds}
}

// Evaluate decides the engine's move for a carrier offer in the given round.
// Rates are integer currency units; computed counters round half-up.
func (p RatePolicy) Evaluate(listedRate, carrierOffer, round int) Decision {
	band := float64(listedRate) * p.Tolerance
	diff := float64(carrierOffer - listedRate)

	if math.Abs(diff) <= band {
		return Decision{Action: Accept}
	}

	if round >= p.MaxRounds {
		return Decision{Action: Reject}
	}

	concession := p.Concession * float64(round)
	var counter int
	if diff > 0 {
		counter = roundHalfUp(float64(listedRate) * (1 + concession))
		if counter > carrierOffer {
			counter = carrierOffer
		}
	} else {
		counter = roundHalfUp(float64(listedRate) * (1 - concession))
		if counter < carrierOffer {
			counter = carrierOffer
		}
	}

	return Decision{Action: Counter, CounterOffer: counter}
}

func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}
