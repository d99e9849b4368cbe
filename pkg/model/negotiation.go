package model

import "time"

type SessionStatus string

const (
	SessionOpen     SessionStatus = "open"
	SessionAccepted SessionStatus = "accepted"
	SessionRejected SessionStatus = "rejected"
	SessionExpired  SessionStatus = "expired"
)

// MaxRounds caps the number of offer exchanges per load-carrier pair.
const MaxRounds = 3

// Offer is one exchange in a negotiation: what the carrier asked for in a
// given round and, when the engine did not accept, what it countered with.
type Offer struct {
	Round        int       `json:"round" bson:"round"`
	CarrierOffer int       `json:"carrier_offer" bson:"carrier_offer"`
	CounterOffer int       `json:"counter_offer,omitempty" bson:"counter_offer,omitempty"`
	At           time.Time `json:"at" bson:"at"`
}

// NegotiationSession tracks one bounded negotiation per (load, carrier) pair.
// A load has at most one non-terminal session at any time; terminal sessions
// are archived in place.
type NegotiationSession struct {
	ID         string        `json:"session_id" bson:"_id"`
	LoadID     string        `json:"load_id" bson:"load_id"`
	MCNumber   string        `json:"mc_number" bson:"mc_number"`
	Round      int           `json:"round" bson:"round"`
	Offers     []Offer       `json:"offers" bson:"offers"`
	Status     SessionStatus `json:"status" bson:"status"`
	AgreedRate int           `json:"agreed_rate,omitempty" bson:"agreed_rate,omitempty"`
	CreatedAt  time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" bson:"updated_at"`
}

func (s *NegotiationSession) Terminal() bool {
	return s.Status != SessionOpen
}
