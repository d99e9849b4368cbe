package model

import "time"

type OutcomeClass string

const (
	OutcomeBooked             OutcomeClass = "successful_booking"
	OutcomeNegotiationFailed  OutcomeClass = "negotiation_failed"
	OutcomeVerificationFailed OutcomeClass = "verification_failed"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// CallOutcome is the terminal-outcome record handed to the analytics
// collaborator. Delivery is best-effort; the core never fails on it.
type CallOutcome struct {
	CallID         string            `json:"call_id"`
	Transcript     string            `json:"transcript" validate:"required"`
	Classification OutcomeClass      `json:"classification" validate:"required,oneof=successful_booking negotiation_failed verification_failed"`
	Sentiment      Sentiment         `json:"sentiment" validate:"required,oneof=positive neutral negative"`
	ExtractedData  map[string]string `json:"extracted_data,omitempty"`
	CallerNumber   string            `json:"caller_number,omitempty"`
	DurationSec    int               `json:"call_duration,omitempty" validate:"omitempty,min=0"`
	Timestamp      time.Time         `json:"call_timestamp"`
}
