package model

import "time"

type Eligibility string

const (
	Eligible     Eligibility = "eligible"
	OutOfService Eligibility = "out_of_service"
	NotFound     Eligibility = "not_found"
)

type VerificationSource string

const (
	SourceExternal VerificationSource = "external"
	SourceFallback VerificationSource = "fallback"
)

// Carrier is the result of a single verification call. It is refreshed on
// every verify and only retained through the verification registry.
type Carrier struct {
	MCNumber       string             `json:"mc_number" bson:"_id"`
	CompanyName    string             `json:"company_name" bson:"company_name"`
	Eligibility    Eligibility        `json:"eligibility" bson:"eligibility"`
	Source         VerificationSource `json:"source" bson:"source"`
	SafetyRating   string             `json:"safety_rating,omitempty" bson:"safety_rating,omitempty"`
	InsuranceValid bool               `json:"insurance_valid" bson:"insurance_valid"`
	VerifiedAt     time.Time          `json:"verified_at" bson:"verified_at"`
}
