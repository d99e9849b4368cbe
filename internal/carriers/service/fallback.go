package service

import "freightline/internal/carriers/registry"

// fallbackDataset is the local seed used when the external registry is
// unreachable or external lookup is disabled. Keyed by canonical MC number.
var fallbackDataset = map[string]registry.Result{
	"MC123456": {
		MCNumber:       "MC123456",
		CompanyName:    "Swift Transportation",
		Status:         registry.StatusActive,
		SafetyRating:   "A",
		InsuranceValid: true,
	},
	"MC789012": {
		MCNumber:       "MC789012",
		CompanyName:    "Schneider National",
		Status:         registry.StatusActive,
		SafetyRating:   "A+",
		InsuranceValid: true,
	},
	"MC345678": {
		MCNumber:       "MC345678",
		CompanyName:    "J.B. Hunt Transport",
		Status:         registry.StatusOutOfService,
		SafetyRating:   "C",
		InsuranceValid: false,
	},
	"MC441100": {
		MCNumber:       "MC441100",
		CompanyName:    "Knight Logistics",
		Status:         registry.StatusActive,
		SafetyRating:   "B+",
		InsuranceValid: true,
	},
}
