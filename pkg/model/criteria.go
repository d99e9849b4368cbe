package model

// SearchCriteria filters the load board. All supplied predicates are ANDed;
// zero values mean "no constraint". Rates are integer currency units and the
// range is inclusive on both ends.
type SearchCriteria struct {
	EquipmentType string `json:"equipment_type,omitempty"`
	Origin        string `json:"origin,omitempty"`
	Destination   string `json:"destination,omitempty"`
	MinRate       int    `json:"min_rate,omitempty" validate:"omitempty,min=0"`
	MaxRate       int    `json:"max_rate,omitempty" validate:"omitempty,min=0"`
	MaxMiles      int    `json:"max_miles,omitempty" validate:"omitempty,min=0"`
	Commodity     string `json:"commodity_type,omitempty"`
}
