package model

import "time"

type LoadStatus string

const (
	LoadAvailable   LoadStatus = "available"
	LoadNegotiating LoadStatus = "negotiating"
	LoadBooked      LoadStatus = "booked"
)

// Load is owned by the catalog. Status is mutated only through the
// negotiation engine and the booking manager.
type Load struct {
	ID            string     `json:"load_id" bson:"_id" validate:"required"`
	Origin        string     `json:"origin" bson:"origin" validate:"required"`
	Destination   string     `json:"destination" bson:"destination" validate:"required"`
	PickupAt      time.Time  `json:"pickup_datetime" bson:"pickup_datetime" validate:"required"`
	DeliveryAt    time.Time  `json:"delivery_datetime" bson:"delivery_datetime" validate:"required,gtfield=PickupAt"`
	EquipmentType string     `json:"equipment_type" bson:"equipment_type" validate:"required"`
	ListedRate    int        `json:"listed_rate" bson:"listed_rate" validate:"required,min=1"`
	Weight        int        `json:"weight" bson:"weight" validate:"omitempty,min=0"`
	Commodity     string     `json:"commodity_type" bson:"commodity_type"`
	Miles         int        `json:"miles" bson:"miles" validate:"omitempty,min=0"`
	Notes         string     `json:"notes,omitempty" bson:"notes,omitempty"`
	Status        LoadStatus `json:"status" bson:"status"`
}

// AllowedTransition reports whether from -> to is a legal lifecycle move:
// available -> negotiating -> booked, with negotiating -> available as the
// release path for rejected or expired negotiations.
func AllowedTransition(from, to LoadStatus) bool {
	switch from {
	case LoadAvailable:
		return to == LoadNegotiating || to == LoadBooked
	case LoadNegotiating:
		return to == LoadBooked || to == LoadAvailable
	default:
		return false
	}
}
