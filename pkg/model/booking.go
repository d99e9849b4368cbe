package model

import "time"

// BookingRecord is created once per load and never modified afterwards.
type BookingRecord struct {
	ID         string    `json:"booking_id" bson:"_id"`
	LoadID     string    `json:"load_id" bson:"load_id"`
	MCNumber   string    `json:"mc_number" bson:"mc_number"`
	AgreedRate int       `json:"agreed_rate" bson:"agreed_rate"`
	BookedAt   time.Time `json:"booked_at" bson:"booked_at"`
}
