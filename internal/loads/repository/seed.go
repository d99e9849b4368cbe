package repository

import (
	"time"

	"freightline/pkg/model"
)

// SeedLoads is the demo load board used by the in-memory store and to
// bootstrap an empty database.
func SeedLoads() []model.Load {
	pickup := func(day, hour int) time.Time {
		return time.Date(2025, time.September, day, hour, 0, 0, 0, time.UTC)
	}

	return []model.Load{
		{
			ID: "L001", Origin: "Dallas, TX", Destination: "Houston, TX",
			PickupAt: pickup(10, 8), DeliveryAt: pickup(11, 18),
			EquipmentType: "Flatbed", ListedRate: 1500, Weight: 10000,
			Commodity: "Machinery", Miles: 240, Notes: "Fragile equipment",
			Status: model.LoadAvailable,
		},
		{
			ID: "L002", Origin: "Chicago, IL", Destination: "Detroit, MI",
			PickupAt: pickup(12, 7), DeliveryAt: pickup(13, 20),
			EquipmentType: "Reefer", ListedRate: 1200, Weight: 8000,
			Commodity: "Food", Miles: 280, Notes: "Perishable goods",
			Status: model.LoadAvailable,
		},
		{
			ID: "L003", Origin: "Los Angeles, CA", Destination: "Phoenix, AZ",
			PickupAt: pickup(14, 9), DeliveryAt: pickup(15, 16),
			EquipmentType: "Dry Van", ListedRate: 800, Weight: 15000,
			Commodity: "Electronics", Miles: 370, Notes: "General freight",
			Status: model.LoadAvailable,
		},
		{
			ID: "L004", Origin: "Miami, FL", Destination: "Atlanta, GA",
			PickupAt: pickup(16, 6), DeliveryAt: pickup(17, 14),
			EquipmentType: "Flatbed", ListedRate: 1100, Weight: 12000,
			Commodity: "Building Materials", Miles: 660, Notes: "Construction materials",
			Status: model.LoadAvailable,
		},
		{
			ID: "L005", Origin: "Seattle, WA", Destination: "Portland, OR",
			PickupAt: pickup(18, 10), DeliveryAt: pickup(19, 15),
			EquipmentType: "Reefer", ListedRate: 600, Weight: 5000,
			Commodity: "Pharmaceuticals", Miles: 175, Notes: "Temperature controlled",
			Status: model.LoadAvailable,
		},
	}
}
