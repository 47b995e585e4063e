// Package catalog holds the static parking-lot and slot-grid reference
// data used in local mode. Remote mode reads the same shapes from the
// lots and slots tables instead.
package catalog

import "parkease/internal/state"

var lots = []state.ParkingLot{
	{
		ID:             "LOT1",
		Name:           "City Center Parking",
		Address:        "123 MG Road, Central Business District",
		Distance:       "300m",
		PricePerHour:   40,
		Availability:   true,
		TotalSlots:     100,
		AvailableSlots: 23,
		VehicleTypes:   []state.VehicleType{state.VehicleTypeCar, state.VehicleTypeBike},
		Amenities:      []string{"CCTV", "Covered", "24/7 Security", "EV Charging"},
		Rating:         4.5,
		Reviews:        234,
		OpenTime:       "06:00",
		CloseTime:      "23:00",
	},
	{
		ID:             "LOT2",
		Name:           "Mall Parking Complex",
		Address:        "456 Brigade Road, Shopping District",
		Distance:       "600m",
		PricePerHour:   50,
		Availability:   true,
		TotalSlots:     200,
		AvailableSlots: 87,
		VehicleTypes:   []state.VehicleType{state.VehicleTypeCar, state.VehicleTypeBike},
		Amenities:      []string{"CCTV", "Covered", "Valet", "EV Charging", "Car Wash"},
		Rating:         4.8,
		Reviews:        567,
		OpenTime:       "08:00",
		CloseTime:      "22:00",
	},
	{
		ID:             "LOT3",
		Name:           "Metro Station Parking",
		Address:        "789 Station Road, Near Metro Exit 2",
		Distance:       "150m",
		PricePerHour:   25,
		Availability:   true,
		TotalSlots:     50,
		AvailableSlots: 12,
		VehicleTypes:   []state.VehicleType{state.VehicleTypeBike},
		Amenities:      []string{"CCTV", "Covered"},
		Rating:         4.2,
		Reviews:        189,
		OpenTime:       "05:00",
		CloseTime:      "00:00",
	},
	{
		ID:             "LOT4",
		Name:           "Tech Park Parking",
		Address:        "321 IT Corridor, Whitefield",
		Distance:       "1.2km",
		PricePerHour:   35,
		Availability:   true,
		TotalSlots:     500,
		AvailableSlots: 156,
		VehicleTypes:   []state.VehicleType{state.VehicleTypeCar, state.VehicleTypeBike},
		Amenities:      []string{"CCTV", "Covered", "24/7 Security", "EV Charging", "Restrooms"},
		Rating:         4.6,
		Reviews:        892,
		OpenTime:       "00:00",
		CloseTime:      "23:59",
	},
	{
		ID:             "LOT5",
		Name:           "Hospital Parking Zone",
		Address:        "555 Health Avenue, Medical District",
		Distance:       "400m",
		PricePerHour:   30,
		Availability:   false,
		TotalSlots:     80,
		AvailableSlots: 0,
		VehicleTypes:   []state.VehicleType{state.VehicleTypeCar, state.VehicleTypeBike},
		Amenities:      []string{"CCTV", "Covered", "Wheelchair Access"},
		Rating:         4.0,
		Reviews:        156,
		OpenTime:       "00:00",
		CloseTime:      "23:59",
	},
}

// Lots returns all reference lots.
func Lots() []state.ParkingLot {
	out := make([]state.ParkingLot, len(lots))
	copy(out, lots)
	return out
}

// LotByID returns the lot with the given id, or false.
func LotByID(id string) (state.ParkingLot, bool) {
	for _, l := range lots {
		if l.ID == id {
			return l, true
		}
	}
	return state.ParkingLot{}, false
}
