package catalog

type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotOccupied  SlotStatus = "OCCUPIED"
	SlotBlocked   SlotStatus = "BLOCKED"
	SlotHeld      SlotStatus = "HELD"
)

type ParkingSlot struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Status   SlotStatus `json:"status"`
	Row      string     `json:"row"`
	Position int        `json:"position"`
}

var slotGrid = []ParkingSlot{
	{ID: "A1", Label: "A1", Status: SlotAvailable, Row: "A", Position: 1},
	{ID: "A2", Label: "A2", Status: SlotOccupied, Row: "A", Position: 2},
	{ID: "A3", Label: "A3", Status: SlotAvailable, Row: "A", Position: 3},
	{ID: "A4", Label: "A4", Status: SlotAvailable, Row: "A", Position: 4},
	{ID: "A5", Label: "A5", Status: SlotBlocked, Row: "A", Position: 5},
	{ID: "A6", Label: "A6", Status: SlotAvailable, Row: "A", Position: 6},

	{ID: "B1", Label: "B1", Status: SlotAvailable, Row: "B", Position: 1},
	{ID: "B2", Label: "B2", Status: SlotAvailable, Row: "B", Position: 2},
	{ID: "B3", Label: "B3", Status: SlotOccupied, Row: "B", Position: 3},
	{ID: "B4", Label: "B4", Status: SlotAvailable, Row: "B", Position: 4},
	{ID: "B5", Label: "B5", Status: SlotAvailable, Row: "B", Position: 5},
	{ID: "B6", Label: "B6", Status: SlotAvailable, Row: "B", Position: 6},

	{ID: "C1", Label: "C1", Status: SlotAvailable, Row: "C", Position: 1},
	{ID: "C2", Label: "C2", Status: SlotAvailable, Row: "C", Position: 2},
	{ID: "C3", Label: "C3", Status: SlotAvailable, Row: "C", Position: 3},
	{ID: "C4", Label: "C4", Status: SlotBlocked, Row: "C", Position: 4},
	{ID: "C5", Label: "C5", Status: SlotAvailable, Row: "C", Position: 5},
	{ID: "C6", Label: "C6", Status: SlotOccupied, Row: "C", Position: 6},
}

// Slots returns the slot grid for a lot. The reference grid is the same
// for every lot in local mode.
func Slots(lotID string) []ParkingSlot {
	out := make([]ParkingSlot, len(slotGrid))
	copy(out, slotGrid)
	return out
}

// SlotByID returns a slot from the grid, or false.
func SlotByID(lotID, slotID string) (ParkingSlot, bool) {
	for _, s := range slotGrid {
		if s.ID == slotID {
			return s, true
		}
	}
	return ParkingSlot{}, false
}
