package entities

type HoldRequest struct {
	LotID  string `json:"lot_id"`
	SlotID string `json:"slot_id"`
}

// HoldResponse mirrors the server-held lease for the client countdown.
// ExpiresAt is epoch milliseconds.
type HoldResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Row       string `json:"row"`
	Position  int    `json:"position"`
	ExpiresAt int64  `json:"expiresAt"`
}
