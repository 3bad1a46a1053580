package models

// Location is a blood bank facility participating in redistribution.
type Location struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	City     string  `json:"city"`
	Region   string  `json:"region"`
	Capacity int     `json:"capacity"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// StockLevel is the persisted stock record for one blood type at one
// location. Redis holds the live counter; this row is the durable copy.
type StockLevel struct {
	LocationID int       `json:"location_id"`
	Location   string    `json:"location"`
	BloodType  BloodType `json:"blood_type"`
	Units      int       `json:"units"`
}
