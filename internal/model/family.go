package model

import "time"

type Family struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	LocationCity    string    `json:"location_city"`
	LocationCountry string    `json:"location_country"`
	Latitude        string    `json:"latitude"`
	Longitude       string    `json:"longitude"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasLocation reports whether enough location data is set for a prayer-time lookup.
func (f Family) HasLocation() bool {
	return (f.LocationCity != "" && f.LocationCountry != "") || (f.Latitude != "" && f.Longitude != "")
}
