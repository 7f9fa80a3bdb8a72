package model

// PrayerTimes holds HH:MM times for one date and location.
type PrayerTimes struct {
	Date    string `json:"date"`
	Fajr    string `json:"fajr"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
}
