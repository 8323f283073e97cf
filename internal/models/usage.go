package models

import "time"

type UsageCounter struct {
	Provider  string    `firestore:"provider" json:"provider"`
	Calls     int64     `firestore:"calls" json:"calls"`
	Cost      float64   `firestore:"cost" json:"cost"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}
