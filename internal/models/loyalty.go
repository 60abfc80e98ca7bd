package models

import "time"

type LoyaltyEntry struct {
	Username    string    `json:"username"`
	Delta       int       `json:"points"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}
