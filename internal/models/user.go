package models

import "time"

type Role string

type Account struct {
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Role          Role      `json:"role"`
	LoyaltyPoints int       `json:"loyalty_points"`
	CreatedAt     time.Time `json:"created_at"`
}
