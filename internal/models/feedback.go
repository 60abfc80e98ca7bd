package models

import "time"

type FeedbackEntry struct {
	Name            string    `json:"name"`
	CoffeePurchased string    `json:"coffee_purchased"`
	CoffeeRating    int       `json:"coffee_rating"`
	ServiceRating   int       `json:"service_rating"`
	Comment         string    `json:"comment"`
	Timestamp       time.Time `json:"timestamp"`
}
