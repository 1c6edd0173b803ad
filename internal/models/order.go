package models

import "time"

// OrderID is a store-generated identifier, unique for the process lifetime.
type OrderID = string

// MealID references an entry in the static meal catalog.
type MealID = int

// Order represents one meal requested for a table.
type Order struct {
	ID        OrderID   `json:"id"`
	TableID   TableID   `json:"table_id"`
	MealID    MealID    `json:"meal_id"`
	CreatedAt time.Time `json:"created_at"`
	ReadyAt   time.Time `json:"ready_at"`
}

// Meal is a catalog entry. The catalog is read-only reference data; orders
// keep only the meal id.
type Meal struct {
	ID             MealID `json:"id"`
	Name           string `json:"name"`
	CookingTimeSec int    `json:"cooking_time_sec"`
}

// CookingTime returns the cooking time as a duration.
func (m Meal) CookingTime() time.Duration {
	return time.Duration(m.CookingTimeSec) * time.Second
}

// Response envelopes for the HTTP API.

type OrderResponse struct {
	Order Order `json:"order"`
}

type OrdersResponse struct {
	Orders []Order `json:"orders"`
}

type MealsResponse struct {
	Meals []Meal `json:"meals"`
}
