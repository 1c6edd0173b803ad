// Package menu holds the static meal catalog. It is read-only reference
// data: the service and the simulation both look meals up by id, nothing
// ever mutates it.
package menu

import "wheres-my-table/internal/models"

// Catalog is a fixed list of meals with their cooking times.
type Catalog struct {
	meals []models.Meal
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{meals: []models.Meal{
		{ID: 1, Name: "Green Tea", CookingTimeSec: 60},
		{ID: 2, Name: "Americano Coffee", CookingTimeSec: 120},
		{ID: 3, Name: "Omellete", CookingTimeSec: 300},
		{ID: 4, Name: "Fried Egg", CookingTimeSec: 180},
		{ID: 5, Name: "Club Sandwich", CookingTimeSec: 360},
		{ID: 6, Name: "Fried Rice", CookingTimeSec: 240},
	}}
}

// All returns every meal in catalog order.
func (c *Catalog) All() []models.Meal {
	out := make([]models.Meal, len(c.meals))
	copy(out, c.meals)
	return out
}

// Get looks a meal up by id.
func (c *Catalog) Get(id models.MealID) (models.Meal, bool) {
	for _, m := range c.meals {
		if m.ID == id {
			return m, true
		}
	}
	return models.Meal{}, false
}
