package menu

import (
	"testing"
	"time"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := Default()

	meals := catalog.All()
	if len(meals) != 6 {
		t.Fatalf("expected 6 meals, got %d", len(meals))
	}

	meal, ok := catalog.Get(2)
	if !ok {
		t.Fatalf("expected meal 2 to exist")
	}
	if meal.Name != "Americano Coffee" {
		t.Errorf("expected Americano Coffee, got %q", meal.Name)
	}
	if meal.CookingTime() != 2*time.Minute {
		t.Errorf("expected 2m cooking time, got %v", meal.CookingTime())
	}

	if _, ok := catalog.Get(99); ok {
		t.Errorf("expected meal 99 to be absent")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	catalog := Default()

	meals := catalog.All()
	meals[0].Name = "mutated"

	again, _ := catalog.Get(meals[0].ID)
	if again.Name == "mutated" {
		t.Fatalf("All must return a copy of the catalog")
	}
}
