package factories

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
	"github.com/jaswdr/faker"
)

// GridFactory generates a rectangular street grid with randomly placed
// restaurants and neighborhoods. The same seed always yields the same region.
type GridFactory struct {
	fake      faker.Faker
	usedNames map[string]bool
	dishes    []string
}

func NewGridFactory(seed int64, dishes []models.MenuDish) *GridFactory {
	names := make([]string, 0, len(dishes))
	for _, d := range dishes {
		names = append(names, d.Name)
	}
	return &GridFactory{
		fake:      faker.NewWithSeed(rand.NewSource(seed)),
		usedNames: make(map[string]bool),
		dishes:    names,
	}
}

func (gf *GridFactory) CreateRegion(cfg models.GridConfig) (*routing.Region, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", routing.ErrConfiguration, cfg.Width, cfg.Height)
	}
	cells := cfg.Width * cfg.Height
	if cfg.Restaurants < 1 || cfg.Neighborhoods < 1 || cfg.Restaurants+cfg.Neighborhoods > cells {
		return nil, fmt.Errorf("%w: %d restaurants and %d neighborhoods do not fit a %dx%d grid",
			routing.ErrConfiguration, cfg.Restaurants, cfg.Neighborhoods, cfg.Width, cfg.Height)
	}
	if cfg.MinDuration < 0 || cfg.MaxDuration < cfg.MinDuration {
		return nil, fmt.Errorf("%w: invalid duration range [%d,%d]", routing.ErrConfiguration, cfg.MinDuration, cfg.MaxDuration)
	}

	b := routing.NewRegionBuilder(routing.WithDistanceCalculator(routing.ManhattanDistanceCalculator{}))
	for i, cell := range gf.shuffledCells(cfg) {
		switch {
		case i < cfg.Restaurants:
			b.AddRestaurant(gf.uniqueName(gf.fake.Company().Name()), cell, gf.createMenu())
		case i < cfg.Restaurants+cfg.Neighborhoods:
			b.AddNeighborhood(gf.uniqueName(gf.fake.Address().City()), cell)
		default:
			b.AddNode(gf.uniqueName(gf.fake.Lorem().Word()), cell)
		}
	}

	for x := 0; x < cfg.Width; x++ {
		for y := 0; y < cfg.Height; y++ {
			here := models.NewLocation(int64(x), int64(y))
			if x+1 < cfg.Width {
				gf.addStreet(b, here, models.NewLocation(int64(x+1), int64(y)), cfg)
			}
			if y+1 < cfg.Height {
				gf.addStreet(b, here, models.NewLocation(int64(x), int64(y+1)), cfg)
			}
		}
	}
	return b.Build()
}

func (gf *GridFactory) addStreet(b *routing.RegionBuilder, a, c models.Location, cfg models.GridConfig) {
	duration := int64(gf.fake.IntBetween(int(cfg.MinDuration), int(cfg.MaxDuration)))
	b.AddEdge(fmt.Sprintf("%s %s-%s", gf.fake.Address().StreetSuffix(), a, c), a, c, duration)
}

// shuffledCells returns every grid location in a seeded random order.
func (gf *GridFactory) shuffledCells(cfg models.GridConfig) []models.Location {
	cells := make([]models.Location, 0, cfg.Width*cfg.Height)
	for x := 0; x < cfg.Width; x++ {
		for y := 0; y < cfg.Height; y++ {
			cells = append(cells, models.NewLocation(int64(x), int64(y)))
		}
	}
	for i := len(cells) - 1; i > 0; i-- {
		j := gf.fake.IntBetween(0, i)
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells
}

func (gf *GridFactory) uniqueName(base string) string {
	name := base
	for counter := 1; gf.usedNames[name]; counter++ {
		name = fmt.Sprintf("%s %d", base, counter)
	}
	gf.usedNames[name] = true
	return name
}

// createMenu picks dishes from the configured list, or from the cuisines
// table when no dishes are configured.
func (gf *GridFactory) createMenu() []string {
	pool := gf.dishes
	if len(pool) == 0 {
		pool = dishesFor(gf.randomCuisines())
	}
	count := gf.fake.IntBetween(2, 6)
	menu := make([]string, 0, count)
	for i := 0; i < count; i++ {
		dish := pool[gf.fake.IntBetween(0, len(pool)-1)]
		if !slices.Contains(menu, dish) {
			menu = append(menu, dish)
		}
	}
	return menu
}

func (gf *GridFactory) randomCuisines() []string {
	cuisineCount := gf.fake.IntBetween(1, 3)
	cuisines := make([]string, cuisineCount)
	for i := range cuisines {
		cuisines[i] = allCuisines[gf.fake.IntBetween(0, len(allCuisines)-1)]
	}
	return cuisines
}

var allCuisines = []string{"Italian", "Indian", "American", "Japanese", "Mexican", "Chinese", "Thai", "Greek", "French", "Mediterranean"}

var cuisineDishes = map[string][]string{
	"Italian":       {"Margherita Pizza", "Spaghetti Carbonara", "Lasagna", "Tiramisu"},
	"Indian":        {"Chicken Tikka Masala", "Vegetable Curry", "Naan Bread", "Biryani"},
	"American":      {"Cheeseburger", "Hot Dog", "BBQ Ribs", "Apple Pie"},
	"Japanese":      {"Sushi Roll", "Ramen", "Tempura", "Miso Soup"},
	"Mexican":       {"Tacos", "Burrito", "Guacamole", "Quesadilla"},
	"Chinese":       {"Kung Pao Chicken", "Fried Rice", "Dumplings", "Mapo Tofu"},
	"Thai":          {"Pad Thai", "Green Curry", "Tom Yum Soup", "Mango Sticky Rice"},
	"Greek":         {"Gyros", "Greek Salad", "Moussaka", "Baklava"},
	"French":        {"Coq au Vin", "Beef Bourguignon", "Ratatouille", "Crème Brûlée"},
	"Mediterranean": {"Falafel", "Hummus", "Tabbouleh", "Grilled Halloumi"},
}

func dishesFor(cuisines []string) []string {
	var dishes []string
	for _, c := range cuisines {
		dishes = append(dishes, cuisineDishes[c]...)
	}
	if len(dishes) == 0 {
		return []string{"Special of the Day"}
	}
	return dishes
}
