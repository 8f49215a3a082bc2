package generator

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDeliveryInterval  int64   = 15
	DefaultMaxWeight         float64 = 0.5
	DefaultStandardDeviation float64 = 0.5
	DefaultLastTick          int64   = 480
	DefaultOrderCount        int     = 1000
)

// DefaultFridayConfig mirrors the order settings a busy friday evening runs with.
func DefaultFridayConfig() models.OrderGeneratorConfig {
	return models.OrderGeneratorConfig{
		DeliveryInterval:  DefaultDeliveryInterval,
		MaxWeight:         DefaultMaxWeight,
		StandardDeviation: DefaultStandardDeviation,
		LastTick:          DefaultLastTick,
		OrderCount:        DefaultOrderCount,
		Seed:              -1,
	}
}

// FridayOrderGenerator draws the number of orders per tick from a normal
// distribution and picks restaurants, neighborhoods, food and weight at random.
type FridayOrderGenerator struct {
	vm  *routing.VehicleManager
	cfg models.OrderGeneratorConfig

	rng       *rand.Rand
	generated [][]*routing.ConfirmedOrder
	total     int
	log       *logrus.Entry
}

func NewFridayOrderGenerator(vm *routing.VehicleManager, cfg models.OrderGeneratorConfig) (*FridayOrderGenerator, error) {
	if len(vm.OccupiedRestaurants()) == 0 || len(vm.OccupiedNeighborhoods()) == 0 {
		return nil, fmt.Errorf("%w: orders need at least one restaurant and one neighborhood", routing.ErrConfiguration)
	}
	if cfg.DeliveryInterval < 0 || cfg.MaxWeight <= 0 || cfg.StandardDeviation < 0 || cfg.OrderCount < 0 {
		return nil, fmt.Errorf("%w: invalid order generator settings %+v", routing.ErrConfiguration, cfg)
	}
	g := &FridayOrderGenerator{
		vm:  vm,
		cfg: cfg,
		log: logrus.WithField("component", "friday-generator"),
	}
	g.Reset()
	return g, nil
}

func (g *FridayOrderGenerator) GenerateOrders(tick int64) ([]*routing.ConfirmedOrder, error) {
	if tick < 0 {
		return nil, fmt.Errorf("%w: negative tick %d", routing.ErrUsage, tick)
	}
	for int64(len(g.generated)) <= tick && int64(len(g.generated)) < g.cfg.LastTick {
		orders, err := g.generateTick(int64(len(g.generated)))
		if err != nil {
			return nil, err
		}
		g.generated = append(g.generated, orders)
	}
	if tick >= int64(len(g.generated)) {
		return []*routing.ConfirmedOrder{}, nil
	}
	return slices.Clone(g.generated[tick]), nil
}

func (g *FridayOrderGenerator) generateTick(tick int64) ([]*routing.ConfirmedOrder, error) {
	count := max(0, int(g.cfg.StandardDeviation*(0.25+g.rng.NormFloat64())/2))
	count = min(count, g.cfg.OrderCount-g.total)

	orders := make([]*routing.ConfirmedOrder, 0, count)
	for i := 0; i < count; i++ {
		order, err := g.generateOrder(tick)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	g.total += count
	if count > 0 {
		g.log.WithFields(logrus.Fields{"tick": tick, "orders": count, "total": g.total}).Debug("generated orders")
	}
	return orders, nil
}

func (g *FridayOrderGenerator) generateOrder(tick int64) (*routing.ConfirmedOrder, error) {
	neighborhoods := g.vm.OccupiedNeighborhoods()
	restaurants := g.vm.OccupiedRestaurants()
	destination := neighborhoods[g.rng.Intn(len(neighborhoods))].Node().Location()
	restaurant := restaurants[g.rng.Intn(len(restaurants))]

	menu := restaurant.AvailableFood()
	var foods []string
	if len(menu) > 0 {
		for n := 1 + g.rng.Intn(9); n > 0; n-- {
			foods = append(foods, menu[g.rng.Intn(len(menu))])
		}
	}
	window := models.TickInterval{Start: tick, End: tick + g.cfg.DeliveryInterval}
	weight := g.rng.Float64() * g.cfg.MaxWeight
	return routing.NewConfirmedOrder(destination, restaurant, window, foods, weight)
}

// Reset starts over from the configured seed; a negative seed picks a fresh one.
func (g *FridayOrderGenerator) Reset() {
	seed := g.cfg.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	g.rng = rand.New(rand.NewSource(seed))
	g.generated = nil
	g.total = 0
}
