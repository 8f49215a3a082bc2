package generator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
)

// ScriptedOrder is an order declared ahead of time, typically in a region file.
type ScriptedOrder struct {
	Tick        int64               `yaml:"tick" mapstructure:"tick"`
	Restaurant  models.Location     `yaml:"restaurant" mapstructure:"restaurant"`
	Destination models.Location     `yaml:"destination" mapstructure:"destination"`
	Window      models.TickInterval `yaml:"window" mapstructure:"window"`
	Foods       []string            `yaml:"foods" mapstructure:"foods"`
	Weight      float64             `yaml:"weight" mapstructure:"weight"`
}

// ScriptedOrderGenerator replays a fixed list of orders. Each run gets fresh
// order ids.
type ScriptedOrderGenerator struct {
	vm       *routing.VehicleManager
	byTick   map[int64][]ScriptedOrder
	replayed map[int64][]*routing.ConfirmedOrder
}

func NewScriptedOrderGenerator(vm *routing.VehicleManager, orders []ScriptedOrder) (*ScriptedOrderGenerator, error) {
	g := &ScriptedOrderGenerator{
		vm:     vm,
		byTick: make(map[int64][]ScriptedOrder),
	}
	var errs []error
	for i, o := range orders {
		if err := g.validate(o); err != nil {
			errs = append(errs, fmt.Errorf("order %d: %w", i, err))
			continue
		}
		g.byTick[o.Tick] = append(g.byTick[o.Tick], o)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	g.Reset()
	return g, nil
}

func (g *ScriptedOrderGenerator) validate(o ScriptedOrder) error {
	region := g.vm.Region()
	if o.Tick < 0 {
		return fmt.Errorf("%w: negative tick %d", routing.ErrConfiguration, o.Tick)
	}
	if o.Weight < 0 {
		return fmt.Errorf("%w: negative weight %v", routing.ErrConfiguration, o.Weight)
	}
	if o.Window.Start > o.Window.End {
		return fmt.Errorf("%w: window %s ends before it starts", routing.ErrConfiguration, o.Window)
	}
	if n := region.Node(o.Restaurant); n == nil || !n.IsRestaurant() {
		return fmt.Errorf("%w: %s is not a restaurant", routing.ErrConfiguration, o.Restaurant)
	}
	if n := region.Node(o.Destination); n == nil || !n.IsNeighborhood() {
		return fmt.Errorf("%w: %s is not a neighborhood", routing.ErrConfiguration, o.Destination)
	}
	return nil
}

func (g *ScriptedOrderGenerator) GenerateOrders(tick int64) ([]*routing.ConfirmedOrder, error) {
	if tick < 0 {
		return nil, fmt.Errorf("%w: negative tick %d", routing.ErrUsage, tick)
	}
	if orders, ok := g.replayed[tick]; ok {
		return slices.Clone(orders), nil
	}
	orders := make([]*routing.ConfirmedOrder, 0, len(g.byTick[tick]))
	for _, o := range g.byTick[tick] {
		restaurant, err := g.vm.OccupiedRestaurant(g.vm.Region().Node(o.Restaurant))
		if err != nil {
			return nil, err
		}
		order, err := routing.NewConfirmedOrder(o.Destination, restaurant, o.Window, o.Foods, o.Weight)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	g.replayed[tick] = orders
	return slices.Clone(orders), nil
}

func (g *ScriptedOrderGenerator) Reset() {
	g.replayed = make(map[int64][]*routing.ConfirmedOrder)
}
