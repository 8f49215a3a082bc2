package routing

import (
	"fmt"
	"slices"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/lucsky/cuid"
)

// ConfirmedOrder is an accepted order waiting to be carried from its
// restaurant to a neighborhood within a delivery window.
type ConfirmedOrder struct {
	id         string
	location   models.Location
	restaurant *OccupiedRestaurant
	interval   models.TickInterval
	foods      []string
	weight     float64
}

func NewConfirmedOrder(location models.Location, restaurant *OccupiedRestaurant, interval models.TickInterval, foods []string, weight float64) (*ConfirmedOrder, error) {
	if restaurant == nil {
		return nil, fmt.Errorf("%w: order to %s has no restaurant", ErrUsage, location)
	}
	if weight < 0 {
		return nil, fmt.Errorf("%w: order to %s has negative weight %f", ErrUsage, location, weight)
	}
	return &ConfirmedOrder{
		id:         cuid.New(),
		location:   location,
		restaurant: restaurant,
		interval:   interval,
		foods:      slices.Clone(foods),
		weight:     weight,
	}, nil
}

func (o *ConfirmedOrder) ID() string                            { return o.id }
func (o *ConfirmedOrder) Location() models.Location             { return o.location }
func (o *ConfirmedOrder) Restaurant() *OccupiedRestaurant       { return o.restaurant }
func (o *ConfirmedOrder) DeliveryInterval() models.TickInterval { return o.interval }
func (o *ConfirmedOrder) Foods() []string                       { return slices.Clone(o.foods) }
func (o *ConfirmedOrder) Weight() float64                       { return o.weight }

func (o *ConfirmedOrder) String() string {
	return fmt.Sprintf("order(id=%s, to=%s, from=%q, window=%s, weight=%.3f)",
		o.id, o.location, o.restaurant.Node().Name(), o.interval, o.weight)
}
