package routing

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoNodeRegion is a restaurant at (0,0) and a neighborhood at (1,1) joined by an edge of duration 5.
func twoNodeRegion(t *testing.T) *Region {
	t.Helper()
	region, err := NewRegionBuilder().
		AddRestaurant("R", loc(0, 0), []string{"burger", "fries"}).
		AddNeighborhood("N", loc(1, 1)).
		AddEdge("R-N", loc(0, 0), loc(1, 1), 5).
		Build()
	require.NoError(t, err)
	return region
}

func newOrder(t *testing.T, restaurant *OccupiedRestaurant, to models.Location, weight float64) *ConfirmedOrder {
	t.Helper()
	order, err := NewConfirmedOrder(to, restaurant, models.TickInterval{Start: 0, End: 20}, []string{"burger"}, weight)
	require.NoError(t, err)
	return order
}

func eventTypes(events []models.Event) []string {
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type())
	}
	return types
}

func TestAddVehicleRequiresRestaurant(t *testing.T) {
	vm := NewVehicleManager(twoNodeRegion(t), nil)

	_, err := vm.AddVehicle(loc(1, 1), 1)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = vm.AddVehicle(loc(0, 0), 0)
	assert.ErrorIs(t, err, ErrConfiguration)

	first, err := vm.AddVehicle(loc(0, 0), 1)
	require.NoError(t, err)
	second, err := vm.AddVehicle(loc(0, 0), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, first.ID())
	assert.Equal(t, 1, second.ID())
	assert.Empty(t, vm.Vehicles())
	assert.Len(t, vm.AllVehicles(), 2)
}

func TestDeliveryRoundTrip(t *testing.T) {
	region := twoNodeRegion(t)
	vm := NewVehicleManager(region, nil)
	restaurantNode, neighborhoodNode := region.Node(loc(0, 0)), region.Node(loc(1, 1))
	restaurant, err := vm.OccupiedRestaurant(restaurantNode)
	require.NoError(t, err)
	neighborhood, err := vm.OccupiedNeighborhood(neighborhoodNode)
	require.NoError(t, err)
	occupiedEdge, err := vm.Occupied(region.Edge(loc(0, 0), loc(1, 1)))
	require.NoError(t, err)
	edge := occupiedEdge.(*OccupiedEdge)

	vehicle, err := vm.AddVehicle(loc(0, 0), 1)
	require.NoError(t, err)

	events, err := vm.Tick(0)
	require.NoError(t, err)
	assert.Equal(t, []string{models.EventSpawn}, eventTypes(events))
	assert.Equal(t, []*Vehicle{vehicle}, restaurant.ParkedVehicles())

	order := newOrder(t, restaurant, loc(1, 1), 0.5)
	require.NoError(t, restaurant.LoadOrder(vehicle, order, 0))
	assert.Equal(t, []string{models.EventLoadOrder}, eventTypes(vm.EventBus().PopEvents(0)))

	delivered := 0
	require.NoError(t, vehicle.MoveQueued(neighborhoodNode, func(v *Vehicle, tick int64) error {
		delivered++
		assert.Equal(t, []*ConfirmedOrder{order}, neighborhood.DeliverableOrders())
		return neighborhood.DeliverOrder(v, order, tick)
	}))
	require.NoError(t, vehicle.MoveQueued(restaurantNode, nil))

	events, err = vm.Tick(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	arrivedAtEdge := events[0].(*ArrivedAtEdgeEvent)
	assert.Same(t, restaurantNode, arrivedAtEdge.LastNode)
	progress, ok := edge.Progress(vehicle)
	require.True(t, ok)
	assert.Equal(t, int64(1), progress)

	for tick := int64(2); tick < 6; tick++ {
		events, err = vm.Tick(tick)
		require.NoError(t, err)
		assert.Empty(t, events, "tick %d", tick)
	}
	progress, _ = edge.Progress(vehicle)
	assert.Equal(t, int64(5), progress)

	events, err = vm.Tick(6)
	require.NoError(t, err)
	require.Equal(t, []string{models.EventArrivedAtNeighborhood}, eventTypes(events))
	assert.Same(t, edge.Edge(), events[0].(*ArrivedAtNodeEvent).LastEdge)
	assert.Equal(t, 0, delivered)

	events, err = vm.Tick(7)
	require.NoError(t, err)
	assert.Equal(t, []string{models.EventDeliverOrder}, eventTypes(events))
	assert.Equal(t, 1, delivered)
	assert.Empty(t, vehicle.Orders())

	events, err = vm.Tick(8)
	require.NoError(t, err)
	assert.Equal(t, []string{models.EventArrivedAtEdge}, eventTypes(events))

	var arrivedHome bool
	for tick := int64(9); tick <= 14; tick++ {
		events, err = vm.Tick(tick)
		require.NoError(t, err)
		for _, e := range events {
			if e.Type() == models.EventArrivedAtRestaurant {
				arrivedHome = true
				assert.Equal(t, int64(13), e.Tick())
			}
		}
	}
	assert.True(t, arrivedHome)
	assert.Equal(t, Occupied(restaurant), vehicle.Occupied())
	assert.True(t, vehicle.Idle())

	history := vehicle.History()
	require.Len(t, history, 5)
	assert.Equal(t, []int64{0, 1, 6, 8, 13}, []int64{history[0].Tick, history[1].Tick, history[2].Tick, history[3].Tick, history[4].Tick})
}

func TestTickIsIdempotentPerTick(t *testing.T) {
	region := twoNodeRegion(t)
	vm := NewVehicleManager(region, nil)
	vehicle, err := vm.AddVehicle(loc(0, 0), 1)
	require.NoError(t, err)
	_, err = vm.Tick(0)
	require.NoError(t, err)
	require.NoError(t, vehicle.MoveDirect(region.Node(loc(1, 1)), nil))

	_, err = vm.Tick(1)
	require.NoError(t, err)
	edge, err := vm.Occupied(region.Edge(loc(0, 0), loc(1, 1)))
	require.NoError(t, err)

	for tick := int64(2); tick <= 6; tick++ {
		require.NoError(t, edge.tick(tick))
		require.NoError(t, edge.tick(tick))
	}
	require.NoError(t, edge.tick(5))
	assert.Same(t, region.Node(loc(1, 1)), vehicle.CurrentNode())
	assert.Empty(t, edge.Vehicles())
}

func TestMoveDirectFromEdgeTurnsAtFarNode(t *testing.T) {
	region := twoNodeRegion(t)
	vm := NewVehicleManager(region, nil)
	vehicle, err := vm.AddVehicle(loc(0, 0), 1)
	require.NoError(t, err)
	_, err = vm.Tick(0)
	require.NoError(t, err)

	restaurantNode := region.Node(loc(0, 0))
	assert.ErrorIs(t, vehicle.MoveDirect(restaurantNode, nil), ErrUsage)

	require.NoError(t, vehicle.MoveDirect(region.Node(loc(1, 1)), nil))
	_, err = vm.Tick(1)
	require.NoError(t, err)
	assert.Nil(t, vehicle.CurrentNode())

	require.NoError(t, vehicle.MoveDirect(restaurantNode, nil))
	paths := vehicle.Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, []*Node{region.Node(loc(1, 1))}, paths[0].Nodes)
	assert.Equal(t, []*Node{restaurantNode}, paths[1].Nodes)

	for tick := int64(2); tick <= 13; tick++ {
		_, err = vm.Tick(tick)
		require.NoError(t, err)
	}
	assert.Same(t, restaurantNode, vehicle.CurrentNode())
	assert.True(t, vehicle.Idle())
}

func TestLoadOrderRespectsCapacity(t *testing.T) {
	region := twoNodeRegion(t)
	vm := NewVehicleManager(region, nil)
	restaurant, err := vm.OccupiedRestaurant(region.Node(loc(0, 0)))
	require.NoError(t, err)
	vehicle, err := vm.AddVehicle(loc(0, 0), 1)
	require.NoError(t, err)

	early := newOrder(t, restaurant, loc(1, 1), 0.6)
	assert.ErrorIs(t, restaurant.LoadOrder(vehicle, early, 0), ErrUsage, "not parked before spawn")

	_, err = vm.Tick(0)
	require.NoError(t, err)
	require.NoError(t, restaurant.LoadOrder(vehicle, early, 0))
	assert.ErrorIs(t, restaurant.LoadOrder(vehicle, early, 0), ErrUsage)

	heavy := newOrder(t, restaurant, loc(1, 1), 0.6)
	err = restaurant.LoadOrder(vehicle, heavy, 0)
	var overloaded *VehicleOverloadedError
	require.True(t, errors.As(err, &overloaded))
	assert.Equal(t, 0, overloaded.VehicleID)
	assert.InDelta(t, 1.2, overloaded.Weight, 1e-9)
	assert.Equal(t, []*ConfirmedOrder{early}, vehicle.Orders())
	assert.InDelta(t, 0.6, vehicle.CurrentWeight(), 1e-9)

	light := newOrder(t, restaurant, loc(1, 1), 0.4)
	require.NoError(t, restaurant.LoadOrder(vehicle, light, 0))
	assert.LessOrEqual(t, vehicle.CurrentWeight(), vehicle.Capacity())
}

func TestCapacityHoldsOverRandomLoadsAndUnloads(t *testing.T) {
	region := twoNodeRegion(t)
	vm := NewVehicleManager(region, nil)
	restaurant, err := vm.OccupiedRestaurant(region.Node(loc(0, 0)))
	require.NoError(t, err)
	vehicle, err := vm.AddVehicle(loc(0, 0), 1)
	require.NoError(t, err)
	_, err = vm.Tick(0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for step := 0; step < 500; step++ {
		before := vehicle.Orders()
		if len(before) > 0 && rng.Intn(3) == 0 {
			require.NoError(t, vehicle.unloadOrder(before[rng.Intn(len(before))]))
			assert.Len(t, vehicle.Orders(), len(before)-1, "step %d", step)
		} else {
			weight := float64(rng.Intn(60)+1) / 100
			err := restaurant.LoadOrder(vehicle, newOrder(t, restaurant, loc(1, 1), weight), 0)
			if err != nil {
				var overloaded *VehicleOverloadedError
				require.True(t, errors.As(err, &overloaded), "step %d: %v", step, err)
				assert.Equal(t, before, vehicle.Orders(), "step %d", step)
			}
		}
		assert.LessOrEqual(t, vehicle.CurrentWeight(), vehicle.Capacity()+1e-9, "step %d", step)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	region := twoNodeRegion(t)
	vm := NewVehicleManager(region, nil)
	for i := 0; i < 3; i++ {
		_, err := vm.AddVehicle(loc(0, 0), 1)
		require.NoError(t, err)
	}
	_, err := vm.Tick(0)
	require.NoError(t, err)
	require.NoError(t, vm.Vehicles()[1].MoveDirect(region.Node(loc(1, 1)), nil))
	for tick := int64(1); tick <= 3; tick++ {
		_, err = vm.Tick(tick)
		require.NoError(t, err)
	}

	vm.Reset()
	snapshot := vm.AllVehicles()
	vm.Reset()
	assert.Equal(t, snapshot, vm.AllVehicles())
	assert.Empty(t, vm.Vehicles())
	for _, o := range vm.OccupiedNodes() {
		assert.Empty(t, o.Vehicles())
	}
	for _, o := range vm.OccupiedEdges() {
		assert.Empty(t, o.Vehicles())
	}
	for i, v := range snapshot {
		assert.Equal(t, i, v.ID())
		assert.Empty(t, v.History())
		assert.True(t, v.Idle())
	}

	events, err := vm.Tick(0)
	require.NoError(t, err)
	assert.Equal(t, []string{models.EventSpawn, models.EventSpawn, models.EventSpawn}, eventTypes(events))
}

type strayComponent struct{}

func (strayComponent) Name() string    { return "stray" }
func (strayComponent) Region() *Region { return nil }
func (strayComponent) String() string  { return "stray" }
func (strayComponent) component()      {}

func TestOccupiedRejectsForeignComponents(t *testing.T) {
	vm := NewVehicleManager(twoNodeRegion(t), nil)
	other := twoNodeRegion(t)

	_, err := vm.Occupied(other.Node(loc(0, 0)))
	assert.ErrorIs(t, err, ErrInvariant)
	_, err = vm.Occupied(other.Edge(loc(0, 0), loc(1, 1)))
	assert.ErrorIs(t, err, ErrInvariant)
	_, err = vm.Occupied(strayComponent{})
	assert.ErrorIs(t, err, ErrInvariant)
	_, err = vm.OccupiedNeighborhood(vm.Region().Node(loc(0, 0)))
	assert.ErrorIs(t, err, ErrUsage)

	assert.Len(t, vm.OccupiedRestaurants(), 1)
	assert.Len(t, vm.OccupiedNeighborhoods(), 1)
	assert.Equal(t, []string{"burger", "fries"}, vm.OccupiedRestaurants()[0].AvailableFood())
}
