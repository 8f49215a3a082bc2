package routing

import (
	"fmt"
	"slices"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/sirupsen/logrus"
)

type edgeKey struct {
	a, b models.Location
}

// VehicleManager owns the occupancy wrappers of one region and drives the
// vehicles through them tick by tick.
type VehicleManager struct {
	region         *Region
	pathCalculator PathCalculator
	bus            *models.EventBus

	nodes         map[models.Location]*OccupiedNode
	restaurants   map[models.Location]*OccupiedRestaurant
	neighborhoods map[models.Location]*OccupiedNeighborhood
	edges         map[edgeKey]*OccupiedEdge
	nodeOrder     []Occupied
	edgeOrder     []*OccupiedEdge

	vehiclesToSpawn []*Vehicle
	vehicles        []*Vehicle

	log *logrus.Entry
}

// NewVehicleManager wraps every node and edge of region. A nil pathCalculator
// defaults to a cached Dijkstra calculator.
func NewVehicleManager(region *Region, pathCalculator PathCalculator) *VehicleManager {
	if pathCalculator == nil {
		pathCalculator = NewCachedPathCalculator(NewDijkstraPathCalculator())
	}
	m := &VehicleManager{
		region:         region,
		pathCalculator: pathCalculator,
		bus:            models.NewEventBus(),
		nodes:          make(map[models.Location]*OccupiedNode),
		restaurants:    make(map[models.Location]*OccupiedRestaurant),
		neighborhoods:  make(map[models.Location]*OccupiedNeighborhood),
		edges:          make(map[edgeKey]*OccupiedEdge),
		log:            logrus.WithField("component", "vehicle-manager"),
	}

	for _, node := range region.Nodes() {
		switch node.kind {
		case KindRestaurant:
			r := newOccupiedRestaurant(node, m)
			m.restaurants[node.location] = r
			m.nodeOrder = append(m.nodeOrder, r)
		case KindNeighborhood:
			n := newOccupiedNeighborhood(node, m)
			m.neighborhoods[node.location] = n
			m.nodeOrder = append(m.nodeOrder, n)
		default:
			o := newOccupiedNode(node, m)
			m.nodes[node.location] = o
			m.nodeOrder = append(m.nodeOrder, o)
		}
	}
	for _, edge := range region.Edges() {
		o := newOccupiedEdge(edge, m)
		m.edges[edgeKey{a: edge.locationA, b: edge.locationB}] = o
		m.edgeOrder = append(m.edgeOrder, o)
	}
	return m
}

func (m *VehicleManager) Region() *Region                { return m.region }
func (m *VehicleManager) PathCalculator() PathCalculator { return m.pathCalculator }
func (m *VehicleManager) EventBus() *models.EventBus     { return m.bus }

// AddVehicle queues a vehicle that spawns on the restaurant at location during the next tick.
func (m *VehicleManager) AddVehicle(location models.Location, capacity float64) (*Vehicle, error) {
	restaurant, ok := m.restaurants[location]
	if !ok {
		return nil, fmt.Errorf("%w: vehicles can only start at a restaurant, %s is not one", ErrConfiguration, location)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: vehicle capacity must be positive, got %f", ErrConfiguration, capacity)
	}
	v := newVehicle(len(m.vehicles)+len(m.vehiclesToSpawn), capacity, m, restaurant)
	m.vehiclesToSpawn = append(m.vehiclesToSpawn, v)
	return v, nil
}

// Tick spawns queued vehicles, ticks every node and then every edge, and
// returns the events posted for currentTick.
func (m *VehicleManager) Tick(currentTick int64) ([]models.Event, error) {
	for _, v := range m.vehiclesToSpawn {
		m.spawn(v, currentTick)
	}
	m.vehiclesToSpawn = nil

	for _, o := range m.nodeOrder {
		if err := o.tick(currentTick); err != nil {
			return nil, fmt.Errorf("tick %d: %w", currentTick, err)
		}
	}
	for _, o := range m.edgeOrder {
		if err := o.tick(currentTick); err != nil {
			return nil, fmt.Errorf("tick %d: %w", currentTick, err)
		}
	}
	return m.bus.PopEvents(currentTick), nil
}

func (m *VehicleManager) spawn(v *Vehicle, currentTick int64) {
	restaurant := v.startingNode
	restaurant.vehicles[v] = vehicleStats{arrived: currentTick}
	v.occupied = restaurant
	v.recordVisit(currentTick, restaurant.node)
	m.vehicles = append(m.vehicles, v)
	m.bus.QueuePost(&SpawnEvent{tickEvent: tickEvent{tick: currentTick}, Vehicle: v, Node: restaurant.node})
	m.log.WithFields(logrus.Fields{"vehicle": v.id, "restaurant": restaurant.node.name, "tick": currentTick}).Debug("spawned vehicle")
}

// Occupied returns the wrapper of a node or edge of this manager's region.
func (m *VehicleManager) Occupied(component Component) (Occupied, error) {
	switch c := component.(type) {
	case *Node:
		return m.occupiedNode(c)
	case *Edge:
		return m.occupiedEdge(c)
	default:
		return nil, fmt.Errorf("%w: component %v is not a node or an edge", ErrInvariant, component)
	}
}

func (m *VehicleManager) occupiedNode(node *Node) (Occupied, error) {
	var o Occupied
	if r, ok := m.restaurants[node.location]; ok {
		o = r
	} else if n, ok := m.neighborhoods[node.location]; ok {
		o = n
	} else if p, ok := m.nodes[node.location]; ok {
		o = p
	}
	if o == nil || o.Component() != Component(node) {
		return nil, fmt.Errorf("%w: no occupied node for %s", ErrInvariant, node)
	}
	return o, nil
}

func (m *VehicleManager) occupiedEdge(edge *Edge) (*OccupiedEdge, error) {
	o, ok := m.edges[edgeKey{a: edge.locationA, b: edge.locationB}]
	if !ok || o.edge != edge {
		return nil, fmt.Errorf("%w: no occupied edge for %s", ErrInvariant, edge)
	}
	return o, nil
}

func (m *VehicleManager) OccupiedRestaurant(node *Node) (*OccupiedRestaurant, error) {
	r, ok := m.restaurants[node.location]
	if !ok || r.node != node {
		return nil, fmt.Errorf("%w: %s is not a restaurant of this region", ErrUsage, node)
	}
	return r, nil
}

func (m *VehicleManager) OccupiedNeighborhood(node *Node) (*OccupiedNeighborhood, error) {
	n, ok := m.neighborhoods[node.location]
	if !ok || n.node != node {
		return nil, fmt.Errorf("%w: %s is not a neighborhood of this region", ErrUsage, node)
	}
	return n, nil
}

// OccupiedRestaurants returns the restaurant wrappers ordered by location.
func (m *VehicleManager) OccupiedRestaurants() []*OccupiedRestaurant {
	return sortedWrappers(m.restaurants)
}

func (m *VehicleManager) OccupiedNeighborhoods() []*OccupiedNeighborhood {
	return sortedWrappers(m.neighborhoods)
}

// OccupiedNodes returns the wrappers of every node kind, ordered by location.
func (m *VehicleManager) OccupiedNodes() []Occupied {
	return slices.Clone(m.nodeOrder)
}

func (m *VehicleManager) OccupiedEdges() []*OccupiedEdge {
	return slices.Clone(m.edgeOrder)
}

// Vehicles returns the spawned vehicles ordered by id.
func (m *VehicleManager) Vehicles() []*Vehicle {
	return slices.Clone(m.vehicles)
}

// AllVehicles includes the vehicles still waiting to spawn.
func (m *VehicleManager) AllVehicles() []*Vehicle {
	all := append(slices.Clone(m.vehicles), m.vehiclesToSpawn...)
	slices.SortFunc(all, (*Vehicle).Compare)
	return all
}

// Reset empties every wrapper, resets the vehicles and queues them all for spawn again.
func (m *VehicleManager) Reset() {
	for _, o := range m.nodeOrder {
		o.base().reset()
	}
	for _, o := range m.edgeOrder {
		o.reset()
	}
	all := m.AllVehicles()
	for _, v := range all {
		v.Reset()
	}
	m.vehicles = nil
	m.vehiclesToSpawn = all
	m.bus.Clear()
}

func sortedWrappers[T interface{ Node() *Node }](byLocation map[models.Location]T) []T {
	wrappers := make([]T, 0, len(byLocation))
	for _, w := range byLocation {
		wrappers = append(wrappers, w)
	}
	slices.SortFunc(wrappers, func(a, b T) int { return a.Node().Compare(b.Node()) })
	return wrappers
}
