package routing

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Occupied tracks the vehicles currently on one component. It is owned by a
// VehicleManager and ticked once per simulation tick.
type Occupied interface {
	Component() Component
	VehicleManager() *VehicleManager
	// Vehicles returns the present vehicles ordered by id.
	Vehicles() []*Vehicle
	ArrivalTick(v *Vehicle) (int64, bool)

	tick(currentTick int64) error
	addVehicle(v *Vehicle, currentTick int64) error
	base() *occupiedBase
}

type vehicleStats struct {
	arrived  int64
	previous Occupied
}

type occupiedBase struct {
	manager  *VehicleManager
	vehicles map[*Vehicle]vehicleStats
	lastTick int64
	ticked   bool
}

func newOccupiedBase(manager *VehicleManager) occupiedBase {
	return occupiedBase{
		manager:  manager,
		vehicles: make(map[*Vehicle]vehicleStats),
		lastTick: -1,
	}
}

func (o *occupiedBase) base() *occupiedBase { return o }

func (o *occupiedBase) VehicleManager() *VehicleManager { return o.manager }

func (o *occupiedBase) Vehicles() []*Vehicle {
	vehicles := lo.Keys(o.vehicles)
	slices.SortFunc(vehicles, (*Vehicle).Compare)
	return vehicles
}

func (o *occupiedBase) ArrivalTick(v *Vehicle) (int64, bool) {
	stats, ok := o.vehicles[v]
	return stats.arrived, ok
}

func (o *occupiedBase) previousOf(v *Vehicle) Occupied {
	return o.vehicles[v].previous
}

// markTicked reports whether currentTick has not been processed yet and records it.
func (o *occupiedBase) markTicked(currentTick int64) bool {
	if o.ticked && currentTick <= o.lastTick {
		return false
	}
	o.ticked = true
	o.lastTick = currentTick
	return true
}

// enter moves v from its current Occupied into self. It returns false when v is already present.
func (o *occupiedBase) enter(self Occupied, v *Vehicle, currentTick int64) (Occupied, bool) {
	if _, ok := o.vehicles[v]; ok {
		return nil, false
	}
	previous := v.occupied
	if previous != nil {
		delete(previous.base().vehicles, v)
	}
	o.vehicles[v] = vehicleStats{arrived: currentTick, previous: previous}
	v.occupied = self
	v.recordVisit(currentTick, self.Component())
	return previous, true
}

func (o *occupiedBase) reset() {
	clear(o.vehicles)
	o.lastTick = -1
	o.ticked = false
}

// OccupiedNode is the wrapper of a plain node and the shared part of the
// restaurant and neighborhood wrappers.
type OccupiedNode struct {
	occupiedBase
	node *Node
	self Occupied
}

func newOccupiedNode(node *Node, manager *VehicleManager) *OccupiedNode {
	o := &OccupiedNode{occupiedBase: newOccupiedBase(manager), node: node}
	o.self = o
	return o
}

func (o *OccupiedNode) Component() Component { return o.node }
func (o *OccupiedNode) Node() *Node          { return o.node }

func (o *OccupiedNode) tick(currentTick int64) error {
	if !o.markTicked(currentTick) {
		return nil
	}
	for _, v := range o.Vehicles() {
		if err := v.move(currentTick); err != nil {
			return fmt.Errorf("vehicle %d at %s: %w", v.id, o.node.location, err)
		}
	}
	return nil
}

func (o *OccupiedNode) addVehicle(v *Vehicle, currentTick int64) error {
	previous, entered := o.enter(o.self, v, currentTick)
	if !entered {
		return nil
	}
	var lastEdge *Edge
	if previous != nil {
		lastEdge, _ = previous.Component().(*Edge)
	}
	o.manager.bus.QueuePost(&ArrivedAtNodeEvent{
		tickEvent: tickEvent{tick: currentTick},
		Vehicle:   v,
		Node:      o.node,
		LastEdge:  lastEdge,
	})
	return nil
}

func (o *OccupiedNode) String() string {
	return fmt.Sprintf("occupied %s with %d vehicles", o.node.kind, len(o.vehicles))
}

// OccupiedRestaurant is where vehicles spawn, park and load orders.
type OccupiedRestaurant struct {
	*OccupiedNode
}

func newOccupiedRestaurant(node *Node, manager *VehicleManager) *OccupiedRestaurant {
	r := &OccupiedRestaurant{OccupiedNode: newOccupiedNode(node, manager)}
	r.self = r
	return r
}

func (r *OccupiedRestaurant) AvailableFood() []string {
	return r.node.AvailableFood()
}

// ParkedVehicles returns the present vehicles by arrival tick, then id.
func (r *OccupiedRestaurant) ParkedVehicles() []*Vehicle {
	vehicles := lo.Keys(r.vehicles)
	slices.SortFunc(vehicles, func(a, b *Vehicle) int {
		if c := cmp.Compare(r.vehicles[a].arrived, r.vehicles[b].arrived); c != 0 {
			return c
		}
		return a.Compare(b)
	})
	return vehicles
}

// LoadOrder puts an order of this restaurant onto a parked vehicle.
func (r *OccupiedRestaurant) LoadOrder(v *Vehicle, order *ConfirmedOrder, currentTick int64) error {
	if _, ok := r.vehicles[v]; !ok {
		return fmt.Errorf("%w: vehicle %d is not parked at restaurant %q", ErrUsage, v.id, r.node.name)
	}
	if order.Restaurant() != r {
		return fmt.Errorf("%w: order %s does not belong to restaurant %q", ErrUsage, order.ID(), r.node.name)
	}
	if err := v.loadOrder(order); err != nil {
		return err
	}
	r.manager.bus.QueuePost(&LoadOrderEvent{
		tickEvent:  tickEvent{tick: currentTick},
		Vehicle:    v,
		Restaurant: r.node,
		Order:      order,
	})
	return nil
}

// OccupiedNeighborhood is where orders are delivered.
type OccupiedNeighborhood struct {
	*OccupiedNode
}

func newOccupiedNeighborhood(node *Node, manager *VehicleManager) *OccupiedNeighborhood {
	n := &OccupiedNeighborhood{OccupiedNode: newOccupiedNode(node, manager)}
	n.self = n
	return n
}

// DeliverableOrders lists the loaded orders of present vehicles that are addressed here.
func (n *OccupiedNeighborhood) DeliverableOrders() []*ConfirmedOrder {
	var orders []*ConfirmedOrder
	for _, v := range n.Vehicles() {
		for _, order := range v.orders {
			if order.Location() == n.node.location {
				orders = append(orders, order)
			}
		}
	}
	return orders
}

func (n *OccupiedNeighborhood) DeliverOrder(v *Vehicle, order *ConfirmedOrder, currentTick int64) error {
	if _, ok := n.vehicles[v]; !ok {
		return fmt.Errorf("%w: vehicle %d is not in neighborhood %q", ErrUsage, v.id, n.node.name)
	}
	if order.Location() != n.node.location {
		return fmt.Errorf("%w: order %s is addressed to %s, not %s", ErrUsage, order.ID(), order.Location(), n.node.location)
	}
	if err := v.unloadOrder(order); err != nil {
		return err
	}
	n.manager.bus.QueuePost(&DeliverOrderEvent{
		tickEvent: tickEvent{tick: currentTick},
		Vehicle:   v,
		Node:      n.node,
		Order:     order,
	})
	return nil
}

// OccupiedEdge holds vehicles in transit. A vehicle leaves once the edge
// duration has elapsed since its arrival.
type OccupiedEdge struct {
	occupiedBase
	edge *Edge
}

func newOccupiedEdge(edge *Edge, manager *VehicleManager) *OccupiedEdge {
	return &OccupiedEdge{occupiedBase: newOccupiedBase(manager), edge: edge}
}

func (o *OccupiedEdge) Component() Component { return o.edge }
func (o *OccupiedEdge) Edge() *Edge          { return o.edge }

func (o *OccupiedEdge) tick(currentTick int64) error {
	if !o.markTicked(currentTick) {
		return nil
	}
	for _, v := range o.Vehicles() {
		stats, ok := o.vehicles[v]
		if !ok || currentTick < stats.arrived+o.edge.duration {
			continue
		}
		if err := v.move(currentTick); err != nil {
			return fmt.Errorf("vehicle %d on %q: %w", v.id, o.edge.name, err)
		}
	}
	return nil
}

func (o *OccupiedEdge) addVehicle(v *Vehicle, currentTick int64) error {
	previous, entered := o.enter(o, v, currentTick)
	if !entered {
		return nil
	}
	var lastNode *Node
	if previous != nil {
		lastNode, _ = previous.Component().(*Node)
	}
	o.manager.bus.QueuePost(&ArrivedAtEdgeEvent{
		tickEvent: tickEvent{tick: currentTick},
		Vehicle:   v,
		Edge:      o.edge,
		LastNode:  lastNode,
	})
	return nil
}

// Progress is the number of ticks v has spent on the edge, at most its duration.
func (o *OccupiedEdge) Progress(v *Vehicle) (int64, bool) {
	stats, ok := o.vehicles[v]
	if !ok {
		return 0, false
	}
	return lo.Clamp(o.lastTick-stats.arrived+1, 0, o.edge.duration), true
}

// ProgressRatio maps Progress onto [0, 1]; zero-duration edges report 1.
func (o *OccupiedEdge) ProgressRatio(v *Vehicle) (float64, bool) {
	progress, ok := o.Progress(v)
	if !ok {
		return 0, false
	}
	if o.edge.duration == 0 {
		return 1, true
	}
	return float64(progress) / float64(o.edge.duration), true
}

func (o *OccupiedEdge) String() string {
	return fmt.Sprintf("occupied edge %q with %d vehicles", o.edge.name, len(o.vehicles))
}
