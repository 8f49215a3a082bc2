package routing

import "github.com/chrisdamba/foodroutesim/internal/models"

type tickEvent struct {
	tick int64
}

func (e tickEvent) Tick() int64 { return e.tick }

// SpawnEvent is posted when a queued vehicle is placed on its starting restaurant.
type SpawnEvent struct {
	tickEvent
	Vehicle *Vehicle
	Node    *Node
}

func (*SpawnEvent) Type() string { return models.EventSpawn }

// ArrivedAtNodeEvent is posted when a vehicle enters a node. LastEdge is nil
// when the vehicle did not come from an edge.
type ArrivedAtNodeEvent struct {
	tickEvent
	Vehicle  *Vehicle
	Node     *Node
	LastEdge *Edge
}

func (e *ArrivedAtNodeEvent) Type() string {
	switch e.Node.Kind() {
	case KindRestaurant:
		return models.EventArrivedAtRestaurant
	case KindNeighborhood:
		return models.EventArrivedAtNeighborhood
	default:
		return models.EventArrivedAtNode
	}
}

type ArrivedAtEdgeEvent struct {
	tickEvent
	Vehicle  *Vehicle
	Edge     *Edge
	LastNode *Node
}

func (*ArrivedAtEdgeEvent) Type() string { return models.EventArrivedAtEdge }

type OrderReceivedEvent struct {
	tickEvent
	Order *ConfirmedOrder
}

func NewOrderReceivedEvent(tick int64, order *ConfirmedOrder) *OrderReceivedEvent {
	return &OrderReceivedEvent{tickEvent: tickEvent{tick: tick}, Order: order}
}

func (*OrderReceivedEvent) Type() string { return models.EventOrderReceived }

type LoadOrderEvent struct {
	tickEvent
	Vehicle    *Vehicle
	Restaurant *Node
	Order      *ConfirmedOrder
}

func (*LoadOrderEvent) Type() string { return models.EventLoadOrder }

type DeliverOrderEvent struct {
	tickEvent
	Vehicle *Vehicle
	Node    *Node
	Order   *ConfirmedOrder
}

func (*DeliverOrderEvent) Type() string { return models.EventDeliverOrder }
