package simulator

import (
	"fmt"
	"time"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
	"github.com/xitongsys/parquet-go/schema"
)

const (
	TopicVehicleEvents = "vehicle_events"
	TopicOrderEvents   = "order_events"
	TopicRunRatings    = "run_ratings"
)

// TickDuration is the wall-clock time one tick stands for in event timestamps.
const TickDuration = time.Minute

// EventMessage is a serialized record ready for an output destination.
type EventMessage struct {
	Topic   string
	Message []byte
}

// RunInfo identifies the run a record belongs to.
type RunInfo struct {
	RunID     string
	Run       int64
	Problem   string
	StartTime time.Time
}

func (ri RunInfo) timestamp(tick int64) int64 {
	return ri.StartTime.Add(time.Duration(tick) * TickDuration).Unix()
}

// GetSchema returns the parquet schema of the records written to topic.
func GetSchema(topic string) (*schema.SchemaHandler, error) {
	var sh *schema.SchemaHandler
	var err error

	switch topic {
	case TopicVehicleEvents, TopicOrderEvents:
		sh, err = schema.NewSchemaHandlerFromStruct(new(models.EventRecord))
	case TopicRunRatings:
		sh, err = schema.NewSchemaHandlerFromStruct(new(models.RatingRecord))
	default:
		return nil, fmt.Errorf("unknown topic: %s", topic)
	}

	if err != nil {
		log.WithField("topic", topic).WithError(err).Error("error creating schema")
		return nil, fmt.Errorf("error creating schema for %s: %w", topic, err)
	}
	return sh, nil
}

// TopicFor routes order lifecycle events and vehicle movement to separate topics.
func TopicFor(eventType string) string {
	switch eventType {
	case models.EventOrderReceived, models.EventLoadOrder, models.EventDeliverOrder:
		return TopicOrderEvents
	default:
		return TopicVehicleEvents
	}
}

// NewEventRecord flattens a routing event. VehicleID is -1 for events that
// involve no vehicle.
func NewEventRecord(event models.Event, info RunInfo) (models.EventRecord, error) {
	record := models.EventRecord{
		Timestamp: info.timestamp(event.Tick()),
		RunID:     info.RunID,
		Run:       info.Run,
		Problem:   info.Problem,
		Tick:      event.Tick(),
		EventType: event.Type(),
		VehicleID: -1,
	}

	switch e := event.(type) {
	case *routing.SpawnEvent:
		record.VehicleID = int64(e.Vehicle.ID())
		setNode(&record, e.Node)
	case *routing.ArrivedAtNodeEvent:
		record.VehicleID = int64(e.Vehicle.ID())
		setNode(&record, e.Node)
		if e.LastEdge != nil {
			setEdge(&record, e.LastEdge)
		}
	case *routing.ArrivedAtEdgeEvent:
		record.VehicleID = int64(e.Vehicle.ID())
		setEdge(&record, e.Edge)
		if e.LastNode != nil {
			setNode(&record, e.LastNode)
		}
	case *routing.OrderReceivedEvent:
		setOrder(&record, e.Order)
		setNode(&record, e.Order.Restaurant().Node())
	case *routing.LoadOrderEvent:
		record.VehicleID = int64(e.Vehicle.ID())
		setOrder(&record, e.Order)
		setNode(&record, e.Restaurant)
	case *routing.DeliverOrderEvent:
		record.VehicleID = int64(e.Vehicle.ID())
		setOrder(&record, e.Order)
		setNode(&record, e.Node)
	default:
		return record, fmt.Errorf("unsupported event type %T", event)
	}
	return record, nil
}

func setNode(record *models.EventRecord, node *routing.Node) {
	record.NodeName = node.Name()
	record.NodeX = node.Location().X
	record.NodeY = node.Location().Y
}

func setEdge(record *models.EventRecord, edge *routing.Edge) {
	record.EdgeName = edge.Name()
	record.EdgeDuration = edge.Duration()
}

func setOrder(record *models.EventRecord, order *routing.ConfirmedOrder) {
	record.OrderID = order.ID()
	record.OrderWeight = order.Weight()
	record.WindowStart = order.DeliveryInterval().Start
	record.WindowEnd = order.DeliveryInterval().End
}
