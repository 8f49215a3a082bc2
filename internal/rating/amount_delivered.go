package rating

import (
	"fmt"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
)

const DefaultAmountDeliveredFactor = 0.99

// AmountDeliveredRater scores the share of received orders that were delivered.
// The score reaches 0 once more than (1 - factor) of the orders are missing.
type AmountDeliveredRater struct {
	factor    float64
	received  int
	delivered int
}

func NewAmountDeliveredRater(factor float64) (*AmountDeliveredRater, error) {
	if factor < 0 || factor > 1 {
		return nil, fmt.Errorf("amount delivered factor must be between 0 and 1, got %f", factor)
	}
	return &AmountDeliveredRater{factor: factor}, nil
}

func (r *AmountDeliveredRater) Criteria() Criteria { return CriteriaAmountDelivered }

func (r *AmountDeliveredRater) OnTick(events []models.Event, _ int64) {
	for _, event := range events {
		switch event.(type) {
		case *routing.DeliverOrderEvent:
			r.delivered++
		case *routing.OrderReceivedEvent:
			r.received++
		}
	}
}

func (r *AmountDeliveredRater) Score() float64 {
	undelivered := float64(r.received - r.delivered)
	tolerated := float64(r.received) * (1 - r.factor)
	if undelivered >= 0 && undelivered < tolerated {
		return 1 - undelivered/tolerated
	}
	return 0
}

func (r *AmountDeliveredRater) Reset() {
	r.received = 0
	r.delivered = 0
}
