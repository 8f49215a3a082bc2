package rating

import (
	"github.com/chrisdamba/foodroutesim/internal/models"
)

type Criteria string

const (
	CriteriaAmountDelivered Criteria = "AMOUNT_DELIVERED"
	CriteriaInTime          Criteria = "IN_TIME"
	CriteriaTravelDistance  Criteria = "TRAVEL_DISTANCE"
)

// Rater scores a simulation run from the events it observes tick by tick.
// Scores lie in [0, 1], higher is better.
type Rater interface {
	Criteria() Criteria
	OnTick(events []models.Event, tick int64)
	Score() float64
	Reset()
}
