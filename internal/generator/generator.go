package generator

import (
	"github.com/chrisdamba/foodroutesim/internal/routing"
)

// OrderGenerator decides which orders arrive in a tick. Asking for the same
// tick twice within a run returns the same orders.
type OrderGenerator interface {
	GenerateOrders(tick int64) ([]*routing.ConfirmedOrder, error)
	Reset()
}
