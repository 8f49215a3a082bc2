package routing

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a malformed region or a setup call that can never succeed.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvariant marks internal state that should be unreachable, such as a foreign component.
	ErrInvariant = errors.New("invariant violation")
	// ErrUsage marks a call the API does not allow, such as a degenerate move.
	ErrUsage = errors.New("usage error")
	// ErrNoPath is returned when the end node cannot be reached from the start node.
	ErrNoPath = errors.New("no path")
)

// VehicleOverloadedError is returned when a load would push a vehicle past its capacity.
type VehicleOverloadedError struct {
	VehicleID int
	Weight    float64
	Capacity  float64
}

func (e *VehicleOverloadedError) Error() string {
	return fmt.Sprintf("vehicle %d overloaded: weight %.3f exceeds capacity %.3f", e.VehicleID, e.Weight, e.Capacity)
}
