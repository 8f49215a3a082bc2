package models

import "fmt"

// TickInterval is a closed range of ticks, used for delivery windows.
type TickInterval struct {
	Start int64 `json:"start" yaml:"start" mapstructure:"start"`
	End   int64 `json:"end" yaml:"end" mapstructure:"end"`
}

func NewTickInterval(start, end int64) (TickInterval, error) {
	if start > end {
		return TickInterval{}, fmt.Errorf("tick interval start %d is after end %d", start, end)
	}
	return TickInterval{Start: start, End: end}, nil
}

func (t TickInterval) Duration() int64 {
	return t.End - t.Start
}

func (t TickInterval) Contains(tick int64) bool {
	return tick >= t.Start && tick <= t.End
}

func (t TickInterval) String() string {
	return fmt.Sprintf("[%d,%d]", t.Start, t.End)
}
