package ndarray

import "fmt"

// AxisError reports a reduction axis that is invalid for the array's rank.
type AxisError struct {
	Axis int
	Rank int
}

func (e *AxisError) Error() string {
	return fmt.Sprintf("axis %d is out of range for array of rank %d", e.Axis, e.Rank)
}

func NewAxisError(axis, rank int) *AxisError {
	return &AxisError{Axis: axis, Rank: rank}
}
