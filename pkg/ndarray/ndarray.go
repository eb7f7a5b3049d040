// Package ndarray provides a minimal dense N-dimensional float64 array with
// the axis reductions needed when post-processing per-increment simulation
// fields. Data is stored flat in row-major order.
package ndarray

import "fmt"

// Array is a dense row-major N-dimensional array.
// A rank-0 array holds exactly one element and represents a scalar.
type Array struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// New creates an array from a shape and flat row-major data.
// The data length must match the product of the shape dimensions.
func New(shape []int, data []float64) (*Array, error) {
	size := 1
	for _, dim := range shape {
		if dim <= 0 {
			return nil, fmt.Errorf("invalid dimension %d in shape %v", dim, shape)
		}
		size *= dim
	}
	if len(data) != size {
		return nil, fmt.Errorf("data length %d does not match shape %v (expected %d)", len(data), shape, size)
	}
	return &Array{Shape: append([]int(nil), shape...), Data: append([]float64(nil), data...)}, nil
}

// Scalar creates a rank-0 array holding a single value.
func Scalar(v float64) *Array {
	return &Array{Shape: []int{}, Data: []float64{v}}
}

// Zeros creates an array of the given shape filled with zeros.
func Zeros(shape ...int) *Array {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	return &Array{Shape: append([]int(nil), shape...), Data: make([]float64, size)}
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.Shape) }

// Size returns the total number of elements.
func (a *Array) Size() int { return len(a.Data) }

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	return &Array{
		Shape: append([]int(nil), a.Shape...),
		Data:  append([]float64(nil), a.Data...),
	}
}

// At returns the element at the given multi-dimensional index.
func (a *Array) At(index ...int) (float64, error) {
	if len(index) != len(a.Shape) {
		return 0, fmt.Errorf("index %v does not match rank %d", index, a.Rank())
	}
	flat := 0
	for d, i := range index {
		if i < 0 || i >= a.Shape[d] {
			return 0, fmt.Errorf("index %d out of range for dimension %d (size %d)", i, d, a.Shape[d])
		}
		flat = flat*a.Shape[d] + i
	}
	return a.Data[flat], nil
}

// SumAxis returns a new array with the given axis summed away. The result has
// rank one less than the input; reducing a rank-1 array yields a scalar.
func (a *Array) SumAxis(axis int) (*Array, error) {
	return a.reduce(axis, false)
}

// MeanAxis returns a new array with the given axis replaced by its arithmetic
// mean. The result has rank one less than the input.
func (a *Array) MeanAxis(axis int) (*Array, error) {
	return a.reduce(axis, true)
}

func (a *Array) reduce(axis int, mean bool) (*Array, error) {
	if axis < 0 || axis >= len(a.Shape) {
		return nil, NewAxisError(axis, a.Rank())
	}

	outer := 1
	for _, dim := range a.Shape[:axis] {
		outer *= dim
	}
	n := a.Shape[axis]
	inner := 1
	for _, dim := range a.Shape[axis+1:] {
		inner *= dim
	}

	outShape := make([]int, 0, len(a.Shape)-1)
	outShape = append(outShape, a.Shape[:axis]...)
	outShape = append(outShape, a.Shape[axis+1:]...)

	out := make([]float64, outer*inner)
	for o := 0; o < outer; o++ {
		for k := 0; k < n; k++ {
			base := (o*n + k) * inner
			for i := 0; i < inner; i++ {
				out[o*inner+i] += a.Data[base+i]
			}
		}
	}
	if mean {
		for i := range out {
			out[i] /= float64(n)
		}
	}

	return &Array{Shape: outShape, Data: out}, nil
}
