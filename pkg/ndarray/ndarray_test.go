package ndarray

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesShape(t *testing.T) {
	_, err := New([]int{2, 3}, []float64{1, 2, 3})
	require.Error(t, err)

	_, err = New([]int{2, 0}, nil)
	require.Error(t, err)

	arr, err := New([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 2, arr.Rank())
	assert.Equal(t, 6, arr.Size())
}

func TestAt(t *testing.T) {
	arr, err := New([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	v, err := arr.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 6.0, v)

	_, err = arr.At(2, 0)
	require.Error(t, err)

	_, err = arr.At(1)
	require.Error(t, err)
}

func TestSumAxis(t *testing.T) {
	// 2x3 matrix
	arr, err := New([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	tests := []struct {
		name      string
		axis      int
		wantShape []int
		wantData  []float64
	}{
		{name: "sum rows", axis: 0, wantShape: []int{3}, wantData: []float64{5, 7, 9}},
		{name: "sum columns", axis: 1, wantShape: []int{2}, wantData: []float64{6, 15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := arr.SumAxis(tt.axis)
			require.NoError(t, err)
			assert.Equal(t, tt.wantShape, out.Shape)
			assert.Equal(t, tt.wantData, out.Data)
		})
	}
}

func TestMeanAxis(t *testing.T) {
	arr, err := New([]int{2, 2}, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	out, err := arr.MeanAxis(0)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, out.Shape)
	assert.Equal(t, []float64{2, 3}, out.Data)
}

func TestReductionChainShrinksRank(t *testing.T) {
	// 2x3x4 tensor, reduce axis 0 twice: rank 3 -> 2 -> 1
	data := make([]float64, 24)
	for i := range data {
		data[i] = float64(i)
	}
	arr, err := New([]int{2, 3, 4}, data)
	require.NoError(t, err)

	summed, err := arr.SumAxis(0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, summed.Shape)

	averaged, err := summed.MeanAxis(0)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, averaged.Shape)

	// Element [j] is mean over i of (data[0,i,j] + data[1,i,j]).
	// data[k,i,j] = 12k + 4i + j, so sum over k = 12 + 8i + 2j,
	// mean over i = 12 + 8 + 2j = 20 + 2j.
	assert.Equal(t, []float64{20, 22, 24, 26}, averaged.Data)
}

func TestReduceToScalar(t *testing.T) {
	arr, err := New([]int{3}, []float64{1, 2, 3})
	require.NoError(t, err)

	out, err := arr.SumAxis(0)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Rank())
	assert.Equal(t, []float64{6}, out.Data)

	// A scalar has no axes left to reduce.
	_, err = out.SumAxis(0)
	var axisErr *AxisError
	require.True(t, errors.As(err, &axisErr))
	assert.Equal(t, 0, axisErr.Axis)
	assert.Equal(t, 0, axisErr.Rank)
}

func TestAxisOutOfRange(t *testing.T) {
	arr, err := New([]int{2, 2}, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	for _, axis := range []int{-1, 2, 5} {
		_, err := arr.MeanAxis(axis)
		var axisErr *AxisError
		require.True(t, errors.As(err, &axisErr), "axis %d should fail", axis)
		assert.Equal(t, axis, axisErr.Axis)
		assert.Equal(t, 2, axisErr.Rank)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	arr, err := New([]int{2}, []float64{1, 2})
	require.NoError(t, err)

	clone := arr.Clone()
	clone.Data[0] = 99
	assert.Equal(t, 1.0, arr.Data[0])
}
