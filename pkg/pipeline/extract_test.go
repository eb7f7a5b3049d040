package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/ndarray"
	"github.com/wehubfusion/Daedalus/pkg/resultstore"
)

func TestExtractPreservesIncrementOrder(t *testing.T) {
	ds := loadedDataset(t, 4)
	extractor := NewQuantityExtractor(zap.NewNop())

	arrays, err := extractor.Extract(ds, "P", nil)
	require.NoError(t, err)
	require.Len(t, arrays, 4)

	// Each increment's P is scaled by its one-based index.
	for i, arr := range arrays {
		assert.Equal(t, []int{1, 3, 3}, arr.Shape)
		assert.Equal(t, 100*float64(i+1), arr.Data[0], "increment %d", i)
	}
}

func TestExtractMissingField(t *testing.T) {
	ds := loadedDataset(t, 2)
	extractor := NewQuantityExtractor(zap.NewNop())

	_, err := extractor.Extract(ds, "sigma", nil)

	var notFound *FieldNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "sigma", notFound.Path)
	assert.Equal(t, "increment_0", notFound.Increment)
}

func TestExtractMissingFieldOnLaterIncrement(t *testing.T) {
	ds := resultstore.New(zap.NewNop())
	first := ds.AddIncrement("increment_0")
	first.SetField("stress", identityField(t))
	ds.AddIncrement("increment_1") // field absent here

	extractor := NewQuantityExtractor(zap.NewNop())
	_, err := extractor.Extract(ds, "stress", nil)

	var notFound *FieldNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "increment_1", notFound.Increment)
}

func TestExtractSumAlongAxis(t *testing.T) {
	ds := resultstore.New(zap.NewNop())
	inc := ds.AddIncrement("increment_0")
	arr, err := ndarray.New([]int{3, 3}, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(t, err)
	inc.SetField("stress", arr)

	extractor := NewQuantityExtractor(zap.NewNop())
	arrays, err := extractor.Extract(ds, "stress", []TransformSpec{{SumAlongAxes: intPtr(1)}})
	require.NoError(t, err)
	require.Len(t, arrays, 1)

	// Row sums of the matrix.
	assert.Equal(t, []int{3}, arrays[0].Shape)
	assert.Equal(t, []float64{6, 15, 24}, arrays[0].Data)
}

func TestExtractSumThenMeanReducesRankByTwo(t *testing.T) {
	ds := loadedDataset(t, 1)
	extractor := NewQuantityExtractor(zap.NewNop())

	arrays, err := extractor.Extract(ds, "P", []TransformSpec{
		{SumAlongAxes: intPtr(0)},
		{MeanAlongAxes: intPtr(0)},
	})
	require.NoError(t, err)
	require.Len(t, arrays, 1)

	// (1,3,3) -> sum axis 0 -> (3,3) -> mean axis 0 -> (3)
	assert.Equal(t, []int{3}, arrays[0].Shape)
	// P = diag(100, 10, -50): column means after summing the singleton axis.
	assert.Equal(t, []float64{100.0 / 3, 10.0 / 3, -50.0 / 3}, arrays[0].Data)
}

func TestExtractAxisValidAgainstCurrentRank(t *testing.T) {
	ds := loadedDataset(t, 1)
	extractor := NewQuantityExtractor(zap.NewNop())

	// Axis 2 is valid for the initial rank-3 array but not after one
	// reduction, so the second transform must fail.
	_, err := extractor.Extract(ds, "P", []TransformSpec{
		{SumAlongAxes: intPtr(2)},
		{MeanAlongAxes: intPtr(2)},
	})

	var axisErr *TransformAxisError
	require.True(t, errors.As(err, &axisErr))
	assert.Equal(t, 2, axisErr.Axis)
	assert.Equal(t, 2, axisErr.Rank)
}

func TestExtractRejectsMalformedTransform(t *testing.T) {
	ds := loadedDataset(t, 1)
	extractor := NewQuantityExtractor(zap.NewNop())

	tests := []struct {
		name string
		spec TransformSpec
	}{
		{name: "no directive", spec: TransformSpec{}},
		{name: "two directives", spec: TransformSpec{SumAlongAxes: intPtr(0), MeanAlongAxes: intPtr(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.Extract(ds, "P", []TransformSpec{tt.spec})
			var specErr *TransformSpecError
			require.True(t, errors.As(err, &specErr))
			assert.Equal(t, 0, specErr.Index)
		})
	}
}

func TestExtractDoesNotMutateStoredFields(t *testing.T) {
	ds := loadedDataset(t, 1)
	extractor := NewQuantityExtractor(zap.NewNop())

	before, _ := ds.Increments()[0].Field("P")
	original := append([]float64(nil), before.Data...)

	_, err := extractor.Extract(ds, "P", []TransformSpec{{SumAlongAxes: intPtr(0)}})
	require.NoError(t, err)

	after, _ := ds.Increments()[0].Field("P")
	assert.Equal(t, original, after.Data)
	assert.Equal(t, []int{1, 3, 3}, after.Shape)
}
