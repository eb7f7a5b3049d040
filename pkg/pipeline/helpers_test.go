package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/ndarray"
	"github.com/wehubfusion/Daedalus/pkg/resultstore"
)

func intPtr(v int) *int { return &v }

// tensor builds a (1,3,3) field from a row-major 3x3 matrix.
func tensor(t *testing.T, values [9]float64) *ndarray.Array {
	t.Helper()
	arr, err := ndarray.New([]int{1, 3, 3}, values[:])
	require.NoError(t, err)
	return arr
}

// identityField is a (1,3,3) identity deformation gradient.
func identityField(t *testing.T) *ndarray.Array {
	return tensor(t, [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

// loadedDataset builds a dataset with the given number of increments, each
// carrying solver fields F (identity) and P (diagonal, scaled per increment).
func loadedDataset(t *testing.T, increments int) *resultstore.Dataset {
	t.Helper()
	ds := resultstore.New(zap.NewNop())
	for i := 0; i < increments; i++ {
		inc := ds.AddIncrement(incName(i))
		inc.SetField("F", identityField(t))
		scale := float64(i + 1)
		inc.SetField("P", tensor(t, [9]float64{100 * scale, 0, 0, 0, 10 * scale, 0, 0, 0, -50 * scale}))
	}
	return ds
}

func incName(i int) string {
	return fmt.Sprintf("increment_%d", i)
}
