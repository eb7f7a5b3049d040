package resultstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/ndarray"
)

func TestAddIncrementPreservesOrder(t *testing.T) {
	ds := New(zap.NewNop())
	ds.AddIncrement("increment_0")
	ds.AddIncrement("increment_5")
	ds.AddIncrement("increment_10")

	incs := ds.Increments()
	require.Len(t, incs, 3)
	assert.Equal(t, "increment_0", incs[0].Name())
	assert.Equal(t, "increment_5", incs[1].Name())
	assert.Equal(t, "increment_10", incs[2].Name())
}

func TestFieldAccess(t *testing.T) {
	ds := New(zap.NewNop())
	inc := ds.AddIncrement("increment_0")

	_, ok := inc.Field("F")
	assert.False(t, ok)

	arr, err := ndarray.New([]int{1, 3, 3}, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	require.NoError(t, err)
	inc.SetField("F", arr)

	got, ok := inc.Field("F")
	require.True(t, ok)
	assert.Equal(t, arr.Data, got.Data)
	assert.Equal(t, []string{"F"}, inc.FieldPaths())
}

func TestSetFieldOverwrites(t *testing.T) {
	// Re-writing an existing path replaces the array: last write wins.
	ds := New(zap.NewNop())
	inc := ds.AddIncrement("increment_0")

	first, err := ndarray.New([]int{2}, []float64{1, 2})
	require.NoError(t, err)
	second, err := ndarray.New([]int{2}, []float64{3, 4})
	require.NoError(t, err)

	inc.SetField("x", first)
	inc.SetField("x", second)

	got, ok := inc.Field("x")
	require.True(t, ok)
	assert.Equal(t, []float64{3, 4}, got.Data)
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{OpAddCauchy, OpAddStrainTensor, OpAddMises} {
		op, ok := r.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, name, op.Name())
	}

	_, ok := r.Lookup("add_unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{OpAddCauchy, OpAddMises, OpAddStrainTensor}, r.Names())
}

func TestSaveOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")

	ds := New(zap.NewNop())
	inc := ds.AddIncrement("increment_0")
	arr, err := ndarray.New([]int{1, 3, 3}, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(t, err)
	inc.SetField("P", arr)

	require.NoError(t, ds.Save(path))

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, reopened.Increments(), 1)

	got, ok := reopened.Increments()[0].Field("P")
	require.True(t, ok)
	assert.Equal(t, []int{1, 3, 3}, got.Shape)
	assert.Equal(t, arr.Data, got.Data)

	// Capabilities survive a reopen.
	_, ok = reopened.Capability(OpAddCauchy)
	assert.True(t, ok)
}

func TestOpenRejectsMalformedDocuments(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "absent.json"), zap.NewNop())
		require.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
		_, err := Open(path, zap.NewNop())
		require.Error(t, err)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		path := filepath.Join(dir, "mismatch.json")
		doc := `{"increments":[{"name":"increment_0","fields":{"F":{"shape":[2,3,3],"data":[1,2,3]}}}]}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
		_, err := Open(path, zap.NewNop())
		require.Error(t, err)
	})

	t.Run("null field value", func(t *testing.T) {
		path := filepath.Join(dir, "null-field.json")
		doc := `{"increments":[{"name":"increment_0","fields":{"F":null}}]}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
		_, err := Open(path, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `field "F"`)
	})
}
