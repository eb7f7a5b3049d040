package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquivalentLabelCauchy(t *testing.T) {
	// The Cauchy label is fixed regardless of args.
	specs := []OperationSpec{
		{Name: "add_Cauchy"},
		{Name: "add_Cauchy", Args: map[string]interface{}{"P": "Pp", "F": "Fp"}},
	}
	for _, spec := range specs {
		label, err := equivalentLabel(spec)
		require.NoError(t, err)
		assert.Equal(t, "sigma", label)
	}
}

func TestEquivalentLabelStrainTensor(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{name: "all defaults", args: nil, want: "epsilon_U^0(F)"},
		{name: "empty args", args: map[string]interface{}{}, want: "epsilon_U^0(F)"},
		{name: "left stretch", args: map[string]interface{}{"t": "V"}, want: "epsilon_V^0(F)"},
		{name: "order from json number", args: map[string]interface{}{"m": float64(1)}, want: "epsilon_U^1(F)"},
		{name: "fractional order", args: map[string]interface{}{"m": 0.5}, want: "epsilon_U^0.5(F)"},
		{name: "custom gradient", args: map[string]interface{}{"F": "Fe"}, want: "epsilon_U^0(Fe)"},
		{
			name: "all overridden",
			args: map[string]interface{}{"t": "V", "m": float64(2), "F": "Fp"},
			want: "epsilon_V^2(Fp)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, err := equivalentLabel(OperationSpec{Name: "add_strain_tensor", Args: tt.args})
			require.NoError(t, err)
			assert.Equal(t, tt.want, label)
		})
	}
}

func TestEquivalentLabelUnsupportedOperation(t *testing.T) {
	_, err := equivalentLabel(OperationSpec{Name: "add_IPF_color"})

	var unsupported *UnsupportedOptionError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "add_IPF_color", unsupported.Name)
	assert.Equal(t, "add_Mises", unsupported.Opt)
}

func TestOptTruthy(t *testing.T) {
	truthy := []interface{}{
		true,
		1.0,
		-1,
		"yes",
		map[string]interface{}{"k": "v"},
		[]interface{}{1},
	}
	for _, v := range truthy {
		assert.True(t, optTruthy(v), "%#v should be truthy", v)
	}

	falsy := []interface{}{
		nil,
		false,
		0.0,
		0,
		"",
		map[string]interface{}{},
		[]interface{}{},
	}
	for _, v := range falsy {
		assert.False(t, optTruthy(v), "%#v should be falsy", v)
	}
}
