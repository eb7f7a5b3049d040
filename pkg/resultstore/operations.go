package resultstore

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/ndarray"
)

// Operation names exposed through the capability registry.
const (
	OpAddCauchy       = "add_Cauchy"
	OpAddStrainTensor = "add_strain_tensor"
	OpAddMises        = "add_Mises"
)

// Operation is a named derived-field computation that mutates a dataset by
// attaching new fields computed from existing ones. Arguments arrive as named
// parameters deserialized from the task configuration.
type Operation interface {
	Name() string
	Apply(ds *Dataset, args map[string]interface{}) error
}

// Registry maps operation names to a closed, enumerated set of operations.
// Unknown names resolve to nothing; they never reach a dynamic dispatch path.
type Registry struct {
	operations map[string]Operation
}

// NewRegistry creates a registry with all built-in operations registered.
func NewRegistry() *Registry {
	r := &Registry{operations: make(map[string]Operation)}
	r.Register(&AddCauchy{})
	r.Register(&AddStrainTensor{})
	r.Register(&AddMises{})
	return r
}

// Register adds an operation under its name.
func (r *Registry) Register(op Operation) {
	r.operations[op.Name()] = op
}

// Lookup resolves an operation by name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	op, ok := r.operations[name]
	return op, ok
}

// Names returns all registered operation names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.operations))
	for name := range r.operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StrainLabel returns the field label produced by add_strain_tensor for the
// given parameters, e.g. "epsilon_U^0(F)".
func StrainLabel(t string, m float64, f string) string {
	return fmt.Sprintf("epsilon_%s^%s(%s)", t, formatOrder(m), f)
}

// MisesSuffix is appended to a field label by add_Mises.
const MisesSuffix = "_vM"

// formatOrder renders the strain order the way it appears in labels: integral
// values without a decimal part ("0", "1"), fractional ones as-is ("0.5").
func formatOrder(m float64) string {
	if m == math.Trunc(m) {
		return fmt.Sprintf("%d", int64(m))
	}
	return fmt.Sprintf("%g", m)
}

// stringArg extracts a string argument, falling back to a default when absent.
func stringArg(op string, args map[string]interface{}, key, fallback string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", NewArgumentError(op, key, fmt.Sprintf("expected string, got %T", raw))
	}
	return s, nil
}

// numberArg extracts a numeric argument, falling back to a default when
// absent. JSON numbers arrive as float64; int is accepted for callers that
// build args in code.
func numberArg(op string, args map[string]interface{}, key string, fallback float64) (float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, NewArgumentError(op, key, fmt.Sprintf("expected number, got %T", raw))
	}
}

// tensorField reads a field and checks it is a (n,3,3) tensor field,
// returning the array and the number of material points.
func tensorField(inc *Increment, path string) (*ndarray.Array, int, error) {
	arr, ok := inc.Field(path)
	if !ok {
		return nil, 0, NewFieldMissingError(path, inc.Name())
	}
	if arr.Rank() != 3 || arr.Shape[1] != 3 || arr.Shape[2] != 3 {
		return nil, 0, NewShapeError(path, arr.Shape, "expected a (n,3,3) tensor field")
	}
	return arr, arr.Shape[0], nil
}

// pointMatrix reads the 3x3 matrix of material point p from a (n,3,3) field.
func pointMatrix(arr *ndarray.Array, p int) mat3 {
	var m mat3
	base := p * 9
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = arr.Data[base+i*3+j]
		}
	}
	return m
}

// setPointMatrix writes the 3x3 matrix of material point p into a (n,3,3)
// field.
func setPointMatrix(arr *ndarray.Array, p int, m mat3) {
	base := p * 9
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			arr.Data[base+i*3+j] = m[i][j]
		}
	}
}

// AddCauchy computes the Cauchy stress from the first Piola-Kirchhoff stress
// and the deformation gradient: sigma = det(F)^-1 P F^T, per material point.
// It creates the field "sigma" on every increment.
type AddCauchy struct{}

func (*AddCauchy) Name() string { return OpAddCauchy }

func (op *AddCauchy) Apply(ds *Dataset, args map[string]interface{}) error {
	pPath, err := stringArg(op.Name(), args, "P", "P")
	if err != nil {
		return err
	}
	fPath, err := stringArg(op.Name(), args, "F", "F")
	if err != nil {
		return err
	}

	for _, inc := range ds.Increments() {
		pField, n, err := tensorField(inc, pPath)
		if err != nil {
			return err
		}
		fField, fn, err := tensorField(inc, fPath)
		if err != nil {
			return err
		}
		if fn != n {
			return NewShapeError(fPath, fField.Shape, fmt.Sprintf("point count mismatch with %q", pPath))
		}

		sigma := ndarray.Zeros(n, 3, 3)
		for p := 0; p < n; p++ {
			pk := pointMatrix(pField, p)
			f := pointMatrix(fField, p)
			det := matDet(f)
			if det == 0 {
				return NewShapeError(fPath, fField.Shape,
					fmt.Sprintf("singular deformation gradient at point %d of increment %s", p, inc.Name()))
			}
			setPointMatrix(sigma, p, matScale(matMul(pk, matTranspose(f)), 1/det))
		}
		ds.setDerivedField(inc, "sigma", sigma)
	}

	ds.logger.Debug("Applied operation", zap.String("operation", op.Name()), zap.String("field", "sigma"))
	return nil
}

// AddStrainTensor computes a Seth-Hill strain tensor from the deformation
// gradient. t selects the right ("U") or left ("V") stretch tensor; m is the
// strain order: m == 0 yields the logarithmic strain ln(U), any other m
// yields (U^2m - I) / 2m. The created field is labeled
// "epsilon_{t}^{m}({F})".
type AddStrainTensor struct{}

func (*AddStrainTensor) Name() string { return OpAddStrainTensor }

func (op *AddStrainTensor) Apply(ds *Dataset, args map[string]interface{}) error {
	fPath, err := stringArg(op.Name(), args, "F", "F")
	if err != nil {
		return err
	}
	t, err := stringArg(op.Name(), args, "t", "U")
	if err != nil {
		return err
	}
	if t != "U" && t != "V" {
		return NewArgumentError(op.Name(), "t", fmt.Sprintf("must be \"U\" or \"V\", got %q", t))
	}
	m, err := numberArg(op.Name(), args, "m", 0)
	if err != nil {
		return err
	}

	// f maps eigenvalues of C = U^2 (resp. B = V^2) to strain eigenvalues.
	strain := func(lambda float64) float64 {
		if m == 0 {
			return 0.5 * math.Log(lambda)
		}
		return (math.Pow(lambda, m) - 1) / (2 * m)
	}

	label := StrainLabel(t, m, fPath)
	for _, inc := range ds.Increments() {
		fField, n, err := tensorField(inc, fPath)
		if err != nil {
			return err
		}

		eps := ndarray.Zeros(n, 3, 3)
		for p := 0; p < n; p++ {
			f := pointMatrix(fField, p)
			var stretch2 mat3
			if t == "U" {
				stretch2 = matMul(matTranspose(f), f)
			} else {
				stretch2 = matMul(f, matTranspose(f))
			}
			setPointMatrix(eps, p, symFunc(stretch2, strain))
		}
		ds.setDerivedField(inc, label, eps)
	}

	ds.logger.Debug("Applied operation", zap.String("operation", op.Name()), zap.String("field", label))
	return nil
}

// AddMises computes the von-Mises equivalent scalar of a tensor field named
// by the required argument "x". Stress-like fields (label prefix "sigma") use
// sqrt(3/2 s:s) of the deviator, strain-like fields (prefix "epsilon") use
// sqrt(2/3 e:e). The created field is labeled "{x}_vM" with one scalar per
// material point.
type AddMises struct{}

func (*AddMises) Name() string { return OpAddMises }

func (op *AddMises) Apply(ds *Dataset, args map[string]interface{}) error {
	x, err := stringArg(op.Name(), args, "x", "")
	if err != nil {
		return err
	}
	if x == "" {
		return NewArgumentError(op.Name(), "x", "field label is required")
	}

	var factor float64
	switch {
	case strings.HasPrefix(x, "sigma"):
		factor = 1.5
	case strings.HasPrefix(x, "epsilon"):
		factor = 2.0 / 3.0
	default:
		return NewArgumentError(op.Name(), "x",
			fmt.Sprintf("cannot infer whether %q is a stress or a strain field", x))
	}

	label := x + MisesSuffix
	for _, inc := range ds.Increments() {
		field, n, err := tensorField(inc, x)
		if err != nil {
			return err
		}

		equivalent := ndarray.Zeros(n)
		for p := 0; p < n; p++ {
			dev := deviator(pointMatrix(field, p))
			equivalent.Data[p] = math.Sqrt(factor * doubleContraction(dev, dev))
		}
		ds.setDerivedField(inc, label, equivalent)
	}

	ds.logger.Debug("Applied operation", zap.String("operation", op.Name()), zap.String("field", label))
	return nil
}
