package pipeline

import (
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/wehubfusion/Daedalus/pkg/ndarray"
)

// scriptTimeout bounds a single script transform evaluation. Scripts operate
// on one increment's array and should be near-instant; the interrupt guards
// against accidental infinite loops in task configurations.
const scriptTimeout = 5 * time.Second

// runScript evaluates a JavaScript program against one increment's array.
// The program sees the globals "data" (the flat element values) and "shape",
// and its final expression must be a number or an array of numbers. The
// result becomes a rank-1 array, or a scalar for a single number.
func runScript(program string, arr *ndarray.Array) (*ndarray.Array, error) {
	vm := goja.New()
	if err := sandbox(vm); err != nil {
		return nil, NewScriptError("failed to sandbox runtime", err)
	}

	if err := vm.Set("data", arr.Data); err != nil {
		return nil, NewScriptError("failed to bind data", err)
	}
	if err := vm.Set("shape", arr.Shape); err != nil {
		return nil, NewScriptError("failed to bind shape", err)
	}

	timer := time.AfterFunc(scriptTimeout, func() {
		vm.Interrupt("script transform timed out")
	})
	defer timer.Stop()

	value, err := vm.RunString(program)
	if err != nil {
		return nil, NewScriptError("execution failed", err)
	}

	return scriptResult(value)
}

// sandbox strips runtime facilities a transform script has no business using.
func sandbox(vm *goja.Runtime) error {
	for _, name := range []string{"eval", "Function", "globalThis"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

func scriptResult(value goja.Value) (*ndarray.Array, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, NewScriptError("script produced no value", nil)
	}

	switch exported := value.Export().(type) {
	case float64:
		return ndarray.Scalar(exported), nil
	case int64:
		return ndarray.Scalar(float64(exported)), nil
	case []interface{}:
		data := make([]float64, len(exported))
		for i, item := range exported {
			switch n := item.(type) {
			case float64:
				data[i] = n
			case int64:
				data[i] = float64(n)
			default:
				return nil, NewScriptError(fmt.Sprintf("element %d is %T, expected a number", i, item), nil)
			}
		}
		if len(data) == 0 {
			return nil, NewScriptError("script produced an empty array", nil)
		}
		return ndarray.New([]int{len(data)}, data)
	case []float64:
		if len(exported) == 0 {
			return nil, NewScriptError("script produced an empty array", nil)
		}
		return ndarray.New([]int{len(exported)}, exported)
	default:
		return nil, NewScriptError(fmt.Sprintf("script produced %T, expected a number or numeric array", exported), nil)
	}
}
