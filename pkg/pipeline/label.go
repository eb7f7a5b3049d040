package pipeline

import "github.com/wehubfusion/Daedalus/pkg/resultstore"

// equivalentLabel derives the field label the add_Mises post-step targets for
// a given operation. Only Cauchy stress and strain tensors have a defined
// von-Mises equivalent.
func equivalentLabel(op OperationSpec) (string, error) {
	switch op.Name {
	case resultstore.OpAddCauchy:
		return "sigma", nil

	case resultstore.OpAddStrainTensor:
		// Mirror the defaults of add_strain_tensor so the label matches the
		// field the operation just created.
		t := stringArgOr(op.Args, "t", "U")
		m := numberArgOr(op.Args, "m", 0)
		f := stringArgOr(op.Args, "F", "F")
		return resultstore.StrainLabel(t, m, f), nil

	default:
		return "", NewUnsupportedOptionError(op.Name, "add_Mises")
	}
}

func stringArgOr(args map[string]interface{}, key, fallback string) string {
	if raw, ok := args[key]; ok {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return fallback
}

func numberArgOr(args map[string]interface{}, key string, fallback float64) float64 {
	if raw, ok := args[key]; ok {
		switch v := raw.(type) {
		case float64:
			return v
		case float32:
			return float64(v)
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}
	return fallback
}

// optTruthy reports whether an option value is set in the loose sense the
// task configuration allows: booleans by value, numbers when non-zero,
// strings, maps and slices when non-empty.
func optTruthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case string:
		return val != ""
	case map[string]interface{}:
		return len(val) > 0
	case []interface{}:
		return len(val) > 0
	default:
		return true
	}
}
