package pipeline

import (
	"errors"

	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/ndarray"
	"github.com/wehubfusion/Daedalus/pkg/resultstore"
)

// QuantityExtractor reads a field across all increments of a dataset and
// reduces each increment's array through an ordered transform sequence.
type QuantityExtractor struct {
	logger *zap.Logger
}

// NewQuantityExtractor creates an extractor. If logger is nil a production
// logger is used.
func NewQuantityExtractor(logger *zap.Logger) *QuantityExtractor {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &QuantityExtractor{logger: logger}
}

// Extract returns one array per increment, in increment order, with the
// transforms applied in the order given. Ranks shrink as reductions are
// applied, so an axis must be valid for the array's rank at the time its
// transform runs.
func (e *QuantityExtractor) Extract(ds *resultstore.Dataset, path string, transforms []TransformSpec) ([]*ndarray.Array, error) {
	for i := range transforms {
		if err := transforms[i].Validate(); err != nil {
			return nil, NewTransformSpecError(i, err.Error())
		}
	}

	increments := ds.Increments()
	out := make([]*ndarray.Array, 0, len(increments))

	for _, inc := range increments {
		arr, ok := inc.Field(path)
		if !ok {
			return nil, NewFieldNotFoundError(path, inc.Name())
		}

		// Transforms never touch the stored array.
		current := arr.Clone()
		for _, transform := range transforms {
			reduced, err := applyTransform(current, transform)
			if err != nil {
				return nil, err
			}
			current = reduced
		}
		out = append(out, current)
	}

	e.logger.Debug("Extracted quantity",
		zap.String("path", path),
		zap.Int("increments", len(out)),
		zap.Int("transforms", len(transforms)))

	return out, nil
}

func applyTransform(arr *ndarray.Array, transform TransformSpec) (*ndarray.Array, error) {
	switch {
	case transform.SumAlongAxes != nil:
		return reduceAxis(arr, *transform.SumAlongAxes, arr.SumAxis)
	case transform.MeanAlongAxes != nil:
		return reduceAxis(arr, *transform.MeanAlongAxes, arr.MeanAxis)
	default:
		return runScript(transform.Script, arr)
	}
}

func reduceAxis(arr *ndarray.Array, axis int, reduce func(int) (*ndarray.Array, error)) (*ndarray.Array, error) {
	out, err := reduce(axis)
	if err != nil {
		var axisErr *ndarray.AxisError
		if errors.As(err, &axisErr) {
			return nil, NewTransformAxisError(axisErr.Axis, axisErr.Rank, err)
		}
		return nil, err
	}
	return out, nil
}
