package pipeline

import (
	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/resultstore"
)

// OperationRunner applies an ordered list of derived-field operations to a
// dataset. It holds no state between invocations.
type OperationRunner struct {
	logger *zap.Logger
}

// NewOperationRunner creates an operation runner. If logger is nil a
// production logger is used.
func NewOperationRunner(logger *zap.Logger) *OperationRunner {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &OperationRunner{logger: logger}
}

// Apply executes the operations in the exact order given, for side effect
// only. Later operations may depend on fields created by earlier ones, so the
// first failure aborts immediately; operations already applied stay applied.
func (r *OperationRunner) Apply(ds *resultstore.Dataset, operations []OperationSpec) error {
	for _, spec := range operations {
		op, ok := ds.Capability(spec.Name)
		if !ok {
			return NewOperationNotFoundError(spec.Name)
		}

		r.logger.Debug("Applying operation", zap.String("operation", spec.Name))
		if err := op.Apply(ds, spec.Args); err != nil {
			return err
		}

		if !optTruthy(spec.Opts["add_Mises"]) {
			continue
		}

		label, err := equivalentLabel(spec)
		if err != nil {
			return err
		}

		mises, ok := ds.Capability(resultstore.OpAddMises)
		if !ok {
			return NewOperationNotFoundError(resultstore.OpAddMises)
		}

		r.logger.Debug("Deriving von-Mises equivalent",
			zap.String("operation", spec.Name),
			zap.String("field", label))
		if err := mises.Apply(ds, map[string]interface{}{"x": label}); err != nil {
			return err
		}
	}

	return nil
}
