package pipeline

import (
	"errors"

	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/resultstore"
)

// ErrNoExtractions is returned when Assemble is called without extraction
// specs; a response with no entries is never meaningful to the workflow.
var ErrNoExtractions = errors.New("at least one extraction spec is required")

// OutputAssembler runs the full post-processing pass: operations first, then
// extractions, producing the volume-element response.
type OutputAssembler struct {
	operations *OperationRunner
	extractor  *QuantityExtractor
	logger     *zap.Logger
}

// NewOutputAssembler creates an assembler. If logger is nil a production
// logger is used.
func NewOutputAssembler(logger *zap.Logger) *OutputAssembler {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &OutputAssembler{
		operations: NewOperationRunner(logger),
		extractor:  NewQuantityExtractor(logger),
		logger:     logger,
	}
}

// Assemble applies the operations (which may be empty) and then runs every
// extraction in order, collecting results under their spec names. Duplicate
// names overwrite earlier entries; last writer wins. The first error aborts
// the pass: the dataset keeps whatever operations were already applied, and
// no partial response is returned.
func (a *OutputAssembler) Assemble(
	ds *resultstore.Dataset,
	operations []OperationSpec,
	extractions []ExtractionSpec,
) (Response, error) {
	if len(extractions) == 0 {
		return nil, ErrNoExtractions
	}

	if err := a.operations.Apply(ds, operations); err != nil {
		return nil, err
	}

	response := make(Response, len(extractions))
	for _, spec := range extractions {
		arrays, err := a.extractor.Extract(ds, spec.Path, spec.Transforms)
		if err != nil {
			return nil, err
		}
		response[spec.Name] = arrays
	}

	a.logger.Info("Assembled volume element response",
		zap.Int("operations", len(operations)),
		zap.Int("extractions", len(extractions)),
		zap.Int("quantities", len(response)))

	return response, nil
}
