package runner

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/message"
	"github.com/wehubfusion/Daedalus/pkg/pipeline"
	"github.com/wehubfusion/Daedalus/pkg/resultstore"
	"github.com/wehubfusion/Daedalus/pkg/storage"
)

// TaskProcessor runs a post-processing task end to end: open the result
// store, assemble the volume-element response, and persist it. The response
// client is optional; without one the response is computed but not stored.
type TaskProcessor struct {
	assembler *pipeline.OutputAssembler
	responses *storage.ResponseFileClient
	logger    *zap.Logger
}

// NewTaskProcessor creates a processor. If logger is nil a production logger
// is used.
func NewTaskProcessor(responses *storage.ResponseFileClient, logger *zap.Logger) *TaskProcessor {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &TaskProcessor{
		assembler: pipeline.NewOutputAssembler(logger),
		responses: responses,
		logger:    logger,
	}
}

// Process validates the task, opens the result store it names, applies the
// configured operations, extracts the incremental data, and uploads the
// response when a response client is configured.
func (p *TaskProcessor) Process(ctx context.Context, msg *message.Message) (*Result, error) {
	if msg == nil {
		return nil, fmt.Errorf("message cannot be nil")
	}
	if msg.Task == nil {
		return nil, fmt.Errorf("message has no task")
	}
	if err := msg.Task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	ds, err := resultstore.Open(msg.Task.StorePath, p.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store %q: %w", msg.Task.StorePath, err)
	}

	response, err := p.assembler.Assemble(ds, msg.Task.Operations, msg.Task.IncrementalData)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Quantities: responseQuantities(response),
		Increments: len(ds.Increments()),
	}

	if p.responses != nil && msg.Workflow != nil {
		url, err := p.responses.UploadResponse(ctx, msg.Workflow.WorkflowID, msg.Workflow.RunID, response)
		if err != nil {
			return nil, fmt.Errorf("failed to upload response: %w", err)
		}
		result.ResponseURL = url
	}

	return result, nil
}

func responseQuantities(response pipeline.Response) []string {
	names := make([]string, 0, len(response))
	for name := range response {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
