package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/pipeline"
)

// ResponseFileClient persists assembled volume-element responses for a
// workflow run and retrieves them for downstream steps.
type ResponseFileClient struct {
	blobClient BlobStorageClient
	logger     *zap.Logger
	mu         sync.Mutex
}

// NewResponseFileClient creates a response file client. If logger is nil a
// production logger is used.
func NewResponseFileClient(blobClient BlobStorageClient, logger *zap.Logger) *ResponseFileClient {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &ResponseFileClient{
		blobClient: blobClient,
		logger:     logger,
	}
}

// ResponseFilePath returns the standard blob path for a run's response.
func ResponseFilePath(workflowID, runID string) string {
	return fmt.Sprintf("responses/%s/%s/volume_element_response.json", workflowID, runID)
}

// UploadResponse serializes and stores the response, returning the blob URL.
func (c *ResponseFileClient) UploadResponse(
	ctx context.Context,
	workflowID string,
	runID string,
	response pipeline.Response,
) (string, error) {
	if c.blobClient == nil {
		return "", fmt.Errorf("blob client not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	blobPath := ResponseFilePath(workflowID, runID)

	data, err := json.Marshal(response)
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}

	blobURL, err := c.blobClient.Upload(ctx, blobPath, data, map[string]string{
		"workflow_id":   workflowID,
		"run_id":        runID,
		"quantities":    fmt.Sprintf("%d", len(response)),
		"last_modified": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload response file: %w", err)
	}

	c.logger.Info("Stored volume element response",
		zap.String("workflow_id", workflowID),
		zap.String("run_id", runID),
		zap.Int("quantities", len(response)),
		zap.Int("size_bytes", len(data)))

	return blobURL, nil
}

// GetResponse downloads and parses a run's response.
func (c *ResponseFileClient) GetResponse(
	ctx context.Context,
	workflowID string,
	runID string,
) (pipeline.Response, error) {
	if c.blobClient == nil {
		return nil, fmt.Errorf("blob client not initialized")
	}

	data, err := c.blobClient.Download(ctx, ResponseFilePath(workflowID, runID))
	if err != nil {
		return nil, fmt.Errorf("failed to download response file: %w", err)
	}

	var response pipeline.Response
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response file: %w", err)
	}

	return response, nil
}

// GetQuantity retrieves one named quantity from a run's response.
func (c *ResponseFileClient) GetQuantity(
	ctx context.Context,
	workflowID string,
	runID string,
	name string,
) ([]json.RawMessage, error) {
	if c.blobClient == nil {
		return nil, fmt.Errorf("blob client not initialized")
	}

	data, err := c.blobClient.Download(ctx, ResponseFilePath(workflowID, runID))
	if err != nil {
		return nil, fmt.Errorf("failed to download response file: %w", err)
	}

	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response file: %w", err)
	}

	quantity, exists := raw[name]
	if !exists {
		return nil, fmt.Errorf("quantity not found: %s", name)
	}
	return quantity, nil
}
