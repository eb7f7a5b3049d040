// Package message defines the task envelope exchanged with the workflow host
// over JetStream. A task asks for one post-processing pass: open the result
// store at a path, apply derived-field operations, extract incremental data.
package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/wehubfusion/Daedalus/pkg/pipeline"
)

// Workflow identifies the workflow execution a task belongs to.
type Workflow struct {
	WorkflowID string `json:"workflowId"`
	RunID      string `json:"runId"`
}

// Task is the configuration document for one post-processing pass. Field
// names follow the workflow configuration format.
type Task struct {
	// StorePath locates the result store produced by the solver run.
	StorePath string `json:"store_path"`

	// Operations are applied to the store in order before extraction.
	// Optional; defaults to none.
	Operations []pipeline.OperationSpec `json:"operations,omitempty"`

	// IncrementalData names the quantities to extract. Required, non-empty.
	IncrementalData []pipeline.ExtractionSpec `json:"incremental_data"`
}

// Validate checks the task configuration before any store access happens.
func (t *Task) Validate() error {
	if t.StorePath == "" {
		return fmt.Errorf("store_path is required")
	}
	if len(t.IncrementalData) == 0 {
		return fmt.Errorf("incremental_data must contain at least one extraction")
	}
	for i, spec := range t.IncrementalData {
		if spec.Name == "" {
			return fmt.Errorf("incremental_data[%d]: name is required", i)
		}
		if spec.Path == "" {
			return fmt.Errorf("incremental_data[%d]: path is required", i)
		}
	}
	for i, op := range t.Operations {
		if op.Name == "" {
			return fmt.Errorf("operations[%d]: name is required", i)
		}
	}
	return nil
}

// Message is the JetStream envelope around a task. All messages are
// serialized to JSON for transmission and carry timestamps.
type Message struct {
	// CorrelationID tracks related messages across the system.
	CorrelationID string `json:"correlationId,omitempty"`

	// Workflow contains workflow execution information.
	Workflow *Workflow `json:"workflow,omitempty"`

	// Task contains the post-processing configuration.
	Task *Task `json:"task,omitempty"`

	// Metadata holds additional key-value pairs for the message.
	Metadata map[string]string `json:"metadata,omitempty"`

	// CreatedAt is the timestamp when the message was created.
	CreatedAt string `json:"createdAt"`

	// UpdatedAt is the timestamp when the message was last updated.
	UpdatedAt string `json:"updatedAt"`

	// natsMsg holds the original NATS message for acknowledgment (not
	// serialized).
	natsMsg *nats.Msg
}

// NewMessage creates an empty message with timestamps.
func NewMessage() *Message {
	now := time.Now().Format(time.RFC3339)
	return &Message{
		Metadata:  make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTaskMessage creates a message carrying a task for a workflow execution.
func NewTaskMessage(workflowID, runID string, task *Task) *Message {
	msg := NewMessage()
	msg.Workflow = &Workflow{WorkflowID: workflowID, RunID: runID}
	msg.Task = task
	return msg
}

// WithCorrelationID sets the correlation ID for the message.
func (m *Message) WithCorrelationID(correlationID string) *Message {
	m.CorrelationID = correlationID
	m.UpdatedAt = time.Now().Format(time.RFC3339)
	return m
}

// WithMetadata adds a metadata entry to the message.
func (m *Message) WithMetadata(key, value string) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
	m.UpdatedAt = time.Now().Format(time.RFC3339)
	return m
}

// Marshal serializes the message to JSON.
func (m *Message) Marshal() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}

// Unmarshal deserializes a message from JSON.
func Unmarshal(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &msg, nil
}

// FromNATS deserializes a message from a NATS message and retains the
// original for acknowledgment.
func FromNATS(natsMsg *nats.Msg) (*Message, error) {
	msg, err := Unmarshal(natsMsg.Data)
	if err != nil {
		return nil, err
	}
	msg.natsMsg = natsMsg
	return msg, nil
}

// NATSMsg returns the underlying NATS message, if the message was received
// from a subscription.
func (m *Message) NATSMsg() *nats.Msg {
	return m.natsMsg
}

// Ack acknowledges the underlying NATS message.
func (m *Message) Ack() error {
	if m.natsMsg == nil {
		return fmt.Errorf("message has no underlying NATS message")
	}
	return m.natsMsg.Ack()
}

// Nak negatively acknowledges the underlying NATS message, requesting
// redelivery.
func (m *Message) Nak() error {
	if m.natsMsg == nil {
		return fmt.Errorf("message has no underlying NATS message")
	}
	return m.natsMsg.Nak()
}
