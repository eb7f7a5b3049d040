// Package runner consumes post-processing tasks from a NATS JetStream stream
// and executes them with a configurable worker pool. Each task is processed
// once, its outcome is published to the result subject, and the message is
// acked or naked accordingly.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/internal/tracing"
	"github.com/wehubfusion/Daedalus/pkg/message"
)

// Processor executes the business logic for a single task message.
type Processor interface {
	Process(ctx context.Context, msg *message.Message) (*Result, error)
}

// Result summarizes a successfully processed task.
type Result struct {
	// ResponseURL locates the stored volume-element response, when the
	// processor persisted one.
	ResponseURL string `json:"responseUrl,omitempty"`

	// Quantities are the extraction names present in the response.
	Quantities []string `json:"quantities"`

	// Increments is the number of increments each quantity covers.
	Increments int `json:"increments"`
}

// Report is the payload published to the result subject for every task.
type Report struct {
	ReportID      string  `json:"reportId"`
	Status        string  `json:"status"` // "success" or "failed"
	WorkflowID    string  `json:"workflowId,omitempty"`
	RunID         string  `json:"runId,omitempty"`
	CorrelationID string  `json:"correlationId,omitempty"`
	Result        *Result `json:"result,omitempty"`
	Error         string  `json:"error,omitempty"`
	CompletedAt   string  `json:"completedAt"`
}

// Config holds stream and worker-pool settings for a Runner.
type Config struct {
	// Stream is the JetStream stream tasks are pulled from.
	Stream string

	// Consumer is the durable consumer name.
	Consumer string

	// Subject is the subject tasks are published on. Defaults to
	// "<stream>.tasks".
	Subject string

	// ResultSubject receives success and failure reports. Defaults to
	// "<stream>.results".
	ResultSubject string

	// BatchSize is how many messages to pull at once.
	BatchSize int

	// NumWorkers is the number of processing goroutines.
	NumWorkers int

	// ProcessTimeout bounds the processing of a single task.
	ProcessTimeout time.Duration
}

// Runner manages concurrent task processing from a JetStream consumer.
type Runner struct {
	js              nats.JetStreamContext
	processor       Processor
	config          Config
	logger          *zap.Logger
	tracingShutdown func(context.Context) error
}

// NewRunner creates a runner over a JetStream context. The stream and
// durable consumer are created if they do not exist. tracingConfig is
// optional; when provided, tracing is set up and torn down with the runner.
func NewRunner(js nats.JetStreamContext, processor Processor, config Config, logger *zap.Logger, tracingConfig *tracing.Config) (*Runner, error) {
	if js == nil {
		return nil, errors.New("JetStream context cannot be nil")
	}
	if processor == nil {
		return nil, errors.New("processor cannot be nil")
	}
	if config.Stream == "" {
		return nil, errors.New("stream name cannot be empty")
	}
	if config.Consumer == "" {
		return nil, errors.New("consumer name cannot be empty")
	}
	if config.BatchSize <= 0 {
		return nil, errors.New("batch size must be greater than 0")
	}
	if config.NumWorkers <= 0 {
		return nil, errors.New("number of workers must be greater than 0")
	}
	if config.ProcessTimeout <= 0 {
		return nil, errors.New("process timeout must be greater than 0")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if config.Subject == "" {
		config.Subject = config.Stream + ".tasks"
	}
	if config.ResultSubject == "" {
		config.ResultSubject = config.Stream + ".results"
	}

	if err := ensureStream(js, config.Stream, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure stream %q exists: %w", config.Stream, err)
	}

	runner := &Runner{
		js:        js,
		processor: processor,
		config:    config,
		logger:    logger,
	}

	if tracingConfig != nil {
		shutdown, err := tracing.Setup(context.Background(), *tracingConfig, logger)
		if err != nil {
			logger.Warn("Failed to setup tracing, continuing without tracing", zap.Error(err))
		} else {
			runner.tracingShutdown = shutdown
			logger.Info("Tracing setup complete",
				zap.String("service", tracingConfig.ServiceName),
				zap.String("endpoint", tracingConfig.OTLPEndpoint))
		}
	}

	return runner, nil
}

// ensureStream creates the JetStream stream if it doesn't exist.
func ensureStream(js nats.JetStreamContext, streamName string, logger *zap.Logger) error {
	info, err := js.StreamInfo(streamName)
	if err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return fmt.Errorf("failed to get stream info for %q: %w", streamName, err)
		}

		logger.Info("Creating JetStream stream", zap.String("stream", streamName))
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{fmt.Sprintf("%s.*", streamName)},
			Storage:  nats.FileStorage,
			MaxAge:   24 * time.Hour,
			MaxMsgs:  100000,
			Replicas: 1,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %q: %w", streamName, err)
		}
		return nil
	}

	logger.Info("JetStream stream already exists",
		zap.String("stream", streamName),
		zap.Uint64("messages", info.State.Msgs),
		zap.Int("consumers", info.State.Consumers))
	return nil
}

// Close shuts down the runner's tracing provider, if one was set up.
func (r *Runner) Close() error {
	if r.tracingShutdown != nil {
		return tracing.Shutdown(r.tracingShutdown, r.logger)
	}
	return nil
}

// Run starts the task processing loop. It blocks until the context is
// cancelled and all workers have drained.
func (r *Runner) Run(ctx context.Context) error {
	sub, err := r.js.PullSubscribe(r.config.Subject, r.config.Consumer, nats.BindStream(r.config.Stream))
	if err != nil {
		return fmt.Errorf("failed to subscribe to %q: %w", r.config.Subject, err)
	}
	defer func() {
		if err := sub.Drain(); err != nil {
			r.logger.Warn("Error draining subscription", zap.Error(err))
		}
	}()

	taskChan := make(chan *message.Message, r.config.BatchSize)

	var wg sync.WaitGroup
	for i := 0; i < r.config.NumWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r.worker(ctx, workerID, taskChan)
		}(i)
	}

	go func() {
		defer close(taskChan)
		r.pull(ctx, sub, taskChan)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()

	select {
	case <-done:
		r.logger.Info("Runner completed")
		return nil
	case <-ctx.Done():
		r.logger.Info("Runner stopped due to context cancellation")
		<-done
		return ctx.Err()
	}
}

// pull fetches task batches and feeds the worker pool, backing off on errors.
func (r *Runner) pull(ctx context.Context, sub *nats.Subscription, taskChan chan<- *message.Message) {
	backoffDelay := 100 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Shutting down task puller")
			return
		default:
		}

		msgs, err := sub.Fetch(r.config.BatchSize, nats.MaxWait(500*time.Millisecond))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			r.logger.Error("Error fetching tasks", zap.Error(err))
			select {
			case <-time.After(backoffDelay):
			case <-ctx.Done():
				return
			}
			if backoffDelay < maxBackoff {
				backoffDelay *= 2
			}
			continue
		}
		backoffDelay = 100 * time.Millisecond

		for _, natsMsg := range msgs {
			msg, err := message.FromNATS(natsMsg)
			if err != nil {
				r.logger.Error("Discarding undecodable task message", zap.Error(err))
				if ackErr := natsMsg.Term(); ackErr != nil {
					r.logger.Warn("Error terminating bad message", zap.Error(ackErr))
				}
				continue
			}

			select {
			case taskChan <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

// worker processes tasks from the channel until it is closed.
func (r *Runner) worker(ctx context.Context, workerID int, taskChan <-chan *message.Message) {
	r.logger.Info("Worker started", zap.Int("workerID", workerID))
	defer r.logger.Info("Worker stopped", zap.Int("workerID", workerID))

	for {
		select {
		case msg, ok := <-taskChan:
			if !ok {
				return
			}
			r.processTask(ctx, workerID, msg)
		case <-ctx.Done():
			return
		}
	}
}

// processTask runs one task through the processor, reports the outcome, and
// acknowledges the message.
func (r *Runner) processTask(ctx context.Context, workerID int, msg *message.Message) {
	var workflowID, runID string
	if msg.Workflow != nil {
		workflowID = msg.Workflow.WorkflowID
		runID = msg.Workflow.RunID
	}

	tracer := otel.Tracer("daedalus/runner")
	ctx, span := tracer.Start(ctx, "runner.processTask", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.Int("worker.id", workerID),
		attribute.String("workflow.id", workflowID),
		attribute.String("workflow.run_id", runID),
		attribute.String("stream", r.config.Stream),
	)
	defer span.End()

	processCtx, cancel := context.WithTimeout(ctx, r.config.ProcessTimeout)
	defer cancel()

	start := time.Now()
	r.logger.Info("Processing task",
		zap.Int("workerID", workerID),
		zap.String("workflowID", workflowID),
		zap.String("runID", runID))

	result, processErr := r.processor.Process(processCtx, msg)
	processingTime := time.Since(start)
	span.SetAttributes(attribute.Int64("processing.duration_ms", processingTime.Milliseconds()))

	if processErr != nil {
		span.RecordError(processErr)
		span.SetStatus(codes.Error, processErr.Error())

		r.logger.Error("Task processing failed",
			zap.Int("workerID", workerID),
			zap.Duration("processingTime", processingTime),
			zap.String("workflowID", workflowID),
			zap.String("runID", runID),
			zap.Error(processErr))

		r.report(&Report{
			ReportID:      uuid.NewString(),
			Status:        "failed",
			WorkflowID:    workflowID,
			RunID:         runID,
			CorrelationID: msg.CorrelationID,
			Error:         processErr.Error(),
			CompletedAt:   time.Now().Format(time.RFC3339),
		})

		if nakErr := msg.Nak(); nakErr != nil {
			r.logger.Error("Error naking failed task", zap.Int("workerID", workerID), zap.Error(nakErr))
		}
		return
	}

	span.SetStatus(codes.Ok, "Task processed successfully")
	if result != nil {
		span.SetAttributes(attribute.Int("result.quantities", len(result.Quantities)))
	}

	r.logger.Info("Task processed",
		zap.Int("workerID", workerID),
		zap.String("workflowID", workflowID),
		zap.String("runID", runID),
		zap.Duration("processingTime", processingTime))

	r.report(&Report{
		ReportID:      uuid.NewString(),
		Status:        "success",
		WorkflowID:    workflowID,
		RunID:         runID,
		CorrelationID: msg.CorrelationID,
		Result:        result,
		CompletedAt:   time.Now().Format(time.RFC3339),
	})

	if ackErr := msg.Ack(); ackErr != nil {
		r.logger.Error("Error acking task", zap.Int("workerID", workerID), zap.Error(ackErr))
	}
}

// report publishes a task outcome to the result subject. Reporting failures
// are logged but never fail the task itself.
func (r *Runner) report(report *Report) {
	data, err := json.Marshal(report)
	if err != nil {
		r.logger.Error("Failed to marshal report", zap.Error(err))
		return
	}
	if _, err := r.js.Publish(r.config.ResultSubject, data); err != nil {
		r.logger.Error("Failed to publish report",
			zap.String("subject", r.config.ResultSubject),
			zap.String("status", report.Status),
			zap.Error(err))
	}
}
