// Package resultstore implements a hierarchical per-increment simulation
// dataset together with the registry of derived-field operations that can be
// applied to it. Each increment is one solver time step; fields are named
// numeric arrays addressed by a string path. Solver output is loaded from a
// JSON document; derived fields are added in memory by operations.
package resultstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/ndarray"
)

// Increment is one time-step snapshot inside a dataset. Fields written by the
// solver are immutable by convention; operations attach new fields.
type Increment struct {
	name   string
	fields map[string]*ndarray.Array
}

// Name returns the increment's label (e.g. "increment_12").
func (inc *Increment) Name() string { return inc.name }

// Field returns the array stored at the given path, if present.
func (inc *Increment) Field(path string) (*ndarray.Array, bool) {
	arr, ok := inc.fields[path]
	return arr, ok
}

// SetField attaches an array at the given path. Writing to an existing path
// overwrites the previous array; last write wins.
func (inc *Increment) SetField(path string, arr *ndarray.Array) {
	inc.fields[path] = arr
}

// FieldPaths returns the sorted field paths present on this increment.
func (inc *Increment) FieldPaths() []string {
	paths := make([]string, 0, len(inc.fields))
	for path := range inc.fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Dataset is an ordered collection of increments plus the capability registry
// of derived-field operations. A dataset must not be shared across concurrent
// pipeline invocations; the caller owns it for the duration of one call.
type Dataset struct {
	increments []*Increment
	registry   *Registry
	logger     *zap.Logger
}

// New creates an empty in-memory dataset with the built-in operations
// registered. If logger is nil a production logger is used.
func New(logger *zap.Logger) *Dataset {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &Dataset{
		registry: NewRegistry(),
		logger:   logger,
	}
}

// incrementDocument is the on-disk form of one increment.
type incrementDocument struct {
	Name   string                    `json:"name"`
	Fields map[string]*ndarray.Array `json:"fields"`
}

// datasetDocument is the on-disk form of a dataset.
type datasetDocument struct {
	Increments []incrementDocument `json:"increments"`
}

// Open loads a dataset from a JSON document at the given path.
func Open(path string, logger *zap.Logger) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var doc datasetDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse dataset file %s: %w", path, err)
	}

	ds := New(logger)
	for _, incDoc := range doc.Increments {
		inc := ds.AddIncrement(incDoc.Name)
		for fieldPath, arr := range incDoc.Fields {
			if arr == nil {
				return nil, fmt.Errorf("increment %s, field %q: null array value", incDoc.Name, fieldPath)
			}
			validated, err := ndarray.New(arr.Shape, arr.Data)
			if err != nil {
				return nil, fmt.Errorf("increment %s, field %q: %w", incDoc.Name, fieldPath, err)
			}
			inc.SetField(fieldPath, validated)
		}
	}

	ds.logger.Info("Opened result dataset",
		zap.String("path", path),
		zap.Int("increments", len(ds.increments)))

	return ds, nil
}

// Save writes the dataset, including any derived fields, as a JSON document.
func (ds *Dataset) Save(path string) error {
	doc := datasetDocument{Increments: make([]incrementDocument, 0, len(ds.increments))}
	for _, inc := range ds.increments {
		doc.Increments = append(doc.Increments, incrementDocument{
			Name:   inc.name,
			Fields: inc.fields,
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write dataset file: %w", err)
	}

	ds.logger.Info("Saved result dataset",
		zap.String("path", path),
		zap.Int("increments", len(doc.Increments)))

	return nil
}

// AddIncrement appends a new empty increment and returns it.
func (ds *Dataset) AddIncrement(name string) *Increment {
	inc := &Increment{
		name:   name,
		fields: make(map[string]*ndarray.Array),
	}
	ds.increments = append(ds.increments, inc)
	return inc
}

// Increments returns the increments in solver order.
func (ds *Dataset) Increments() []*Increment {
	return ds.increments
}

// Capability resolves an operation name against the dataset's registry.
func (ds *Dataset) Capability(name string) (Operation, bool) {
	return ds.registry.Lookup(name)
}

// Capabilities returns the sorted names of all registered operations.
func (ds *Dataset) Capabilities() []string {
	return ds.registry.Names()
}

// setDerivedField writes a derived field on an increment, logging overwrites.
func (ds *Dataset) setDerivedField(inc *Increment, path string, arr *ndarray.Array) {
	if _, exists := inc.Field(path); exists {
		ds.logger.Debug("Overwriting existing derived field",
			zap.String("increment", inc.name),
			zap.String("path", path))
	}
	inc.SetField(path, arr)
}
