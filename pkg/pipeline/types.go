// Package pipeline turns a solver result dataset into the structured output a
// workflow step hands to its successors. A pipeline invocation is a single
// linear pass: derived-field operations are applied to the dataset in order,
// then named extractions read fields across all increments and reduce them.
package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/wehubfusion/Daedalus/pkg/ndarray"
)

// OperationSpec names a derived-field operation to apply to the dataset.
// Args are forwarded to the operation as named parameters; Opts control
// pipeline-level behavior the store does not know about (currently only
// "add_Mises").
type OperationSpec struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
	Opts map[string]interface{} `json:"opts,omitempty"`
}

// TransformSpec is one dimensional-reduction step applied to a per-increment
// array. Exactly one directive must be set.
type TransformSpec struct {
	// SumAlongAxes sums the array along the given axis, removing it.
	SumAlongAxes *int `json:"sum_along_axes,omitempty"`

	// MeanAlongAxes averages the array along the given axis, removing it.
	MeanAlongAxes *int `json:"mean_along_axes,omitempty"`

	// Script is a sandboxed JavaScript expression evaluated against the
	// array. The program sees the globals "data" (flat numbers) and "shape"
	// and must produce a number or an array of numbers.
	Script string `json:"script,omitempty"`
}

// Validate checks that the spec carries exactly one directive.
func (s *TransformSpec) Validate() error {
	count := 0
	if s.SumAlongAxes != nil {
		count++
	}
	if s.MeanAlongAxes != nil {
		count++
	}
	if s.Script != "" {
		count++
	}
	if count != 1 {
		return fmt.Errorf("transform must set exactly one of sum_along_axes, mean_along_axes or script, got %d", count)
	}
	return nil
}

// ExtractionSpec requests one named quantity from the dataset.
type ExtractionSpec struct {
	// Name is the key under which the result appears in the response.
	Name string `json:"name"`

	// Path addresses the field to read on every increment.
	Path string `json:"path"`

	// Transforms are applied in order to each increment's array.
	Transforms []TransformSpec `json:"transforms,omitempty"`
}

// Response is the terminal artifact of a pipeline invocation: extraction name
// to one (possibly reduced) array per increment, in increment order. Duplicate
// extraction names overwrite earlier entries; last writer wins.
type Response map[string][]*ndarray.Array

// MarshalJSON keeps the response stable as a plain JSON object so downstream
// workflow steps can consume it without knowing this package's types.
func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]*ndarray.Array(r))
}
