package pipeline

import "fmt"

// OperationNotFoundError indicates that an operation name has no matching
// capability in the result store.
type OperationNotFoundError struct {
	Name string
}

func (e *OperationNotFoundError) Error() string {
	return fmt.Sprintf("result store has no operation %q", e.Name)
}

func NewOperationNotFoundError(name string) *OperationNotFoundError {
	return &OperationNotFoundError{Name: name}
}

// UnsupportedOptionError indicates that a pipeline option was requested for
// an operation that does not support it.
type UnsupportedOptionError struct {
	Name string
	Opt  string
}

func (e *UnsupportedOptionError) Error() string {
	return fmt.Sprintf("operation %q is not compatible with option %q", e.Name, e.Opt)
}

func NewUnsupportedOptionError(name, opt string) *UnsupportedOptionError {
	return &UnsupportedOptionError{Name: name, Opt: opt}
}

// FieldNotFoundError indicates that an extraction path is absent for an
// increment.
type FieldNotFoundError struct {
	Path      string
	Increment string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field %q not found on increment %s", e.Path, e.Increment)
}

func NewFieldNotFoundError(path, increment string) *FieldNotFoundError {
	return &FieldNotFoundError{Path: path, Increment: increment}
}

// TransformAxisError indicates that a reduction transform referenced an axis
// invalid for the array's rank at the time the transform was applied.
type TransformAxisError struct {
	Axis int
	Rank int
	Err  error
}

func (e *TransformAxisError) Error() string {
	return fmt.Sprintf("transform axis %d is invalid for array of rank %d", e.Axis, e.Rank)
}

func (e *TransformAxisError) Unwrap() error { return e.Err }

func NewTransformAxisError(axis, rank int, err error) *TransformAxisError {
	return &TransformAxisError{Axis: axis, Rank: rank, Err: err}
}

// TransformSpecError indicates a malformed transform spec (none or several
// directives set).
type TransformSpecError struct {
	Index   int
	Message string
}

func (e *TransformSpecError) Error() string {
	return fmt.Sprintf("transform %d: %s", e.Index, e.Message)
}

func NewTransformSpecError(index int, message string) *TransformSpecError {
	return &TransformSpecError{Index: index, Message: message}
}

// ScriptError indicates that a script transform failed to compile, run, or
// produce a numeric result.
type ScriptError struct {
	Message string
	Err     error
}

func (e *ScriptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("script transform: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("script transform: %s", e.Message)
}

func (e *ScriptError) Unwrap() error { return e.Err }

func NewScriptError(message string, err error) *ScriptError {
	return &ScriptError{Message: message, Err: err}
}
