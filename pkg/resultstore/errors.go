package resultstore

import "fmt"

// FieldMissingError indicates that an operation required a field that is not
// present on an increment.
type FieldMissingError struct {
	Path      string
	Increment string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("increment %s: field %q not found", e.Increment, e.Path)
}

func NewFieldMissingError(path, increment string) *FieldMissingError {
	return &FieldMissingError{Path: path, Increment: increment}
}

// ShapeError indicates that a field's array does not have the shape an
// operation expects.
type ShapeError struct {
	Path    string
	Shape   []int
	Message string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("field %q has shape %v: %s", e.Path, e.Shape, e.Message)
}

func NewShapeError(path string, shape []int, message string) *ShapeError {
	return &ShapeError{Path: path, Shape: shape, Message: message}
}

// ArgumentError indicates an invalid or missing operation argument.
type ArgumentError struct {
	Operation string
	Argument  string
	Message   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("operation %s: argument %q: %s", e.Operation, e.Argument, e.Message)
}

func NewArgumentError(operation, argument, message string) *ArgumentError {
	return &ArgumentError{Operation: operation, Argument: argument, Message: message}
}
