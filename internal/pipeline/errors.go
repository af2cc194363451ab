package pipeline

import (
	"errors"
	"fmt"
)

// ErrorType tags where a pipeline operation failed
type ErrorType string

const (
	ErrorTypeInvalidInput   ErrorType = "invalid_input"
	ErrorTypeExtraction     ErrorType = "extraction"
	ErrorTypeClassification ErrorType = "classification"
	ErrorTypeGeneration     ErrorType = "generation"
	ErrorTypePrecondition   ErrorType = "precondition"
	ErrorTypeBusy           ErrorType = "busy"
)

// Error is a stage-tagged pipeline failure carrying the underlying service error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new pipeline error
func NewError(errType ErrorType, message string, err error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

func InvalidInputError(message string) *Error {
	return NewError(ErrorTypeInvalidInput, message, nil)
}

func ExtractionError(err error) *Error {
	return NewError(ErrorTypeExtraction, "text extraction failed", err)
}

func ClassificationError(err error) *Error {
	return NewError(ErrorTypeClassification, "classification failed", err)
}

func GenerationError(err error) *Error {
	return NewError(ErrorTypeGeneration, "generation failed", err)
}

func PreconditionError(message string) *Error {
	return NewError(ErrorTypePrecondition, message, nil)
}

func BusyError() *Error {
	return NewError(ErrorTypeBusy, "another operation is in progress", nil)
}

// TypeOf returns the tag of a pipeline error, or "" for anything else
func TypeOf(err error) ErrorType {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ""
}

// IsType reports whether err is a pipeline error of the given type
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}
