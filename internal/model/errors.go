package model

import "fmt"

// ValidationError represents validation failures. Raised before any layout
// work, so no partial output exists when it is returned.
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// ContractError signals that a collaborator broke its contract, e.g. the
// layout stage handed over bytes that are not a complete PDF.
type ContractError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *ContractError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("contract violated [%s]: %s (%v)", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("contract violated [%s]: %s", e.Stage, e.Message)
}

func (e *ContractError) Unwrap() error {
	return e.Cause
}

// NewContractError creates a new contract error
func NewContractError(stage, message string, cause error) *ContractError {
	return &ContractError{
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}

// RenderError represents failures inside a rendering stage
type RenderError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render failed [%s]: %s (%v)", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("render failed [%s]: %s", e.Stage, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a new render error
func NewRenderError(stage, message string, cause error) *RenderError {
	return &RenderError{
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}
