// Package errors defines the error taxonomy shared by every dagflow
// component: loader, registry, DAG, and task errors all resolve to a
// single DomainError carrying a stable Code plus structured context.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a well-known error category raised by the scheduler.
type Code string

const (
	// CodeWrongRoot is raised by the loader when the document's root
	// element is not DAG.
	CodeWrongRoot Code = "WRONG_ROOT"
	// CodeWrongType is raised by the loader when a field has the wrong shape.
	CodeWrongType Code = "WRONG_TYPE"
	// CodeMissingKey is raised by the loader when a required key is absent.
	CodeMissingKey Code = "MISSING_KEY"
	// CodeNotFound is raised by the DAG when a referenced vertex/identifier
	// does not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeWouldBeCyclic is raised by the DAG when a connect would introduce
	// a cycle.
	CodeWouldBeCyclic Code = "WOULD_BE_CYCLIC"
	// CodeLibraryLoadFailed is raised by the registry when a shared object
	// cannot be opened.
	CodeLibraryLoadFailed Code = "LIBRARY_LOAD_FAILED"
	// CodeSymbolNotFound is raised by the registry when a symbol is absent
	// from an opened library.
	CodeSymbolNotFound Code = "SYMBOL_NOT_FOUND"
	// CodeContractViolation is raised by a Task when a completion callback
	// of one kind is installed while the other kind is already set. No
	// code path raises it for cloning a running stage or task.
	CodeContractViolation Code = "CONTRACT_VIOLATION"
	// CodeStageFailed names a stage whose Run returned false. The worker
	// does not construct this error: it reports a failed stage through the
	// task's completion status (false).
	CodeStageFailed Code = "STAGE_FAILED"
	// CodeInterrupted names execution stopped due to kill/SetInterrupt. The
	// worker does not construct this error: an interrupted task completes
	// with status false.
	CodeInterrupted Code = "INTERRUPTED"
	// CodeAlreadyExists is raised by the DAG when add_vertex is given an
	// identifier already present.
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// DomainError is the single error type raised across dagflow's components.
type DomainError struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]interface{}
}

// New constructs a DomainError with the given code and message.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Wrap constructs a DomainError wrapping an existing cause.
func Wrap(code Code, message string, cause error) *DomainError {
	return &DomainError{Code: code, Message: message, Cause: cause}
}

func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is a DomainError with the same Code.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// WithContext returns a copy of e with the supplied context entries merged in.
func (e *DomainError) WithContext(ctx map[string]interface{}) *DomainError {
	if e == nil {
		return nil
	}
	merged := make(map[string]interface{}, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		merged[k] = v
	}
	for k, v := range ctx {
		merged[k] = v
	}
	return &DomainError{Code: e.Code, Message: e.Message, Cause: e.Cause, Context: merged}
}

// Is reports whether err is a DomainError carrying the given code.
func Is(err error, code Code) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// CodeOf extracts the Code carried by err, or "" if err is not a DomainError.
func CodeOf(err error) Code {
	var de *DomainError
	if !errors.As(err, &de) {
		return ""
	}
	return de.Code
}
