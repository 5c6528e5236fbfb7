package session

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by queries of a Session which isn't Ready.
var ErrNotInitialized = errors.New("session not initialized")

// Initialization steps, as reported by InitializationError.Step.
const (
	StepSelectBundle = "select-bundle"
	StepStartWorker  = "start-worker"
	StepInstantiate  = "instantiate"
	StepFetch        = "fetch"
	StepRegister     = "register"
	StepConnect      = "connect"
	StepAttach       = "attach"
	StepUse          = "use"
)

// InitializationError is returned when any step of an initialization
// attempt fails. Every caller waiting on the attempt receives it.
type InitializationError struct {
	Step  string
	Cause error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initializing session (%s): %s", e.Step, e.Cause)
}

func (e *InitializationError) Unwrap() error { return e.Cause }

// QueryError is returned when the engine rejects or fails a query.
type QueryError struct {
	SQL     string
	Message string
	Cause   error
}

func (e *QueryError) Error() string { return "query failed: " + e.Message }

func (e *QueryError) Unwrap() error { return e.Cause }
