package model

import "errors"

// The closed error taxonomy of the engine. Every fallible operation wraps
// one of these sentinels with enough context (offending name, slot index,
// expected vs. actual) for the caller to correct the input. Match with
// errors.Is.
var (
	// Graph construction.
	ErrDuplicateName    = errors.New("duplicate component name")
	ErrUnknownComponent = errors.New("unknown component")
	ErrUnknownProducer  = errors.New("unknown producer")
	ErrArityMismatch    = errors.New("input arity mismatch")
	ErrUnboundSlot      = errors.New("unbound input slot")
	ErrWouldCreateCycle = errors.New("would create cycle")

	// Component configuration.
	ErrUnknownParameter      = errors.New("unknown parameter")
	ErrParameterTypeMismatch = errors.New("parameter type mismatch")
	ErrParameterOutOfRange   = errors.New("parameter out of range")

	// Sampler configuration.
	ErrInvalidBounds    = errors.New("invalid bounds")
	ErrInvalidCellSize  = errors.New("invalid cell size")
	ErrInvalidBlockSize = errors.New("invalid block size")

	// Evaluation.
	ErrEvaluationFailed = errors.New("evaluation failed")
	ErrCancelled        = errors.New("cancelled")

	// Persistence boundary.
	ErrParse              = errors.New("parse error")
	ErrUnknownTag         = errors.New("unknown component tag")
	ErrVersionUnsupported = errors.New("unsupported version")
)
