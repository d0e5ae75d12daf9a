package domain

import "fmt"

// ProtocolError is the structured validation failure returned by the
// protocol-spec parser.
type ProtocolError struct {
	Message  string
	Location string // e.g. "commands[2].pattern", empty if not localised
}

func (e *ProtocolError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("protocol spec: %s (at %s)", e.Message, e.Location)
	}
	return fmt.Sprintf("protocol spec: %s", e.Message)
}

func NewProtocolError(message, location string) *ProtocolError {
	return &ProtocolError{Message: message, Location: location}
}

// RouterError wraps a ParseError or TemplateError encountered while the
// router was deciding a generation path (propagation policy).
type RouterError struct {
	Reason string
	Err    error
}

func (e *RouterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("router: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("router: %s", e.Reason)
}

func (e *RouterError) Unwrap() error { return e.Err }

func NewRouterError(reason, detail string) *RouterError {
	if detail == "" {
		return &RouterError{Reason: reason}
	}
	return &RouterError{Reason: fmt.Sprintf("%s: %s", reason, detail)}
}

// FillErrorKind enumerates the slot-filling backend error taxonomy.
type FillErrorKind int

const (
	FillInferenceFailed FillErrorKind = iota
	FillInvalidSlotType
	FillTimeout
	FillBackendUnavailable
)

type FillError struct {
	Kind    FillErrorKind
	Backend string
	Detail  string
}

func (e *FillError) Error() string {
	var kind string
	switch e.Kind {
	case FillInferenceFailed:
		kind = "inference failed"
	case FillInvalidSlotType:
		kind = "invalid slot type"
	case FillTimeout:
		kind = "timeout"
	case FillBackendUnavailable:
		kind = "backend unavailable"
	}
	if e.Detail != "" {
		return fmt.Sprintf("fill[%s]: %s: %s", e.Backend, kind, e.Detail)
	}
	return fmt.Sprintf("fill[%s]: %s", e.Backend, kind)
}

// AssembleErrorKind enumerates the assembler error taxonomy.
type AssembleErrorKind int

const (
	AssembleMissingSlot AssembleErrorKind = iota
	AssembleInvalidSlotCode
	AssembleSkeletonError
	AssembleDataError
	AssembleLabelError
)

type AssembleError struct {
	Kind   AssembleErrorKind
	SlotID string
	Detail string
}

func (e *AssembleError) Error() string {
	var kind string
	switch e.Kind {
	case AssembleMissingSlot:
		kind = "missing slot"
	case AssembleInvalidSlotCode:
		kind = "invalid slot code"
	case AssembleSkeletonError:
		kind = "skeleton error"
	case AssembleDataError:
		kind = "data error"
	case AssembleLabelError:
		kind = "label error"
	}
	if e.SlotID != "" {
		return fmt.Sprintf("assemble: %s: %s (%s)", kind, e.SlotID, e.Detail)
	}
	return fmt.Sprintf("assemble: %s: %s", kind, e.Detail)
}

// VerifyErrorKind enumerates the verifier error taxonomy.
type VerifyErrorKind int

const (
	VerifyAssemblyFailed VerifyErrorKind = iota
	VerifyExecutionFailed
	VerifyOutputMismatch
	VerifyTimeout
	VerifyInvalidTest
)

type VerifyError struct {
	Kind   VerifyErrorKind
	SlotID string
	Detail string
}

func (e *VerifyError) Error() string {
	var kind string
	switch e.Kind {
	case VerifyAssemblyFailed:
		kind = "assembly failed"
	case VerifyExecutionFailed:
		kind = "execution failed"
	case VerifyOutputMismatch:
		kind = "output mismatch"
	case VerifyTimeout:
		kind = "timeout"
	case VerifyInvalidTest:
		kind = "invalid test"
	}
	return fmt.Sprintf("verify[%s]: %s: %s", e.SlotID, kind, e.Detail)
}

// ValidationErrorKind enumerates the spec validator's hard errors.
type ValidationErrorKind int

const (
	ErrNoInitialState ValidationErrorKind = iota
	ErrMultipleInitialStates
	ErrUndefinedState
	ErrCommandInvalidState
	ErrDuplicateState
	ErrDuplicateCommand
	ErrInvalidPattern
	ErrMissingField
	ErrInvalidTransition
)

type ValidationError struct {
	Kind    ValidationErrorKind
	Subject string // state/command/field name implicated
	Detail  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.kindName(), e.Subject, e.Detail)
}

func (e *ValidationError) kindName() string {
	switch e.Kind {
	case ErrNoInitialState:
		return "NoInitialState"
	case ErrMultipleInitialStates:
		return "MultipleInitialStates"
	case ErrUndefinedState:
		return "UndefinedState"
	case ErrCommandInvalidState:
		return "CommandInvalidState"
	case ErrDuplicateState:
		return "DuplicateState"
	case ErrDuplicateCommand:
		return "DuplicateCommand"
	case ErrInvalidPattern:
		return "InvalidPattern"
	case ErrMissingField:
		return "MissingField"
	case ErrInvalidTransition:
		return "InvalidTransition"
	default:
		return "ValidationError"
	}
}

// ValidationWarningKind enumerates the spec validator's soft warnings.
type ValidationWarningKind int

const (
	WarnUnreachableState ValidationWarningKind = iota
	WarnNoTerminalState
	WarnUntestedCommand
	WarnDeadEndState
	WarnPermissivePattern
	WarnMissingErrorHandler
)

type ValidationWarning struct {
	Kind    ValidationWarningKind
	Subject string
	Detail  string
}

func (w *ValidationWarning) Error() string {
	return fmt.Sprintf("%s: %s: %s", w.kindName(), w.Subject, w.Detail)
}

func (w *ValidationWarning) kindName() string {
	switch w.Kind {
	case WarnUnreachableState:
		return "UnreachableState"
	case WarnNoTerminalState:
		return "NoTerminalState"
	case WarnUntestedCommand:
		return "UntestedCommand"
	case WarnDeadEndState:
		return "DeadEndState"
	case WarnPermissivePattern:
		return "PermissivePattern"
	case WarnMissingErrorHandler:
		return "MissingErrorHandler"
	default:
		return "ValidationWarning"
	}
}

// AnalyzeErrorKind enumerates the Rust-subset analyzer's error taxonomy.
type AnalyzeErrorKind int

const (
	AnalyzeRegisterOverflow AnalyzeErrorKind = iota
	AnalyzeImmutableAssignment
	AnalyzeUndefinedVariable
	AnalyzeTypeMismatch
)

type AnalyzeError struct {
	Kind   AnalyzeErrorKind
	Detail string
}

func (e *AnalyzeError) Error() string {
	switch e.Kind {
	case AnalyzeRegisterOverflow:
		return fmt.Sprintf("register overflow: %s", e.Detail)
	case AnalyzeImmutableAssignment:
		return fmt.Sprintf("immutable assignment: %s", e.Detail)
	case AnalyzeUndefinedVariable:
		return fmt.Sprintf("undefined variable: %s", e.Detail)
	case AnalyzeTypeMismatch:
		return fmt.Sprintf("type mismatch: %s", e.Detail)
	default:
		return fmt.Sprintf("analyze error: %s", e.Detail)
	}
}

// CompileError wraps parse/codegen/io failures in the rust-subset compiler
// pipeline ("Rust compiler" row).
type CompileErrorKind int

const (
	CompileParse CompileErrorKind = iota
	CompileAnalysis
	CompileCodeGen
	CompileIO
	CompileUnsupported
)

type CompileError struct {
	Kind   CompileErrorKind
	Detail string
	Err    error
}

func (e *CompileError) Error() string {
	var kind string
	switch e.Kind {
	case CompileParse:
		kind = "parse"
	case CompileAnalysis:
		kind = "analysis"
	case CompileCodeGen:
		kind = "codegen"
	case CompileIO:
		kind = "io"
	case CompileUnsupported:
		kind = "unsupported"
	}
	if e.Err != nil {
		return fmt.Sprintf("compile[%s]: %s: %v", kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("compile[%s]: %s", kind, e.Detail)
}

func (e *CompileError) Unwrap() error { return e.Err }
