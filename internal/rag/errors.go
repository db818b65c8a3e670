package rag

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. HTTP and CLI layers map kinds to status
// codes and exit messages; callers compare with errors.Is against the ErrXxx
// sentinels or read the kind with KindOf.
type Kind string

const (
	KindInvalidParameter      Kind = "invalid_parameter"
	KindExtractionError       Kind = "extraction_error"
	KindEmptyInput            Kind = "empty_input"
	KindNoPassages            Kind = "no_passages"
	KindEmbeddingUnavailable  Kind = "embedding_unavailable"
	KindGenerationUnavailable Kind = "generation_unavailable"
	KindGenerationTimeout     Kind = "generation_timeout"
	KindDimensionMismatch     Kind = "dimension_mismatch"
	KindEmptyIndex            Kind = "empty_index"
	KindNoIndexAvailable      Kind = "no_index_available"
	KindBuildInProgress       Kind = "build_in_progress"
)

var (
	ErrInvalidParameter      = errors.New("invalid parameter")
	ErrExtraction            = errors.New("text extraction failed")
	ErrEmptyInput            = errors.New("empty input")
	ErrNoPassages            = errors.New("document produced no passages")
	ErrEmbeddingUnavailable  = errors.New("embedding service unavailable")
	ErrGenerationUnavailable = errors.New("generation service unavailable")
	ErrGenerationTimeout     = errors.New("generation timed out")
	ErrDimensionMismatch     = errors.New("vector dimension mismatch")
	ErrEmptyIndex            = errors.New("index has no entries")
	ErrNoIndexAvailable      = errors.New("no index available")
	ErrBuildInProgress       = errors.New("index build already in progress")
)

var sentinels = map[Kind]error{
	KindInvalidParameter:      ErrInvalidParameter,
	KindExtractionError:       ErrExtraction,
	KindEmptyInput:            ErrEmptyInput,
	KindNoPassages:            ErrNoPassages,
	KindEmbeddingUnavailable:  ErrEmbeddingUnavailable,
	KindGenerationUnavailable: ErrGenerationUnavailable,
	KindGenerationTimeout:     ErrGenerationTimeout,
	KindDimensionMismatch:     ErrDimensionMismatch,
	KindEmptyIndex:            ErrEmptyIndex,
	KindNoIndexAvailable:      ErrNoIndexAvailable,
	KindBuildInProgress:       ErrBuildInProgress,
}

// Error is the structured failure returned by every pipeline operation.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Op names the operation that failed, e.g. "index.search".
	Op string

	// Msg is a human-readable detail. Optional.
	Msg string

	// Err is the underlying cause. Optional.
	Err error
}

func (e *Error) Error() string {
	base := e.Op
	if base == "" {
		base = string(e.Kind)
	} else {
		base = fmt.Sprintf("%s [%s]", e.Op, e.Kind)
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", base, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", base, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", base, e.Err)
	default:
		return fmt.Sprintf("%s: %v", base, sentinels[e.Kind])
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// NewError wraps err (which may be nil) as a classified Error.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified Error with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or "" when err carries no classification.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return ""
}
