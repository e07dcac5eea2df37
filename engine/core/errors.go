package core

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedStorageType       = errors.New("unsupported attribute storage type")
	ErrSessionQueryFailed           = errors.New("procedural session query failed")
	ErrMalformedAttributeDescriptor = errors.New("attribute descriptor does not match transferred data")
	ErrMissingRequiredAttribute     = errors.New("required attribute is missing")
	ErrSceneCommitFailed            = errors.New("render scene rejected the update")
	ErrPrimFinalized                = errors.New("prim has been finalized")
	ErrUnknown                      = errors.New("unknown")
)

// ErrorCode is the stable code reported to an ErrorScope.
type ErrorCode int

const (
	ErrCodeString ErrorCode = iota
	ErrCodeUnsupportedStorageType
	ErrCodeSessionQueryFailed
	ErrCodeMalformedAttribute
	ErrCodeMissingRequiredAttribute
	ErrCodeSceneCommitFailed
	ErrCodePrimFinalized
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeString:
		return "string"
	case ErrCodeUnsupportedStorageType:
		return "unsupported-storage-type"
	case ErrCodeSessionQueryFailed:
		return "session-query-failed"
	case ErrCodeMalformedAttribute:
		return "malformed-attribute"
	case ErrCodeMissingRequiredAttribute:
		return "missing-required-attribute"
	case ErrCodeSceneCommitFailed:
		return "scene-commit-failed"
	case ErrCodePrimFinalized:
		return "prim-finalized"
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// CodeOf maps an error onto its stable code. Errors that do not wrap one of
// the package sentinels map to ErrCodeString.
func CodeOf(err error) ErrorCode {
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie.Code
	}
	switch {
	case errors.Is(err, ErrUnsupportedStorageType):
		return ErrCodeUnsupportedStorageType
	case errors.Is(err, ErrSessionQueryFailed):
		return ErrCodeSessionQueryFailed
	case errors.Is(err, ErrMalformedAttributeDescriptor):
		return ErrCodeMalformedAttribute
	case errors.Is(err, ErrMissingRequiredAttribute):
		return ErrCodeMissingRequiredAttribute
	case errors.Is(err, ErrSceneCommitFailed):
		return ErrCodeSceneCommitFailed
	case errors.Is(err, ErrPrimFinalized):
		return ErrCodePrimFinalized
	}
	return ErrCodeString
}

// IngestError is returned when a single attribute could not be pulled.
type IngestError struct {
	Code      ErrorCode
	Attribute string
	Err       error
}

func NewIngestError(code ErrorCode, attribute string, err error) *IngestError {
	return &IngestError{Code: code, Attribute: attribute, Err: err}
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %q: %v", e.Attribute, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}
