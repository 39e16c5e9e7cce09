package constants

import (
	"errors"
	"net/http"
)

// Error taxonomy shared by the loader, the report generators and both delivery surfaces.
var (
	ErrSourceUnavailable = NewCodedError("source unavailable", http.StatusBadGateway)
	ErrSchemaMismatch    = NewCodedError("schema mismatch", http.StatusUnprocessableEntity)
	ErrEmptyResult       = NewCodedError("empty result", http.StatusNotFound)
	ErrUnmappedEntity    = NewCodedError("unmapped entity", http.StatusUnprocessableEntity)
	ErrSnapshotNotLoaded = NewCodedError("datasets not loaded yet", http.StatusServiceUnavailable)
	ErrUnknownReport     = NewCodedError("unknown report", http.StatusNotFound)
)

// CodedError is an error that knows which HTTP status it maps to.
type CodedError struct {
	msg  string
	code int
}

func NewCodedError(msg string, code int) *CodedError {
	return &CodedError{msg: msg, code: code}
}

func (e *CodedError) Error() string {
	return e.msg
}

func (e *CodedError) Code() int {
	return e.code
}

// StatusCode walks the wrap chain and returns the first CodedError status,
// or 500 when none is found.
func StatusCode(err error) int {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return http.StatusInternalServerError
}
