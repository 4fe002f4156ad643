package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrCorpusUnreadable   = errors.New("corpus unreadable")
	ErrDocumentUnreadable = errors.New("document unreadable")
	ErrInvalidDocumentID  = errors.New("invalid document id")
	ErrDuplicateDocument  = errors.New("duplicate document id")
	ErrLexiconUnreadable  = errors.New("lexicon file unreadable")
	ErrTokenizerInit      = errors.New("tokenizer initialization failed")
	ErrIndexNotReady      = errors.New("index not ready")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInternal           = errors.New("internal error")
	ErrTimeout            = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// IsBuildFailure reports whether err belongs to the startup taxonomy: any of
// these means no index could be built and the process must not serve queries.
func IsBuildFailure(err error) bool {
	return errors.Is(err, ErrCorpusUnreadable) ||
		errors.Is(err, ErrDocumentUnreadable) ||
		errors.Is(err, ErrInvalidDocumentID) ||
		errors.Is(err, ErrDuplicateDocument) ||
		errors.Is(err, ErrLexiconUnreadable) ||
		errors.Is(err, ErrTokenizerInit)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrIndexNotReady), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
