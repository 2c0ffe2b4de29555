package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the broad category an error belongs to. It decides the HTTP status.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindDuplicate
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// Sentinel errors, one per specific failure. Match them with errors.Is.
var (
	ErrValidation          = errors.New("invalid input")
	ErrMissingFile         = errors.New("missing file")
	ErrMissingURL          = errors.New("missing url")
	ErrInvalidVideoType    = errors.New("invalid video type")
	ErrEmptyContent        = errors.New("empty content")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrInvalidContentType  = errors.New("invalid content type")
	ErrMalformedJSON       = errors.New("malformed json")
	ErrEmptyQuiz           = errors.New("empty quiz")
	ErrMissingField        = errors.New("missing field")
	ErrInsufficientOptions = errors.New("insufficient options")
	ErrAnswerNotInOptions  = errors.New("answer not in options")

	ErrDuplicateResource = errors.New("resource already exists")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidToken       = errors.New("invalid token")

	ErrForbidden = errors.New("forbidden")

	ErrNotFound = errors.New("resource not found")

	ErrStorage = errors.New("storage failure")
)

// AppError is a classified error carrying a client-safe message.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error kind onto an HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindDuplicate:
		return http.StatusConflict
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func newError(kind Kind, code, message string, sentinel error) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Err: sentinel}
}

// Validation creates a generic input validation error.
func Validation(message string) *AppError {
	return newError(KindValidation, "VALIDATION_ERROR", message, ErrValidation)
}

func MissingFile(message string) *AppError {
	return newError(KindValidation, "MISSING_FILE", message, ErrMissingFile)
}

func MissingURL(message string) *AppError {
	return newError(KindValidation, "MISSING_URL", message, ErrMissingURL)
}

func InvalidVideoType(message string) *AppError {
	return newError(KindValidation, "INVALID_VIDEO_TYPE", message, ErrInvalidVideoType)
}

func EmptyContent(message string) *AppError {
	return newError(KindValidation, "EMPTY_CONTENT", message, ErrEmptyContent)
}

func UnsupportedFileType(message string) *AppError {
	return newError(KindValidation, "UNSUPPORTED_FILE_TYPE", message, ErrUnsupportedFileType)
}

func InvalidContentType(message string) *AppError {
	return newError(KindValidation, "INVALID_CONTENT_TYPE", message, ErrInvalidContentType)
}

func MalformedJSON(message string) *AppError {
	return newError(KindValidation, "MALFORMED_JSON", message, ErrMalformedJSON)
}

func EmptyQuiz(message string) *AppError {
	return newError(KindValidation, "EMPTY_QUIZ", message, ErrEmptyQuiz)
}

func MissingField(message string) *AppError {
	return newError(KindValidation, "MISSING_FIELD", message, ErrMissingField)
}

func InsufficientOptions(message string) *AppError {
	return newError(KindValidation, "INSUFFICIENT_OPTIONS", message, ErrInsufficientOptions)
}

func AnswerNotInOptions(message string) *AppError {
	return newError(KindValidation, "ANSWER_NOT_IN_OPTIONS", message, ErrAnswerNotInOptions)
}

// Duplicate creates an error for a uniqueness violation.
func Duplicate(message string) *AppError {
	return newError(KindDuplicate, "DUPLICATE_RESOURCE", message, ErrDuplicateResource)
}

// InvalidCredentials is returned when a login does not match a stored account.
func InvalidCredentials(message string) *AppError {
	return newError(KindAuthentication, "INVALID_CREDENTIALS", message, ErrInvalidCredentials)
}

func Unauthenticated(message string) *AppError {
	return newError(KindAuthentication, "UNAUTHENTICATED", message, ErrUnauthenticated)
}

func ExpiredToken(message string) *AppError {
	return newError(KindAuthentication, "EXPIRED_TOKEN", message, ErrExpiredToken)
}

func InvalidToken(message string) *AppError {
	return newError(KindAuthentication, "INVALID_TOKEN", message, ErrInvalidToken)
}

func Forbidden(message string) *AppError {
	return newError(KindAuthorization, "FORBIDDEN", message, ErrForbidden)
}

// NotFound creates a lookup-miss error for the given resource.
func NotFound(resource, id string) *AppError {
	return newError(KindNotFound, "NOT_FOUND", fmt.Sprintf("%s %s not found", resource, id), ErrNotFound)
}

// Storage wraps an I/O failure. The underlying error is kept for logs but
// never shown to the client.
func Storage(err error) *AppError {
	return &AppError{
		Kind:    KindStorage,
		Code:    "STORAGE_ERROR",
		Message: "an internal storage error occurred",
		Err:     errors.Join(ErrStorage, err),
	}
}

// KindOf reports the kind of err. Unclassified errors are treated as storage failures.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorage
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status()
	}
	return http.StatusInternalServerError
}
