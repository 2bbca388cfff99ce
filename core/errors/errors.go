package errors

import "fmt"

type ErrorCode string

const (
	ErrInternalServer             ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrInvalidInput               ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData         ErrorCode = "INVALID_REQUEST_DATA"
	ErrUnauthorized               ErrorCode = "UNAUTHORIZED"
	ErrForbidden                  ErrorCode = "FORBIDDEN"
	ErrNotFound                   ErrorCode = "NOT_FOUND"
	ErrAlreadyExists              ErrorCode = "ALREADY_EXISTS"
	ErrTokenExpired               ErrorCode = "TOKEN_EXPIRED"
	ErrInvalidTokenFormat         ErrorCode = "INVALID_TOKEN_FORMAT"
	ErrMissingAuthorizationHeader ErrorCode = "MISSING_AUTHORIZATION_HEADER"

	// Calendar sync error taxonomy.
	ErrProvider           ErrorCode = "PROVIDER_ERROR"
	ErrIntegrationMissing ErrorCode = "INTEGRATION_MISSING"
	ErrTokenRefresh       ErrorCode = "TOKEN_REFRESH_FAILED"
)

// AppError is the service-layer error carried up to controllers.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
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
