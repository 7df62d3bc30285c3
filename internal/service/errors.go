package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for the HTTP boundary.
type Code string

const (
	CodeValidation         Code = "VALIDATION"
	CodeConflict           Code = "CONFLICT"
	CodeRelationMissing    Code = "RELATION_MISSING"
	CodeNotFound           Code = "NOT_FOUND"
	CodeForbidden          Code = "FORBIDDEN"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeCartEmpty          Code = "CART_EMPTY"
	CodeMethodNotAllowed   Code = "METHOD_NOT_ALLOWED"
)

// HTTPStatus returns the response status for a code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeConflict, CodeRelationMissing, CodeCartEmpty, CodeInvalidCredentials:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error. Fields is set for validation failures only.
type Error struct {
	Code    Code
	Message string
	Fields  map[string][]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %v", e.Message, e.Fields)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Fields: e.Fields, cause: err}
}

const (
	MsgNotFound           = "Страница не найдена."
	MsgForbidden          = "У вас недостаточно прав для выполнения данного действия."
	MsgUnauthorized       = "Учетные данные не были предоставлены."
	MsgInvalidToken       = "Недопустимый токен."
	MsgInvalidCredentials = "Невозможно войти с предоставленными учетными данными."
	MsgCartEmpty          = "Корзина пуста"
	MsgMethodNotAllowed   = "Метод не разрешен."
	MsgSelfFollow         = "Не стоит подписываться на самого себя"
)

// Sentinel errors for use with errors.Is.
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: MsgNotFound}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: MsgForbidden}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: MsgUnauthorized}
	ErrInvalidToken       = &Error{Code: CodeUnauthorized, Message: MsgInvalidToken}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: MsgInvalidCredentials}
	ErrCartEmpty          = &Error{Code: CodeCartEmpty, Message: MsgCartEmpty}
	ErrMethodNotAllowed   = &Error{Code: CodeMethodNotAllowed, Message: MsgMethodNotAllowed}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation failed"}
)

// Conflict is a duplicate-relation error with a user-facing message.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// RelationMissing is returned when removing a relation that does not exist.
func RelationMissing(msg string) *Error {
	return &Error{Code: CodeRelationMissing, Message: msg}
}

// FieldErrors accumulates per-field validation messages.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Err returns nil when no field failed.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Code: CodeValidation, Message: "validation failed", Fields: f}
}

// ValidationError is a single-field validation failure.
func ValidationError(field, msg string) *Error {
	return &Error{Code: CodeValidation, Message: "validation failed", Fields: map[string][]string{field: {msg}}}
}
