package models

import (
	"errors"
	"sort"
	"strings"
)

// Ошибки бизнес-уровня. Обработчики HTTP сопоставляют их со статусами ответа.
var (
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrTokenExpired       = errors.New("token is expired")
	ErrTokenMalformed     = errors.New("token is invalid")
	ErrTokenRevoked       = errors.New("token is blacklisted")
	ErrImmutableField     = errors.New("field cannot be changed")
	ErrPermissionDenied   = errors.New("you do not have permission to perform this action")
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
)

// ValidationError содержит ошибки, привязанные к полям запроса.
type ValidationError struct {
	Fields map[string][]string
	// Cause — исходная ошибка (например, ErrImmutableField), доступная через errors.Is.
	Cause error
}

// NewValidationError создаёт ошибку с одним нарушением.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// Add добавляет нарушение для поля.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty сообщает об отсутствии нарушений.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// ImmutableFieldError возвращает ошибку попытки изменить неизменяемое поле.
func ImmutableFieldError(field, msg string) *ValidationError {
	return &ValidationError{
		Fields: map[string][]string{field: {msg}},
		Cause:  ErrImmutableField,
	}
}
