package domain

import (
	"errors"
	"fmt"
)

// ErrorKind - машинно-проверяемая категория ошибки.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindSelfFollow   ErrorKind = "self_follow"
	KindNotFollower  ErrorKind = "not_follower"
	KindNotFollowing ErrorKind = "not_following"
	KindValidation   ErrorKind = "validation"
	KindDuplicate    ErrorKind = "duplicate"
	KindConflict     ErrorKind = "conflict"
	KindUnavailable  ErrorKind = "unavailable"
)

// Error - ошибка домена с читаемым сообщением и видом.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает ошибки по виду, чтобы errors.Is(err, ErrNotFound) работал для любых сообщений.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Шаблоны для errors.Is.
var (
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrSelfFollow   = &Error{Kind: KindSelfFollow, Message: "you cannot follow yourself"}
	ErrNotFollower  = &Error{Kind: KindNotFollower, Message: "the user is not your follower"}
	ErrNotFollowing = &Error{Kind: KindNotFollowing, Message: "you are not following this user"}
	ErrValidation   = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrDuplicate    = &Error{Kind: KindDuplicate, Message: "already exists"}
	ErrConflict     = &Error{Kind: KindConflict, Message: "concurrent update conflict"}
	ErrUnavailable  = &Error{Kind: KindUnavailable, Message: "collaborator unavailable"}
)

func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s with id %s not found", entity, id)}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Duplicate - нарушение уникальности (имя пользователя, email).
func Duplicate(entity string) *Error {
	return &Error{Kind: KindDuplicate, Message: fmt.Sprintf("%s already exists", entity)}
}

func Conflict(entity, id string) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf("%s %s was modified concurrently", entity, id)}
}

// Unavailable оборачивает сбой хранилища или канала.
func Unavailable(op string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: op, Err: err}
}

// KindOf возвращает вид ошибки; для чужих ошибок - пустую строку.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
