package service

import (
	"errors"
	"net/http"
)

// Kind 错误分类，对应 HTTP 状态码
type Kind int

const (
	KindValidation      Kind = http.StatusBadRequest
	KindUnauthenticated Kind = http.StatusUnauthorized
	KindAuthorization   Kind = http.StatusForbidden
	KindNotFound        Kind = http.StatusNotFound
	KindConflict        Kind = http.StatusConflict
	KindInternal        Kind = http.StatusInternalServerError
)

// Error 业务错误
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrParamInvalid     = newError(KindValidation, "invalid parameters")
	ErrSelfRequest      = newError(KindValidation, "cannot send a connection request to yourself")
	ErrEmptyContent     = newError(KindValidation, "message content cannot be empty")
	ErrInvalidDecision  = newError(KindValidation, "decision must be ACCEPTED or REJECTED")
	ErrRoleInvalid      = newError(KindValidation, "role must be STUDENT or ALUMNI")
	ErrFileNotSupported = newError(KindValidation, "unsupported file type")

	ErrPasswordIncorrect = newError(KindUnauthenticated, "incorrect email or password")

	ErrNotConnected            = newError(KindAuthorization, "must be connected to chat")
	ErrCannotResolveOwnRequest = newError(KindAuthorization, "cannot resolve your own request")
	ErrNotParticipant          = newError(KindAuthorization, "not a participant of this conversation")

	ErrConversationNotFound = newError(KindNotFound, "conversation not found")
	ErrUserNotFound         = newError(KindNotFound, "user not found")

	ErrRequestPending     = newError(KindConflict, "request already pending")
	ErrAlreadyConnected   = newError(KindConflict, "already connected")
	ErrConversationExists = newError(KindConflict, "conversation already exists for this pair")
	ErrRequestResolved    = newError(KindConflict, "request has already been resolved")
	ErrUserExist          = newError(KindConflict, "email already registered")

	UnExpectedError = newError(KindInternal, "unexpected error, please retry later")
)

// CodeOf 返回错误对应的状态码，非业务错误视为 500
func CodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return int(e.Kind)
	}
	return http.StatusInternalServerError
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
