package models

import (
	"errors"
	"fmt"
)

type ErrorKind string // Вид доменной ошибки

const (
	KindNotFound           ErrorKind = "NotFound"
	KindInvalidSchedule    ErrorKind = "InvalidSchedule"
	KindDeadlineExceeded   ErrorKind = "DeadlineExceeded"
	KindTooEarly           ErrorKind = "TooEarly"
	KindTooLate            ErrorKind = "TooLate"
	KindDuplicateBid       ErrorKind = "DuplicateBid"
	KindAlreadyRevealed    ErrorKind = "AlreadyRevealed"
	KindAlreadyClosed      ErrorKind = "AlreadyClosed"
	KindClosed             ErrorKind = "Closed"
	KindProofMismatch      ErrorKind = "ProofMismatch"
	KindBelowMinimum       ErrorKind = "BelowMinimum"
	KindUnauthorized       ErrorKind = "Unauthorized"
	KindAlreadyInitialized ErrorKind = "AlreadyInitialized"
	KindInvalidArgument    ErrorKind = "InvalidArgument"
	KindTenderFull         ErrorKind = "TenderFull"
)

// Error - доменная ошибка. Хранилище при такой ошибке не меняется.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is сравнивает ошибки по виду, чтобы errors.Is(err, ErrNotFound) работал для любого сообщения.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError создает доменную ошибку с сообщением.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInvalidSchedule    = &Error{Kind: KindInvalidSchedule}
	ErrDeadlineExceeded   = &Error{Kind: KindDeadlineExceeded}
	ErrTooEarly           = &Error{Kind: KindTooEarly}
	ErrTooLate            = &Error{Kind: KindTooLate}
	ErrDuplicateBid       = &Error{Kind: KindDuplicateBid}
	ErrAlreadyRevealed    = &Error{Kind: KindAlreadyRevealed}
	ErrAlreadyClosed      = &Error{Kind: KindAlreadyClosed}
	ErrClosed             = &Error{Kind: KindClosed}
	ErrProofMismatch      = &Error{Kind: KindProofMismatch}
	ErrBelowMinimum       = &Error{Kind: KindBelowMinimum}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrAlreadyInitialized = &Error{Kind: KindAlreadyInitialized}
	ErrInvalidArgument    = &Error{Kind: KindInvalidArgument}
	ErrTenderFull         = &Error{Kind: KindTenderFull}
)

// KindOf возвращает вид доменной ошибки; для прочих ошибок ok равен false.
func KindOf(err error) (kind ErrorKind, ok bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}
