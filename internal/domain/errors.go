package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies client-facing failures. Every kind except
// KindStorage is converted to an error envelope for the offending
// connection; KindStorage is logged and live delivery proceeds.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuth
	KindPermission
	KindValidation
	KindNotFound
	KindStorage
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func AuthError(format string, args ...any) error {
	return &Error{Kind: KindAuth, Message: fmt.Sprintf(format, args...)}
}

func PermissionError(format string, args ...any) error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

func ValidationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func StorageError(err error) error {
	return &Error{Kind: KindStorage, Message: err.Error()}
}

// KindOf extracts the kind from any error in the chain.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
