package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidInput     ErrorKind = "InvalidInput"
	KindAlreadyExists    ErrorKind = "AlreadyExists"
	KindNotFound         ErrorKind = "NotFound"
	KindInvalidState     ErrorKind = "InvalidState"
	KindVotingClosed     ErrorKind = "VotingClosed"
	KindInvalidCandidate ErrorKind = "InvalidCandidate"
	KindAlreadyVoted     ErrorKind = "AlreadyVoted"
	KindUnavailable      ErrorKind = "Unavailable"
)

// Error is a ledger failure carrying a machine-checkable kind.
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

// Is reports a match for any *Error of the same kind, so the sentinels below
// work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidInput     = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrAlreadyExists    = &Error{Kind: KindAlreadyExists, Message: "already exists"}
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidState     = &Error{Kind: KindInvalidState, Message: "invalid state"}
	ErrVotingClosed     = &Error{Kind: KindVotingClosed, Message: "voting closed"}
	ErrInvalidCandidate = &Error{Kind: KindInvalidCandidate, Message: "invalid candidate"}
	ErrAlreadyVoted     = &Error{Kind: KindAlreadyVoted, Message: "voter has already voted"}
	ErrUnavailable      = &Error{Kind: KindUnavailable, Message: "state backend unavailable"}
)

// KindOf returns the kind of the first *Error in err's chain, or "" if there
// is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
