package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	KindAudioValidation ErrorKind = "audio_validation"
	KindTranscription   ErrorKind = "transcription"
	KindParsing         ErrorKind = "parsing"
	KindNotConfigured   ErrorKind = "not_configured"
	KindVoiceAction     ErrorKind = "voice_action"
	KindInvalidRequest  ErrorKind = "invalid_request"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrPatientAccessDenied = errors.New("patient belongs to another doctor")
	ErrAudioTooLarge       = errors.New("audio file too large")
)

type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Cause   error
	// Payload keeps the offending provider output for diagnostics.
	Payload string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retriable reports whether asking the user to try again can succeed.
func (e *Error) Retriable() bool {
	return e.Kind == KindTranscription || e.Kind == KindParsing
}

func NewError(kind ErrorKind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WrapError tags err with kind unless it already carries a kind.
func WrapError(kind ErrorKind, op, message string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

func IsKind(err error, kind ErrorKind) bool {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind == kind
	}
	return false
}

func IsRetriable(err error) bool {
	var typed *Error
	return errors.As(err, &typed) && typed.Retriable()
}
