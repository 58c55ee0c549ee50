package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrBlankInput      = fmt.Errorf("%w: message is blank", ErrValidation)
	ErrFileTooLarge    = fmt.Errorf("%w: file too large", ErrValidation)
	ErrUnsupportedType = fmt.Errorf("%w: unsupported file type", ErrValidation)
	ErrNotEditable     = fmt.Errorf("%w: only user messages can be edited", ErrValidation)
	ErrEmptyTitle      = fmt.Errorf("%w: title is empty", ErrValidation)
	ErrEmptyFile       = fmt.Errorf("%w: file has no content", ErrValidation)

	ErrUnauthenticated      = errors.New("no owner identity available")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrDuplicateMessageID   = errors.New("duplicate message id")
	ErrCancelled            = errors.New("request cancelled")
	ErrNoPendingRequest     = errors.New("no pending request")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrSecretNotFound       = errors.New("secret not found")

	ErrRemote = errors.New("remote collaborator failed")
)

// RemoteError reports a transport failure, a non-success status or a payload
// that could not be decoded.
type RemoteError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": remote error"
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// UploadError is a rejection reported by the upload collaborator.
type UploadError struct {
	Reason  UploadReason
	Message string
}

func (e *UploadError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upload rejected: %s", e.Reason)
	}
	return fmt.Sprintf("upload rejected: %s: %s", e.Reason, e.Message)
}

func (e *UploadError) Is(target error) bool {
	switch e.Reason {
	case UploadReasonTooLarge:
		return target == ErrFileTooLarge || target == ErrValidation
	case UploadReasonUnsupportedType:
		return target == ErrUnsupportedType || target == ErrValidation
	case UploadReasonUnknown:
		return target == ErrRemote
	default:
		return false
	}
}
