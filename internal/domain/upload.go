package domain

import (
	"io"
	"path/filepath"
	"strings"
)

type UploadReason string

const (
	UploadReasonDuplicate       UploadReason = "duplicate"
	UploadReasonTooLarge        UploadReason = "too_large"
	UploadReasonUnsupportedType UploadReason = "unsupported_type"
	UploadReasonUnknown         UploadReason = "unknown"
)

// PickedFile is a file chosen by the user. Open is called at most once per
// upload attempt.
type PickedFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

func (f PickedFile) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
}

// FileRef identifies an uploaded document for document-grounded asks.
type FileRef struct {
	Name      string
	Size      int64
	RemoteID  string
	Duplicate bool
}

type UploadResult struct {
	RemoteID  string
	Message   string
	Duplicate bool
}
