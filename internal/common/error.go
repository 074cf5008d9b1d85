package common

import (
	"encoding/json"
	"fmt"
)

// UploadError is returned when an archive could not be written to the
// object store. Message carries the store's own error message.
type UploadError struct {
	Key     string
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload %s: %s", e.Key, e.Message)
}

// Unwrap exposes both the error kind and the underlying store error.
func (e *UploadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpload}
	}
	return []error{ErrUpload, e.Err}
}

// TrainingError describes a terminal failure reported by the remote
// training service. StatusCode is the HTTP status, 0 when the failure
// was reported in a status payload rather than by the transport.
type TrainingError struct {
	StatusCode int
	Message    string
	Response   json.RawMessage
	Err        error
}

func (e *TrainingError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("training failed: status %d: %s", e.StatusCode, e.Message)
	}
	return "training failed: " + e.Message
}

func (e *TrainingError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTraining}
	}
	return []error{ErrTraining, e.Err}
}
