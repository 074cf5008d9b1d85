// Package common defines the error kinds shared by the packaging, upload,
// training and persistence layers of modelcreator. Callers should use
// errors.Is to match the sentinel values and errors.As for the typed errors.
package common

import "errors"

var (
	// Component error kinds.
	ErrEncoding    = errors.New("encoding error")
	ErrUpload      = errors.New("upload error")
	ErrValidation  = errors.New("validation error")
	ErrTraining    = errors.New("training error")
	ErrPersistence = errors.New("persistence error")

	// Registry errors.
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")

	// A submission is already running.
	ErrBusy = errors.New("submission already in progress")
)
