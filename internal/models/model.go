// Package models defines the model record tracked through packaging,
// upload, training and persistence.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/modelcreator/internal/common"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a Model.
type Status string

const (
	StatusTraining  Status = "training"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTraining, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Model is a trained (or training) model record.
type Model struct {
	ID          string
	Name        string
	Description string

	// ImagesArchiveURL is where the uploaded training archive can be read.
	ImagesArchiveURL string
	Status           Status
	CreatedAt        time.Time

	// TrainingJobID is set once the training queue accepted the job.
	TrainingJobID string
	TrainingLogs  []string
	// WeightsURL points to the trained LoRA weights, if the service returned them.
	WeightsURL string

	// Error is the reason of a failed transition. Never persisted.
	Error string
}

// New creates a record in the training state.
func New(name, description string) (*Model, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", common.ErrValidation)
	}

	return &Model{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Status:      StatusTraining,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Complete moves a training record to completed.
func (m *Model) Complete(jobID string, logs []string) error {
	if m.Status != StatusTraining {
		return fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, m.Status, StatusCompleted)
	}
	m.Status = StatusCompleted
	m.TrainingJobID = jobID
	m.TrainingLogs = append([]string(nil), logs...)
	return nil
}

// Fail moves a training record to failed and remembers why.
func (m *Model) Fail(reason error) error {
	if m.Status != StatusTraining {
		return fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, m.Status, StatusFailed)
	}
	m.Status = StatusFailed
	if reason != nil {
		m.Error = reason.Error()
	}
	return nil
}

// Clone returns a deep copy.
func (m *Model) Clone() *Model {
	c := *m
	c.TrainingLogs = append([]string(nil), m.TrainingLogs...)
	return &c
}
