// Package training submits LoRA training jobs to a remote queue and
// collects their progress logs until the job reaches a terminal state.
package training

import (
	"context"
	"encoding/json"
)

// Queue states reported by the remote service.
const (
	StatusInQueue    = "IN_QUEUE"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// Input is the request body of a training job.
type Input struct {
	ImagesDataURL string `json:"images_data_url"`
	Steps         int    `json:"steps"`
}

// Handle identifies a submitted request.
type Handle struct {
	RequestID   string
	StatusURL   string
	ResponseURL string
	CancelURL   string

	// number of log lines already reported by Status
	logsSeen int
}

// StatusUpdate is one poll of the queue. Logs holds only the messages
// that were not part of any earlier update for the same handle.
type StatusUpdate struct {
	Status        string
	QueuePosition int
	Logs          []string
}

// Output is the terminal payload of a finished job.
type Output struct {
	WeightsURL string
	ConfigURL  string
	Raw        json.RawMessage
}

// Queue is the remote long-running job API.
type Queue interface {
	Submit(ctx context.Context, endpoint string, input Input) (*Handle, error)
	Status(ctx context.Context, endpoint string, h *Handle) (*StatusUpdate, error)
	Result(ctx context.Context, endpoint string, h *Handle) (*Output, error)
}
