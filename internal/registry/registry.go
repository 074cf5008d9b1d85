// Package registry keeps the in-memory view of model records: the ones
// created in this session and the ones read back from the store.
//
// The registry is the single source of truth for callers. Records read
// from the store are merged in and win over local copies with the same
// id; records that only exist locally (in flight or failed) are kept.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/modelcreator/internal/common"
	"github.com/dmitrijs2005/modelcreator/internal/models"
)

// LogSource exposes the log of a running job.
type LogSource interface {
	Logs() []string
}

type Registry struct {
	mu     sync.RWMutex
	models map[string]*models.Model
	live   map[string]LogSource
}

func New() *Registry {
	return &Registry{
		models: make(map[string]*models.Model),
		live:   make(map[string]LogSource),
	}
}

// Begin creates a record in the training state and tracks it.
func (r *Registry) Begin(name, description string) (*models.Model, error) {
	m, err := models.New(name, description)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.models[m.ID] = m
	r.mu.Unlock()

	return m.Clone(), nil
}

// SetArchiveURL records where the training archive was uploaded.
func (r *Registry) SetArchiveURL(id, url string) error {
	return r.update(id, func(m *models.Model) error {
		m.ImagesArchiveURL = url
		return nil
	})
}

// AttachSubscription makes the live log of a running job visible through
// Get and Logs until the record leaves the training state.
func (r *Registry) AttachSubscription(id string, src LogSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.models[id]
	if !ok {
		return fmt.Errorf("model %s: %w", id, common.ErrNotFound)
	}
	if m.Status != models.StatusTraining {
		return fmt.Errorf("model %s is %s: %w", id, m.Status, common.ErrInvalidTransition)
	}
	r.live[id] = src
	return nil
}

// Complete moves the record to completed. Completing a record that a
// Merge already brought in as completed for the same job is not an error.
func (r *Registry) Complete(id, jobID string, logs []string, weightsURL string) (*models.Model, error) {
	var out *models.Model
	err := r.update(id, func(m *models.Model) error {
		if m.Status == models.StatusCompleted && m.TrainingJobID == jobID {
			if len(m.TrainingLogs) == 0 {
				m.TrainingLogs = append([]string(nil), logs...)
			}
			if m.WeightsURL == "" {
				m.WeightsURL = weightsURL
			}
			out = m.Clone()
			return nil
		}
		if err := m.Complete(jobID, logs); err != nil {
			return err
		}
		m.WeightsURL = weightsURL
		out = m.Clone()
		return nil
	})
	return out, err
}

// Fail moves the record to failed. Logs collected so far are kept.
func (r *Registry) Fail(id string, reason error) (*models.Model, error) {
	var out *models.Model
	err := r.update(id, func(m *models.Model) error {
		if src, ok := r.live[id]; ok && len(m.TrainingLogs) == 0 {
			m.TrainingLogs = src.Logs()
		}
		if err := m.Fail(reason); err != nil {
			return err
		}
		out = m.Clone()
		return nil
	})
	return out, err
}

// update applies fn to a copy of the record and swaps it in on success.
func (r *Registry) update(id string, fn func(m *models.Model) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.models[id]
	if !ok {
		return fmt.Errorf("model %s: %w", id, common.ErrNotFound)
	}

	next := cur.Clone()
	if err := fn(next); err != nil {
		return err
	}
	r.models[id] = next

	if next.Status.Terminal() {
		delete(r.live, id)
	}
	return nil
}

// Get returns a copy of the record with its current logs.
func (r *Registry) Get(id string) (*models.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[id]
	if !ok {
		return nil, fmt.Errorf("model %s: %w", id, common.ErrNotFound)
	}
	return r.view(m), nil
}

// Logs returns the live log of a running job or the stored log otherwise.
func (r *Registry) Logs(id string) ([]string, error) {
	m, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return m.TrainingLogs, nil
}

// List returns all records, newest first.
func (r *Registry) List() []*models.Model {
	r.mu.RLock()
	out := make([]*models.Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, r.view(m))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Merge folds records read from the store into the registry. Stored
// records replace local ones; logs are kept when the stored copy has none.
func (r *Registry) Merge(remote []*models.Model) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rm := range remote {
		next := rm.Clone()
		if cur, ok := r.models[rm.ID]; ok && len(next.TrainingLogs) == 0 {
			next.TrainingLogs = append([]string(nil), cur.TrainingLogs...)
		}
		r.models[rm.ID] = next
		if next.Status.Terminal() {
			delete(r.live, rm.ID)
		}
	}
}

// view must be called with r.mu held.
func (r *Registry) view(m *models.Model) *models.Model {
	c := m.Clone()
	if src, ok := r.live[m.ID]; ok && m.Status == models.StatusTraining {
		c.TrainingLogs = src.Logs()
	}
	return c
}
