package training

import (
	"context"
	"sync"
)

// Result is what a finished training job leaves behind.
type Result struct {
	JobID      string
	Logs       []string
	Dropped    int
	WeightsURL string
	ConfigURL  string
}

// Subscription follows one submitted job. Logs can be read while the job
// runs; Done is closed once it has finished, failed, or been cancelled.
type Subscription struct {
	mu      sync.Mutex
	jobID   string
	logs    []string
	dropped int
	maxLogs int
	result  *Result
	err     error

	done   chan struct{}
	cancel context.CancelFunc
}

func newSubscription(maxLogs int, cancel context.CancelFunc) *Subscription {
	return &Subscription{
		maxLogs: maxLogs,
		done:    make(chan struct{}),
		cancel:  cancel,
	}
}

// JobID is empty until the queue has accepted the request.
func (s *Subscription) JobID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobID
}

// Logs returns a copy of the messages collected so far, in emission order.
func (s *Subscription) Logs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.logs))
	copy(out, s.logs)
	return out
}

// Dropped counts messages that did not fit under the log cap.
func (s *Subscription) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err is nil until Done is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Wait blocks until the job finishes or ctx is done. A ctx expiring only
// stops the wait, the subscription keeps running.
func (s *Subscription) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

// Cancel stops polling. The remote job is not cancelled.
func (s *Subscription) Cancel() {
	s.cancel()
}

func (s *Subscription) setJobID(id string) {
	s.mu.Lock()
	s.jobID = id
	s.mu.Unlock()
}

func (s *Subscription) append(msgs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		if s.maxLogs > 0 && len(s.logs) >= s.maxLogs {
			s.dropped++
			continue
		}
		s.logs = append(s.logs, m)
	}
}

func (s *Subscription) finish(out *Output, err error) {
	s.mu.Lock()
	if err != nil {
		s.err = err
	} else {
		logs := make([]string, len(s.logs))
		copy(logs, s.logs)
		s.result = &Result{
			JobID:   s.jobID,
			Logs:    logs,
			Dropped: s.dropped,
		}
		if out != nil {
			s.result.WeightsURL = out.WeightsURL
			s.result.ConfigURL = out.ConfigURL
		}
	}
	s.mu.Unlock()
	close(s.done)
}
