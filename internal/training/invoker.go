package training

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/modelcreator/internal/archive"
	"github.com/dmitrijs2005/modelcreator/internal/common"
	"github.com/dmitrijs2005/modelcreator/internal/logging"
	"github.com/sethvargo/go-retry"
)

var errPending = errors.New("job still running")

// Options configures an Invoker.
type Options struct {
	Endpoint     string
	Steps        int
	PollInterval time.Duration
	// MaxLogs caps the messages kept per job, 0 means unbounded.
	MaxLogs int
}

// Invoker submits training archives to a Queue.
type Invoker struct {
	queue  Queue
	opts   Options
	logger logging.Logger
}

func NewInvoker(q Queue, opts Options, logger logging.Logger) *Invoker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	return &Invoker{queue: q, opts: opts, logger: logger}
}

// ValidateArchiveURL accepts absolute http(s) URLs whose path ends in .zip.
func ValidateArchiveURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: archive url: %v", common.ErrValidation, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: archive url %q is not an absolute http(s) url", common.ErrValidation, raw)
	}
	if !strings.HasSuffix(strings.ToLower(u.Path), archive.Extension) {
		return fmt.Errorf("%w: archive url %q does not point to a %s file", common.ErrValidation, raw, archive.Extension)
	}
	return nil
}

// Subscribe validates archiveURL, submits the job in the background and
// returns a subscription to follow it. Validation failures are returned
// directly and nothing is sent to the queue.
func (inv *Invoker) Subscribe(ctx context.Context, archiveURL string) (*Subscription, error) {
	if err := ValidateArchiveURL(archiveURL); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := newSubscription(inv.opts.MaxLogs, cancel)

	go func() {
		defer cancel()
		out, err := inv.run(ctx, sub, archiveURL)
		sub.finish(out, err)
	}()

	return sub, nil
}

// SubmitTraining runs a job to completion and returns its id and logs.
func (inv *Invoker) SubmitTraining(ctx context.Context, archiveURL string) (*Result, error) {
	sub, err := inv.Subscribe(ctx, archiveURL)
	if err != nil {
		return nil, err
	}
	return sub.Wait(ctx)
}

func (inv *Invoker) run(ctx context.Context, sub *Subscription, archiveURL string) (*Output, error) {
	h, err := inv.queue.Submit(ctx, inv.opts.Endpoint, Input{ImagesDataURL: archiveURL, Steps: inv.opts.Steps})
	if err != nil {
		return nil, inv.failure(ctx, "submit", err)
	}
	sub.setJobID(h.RequestID)

	log := logging.ForJob(inv.logger, h.RequestID)
	log.Info(ctx, "training job submitted", "endpoint", inv.opts.Endpoint, "steps", inv.opts.Steps)

	lastStatus := ""
	err = retry.Do(ctx, retry.NewConstant(inv.opts.PollInterval), func(ctx context.Context) error {
		st, err := inv.queue.Status(ctx, inv.opts.Endpoint, h)
		if err != nil {
			return err
		}
		if st.Status != lastStatus {
			log.Info(ctx, "training status", "status", st.Status, "queue_position", st.QueuePosition)
			lastStatus = st.Status
		}

		switch st.Status {
		case StatusInProgress:
			sub.append(st.Logs...)
			return retry.RetryableError(errPending)
		case StatusInQueue:
			return retry.RetryableError(errPending)
		case StatusCompleted:
			// lines emitted just before completion arrive with the final poll
			sub.append(st.Logs...)
			return nil
		}
		return &common.TrainingError{Message: "unexpected queue status " + st.Status}
	})
	if err != nil {
		return nil, inv.failure(ctx, "status", err)
	}

	out, err := inv.queue.Result(ctx, inv.opts.Endpoint, h)
	if err != nil {
		return nil, inv.failure(ctx, "result", err)
	}

	log.Info(ctx, "training job completed", "logs", len(sub.Logs()), "weights_url", out.WeightsURL)
	return out, nil
}

// failure normalises errors: cancellation is reported as such, anything
// else becomes a TrainingError.
func (inv *Invoker) failure(ctx context.Context, stage string, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return fmt.Errorf("training %s: %w", stage, ctx.Err())
	}

	var te *common.TrainingError
	if !errors.As(err, &te) {
		te = &common.TrainingError{Message: err.Error(), Err: err}
	}
	inv.logger.Error(ctx, "training failed", "stage", stage, "status_code", te.StatusCode, logging.KeyError, te.Message)
	return te
}
