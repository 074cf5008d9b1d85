package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/modelcreator/internal/common"
	"github.com/dmitrijs2005/modelcreator/internal/models"
	"github.com/dmitrijs2005/modelcreator/internal/services"
)

// Create asks for the model details and starts the submission in the
// background.
func (a *App) Create(ctx context.Context) error {
	if a.busy.Load() {
		printlnFn(common.ErrBusy.Error())
		return common.ErrBusy
	}

	name, err := GetSimpleText(a.reader, "Model name", a.out)
	if err != nil {
		return err
	}
	description, err := GetSimpleText(a.reader, "Description", a.out)
	if err != nil {
		return err
	}
	line, err := GetSimpleText(a.reader, "Image files or data URLs (separated by whitespace)", a.out)
	if err != nil {
		return err
	}

	images, err := loadImages(ctx, splitSources(line))
	if err != nil {
		printlnFn("Cannot read images:", err)
		return err
	}

	return a.startCreate(ctx, services.CreateModelRequest{
		Name:        name,
		Description: description,
		Images:      images,
	})
}

func (a *App) startCreate(ctx context.Context, req services.CreateModelRequest) error {
	if !a.busy.CompareAndSwap(false, true) {
		printlnFn(common.ErrBusy.Error())
		return common.ErrBusy
	}

	done := make(chan struct{})
	a.mu.Lock()
	a.running = done
	a.mu.Unlock()

	go func() {
		defer close(done)
		defer a.busy.Store(false)

		m, err := a.service.Create(ctx, req, a.setPhase)
		if err != nil {
			printlnFn("Model creation failed:", err)
			return
		}
		printlnFn(fmt.Sprintf("Model %s (%s) completed, training job %s", m.ID, m.Name, m.TrainingJobID))
	}()

	printlnFn("Submission started; follow it with 'list', 'logs <id>' or 'wait'")
	return nil
}

// Wait blocks until the running submission has finished.
func (a *App) Wait(ctx context.Context) error {
	a.mu.Lock()
	ch := a.running
	a.mu.Unlock()

	if ch == nil {
		printlnFn("Nothing is running")
		return nil
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) List(ctx context.Context) error {
	items, err := a.service.List(ctx)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	if len(items) == 0 {
		printlnFn("No models yet")
		return nil
	}
	for _, m := range items {
		printlnFn(fmt.Sprintf("%s  %-9s  %s  %s", m.ID, m.Status, m.CreatedAt.Local().Format(time.DateTime), m.Name))
	}
	return nil
}

func (a *App) Show(ctx context.Context, id string) error {
	m, err := a.service.Get(ctx, id)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	printlnFn(formatModel(m))
	return nil
}

func (a *App) Logs(ctx context.Context, id string) error {
	logs, err := a.service.Logs(ctx, id)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	if len(logs) == 0 {
		printlnFn("No logs")
		return nil
	}
	for _, l := range logs {
		printlnFn(l)
	}
	return nil
}

func formatModel(m *models.Model) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID:          %s\n", m.ID)
	fmt.Fprintf(&b, "Name:        %s\n", m.Name)
	fmt.Fprintf(&b, "Description: %s\n", m.Description)
	fmt.Fprintf(&b, "Status:      %s\n", m.Status)
	fmt.Fprintf(&b, "Created:     %s\n", m.CreatedAt.Local().Format(time.DateTime))
	if m.ImagesArchiveURL != "" {
		fmt.Fprintf(&b, "Archive:     %s\n", m.ImagesArchiveURL)
	}
	if m.TrainingJobID != "" {
		fmt.Fprintf(&b, "Job:         %s\n", m.TrainingJobID)
	}
	if m.WeightsURL != "" {
		fmt.Fprintf(&b, "Weights:     %s\n", m.WeightsURL)
	}
	if m.Error != "" {
		fmt.Fprintf(&b, "Error:       %s\n", m.Error)
	}
	fmt.Fprintf(&b, "Log lines:   %d", len(m.TrainingLogs))
	return b.String()
}
