// Package services ties the archive builder, the uploader, the training
// invoker and the model store together into the model creation flow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/modelcreator/internal/archive"
	"github.com/dmitrijs2005/modelcreator/internal/common"
	"github.com/dmitrijs2005/modelcreator/internal/dbx"
	"github.com/dmitrijs2005/modelcreator/internal/logging"
	"github.com/dmitrijs2005/modelcreator/internal/models"
	"github.com/dmitrijs2005/modelcreator/internal/registry"
	"github.com/dmitrijs2005/modelcreator/internal/repositories/repomanager"
	"github.com/dmitrijs2005/modelcreator/internal/training"
)

// Phase is the user-visible step of a running submission.
type Phase string

const (
	PhaseIdle       Phase = ""
	PhaseArchiving  Phase = "Creating zip file..."
	PhaseUploading  Phase = "Uploading zip file..."
	PhaseSubmitting Phase = "Submitting model..."
)

// ArchiveUploader is satisfied by *storage.Uploader.
type ArchiveUploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

// Trainer is satisfied by *training.Invoker.
type Trainer interface {
	Subscribe(ctx context.Context, archiveURL string) (*training.Subscription, error)
}

type CreateModelRequest struct {
	Name        string
	Description string
	Images      []archive.Image
}

func (r CreateModelRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description is required", common.ErrValidation)
	}
	if len(r.Images) == 0 {
		return fmt.Errorf("%w: at least one image is required", common.ErrValidation)
	}
	return nil
}

type ModelService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	registry    *registry.Registry
	build       func([]archive.Image) ([]byte, error)
	uploader    ArchiveUploader
	trainer     Trainer
	logger      logging.Logger
}

func NewModelService(db *sql.DB, repomanager repomanager.RepositoryManager, reg *registry.Registry,
	uploader ArchiveUploader, trainer Trainer, logger logging.Logger) *ModelService {
	return &ModelService{
		db:          db,
		repomanager: repomanager,
		registry:    reg,
		build:       archive.Build,
		uploader:    uploader,
		trainer:     trainer,
		logger:      logger,
	}
}

// Create packs the images, uploads the archive, trains a model on it and
// stores the completed record. progress, when not nil, is told about every
// phase and always ends with PhaseIdle.
//
// Any failure after the record was registered moves it to failed; the
// error is returned unchanged.
func (s *ModelService) Create(ctx context.Context, req CreateModelRequest, progress func(Phase)) (*models.Model, error) {
	report := func(p Phase) {
		if progress != nil {
			progress(p)
		}
	}
	defer report(PhaseIdle)

	if err := req.validate(); err != nil {
		return nil, err
	}

	m, err := s.registry.Begin(req.Name, req.Description)
	if err != nil {
		return nil, err
	}

	log := logging.ForModel(s.logger, m.ID)
	log.Info(ctx, "model creation started", "name", m.Name, "images", len(req.Images))

	done, err := s.create(ctx, log, m.ID, req.Images, report)
	if err != nil {
		log.Error(ctx, "model creation failed", logging.KeyError, err)
		if _, ferr := s.registry.Fail(m.ID, err); ferr != nil {
			log.Warn(ctx, "could not mark model failed", logging.KeyError, ferr)
		}
		return nil, err
	}

	log.Info(ctx, "model created", logging.KeyJobID, done.TrainingJobID, "logs", len(done.TrainingLogs))
	return done, nil
}

func (s *ModelService) create(ctx context.Context, log logging.Logger, id string, images []archive.Image, report func(Phase)) (*models.Model, error) {
	report(PhaseArchiving)
	data, err := s.build(images)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	log.Debug(ctx, "archive created", "size", len(data))

	report(PhaseUploading)
	archiveURL, err := s.uploader.Upload(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := s.registry.SetArchiveURL(id, archiveURL); err != nil {
		return nil, err
	}
	log.Info(ctx, "archive uploaded", "url", archiveURL)

	report(PhaseSubmitting)
	sub, err := s.trainer.Subscribe(ctx, archiveURL)
	if err != nil {
		return nil, err
	}
	if err := s.registry.AttachSubscription(id, sub); err != nil {
		sub.Cancel()
		return nil, err
	}

	res, err := sub.Wait(ctx)
	if err != nil {
		sub.Cancel()
		return nil, err
	}
	if res.Dropped > 0 {
		log.Warn(ctx, "training logs truncated", "dropped", res.Dropped)
	}

	rec, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if err := rec.Complete(res.JobID, res.Logs); err != nil {
		return nil, err
	}
	rec.WeightsURL = res.WeightsURL

	if err := s.persist(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: save model %s: %w", common.ErrPersistence, id, err)
	}

	return s.registry.Complete(id, res.JobID, res.Logs, res.WeightsURL)
}

func (s *ModelService) persist(ctx context.Context, m *models.Model) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx)
		if err := repo.Insert(ctx, m); err != nil {
			return err
		}
		return repo.InsertLogs(ctx, m.ID, m.TrainingLogs)
	})
}

// List reads the stored records, merges them into the registry and
// returns everything known, newest first.
func (s *ModelService) List(ctx context.Context) ([]*models.Model, error) {
	stored, err := s.repomanager.Records(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list models: %w", common.ErrPersistence, err)
	}
	s.registry.Merge(stored)
	return s.registry.List(), nil
}

// Get returns one record, refreshing from the store when it is not known
// locally.
func (s *ModelService) Get(ctx context.Context, id string) (*models.Model, error) {
	m, err := s.registry.Get(id)
	if err == nil || !errors.Is(err, common.ErrNotFound) {
		return m, err
	}
	if _, err := s.List(ctx); err != nil {
		return nil, err
	}
	return s.registry.Get(id)
}

// Logs returns the live log of a running job, or the stored log of a
// finished one.
func (s *ModelService) Logs(ctx context.Context, id string) ([]string, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status != models.StatusCompleted || len(m.TrainingLogs) > 0 {
		return m.TrainingLogs, nil
	}

	logs, err := s.repomanager.Records(s.db).Logs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: logs of %s: %w", common.ErrPersistence, id, err)
	}
	return logs, nil
}
