package records

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/modelcreator/internal/dbx"
	"github.com/dmitrijs2005/modelcreator/internal/models"
)

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, m *models.Model) error {
	query :=
		`INSERT INTO models (id, name, description, status, images_archive_url, created_at, training_job_id, weights_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 `

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Description, string(m.Status), m.ImagesArchiveURL,
		m.CreatedAt.UTC().Format(timeLayout), m.TrainingJobID, m.WeightsURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) InsertLogs(ctx context.Context, modelID string, logs []string) error {
	query := `INSERT INTO model_training_logs (model_id, seq, message) VALUES (?, ?, ?)`

	for i, msg := range logs {
		if _, err := r.db.ExecContext(ctx, query, modelID, i, msg); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Model, error) {
	query :=
		`SELECT id, name, description, status, images_archive_url, created_at, training_job_id, weights_url
		 FROM models
		 ORDER BY created_at DESC, id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var items []*models.Model
	for rows.Next() {
		m := &models.Model{}
		var status, created string
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &status, &m.ImagesArchiveURL,
			&created, &m.TrainingJobID, &m.WeightsURL); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.Status = models.Status(status)
		if m.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("model %s: bad created_at %q: %w", m.ID, created, err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *SQLiteRepository) Logs(ctx context.Context, modelID string) ([]string, error) {
	query := `SELECT message FROM model_training_logs WHERE model_id = ? ORDER BY seq`

	return scanLogs(ctx, r.db, query, modelID)
}
