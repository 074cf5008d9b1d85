package records

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/modelcreator/internal/dbx"
	"github.com/dmitrijs2005/modelcreator/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, m *models.Model) error {
	query :=
		`INSERT INTO models (id, name, description, status, images_archive_url, created_at, training_job_id, weights_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Description, string(m.Status), m.ImagesArchiveURL, m.CreatedAt, m.TrainingJobID, m.WeightsURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) InsertLogs(ctx context.Context, modelID string, logs []string) error {
	query :=
		`INSERT INTO model_training_logs (model_id, seq, message)
		 VALUES ($1, $2, $3)
		 `

	for i, msg := range logs {
		if _, err := r.db.ExecContext(ctx, query, modelID, i, msg); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Model, error) {
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
		var status string
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &status, &m.ImagesArchiveURL,
			&m.CreatedAt, &m.TrainingJobID, &m.WeightsURL); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.Status = models.Status(status)
		m.CreatedAt = m.CreatedAt.UTC()
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) Logs(ctx context.Context, modelID string) ([]string, error) {
	query :=
		`SELECT message FROM model_training_logs
		 WHERE model_id = $1
		 ORDER BY seq
		 `

	return scanLogs(ctx, r.db, query, modelID)
}

func scanLogs(ctx context.Context, db dbx.DBTX, query, modelID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, modelID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var logs []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		logs = append(logs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return logs, nil
}
