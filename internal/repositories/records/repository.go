// Package records stores completed model records and their training logs.
package records

import (
	"context"

	"github.com/dmitrijs2005/modelcreator/internal/models"
)

// Repository is insert-only: a record is written once, after training
// succeeded, and read back by List and Logs.
type Repository interface {
	Insert(ctx context.Context, m *models.Model) error
	InsertLogs(ctx context.Context, modelID string, logs []string) error
	List(ctx context.Context) ([]*models.Model, error)
	Logs(ctx context.Context, modelID string) ([]string, error)
}
