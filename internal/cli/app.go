package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/modelcreator/internal/config"
	"github.com/dmitrijs2005/modelcreator/internal/dbx"
	"github.com/dmitrijs2005/modelcreator/internal/logging"
	"github.com/dmitrijs2005/modelcreator/internal/models"
	"github.com/dmitrijs2005/modelcreator/internal/registry"
	"github.com/dmitrijs2005/modelcreator/internal/repositories/repomanager"
	"github.com/dmitrijs2005/modelcreator/internal/services"
	"github.com/dmitrijs2005/modelcreator/internal/storage"
	"github.com/dmitrijs2005/modelcreator/internal/training"
)

const falRequestTimeout = 30 * time.Second

// modelService is satisfied by *services.ModelService.
type modelService interface {
	Create(ctx context.Context, req services.CreateModelRequest, progress func(services.Phase)) (*models.Model, error)
	List(ctx context.Context) ([]*models.Model, error)
	Get(ctx context.Context, id string) (*models.Model, error)
	Logs(ctx context.Context, id string) ([]string, error)
}

type App struct {
	config  *config.Config
	service modelService
	logger  logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	closer  io.Closer

	busy    atomic.Bool
	mu      sync.Mutex
	phase   services.Phase
	running chan struct{}
}

// NewApp opens the store, applies migrations and wires the uploader and
// the training queue. When no fal key is configured and stdin is a
// terminal, the key is asked for.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if c.FalKey == "" && isTerminal(int(os.Stdin.Fd())) {
		key, err := GetSecret(os.Stdout, "Enter FAL key: ")
		if err != nil {
			return nil, fmt.Errorf("read fal key: %w", err)
		}
		c.FalKey = key
	}
	if c.FalKey == "" {
		logger.Warn(ctx, "no fal key configured, training requests will be rejected")
	}

	db, dialect, err := dbx.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	rm, err := repomanager.New(dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}
	logger.Info(ctx, "database ready", "dialect", string(dialect))

	storeOpts := storage.Options{
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		Region:        c.S3Region,
		BaseEndpoint:  c.S3BaseEndpoint,
		Bucket:        c.S3Bucket,
		KeyPrefix:     c.S3KeyPrefix,
		PublicBaseURL: c.S3PublicBaseURL,
		PresignTTL:    c.S3PresignTTL,
	}
	if storeOpts.RemoteUnreachable() {
		logger.Warn(ctx, "archive URLs point at a loopback host, the training service will not be able to fetch them; set a public base URL",
			"endpoint", c.S3BaseEndpoint)
	}
	uploader, err := storage.NewS3Uploader(ctx, storeOpts, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	queue := training.NewFalQueue(c.FalQueueURL, c.FalKey, &http.Client{Timeout: falRequestTimeout}, logger)
	invoker := training.NewInvoker(queue, training.Options{
		Endpoint:     c.FalEndpoint,
		Steps:        c.TrainingSteps,
		PollInterval: c.PollInterval,
		MaxLogs:      c.MaxTrainingLogs,
	}, logger)

	svc := services.NewModelService(db, rm, registry.New(), uploader, invoker, logger)

	return &App{
		config:  c,
		service: svc,
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		closer:  db,
	}, nil
}

// Run starts the shell and returns when the user leaves it. A running
// submission stops being followed; the remote job is not cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		a.waitIdle()
		if a.closer != nil {
			_ = a.closer.Close()
		}
	}()

	printlnFn("Welcome to modelcreator (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) setPhase(p services.Phase) {
	a.mu.Lock()
	a.phase = p
	a.mu.Unlock()
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.phase == services.PhaseIdle {
		return ""
	}
	return fmt.Sprintf(" (%s)", a.phase)
}

func (a *App) waitIdle() {
	a.mu.Lock()
	ch := a.running
	a.mu.Unlock()
	if ch != nil {
		<-ch
	}
}
