package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ParadoxTwo/energy-bill-reader/internal/config"
	"github.com/ParadoxTwo/energy-bill-reader/internal/core/ports"
	"github.com/ParadoxTwo/energy-bill-reader/internal/core/usecase"
	"github.com/ParadoxTwo/energy-bill-reader/internal/infrastructure/extractor/pdftext"
	redistrack "github.com/ParadoxTwo/energy-bill-reader/internal/infrastructure/jobtrack/redis"
	"github.com/ParadoxTwo/energy-bill-reader/internal/infrastructure/llm/openai"
	natsqueue "github.com/ParadoxTwo/energy-bill-reader/internal/infrastructure/queue/nats"
	"github.com/ParadoxTwo/energy-bill-reader/internal/infrastructure/repository/postgres"
	"github.com/ParadoxTwo/energy-bill-reader/internal/infrastructure/resilience"
	"github.com/ParadoxTwo/energy-bill-reader/internal/infrastructure/storage/localfs"
)

// App wires the full dependency graph once for both binaries. The api
// binary uses the inbound use cases; the worker binary uses the
// consumer and the stage runner.
type App struct {
	Config config.Config
	Logger *slog.Logger

	DocRepo    ports.DocumentRepository
	ResultRepo ports.JobResultRepository
	Queue      ports.JobQueue
	Consumer   ports.StageConsumer

	Ingestor ports.BillIngestor
	Status   ports.StatusReader
	Runner   ports.StageExecutor

	closers []func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.closers = append(app.closers, func() { _ = db.Close() })

	docRepo := postgres.NewDocumentRepository(db)
	if err := docRepo.EnsureSchema(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	resultRepo := postgres.NewJobResultRepository(db)
	if err := resultRepo.EnsureSchema(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("ensure job results schema: %w", err)
	}

	files, err := localfs.New(cfg.UploadDir)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("prepare upload dir: %w", err)
	}

	tracker, err := redistrack.New(cfg.RedisURL, time.Duration(cfg.JobRetentionSeconds)*time.Second)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("open redis job tracker: %w", err)
	}
	app.closers = append(app.closers, func() { _ = tracker.Close() })

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, tracker, natsqueue.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("open nats queue: %w", err)
	}
	app.closers = append(app.closers, queue.Close)

	llmClient := openai.New(
		cfg.OpenAIBaseURL,
		cfg.OpenAIAPIKey,
		cfg.OpenAIModel,
		openai.WithResilienceExecutor(executor),
	)
	fields := openai.NewFieldExtractor(llmClient, cfg.ExtractMaxInputBytes)
	pdf := pdftext.New()

	app.DocRepo = docRepo
	app.ResultRepo = resultRepo
	app.Queue = queue
	app.Consumer = queue

	app.Ingestor = usecase.NewIngestBillUseCase(docRepo, files, queue)
	app.Status = usecase.NewStatusResolver(
		usecase.NewResultStoreStatusProvider(resultRepo),
		usecase.NewQueueStatusProvider(queue),
	)
	app.Runner = usecase.NewStageRunner(docRepo, resultRepo, files, pdf, fields, queue, logger)

	return app, nil
}

// Close releases resources in reverse construction order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
