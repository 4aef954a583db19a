// Package app wires configuration into a running capture stack.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/capture-tracker/internal/async"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/content"
	"github.com/joseph-ayodele/capture-tracker/internal/export"
	"github.com/joseph-ayodele/capture-tracker/internal/extract"
	"github.com/joseph-ayodele/capture-tracker/internal/graph"
	"github.com/joseph-ayodele/capture-tracker/internal/ingest"
	"github.com/joseph-ayodele/capture-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/capture-tracker/internal/nlp"
	"github.com/joseph-ayodele/capture-tracker/internal/ocr"
	"github.com/joseph-ayodele/capture-tracker/internal/pipeline"
	"github.com/joseph-ayodele/capture-tracker/internal/repository"
	"github.com/joseph-ayodele/capture-tracker/internal/search"
	"github.com/joseph-ayodele/capture-tracker/internal/semantic"
	"github.com/joseph-ayodele/capture-tracker/internal/tasks"
)

// App holds the wired components shared by the daemon and the CLI.
type App struct {
	Config    *common.Config
	DB        *repository.DB
	Content   repository.ContentRepository
	Tasks     repository.TaskRepository
	Index     *search.Index
	Processor *pipeline.Processor
	Scheduler *async.Scheduler
	Service   *content.Service
	Export    *export.Service
	Ingestor  *ingest.FSIngestor
	NLP       nlp.Processor

	logger *slog.Logger
}

// New opens and migrates the database and builds every component.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		repository.Close(db, logger)
		return nil, err
	}

	a := &App{
		Config:  cfg,
		DB:      db,
		Content: repository.NewContentRepository(db, logger),
		Tasks:   repository.NewTaskRepository(db, logger),
		Index:   search.NewIndex(logger),
		NLP:     NewNLP(cfg, logger),
		logger:  logger,
	}

	recognizer := extract.NewOCRAdapter(ocr.NewExtractor(ocr.Config{
		Tesseract:        cfg.OCR.Tesseract,
		Languages:        cfg.OCR.Languages,
		TessdataDir:      cfg.OCR.TessdataDir,
		HeicConverter:    cfg.OCR.HeicConverter,
		ArtifactCacheDir: cfg.OCR.ArtifactCacheDir,
	}, logger), logger)

	a.Processor = pipeline.NewProcessor(pipeline.Deps{
		Repo:     a.Content,
		OCR:      recognizer,
		Fetcher:  extract.NewHTTPFetcher(nil, logger),
		Analyzer: semantic.NewStage(a.NLP, logger),
		Tasks:    tasks.NewTemplateGenerator(logger),
		Graph:    graph.NewProximityExtractor(logger),
		Notifier: a.Index,
	}, logger, pipeline.WithKeepAttachment(cfg.Pipeline.KeepAttachment))

	a.Scheduler = async.NewScheduler(a.Processor, logger,
		async.WithMaxConcurrent(cfg.Pipeline.MaxConcurrent),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)
	a.Service = content.NewService(a.Content, a.Tasks, a.Index, a.Scheduler, logger)
	a.Export = export.NewService(a.Content, a.Tasks, logger)
	a.Ingestor = ingest.NewFSIngestor(a.Content, a.Scheduler, logger)
	return a, nil
}

// NewNLP picks the semantic backend named in cfg.
func NewNLP(cfg *common.Config, logger *slog.Logger) nlp.Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Semantic.Backend == "llm" {
		logger.Info("semantic backend", "backend", "llm", "model", cfg.LLM.Model)
		return openai.NewClient(openai.Config{
			APIKey:          cfg.LLM.APIKey,
			Organization:    cfg.LLM.Org,
			BaseURL:         cfg.LLM.BaseURL,
			Model:           cfg.LLM.Model,
			Temperature:     cfg.LLM.Temperature,
			Timeout:         cfg.LLM.Timeout,
			LenientOptional: cfg.LLM.Lenient,
		}, logger)
	}
	return nlp.NewLexicon(logger)
}

// HealthCheck pings the database.
func (a *App) HealthCheck(ctx context.Context) error {
	return repository.HealthCheck(ctx, a.DB, 2*time.Second, a.logger)
}

// Close drains the scheduler within ctx and closes the database.
func (a *App) Close(ctx context.Context) error {
	err := a.Scheduler.Shutdown(ctx)
	repository.Close(a.DB, a.logger)
	return err
}
