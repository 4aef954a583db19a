// Package pipeline turns a capture into a persisted content item with derived tasks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/extract"
	"github.com/joseph-ayodele/capture-tracker/internal/graph"
	"github.com/joseph-ayodele/capture-tracker/internal/repository"
	"github.com/joseph-ayodele/capture-tracker/internal/search"
	"github.com/joseph-ayodele/capture-tracker/internal/semantic"
	"github.com/joseph-ayodele/capture-tracker/internal/structured"
	"github.com/joseph-ayodele/capture-tracker/internal/tasks"
)

// Deps are the collaborators a Processor sequences. OCR, Fetcher and Notifier may be nil.
type Deps struct {
	Repo     repository.ContentRepository
	OCR      extract.TextRecognizer
	Fetcher  extract.PageFetcher
	Analyzer semantic.Analyzer
	Tasks    tasks.Generator
	Graph    graph.Extractor
	Notifier search.Notifier
}

// Processor runs the capture stages in a fixed order: extract, recognize,
// analyze, generate tasks, link entities, persist.
type Processor struct {
	deps           Deps
	logger         *slog.Logger
	keepAttachment bool
	now            func() time.Time
}

type Option func(*Processor)

// WithKeepAttachment stores the raw image bytes on the content record.
func WithKeepAttachment(keep bool) Option {
	return func(p *Processor) { p.keepAttachment = keep }
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

func NewProcessor(deps Deps, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{deps: deps, logger: logger, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process runs a capture to completion and returns the stored record.
func (p *Processor) Process(ctx context.Context, c entity.Capture) (*entity.ContentItem, error) {
	return p.ProcessWithProgress(ctx, c, nil)
}

// ProcessWithProgress is Process with a progress observer.
func (p *Processor) ProcessWithProgress(ctx context.Context, c entity.Capture, fn ProgressFunc) (*entity.ContentItem, error) {
	if err := c.Validate(); err != nil {
		p.logger.Warn("processor.capture.invalid", "error", err)
		return nil, err
	}
	prog := &progress{fn: fn}
	start := p.now()

	item := p.newRecord(c)
	if err := p.deps.Repo.Create(ctx, item); err != nil {
		p.logger.Error("processor.create.failed", "error", err)
		prog.report(StateFailed)
		return nil, fmt.Errorf("%w: create record: %w", common.ErrPersistence, err)
	}
	log := p.logger.With("content_id", item.ID, "content_type", item.ContentType)
	ctx = common.WithLogger(common.WithContentID(ctx, item.ID.String()), log)

	if err := p.deps.Repo.UpdateStatus(ctx, item.ID, constants.StatusProcessing, ""); err != nil {
		log.Error("processor.status.failed", "error", err)
		prog.report(StateFailed)
		if errors.Is(err, common.ErrInvalidTransition) {
			return item, err
		}
		return item, fmt.Errorf("%w: mark processing: %w", common.ErrPersistence, err)
	}
	item.Status = constants.StatusProcessing

	// Extraction and recognition are mandatory: failures end the run.
	in, err := p.extract(ctx, c)
	if err != nil {
		return p.fail(ctx, log, prog, item, err)
	}
	prog.report(StateExtracting)

	rec, err := p.recognize(ctx, c)
	if err != nil {
		return p.fail(ctx, log, prog, item, err)
	}
	fullText := combineText(in.text, rec.Text)
	structuredContent := structured.Detect(rec.Elements, fullText)
	prog.report(StateRecognizing)

	var warnings []string
	warnings = append(warnings, rec.Warnings...)

	// The remaining stages degrade to empty results.
	analysis, err := p.deps.Analyzer.Analyze(ctx, fullText)
	if err != nil {
		log.Warn("processor.semantic.degraded", "error", err)
		warnings = append(warnings, "semantic analysis unavailable: "+err.Error())
		analysis = entity.EmptyAnalysis()
	}
	prog.report(StateAnalyzing)

	generated, err := p.deps.Tasks.Generate(ctx, tasks.Input{Text: fullText, Analysis: analysis, Structured: structuredContent})
	if err != nil {
		log.Warn("processor.tasks.degraded", "error", err)
		warnings = append(warnings, "task generation unavailable: "+err.Error())
		generated = nil
	}
	prog.report(StateGeneratingTasks)

	connections, err := p.deps.Graph.Extract(ctx, analysis.Entities, fullText)
	if err != nil {
		log.Warn("processor.graph.degraded", "error", err)
		warnings = append(warnings, "relationship extraction unavailable: "+err.Error())
		connections = nil
	}
	prog.report(StateLinking)

	meta := entity.Metadata{
		Analysis:      analysis,
		Structured:    structuredContent,
		Connections:   connections,
		OCRConfidence: rec.Confidence,
		Warnings:      warnings,
		Extra:         c.Metadata,
	}
	blob, err := meta.Marshal()
	if err != nil {
		return p.fail(ctx, log, prog, item, fmt.Errorf("%w: %w", common.ErrPersistence, err))
	}

	item.Title = DeriveTitle(in.title, fullText, item.ContentType)
	item.Preview = DerivePreview(fullText)
	item.FullText = fullText
	item.OCRText = rec.Text
	if in.url != "" {
		item.SourceURL = in.url
	}
	item.Confidence = overallConfidence(c.HasImage(), rec.Confidence, analysis)
	item.Metadata = blob
	item.Tasks = generated

	if err := p.deps.Repo.SaveResult(ctx, item); err != nil {
		if !errors.Is(err, common.ErrInvalidTransition) {
			err = fmt.Errorf("%w: save result: %w", common.ErrPersistence, err)
		}
		return p.fail(ctx, log, prog, item, err)
	}
	prog.report(StateDone)

	if p.deps.Notifier != nil {
		p.deps.Notifier.Notify(item)
	}
	log.Info("processor.done",
		"tasks", len(item.Tasks),
		"entities", len(analysis.Entities),
		"connections", len(connections),
		"confidence", item.Confidence,
		"warnings", len(warnings),
		"elapsed_ms", p.now().Sub(start).Milliseconds(),
	)
	return item, nil
}

func (p *Processor) newRecord(c entity.Capture) *entity.ContentItem {
	source, _ := constants.CanonicalizeSource(string(c.Source))
	created := c.CapturedAt
	if created.IsZero() {
		created = p.now()
	}
	item := &entity.ContentItem{
		ID:          uuid.New(),
		Title:       DeriveTitle("", "", c.ContentType),
		ContentType: c.ContentType,
		Source:      source,
		SourceURL:   c.SourceURL,
		Status:      constants.StatusPending,
		ContentHash: c.ContentHash,
		CreatedAt:   created.UTC(),
	}
	if p.keepAttachment && c.HasImage() {
		item.Attachment = c.ImageData
	}
	return item
}

// fail marks the record failed and returns err. The status write ignores
// cancellation so an abandoned run still records its outcome.
func (p *Processor) fail(ctx context.Context, log *slog.Logger, prog *progress, item *entity.ContentItem, err error) (*entity.ContentItem, error) {
	log.Error("processor.failed", "error", err)
	if uerr := p.deps.Repo.UpdateStatus(context.WithoutCancel(ctx), item.ID, constants.StatusFailed, err.Error()); uerr != nil {
		log.Error("processor.mark_failed.failed", "error", uerr)
	} else {
		item.Status = constants.StatusFailed
		item.Error = err.Error()
	}
	prog.report(StateFailed)
	return item, err
}
