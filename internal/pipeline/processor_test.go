package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/extract"
	"github.com/joseph-ayodele/capture-tracker/internal/graph"
	"github.com/joseph-ayodele/capture-tracker/internal/nlp"
	"github.com/joseph-ayodele/capture-tracker/internal/pipeline"
	"github.com/joseph-ayodele/capture-tracker/internal/repository"
	"github.com/joseph-ayodele/capture-tracker/internal/semantic"
	"github.com/joseph-ayodele/capture-tracker/internal/tasks"
)

const scenario = "Meeting with John Smith at Acme Corp on 10/5/2025"

// =============================================================================
// Fakes
// =============================================================================

type fakeOCR struct {
	text string
	err  error
}

func (f fakeOCR) Recognize(context.Context, []byte) (extract.Recognition, error) {
	if f.err != nil {
		return extract.Recognition{}, f.err
	}
	return extract.Recognition{
		Text: f.text,
		Elements: []entity.TextElement{
			{Text: f.text, Box: entity.BoundingBox{X: 0.1, Y: 0.8, Width: 0.8, Height: 0.05}, Confidence: 0.92, Granularity: entity.GranularityLine},
		},
		Confidence: 0.92,
		Language:   "eng",
	}, nil
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, string) (entity.SemanticAnalysis, error) {
	return entity.SemanticAnalysis{}, errors.New("model unavailable")
}

type failingTasks struct{}

func (failingTasks) Generate(context.Context, tasks.Input) ([]entity.GeneratedTask, error) {
	return nil, errors.New("templates missing")
}

type failingGraph struct{}

func (failingGraph) Extract(context.Context, []entity.DetectedEntity, string) ([]entity.KnowledgeConnection, error) {
	return nil, errors.New("graph store offline")
}

// recordingRepo wraps a real repository and logs status writes.
type recordingRepo struct {
	repository.ContentRepository
	saveErr error

	mu       sync.Mutex
	statuses []constants.ProcessingStatus
}

func (r *recordingRepo) Create(ctx context.Context, item *entity.ContentItem) error {
	err := r.ContentRepository.Create(ctx, item)
	if err == nil {
		r.record(item.Status)
	}
	return err
}

func (r *recordingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, to constants.ProcessingStatus, reason string) error {
	err := r.ContentRepository.UpdateStatus(ctx, id, to, reason)
	if err == nil {
		r.record(to)
	}
	return err
}

func (r *recordingRepo) SaveResult(ctx context.Context, item *entity.ContentItem) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	err := r.ContentRepository.SaveResult(ctx, item)
	if err == nil {
		r.record(constants.StatusCompleted)
	}
	return err
}

func (r *recordingRepo) record(s constants.ProcessingStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

type capturedNotifier struct {
	mu    sync.Mutex
	items []*entity.ContentItem
}

func (n *capturedNotifier) Notify(item *entity.ContentItem) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, item)
}

// =============================================================================
// Harness
// =============================================================================

type harness struct {
	repo     *recordingRepo
	notifier *capturedNotifier
	deps     pipeline.Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: filepath.Join(t.TempDir(), "pipeline.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, nil) })
	require.NoError(t, repository.Migrate(ctx, db))

	h := &harness{
		repo:     &recordingRepo{ContentRepository: repository.NewContentRepository(db, nil)},
		notifier: &capturedNotifier{},
	}
	h.deps = pipeline.Deps{
		Repo:     h.repo,
		OCR:      fakeOCR{text: scenario},
		Analyzer: semantic.NewStage(nlp.NewLexicon(nil), nil),
		Tasks:    tasks.NewTemplateGenerator(nil),
		Graph:    graph.NewProximityExtractor(nil),
		Notifier: h.notifier,
	}
	return h
}

func imageCapture() entity.Capture {
	return entity.Capture{
		ContentType: constants.ContentImage,
		ImageData:   []byte("\x89PNG fake"),
		Source:      constants.SourceScreenshot,
		CapturedAt:  time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func findEntity(es []entity.DetectedEntity, text string) *entity.DetectedEntity {
	for i := range es {
		if es[i].Text == text {
			return &es[i]
		}
	}
	return nil
}

// =============================================================================
// Scenarios
// =============================================================================

func TestProcess_MeetingScenario(t *testing.T) {
	h := newHarness(t)
	item, err := pipeline.NewProcessor(h.deps, nil).Process(context.Background(), imageCapture())
	require.NoError(t, err)

	assert.Equal(t, constants.StatusCompleted, item.Status)
	assert.Contains(t, item.OCRText, scenario)
	assert.Equal(t, scenario, item.Title)

	meta, err := entity.DecodeMetadata(item.Metadata)
	require.NoError(t, err)

	person := findEntity(meta.Analysis.Entities, "John Smith")
	org := findEntity(meta.Analysis.Entities, "Acme Corp")
	require.NotNil(t, person)
	require.NotNil(t, org)
	assert.Equal(t, entity.EntityPerson, person.Type)
	assert.Equal(t, entity.EntityOrganization, org.Type)

	var dates []string
	for _, d := range meta.Structured.Dates {
		dates = append(dates, d.Text)
	}
	assert.Contains(t, dates, "10/5/2025")

	var meeting *entity.GeneratedTask
	for i := range item.Tasks {
		if item.Tasks[i].Title == "Prepare for meeting" {
			meeting = &item.Tasks[i]
		}
	}
	require.NotNil(t, meeting)
	assert.Equal(t, constants.PriorityHigh, meeting.Priority)

	var linked bool
	for _, c := range meta.Connections {
		if c.FromID == person.ID && c.ToID == org.ID {
			linked = true
			assert.Contains(t, []entity.RelationshipType{entity.RelWorksFor, entity.RelRelatedTo}, c.Relationship)
			assert.Greater(t, c.Strength, 0.5)
		}
	}
	assert.True(t, linked, "expected an edge from John Smith to Acme Corp")

	stored, err := h.repo.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Tasks, len(item.Tasks))
	assert.Len(t, h.notifier.items, 1)
}

func TestProcess_EmptyTextCapture(t *testing.T) {
	h := newHarness(t)
	item, err := pipeline.NewProcessor(h.deps, nil).Process(context.Background(), entity.Capture{
		ContentType: constants.ContentText,
		Text:        "   \n\t ",
	})
	require.NoError(t, err)

	assert.Equal(t, constants.StatusCompleted, item.Status)
	assert.Equal(t, "Text note", item.Title)
	assert.Empty(t, item.Tasks)

	meta, err := entity.DecodeMetadata(item.Metadata)
	require.NoError(t, err)
	assert.True(t, meta.Structured.IsEmpty())
	assert.Empty(t, meta.Analysis.Entities)
	assert.Empty(t, meta.Connections)
}

func TestProcess_EmptyMixedCapture(t *testing.T) {
	h := newHarness(t)
	item, err := pipeline.NewProcessor(h.deps, nil).Process(context.Background(), entity.Capture{
		ContentType: constants.ContentMixed,
		Text:        " \n ",
	})
	require.NoError(t, err)

	assert.Equal(t, constants.StatusCompleted, item.Status)
	assert.Equal(t, "Capture", item.Title)
	assert.Empty(t, item.OCRText)
	assert.Empty(t, item.Tasks)

	meta, err := entity.DecodeMetadata(item.Metadata)
	require.NoError(t, err)
	assert.True(t, meta.Structured.IsEmpty())
	assert.Empty(t, meta.Connections)
}

func TestProcess_StatusAndProgressAreMonotonic(t *testing.T) {
	h := newHarness(t)
	var states []pipeline.State
	var fractions []float64
	_, err := pipeline.NewProcessor(h.deps, nil).ProcessWithProgress(context.Background(), imageCapture(),
		func(s pipeline.State, f float64) {
			states = append(states, s)
			fractions = append(fractions, f)
		})
	require.NoError(t, err)

	assert.Equal(t, []constants.ProcessingStatus{
		constants.StatusPending, constants.StatusProcessing, constants.StatusCompleted,
	}, h.repo.statuses)
	assert.Equal(t, []pipeline.State{
		pipeline.StateExtracting, pipeline.StateRecognizing, pipeline.StateAnalyzing,
		pipeline.StateGeneratingTasks, pipeline.StateLinking, pipeline.StateDone,
	}, states)
	assert.Equal(t, []float64{0.2, 0.4, 0.6, 0.8, 1.0, 1.0}, fractions)
}

func TestProcess_StructurallyIdempotent(t *testing.T) {
	h := newHarness(t)
	p := pipeline.NewProcessor(h.deps, nil)

	shape := func(item *entity.ContentItem) []string {
		meta, err := entity.DecodeMetadata(item.Metadata)
		require.NoError(t, err)
		out := []string{item.Title, item.FullText, item.Preview}
		for _, e := range meta.Analysis.Entities {
			out = append(out, string(e.Type)+":"+e.Text)
		}
		for _, task := range item.Tasks {
			out = append(out, string(task.Priority)+":"+task.Title)
		}
		for _, c := range meta.Connections {
			out = append(out, string(c.Relationship))
		}
		return out
	}

	first, err := p.Process(context.Background(), imageCapture())
	require.NoError(t, err)
	second, err := p.Process(context.Background(), imageCapture())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, shape(first), shape(second))
}

// =============================================================================
// Failure handling
// =============================================================================

func TestProcess_OCRFailureMarksRecordFailed(t *testing.T) {
	h := newHarness(t)
	h.deps.OCR = fakeOCR{err: errors.New("cannot decode image")}

	var last pipeline.State
	item, err := pipeline.NewProcessor(h.deps, nil).ProcessWithProgress(context.Background(), imageCapture(),
		func(s pipeline.State, _ float64) { last = s })
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrOCRFailed)
	assert.Equal(t, pipeline.StateFailed, last)

	require.NotNil(t, item)
	stored, gerr := h.repo.Get(context.Background(), item.ID)
	require.NoError(t, gerr)
	assert.Equal(t, constants.StatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "cannot decode image")
	assert.Empty(t, h.notifier.items)
}

func TestProcess_URLWithoutFetcherFailsExtraction(t *testing.T) {
	h := newHarness(t)
	_, err := pipeline.NewProcessor(h.deps, nil).Process(context.Background(), entity.Capture{
		ContentType: constants.ContentURL,
		SourceURL:   "https://example.com/a",
	})
	assert.ErrorIs(t, err, common.ErrExtractionFailed)
}

func TestProcess_OptionalStagesDegrade(t *testing.T) {
	h := newHarness(t)
	h.deps.Analyzer = failingAnalyzer{}
	h.deps.Tasks = failingTasks{}

	item, err := pipeline.NewProcessor(h.deps, nil).Process(context.Background(), imageCapture())
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, item.Status)
	assert.Empty(t, item.Tasks)

	meta, err := entity.DecodeMetadata(item.Metadata)
	require.NoError(t, err)
	assert.Equal(t, entity.SentimentNeutral, meta.Analysis.Sentiment)
	assert.Len(t, meta.Warnings, 2)
	assert.NotEmpty(t, meta.Structured.Dates, "structured detection still runs")
}

func TestProcess_RelationshipFailureDegrades(t *testing.T) {
	h := newHarness(t)
	h.deps.Graph = failingGraph{}

	item, err := pipeline.NewProcessor(h.deps, nil).Process(context.Background(), imageCapture())
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, item.Status)
	assert.NotEmpty(t, item.Tasks)

	meta, err := entity.DecodeMetadata(item.Metadata)
	require.NoError(t, err)
	assert.Empty(t, meta.Connections)
	assert.NotNil(t, findEntity(meta.Analysis.Entities, "John Smith"))
	require.Len(t, meta.Warnings, 1)
	assert.Contains(t, meta.Warnings[0], "relationship extraction unavailable")

	stored, err := h.repo.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, stored.Status)
	assert.Len(t, stored.Tasks, len(item.Tasks))
}

func TestProcess_PersistenceFailure(t *testing.T) {
	h := newHarness(t)
	h.repo.saveErr = errors.New("disk full")

	item, err := pipeline.NewProcessor(h.deps, nil).Process(context.Background(), imageCapture())
	assert.ErrorIs(t, err, common.ErrPersistence)
	require.NotNil(t, item)
	assert.Equal(t, constants.StatusFailed, item.Status)
	assert.Equal(t, []constants.ProcessingStatus{
		constants.StatusPending, constants.StatusProcessing, constants.StatusFailed,
	}, h.repo.statuses)
}

func TestProcess_InvalidCaptureCreatesNothing(t *testing.T) {
	h := newHarness(t)
	_, err := pipeline.NewProcessor(h.deps, nil).Process(context.Background(), entity.Capture{
		ContentType: constants.ContentImage,
	})
	assert.ErrorIs(t, err, common.ErrInvalidCapture)
	assert.Empty(t, h.repo.statuses)
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name, hint, text string
		ct               constants.ContentType
		want             string
	}{
		{"first line", "", "\n  Groceries \nmilk", constants.ContentText, "Groceries"},
		{"hint wins", "Page Title", "body", constants.ContentURL, "Page Title"},
		{"default", "", "", constants.ContentImage, "Image capture"},
		{"truncated", "", "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyzabcdefghijklmnop", constants.ContentText, "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyzabcdefgh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pipeline.DeriveTitle(tt.hint, tt.text, tt.ct))
		})
	}
}
