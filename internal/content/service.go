package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/async"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/repository"
	"github.com/joseph-ayodele/capture-tracker/internal/search"
)

// maxTitleRunes bounds user-supplied titles.
const maxTitleRunes = 200

// Indexer is the part of the search index user actions keep in sync.
type Indexer interface {
	Add(item *entity.ContentItem)
	Remove(id uuid.UUID)
	Search(query string, limit int) []search.Hit
}

// Submitter runs a capture and waits for the stored record.
type Submitter interface {
	SubmitAndWait(ctx context.Context, job async.Job) (*entity.ContentItem, error)
}

// Service applies user actions to stored content.
type Service struct {
	content repository.ContentRepository
	tasks   repository.TaskRepository
	index   Indexer
	submit  Submitter
	logger  *slog.Logger
}

func NewService(content repository.ContentRepository, tasks repository.TaskRepository, index Indexer, submit Submitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{content: content, tasks: tasks, index: index, submit: submit, logger: logger}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.ContentItem, error) {
	return s.content.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f entity.ContentFilter) ([]*entity.ContentItem, error) {
	if f.ContentType != "" && !f.ContentType.Valid() {
		return nil, common.NewAppError("INVALID_FILTER", fmt.Sprintf("unknown content type %q", f.ContentType), common.ErrInvalidInput)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, common.NewAppError("INVALID_FILTER", fmt.Sprintf("unknown status %q", f.Status), common.ErrInvalidInput)
	}
	if f.Limit <= 0 {
		f.Limit = repository.DefaultListLimit
	}
	return s.content.List(ctx, f)
}

func (s *Service) Tasks(ctx context.Context, f entity.TaskFilter) ([]entity.GeneratedTask, error) {
	return s.tasks.List(ctx, f)
}

// Search resolves index hits to stored records, skipping ids deleted since indexing.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*entity.ContentItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, common.NewAppError("INVALID_QUERY", "query is required", common.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}
	hits := s.index.Search(query, limit)
	out := make([]*entity.ContentItem, 0, len(hits))
	for _, h := range hits {
		item, err := s.content.Get(ctx, h.ID)
		if errors.Is(err, common.ErrNotFound) {
			s.index.Remove(h.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) ToggleFavorite(ctx context.Context, id uuid.UUID) (*entity.ContentItem, error) {
	item, err := s.content.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.content.SetFavorite(ctx, id, !item.Favorite)
	if err != nil {
		return nil, err
	}
	s.logger.Info("content.favorite", "content_id", id, "favorite", updated.Favorite)
	return updated, nil
}

func (s *Service) Edit(ctx context.Context, id uuid.UUID, edit entity.ContentEdit) (*entity.ContentItem, error) {
	v := common.NewValidator()
	if edit.Title != nil {
		v.Field("title", *edit.Title, common.Required, common.MaxLen(maxTitleRunes))
	}
	if v.HasErrors() {
		return nil, common.NewAppError("INVALID_EDIT", v.ErrorMessage(), common.ErrValidation)
	}
	if edit.Title != nil {
		t := strings.TrimSpace(*edit.Title)
		edit.Title = &t
	}
	item, err := s.content.Edit(ctx, id, edit)
	if err != nil {
		return nil, err
	}
	if item.Status == constants.StatusCompleted {
		s.index.Add(item)
	}
	s.logger.Info("content.edited", "content_id", id)
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.content.Delete(ctx, id); err != nil {
		return err
	}
	s.index.Remove(id)
	s.logger.Info("content.deleted", "content_id", id)
	return nil
}

func (s *Service) ToggleTask(ctx context.Context, id uuid.UUID) (*entity.GeneratedTask, error) {
	t, err := s.tasks.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("content.task.toggled", "task_id", id, "completed", t.Completed)
	return t, nil
}

func (s *Service) EditTask(ctx context.Context, id uuid.UUID, edit entity.TaskEdit) (*entity.GeneratedTask, error) {
	v := common.NewValidator()
	if edit.Title != nil {
		v.Field("title", *edit.Title, common.Required, common.MaxLen(maxTitleRunes))
	}
	if edit.Priority != nil {
		v.Field("priority", *edit.Priority, common.OneOf(
			string(constants.PriorityLow), string(constants.PriorityMedium),
			string(constants.PriorityHigh), string(constants.PriorityUrgent)))
	}
	if v.HasErrors() {
		return nil, common.NewAppError("INVALID_EDIT", v.ErrorMessage(), common.ErrValidation)
	}
	return s.tasks.Edit(ctx, id, edit)
}

// Reprocess runs the stored inputs of id through the pipeline as a new record.
// The old record is removed only after the new one completes.
func (s *Service) Reprocess(ctx context.Context, id uuid.UUID) (*entity.ContentItem, error) {
	old, err := s.content.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !old.Status.IsTerminal() {
		return nil, fmt.Errorf("reprocess %s: %w", id, common.ErrAlreadyProcessing)
	}

	c := captureFrom(old)
	if c.ContentType == constants.ContentText && old.ContentType == constants.ContentImage {
		s.logger.Warn("content.reprocess.no_attachment", "content_id", id)
	}

	start := time.Now()
	item, err := s.submit.SubmitAndWait(ctx, async.Job{
		Key:         id.String(),
		Capture:     c,
		Priority:    1,
		SubmittedAt: start,
	})
	if err != nil {
		return item, fmt.Errorf("reprocess %s: %w", id, err)
	}
	if old.Favorite {
		if fav, err := s.content.SetFavorite(ctx, item.ID, true); err == nil {
			item.Favorite = fav.Favorite
		}
	}
	if err := s.content.Delete(ctx, id); err != nil && !errors.Is(err, common.ErrNotFound) {
		return item, fmt.Errorf("remove replaced record: %w", err)
	}
	s.index.Remove(id)
	s.logger.Info("content.reprocessed",
		"old_id", id,
		"content_id", item.ID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return item, nil
}

// Warm loads completed records into the index. Used at startup.
func (s *Service) Warm(ctx context.Context) (int, error) {
	n := 0
	for offset := 0; ; offset += repository.MaxListLimit {
		page, err := s.content.List(ctx, entity.ContentFilter{
			Status: constants.StatusCompleted,
			Limit:  repository.MaxListLimit,
			Offset: offset,
		})
		if err != nil {
			return n, err
		}
		for _, it := range page {
			s.index.Add(it)
		}
		n += len(page)
		if len(page) < repository.MaxListLimit {
			break
		}
	}
	s.logger.Info("content.index.warmed", "documents", n)
	return n, nil
}

// captureFrom rebuilds a capture from a stored record. Images whose bytes were
// not retained fall back to their recognized text.
func captureFrom(it *entity.ContentItem) entity.Capture {
	c := entity.Capture{
		ContentType: it.ContentType,
		Source:      it.Source,
		SourceURL:   it.SourceURL,
		ContentHash: it.ContentHash,
		CapturedAt:  it.CreatedAt,
	}
	switch it.ContentType {
	case constants.ContentURL:
	case constants.ContentImage, constants.ContentMixed:
		if len(it.Attachment) > 0 {
			c.ImageData = it.Attachment
			if it.ContentType == constants.ContentMixed {
				c.Text = strings.TrimSpace(strings.TrimSuffix(it.FullText, it.OCRText))
			}
			break
		}
		c.ContentType = constants.ContentText
		c.Text = it.FullText
	default:
		c.Text = it.FullText
	}
	return c
}
