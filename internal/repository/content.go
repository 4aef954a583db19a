package repository

import (
	"context"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

const (
	contentTable     = "content_items"
	DefaultListLimit = 50
	MaxListLimit     = 500
)

var contentColumns = []string{
	"id", "title", "preview", "full_text", "ocr_text", "content_type", "source", "source_url",
	"favorite", "status", "confidence", "content_hash", "error", "attachment", "metadata",
	"created_at", "updated_at",
}

// ContentRepository persists content items. Status changes only move forward.
type ContentRepository interface {
	Create(ctx context.Context, item *entity.ContentItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, to constants.ProcessingStatus, reason string) error
	// SaveResult writes the finished record and replaces its tasks in one transaction.
	SaveResult(ctx context.Context, item *entity.ContentItem) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ContentItem, error)
	List(ctx context.Context, filter entity.ContentFilter) ([]*entity.ContentItem, error)
	FindByHash(ctx context.Context, hash string) (*entity.ContentItem, error)
	SetFavorite(ctx context.Context, id uuid.UUID, favorite bool) (*entity.ContentItem, error)
	Edit(ctx context.Context, id uuid.UUID, edit entity.ContentEdit) (*entity.ContentItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type contentRepo struct {
	store
}

func NewContentRepository(db *DB, logger *slog.Logger) ContentRepository {
	return &contentRepo{store: newStore(db, logger)}
}

func (r *contentRepo) Create(ctx context.Context, item *entity.ContentItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = constants.StatusPending
	}
	now := r.now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	if err := ValidateMetadata(item.Metadata); err != nil {
		return err
	}

	q, args := r.sql().Insert(contentTable).
		Columns(contentColumns...).
		Values(
			item.ID.String(), item.Title, item.Preview, item.FullText, item.OCRText,
			string(item.ContentType), string(item.Source), item.SourceURL,
			item.Favorite, string(item.Status), entity.Clamp01(item.Confidence),
			item.ContentHash, item.Error, item.Attachment, string(item.Metadata),
			toMillis(item.CreatedAt), toMillis(item.UpdatedAt),
		).Query()
	if _, err := exec(ctx, r.drv, q, args); err != nil {
		r.logger.Error("failed to create content item", "content_id", item.ID, "error", err)
		return dbErr("create content", err)
	}
	r.logger.Debug("repository.content.created", "content_id", item.ID, "status", item.Status)
	return nil
}

func (r *contentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, to constants.ProcessingStatus, reason string) error {
	if !to.Valid() {
		return fmt.Errorf("update status: %w: unknown status %q", common.ErrInvalidTransition, to)
	}
	u := r.sql().Update(contentTable).
		Set("status", string(to)).
		Set("updated_at", toMillis(r.now()))
	if to == constants.StatusFailed {
		u.Set("error", reason)
	}
	q, args := u.Where(entsql.And(
		entsql.EQ("id", id.String()),
		entsql.In("status", statusArgs(constants.Predecessors(to))...),
	)).Query()

	n, err := exec(ctx, r.drv, q, args)
	if err != nil {
		return dbErr("update status", err)
	}
	if n == 0 {
		return r.transitionError(ctx, r.drv, id, to)
	}
	r.logger.Debug("repository.content.status", "content_id", id, "status", to)
	return nil
}

func (r *contentRepo) SaveResult(ctx context.Context, item *entity.ContentItem) error {
	if err := ValidateMetadata(item.Metadata); err != nil {
		return err
	}
	now := r.now().UTC()
	err := r.withTx(ctx, func(tx dialect.Tx) error {
		q, args := r.sql().Update(contentTable).
			Set("title", item.Title).
			Set("preview", item.Preview).
			Set("full_text", item.FullText).
			Set("ocr_text", item.OCRText).
			Set("source_url", item.SourceURL).
			Set("confidence", entity.Clamp01(item.Confidence)).
			Set("attachment", item.Attachment).
			Set("metadata", string(item.Metadata)).
			Set("status", string(constants.StatusCompleted)).
			Set("error", "").
			Set("updated_at", toMillis(now)).
			Where(entsql.And(
				entsql.EQ("id", item.ID.String()),
				entsql.In("status", statusArgs(constants.Predecessors(constants.StatusCompleted))...),
			)).Query()
		n, err := exec(ctx, tx, q, args)
		if err != nil {
			return err
		}
		if n == 0 {
			return r.transitionError(ctx, tx, item.ID, constants.StatusCompleted)
		}

		q, args = r.sql().Delete(taskTable).Where(entsql.EQ("content_id", item.ID.String())).Query()
		if _, err := exec(ctx, tx, q, args); err != nil {
			return err
		}
		for i := range item.Tasks {
			t := &item.Tasks[i]
			t.ContentID = item.ID
			if err := insertTask(ctx, r.store, tx, t, i, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to save content result", "content_id", item.ID, "tasks", len(item.Tasks), "error", err)
		return dbErr("save result", err)
	}
	item.Status = constants.StatusCompleted
	item.Error = ""
	item.UpdatedAt = now
	r.logger.Debug("repository.content.saved", "content_id", item.ID, "tasks", len(item.Tasks))
	return nil
}

func (r *contentRepo) Get(ctx context.Context, id uuid.UUID) (*entity.ContentItem, error) {
	item, err := r.getOne(ctx, r.drv, entsql.EQ("id", id.String()))
	if err != nil {
		return nil, dbErr("get content", err)
	}
	tasks, err := listTasks(ctx, r.store, entity.TaskFilter{ContentID: &item.ID})
	if err != nil {
		return nil, dbErr("get content tasks", err)
	}
	item.Tasks = tasks
	return item, nil
}

func (r *contentRepo) FindByHash(ctx context.Context, hash string) (*entity.ContentItem, error) {
	if hash == "" {
		return nil, fmt.Errorf("find by hash: %w", common.ErrNotFound)
	}
	item, err := r.getOne(ctx, r.drv, entsql.EQ("content_hash", hash))
	if err != nil {
		return nil, dbErr("find by hash", err)
	}
	return item, nil
}

func (r *contentRepo) List(ctx context.Context, f entity.ContentFilter) ([]*entity.ContentItem, error) {
	var preds []*entsql.Predicate
	if f.ContentType != "" {
		preds = append(preds, entsql.EQ("content_type", string(f.ContentType)))
	}
	if f.Status != "" {
		preds = append(preds, entsql.EQ("status", string(f.Status)))
	}
	if f.FavoriteOnly {
		preds = append(preds, entsql.EQ("favorite", true))
	}

	sel := r.sql().Select(contentColumns...).From(entsql.Table(contentTable))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("created_at"), "id")
	if f.Limit > 0 {
		sel.Limit(min(f.Limit, MaxListLimit))
	}
	if f.Offset > 0 {
		if f.Limit <= 0 {
			sel.Limit(MaxListLimit)
		}
		sel.Offset(f.Offset)
	}
	q, args := sel.Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, q, args, rows); err != nil {
		return nil, dbErr("list content", err)
	}
	defer rows.Close()

	var out []*entity.ContentItem
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, dbErr("scan content", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list content", err)
	}
	return out, nil
}

func (r *contentRepo) SetFavorite(ctx context.Context, id uuid.UUID, favorite bool) (*entity.ContentItem, error) {
	q, args := r.sql().Update(contentTable).
		Set("favorite", favorite).
		Set("updated_at", toMillis(r.now())).
		Where(entsql.EQ("id", id.String())).Query()
	if err := r.updateOne(ctx, q, args); err != nil {
		return nil, dbErr("set favorite", err)
	}
	return r.Get(ctx, id)
}

func (r *contentRepo) Edit(ctx context.Context, id uuid.UUID, edit entity.ContentEdit) (*entity.ContentItem, error) {
	if edit.Title == nil && edit.FullText == nil {
		return r.Get(ctx, id)
	}
	u := r.sql().Update(contentTable).Set("updated_at", toMillis(r.now()))
	if edit.Title != nil {
		u.Set("title", *edit.Title)
	}
	if edit.FullText != nil {
		u.Set("full_text", *edit.FullText)
	}
	q, args := u.Where(entsql.EQ("id", id.String())).Query()
	if err := r.updateOne(ctx, q, args); err != nil {
		return nil, dbErr("edit content", err)
	}
	return r.Get(ctx, id)
}

// Delete removes the record; its tasks go with it through the cascading foreign key.
func (r *contentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.withTx(ctx, func(tx dialect.Tx) error {
		q, args := r.sql().Delete(taskTable).Where(entsql.EQ("content_id", id.String())).Query()
		if _, err := exec(ctx, tx, q, args); err != nil {
			return err
		}
		q, args = r.sql().Delete(contentTable).Where(entsql.EQ("id", id.String())).Query()
		n, err := exec(ctx, tx, q, args)
		if err != nil {
			return err
		}
		if n == 0 {
			return common.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return dbErr("delete content", err)
	}
	r.logger.Info("repository.content.deleted", "content_id", id)
	return nil
}

func (r *contentRepo) Count(ctx context.Context) (int, error) {
	q, args := r.sql().Select(entsql.Count("*")).From(entsql.Table(contentTable)).Query()
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, q, args, rows); err != nil {
		return 0, dbErr("count content", err)
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, dbErr("count content", err)
		}
	}
	return n, dbErr("count content", rows.Err())
}

func (r *contentRepo) updateOne(ctx context.Context, q string, args []any) error {
	n, err := exec(ctx, r.drv, q, args)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *contentRepo) getOne(ctx context.Context, eq dialect.ExecQuerier, pred *entsql.Predicate) (*entity.ContentItem, error) {
	q, args := r.sql().Select(contentColumns...).
		From(entsql.Table(contentTable)).
		Where(pred).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("updated_at")).
		Limit(1).Query()
	rows := &entsql.Rows{}
	if err := eq.Query(ctx, q, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, common.ErrNotFound
	}
	return scanContent(rows)
}

// transitionError explains why a guarded status update touched no rows.
func (r *contentRepo) transitionError(ctx context.Context, eq dialect.ExecQuerier, id uuid.UUID, to constants.ProcessingStatus) error {
	cur, err := r.getOne(ctx, eq, entsql.EQ("id", id.String()))
	if err != nil {
		return err
	}
	if constants.CanTransition(cur.Status, to) {
		return fmt.Errorf("%w: %s changed concurrently", common.ErrInvalidTransition, id)
	}
	return fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, cur.Status, to)
}

func scanContent(rows *entsql.Rows) (*entity.ContentItem, error) {
	var (
		item                            entity.ContentItem
		id, contentType, source, status string
		metadata                        string
		createdAt, updatedAt            int64
	)
	if err := rows.Scan(
		&id, &item.Title, &item.Preview, &item.FullText, &item.OCRText, &contentType, &source,
		&item.SourceURL, &item.Favorite, &status, &item.Confidence, &item.ContentHash, &item.Error,
		&item.Attachment, &metadata, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse content id %q: %w", id, err)
	}
	item.ID = parsed
	item.ContentType = constants.ContentType(contentType)
	item.Source = constants.Source(source)
	item.Status = constants.ProcessingStatus(status)
	if metadata != "" {
		item.Metadata = []byte(metadata)
	}
	item.CreatedAt = fromMillis(createdAt)
	item.UpdatedAt = fromMillis(updatedAt)
	return &item, nil
}

func statusArgs(ss []constants.ProcessingStatus) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
