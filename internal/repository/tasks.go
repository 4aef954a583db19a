package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

const taskTable = "generated_tasks"

var taskColumns = []string{
	"id", "content_id", "title", "description", "priority", "confidence", "due_date",
	"reasons", "category", "completed", "position", "created_at", "updated_at",
}

// TaskRepository covers user-side task mutations. Tasks are created only through
// ContentRepository.SaveResult.
type TaskRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.GeneratedTask, error)
	List(ctx context.Context, filter entity.TaskFilter) ([]entity.GeneratedTask, error)
	Toggle(ctx context.Context, id uuid.UUID) (*entity.GeneratedTask, error)
	Edit(ctx context.Context, id uuid.UUID, edit entity.TaskEdit) (*entity.GeneratedTask, error)
}

type taskRepo struct {
	store
}

func NewTaskRepository(db *DB, logger *slog.Logger) TaskRepository {
	return &taskRepo{store: newStore(db, logger)}
}

func (r *taskRepo) Get(ctx context.Context, id uuid.UUID) (*entity.GeneratedTask, error) {
	t, err := getTask(ctx, r.store, r.drv, id)
	if err != nil {
		return nil, dbErr("get task", err)
	}
	return t, nil
}

func (r *taskRepo) List(ctx context.Context, f entity.TaskFilter) ([]entity.GeneratedTask, error) {
	out, err := listTasks(ctx, r.store, f)
	if err != nil {
		return nil, dbErr("list tasks", err)
	}
	return out, nil
}

// Toggle flips completion inside a transaction so concurrent toggles serialize.
func (r *taskRepo) Toggle(ctx context.Context, id uuid.UUID) (*entity.GeneratedTask, error) {
	var out *entity.GeneratedTask
	err := r.withTx(ctx, func(tx dialect.Tx) error {
		t, err := getTask(ctx, r.store, tx, id)
		if err != nil {
			return err
		}
		t.Completed = !t.Completed
		t.UpdatedAt = r.now().UTC()
		q, args := r.sql().Update(taskTable).
			Set("completed", t.Completed).
			Set("updated_at", toMillis(t.UpdatedAt)).
			Where(entsql.EQ("id", id.String())).Query()
		if _, err := exec(ctx, tx, q, args); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, dbErr("toggle task", err)
	}
	r.logger.Debug("repository.task.toggled", "task_id", id, "completed", out.Completed)
	return out, nil
}

func (r *taskRepo) Edit(ctx context.Context, id uuid.UUID, edit entity.TaskEdit) (*entity.GeneratedTask, error) {
	u := r.sql().Update(taskTable).Set("updated_at", toMillis(r.now()))
	if edit.Title != nil {
		u.Set("title", *edit.Title)
	}
	if edit.Description != nil {
		u.Set("description", *edit.Description)
	}
	if edit.Priority != nil {
		u.Set("priority", string(*edit.Priority))
	}
	if edit.DueDate != nil {
		u.Set("due_date", toMillis(*edit.DueDate))
	}
	q, args := u.Where(entsql.EQ("id", id.String())).Query()
	n, err := exec(ctx, r.drv, q, args)
	if err != nil {
		return nil, dbErr("edit task", err)
	}
	if n == 0 {
		return nil, dbErr("edit task", common.ErrNotFound)
	}
	return r.Get(ctx, id)
}

func insertTask(ctx context.Context, s store, eq dialect.ExecQuerier, t *entity.GeneratedTask, position int, now time.Time) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.Category == "" {
		t.Category = constants.CategoryGeneral
	}
	var due any
	if t.DueDate != nil {
		due = toMillis(*t.DueDate)
	}
	reasons, err := json.Marshal(t.Reasons)
	if err != nil {
		return fmt.Errorf("encode reasons: %w", err)
	}
	q, args := s.sql().Insert(taskTable).
		Columns(taskColumns...).
		Values(
			t.ID.String(), t.ContentID.String(), t.Title, t.Description, string(t.Priority),
			entity.Clamp01(t.Confidence), due, string(reasons), string(t.Category), t.Completed,
			position, toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
		).Query()
	_, err = exec(ctx, eq, q, args)
	return err
}

func getTask(ctx context.Context, s store, eq dialect.ExecQuerier, id uuid.UUID) (*entity.GeneratedTask, error) {
	q, args := s.sql().Select(taskColumns...).
		From(entsql.Table(taskTable)).
		Where(entsql.EQ("id", id.String())).Query()
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
	t, err := scanTask(rows)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func listTasks(ctx context.Context, s store, f entity.TaskFilter) ([]entity.GeneratedTask, error) {
	sel := s.sql().Select(taskColumns...).From(entsql.Table(taskTable))
	var preds []*entsql.Predicate
	if f.ContentID != nil {
		preds = append(preds, entsql.EQ("content_id", f.ContentID.String()))
	}
	if f.OpenOnly {
		preds = append(preds, entsql.EQ("completed", false))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if f.ContentID != nil {
		sel.OrderBy("position")
	} else {
		sel.OrderBy(entsql.Desc("created_at"), "position")
	}
	if f.Limit > 0 {
		sel.Limit(min(f.Limit, MaxListLimit))
	}
	q, args := sel.Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, q, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.GeneratedTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTask(rows *entsql.Rows) (entity.GeneratedTask, error) {
	var (
		t                                entity.GeneratedTask
		id, contentID, priority, reasons string
		category                         string
		due                              sql.NullInt64
		position                         int
		createdAt, updatedAt             int64
	)
	if err := rows.Scan(
		&id, &contentID, &t.Title, &t.Description, &priority, &t.Confidence, &due,
		&reasons, &category, &t.Completed, &position, &createdAt, &updatedAt,
	); err != nil {
		return t, err
	}
	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return t, fmt.Errorf("parse task id %q: %w", id, err)
	}
	if t.ContentID, err = uuid.Parse(contentID); err != nil {
		return t, fmt.Errorf("parse content id %q: %w", contentID, err)
	}
	t.Priority = constants.Priority(priority)
	t.Category, _ = constants.Canonicalize(category)
	if due.Valid {
		d := fromMillis(due.Int64)
		t.DueDate = &d
	}
	if reasons != "" && reasons != "null" {
		if err := json.Unmarshal([]byte(reasons), &t.Reasons); err != nil {
			return t, fmt.Errorf("decode reasons: %w", err)
		}
	}
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}
