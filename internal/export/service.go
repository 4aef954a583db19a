package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/repository"
)

const (
	ContentSheet = "Content"
	TasksSheet   = "Tasks"
)

// Window bounds an export by capture date. Both ends are inclusive dates in UTC.
type Window struct {
	From         *time.Time
	To           *time.Time
	FavoriteOnly bool
}

// Service produces XLSX bytes for exports.
type Service struct {
	content repository.ContentRepository
	tasks   repository.TaskRepository
	logger  *slog.Logger
}

func NewService(content repository.ContentRepository, tasks repository.TaskRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{content: content, tasks: tasks, logger: logger}
}

// ExportXLSX returns a workbook with one row per content item and one row per task.
// If only From is set the window runs to today; if neither is set everything is exported.
func (s *Service) ExportXLSX(ctx context.Context, w Window) ([]byte, error) {
	start := time.Now()

	fromDate, toDate := normalizeWindow(w.From, w.To, time.Now().UTC())

	all, err := s.content.List(ctx, entity.ContentFilter{FavoriteOnly: w.FavoriteOnly})
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	items := make([]*entity.ContentItem, 0, len(all))
	byID := make(map[uuid.UUID]*entity.ContentItem, len(all))
	for _, it := range all {
		day := dateOnly(it.CreatedAt)
		if fromDate != nil && day.Before(*fromDate) {
			continue
		}
		if toDate != nil && day.After(*toDate) {
			continue
		}
		items = append(items, it)
		byID[it.ID] = it
	}

	allTasks, err := s.tasks.List(ctx, entity.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// NewFile starts with "Sheet1"; rename it rather than leave an empty sheet behind.
	if err := f.SetSheetName("Sheet1", ContentSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	if _, err := f.NewSheet(TasksSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	activeIndex, _ := f.GetSheetIndex(ContentSheet)
	f.SetActiveSheet(activeIndex)

	writeRow(f, ContentSheet, 1, []any{
		"Captured At", "Title", "Type", "Source", "Status", "Favorite",
		"Confidence", "Topics", "Preview", "Source URL", "ID",
	})
	for i, it := range items {
		topics := ""
		if m, err := entity.DecodeMetadata(it.Metadata); err == nil {
			topics = strings.Join(m.Analysis.Topics, ", ")
		}
		writeRow(f, ContentSheet, i+2, []any{
			it.CreatedAt.Format(time.DateTime),
			it.Title,
			string(it.ContentType),
			string(it.Source),
			string(it.Status),
			it.Favorite,
			round2(it.Confidence),
			topics,
			truncate(it.Preview, 140),
			it.SourceURL,
			it.ID.String(),
		})
	}

	writeRow(f, TasksSheet, 1, []any{
		"Content", "Task", "Priority", "Category", "Due Date", "Completed", "Confidence", "Reasons", "Content ID",
	})
	row := 2
	for _, t := range allTasks {
		parent, ok := byID[t.ContentID]
		if !ok {
			continue
		}
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format(time.DateOnly)
		}
		writeRow(f, TasksSheet, row, []any{
			parent.Title,
			t.Title,
			string(t.Priority),
			string(t.Category),
			due,
			t.Completed,
			round2(t.Confidence),
			strings.Join(t.Reasons, "; "),
			t.ContentID.String(),
		})
		row++
	}

	_ = f.SetColWidth(ContentSheet, "A", "A", 20) // captured at
	_ = f.SetColWidth(ContentSheet, "B", "B", 36) // title
	_ = f.SetColWidth(ContentSheet, "H", "H", 28) // topics
	_ = f.SetColWidth(ContentSheet, "I", "I", 60) // preview
	_ = f.SetColWidth(TasksSheet, "A", "B", 36)
	_ = f.SetColWidth(TasksSheet, "H", "H", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"content_rows", len(items),
		"task_rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(sheet, cell, &values)
}

func normalizeWindow(from, to *time.Time, now time.Time) (*time.Time, *time.Time) {
	var fromDate, toDate *time.Time
	if from != nil {
		f := dateOnly(*from)
		fromDate = &f
	}
	if to != nil {
		t := dateOnly(*to)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		t := dateOnly(now)
		toDate = &t
	}
	return fromDate, toDate
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
