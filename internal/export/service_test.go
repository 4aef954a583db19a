package export_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/export"
	"github.com/joseph-ayodele/capture-tracker/internal/repository"
)

func seed(t *testing.T, repo repository.ContentRepository, title string, created time.Time, tasks ...string) *entity.ContentItem {
	t.Helper()
	ctx := context.Background()
	item := &entity.ContentItem{
		Title:       title,
		ContentType: constants.ContentText,
		Source:      constants.SourceManual,
		CreatedAt:   created,
	}
	require.NoError(t, repo.Create(ctx, item))
	require.NoError(t, repo.UpdateStatus(ctx, item.ID, constants.StatusProcessing, ""))
	item.Confidence = 0.756
	for _, title := range tasks {
		item.Tasks = append(item.Tasks, entity.GeneratedTask{
			Title:    title,
			Priority: constants.PriorityMedium,
			Category: constants.CategoryFollowUp,
			Reasons:  []string{"person mentioned"},
		})
	}
	require.NoError(t, repo.SaveResult(ctx, item))
	return item
}

func TestExportXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{
		Driver: repository.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "export.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, nil) })
	require.NoError(t, repository.Migrate(ctx, db))

	content := repository.NewContentRepository(db, nil)
	tasks := repository.NewTaskRepository(db, nil)

	jan := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	seed(t, content, "January note", jan, "Follow up with John")
	seed(t, content, "March note", mar, "Research Acme", "Follow up with Jane")

	svc := export.NewService(content, tasks, nil)

	tests := []struct {
		name         string
		window       export.Window
		wantContent  []string
		wantTaskRows int
	}{
		{name: "everything", wantContent: []string{"March note", "January note"}, wantTaskRows: 3},
		{
			name:         "bounded window",
			window:       export.Window{From: ptr(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)), To: ptr(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))},
			wantContent:  []string{"March note"},
			wantTaskRows: 2,
		},
		{
			name:         "to only",
			window:       export.Window{To: ptr(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))},
			wantContent:  []string{"January note"},
			wantTaskRows: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := svc.ExportXLSX(ctx, tt.window)
			require.NoError(t, err)

			f, err := excelize.OpenReader(bytes.NewReader(b))
			require.NoError(t, err)
			defer f.Close()

			assert.Equal(t, []string{export.ContentSheet, export.TasksSheet}, f.GetSheetList())

			rows, err := f.GetRows(export.ContentSheet)
			require.NoError(t, err)
			require.Len(t, rows, len(tt.wantContent)+1)
			assert.Equal(t, "Title", rows[0][1])
			for i, title := range tt.wantContent {
				assert.Equal(t, title, rows[i+1][1])
			}

			taskRows, err := f.GetRows(export.TasksSheet)
			require.NoError(t, err)
			assert.Len(t, taskRows, tt.wantTaskRows+1)
		})
	}
}

func ptr[T any](v T) *T { return &v }
