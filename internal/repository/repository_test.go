package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/repository"
)

func openTestDB(t *testing.T) *repository.DB {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{
		Driver: repository.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, nil) })
	require.NoError(t, repository.Migrate(ctx, db))
	return db
}

func newPending(title string) *entity.ContentItem {
	return &entity.ContentItem{
		Title:       title,
		ContentType: constants.ContentText,
		Source:      constants.SourceManual,
	}
}

// =============================================================================
// Status transitions
// =============================================================================

func TestContent_StatusMovesForwardOnly(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewContentRepository(openTestDB(t), nil)

	item := newPending("note")
	require.NoError(t, repo.Create(ctx, item))
	assert.Equal(t, constants.StatusPending, item.Status)

	err := repo.UpdateStatus(ctx, item.ID, constants.StatusCompleted, "")
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	require.NoError(t, repo.UpdateStatus(ctx, item.ID, constants.StatusProcessing, ""))
	err = repo.UpdateStatus(ctx, item.ID, constants.StatusPending, "")
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	require.NoError(t, repo.UpdateStatus(ctx, item.ID, constants.StatusFailed, "ocr exploded"))
	got, err := repo.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusFailed, got.Status)
	assert.Equal(t, "ocr exploded", got.Error)

	err = repo.UpdateStatus(ctx, item.ID, constants.StatusProcessing, "")
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestContent_UpdateStatusUnknownID(t *testing.T) {
	repo := repository.NewContentRepository(openTestDB(t), nil)
	err := repo.UpdateStatus(context.Background(), uuid.New(), constants.StatusProcessing, "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

// =============================================================================
// SaveResult
// =============================================================================

func TestContent_SaveResultWritesTasksAtomically(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := repository.NewContentRepository(db, nil)
	tasks := repository.NewTaskRepository(db, nil)

	item := newPending("")
	require.NoError(t, repo.Create(ctx, item))
	require.NoError(t, repo.UpdateStatus(ctx, item.ID, constants.StatusProcessing, ""))

	due := time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)
	meta, err := entity.Metadata{Analysis: entity.EmptyAnalysis(), OCRConfidence: 0.9}.Marshal()
	require.NoError(t, err)
	item.Title = "Meeting notes"
	item.FullText = "Meeting with John"
	item.Confidence = 1.7
	item.Metadata = meta
	item.Tasks = []entity.GeneratedTask{
		{Title: "Prepare for meeting", Priority: constants.PriorityHigh, DueDate: &due, Reasons: []string{"Keyword found: meeting"}, Category: constants.CategoryMeeting},
		{Title: "Follow up with John", Priority: constants.PriorityMedium},
	}
	require.NoError(t, repo.SaveResult(ctx, item))
	assert.Equal(t, constants.StatusCompleted, item.Status)

	got, err := repo.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Meeting notes", got.Title)
	assert.Equal(t, 1.0, got.Confidence)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "Prepare for meeting", got.Tasks[0].Title)
	assert.Equal(t, item.ID, got.Tasks[0].ContentID)
	require.NotNil(t, got.Tasks[0].DueDate)
	assert.True(t, due.Equal(*got.Tasks[0].DueDate))
	assert.Equal(t, []string{"Keyword found: meeting"}, got.Tasks[0].Reasons)
	assert.Equal(t, constants.CategoryGeneral, got.Tasks[1].Category)
	assert.Nil(t, got.Tasks[1].DueDate)

	decoded, err := entity.DecodeMetadata(got.Metadata)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, decoded.OCRConfidence, 1e-9)

	// A completed record cannot be completed again.
	err = repo.SaveResult(ctx, item)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	open, err := tasks.List(ctx, entity.TaskFilter{OpenOnly: true})
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestContent_SaveResultRejectsBadMetadata(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewContentRepository(openTestDB(t), nil)

	item := newPending("x")
	require.NoError(t, repo.Create(ctx, item))
	require.NoError(t, repo.UpdateStatus(ctx, item.ID, constants.StatusProcessing, ""))

	item.Metadata = []byte(`{"ocr_confidence": 4}`)
	err := repo.SaveResult(ctx, item)
	assert.ErrorIs(t, err, common.ErrValidation)

	got, err := repo.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusProcessing, got.Status)
}

// =============================================================================
// User actions
// =============================================================================

func TestContent_ListFiltersAndPaging(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewContentRepository(openTestDB(t), nil)

	for i, ct := range []constants.ContentType{constants.ContentText, constants.ContentImage, constants.ContentText} {
		item := newPending("item")
		item.ContentType = ct
		item.CreatedAt = time.UnixMilli(int64(1000 * (i + 1)))
		require.NoError(t, repo.Create(ctx, item))
		if i == 2 {
			_, err := repo.SetFavorite(ctx, item.ID, true)
			require.NoError(t, err)
		}
	}

	tests := []struct {
		name   string
		filter entity.ContentFilter
		want   int
	}{
		{"all", entity.ContentFilter{}, 3},
		{"text only", entity.ContentFilter{ContentType: constants.ContentText}, 2},
		{"favorites", entity.ContentFilter{FavoriteOnly: true}, 1},
		{"pending", entity.ContentFilter{Status: constants.StatusPending}, 3},
		{"completed", entity.ContentFilter{Status: constants.StatusCompleted}, 0},
		{"page", entity.ContentFilter{Limit: 2, Offset: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	all, err := repo.List(ctx, entity.ContentFilter{})
	require.NoError(t, err)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt), "newest first")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestContent_EditAndDeleteCascade(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := repository.NewContentRepository(db, nil)
	tasks := repository.NewTaskRepository(db, nil)

	item := newPending("old")
	item.ContentHash = "abc123"
	require.NoError(t, repo.Create(ctx, item))
	require.NoError(t, repo.UpdateStatus(ctx, item.ID, constants.StatusProcessing, ""))
	item.Tasks = []entity.GeneratedTask{{Title: "t1", Priority: constants.PriorityLow}}
	require.NoError(t, repo.SaveResult(ctx, item))

	title := "new title"
	edited, err := repo.Edit(ctx, item.ID, entity.ContentEdit{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "new title", edited.Title)

	found, err := repo.FindByHash(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	require.NoError(t, repo.Delete(ctx, item.ID))
	_, err = repo.Get(ctx, item.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	left, err := tasks.List(ctx, entity.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.ErrorIs(t, repo.Delete(ctx, item.ID), common.ErrNotFound)
}

func TestTasks_ToggleAndEdit(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := repository.NewContentRepository(db, nil)
	tasks := repository.NewTaskRepository(db, nil)

	item := newPending("x")
	require.NoError(t, repo.Create(ctx, item))
	require.NoError(t, repo.UpdateStatus(ctx, item.ID, constants.StatusProcessing, ""))
	item.Tasks = []entity.GeneratedTask{{Title: "Schedule call", Priority: constants.PriorityMedium}}
	require.NoError(t, repo.SaveResult(ctx, item))
	id := item.Tasks[0].ID

	toggled, err := tasks.Toggle(ctx, id)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	toggled, err = tasks.Toggle(ctx, id)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)

	urgent := constants.PriorityUrgent
	title := "Call Ann"
	edited, err := tasks.Edit(ctx, id, entity.TaskEdit{Title: &title, Priority: &urgent})
	require.NoError(t, err)
	assert.Equal(t, "Call Ann", edited.Title)
	assert.Equal(t, constants.PriorityUrgent, edited.Priority)

	_, err = tasks.Toggle(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name    string
		blob    string
		wantErr bool
	}{
		{"empty", "", false},
		{"minimal", `{"analysis":{"sentiment":"neutral","sentiment_score":0,"confidence":0}}`, false},
		{"bad sentiment", `{"analysis":{"sentiment":"ecstatic"}}`, true},
		{"strength out of range", `{"connections":[{"from_id":"a","to_id":"b","relationship":"relatedTo","strength":2}]}`, true},
		{"not json", `{`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repository.ValidateMetadata([]byte(tt.blob))
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate", repository.SQLiteDSN("a.db"))
	assert.Equal(t, "file:a.db?_pragma=foreign_keys(1)", repository.SQLiteDSN("file:a.db?_pragma=foreign_keys(1)"))
}
