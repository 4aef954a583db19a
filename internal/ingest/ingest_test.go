package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/async"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/ingest"
)

// fakeStore acts as both hash lookup and submitter: submitted captures are
// stored as completed records.
type fakeStore struct {
	mu     sync.Mutex
	byHash map[string]*entity.ContentItem
	jobs   []async.Job
}

func newFakeStore() *fakeStore {
	return &fakeStore{byHash: map[string]*entity.ContentItem{}}
}

func (f *fakeStore) FindByHash(_ context.Context, hash string) (*entity.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if it, ok := f.byHash[hash]; ok {
		return it, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeStore) SubmitAndWait(_ context.Context, job async.Job) (*entity.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	it := &entity.ContentItem{ID: uuid.New(), Status: constants.StatusCompleted, ContentHash: job.Capture.ContentHash}
	f.byHash[job.Capture.ContentHash] = it
	return it, nil
}

func (f *fakeStore) submitted() []async.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]async.Job(nil), f.jobs...)
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// =============================================================================
// Single file
// =============================================================================

func TestIngestPath_TextAndImage(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "note.txt")
	png := filepath.Join(dir, "shot.PNG")
	writeFile(t, txt, []byte("Meeting with John tomorrow"))
	writeFile(t, png, []byte{0x89, 'P', 'N', 'G'})

	store := newFakeStore()
	ing := ingest.NewFSIngestor(store, store, nil)

	r, err := ing.IngestPath(context.Background(), txt, constants.SourceFileImport)
	require.NoError(t, err)
	assert.False(t, r.Deduplicated)
	assert.Equal(t, "txt", r.FileExt)
	assert.Len(t, r.HashHex, 64)
	assert.NotEmpty(t, r.ContentID)

	r, err = ing.IngestPath(context.Background(), png, constants.SourceScreenshot)
	require.NoError(t, err)
	assert.Equal(t, "png", r.FileExt)

	jobs := store.submitted()
	require.Len(t, jobs, 2)
	assert.Equal(t, constants.ContentText, jobs[0].Capture.ContentType)
	assert.Equal(t, "Meeting with John tomorrow", jobs[0].Capture.Text)
	assert.Equal(t, "note.txt", jobs[0].Capture.Metadata["filename"])
	assert.Equal(t, jobs[0].Key, jobs[0].Capture.ContentHash)
	assert.Equal(t, constants.ContentImage, jobs[1].Capture.ContentType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, jobs[1].Capture.ImageData)
	assert.Equal(t, constants.SourceScreenshot, jobs[1].Capture.Source)
}

func TestIngestPath_Deduplicates(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	writeFile(t, a, []byte("same bytes"))
	writeFile(t, b, []byte("same bytes"))

	store := newFakeStore()
	ing := ingest.NewFSIngestor(store, store, nil)

	first, err := ing.IngestPath(context.Background(), a, constants.SourceFileImport)
	require.NoError(t, err)
	second, err := ing.IngestPath(context.Background(), b, constants.SourceFileImport)
	require.NoError(t, err)

	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.ContentID, second.ContentID)
	assert.Len(t, store.submitted(), 1)
}

func TestIngestPath_RetriesFailedHash(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	writeFile(t, a, []byte("retry me"))

	store := newFakeStore()
	ing := ingest.NewFSIngestor(store, store, nil)
	r, err := ing.IngestPath(context.Background(), a, constants.SourceFileImport)
	require.NoError(t, err)
	store.byHash[r.HashHex].Status = constants.StatusFailed

	again, err := ing.IngestPath(context.Background(), a, constants.SourceFileImport)
	require.NoError(t, err)
	assert.False(t, again.Deduplicated)
	assert.Len(t, store.submitted(), 2)
}

func TestIngestPath_Rejects(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "doc.pdf")
	noext := filepath.Join(dir, "README")
	writeFile(t, pdf, []byte("%PDF"))
	writeFile(t, noext, []byte("x"))

	store := newFakeStore()
	ing := ingest.NewFSIngestor(store, store, nil)

	tests := []struct {
		name string
		path string
	}{
		{name: "unsupported extension", path: pdf},
		{name: "missing extension", path: noext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ing.IngestPath(context.Background(), tt.path, constants.SourceFileImport)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}

	_, err := ing.IngestPath(context.Background(), filepath.Join(dir, "gone.txt"), constants.SourceFileImport)
	assert.Error(t, err)
	assert.Empty(t, store.submitted())
}

func TestIngestPath_DecodesUTF16(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "wide.txt")
	// UTF-16LE with BOM: "hi"
	writeFile(t, p, []byte{0xFF, 0xFE, 'h', 0, 'i', 0})

	store := newFakeStore()
	ing := ingest.NewFSIngestor(store, store, nil)
	_, err := ing.IngestPath(context.Background(), p, constants.SourceFileImport)
	require.NoError(t, err)
	assert.Equal(t, "hi", store.submitted()[0].Capture.Text)
}

// =============================================================================
// Directory
// =============================================================================

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "one.txt"), []byte("one"))
	writeFile(t, filepath.Join(root, "nested", "two.md"), []byte("two"))
	writeFile(t, filepath.Join(root, "nested", "dup.txt"), []byte("one"))
	writeFile(t, filepath.Join(root, "skip.pdf"), []byte("pdf"))
	writeFile(t, filepath.Join(root, ".hidden", "three.txt"), []byte("three"))
	writeFile(t, filepath.Join(root, ".secret.txt"), []byte("secret"))

	store := newFakeStore()
	ing := ingest.NewFSIngestor(store, store, nil)

	results, stats, err := ing.IngestDirectory(context.Background(), root, true)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(0), stats.Failed)
	assert.Len(t, results, 3)
	assert.Len(t, store.submitted(), 2)
}

func TestIngestDirectory_RequiresRoot(t *testing.T) {
	store := newFakeStore()
	ing := ingest.NewFSIngestor(store, store, nil)
	_, _, err := ing.IngestDirectory(context.Background(), "  ", true)
	assert.Error(t, err)
}

func TestIngestDirectory_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "one.txt"), []byte("one"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := newFakeStore()
	ing := ingest.NewFSIngestor(store, store, nil)
	_, _, err := ing.IngestDirectory(ctx, root, true)
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// Watcher
// =============================================================================

func TestStartWatcher_InitialScanAndEvents(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "old.png")
	writeFile(t, existing, []byte("old"))
	writeFile(t, filepath.Join(root, "ignored.txt"), []byte("txt"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
	})
	require.NoError(t, err)

	select {
	case p := <-evCh:
		assert.Equal(t, existing, p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan did not emit")
	}

	fresh := filepath.Join(root, "new.png")
	writeFile(t, fresh, []byte("new"))
	select {
	case p := <-evCh:
		assert.Equal(t, fresh, p)
	case <-time.After(2 * time.Second):
		t.Fatal("create event did not emit")
	}

	cancel()
	for range evCh {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := ingest.StartWatcher(context.Background(), ingest.WatchConfig{})
	assert.Error(t, err)
}

func TestUtils(t *testing.T) {
	assert.True(t, ingest.AllowedExt(".JPG"))
	assert.False(t, ingest.AllowedExt("pdf"))
	assert.True(t, ingest.IsScreenshotExt("png"))
	assert.False(t, ingest.IsScreenshotExt("txt"))
	assert.True(t, ingest.IsHidden("/a/.git"))
	assert.False(t, ingest.IsHidden("/a/b.txt"))
	assert.False(t, ingest.IsHidden("."))
}
