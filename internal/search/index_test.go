package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/search"
)

func item(title, text string, created time.Time) *entity.ContentItem {
	return &entity.ContentItem{ID: uuid.New(), Title: title, FullText: text, CreatedAt: created}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"cafe", "resume", "42"}, search.Tokenize("Café — résumé #42 a"))
	assert.Empty(t, search.Tokenize("  . , !"))
}

func TestSearch_AndQueryRankedByMatchesThenRecency(t *testing.T) {
	ix := search.NewIndex(nil)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	older := item("Budget", "budget review budget", base)
	newer := item("Budget v2", "budget review", base.Add(time.Hour))
	newest := item("Review", "budget review", base.Add(2*time.Hour))
	unrelated := item("Lunch", "sandwich order", base.Add(3*time.Hour))
	for _, it := range []*entity.ContentItem{older, newer, newest, unrelated} {
		ix.Add(it)
	}

	hits := ix.Search("Budget REVIEW", 0)
	require.Len(t, hits, 3)
	assert.Equal(t, older.ID, hits[0].ID, "highest term frequency first")
	assert.Equal(t, newest.ID, hits[1].ID, "ties broken by recency")
	assert.Equal(t, newer.ID, hits[2].ID)

	assert.Empty(t, ix.Search("budget sandwich", 0))
	assert.Len(t, ix.Search("budget", 1), 1)
	assert.Empty(t, ix.Search("", 0))
}

func TestIndex_ReplaceAndRemove(t *testing.T) {
	ix := search.NewIndex(nil)
	it := item("Invoice", "invoice from acme", time.Now())
	ix.Add(it)
	require.Len(t, ix.Search("acme", 0), 1)

	it.FullText = "invoice from globex"
	ix.Add(it)
	assert.Empty(t, ix.Search("acme", 0))
	assert.Len(t, ix.Search("globex", 0), 1)
	assert.Equal(t, 1, ix.Len())

	ix.Remove(it.ID)
	assert.Empty(t, ix.Search("invoice", 0))
	assert.Equal(t, 0, ix.Len())
}

func TestIndex_NotifyIsConsumedByRun(t *testing.T) {
	ix := search.NewIndex(nil, search.WithBuffer(4))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ix.Run(ctx)
	}()

	it := item("Flight", "boarding pass LHR", time.Now())
	ix.Notify(it)
	assert.Eventually(t, func() bool { return len(ix.Search("lhr", 0)) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestIndex_NotifyNeverBlocks(t *testing.T) {
	ix := search.NewIndex(nil, search.WithBuffer(1))
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			ix.Notify(item("x", "y", time.Now()))
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked with no consumer")
	}
}
