// Package search keeps an in-memory token index over processed content.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

const defaultBuffer = 128

// Notifier receives finished content items. Implementations must not block.
type Notifier interface {
	Notify(item *entity.ContentItem)
}

// Hit is one search result.
type Hit struct {
	ID        uuid.UUID
	Title     string
	Score     int
	CreatedAt time.Time
}

type document struct {
	title     string
	createdAt time.Time
	terms     map[string]int
}

type Index struct {
	logger  *slog.Logger
	updates chan *entity.ContentItem

	mu       sync.RWMutex
	docs     map[uuid.UUID]document
	postings map[string]map[uuid.UUID]struct{}
}

type Option func(*Index)

// WithBuffer sets how many notifications may queue before new ones are dropped.
func WithBuffer(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.updates = make(chan *entity.ContentItem, n)
		}
	}
}

func NewIndex(logger *slog.Logger, opts ...Option) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	ix := &Index{
		logger:   logger,
		updates:  make(chan *entity.ContentItem, defaultBuffer),
		docs:     map[uuid.UUID]document{},
		postings: map[string]map[uuid.UUID]struct{}{},
	}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// Notify queues an item for indexing without blocking. A full buffer drops the update.
func (ix *Index) Notify(item *entity.ContentItem) {
	if item == nil {
		return
	}
	select {
	case ix.updates <- item:
	default:
		ix.logger.Warn("search.notify.dropped", "content_id", item.ID)
	}
}

// Run indexes queued notifications until ctx is done.
func (ix *Index) Run(ctx context.Context) error {
	ix.logger.Info("search.index.started")
	for {
		select {
		case <-ctx.Done():
			ix.logger.Info("search.index.stopped", "documents", ix.Len())
			return nil
		case item := <-ix.updates:
			ix.Add(item)
		}
	}
}

// Add indexes item synchronously, replacing any previous version.
func (ix *Index) Add(item *entity.ContentItem) {
	terms := map[string]int{}
	fields := []string{item.Title, item.FullText}
	if item.OCRText != item.FullText {
		fields = append(fields, item.OCRText)
	}
	for _, t := range item.Tasks {
		fields = append(fields, t.Title)
	}
	for _, f := range fields {
		for _, tok := range Tokenize(f) {
			terms[tok]++
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(item.ID)
	ix.docs[item.ID] = document{title: item.Title, createdAt: item.CreatedAt, terms: terms}
	for tok := range terms {
		set, ok := ix.postings[tok]
		if !ok {
			set = map[uuid.UUID]struct{}{}
			ix.postings[tok] = set
		}
		set[item.ID] = struct{}{}
	}
	ix.logger.Debug("search.index.added", "content_id", item.ID, "terms", len(terms))
}

func (ix *Index) Remove(id uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(id)
}

func (ix *Index) removeLocked(id uuid.UUID) {
	doc, ok := ix.docs[id]
	if !ok {
		return
	}
	for tok := range doc.terms {
		if set := ix.postings[tok]; set != nil {
			delete(set, id)
			if len(set) == 0 {
				delete(ix.postings, tok)
			}
		}
	}
	delete(ix.docs, id)
}

// Search returns documents containing every query token, ranked by total
// term frequency and then by recency.
func (ix *Index) Search(query string, limit int) []Hit {
	tokens := uniqueTokens(Tokenize(query))
	if len(tokens) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	// Start from the rarest token to keep the candidate set small.
	sort.Slice(tokens, func(i, j int) bool {
		return len(ix.postings[tokens[i]]) < len(ix.postings[tokens[j]])
	})
	var hits []Hit
	for id := range ix.postings[tokens[0]] {
		doc := ix.docs[id]
		score := 0
		matched := true
		for _, tok := range tokens {
			n := doc.terms[tok]
			if n == 0 {
				matched = false
				break
			}
			score += n
		}
		if matched {
			hits = append(hits, Hit{ID: id, Title: doc.title, Score: score, CreatedAt: doc.createdAt})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if !hits[i].CreatedAt.Equal(hits[j].CreatedAt) {
			return hits[i].CreatedAt.After(hits[j].CreatedAt)
		}
		return hits[i].ID.String() < hits[j].ID.String()
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Tokenize lowercases, strips diacritics and splits on anything that is not a
// letter or digit. Single-rune tokens are dropped.
func Tokenize(s string) []string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	fields := strings.FieldsFunc(strings.ToLower(folded), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 1 {
			out = append(out, f)
		}
	}
	return out
}

func uniqueTokens(in []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range in {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
