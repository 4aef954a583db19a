package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

// Heuristic confidence weights per template family.
const (
	EntityTaskConfidence     = 0.7
	KeywordTaskConfidence    = 0.8
	StructuredTaskConfidence = 0.75
)

// Input is everything the generator looks at for one capture.
type Input struct {
	Text       string
	Analysis   entity.SemanticAnalysis
	Structured entity.StructuredContent
}

// Generator derives follow-up tasks from an analyzed capture.
type Generator interface {
	Generate(ctx context.Context, in Input) ([]entity.GeneratedTask, error)
}

type template struct {
	title    string
	priority constants.Priority
	dueDays  int
	category constants.TaskCategory
}

var entityTemplates = map[entity.EntityType]template{
	entity.EntityPerson:       {"Follow up with %s", constants.PriorityMedium, 3, constants.CategoryFollowUp},
	entity.EntityOrganization: {"Research %s", constants.PriorityLow, 7, constants.CategoryResearch},
	entity.EntityLocation:     {"Check details for %s", constants.PriorityLow, 5, constants.CategoryResearch},
}

type keywordTemplate struct {
	keywords []string
	template
}

// keywordTemplates are evaluated in order; each contributes at most one task.
var keywordTemplates = []keywordTemplate{
	{[]string{"meeting"}, template{"Prepare for meeting", constants.PriorityHigh, 1, constants.CategoryMeeting}},
	{[]string{"deadline"}, template{"Review deadline", constants.PriorityUrgent, 1, constants.CategoryDeadline}},
	{[]string{"submit"}, template{"Submit required items", constants.PriorityHigh, 2, constants.CategoryDeadline}},
	{[]string{"call"}, template{"Schedule call", constants.PriorityMedium, 1, constants.CategoryCommunicate}},
	{[]string{"review"}, template{"Review document", constants.PriorityMedium, 3, constants.CategoryReview}},
	{[]string{"pay", "invoice"}, template{"Process payment", constants.PriorityHigh, 5, constants.CategoryFinance}},
}

var (
	listTemplate    = template{"Review list items", constants.PriorityLow, 0, constants.CategoryOrganize}
	contactTemplate = template{"Save contact information", constants.PriorityLow, 0, constants.CategoryCommunicate}
)

type TemplateGenerator struct {
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*TemplateGenerator)

// WithClock overrides the time source used for due dates.
func WithClock(now func() time.Time) Option {
	return func(g *TemplateGenerator) { g.now = now }
}

func NewTemplateGenerator(logger *slog.Logger, opts ...Option) *TemplateGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &TemplateGenerator{
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *TemplateGenerator) Generate(ctx context.Context, in Input) ([]entity.GeneratedTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := g.now().UTC()
	caser := cases.Title(language.English)
	var out []entity.GeneratedTask
	seen := map[string]struct{}{}
	add := func(t template, title, description string, confidence float64, reasons ...string) {
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		task := entity.GeneratedTask{
			ID:          uuid.New(),
			Title:       title,
			Description: description,
			Priority:    t.priority,
			Confidence:  entity.Clamp01(confidence),
			Reasons:     reasons,
			Category:    t.category,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if t.dueDays > 0 {
			due := now.AddDate(0, 0, t.dueDays)
			task.DueDate = &due
		}
		out = append(out, task)
	}

	for _, e := range in.Analysis.Entities {
		t, ok := entityTemplates[e.Type]
		if !ok {
			continue
		}
		title := fmt.Sprintf(t.title, e.Text)
		add(t, title,
			fmt.Sprintf("%s %q was mentioned in this capture.", caser.String(string(e.Type)), e.Text),
			EntityTaskConfidence*e.Confidence,
			fmt.Sprintf("%s mentioned: %s", caser.String(string(e.Type)), e.Text),
		)
	}

	words := wordSet(in.Text)
	phrases := make([]string, len(in.Analysis.KeyPhrases))
	for i, p := range in.Analysis.KeyPhrases {
		phrases[i] = strings.ToLower(p)
	}
	for _, kt := range keywordTemplates {
		if kw, ok := matchKeyword(kt.keywords, phrases, words); ok {
			add(kt.template, kt.title,
				fmt.Sprintf("The capture mentions %q.", kw),
				KeywordTaskConfidence,
				fmt.Sprintf("Keyword found: %s", kw),
			)
		}
	}

	if n := len(in.Structured.Lists); n > 0 {
		items := 0
		for _, l := range in.Structured.Lists {
			items += len(l.Items)
		}
		add(listTemplate, listTemplate.title,
			fmt.Sprintf("%d list(s) with %d item(s) were detected.", n, items),
			StructuredTaskConfidence,
			"Structured list detected",
		)
	}
	if c := in.Structured.Contacts; c != nil && (len(c.Emails) > 0 || len(c.Phones) > 0) {
		add(contactTemplate, contactTemplate.title,
			fmt.Sprintf("Found %d email(s) and %d phone number(s).", len(c.Emails), len(c.Phones)),
			StructuredTaskConfidence,
			"Contact information detected",
		)
	}

	g.logger.Debug("tasks.generate.ok", "count", len(out))
	return out, nil
}

// matchKeyword checks key phrases by substring and the text by word prefix.
func matchKeyword(keywords, phrases []string, words map[string]struct{}) (string, bool) {
	for _, kw := range keywords {
		for _, p := range phrases {
			if strings.Contains(p, kw) {
				return kw, true
			}
		}
		for w := range words {
			if strings.HasPrefix(w, kw) {
				return kw, true
			}
		}
	}
	return "", false
}

func wordSet(text string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[w] = struct{}{}
	}
	return out
}
