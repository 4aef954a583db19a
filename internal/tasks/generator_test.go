package tasks_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/tasks"
)

var fixedNow = time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)

func newGenerator() *tasks.TemplateGenerator {
	return tasks.NewTemplateGenerator(nil, tasks.WithClock(func() time.Time { return fixedNow }))
}

func titles(ts []entity.GeneratedTask) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return out
}

func TestGenerate_EmptyInputYieldsNoTasks(t *testing.T) {
	got, err := newGenerator().Generate(context.Background(), tasks.Input{Analysis: entity.EmptyAnalysis()})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerate_EntityTemplates(t *testing.T) {
	in := tasks.Input{
		Analysis: entity.SemanticAnalysis{Entities: []entity.DetectedEntity{
			{Text: "John Smith", Type: entity.EntityPerson, Confidence: 1},
			{Text: "Acme Corp", Type: entity.EntityOrganization, Confidence: 1},
			{Text: "Paris", Type: entity.EntityLocation, Confidence: 0.5},
			{Text: "a@b.io", Type: entity.EntityEmail, Confidence: 1},
		}},
	}
	got, err := newGenerator().Generate(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, []string{"Follow up with John Smith", "Research Acme Corp", "Check details for Paris"}, titles(got))

	tests := []struct {
		idx      int
		priority constants.Priority
		days     int
	}{
		{0, constants.PriorityMedium, 3},
		{1, constants.PriorityLow, 7},
		{2, constants.PriorityLow, 5},
	}
	for _, tt := range tests {
		task := got[tt.idx]
		assert.Equal(t, tt.priority, task.Priority, task.Title)
		require.NotNil(t, task.DueDate)
		assert.Equal(t, fixedNow.AddDate(0, 0, tt.days), *task.DueDate)
	}
	assert.InDelta(t, tasks.EntityTaskConfidence*0.5, got[2].Confidence, 1e-9)
	assert.Equal(t, []string{"Person mentioned: John Smith"}, got[0].Reasons)
}

func TestGenerate_KeywordTemplates(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		phrases  []string
		want     string
		priority constants.Priority
	}{
		{"meeting in text", "Meeting with the team", nil, "Prepare for meeting", constants.PriorityHigh},
		{"deadline in phrase", "", []string{"project deadline"}, "Review deadline", constants.PriorityUrgent},
		{"submit prefix", "Submitted forms go here", nil, "Submit required items", constants.PriorityHigh},
		{"invoice", "Invoice #42 attached", nil, "Process payment", constants.PriorityHigh},
		{"call", "Please call back", nil, "Schedule call", constants.PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newGenerator().Generate(context.Background(), tasks.Input{
				Text:     tt.text,
				Analysis: entity.SemanticAnalysis{KeyPhrases: tt.phrases},
			})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Title)
			assert.Equal(t, tt.priority, got[0].Priority)
		})
	}
}

func TestGenerate_StructuredTemplates(t *testing.T) {
	in := tasks.Input{Structured: entity.StructuredContent{
		Lists:    []entity.DetectedList{{Items: []string{"a", "b"}, Style: entity.ListNumbered}},
		Contacts: &entity.ContactInfo{Emails: []string{"a@b.io"}},
	}}
	got, err := newGenerator().Generate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"Review list items", "Save contact information"}, titles(got))
	assert.Nil(t, got[0].DueDate)
}

func TestGenerate_DeterministicApartFromIDs(t *testing.T) {
	in := tasks.Input{
		Text: "Meeting about the invoice deadline",
		Analysis: entity.SemanticAnalysis{Entities: []entity.DetectedEntity{
			{Text: "Jane Doe", Type: entity.EntityPerson, Confidence: 0.9},
		}},
	}
	g := newGenerator()
	a, err := g.Generate(context.Background(), in)
	require.NoError(t, err)
	b, err := g.Generate(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, titles(a), titles(b))
	for i := range a {
		assert.Equal(t, a[i].Priority, b[i].Priority)
		assert.Equal(t, a[i].DueDate, b[i].DueDate)
	}
}

func TestGenerate_DuplicateTitlesCollapse(t *testing.T) {
	in := tasks.Input{Analysis: entity.SemanticAnalysis{Entities: []entity.DetectedEntity{
		{Text: "Acme", Type: entity.EntityOrganization, Confidence: 1},
		{Text: "acme", Type: entity.EntityOrganization, Confidence: 1},
	}}}
	got, err := newGenerator().Generate(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
