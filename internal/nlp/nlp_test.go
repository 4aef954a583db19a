package nlp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/nlp"
)

func entitiesByType(es []entity.DetectedEntity) map[entity.EntityType][]string {
	out := map[entity.EntityType][]string{}
	for _, e := range es {
		out[e.Type] = append(out[e.Type], e.Text)
	}
	return out
}

func TestLexicon_MeetingSentence(t *testing.T) {
	text := "Meeting with John Smith at Acme Corp on 10/5/2025"
	res, err := nlp.NewLexicon(nil).Analyze(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, "en", res.Language)
	assert.Greater(t, res.LanguageConfidence, 0.5)

	byType := entitiesByType(res.Entities)
	assert.Equal(t, []string{"John Smith"}, byType[entity.EntityPerson])
	assert.Equal(t, []string{"Acme Corp"}, byType[entity.EntityOrganization])

	person := res.Entities[0]
	assert.Equal(t, 13, person.Start)
	assert.Equal(t, 23, person.End)

	assert.Contains(t, res.KeyPhrases, "meeting")
	assert.Contains(t, res.KeyPhrases, "john smith")
	assert.Contains(t, res.KeyPhrases, "acme corp")
}

func TestExtractEntities_Rules(t *testing.T) {
	tests := []struct {
		name string
		text string
		typ  entity.EntityType
		want string
	}{
		{name: "email", text: "write to jane.doe@example.org today", typ: entity.EntityEmail, want: "jane.doe@example.org"},
		{name: "url", text: "docs at https://example.com/a/b.", typ: entity.EntityURL, want: "https://example.com/a/b"},
		{name: "phone", text: "ring 555-123-4567 now", typ: entity.EntityPhone, want: "555-123-4567"},
		{name: "title strips", text: "Lunch with Dr. Watson tomorrow", typ: entity.EntityPerson, want: "Watson"},
		{name: "known place", text: "The offsite is in San Francisco next week", typ: entity.EntityLocation, want: "San Francisco"},
		{name: "location cue", text: "we stay in Lyon for a week", typ: entity.EntityLocation, want: "Lyon"},
		{name: "ampersand org", text: "signed by Smith & Wesson yesterday", typ: entity.EntityOrganization, want: "Smith & Wesson"},
		{name: "person cue", text: "sync with Priya about the plan", typ: entity.EntityPerson, want: "Priya"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nlp.ExtractEntities(tt.text, nlp.Tokenize(tt.text))
			assert.Contains(t, entitiesByType(got)[tt.typ], tt.want)
		})
	}
}

func TestExtractEntities_LeadingVerbIsNotPartOfName(t *testing.T) {
	text := "Call John Smith about the deadline."
	got := nlp.ExtractEntities(text, nlp.Tokenize(text))
	require.Len(t, got, 1)
	assert.Equal(t, "John Smith", got[0].Text)
	assert.Equal(t, entity.EntityPerson, got[0].Type)
	assert.Equal(t, 5, got[0].Start)
	assert.Equal(t, 15, got[0].End)
}

func TestExtractEntities_FromIsNotAPersonCue(t *testing.T) {
	text := "Got an email from Microsoft today."
	got := entitiesByType(nlp.ExtractEntities(text, nlp.Tokenize(text)))
	assert.NotContains(t, got[entity.EntityPerson], "Microsoft")
}

func TestExtractEntities_SkipsSentenceInitialWord(t *testing.T) {
	text := "Remember the milk. Tomorrow is fine."
	assert.Empty(t, nlp.ExtractEntities(text, nlp.Tokenize(text)))
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"the report is on the desk and it is ready", "en"},
		{"le rapport est sur la table avec les notes", "fr"},
		{"der Bericht ist auf dem Tisch und die Notizen", "de"},
		{"el informe está en la mesa con las notas", "es"},
		{"xyzzy plugh", ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, _ := nlp.DetectLanguage(nlp.Tokenize(tt.text))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSentiment(t *testing.T) {
	assert.Greater(t, nlp.Sentiment(nlp.Tokenize("great work, thanks, love it")), 0.1)
	assert.Less(t, nlp.Sentiment(nlp.Tokenize("terrible failure, the build is broken")), -0.1)
	assert.Less(t, nlp.Sentiment(nlp.Tokenize("this is not good")), 0.0)
	assert.Equal(t, 0.0, nlp.Sentiment(nlp.Tokenize("the table has four legs")))
}

func TestKeyPhrases_RankByFrequency(t *testing.T) {
	phrases := nlp.KeyPhrases(nlp.Tokenize("Budget review at noon. The budget review is late. Coffee later."), 2)
	assert.Equal(t, []string{"budget review", "noon"}, phrases)
}

func TestLexicon_EmptyText(t *testing.T) {
	res, err := nlp.NewLexicon(nil).Analyze(context.Background(), "  \n ")
	require.NoError(t, err)
	assert.Empty(t, res.Entities)
	assert.Empty(t, res.Language)
}
