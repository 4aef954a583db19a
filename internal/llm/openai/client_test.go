package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/llm"
	"github.com/joseph-ayodele/capture-tracker/internal/llm/openai"
)

func completion(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
	return b
}

func server(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])
		w.WriteHeader(status)
		_, _ = w.Write(completion(content))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(url string, lenient bool) *openai.Client {
	return openai.NewClient(openai.Config{
		APIKey:          "test-key",
		BaseURL:         url,
		Model:           "test-model",
		LenientOptional: lenient,
	}, nil)
}

const text = "Lunch with Jane Doe at Acme Corp. Jane will bring the contract."

func TestAnalyze_StrictOutput(t *testing.T) {
	srv := server(t, http.StatusOK, `{"language":"en","sentiment_score":0.3,"entities":[
		{"text":"Jane Doe","type":"person","confidence":0.9},
		{"text":"acme corp","type":"organization"},
		{"text":"Bob","type":"person"}
	],"topics":["work"],"key_phrases":["contract"]}`)

	res, err := newClient(srv.URL, false).Analyze(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, "en", res.Language)
	assert.Equal(t, 0.8, res.LanguageConfidence)
	assert.Equal(t, 0.3, res.SentimentScore)
	assert.Equal(t, []string{"work"}, res.Topics)
	require.Len(t, res.Entities, 2)

	assert.Equal(t, "Jane Doe", res.Entities[0].Text)
	assert.Equal(t, entity.EntityPerson, res.Entities[0].Type)
	assert.Equal(t, 11, res.Entities[0].Start)
	assert.Equal(t, 19, res.Entities[0].End)

	assert.Equal(t, "Acme Corp", res.Entities[1].Text)
	assert.Equal(t, 23, res.Entities[1].Start)
	assert.Equal(t, 0.7, res.Entities[1].Confidence)
}

func TestAnalyze_LenientSanitize(t *testing.T) {
	bad := "```json\n{\"sentiment\":\"-0.5\",\"entities\":[{\"text\":\"Acme Corp\",\"type\":\"company\"}],\"notes\":\"x\"}\n```"

	_, err := newClient(server(t, http.StatusOK, bad).URL, false).Analyze(context.Background(), text)
	assert.Error(t, err)

	res, err := newClient(server(t, http.StatusOK, bad).URL, true).Analyze(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, -0.5, res.SentimentScore)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, entity.EntityOrganization, res.Entities[0].Type)
}

func TestAnalyze_HTTPError(t *testing.T) {
	srv := server(t, http.StatusTooManyRequests, `{}`)
	_, err := newClient(srv.URL, true).Analyze(context.Background(), text)

	var se *llm.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
}

func TestAnalyze_EmptyTextSkipsRequest(t *testing.T) {
	res, err := newClient("http://127.0.0.1:1", true).Analyze(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, res.Entities)
}

func TestToResult_RepeatedMentions(t *testing.T) {
	res := openai.ToResult("Ann met Ann", llm.AnalysisFields{Entities: []llm.EntityField{
		{Text: "Ann", Type: "person"},
		{Text: "Ann", Type: "person"},
	}})
	require.Len(t, res.Entities, 2)
	assert.Equal(t, 0, res.Entities[0].Start)
	assert.Equal(t, 8, res.Entities[1].Start)
}

func TestNewClient_RequestShape(t *testing.T) {
	var got struct {
		path, org   string
		temperature float64
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got.path = r.URL.Path
		got.org = r.Header.Get("OpenAI-Organization")
		got.temperature, _ = body["temperature"].(float64)
		_, _ = w.Write(completion(`{"language":"en","sentiment_score":0,"entities":[]}`))
	}))
	t.Cleanup(srv.Close)

	c := openai.NewClient(openai.Config{
		APIKey:       "test-key",
		Organization: "org-capture",
		BaseURL:      srv.URL + "/v1/",
		Temperature:  7,
	}, nil)
	_, err := c.Analyze(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, "/v1/chat/completions", got.path)
	assert.Equal(t, "org-capture", got.org)
	assert.Equal(t, 2.0, got.temperature)
}
