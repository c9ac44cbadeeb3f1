package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel answers every prompt with reply and remembers what it was asked.
type fakeModel struct {
	reply   string
	err     error
	prompts []string
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(_ context.Context, prompt string, _ ...llms.CallOption) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

func TestExtractApplicationDetails(t *testing.T) {
	model := &fakeModel{reply: "```json\n{\"company_name\":\"Globex\",\"role_title\":\"SRE\",\"description\":\"Keep the lights on\"}\n```"}
	svc := &LLMService{Client: model}

	got, err := svc.ExtractApplicationDetails(context.Background(), "<h1>SRE at Globex</h1>")
	require.NoError(t, err)
	assert.Equal(t, "Globex", got.CompanyName)
	assert.Equal(t, "SRE", got.Position)
	assert.Equal(t, "Keep the lights on", got.JobDescription)
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "<h1>SRE at Globex</h1>")
}

func TestExtractApplicationDetails_TruncatesInput(t *testing.T) {
	model := &fakeModel{reply: `{"company_name":"Globex"}`}
	svc := &LLMService{Client: model}

	_, err := svc.ExtractApplicationDetails(context.Background(), strings.Repeat("a", maxPromptInput+500))
	require.NoError(t, err)
	assert.NotContains(t, model.prompts[0], strings.Repeat("a", maxPromptInput+1))
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))

	s := strings.Repeat("a", maxPromptInput-1) + "é" + "tail"
	got := truncate(s)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", maxPromptInput-1), got)

	cjk := strings.Repeat("職", maxPromptInput)
	got = truncate(cjk)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxPromptInput)
	assert.Greater(t, len(got), maxPromptInput-utf8.UTFMax)
}

func TestExtractApplicationDetails_Errors(t *testing.T) {
	_, err := (&LLMService{Client: &fakeModel{reply: `{}`}}).ExtractApplicationDetails(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyExtraction)

	_, err = (&LLMService{Client: &fakeModel{reply: "I cannot help with that"}}).ExtractApplicationDetails(context.Background(), "x")
	assert.Error(t, err)

	boom := errors.New("quota exceeded")
	_, err = (&LLMService{Client: &fakeModel{err: boom}}).ExtractApplicationDetails(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestAnalyzeEmailStatus(t *testing.T) {
	model := &fakeModel{reply: `{"status":"interview","summary":"Phone screen next week"}`}
	svc := &LLMService{Client: model}

	got, err := svc.AnalyzeEmailStatus(context.Background(), "Acme", "Next steps", "We'd like to schedule a call")
	require.NoError(t, err)
	assert.Equal(t, EmailInterview, got.Status)
	assert.Equal(t, "Phone screen next week", got.Summary)
	assert.Contains(t, model.prompts[0], "application to Acme")
}

func TestIdentifyApplication(t *testing.T) {
	tests := []struct {
		reply string
		want  int
	}{
		{"1", 1},
		{" 0\n", 0},
		{"-1", -1},
		{"7", -1},
		{"the second one", -1},
	}
	for _, tt := range tests {
		svc := &LLMService{Client: &fakeModel{reply: tt.reply}}
		got, err := svc.IdentifyApplication(context.Background(), []string{"Engineer", "Manager"}, "s", "b")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "reply %q", tt.reply)
	}
}
