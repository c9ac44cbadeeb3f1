package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/justsurfingit/job-tracker-web/internal/dtos"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// maxPromptInput keeps pasted pages and long emails within a sensible prompt size.
const maxPromptInput = 20000

var ErrEmptyExtraction = errors.New("no application details found in the posting")

type LLMService struct {
	Client llms.Model
}

// NewLLMService connects to Gemini with the given key and default model.
func NewLLMService(ctx context.Context, apiKey, model string) (*LLMService, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &LLMService{Client: llm}, nil
}

const applicationExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided raw HTML/Text from a job posting and extract structured data.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core job details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "company_name": "Name of the company (e.g., Google, StartupInc)",
    "role_title": "Job title (e.g., Senior Backend Engineer)",
    "description": "A clean summary of the job. Focus on Responsibilities and Requirements. Remove HTML tags."
}

### CONSTRAINT:
If a piece of information is missing, set the value to an empty string. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

// ExtractApplicationDetails reads a pasted job posting and returns what the Create popup needs.
func (s *LLMService) ExtractApplicationDetails(ctx context.Context, rawPosting string) (*dtos.ExtractedApplication, error) {
	prompt := fmt.Sprintf(applicationExtractionPrompt, truncate(rawPosting))
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract posting: %w", err)
	}

	var out dtos.ExtractedApplication
	if err := decodeReply(resp, &out); err != nil {
		return nil, err
	}
	if out.CompanyName == "" && out.Position == "" && out.JobDescription == "" {
		return nil, ErrEmptyExtraction
	}
	return &out, nil
}

// Statuses AnalyzeEmailStatus can answer with.
const (
	EmailInterview = "INTERVIEW"
	EmailOffer     = "OFFER"
	EmailRejected  = "REJECTED"
	EmailNoChange  = "NO_CHANGE"
	EmailUnknown   = "UNKNOWN"
)

type EmailAnalysis struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

const emailStatusPrompt = `
You read recruiting emails for a job seeker. The email below is about their application to %s.

Decide what it means for the application and answer with JSON only, no markdown:
{"status": "INTERVIEW" | "OFFER" | "REJECTED" | "NO_CHANGE" | "UNKNOWN", "summary": "one sentence"}

- INTERVIEW: they are invited to an interview, assessment or call.
- OFFER: they received an offer.
- REJECTED: the company will not move forward.
- NO_CHANGE: an acknowledgement, reminder or newsletter.
- UNKNOWN: you cannot tell.

### SUBJECT:
%s

### BODY:
%s
`

func (s *LLMService) AnalyzeEmailStatus(ctx context.Context, company, subject, body string) (*EmailAnalysis, error) {
	prompt := fmt.Sprintf(emailStatusPrompt, company, subject, truncate(body))
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt)
	if err != nil {
		return nil, fmt.Errorf("analyze email: %w", err)
	}
	var out EmailAnalysis
	if err := decodeReply(resp, &out); err != nil {
		return nil, err
	}
	out.Status = strings.ToUpper(strings.TrimSpace(out.Status))
	return &out, nil
}

const identifyApplicationPrompt = `
A job seeker applied to several positions at the same company:
%s
Which position is this email about? Answer with the number only, or -1 if you cannot tell.

### SUBJECT:
%s

### BODY:
%s
`

// IdentifyApplication picks which of positions the email is about. It returns -1 when the model cannot tell.
func (s *LLMService) IdentifyApplication(ctx context.Context, positions []string, subject, body string) (int, error) {
	var list strings.Builder
	for i, p := range positions {
		fmt.Fprintf(&list, "%d. %s\n", i, p)
	}
	prompt := fmt.Sprintf(identifyApplicationPrompt, list.String(), subject, truncate(body))
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt)
	if err != nil {
		return -1, fmt.Errorf("identify application: %w", err)
	}

	idx, err := strconv.Atoi(strings.TrimSpace(stripFences(resp)))
	if err != nil || idx < 0 || idx >= len(positions) {
		return -1, nil
	}
	return idx, nil
}

// truncate cuts s to at most maxPromptInput bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxPromptInput {
		return s
	}
	cut := maxPromptInput
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// decodeReply parses a JSON answer, tolerating the markdown fences models add anyway.
func decodeReply(resp string, out any) error {
	if err := json.Unmarshal([]byte(stripFences(resp)), out); err != nil {
		return fmt.Errorf("parse model reply %q: %w", resp, err)
	}
	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
