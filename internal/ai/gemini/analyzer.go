package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/jobpilot/internal/ai"
	"github.com/spigell/jobpilot/internal/metrics"
	"github.com/spigell/jobpilot/internal/models"
	"github.com/spigell/jobpilot/internal/utils"
	"go.uber.org/zap"
)

const (
	resumeSystem      = "You are a resume parser. Extract skills, experience, education, and key achievements from the resume and return them as JSON."
	matchSystem       = "You are a recruiting assistant. Compare the resume with the job requirements and return a JSON object with a match score from 0 to 100 and a detailed analysis."
	coverLetterSystem = "You are a professional career advisor who writes concise, tailored cover letters."

	analysisTemperature    = 0.3
	coverLetterTemperature = 0.7
	defaultMaxLogLength    = 200
)

var (
	//go:embed resume.md
	resumeTemplate string
	//go:embed match.md
	matchTemplate string
	//go:embed cover_letter.md
	coverLetterTemplate string
)

type textGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Analyzer implements ai.Analyzer on top of a Gemini generator.
type Analyzer struct {
	generator textGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewAnalyzer(generator textGenerator, logger *zap.Logger, maxLogLength int) *Analyzer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Analyzer) ParseResume(ctx context.Context, text string) (*ai.ParsedResume, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ai.AnalysisError{Op: ai.OpParseResume, Err: errors.New("resume text is empty")}
	}

	prompt := strings.ReplaceAll(resumeTemplate, "{{RESUME_TEXT}}", text)
	raw, err := a.call(ctx, ai.OpParseResume, Request{
		System:      resumeSystem,
		Prompt:      prompt,
		Temperature: analysisTemperature,
		MaxTokens:   ai.DefaultMaxTokens,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := parseResumeResponse(raw)
	if err != nil {
		return nil, &ai.AnalysisError{Op: ai.OpParseResume, Err: err}
	}

	return parsed, nil
}

func (a *Analyzer) ScoreMatch(ctx context.Context, resume ai.ResumeFields, job ai.JobFields) (*ai.MatchResult, error) {
	prompt := fillJobTemplate(matchTemplate, resume, job)
	raw, err := a.call(ctx, ai.OpScoreMatch, Request{
		System:      matchSystem,
		Prompt:      prompt,
		Temperature: analysisTemperature,
		MaxTokens:   ai.DefaultMaxTokens,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	result, err := parseMatchResponse(raw)
	if err != nil {
		return nil, &ai.AnalysisError{Op: ai.OpScoreMatch, Err: err}
	}

	return result, nil
}

func (a *Analyzer) GenerateCoverLetter(ctx context.Context, resume ai.ResumeFields, job ai.JobFields) (string, error) {
	prompt := fillJobTemplate(coverLetterTemplate, resume, job)
	return a.call(ctx, ai.OpCoverLetter, Request{
		System:      coverLetterSystem,
		Prompt:      prompt,
		Temperature: coverLetterTemperature,
		MaxTokens:   ai.DefaultMaxTokens,
	})
}

func (a *Analyzer) call(ctx context.Context, op string, req Request) (string, error) {
	a.logger.Debug("gemini generate content request",
		zap.String("operation", op),
		zap.Int("prompt_length", utf8.RuneCountInString(req.Prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(req.Prompt, a.maxLogLen)),
	)

	started := time.Now()
	raw, err := a.generator.Generate(ctx, req)
	metrics.AIRequestDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.AIRequests.WithLabelValues(op, metrics.OutcomeError).Inc()
		return "", &ai.AnalysisError{Op: op, Err: err}
	}
	metrics.AIRequests.WithLabelValues(op, metrics.OutcomeSuccess).Inc()

	a.logger.Debug("gemini generate content response",
		zap.String("operation", op),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	return raw, nil
}

func fillJobTemplate(template string, resume ai.ResumeFields, job ai.JobFields) string {
	skills := strings.Join(resume.Skills, ", ")
	experience, err := json.Marshal(resume.Experience)
	if err != nil || resume.Experience == nil {
		experience = []byte("[]")
	}

	replacer := strings.NewReplacer(
		"{{RESUME_SKILLS}}", skills,
		"{{RESUME_EXPERIENCE}}", string(experience),
		"{{JOB_TITLE}}", job.Title,
		"{{JOB_COMPANY}}", job.Company,
		"{{JOB_REQUIREMENTS}}", job.Requirements,
		"{{JOB_SKILLS}}", strings.Join(job.RequiredSkills, ", "),
	)
	return replacer.Replace(template)
}

func decodeObject(raw string) (map[string]any, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	if data == nil {
		return nil, errors.New("gemini response is not a json object")
	}
	return data, nil
}

func parseResumeResponse(raw string) (*ai.ParsedResume, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	return &ai.ParsedResume{
		Skills:     coerceStrings(data["skills"]),
		Experience: coerceRecords(data["experience"]),
		Education:  coerceRecords(data["education"]),
	}, nil
}

func parseMatchResponse(raw string) (*ai.MatchResult, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		return nil, fmt.Errorf("gemini response has no numeric score: %v", data["score"])
	}
	score = math.Max(0, math.Min(100, score))

	analysis := json.RawMessage(`{}`)
	if value, ok := data["analysis"]; ok && value != nil {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode analysis: %w", err)
		}
		analysis = encoded
	}

	return &ai.MatchResult{Score: score, Analysis: analysis}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s := coerceString(v); s != "" {
			return []string{s}
		}
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// coerceRecords keeps objects as they are and wraps anything else into a summary record.
func coerceRecords(v any) []models.Record {
	items, ok := v.([]any)
	if !ok {
		if v == nil {
			return []models.Record{}
		}
		items = []any{v}
	}

	out := make([]models.Record, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case map[string]any:
			out = append(out, models.Record(val))
		case nil:
		default:
			if s := coerceString(val); s != "" {
				out = append(out, models.Record{"summary": s})
			}
		}
	}
	return out
}
