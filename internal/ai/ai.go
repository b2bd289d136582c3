package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spigell/jobpilot/internal/models"
)

const (
	OpParseResume    = "parse_resume"
	OpScoreMatch     = "score_match"
	OpCoverLetter    = "cover_letter"
	ProviderGemini   = "gemini"
	DefaultMaxTokens = 1000
)

// ParsedResume is the structured form of a resume returned by the model.
type ParsedResume struct {
	Skills     []string        `json:"skills"`
	Experience []models.Record `json:"experience"`
	Education  []models.Record `json:"education"`
}

// EmptyResume is the result used when parsing fails.
func EmptyResume() ParsedResume {
	return ParsedResume{
		Skills:     []string{},
		Experience: []models.Record{},
		Education:  []models.Record{},
	}
}

// MatchResult is a compatibility score in [0, 100] with the model's analysis.
// Analysis is either a JSON string or a JSON object.
type MatchResult struct {
	Score    float64         `json:"score"`
	Analysis json.RawMessage `json:"analysis"`
}

// FailedMatch is the result used when scoring fails.
func FailedMatch(err error) MatchResult {
	analysis, _ := json.Marshal(err.Error())
	return MatchResult{Score: 0, Analysis: analysis}
}

// ResumeFields is the part of a resume sent to the model for scoring and cover letters.
type ResumeFields struct {
	Skills     []string
	Experience []models.Record
}

// JobFields is the part of a job sent to the model.
type JobFields struct {
	Title          string
	Company        string
	Requirements   string
	RequiredSkills []string
}

func ResumeFieldsOf(r *models.Resume) ResumeFields {
	return ResumeFields{Skills: r.Skills, Experience: r.Experience}
}

func JobFieldsOf(j *models.Job) JobFields {
	return JobFields{
		Title:          j.Title,
		Company:        j.Company,
		Requirements:   j.Requirements,
		RequiredSkills: j.RequiredSkills,
	}
}

// Analyzer performs the language model calls used by the matching pipeline.
type Analyzer interface {
	ParseResume(ctx context.Context, text string) (*ParsedResume, error)
	ScoreMatch(ctx context.Context, resume ResumeFields, job JobFields) (*MatchResult, error)
	GenerateCoverLetter(ctx context.Context, resume ResumeFields, job JobFields) (string, error)
}

// AnalysisError wraps any failure of a model call: transport, empty reply or bad JSON.
type AnalysisError struct {
	Op  string
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

type disabled struct {
	err error
}

// Disabled returns an Analyzer that fails every call with err. It is used when
// no language model is configured.
func Disabled(err error) Analyzer {
	return disabled{err: err}
}

func (d disabled) ParseResume(context.Context, string) (*ParsedResume, error) {
	return nil, &AnalysisError{Op: OpParseResume, Err: d.err}
}

func (d disabled) ScoreMatch(context.Context, ResumeFields, JobFields) (*MatchResult, error) {
	return nil, &AnalysisError{Op: OpScoreMatch, Err: d.err}
}

func (d disabled) GenerateCoverLetter(context.Context, ResumeFields, JobFields) (string, error) {
	return "", &AnalysisError{Op: OpCoverLetter, Err: d.err}
}
