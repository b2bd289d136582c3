package matching

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/ai"
	"github.com/spigell/jobpilot/internal/models"
)

// ErrValidation is returned when the input references records the caller cannot use.
var ErrValidation = errors.New("validation failed")

// Repository is the persistence the pipeline depends on.
type Repository interface {
	CreateResume(ctx context.Context, r *models.Resume) error
	GetResume(ctx context.Context, id int64) (*models.Resume, error)
	GetUserResume(ctx context.Context, id, userID int64) (*models.Resume, error)
	UpdateResumeAnalysis(ctx context.Context, id int64, text string, skills []string, experience, education []models.Record) error
	DeleteResume(ctx context.Context, id, userID int64) (string, error)

	GetJob(ctx context.Context, id int64) (*models.Job, error)

	UpsertMatch(ctx context.Context, jobID, resumeID int64, score float64, details json.RawMessage) (*models.JobSkillMatch, error)
	GetMatch(ctx context.Context, jobID, resumeID int64) (*models.JobSkillMatch, error)

	CreateApplication(ctx context.Context, a *models.Application) error
	UpdateApplicationStatus(ctx context.Context, id, userID int64, status models.ApplicationStatus) (*models.Application, error)
}

// FileStore keeps the uploaded resume files.
type FileStore interface {
	Save(filename string, r io.Reader) (string, error)
	Open(name string) ([]byte, error)
	Delete(name string) error
}

// TextExtractor turns resume files into raw text. A false result means the
// file could not be parsed.
type TextExtractor interface {
	Supported(contentType string) bool
	Extract(data []byte, contentType string) (string, bool, error)
}

// Service coordinates extraction, language model analysis and persistence of
// resumes, matches and applications.
type Service struct {
	repo      Repository
	files     FileStore
	extractor TextExtractor
	analyzer  ai.Analyzer
	logger    *zap.Logger
}

func NewService(repo Repository, files FileStore, extractor TextExtractor, analyzer ai.Analyzer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:      repo,
		files:     files,
		extractor: extractor,
		analyzer:  analyzer,
		logger:    logger,
	}
}

// ExtractText returns the raw text of a file. A false result means the file
// could not be parsed; an unsupported content type is an error.
func (s *Service) ExtractText(data []byte, contentType string) (string, bool, error) {
	return s.extractor.Extract(data, contentType)
}

// ParseResume structures the resume text. Failures degrade to empty sections.
func (s *Service) ParseResume(ctx context.Context, text string) ai.ParsedResume {
	parsed, _ := s.parseResume(ctx, text)
	return parsed
}

func (s *Service) parseResume(ctx context.Context, text string) (ai.ParsedResume, bool) {
	parsed, err := s.analyzer.ParseResume(ctx, text)
	if err != nil || parsed == nil {
		s.logger.Warn("resume analysis failed, storing empty sections", zap.Error(err))
		return ai.EmptyResume(), false
	}

	result := ai.EmptyResume()
	if parsed.Skills != nil {
		result.Skills = parsed.Skills
	}
	if parsed.Experience != nil {
		result.Experience = parsed.Experience
	}
	if parsed.Education != nil {
		result.Education = parsed.Education
	}
	return result, true
}

// ScoreMatch scores the resume against the job. Failures degrade to a zero
// score with the error message as the analysis.
func (s *Service) ScoreMatch(ctx context.Context, resume ai.ResumeFields, job ai.JobFields) ai.MatchResult {
	result, _ := s.scoreMatch(ctx, resume, job)
	return result
}

func (s *Service) scoreMatch(ctx context.Context, resume ai.ResumeFields, job ai.JobFields) (ai.MatchResult, bool) {
	result, err := s.analyzer.ScoreMatch(ctx, resume, job)
	if err != nil || result == nil {
		if err == nil {
			err = errors.New("empty match result")
		}
		s.logger.Warn("match scoring failed, storing zero score", zap.Error(err))
		return ai.FailedMatch(err), false
	}
	return *result, true
}

// GenerateCoverLetter writes a cover letter. Failures degrade to an empty string.
func (s *Service) GenerateCoverLetter(ctx context.Context, resume ai.ResumeFields, job ai.JobFields) string {
	letter, err := s.analyzer.GenerateCoverLetter(ctx, resume, job)
	if err != nil {
		s.logger.Warn("cover letter generation failed", zap.Error(err))
		return ""
	}
	return letter
}
