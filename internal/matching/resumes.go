package matching

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/extract"
	"github.com/spigell/jobpilot/internal/logger"
	"github.com/spigell/jobpilot/internal/metrics"
	"github.com/spigell/jobpilot/internal/models"
)

// UploadInput is a resume file received from a user.
type UploadInput struct {
	UserID      int64
	Title       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// UploadResume stores the file, creates the resume and analyzes it. The
// upload succeeds even when the analysis does not.
func (s *Service) UploadResume(ctx context.Context, in UploadInput) (*models.Resume, error) {
	if !s.extractor.Supported(in.ContentType) {
		return nil, fmt.Errorf("%w: %q", extract.ErrUnsupportedFormat, in.ContentType)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSpace(in.Filename)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	name, err := s.files.Save(in.Filename, in.Content)
	if err != nil {
		return nil, fmt.Errorf("store resume file: %w", err)
	}

	resume := &models.Resume{
		UserID:          in.UserID,
		Title:           title,
		FilePath:        name,
		FileContentType: in.ContentType,
	}
	if err := s.repo.CreateResume(ctx, resume); err != nil {
		if derr := s.files.Delete(name); derr != nil {
			s.logger.Warn("removing orphaned resume file", zap.String("file", name), zap.Error(derr))
		}
		return nil, err
	}

	log := logger.WithFields(s.logger, logger.IDs{User: in.UserID, Resume: resume.ID}.Fields()...)
	log.Info("resume uploaded", zap.String("content_type", in.ContentType))

	processed, err := s.ProcessResumeUpload(ctx, resume.ID)
	if err != nil {
		log.Error("processing uploaded resume", zap.Error(err))
		return resume, nil
	}

	return processed, nil
}

// ProcessResumeUpload extracts the text of the stored file and writes the
// structured sections. It is safe to run repeatedly; each run overwrites the
// previous result. Files that yield no text, or only whitespace, leave the
// resume untouched.
func (s *Service) ProcessResumeUpload(ctx context.Context, resumeID int64) (*models.Resume, error) {
	resume, err := s.repo.GetResume(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	log := logger.WithFields(s.logger, logger.IDs{User: resume.UserID, Resume: resume.ID}.Fields()...)

	data, err := s.files.Open(resume.FilePath)
	if err != nil {
		metrics.ResumesProcessed.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("read resume file: %w", err)
	}

	text, ok, err := s.ExtractText(data, resume.FileContentType)
	if err != nil {
		metrics.ResumesProcessed.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}
	if !ok || strings.TrimSpace(text) == "" {
		log.Warn("no text extracted from resume, skipping analysis", zap.Bool("parsed", ok))
		metrics.ResumesProcessed.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return resume, nil
	}

	parsed, analyzed := s.parseResume(ctx, text)

	if err := s.repo.UpdateResumeAnalysis(ctx, resume.ID, text, parsed.Skills, parsed.Experience, parsed.Education); err != nil {
		metrics.ResumesProcessed.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	outcome := metrics.OutcomeSuccess
	if !analyzed {
		outcome = metrics.OutcomeDegraded
	}
	metrics.ResumesProcessed.WithLabelValues(outcome).Inc()

	resume.ParsedContent = &text
	resume.Skills = parsed.Skills
	resume.Experience = parsed.Experience
	resume.Education = parsed.Education

	log.Info("resume processed",
		zap.String("outcome", outcome),
		zap.Int("skills", len(parsed.Skills)),
		zap.Int("experience", len(parsed.Experience)),
		zap.Int("education", len(parsed.Education)),
	)

	return resume, nil
}

// ReanalyzeResume reprocesses a resume owned by the user.
func (s *Service) ReanalyzeResume(ctx context.Context, resumeID, userID int64) (*models.Resume, error) {
	if _, err := s.repo.GetUserResume(ctx, resumeID, userID); err != nil {
		return nil, err
	}
	return s.ProcessResumeUpload(ctx, resumeID)
}

// DeleteResume removes the resume and its file. Matches are removed with it
// and applications keep existing without a resume.
func (s *Service) DeleteResume(ctx context.Context, resumeID, userID int64) error {
	name, err := s.repo.DeleteResume(ctx, resumeID, userID)
	if err != nil {
		return err
	}

	if err := s.files.Delete(name); err != nil {
		s.logger.Warn("removing resume file", zap.String("file", name), zap.Error(err))
	}
	return nil
}
