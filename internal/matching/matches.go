package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/ai"
	"github.com/spigell/jobpilot/internal/logger"
	"github.com/spigell/jobpilot/internal/metrics"
	"github.com/spigell/jobpilot/internal/models"
)

// RequestMatch scores the user's resume against the job and stores the result.
// A resume of another user is reported as models.ErrNotFound. Repeated calls
// for the same pair update the existing match.
func (s *Service) RequestMatch(ctx context.Context, jobID, resumeID, userID int64) (*models.JobSkillMatch, error) {
	log := logger.WithFields(s.logger, logger.IDs{User: userID, Resume: resumeID, Job: jobID}.Fields()...)

	resume, err := s.repo.GetUserResume(ctx, resumeID, userID)
	if err != nil {
		return nil, err
	}

	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !resume.Processed() {
		log.Debug("scoring a resume that has not been processed yet")
	}

	result, scored := s.scoreMatch(ctx, ai.ResumeFieldsOf(resume), ai.JobFieldsOf(job))

	match, err := s.repo.UpsertMatch(ctx, job.ID, resume.ID, result.Score, result.Analysis)
	if err != nil {
		metrics.MatchesScored.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	outcome := metrics.OutcomeSuccess
	if !scored {
		outcome = metrics.OutcomeDegraded
	}
	metrics.MatchesScored.WithLabelValues(outcome).Inc()

	log.Info("match stored", zap.Float64("score", match.MatchScore), zap.String("outcome", outcome))

	return match, nil
}

// ApplicationInput is a new application submitted by a user.
type ApplicationInput struct {
	UserID      int64
	JobID       int64
	ResumeID    int64
	CoverLetter string
	Notes       string
}

// CreateApplication records the application. A cover letter is generated when
// none is given and the latest match of the pair, if any, is copied onto it.
func (s *Service) CreateApplication(ctx context.Context, in ApplicationInput) (*models.Application, error) {
	job, err := s.repo.GetJob(ctx, in.JobID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: job %d does not exist", ErrValidation, in.JobID)
	}
	if err != nil {
		return nil, err
	}

	resume, err := s.repo.GetUserResume(ctx, in.ResumeID, in.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: resume %d does not exist", ErrValidation, in.ResumeID)
	}
	if err != nil {
		return nil, err
	}

	log := logger.WithFields(s.logger, logger.IDs{User: in.UserID, Resume: resume.ID, Job: job.ID}.Fields()...)

	letter := strings.TrimSpace(in.CoverLetter)
	if letter == "" {
		letter = s.GenerateCoverLetter(ctx, ai.ResumeFieldsOf(resume), ai.JobFieldsOf(job))
	}

	resumeID := resume.ID
	app := &models.Application{
		JobID:       job.ID,
		UserID:      in.UserID,
		ResumeID:    &resumeID,
		Status:      models.StatusPending,
		CoverLetter: letter,
		Notes:       in.Notes,
	}

	match, err := s.repo.GetMatch(ctx, job.ID, resume.ID)
	switch {
	case err == nil:
		score := match.MatchScore
		app.MatchScore = &score
		app.MatchDetails = match.MatchDetails
	case errors.Is(err, models.ErrNotFound):
	default:
		log.Warn("loading match for application snapshot", zap.Error(err))
	}

	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	log.Info("application created",
		zap.Int64("application_id", app.ID),
		zap.Bool("cover_letter", app.CoverLetter != ""),
		zap.Bool("match_snapshot", app.MatchScore != nil),
	)

	return app, nil
}

// UpdateApplicationStatus moves the user's application to another workflow status.
func (s *Service) UpdateApplicationStatus(ctx context.Context, applicationID, userID int64, status string) (*models.Application, error) {
	parsed, err := models.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	app, err := s.repo.UpdateApplicationStatus(ctx, applicationID, userID, parsed)
	if err != nil {
		return nil, err
	}

	s.logger.Info("application status updated",
		zap.Int64("application_id", app.ID),
		zap.String("status", string(app.Status)),
	)
	return app, nil
}
