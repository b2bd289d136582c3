package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/filtering"
	"github.com/spigell/jobpilot/internal/headhunter"
	"github.com/spigell/jobpilot/internal/metrics"
	"github.com/spigell/jobpilot/internal/models"
	"github.com/spigell/jobpilot/internal/utils"
)

// VacancySource is the part of the hh.ru client used by the sync.
type VacancySource interface {
	Search(ctx context.Context, params *headhunter.SearchParams) (*headhunter.Vacancies, error)
	GetVacancy(ctx context.Context, id string) (*headhunter.Vacancy, json.RawMessage, error)
	SuggestSkills(ctx context.Context, text string) ([]string, error)
}

// JobStore persists imported jobs keyed by (source, external id).
type JobStore interface {
	UpsertExternalJob(ctx context.Context, j *models.Job) (bool, error)
}

type Config struct {
	Search  *headhunter.SearchParams `mapstructure:"search"`
	Exclude filtering.Config         `mapstructure:"exclude"`
	// Delay is the pause between vacancy detail requests.
	Delay time.Duration `mapstructure:"delay"`
}

// Result summarizes one sync run.
type Result struct {
	Found    int     `json:"found"`
	Filtered int     `json:"filtered"`
	Created  int     `json:"created"`
	Updated  int     `json:"updated"`
	Skipped  int     `json:"skipped"`
	JobIDs   []int64 `json:"job_ids"`
	// Vacancies holds the details of every synced vacancy.
	Vacancies *headhunter.Vacancies `json:"-"`
}

type Syncer struct {
	source  VacancySource
	jobs    JobStore
	filters []filtering.Filter
	config  Config
	logger  *zap.Logger
}

func NewSyncer(source VacancySource, jobs JobStore, filters []filtering.Filter, config Config, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if filters == nil {
		filters = filtering.Default()
	}

	return &Syncer{
		source:  source,
		jobs:    jobs,
		filters: filters,
		config:  config,
		logger:  logger.With(zap.String("source", models.SourceHH)),
	}
}

// Sync searches hh.ru, filters the result and upserts every vacancy as a job.
// Vacancies whose details cannot be fetched are skipped.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	params := s.config.Search
	if params == nil {
		params = &headhunter.SearchParams{}
	}

	s.logger.Info("starting the search", zap.String("search", params.Text))

	vacancies, err := s.source.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("searching vacancies: %w", err)
	}

	result := &Result{Found: vacancies.Len(), Vacancies: &headhunter.Vacancies{}}

	vacancies, err = filtering.Run(ctx, &s.config.Exclude, filtering.Deps{Logger: s.logger}, s.filters, vacancies)
	if err != nil {
		return nil, fmt.Errorf("filtering vacancies: %w", err)
	}
	result.Filtered = result.Found - vacancies.Len()

	for i, item := range vacancies.Items {
		if i > 0 {
			if err := utils.WaitFor(ctx, s.config.Delay); err != nil {
				return result, err
			}
		}

		log := s.logger.With(zap.String("vacancy_id", item.ID))

		vacancy, job, err := s.importVacancy(ctx, item.ID)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			log.Warn("skipping vacancy", zap.Error(err))
			metrics.JobsSynced.WithLabelValues(models.SourceHH, metrics.OutcomeSkipped).Inc()
			result.Skipped++
			continue
		}

		created, err := s.jobs.UpsertExternalJob(ctx, job)
		if err != nil {
			metrics.JobsSynced.WithLabelValues(models.SourceHH, metrics.OutcomeError).Inc()
			return result, err
		}

		outcome := metrics.OutcomeUpdated
		if created {
			outcome = metrics.OutcomeCreated
			result.Created++
		} else {
			result.Updated++
		}
		metrics.JobsSynced.WithLabelValues(models.SourceHH, outcome).Inc()
		result.JobIDs = append(result.JobIDs, job.ID)
		result.Vacancies.Items = append(result.Vacancies.Items, vacancy)

		log.Debug("vacancy synced", zap.Int64("job_id", job.ID), zap.String("outcome", outcome))
	}

	s.logger.Info("sync finished",
		zap.Int("found", result.Found),
		zap.Int("filtered", result.Filtered),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

func (s *Syncer) importVacancy(ctx context.Context, id string) (*headhunter.Vacancy, *models.Job, error) {
	vacancy, raw, err := s.source.GetVacancy(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	skills, err := s.source.SuggestSkills(ctx, vacancy.Name)
	if err != nil {
		s.logger.Debug("skill suggestions unavailable, using key skills",
			zap.String("vacancy_id", id),
			zap.Error(err),
		)
	}
	if len(skills) == 0 {
		skills = vacancy.SkillNames()
	}

	return vacancy, JobFromVacancy(vacancy, raw, skills), nil
}

// JobFromVacancy maps an hh.ru vacancy onto a job.
func JobFromVacancy(v *headhunter.Vacancy, raw json.RawMessage, skills []string) *models.Job {
	externalID := v.ID
	if skills == nil {
		skills = []string{}
	}

	job := &models.Job{
		Title:          strings.TrimSpace(v.Name),
		Company:        v.Employer.Name,
		Location:       v.Area.Name,
		Description:    v.Description,
		Requirements:   v.Snippet.Requirement,
		SalaryRange:    v.SalaryRange(),
		JobType:        v.Employment.Name,
		IsActive:       !v.Archived,
		Source:         models.SourceHH,
		ExternalID:     &externalID,
		RawData:        raw,
		RequiredSkills: skills,
	}
	if published := v.Published(); published != nil {
		job.PostedDate = *published
	}

	return job
}
