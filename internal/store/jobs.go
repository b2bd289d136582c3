package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/spigell/jobpilot/internal/models"
)

const jobColumns = `id, title, company, location, description, requirements, salary_range, job_type,
	posted_date, deadline, is_active, source, external_id, raw_data, required_skills, parsed_requirements`

func scanJob(row scanner) (*models.Job, error) {
	var (
		j                  models.Job
		rawData            []byte
		parsedRequirements []byte
	)

	err := row.Scan(
		&j.ID, &j.Title, &j.Company, &j.Location, &j.Description, &j.Requirements, &j.SalaryRange, &j.JobType,
		&j.PostedDate, &j.Deadline, &j.IsActive, &j.Source, &j.ExternalID, &rawData, pq.Array(&j.RequiredSkills), &parsedRequirements,
	)
	if err != nil {
		return nil, err
	}

	j.RawData = rawJSON(rawData)
	j.ParsedRequirements = rawJSON(parsedRequirements)
	return &j, nil
}

func jobArgs(j *models.Job) ([]any, error) {
	raw, err := jsonValue(j.RawData)
	if err != nil {
		return nil, fmt.Errorf("encode raw data: %w", err)
	}
	parsed, err := jsonValue(j.ParsedRequirements)
	if err != nil {
		return nil, fmt.Errorf("encode parsed requirements: %w", err)
	}

	source := strings.TrimSpace(j.Source)
	if source == "" {
		source = models.SourceManual
	}

	var skills any
	if j.RequiredSkills != nil {
		skills = pq.Array(j.RequiredSkills)
	}

	var posted any
	if !j.PostedDate.IsZero() {
		posted = j.PostedDate
	}

	return []any{
		j.Title, j.Company, j.Location, j.Description, j.Requirements, j.SalaryRange, j.JobType,
		j.Deadline, j.IsActive, source, j.ExternalID, raw, skills, parsed, posted,
	}, nil
}

// CreateJob inserts a job and fills its id, source and posted date. The
// posted date defaults to now when unset.
func (s *Store) CreateJob(ctx context.Context, j *models.Job) error {
	args, err := jobArgs(j)
	if err != nil {
		return err
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO jobs (title, company, location, description, requirements, salary_range, job_type,
			deadline, is_active, source, external_id, raw_data, required_skills, parsed_requirements, posted_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, COALESCE($15::timestamptz, now()))
		RETURNING id, source, posted_date`,
		args...,
	).Scan(&j.ID, &j.Source, &j.PostedDate)
	if err != nil {
		return fmt.Errorf("insert job: %w", translate(err))
	}
	return nil
}

// UpsertExternalJob inserts or refreshes a job imported from an external board,
// keyed by (source, external_id). It reports whether a new row was created.
func (s *Store) UpsertExternalJob(ctx context.Context, j *models.Job) (bool, error) {
	if j.ExternalID == nil || strings.TrimSpace(*j.ExternalID) == "" {
		return false, errors.New("external id is required")
	}

	args, err := jobArgs(j)
	if err != nil {
		return false, err
	}

	var created bool
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO jobs (title, company, location, description, requirements, salary_range, job_type,
			deadline, is_active, source, external_id, raw_data, required_skills, parsed_requirements, posted_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, COALESCE($15::timestamptz, now()))
		ON CONFLICT (source, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			company = EXCLUDED.company,
			location = EXCLUDED.location,
			description = EXCLUDED.description,
			requirements = EXCLUDED.requirements,
			salary_range = EXCLUDED.salary_range,
			job_type = EXCLUDED.job_type,
			is_active = EXCLUDED.is_active,
			raw_data = EXCLUDED.raw_data,
			required_skills = EXCLUDED.required_skills
		RETURNING id, source, posted_date, (xmax = 0) AS created`,
		args...,
	).Scan(&j.ID, &j.Source, &j.PostedDate, &created)
	if err != nil {
		return false, fmt.Errorf("upsert job %s/%s: %w", j.Source, *j.ExternalID, translate(err))
	}
	return created, nil
}

func (s *Store) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, translate(err))
	}
	return j, nil
}

// ListJobs returns jobs ordered by posting date, newest first.
func (s *Store) ListJobs(ctx context.Context, activeOnly bool) ([]*models.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE NOT $1 OR is_active ORDER BY posted_date DESC`,
		activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}
