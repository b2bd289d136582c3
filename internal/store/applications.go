package store

import (
	"context"
	"fmt"

	"github.com/spigell/jobpilot/internal/models"
)

const applicationColumns = `id, job_id, user_id, resume_id, status, cover_letter, notes, applied_date, last_updated, match_score, match_details`

func scanApplication(row scanner) (*models.Application, error) {
	var (
		a       models.Application
		details []byte
	)

	err := row.Scan(
		&a.ID, &a.JobID, &a.UserID, &a.ResumeID, &a.Status, &a.CoverLetter, &a.Notes,
		&a.AppliedDate, &a.LastUpdated, &a.MatchScore, &details,
	)
	if err != nil {
		return nil, err
	}
	a.MatchDetails = rawJSON(details)
	return &a, nil
}

// CreateApplication inserts the application. A second application of the same
// user to the same job fails with models.ErrConflict.
func (s *Store) CreateApplication(ctx context.Context, a *models.Application) error {
	if a.Status == "" {
		a.Status = models.StatusPending
	}

	details, err := jsonValue(a.MatchDetails)
	if err != nil {
		return fmt.Errorf("encode match details: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO applications (job_id, user_id, resume_id, status, cover_letter, notes, match_score, match_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, applied_date, last_updated`,
		a.JobID, a.UserID, a.ResumeID, string(a.Status), a.CoverLetter, a.Notes, a.MatchScore, details,
	).Scan(&a.ID, &a.AppliedDate, &a.LastUpdated)
	if err != nil {
		return fmt.Errorf("insert application: %w", translate(err))
	}
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id, userID int64) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	a, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("get application %d: %w", id, translate(err))
	}
	return a, nil
}

func (s *Store) ListApplications(ctx context.Context, userID int64) ([]*models.Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE user_id = $1 ORDER BY applied_date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var applications []*models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		applications = append(applications, a)
	}

	return applications, rows.Err()
}

// UpdateApplicationStatus moves the user's application to the given status.
func (s *Store) UpdateApplicationStatus(ctx context.Context, id, userID int64, status models.ApplicationStatus) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE applications SET status = $3, last_updated = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+applicationColumns,
		id, userID, string(status),
	)
	a, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("update application %d: %w", id, translate(err))
	}
	return a, nil
}
