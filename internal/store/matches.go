package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spigell/jobpilot/internal/models"
)

const matchColumns = `id, job_id, resume_id, match_score, match_details, created_at`

func scanMatch(row scanner) (*models.JobSkillMatch, error) {
	var (
		m       models.JobSkillMatch
		details []byte
	)
	if err := row.Scan(&m.ID, &m.JobID, &m.ResumeID, &m.MatchScore, &details, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.MatchDetails = rawJSON(details)
	return &m, nil
}

// UpsertMatch stores the score of the resume against the job. An existing
// row for the pair is overwritten in place, so concurrent callers never
// create duplicates.
func (s *Store) UpsertMatch(ctx context.Context, jobID, resumeID int64, score float64, details json.RawMessage) (*models.JobSkillMatch, error) {
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO job_skill_matches (job_id, resume_id, match_score, match_details)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_id, resume_id) DO UPDATE SET
			match_score = EXCLUDED.match_score,
			match_details = EXCLUDED.match_details
		RETURNING `+matchColumns,
		jobID, resumeID, score, []byte(details),
	)

	m, err := scanMatch(row)
	if err != nil {
		return nil, fmt.Errorf("upsert match job=%d resume=%d: %w", jobID, resumeID, translate(err))
	}
	return m, nil
}

func (s *Store) GetMatch(ctx context.Context, jobID, resumeID int64) (*models.JobSkillMatch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM job_skill_matches WHERE job_id = $1 AND resume_id = $2`,
		jobID, resumeID,
	)
	m, err := scanMatch(row)
	if err != nil {
		return nil, fmt.Errorf("get match job=%d resume=%d: %w", jobID, resumeID, translate(err))
	}
	return m, nil
}

// ListMatches returns the matches of the user's resumes, best scores first.
func (s *Store) ListMatches(ctx context.Context, userID int64) ([]*models.JobSkillMatch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.job_id, m.resume_id, m.match_score, m.match_details, m.created_at
		FROM job_skill_matches m
		JOIN resumes r ON r.id = m.resume_id
		WHERE r.user_id = $1
		ORDER BY m.match_score DESC, m.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.JobSkillMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}
