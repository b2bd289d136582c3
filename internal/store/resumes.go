package store

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/spigell/jobpilot/internal/models"
)

const resumeColumns = `id, user_id, title, file_path, file_content_type, parsed_content, skills, experience, education, uploaded_at, updated_at`

func scanResume(row scanner) (*models.Resume, error) {
	var (
		r          models.Resume
		experience []byte
		education  []byte
	)

	err := row.Scan(
		&r.ID, &r.UserID, &r.Title, &r.FilePath, &r.FileContentType, &r.ParsedContent,
		pq.Array(&r.Skills), &experience, &education, &r.UploadedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if r.Experience, err = decodeRecords(experience); err != nil {
		return nil, fmt.Errorf("decode experience of resume %d: %w", r.ID, err)
	}
	if r.Education, err = decodeRecords(education); err != nil {
		return nil, fmt.Errorf("decode education of resume %d: %w", r.ID, err)
	}

	return &r, nil
}

// CreateResume inserts an unprocessed resume and fills its id and timestamps.
func (s *Store) CreateResume(ctx context.Context, r *models.Resume) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO resumes (user_id, title, file_path, file_content_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, uploaded_at, updated_at`,
		r.UserID, r.Title, r.FilePath, r.FileContentType,
	).Scan(&r.ID, &r.UploadedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert resume: %w", translate(err))
	}
	return nil
}

func (s *Store) GetResume(ctx context.Context, id int64) (*models.Resume, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, id)
	r, err := scanResume(row)
	if err != nil {
		return nil, fmt.Errorf("get resume %d: %w", id, translate(err))
	}
	return r, nil
}

// GetUserResume returns the resume only when it belongs to the user. A resume of
// another user is reported as models.ErrNotFound.
func (s *Store) GetUserResume(ctx context.Context, id, userID int64) (*models.Resume, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = $1 AND user_id = $2`, id, userID)
	r, err := scanResume(row)
	if err != nil {
		return nil, fmt.Errorf("get resume %d: %w", id, translate(err))
	}
	return r, nil
}

// ListResumes returns the resumes of the user, newest first.
func (s *Store) ListResumes(ctx context.Context, userID int64) ([]*models.Resume, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY uploaded_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []*models.Resume
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resume: %w", err)
		}
		resumes = append(resumes, r)
	}

	return resumes, rows.Err()
}

// UpdateResumeAnalysis overwrites the extracted text and structured fields in a single statement.
func (s *Store) UpdateResumeAnalysis(ctx context.Context, id int64, text string, skills []string, experience, education []models.Record) error {
	if skills == nil {
		skills = []string{}
	}
	if experience == nil {
		experience = []models.Record{}
	}
	if education == nil {
		education = []models.Record{}
	}

	exp, err := jsonValue(experience)
	if err != nil {
		return fmt.Errorf("encode experience: %w", err)
	}
	edu, err := jsonValue(education)
	if err != nil {
		return fmt.Errorf("encode education: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE resumes
		SET parsed_content = $2, skills = $3, experience = $4, education = $5, updated_at = now()
		WHERE id = $1`,
		id, text, pq.Array(skills), exp, edu,
	)
	if err != nil {
		return fmt.Errorf("update resume %d: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update resume %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// DeleteResume removes the user's resume and returns its file path so the caller can remove the file.
func (s *Store) DeleteResume(ctx context.Context, id, userID int64) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM resumes WHERE id = $1 AND user_id = $2 RETURNING file_path`,
		id, userID,
	).Scan(&path)
	if err != nil {
		return "", fmt.Errorf("delete resume %d: %w", id, translate(err))
	}
	return path, nil
}
