package models

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness constraint is violated.
	ErrConflict = errors.New("conflict")
)

const (
	SourceManual = "manual"
	SourceHH     = "hh"
)

// Record is a single free-form experience or education entry.
type Record map[string]any

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Resume holds an uploaded file together with its extracted and structured content.
// Skills, Experience and Education are nil until the resume has been processed.
type Resume struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Title           string    `json:"title"`
	FilePath        string    `json:"-"`
	FileContentType string    `json:"file_content_type"`
	ParsedContent   *string   `json:"parsed_content"`
	Skills          []string  `json:"skills"`
	Experience      []Record  `json:"experience"`
	Education       []Record  `json:"education"`
	UploadedAt      time.Time `json:"uploaded_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Processed reports whether all structured fields are populated.
func (r *Resume) Processed() bool {
	return r.Skills != nil && r.Experience != nil && r.Education != nil
}

type Job struct {
	ID                 int64           `json:"id"`
	Title              string          `json:"title"`
	Company            string          `json:"company"`
	Location           string          `json:"location"`
	Description        string          `json:"description"`
	Requirements       string          `json:"requirements"`
	SalaryRange        string          `json:"salary_range"`
	JobType            string          `json:"job_type"`
	PostedDate         time.Time       `json:"posted_date"`
	Deadline           *time.Time      `json:"deadline"`
	IsActive           bool            `json:"is_active"`
	Source             string          `json:"source"`
	ExternalID         *string         `json:"external_id"`
	RawData            json.RawMessage `json:"raw_data,omitempty"`
	RequiredSkills     []string        `json:"required_skills"`
	ParsedRequirements json.RawMessage `json:"parsed_requirements,omitempty"`
}

// JobSkillMatch is the latest score of a resume against a job. There is at most
// one per (job, resume) pair.
type JobSkillMatch struct {
	ID           int64           `json:"id"`
	JobID        int64           `json:"job_id"`
	ResumeID     int64           `json:"resume_id"`
	MatchScore   float64         `json:"match_score"`
	MatchDetails json.RawMessage `json:"match_details"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Application struct {
	ID           int64             `json:"id"`
	JobID        int64             `json:"job_id"`
	UserID       int64             `json:"user_id"`
	ResumeID     *int64            `json:"resume_id"`
	Status       ApplicationStatus `json:"status"`
	CoverLetter  string            `json:"cover_letter"`
	Notes        string            `json:"notes"`
	AppliedDate  time.Time         `json:"applied_date"`
	LastUpdated  time.Time         `json:"last_updated"`
	MatchScore   *float64          `json:"match_score"`
	MatchDetails json.RawMessage   `json:"match_details,omitempty"`
}
