package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spigell/jobpilot/internal/ai"
	"github.com/spigell/jobpilot/internal/models"
)

type matchKey struct{ job, resume int64 }

type fakeRepo struct {
	mu           sync.Mutex
	nextID       int64
	resumes      map[int64]*models.Resume
	jobs         map[int64]*models.Job
	matches      map[matchKey]*models.JobSkillMatch
	applications map[int64]*models.Application
	updates      int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		resumes:      make(map[int64]*models.Resume),
		jobs:         make(map[int64]*models.Job),
		matches:      make(map[matchKey]*models.JobSkillMatch),
		applications: make(map[int64]*models.Application),
	}
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) addJob(j models.Job) *models.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	j.ID = f.id()
	f.jobs[j.ID] = &j
	return &j
}

func (f *fakeRepo) CreateResume(_ context.Context, r *models.Resume) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.id()
	r.UploadedAt = time.Now()
	r.UpdatedAt = r.UploadedAt
	stored := *r
	f.resumes[r.ID] = &stored
	return nil
}

func (f *fakeRepo) GetResume(_ context.Context, id int64) (*models.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resumes[id]
	if !ok {
		return nil, fmt.Errorf("get resume %d: %w", id, models.ErrNotFound)
	}
	out := *r
	return &out, nil
}

func (f *fakeRepo) GetUserResume(ctx context.Context, id, userID int64) (*models.Resume, error) {
	r, err := f.GetResume(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, fmt.Errorf("get resume %d: %w", id, models.ErrNotFound)
	}
	return r, nil
}

func (f *fakeRepo) UpdateResumeAnalysis(_ context.Context, id int64, text string, skills []string, experience, education []models.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resumes[id]
	if !ok {
		return models.ErrNotFound
	}
	f.updates++
	r.ParsedContent = &text
	r.Skills = skills
	r.Experience = experience
	r.Education = education
	return nil
}

func (f *fakeRepo) DeleteResume(_ context.Context, id, userID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resumes[id]
	if !ok || r.UserID != userID {
		return "", models.ErrNotFound
	}
	delete(f.resumes, id)
	for key := range f.matches {
		if key.resume == id {
			delete(f.matches, key)
		}
	}
	for _, app := range f.applications {
		if app.ResumeID != nil && *app.ResumeID == id {
			app.ResumeID = nil
		}
	}
	return r.FilePath, nil
}

func (f *fakeRepo) GetJob(_ context.Context, id int64) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, fmt.Errorf("get job %d: %w", id, models.ErrNotFound)
	}
	out := *j
	return &out, nil
}

// UpsertMatch holds the lock for the whole read-modify-write, like the unique
// constraint does for the real statement.
func (f *fakeRepo) UpsertMatch(_ context.Context, jobID, resumeID int64, score float64, details json.RawMessage) (*models.JobSkillMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := matchKey{jobID, resumeID}
	m, ok := f.matches[key]
	if !ok {
		m = &models.JobSkillMatch{ID: f.id(), JobID: jobID, ResumeID: resumeID, CreatedAt: time.Now()}
		f.matches[key] = m
	}
	m.MatchScore = score
	m.MatchDetails = details

	out := *m
	return &out, nil
}

func (f *fakeRepo) GetMatch(_ context.Context, jobID, resumeID int64) (*models.JobSkillMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[matchKey{jobID, resumeID}]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *m
	return &out, nil
}

func (f *fakeRepo) CreateApplication(_ context.Context, a *models.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.applications {
		if existing.JobID == a.JobID && existing.UserID == a.UserID {
			return fmt.Errorf("insert application: %w", models.ErrConflict)
		}
	}
	a.ID = f.id()
	a.AppliedDate = time.Now()
	a.LastUpdated = a.AppliedDate
	stored := *a
	f.applications[a.ID] = &stored
	return nil
}

func (f *fakeRepo) UpdateApplicationStatus(_ context.Context, id, userID int64, status models.ApplicationStatus) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.applications[id]
	if !ok || a.UserID != userID {
		return nil, models.ErrNotFound
	}
	a.Status = status
	out := *a
	return &out, nil
}

type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemFiles() *memFiles {
	return &memFiles{files: make(map[string][]byte)}
}

func (m *memFiles) Save(filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	name := fmt.Sprintf("%d-%s", len(m.files)+1, filename)
	m.files[name] = data
	return name, nil
}

func (m *memFiles) Open(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("open %s: file does not exist", name)
	}
	return bytes.Clone(data), nil
}

func (m *memFiles) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
	return nil
}

type stubAnalyzer struct {
	mu          sync.Mutex
	parsed      *ai.ParsedResume
	parseErr    error
	match       *ai.MatchResult
	matchErr    error
	letter      string
	letterErr   error
	parseCalls  int
	scoreCalls  int
	letterCalls int
	lastResume  ai.ResumeFields
	lastJob     ai.JobFields
}

func (s *stubAnalyzer) ParseResume(_ context.Context, _ string) (*ai.ParsedResume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parseCalls++
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	return s.parsed, nil
}

func (s *stubAnalyzer) ScoreMatch(_ context.Context, resume ai.ResumeFields, job ai.JobFields) (*ai.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scoreCalls++
	s.lastResume = resume
	s.lastJob = job
	if s.matchErr != nil {
		return nil, s.matchErr
	}
	out := *s.match
	return &out, nil
}

func (s *stubAnalyzer) GenerateCoverLetter(_ context.Context, _ ai.ResumeFields, _ ai.JobFields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.letterCalls++
	return s.letter, s.letterErr
}
