package api

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/spigell/jobpilot/internal/ingest"
	"github.com/spigell/jobpilot/internal/matching"
	"github.com/spigell/jobpilot/internal/models"
)

const maxUploadSize = 10 << 20

// Store is the read side of persistence used by the handlers.
type Store interface {
	UserLookup
	Ping(ctx context.Context) error
	ListResumes(ctx context.Context, userID int64) ([]*models.Resume, error)
	GetUserResume(ctx context.Context, id, userID int64) (*models.Resume, error)
	ListJobs(ctx context.Context, activeOnly bool) ([]*models.Job, error)
	CreateJob(ctx context.Context, j *models.Job) error
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	ListMatches(ctx context.Context, userID int64) ([]*models.JobSkillMatch, error)
	ListApplications(ctx context.Context, userID int64) ([]*models.Application, error)
	GetApplication(ctx context.Context, id, userID int64) (*models.Application, error)
}

// Pipeline is the resume and matching workflow.
type Pipeline interface {
	UploadResume(ctx context.Context, in matching.UploadInput) (*models.Resume, error)
	ReanalyzeResume(ctx context.Context, resumeID, userID int64) (*models.Resume, error)
	DeleteResume(ctx context.Context, resumeID, userID int64) error
	RequestMatch(ctx context.Context, jobID, resumeID, userID int64) (*models.JobSkillMatch, error)
	CreateApplication(ctx context.Context, in matching.ApplicationInput) (*models.Application, error)
	UpdateApplicationStatus(ctx context.Context, applicationID, userID int64, status string) (*models.Application, error)
}

// JobSyncer imports jobs from an external board.
type JobSyncer interface {
	Sync(ctx context.Context) (*ingest.Result, error)
}

// Register wires every JobPilot route. syncer may be nil when hh.ru is not configured.
func Register(s *Server, store Store, pipeline Pipeline, syncer JobSyncer) {
	s.RegisterRootRoute("/healthz", HealthHandler(s, store), http.MethodGet)

	s.UseAPI(s.AuthMiddleware(store))

	s.RegisterRoute("/resumes", UploadResumeHandler(s, pipeline), http.MethodPost)
	s.RegisterRoute("/resumes", ListResumesHandler(s, store), http.MethodGet)
	s.RegisterRoute("/resumes/{id:[0-9]+}", GetResumeHandler(s, store), http.MethodGet)
	s.RegisterRoute("/resumes/{id:[0-9]+}", DeleteResumeHandler(s, pipeline), http.MethodDelete)
	s.RegisterRoute("/resumes/{id:[0-9]+}/reanalyze", ReanalyzeResumeHandler(s, pipeline), http.MethodPost)

	s.RegisterRoute("/jobs", ListJobsHandler(s, store), http.MethodGet)
	s.RegisterRoute("/jobs", CreateJobHandler(s, store), http.MethodPost)
	s.RegisterRoute("/jobs/sync-hh", SyncJobsHandler(s, syncer), http.MethodPost)
	s.RegisterRoute("/jobs/{id:[0-9]+}", GetJobHandler(s, store), http.MethodGet)
	s.RegisterRoute("/jobs/{id:[0-9]+}/match-resume", MatchResumeHandler(s, pipeline), http.MethodPost)

	s.RegisterRoute("/matches", ListMatchesHandler(s, store), http.MethodGet)

	s.RegisterRoute("/applications", ListApplicationsHandler(s, store), http.MethodGet)
	s.RegisterRoute("/applications", CreateApplicationHandler(s, pipeline), http.MethodPost)
	s.RegisterRoute("/applications/{id:[0-9]+}", GetApplicationHandler(s, store), http.MethodGet)
	s.RegisterRoute("/applications/{id:[0-9]+}/status", UpdateApplicationStatusHandler(s, pipeline), http.MethodPost)
}

func userID(r *http.Request) int64 {
	if user, ok := CurrentUser(r.Context()); ok {
		return user.ID
	}
	return 0
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func decode(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: request is invalid: %v", matching.ErrValidation, err)
	}
	return nil
}

// contentTypeOf prefers the declared part type and falls back to the file extension.
func contentTypeOf(declared, filename string) string {
	ct := strings.TrimSpace(declared)
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
			return byExt
		}
	}
	return ct
}

func HealthHandler(svr *Server, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			svr.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func UploadResumeHandler(svr *Server, pipeline Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			svr.Error(w, r, fmt.Errorf("%w: multipart form: %v", matching.ErrValidation, err))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			svr.Error(w, r, fmt.Errorf("%w: file is required", matching.ErrValidation))
			return
		}
		defer file.Close()

		resume, err := pipeline.UploadResume(r.Context(), matching.UploadInput{
			UserID:      userID(r),
			Title:       r.FormValue("title"),
			Filename:    header.Filename,
			ContentType: contentTypeOf(header.Header.Get("Content-Type"), header.Filename),
			Content:     file,
		})
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		svr.JSON(w, http.StatusCreated, resume)
	}
}

func ListResumesHandler(svr *Server, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resumes, err := store.ListResumes(r.Context(), userID(r))
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		if resumes == nil {
			resumes = []*models.Resume{}
		}
		svr.JSON(w, http.StatusOK, resumes)
	}
}

func GetResumeHandler(svr *Server, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resume, err := store.GetUserResume(r.Context(), pathID(r), userID(r))
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		svr.JSON(w, http.StatusOK, resume)
	}
}

func DeleteResumeHandler(svr *Server, pipeline Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pipeline.DeleteResume(r.Context(), pathID(r), userID(r)); err != nil {
			svr.Error(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ReanalyzeResumeHandler(svr *Server, pipeline Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resume, err := pipeline.ReanalyzeResume(r.Context(), pathID(r), userID(r))
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		svr.JSON(w, http.StatusOK, resume)
	}
}

func ListJobsHandler(svr *Server, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := r.URL.Query().Get("all") != "true"
		jobs, err := store.ListJobs(r.Context(), activeOnly)
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		if jobs == nil {
			jobs = []*models.Job{}
		}
		svr.JSON(w, http.StatusOK, jobs)
	}
}

func CreateJobHandler(svr *Server, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &struct {
			Title          string   `json:"title"`
			Company        string   `json:"company"`
			Location       string   `json:"location"`
			Description    string   `json:"description"`
			Requirements   string   `json:"requirements"`
			SalaryRange    string   `json:"salary_range"`
			JobType        string   `json:"job_type"`
			RequiredSkills []string `json:"required_skills"`
		}{}
		if err := decode(r, req); err != nil {
			svr.Error(w, r, err)
			return
		}
		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Company) == "" {
			svr.Error(w, r, fmt.Errorf("%w: title and company are required", matching.ErrValidation))
			return
		}

		job := &models.Job{
			Title:          strings.TrimSpace(req.Title),
			Company:        strings.TrimSpace(req.Company),
			Location:       req.Location,
			Description:    req.Description,
			Requirements:   req.Requirements,
			SalaryRange:    req.SalaryRange,
			JobType:        req.JobType,
			IsActive:       true,
			Source:         models.SourceManual,
			RequiredSkills: req.RequiredSkills,
		}
		if job.RequiredSkills == nil {
			job.RequiredSkills = []string{}
		}
		if err := store.CreateJob(r.Context(), job); err != nil {
			svr.Error(w, r, err)
			return
		}
		svr.JSON(w, http.StatusCreated, job)
	}
}

func GetJobHandler(svr *Server, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := store.GetJob(r.Context(), pathID(r))
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		svr.JSON(w, http.StatusOK, job)
	}
}

func SyncJobsHandler(svr *Server, syncer JobSyncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if syncer == nil {
			svr.JSON(w, http.StatusServiceUnavailable, errorResponse{Error: "hh.ru sync is not configured"})
			return
		}
		result, err := syncer.Sync(r.Context())
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		svr.JSON(w, http.StatusOK, result)
	}
}

func MatchResumeHandler(svr *Server, pipeline Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &struct {
			ResumeID int64 `json:"resume_id"`
		}{}
		if err := decode(r, req); err != nil {
			svr.Error(w, r, err)
			return
		}
		if req.ResumeID <= 0 {
			svr.Error(w, r, fmt.Errorf("%w: resume_id is required", matching.ErrValidation))
			return
		}

		match, err := pipeline.RequestMatch(r.Context(), pathID(r), req.ResumeID, userID(r))
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		svr.JSON(w, http.StatusOK, match)
	}
}

func ListMatchesHandler(svr *Server, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := store.ListMatches(r.Context(), userID(r))
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		if matches == nil {
			matches = []*models.JobSkillMatch{}
		}
		svr.JSON(w, http.StatusOK, matches)
	}
}

func ListApplicationsHandler(svr *Server, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apps, err := store.ListApplications(r.Context(), userID(r))
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		if apps == nil {
			apps = []*models.Application{}
		}
		svr.JSON(w, http.StatusOK, apps)
	}
}

func GetApplicationHandler(svr *Server, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := store.GetApplication(r.Context(), pathID(r), userID(r))
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		svr.JSON(w, http.StatusOK, app)
	}
}

func CreateApplicationHandler(svr *Server, pipeline Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &struct {
			JobID       int64  `json:"job_id"`
			ResumeID    int64  `json:"resume_id"`
			CoverLetter string `json:"cover_letter"`
			Notes       string `json:"notes"`
		}{}
		if err := decode(r, req); err != nil {
			svr.Error(w, r, err)
			return
		}

		app, err := pipeline.CreateApplication(r.Context(), matching.ApplicationInput{
			UserID:      userID(r),
			JobID:       req.JobID,
			ResumeID:    req.ResumeID,
			CoverLetter: req.CoverLetter,
			Notes:       req.Notes,
		})
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		svr.JSON(w, http.StatusCreated, app)
	}
}

func UpdateApplicationStatusHandler(svr *Server, pipeline Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &struct {
			Status string `json:"status"`
		}{}
		if err := decode(r, req); err != nil {
			svr.Error(w, r, err)
			return
		}

		app, err := pipeline.UpdateApplicationStatus(r.Context(), pathID(r), userID(r), req.Status)
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		svr.JSON(w, http.StatusOK, app)
	}
}
