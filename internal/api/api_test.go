package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/extract"
	"github.com/spigell/jobpilot/internal/ingest"
	"github.com/spigell/jobpilot/internal/matching"
	"github.com/spigell/jobpilot/internal/models"
)

type fakeStore struct {
	pingErr error
	users   map[int64]*models.User
	resumes []*models.Resume
	jobs    []*models.Job
	created *models.Job
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) ListResumes(_ context.Context, userID int64) ([]*models.Resume, error) {
	var out []*models.Resume
	for _, r := range f.resumes {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetUserResume(_ context.Context, id, userID int64) (*models.Resume, error) {
	for _, r := range f.resumes {
		if r.ID == id && r.UserID == userID {
			return r, nil
		}
	}
	return nil, fmt.Errorf("get resume %d: %w", id, models.ErrNotFound)
}

func (f *fakeStore) ListJobs(context.Context, bool) ([]*models.Job, error) { return f.jobs, nil }

func (f *fakeStore) CreateJob(_ context.Context, j *models.Job) error {
	j.ID = 99
	f.created = j
	return nil
}

func (f *fakeStore) GetJob(_ context.Context, id int64) (*models.Job, error) {
	for _, j := range f.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) ListMatches(context.Context, int64) ([]*models.JobSkillMatch, error) {
	return nil, nil
}

func (f *fakeStore) ListApplications(context.Context, int64) ([]*models.Application, error) {
	return nil, errors.New("connection reset")
}

func (f *fakeStore) GetApplication(context.Context, int64, int64) (*models.Application, error) {
	return nil, models.ErrNotFound
}

type fakePipeline struct {
	upload    matching.UploadInput
	uploaded  string
	uploadErr error
	matchArgs [3]int64
	matchErr  error
	appErr    error
	statusErr error
}

func (f *fakePipeline) UploadResume(_ context.Context, in matching.UploadInput) (*models.Resume, error) {
	f.upload = in
	data, _ := io.ReadAll(in.Content)
	f.uploaded = string(data)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &models.Resume{ID: 1, UserID: in.UserID, Title: in.Title, FileContentType: in.ContentType}, nil
}

func (f *fakePipeline) ReanalyzeResume(_ context.Context, resumeID, userID int64) (*models.Resume, error) {
	return &models.Resume{ID: resumeID, UserID: userID}, nil
}

func (f *fakePipeline) DeleteResume(context.Context, int64, int64) error { return models.ErrNotFound }

func (f *fakePipeline) RequestMatch(_ context.Context, jobID, resumeID, userID int64) (*models.JobSkillMatch, error) {
	f.matchArgs = [3]int64{jobID, resumeID, userID}
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	return &models.JobSkillMatch{ID: 5, JobID: jobID, ResumeID: resumeID, MatchScore: 82, MatchDetails: json.RawMessage(`{"summary":"ok"}`)}, nil
}

func (f *fakePipeline) CreateApplication(context.Context, matching.ApplicationInput) (*models.Application, error) {
	return nil, f.appErr
}

func (f *fakePipeline) UpdateApplicationStatus(_ context.Context, id, userID int64, status string) (*models.Application, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &models.Application{ID: id, UserID: userID, Status: models.ApplicationStatus(status)}, nil
}

type fakeSyncer struct{}

func (fakeSyncer) Sync(context.Context) (*ingest.Result, error) {
	return &ingest.Result{Found: 3, Created: 2}, nil
}

func newTestServer(store *fakeStore, pipeline *fakePipeline, syncer JobSyncer) http.Handler {
	s := NewServer(zap.NewNop())
	Register(s, store, pipeline, syncer)
	return s.Handler()
}

func defaultStore() *fakeStore {
	return &fakeStore{
		users: map[int64]*models.User{7: {ID: 7, Username: "jane"}},
		resumes: []*models.Resume{
			{ID: 1, UserID: 7, Title: "mine"},
			{ID: 2, UserID: 8, Title: "theirs"},
		},
		jobs: []*models.Job{{ID: 3, Title: "Go Developer", IsActive: true}},
	}
}

func do(t *testing.T, h http.Handler, method, path string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get(UserHeader) == "" && header == nil {
		req.Header.Set(UserHeader, "7")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	h := newTestServer(defaultStore(), &fakePipeline{}, nil)

	tests := []struct {
		name   string
		header http.Header
		want   int
	}{
		{name: "missing header", header: http.Header{}, want: http.StatusUnauthorized},
		{name: "not a number", header: http.Header{UserHeader: {"jane"}}, want: http.StatusUnauthorized},
		{name: "unknown user", header: http.Header{UserHeader: {"100"}}, want: http.StatusUnauthorized},
		{name: "known user", header: http.Header{UserHeader: {"7"}}, want: http.StatusOK},
		{name: "header key in lower case", header: http.Header{"x-user-id": {"7"}}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/resumes", nil, tt.header)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHealthz(t *testing.T) {
	store := defaultStore()
	h := newTestServer(store, &fakePipeline{}, nil)

	rec := do(t, h, http.MethodGet, "/healthz", nil, http.Header{})
	assert.Equal(t, http.StatusOK, rec.Code)

	store.pingErr = errors.New("down")
	rec = do(t, h, http.MethodGet, "/healthz", nil, http.Header{})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(defaultStore(), &fakePipeline{}, nil)
	do(t, h, http.MethodGet, "/api/jobs", nil, nil)

	rec := do(t, h, http.MethodGet, "/metrics", nil, http.Header{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jobpilot_http_requests_total")
}

func TestResumesAreScopedToUser(t *testing.T) {
	h := newTestServer(defaultStore(), &fakePipeline{}, nil)

	rec := do(t, h, http.MethodGet, "/api/resumes", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resumes []models.Resume
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resumes))
	require.Len(t, resumes, 1)
	assert.Equal(t, "mine", resumes[0].Title)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/resumes/1", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/resumes/2", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/resumes/2", nil, nil).Code)
}

func multipartBody(t *testing.T, title, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	require.NoError(t, w.WriteField("title", title))

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &b, w.FormDataContentType()
}

func TestUploadResume(t *testing.T) {
	pipeline := &fakePipeline{}
	h := newTestServer(defaultStore(), pipeline, nil)

	body, ct := multipartBody(t, "Backend", "cv.txt", "application/octet-stream", "Jane Doe")
	rec := do(t, h, http.MethodPost, "/api/resumes", body, http.Header{"Content-Type": {ct}, UserHeader: {"7"}})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int64(7), pipeline.upload.UserID)
	assert.Equal(t, "Backend", pipeline.upload.Title)
	assert.Equal(t, "cv.txt", pipeline.upload.Filename)
	assert.True(t, strings.HasPrefix(pipeline.upload.ContentType, "text/plain"))
	assert.Equal(t, "Jane Doe", pipeline.uploaded)
}

func TestUploadResumeUnsupported(t *testing.T) {
	pipeline := &fakePipeline{uploadErr: fmt.Errorf("%w: %q", extract.ErrUnsupportedFormat, "application/json")}
	h := newTestServer(defaultStore(), pipeline, nil)

	body, ct := multipartBody(t, "json", "cv.json", "application/json", "{}")
	rec := do(t, h, http.MethodPost, "/api/resumes", body, http.Header{"Content-Type": {ct}, UserHeader: {"7"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported")
}

func TestUploadResumeWithoutFile(t *testing.T) {
	h := newTestServer(defaultStore(), &fakePipeline{}, nil)

	rec := do(t, h, http.MethodPost, "/api/resumes", strings.NewReader("title=x"),
		http.Header{"Content-Type": {"application/x-www-form-urlencoded"}, UserHeader: {"7"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatchResume(t *testing.T) {
	pipeline := &fakePipeline{}
	h := newTestServer(defaultStore(), pipeline, nil)

	rec := do(t, h, http.MethodPost, "/api/jobs/3/match-resume", strings.NewReader(`{"resume_id": 1}`), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [3]int64{3, 1, 7}, pipeline.matchArgs)
	assert.JSONEq(t, `{"summary":"ok"}`, gjson(t, rec.Body.Bytes(), "match_details"))

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/jobs/3/match-resume", strings.NewReader(`{}`), nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/jobs/3/match-resume", strings.NewReader(`not json`), nil).Code)

	pipeline.matchErr = fmt.Errorf("get resume 2: %w", models.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/jobs/3/match-resume", strings.NewReader(`{"resume_id": 2}`), nil).Code)
}

func gjson(t *testing.T, body []byte, key string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	return string(m[key])
}

func TestCreateJob(t *testing.T) {
	store := defaultStore()
	h := newTestServer(store, &fakePipeline{}, nil)

	rec := do(t, h, http.MethodPost, "/api/jobs", strings.NewReader(`{"title":"SRE","company":"Acme","required_skills":["Go"]}`), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, store.created)
	assert.Equal(t, models.SourceManual, store.created.Source)
	assert.True(t, store.created.IsActive)
	assert.Equal(t, []string{"Go"}, store.created.RequiredSkills)

	rec = do(t, h, http.MethodPost, "/api/jobs", strings.NewReader(`{"title":"SRE"}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/jobs/3", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/jobs/4", nil, nil).Code)
}

func TestApplicationsErrorMapping(t *testing.T) {
	pipeline := &fakePipeline{}
	h := newTestServer(defaultStore(), pipeline, nil)

	pipeline.appErr = fmt.Errorf("insert application: %w", models.ErrConflict)
	rec := do(t, h, http.MethodPost, "/api/applications", strings.NewReader(`{"job_id":3,"resume_id":1}`), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	pipeline.appErr = fmt.Errorf("%w: job 4 does not exist", matching.ErrValidation)
	rec = do(t, h, http.MethodPost, "/api/applications", strings.NewReader(`{"job_id":4,"resume_id":1}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/applications", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset", "internal errors are not exposed")

	rec = do(t, h, http.MethodPost, "/api/applications/5/status", strings.NewReader(`{"status":"offered"}`), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"offered"`, gjson(t, rec.Body.Bytes(), "status"))

	pipeline.statusErr = fmt.Errorf("%w: invalid status", matching.ErrValidation)
	rec = do(t, h, http.MethodPost, "/api/applications/5/status", strings.NewReader(`{"status":"hired"}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncJobs(t *testing.T) {
	rec := do(t, newTestServer(defaultStore(), &fakePipeline{}, nil), http.MethodPost, "/api/jobs/sync-hh", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, newTestServer(defaultStore(), &fakePipeline{}, fakeSyncer{}), http.MethodPost, "/api/jobs/sync-hh", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", gjson(t, rec.Body.Bytes(), "created"))
}

func TestContentTypeOf(t *testing.T) {
	assert.Equal(t, "application/pdf", contentTypeOf("application/pdf", "cv.txt"))
	assert.Equal(t, "application/pdf", contentTypeOf("", "CV.PDF"))
	assert.Equal(t, "application/octet-stream", contentTypeOf("application/octet-stream", "cv"))
}
