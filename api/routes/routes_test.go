package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/hasty/api/handlers"
	"github.com/feichai0017/hasty/config"
	"github.com/feichai0017/hasty/internal/models"
	"github.com/feichai0017/hasty/internal/service/auth"
	"github.com/feichai0017/hasty/internal/service/report"
	"github.com/feichai0017/hasty/pkg/converters"
	"github.com/feichai0017/hasty/pkg/logger"
	"github.com/feichai0017/hasty/pkg/queue"
)

type stubReports struct {
	processErr error
	statusErr  error
	resultErr  error
	cancelErr  error
	cancelled  string
}

func (s *stubReports) ProcessFile(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*models.ProcessingTask, error) {
	if s.processErr != nil {
		return nil, s.processErr
	}
	return &models.ProcessingTask{
		ID:        "t1",
		Status:    models.StatusPending,
		Metadata:  map[string]string{"filename": header.Filename, "size": fmt.Sprint(header.Size), "commodities": "2"},
		CreatedAt: time.Now(),
	}, nil
}

func (s *stubReports) ProcessBatch(ctx context.Context, files []*multipart.FileHeader) ([]*models.ProcessingTask, error) {
	tasks := make([]*models.ProcessingTask, 0, len(files))
	for i, f := range files {
		tasks = append(tasks, &models.ProcessingTask{
			ID:       fmt.Sprintf("t%d", i),
			Status:   models.StatusPending,
			Metadata: map[string]string{"filename": f.Filename},
		})
	}
	return tasks, nil
}

func (s *stubReports) GetProcessingStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return &models.ProcessingTask{ID: taskID, Status: models.StatusRunning, Progress: 0.5}, nil
}

func (s *stubReports) HandleReport(ctx context.Context, task *queue.Task) error { return nil }

func (s *stubReports) GetReport(ctx context.Context, taskID string) (*converters.ProcessedReport, error) {
	if s.resultErr != nil {
		return nil, s.resultErr
	}
	return &converters.ProcessedReport{TaskID: taskID, Status: "completed"}, nil
}

func (s *stubReports) Download(ctx context.Context, taskID string) (io.ReadCloser, error) {
	if s.resultErr != nil {
		return nil, s.resultErr
	}
	return io.NopCloser(strings.NewReader("PK-workbook")), nil
}

func (s *stubReports) Preview(ctx context.Context, taskID string) (*models.WorkbookPreview, error) {
	return &models.WorkbookPreview{Commodities: []string{"Maize"}}, nil
}

func (s *stubReports) CancelTask(ctx context.Context, taskID string) error {
	s.cancelled = taskID
	return s.cancelErr
}

func (s *stubReports) CleanupTasks(ctx context.Context) error { return nil }

var _ report.ReportProcessor = (*stubReports)(nil)

func newRouter(t *testing.T, reports *stubReports, password string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewTestLogger()
	authService := auth.NewService(config.AuthConfig{
		Username: "admin",
		Password: password,
		Secret:   "test-secret",
		TokenTTL: time.Hour,
	}, log)

	r := gin.New()
	SetupRoutes(r, handlers.NewHandlers(reports, authService, log), Options{
		Authorizer: authService,
		Logger:     log,
	})
	return r
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"admin","password":"1234"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	var token auth.Token
	if err := json.Unmarshal(w.Body.Bytes(), &token); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	return token.AccessToken
}

func do(r *gin.Engine, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	r.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, field string, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write([]byte("data"))
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	w := do(newRouter(t, &stubReports{}, "1234"), http.MethodGet, "/api/v1/health", "", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		password string
		body     string
		want     int
	}{
		{"wrong password", "1234", `{"username":"admin","password":"nope"}`, http.StatusUnauthorized},
		{"missing fields", "1234", `{"username":"admin"}`, http.StatusBadRequest},
		{"login disabled", "", `{"username":"admin","password":"x"}`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(t, &stubReports{}, tt.password)
			w := do(r, http.MethodPost, "/api/v1/auth/login", "", strings.NewReader(tt.body), "application/json")
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestReportsRequireAuth(t *testing.T) {
	r := newRouter(t, &stubReports{}, "1234")

	if w := do(r, http.MethodGet, "/api/v1/reports/status/t1", "", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/reports/status/t1", "bogus", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", w.Code)
	}

	open := newRouter(t, &stubReports{}, "")
	if w := do(open, http.MethodGet, "/api/v1/reports/status/t1", "", nil, ""); w.Code != http.StatusOK {
		t.Errorf("expected 200 with the gate disabled, got %d", w.Code)
	}
}

func TestProcessAndStatus(t *testing.T) {
	r := newRouter(t, &stubReports{}, "1234")
	token := login(t, r)

	body, ct := multipartBody(t, "file", "survey.xlsx")
	w := do(r, http.MethodPost, "/api/v1/reports/process", token, body, ct)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp handlers.ProcessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.TaskID != "t1" || resp.Filename != "survey.xlsx" || resp.FileSize != 4 || resp.Commodities != "2" {
		t.Errorf("unexpected response %+v", resp)
	}

	w = do(r, http.MethodGet, "/api/v1/reports/status/t1", token, nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"progress":0.5`) {
		t.Errorf("unexpected status response %d %s", w.Code, w.Body.String())
	}

	body, ct = multipartBody(t, "files", "a.xlsx", "b.xlsx")
	w = do(r, http.MethodPost, "/api/v1/reports/batch", token, body, ct)
	if w.Code != http.StatusAccepted || !strings.Contains(w.Body.String(), "Processing 2 workbooks") {
		t.Errorf("unexpected batch response %d %s", w.Code, w.Body.String())
	}
}

func TestDownload(t *testing.T) {
	r := newRouter(t, &stubReports{}, "1234")
	token := login(t, r)

	w := do(r, http.MethodGet, "/api/v1/reports/download/t1", token, nil, "")
	if w.Code != http.StatusOK || w.Body.String() != "PK-workbook" {
		t.Fatalf("unexpected download %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != converters.XLSXContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, converters.ReportFileName) {
		t.Errorf("unexpected disposition %q", cd)
	}

	w = do(r, http.MethodGet, "/api/v1/reports/download/t1?format=json", token, nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"taskId":"t1"`) {
		t.Errorf("unexpected json download %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/v1/reports/preview/t1", token, nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Maize") {
		t.Errorf("unexpected preview %d %s", w.Code, w.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		reports *stubReports
		method  string
		path    string
		upload  bool
		want    int
		code    string
	}{
		{
			name:    "task not found",
			reports: &stubReports{statusErr: fmt.Errorf("get: %w", queue.ErrTaskNotFound)},
			method:  http.MethodGet, path: "/api/v1/reports/status/x",
			want: http.StatusNotFound, code: "task_not_found",
		},
		{
			name:    "not finished",
			reports: &stubReports{resultErr: fmt.Errorf("%w: t1 is running", report.ErrTaskNotFinished)},
			method:  http.MethodGet, path: "/api/v1/reports/download/t1",
			want: http.StatusConflict, code: "task_not_finished",
		},
		{
			name:    "missing sheet",
			reports: &stubReports{processErr: fmt.Errorf("read: %w", &converters.SheetError{Sheet: "technology"})},
			method:  http.MethodPost, path: "/api/v1/reports/process", upload: true,
			want: http.StatusUnprocessableEntity, code: "invalid_workbook",
		},
		{
			name:    "invalid upload",
			reports: &stubReports{processErr: fmt.Errorf("%w: survey.csv", report.ErrInvalidUpload)},
			method:  http.MethodPost, path: "/api/v1/reports/process", upload: true,
			want: http.StatusBadRequest, code: "invalid_upload",
		},
		{
			name:    "already finished",
			reports: &stubReports{cancelErr: report.ErrTaskFinished},
			method:  http.MethodDelete, path: "/api/v1/reports/task/t1",
			want: http.StatusConflict, code: "task_finished",
		},
		{
			name:    "internal",
			reports: &stubReports{statusErr: fmt.Errorf("redis down")},
			method:  http.MethodGet, path: "/api/v1/reports/status/t1",
			want: http.StatusInternalServerError, code: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(t, tt.reports, "1234")
			token := login(t, r)

			var body io.Reader
			var ct string
			if tt.upload {
				body, ct = multipartBody(t, "file", "survey.xlsx")
			}
			w := do(r, tt.method, tt.path, token, body, ct)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			var resp handlers.ErrorResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, resp.Code)
			}
		})
	}
}

func TestCancel(t *testing.T) {
	reports := &stubReports{}
	r := newRouter(t, reports, "1234")
	w := do(r, http.MethodDelete, "/api/v1/reports/task/t9", login(t, r), nil, "")
	if w.Code != http.StatusOK || reports.cancelled != "t9" {
		t.Errorf("unexpected cancel %d %q", w.Code, reports.cancelled)
	}
}
