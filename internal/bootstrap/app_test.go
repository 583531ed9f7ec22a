package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docsummary-backend/internal/bootstrap"
	"docsummary-backend/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:             "dev",
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		BcryptCost:      4,
		LLM: config.LLM{
			Provider:     "local",
			Timeout:      5 * time.Second,
			MaxSentences: 3,
		},
		Ingest:    config.Ingest{Concurrency: 1, FailurePolicy: "abort"},
		Upload:    config.Upload{MaxBytes: 1 << 20, MaxFiles: 5},
		RateLimit: config.RateLimit{RPS: 1000, Burst: 1000, UploadRPS: 1000, UploadBurst: 1000},
		ObjectStore: config.ObjectStore{
			Type:     "local",
			LocalDir: t.TempDir(),
		},
	}
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app.Router
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func upload(t *testing.T, r http.Handler, field, username string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if username != "" {
		if err := writer.WriteField("username", username); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for name, content := range files {
		fw, err := writer.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

type userEnvelope struct {
	Success bool `json:"success"`
	User    struct {
		Username  string `json:"username"`
		Documents []struct {
			ID        int64   `json:"id"`
			Summary   *string `json:"summary"`
			Filename  string  `json:"filename"`
			UpdatedAt string  `json:"updated_at"`
		} `json:"documents"`
	} `json:"user"`
	Detail string `json:"detail"`
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSignupLoginScenario(t *testing.T) {
	r := newRouter(t)

	resp := postJSON(t, r, "/users/create", map[string]string{"username": "alice", "password": "pw123", "confirm_password": "pw123"})
	if resp.Code != http.StatusOK {
		t.Fatalf("create expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var created userEnvelope
	decode(t, resp, &created)
	if !created.Success || created.User.Username != "alice" {
		t.Fatalf("unexpected create body %+v", created)
	}

	if resp := postJSON(t, r, "/users/create", map[string]string{"username": "alice", "password": "x", "confirm_password": "x"}); resp.Code != http.StatusConflict {
		t.Fatalf("duplicate expected 409, got %d", resp.Code)
	}
	if resp := postJSON(t, r, "/users/create", map[string]string{"username": "carol", "password": "a", "confirm_password": "b"}); resp.Code != http.StatusBadRequest {
		t.Fatalf("mismatch expected 400, got %d", resp.Code)
	}

	if resp := postJSON(t, r, "/users/login", map[string]string{"username": "alice", "password": "pw123"}); resp.Code != http.StatusOK {
		t.Fatalf("login expected 200, got %d", resp.Code)
	}
	resp = postJSON(t, r, "/users/login", map[string]string{"username": "alice", "password": "wrong"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password expected 401, got %d", resp.Code)
	}
	var failed userEnvelope
	decode(t, resp, &failed)
	if failed.Success || failed.Detail == "" {
		t.Fatalf("expected error envelope with detail, got %+v", failed)
	}
	if resp := postJSON(t, r, "/users/login", map[string]string{"username": "bob", "password": "pw123"}); resp.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user expected 401, got %d", resp.Code)
	}
}

func TestUploadHelloScenario(t *testing.T) {
	r := newRouter(t)
	if resp := postJSON(t, r, "/users/create", map[string]string{"username": "alice", "password": "pw123", "confirm_password": "pw123"}); resp.Code != http.StatusOK {
		t.Fatalf("create expected 200, got %d", resp.Code)
	}

	// A fresh user has an empty, non-null document list.
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/users/alice", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("get expected 200, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"documents":[]`)) {
		t.Fatalf("expected empty documents array, got %s", resp.Body.String())
	}

	resp = upload(t, r, "files", "alice", map[string]string{"hello.txt": "hello world"})
	if resp.Code != http.StatusOK {
		t.Fatalf("upload expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var uploaded struct {
		Success   bool `json:"success"`
		Documents []struct {
			ID       int64   `json:"id"`
			Filename string  `json:"filename"`
			Summary  *string `json:"summary"`
		} `json:"documents"`
	}
	decode(t, resp, &uploaded)
	if !uploaded.Success || len(uploaded.Documents) != 1 {
		t.Fatalf("unexpected upload body %+v", uploaded)
	}
	if uploaded.Documents[0].Summary == nil || *uploaded.Documents[0].Summary == "" {
		t.Fatalf("expected non-empty summary")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/users/alice", nil))
	var profile userEnvelope
	decode(t, resp, &profile)
	if len(profile.User.Documents) != 1 {
		t.Fatalf("expected one document, got %d", len(profile.User.Documents))
	}
	doc := profile.User.Documents[0]
	if doc.Filename != "hello.txt" || doc.Summary == nil || *doc.Summary == "" || doc.UpdatedAt == "" {
		t.Fatalf("unexpected stored document %+v", doc)
	}
}

func TestUploadErrorStatuses(t *testing.T) {
	r := newRouter(t)
	if resp := postJSON(t, r, "/users/create", map[string]string{"username": "alice", "password": "pw", "confirm_password": "pw"}); resp.Code != http.StatusOK {
		t.Fatalf("create expected 200, got %d", resp.Code)
	}

	tests := []struct {
		name     string
		field    string
		username string
		files    map[string]string
		want     int
	}{
		{name: "unknown user", field: "files", username: "bob", files: map[string]string{"a.txt": "x"}, want: http.StatusUnauthorized},
		{name: "missing username", field: "files", files: map[string]string{"a.txt": "x"}, want: http.StatusBadRequest},
		{name: "no files", field: "files", username: "alice", want: http.StatusBadRequest},
		{name: "unsupported", field: "files[]", username: "alice", files: map[string]string{"a.png": "x"}, want: http.StatusUnsupportedMediaType},
		{name: "corrupt pdf", field: "files", username: "alice", files: map[string]string{"a.pdf": "not a pdf"}, want: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := upload(t, r, tt.field, tt.username, tt.files)
			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/users/alice", nil))
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"documents":[]`)) {
		t.Fatalf("failed uploads must not persist rows, got %s", resp.Body.String())
	}
}

func TestUploadTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	cfg.Upload.MaxBytes = 256
	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}

	resp := upload(t, app.Router, "files", "alice", map[string]string{"big.txt": string(bytes.Repeat([]byte("a"), 4096))})
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
}

func TestGetUnknownUser(t *testing.T) {
	r := newRouter(t)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/users/nobody", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestBuildSummarizerFallsBackWithoutKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "openai"
	_, provider, err := bootstrap.BuildSummarizer(cfg)
	if err != nil || provider != "local" {
		t.Fatalf("expected local fallback, got %q, %v", provider, err)
	}

	cfg.Env = "production"
	cfg.LLM.Model = "gpt-4o-mini"
	if _, _, err := bootstrap.BuildSummarizer(cfg); err == nil {
		t.Fatalf("expected error without key in production")
	}

	cfg.LLM.APIKey = "k"
	_, provider, err = bootstrap.BuildSummarizer(cfg)
	if err != nil || provider != "openai" {
		t.Fatalf("expected openai provider, got %q, %v", provider, err)
	}
}
