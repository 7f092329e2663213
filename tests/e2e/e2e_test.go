package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"formrelay/internal/database"
	"formrelay/internal/domain"
	"formrelay/internal/middleware"
	"formrelay/internal/modules/auth"
	"formrelay/internal/modules/ingest"
	"formrelay/internal/modules/keys"
	"formrelay/internal/modules/submissions"
	jwtsvc "formrelay/internal/pkg/jwt"
	"formrelay/internal/repository"
	"formrelay/internal/storage"
)

type E2ETestSuite struct {
	router   *gin.Engine
	db       *gorm.DB
	notifier *fakeNotifier
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code string `json:"code"`
}

type fakeNotifier struct {
	err       error
	delivered int
}

func (f *fakeNotifier) Deliver(ctx context.Context, key *domain.ApiKey, sub *domain.Submission) error {
	if f.err != nil {
		return f.err
	}
	f.delivered++
	return nil
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.ApiKey{},
		&domain.Submission{},
		&domain.FileUpload{},
	))

	userRepo := repository.NewUserRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	stager := storage.NewStager(t.TempDir(), storage.Policy{
		MaxFileSize:       1 << 20,
		AllowedExtensions: map[string]bool{"txt": true, "pdf": true, "png": true},
	})
	notifier := &fakeNotifier{}

	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)

	authHandler := auth.NewHandler(auth.NewService(userRepo, jwtService))
	ingestHandler := ingest.NewHandler(ingest.NewService(apiKeyRepo, submissionRepo, stager, notifier))
	keysHandler := keys.NewHandler(keys.NewService(apiKeyRepo, submissionRepo, stager))
	submissionsHandler := submissions.NewHandler(submissions.NewService(submissionRepo, apiKeyRepo, stager))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	ingestHandler.RegisterRoutes(v1)

	api := r.Group("/api")
	authHandler.RegisterPublicRoutes(api)

	protected := api.Group("/")
	protected.Use(middleware.JWTAuth(jwtService))
	{
		authHandler.RegisterProtectedRoutes(protected)
		keysHandler.RegisterRoutes(protected)
		submissionsHandler.RegisterRoutes(protected)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("AdminPass123!"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.User{
		Email:        "admin@test.com",
		PasswordHash: string(hash),
	}).Error)

	return &E2ETestSuite{router: r, db: db, notifier: notifier}
}

func (s *E2ETestSuite) makeRequest(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *E2ETestSuite) submitForm(secret string, fields map[string]string, files map[string][]byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		_ = w.WriteField(name, value)
	}
	for filename, content := range files {
		p, _ := w.CreateFormFile("attachment", filename)
		_, _ = p.Write(content)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submit/"+secret, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *TestResponse {
	t.Helper()
	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Status: %d, Body: %s", w.Code, w.Body.String())
	return &resp
}

func (s *E2ETestSuite) login(t *testing.T) string {
	t.Helper()
	w := s.makeRequest("POST", "/api/auth/login", map[string]string{
		"email":    "admin@test.com",
		"password": "AdminPass123!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	token, _ := resp.Data["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (s *E2ETestSuite) createKey(t *testing.T, token, name string) (int64, string) {
	t.Helper()
	w := s.makeRequest("POST", "/api/keys", map[string]string{
		"name":            name,
		"recipient_email": "owner@test.com",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := parseResponse(t, w)
	secret, _ := resp.Data["key"].(string)
	require.NotEmpty(t, secret)
	return int64(resp.Data["id"].(float64)), secret
}

func TestFlow1_AdminAuthentication(t *testing.T) {
	suite := setupTestSuite(t)

	t.Run("login with wrong password is rejected", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/auth/login", map[string]string{
			"email":    "admin@test.com",
			"password": "wrong",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		resp := parseResponse(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
	})

	t.Run("login succeeds and token works", func(t *testing.T) {
		token := suite.login(t)

		w := suite.makeRequest("GET", "/api/auth/me", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "admin@test.com", resp.Data["email"])
	})

	t.Run("dashboard routes reject missing token", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/keys", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestFlow2_ApiKeyLifecycle(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.login(t)

	id, secret := suite.createKey(t, token, "Contact Form")
	assert.Len(t, secret, 48)

	t.Run("list includes the new key", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/keys", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Contact Form")
	})

	t.Run("deactivate closes the endpoint", func(t *testing.T) {
		w := suite.makeRequest("PUT", fmt.Sprintf("/api/keys/%d", id), map[string]interface{}{
			"is_active": false,
		}, token)
		require.Equal(t, http.StatusOK, w.Code)

		rec := suite.submitForm(secret, map[string]string{"name": "Alice"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("reactivate reopens it", func(t *testing.T) {
		w := suite.makeRequest("PUT", fmt.Sprintf("/api/keys/%d", id), map[string]interface{}{
			"is_active": true,
		}, token)
		require.Equal(t, http.StatusOK, w.Code)

		rec := suite.submitForm(secret, map[string]string{"name": "Alice"}, nil)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("delete removes the key and its submissions", func(t *testing.T) {
		w := suite.makeRequest("DELETE", fmt.Sprintf("/api/keys/%d", id), nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		rec := suite.submitForm(secret, map[string]string{"name": "Alice"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var count int64
		suite.db.Model(&domain.Submission{}).Count(&count)
		assert.Zero(t, count)
	})
}

func TestFlow3_SubmissionLifecycle(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.login(t)
	_, secret := suite.createKey(t, token, "Feedback Form")

	var submissionID int64

	t.Run("public form post with attachment", func(t *testing.T) {
		rec := suite.submitForm(secret,
			map[string]string{"name": "Alice", "message": "Hello"},
			map[string][]byte{"notes.txt": []byte("attached notes")},
		)
		require.Equal(t, http.StatusCreated, rec.Code)

		resp := parseResponse(t, rec)
		require.True(t, resp.Success)
		submissionID = int64(resp.Data["submission_id"].(float64))
		assert.Equal(t, 1, suite.notifier.delivered)
	})

	t.Run("dashboard lists the submission", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/submissions", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Alice")
	})

	t.Run("detail carries fields and files", func(t *testing.T) {
		w := suite.makeRequest("GET", fmt.Sprintf("/api/submissions/%d", submissionID), nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"name":"message"`)
		assert.Contains(t, w.Body.String(), "notes.txt")
	})

	t.Run("file download streams the stored bytes", func(t *testing.T) {
		var file domain.FileUpload
		require.NoError(t, suite.db.First(&file).Error)

		w := suite.makeRequest("GET", fmt.Sprintf("/api/files/%d/download", file.ID), nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "attached notes", w.Body.String())
	})

	t.Run("stats reflect activity", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/stats", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		resp := parseResponse(t, w)
		assert.Equal(t, float64(1), resp.Data["total_submissions"])
		assert.Equal(t, float64(1), resp.Data["total_files"])
	})

	t.Run("delete submission", func(t *testing.T) {
		w := suite.makeRequest("DELETE", fmt.Sprintf("/api/submissions/%d", submissionID), nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		w = suite.makeRequest("GET", fmt.Sprintf("/api/submissions/%d", submissionID), nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFlow4_IngestionFailures(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.login(t)
	_, secret := suite.createKey(t, token, "Strict Form")

	t.Run("unknown key", func(t *testing.T) {
		rec := suite.submitForm("not-a-real-key", map[string]string{"name": "x"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		resp := parseResponse(t, rec)
		assert.Equal(t, "INVALID_API_KEY", resp.Error.Code)
	})

	t.Run("empty form", func(t *testing.T) {
		rec := suite.submitForm(secret, nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("disallowed file type", func(t *testing.T) {
		rec := suite.submitForm(secret, map[string]string{"name": "x"}, map[string][]byte{"run.exe": []byte("MZ")})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := parseResponse(t, rec)
		assert.Equal(t, "FILE_TYPE_NOT_ALLOWED", resp.Error.Code)
	})

	t.Run("delivery failure still accepts the submission", func(t *testing.T) {
		suite.notifier.err = fmt.Errorf("smtp down")
		defer func() { suite.notifier.err = nil }()

		rec := suite.submitForm(secret, map[string]string{"name": "x"}, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var sub domain.Submission
		require.NoError(t, suite.db.Order("id DESC").First(&sub).Error)
		assert.False(t, sub.EmailSent)
		assert.Equal(t, "smtp down", sub.EmailError)
	})
}
