package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"webformular/internal/config"
	"webformular/internal/database"
	"webformular/internal/domain/formtoken"
	"webformular/internal/domain/submission"
	"webformular/internal/mailer"
	jwtsvc "webformular/internal/pkg/jwt"
	"webformular/internal/pkg/response"
)

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtService *jwtsvc.Service
	mail       *outbox
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *response.ErrorBody    `json:"error,omitempty"`
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

const testJWTSecret = "test_secret_key_32_characters_min"

func setupTestSuite(t *testing.T) *E2ETestSuite {
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(":memory:", nil)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, database.Migrate(db, &submission.Submission{}, &formtoken.Use{}))

	cfg := &config.Config{
		AppEnv:            "test",
		JWTSecret:         testJWTSecret,
		AdminTokenTTL:     time.Hour,
		FormTokenTTL:      time.Hour,
		FormMode:          config.FormModeRedirect,
		FirstRedirectURL:  "/thanks",
		SecondRedirectURL: "/",
		RedirectDelay:     3 * time.Second,
		UploadDir:         t.TempDir(),
		UploadURLBase:     "/static/uploads",
		UploadMaxSize:     1 << 20,
		OperatorEmail:     "operator@test.com",
	}

	mail := &outbox{}
	r, err := newRouter(cfg, db, mail, zap.NewNop())
	require.NoError(t, err)

	return &E2ETestSuite{
		router:     r,
		db:         db,
		jwtService: jwtsvc.New(testJWTSecret, time.Hour),
		mail:       mail,
	}
}

func (s *E2ETestSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *E2ETestSuite) adminToken(t *testing.T, role string) string {
	token, err := s.jwtService.GenerateToken("admin-1", role)
	require.NoError(t, err)
	return token
}

func (s *E2ETestSuite) adminRequest(method, path string, form url.Values, token string) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *TestResponse {
	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return &resp
}

var formTokenRe = regexp.MustCompile(`name="form_token" value="([^"]+)"`)

// =============================================================================
// Flow 1: visitor submits the contact form
// =============================================================================

func TestFlow1_PublicSubmission(t *testing.T) {
	suite := setupTestSuite(t)

	var token string

	t.Run("GET /", func(t *testing.T) {
		w := suite.do(httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)

		m := formTokenRe.FindStringSubmatch(w.Body.String())
		require.Len(t, m, 2)
		token = m[1]
	})

	t.Run("POST /", func(t *testing.T) {
		form := url.Values{
			"form_token": {token},
			"first_name": {"Jan"},
			"last_name":  {"Novák"},
			"email":      {"jan@example.com"},
			"message":    {"Ahoj"},
		}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		w := suite.do(req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/thanks", w.Header().Get("Location"))
		assert.Equal(t, 2, suite.mail.count())

		var n int64
		require.NoError(t, suite.db.Model(&submission.Submission{}).Count(&n).Error)
		assert.Equal(t, int64(1), n)
	})

	t.Run("GET /thanks", func(t *testing.T) {
		w := suite.do(httptest.NewRequest(http.MethodGet, "/thanks", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3; url=/", w.Header().Get("Refresh"))
	})
}

// =============================================================================
// Flow 2: operator reviews, exports and deletes submissions
// =============================================================================

func TestFlow2_AdminSurface(t *testing.T) {
	suite := setupTestSuite(t)

	for i, name := range []string{"Jan", "Eva", "Petr"} {
		require.NoError(t, suite.db.Create(&submission.Submission{
			FirstName: name,
			LastName:  "Test",
			Email:     strings.ToLower(name) + "@example.com",
			Message:   "hello",
			CreatedAt: time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC),
		}).Error)
	}

	t.Run("GET /admin/submissions without token", func(t *testing.T) {
		w := suite.do(suite.adminRequest(http.MethodGet, "/admin/submissions", nil, ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "AUTH_HEADER_MISSING", parseResponse(t, w).Error.Code)
	})

	t.Run("GET /admin/submissions with non-admin role", func(t *testing.T) {
		w := suite.do(suite.adminRequest(http.MethodGet, "/admin/submissions", nil, suite.adminToken(t, "editor")))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	var csrf string

	t.Run("GET /admin/submissions", func(t *testing.T) {
		w := suite.do(suite.adminRequest(http.MethodGet, "/admin/submissions?first_name=e", nil, suite.adminToken(t, jwtsvc.RoleAdmin)))
		require.Equal(t, http.StatusOK, w.Code)

		resp := parseResponse(t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, float64(2), resp.Data["total"])
		csrf, _ = resp.Data["form_token"].(string)
		assert.NotEmpty(t, csrf)
	})

	t.Run("GET /admin/submissions?action=export", func(t *testing.T) {
		w := suite.do(suite.adminRequest(http.MethodGet, "/admin/submissions?action=export", nil, suite.adminToken(t, jwtsvc.RoleAdmin)))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "ID,First Name,Last Name,Email,Message,Attachment,Date", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "3,Petr,"))
	})

	t.Run("POST /admin/submissions delete", func(t *testing.T) {
		form := url.Values{"action": {"delete"}, "form_token": {csrf}, "ids": {"1", "2"}}
		w := suite.do(suite.adminRequest(http.MethodPost, "/admin/submissions", form, suite.adminToken(t, jwtsvc.RoleAdmin)))
		require.Equal(t, http.StatusOK, w.Code)

		var n int64
		require.NoError(t, suite.db.Model(&submission.Submission{}).Count(&n).Error)
		assert.Equal(t, int64(1), n)
	})
}

func TestFlow3_Operations(t *testing.T) {
	suite := setupTestSuite(t)

	t.Run("GET /health", func(t *testing.T) {
		w := suite.do(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("GET /metrics", func(t *testing.T) {
		w := suite.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "webformular_go_routines")
	})
}
