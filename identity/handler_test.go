package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/invoicer/auth/jwt"
	"github.com/kbukum/invoicer/authz"
	"github.com/kbukum/invoicer/errors"
	"github.com/kbukum/invoicer/server"
	"github.com/kbukum/invoicer/server/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	svc, _, _ := newTestService(t)
	codec, err := jwt.NewCodec(&jwt.Config{Secret: strings.Repeat("s", 32)})
	require.NoError(t, err)

	r := gin.New()
	r.Use(
		middleware.Authenticate(codec, svc, middleware.WithErrorHandler(server.Fail)),
		middleware.Authorize(authz.DefaultPolicy(), middleware.WithErrorHandler(server.Fail)),
	)
	NewHandler(svc, codec).RegisterRoutes(r.Group("/auth"), r.Group("/api"))
	return r
}

func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) errors.ErrorCode {
	t.Helper()
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error.Code
}

const anaSignup = `{"name":"Ana","lastName":"Lopez","username":"ana","email":"ana@x.com","password":"correct-horse"}`

func TestHandler_SignupTwice(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/auth/signup", anaSignup, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "ana@x.com", created["email"])
	assert.NotContains(t, created, "password")
	assert.NotContains(t, created, "passwordHash")
	assert.NotContains(t, w.Body.String(), "correct-horse")

	w = do(r, http.MethodPost, "/auth/signup", anaSignup, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, errors.ErrCodeDuplicateEmail, errorCode(t, w))
}

func TestHandler_LoginAndUseToken(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/auth/signup", anaSignup, "").Code)

	w := do(r, http.MethodPost, "/auth/login", `{"email":"ana@x.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, int64(3600000), login.ExpiresIn)
	require.NotEmpty(t, login.Token)

	w = do(r, http.MethodGet, "/api/me", "", login.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var me server.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "ana@x.com", me.Data.(map[string]any)["email"])

	w = do(r, http.MethodGet, "/api/me", "", login.Token[:len(login.Token)-1])
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errors.ErrCodeInvalidToken, errorCode(t, w))

	w = do(r, http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errors.ErrCodeUnauthorized, errorCode(t, w))
}

func TestHandler_LoginFailuresLookAlike(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/auth/signup", anaSignup, "").Code)

	wrong := do(r, http.MethodPost, "/auth/login", `{"email":"ana@x.com","password":"not-the-one"}`, "")
	unknown := do(r, http.MethodPost, "/auth/login", `{"email":"bob@x.com","password":"not-the-one"}`, "")

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, errors.ErrCodeAuthenticationFailed, errorCode(t, wrong))
}

func TestHandler_LoginIgnoresGarbageAuthorizationHeader(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/auth/signup", anaSignup, "").Code)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ana@x.com","password":"correct-horse"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic YW5hOnB3")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_BadBodies(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/auth/login", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrCodeInvalidInput, errorCode(t, w))

	w = do(r, http.MethodPost, "/auth/signup", `{"name":"Ana","email":"not-an-email","password":"correct-horse"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrCodeInvalidInput, errorCode(t, w))
}
