package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/docvault/internal/common"
	"github.com/avolkov/docvault/internal/logging"
	"github.com/avolkov/docvault/internal/server/models"
	"github.com/avolkov/docvault/internal/server/services"
)

const (
	userSession  = "sess-user"
	adminSession = "sess-admin"
	userToken    = "token-user"
)

type fakeAuth struct {
	registerErr error
	loginErr    error
	loginResult *services.LoginResult
	loggedOut   []string
}

func (f *fakeAuth) Register(ctx context.Context, email, password string) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: 1, Email: email}, nil
}

func (f *fakeAuth) Login(ctx context.Context, email, password, role string) (*services.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResult, nil
}

func (f *fakeAuth) Logout(ctx context.Context, sessionID string) error {
	f.loggedOut = append(f.loggedOut, sessionID)
	return nil
}

func (f *fakeAuth) ResolveSession(ctx context.Context, sessionID string) (*models.Principal, error) {
	switch sessionID {
	case userSession:
		return &models.Principal{UserID: 2, Email: "bob@example.com", Role: models.RoleUser}, nil
	case adminSession:
		return &models.Principal{UserID: 1, Email: "admin@example.com", IsAdmin: true, Role: models.RoleAdmin}, nil
	}
	return nil, common.ErrorUnauthorized
}

func (f *fakeAuth) ResolveToken(ctx context.Context, tokenString string) (*models.Principal, error) {
	if tokenString == userToken {
		return &models.Principal{UserID: 2, Email: "bob@example.com", Role: models.RoleUser}, nil
	}
	return nil, common.ErrorUnauthorized
}

type fakeDocuments struct {
	uploaded    []string
	downloadErr error
	deleteErr   error
	lastCaller  *models.Principal
}

func (f *fakeDocuments) Upload(ctx context.Context, p *models.Principal, filename string, content []byte) (*models.Document, error) {
	f.uploaded = append(f.uploaded, filename)
	f.lastCaller = p
	return &models.Document{ID: 1, Name: filename, OwnerID: p.UserID, UploadDate: time.Now()}, nil
}

func (f *fakeDocuments) List(ctx context.Context, p *models.Principal, page, limit int) ([]*models.Document, int64, error) {
	f.lastCaller = p
	return []*models.Document{
		{ID: 7, Name: "a.txt", OwnerID: p.UserID, UploadDate: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}, 1, nil
}

func (f *fakeDocuments) Download(ctx context.Context, p *models.Principal, docID int64) (string, []byte, error) {
	f.lastCaller = p
	if f.downloadErr != nil {
		return "", nil, f.downloadErr
	}
	return "a.txt", []byte("plaintext"), nil
}

func (f *fakeDocuments) Delete(ctx context.Context, p *models.Principal, docID int64) error {
	f.lastCaller = p
	return f.deleteErr
}

type fakeAdmin struct {
	statusCalls []int64
	deleteCalls []int64
	deleteErr   error
}

func (f *fakeAdmin) ListUsers(ctx context.Context, page, limit int) ([]*models.User, int64, error) {
	return []*models.User{
		{ID: 1, Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true},
		{ID: 2, Email: "bob@example.com", Role: models.RoleUser, IsActive: false},
	}, 2, nil
}

func (f *fakeAdmin) SetUserStatus(ctx context.Context, admin *models.Principal, userID int64, active bool) error {
	f.statusCalls = append(f.statusCalls, userID)
	return nil
}

func (f *fakeAdmin) DeleteUser(ctx context.Context, admin *models.Principal, userID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleteCalls = append(f.deleteCalls, userID)
	return nil
}

func (f *fakeAdmin) Dashboard(ctx context.Context) (*services.DashboardData, error) {
	return &services.DashboardData{
		TotalDocuments: 4,
		TotalUsers:     2,
		RecentActivities: []*models.ActivityLogEntry{
			{ID: 9, UserID: 1, Action: "logged in as admin", Timestamp: time.Now()},
		},
	}, nil
}

type fakeAudit struct{}

func (f *fakeAudit) Query(ctx context.Context, searchTerm string) ([]*models.ActivityLogEntry, error) {
	return []*models.ActivityLogEntry{
		{ID: 1, UserID: 2, Action: "logged in as user", Timestamp: time.Now()},
	}, nil
}

type testEnv struct {
	auth   *fakeAuth
	docs   *fakeDocuments
	admin  *fakeAdmin
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		auth:  &fakeAuth{},
		docs:  &fakeDocuments{},
		admin: &fakeAdmin{},
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := NewHandler(env.auth, env.docs, env.admin, &fakeAudit{}, 1<<20, false, logger)

	env.server = httptest.NewServer(h.Router())
	t.Cleanup(env.server.Close)
	return env
}

func (env *testEnv) do(t *testing.T, method, path, session string, body io.Reader, contentType string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, env.server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session})
	}

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.auth.loginResult = &services.LoginResult{
		SessionID: "new-session",
		Token:     "jwt-token",
		User:      &models.User{ID: 1, Email: "admin@example.com", IsAdmin: true},
	}

	resp := env.do(t, http.MethodPost, "/login", "",
		strings.NewReader(`{"email":"admin@example.com","password":"pw","role":"admin"}`), "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Login successful!", body["message"])
	assert.Equal(t, "jwt-token", body["token"])
	assert.Equal(t, true, body["is_admin"])

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the session cookie")
	assert.Equal(t, "new-session", cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginEndpoint_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"unknown user", common.ErrorNotFound, http.StatusNotFound, "User not found"},
		{"wrong password", common.ErrorInvalidCredentials, http.StatusUnauthorized, "Invalid password"},
		{"disabled account", common.ErrorAccountDisabled, http.StatusForbidden, "Account is deactivated. Please contact admin."},
		{"role mismatch", common.ErrorRoleMismatch, http.StatusUnauthorized, "You cannot log in with these credentials."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.auth.loginErr = tt.err

			resp := env.do(t, http.MethodPost, "/login", "",
				strings.NewReader(`{"email":"x@example.com","password":"pw"}`), "application/json")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMsg, decodeBody(t, resp)["message"])
		})
	}
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/register", "",
		strings.NewReader(`{"email":"a@example.com","password":"pw"}`), "application/json")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Registration successful", decodeBody(t, resp)["message"])
}

func TestRegisterEndpoint_Validation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/register", "",
		strings.NewReader(`{"email":"","password":""}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email and password are required", decodeBody(t, resp)["message"])

	env.auth.registerErr = common.ErrorEmailExists
	resp = env.do(t, http.MethodPost, "/register", "",
		strings.NewReader(`{"email":"a@example.com","password":"pw"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email already exists", decodeBody(t, resp)["message"])
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/logout", userSession, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{userSession}, env.auth.loggedOut)

	// no cookie at all is still a clean logout
	resp = env.do(t, http.MethodPost, "/logout", "", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionRequired(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/get_documents", "/get_users", "/get_dashboard_data"} {
		resp := env.do(t, http.MethodGet, path, "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp := env.do(t, http.MethodGet, "/get_documents", "bad-session", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBearerTokenFallback(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/get_documents", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+userToken)

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, env.docs.lastCaller)
	assert.Equal(t, int64(2), env.docs.lastCaller.UserID)

	req, err = http.NewRequest(http.MethodGet, env.server.URL+"/get_documents", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")

	resp, err = env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSecureCookieFlag(t *testing.T) {
	auth := &fakeAuth{loginResult: &services.LoginResult{
		SessionID: "new-session",
		Token:     "jwt-token",
		User:      &models.User{ID: 1, Email: "admin@example.com"},
	}}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := NewHandler(auth, &fakeDocuments{}, &fakeAdmin{}, &fakeAudit{}, 1<<20, true, logger)

	server := httptest.NewServer(h.Router())
	defer server.Close()

	resp, err := server.Client().Post(server.URL+"/login", "application/json",
		strings.NewReader(`{"email":"admin@example.com","password":"pw"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)
}

func TestAdminRoutesForbiddenForUsers(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/admin/document/1/download"},
		{http.MethodDelete, "/admin/document/1/delete"},
		{http.MethodPost, "/admin/users/status"},
		{http.MethodDelete, "/admin/users/delete?user_id=2"},
	}

	for _, tt := range tests {
		resp := env.do(t, tt.method, tt.path, userSession, nil, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, tt.path)
		assert.Equal(t, "Admin privileges required", decodeBody(t, resp)["message"], tt.path)
	}
}

func TestGetDocuments(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/get_documents?page=1&limit=10", userSession, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["total"])
	docs := body["documents"].([]any)
	require.Len(t, docs, 1)
	doc := docs[0].(map[string]any)
	assert.Equal(t, "a.txt", doc["name"])
	assert.Equal(t, "2026-01-02 03:04:05", doc["upload_date"])

	require.NotNil(t, env.docs.lastCaller)
	assert.Equal(t, int64(2), env.docs.lastCaller.UserID)
}

func TestUploadDocument(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp := env.do(t, http.MethodPost, "/upload_document", userSession, &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Document uploaded successfully!", decodeBody(t, resp)["message"])
	assert.Equal(t, []string{"notes.txt"}, env.docs.uploaded)
}

func TestUploadDocument_NoFilePart(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "not a file"))
	require.NoError(t, mw.Close())

	resp := env.do(t, http.MethodPost, "/upload_document", userSession, &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file part", decodeBody(t, resp)["message"])
}

func TestUploadDocument_TooLarge(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "big.bin")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("x"), 1<<20+1))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp := env.do(t, http.MethodPost, "/upload_document", userSession, &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "File too large", decodeBody(t, resp)["message"])
	assert.Empty(t, env.docs.uploaded)
}

func TestDownloadDocument(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/user/document/7/download", userSession, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="a.txt"`, resp.Header.Get("Content-Disposition"))

	content, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "plaintext", string(content))
}

func TestDownloadDocument_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.docs.downloadErr = common.ErrorNotFound

	resp := env.do(t, http.MethodGet, "/user/document/7/download", userSession, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteDocument(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodDelete, "/user/document/7/delete", userSession, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Document deleted successfully", decodeBody(t, resp)["message"])

	env.docs.deleteErr = common.ErrorNotFound
	resp = env.do(t, http.MethodDelete, "/user/document/7/delete", userSession, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminDocumentRoutes(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/admin/document/7/download", adminSession, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, env.docs.lastCaller)
	assert.True(t, env.docs.lastCaller.IsAdmin)

	resp = env.do(t, http.MethodDelete, "/admin/document/7/delete", adminSession, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetUsers(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/get_users?page=1&limit=10", userSession, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["total"])
	users := body["users"].([]any)
	require.Len(t, users, 2)
	first := users[0].(map[string]any)
	assert.Equal(t, "admin@example.com", first["email"])
	assert.Equal(t, "admin", first["role"])
	assert.Equal(t, true, first["is_active"])
}

func TestGetActivityLogs(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/get_activity_logs", userSession,
		strings.NewReader(`{"search_term":"logged"}`), "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	logs := body["logs"].([]any)
	require.Len(t, logs, 1)
	assert.Equal(t, "logged in as user", logs[0].(map[string]any)["action"])
}

func TestGetDashboardData(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/get_dashboard_data", userSession, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(4), body["total_documents"])
	assert.Equal(t, float64(2), body["total_users"])
	assert.Len(t, body["recent_activities"].([]any), 1)
}

func TestUpdateUserStatus(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/admin/users/status", adminSession,
		strings.NewReader(`{"user_id":2,"is_active":true}`), "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "User status updated to Active", decodeBody(t, resp)["message"])
	assert.Equal(t, []int64{2}, env.admin.statusCalls)
}

func TestDeleteUserEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodDelete, "/admin/users/delete?user_id=2", adminSession, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []int64{2}, env.admin.deleteCalls)

	// the admin session resolves to user id 1
	resp = env.do(t, http.MethodDelete, "/admin/users/delete?user_id=1", adminSession, nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cannot delete your own account", decodeBody(t, resp)["message"])
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/metrics", "", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	content, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(content), "docvault_http_requests_total")
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	env := newTestEnv(t)
	env.docs.downloadErr = fmt.Errorf("db error: connection refused")

	resp := env.do(t, http.MethodGet, "/user/document/7/download", userSession, nil, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotContains(t, body["message"], "connection refused")
}
