package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"portfolio-backend-go/internal/bootstrap"
	"portfolio-backend-go/internal/config"
	"portfolio-backend-go/internal/docstore"
	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/services"
	"portfolio-backend-go/internal/state"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct-horse"
)

type recordingAnalytics struct {
	mu     sync.Mutex
	visits []services.Visit
}

func (a *recordingAnalytics) TrackView(_ context.Context, visit services.Visit) {
	a.mu.Lock()
	a.visits = append(a.visits, visit)
	a.mu.Unlock()
}

func (a *recordingAnalytics) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.visits)
}

type testEnv struct {
	server  *Server
	handler http.Handler
	store   *state.Store
	loader  *bootstrap.Loader
}

func newTestEnv(t *testing.T, load bool) testEnv {
	t.Helper()
	ctx := context.Background()
	cfg := config.Config{
		JWTSecret:          "test-secret",
		JWTIssuer:          "portfolio",
		AccessTTLSeconds:   3600,
		LoginRatePerMinute: 2,
		Media:              config.Media{StoragePath: t.TempDir()},
	}
	portfolio := services.NewPortfolio(docstore.NewMemoryStore())
	about := services.AboutForm{Name: "Jane", ContactDetails: services.ContactDetailsForm{Email: "jane@example.com"}}
	if result := portfolio.UpdateAbout(ctx, about); !result.Success {
		t.Fatalf("UpdateAbout failed: %s", result.Message)
	}
	store, err := state.NewStore(nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	loader := &bootstrap.Loader{Source: portfolio, Store: store, TolerateEmpty: true}
	if load {
		if err := loader.Run(ctx); err != nil {
			t.Fatalf("bootstrap failed: %v", err)
		}
	}
	media := services.LocalMediaStore{BasePath: cfg.Media.StoragePath}
	server := NewServer(cfg, portfolio, store, loader, media, services.NewHub())
	if _, err := server.Accounts.Create(ctx, "Admin", adminEmail, adminPassword); err != nil {
		t.Fatalf("Create admin failed: %v", err)
	}
	return testEnv{server: server, handler: server.Router(ctx), store: store, loader: loader}
}

func (e testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e testEnv) login(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", `{"email":"`+adminEmail+`","password":"`+adminPassword+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected login 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("Expected a token")
	}
	return resp.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestShouldRedirectToSignIn(t *testing.T) {
	signedIn := state.Auth{User: &models.User{ID: "u1"}, Token: "abc"}
	cases := []struct {
		name  string
		auth  state.Auth
		token string
		want  bool
	}{
		{"signed out", state.Auth{}, "", true},
		{"signed out with token", state.Auth{}, "abc", true},
		{"signed in without token", signedIn, "", true},
		{"signed in other token", signedIn, "xyz", true},
		{"signed in matching token", signedIn, "abc", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldRedirectToSignIn(tc.auth, tc.token); got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestGateRedirectsSignedOutClients(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/admin/skills", "", map[string]string{"Accept": "text/html"})
	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/signin?next=") {
		t.Errorf("Expected sign-in redirect, got %q", loc)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/skills", "", map[string]string{"Accept": "application/json"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
	var body ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Redirect != "/signin" {
		t.Errorf("Expected redirect hint, got %#v", body)
	}
}

func TestGateIgnoresBootstrapPhase(t *testing.T) {
	env := newTestEnv(t, false)
	if !env.loader.Loading() {
		t.Fatal("Expected loader to be loading")
	}

	rec := env.do(t, http.MethodGet, "/api/admin/bootstrap", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 while loading and signed out, got %d", rec.Code)
	}

	token := env.login(t)
	rec = env.do(t, http.MethodGet, "/api/admin/bootstrap", "", bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 while loading and signed in, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/public/skills", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 while loading, got %d", rec.Code)
	}
}

func TestLoginAndLogout(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.login(t)

	if auth := env.store.State().Auth; !auth.IsAuthenticated() || auth.User.Email != adminEmail {
		t.Fatalf("Expected store to hold the session, got %#v", auth)
	}
	if rec := env.do(t, http.MethodGet, "/api/admin/skills", "", bearer(token)); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/auth/logout", "", bearer(token)); rec.Code != http.StatusOK {
		t.Fatalf("Expected logout 200, got %d", rec.Code)
	}
	if env.store.State().Auth.IsAuthenticated() {
		t.Error("Expected session cleared after logout")
	}
	if rec := env.do(t, http.MethodGet, "/api/admin/skills", "", bearer(token)); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 after logout, got %d", rec.Code)
	}
}

func TestNewLoginReplacesPreviousSession(t *testing.T) {
	env := newTestEnv(t, true)
	first := env.login(t)
	time.Sleep(1100 * time.Millisecond)
	second := env.login(t)
	if first == second {
		t.Fatal("Expected distinct tokens")
	}
	if rec := env.do(t, http.MethodGet, "/api/admin/skills", "", bearer(first)); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected old token rejected, got %d", rec.Code)
	}
}

func TestLoginFailuresAreThrottled(t *testing.T) {
	env := newTestEnv(t, true)
	body := `{"email":"` + adminEmail + `","password":"wrong-password"}`
	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/auth/login", body, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("Expected 401 on attempt %d, got %d", i+1, rec.Code)
		}
		var resp ErrorResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Message != "Invalid email or password. Please try again." {
			t.Errorf("Unexpected message %q", resp.Message)
		}
	}
	rec := env.do(t, http.MethodPost, "/api/auth/login", body, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", rec.Code)
	}
}

func TestExpiredTokenEndsSession(t *testing.T) {
	env := newTestEnv(t, true)
	user := models.User{ID: "u1", Email: adminEmail}
	expired := env.server.Tokens
	expired.AccessTTL = -time.Minute
	token, _, err := expired.CreateAccessToken(user)
	if err != nil {
		t.Fatalf("CreateAccessToken failed: %v", err)
	}
	_ = env.store.Dispatch(state.SetCredentials{User: user, Token: token})

	rec := env.do(t, http.MethodGet, "/api/admin/skills", "", bearer(token))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
	if env.store.State().Auth.IsAuthenticated() {
		t.Error("Expected expired session to be logged out")
	}
}

func TestContactFormPrependsToInbox(t *testing.T) {
	env := newTestEnv(t, true)
	for _, subject := range []string{"first", "second"} {
		body := `{"name":"Ann","email":"Ann@Example.com","subject":"` + subject + `","message":"hello"}`
		rec := env.do(t, http.MethodPost, "/api/public/messages", body, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}
	inbox := env.store.State().Inbox
	if len(inbox) != 2 || inbox[0].Subject != "second" {
		t.Fatalf("Expected newest message first, got %#v", inbox)
	}
	if inbox[0].Read || inbox[0].Email != "ann@example.com" {
		t.Errorf("Unexpected stored message %#v", inbox[0])
	}

	rec := env.do(t, http.MethodPost, "/api/public/messages", `{"name":"Ann","email":"bad","subject":"s","message":"m"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid email, got %d", rec.Code)
	}
	if len(env.store.State().Inbox) != 2 {
		t.Error("Expected failed submission to leave the inbox alone")
	}
}

func TestAdminSkillLifecycle(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/admin/skills", `{"name":"Go","category":"backend","icon":"SiGo","order":"2"}`, bearer(token))
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created WriteResponse[models.Skill]
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Item == nil || created.Item.ID == "" || created.Message != "Skill Added Successfully" {
		t.Fatalf("Unexpected create response %#v", created)
	}
	id := created.Item.ID
	skills := env.store.State().Skills
	if len(skills) != 1 || skills[0].Order == nil || *skills[0].Order != 2 {
		t.Fatalf("Expected skill in store, got %#v", skills)
	}

	rec = env.do(t, http.MethodPut, "/api/admin/skills/"+id, `{"name":"Golang","category":"backend","icon":"SiGo"}`, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := env.store.State().Skills[0].Name; got != "Golang" {
		t.Errorf("Expected updated name, got %q", got)
	}

	rec = env.do(t, http.MethodPut, "/api/admin/skills/missing", `{"name":"X","category":"backend","icon":"x"}`, bearer(token))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing id, got %d", rec.Code)
	}
	if len(env.store.State().Skills) != 1 {
		t.Error("Expected failed update to leave the store alone")
	}

	rec = env.do(t, http.MethodDelete, "/api/admin/skills/"+id, "", bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(env.store.State().Skills) != 0 {
		t.Error("Expected skill removed from store")
	}
}

func TestMarkMessageRead(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.login(t)
	env.do(t, http.MethodPost, "/api/public/messages", `{"name":"Ann","email":"ann@example.com","subject":"s","message":"m"}`, nil)
	id := env.store.State().Inbox[0].ID

	rec := env.do(t, http.MethodPatch, "/api/admin/messages/"+id+"/read", "", bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !env.store.State().Inbox[0].Read {
		t.Error("Expected message marked read")
	}
	rec = env.do(t, http.MethodGet, "/api/admin/messages", "", bearer(token))
	var inbox InboxResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &inbox)
	if inbox.Unread != 0 || len(inbox.Items) != 1 {
		t.Errorf("Unexpected inbox %#v", inbox)
	}
}

func TestMarkMessageReadBodyVariants(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.login(t)
	env.do(t, http.MethodPost, "/api/public/messages", `{"name":"Ann","email":"ann@example.com","subject":"s","message":"m"}`, nil)
	id := env.store.State().Inbox[0].ID
	path := "/api/admin/messages/" + id + "/read"

	// chunked request with no body at all
	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(""))
	req.ContentLength = -1
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for empty chunked body, got %d: %s", rec.Code, rec.Body.String())
	}
	if !env.store.State().Inbox[0].Read {
		t.Error("Expected empty body to mark the message read")
	}

	rec = env.do(t, http.MethodPatch, path, `{"read":false}`, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if env.store.State().Inbox[0].Read {
		t.Error("Expected read:false to mark the message unread")
	}

	if rec := env.do(t, http.MethodPatch, path, `{"read":`, bearer(token)); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for truncated body, got %d", rec.Code)
	}
}

func TestUpdateAboutDispatches(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.login(t)
	body := `{"name":"Jane Doe","title":["Engineer"],"description":"hi","contactDetails":{"email":"jane@example.com"}}`
	rec := env.do(t, http.MethodPut, "/api/admin/about", body, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if about := env.store.State().About; about == nil || about.Name != "Jane Doe" {
		t.Errorf("Expected about in store, got %#v", about)
	}
}

func TestTrackViewOncePerSession(t *testing.T) {
	env := newTestEnv(t, true)
	analytics := &recordingAnalytics{}
	env.server.Analytics = analytics

	req := httptest.NewRequest(http.MethodPost, "http://portfolio.example.com/api/public/views", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Name != viewCookie {
		t.Fatalf("Expected view cookie, got %#v", cookies)
	}
	if analytics.count() != 1 || analytics.visits[0].Hostname != "portfolio.example.com" || analytics.visits[0].Admin {
		t.Fatalf("Unexpected visits %#v", analytics.visits)
	}

	req = httptest.NewRequest(http.MethodPost, "http://portfolio.example.com/api/public/views", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 on repeat, got %d", rec.Code)
	}
	if analytics.count() != 1 {
		t.Errorf("Expected one tracked visit, got %d", analytics.count())
	}
}

func TestTrackViewFlagsAdmin(t *testing.T) {
	env := newTestEnv(t, true)
	analytics := &recordingAnalytics{}
	env.server.Analytics = analytics
	token := env.login(t)

	headers := bearer(token)
	headers["Origin"] = "https://portfolio.example.com"
	env.do(t, http.MethodPost, "/api/public/views", "", headers)
	if analytics.count() != 1 || !analytics.visits[0].Admin {
		t.Errorf("Expected admin visit, got %#v", analytics.visits)
	}
}

func TestPublicProjectsFilter(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.login(t)
	for _, body := range []string{
		`{"title":"Api","description":"d","date":"2024-01-01","stack":["Go","DevOps"],"url":{"code":"https://github.com/a/api"}}`,
		`{"title":"Ui","description":"d","date":"2024-02-01","stack":"React, UI/UX","url":{"code":"https://github.com/a/ui"}}`,
	} {
		if rec := env.do(t, http.MethodPost, "/api/admin/projects", body, bearer(token)); rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}
	rec := env.do(t, http.MethodGet, "/api/public/projects?stack=DevOps", "", nil)
	var resp ProjectsResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Items) != 1 || resp.Items[0].Title != "Api" {
		t.Errorf("Unexpected filtered projects %#v", resp.Items)
	}
	if len(resp.Tabs) == 0 || resp.Tabs[0] != "All" {
		t.Errorf("Unexpected tabs %#v", resp.Tabs)
	}
}
