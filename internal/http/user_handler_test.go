package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YuviX-514/pawAdopt/internal/domain"
	"github.com/YuviX-514/pawAdopt/internal/imagestore"
	"github.com/YuviX-514/pawAdopt/internal/oauth"
	"github.com/YuviX-514/pawAdopt/internal/repository"
	"github.com/YuviX-514/pawAdopt/internal/service"
)

// pngBytes alcanza para que el image store lo detecte como image/png.
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type testApp struct {
	router    *gin.Engine
	store     *repository.InMemoryStore
	jwt       *service.JWTService
	uploadDir string
}

type testAppOptions struct {
	limiter   service.LoginRateLimiter
	providers *oauth.Registry
	states    *oauth.StateSigner
}

func newTestApp(t *testing.T, opts testAppOptions) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store := repository.NewInMemoryStore()
	uploadDir := t.TempDir()
	images, err := imagestore.NewLocalStore(uploadDir, "", 1<<20)
	if err != nil {
		t.Fatalf("image store: %v", err)
	}
	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, time.Hour, service.NewMemoryRefreshTokenStore())
	limiter := opts.limiter
	if limiter == nil {
		limiter = service.NewLoginRateLimiter(time.Minute, 100)
	}
	states := opts.states
	if states == nil {
		states = oauth.NewStateSigner("state-secret", time.Minute)
	}

	userSvc := service.NewUserService(logger, store.Users(), limiter)
	userH := NewUserHandler(logger, userSvc, jwtSvc, images)
	oauthH := NewOAuthHandler(logger, opts.providers, states, userSvc, jwtSvc)
	petH := NewPetHandler(
		logger,
		service.NewListingService(logger, store.Pets(), store.Users()),
		service.NewAdoptionService(logger, store.Pets()),
		service.NewQueryService(store.Pets()),
		images,
	)
	router := NewRouter(logger, RouterOptions{JWT: jwtSvc, UploadDir: uploadDir, MaxUploadBytes: 1 << 20}, userH, oauthH, petH)
	return &testApp{router: router, store: store, jwt: jwtSvc, uploadDir: uploadDir}
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, env testEnvelope, out any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data %q: %v", string(env.Data), err)
	}
}

func performRequest(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		payload, _ = json.Marshal(b)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type multipartFile struct {
	field string
	name  string
	data  []byte
}

func performMultipart(r http.Handler, method, path, token string, fields map[string]string, files []multipartFile) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for _, f := range files {
		part, _ := w.CreateFormFile(f.field, f.name)
		_, _ = part.Write(f.data)
	}
	_ = w.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type loginData struct {
	User   domain.User       `json:"user"`
	Tokens service.TokenPair `json:"tokens"`
}

// signupAndLogin crea una cuenta de credenciales y devuelve sus tokens.
func signupAndLogin(t *testing.T, app *testApp, username, email string) loginData {
	t.Helper()
	rec := performRequest(app.router, http.MethodPost, "/signup", map[string]string{
		"username": username, "email": email, "password": "secret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = performRequest(app.router, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var data loginData
	decodeData(t, decodeEnvelope(t, rec), &data)
	return data
}

func TestUserHandlerSignup_Success(t *testing.T) {
	app := newTestApp(t, testAppOptions{})

	rec := performRequest(app.router, http.MethodPost, "/signup", map[string]string{
		"username": "ana", "email": "Ana@Example.com", "password": "secret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope")
	}
	if strings.Contains(rec.Body.String(), "passwordHash") || strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
	var data struct {
		User domain.User `json:"user"`
	}
	decodeData(t, env, &data)
	if data.User.Email != "ana@example.com" || data.User.Provider != domain.ProviderCredentials {
		t.Fatalf("unexpected user %+v", data.User)
	}
}

func TestUserHandlerSignup_Duplicate(t *testing.T) {
	app := newTestApp(t, testAppOptions{})
	body := map[string]string{"username": "ana", "email": "ana@example.com", "password": "secret1"}

	if rec := performRequest(app.router, http.MethodPost, "/signup", body); rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	rec := performRequest(app.router, http.MethodPost, "/signup", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Message != "User already exists!" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestUserHandlerSignup_InvalidRequest(t *testing.T) {
	app := newTestApp(t, testAppOptions{})

	if rec := performRequest(app.router, http.MethodPost, "/signup", "{not json"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	rec := performRequest(app.router, http.MethodPost, "/signup", map[string]string{
		"username": "ana", "email": "not-an-email", "password": "secret1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestUserHandlerLogin_InvalidCredentials(t *testing.T) {
	app := newTestApp(t, testAppOptions{})
	signupAndLogin(t, app, "ana", "ana@example.com")

	for _, body := range []map[string]string{
		{"email": "ana@example.com", "password": "wrong-pass"},
		{"email": "nobody@example.com", "password": "secret1"},
	} {
		rec := performRequest(app.router, http.MethodPost, "/auth/login", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rec.Code)
		}
		if env := decodeEnvelope(t, rec); env.Message != "Invalid email or password" {
			t.Fatalf("expected uniform message, got %q", env.Message)
		}
	}
}

type mockLimiter struct {
	allow bool
}

func (m *mockLimiter) Allow(_ string) bool {
	return m.allow
}

func (m *mockLimiter) Reset(string) {}

func TestUserHandlerLogin_RateLimited(t *testing.T) {
	app := newTestApp(t, testAppOptions{limiter: &mockLimiter{allow: false}})

	rec := performRequest(app.router, http.MethodPost, "/auth/login", map[string]string{
		"email": "ana@example.com", "password": "secret1",
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
}

func TestUserHandlerRefreshAndLogout(t *testing.T) {
	app := newTestApp(t, testAppOptions{})
	session := signupAndLogin(t, app, "ana", "ana@example.com")

	rec := performRequest(app.router, http.MethodPost, "/auth/refresh", map[string]string{
		"refreshToken": session.Tokens.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var refreshed struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	decodeData(t, decodeEnvelope(t, rec), &refreshed)
	if refreshed.Tokens.AccessToken == "" || refreshed.Tokens.RefreshToken == session.Tokens.RefreshToken {
		t.Fatalf("expected rotated tokens")
	}

	// Los refresh tokens son de un solo uso.
	rec = performRequest(app.router, http.MethodPost, "/auth/refresh", map[string]string{
		"refreshToken": session.Tokens.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 on reuse, got %d", rec.Code)
	}

	rec = performRequest(app.router, http.MethodPost, "/auth/logout", map[string]string{
		"refreshToken": refreshed.Tokens.RefreshToken,
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	rec = performRequest(app.router, http.MethodPost, "/auth/refresh", map[string]string{
		"refreshToken": refreshed.Tokens.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 after logout, got %d", rec.Code)
	}

	if rec := performRequest(app.router, http.MethodPost, "/auth/refresh", map[string]string{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without token, got %d", rec.Code)
	}
}

func TestUserHandlerRefresh_ConcurrentReuseHasOneWinner(t *testing.T) {
	app := newTestApp(t, testAppOptions{})
	session := signupAndLogin(t, app, "ana", "ana@example.com")

	const attempts = 8
	codes := make(chan int, attempts)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			rec := performRequest(app.router, http.MethodPost, "/auth/refresh", map[string]string{
				"refreshToken": session.Tokens.RefreshToken,
			})
			codes <- rec.Code
		}()
	}
	close(start)
	wg.Wait()
	close(codes)

	ok, unauthorized := 0, 0
	for code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusUnauthorized:
			unauthorized++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	if ok != 1 || unauthorized != attempts-1 {
		t.Fatalf("expected one rotation, got ok=%d unauthorized=%d", ok, unauthorized)
	}
}

func TestUserHandlerProfile(t *testing.T) {
	app := newTestApp(t, testAppOptions{})
	session := signupAndLogin(t, app, "ana", "ana@example.com")
	bearer := "Bearer " + session.Tokens.AccessToken

	if rec := performRequest(app.router, http.MethodGet, "/profile", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}

	rec := performRequest(app.router, http.MethodGet, "/profile", nil, "Authorization", bearer)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = performMultipart(app.router, http.MethodPost, "/profile", session.Tokens.AccessToken,
		map[string]string{"username": "ana-updated"},
		[]multipartFile{{field: "image", name: "me.png", data: pngBytes}},
	)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var data struct {
		User domain.User `json:"user"`
	}
	decodeData(t, decodeEnvelope(t, rec), &data)
	if data.User.Username != "ana-updated" || !strings.HasPrefix(data.User.Image, "/uploads/") {
		t.Fatalf("unexpected profile %+v", data.User)
	}
	if _, err := os.Stat(filepath.Join(app.uploadDir, strings.TrimPrefix(data.User.Image, "/uploads/"))); err != nil {
		t.Fatalf("expected uploaded image on disk: %v", err)
	}

	rec = performMultipart(app.router, http.MethodPost, "/profile", session.Tokens.AccessToken,
		map[string]string{"username": "ana"},
		[]multipartFile{{field: "image", name: "me.txt", data: []byte("not an image")}},
	)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for non-image upload, got %d", rec.Code)
	}
}
