package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/YuviX-514/pawAdopt/internal/domain"
	"github.com/YuviX-514/pawAdopt/internal/oauth"
)

type fakeProvider struct {
	name     string
	identity oauth.Identity
	err      error
	codes    []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) AuthURL(state string) string {
	return "https://provider.test/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (oauth.Identity, error) {
	f.codes = append(f.codes, code)
	return f.identity, f.err
}

func TestOAuthHandler_StartRedirectsWithSignedState(t *testing.T) {
	states := oauth.NewStateSigner("state-secret", time.Minute)
	google := &fakeProvider{name: "google"}
	app := newTestApp(t, testAppOptions{providers: oauth.NewRegistry(google), states: states})

	rec := performRequest(app.router, http.MethodGet, "/auth/oauth/google", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if loc.Host != "provider.test" || !states.VerifyState(state) {
		t.Fatalf("unexpected redirect %s", loc)
	}
	cookie := findCookie(rec, stateCookie)
	if cookie == nil || cookie.Value != state {
		t.Fatalf("expected state cookie bound to the redirect, got %+v", cookie)
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.Path != stateCookiePath || cookie.MaxAge != 60 {
		t.Fatalf("unexpected cookie attributes %+v", cookie)
	}

	if rec := performRequest(app.router, http.MethodGet, "/auth/oauth/myspace", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown provider, got %d", rec.Code)
	}
}

func TestOAuthHandler_CallbackCreatesUserAndIssuesTokens(t *testing.T) {
	states := oauth.NewStateSigner("state-secret", time.Minute)
	github := &fakeProvider{name: "github", identity: oauth.Identity{Provider: "github", Email: "octo@x.com", Name: "Octo"}}
	app := newTestApp(t, testAppOptions{providers: oauth.NewRegistry(github), states: states})

	state, err := states.MakeState()
	if err != nil {
		t.Fatalf("make state: %v", err)
	}
	rec := performRequest(app.router, http.MethodGet, "/auth/oauth/github/callback?code=abc&state="+url.QueryEscape(state), nil,
		"Cookie", stateCookie+"="+state)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cleared := findCookie(rec, stateCookie); cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("expected state cookie to be cleared, got %+v", cleared)
	}
	var data loginData
	decodeData(t, decodeEnvelope(t, rec), &data)
	if data.User.Email != "octo@x.com" || data.User.Provider != domain.ProviderGitHub || data.User.Username != "Octo" {
		t.Fatalf("unexpected user %+v", data.User)
	}
	if data.Tokens.AccessToken == "" {
		t.Fatalf("expected tokens")
	}
	if len(github.codes) != 1 || github.codes[0] != "abc" {
		t.Fatalf("expected code exchange, got %v", github.codes)
	}

	// Un alta por credenciales con el mismo email apunta al proveedor usado.
	signup := performRequest(app.router, http.MethodPost, "/signup", map[string]string{
		"username": "octo", "email": "octo@x.com", "password": "secret1",
	})
	if env := decodeEnvelope(t, signup); env.Message != "Account exists via github. Please login using github." {
		t.Fatalf("unexpected signup message %q", env.Message)
	}
}

func TestOAuthHandler_CallbackRejects(t *testing.T) {
	states := oauth.NewStateSigner("state-secret", time.Minute)
	failing := &fakeProvider{name: "google", err: oauth.ErrNoVerifiedEmail}
	app := newTestApp(t, testAppOptions{providers: oauth.NewRegistry(failing), states: states})
	state, _ := states.MakeState()
	forged := oauth.NewStateSigner("other-secret", time.Minute)
	forgedState, _ := forged.MakeState()

	other, _ := states.MakeState()

	cases := []struct {
		name   string
		query  string
		cookie string
		want   int
	}{
		{"provider error", "?error=access_denied&state=" + url.QueryEscape(state), state, http.StatusUnauthorized},
		{"forged state", "?code=abc&state=" + url.QueryEscape(forgedState), forgedState, http.StatusUnauthorized},
		{"state without cookie", "?code=abc&state=" + url.QueryEscape(state), "", http.StatusUnauthorized},
		{"state from another browser", "?code=abc&state=" + url.QueryEscape(state), other, http.StatusUnauthorized},
		{"missing code", "?state=" + url.QueryEscape(state), state, http.StatusBadRequest},
		{"unverified email", "?code=abc&state=" + url.QueryEscape(state), state, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var headers []string
			if tc.cookie != "" {
				headers = []string{"Cookie", stateCookie + "=" + tc.cookie}
			}
			rec := performRequest(app.router, http.MethodGet, "/auth/oauth/google/callback"+tc.query, nil, headers...)
			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rec.Code)
			}
		})
	}
	if len(failing.codes) != 1 {
		t.Fatalf("only the valid-state request should reach the provider, got %d", len(failing.codes))
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
