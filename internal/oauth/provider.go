package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

var (
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrNoVerifiedEmail = errors.New("provider returned no verified email")
)

// Identity es lo que el proveedor afirma sobre el usuario autenticado.
type Identity struct {
	Provider string
	Email    string
	Name     string
}

// Provider cubre el flujo authorization-code de un proveedor externo.
type Provider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

type googleProvider struct {
	cfg         *oauth2.Config
	userInfoURL string
}

func NewGoogle(clientID, clientSecret, redirectURL string) Provider {
	return &googleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
	}
}

func (g *googleProvider) Name() string { return "google" }

func (g *googleProvider) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *googleProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("google exchange: %w", err)
	}
	var info struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := getJSON(ctx, g.cfg.Client(ctx, tok), g.userInfoURL, &info); err != nil {
		return Identity{}, fmt.Errorf("google userinfo: %w", err)
	}
	if info.Email == "" || !info.EmailVerified {
		return Identity{}, ErrNoVerifiedEmail
	}
	return Identity{Provider: g.Name(), Email: info.Email, Name: info.Name}, nil
}

type githubProvider struct {
	cfg     *oauth2.Config
	apiBase string
}

func NewGitHub(clientID, clientSecret, redirectURL string) Provider {
	return &githubProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: "https://api.github.com",
	}
}

func (g *githubProvider) Name() string { return "github" }

func (g *githubProvider) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state)
}

func (g *githubProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("github exchange: %w", err)
	}
	client := g.cfg.Client(ctx, tok)

	var user struct {
		Login string `json:"login"`
		Name  string `json:"name"`
	}
	if err := getJSON(ctx, client, g.apiBase+"/user", &user); err != nil {
		return Identity{}, fmt.Errorf("github user: %w", err)
	}

	// El email público de /user puede no estar verificado; se usa el primario verificado.
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, g.apiBase+"/user/emails", &emails); err != nil {
		return Identity{}, fmt.Errorf("github emails: %w", err)
	}
	email := ""
	for _, e := range emails {
		if e.Primary && e.Verified {
			email = e.Email
			break
		}
	}
	if email == "" {
		return Identity{}, ErrNoVerifiedEmail
	}

	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = user.Login
	}
	return Identity{Provider: g.Name(), Email: email, Name: name}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Registry agrupa los proveedores configurados por nombre.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry ignora los nil, así un proveedor sin credenciales queda deshabilitado.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	if r == nil {
		return nil, ErrUnknownProvider
	}
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}
