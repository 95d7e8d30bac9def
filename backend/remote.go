package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// Remote talks to the hosted identity service over HTTP/JSON.
type Remote struct {
	baseURL string
	client  *http.Client
}

// NewRemote returns a client for the service at baseURL. When httpClient is
// nil a default client with a 10s timeout is used.
func NewRemote(baseURL string, httpClient *http.Client) *Remote {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// envelope is the service's uniform response shape. The data payload is
// tolerant of both user_id and userId spellings, and of token vs
// access_token.
type envelope struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		UserIDSnake  string `json:"user_id"`
		UserIDCamel  string `json:"userId"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		AccessToken  string `json:"access_token"`
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"data"`
}

func (e *envelope) userID() string {
	if e.Data.UserIDSnake != "" {
		return e.Data.UserIDSnake
	}
	return e.Data.UserIDCamel
}

func (e *envelope) accessToken() string {
	if e.Data.AccessToken != "" {
		return e.Data.AccessToken
	}
	return e.Data.Token
}

// Ping implements [IdentityBackend]. Any HTTP response counts as reachable;
// only transport failures do not.
func (r *Remote) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp.Body.Close()
	return nil
}

// Login implements [IdentityBackend].
func (r *Remote) Login(ctx context.Context, email, password string) (*Session, error) {
	env, err := r.post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, ErrInvalidCredentials
	}
	return r.sessionFrom(env, email), nil
}

// Register implements [IdentityBackend].
func (r *Remote) Register(ctx context.Context, name, email, password string) (*Session, error) {
	env, err := r.post(ctx, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if !env.Success {
		if env.Status == http.StatusConflict {
			return nil, ErrAccountExists
		}
		return nil, ErrInvalidCredentials
	}
	sess := r.sessionFrom(env, email)
	if sess.Name == "" {
		sess.Name = name
	}
	return sess, nil
}

// Refresh implements [IdentityBackend].
func (r *Remote) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	env, err := r.post(ctx, "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, ErrInvalidToken
	}
	return r.sessionFrom(env, env.Data.Email), nil
}

// User implements [IdentityBackend].
func (r *Remote) User(ctx context.Context, id string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/user/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if !env.Success {
		return nil, ErrInvalidCredentials
	}
	return &User{
		ID:    env.userID(),
		Email: env.Data.Email,
		Name:  env.Data.Name,
	}, nil
}

func (r *Remote) post(ctx context.Context, path string, body map[string]string) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if env.Status == 0 {
		env.Status = resp.StatusCode
	}
	return &env, nil
}

func (r *Remote) sessionFrom(env *envelope, fallbackEmail string) *Session {
	email := env.Data.Email
	if email == "" {
		email = fallbackEmail
	}
	return &Session{
		UserID:       env.userID(),
		Email:        email,
		Name:         env.Data.Name,
		AccessToken:  env.accessToken(),
		RefreshToken: env.Data.RefreshToken,
	}
}
