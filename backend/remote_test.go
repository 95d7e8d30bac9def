package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["email"] != "ada@example.com" || body["password"] != "hunter22" {
			t.Fatalf("body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]string{
				"user_id":       "u-1",
				"name":          "Ada",
				"email":         "ada@example.com",
				"access_token":  "at-1",
				"refresh_token": "rt-1",
			},
		})
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, nil)
	session, err := r.Login(context.Background(), "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	want := Session{UserID: "u-1", Email: "ada@example.com", Name: "Ada", AccessToken: "at-1", RefreshToken: "rt-1"}
	if *session != want {
		t.Fatalf("session = %+v, want %+v", *session, want)
	}
}

func TestRemoteToleratesFieldSpellings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Camel-case id and bare "token" instead of "access_token".
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]string{
				"userId": "u-2",
				"token":  "at-2",
			},
		})
	}))
	defer srv.Close()

	session, err := NewRemote(srv.URL, nil).Login(context.Background(), "ada@example.com", "x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.UserID != "u-2" || session.AccessToken != "at-2" {
		t.Fatalf("session = %+v", session)
	}
	if session.Email != "ada@example.com" {
		t.Fatalf("email fallback not applied: %q", session.Email)
	}
}

func TestRemoteLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "bad credentials"})
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, nil).Login(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRemoteRegisterConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "status": http.StatusConflict})
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, nil).Register(context.Background(), "Ada", "ada@example.com", "hunter22")
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("err = %v, want ErrAccountExists", err)
	}
}

func TestRemoteRefreshRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false})
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, nil).Refresh(context.Background(), "stale")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRemotePing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		// Even a 500 means the service answered.
		w.WriteHeader(http.StatusInternalServerError)
	}))

	r := NewRemote(srv.URL, nil)
	if err := r.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	srv.Close()
	if err := r.Ping(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Ping after close = %v, want ErrUnavailable", err)
	}
}

func TestRemoteTransportFault(t *testing.T) {
	r := NewRemote("http://127.0.0.1:1", nil)

	_, err := r.Login(context.Background(), "ada@example.com", "hunter22")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
