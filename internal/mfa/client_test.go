package mfa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
)

func newTestClient(url string) Client {
	return NewClient(&config.Config{
		MFAAPIURL:    url,
		MFAAPIKey:    "test-key",
		MFAAPISecret: "test-secret",
	})
}

func grantedHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "test-key" || pass != "test-secret" {
			t.Error("basic auth credentials not forwarded")
		}

		var envelope struct {
			Model map[string]any `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			t.Errorf("request body decode failed: %v", err)
		}
		if envelope.Model == nil {
			t.Error("request body is not wrapped in model envelope")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":{"status":"Granted","id":"req-1"},"success":true}`))
	}
}

func TestCreateSecondFactorRequestGranted(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		grantedHandler(t)(w, r)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.CreateSecondFactorRequest(context.Background(), &AccessRequest{Identity: "alice"})
	if err != nil {
		t.Fatalf("CreateSecondFactorRequest failed: %v", err)
	}
	if gotPath != PathAccessRequests {
		t.Errorf("path = %q, want %q", gotPath, PathAccessRequests)
	}
	if !resp.IsGranted() {
		t.Errorf("Status = %q, want Granted", resp.Status)
	}
	if resp.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want req-1", resp.RequestID)
	}
}

func TestChallengePath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":{"status":"Granted"},"success":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.Challenge(context.Background(), &ChallengeRequest{Identity: "alice", Challenge: "123456"}); err != nil {
		t.Fatal(err)
	}
	if gotPath != PathChallenge {
		t.Errorf("path = %q, want %q", gotPath, PathChallenge)
	}
}

func TestAwaitingResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":{"status":"AwaitingAuthentication","id":"req-2","replyMessage":"Enter OTP"},"success":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.CreateSecondFactorRequest(context.Background(), &AccessRequest{Identity: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.IsAwaiting() {
		t.Errorf("Status = %q, want AwaitingAuthentication", resp.Status)
	}
	if resp.ReplyMessage != "Enter OTP" {
		t.Errorf("ReplyMessage = %q", resp.ReplyMessage)
	}
}

func TestServerErrorIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.CreateSecondFactorRequest(context.Background(), &AccessRequest{Identity: "alice"}); !errors.Is(err, ErrUnreachable) {
		t.Errorf("CreateSecondFactorRequest = %v, want ErrUnreachable", err)
	}
}

func TestConnectionRefusedIsUnreachable(t *testing.T) {
	// Listenしていないポートに向ける
	c := newTestClient("http://127.0.0.1:1")
	if _, err := c.CreateSecondFactorRequest(context.Background(), &AccessRequest{Identity: "alice"}); !errors.Is(err, ErrUnreachable) {
		t.Errorf("CreateSecondFactorRequest = %v, want ErrUnreachable", err)
	}
}

func TestClientErrorIsNotUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CreateSecondFactorRequest(context.Background(), &AccessRequest{Identity: "alice"})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	// 4xxは到達不能ではなくAPIエラーとして返る
	if errors.Is(err, ErrUnreachable) {
		t.Error("4xx classified as unreachable")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < config.CBFailureThreshold; i++ {
		if _, err := c.CreateSecondFactorRequest(context.Background(), &AccessRequest{Identity: "alice"}); !errors.Is(err, ErrUnreachable) {
			t.Fatalf("request %d: err = %v, want ErrUnreachable", i, err)
		}
	}
	sent := calls

	// CBがOpenになった後はHTTPリクエストを発行しない
	if _, err := c.CreateSecondFactorRequest(context.Background(), &AccessRequest{Identity: "alice"}); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
	if calls != sent {
		t.Errorf("request sent while circuit breaker open: calls = %d, want %d", calls, sent)
	}
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.CreateSecondFactorRequest(context.Background(), &AccessRequest{Identity: "alice"}); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("CreateSecondFactorRequest = %v, want ErrInvalidResponse", err)
	}
}

func TestMissingModelIsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"bad request"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.CreateSecondFactorRequest(context.Background(), &AccessRequest{Identity: "alice"}); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("CreateSecondFactorRequest = %v, want ErrInvalidResponse", err)
	}
}
