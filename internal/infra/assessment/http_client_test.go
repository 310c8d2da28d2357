// File: internal/infra/assessment/http_client_test.go
package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mbti-assessment-client/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewHTTPClient(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return c
}

func TestStartMapsResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/start" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["depth"] != "standard" {
			t.Errorf("depth = %v", req["depth"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id": "abc-123",
			"depth":      "standard",
			"language":   "zh-CN",
			"greeting":   "你好",
			"rate_limit": map[string]int{"sessions_used": 2, "sessions_remaining": 3},
		})
	})

	res, err := c.Start(context.Background(), "standard", "zh-CN")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.SessionID != "abc-123" || res.Greeting != "你好" {
		t.Fatalf("mapped result: %+v", res)
	}
	if res.SessionsUsed != 2 || res.SessionsRemaining != 3 {
		t.Fatalf("rate limit: %d/%d", res.SessionsUsed, res.SessionsRemaining)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		name string
		code int
		want error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"unavailable", http.StatusServiceUnavailable, domain.ErrServiceUnavailable},
		{"bad gateway", http.StatusBadGateway, domain.ErrServerFault},
		{"internal", http.StatusInternalServerError, domain.ErrServerFault},
		{"bad request", http.StatusBadRequest, domain.ErrInvalidArgument},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.code)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "nope"})
			})
			_, err := client.Message(context.Background(), "sess", "hi")
			if !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	c, err := NewHTTPClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	if _, err := c.Status(context.Background(), "sess"); !errors.Is(err, domain.ErrNetworkFailure) {
		t.Fatalf("err = %v, want ErrNetworkFailure", err)
	}
}

func TestErrorDetailSurfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "daily session limit reached"})
	})
	_, err := c.Start(context.Background(), "standard", "zh-CN")
	if err == nil || !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if got := err.Error(); !strings.Contains(got, "daily session limit reached") {
		t.Fatalf("detail missing from error: %q", got)
	}
}

func TestHistoryNormalizesRoles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/history/sess-9" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]any{
				{
					"id": 1, "role": "model", "content": "greeting",
					"ai_metadata": map[string]any{"current_prediction": "Unknown", "confidence_score": 0, "progress": 0},
					"created_at":  "2026-08-01T10:00:00Z",
				},
				{"id": 2, "role": "user", "content": "hello", "created_at": "2026-08-01T10:01:00Z"},
				{
					"id": 3, "role": "model", "content": "question",
					"ai_metadata": map[string]any{"current_prediction": "INTJ", "confidence_score": 60, "progress": 20},
				},
			},
		})
	})

	entries, err := c.History(context.Background(), "sess-9")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Role != "assistant" || entries[2].Role != "assistant" {
		t.Fatalf("provider role not normalized: %s/%s", entries[0].Role, entries[2].Role)
	}
	if entries[1].Role != "user" || entries[1].HasMeta {
		t.Fatalf("user entry mangled: %+v", entries[1])
	}
	if !entries[2].HasMeta || entries[2].Prediction != "INTJ" || entries[2].Confidence != 60 {
		t.Fatalf("metadata lost: %+v", entries[2])
	}
	if entries[0].CreatedAt.IsZero() {
		t.Fatalf("timestamp not parsed")
	}
}

func TestMessageMapsCounters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reply_text":         "next question",
			"is_finished":        false,
			"is_at_max_rounds":   true,
			"current_prediction": "ISFP",
			"confidence_score":   44,
			"current_round":      5,
			"max_rounds":         5,
		})
	})
	res, err := c.Message(context.Background(), "sess", "answer")
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if res.CurrentRound != 5 || res.MaxRounds != 5 || !res.IsAtMaxRounds {
		t.Fatalf("counters: %+v", res)
	}
	if res.CurrentPrediction != "ISFP" || res.ConfidenceScore != 44 {
		t.Fatalf("prediction: %+v", res)
	}
}

func TestNewHTTPClientRejectsEmptyURL(t *testing.T) {
	if _, err := NewHTTPClient("", time.Second); err == nil {
		t.Fatalf("empty base url accepted")
	}
}
