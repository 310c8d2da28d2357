// File: internal/infra/assessment/http_client.go
package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mbti-assessment-client/internal/domain"
	"mbti-assessment-client/internal/domain/ports/adapter"
	"mbti-assessment-client/internal/infra/metrics"
)

var _ adapter.AssessmentService = (*HTTPClient)(nil)

// HTTPClient implements adapter.AssessmentService against the remote
// assessment REST API. All transport failures and non-2xx statuses are
// converted into the domain error taxonomy here; use cases never see raw
// HTTP errors.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, errors.New("assessment: empty base url")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("assessment: invalid base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (h *HTTPClient) endpoint(path string) string {
	return h.baseURL + "/api/chat" + path
}

// classifyStatus maps a transport status onto the domain taxonomy.
func classifyStatus(code int) error {
	switch {
	case code == http.StatusNotFound:
		return domain.ErrNotFound
	case code == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case code == http.StatusServiceUnavailable:
		return domain.ErrServiceUnavailable
	case code >= 500:
		return domain.ErrServerFault
	case code == http.StatusBadRequest:
		return domain.ErrInvalidArgument
	default:
		return domain.ErrServerFault
	}
}

func errClass(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNetworkFailure):
		return "network_failure"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "server_fault"
	}
}

// do executes one JSON round trip. A nil out skips body decoding.
func (h *HTTPClient) do(ctx context.Context, op, method, rawURL string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("assessment %s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("assessment %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := h.client.Do(req)
	latency := int(time.Since(start).Milliseconds())
	if err != nil {
		metrics.ObserveRemoteLatency(op, latency, false)
		metrics.IncRemoteError("network_failure")
		return fmt.Errorf("assessment %s: %w: %v", op, domain.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		cerr := classifyStatus(resp.StatusCode)
		metrics.ObserveRemoteLatency(op, latency, false)
		metrics.IncRemoteError(errClass(cerr))
		var detail struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&detail)
		if detail.Detail != "" {
			return fmt.Errorf("assessment %s: %w: %s", op, cerr, detail.Detail)
		}
		return fmt.Errorf("assessment %s: %w (http %d)", op, cerr, resp.StatusCode)
	}

	metrics.ObserveRemoteLatency(op, latency, true)
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("assessment %s: decode: %w: %v", op, domain.ErrServerFault, err)
	}
	return nil
}

func (h *HTTPClient) Start(ctx context.Context, depth, language string) (*adapter.StartResult, error) {
	payload := map[string]any{"depth": depth, "language": language}
	var out struct {
		SessionID string `json:"session_id"`
		Depth     string `json:"depth"`
		Language  string `json:"language"`
		Greeting  string `json:"greeting"`
		RateLimit struct {
			SessionsUsed      int `json:"sessions_used"`
			SessionsRemaining int `json:"sessions_remaining"`
		} `json:"rate_limit"`
	}
	if err := h.do(ctx, "start", http.MethodPost, h.endpoint("/start"), payload, &out); err != nil {
		return nil, err
	}
	return &adapter.StartResult{
		SessionID:         out.SessionID,
		Depth:             out.Depth,
		Language:          out.Language,
		Greeting:          out.Greeting,
		SessionsUsed:      out.RateLimit.SessionsUsed,
		SessionsRemaining: out.RateLimit.SessionsRemaining,
	}, nil
}

func (h *HTTPClient) Message(ctx context.Context, sessionID, content string) (*adapter.MessageResult, error) {
	payload := map[string]any{"session_id": sessionID, "content": content}
	var out struct {
		ReplyText         string   `json:"reply_text"`
		IsFinished        bool     `json:"is_finished"`
		IsAtMaxRounds     bool     `json:"is_at_max_rounds"`
		CurrentPrediction string   `json:"current_prediction"`
		ConfidenceScore   int      `json:"confidence_score"`
		CurrentRound      int      `json:"current_round"`
		MaxRounds         int      `json:"max_rounds"`
		CognitiveStack    []string `json:"cognitive_stack"`
		DevelopmentLevel  string   `json:"development_level"`
	}
	if err := h.do(ctx, "message", http.MethodPost, h.endpoint("/message"), payload, &out); err != nil {
		return nil, err
	}
	return &adapter.MessageResult{
		ReplyText:         out.ReplyText,
		IsFinished:        out.IsFinished,
		IsAtMaxRounds:     out.IsAtMaxRounds,
		CurrentPrediction: out.CurrentPrediction,
		ConfidenceScore:   out.ConfidenceScore,
		CurrentRound:      out.CurrentRound,
		MaxRounds:         out.MaxRounds,
		CognitiveStack:    out.CognitiveStack,
		DevelopmentLevel:  out.DevelopmentLevel,
	}, nil
}

func (h *HTTPClient) Finish(ctx context.Context, sessionID string) (*adapter.FinishResult, error) {
	payload := map[string]any{"session_id": sessionID}
	var out struct {
		MBTIType         string   `json:"mbti_type"`
		TypeName         string   `json:"type_name"`
		Group            string   `json:"group"`
		ConfidenceScore  int      `json:"confidence_score"`
		AnalysisReport   string   `json:"analysis_report"`
		TotalRounds      int      `json:"total_rounds"`
		CognitiveStack   []string `json:"cognitive_stack"`
		DevelopmentLevel string   `json:"development_level"`
	}
	if err := h.do(ctx, "finish", http.MethodPost, h.endpoint("/finish"), payload, &out); err != nil {
		return nil, err
	}
	return &adapter.FinishResult{
		MBTIType:         out.MBTIType,
		TypeName:         out.TypeName,
		Group:            out.Group,
		ConfidenceScore:  out.ConfidenceScore,
		AnalysisReport:   out.AnalysisReport,
		TotalRounds:      out.TotalRounds,
		CognitiveStack:   out.CognitiveStack,
		DevelopmentLevel: out.DevelopmentLevel,
	}, nil
}

func (h *HTTPClient) Upgrade(ctx context.Context, sessionID string) (*adapter.UpgradeResult, error) {
	payload := map[string]any{"session_id": sessionID}
	var out struct {
		NewDepth        string `json:"new_depth"`
		RemainingRounds int    `json:"remaining_rounds"`
		Message         string `json:"message"`
		AIQuestion      string `json:"ai_question"`
	}
	if err := h.do(ctx, "upgrade", http.MethodPost, h.endpoint("/upgrade"), payload, &out); err != nil {
		return nil, err
	}
	return &adapter.UpgradeResult{
		NewDepth:        out.NewDepth,
		RemainingRounds: out.RemainingRounds,
		Message:         out.Message,
		AIQuestion:      out.AIQuestion,
	}, nil
}

func (h *HTTPClient) Status(ctx context.Context, sessionID string) (*adapter.StatusResult, error) {
	var out struct {
		Depth             string   `json:"depth"`
		Language          string   `json:"language"`
		IsActive          bool     `json:"is_active"`
		IsComplete        bool     `json:"is_complete"`
		CurrentRound      int      `json:"current_round"`
		CurrentPrediction string   `json:"current_prediction"`
		ConfidenceScore   int      `json:"confidence_score"`
		CognitiveStack    []string `json:"cognitive_stack"`
		DevelopmentLevel  string   `json:"development_level"`
	}
	if err := h.do(ctx, "status", http.MethodGet, h.endpoint("/status/"+url.PathEscape(sessionID)), nil, &out); err != nil {
		return nil, err
	}
	return &adapter.StatusResult{
		Depth:             out.Depth,
		Language:          out.Language,
		IsActive:          out.IsActive,
		IsComplete:        out.IsComplete,
		CurrentRound:      out.CurrentRound,
		CurrentPrediction: out.CurrentPrediction,
		ConfidenceScore:   out.ConfidenceScore,
		CognitiveStack:    out.CognitiveStack,
		DevelopmentLevel:  out.DevelopmentLevel,
	}, nil
}

func (h *HTTPClient) History(ctx context.Context, sessionID string) ([]adapter.HistoryEntry, error) {
	var out struct {
		Messages []struct {
			ID         json.Number `json:"id"`
			Role       string      `json:"role"`
			Content    string      `json:"content"`
			AIMetadata *struct {
				CurrentPrediction string `json:"current_prediction"`
				ConfidenceScore   int    `json:"confidence_score"`
				Progress          int    `json:"progress"`
			} `json:"ai_metadata"`
			CreatedAt string `json:"created_at"`
		} `json:"messages"`
	}
	if err := h.do(ctx, "history", http.MethodGet, h.endpoint("/history/"+url.PathEscape(sessionID)), nil, &out); err != nil {
		return nil, err
	}
	entries := make([]adapter.HistoryEntry, 0, len(out.Messages))
	for _, m := range out.Messages {
		role := m.Role
		// The service stores assistant turns under the provider role name.
		if role == "model" {
			role = "assistant"
		}
		e := adapter.HistoryEntry{
			ID:      m.ID.String(),
			Role:    role,
			Content: m.Content,
		}
		if m.AIMetadata != nil {
			e.HasMeta = true
			e.Prediction = m.AIMetadata.CurrentPrediction
			e.Confidence = m.AIMetadata.ConfidenceScore
			e.Progress = m.AIMetadata.Progress
		}
		if t, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (h *HTTPClient) Ask(ctx context.Context, sessionID, question string, history []adapter.QATurn) (*adapter.QAResult, error) {
	payload := map[string]any{"session_id": sessionID, "question": question}
	if len(history) > 0 {
		turns := make([]map[string]string, 0, len(history))
		for _, t := range history {
			turns = append(turns, map[string]string{"role": t.Role, "content": t.Content})
		}
		payload["history"] = turns
	}
	var out struct {
		Answer   string `json:"answer"`
		MBTIType string `json:"mbti_type"`
		TypeName string `json:"type_name"`
	}
	if err := h.do(ctx, "qa", http.MethodPost, h.endpoint("/qa"), payload, &out); err != nil {
		return nil, err
	}
	return &adapter.QAResult{Answer: out.Answer, MBTIType: out.MBTIType, TypeName: out.TypeName}, nil
}
