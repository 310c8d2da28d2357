// File: internal/infra/insight/tracker.go
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mbti-assessment-client/internal/domain/ports/adapter"
)

var _ adapter.InsightTracker = (*HTTPTracker)(nil)

// HTTPTracker sends anonymous usage beacons to the assessment service's
// tracking endpoints. Callers run it through the detached worker pool; errors
// returned here end up as a single warn log line and nothing else.
type HTTPTracker struct {
	baseURL  string
	clientID string
	apiKey   string
	client   *http.Client
}

func NewHTTPTracker(baseURL, clientID, apiKey string) *HTTPTracker {
	return &HTTPTracker{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *HTTPTracker) post(ctx context.Context, path string, payload map[string]any) error {
	payload["anonymous_id"] = t.clientID
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("X-API-Key", t.apiKey)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("insight %s: http %d", path, resp.StatusCode)
	}
	return nil
}

func (t *HTTPTracker) TrackSession(ctx context.Context, sessionID, depth string) error {
	return t.post(ctx, "/api/user/track-session", map[string]any{
		"session_id": sessionID,
		"mode":       depth,
	})
}

func (t *HTTPTracker) TrackCompletion(ctx context.Context, sessionID, mbtiType, depth string) error {
	return t.post(ctx, "/api/user/track-completion", map[string]any{
		"session_id":  sessionID,
		"mbti_result": mbtiType,
		"mode":        depth,
	})
}
