// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"mbti-assessment-client/internal/domain"
	"mbti-assessment-client/internal/domain/model"
	"mbti-assessment-client/internal/usecase"
)

type messageDTO struct {
	ID        string            `json:"id"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Meta      *messageMetaDTO   `json:"meta,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

type messageMetaDTO struct {
	Prediction string `json:"prediction"`
	Confidence int    `json:"confidence"`
	Progress   int    `json:"progress"`
}

type resultDTO struct {
	MBTIType         string   `json:"mbti_type"`
	TypeName         string   `json:"type_name"`
	Group            string   `json:"group"`
	ConfidenceScore  int      `json:"confidence_score"`
	CognitiveStack   []string `json:"cognitive_stack,omitempty"`
	DevelopmentLevel string   `json:"development_level,omitempty"`
	TotalRounds      int      `json:"total_rounds"`
	AnalysisReport   string   `json:"analysis_report,omitempty"`
}

type qaEntryDTO struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type snapshotDTO struct {
	SessionID         string       `json:"session_id"`
	Phase             string       `json:"phase"`
	Depth             string       `json:"depth"`
	Language          string       `json:"language"`
	CurrentRound      int          `json:"current_round"`
	MaxRounds         int          `json:"max_rounds"`
	Progress          int          `json:"progress"`
	CurrentPrediction string       `json:"current_prediction"`
	ConfidenceScore   int          `json:"confidence_score"`
	CognitiveStack    []string     `json:"cognitive_stack,omitempty"`
	DevelopmentLevel  string       `json:"development_level,omitempty"`
	IsFinished        bool         `json:"is_finished"`
	IsAtMaxRounds     bool         `json:"is_at_max_rounds"`
	Messages          []messageDTO `json:"messages"`
	Result            *resultDTO   `json:"result,omitempty"`
	QATranscript      []qaEntryDTO `json:"qa_transcript,omitempty"`
	Error             string       `json:"error,omitempty"`
	LastFailedMessage string       `json:"last_failed_message,omitempty"`
	RetryCount        int          `json:"retry_count"`
}

func toSnapshotDTO(s usecase.Snapshot) snapshotDTO {
	out := snapshotDTO{
		SessionID:         s.SessionID,
		Phase:             string(s.Phase),
		Depth:             string(s.Depth),
		Language:          s.Language,
		CurrentRound:      s.CurrentRound,
		MaxRounds:         s.MaxRounds,
		Progress:          s.Progress,
		CurrentPrediction: s.CurrentPrediction,
		ConfidenceScore:   s.ConfidenceScore,
		CognitiveStack:    s.CognitiveStack,
		DevelopmentLevel:  s.DevelopmentLevel,
		IsFinished:        s.IsFinished,
		IsAtMaxRounds:     s.IsAtMaxRounds,
		Error:             s.Error,
		LastFailedMessage: s.LastFailedMessage,
		RetryCount:        s.RetryCount,
	}
	out.Messages = make([]messageDTO, 0, len(s.Messages))
	for _, m := range s.Messages {
		dto := messageDTO{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}
		if m.Meta != nil {
			dto.Meta = &messageMetaDTO{
				Prediction: m.Meta.Prediction,
				Confidence: m.Meta.Confidence,
				Progress:   m.Meta.Progress,
			}
		}
		out.Messages = append(out.Messages, dto)
	}
	if s.Result != nil {
		out.Result = &resultDTO{
			MBTIType:         s.Result.MBTIType,
			TypeName:         s.Result.TypeName,
			Group:            s.Result.Group,
			ConfidenceScore:  s.Result.ConfidenceScore,
			CognitiveStack:   s.Result.CognitiveStack,
			DevelopmentLevel: s.Result.DevelopmentLevel,
			TotalRounds:      s.Result.TotalRounds,
			AnalysisReport:   s.Result.AnalysisReport,
		}
	}
	for _, e := range s.QATranscript {
		out.QATranscript = append(out.QATranscript, qaEntryDTO(e))
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor translates a taxonomy error into the gateway's HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrNotUpgradable),
		errors.Is(err, domain.ErrSessionExists),
		errors.Is(err, domain.ErrNoResult):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoActiveSession),
		errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNetworkFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func (s *Server) writeSnapshot(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, toSnapshotDTO(s.uc.Snapshot()))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.writeSnapshot(w)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Depth    string `json:"depth"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}
	if req.Depth == "" {
		req.Depth = string(model.DepthStandard)
	}
	if err := s.uc.StartSession(r.Context(), model.Depth(req.Depth), req.Language); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}
	if err := s.uc.SendMessage(r.Context(), req.Content); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.RetryLastMessage(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Depth string `json:"depth"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}
	if err := s.uc.UpgradeTo(r.Context(), model.Depth(req.Depth)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.FinishSession(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}
	answer, err := s.uc.AskAboutResult(r.Context(), req.Question)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.uc.Reset()
	s.writeSnapshot(w)
}
