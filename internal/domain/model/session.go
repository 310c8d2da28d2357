package model

import (
	"math"
	"time"
)

// Depth is the assessment depth tier. It determines the round limit and how
// granular the final report is.
type Depth string

const (
	DepthShallow  Depth = "shallow"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

func (d Depth) Valid() bool {
	switch d {
	case DepthShallow, DepthStandard, DepthDeep:
		return true
	}
	return false
}

// MaxRounds returns the round limit for the tier.
func (d Depth) MaxRounds() int {
	switch d {
	case DepthShallow:
		return 5
	case DepthDeep:
		return 30
	default:
		return 15
	}
}

// Next returns the tier above d, or "" when d cannot be upgraded.
func (d Depth) Next() Depth {
	switch d {
	case DepthShallow:
		return DepthStandard
	case DepthStandard:
		return DepthDeep
	}
	return ""
}

// Phase is the session lifecycle state. All transitions go through
// Session.Transition so invalid ones are rejected in one place instead of
// being guarded by scattered booleans.
type Phase string

const (
	PhaseNotStarted  Phase = "not_started"
	PhaseRestoring   Phase = "restoring"
	PhaseActive      Phase = "active"
	PhaseAtMaxRounds Phase = "at_max_rounds"
	PhaseFinished    Phase = "finished"
)

// allowedTransitions maps each phase to the phases reachable from it.
// Reset (any -> NotStarted) is handled separately in Transition.
var allowedTransitions = map[Phase][]Phase{
	PhaseNotStarted:  {PhaseRestoring, PhaseActive},
	PhaseRestoring:   {PhaseActive, PhaseAtMaxRounds, PhaseFinished},
	PhaseActive:      {PhaseActive, PhaseAtMaxRounds, PhaseFinished},
	PhaseAtMaxRounds: {PhaseActive, PhaseFinished},
	PhaseFinished:    {PhaseActive},
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// PredictionUnknown is the placeholder the remote service uses before it has
// enough signal to guess a type.
const PredictionUnknown = "Unknown"

// MessageMeta is the prediction snapshot attached to an assistant message at
// the time it was received.
type MessageMeta struct {
	Prediction string
	Confidence int
	Progress   int
}

// Message is one turn in the assessment conversation. Messages are append-only;
// they are never mutated after being added to a session.
type Message struct {
	ID        string
	Role      string
	Content   string
	Meta      *MessageMeta
	Timestamp time.Time
}

// RateLimitInfo is the usage snapshot the remote service returns on session
// creation. Read-only on the client.
type RateLimitInfo struct {
	SessionsUsed      int
	SessionsRemaining int
}

// Session is the aggregate root for one assessment conversation. The use case
// layer owns the single instance; everything here is plain state plus the
// phase machine.
type Session struct {
	ID                string
	Depth             Depth
	Language          string
	Phase             Phase
	CurrentRound      int
	MaxRounds         int
	CurrentPrediction string
	ConfidenceScore   int
	CognitiveStack    []string
	DevelopmentLevel  string
	Messages          []Message
	Result            *ResultData
	RateLimit         *RateLimitInfo
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewSession() *Session {
	return &Session{
		Phase:             PhaseNotStarted,
		CurrentPrediction: PredictionUnknown,
		Messages:          make([]Message, 0, 8),
	}
}

// Transition moves the session to next, rejecting edges that are not part of
// the lifecycle. Any phase may transition to NotStarted (reset).
func (s *Session) Transition(next Phase) error {
	if next == PhaseNotStarted {
		s.Phase = next
		return nil
	}
	for _, p := range allowedTransitions[s.Phase] {
		if p == next {
			s.Phase = next
			return nil
		}
	}
	return &TransitionError{From: s.Phase, To: next}
}

// TransitionError reports a rejected phase transition.
type TransitionError struct {
	From, To Phase
}

func (e *TransitionError) Error() string {
	return "invalid session transition: " + string(e.From) + " -> " + string(e.To)
}

// Active reports whether the conversation can accept another exchange.
func (s *Session) Active() bool { return s.Phase == PhaseActive }

func (s *Session) Finished() bool { return s.Phase == PhaseFinished }

func (s *Session) AtMaxRounds() bool { return s.Phase == PhaseAtMaxRounds }

// Started reports whether a remote session identity exists.
func (s *Session) Started() bool { return s.ID != "" }

// Progress is always derived from the round counters, never taken from an
// AI-estimated percentage. This keeps the progress bar monotonic even if the
// round-limit formula changes between releases.
func (s *Session) Progress() int {
	if s.Phase == PhaseFinished {
		return 100
	}
	if s.MaxRounds <= 0 {
		return 0
	}
	p := int(math.Round(float64(s.CurrentRound) / float64(s.MaxRounds) * 100))
	if p > 100 {
		p = 100
	}
	return p
}

// AppendMessage adds one message to the conversation and returns it.
func (s *Session) AppendMessage(id, role, content string, meta *MessageMeta) Message {
	m := Message{
		ID:        id,
		Role:      role,
		Content:   content,
		Meta:      meta,
		Timestamp: time.Now(),
	}
	s.Messages = append(s.Messages, m)
	s.UpdatedAt = time.Now()
	return m
}

// LastUserMessage returns the most recent user-role message, or nil.
func (s *Session) LastUserMessage() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return &s.Messages[i]
		}
	}
	return nil
}
