// File: internal/usecase/session_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"mbti-assessment-client/internal/domain"
	"mbti-assessment-client/internal/domain/model"
	"mbti-assessment-client/internal/domain/ports/adapter"
	"mbti-assessment-client/internal/domain/ports/repository"
	"mbti-assessment-client/internal/infra/logging"
	"mbti-assessment-client/internal/infra/worker"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

// SessionUseCase is the single source of truth for assessment session state.
// All mutating operations are serialized: at most one is in flight at a time,
// and a second caller gets domain.ErrBusy instead of a queued action.
type SessionUseCase interface {
	StartSession(ctx context.Context, depth model.Depth, language string) error
	RestoreSession(ctx context.Context) error
	SendMessage(ctx context.Context, content string) error
	RetryLastMessage(ctx context.Context) error
	UpgradeTo(ctx context.Context, next model.Depth) error
	FinishSession(ctx context.Context) error
	AskAboutResult(ctx context.Context, question string) (string, error)
	Reset()
	Snapshot() Snapshot
}

// Snapshot is the read-only view handed to the presentation layer. All
// user-facing copy derived from it is the UI's responsibility.
type Snapshot struct {
	SessionID         string
	Phase             model.Phase
	Depth             model.Depth
	Language          string
	CurrentRound      int
	MaxRounds         int
	Progress          int
	CurrentPrediction string
	ConfidenceScore   int
	CognitiveStack    []string
	DevelopmentLevel  string
	IsFinished        bool
	IsAtMaxRounds     bool
	Messages          []model.Message
	Result            *model.ResultData
	RateLimit         *model.RateLimitInfo
	QATranscript      []model.QAEntry
	Error             string
	LastFailedMessage string
	RetryCount        int
}

type sessionUC struct {
	mu sync.Mutex

	sess *model.Session
	qa   []model.QAEntry

	remote  adapter.AssessmentService
	store   repository.SessionStore
	tracker adapter.InsightTracker
	pool    *worker.Pool
	log     *zerolog.Logger

	// Serialization discipline: busy marks one in-flight mutating action;
	// gen invalidates stale in-flight actions after a Reset so they cannot
	// mutate a session the user has already replaced.
	busy bool
	gen  uint64

	// restoration runs at most once per process lifetime
	restored bool

	lastError         string
	lastFailedMessage string
	retryCount        int
}

func NewSessionUseCase(
	remote adapter.AssessmentService,
	store repository.SessionStore,
	tracker adapter.InsightTracker,
	pool *worker.Pool,
	logger *zerolog.Logger,
) *sessionUC {
	return &sessionUC{
		sess:    model.NewSession(),
		remote:  remote,
		store:   store,
		tracker: tracker,
		pool:    pool,
		log:     logger,
	}
}

// begin claims the in-flight slot. Returns the current generation, which the
// caller passes back to commit/end so a Reset that happened mid-call voids
// any state mutation.
func (u *sessionUC) begin() (uint64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.busy {
		return 0, domain.ErrBusy
	}
	u.busy = true
	return u.gen, nil
}

// end releases the in-flight slot unless the session was reset meanwhile.
func (u *sessionUC) end(gen uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if gen == u.gen {
		u.busy = false
	}
}

// current reports whether gen still names the live session. Must be called
// with u.mu held.
func (u *sessionUC) currentLocked(gen uint64) bool { return gen == u.gen }

func (u *sessionUC) actionCtx(ctx context.Context) context.Context {
	ctx = logging.WithTraceID(ctx, ulid.Make().String())
	if u.sess.Started() {
		ctx = logging.WithSessID(ctx, u.sess.ID)
	}
	return ctx
}

// StartSession creates a new remote session. It requires that none is active;
// on failure nothing is mutated, so there is never a half-started session.
func (u *sessionUC) StartSession(ctx context.Context, depth model.Depth, language string) error {
	if !depth.Valid() {
		return domain.ErrInvalidArgument
	}
	if language == "" {
		language = "zh-CN"
	}

	gen, err := u.begin()
	if err != nil {
		return err
	}
	defer u.end(gen)

	u.mu.Lock()
	if u.sess.Started() {
		u.mu.Unlock()
		return domain.ErrSessionExists
	}
	u.mu.Unlock()

	ctx = u.actionCtx(ctx)
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "SessionUC.StartSession")()

	res, err := u.remote.Start(ctx, string(depth), language)
	if err != nil {
		u.recordError(gen, err)
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.currentLocked(gen) {
		return nil
	}

	s := model.NewSession()
	if err := s.Transition(model.PhaseActive); err != nil {
		return err
	}
	s.ID = res.SessionID
	s.Depth = depth
	s.Language = res.Language
	s.MaxRounds = depth.MaxRounds()
	s.CreatedAt = time.Now()
	s.RateLimit = &model.RateLimitInfo{
		SessionsUsed:      res.SessionsUsed,
		SessionsRemaining: res.SessionsRemaining,
	}
	s.AppendMessage(newMessageID(), model.RoleAssistant, res.Greeting, &model.MessageMeta{
		Prediction: model.PredictionUnknown,
	})
	u.sess = s
	u.clearErrorLocked()

	if u.store.Available(ctx) {
		_ = u.store.Save(ctx, s.ID)
	} else {
		log.Debug().Msg("session store unavailable; restoration disabled for this session")
	}

	u.submitDetached(func(tctx context.Context) error {
		return u.tracker.TrackSession(tctx, s.ID, string(depth))
	})

	log.Info().Str("session_id", s.ID).Str("depth", string(depth)).Msg("session started")
	return nil
}

// Reset clears the persisted entry and returns all in-memory state to initial
// values. It never contacts the remote service. Any action still in flight is
// voided: its results land on a dead generation and are dropped.
func (u *sessionUC) Reset() {
	u.mu.Lock()
	u.gen++
	u.busy = false
	u.sess = model.NewSession()
	u.qa = nil
	u.clearErrorLocked()
	u.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = u.store.Clear(ctx)

	u.log.Info().Msg("session reset")
}

// recordError stores the classified error string for the UI, unless the
// session was reset while the call was in flight.
func (u *sessionUC) recordError(gen uint64, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.currentLocked(gen) {
		return
	}
	u.lastError = classOf(err)
}

func (u *sessionUC) clearErrorLocked() {
	u.lastError = ""
	u.lastFailedMessage = ""
	u.retryCount = 0
}

// clearAndRestartLocked handles a remote NotFound: the session no longer
// exists at that identity, so retrying is pointless. The persisted id is
// cleared and the client returns to NotStarted.
func (u *sessionUC) clearAndRestartLocked() {
	u.gen++
	u.busy = false
	u.sess = model.NewSession()
	u.qa = nil
	u.lastFailedMessage = ""
	u.retryCount = 0
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = u.store.Clear(ctx)
	}()
}

func (u *sessionUC) submitDetached(task worker.Task) {
	if u.tracker == nil || u.pool == nil {
		return
	}
	if err := u.pool.Submit(task); err != nil {
		u.log.Warn().Err(err).Msg("detached task dropped")
	}
}

// Snapshot returns a copy of the current state for rendering.
func (u *sessionUC) Snapshot() Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()

	s := u.sess
	snap := Snapshot{
		SessionID:         s.ID,
		Phase:             s.Phase,
		Depth:             s.Depth,
		Language:          s.Language,
		CurrentRound:      s.CurrentRound,
		MaxRounds:         s.MaxRounds,
		Progress:          s.Progress(),
		CurrentPrediction: s.CurrentPrediction,
		ConfidenceScore:   s.ConfidenceScore,
		DevelopmentLevel:  s.DevelopmentLevel,
		IsFinished:        s.Finished(),
		IsAtMaxRounds:     s.AtMaxRounds(),
		Error:             u.lastError,
		LastFailedMessage: u.lastFailedMessage,
		RetryCount:        u.retryCount,
	}
	snap.Messages = make([]model.Message, len(s.Messages))
	copy(snap.Messages, s.Messages)
	if len(s.CognitiveStack) > 0 {
		snap.CognitiveStack = append([]string(nil), s.CognitiveStack...)
	}
	if s.Result != nil {
		r := *s.Result
		snap.Result = &r
	}
	if s.RateLimit != nil {
		rl := *s.RateLimit
		snap.RateLimit = &rl
	}
	if len(u.qa) > 0 {
		snap.QATranscript = append([]model.QAEntry(nil), u.qa...)
	}
	return snap
}

// classOf renders a taxonomy error as the stable string the UI keys copy on.
func classOf(err error) string {
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

func newMessageID() string { return uuid.NewString() }

func normalizeContent(s string) string { return strings.TrimSpace(s) }
