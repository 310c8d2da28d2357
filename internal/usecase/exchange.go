// File: internal/usecase/exchange.go
package usecase

import (
	"context"
	"errors"

	"mbti-assessment-client/internal/domain"
	"mbti-assessment-client/internal/domain/model"
	"mbti-assessment-client/internal/infra/logging"
	"mbti-assessment-client/internal/infra/metrics"
)

// SendMessage runs one conversational turn: append the user message, call the
// remote service, append the reply and fold its counters into the session.
//
// The user-message append is optimistic and is not rolled back on failure; the
// failed content is kept so RetryLastMessage can re-send it. A retry of the
// same content does not append a second bubble.
func (u *sessionUC) SendMessage(ctx context.Context, content string) error {
	content = normalizeContent(content)
	if content == "" {
		return domain.ErrInvalidArgument
	}

	gen, err := u.begin()
	if err != nil {
		return err
	}
	defer u.end(gen)

	u.mu.Lock()
	if !u.sess.Started() || !u.sess.Active() {
		u.mu.Unlock()
		return domain.ErrNoActiveSession
	}
	sessionID := u.sess.ID
	// Dedupe: when the sequence already ends with this exact user message the
	// previous attempt failed in flight. Re-send without a duplicate bubble.
	isRetry := false
	if n := len(u.sess.Messages); n > 0 {
		last := u.sess.Messages[n-1]
		isRetry = last.Role == model.RoleUser && last.Content == content
	}
	if !isRetry {
		u.sess.AppendMessage(newMessageID(), model.RoleUser, content, nil)
	}
	u.lastError = ""
	u.mu.Unlock()

	ctx = u.actionCtx(ctx)
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "SessionUC.SendMessage")()

	res, err := u.remote.Message(ctx, sessionID, content)
	if err != nil {
		metrics.IncExchange("error")
		u.mu.Lock()
		defer u.mu.Unlock()
		if !u.currentLocked(gen) {
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Msg("remote session gone; clearing and restarting")
			u.clearAndRestartLocked()
			u.lastError = classOf(err)
			return err
		}
		u.lastError = classOf(err)
		u.lastFailedMessage = content
		u.retryCount++
		log.Warn().Err(err).Int("retry_count", u.retryCount).Msg("message exchange failed")
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.currentLocked(gen) {
		return nil
	}

	s := u.sess
	// Round counters come from the service, never from the AI's own estimate.
	s.CurrentRound = res.CurrentRound
	if res.MaxRounds > 0 {
		s.MaxRounds = res.MaxRounds
	}
	if res.CurrentPrediction != "" {
		s.CurrentPrediction = res.CurrentPrediction
	}
	s.ConfidenceScore = res.ConfidenceScore
	if len(res.CognitiveStack) > 0 {
		s.CognitiveStack = res.CognitiveStack
	}
	if res.DevelopmentLevel != "" {
		s.DevelopmentLevel = res.DevelopmentLevel
	}

	s.AppendMessage(newMessageID(), model.RoleAssistant, res.ReplyText, &model.MessageMeta{
		Prediction: s.CurrentPrediction,
		Confidence: s.ConfidenceScore,
		Progress:   s.Progress(),
	})

	next := model.PhaseActive
	switch {
	case res.IsFinished:
		// Only an authoritative response ever finishes a session.
		next = model.PhaseFinished
	case res.IsAtMaxRounds:
		next = model.PhaseAtMaxRounds
	}
	if err := s.Transition(next); err != nil {
		return err
	}

	u.clearErrorLocked()
	metrics.IncExchange("ok")
	log.Debug().
		Int("round", s.CurrentRound).
		Int("max_rounds", s.MaxRounds).
		Str("prediction", s.CurrentPrediction).
		Int("confidence", s.ConfidenceScore).
		Msg("exchange complete")
	return nil
}

// RetryLastMessage re-sends the content of the last failed exchange. The
// dedupe rule in SendMessage keeps the transcript free of duplicate bubbles.
func (u *sessionUC) RetryLastMessage(ctx context.Context) error {
	u.mu.Lock()
	content := u.lastFailedMessage
	u.mu.Unlock()
	if content == "" {
		return domain.ErrInvalidArgument
	}
	return u.SendMessage(ctx, content)
}
