// File: internal/usecase/qa.go
package usecase

import (
	"context"

	"mbti-assessment-client/internal/domain"
	"mbti-assessment-client/internal/domain/model"
	"mbti-assessment-client/internal/domain/ports/adapter"
	"mbti-assessment-client/internal/infra/logging"
)

// AskAboutResult sends a follow-up question about the assessment outcome.
// It needs a known prediction, not a finished session: the service answers
// as soon as it has a type to talk about. The Q&A transcript is kept apart
// from the assessment message sequence.
func (u *sessionUC) AskAboutResult(ctx context.Context, question string) (string, error) {
	question = normalizeContent(question)
	if question == "" {
		return "", domain.ErrInvalidArgument
	}

	gen, err := u.begin()
	if err != nil {
		return "", err
	}
	defer u.end(gen)

	u.mu.Lock()
	if !u.sess.Started() {
		u.mu.Unlock()
		return "", domain.ErrNoActiveSession
	}
	if u.sess.CurrentPrediction == "" || u.sess.CurrentPrediction == model.PredictionUnknown {
		u.mu.Unlock()
		return "", domain.ErrNoResult
	}
	sessionID := u.sess.ID
	history := make([]adapter.QATurn, 0, len(u.qa)*2)
	for _, e := range u.qa {
		history = append(history,
			adapter.QATurn{Role: model.RoleUser, Content: e.Question},
			adapter.QATurn{Role: model.RoleAssistant, Content: e.Answer},
		)
	}
	u.mu.Unlock()

	ctx = u.actionCtx(ctx)
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "SessionUC.AskAboutResult")()

	res, err := u.remote.Ask(ctx, sessionID, question, history)
	if err != nil {
		u.recordError(gen, err)
		return "", err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.currentLocked(gen) {
		return res.Answer, nil
	}
	u.qa = append(u.qa, model.QAEntry{Question: question, Answer: res.Answer})
	u.lastError = ""
	return res.Answer, nil
}
