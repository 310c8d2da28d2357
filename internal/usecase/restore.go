// File: internal/usecase/restore.go
package usecase

import (
	"context"
	"time"

	"mbti-assessment-client/internal/domain/model"
	"mbti-assessment-client/internal/infra/logging"
	"mbti-assessment-client/internal/infra/metrics"
)

// RestoreSession rebuilds in-memory state from a previously persisted session
// id. It runs at most once per process lifetime: duplicate invocations no-op
// behind the guard flag, so re-entrant callers cause exactly one history
// fetch. Any failure is treated as "no prior session" — the persisted entry
// is cleared and the client stays at NotStarted.
func (u *sessionUC) RestoreSession(ctx context.Context) error {
	gen, err := u.begin()
	if err != nil {
		return err
	}
	defer u.end(gen)

	u.mu.Lock()
	if u.restored || u.sess.Phase != model.PhaseNotStarted {
		u.mu.Unlock()
		return nil
	}
	u.restored = true
	u.mu.Unlock()

	sessionID, err := u.store.Read(ctx)
	if err != nil || sessionID == "" {
		metrics.IncRestore("miss")
		return nil
	}

	u.mu.Lock()
	if !u.currentLocked(gen) {
		u.mu.Unlock()
		return nil
	}
	if err := u.sess.Transition(model.PhaseRestoring); err != nil {
		u.mu.Unlock()
		return err
	}
	u.mu.Unlock()

	ctx = logging.WithSessID(u.actionCtx(ctx), sessionID)
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "SessionUC.RestoreSession")()

	status, err := u.remote.Status(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Msg("status fetch failed; discarding persisted session")
		u.abandonRestore(ctx, gen)
		return nil
	}
	history, err := u.remote.History(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Msg("history fetch failed; discarding persisted session")
		u.abandonRestore(ctx, gen)
		return nil
	}

	depth := model.Depth(status.Depth)
	if !depth.Valid() {
		depth = model.DepthStandard
	}

	// For a complete session try to recover the terminal result too. The
	// finish operation returns the stored report on revisit. If that fails we
	// fall back to an in-progress view rather than losing the conversation.
	var result *model.ResultData
	if status.IsComplete {
		if fin, ferr := u.remote.Finish(ctx, sessionID); ferr == nil {
			result = &model.ResultData{
				MBTIType:         fin.MBTIType,
				TypeName:         fin.TypeName,
				Group:            fin.Group,
				ConfidenceScore:  fin.ConfidenceScore,
				CognitiveStack:   fin.CognitiveStack,
				DevelopmentLevel: fin.DevelopmentLevel,
				TotalRounds:      fin.TotalRounds,
				AnalysisReport:   fin.AnalysisReport,
			}
		} else {
			log.Warn().Err(ferr).Msg("result fetch failed; restoring as in-progress")
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.currentLocked(gen) {
		return nil
	}

	s := u.sess
	s.ID = sessionID
	s.Depth = depth
	s.Language = status.Language
	s.CurrentRound = status.CurrentRound
	// Recompute the limit from the tier instead of trusting any stored
	// progress value; a changed round-limit formula must not produce jumps.
	s.MaxRounds = depth.MaxRounds()
	s.CurrentPrediction = status.CurrentPrediction
	if s.CurrentPrediction == "" {
		s.CurrentPrediction = model.PredictionUnknown
	}
	s.ConfidenceScore = status.ConfidenceScore
	s.CognitiveStack = status.CognitiveStack
	s.DevelopmentLevel = status.DevelopmentLevel
	s.Messages = s.Messages[:0]
	for _, e := range history {
		var meta *model.MessageMeta
		if e.HasMeta {
			meta = &model.MessageMeta{
				Prediction: e.Prediction,
				Confidence: e.Confidence,
				Progress:   e.Progress,
			}
		}
		m := model.Message{
			ID:        e.ID,
			Role:      e.Role,
			Content:   e.Content,
			Meta:      meta,
			Timestamp: e.CreatedAt,
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = time.Now()
		}
		s.Messages = append(s.Messages, m)
	}

	next := model.PhaseActive
	switch {
	case result != nil:
		next = model.PhaseFinished
		s.Result = result
	case s.CurrentRound >= s.MaxRounds:
		next = model.PhaseAtMaxRounds
	}
	if err := s.Transition(next); err != nil {
		return err
	}

	metrics.IncRestore("hit")
	log.Info().
		Str("phase", string(s.Phase)).
		Int("round", s.CurrentRound).
		Int("messages", len(s.Messages)).
		Msg("session restored")
	return nil
}

// abandonRestore clears the persisted entry and drops back to NotStarted.
func (u *sessionUC) abandonRestore(ctx context.Context, gen uint64) {
	metrics.IncRestore("fail")
	_ = u.store.Clear(ctx)
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.currentLocked(gen) {
		return
	}
	u.sess = model.NewSession()
}
