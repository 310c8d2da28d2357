// File: internal/usecase/upgrade.go
package usecase

import (
	"context"

	"mbti-assessment-client/internal/domain"
	"mbti-assessment-client/internal/domain/model"
	"mbti-assessment-client/internal/infra/logging"
	"mbti-assessment-client/internal/infra/metrics"
)

// UpgradeTo moves the session into the next depth tier without losing the
// conversation. All-or-nothing: on failure neither the depth nor the round
// limit changes.
//
// Continuity rule: the question the service returns is stamped with the
// pre-upgrade prediction and confidence so the displayed type never blanks
// out while the new rounds are being gathered.
func (u *sessionUC) UpgradeTo(ctx context.Context, next model.Depth) error {
	if !next.Valid() || next == model.DepthShallow {
		return domain.ErrInvalidArgument
	}

	gen, err := u.begin()
	if err != nil {
		return err
	}
	defer u.end(gen)

	u.mu.Lock()
	if !u.sess.Started() {
		u.mu.Unlock()
		return domain.ErrNoActiveSession
	}
	if u.sess.Depth.Next() != next {
		u.mu.Unlock()
		return domain.ErrNotUpgradable
	}
	sessionID := u.sess.ID
	prevPrediction := u.sess.CurrentPrediction
	prevConfidence := u.sess.ConfidenceScore
	u.mu.Unlock()

	ctx = u.actionCtx(ctx)
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "SessionUC.UpgradeTo")()

	res, err := u.remote.Upgrade(ctx, sessionID)
	if err != nil {
		u.recordError(gen, err)
		log.Warn().Err(err).Str("target_depth", string(next)).Msg("upgrade failed")
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.currentLocked(gen) {
		return nil
	}

	s := u.sess
	if err := s.Transition(model.PhaseActive); err != nil {
		return err
	}
	s.Depth = next
	s.MaxRounds = next.MaxRounds()
	// A reopened conversation cannot coexist with a terminal result.
	s.Result = nil

	s.AppendMessage(newMessageID(), model.RoleAssistant, res.AIQuestion, &model.MessageMeta{
		Prediction: prevPrediction,
		Confidence: prevConfidence,
		Progress:   s.Progress(),
	})

	u.clearErrorLocked()
	metrics.IncUpgrade(string(next))
	log.Info().
		Str("depth", string(next)).
		Int("remaining_rounds", res.RemainingRounds).
		Str("prediction", prevPrediction).
		Msg("session upgraded")
	return nil
}
