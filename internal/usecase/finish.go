// File: internal/usecase/finish.go
package usecase

import (
	"context"
	"errors"

	"mbti-assessment-client/internal/domain"
	"mbti-assessment-client/internal/domain/model"
	"mbti-assessment-client/internal/infra/logging"
	"mbti-assessment-client/internal/infra/metrics"
)

// FinishSession asks the remote service for the final report and switches the
// session into its terminal state. On failure the session stays exactly where
// it was, so the user can retry.
//
// Insight extraction is submitted as a detached task: its failure is logged by
// the worker pool and can never affect the result transition.
func (u *sessionUC) FinishSession(ctx context.Context) error {
	gen, err := u.begin()
	if err != nil {
		return err
	}
	defer u.end(gen)

	u.mu.Lock()
	if !u.sess.Started() || u.sess.Phase == model.PhaseNotStarted || u.sess.Phase == model.PhaseRestoring {
		u.mu.Unlock()
		return domain.ErrNoActiveSession
	}
	sessionID := u.sess.ID
	depth := u.sess.Depth
	u.mu.Unlock()

	ctx = u.actionCtx(ctx)
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "SessionUC.FinishSession")()

	res, err := u.remote.Finish(ctx, sessionID)
	if err != nil {
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
		log.Warn().Err(err).Msg("finish failed")
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.currentLocked(gen) {
		return nil
	}

	s := u.sess
	if err := s.Transition(model.PhaseFinished); err != nil {
		return err
	}
	s.Result = &model.ResultData{
		MBTIType:         res.MBTIType,
		TypeName:         res.TypeName,
		Group:            res.Group,
		ConfidenceScore:  res.ConfidenceScore,
		CognitiveStack:   res.CognitiveStack,
		DevelopmentLevel: res.DevelopmentLevel,
		TotalRounds:      res.TotalRounds,
		AnalysisReport:   res.AnalysisReport,
	}
	s.CurrentPrediction = res.MBTIType
	s.ConfidenceScore = res.ConfidenceScore
	if len(res.CognitiveStack) > 0 {
		s.CognitiveStack = res.CognitiveStack
	}
	if res.DevelopmentLevel != "" {
		s.DevelopmentLevel = res.DevelopmentLevel
	}

	u.clearErrorLocked()
	metrics.IncCompletion()

	mbti := res.MBTIType
	u.submitDetached(func(tctx context.Context) error {
		return u.tracker.TrackCompletion(tctx, sessionID, mbti, string(depth))
	})

	log.Info().
		Str("mbti_type", res.MBTIType).
		Int("confidence", res.ConfidenceScore).
		Int("total_rounds", res.TotalRounds).
		Msg("session finished")
	return nil
}
