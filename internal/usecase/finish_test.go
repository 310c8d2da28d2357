// File: internal/usecase/finish_test.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mbti-assessment-client/internal/domain"
	"mbti-assessment-client/internal/domain/model"
	"mbti-assessment-client/internal/domain/ports/adapter"
	"mbti-assessment-client/internal/infra/worker"
)

func TestFinishSessionBuildsResult(t *testing.T) {
	uc := startActive(t, &fakeAssessment{}, newMemStore(), model.DepthStandard)

	if err := uc.FinishSession(context.Background()); err != nil {
		t.Fatalf("FinishSession: %v", err)
	}
	snap := uc.Snapshot()
	if snap.Phase != model.PhaseFinished || !snap.IsFinished {
		t.Fatalf("phase = %s, want finished", snap.Phase)
	}
	if snap.Result == nil || snap.Result.MBTIType != "INTJ" {
		t.Fatalf("result = %+v, want INTJ report", snap.Result)
	}
	if snap.Progress != 100 {
		t.Fatalf("progress = %d, want 100", snap.Progress)
	}
	if snap.CurrentPrediction != "INTJ" || snap.ConfidenceScore != 90 {
		t.Fatalf("prediction not promoted from result: %s/%d", snap.CurrentPrediction, snap.ConfidenceScore)
	}
}

func TestFinishWithoutSession(t *testing.T) {
	uc := newTestUC(&fakeAssessment{}, newMemStore())
	if err := uc.FinishSession(context.Background()); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("err = %v, want ErrNoActiveSession", err)
	}
}

func TestFinishFailureKeepsSession(t *testing.T) {
	remote := &fakeAssessment{
		finishFn: func(ctx context.Context, sessionID string) (*adapter.FinishResult, error) {
			return nil, domain.ErrServiceUnavailable
		},
	}
	uc := startActive(t, remote, newMemStore(), model.DepthStandard)

	if err := uc.FinishSession(context.Background()); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
	snap := uc.Snapshot()
	if snap.Phase != model.PhaseActive || snap.Result != nil {
		t.Fatalf("failed finish mutated session: phase=%s result=%v", snap.Phase, snap.Result)
	}
}

func TestFinishNotFoundClearsSession(t *testing.T) {
	remote := &fakeAssessment{
		finishFn: func(ctx context.Context, sessionID string) (*adapter.FinishResult, error) {
			return nil, domain.ErrNotFound
		},
	}
	st := newMemStore()
	uc := startActive(t, remote, st, model.DepthStandard)

	if err := uc.FinishSession(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if snap := uc.Snapshot(); snap.Phase != model.PhaseNotStarted {
		t.Fatalf("phase = %s, want not_started", snap.Phase)
	}
}

func TestFinishTrackerFailureIgnored(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := zerolog.Nop()
	pool := worker.NewPool(2, &logger)
	pool.Start(ctx)
	defer pool.Stop()

	tracker := &fakeTracker{err: errors.New("beacon endpoint down"), done: make(chan struct{})}
	uc := NewSessionUseCase(&fakeAssessment{}, newMemStore(), tracker, pool, &logger)

	if err := uc.StartSession(ctx, model.DepthStandard, ""); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	select {
	case <-tracker.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("session beacon never submitted")
	}

	tracker.mu.Lock()
	tracker.done = make(chan struct{})
	done := tracker.done
	tracker.mu.Unlock()

	if err := uc.FinishSession(ctx); err != nil {
		t.Fatalf("FinishSession: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("completion beacon never submitted")
	}
	if snap := uc.Snapshot(); snap.Result == nil || snap.Error != "" {
		t.Fatalf("tracker failure leaked into the session: %+v", snap)
	}
}

func TestDeepSessionFullRun(t *testing.T) {
	const maxRounds = 30
	round := 0
	remote := &fakeAssessment{
		startFn: func(ctx context.Context, depth, language string) (*adapter.StartResult, error) {
			return &adapter.StartResult{SessionID: "sess-deep", Depth: depth, Greeting: "hi"}, nil
		},
		messageFn: func(ctx context.Context, sessionID, content string) (*adapter.MessageResult, error) {
			round++
			return &adapter.MessageResult{
				ReplyText:         fmt.Sprintf("question %d", round+1),
				CurrentPrediction: "ENFP",
				ConfidenceScore:   50 + round,
				CurrentRound:      round,
				MaxRounds:         maxRounds,
				IsAtMaxRounds:     round >= maxRounds,
			}, nil
		},
		finishFn: func(ctx context.Context, sessionID string) (*adapter.FinishResult, error) {
			return &adapter.FinishResult{
				MBTIType:         "ENFP",
				TypeName:         "竞选者",
				Group:            "diplomat",
				ConfidenceScore:  85,
				CognitiveStack:   []string{"Ne", "Fi", "Te", "Si"},
				DevelopmentLevel: model.DevelopmentMedium,
				AnalysisReport:   "full report",
				TotalRounds:      maxRounds,
			}, nil
		},
	}
	uc := startActive(t, remote, newMemStore(), model.DepthDeep)
	ctx := context.Background()

	for i := 0; i < maxRounds; i++ {
		if err := uc.SendMessage(ctx, fmt.Sprintf("answer %d", i+1)); err != nil {
			t.Fatalf("round %d: %v", i+1, err)
		}
	}
	snap := uc.Snapshot()
	if snap.Phase != model.PhaseAtMaxRounds || snap.Progress != 100 {
		t.Fatalf("after %d rounds: phase=%s progress=%d", maxRounds, snap.Phase, snap.Progress)
	}

	if err := uc.FinishSession(ctx); err != nil {
		t.Fatalf("FinishSession: %v", err)
	}
	snap = uc.Snapshot()
	if snap.Result == nil {
		t.Fatalf("no result after finish")
	}
	if len(snap.Result.CognitiveStack) != 4 {
		t.Fatalf("cognitive stack = %v, want 4 functions", snap.Result.CognitiveStack)
	}
	switch snap.Result.DevelopmentLevel {
	case model.DevelopmentLow, model.DevelopmentMedium, model.DevelopmentHigh:
	default:
		t.Fatalf("development level = %q", snap.Result.DevelopmentLevel)
	}
	if snap.Result.TotalRounds != maxRounds {
		t.Fatalf("total rounds = %d, want %d", snap.Result.TotalRounds, maxRounds)
	}
}
