// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"mbti-assessment-client/internal/domain/ports/adapter"
)

// fakeAssessment is a scriptable in-memory stand-in for the remote service.
// Each operation can be overridden per test; unset operations return benign
// defaults. Call counts are tracked for idempotency/serialization assertions.
type fakeAssessment struct {
	mu sync.Mutex

	startFn   func(ctx context.Context, depth, language string) (*adapter.StartResult, error)
	messageFn func(ctx context.Context, sessionID, content string) (*adapter.MessageResult, error)
	finishFn  func(ctx context.Context, sessionID string) (*adapter.FinishResult, error)
	upgradeFn func(ctx context.Context, sessionID string) (*adapter.UpgradeResult, error)
	statusFn  func(ctx context.Context, sessionID string) (*adapter.StatusResult, error)
	historyFn func(ctx context.Context, sessionID string) ([]adapter.HistoryEntry, error)
	askFn     func(ctx context.Context, sessionID, question string, history []adapter.QATurn) (*adapter.QAResult, error)

	startCalls   int
	messageCalls int
	finishCalls  int
	upgradeCalls int
	statusCalls  int
	historyCalls int
	askCalls     int
}

func (f *fakeAssessment) Start(ctx context.Context, depth, language string) (*adapter.StartResult, error) {
	f.mu.Lock()
	f.startCalls++
	fn := f.startFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, depth, language)
	}
	return &adapter.StartResult{
		SessionID: "sess-1",
		Depth:     depth,
		Language:  language,
		Greeting:  "你好！让我们开始吧。",
	}, nil
}

func (f *fakeAssessment) Message(ctx context.Context, sessionID, content string) (*adapter.MessageResult, error) {
	f.mu.Lock()
	f.messageCalls++
	fn := f.messageFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, sessionID, content)
	}
	return &adapter.MessageResult{
		ReplyText:         "好的，下一个问题。",
		CurrentPrediction: "Unknown",
		CurrentRound:      1,
		MaxRounds:         15,
	}, nil
}

func (f *fakeAssessment) Finish(ctx context.Context, sessionID string) (*adapter.FinishResult, error) {
	f.mu.Lock()
	f.finishCalls++
	fn := f.finishFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, sessionID)
	}
	return &adapter.FinishResult{
		MBTIType:        "INTJ",
		TypeName:        "建筑师",
		Group:           "analyst",
		ConfidenceScore: 90,
		AnalysisReport:  "report",
		TotalRounds:     15,
	}, nil
}

func (f *fakeAssessment) Upgrade(ctx context.Context, sessionID string) (*adapter.UpgradeResult, error) {
	f.mu.Lock()
	f.upgradeCalls++
	fn := f.upgradeFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, sessionID)
	}
	return &adapter.UpgradeResult{
		NewDepth:        "standard",
		RemainingRounds: 10,
		Message:         "upgraded",
		AIQuestion:      "继续聊聊你的周末吧？",
	}, nil
}

func (f *fakeAssessment) Status(ctx context.Context, sessionID string) (*adapter.StatusResult, error) {
	f.mu.Lock()
	f.statusCalls++
	fn := f.statusFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, sessionID)
	}
	return &adapter.StatusResult{
		Depth:        "standard",
		IsActive:     true,
		CurrentRound: 3,
	}, nil
}

func (f *fakeAssessment) History(ctx context.Context, sessionID string) ([]adapter.HistoryEntry, error) {
	f.mu.Lock()
	f.historyCalls++
	fn := f.historyFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, sessionID)
	}
	return []adapter.HistoryEntry{
		{ID: "1", Role: "assistant", Content: "greeting", HasMeta: true, Prediction: "Unknown"},
	}, nil
}

func (f *fakeAssessment) Ask(ctx context.Context, sessionID, question string, history []adapter.QATurn) (*adapter.QAResult, error) {
	f.mu.Lock()
	f.askCalls++
	fn := f.askFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, sessionID, question, history)
	}
	return &adapter.QAResult{Answer: "answer", MBTIType: "INTJ"}, nil
}

func (f *fakeAssessment) calls() (start, message, finish, upgrade, status, history int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls, f.messageCalls, f.finishCalls, f.upgradeCalls, f.statusCalls, f.historyCalls
}

// memStore is an always-available in-memory persistence bridge.
type memStore struct {
	mu        sync.Mutex
	id        string
	available bool
}

func newMemStore() *memStore { return &memStore{available: true} }

func (m *memStore) Available(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

func (m *memStore) Save(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.available {
		m.id = sessionID
	}
	return nil
}

func (m *memStore) Read(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.available {
		return "", nil
	}
	return m.id, nil
}

func (m *memStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = ""
	return nil
}

func (m *memStore) stored() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// fakeTracker records tracking beacons; done is closed-over by tests that need
// to wait for the detached task to run.
type fakeTracker struct {
	mu          sync.Mutex
	err         error
	completions int
	sessions    int
	done        chan struct{}
}

func (f *fakeTracker) TrackSession(ctx context.Context, sessionID, depth string) error {
	f.mu.Lock()
	f.sessions++
	err := f.err
	done := f.done
	f.mu.Unlock()
	if done != nil {
		close(done)
		f.mu.Lock()
		f.done = nil
		f.mu.Unlock()
	}
	return err
}

func (f *fakeTracker) TrackCompletion(ctx context.Context, sessionID, mbtiType, depth string) error {
	f.mu.Lock()
	f.completions++
	err := f.err
	done := f.done
	f.mu.Unlock()
	if done != nil {
		close(done)
		f.mu.Lock()
		f.done = nil
		f.mu.Unlock()
	}
	return err
}

func newTestUC(remote *fakeAssessment, st *memStore) *sessionUC {
	logger := zerolog.Nop()
	return NewSessionUseCase(remote, st, nil, nil, &logger)
}
