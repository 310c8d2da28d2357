package adapter

import (
	"context"
	"time"
)

// AssessmentService is the remote backend that owns the authoritative session
// record, the AI calls and report generation. The client consumes it through
// these six operations plus the result Q&A.
type AssessmentService interface {
	Start(ctx context.Context, depth, language string) (*StartResult, error)
	Message(ctx context.Context, sessionID, content string) (*MessageResult, error)
	Finish(ctx context.Context, sessionID string) (*FinishResult, error)
	Upgrade(ctx context.Context, sessionID string) (*UpgradeResult, error)
	Status(ctx context.Context, sessionID string) (*StatusResult, error)
	History(ctx context.Context, sessionID string) ([]HistoryEntry, error)
	Ask(ctx context.Context, sessionID, question string, history []QATurn) (*QAResult, error)
}

type StartResult struct {
	SessionID         string
	Depth             string
	Language          string
	Greeting          string
	SessionsUsed      int
	SessionsRemaining int
}

type MessageResult struct {
	ReplyText         string
	IsFinished        bool
	IsAtMaxRounds     bool
	CurrentPrediction string
	ConfidenceScore   int
	CurrentRound      int
	MaxRounds         int
	CognitiveStack    []string
	DevelopmentLevel  string
}

type FinishResult struct {
	MBTIType         string
	TypeName         string
	Group            string
	ConfidenceScore  int
	AnalysisReport   string
	TotalRounds      int
	CognitiveStack   []string
	DevelopmentLevel string
}

type UpgradeResult struct {
	NewDepth        string
	RemainingRounds int
	Message         string
	AIQuestion      string
}

type StatusResult struct {
	Depth             string
	Language          string
	IsActive          bool
	IsComplete        bool
	CurrentRound      int
	CurrentPrediction string
	ConfidenceScore   int
	CognitiveStack    []string
	DevelopmentLevel  string
}

// HistoryEntry is one stored message as returned by the history operation.
// Role is already normalized to "user" or "assistant".
type HistoryEntry struct {
	ID         string
	Role       string
	Content    string
	Prediction string
	Confidence int
	Progress   int
	HasMeta    bool
	CreatedAt  time.Time
}

type QATurn struct {
	Role    string
	Content string
}

type QAResult struct {
	Answer   string
	MBTIType string
	TypeName string
}
